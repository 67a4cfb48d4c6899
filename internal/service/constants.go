package service

const (
	// DefaultConcurrency bounds parallel detail and stream requests
	DefaultConcurrency = 4

	// DefaultPageSize is the activity list page size
	DefaultPageSize = 100
)

// Fetch phases reported on the progress channel
const (
	PhaseAthlete    = "athlete"
	PhaseActivities = "activities"
	PhaseDetails    = "details"
	PhaseSegments   = "segments"
)

// CommuteFilter selects activities by their commute flag
type CommuteFilter int

const (
	CommuteAny CommuteFilter = iota
	CommuteOnly
	CommuteExclude
)

// Keep reports whether an activity with the given flag passes the filter
func (f CommuteFilter) Keep(commute bool) bool {
	switch f {
	case CommuteOnly:
		return commute
	case CommuteExclude:
		return !commute
	}
	return true
}
