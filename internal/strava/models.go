package strava

import "time"

// Athlete represents the authenticated athlete
type Athlete struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Bikes     []Gear `json:"bikes"`
	Shoes     []Gear `json:"shoes"`
}

// Gear is a bike or pair of shoes
type Gear struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Primary  bool    `json:"primary"`
	Distance float64 `json:"distance"` // meters
}

// Activity represents a Strava activity from the API.
// Description, DeviceName, Gear and SegmentEfforts are only filled by the
// detail endpoint.
type Activity struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	Type               string          `json:"type"`
	SportType          string          `json:"sport_type"`
	StartDate          time.Time       `json:"start_date"`
	StartDateLocal     time.Time       `json:"start_date_local"`
	Timezone           string          `json:"timezone"`
	Distance           float64         `json:"distance"`             // meters
	MovingTime         int             `json:"moving_time"`          // seconds
	ElapsedTime        int             `json:"elapsed_time"`         // seconds
	TotalElevationGain float64         `json:"total_elevation_gain"` // meters
	Commute            bool            `json:"commute"`
	GearID             string          `json:"gear_id"`
	AverageTemp        *float64        `json:"average_temp"` // celsius
	Description        string          `json:"description"`
	DeviceName         string          `json:"device_name"`
	Gear               *Gear           `json:"gear"`
	SegmentEfforts     []SegmentEffort `json:"segment_efforts"`
}

// SegmentEffort is an effort embedded in a detailed activity
type SegmentEffort struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	ElapsedTime int     `json:"elapsed_time"`
	MovingTime  int     `json:"moving_time"`
	Distance    float64 `json:"distance"`
	Segment     struct {
		ID int64 `json:"id"`
	} `json:"segment"`
}

// Segment is a starred or detailed segment
type Segment struct {
	ID              int64         `json:"id"`
	Name            string        `json:"name"`
	ActivityType    string        `json:"activity_type"`
	Distance        float64       `json:"distance"`
	AverageGrade    *float64      `json:"average_grade"`
	ElevationHigh   *float64      `json:"elevation_high"`
	ElevationLow    *float64      `json:"elevation_low"`
	City            string        `json:"city"`
	State           string        `json:"state"`
	Country         string        `json:"country"`
	Starred         bool          `json:"starred"`
	AthletePREffort *PREffort     `json:"athlete_pr_effort"`
	AthleteStats    *SegmentStats `json:"athlete_segment_stats"`
}

// PREffort is the athlete's best effort on a segment
type PREffort struct {
	ID          int64   `json:"id"`
	ElapsedTime int     `json:"elapsed_time"`
	MovingTime  int     `json:"moving_time"`
	Distance    float64 `json:"distance"`
}

// SegmentStats is returned by the segment detail endpoint
type SegmentStats struct {
	PRElapsedTime int `json:"pr_elapsed_time"`
	EffortCount   int `json:"effort_count"`
}

// Streams represents stream data from the API
// Strava returns streams keyed by type when key_by_type=true
type Streams struct {
	LatLng   *StreamData[[2]float64] `json:"latlng"`
	Distance *StreamData[float64]    `json:"distance"`
}

// StreamData represents a single stream type
type StreamData[T any] struct {
	Data         []T    `json:"data"`
	SeriesType   string `json:"series_type"`
	OriginalSize int    `json:"original_size"`
	Resolution   string `json:"resolution"`
}

// Len returns the number of track points, or 0 if nil
func (s *Streams) Len() int {
	if s == nil || s.LatLng == nil {
		return 0
	}
	return len(s.LatLng.Data)
}
