package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bikelog/internal/daterange"
	"bikelog/internal/model"
	"bikelog/internal/store"
	"bikelog/internal/strava"
)

// Source is the part of the Strava API the fetcher uses
type Source interface {
	GetAthlete(ctx context.Context) (*strava.Athlete, error)
	GetAllActivities(ctx context.Context, after, before time.Time, perPage int, onProgress func(fetched int)) ([]strava.Activity, error)
	GetActivity(ctx context.Context, activityID int64) (*strava.Activity, error)
	GetActivityStreams(ctx context.Context, activityID int64) (*strava.Streams, error)
	GetAllStarredSegments(ctx context.Context) ([]strava.Segment, error)
	GetSegment(ctx context.Context, segmentID int64) (*strava.Segment, error)
	GetSegmentStreams(ctx context.Context, segmentID int64) (*strava.Streams, error)
}

// SegmentCache keeps segment details between runs
type SegmentCache interface {
	GetSegment(ctx context.Context, id int64) (*model.Segment, error)
	SaveSegment(ctx context.Context, seg *model.Segment) error
	SetSyncState(ctx context.Context, key, value string) error
}

// FetchService downloads activities and segments and converts them to the
// records the exporters consume
type FetchService struct {
	source  Source
	cache   SegmentCache
	aliases map[string]string
	logger  *zap.Logger
}

// NewFetchService creates a fetch service. aliases maps segment ids to
// display names. cache may be nil, in which case segments are always fetched.
func NewFetchService(source Source, cache SegmentCache, aliases map[string]string, logger *zap.Logger) *FetchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FetchService{source: source, cache: cache, aliases: aliases, logger: logger}
}

// FetchOptions selects what to download
type FetchOptions struct {
	Dates       daterange.Set
	Types       []string // empty keeps every type
	Commute     CommuteFilter
	Details     bool // description, device, gear and segment efforts
	Tracks      bool // latlng streams
	Segments    bool // starred segments
	Concurrency int
	PageSize    int
}

// FetchProgress reports progress during a fetch
type FetchProgress struct {
	Phase     string
	Total     int
	Completed int
	Current   string
}

// FetchResult contains the converted records, in start time order
type FetchResult struct {
	Athlete        *strava.Athlete
	Activities     []model.Activity
	Segments       []model.Segment
	Listed         int // activities returned by the API
	SegmentsCached int // segments served from the cache
}

// Fetch runs every requested phase. progress, when non-nil, is closed on return.
func (s *FetchService) Fetch(ctx context.Context, opts FetchOptions, progress chan<- FetchProgress) (*FetchResult, error) {
	if progress != nil {
		defer close(progress)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}

	result := &FetchResult{}

	report(ctx, progress, FetchProgress{Phase: PhaseAthlete})
	athlete, err := s.source.GetAthlete(ctx)
	if err != nil {
		return result, err
	}
	result.Athlete = athlete

	summaries, err := s.listActivities(ctx, opts, progress)
	if err != nil {
		return result, fmt.Errorf("listing activities: %w", err)
	}
	result.Listed = len(summaries)

	activities, err := s.fetchDetails(ctx, summaries, opts, progress)
	if err != nil {
		return result, fmt.Errorf("fetching activity details: %w", err)
	}
	resolveGear(activities, athlete)
	s.applyAliases(activities)
	result.Activities = activities

	if opts.Segments {
		segments, cached, err := s.fetchSegments(ctx, opts, progress)
		if err != nil {
			return result, fmt.Errorf("fetching segments: %w", err)
		}
		result.Segments = segments
		result.SegmentsCached = cached
	}

	if s.cache != nil {
		if err := s.cache.SetSyncState(ctx, store.KeyLastFetch, time.Now().Format(time.RFC3339)); err != nil {
			s.logger.Warn("recording fetch time", zap.Error(err))
		}
	}

	s.logger.Info("fetch complete",
		zap.Int("listed", result.Listed),
		zap.Int("activities", len(result.Activities)),
		zap.Int("segments", len(result.Segments)),
		zap.Int("segments_cached", result.SegmentsCached))
	return result, nil
}

// listActivities fetches summaries in the date window and applies the filters
func (s *FetchService) listActivities(ctx context.Context, opts FetchOptions, progress chan<- FetchProgress) ([]strava.Activity, error) {
	after, before := opts.Dates.Bounds()
	report(ctx, progress, FetchProgress{Phase: PhaseActivities})

	all, err := s.source.GetAllActivities(ctx, after, before, opts.PageSize, func(fetched int) {
		report(ctx, progress, FetchProgress{Phase: PhaseActivities, Total: fetched, Completed: fetched})
	})
	if err != nil {
		return nil, err
	}

	types := make(map[string]bool, len(opts.Types))
	for _, t := range opts.Types {
		types[t] = true
	}

	var kept []strava.Activity
	for _, a := range all {
		switch {
		case len(types) > 0 && !types[a.Type]:
			continue
		case !opts.Commute.Keep(a.Commute):
			continue
		case !opts.Dates.Contains(a.StartDateLocal):
			continue
		}
		kept = append(kept, a)
	}

	// The API orders by start time only when "after" is given.
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].StartDate.Before(kept[j].StartDate) })

	s.logger.Debug("listed activities", zap.Int("fetched", len(all)), zap.Int("kept", len(kept)))
	return kept, nil
}

// fetchDetails converts summaries, fetching detail and tracks with bounded
// parallelism. Results are written by index so input order is preserved.
func (s *FetchService) fetchDetails(ctx context.Context, summaries []strava.Activity, opts FetchOptions, progress chan<- FetchProgress) ([]model.Activity, error) {
	activities := make([]model.Activity, len(summaries))
	if !opts.Details && !opts.Tracks {
		for i := range summaries {
			activities[i] = summaries[i].ToModel()
			activities[i].Gear = gearRef(summaries[i].GearID)
		}
		return activities, nil
	}

	total := len(summaries)
	done := make(chan string, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i := range summaries {
		g.Go(func() error {
			summary := &summaries[i]
			src := summary
			if opts.Details {
				detail, err := s.source.GetActivity(gctx, summary.ID)
				if err != nil {
					return fmt.Errorf("activity %d (%s): %w", summary.ID, summary.Name, err)
				}
				src = detail
			}

			act := src.ToModel()
			if act.Gear == nil {
				act.Gear = gearRef(summary.GearID)
			}

			if opts.Tracks {
				streams, err := s.source.GetActivityStreams(gctx, summary.ID)
				var apiErr *strava.APIError
				switch {
				case errors.As(err, &apiErr) && apiErr.StatusCode == 404:
					// Manual entries have no streams.
					s.logger.Debug("activity has no track", zap.Int64("activity", summary.ID))
				case err != nil:
					return fmt.Errorf("activity %d (%s): %w", summary.ID, summary.Name, err)
				default:
					act.Coordinates = streams.Points()
				}
			}

			activities[i] = act
			done <- summary.Name
			return nil
		})
	}

	// Progress is reported from this goroutine only.
	waitErr := make(chan error, 1)
	go func() { waitErr <- g.Wait() }()

	completed := 0
	report(ctx, progress, FetchProgress{Phase: PhaseDetails, Total: total})
	for {
		select {
		case name := <-done:
			completed++
			report(ctx, progress, FetchProgress{Phase: PhaseDetails, Total: total, Completed: completed, Current: name})
		case err := <-waitErr:
			if err != nil {
				return nil, err
			}
			return activities, nil
		}
	}
}

// fetchSegments loads starred segments, preferring cached detail
func (s *FetchService) fetchSegments(ctx context.Context, opts FetchOptions, progress chan<- FetchProgress) ([]model.Segment, int, error) {
	report(ctx, progress, FetchProgress{Phase: PhaseSegments})
	starred, err := s.source.GetAllStarredSegments(ctx)
	if err != nil {
		return nil, 0, err
	}

	segments := make([]model.Segment, len(starred))
	cachedFlags := make([]bool, len(starred))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := range starred {
		g.Go(func() error {
			seg, cached, err := s.loadSegment(gctx, &starred[i])
			if err != nil {
				return fmt.Errorf("segment %d (%s): %w", starred[i].ID, starred[i].Name, err)
			}
			segments[i] = *seg
			cachedFlags[i] = cached
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	cached := 0
	for i := range segments {
		if cachedFlags[i] {
			cached++
		}
		if alias, ok := s.aliases[strconv.FormatInt(segments[i].ID, 10)]; ok {
			segments[i].Name = alias
		}
	}
	report(ctx, progress, FetchProgress{Phase: PhaseSegments, Total: len(segments), Completed: len(segments)})
	return segments, cached, nil
}

func (s *FetchService) loadSegment(ctx context.Context, starred *strava.Segment) (*model.Segment, bool, error) {
	if s.cache != nil {
		seg, err := s.cache.GetSegment(ctx, starred.ID)
		if err == nil {
			return seg, true, nil
		}
		if !errors.Is(err, store.ErrSegmentNotCached) {
			return nil, false, err
		}
	}

	detail, err := s.source.GetSegment(ctx, starred.ID)
	if err != nil {
		return nil, false, err
	}
	seg := detail.ToModel()
	if starred.AthletePREffort != nil {
		seg.ElapsedTime = starred.AthletePREffort.ElapsedTime
		seg.MovingTime = starred.AthletePREffort.MovingTime
	}

	streams, err := s.source.GetSegmentStreams(ctx, starred.ID)
	if err != nil {
		return nil, false, err
	}
	seg.Coordinates = streams.Points()

	if s.cache != nil {
		if err := s.cache.SaveSegment(ctx, &seg); err != nil {
			return nil, false, fmt.Errorf("caching: %w", err)
		}
	}
	return &seg, false, nil
}

// applyAliases renames segment efforts whose segment has a configured alias
func (s *FetchService) applyAliases(activities []model.Activity) {
	if len(s.aliases) == 0 {
		return
	}
	for i := range activities {
		for j := range activities[i].SegmentEfforts {
			e := &activities[i].SegmentEfforts[j]
			if alias, ok := s.aliases[strconv.FormatInt(e.SegmentID, 10)]; ok {
				e.Name = alias
			}
		}
	}
}

// resolveGear fills gear names from the athlete's bikes for activities that
// only carry a gear id. Unknown ids are cleared.
func resolveGear(activities []model.Activity, athlete *strava.Athlete) {
	bikes := make(map[string]*model.Equipment)
	if athlete != nil {
		for _, b := range athlete.Bikes {
			bikes[b.ID] = b.Equipment()
		}
	}
	for i := range activities {
		g := activities[i].Gear
		if g == nil || g.Name != "" {
			continue
		}
		activities[i].Gear = bikes[g.ID]
	}
}

func gearRef(id string) *model.Equipment {
	if id == "" {
		return nil
	}
	return &model.Equipment{ID: id}
}

func report(ctx context.Context, progress chan<- FetchProgress, p FetchProgress) {
	if progress == nil {
		return
	}
	select {
	case progress <- p:
	case <-ctx.Done():
	}
}
