package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bikelog/internal/daterange"
	"bikelog/internal/service"
	"bikelog/internal/tui"
)

// fetchFlags are the activity selection flags shared by kml and log
type fetchFlags struct {
	dates   string
	types   []string
	commute string
}

func (f *fetchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dates, "dates", "", "Date ranges, e.g. 20240101-20240131,202402,2023 (default: all)")
	cmd.Flags().StringSliceVarP(&f.types, "type", "t", nil, "Activity types to keep, e.g. Ride,Hike (default: all)")
	cmd.Flags().StringVar(&f.commute, "commute", "any", "Commute filter: any, only or exclude")
}

// options builds the fetch options. Dates are read in the local time zone.
func (f *fetchFlags) options(s *session) (service.FetchOptions, error) {
	opts := service.FetchOptions{
		Types:       f.types,
		Concurrency: s.cfg.Fetch.Concurrency,
		PageSize:    s.cfg.Fetch.PageSize,
	}

	if f.dates != "" {
		set, err := daterange.Parse(f.dates, time.Local)
		if err != nil {
			return opts, err
		}
		opts.Dates = set
	}

	switch f.commute {
	case "", "any":
		opts.Commute = service.CommuteAny
	case "only":
		opts.Commute = service.CommuteOnly
	case "exclude":
		opts.Commute = service.CommuteExclude
	default:
		return opts, fmt.Errorf("--commute must be any, only or exclude, got %q", f.commute)
	}
	return opts, nil
}

// fetch downloads what opts selects, drawing progress when attached to a terminal
func (s *session) fetch(cmd *cobra.Command, opts service.FetchOptions) (*service.FetchResult, error) {
	client, err := s.client(cmd)
	if err != nil {
		return nil, err
	}

	fetcher := service.NewFetchService(client, s.db, s.cfg.Aliases, s.logger)
	result, err := tui.RunFetch(cmd.Context(), fetcher, opts, cmd.ErrOrStderr(), interactive(), s.logger)
	if err != nil {
		return nil, fmt.Errorf("fetching from Strava: %w", err)
	}

	short, daily := client.RateLimitStatus()
	s.logger.Debug("rate limit remaining", zap.Int("short", short), zap.Int("daily", daily))
	return result, nil
}
