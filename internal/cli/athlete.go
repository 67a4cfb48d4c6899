package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bikelog/internal/bike"
	"bikelog/internal/store"
	"bikelog/internal/strava"
	"bikelog/internal/tui"
	"bikelog/internal/units"
)

func init() {
	cmd := &cobra.Command{
		Use:   "athlete",
		Short: "Show the athlete's bikes and their log codes",
		Long:  "List the bikes on the Strava account with the code each gets in the bike log.",
		Args:  cobra.NoArgs,
		RunE:  runAthlete,
	}

	RootCmd.AddCommand(cmd)
}

func runAthlete(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	classifier, err := bike.NewClassifier(s.cfg.Bikes)
	if err != nil {
		return fmt.Errorf("loading bike rules: %w", err)
	}

	client, err := s.client(cmd)
	if err != nil {
		return err
	}
	athlete, err := client.GetAthlete(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetching athlete: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, tui.RenderBikes(athleteName(athlete), bikeRows(classifier, athlete.Bikes), units.New(s.cfg.Display.Imperial())))

	ctx := cmd.Context()
	last, err := s.db.GetSyncState(ctx, store.KeyLastFetch)
	if err != nil {
		return fmt.Errorf("reading last fetch: %w", err)
	}
	if last == "" {
		last = "never"
	} else if t, err := time.Parse(time.RFC3339, last); err == nil {
		last = humanize.Time(t)
	}
	fmt.Fprintf(out, "\nLast fetch: %s\n", last)

	cached, err := s.db.CountSegments(ctx)
	if err != nil {
		return fmt.Errorf("counting cached segments: %w", err)
	}
	fmt.Fprintf(out, "Cached segments: %s\n", humanize.Comma(int64(cached)))
	return nil
}

func bikeRows(classifier *bike.Classifier, bikes []strava.Gear) []tui.BikeRow {
	rows := make([]tui.BikeRow, 0, len(bikes))
	for _, g := range bikes {
		code, _ := classifier.Classify(g.Name)
		rows = append(rows, tui.BikeRow{
			Name:     g.Name,
			Code:     code,
			Distance: g.Distance,
			Primary:  g.Primary,
		})
	}
	return rows
}

func athleteName(a *strava.Athlete) string {
	name := a.Firstname
	if a.Lastname != "" {
		name += " " + a.Lastname
	}
	if name == "" {
		name = a.Username
	}
	return name
}
