package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bikelog/internal/kml"
	"bikelog/internal/service"
	"bikelog/internal/style"
	"bikelog/internal/tui"
)

type kmlFlags struct {
	fetchFlags
	output     string
	name       string
	activities bool
	segments   string
	more       bool
	imperial   bool
}

func init() {
	f := &kmlFlags{}
	cmd := &cobra.Command{
		Use:   "kml",
		Short: "Export activities and starred segments as KML",
		Long: "Export activity tracks and starred segments as a KML document for Google Earth.\n" +
			"Line colors come from the built-in styles and the line_styles config section.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKML(cmd, f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&f.output, "output", "o", "activities.kml", "Output file, - for stdout")
	cmd.Flags().StringVar(&f.name, "name", kml.DefaultName, "Document name")
	cmd.Flags().BoolVar(&f.activities, "activities", true, "Include activity tracks")
	cmd.Flags().StringVar(&f.segments, "segments", "", "Include starred segments: flat or regions")
	cmd.Flags().BoolVarP(&f.more, "more", "m", false, "Add descriptions to placemarks (fetches activity detail)")
	cmd.Flags().BoolVar(&f.imperial, "imperial", false, "Miles and feet in descriptions (default from config)")

	RootCmd.AddCommand(cmd)
}

func runKML(cmd *cobra.Command, f *kmlFlags) error {
	folders, err := segmentFolders(f.segments)
	if err != nil {
		return err
	}
	if !f.activities && f.segments == "" {
		return fmt.Errorf("nothing to export: use --activities or --segments")
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	opts, err := f.options(s)
	if err != nil {
		return err
	}
	opts.Tracks = f.activities
	opts.Details = f.activities && f.more
	opts.Segments = f.segments != ""

	styles := style.NewRegistry()
	for _, warning := range styles.SetOverrides(s.cfg.LineStyles) {
		s.logger.Warn("ignoring line style", zap.Error(warning))
	}

	result, err := s.fetch(cmd, opts)
	if err != nil {
		return err
	}

	activities := result.Activities
	if !f.activities {
		activities = nil
	}

	imperial := s.cfg.Display.Imperial()
	if cmd.Flags().Changed("imperial") {
		imperial = f.imperial
	}

	exporter := service.NewExportService(s.logger)
	err = exporter.WriteKML(cmd.Context(), f.output, styles, activities, result.Segments, kml.Options{
		Name:           f.name,
		Activities:     f.activities,
		Segments:       opts.Segments,
		SegmentFolders: folders,
		More:           f.more,
		Imperial:       imperial,
	})
	if err != nil {
		return err
	}

	tracked := 0
	for i := range activities {
		if activities[i].HasCoordinates() {
			tracked++
		}
	}

	summary := tui.Summary{
		Title:          "KML export",
		Output:         f.output,
		Bytes:          outputSize(f.output),
		Listed:         len(activities),
		Activities:     tracked,
		Segments:       len(result.Segments),
		SegmentsCached: result.SegmentsCached,
	}
	fmt.Fprintln(summaryOut(cmd, f.output), tui.RenderSummary(summary))
	return nil
}

func segmentFolders(mode string) (kml.SegmentFolders, error) {
	switch mode {
	case "", "flat":
		return kml.FlatFolders, nil
	case "regions":
		return kml.RegionFolders, nil
	}
	return kml.FlatFolders, fmt.Errorf("--segments must be flat or regions, got %q", mode)
}
