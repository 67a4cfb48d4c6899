package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bikelog/internal/bike"
	"bikelog/internal/daylog"
	"bikelog/internal/service"
	"bikelog/internal/tui"
	"bikelog/internal/xfdf"
)

type logFlags struct {
	fetchFlags
	output  string
	details bool
	fill    bool
}

func init() {
	f := &logFlags{}
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Export a bike log as XFDF",
		Long: "Fold activities into one row per day, with up to two bikes per day and notes for\n" +
			"everything else, and write the rows as XFDF for the bike log PDF form.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd, f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&f.output, "output", "o", "bikelog.xfdf", "Output file, - for stdout")
	cmd.Flags().BoolVar(&f.details, "details", true, "Fetch descriptions and segment efforts for the notes")
	cmd.Flags().BoolVar(&f.fill, "fill", true, "Emit every day of --dates, including days without activities")

	RootCmd.AddCommand(cmd)
}

func runLog(cmd *cobra.Command, f *logFlags) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	classifier, err := bike.NewClassifier(s.cfg.Bikes)
	if err != nil {
		return fmt.Errorf("loading bike rules: %w", err)
	}

	opts, err := f.options(s)
	if err != nil {
		return err
	}
	opts.Details = f.details

	result, err := s.fetch(cmd, opts)
	if err != nil {
		return err
	}

	days, stats := daylog.NewAggregator(classifier, s.logger).Aggregate(result.Activities)
	records := days.Sorted()

	var grid xfdf.Options
	if f.fill {
		grid.From, grid.To = opts.Dates.Span()
	}

	exporter := service.NewExportService(s.logger)
	if err := exporter.WriteLog(cmd.Context(), f.output, records, grid); err != nil {
		return err
	}

	summary := tui.Summary{
		Title:      "Bike log",
		Output:     f.output,
		Bytes:      outputSize(f.output),
		Listed:     result.Listed,
		Activities: stats.Activities,
		Log:        &stats,
		Days:       records,
		Imperial:   s.cfg.Display.Imperial(),
	}
	fmt.Fprintln(summaryOut(cmd, f.output), tui.RenderSummary(summary))
	return nil
}

// outputSize returns the written file's size, or 0 for stdout
func outputSize(path string) int64 {
	if path == service.StdoutPath {
		return 0
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// summaryOut keeps the summary off stdout when the document went there
func summaryOut(cmd *cobra.Command, path string) io.Writer {
	if path == service.StdoutPath {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}
