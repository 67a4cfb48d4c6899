package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"bikelog/internal/daylog"
	"bikelog/internal/kml"
	"bikelog/internal/markup"
	"bikelog/internal/model"
	"bikelog/internal/style"
	"bikelog/internal/xfdf"
)

// StdoutPath selects standard output instead of a file
const StdoutPath = "-"

// ExportService owns the output file and sink around each exporter
type ExportService struct {
	logger *zap.Logger
	stdout io.Writer
}

// NewExportService creates an export service
func NewExportService(logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{logger: logger, stdout: os.Stdout}
}

// WriteKML writes activities and segments to path as KML
func (e *ExportService) WriteKML(ctx context.Context, path string, styles *style.Registry, activities []model.Activity, segments []model.Segment, opts kml.Options) error {
	exporter := kml.NewExporter(styles, e.logger)
	return e.write(ctx, path, "kml", func(sink markup.Sink) error {
		return exporter.Export(ctx, sink, activities, segments, opts)
	})
}

// WriteLog writes day records to path as XFDF
func (e *ExportService) WriteLog(ctx context.Context, path string, days []*daylog.DayRecord, opts xfdf.Options) error {
	exporter := xfdf.NewExporter(e.logger)
	return e.write(ctx, path, "xfdf", func(sink markup.Sink) error {
		return exporter.Export(ctx, sink, days, opts)
	})
}

// write runs export against a queued sink. Files are written next to their
// destination and renamed into place only when the export succeeds.
func (e *ExportService) write(ctx context.Context, path, format string, export func(markup.Sink) error) error {
	if path == StdoutPath {
		sink := markup.NewQueueSink(e.stdout, markup.DefaultQueueLimit)
		err := export(sink)
		if cerr := sink.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("writing %s: %w", format, err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("opening output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	sink := markup.NewQueueSink(tmp, markup.DefaultQueueLimit)
	err = export(sink)
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", format, err)
	}

	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("setting output file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving output file into place: %w", err)
	}

	e.logger.Info("wrote output", zap.String("format", format), zap.String("path", path))
	return nil
}
