// Package xfdf writes day records as XFDF form data for the printable bike log.
package xfdf

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"bikelog/internal/daylog"
	"bikelog/internal/markup"
	"bikelog/internal/units"
)

const header = `<?xml version="1.0" encoding="UTF-8"?>
<xfdf xmlns="http://ns.adobe.com/xfdf/" xml:space="preserve">
  <fields>`

const footer = `  </fields>
</xfdf>`

// Options controls the day grid. When From and To are both set every day in
// the range is written, including days without activities.
type Options struct {
	From time.Time
	To   time.Time
}

// Exporter writes bike log form data
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates an exporter. A nil logger discards log output.
func NewExporter(logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{logger: logger}
}

// Export writes one field group per day, flushing after each day
func (e *Exporter) Export(ctx context.Context, sink markup.Sink, days []*daylog.DayRecord, opts Options) error {
	w := markup.NewWriter(sink)

	w.Writeln(0, header)
	if err := w.Flush(ctx); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	grid := dayGrid(days, opts)
	for _, rec := range grid {
		writeDay(w, rec)
		if err := w.Flush(ctx); err != nil {
			return fmt.Errorf("writing day %d: %w", rec.JulianDay, err)
		}
	}

	w.Writeln(0, footer)
	if err := w.Flush(ctx); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}

	e.logger.Info("wrote bike log days",
		zap.Int("days", len(grid)),
		zap.Int("with_activities", len(days)))
	return nil
}

// dayGrid returns the records to write, in julian day order, adding empty
// records for days in the requested range.
func dayGrid(days []*daylog.DayRecord, opts Options) []*daylog.DayRecord {
	byDay := make(map[int]*daylog.DayRecord, len(days))
	for _, rec := range days {
		byDay[rec.JulianDay] = rec
	}

	if !opts.From.IsZero() && !opts.To.IsZero() {
		for jd := daylog.JulianDay(opts.From); jd <= daylog.JulianDay(opts.To); jd++ {
			if _, ok := byDay[jd]; !ok {
				byDay[jd] = &daylog.DayRecord{JulianDay: jd, Date: daylog.DateOf(jd)}
			}
		}
	}

	grid := make([]*daylog.DayRecord, 0, len(byDay))
	for _, rec := range byDay {
		grid = append(grid, rec)
	}
	sort.Slice(grid, func(i, j int) bool { return grid[i].JulianDay < grid[j].JulianDay })
	return grid
}

func writeDay(w *markup.Writer, rec *daylog.DayRecord) {
	w.Writeln(2, `<field name="`, strconv.Itoa(rec.JulianDay), `">`)
	for i, ev := range rec.Events {
		w.Writeln(3, `<field name="`, strconv.Itoa(i), `">`)
		writeValue(w, 4, "bike", ev.Bike)
		writeValue(w, 4, "dist", units.FormatNumber(ev.Distance))
		writeValue(w, 4, "el", units.FormatNumber(ev.Elevation))
		writeValue(w, 4, "t", units.FormatNumber(ev.Time))
		w.Writeln(3, "</field>")
	}
	writeValue(w, 3, "note0", rec.Note0)
	writeValue(w, 3, "note1", rec.Note1)
	w.Writeln(2, "</field>")
}

func writeValue(w *markup.Writer, indent markup.Indent, name, value string) {
	w.Writeln(indent, `<field name="`, name, `"><value>`, markup.Escape(value), "</value></field>")
}
