// Package kml writes activities and segments as a KML document for Google Earth.
package kml

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"bikelog/internal/bike"
	"bikelog/internal/markup"
	"bikelog/internal/model"
	"bikelog/internal/region"
	"bikelog/internal/style"
	"bikelog/internal/units"
)

// SegmentFolders selects how segments are grouped
type SegmentFolders int

const (
	// FlatFolders puts every segment in one folder
	FlatFolders SegmentFolders = iota
	// RegionFolders nests segments under country and state folders
	RegionFolders
)

// Options controls what the document contains
type Options struct {
	Name           string // document name
	Activities     bool
	Segments       bool
	SegmentFolders SegmentFolders
	More           bool // add per-placemark descriptions
	Imperial       bool
}

const header = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2" xmlns:gx="http://www.google.com/kml/ext/2.2" xmlns:kml="http://www.opengis.net/kml/2.2" xmlns:atom="http://www.w3.org/2005/Atom">
<Document>`

const footer = `</Document>
</kml>`

// DefaultName is used when Options.Name is empty
const DefaultName = "Bikelog Activities"

// Exporter writes KML documents. It is not safe for concurrent use.
type Exporter struct {
	styles *style.Registry
	logger *zap.Logger
}

// NewExporter creates an exporter using the given styles
func NewExporter(styles *style.Registry, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{styles: styles, logger: logger}
}

// Export writes the document to sink, flushing after each stage and after each
// activity placemark. The caller owns the sink.
func (e *Exporter) Export(ctx context.Context, sink markup.Sink, activities []model.Activity, segments []model.Segment, opts Options) error {
	w := markup.NewWriter(sink)
	u := units.New(opts.Imperial)

	e.writeHeader(w, opts)
	if err := w.Flush(ctx); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	if opts.Activities {
		if err := e.writeActivities(ctx, w, activities, u, opts); err != nil {
			return fmt.Errorf("writing activities: %w", err)
		}
	}

	if opts.Segments {
		if err := e.writeSegments(ctx, w, segments, u, opts); err != nil {
			return fmt.Errorf("writing segments: %w", err)
		}
	}

	w.Writeln(0, footer)
	if err := w.Flush(ctx); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}
	return nil
}

func (e *Exporter) writeHeader(w *markup.Writer, opts Options) {
	name := opts.Name
	if name == "" {
		name = DefaultName
	}
	w.Writeln(0, header)
	w.Writeln(1, "<name>", markup.Escape(name), "</name>")
	w.Writeln(1, "<open>1</open>")
	for _, s := range e.styles.Styles() {
		w.Writeln(1, `<Style id="`, styleID(s.Name), `">`)
		w.Writeln(2, "<LineStyle>")
		w.Writeln(3, "<color>", s.Color, "</color>")
		w.Writeln(3, "<width>", strconv.Itoa(s.Width), "</width>")
		w.Writeln(2, "</LineStyle>")
		w.Writeln(1, "</Style>")
	}
}

func (e *Exporter) writeActivities(ctx context.Context, w *markup.Writer, activities []model.Activity, u units.Units, opts Options) error {
	opened := false
	written := 0

	for i := range activities {
		a := &activities[i]
		if !a.HasCoordinates() {
			e.logger.Debug("skipping activity without coordinates",
				zap.Int64("activity", a.ID), zap.String("name", a.Name))
			continue
		}

		if !opened {
			writeFolderOpen(w, 1, "Activities")
			opened = true
		}

		name := a.StartDateLocal.Format(time.DateOnly) + " - " + markup.Escape(a.Name)
		description := ""
		if opts.More {
			description = activityDescription(a, u)
		}
		writePlacemark(w, 2, "StravaTrack"+strconv.FormatInt(a.ID, 10), name, description, e.styleFor(a), a.Coordinates)

		if err := w.Flush(ctx); err != nil {
			return err
		}
		written++
	}

	if opened {
		w.Writeln(1, "</Folder>")
		if err := w.Flush(ctx); err != nil {
			return err
		}
	}

	e.logger.Info("wrote activity placemarks",
		zap.Int("placemarks", written),
		zap.Int("skipped", len(activities)-written))
	return nil
}

func (e *Exporter) writeSegments(ctx context.Context, w *markup.Writer, segments []model.Segment, u units.Units, opts Options) error {
	sorted := make([]model.Segment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	writeFolderOpen(w, 1, "Segments")

	if opts.SegmentFolders == RegionFolders {
		tree := region.Group(sorted)
		for _, country := range tree.Countries() {
			writeFolderOpen(w, 2, regionLabel(country, "Unknown country"))
			for _, state := range tree.States(country) {
				writeFolderOpen(w, 3, regionLabel(state, "Unknown state"))
				for _, s := range region.Filter(sorted, country, state) {
					e.writeSegment(w, 4, &s, u, opts)
				}
				w.Writeln(3, "</Folder>")
			}
			w.Writeln(2, "</Folder>")
			if err := w.Flush(ctx); err != nil {
				return err
			}
		}
	} else {
		for i := range sorted {
			e.writeSegment(w, 2, &sorted[i], u, opts)
		}
	}

	w.Writeln(1, "</Folder>")
	if err := w.Flush(ctx); err != nil {
		return err
	}

	e.logger.Info("wrote segment placemarks", zap.Int("segments", len(sorted)))
	return nil
}

func (e *Exporter) writeSegment(w *markup.Writer, indent markup.Indent, s *model.Segment, u units.Units, opts Options) {
	description := ""
	if opts.More {
		description = segmentDescription(s, u)
	}
	writePlacemark(w, indent, "StravaSegment"+strconv.FormatInt(s.ID, 10), markup.Escape(s.Name), description, style.Segment, s.Coordinates)
}

// styleFor picks the line style: motorcycles first, then commutes, then the
// activity type, then Default.
func (e *Exporter) styleFor(a *model.Activity) string {
	if bike.IsMoto(a.Gear) {
		return style.Moto
	}
	if a.Commute && e.styles.Has(style.Commute) {
		return style.Commute
	}
	if e.styles.Has(a.Type) {
		return a.Type
	}
	return style.Default
}

func writeFolderOpen(w *markup.Writer, indent markup.Indent, name string) {
	w.Writeln(indent, "<Folder>")
	w.Writeln(indent+1, "<name>", markup.Escape(name), "</name>")
	w.Writeln(indent+1, "<open>1</open>")
}

func writePlacemark(w *markup.Writer, indent markup.Indent, id, name, description, styleName string, coords []model.LatLng) {
	w.Writeln(indent, `<Placemark id="`, id, `">`)
	w.Writeln(indent+1, "<name>", name, "</name>")
	w.Writeln(indent+1, "<visibility>1</visibility>")
	if description != "" {
		w.Writeln(indent+1, "<description>", markup.CDATA(description), "</description>")
	}
	w.Writeln(indent+1, "<styleUrl>#", styleID(styleName), "</styleUrl>")
	w.Writeln(indent+1, "<LineString>")
	w.Writeln(indent+2, "<tessellate>1</tessellate>")
	w.Write(indent+2, "<coordinates>")
	for i, c := range coords {
		if i > 0 {
			w.Write(markup.Raw, " ")
		}
		// KML wants longitude first.
		w.Write(markup.Raw, formatCoord(c.Lng), ",", formatCoord(c.Lat), ",0")
	}
	w.Writeln(markup.Raw, "</coordinates>")
	w.Writeln(indent+1, "</LineString>")
	w.Writeln(indent, "</Placemark>")
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func regionLabel(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// styleID is the XML id of a style. Registry names are restricted to
// characters valid in an id, so distinct names give distinct ids.
func styleID(name string) string {
	return "Style" + name
}
