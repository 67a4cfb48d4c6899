package kml

import (
	"fmt"
	"strings"

	"bikelog/internal/markup"
	"bikelog/internal/model"
	"bikelog/internal/units"
)

// activityField renders one line of an activity description. ok is false
// when the activity has nothing to show for the field.
type activityField struct {
	label  string
	format func(a *model.Activity, u units.Units) (value string, ok bool)
}

// activityFields lists the description fields in output order
var activityFields = []activityField{
	{"Distance", func(a *model.Activity, u units.Units) (string, bool) {
		return u.FormatDistance(a.Distance), a.Distance > 0
	}},
	{"Elevation Gain", func(a *model.Activity, u units.Units) (string, bool) {
		return u.FormatElevation(a.TotalElevationGain), a.TotalElevationGain > 0
	}},
	{"Moving Time", func(a *model.Activity, u units.Units) (string, bool) {
		return units.FormatHMS(a.MovingTime), a.MovingTime > 0
	}},
	{"Elapsed Time", func(a *model.Activity, u units.Units) (string, bool) {
		return units.FormatHMS(a.ElapsedTime), a.ElapsedTime > 0
	}},
	{"Temperature", func(a *model.Activity, u units.Units) (string, bool) {
		if a.AverageTemp == nil {
			return "", false
		}
		return u.FormatTemperature(*a.AverageTemp), true
	}},
	{"Device", func(a *model.Activity, u units.Units) (string, bool) {
		return markup.Escape(a.DeviceName), a.DeviceName != ""
	}},
	{"Bike", func(a *model.Activity, u units.Units) (string, bool) {
		return markup.Escape(a.GearName()), a.GearName() != ""
	}},
	{"Segments", func(a *model.Activity, u units.Units) (string, bool) {
		if len(a.SegmentEfforts) == 0 {
			return "", false
		}
		var b strings.Builder
		b.WriteString("<ul>")
		for _, e := range a.SegmentEfforts {
			fmt.Fprintf(&b, "<li>%s [%s]</li>", markup.Escape(e.Name), units.FormatMS(e.MovingTime))
		}
		b.WriteString("</ul>")
		return b.String(), true
	}},
	{"Description", func(a *model.Activity, u units.Units) (string, bool) {
		return newlinesToBreaks(markup.Escape(a.Description)), a.Description != ""
	}},
}

type segmentField struct {
	label  string
	format func(s *model.Segment, u units.Units) (value string, ok bool)
}

var segmentFields = []segmentField{
	{"Distance", func(s *model.Segment, u units.Units) (string, bool) {
		return u.FormatDistance(s.Distance), s.Distance > 0
	}},
	{"Elevation High", func(s *model.Segment, u units.Units) (string, bool) {
		if s.ElevationHigh == nil {
			return "", false
		}
		return u.FormatElevation(*s.ElevationHigh), true
	}},
	{"Elevation Low", func(s *model.Segment, u units.Units) (string, bool) {
		if s.ElevationLow == nil {
			return "", false
		}
		return u.FormatElevation(*s.ElevationLow), true
	}},
	{"Average Grade", func(s *model.Segment, u units.Units) (string, bool) {
		if s.AverageGrade == nil {
			return "", false
		}
		return fmt.Sprintf("%.1f%%", *s.AverageGrade), true
	}},
	{"Best Time", func(s *model.Segment, u units.Units) (string, bool) {
		return units.FormatHMS(s.MovingTime), s.MovingTime > 0
	}},
	{"Location", func(s *model.Segment, u units.Units) (string, bool) {
		var parts []string
		for _, p := range []string{s.State, s.Country} {
			if p != "" {
				parts = append(parts, markup.Escape(p))
			}
		}
		return strings.Join(parts, ", "), len(parts) > 0
	}},
}

func activityDescription(a *model.Activity, u units.Units) string {
	var lines []string
	for _, f := range activityFields {
		if v, ok := f.format(a, u); ok {
			lines = append(lines, "<b>"+f.label+":</b> "+v)
		}
	}
	return strings.Join(lines, "<br>")
}

func segmentDescription(s *model.Segment, u units.Units) string {
	var lines []string
	for _, f := range segmentFields {
		if v, ok := f.format(s, u); ok {
			lines = append(lines, "<b>"+f.label+":</b> "+v)
		}
	}
	return strings.Join(lines, "<br>")
}

func newlinesToBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}
