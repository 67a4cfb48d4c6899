package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"bikelog/internal/daylog"
	"bikelog/internal/units"
)

// kmPerMile converts chart values for imperial output
const kmPerMile = 1.609344

// Summary describes a finished export
type Summary struct {
	Title          string
	Output         string
	Bytes          int64
	Listed         int
	Activities     int
	Segments       int
	SegmentsCached int
	Log            *daylog.Stats // set for bike log exports
	Days           []*daylog.DayRecord
	Imperial       bool
}

// RenderSummary renders the export summary card, with a chart of daily bike
// distance when at least two days are logged
func RenderSummary(s Summary) string {
	var lines []string
	lines = append(lines, titleStyle.Render(s.Title))

	if s.Output != "" {
		size := ""
		if s.Bytes > 0 {
			size = " (" + humanize.Bytes(uint64(s.Bytes)) + ")"
		}
		lines = append(lines, RenderMetric("Output", s.Output+size))
	}
	lines = append(lines, RenderMetric("Activities", humanize.Comma(int64(s.Activities))))
	if s.Listed > s.Activities {
		lines = append(lines, statusStyle.Render(fmt.Sprintf("%s listed, %s filtered out",
			humanize.Comma(int64(s.Listed)), humanize.Comma(int64(s.Listed-s.Activities)))))
	}
	if s.Segments > 0 {
		lines = append(lines, RenderMetric("Segments", fmt.Sprintf("%s (%s cached)",
			humanize.Comma(int64(s.Segments)), humanize.Comma(int64(s.SegmentsCached)))))
	}

	if s.Log != nil {
		lines = append(lines, RenderMetric("Days", humanize.Comma(int64(len(s.Days)))))
		lines = append(lines, RenderMetric("Bike events", humanize.Comma(int64(s.Log.BikeEvents))))
		if s.Log.Merged > 0 {
			lines = append(lines, RenderMetric("Merged rides", humanize.Comma(int64(s.Log.Merged))))
		}
		if s.Log.Dropped > 0 {
			lines = append(lines, warningStyle.Render(fmt.Sprintf("%d rides dropped: more than %d bikes in a day",
				s.Log.Dropped, daylog.MaxBikeEvents)))
		}
		if s.Log.Unclassified > 0 {
			lines = append(lines, warningStyle.Render(fmt.Sprintf("%d rides on unrecognized bikes left off the log",
				s.Log.Unclassified)))
		}

		distances := DailyDistances(s.Days, s.Imperial)
		if len(distances) >= 2 {
			unit := "km"
			if s.Imperial {
				unit = "mi"
			}
			total := 0.0
			for _, d := range distances {
				total += d
			}
			lines = append(lines, RenderMetric("Total distance", humanize.CommafWithDigits(units.Round2(total), 2)+" "+unit))
			lines = append(lines, "")
			lines = append(lines, asciigraph.Plot(distances,
				asciigraph.Height(8),
				asciigraph.Width(60),
				asciigraph.Caption("daily distance ("+unit+")"),
			))
		}
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// DailyDistances returns the summed bike event distance of each day, in
// julian day order
func DailyDistances(days []*daylog.DayRecord, imperial bool) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		for _, e := range d.Events {
			out[i] += e.Distance
		}
		if imperial {
			out[i] /= kmPerMile
		}
	}
	return out
}

// BikeRow is one line of the athlete's bike table
type BikeRow struct {
	Name     string
	Code     string // "" when no rule matches
	Distance float64
	Primary  bool
}

// RenderBikes renders the bike classification table
func RenderBikes(athlete string, rows []BikeRow, u units.Units) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Bikes for " + athlete))
	b.WriteString("\n")

	nameWidth := len("Bike")
	for _, r := range rows {
		if w := lipgloss.Width(r.Name); w > nameWidth {
			nameWidth = w
		}
	}

	header := fmt.Sprintf("%-*s  %-8s  %s", nameWidth, "Bike", "Code", "Distance")
	b.WriteString(tableHeaderStyle.Render(header))
	b.WriteString("\n")

	for _, r := range rows {
		code := r.Code
		style := successStyle
		if code == "" {
			code = "-"
			style = warningStyle
		}
		name := r.Name + strings.Repeat(" ", nameWidth-lipgloss.Width(r.Name))
		line := fmt.Sprintf("%s  %s  %s", name, style.Render(fmt.Sprintf("%-8s", code)), u.FormatDistance(r.Distance))
		if r.Primary {
			line += statusStyle.Render(" (primary)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(rows) == 0 {
		b.WriteString(statusStyle.Render("No bikes on this Strava account"))
		b.WriteString("\n")
	}
	return b.String()
}
