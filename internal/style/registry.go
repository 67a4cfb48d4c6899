// Package style holds the KML line styles keyed by activity type.
package style

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
)

// Reserved style names
const (
	Default = "Default"
	Moto    = "Moto"
	Commute = "Commute"
	Segment = "Segment"
)

// ErrInvalidStyle is wrapped by every rejected override
var ErrInvalidStyle = errors.New("invalid line style")

var (
	colorPattern = regexp.MustCompile(`^[a-zA-Z0-9]{8}$`)
	namePattern  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// LineStyle is a KML line color (AABBGGRR) and width
type LineStyle struct {
	Name  string
	Color string
	Width int
}

// Override is a configured style. Width may be a number or a numeric string.
type Override struct {
	Color string `yaml:"color" json:"color"`
	Width any    `yaml:"width" json:"width"`
}

func defaultStyles() map[string]LineStyle {
	styles := map[string]LineStyle{
		Default:           {Color: "C00000FF", Width: 4},
		"Ride":            {Color: "C00000A0", Width: 4},
		"EBikeRide":       {Color: "7FA0A000", Width: 4},
		Moto:              {Color: "6414F03C", Width: 4},
		Commute:           {Color: "C085037D", Width: 4},
		"Hike":            {Color: "F0FF0000", Width: 4},
		"Walk":            {Color: "F0F08000", Width: 4},
		"NordicSki":       {Color: "F0F08000", Width: 4},
		"StandUpPaddling": {Color: "F0F08000", Width: 4},
		Segment:           {Color: "C0FFFFFF", Width: 6},
	}
	for name, s := range styles {
		s.Name = name
		styles[name] = s
	}
	return styles
}

// Registry maps style names to line styles. Entries can be overridden but never removed.
type Registry struct {
	styles map[string]LineStyle
}

// NewRegistry returns a registry seeded with the built-in styles
func NewRegistry() *Registry {
	return &Registry{styles: defaultStyles()}
}

// SetOverrides applies configured styles. Invalid entries are skipped, keeping the
// prior binding, and returned as warnings.
func (r *Registry) SetOverrides(overrides map[string]Override) []error {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	var warnings []error
	for _, name := range names {
		o := overrides[name]
		if !namePattern.MatchString(name) {
			warnings = append(warnings, fmt.Errorf("%w %q: names may only contain letters, digits, _ and -", ErrInvalidStyle, name))
			continue
		}
		if !colorPattern.MatchString(o.Color) {
			warnings = append(warnings, fmt.Errorf("%w %q: color %q must be 8 alphanumeric characters", ErrInvalidStyle, name, o.Color))
			continue
		}
		width, ok := parseWidth(o.Width)
		if !ok {
			warnings = append(warnings, fmt.Errorf("%w %q: width %v is not a positive number", ErrInvalidStyle, name, o.Width))
			continue
		}
		r.styles[name] = LineStyle{Name: name, Color: o.Color, Width: width}
	}
	return warnings
}

// Has reports whether a style is bound to name
func (r *Registry) Has(name string) bool {
	_, ok := r.styles[name]
	return ok
}

// Lookup returns the style for name, or the Default style
func (r *Registry) Lookup(name string) LineStyle {
	if s, ok := r.styles[name]; ok {
		return s
	}
	return r.styles[Default]
}

// Styles returns every style sorted by name
func (r *Registry) Styles() []LineStyle {
	out := make([]LineStyle, 0, len(r.styles))
	for _, s := range r.styles {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// parseWidth accepts a positive, finite number or numeric string. Fractions
// are truncated.
func parseWidth(v any) (int, bool) {
	var f float64
	switch w := v.(type) {
	case int:
		f = float64(w)
	case int64:
		f = float64(w)
	case uint64:
		f = float64(w)
	case float64:
		f = w
	case string:
		parsed, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || f < 1 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
