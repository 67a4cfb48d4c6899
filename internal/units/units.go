// Package units formats durations, distances, elevations and temperatures for
// descriptions, notes and form fields.
package units

import (
	"fmt"
	"math"
	"strconv"
)

const (
	metersPerMile = 1609.34
	metersPerKm   = 1000.0
	feetPerMeter  = 3.28084
)

// Units provides unit conversion and formatting for exported descriptions
type Units struct {
	imperial bool
}

// New creates a Units helper. imperial selects miles, feet and fahrenheit.
func New(imperial bool) Units {
	return Units{imperial: imperial}
}

// IsImperial returns true if distances are reported in miles
func (u Units) IsImperial() bool {
	return u.imperial
}

// FormatDistance formats a distance in meters to the preferred unit
func (u Units) FormatDistance(meters float64) string {
	if u.imperial {
		return fmt.Sprintf("%.2f mi", meters/metersPerMile)
	}
	return fmt.Sprintf("%.2f km", meters/metersPerKm)
}

// FormatElevation formats an elevation in meters to the preferred unit
func (u Units) FormatElevation(meters float64) string {
	if u.imperial {
		return fmt.Sprintf("%.0f ft", meters*feetPerMeter)
	}
	return fmt.Sprintf("%.0f m", meters)
}

// FormatTemperature formats a celsius reading to the preferred unit
func (u Units) FormatTemperature(celsius float64) string {
	if u.imperial {
		return fmt.Sprintf("%.0f °F", celsius*9/5+32)
	}
	return fmt.Sprintf("%.0f °C", celsius)
}

// FormatHM formats seconds as H:MM with minutes truncated
func FormatHM(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/3600, (seconds%3600)/60)
}

// FormatMS formats seconds as M:SS, minutes unbounded
func FormatMS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatHMS formats seconds as H:MM:SS
func FormatHMS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatNumber renders v without trailing zeros (8 -> "8", 8.5 -> "8.5")
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
