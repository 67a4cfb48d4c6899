// Package model defines the activity and segment records the exporters consume.
package model

import "time"

// LatLng is a single track point as reported by the API (latitude first).
type LatLng struct {
	Lat float64
	Lng float64
}

// Equipment is a piece of gear (a bike) referenced by an activity
type Equipment struct {
	ID   string
	Name string
}

// SegmentEffort is one attempt at a segment within an activity
type SegmentEffort struct {
	ID          int64
	SegmentID   int64
	Name        string
	ElapsedTime int     // seconds
	MovingTime  int     // seconds
	Distance    float64 // meters
}

// Activity is a recorded activity with the optional detail needed for export.
// Gear is nil when the activity has no equipment or it could not be resolved.
type Activity struct {
	ID                 int64
	Type               string // Ride, Hike, Walk, EBikeRide, ...
	Name               string
	StartDate          time.Time
	StartDateLocal     time.Time
	MovingTime         int     // seconds
	ElapsedTime        int     // seconds
	Distance           float64 // meters
	TotalElevationGain float64 // meters
	Commute            bool
	Description        string
	DeviceName         string
	AverageTemp        *float64 // celsius, nullable
	SegmentEfforts     []SegmentEffort
	Coordinates        []LatLng
	Gear               *Equipment
}

// HasCoordinates reports whether the activity carries a track
func (a *Activity) HasCoordinates() bool {
	return len(a.Coordinates) > 0
}

// GearName returns the equipment name, or "" when there is none
func (a *Activity) GearName() string {
	if a.Gear == nil {
		return ""
	}
	return a.Gear.Name
}

// Segment is a starred segment with the athlete's best effort times
type Segment struct {
	ID            int64
	Name          string
	ElapsedTime   int     // seconds
	MovingTime    int     // seconds
	Distance      float64 // meters
	ElevationHigh *float64
	ElevationLow  *float64
	AverageGrade  *float64 // percent
	Country       string
	State         string
	Coordinates   []LatLng
}
