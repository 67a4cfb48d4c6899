// Package daylog folds activities into per-day bike log records.
//
// Each calendar day holds at most two bike-event slots, matching the two rows
// per day on the printed log form. Rides on a bike already present in a full
// day are merged into that slot; rides on a third bike are dropped.
package daylog

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"bikelog/internal/model"
	"bikelog/internal/units"
)

// MaxBikeEvents is the number of bike slots per day on the form
const MaxBikeEvents = 2

// julianUnixEpoch is the julian day number of 1970-01-01
const julianUnixEpoch = 2440588

// BikeEvent is one bike slot for a day
type BikeEvent struct {
	Distance  float64 // km, 2 decimals
	Bike      string
	Elevation float64 // meters, integer valued
	Time      float64 // hours, 2 decimals
}

// DayRecord is the bike log entry for a single calendar day
type DayRecord struct {
	JulianDay int
	Date      time.Time
	Events    []BikeEvent
	Note0     string
	Note1     string // left for hand-written notes on the form
}

// Days maps julian day to the day's record
type Days map[int]*DayRecord

// Sorted returns the records ordered by julian day
func (d Days) Sorted() []*DayRecord {
	keys := make([]int, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	records := make([]*DayRecord, 0, len(keys))
	for _, k := range keys {
		records = append(records, d[k])
	}
	return records
}

// Stats summarizes one aggregation run
type Stats struct {
	Activities   int
	Rides        int
	BikeEvents   int // slots created
	Merged       int // rides merged into an existing slot
	Dropped      int // rides on a third bike in a full day
	Unclassified int // rides whose gear had no bike code
}

// GearClassifier resolves an activity's equipment to a bike code
type GearClassifier interface {
	ClassifyGear(gear *model.Equipment) (string, bool)
}

// Aggregator builds day records from activities
type Aggregator struct {
	bikes  GearClassifier
	logger *zap.Logger
}

// NewAggregator creates an aggregator. A nil logger discards log output.
func NewAggregator(bikes GearClassifier, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{bikes: bikes, logger: logger}
}

// Aggregate folds activities, in order, into day records keyed by julian day
func (a *Aggregator) Aggregate(activities []model.Activity) (Days, Stats) {
	days := make(Days)
	var stats Stats

	for i := range activities {
		act := &activities[i]
		stats.Activities++

		jd := JulianDay(act.StartDateLocal)
		rec, ok := days[jd]
		if !ok {
			rec = &DayRecord{JulianDay: jd, Date: civilDate(act.StartDateLocal)}
			days[jd] = rec
		}

		if act.Type != "Ride" {
			appendNote(rec, otherNote(act))
			continue
		}

		stats.Rides++
		appendNote(rec, rideNote(act))

		code, ok := a.bikes.ClassifyGear(act.Gear)
		if !ok {
			stats.Unclassified++
			a.logger.Debug("ride has no bike code",
				zap.Int64("activity", act.ID),
				zap.String("gear", act.GearName()))
			continue
		}

		event := BikeEvent{
			Distance:  math.Round(act.Distance/10) / 100,
			Bike:      code,
			Elevation: math.Round(act.TotalElevationGain),
			Time:      math.Round(float64(act.MovingTime)/36) / 100,
		}

		switch placeEvent(rec, event) {
		case placedNew:
			stats.BikeEvents++
		case placedMerged:
			stats.Merged++
		case placedDropped:
			stats.Dropped++
			a.logger.Info("dropping ride on third bike of the day",
				zap.Int64("activity", act.ID),
				zap.String("date", rec.Date.Format(time.DateOnly)),
				zap.String("bike", code))
		}
	}

	return days, stats
}

type placement int

const (
	placedNew placement = iota
	placedMerged
	placedDropped
)

// placeEvent appends while the day has a free slot. A full day merges the
// distance into the last-listed slot with the same bike.
func placeEvent(rec *DayRecord, event BikeEvent) placement {
	if len(rec.Events) < MaxBikeEvents {
		rec.Events = append(rec.Events, event)
		return placedNew
	}
	for i := len(rec.Events) - 1; i >= 0; i-- {
		if rec.Events[i].Bike == event.Bike {
			rec.Events[i].Distance = units.Round2(rec.Events[i].Distance + event.Distance)
			return placedMerged
		}
	}
	return placedDropped
}

func appendNote(rec *DayRecord, note string) {
	if rec.Note0 != "" {
		rec.Note0 += "\n"
	}
	rec.Note0 += note
}

func rideNote(act *model.Activity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ascend %.0fm, time %s (%s)",
		math.Round(act.TotalElevationGain),
		units.FormatHM(act.MovingTime),
		units.FormatHM(act.ElapsedTime))

	b.WriteString("\n")
	if act.Commute {
		b.WriteString("Commute: ")
	}
	b.WriteString(act.Name)

	if act.Description != "" {
		b.WriteString("\n")
		b.WriteString(act.Description)
	}

	if len(act.SegmentEfforts) > 0 {
		efforts := make([]string, len(act.SegmentEfforts))
		for i, e := range act.SegmentEfforts {
			prefix := "up "
			if i == 0 {
				prefix = "Up "
			}
			efforts[i] = fmt.Sprintf("%s%s [%s]", prefix, e.Name, units.FormatMS(e.MovingTime))
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(efforts, ", "))
	}

	return b.String()
}

func otherNote(act *model.Activity) string {
	km := math.Round(act.Distance/10) / 100
	note := fmt.Sprintf("%s: %skm %s, moving time %s",
		act.Type, units.FormatNumber(km), act.Name, units.FormatHM(act.MovingTime))
	if act.Description != "" {
		note += "\n" + act.Description
	}
	return note
}

// JulianDay returns the julian day number of t's calendar date in t's own location
func JulianDay(t time.Time) int {
	return int(civilDate(t).Unix()/86400) + julianUnixEpoch
}

// DateOf returns the calendar date (midnight UTC) for a julian day number
func DateOf(jd int) time.Time {
	return time.Unix(int64(jd-julianUnixEpoch)*86400, 0).UTC()
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
