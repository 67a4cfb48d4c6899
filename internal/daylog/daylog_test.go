package daylog

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"bikelog/internal/bike"
	"bikelog/internal/model"
)

func newAggregator(t *testing.T) *Aggregator {
	t.Helper()
	c, err := bike.NewClassifier([]bike.Rule{
		{Pattern: "alpha", Code: "A"},
		{Pattern: "bravo", Code: "B"},
		{Pattern: "charlie", Code: "C"},
	})
	require.NoError(t, err)
	return NewAggregator(c, nil)
}

func day(hour int) time.Time {
	return time.Date(2024, 3, 9, hour, 0, 0, 0, time.UTC)
}

func ride(id int64, start time.Time, meters float64, gear string) model.Activity {
	a := model.Activity{
		ID:             id,
		Type:           "Ride",
		Name:           fmt.Sprintf("Ride %d", id),
		StartDateLocal: start,
		Distance:       meters,
		MovingTime:     1800,
		ElapsedTime:    1900,
	}
	if gear != "" {
		a.Gear = &model.Equipment{ID: gear, Name: gear}
	}
	return a
}

func TestAggregateScenarioA(t *testing.T) {
	agg := newAggregator(t)
	act := model.Activity{
		ID:                 1,
		Type:               "Ride",
		Name:               "Morning Ride",
		StartDateLocal:     day(8),
		Distance:           8000,
		TotalElevationGain: 500,
		MovingTime:         3600,
		ElapsedTime:        3700,
		Gear:               &model.Equipment{ID: "b1", Name: "Alpha"},
	}

	days, stats := agg.Aggregate([]model.Activity{act})
	require.Len(t, days, 1)

	rec := days[JulianDay(day(8))]
	require.NotNil(t, rec)

	want := []BikeEvent{{Distance: 8.0, Bike: "A", Elevation: 500, Time: 1.0}}
	if diff := cmp.Diff(want, rec.Events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, strings.HasPrefix(rec.Note0, "Ascend 500m, time 1:00 (1:01)"), rec.Note0)
	assert.Equal(t, "Ascend 500m, time 1:00 (1:01)\nMorning Ride", rec.Note0)
	assert.Equal(t, 1, stats.BikeEvents)
}

func TestAggregateSlotBound(t *testing.T) {
	agg := newAggregator(t)
	gears := []string{"alpha", "bravo", "charlie", "alpha", "bravo", "charlie", ""}

	var acts []model.Activity
	for i := 0; i < 40; i++ {
		start := day(0).AddDate(0, 0, i%5).Add(time.Duration(i) * time.Minute)
		acts = append(acts, ride(int64(i), start, 1000, gears[i%len(gears)]))
	}

	days, _ := agg.Aggregate(acts)
	for jd, rec := range days {
		assert.LessOrEqual(t, len(rec.Events), MaxBikeEvents, "day %d", jd)
	}
}

func TestAggregateSameBikeMergesInFullDay(t *testing.T) {
	orders := [][]model.Activity{
		{
			ride(1, day(7), 10000, "alpha"),
			ride(2, day(8), 20000, "bravo"),
			ride(3, day(9), 5000, "alpha"),
			ride(4, day(10), 2500, "alpha"),
		},
		{
			ride(1, day(7), 10000, "alpha"),
			ride(2, day(8), 20000, "bravo"),
			ride(4, day(10), 2500, "alpha"),
			ride(3, day(9), 5000, "alpha"),
		},
	}

	for i, acts := range orders {
		t.Run(fmt.Sprintf("order %d", i), func(t *testing.T) {
			days, stats := newAggregator(t).Aggregate(acts)
			rec := days[JulianDay(day(0))]
			require.Len(t, rec.Events, 2)
			assert.Equal(t, "A", rec.Events[0].Bike)
			assert.InDelta(t, 17.5, rec.Events[0].Distance, 1e-9)
			assert.Equal(t, "B", rec.Events[1].Bike)
			assert.InDelta(t, 20.0, rec.Events[1].Distance, 1e-9)
			assert.Equal(t, 2, stats.Merged)
		})
	}
}

func TestAggregateMergeScansBackToFront(t *testing.T) {
	// Two slots on the same bike: the later slot accumulates.
	acts := []model.Activity{
		ride(1, day(7), 10000, "alpha"),
		ride(2, day(8), 20000, "alpha"),
		ride(3, day(9), 3000, "alpha"),
	}

	days, _ := newAggregator(t).Aggregate(acts)
	rec := days[JulianDay(day(0))]
	require.Len(t, rec.Events, 2)
	assert.InDelta(t, 10.0, rec.Events[0].Distance, 1e-9)
	assert.InDelta(t, 23.0, rec.Events[1].Distance, 1e-9)
}

func TestAggregateThirdBikeDropped(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	c, err := bike.NewClassifier([]bike.Rule{
		{Pattern: "alpha", Code: "A"},
		{Pattern: "bravo", Code: "B"},
		{Pattern: "charlie", Code: "C"},
	})
	require.NoError(t, err)
	agg := NewAggregator(c, zap.New(core))

	acts := []model.Activity{
		ride(1, day(7), 10000, "alpha"),
		ride(2, day(8), 20000, "bravo"),
		ride(3, day(9), 30000, "charlie"),
	}

	days, stats := agg.Aggregate(acts)
	rec := days[JulianDay(day(0))]

	want := []BikeEvent{
		{Distance: 10, Bike: "A", Elevation: 0, Time: 0.5},
		{Distance: 20, Bike: "B", Elevation: 0, Time: 0.5},
	}
	if diff := cmp.Diff(want, rec.Events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 1, logs.FilterMessage("dropping ride on third bike of the day").Len())

	// The dropped ride still leaves its note.
	assert.Contains(t, rec.Note0, "Ride 3")
}

func TestAggregateUnclassifiedRideHasNoSlot(t *testing.T) {
	acts := []model.Activity{
		ride(1, day(7), 10000, ""),
		ride(2, day(8), 10000, "unknown bike"),
	}
	days, stats := newAggregator(t).Aggregate(acts)
	rec := days[JulianDay(day(0))]
	assert.Empty(t, rec.Events)
	assert.Equal(t, 2, stats.Unclassified)
	assert.Contains(t, rec.Note0, "Ride 1")
	assert.Contains(t, rec.Note0, "Ride 2")
}

func TestAggregateRideNote(t *testing.T) {
	act := model.Activity{
		ID:                 7,
		Type:               "Ride",
		Name:               "To work",
		StartDateLocal:     day(8),
		Distance:           12345,
		TotalElevationGain: 120.4,
		MovingTime:         2700,
		ElapsedTime:        3000,
		Commute:            true,
		Description:        "Windy",
		SegmentEfforts: []model.SegmentEffort{
			{Name: "Hill One", MovingTime: 330},
			{Name: "Hill Two", MovingTime: 65},
		},
		Gear: &model.Equipment{Name: "alpha"},
	}

	days, _ := newAggregator(t).Aggregate([]model.Activity{act})
	rec := days[JulianDay(day(8))]

	want := "Ascend 120m, time 0:45 (0:50)\nCommute: To work\nWindy\nUp Hill One [5:30], up Hill Two [1:05]"
	assert.Equal(t, want, rec.Note0)
	require.Len(t, rec.Events, 1)
	assert.Equal(t, 12.35, rec.Events[0].Distance)
	assert.Equal(t, 0.75, rec.Events[0].Time)
}

func TestAggregateOtherTypesOnlyNote(t *testing.T) {
	acts := []model.Activity{
		{
			Type:           "Hike",
			Name:           "Ridge loop",
			StartDateLocal: day(9),
			Distance:       8000,
			MovingTime:     7260,
			Description:    "Foggy",
		},
		{
			Type:           "EBikeRide",
			Name:           "Errand",
			StartDateLocal: day(15),
			Distance:       4321,
			MovingTime:     900,
			Gear:           &model.Equipment{Name: "alpha"},
		},
	}

	days, stats := newAggregator(t).Aggregate(acts)
	rec := days[JulianDay(day(0))]
	assert.Empty(t, rec.Events)
	assert.Equal(t, "Hike: 8km Ridge loop, moving time 2:01\nFoggy\nEBikeRide: 4.32km Errand, moving time 0:15", rec.Note0)
	assert.Empty(t, rec.Note1)
	assert.Equal(t, 0, stats.Rides)
}

func TestAggregateUsesLocalDate(t *testing.T) {
	pst := time.FixedZone("PST", -8*3600)
	late := time.Date(2024, 3, 9, 23, 30, 0, 0, pst) // already March 10 in UTC
	days, _ := newAggregator(t).Aggregate([]model.Activity{ride(1, late, 1000, "alpha")})

	_, ok := days[JulianDay(day(0))]
	assert.True(t, ok)
	assert.Equal(t, "2024-03-09", days[JulianDay(day(0))].Date.Format(time.DateOnly))
}

func TestDaysSorted(t *testing.T) {
	acts := []model.Activity{
		ride(1, day(8).AddDate(0, 0, 3), 1000, "alpha"),
		ride(2, day(8), 1000, "alpha"),
		ride(3, day(8).AddDate(0, 0, -10), 1000, "alpha"),
	}
	days, _ := newAggregator(t).Aggregate(acts)
	sorted := days.Sorted()
	require.Len(t, sorted, 3)
	for i := 1; i < len(sorted); i++ {
		assert.Less(t, sorted[i-1].JulianDay, sorted[i].JulianDay)
	}
}

func TestJulianDay(t *testing.T) {
	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), 2440588},
		{time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 2451545},
		{time.Date(2000, 1, 1, 23, 59, 0, 0, time.UTC), 2451545},
		{time.Date(1969, 12, 31, 6, 0, 0, 0, time.UTC), 2440587},
	}

	for _, tt := range tests {
		t.Run(tt.date.Format(time.RFC3339), func(t *testing.T) {
			assert.Equal(t, tt.want, JulianDay(tt.date))
			assert.Equal(t, tt.date.Format(time.DateOnly), DateOf(tt.want).Format(time.DateOnly))
		})
	}
}
