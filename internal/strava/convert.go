package strava

import "bikelog/internal/model"

// ToModel converts the API activity. Gear is set only when the response
// embeds it; Coordinates are left for the caller to fill from streams.
func (a *Activity) ToModel() model.Activity {
	act := model.Activity{
		ID:                 a.ID,
		Type:               a.Type,
		Name:               a.Name,
		StartDate:          a.StartDate,
		StartDateLocal:     a.StartDateLocal,
		MovingTime:         a.MovingTime,
		ElapsedTime:        a.ElapsedTime,
		Distance:           a.Distance,
		TotalElevationGain: a.TotalElevationGain,
		Commute:            a.Commute,
		Description:        a.Description,
		DeviceName:         a.DeviceName,
		AverageTemp:        a.AverageTemp,
	}
	if a.Gear != nil {
		act.Gear = &model.Equipment{ID: a.Gear.ID, Name: a.Gear.Name}
	}
	for _, e := range a.SegmentEfforts {
		act.SegmentEfforts = append(act.SegmentEfforts, model.SegmentEffort{
			ID:          e.ID,
			SegmentID:   e.Segment.ID,
			Name:        e.Name,
			ElapsedTime: e.ElapsedTime,
			MovingTime:  e.MovingTime,
			Distance:    e.Distance,
		})
	}
	return act
}

// ToModel converts the API segment. PR times come from the starred summary's
// PR effort when present, otherwise from the detail endpoint's stats.
func (s *Segment) ToModel() model.Segment {
	seg := model.Segment{
		ID:            s.ID,
		Name:          s.Name,
		Distance:      s.Distance,
		ElevationHigh: s.ElevationHigh,
		ElevationLow:  s.ElevationLow,
		AverageGrade:  s.AverageGrade,
		Country:       s.Country,
		State:         s.State,
	}
	switch {
	case s.AthletePREffort != nil:
		seg.ElapsedTime = s.AthletePREffort.ElapsedTime
		seg.MovingTime = s.AthletePREffort.MovingTime
	case s.AthleteStats != nil:
		seg.ElapsedTime = s.AthleteStats.PRElapsedTime
		seg.MovingTime = s.AthleteStats.PRElapsedTime
	}
	return seg
}

// Points returns the latlng stream as track points
func (s *Streams) Points() []model.LatLng {
	if s.Len() == 0 {
		return nil
	}
	points := make([]model.LatLng, len(s.LatLng.Data))
	for i, p := range s.LatLng.Data {
		points[i] = model.LatLng{Lat: p[0], Lng: p[1]}
	}
	return points
}

// Equipment converts athlete gear for lookup by gear_id
func (g Gear) Equipment() *model.Equipment {
	return &model.Equipment{ID: g.ID, Name: g.Name}
}
