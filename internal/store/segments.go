package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"bikelog/internal/model"
)

// GetSegment returns a cached segment with its coordinates
func (s *Store) GetSegment(ctx context.Context, id int64) (*model.Segment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, distance, elapsed_time, moving_time,
			elevation_high, elevation_low, average_grade,
			country, state, coordinates
		FROM segments
		WHERE id = ?
	`, id)

	var seg model.Segment
	var coords string
	err := row.Scan(&seg.ID, &seg.Name, &seg.Distance, &seg.ElapsedTime, &seg.MovingTime,
		&seg.ElevationHigh, &seg.ElevationLow, &seg.AverageGrade,
		&seg.Country, &seg.State, &coords)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSegmentNotCached
	}
	if err != nil {
		return nil, err
	}

	points, err := decodeCoordinates(coords)
	if err != nil {
		return nil, fmt.Errorf("decoding coordinates for segment %d: %w", id, err)
	}
	seg.Coordinates = points
	return &seg, nil
}

// SaveSegment stores or replaces a segment
func (s *Store) SaveSegment(ctx context.Context, seg *model.Segment) error {
	coords, err := encodeCoordinates(seg.Coordinates)
	if err != nil {
		return fmt.Errorf("encoding coordinates for segment %d: %w", seg.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO segments (id, name, distance, elapsed_time, moving_time,
			elevation_high, elevation_low, average_grade,
			country, state, coordinates, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			distance = excluded.distance,
			elapsed_time = excluded.elapsed_time,
			moving_time = excluded.moving_time,
			elevation_high = excluded.elevation_high,
			elevation_low = excluded.elevation_low,
			average_grade = excluded.average_grade,
			country = excluded.country,
			state = excluded.state,
			coordinates = excluded.coordinates,
			fetched_at = CURRENT_TIMESTAMP
	`, seg.ID, seg.Name, seg.Distance, seg.ElapsedTime, seg.MovingTime,
		seg.ElevationHigh, seg.ElevationLow, seg.AverageGrade,
		seg.Country, seg.State, coords)
	return err
}

// CountSegments returns how many segments are cached
func (s *Store) CountSegments(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM segments`).Scan(&n)
	return n, err
}

// coordinates are stored as [[lat,lng],...]
func encodeCoordinates(points []model.LatLng) (string, error) {
	pairs := make([][2]float64, len(points))
	for i, p := range points {
		pairs[i] = [2]float64{p.Lat, p.Lng}
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeCoordinates(data string) ([]model.LatLng, error) {
	var pairs [][2]float64
	if err := json.Unmarshal([]byte(data), &pairs); err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, nil
	}
	points := make([]model.LatLng, len(pairs))
	for i, p := range pairs {
		points[i] = model.LatLng{Lat: p[0], Lng: p[1]}
	}
	return points, nil
}
