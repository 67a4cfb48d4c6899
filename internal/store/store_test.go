package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikelog/internal/model"
)

// setupTestStore creates an in-memory store for testing
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := OpenPath(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestCredentials(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.Credentials(ctx)
	assert.ErrorIs(t, err, ErrNoAuth)

	err = s.UpdateTokens(ctx, 42, "a", "r", time.Now())
	assert.ErrorIs(t, err, ErrNoAuth, "update without a row")

	expires := time.Unix(1710000000, 0)
	require.NoError(t, s.SaveCredentials(ctx, &Credentials{
		AthleteID:    42,
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    expires,
		AuthorizedAt: time.Unix(1700000000, 0),
	}))

	got, err := s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.AthleteID)
	assert.Equal(t, "access", got.AccessToken)
	assert.True(t, got.ExpiresAt.Equal(expires))

	later := expires.Add(6 * time.Hour)
	require.NoError(t, s.UpdateTokens(ctx, 42, "access2", "refresh2", later))
	assert.ErrorIs(t, s.UpdateTokens(ctx, 7, "x", "y", later), ErrNoAuth, "other athlete")

	got, err = s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access2", got.AccessToken)
	assert.Equal(t, "refresh2", got.RefreshToken)
	assert.True(t, got.ExpiresAt.Equal(later))
}

func TestCredentialsLatestAthleteWins(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	first := &Credentials{AthleteID: 1, AccessToken: "one", RefreshToken: "r1", AuthorizedAt: time.Unix(1700000000, 0)}
	second := &Credentials{AthleteID: 2, AccessToken: "two", RefreshToken: "r2", AuthorizedAt: time.Unix(1700000500, 0)}
	require.NoError(t, s.SaveCredentials(ctx, first))
	require.NoError(t, s.SaveCredentials(ctx, second))

	got, err := s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.AthleteID)

	// Refreshing the older athlete does not make it current.
	require.NoError(t, s.UpdateTokens(ctx, 1, "one2", "r1b", time.Unix(1800000000, 0)))
	got, err = s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "two", got.AccessToken)

	// Authorizing it again does.
	first.AuthorizedAt = time.Unix(1700001000, 0)
	require.NoError(t, s.SaveCredentials(ctx, first))
	got, err = s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.AthleteID)
	assert.Equal(t, "one", got.AccessToken)
}

func TestSaveCredentialsNeedsAthlete(t *testing.T) {
	s := setupTestStore(t)
	err := s.SaveCredentials(context.Background(), &Credentials{AccessToken: "a"})
	assert.ErrorContains(t, err, "missing athlete id")
}

func TestSegmentCache(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.GetSegment(ctx, 7)
	assert.ErrorIs(t, err, ErrSegmentNotCached)

	high, grade := 812.5, 6.1
	seg := &model.Segment{
		ID:            7,
		Name:          "Hawk Hill",
		Distance:      2430.1,
		MovingTime:    540,
		ElapsedTime:   560,
		ElevationHigh: &high,
		AverageGrade:  &grade,
		Country:       "United States",
		State:         "California",
		Coordinates:   []model.LatLng{{Lat: 37.83, Lng: -122.48}, {Lat: 37.84, Lng: -122.5}},
	}
	require.NoError(t, s.SaveSegment(ctx, seg))

	got, err := s.GetSegment(ctx, 7)
	require.NoError(t, err)
	if diff := cmp.Diff(seg, got); diff != "" {
		t.Errorf("cached segment mismatch (-want +got):\n%s", diff)
	}

	seg.Name = "Hawk Hill (renamed)"
	seg.Coordinates = nil
	require.NoError(t, s.SaveSegment(ctx, seg))

	got, err = s.GetSegment(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Hawk Hill (renamed)", got.Name)
	assert.Nil(t, got.Coordinates)
	assert.Nil(t, got.ElevationLow)

	n, err := s.CountSegments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSyncState(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	v, err := s.GetSyncState(ctx, KeyLastFetch)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetSyncState(ctx, KeyLastFetch, "2024-03-09T10:00:00Z"))
	require.NoError(t, s.SetSyncState(ctx, KeyLastFetch, "2024-03-10T10:00:00Z"))

	v, err = s.GetSyncState(ctx, KeyLastFetch)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10T10:00:00Z", v)
}
