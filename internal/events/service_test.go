package events

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/will-chou/capstone-community/internal/geo"
)

// metersPerDegree matches the earth radius used by geo.Distance.
const metersPerDegree = 6378137.0 * math.Pi / 180

type userIndex struct{ linked map[string][]string }

func (u *userIndex) AppendEventEntry(ctx context.Context, email, eventID string) error {
	if u.linked == nil {
		u.linked = map[string][]string{}
	}
	u.linked[email] = append(u.linked[email], eventID)
	return nil
}

func newTestService() (*Service, *MemoryRepo, *userIndex) {
	repo := NewMemoryRepo()
	idx := &userIndex{}
	svc := NewService(repo, idx)
	n := 0
	svc.newID = func() string { n++; return fmt.Sprintf("ev-%02d", n) }
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base.Add(time.Duration(n) * time.Minute) }
	return svc, repo, idx
}

func north(p geo.Point, meters float64) geo.Point {
	return geo.Point{Lat: p.Lat + meters/metersPerDegree, Lng: p.Lng}
}

func TestPostStoresHashAndLinksAuthor(t *testing.T) {
	svc, repo, idx := newTestService()
	ctx := context.Background()

	e, err := svc.Post(ctx, "ada@example.com", geo.Point{Lat: 1, Lng: 1}, EventData{EventText: "street fair"})
	require.NoError(t, err)
	require.Equal(t, "ev-01", e.ID)
	require.Equal(t, "s00twy01mt", e.LocationHash)
	require.Equal(t, Category(""), e.EventData.EventCategory)
	require.Equal(t, []string{"ev-01"}, idx.linked["ada@example.com"])

	mine, err := repo.RecentForUser(ctx, "ada@example.com", 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, e.LocationHash, mine[0].LocationHash)
}

func TestPostValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Post(ctx, "a@example.com", geo.Point{Lat: 95, Lng: 1}, EventData{EventText: "x"})
	require.ErrorIs(t, err, geo.ErrInvalidLocation)
	_, err = svc.Post(ctx, "a@example.com", geo.Point{Lat: 1, Lng: 1}, EventData{EventText: "x", EventCategory: "concert"})
	require.ErrorIs(t, err, ErrInvalidCategory)

	// the payload itself is opaque; an empty one is stored
	e, err := svc.Post(ctx, "a@example.com", geo.Point{Lat: 1, Lng: 1}, EventData{})
	require.NoError(t, err)
	require.NotEmpty(t, e.ID)

	// zero coordinates are a valid location
	_, err = svc.Post(ctx, "a@example.com", geo.Point{}, EventData{EventText: "null island"})
	require.NoError(t, err)
}

func TestNearbyFiltersByExactDistance(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	center := geo.Point{Lat: 1, Lng: 1}

	near, err := svc.Post(ctx, "a@example.com", north(center, 3000), EventData{EventText: "near"})
	require.NoError(t, err)
	// inside a query range but beyond the radius
	_, err = svc.Post(ctx, "a@example.com", north(center, 26000), EventData{EventText: "edge"})
	require.NoError(t, err)
	_, err = svc.Post(ctx, "a@example.com", geo.Point{Lat: 1, Lng: 3}, EventData{EventText: "far"})
	require.NoError(t, err)

	got, err := svc.Nearby(ctx, center, 25000, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, near.ID, got[0].ID)

	wide, err := svc.Nearby(ctx, center, 30000, "")
	require.NoError(t, err)
	require.Len(t, wide, 2)
}

func TestNearbyCategoryFilter(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	center := geo.Point{Lat: 37.7749, Lng: -122.4194}

	_, err := svc.Post(ctx, "a@example.com", north(center, 100), EventData{EventText: "theft", EventCategory: CategoryCrime})
	require.NoError(t, err)
	_, err = svc.Post(ctx, "a@example.com", north(center, 200), EventData{EventText: "untagged"})
	require.NoError(t, err)

	crime, err := svc.Nearby(ctx, center, 1000, CategoryCrime)
	require.NoError(t, err)
	require.Len(t, crime, 1)
	require.Equal(t, "theft", crime[0].EventData.EventText)

	other, err := svc.Nearby(ctx, center, 1000, CategoryOther)
	require.NoError(t, err)
	require.Len(t, other, 1)
	require.Equal(t, "untagged", other[0].EventData.EventText)
}

func TestNearbyEmptyIsNotNil(t *testing.T) {
	svc, _, _ := newTestService()
	got, err := svc.Nearby(context.Background(), geo.Point{Lat: 10, Lng: 10}, 40000, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)

	_, err = svc.Nearby(context.Background(), geo.Point{Lat: 10, Lng: 10}, 0, "")
	require.ErrorIs(t, err, geo.ErrInvalidLocation)
}

type failingRepo struct{ *MemoryRepo }

func (f failingRepo) RangeByGeohash(ctx context.Context, start, end string) ([]EventEntry, error) {
	return nil, errors.New("store down")
}

func (f failingRepo) CreateForUser(ctx context.Context, email string, e *EventEntry) error {
	return errors.New("store down")
}

func TestStoreErrorsPropagate(t *testing.T) {
	svc := NewService(failingRepo{NewMemoryRepo()}, nil)
	ctx := context.Background()

	_, err := svc.Nearby(ctx, geo.Point{Lat: 1, Lng: 1}, 1000, "")
	require.Error(t, err)
	_, err = svc.Post(ctx, "a@example.com", geo.Point{Lat: 1, Lng: 1}, EventData{EventText: "x"})
	require.Error(t, err)
}

func TestRecentNewestFirstAndCapped(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	empty, err := svc.Recent(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	for i := 0; i < 12; i++ {
		_, err := svc.Post(ctx, "a@example.com", geo.Point{Lat: 1, Lng: 1}, EventData{EventText: fmt.Sprintf("post %d", i)})
		require.NoError(t, err)
	}
	recent, err := svc.Recent(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, recent, RecentLimit)
	require.Equal(t, "ev-12", recent[0].ID)
	require.Equal(t, "ev-03", recent[RecentLimit-1].ID)
}
