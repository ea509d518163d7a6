package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// metersPerDegree matches the earth radius orb's haversine uses.
const metersPerDegree = 6378137.0 * math.Pi / 180

func north(p Point, meters float64) Point {
	return Point{Lat: p.Lat + meters/metersPerDegree, Lng: p.Lng}
}

func inAny(bounds []Bound, hash string) bool {
	for _, b := range bounds {
		if b.Contains(hash) {
			return true
		}
	}
	return false
}

func TestHash(t *testing.T) {
	require.Equal(t, "s00twy01mt", Hash(Point{Lat: 1, Lng: 1}))
	require.Len(t, Hash(Point{Lat: -33.86, Lng: 151.2}), HashPrecision)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Point{Lat: 0, Lng: 0}.Validate())
	require.NoError(t, Point{Lat: -90, Lng: 180}.Validate())
	require.ErrorIs(t, Point{Lat: 91, Lng: 0}.Validate(), ErrInvalidLocation)
	require.ErrorIs(t, Point{Lat: 0, Lng: -180.5}.Validate(), ErrInvalidLocation)
	require.ErrorIs(t, Point{Lat: math.NaN(), Lng: 0}.Validate(), ErrInvalidLocation)
}

func TestQueryBounds(t *testing.T) {
	bounds := QueryBounds(Point{Lat: 1, Lng: 1}, 25000)
	require.ElementsMatch(t, []Bound{
		{Start: "s00s", End: "s00w"},
		{Start: "s00w", End: "s00~"},
	}, bounds)

	sf := QueryBounds(Point{Lat: 37.7749, Lng: -122.4194}, 40000)
	require.ElementsMatch(t, []Bound{
		{Start: "9q8h", End: "9q8~"},
		{Start: "9q9h", End: "9q9~"},
		{Start: "9qb0", End: "9qbh"},
		{Start: "9qc0", End: "9qch"},
	}, sf)
}

func TestQueryBoundsNeedDistanceFilter(t *testing.T) {
	center := Point{Lat: 1, Lng: 1}
	bounds := QueryBounds(center, 25000)

	near := north(center, 3000)
	require.True(t, inAny(bounds, Hash(near)))
	require.InDelta(t, 3000, Distance(center, near), 1)

	// Inside the covering ranges but outside the circle.
	far := north(center, 26000)
	require.True(t, inAny(bounds, Hash(far)))
	require.Greater(t, Distance(center, far), 25000.0)

	require.False(t, inAny(bounds, Hash(Point{Lat: 1, Lng: 3})))
}

func TestQueryBoundsCoversCircle(t *testing.T) {
	center := Point{Lat: 47.6062, Lng: -122.3321}
	radius := 10000.0
	bounds := QueryBounds(center, radius)
	for _, d := range []float64{0, 1000, 5000, 9900} {
		p := north(center, d)
		require.True(t, inAny(bounds, Hash(p)), "distance %v", d)
		s := Point{Lat: center.Lat - d/metersPerDegree, Lng: center.Lng}
		require.True(t, inAny(bounds, Hash(s)), "distance -%v", d)
	}
}

func TestMilesToMeters(t *testing.T) {
	require.Equal(t, 40225.0, MilesToMeters(25))
}
