// Package geo wraps the geohash and great-circle primitives used for
// proximity search: hashing a location, covering a circle with geohash
// ranges, and measuring exact distance.
package geo

import (
	"errors"
	"math"
	"strings"

	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// HashPrecision is the number of geohash characters stored per event.
const HashPrecision = 10

// MetersPerMile is the conversion applied to radius query parameters.
const MetersPerMile = 1609

const (
	base32              = "0123456789bcdefghjkmnpqrstuvwxyz"
	bitsPerChar         = 5
	maxBitsPrecision    = 22 * bitsPerChar
	earthEqRadius       = 6378137.0
	earthMeriCircumf    = 40007860.0
	metersPerDegreeLat  = 110574.0
	earthEccentricitySq = 0.00669447819799
	epsilon             = 1e-12
)

var ErrInvalidLocation = errors.New("invalid location")

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Validate rejects NaN and out-of-range coordinates.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return ErrInvalidLocation
	}
	return nil
}

// Hash returns the geohash of p at HashPrecision characters.
func Hash(p Point) string {
	return geohash.EncodeWithPrecision(p.Lat, p.Lng, HashPrecision)
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	return orbgeo.DistanceHaversine(orb.Point{a.Lng, a.Lat}, orb.Point{b.Lng, b.Lat})
}

// MilesToMeters converts a radius given in miles.
func MilesToMeters(miles float64) float64 {
	return miles * MetersPerMile
}

// Bound is an inclusive geohash string range [Start, End].
type Bound struct {
	Start string
	End   string
}

// Contains reports whether hash sorts inside the bound.
func (b Bound) Contains(hash string) bool {
	return hash >= b.Start && hash <= b.End
}

// QueryBounds returns geohash ranges that together cover the circle of
// radiusMeters around center. The ranges are a superset of the circle;
// callers must still filter candidates by Distance.
// The covering matches geofire's geohashQueryBounds so that hashes written
// by either implementation are found by both.
func QueryBounds(center Point, radiusMeters float64) []Bound {
	queryBits := boundingBoxBits(center, radiusMeters)
	if queryBits < 1 {
		queryBits = 1
	}
	precision := uint(math.Ceil(float64(queryBits) / bitsPerChar))

	coords := boundingBoxCoordinates(center, radiusMeters)
	out := make([]Bound, 0, len(coords))
	seen := make(map[Bound]struct{}, len(coords))
	for _, c := range coords {
		b := hashQuery(geohash.EncodeWithPrecision(c.Lat, c.Lng, precision), queryBits)
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out
}

func hashQuery(hash string, bits int) Bound {
	precision := int(math.Ceil(float64(bits) / bitsPerChar))
	if len(hash) < precision {
		return Bound{Start: hash, End: hash + "~"}
	}
	hash = hash[:precision]
	base := hash[:len(hash)-1]
	lastValue := strings.IndexByte(base32, hash[len(hash)-1])
	significantBits := bits - len(base)*bitsPerChar
	unusedBits := bitsPerChar - significantBits
	startValue := (lastValue >> unusedBits) << unusedBits
	endValue := startValue + (1 << unusedBits)
	if endValue > 31 {
		return Bound{Start: base + string(base32[startValue]), End: base + "~"}
	}
	return Bound{Start: base + string(base32[startValue]), End: base + string(base32[endValue])}
}

func boundingBoxCoordinates(center Point, radius float64) []Point {
	latDegrees := radius / metersPerDegreeLat
	latNorth := math.Min(90, center.Lat+latDegrees)
	latSouth := math.Max(-90, center.Lat-latDegrees)
	lngDegs := math.Max(metersToLongitudeDegrees(radius, latNorth), metersToLongitudeDegrees(radius, latSouth))
	west := wrapLongitude(center.Lng - lngDegs)
	east := wrapLongitude(center.Lng + lngDegs)
	return []Point{
		{center.Lat, center.Lng},
		{center.Lat, west},
		{center.Lat, east},
		{latNorth, center.Lng},
		{latNorth, west},
		{latNorth, east},
		{latSouth, center.Lng},
		{latSouth, west},
		{latSouth, east},
	}
}

func boundingBoxBits(center Point, size float64) int {
	latDelta := size / metersPerDegreeLat
	latNorth := math.Min(90, center.Lat+latDelta)
	latSouth := math.Max(-90, center.Lat-latDelta)
	bitsLat := int(math.Floor(latitudeBitsForResolution(size))) * 2
	bitsLngNorth := int(math.Floor(longitudeBitsForResolution(size, latNorth)))*2 - 1
	bitsLngSouth := int(math.Floor(longitudeBitsForResolution(size, latSouth)))*2 - 1
	return minInt(bitsLat, bitsLngNorth, bitsLngSouth, maxBitsPrecision)
}

func latitudeBitsForResolution(resolution float64) float64 {
	return math.Min(math.Log2(earthMeriCircumf/2/resolution), maxBitsPrecision)
}

func longitudeBitsForResolution(resolution, latitude float64) float64 {
	degs := metersToLongitudeDegrees(resolution, latitude)
	if math.Abs(degs) > 0.000001 {
		return math.Max(1, math.Log2(360/degs))
	}
	return 1
}

func metersToLongitudeDegrees(distance, latitude float64) float64 {
	rad := latitude * math.Pi / 180
	num := math.Cos(rad) * earthEqRadius * math.Pi / 180
	denom := 1 / math.Sqrt(1-earthEccentricitySq*math.Sin(rad)*math.Sin(rad))
	deltaDeg := num * denom
	if deltaDeg < epsilon {
		if distance > 0 {
			return 360
		}
		return 0
	}
	return math.Min(360, distance/deltaDeg)
}

func wrapLongitude(lng float64) float64 {
	if lng <= 180 && lng >= -180 {
		return lng
	}
	adjusted := lng + 180
	if adjusted > 0 {
		return math.Mod(adjusted, 360) - 180
	}
	return 180 - math.Mod(-adjusted, 360)
}

func minInt(first int, rest ...int) int {
	m := first
	for _, v := range rest {
		if v < m {
			m = v
		}
	}
	return m
}
