// Package geo holds the approximate distance helpers used by the nearby-store search.
package geo

import "math"

const (
	KmPerDegreeLat    = 110.574
	KmPerDegreeLngEq  = 111.320
	EarthRadiusKm     = 6371.0
	minCosForLngSpan  = 1e-9
	fullLongitudeSpan = 180.0
)

// Box is an inclusive latitude/longitude rectangle.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// BoundingBox returns the equirectangular box around (lat, lng) for radiusKm.
// The box over-returns near its corners: a corner sits up to radiusKm*sqrt(2)
// from the centre. At the poles the longitude span covers the whole range.
// Boxes crossing the antimeridian are not wrapped.
func BoundingBox(lat, lng, radiusKm float64) Box {
	dLat := radiusKm / KmPerDegreeLat
	box := Box{MinLat: lat - dLat, MaxLat: lat + dLat}

	cos := math.Cos(lat * math.Pi / 180)
	if math.Abs(cos) <= minCosForLngSpan {
		box.MinLng, box.MaxLng = -fullLongitudeSpan, fullLongitudeSpan
		return box
	}

	dLng := radiusKm / (KmPerDegreeLngEq * cos)
	box.MinLng, box.MaxLng = lng-dLng, lng+dLng
	return box
}

// Contains reports whether the point lies inside the box, bounds included.
func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// HaversineKm is the great-circle distance between two points.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
