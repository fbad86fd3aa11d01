package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadiusKm = 6371.0

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String renders the pair in the "lat,lng" form stored on orders.
func (c Coordinates) String() string {
	return fmt.Sprintf("%g,%g", c.Lat, c.Lng)
}

// MapsLink builds a Google Maps link pointing at the coordinates.
func (c Coordinates) MapsLink() string {
	return fmt.Sprintf("https://www.google.com/maps?q=%g,%g", c.Lat, c.Lng)
}

// ParseCoordinates parses the "lat,lng" form back into a pair.
func ParseCoordinates(s string) (Coordinates, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ",", 2)
	if len(parts) != 2 {
		return Coordinates{}, fmt.Errorf("%w: coordinates must be \"lat,lng\"", ErrValidation)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: invalid latitude", ErrValidation)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: invalid longitude", ErrValidation)
	}
	return Coordinates{Lat: lat, Lng: lng}, nil
}

// DistanceKm returns the great-circle distance between two points using the
// haversine formula with a spherical earth of radius 6371 km.
func DistanceKm(a, b Coordinates) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// FormatDistance renders a distance the way orders store it, with a single
// decimal place.
func FormatDistance(km float64) string {
	return strconv.FormatFloat(km, 'f', 1, 64)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
