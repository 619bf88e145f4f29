package kernel

import (
	"errors"
	"fmt"
	"math"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	// EarthRadiusKm is the mean radius used by the haversine formula.
	EarthRadiusKm = 6371.0

	LongitudeMin = -180.0
	LongitudeMax = 180.0
	LatitudeMin  = -90.0
	LatitudeMax  = 90.0
)

// ErrLocationIsNotConstructed is returned when a zero-value Location is used.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError(
	"location must be created via NewLocation")

// Location is a WGS84 point. It is used for restaurant coordinates and the last
// reported position of a delivery agent.
//
// Example:
//
//	loc, err := kernel.NewLocation(2.333, 48.865)
//	if err != nil {
//	    // longitude or latitude out of range
//	}
//	fmt.Println(loc) // Location(2.333000,48.865000)
type Location struct { //nolint:recvcheck //using for validation
	lon   float64
	lat   float64
	guard guard.ConstructorGuard
}

// NewLocation validates longitude in [-180, 180] and latitude in [-90, 90].
// NaN and infinite values are rejected as out of range.
func NewLocation(lon float64, lat float64) (Location, error) {
	loc := Location{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.setLon(lon), loc.setLat(lat)); err != nil {
		return Location{}, err
	}

	return loc, nil
}

func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

func (l Location) Lon() float64 {
	return l.lon
}

func (l Location) Lat() float64 {
	return l.lat
}

func (l Location) String() string {
	return fmt.Sprintf("Location(%f,%f)", l.lon, l.lat)
}

func (l Location) IsEqual(other Location) (bool, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return l == other, nil
}

// DistanceKm returns the great-circle distance to other, see DistanceKm.
func (l Location) DistanceKm(other Location) (float64, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return math.Inf(1), err
	}
	return DistanceKm(l.lon, l.lat, other.lon, other.lat), nil
}

// DistanceKm is the haversine distance in kilometres between two points given as
// longitude/latitude degrees, rounded to 2 decimals. Malformed coordinates (NaN,
// infinite or out of range) yield +Inf so callers can rank them last without
// handling an error.
func DistanceKm(lon1, lat1, lon2, lat2 float64) float64 {
	if !validLon(lon1) || !validLat(lat1) || !validLon(lon2) || !validLat(lat2) {
		return math.Inf(1)
	}

	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Pow(math.Sin(dPhi/2), 2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLambda/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return scalar.Round(EarthRadiusKm*c, 2)
}

func (l *Location) setLon(lon float64) error {
	if !validLon(lon) {
		return errs.NewValueIsOutOfRangeError("longitude", lon, LongitudeMin, LongitudeMax)
	}

	l.lon = lon
	return nil
}

func (l *Location) setLat(lat float64) error {
	if !validLat(lat) {
		return errs.NewValueIsOutOfRangeError("latitude", lat, LatitudeMin, LatitudeMax)
	}

	l.lat = lat
	return nil
}

// NaN fails both comparisons, so it is rejected here too.
func validLon(v float64) bool {
	return v >= LongitudeMin && v <= LongitudeMax
}

func validLat(v float64) bool {
	return v >= LatitudeMin && v <= LatitudeMax
}
