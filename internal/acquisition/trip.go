package acquisition

import (
	"math"

	"github.com/sweeney/motodash/internal/gps"
)

// earthRadiusM matches the radius used by common GPS libraries for
// great-circle distances.
const earthRadiusM = 6372795.0

// Distance returns the great-circle distance in meters between two points
// given in decimal degrees.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLng := radians(lng1 - lng2)
	sdLng, cdLng := math.Sincos(dLng)
	slat1, clat1 := math.Sincos(radians(lat1))
	slat2, clat2 := math.Sincos(radians(lat2))

	x := clat1*slat2 - slat1*clat2*cdLng
	y := clat2 * sdLng
	num := math.Sqrt(x*x + y*y)
	denom := slat1*slat2 + clat1*clat2*cdLng
	return math.Atan2(num, denom) * earthRadiusM
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Trip accumulates distance between successive moving fixes.
type Trip struct {
	prevLat  float64
	prevLng  float64
	anchored bool
	meters   float64
}

// Anchor sets the reference point without adding distance.
func (t *Trip) Anchor(lat, lng float64) {
	t.prevLat = lat
	t.prevLng = lng
	t.anchored = true
}

// Update adds the distance from the last anchor to fix when the fix is
// valid and the vehicle moves at least minSpeedKmph. It returns the
// increment, which is never negative.
func (t *Trip) Update(fix gps.Fix, minSpeedKmph float64) float64 {
	if !fix.LocationValid || !fix.SpeedValid || fix.SpeedKmph < minSpeedKmph {
		return 0
	}
	if !t.anchored {
		t.Anchor(fix.Lat, fix.Lng)
		return 0
	}

	d := Distance(fix.Lat, fix.Lng, t.prevLat, t.prevLng)
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	t.meters += d
	t.prevLat = fix.Lat
	t.prevLng = fix.Lng
	return d
}

// Meters returns the accumulated distance.
func (t *Trip) Meters() float64 {
	return t.meters
}

// Reset zeroes the distance and keeps the anchor.
func (t *Trip) Reset() {
	t.meters = 0
}
