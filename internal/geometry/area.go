package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// GeodesicArea approximates the surface area of g in square meters on a
// spherical earth. It is a preview for tooling; the stored area_m2 always
// comes from the database's geography computation.
func GeodesicArea(g orb.Geometry) float64 {
	if g == nil {
		return 0
	}
	return math.Abs(geo.Area(g))
}
