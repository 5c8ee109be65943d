// Public domain.

// Package sphere provides the spherical collaborators of the
// correlation engine: weighted points, survey footprints, the
// density-field sampler used by the pixel estimator, and the point
// index used by the pair estimator.
package sphere

import (
	"math"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/meeus/v3/angle"
	"github.com/soniakeys/unit"
)

// Point is a weighted position on the sphere.
type Point struct {
	RA     unit.RA
	Dec    unit.Angle
	Weight float64
}

// PointFromDeg constructs a Point from coordinates in degrees.
func PointFromDeg(raDeg, decDeg, weight float64) Point {
	return Point{
		RA:     unit.RAFromDeg(raDeg),
		Dec:    unit.AngleFromDeg(decDeg),
		Weight: weight,
	}
}

// Cart returns the unit vector of the point's position.
func (p Point) Cart() coord.Cart {
	sd, cd := math.Sincos(p.Dec.Rad())
	sr, cr := math.Sincos(p.RA.Rad())
	return coord.Cart{X: cr * cd, Y: sr * cd, Z: sd}
}

// Sin2Sep returns sin²(θ/2) for the angular separation θ of two points.
func Sin2Sep(p, q Point) float64 {
	s := math.Sin(angle.Sep(unit.Angle(p.RA), p.Dec, unit.Angle(q.RA), q.Dec).Rad() / 2)
	return s * s
}

// CartSin2Sep returns sin²(θ/2) for the separation of two unit vectors,
// the form used in pair-counting inner loops.
func CartSin2Sep(a, b *coord.Cart) float64 {
	c := a.Dot(b)
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return (1 - c) / 2
}

// Rand is the source of randomness used for random point generation.
// It is satisfied by math/rand and by golang.org/x/exp/rand.
type Rand interface {
	Float64() float64
}

// Footprint describes an irregular region of the sphere: the survey
// geometry points are defined over and random points are drawn from.
// Implementations are read-only to the correlation engine except for
// InitializeRegions.
type Footprint interface {
	// Contains reports whether the point lies inside the footprint.
	Contains(p Point) bool

	// Area returns the footprint area in square degrees.
	Area() float64

	// GenerateRandomPoints returns len(ref) points distributed
	// uniformly over the footprint.  With weighted set, point weights
	// are resampled from the reference set's weight distribution;
	// otherwise all weights are 1.
	GenerateRandomPoints(ref []Point, weighted bool, rnd Rand) []Point

	// NRegion returns the current region count, zero if the footprint
	// has not been split.
	NRegion() int

	// InitializeRegions splits the footprint into about n roughly
	// equal-area regions and returns the count actually achieved,
	// which may be smaller than requested.
	InitializeRegions(n int) int

	// RegionResolution returns the grid resolution the footprint was
	// split at, zero if unsplit.
	RegionResolution() uint32

	// RegionOf returns the region index of a point, or -1 for points
	// outside the footprint or before any split.
	RegionOf(p Point) int
}
