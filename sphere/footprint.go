// Public domain.

package sphere

import (
	"errors"
	"math"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/wtheta/grid"
)

// regionSplitCeiling caps the resolution used to cut region stripes.
// Finer stripes than this buy nothing and force fine point indexes.
const regionSplitCeiling uint32 = 256

// Band is a rectangular footprint: a right ascension range crossed
// with a declination range.  Its area is analytic and random points
// are generated uniformly over it, which makes it the reference
// footprint for tests and for the wtheta command.
type Band struct {
	raMin, raMax   float64 // radians, raMin < raMax, no wrap
	decMin, decMax float64 // radians

	nRegion   int
	regionRes uint32
	regionCol int // columns spanned at regionRes
	colMin    int // first column of the span at regionRes
}

// NewBand constructs a Band footprint.  The right ascension bounds are
// plain angles, not unit.RA, so a full circle survives as 360 rather
// than wrapping to zero.  The range may not wrap through zero and both
// ranges must be non-empty.
func NewBand(raMin, raMax, decMin, decMax unit.Angle) (*Band, error) {
	b := &Band{
		raMin:  raMin.Rad(),
		raMax:  raMax.Rad(),
		decMin: decMin.Rad(),
		decMax: decMax.Rad(),
	}
	if b.raMin < 0 || b.raMin >= b.raMax || b.raMax > 2*math.Pi {
		return nil, errors.New("sphere: invalid right ascension range")
	}
	if b.decMin >= b.decMax ||
		b.decMin < -math.Pi/2 || b.decMax > math.Pi/2 {
		return nil, errors.New("sphere: invalid declination range")
	}
	return b, nil
}

// BandFromDeg constructs a Band from bounds in degrees.
func BandFromDeg(raMin, raMax, decMin, decMax float64) (*Band, error) {
	return NewBand(
		unit.AngleFromDeg(raMin), unit.AngleFromDeg(raMax),
		unit.AngleFromDeg(decMin), unit.AngleFromDeg(decMax))
}

// Bounds returns the footprint's bounding ranges in radians.  The
// density-field sampler uses it to restrict its cell scan.
func (b *Band) Bounds() (raMin, raMax, decMin, decMax float64) {
	return b.raMin, b.raMax, b.decMin, b.decMax
}

// Contains reports whether the point lies inside the band.
func (b *Band) Contains(p Point) bool {
	d := p.Dec.Rad()
	if d < b.decMin || d >= b.decMax {
		return false
	}
	a := math.Mod(p.RA.Rad(), 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a >= b.raMin && a < b.raMax
}

// Area returns the band area in square degrees.
func (b *Band) Area() float64 {
	sr := (b.raMax - b.raMin) * (math.Sin(b.decMax) - math.Sin(b.decMin))
	return sr * (180 / math.Pi) * (180 / math.Pi)
}

// GenerateRandomPoints returns len(ref) points uniform in area over the
// band.  With weighted set, each point's weight is drawn from the
// reference set's weights; otherwise weights are 1.
func (b *Band) GenerateRandomPoints(ref []Point, weighted bool, rnd Rand) []Point {
	s1 := math.Sin(b.decMin)
	s2 := math.Sin(b.decMax)
	out := make([]Point, len(ref))
	for i := range out {
		ra := b.raMin + rnd.Float64()*(b.raMax-b.raMin)
		dec := math.Asin(s1 + rnd.Float64()*(s2-s1))
		w := 1.0
		if weighted {
			j := int(rnd.Float64() * float64(len(ref)))
			if j >= len(ref) {
				j = len(ref) - 1
			}
			w = ref[j].Weight
		}
		out[i] = Point{RA: unit.RA(ra), Dec: unit.Angle(dec), Weight: w}
	}
	return out
}

// InitializeRegions splits the band into about n equal-area stripes cut
// along grid column boundaries and returns the count achieved.  The
// split resolution is the coarsest one offering at least n columns
// across the band, within a fixed ceiling; when the ceiling allows
// fewer than n columns, fewer regions result.  A repeated call
// replaces the previous split.
func (b *Band) InitializeRegions(n int) int {
	if n < 1 {
		b.nRegion = 0
		b.regionRes = 0
		b.regionCol = 0
		return 0
	}
	res := grid.BaseResolution
	for res < regionSplitCeiling && b.colSpan(res) < n {
		res *= 2
	}
	cols := b.colSpan(res)
	if n > cols {
		n = cols
	}
	b.nRegion = n
	b.regionRes = res
	b.regionCol = cols
	b.colMin = int(b.raMin / (2 * math.Pi) * float64(grid.Cols(res)))
	return n
}

// colSpan returns the number of whole grid columns the band's right
// ascension range spans at a resolution.
func (b *Band) colSpan(res uint32) int {
	nc := float64(grid.Cols(res))
	lo := int(b.raMin / (2 * math.Pi) * nc)
	hi := int(math.Ceil(b.raMax / (2 * math.Pi) * nc))
	if hi <= lo {
		return 1
	}
	return hi - lo
}

// NRegion returns the current region count, zero before any split.
func (b *Band) NRegion() int { return b.nRegion }

// RegionResolution returns the resolution the band was split at.
func (b *Band) RegionResolution() uint32 { return b.regionRes }

// RegionOf returns the stripe index of a point, -1 outside the band or
// before any split.
func (b *Band) RegionOf(p Point) int {
	if b.nRegion == 0 || !b.Contains(p) {
		return -1
	}
	a := math.Mod(p.RA.Rad(), 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	col := int(a/(2*math.Pi)*float64(grid.Cols(b.regionRes))) - b.colMin
	if col < 0 {
		col = 0
	}
	if col >= b.regionCol {
		col = b.regionCol - 1
	}
	return col * b.nRegion / b.regionCol
}
