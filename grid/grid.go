// Public domain.

// Package grid defines the power-of-two resolution ladder used to sample
// the sphere and the cell geometry shared by the density-field sampler,
// the point index, and angular bin resolution assignment.
//
// At resolution r the sphere is divided into 4r columns of right
// ascension and 2r rows equally spaced in the sine of declination, so
// all cells at one resolution have equal area.  Rows and columns nest:
// a cell at resolution r/2 is exactly a 2x2 block of cells at r.
package grid

import (
	"math"

	"github.com/soniakeys/unit"
)

const (
	// BaseResolution is the coarsest usable grid.
	BaseResolution uint32 = 4

	// MaxPixelResolution is the finest usable grid.
	MaxPixelResolution uint32 = 32768
)

// Band is a declination band, in degrees, used to calibrate cell scales.
// Cell extents vary over the sphere; Scale reports the worst case within
// the band.
type Band struct {
	DecMin, DecMax float64
}

// DefaultBand is the calibration band used when none is specified.
var DefaultBand = Band{-70, 70}

// Valid reports whether r is a usable resolution: a power of two within
// [BaseResolution, MaxPixelResolution].
func Valid(r uint32) bool {
	return r >= BaseResolution && r <= MaxPixelResolution && r&(r-1) == 0
}

// Cols returns the number of right ascension columns at resolution r.
func Cols(r uint32) int { return int(4 * r) }

// Rows returns the number of declination rows at resolution r.
func Rows(r uint32) int { return int(2 * r) }

// CellArea returns the area of one cell at resolution r in square
// degrees.  All cells at one resolution have the same area.
func CellArea(r uint32) float64 {
	sr := 4 * math.Pi / float64(Cols(r)*Rows(r))
	return sr * (180 / math.Pi) * (180 / math.Pi)
}

// Scale returns the largest on-sky cell extent at resolution r over the
// calibration band, in degrees.  It is strictly decreasing in r, which
// resolution assignment relies on.
func Scale(r uint32, band Band) float64 {
	// column width, widest at the equator
	w := 90 / float64(r)

	// Row height, tallest at the high-declination edge of the band.
	// The row containing the edge at resolution 2r is half of the row
	// containing it at r, so the height strictly decreases with r.
	dec := math.Abs(band.DecMin)
	if d := math.Abs(band.DecMax); d > dec {
		dec = d
	}
	nr := float64(Rows(r))
	row := math.Floor((math.Sin(dec*math.Pi/180) + 1) / 2 * nr)
	if row >= nr {
		row = nr - 1
	}
	s1 := row/nr*2 - 1
	s2 := (row+1)/nr*2 - 1
	h := (math.Asin(s2) - math.Asin(s1)) * 180 / math.Pi

	if h > w {
		return h
	}
	return w
}

// Cell returns the column and row of the cell containing the given
// position at resolution r.  Ok is false for declinations outside
// [-90,90] or non-finite coordinates.
func Cell(r uint32, ra unit.RA, dec unit.Angle) (col, row int, ok bool) {
	d := dec.Rad()
	if math.IsNaN(d) || d < -math.Pi/2 || d > math.Pi/2 {
		return 0, 0, false
	}
	a := math.Mod(ra.Rad(), 2*math.Pi)
	if math.IsNaN(a) {
		return 0, 0, false
	}
	if a < 0 {
		a += 2 * math.Pi
	}
	nc, nr := Cols(r), Rows(r)
	col = int(a / (2 * math.Pi) * float64(nc))
	if col >= nc {
		col = nc - 1
	}
	row = int((math.Sin(d) + 1) / 2 * float64(nr))
	if row >= nr {
		row = nr - 1
	}
	return col, row, true
}

// Center returns the position of the center of cell (col,row) at
// resolution r: the midpoint in right ascension and the midpoint of the
// row's sine-declination span.
func Center(r uint32, col, row int) (ra unit.RA, dec unit.Angle) {
	nc, nr := Cols(r), Rows(r)
	ra = unit.RA((float64(col) + .5) / float64(nc) * 2 * math.Pi)
	s := (float64(row)+.5)/float64(nr)*2 - 1
	dec = unit.Angle(math.Asin(s))
	return
}

// Coarsen maps a cell at one resolution to its containing cell at the
// next coarser resolution.
func Coarsen(col, row int) (int, int) {
	return col / 2, row / 2
}

// Radius returns half the diagonal extent of cell (col,row) at
// resolution r in radians, an upper bound on the angular distance from
// the cell center to any point of the cell.  Used for cell-level
// pruning in pair searches.
func Radius(r uint32, col, row int) float64 {
	nr := Rows(r)
	s1 := float64(row)/float64(nr)*2 - 1
	s2 := float64(row+1)/float64(nr)*2 - 1
	if s2 > 1 {
		s2 = 1
	}
	if s1 < -1 {
		s1 = -1
	}
	h := math.Asin(s2) - math.Asin(s1)
	w := 2 * math.Pi / float64(Cols(r))
	return math.Hypot(h, w) / 2
}
