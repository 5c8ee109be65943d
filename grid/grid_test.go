// Public domain.

package grid_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/wtheta/grid"
)

func ExampleCols() {
	fmt.Println(grid.Cols(4), grid.Rows(4))
	// Output:
	// 16 8
}

var validCases = []struct {
	r  uint32
	ok bool
}{
	{0, false},
	{1, false},
	{2, false},
	{4, true},
	{6, false},
	{64, true},
	{100, false},
	{32768, true},
	{65536, false},
}

func TestValid(t *testing.T) {
	for _, c := range validCases {
		if grid.Valid(c.r) != c.ok {
			t.Fatal("Valid", c.r)
		}
	}
}

func TestCellArea(t *testing.T) {
	// cells tile the sphere
	sphereArea := 4 * math.Pi * (180 / math.Pi) * (180 / math.Pi)
	for r := grid.BaseResolution; r <= 1024; r *= 2 {
		total := float64(grid.Cols(r)*grid.Rows(r)) * grid.CellArea(r)
		if math.Abs(total-sphereArea) > 1e-6 {
			t.Fatal("cells don't tile at resolution", r)
		}
	}
}

func TestScaleMonotonic(t *testing.T) {
	band := grid.DefaultBand
	last := math.Inf(1)
	for r := grid.BaseResolution; r <= grid.MaxPixelResolution; r *= 2 {
		s := grid.Scale(r, band)
		if s <= 0 || s >= last {
			t.Fatal("scale not strictly decreasing at resolution", r)
		}
		last = s
	}
}

func TestCellRoundTrip(t *testing.T) {
	pts := []struct{ ra, dec float64 }{
		{0, 0}, {359.99, 0}, {180, 45}, {12.3, -67.8}, {271.5, 89.9},
		{0.01, -89.9},
	}
	for _, r := range []uint32{4, 64, 2048} {
		for _, p := range pts {
			ra := unit.RAFromDeg(p.ra)
			dec := unit.AngleFromDeg(p.dec)
			col, row, ok := grid.Cell(r, ra, dec)
			if !ok {
				t.Fatal("Cell failed", r, p)
			}
			if col < 0 || col >= grid.Cols(r) || row < 0 || row >= grid.Rows(r) {
				t.Fatal("cell out of range", r, p)
			}
			// the cell center localizes to the same cell
			cra, cdec := grid.Center(r, col, row)
			col2, row2, ok := grid.Cell(r, cra, cdec)
			if !ok || col2 != col || row2 != row {
				t.Fatal("center not in cell", r, p)
			}
		}
	}
}

func TestCellInvalid(t *testing.T) {
	if _, _, ok := grid.Cell(4, 0, unit.AngleFromDeg(91)); ok {
		t.Fatal("expected failure above pole")
	}
	if _, _, ok := grid.Cell(4, unit.RA(math.NaN()), 0); ok {
		t.Fatal("expected failure on NaN")
	}
}

func TestCoarsenNesting(t *testing.T) {
	pts := []struct{ ra, dec float64 }{
		{7.7, 33.3}, {185.2, -12.9}, {300.4, 68.1},
	}
	for r := uint32(8); r <= 4096; r *= 2 {
		for _, p := range pts {
			ra := unit.RAFromDeg(p.ra)
			dec := unit.AngleFromDeg(p.dec)
			col, row, _ := grid.Cell(r, ra, dec)
			ccol, crow := grid.Coarsen(col, row)
			pcol, prow, _ := grid.Cell(r/2, ra, dec)
			if ccol != pcol || crow != prow {
				t.Fatal("coarsened cell mismatch", r, p)
			}
		}
	}
}

func TestRadius(t *testing.T) {
	for _, r := range []uint32{4, 64, 1024} {
		for row := 0; row < grid.Rows(r); row++ {
			if grid.Radius(r, 0, row) <= 0 {
				t.Fatal("nonpositive radius", r, row)
			}
		}
		// radius shrinks as resolution doubles, equator row
		if grid.Radius(2*r, 0, grid.Rows(2*r)/2) >= grid.Radius(r, 0, grid.Rows(r)/2) {
			t.Fatal("radius not shrinking at resolution", r)
		}
	}
}
