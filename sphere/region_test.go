// Public domain.

package sphere

import (
	"testing"

	"github.com/soniakeys/wtheta/grid"
)

// A boundary cell can be kept with its center outside the footprint.
// It must still be attributed to a region stripe it overlaps, never
// left untagged.
func TestBoundaryCellRegions(t *testing.T) {
	f, err := BandFromDeg(0, 90, 0, 45)
	if err != nil {
		t.Fatal(err)
	}
	if f.InitializeRegions(4) < 1 {
		t.Fatal("no regions")
	}
	m, err := NewScalarMap(f, 16, DensityField, 1e-7, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.InitializeRegions(f); err != nil {
		t.Fatal(err)
	}
	sawOutside := false
	for i := range m.cells {
		c := &m.cells[i]
		ra, dec := grid.Center(m.resolution, c.col, c.row)
		if !f.Contains(Point{RA: ra, Dec: dec}) {
			sawOutside = true
		}
		if c.region < 0 || c.region >= f.NRegion() {
			t.Fatal("cell without region", c.col, c.row, c.region)
		}
	}
	if !sawOutside {
		t.Fatal("no kept cell with an outside center, nothing exercised")
	}
}
