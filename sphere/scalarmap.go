// Public domain.

package sphere

import (
	"errors"
	"math"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/wtheta/angbin"
	"github.com/soniakeys/wtheta/grid"
)

// FieldKind selects how a ScalarMap interprets added values.
type FieldKind int

const (
	// ScalarField: cells carry a sampled scalar value; adding a point
	// overrides the cell value.
	ScalarField FieldKind = iota
	// DensityField: cells accumulate a projected point density.
	DensityField
	// SampledField: cells accumulate a point-sampled field value.
	SampledField
)

// ErrResolutionMismatch is returned when two scalar maps built at
// different resolutions are cross-correlated.
var ErrResolutionMismatch = errors.New("sphere: scalar map resolution mismatch")

type scalarCell struct {
	col, row int
	center   coord.Cart
	fraction float64 // unmasked fraction of the cell inside the footprint
	raw      float64 // accumulated intensity
	delta    float64 // fractional over-density, valid after conversion
	nPoints  int
	region   int
}

// ScalarMap is a regular sampling of a scalar field over a footprint at
// a single resolution.  It is the density-field sampler consumed by the
// pixel estimator: points are added to cells, cell counts are converted
// to fractional over-densities, and cell pair products accumulate into
// angular bins.
type ScalarMap struct {
	resolution  uint32
	kind        FieldKind
	minUnmasked float64
	cells       []scalarCell
	index       map[[2]int]int
	mean        float64
	meanValid   bool
	overDensity bool
	nRegion     int
}

// subSamples per cell axis when estimating unmasked fractions.
const subSamples = 4

// NewScalarMap samples a footprint at the given resolution.  Cells
// whose unmasked fraction falls below minUnmasked are dropped.  With
// useWeightAsIntensity the map becomes a ScalarField imprinted with the
// footprint coverage; useWeightAsWeight credits added points with the
// footprint weight (uniform for the footprints in this package).
func NewScalarMap(f Footprint, resolution uint32, kind FieldKind,
	minUnmasked float64, useWeightAsIntensity, useWeightAsWeight bool) (*ScalarMap, error) {

	if !grid.Valid(resolution) {
		return nil, errors.New("sphere: invalid scalar map resolution")
	}
	if useWeightAsIntensity {
		kind = ScalarField
	}
	m := &ScalarMap{
		resolution:  resolution,
		kind:        kind,
		minUnmasked: minUnmasked,
		index:       map[[2]int]int{},
	}

	colLo, colHi, rowLo, rowHi := coverage(f, resolution)
	for col := colLo; col <= colHi; col++ {
		for row := rowLo; row <= rowHi; row++ {
			fr := unmaskedFraction(f, resolution, col, row)
			if fr < minUnmasked || fr == 0 {
				continue
			}
			ra, dec := grid.Center(resolution, col, row)
			c := scalarCell{
				col:      col,
				row:      row,
				center:   Point{RA: ra, Dec: dec}.Cart(),
				fraction: fr,
				region:   -1,
			}
			if useWeightAsIntensity {
				c.raw = fr
			}
			m.index[[2]int{col, row}] = len(m.cells)
			m.cells = append(m.cells, c)
		}
	}
	if len(m.cells) == 0 {
		return nil, errors.New("sphere: footprint covers no cells at this resolution")
	}
	return m, nil
}

// coverage returns the cell ranges to scan for a footprint, the whole
// sphere unless the footprint reports bounds.
func coverage(f Footprint, resolution uint32) (colLo, colHi, rowLo, rowHi int) {
	colHi = grid.Cols(resolution) - 1
	rowHi = grid.Rows(resolution) - 1
	bf, ok := f.(interface {
		Bounds() (raMin, raMax, decMin, decMax float64)
	})
	if !ok {
		return
	}
	raMin, raMax, decMin, decMax := bf.Bounds()
	nc, nr := float64(grid.Cols(resolution)), float64(grid.Rows(resolution))
	colLo = int(raMin / (2 * math.Pi) * nc)
	colHi = int(raMax / (2 * math.Pi) * nc)
	rowLo = int((math.Sin(decMin) + 1) / 2 * nr)
	rowHi = int((math.Sin(decMax) + 1) / 2 * nr)
	if colHi >= grid.Cols(resolution) {
		colHi = grid.Cols(resolution) - 1
	}
	if rowHi >= grid.Rows(resolution) {
		rowHi = grid.Rows(resolution) - 1
	}
	return
}

// unmaskedFraction estimates the fraction of a cell inside the
// footprint by subsampling the cell uniformly in area.
func unmaskedFraction(f Footprint, resolution uint32, col, row int) float64 {
	nc, nr := float64(grid.Cols(resolution)), float64(grid.Rows(resolution))
	in := 0
	for i := 0; i < subSamples; i++ {
		ra := (float64(col) + (float64(i)+.5)/subSamples) / nc * 2 * math.Pi
		for j := 0; j < subSamples; j++ {
			s := (float64(row)+(float64(j)+.5)/subSamples)/nr*2 - 1
			p := Point{RA: unit.RA(ra), Dec: unit.Angle(math.Asin(s))}
			if f.Contains(p) {
				in++
			}
		}
	}
	return float64(in) / (subSamples * subSamples)
}

// Resolution returns the common resolution of the map's cells.
func (m *ScalarMap) Resolution() uint32 { return m.resolution }

// NRegion returns the number of regions the map has been split into.
func (m *ScalarMap) NRegion() int { return m.nRegion }

// Size returns the number of sampled cells.
func (m *ScalarMap) Size() int { return len(m.cells) }

// NPoints returns the total number of points added to the map.
func (m *ScalarMap) NPoints() int {
	n := 0
	for i := range m.cells {
		n += m.cells[i].nPoints
	}
	return n
}

// Area returns the unmasked area covered by the map in square degrees.
func (m *ScalarMap) Area() float64 {
	var a float64
	for i := range m.cells {
		a += m.cells[i].fraction
	}
	return a * grid.CellArea(m.resolution)
}

// AddPoint places a weighted point in its cell.  The return value is
// false when the point does not localize to any cell of the map.
func (m *ScalarMap) AddPoint(p Point, weight float64) bool {
	col, row, ok := grid.Cell(m.resolution, p.RA, p.Dec)
	if !ok {
		return false
	}
	i, ok := m.index[[2]int{col, row}]
	if !ok {
		return false
	}
	c := &m.cells[i]
	if m.kind == ScalarField {
		c.raw = weight
	} else {
		c.raw += weight
	}
	c.nPoints++
	m.meanValid = false
	m.overDensity = false
	return true
}

// CalculateMeanIntensity computes the area-weighted mean density over
// the map's unmasked area.
func (m *ScalarMap) CalculateMeanIntensity() {
	var sum, area float64
	for i := range m.cells {
		sum += m.cells[i].raw
		area += m.cells[i].fraction
	}
	m.mean = sum / (area * grid.CellArea(m.resolution))
	m.meanValid = true
}

// MeanIntensity returns the mean density, computing it if needed.
func (m *ScalarMap) MeanIntensity() float64 {
	if !m.meanValid {
		m.CalculateMeanIntensity()
	}
	return m.mean
}

// ConvertToOverDensity fills each cell's fractional over-density
// (density minus mean, over mean).  Correlation methods call it
// implicitly.
func (m *ScalarMap) ConvertToOverDensity() {
	if m.overDensity {
		return
	}
	mean := m.MeanIntensity()
	ca := grid.CellArea(m.resolution)
	for i := range m.cells {
		c := &m.cells[i]
		density := c.raw / (c.fraction * ca)
		c.delta = (density - mean) / mean
	}
	m.overDensity = true
}

// InitializeRegions tags every cell with its footprint region.  It
// fails when the footprint has no regions or was split at a finer
// resolution than the map samples, which would make region attribution
// inconsistent.
func (m *ScalarMap) InitializeRegions(f Footprint) error {
	if f.NRegion() < 1 {
		return errors.New("sphere: footprint has no regions")
	}
	if f.RegionResolution() > m.resolution {
		return errors.New("sphere: footprint regionated finer than scalar map")
	}
	for i := range m.cells {
		m.cells[i].region = cellRegion(f, m.resolution,
			m.cells[i].col, m.cells[i].row)
	}
	m.nRegion = f.NRegion()
	return nil
}

// cellRegion attributes a cell to a footprint region.  A kept boundary
// cell can have its center outside the footprint; its region then
// comes from the first contained subsample, so the cell still lands in
// a stripe it overlaps.
func cellRegion(f Footprint, resolution uint32, col, row int) int {
	ra, dec := grid.Center(resolution, col, row)
	if r := f.RegionOf(Point{RA: ra, Dec: dec}); r >= 0 {
		return r
	}
	nc, nr := float64(grid.Cols(resolution)), float64(grid.Rows(resolution))
	for i := 0; i < subSamples; i++ {
		a := (float64(col) + (float64(i)+.5)/subSamples) / nc * 2 * math.Pi
		for j := 0; j < subSamples; j++ {
			s := (float64(row)+(float64(j)+.5)/subSamples)/nr*2 - 1
			p := Point{RA: unit.RA(a), Dec: unit.Angle(math.Asin(s))}
			if r := f.RegionOf(p); r >= 0 {
				return r
			}
		}
	}
	return -1
}

// Coarsen builds a map at a coarser resolution by 2x2 aggregation of
// raw cell values, never by rescanning points.  Region tags are
// inherited from the parent cells.
func (m *ScalarMap) Coarsen(resolution uint32) (*ScalarMap, error) {
	if !grid.Valid(resolution) || resolution >= m.resolution {
		return nil, errors.New("sphere: coarsen requires a coarser valid resolution")
	}
	sub := &ScalarMap{
		resolution:  resolution,
		kind:        m.kind,
		minUnmasked: m.minUnmasked,
		index:       map[[2]int]int{},
		nRegion:     m.nRegion,
	}
	// children per axis between the two resolutions
	k := int(m.resolution / resolution)
	for i := range m.cells {
		c := &m.cells[i]
		col, row := c.col/k, c.row/k
		j, ok := sub.index[[2]int{col, row}]
		if !ok {
			ra, dec := grid.Center(resolution, col, row)
			j = len(sub.cells)
			sub.index[[2]int{col, row}] = j
			sub.cells = append(sub.cells, scalarCell{
				col:    col,
				row:    row,
				center: Point{RA: ra, Dec: dec}.Cart(),
				region: c.region,
			})
		}
		s := &sub.cells[j]
		s.fraction += c.fraction / float64(k*k)
		s.raw += c.raw
		s.nPoints += c.nPoints
	}
	return sub, nil
}

// AutoCorrelate accumulates the map's over-density products for every
// cell pair whose separation falls in the bin.
func (m *ScalarMap) AutoCorrelate(b *angbin.Bin) {
	m.autoCorrelate(b, false)
}

// AutoCorrelateWithRegions is AutoCorrelate with the leave-one-out
// region accumulation active.
func (m *ScalarMap) AutoCorrelateWithRegions(b *angbin.Bin) {
	m.autoCorrelate(b, true)
}

func (m *ScalarMap) autoCorrelate(b *angbin.Bin, regions bool) {
	m.ConvertToOverDensity()
	for i := range m.cells {
		ci := &m.cells[i]
		for j := i + 1; j < len(m.cells); j++ {
			cj := &m.cells[j]
			s2 := CartSin2Sep(&ci.center, &cj.center)
			if !b.Contains(s2) {
				continue
			}
			ra, rb := -1, -1
			if regions {
				ra, rb = ci.region, cj.region
			}
			w := ci.fraction * cj.fraction
			b.AddToPixelWtheta(ci.delta*cj.delta*w, w, ra, rb)
		}
	}
}

// CrossCorrelate accumulates over-density products between this map
// and another built at the same resolution.
func (m *ScalarMap) CrossCorrelate(other *ScalarMap, b *angbin.Bin) error {
	return m.crossCorrelate(other, b, false)
}

// CrossCorrelateWithRegions is CrossCorrelate with region partials.
func (m *ScalarMap) CrossCorrelateWithRegions(other *ScalarMap, b *angbin.Bin) error {
	return m.crossCorrelate(other, b, true)
}

func (m *ScalarMap) crossCorrelate(other *ScalarMap, b *angbin.Bin, regions bool) error {
	if other.resolution != m.resolution {
		return ErrResolutionMismatch
	}
	m.ConvertToOverDensity()
	other.ConvertToOverDensity()
	for i := range m.cells {
		ci := &m.cells[i]
		for j := range other.cells {
			cj := &other.cells[j]
			s2 := CartSin2Sep(&ci.center, &cj.center)
			if !b.Contains(s2) {
				continue
			}
			ra, rb := -1, -1
			if regions {
				ra, rb = ci.region, cj.region
			}
			w := ci.fraction * cj.fraction
			b.AddToPixelWtheta(ci.delta*cj.delta*w, w, ra, rb)
		}
	}
	return nil
}
