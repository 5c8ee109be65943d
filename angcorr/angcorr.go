// Public domain.

// Package angcorr measures two-point angular correlation functions
// over a survey footprint.
//
// A Correlation owns an ordered sequence of angular bins spanning a
// range of separations.  Small-separation bins are measured by
// counting weighted point pairs against randomized realizations;
// large-separation bins are measured from over-densities of a gridded
// density field, which is far cheaper at wide scales.  The crossover
// between the two estimators is a grid resolution: bins whose natural
// resolution is finer than the crossover become pair bins.  The split
// is kept as a single index into the bin sequence, so the pair window
// and the pixel window always partition it.
package angcorr

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/soniakeys/wtheta/angbin"
	"github.com/soniakeys/wtheta/grid"
)

// Correlation is a set of angular bins and the estimator bookkeeping
// shared across them.  Bins are ordered by increasing separation, and
// so by non-increasing resolution.  Bins [0,split) are pair bins,
// bins [split,n) are pixel bins.
type Correlation struct {
	bins  []angbin.Bin
	split int

	band             grid.Band
	minResolution    uint32
	maxResolution    uint32
	regionResolution uint32
	nRegion          int
	manualBreak      bool
}

// tolerance for the lower bound test in logarithmic bin generation
const thetaEps = 1e-10

// NewLog builds a correlation with logarithmic bins: binsPerDecade
// bins per decade of separation, covering [thetaMin,thetaMax) degrees.
// Bin edges land on the decade subdivisions, so the first bin's lower
// edge is the smallest subdivision at or above thetaMin.
func NewLog(thetaMin, thetaMax, binsPerDecade float64) (*Correlation, error) {
	if thetaMin <= 0 || thetaMax <= thetaMin {
		return nil, errors.New("angcorr: invalid separation range")
	}
	if binsPerDecade <= 0 {
		return nil, errors.New("angcorr: bins per decade must be positive")
	}
	c := &Correlation{band: grid.DefaultBand}
	unit := math.Floor(math.Log10(thetaMin)) * binsPerDecade
	for {
		theta := math.Pow(10, unit/binsPerDecade)
		if theta >= thetaMax {
			break
		}
		if theta >= thetaMin-thetaEps {
			var b angbin.Bin
			b.SetThetaMin(theta)
			b.SetThetaMax(math.Pow(10, (unit+1)/binsPerDecade))
			b.Theta = math.Pow(10,
				(math.Log10(b.ThetaMin)+math.Log10(b.ThetaMax))/2)
			c.bins = append(c.bins, b)
		}
		unit++
	}
	if len(c.bins) == 0 {
		return nil, errors.New("angcorr: separation range yields no bins")
	}
	c.AssignBinResolutions(c.band, grid.MaxPixelResolution)
	return c, nil
}

// NewLinear builds a correlation with nBins bins of equal width
// covering [thetaMin,thetaMax) degrees.
func NewLinear(nBins int, thetaMin, thetaMax float64) (*Correlation, error) {
	if thetaMin < 0 || thetaMax <= thetaMin {
		return nil, errors.New("angcorr: invalid separation range")
	}
	if nBins < 1 {
		return nil, errors.New("angcorr: bin count must be positive")
	}
	c := &Correlation{band: grid.DefaultBand}
	dtheta := (thetaMax - thetaMin) / float64(nBins)
	for i := 0; i < nBins; i++ {
		var b angbin.Bin
		b.SetThetaMin(thetaMin + float64(i)*dtheta)
		b.SetThetaMax(thetaMin + float64(i+1)*dtheta)
		b.Theta = (b.ThetaMin + b.ThetaMax) / 2
		c.bins = append(c.bins, b)
	}
	c.AssignBinResolutions(c.band, grid.MaxPixelResolution)
	return c, nil
}

// NBins returns the number of bins.
func (c *Correlation) NBins() int { return len(c.bins) }

// Bin returns the i'th bin in increasing separation order.
func (c *Correlation) Bin(i int) *angbin.Bin { return &c.bins[i] }

// MinResolution returns the finest resolution over the pixel window.
func (c *Correlation) MinResolution() uint32 { return c.minResolution }

// MaxResolution returns the crossover resolution.
func (c *Correlation) MaxResolution() uint32 { return c.maxResolution }

// AssignBinResolutions gives every bin its natural resolution over the
// calibration band, clamped to maxResolution (0 means the grid
// ceiling), and resets the crossover so all bins are pixel bins.
func (c *Correlation) AssignBinResolutions(band grid.Band, maxResolution uint32) {
	if maxResolution == 0 {
		maxResolution = grid.MaxPixelResolution
	}
	c.band = band
	c.minResolution = grid.MaxPixelResolution
	c.maxResolution = grid.BaseResolution
	for i := range c.bins {
		b := &c.bins[i]
		b.CalculateResolution(band, maxResolution)
		if b.Resolution < c.minResolution {
			c.minResolution = b.Resolution
		}
		if b.Resolution > c.maxResolution {
			c.maxResolution = b.Resolution
		}
	}
	c.split = 0
	c.invariant()
}

// SetMaxResolution sets the estimator crossover: every bin is given
// its natural resolution, then bins finer than the crossover become
// pair bins and the split advances past them.  With manual set the
// automatic crossover heuristic is disabled for the life of the set.
func (c *Correlation) SetMaxResolution(resolution uint32, manual bool) {
	c.maxResolution = resolution
	c.minResolution = grid.MaxPixelResolution
	c.split = 0
	for i := range c.bins {
		b := &c.bins[i]
		b.CalculateResolution(c.band, grid.MaxPixelResolution)
		if b.Resolution > resolution {
			b.Resolution = 0
			c.split = i + 1
			continue
		}
		if b.Resolution < c.minResolution {
			c.minResolution = b.Resolution
		}
	}
	if c.split == len(c.bins) {
		c.minResolution = grid.BaseResolution
	}
	if manual {
		c.manualBreak = true
	}
	c.invariant()
}

// SetMinResolution raises the resolution floor of the pixel window:
// pixel bins coarser than the floor are clamped to it.
func (c *Correlation) SetMinResolution(resolution uint32) {
	c.minResolution = resolution
	for i := c.split; i < len(c.bins); i++ {
		if c.bins[i].Resolution < resolution {
			c.bins[i].Resolution = resolution
		}
	}
	c.invariant()
}

// AutoMaxResolution picks the estimator crossover from the object
// count and footprint area in square degrees, favoring coarser grids
// for sparse or wide surveys.
func (c *Correlation) AutoMaxResolution(nObj int, area float64, lg *zap.Logger) {
	var max uint32 = 2048
	if area > 500 {
		// large survey limit
		switch {
		case nObj < 500000:
			max = 64
		case nObj < 2000000:
			max = 128
		case nObj < 10000000:
			max = 256
		default:
			max = 512
		}
	} else {
		// small survey limit
		switch {
		case nObj < 500000:
			max = 256
		case nObj < 2000000:
			max = 512
		case nObj < 10000000:
			max = 1024
		}
	}
	if lg != nil {
		lg.Info("setting maximum resolution",
			zap.Uint32("resolution", max),
			zap.Int("objects", nObj),
			zap.Float64("area", area))
	}
	c.SetMaxResolution(max, false)
}

// UseOnlyPixels reassigns natural resolutions and empties the pair
// window, so every bin uses the pixel estimator.
func (c *Correlation) UseOnlyPixels() {
	c.AssignBinResolutions(c.band, grid.MaxPixelResolution)
}

// UseOnlyPairs marks every bin a pair bin.  The crossover becomes
// manual, so later runs will not re-partition automatically.
func (c *Correlation) UseOnlyPairs() {
	for i := range c.bins {
		c.bins[i].Resolution = 0
	}
	c.split = len(c.bins)
	c.manualBreak = true
	c.invariant()
}

// InitializeRegions allocates n region partials on every bin.
func (c *Correlation) InitializeRegions(n int) {
	c.nRegion = n
	for i := range c.bins {
		c.bins[i].InitializeRegions(n)
	}
}

// ClearRegions drops all region state.
func (c *Correlation) ClearRegions() {
	c.nRegion = 0
	c.regionResolution = 0
	for i := range c.bins {
		c.bins[i].ClearRegions()
	}
}

// NRegion returns the active region count.
func (c *Correlation) NRegion() int { return c.nRegion }

// Window returns the half-open bin index window measured at a
// resolution: the pair window for resolution 0, the sub-window of
// pixel bins carrying a valid resolution, or the whole pixel window
// for an invalid resolution.
func (c *Correlation) Window(resolution uint32) (lo, hi int) {
	if resolution == 0 {
		return 0, c.split
	}
	if !grid.Valid(resolution) {
		return c.split, len(c.bins)
	}
	// pixel bins are ordered by non-increasing resolution
	n := len(c.bins) - c.split
	lo = c.split + sort.Search(n, func(i int) bool {
		return c.bins[c.split+i].Resolution <= resolution
	})
	hi = c.split + sort.Search(n, func(i int) bool {
		return c.bins[c.split+i].Resolution < resolution
	})
	return lo, hi
}

// Find bisects the window [lo,hi) for the bin containing a sin²(θ/2)
// value.  Ok is false for an empty window or a value outside the
// window's span.
func (c *Correlation) Find(lo, hi int, sin2theta float64) (int, bool) {
	if lo >= hi {
		return 0, false
	}
	if sin2theta < c.bins[lo].Sin2ThetaMin ||
		sin2theta >= c.bins[hi-1].Sin2ThetaMax {
		return 0, false
	}
	i := lo + sort.Search(hi-lo, func(i int) bool {
		return sin2theta < c.bins[lo+i].Sin2ThetaMin
	}) - 1
	return i, true
}

// ThetaMin returns the lower separation bound of the window measured
// at a resolution, false for an empty window.
func (c *Correlation) ThetaMin(resolution uint32) (float64, bool) {
	lo, hi := c.Window(resolution)
	if lo >= hi {
		return 0, false
	}
	return c.bins[lo].ThetaMin, true
}

// ThetaMax returns the upper separation bound of the window measured
// at a resolution, false for an empty window.
func (c *Correlation) ThetaMax(resolution uint32) (float64, bool) {
	lo, hi := c.Window(resolution)
	if lo >= hi {
		return 0, false
	}
	return c.bins[hi-1].ThetaMax, true
}

// Sin2ThetaMin returns sin²(θ/2) of the window's lower bound.
func (c *Correlation) Sin2ThetaMin(resolution uint32) (float64, bool) {
	lo, hi := c.Window(resolution)
	if lo >= hi {
		return 0, false
	}
	return c.bins[lo].Sin2ThetaMin, true
}

// Sin2ThetaMax returns sin²(θ/2) of the window's upper bound.
func (c *Correlation) Sin2ThetaMax(resolution uint32) (float64, bool) {
	lo, hi := c.Window(resolution)
	if lo >= hi {
		return 0, false
	}
	return c.bins[hi-1].Sin2ThetaMax, true
}

// Covariance returns the covariance of bins a and b: the jackknife
// estimate when both carry the same nonzero region count, the Poisson
// variance on the diagonal otherwise, zero off the diagonal.
func (c *Correlation) Covariance(a, b int) float64 {
	ba, bb := &c.bins[a], &c.bins[b]
	if n := ba.NRegion(); n > 0 && n == bb.NRegion() {
		meanA := ba.MeanWtheta()
		meanB := bb.MeanWtheta()
		var cov float64
		for k := 0; k < n; k++ {
			cov += (ba.WthetaRegion(k) - meanA) * (bb.WthetaRegion(k) - meanB)
		}
		r := float64(n)
		return cov * (r - 1) * (r - 1) / (r * r)
	}
	if a == b {
		e := ba.WthetaError()
		return e * e
	}
	return 0
}

// invariant panics when the split stops partitioning the sequence into
// pair bins followed by pixel bins of non-increasing resolution.
func (c *Correlation) invariant() {
	for i := 0; i < c.split; i++ {
		if c.bins[i].Resolution != 0 {
			panic(fmt.Sprintf("angcorr: pair bin %d has resolution %d",
				i, c.bins[i].Resolution))
		}
	}
	for i := c.split; i < len(c.bins); i++ {
		if r := c.bins[i].Resolution; !grid.Valid(r) {
			panic(fmt.Sprintf("angcorr: pixel bin %d has resolution %d", i, r))
		} else if i > c.split && r > c.bins[i-1].Resolution {
			panic(fmt.Sprintf("angcorr: pixel bin %d out of resolution order", i))
		}
	}
}
