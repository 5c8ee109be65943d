// Public domain.

package angcorr

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/soniakeys/wtheta/sphere"
)

// FindPixelAutoCorrelation runs the pixel estimator over the pixel
// window: a density map is sampled at the crossover resolution, then
// coarsened down the resolution ladder, each pixel bin correlated
// exactly once at its own resolution.
func (c *Correlation) FindPixelAutoCorrelation(f sphere.Footprint,
	points []sphere.Point, cfg *Config) error {

	lg := cfg.logger()
	lg.Info("sampling density map", zap.Uint32("resolution", c.maxResolution))
	m, err := cfg.newDensityMap(f, c.maxResolution)
	if err != nil {
		return err
	}
	if f.NRegion() > 0 {
		if err := m.InitializeRegions(f); err != nil {
			return fmt.Errorf("%w: %v", ErrRegionInit, err)
		}
	}
	c.fillDensityMap(m, f, points, lg)
	return c.correlatePixels(m, lg)
}

// FindPixelCrossCorrelation is the cross-correlation form: two density
// maps at the crossover resolution, coarsened in lockstep.  Regions,
// when active, come from the first footprint for both maps.
func (c *Correlation) FindPixelCrossCorrelation(fa, fb sphere.Footprint,
	ptsA, ptsB []sphere.Point, cfg *Config) error {

	lg := cfg.logger()
	lg.Info("sampling density maps", zap.Uint32("resolution", c.maxResolution))
	ma, err := cfg.newDensityMap(fa, c.maxResolution)
	if err != nil {
		return err
	}
	mb, err := cfg.newDensityMap(fb, c.maxResolution)
	if err != nil {
		return err
	}
	if fa.NRegion() > 0 {
		if err := ma.InitializeRegions(fa); err != nil {
			return fmt.Errorf("%w: %v", ErrRegionInit, err)
		}
		if err := mb.InitializeRegions(fa); err != nil {
			return fmt.Errorf("%w: %v", ErrRegionInit, err)
		}
	}
	c.fillDensityMap(ma, fa, ptsA, lg)
	c.fillDensityMap(mb, fb, ptsB, lg)
	return c.correlatePixelsCross(ma, mb, lg)
}

// fillDensityMap adds the footprint-contained points to a density map,
// counting and reporting the points lost at each stage.
func (c *Correlation) fillDensityMap(m DensityMap, f sphere.Footprint,
	points []sphere.Point, lg *zap.Logger) {

	nFiltered, nKept := 0, 0
	for _, p := range points {
		if !f.Contains(p) {
			continue
		}
		nFiltered++
		if m.AddPoint(p, p.Weight) {
			nKept++
		}
	}
	if nFiltered != len(points) {
		lg.Warn("objects outside footprint",
			zap.Int("dropped", len(points)-nFiltered),
			zap.Int("total", len(points)))
	}
	if nKept != nFiltered {
		lg.Warn("objects not placed in density map",
			zap.Int("dropped", nFiltered-nKept),
			zap.Int("filtered", nFiltered))
	}
}

// correlatePixels walks the resolution ladder from the map's own
// resolution down to the pixel window floor, halving each step.
// Coarser maps are always derived from the crossover-level map, never
// rebuilt from points.
func (c *Correlation) correlatePixels(m DensityMap, lg *zap.Logger) error {
	regions := m.NRegion() > 0
	lo, hi := c.Window(m.Resolution())
	for i := lo; i < hi; i++ {
		lg.Info("auto-correlating", zap.Uint32("resolution", m.Resolution()))
		if regions {
			m.AutoCorrelateWithRegions(&c.bins[i])
		} else {
			m.AutoCorrelate(&c.bins[i])
		}
	}
	for res := m.Resolution() / 2; res >= c.minResolution; res /= 2 {
		sub, err := m.Coarsen(res)
		if err != nil {
			return err
		}
		lo, hi := c.Window(res)
		for i := lo; i < hi; i++ {
			lg.Info("auto-correlating", zap.Uint32("resolution", res))
			if regions {
				sub.AutoCorrelateWithRegions(&c.bins[i])
			} else {
				sub.AutoCorrelate(&c.bins[i])
			}
		}
	}
	return nil
}

func (c *Correlation) correlatePixelsCross(ma, mb DensityMap, lg *zap.Logger) error {
	if ma.Resolution() != mb.Resolution() {
		return ErrResolutionMismatch
	}
	regions := ma.NRegion() > 0
	lo, hi := c.Window(ma.Resolution())
	for i := lo; i < hi; i++ {
		lg.Info("cross-correlating", zap.Uint32("resolution", ma.Resolution()))
		if err := crossOne(ma, mb, c, i, regions); err != nil {
			return err
		}
	}
	for res := ma.Resolution() / 2; res >= c.minResolution; res /= 2 {
		subA, err := ma.Coarsen(res)
		if err != nil {
			return err
		}
		subB, err := mb.Coarsen(res)
		if err != nil {
			return err
		}
		lo, hi := c.Window(res)
		for i := lo; i < hi; i++ {
			lg.Info("cross-correlating", zap.Uint32("resolution", res))
			if err := crossOne(subA, subB, c, i, regions); err != nil {
				return err
			}
		}
	}
	return nil
}

func crossOne(ma, mb DensityMap, c *Correlation, i int, regions bool) error {
	if regions {
		return ma.CrossCorrelateWithRegions(mb, &c.bins[i])
	}
	return ma.CrossCorrelate(mb, &c.bins[i])
}
