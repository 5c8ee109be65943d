// Public domain.

package angcorr

import (
	"math"

	"go.uber.org/zap"

	"github.com/soniakeys/wtheta/sphere"
)

// FindAutoCorrelation measures the auto-correlation of a point set
// over its footprint, running the pixel estimator over the pixel
// window and the pair estimator over the pair window.  Unless a manual
// crossover was set, the crossover comes from the object-count/area
// heuristic.
func (c *Correlation) FindAutoCorrelation(f sphere.Footprint, points []sphere.Point, cfg *Config) error {
	c.setCrossover(len(points), f.Area(), cfg)
	if c.split < len(c.bins) {
		if err := c.FindPixelAutoCorrelation(f, points, cfg); err != nil {
			return err
		}
	}
	if c.split > 0 {
		if err := c.FindPairAutoCorrelation(f, points, cfg); err != nil {
			return err
		}
	}
	return nil
}

// FindCrossCorrelation measures the cross-correlation of two point
// sets over their footprints.  The crossover heuristic uses the
// geometric mean of the set sizes and the smaller footprint area.
func (c *Correlation) FindCrossCorrelation(fa, fb sphere.Footprint,
	ptsA, ptsB []sphere.Point, cfg *Config) error {

	nObj := geoMeanCount(len(ptsA), len(ptsB))
	area := fa.Area()
	if b := fb.Area(); b < area {
		area = b
	}
	c.setCrossover(nObj, area, cfg)
	if c.split < len(c.bins) {
		if err := c.FindPixelCrossCorrelation(fa, fb, ptsA, ptsB, cfg); err != nil {
			return err
		}
	}
	if c.split > 0 {
		if err := c.FindPairCrossCorrelation(fa, fb, ptsA, ptsB, cfg); err != nil {
			return err
		}
	}
	return nil
}

// FindAutoCorrelationWithRegions is FindAutoCorrelation with the
// footprint split into regions and jackknife partials accumulated on
// every bin.  If the footprint can only be split at a resolution finer
// than the crossover, the whole set degrades to the pair estimator.
func (c *Correlation) FindAutoCorrelationWithRegions(f sphere.Footprint,
	points []sphere.Point, cfg *Config) error {

	c.setCrossover(len(points), f.Area(), cfg)
	if err := c.regionate(f, cfg); err != nil {
		return err
	}
	if c.split < len(c.bins) {
		if err := c.FindPixelAutoCorrelation(f, points, cfg); err != nil {
			return err
		}
	}
	if c.split > 0 {
		if err := c.FindPairAutoCorrelation(f, points, cfg); err != nil {
			return err
		}
	}
	return nil
}

// FindCrossCorrelationWithRegions is FindCrossCorrelation with
// jackknife regions.  The first footprint defines the regions for
// both point sets.
func (c *Correlation) FindCrossCorrelationWithRegions(fa, fb sphere.Footprint,
	ptsA, ptsB []sphere.Point, cfg *Config) error {

	c.setCrossover(geoMeanCount(len(ptsA), len(ptsB)), fa.Area(), cfg)
	if err := c.regionate(fa, cfg); err != nil {
		return err
	}
	if c.split < len(c.bins) {
		if err := c.FindPixelCrossCorrelation(fa, fb, ptsA, ptsB, cfg); err != nil {
			return err
		}
	}
	if c.split > 0 {
		if err := c.FindPairCrossCorrelation(fa, fb, ptsA, ptsB, cfg); err != nil {
			return err
		}
	}
	return nil
}

// setCrossover applies the estimator crossover for a driver run: a
// crossover pinned earlier wins, then a configured one, then the
// object-count/area heuristic.
func (c *Correlation) setCrossover(nObj int, area float64, cfg *Config) {
	switch {
	case c.manualBreak:
	case cfg.maxResolution() > 0:
		c.SetMaxResolution(cfg.maxResolution(), true)
	default:
		c.AutoMaxResolution(nObj, area, cfg.logger())
	}
}

// regionate splits the footprint, allocates bin partials, and
// reconciles the regionation resolution with the estimator windows.
func (c *Correlation) regionate(f sphere.Footprint, cfg *Config) error {
	lg := cfg.logger()
	n := cfg.nRegions()
	if n == 0 {
		n = 2 * len(c.bins)
	}
	achieved := f.NRegion()
	if achieved == 0 {
		achieved = f.InitializeRegions(n)
	}
	if achieved < 1 {
		return ErrRegionInit
	}
	if achieved != n {
		lg.Info("splitting into fewer regions than requested",
			zap.Int("requested", n), zap.Int("achieved", achieved))
		n = achieved
	}
	c.regionResolution = f.RegionResolution()
	lg.Info("regionated footprint",
		zap.Int("regions", n),
		zap.Uint32("resolution", c.regionResolution))
	c.InitializeRegions(n)
	if c.regionResolution > c.minResolution {
		c.SetMinResolution(c.regionResolution)
	}
	if c.regionResolution > c.maxResolution {
		lg.Warn("regionation finer than crossover, using pair estimator only",
			zap.Uint32("regionResolution", c.regionResolution),
			zap.Uint32("maxResolution", c.maxResolution))
		c.UseOnlyPairs()
	}
	return nil
}

func geoMeanCount(a, b int) int {
	return int(math.Sqrt(float64(a) * float64(b)))
}
