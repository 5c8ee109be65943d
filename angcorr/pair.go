// Public domain.

package angcorr

import (
	"go.uber.org/zap"

	"github.com/soniakeys/wtheta/sphere"
)

// treeResolution is the bucketing resolution of the pair index: the
// finer of the pixel window floor and the regionation resolution, so
// index cells nest inside regions.
func (c *Correlation) treeResolution() uint32 {
	if c.regionResolution > c.minResolution {
		return c.regionResolution
	}
	return c.minResolution
}

// buildPairIndex indexes the footprint-contained points, reporting
// points lost at each stage.
func (c *Correlation) buildPairIndex(f sphere.Footprint, points []sphere.Point,
	cfg *Config, lg *zap.Logger) (PairIndex, error) {

	tree, err := cfg.newPairIndex(c.treeResolution())
	if err != nil {
		return nil, err
	}
	nKept, nFail := 0, 0
	for _, p := range points {
		if !f.Contains(p) {
			continue
		}
		nKept++
		if !tree.AddPoint(p) {
			nFail++
		}
	}
	lg.Info("indexed points",
		zap.Int("indexed", nKept-nFail),
		zap.Int("total", len(points)),
		zap.Int("failed", nFail))
	if f.NRegion() > 0 {
		if !tree.InitializeRegions(f) {
			return nil, ErrRegionInit
		}
	}
	return tree, nil
}

// FindPairAutoCorrelation runs the pair estimator over the pair
// window.  The real-real term counts pairs of the point set against
// itself; the random terms average RandomIterations realizations of
// random points drawn from the footprint, then rescale by the
// iteration count.  With zero iterations only the real-real term is
// accumulated.
func (c *Correlation) FindPairAutoCorrelation(f sphere.Footprint,
	points []sphere.Point, cfg *Config) error {

	lg := cfg.logger()
	regions := f.NRegion() > 0
	tree, err := c.buildPairIndex(f, points, cfg, lg)
	if err != nil {
		return err
	}

	lg.Info("counting real-real pairs")
	for i := 0; i < c.split; i++ {
		c.pairCount(tree, points, i, regions)
		c.bins[i].MoveWeightToGalGal()
	}

	for i := 0; i < c.split; i++ {
		c.bins[i].ResetGalRand()
		c.bins[i].ResetRandGal()
		c.bins[i].ResetRandRand()
	}

	k := cfg.randomIterations()
	for iter := 0; iter < k; iter++ {
		lg.Info("random realization", zap.Int("iteration", iter))
		random := f.GenerateRandomPoints(points, cfg.weightedRandoms(), cfg.rnd())
		rtree, err := c.buildPairIndex(f, random, cfg, lg)
		if err != nil {
			return err
		}

		// real-random, symmetric for an auto-correlation
		for i := 0; i < c.split; i++ {
			c.pairCount(rtree, points, i, regions)
			c.bins[i].MoveWeightToGalRand(true)
		}
		// random-random
		for i := 0; i < c.split; i++ {
			c.pairCount(rtree, random, i, regions)
			c.bins[i].MoveWeightToRandRand()
		}
	}

	if k > 0 {
		for i := 0; i < c.split; i++ {
			c.bins[i].RescaleGalRand(float64(k))
			c.bins[i].RescaleRandGal(float64(k))
			c.bins[i].RescaleRandRand(float64(k))
		}
	}
	return nil
}

// FindPairCrossCorrelation is the cross-correlation form of the pair
// estimator.  With zero random iterations the working terms are left
// in place: the bins then hold the raw weighted-to-unweighted pair
// ratio of the two sets instead of a density correlation.
func (c *Correlation) FindPairCrossCorrelation(fa, fb sphere.Footprint,
	ptsA, ptsB []sphere.Point, cfg *Config) error {

	lg := cfg.logger()
	regions := fa.NRegion() > 0
	treeA, err := c.buildPairIndex(fa, ptsA, cfg, lg)
	if err != nil {
		return err
	}
	k := cfg.randomIterations()

	lg.Info("counting real-real pairs")
	for i := 0; i < c.split; i++ {
		c.pairCount(treeA, ptsB, i, regions)
		if k > 0 {
			c.bins[i].MoveWeightToGalGal()
		}
	}

	for i := 0; i < c.split; i++ {
		c.bins[i].ResetGalRand()
		c.bins[i].ResetRandGal()
		c.bins[i].ResetRandRand()
	}

	for iter := 0; iter < k; iter++ {
		lg.Info("random realization", zap.Int("iteration", iter))
		randomA := fa.GenerateRandomPoints(ptsA, cfg.weightedRandoms(), cfg.rnd())
		randomB := fb.GenerateRandomPoints(ptsB, cfg.weightedRandoms(), cfg.rnd())

		// real-random
		for i := 0; i < c.split; i++ {
			c.pairCount(treeA, randomB, i, regions)
			c.bins[i].MoveWeightToGalRand(false)
		}

		rtreeA, err := c.buildPairIndex(fa, randomA, cfg, lg)
		if err != nil {
			return err
		}

		// random-real
		for i := 0; i < c.split; i++ {
			c.pairCount(rtreeA, ptsB, i, regions)
			c.bins[i].MoveWeightToRandGal()
		}
		// random-random
		for i := 0; i < c.split; i++ {
			c.pairCount(rtreeA, randomB, i, regions)
			c.bins[i].MoveWeightToRandRand()
		}
	}

	if k > 0 {
		for i := 0; i < c.split; i++ {
			c.bins[i].RescaleGalRand(float64(k))
			c.bins[i].RescaleRandGal(float64(k))
			c.bins[i].RescaleRandRand(float64(k))
		}
	}
	return nil
}

func (c *Correlation) pairCount(tree PairIndex, pts []sphere.Point, i int, regions bool) {
	b := &c.bins[i]
	if regions {
		for _, p := range pts {
			tree.FindWeightedPairsWithRegions(p, b)
		}
		return
	}
	for _, p := range pts {
		tree.FindWeightedPairs(p, b)
	}
}
