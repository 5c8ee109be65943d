// Public domain.

package angcorr

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	xrand "golang.org/x/exp/rand"

	"github.com/soniakeys/wtheta/angbin"
	"github.com/soniakeys/wtheta/sphere"
)

// Fatal correlation errors, tested with errors.Is.
var (
	// ErrResolutionMismatch: cross-correlating density maps built at
	// different resolutions.
	ErrResolutionMismatch = errors.New("angcorr: density map resolution mismatch")

	// ErrRegionInit: region initialization failed on a collaborator
	// when regions were required.
	ErrRegionInit = errors.New("angcorr: region initialization failed")
)

// Rand is the source of randomness for randomized realizations.
type Rand = sphere.Rand

// DensityMap is the sampler consumed by the pixel estimator.  The
// sphere package provides the standard implementation.
type DensityMap interface {
	Resolution() uint32
	NRegion() int
	AddPoint(p sphere.Point, weight float64) bool
	InitializeRegions(f sphere.Footprint) error
	Coarsen(resolution uint32) (DensityMap, error)
	AutoCorrelate(b *angbin.Bin)
	AutoCorrelateWithRegions(b *angbin.Bin)
	CrossCorrelate(other DensityMap, b *angbin.Bin) error
	CrossCorrelateWithRegions(other DensityMap, b *angbin.Bin) error
}

// PairIndex is the point index consumed by the pair estimator.
// *sphere.TreeMap satisfies it.
type PairIndex interface {
	AddPoint(p sphere.Point) bool
	InitializeRegions(f sphere.Footprint) bool
	FindWeightedPairs(p sphere.Point, b *angbin.Bin)
	FindWeightedPairsWithRegions(p sphere.Point, b *angbin.Bin)
}

// points per index cell passed to the default pair index
const nodeCapacity = 200

// minimum unmasked cell fraction kept by the default density map
const minUnmasked = 1e-7

// Config carries the knobs of a correlation run.  The zero value is
// usable for a pixel-only run; pair runs want RandomIterations > 0
// (zero means the weighted-ratio cross mode, see
// FindPairCrossCorrelation).
type Config struct {
	// RandomIterations is the number of randomized realizations
	// averaged into the random pair terms.
	RandomIterations int

	// UseWeightedRandoms resamples random point weights from the
	// reference set instead of unit weights.
	UseWeightedRandoms bool

	// NRegions is the requested region count for jackknife runs.
	// Zero requests twice the number of bins.
	NRegions int

	// MaxResolution, when nonzero, pins the estimator crossover
	// instead of the object-count/area heuristic.
	MaxResolution uint32

	// Rnd supplies randomness; nil gets a time-seeded PCG source.
	Rnd Rand

	// Logger receives progress notices and counted warnings; nil
	// discards them.
	Logger *zap.Logger

	// NewDensityMap and NewPairIndex override the sphere package
	// collaborators, mainly for tests.
	NewDensityMap func(f sphere.Footprint, resolution uint32) (DensityMap, error)
	NewPairIndex  func(resolution uint32) (PairIndex, error)
}

func (c *Config) logger() *zap.Logger {
	if c != nil && c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

func (c *Config) rnd() Rand {
	if c != nil && c.Rnd != nil {
		return c.Rnd
	}
	return xrand.New(xrand.NewSource(uint64(time.Now().UnixNano())))
}

func (c *Config) randomIterations() int {
	if c == nil {
		return 0
	}
	return c.RandomIterations
}

func (c *Config) weightedRandoms() bool {
	return c != nil && c.UseWeightedRandoms
}

func (c *Config) nRegions() int {
	if c == nil {
		return 0
	}
	return c.NRegions
}

func (c *Config) maxResolution() uint32 {
	if c == nil {
		return 0
	}
	return c.MaxResolution
}

func (c *Config) newDensityMap(f sphere.Footprint, resolution uint32) (DensityMap, error) {
	if c != nil && c.NewDensityMap != nil {
		return c.NewDensityMap(f, resolution)
	}
	m, err := sphere.NewScalarMap(f, resolution, sphere.DensityField,
		minUnmasked, false, c.weightedRandoms())
	if err != nil {
		return nil, err
	}
	return scalarMap{m}, nil
}

func (c *Config) newPairIndex(resolution uint32) (PairIndex, error) {
	if c != nil && c.NewPairIndex != nil {
		return c.NewPairIndex(resolution)
	}
	return sphere.NewTreeMap(resolution, nodeCapacity)
}

// scalarMap adapts sphere.ScalarMap to the DensityMap interface,
// mapping its cross-map errors to the package sentinel.
type scalarMap struct {
	*sphere.ScalarMap
}

func (m scalarMap) Coarsen(resolution uint32) (DensityMap, error) {
	sub, err := m.ScalarMap.Coarsen(resolution)
	if err != nil {
		return nil, err
	}
	return scalarMap{sub}, nil
}

func (m scalarMap) CrossCorrelate(other DensityMap, b *angbin.Bin) error {
	o, ok := other.(scalarMap)
	if !ok {
		return fmt.Errorf("%w: incompatible map types", ErrResolutionMismatch)
	}
	if err := m.ScalarMap.CrossCorrelate(o.ScalarMap, b); err != nil {
		return fmt.Errorf("%w: %v", ErrResolutionMismatch, err)
	}
	return nil
}

func (m scalarMap) CrossCorrelateWithRegions(other DensityMap, b *angbin.Bin) error {
	o, ok := other.(scalarMap)
	if !ok {
		return fmt.Errorf("%w: incompatible map types", ErrResolutionMismatch)
	}
	if err := m.ScalarMap.CrossCorrelateWithRegions(o.ScalarMap, b); err != nil {
		return fmt.Errorf("%w: %v", ErrResolutionMismatch, err)
	}
	return nil
}
