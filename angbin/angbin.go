// Public domain.

// Package angbin defines the angular bin model used by the correlation
// set and its two estimators.
//
// A Bin covers one half-open interval of angular separation.  All scale
// comparisons use sin²(θ/2), which is monotonic over [0°,180°] and
// avoids trigonometric evaluation in pair-counting loops.  A bin is
// either assigned a grid resolution, meaning its correlation is
// measured with the pixel-based estimator at that resolution, or it
// carries resolution zero, meaning the pair-based estimator is used.
// Exactly one estimator's accumulators are meaningful at a time,
// determined by the resolution.
package angbin

import (
	"math"

	"github.com/soniakeys/wtheta/grid"
)

// Sin2Theta returns sin²(θ/2) for an angular separation θ in degrees.
func Sin2Theta(thetaDeg float64) float64 {
	s := math.Sin(thetaDeg * math.Pi / 360)
	return s * s
}

// Bin is one angular separation bucket of a correlation function.
type Bin struct {
	ThetaMin, ThetaMax float64 // degrees, half-open [ThetaMin,ThetaMax)
	Theta              float64 // representative scale

	Sin2ThetaMin, Sin2ThetaMax float64

	// Resolution 0 means the pair-based estimator.
	Resolution uint32

	// working accumulators filled by pair searches, then moved to one
	// of the four pair terms below
	Counter float64
	Weight  float64

	// pair estimator terms
	GalGal, GalRand, RandGal, RandRand float64

	// pixel estimator terms
	PixelWtheta, PixelWeight float64

	// per-region partials, allocated by InitializeRegions.  Region
	// slot k accumulates everything not involving region k, so
	// WthetaRegion(k) is a leave-one-out estimate.
	nRegion           int
	CounterRegion     []float64
	WeightRegion      []float64
	GalGalRegion      []float64
	GalRandRegion     []float64
	RandGalRegion     []float64
	RandRandRegion    []float64
	PixelWthetaRegion []float64
	PixelWeightRegion []float64
}

// SetThetaMin sets the bin's lower bound and its sin² transform.
func (b *Bin) SetThetaMin(theta float64) {
	b.ThetaMin = theta
	b.Sin2ThetaMin = Sin2Theta(theta)
}

// SetThetaMax sets the bin's upper bound and its sin² transform.
func (b *Bin) SetThetaMax(theta float64) {
	b.ThetaMax = theta
	b.Sin2ThetaMax = Sin2Theta(theta)
}

// Contains reports whether a sin²(θ/2) value falls in the bin's
// half-open interval.
func (b *Bin) Contains(sin2theta float64) bool {
	return sin2theta >= b.Sin2ThetaMin && sin2theta < b.Sin2ThetaMax
}

// CalculateResolution assigns the bin the coarsest usable resolution
// whose calibrated cell scale over the band does not exceed the bin's
// upper angular scale, clamped to maxResolution.  The accumulated
// estimator state is untouched.
func (b *Bin) CalculateResolution(band grid.Band, maxResolution uint32) {
	if maxResolution > grid.MaxPixelResolution {
		maxResolution = grid.MaxPixelResolution
	}
	r := grid.BaseResolution
	for r < maxResolution && grid.Scale(r, band) > b.ThetaMax {
		r *= 2
	}
	b.Resolution = r
}

// InitializeRegions allocates (or reallocates) zeroed region partials
// for n regions.  n < 1 clears regions.
func (b *Bin) InitializeRegions(n int) {
	if n < 1 {
		b.ClearRegions()
		return
	}
	b.nRegion = n
	b.CounterRegion = make([]float64, n)
	b.WeightRegion = make([]float64, n)
	b.GalGalRegion = make([]float64, n)
	b.GalRandRegion = make([]float64, n)
	b.RandGalRegion = make([]float64, n)
	b.RandRandRegion = make([]float64, n)
	b.PixelWthetaRegion = make([]float64, n)
	b.PixelWeightRegion = make([]float64, n)
}

// ClearRegions drops all region partials.
func (b *Bin) ClearRegions() {
	b.nRegion = 0
	b.CounterRegion = nil
	b.WeightRegion = nil
	b.GalGalRegion = nil
	b.GalRandRegion = nil
	b.RandGalRegion = nil
	b.RandRandRegion = nil
	b.PixelWthetaRegion = nil
	b.PixelWeightRegion = nil
}

// NRegion returns the number of active regions, zero if none.
func (b *Bin) NRegion() int { return b.nRegion }

// addRegions adds v to every region slot of s except regionA and
// regionB, the jackknife leave-one-out convention.
func (b *Bin) addRegions(s []float64, v float64, regionA, regionB int) {
	for k := range s {
		if k != regionA && k != regionB {
			s[k] += v
		}
	}
}

// AddToCounter accumulates a raw pair count.  The regions are those of
// the pair's endpoints; pass -1 when regions are inactive.
func (b *Bin) AddToCounter(n float64, regionA, regionB int) {
	b.Counter += n
	if b.nRegion > 0 {
		b.addRegions(b.CounterRegion, n, regionA, regionB)
	}
}

// AddToWeight accumulates a weighted pair count into the working term.
func (b *Bin) AddToWeight(w float64, regionA, regionB int) {
	b.Weight += w
	if b.nRegion > 0 {
		b.addRegions(b.WeightRegion, w, regionA, regionB)
	}
}

// AddToPixelWtheta accumulates one pixel product into the pixel
// estimator terms.
func (b *Bin) AddToPixelWtheta(wtheta, weight float64, regionA, regionB int) {
	b.PixelWtheta += wtheta
	b.PixelWeight += weight
	if b.nRegion > 0 {
		b.addRegions(b.PixelWthetaRegion, wtheta, regionA, regionB)
		b.addRegions(b.PixelWeightRegion, weight, regionA, regionB)
	}
}

// MoveWeightToGalGal moves the working weighted count into the
// real-real term and zeroes the working term.
func (b *Bin) MoveWeightToGalGal() {
	b.GalGal += b.Weight
	b.Weight = 0
	for k := range b.WeightRegion {
		b.GalGalRegion[k] += b.WeightRegion[k]
		b.WeightRegion[k] = 0
	}
}

// MoveWeightToGalRand moves the working weighted count into the
// real-random term.  With alsoRandGal set the same count is credited to
// the random-real term, the symmetric case of an auto-correlation.
func (b *Bin) MoveWeightToGalRand(alsoRandGal bool) {
	b.GalRand += b.Weight
	if alsoRandGal {
		b.RandGal += b.Weight
	}
	b.Weight = 0
	for k := range b.WeightRegion {
		b.GalRandRegion[k] += b.WeightRegion[k]
		if alsoRandGal {
			b.RandGalRegion[k] += b.WeightRegion[k]
		}
		b.WeightRegion[k] = 0
	}
}

// MoveWeightToRandGal moves the working weighted count into the
// random-real term.
func (b *Bin) MoveWeightToRandGal() {
	b.RandGal += b.Weight
	b.Weight = 0
	for k := range b.WeightRegion {
		b.RandGalRegion[k] += b.WeightRegion[k]
		b.WeightRegion[k] = 0
	}
}

// MoveWeightToRandRand moves the working weighted count into the
// random-random term.
func (b *Bin) MoveWeightToRandRand() {
	b.RandRand += b.Weight
	b.Weight = 0
	for k := range b.WeightRegion {
		b.RandRandRegion[k] += b.WeightRegion[k]
		b.WeightRegion[k] = 0
	}
}

func rescale(v *float64, s []float64, k float64) {
	*v /= k
	for i := range s {
		s[i] /= k
	}
}

// RescaleGalRand divides the accumulated real-random term by k,
// averaging over k randomized realizations.
func (b *Bin) RescaleGalRand(k float64) { rescale(&b.GalRand, b.GalRandRegion, k) }

// RescaleRandGal divides the accumulated random-real term by k.
func (b *Bin) RescaleRandGal(k float64) { rescale(&b.RandGal, b.RandGalRegion, k) }

// RescaleRandRand divides the accumulated random-random term by k.
func (b *Bin) RescaleRandRand(k float64) { rescale(&b.RandRand, b.RandRandRegion, k) }

// ResetGalRand zeroes the real-random term.
func (b *Bin) ResetGalRand() {
	b.GalRand = 0
	for k := range b.GalRandRegion {
		b.GalRandRegion[k] = 0
	}
}

// ResetRandGal zeroes the random-real term.
func (b *Bin) ResetRandGal() {
	b.RandGal = 0
	for k := range b.RandGalRegion {
		b.RandGalRegion[k] = 0
	}
}

// ResetRandRand zeroes the random-random term.
func (b *Bin) ResetRandRand() {
	b.RandRand = 0
	for k := range b.RandRandRegion {
		b.RandRandRegion[k] = 0
	}
}

// Wtheta returns the bin's correlation estimate: the Landy-Szalay
// combination of pair terms for a pair bin, the weighted pixel mean for
// a pixel bin.
func (b *Bin) Wtheta() float64 {
	if b.Resolution == 0 {
		return (b.GalGal - b.GalRand - b.RandGal + b.RandRand) / b.RandRand
	}
	return b.PixelWtheta / b.PixelWeight
}

// WthetaRegion returns the leave-one-out correlation estimate for
// region k.
func (b *Bin) WthetaRegion(k int) float64 {
	if b.Resolution == 0 {
		return (b.GalGalRegion[k] - b.GalRandRegion[k] -
			b.RandGalRegion[k] + b.RandRandRegion[k]) / b.RandRandRegion[k]
	}
	return b.PixelWthetaRegion[k] / b.PixelWeightRegion[k]
}

// WthetaError returns the Poisson noise estimate for the bin.
func (b *Bin) WthetaError() float64 {
	if b.Resolution == 0 {
		return 1 / math.Sqrt(b.Counter)
	}
	return 1 / math.Sqrt(b.PixelWeight)
}

// MeanWtheta returns the mean of the per-region leave-one-out
// estimates.
func (b *Bin) MeanWtheta() float64 {
	var mean float64
	for k := 0; k < b.nRegion; k++ {
		mean += b.WthetaRegion(k) / float64(b.nRegion)
	}
	return mean
}

// MeanWthetaError returns the jackknife error on MeanWtheta, the
// square root of the bin's jackknife variance.
func (b *Bin) MeanWthetaError() float64 {
	mean := b.MeanWtheta()
	var ss float64
	for k := 0; k < b.nRegion; k++ {
		d := b.WthetaRegion(k) - mean
		ss += d * d
	}
	r := float64(b.nRegion)
	return (r - 1) / r * math.Sqrt(ss)
}
