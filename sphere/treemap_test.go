// Public domain.

package sphere_test

import (
	"math"
	"testing"

	xrand "golang.org/x/exp/rand"

	"github.com/soniakeys/wtheta/angbin"
	"github.com/soniakeys/wtheta/sphere"
)

func TestNewTreeMap(t *testing.T) {
	if _, err := sphere.NewTreeMap(16, 200); err != nil {
		t.Fatal(err)
	}
	if _, err := sphere.NewTreeMap(5, 200); err == nil {
		t.Fatal("expected error for invalid resolution")
	}
}

func TestTreeMapPairs(t *testing.T) {
	f, err := sphere.BandFromDeg(0, 90, 0, 45)
	if err != nil {
		t.Fatal(err)
	}
	rnd := xrand.New(xrand.NewSource(3))
	pts := f.GenerateRandomPoints(make([]sphere.Point, 300), false, rnd)
	for i := range pts {
		pts[i].Weight = float64(i%2) + 1 // weights 1 and 2
	}

	tree, err := sphere.NewTreeMap(8, 50)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range pts {
		if !tree.AddPoint(p) {
			t.Fatal("AddPoint")
		}
	}
	if tree.NPoints() != len(pts) {
		t.Fatal("NPoints", tree.NPoints())
	}

	var b angbin.Bin
	b.SetThetaMin(2)
	b.SetThetaMax(10)
	for _, q := range pts[:20] {
		tree.FindWeightedPairs(q, &b)
	}

	// brute force the same counts
	var counter, weight float64
	for _, q := range pts[:20] {
		for _, p := range pts {
			if b.Contains(sphere.Sin2Sep(q, p)) {
				counter++
				weight += q.Weight * p.Weight
			}
		}
	}
	if counter == 0 {
		t.Fatal("degenerate test, no pairs in bin")
	}
	if b.Counter != counter {
		t.Fatal("Counter", b.Counter, "want", counter)
	}
	if math.Abs(b.Weight-weight) > 1e-9*weight {
		t.Fatal("Weight", b.Weight, "want", weight)
	}
}

func TestTreeMapRegions(t *testing.T) {
	f, err := sphere.BandFromDeg(0, 180, -20, 20)
	if err != nil {
		t.Fatal(err)
	}
	tree, err := sphere.NewTreeMap(64, 10)
	if err != nil {
		t.Fatal(err)
	}
	tree.AddPoint(sphere.PointFromDeg(90, 0, 1))

	if tree.InitializeRegions(f) {
		t.Fatal("expected failure on unsplit footprint")
	}
	n := f.InitializeRegions(6)
	if n < 1 {
		t.Fatal("band split failed")
	}
	if !tree.InitializeRegions(f) {
		t.Fatal("InitializeRegions")
	}
	if tree.NRegion() != n {
		t.Fatal("NRegion")
	}

	// a coarser index than the regionation must refuse
	coarse, err := sphere.NewTreeMap(4, 10)
	if err != nil {
		t.Fatal(err)
	}
	if f.RegionResolution() > 4 && coarse.InitializeRegions(f) {
		t.Fatal("expected failure on coarse index")
	}

	// region accumulation: pairs feed every slot but the endpoints'
	var b angbin.Bin
	b.SetThetaMin(0)
	b.SetThetaMax(180)
	b.InitializeRegions(n)
	tree.AddPoint(sphere.PointFromDeg(91, 1, 1))
	tree.FindWeightedPairsWithRegions(sphere.PointFromDeg(90.5, .5, 1), &b)
	if b.Counter != 2 {
		t.Fatal("Counter", b.Counter)
	}
	var sum float64
	for _, w := range b.CounterRegion {
		sum += w
	}
	if sum >= b.Counter*float64(n) {
		t.Fatal("leave-one-out slots should miss some pairs")
	}
}
