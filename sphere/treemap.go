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

type treePoint struct {
	cart   coord.Cart
	weight float64
	region int
}

type treeCell struct {
	center      coord.Cart
	radius      float64 // half-diagonal of the cell in radians
	totalWeight float64
	pts         []treePoint
}

// TreeMap is the spatial point index consumed by the pair estimator.
// Points are bucketed by grid cell at a single resolution; pair queries
// prune whole cells by the separation of the query point from the cell
// center before testing individual points.
type TreeMap struct {
	resolution uint32
	capacity   int
	cells      map[[2]int]*treeCell
	footprint  Footprint // set by InitializeRegions, for query-point regions
	nRegion    int
	nPoints    int
}

// NewTreeMap returns an empty index bucketing at the given resolution.
// nodeCapacity is an allocation hint for the expected points per cell.
func NewTreeMap(resolution uint32, nodeCapacity int) (*TreeMap, error) {
	if !grid.Valid(resolution) {
		return nil, errors.New("sphere: invalid tree map resolution")
	}
	if nodeCapacity < 1 {
		nodeCapacity = 1
	}
	return &TreeMap{
		resolution: resolution,
		capacity:   nodeCapacity,
		cells:      map[[2]int]*treeCell{},
	}, nil
}

// Resolution returns the bucketing resolution.
func (t *TreeMap) Resolution() uint32 { return t.resolution }

// NPoints returns the number of indexed points.
func (t *TreeMap) NPoints() int { return t.nPoints }

// NRegion returns the region count, zero before InitializeRegions.
func (t *TreeMap) NRegion() int { return t.nRegion }

// AddPoint indexes a point.  The return value is false when the point
// does not localize to any grid cell.
func (t *TreeMap) AddPoint(p Point) bool {
	col, row, ok := grid.Cell(t.resolution, p.RA, p.Dec)
	if !ok {
		return false
	}
	key := [2]int{col, row}
	c := t.cells[key]
	if c == nil {
		ra, dec := grid.Center(t.resolution, col, row)
		c = &treeCell{
			center: Point{RA: ra, Dec: dec}.Cart(),
			radius: grid.Radius(t.resolution, col, row),
			pts:    make([]treePoint, 0, t.capacity),
		}
		t.cells[key] = c
	}
	region := -1
	if t.footprint != nil {
		region = t.footprint.RegionOf(p)
	}
	c.pts = append(c.pts, treePoint{cart: p.Cart(), weight: p.Weight, region: region})
	c.totalWeight += p.Weight
	t.nPoints++
	return true
}

// InitializeRegions tags every indexed point, and future points, with
// its footprint region.  It fails when the footprint has no regions or
// was split finer than the index buckets.
func (t *TreeMap) InitializeRegions(f Footprint) bool {
	if f.NRegion() < 1 || f.RegionResolution() > t.resolution {
		return false
	}
	t.footprint = f
	t.nRegion = f.NRegion()
	for _, c := range t.cells {
		for i := range c.pts {
			c.pts[i].region = f.RegionOf(cartPoint(&c.pts[i].cart))
		}
	}
	return true
}

func cartPoint(c *coord.Cart) Point {
	ra := math.Atan2(c.Y, c.X)
	if ra < 0 {
		ra += 2 * math.Pi
	}
	return Point{RA: unit.RA(ra), Dec: unit.Angle(math.Asin(c.Z))}
}

// FindWeightedPairs accumulates, into the bin's working terms, every
// indexed point whose separation from p falls in the bin: the pair
// weight product into Weight and a unit count into Counter.
func (t *TreeMap) FindWeightedPairs(p Point, b *angbin.Bin) {
	t.findWeightedPairs(p, b, false)
}

// FindWeightedPairsWithRegions is FindWeightedPairs with the
// leave-one-out region accumulation active.
func (t *TreeMap) FindWeightedPairsWithRegions(p Point, b *angbin.Bin) {
	t.findWeightedPairs(p, b, true)
}

func (t *TreeMap) findWeightedPairs(p Point, b *angbin.Bin, regions bool) {
	q := p.Cart()
	thetaMin := 2 * math.Asin(math.Sqrt(b.Sin2ThetaMin))
	thetaMax := 2 * math.Asin(math.Sqrt(b.Sin2ThetaMax))
	regionQ := -1
	if regions && t.footprint != nil {
		regionQ = t.footprint.RegionOf(p)
	}
	for _, c := range t.cells {
		theta := 2 * math.Asin(math.Sqrt(CartSin2Sep(&q, &c.center)))
		if theta-c.radius >= thetaMax || theta+c.radius < thetaMin {
			continue
		}
		if !regions && theta-c.radius >= thetaMin && theta+c.radius < thetaMax {
			// whole cell inside the bin
			b.AddToWeight(p.Weight*c.totalWeight, -1, -1)
			b.AddToCounter(float64(len(c.pts)), -1, -1)
			continue
		}
		for i := range c.pts {
			tp := &c.pts[i]
			if !b.Contains(CartSin2Sep(&q, &tp.cart)) {
				continue
			}
			ra, rb := -1, -1
			if regions {
				ra, rb = regionQ, tp.region
			}
			b.AddToWeight(p.Weight*tp.weight, ra, rb)
			b.AddToCounter(1, ra, rb)
		}
	}
}
