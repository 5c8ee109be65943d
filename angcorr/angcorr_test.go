// Public domain.

package angcorr_test

import (
	"math"
	"strings"
	"testing"

	"github.com/soniakeys/wtheta/angbin"
	"github.com/soniakeys/wtheta/angcorr"
)

func newLog(t *testing.T) *angcorr.Correlation {
	t.Helper()
	c, err := angcorr.NewLog(.01, 10, 6)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewLog(t *testing.T) {
	c := newLog(t)
	// three decades at six bins per decade
	if c.NBins() != 18 {
		t.Fatal("NBins", c.NBins())
	}
	first := c.Bin(0)
	last := c.Bin(c.NBins() - 1)
	if math.Abs(first.ThetaMin-.01) > 1e-12 {
		t.Fatal("first ThetaMin", first.ThetaMin)
	}
	if math.Abs(last.ThetaMax-10) > 1e-9 {
		t.Fatal("last ThetaMax", last.ThetaMax)
	}
	// contiguous, monotonic, representative scale inside
	for i := 0; i < c.NBins(); i++ {
		b := c.Bin(i)
		if !(b.ThetaMin < b.Theta && b.Theta < b.ThetaMax) {
			t.Fatal("Theta outside bin", i)
		}
		if b.Sin2ThetaMin >= b.Sin2ThetaMax {
			t.Fatal("sin2 bounds", i)
		}
		if i > 0 && math.Abs(c.Bin(i-1).ThetaMax-b.ThetaMin) > 1e-12*b.ThetaMin {
			t.Fatal("bins not contiguous at", i)
		}
	}
}

func TestNewLogErrors(t *testing.T) {
	if _, err := angcorr.NewLog(0, 10, 6); err == nil {
		t.Fatal("zero thetaMin")
	}
	if _, err := angcorr.NewLog(10, 1, 6); err == nil {
		t.Fatal("reversed range")
	}
	if _, err := angcorr.NewLog(.01, 10, 0); err == nil {
		t.Fatal("zero bins per decade")
	}
}

func TestNewLinear(t *testing.T) {
	c, err := angcorr.NewLinear(10, 1, 6)
	if err != nil {
		t.Fatal(err)
	}
	if c.NBins() != 10 {
		t.Fatal("NBins", c.NBins())
	}
	if b := c.Bin(3); math.Abs(b.ThetaMin-2.5) > 1e-12 || math.Abs(b.ThetaMax-3) > 1e-12 {
		t.Fatal("bin 3 bounds", b.ThetaMin, b.ThetaMax)
	}
}

func TestResolutionOrder(t *testing.T) {
	c := newLog(t)
	for i := 1; i < c.NBins(); i++ {
		if c.Bin(i).Resolution > c.Bin(i-1).Resolution {
			t.Fatal("resolution increases with separation at", i)
		}
	}
}

// windowPartition checks that the pair window plus the per-resolution
// pixel windows exactly tile the bin sequence.
func windowPartition(t *testing.T, c *angcorr.Correlation) {
	t.Helper()
	lo, hi := c.Window(0)
	if lo != 0 {
		t.Fatal("pair window start", lo)
	}
	at := hi
	for at < c.NBins() {
		res := c.Bin(at).Resolution
		wlo, whi := c.Window(res)
		if wlo != at {
			t.Fatal("window gap at bin", at)
		}
		if whi <= wlo {
			t.Fatal("empty window at bin", at)
		}
		at = whi
	}
	if at != c.NBins() {
		t.Fatal("windows overrun", at)
	}
}

func TestWindowPartition(t *testing.T) {
	c := newLog(t)
	windowPartition(t, c)
	for _, max := range []uint32{4, 16, 64, 256, 2048, 32768} {
		c.SetMaxResolution(max, false)
		windowPartition(t, c)
		if c.MaxResolution() != max {
			t.Fatal("MaxResolution", max)
		}
		plo, phi := c.Window(0)
		for i := plo; i < phi; i++ {
			if c.Bin(i).Resolution != 0 {
				t.Fatal("pair bin with resolution at crossover", max)
			}
		}
		for i := phi; i < c.NBins(); i++ {
			if r := c.Bin(i).Resolution; r == 0 || r > max {
				t.Fatal("pixel bin resolution at crossover", max)
			}
		}
	}
}

func TestUseOnlyPairs(t *testing.T) {
	c := newLog(t)
	c.UseOnlyPairs()
	if lo, hi := c.Window(0); lo != 0 || hi != c.NBins() {
		t.Fatal("pair window", lo, hi)
	}
	for i := 0; i < c.NBins(); i++ {
		if c.Bin(i).Resolution != 0 {
			t.Fatal("bin not a pair bin", i)
		}
	}
}

func TestUseOnlyPixels(t *testing.T) {
	c := newLog(t)
	c.SetMaxResolution(64, true)
	c.UseOnlyPixels()
	if lo, hi := c.Window(0); lo != hi {
		t.Fatal("pair window not empty", lo, hi)
	}
	windowPartition(t, c)
}

func TestSetMinResolution(t *testing.T) {
	c := newLog(t)
	c.SetMaxResolution(2048, false)
	c.SetMinResolution(64)
	if c.MinResolution() != 64 {
		t.Fatal("MinResolution")
	}
	_, hi := c.Window(0)
	for i := hi; i < c.NBins(); i++ {
		if c.Bin(i).Resolution < 64 {
			t.Fatal("pixel bin below floor", i)
		}
	}
	windowPartition(t, c)
}

var autoMaxCases = []struct {
	n    int
	area float64
	want uint32
}{
	{100000, 800, 64},
	{1000000, 800, 128},
	{5000000, 800, 256},
	{20000000, 800, 512},
	{100000, 100, 256},
	{1000000, 100, 512},
	{5000000, 100, 1024},
	{20000000, 100, 2048},
}

func TestAutoMaxResolution(t *testing.T) {
	for _, cs := range autoMaxCases {
		c := newLog(t)
		c.AutoMaxResolution(cs.n, cs.area, nil)
		if c.MaxResolution() != cs.want {
			t.Fatal("AutoMaxResolution", cs.n, cs.area,
				"got", c.MaxResolution(), "want", cs.want)
		}
		windowPartition(t, c)
	}
}

func TestFind(t *testing.T) {
	c := newLog(t)
	c.SetMaxResolution(256, false)
	lo, hi := c.Window(0)
	if lo == hi {
		t.Fatal("degenerate test, empty pair window")
	}
	for i := lo; i < hi; i++ {
		b := c.Bin(i)
		mid := angbin.Sin2Theta((b.ThetaMin + b.ThetaMax) / 2)
		j, ok := c.Find(lo, hi, mid)
		if !ok || j != i {
			t.Fatal("Find mid of bin", i, "got", j, ok)
		}
		// closed lower edge
		if j, ok = c.Find(lo, hi, b.Sin2ThetaMin); !ok || j != i {
			t.Fatal("Find lower edge of bin", i, "got", j, ok)
		}
	}
	// outside the window's span
	if _, ok := c.Find(lo, hi, c.Bin(lo).Sin2ThetaMin/2); ok {
		t.Fatal("Find below window")
	}
	if _, ok := c.Find(lo, hi, c.Bin(hi-1).Sin2ThetaMax); ok {
		t.Fatal("Find at open upper edge")
	}
	if _, ok := c.Find(3, 3, .001); ok {
		t.Fatal("Find in empty window")
	}
}

func TestBoundLookups(t *testing.T) {
	c := newLog(t)
	c.SetMaxResolution(256, false)
	plo, phi := c.Window(0)
	if th, ok := c.ThetaMin(0); !ok || th != c.Bin(plo).ThetaMin {
		t.Fatal("pair ThetaMin")
	}
	if th, ok := c.ThetaMax(0); !ok || th != c.Bin(phi-1).ThetaMax {
		t.Fatal("pair ThetaMax")
	}
	res := c.Bin(phi).Resolution
	wlo, whi := c.Window(res)
	if th, ok := c.ThetaMin(res); !ok || th != c.Bin(wlo).ThetaMin {
		t.Fatal("pixel ThetaMin")
	}
	if s2, ok := c.Sin2ThetaMax(res); !ok || s2 != c.Bin(whi-1).Sin2ThetaMax {
		t.Fatal("pixel Sin2ThetaMax")
	}
	// an invalid resolution degrades to the full pixel window
	if th, ok := c.ThetaMin(3); !ok || th != c.Bin(phi).ThetaMin {
		t.Fatal("invalid resolution lookup")
	}
	// a valid resolution carried by no bin is an empty window
	c.UseOnlyPairs()
	if _, ok := c.ThetaMin(64); ok {
		t.Fatal("lookup on empty window")
	}
}

func TestCovariancePoisson(t *testing.T) {
	c := newLog(t)
	c.UseOnlyPairs()
	for i := 0; i < c.NBins(); i++ {
		b := c.Bin(i)
		b.Counter = float64(100 * (i + 1))
	}
	for a := 0; a < c.NBins(); a++ {
		for b := 0; b < c.NBins(); b++ {
			cov := c.Covariance(a, b)
			if a != b && cov != 0 {
				t.Fatal("off-diagonal Poisson covariance", a, b)
			}
			if a == b {
				e := c.Bin(a).WthetaError()
				if math.Abs(cov-e*e) > 1e-15 {
					t.Fatal("diagonal Poisson covariance", a)
				}
			}
		}
	}
}

func TestCovarianceJackknife(t *testing.T) {
	c := newLog(t)
	c.UseOnlyPairs()
	c.InitializeRegions(4)
	if c.NRegion() != 4 {
		t.Fatal("NRegion")
	}
	for i := 0; i < c.NBins(); i++ {
		b := c.Bin(i)
		for k := 0; k < 4; k++ {
			b.GalGalRegion[k] = float64(10 + i + k)
			b.GalRandRegion[k] = 5
			b.RandGalRegion[k] = 5
			b.RandRandRegion[k] = 10
		}
	}
	for a := 0; a < c.NBins(); a++ {
		// symmetric
		if c.Covariance(a, 2) != c.Covariance(2, a) {
			t.Fatal("asymmetric covariance", a)
		}
		// diagonal equals the squared jackknife error
		e := c.Bin(a).MeanWthetaError()
		if math.Abs(c.Covariance(a, a)-e*e) > 1e-12 {
			t.Fatal("diagonal jackknife covariance", a)
		}
	}
	c.ClearRegions()
	if c.NRegion() != 0 || c.Bin(0).NRegion() != 0 {
		t.Fatal("ClearRegions")
	}
}

func TestWrite(t *testing.T) {
	c := newLog(t)
	c.UseOnlyPairs()
	for i := 0; i < c.NBins(); i++ {
		b := c.Bin(i)
		b.GalGal = 4
		b.GalRand = 2
		b.RandGal = 2
		b.RandRand = 1
	}
	var sb strings.Builder
	if err := c.Write(&sb); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != c.NBins() {
		t.Fatal("line count", len(lines))
	}
	// pair rows without regions carry six columns
	for _, ln := range lines {
		if n := len(strings.Fields(ln)); n != 6 {
			t.Fatal("column count", n, ln)
		}
	}

	sb.Reset()
	if err := c.WriteCovariance(&sb); err != nil {
		t.Fatal(err)
	}
	lines = strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != c.NBins()*c.NBins() {
		t.Fatal("covariance line count", len(lines))
	}
	for _, ln := range lines {
		if n := len(strings.Fields(ln)); n != 3 {
			t.Fatal("covariance column count", n, ln)
		}
	}
}
