// Public domain.

package wprog

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	xrand "golang.org/x/exp/rand"

	"github.com/soniakeys/exit"
	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/wtheta/angcorr"
	"github.com/soniakeys/wtheta/grid"
	"github.com/soniakeys/wtheta/sphere"
)

const versionString = "wtheta version 1.0 Go source."
const copyrightString = "Public domain."

func Main() {
	defer exit.Handler()

	cl := parseCommandLine()

	band, err := sphere.BandFromDeg(cl.raMin, cl.raMax, cl.decMin, cl.decMax)
	if err != nil {
		exit.Log(err)
	}

	points, err := readCatalog(cl.fnCat)
	if err != nil {
		exit.Log(err)
	}
	var points2 []sphere.Point
	if cl.fnCat2 != "" {
		if points2, err = readCatalog(cl.fnCat2); err != nil {
			exit.Log(err)
		}
	}

	corr, err := buildCorrelation(cl)
	if err != nil {
		exit.Log(err)
	}
	corr.AssignBinResolutions(grid.Band{DecMin: cl.decMin, DecMax: cl.decMax}, 0)
	if cl.maxRes > 0 {
		corr.SetMaxResolution(uint32(cl.maxRes), true)
	}
	if cl.v {
		listBins(corr)
	}

	cfg := &angcorr.Config{
		RandomIterations:   cl.randIter,
		UseWeightedRandoms: cl.w,
		Rnd:                xrand.New(xrand.NewSource(cl.seed())),
	}
	if cl.nRegions >= 0 {
		cfg.NRegions = cl.nRegions
	}
	if cl.v {
		lg, err := zap.NewDevelopment()
		if err != nil {
			exit.Log(err)
		}
		defer lg.Sync()
		cfg.Logger = lg
	}

	switch {
	case points2 == nil && cl.nRegions < 0:
		err = corr.FindAutoCorrelation(band, points, cfg)
	case points2 == nil:
		err = corr.FindAutoCorrelationWithRegions(band, points, cfg)
	case cl.nRegions < 0:
		err = corr.FindCrossCorrelation(band, band, points, points2, cfg)
	default:
		err = corr.FindCrossCorrelationWithRegions(band, band, points, points2, cfg)
	}
	if err != nil {
		exit.Log(err)
	}

	if err = corr.WriteFile(cl.fnOut); err != nil {
		exit.Log(err)
	}
	if cl.fnCov != "" {
		if err = corr.WriteCovarianceFile(cl.fnCov); err != nil {
			exit.Log(err)
		}
	}
}

func buildCorrelation(cl *commandLine) (*angcorr.Correlation, error) {
	if cl.nLinear > 0 {
		return angcorr.NewLinear(cl.nLinear, cl.thetaMin, cl.thetaMax)
	}
	return angcorr.NewLog(cl.thetaMin, cl.thetaMax, cl.binsPerDecade)
}

// listBins prints the bin layout with sexagesimal bounds.
func listBins(corr *angcorr.Correlation) {
	fmt.Printf("%d bins:\n", corr.NBins())
	for i := 0; i < corr.NBins(); i++ {
		b := corr.Bin(i)
		est := "pair"
		if b.Resolution > 0 {
			est = fmt.Sprintf("pixel %d", b.Resolution)
		}
		fmt.Printf("  %v to %v  (%s)\n",
			sexa.FmtAngle(unit.AngleFromDeg(b.ThetaMin)),
			sexa.FmtAngle(unit.AngleFromDeg(b.ThetaMax)), est)
	}
}

// readCatalog reads whitespace separated "RA Dec [weight]" rows in
// degrees.  Blank lines and lines starting with # are skipped.
func readCatalog(fn string) ([]sphere.Point, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var pts []sphere.Point
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		t := strings.TrimSpace(scanner.Text())
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		fields := strings.Fields(t)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s:%d: want RA Dec [weight]", fn, line)
		}
		ra, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %v", fn, line, err)
		}
		dec, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %v", fn, line, err)
		}
		weight := 1.
		if len(fields) > 2 {
			if weight, err = strconv.ParseFloat(fields[2], 64); err != nil {
				return nil, fmt.Errorf("%s:%d: %v", fn, line, err)
			}
		}
		pts = append(pts, sphere.PointFromDeg(ra, dec, weight))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("%s: no points", fn)
	}
	return pts, nil
}

type commandLine struct {
	fnCat, fnCat2  string
	fnOut, fnCov   string
	raMin, raMax   float64
	decMin, decMax float64
	thetaMin       float64
	thetaMax       float64
	binsPerDecade  float64
	nLinear        int
	randIter       int
	nRegions       int
	maxRes         uint
	w              bool
	v              bool
	userSeed       uint64
}

func (cl *commandLine) seed() uint64 {
	if cl.userSeed != 0 {
		return cl.userSeed
	}
	return uint64(time.Now().UnixNano())
}

func parseCommandLine() *commandLine {
	cl := &commandLine{}
	dh := flag.Bool("h", false, "")
	flag.BoolVar(&cl.v, "v", false, "")
	bandSpec := flag.String("b", "0,360,-70,70", "")
	thetaSpec := flag.String("t", ".01,10", "")
	flag.Float64Var(&cl.binsPerDecade, "d", 6, "")
	flag.IntVar(&cl.nLinear, "l", 0, "")
	flag.IntVar(&cl.randIter, "n", 1, "")
	flag.IntVar(&cl.nRegions, "j", -1, "")
	flag.UintVar(&cl.maxRes, "m", 0, "")
	flag.BoolVar(&cl.w, "w", false, "")
	flag.Uint64Var(&cl.userSeed, "s", 0, "")
	flag.StringVar(&cl.fnOut, "o", "wtheta.dat", "")
	flag.StringVar(&cl.fnCov, "c", "", "")
	flag.Usage = func() {
		os.Stderr.WriteString(`
Usage: wtheta [options] <catalog> [catalog2]   measure w(theta)
       wtheta -h                               display help and exit

Options:
       -b <ramin,ramax,decmin,decmax>
       -t <thetamin,thetamax>
       -d <bins per decade>
       -l <linear bin count>
       -n <random iterations>
       -j <jackknife regions>
       -m <max resolution>
       -w
       -s <random seed>
       -o <output file>
       -c <covariance output file>
       -v
`)
		os.Exit(1)
	}
	flag.Parse()
	switch {
	case *dh:
		printHelp()
		os.Exit(0)
	case flag.NArg() < 1 || flag.NArg() > 2:
		flag.Usage()
	}
	cl.fnCat = flag.Arg(0)
	if flag.NArg() == 2 {
		cl.fnCat2 = flag.Arg(1)
	}
	var err error
	cl.raMin, cl.raMax, cl.decMin, cl.decMax, err = parse4(*bandSpec)
	if err != nil {
		exit.Log(fmt.Errorf("-b %s: %v", *bandSpec, err))
	}
	if cl.thetaMin, cl.thetaMax, err = parse2(*thetaSpec); err != nil {
		exit.Log(fmt.Errorf("-t %s: %v", *thetaSpec, err))
	}
	return cl
}

func parse2(s string) (a, b float64, err error) {
	f, err := parseFloats(s, 2)
	if err != nil {
		return 0, 0, err
	}
	return f[0], f[1], nil
}

func parse4(s string) (a, b, c, d float64, err error) {
	f, err := parseFloats(s, 4)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return f[0], f[1], f[2], f[3], nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma separated values", n)
	}
	f := make([]float64, n)
	for i, p := range parts {
		var err error
		if f[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func printHelp() {
	fmt.Println(versionString)
	fmt.Println(copyrightString)
	fmt.Println(`
wtheta measures the two-point angular correlation function of a point
catalog over a rectangular survey footprint.

The catalog holds one object per line, "RA Dec" in degrees with an
optional third weight column.  Lines starting with # are comments.
With a second catalog the cross-correlation of the two is measured.

Small angular scales are measured by pair counting against randomized
realizations of the catalog; large scales from a gridded density
field.  The crossover scale is picked from the catalog size and
footprint area, or pinned with -m.

With -j the footprint is split into regions and jackknife errors and
covariances are measured; -j 0 picks a region count automatically.
Output rows are "theta w(theta) ..." with the trailing columns
depending on estimator and regions; see the package documentation.`)
}
