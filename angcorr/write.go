// Public domain.

package angcorr

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Write emits one line per bin in increasing separation order, values
// space separated at six significant digits.  Bins with region
// partials write the jackknife row
//
//	theta meanWtheta meanWthetaError
//
// pair bins without regions write the pair-term row
//
//	theta wtheta galGal galRand randGal randRand
//
// and pixel bins without regions write
//
//	theta wtheta pixelWtheta pixelWeight
func (c *Correlation) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := range c.bins {
		b := &c.bins[i]
		var err error
		switch {
		case b.NRegion() > 0:
			_, err = fmt.Fprintf(bw, "%.6g %.6g %.6g\n",
				b.Theta, b.MeanWtheta(), b.MeanWthetaError())
		case b.Resolution == 0:
			_, err = fmt.Fprintf(bw, "%.6g %.6g %.6g %.6g %.6g %.6g\n",
				b.Theta, b.Wtheta(),
				b.GalGal, b.GalRand, b.RandGal, b.RandRand)
		default:
			_, err = fmt.Fprintf(bw, "%.6g %.6g %.6g %.6g\n",
				b.Theta, b.Wtheta(), b.PixelWtheta, b.PixelWeight)
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes the bin rows to a named file.
func (c *Correlation) WriteFile(name string) error {
	return c.writeFile(name, c.Write)
}

// WriteCovariance emits the full covariance matrix, one element per
// line:
//
//	thetaA thetaB covariance
func (c *Correlation) WriteCovariance(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for a := range c.bins {
		for b := range c.bins {
			_, err := fmt.Fprintf(bw, "%.6g %.6g %.6g\n",
				c.bins[a].Theta, c.bins[b].Theta, c.Covariance(a, b))
			if err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteCovarianceFile writes the covariance matrix to a named file.
func (c *Correlation) WriteCovarianceFile(name string) error {
	return c.writeFile(name, c.WriteCovariance)
}

func (c *Correlation) writeFile(name string, write func(io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
