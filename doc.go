/*
Command wtheta measures two-point angular correlation functions of point
catalogs on the celestial sphere.

Contents

Version 1.0

  Program overview
  Command line usage
  File formats
  Algorithm outline


Program overview

Input is a catalog of positions on the sphere, one object per line as
right ascension and declination in degrees with an optional weight.
Output is the angular correlation function w(theta): for each bin of
angular separation, the excess probability of finding a pair of objects
at that separation over a random distribution.  Optionally a second
catalog is given and the cross-correlation of the two is measured, and
the catalog footprint can be split into regions to measure jackknife
errors and a covariance matrix.

Sample run:

Given a catalog gal.dat,

  180.0312 23.1171 1
  180.0455 23.1211 1
  179.9962 23.0899 1
  ...

the command

  wtheta -b 170,190,15,30 -t .01,10 gal.dat

measures w(theta) from 0.01 to 10 degrees over a footprint covering
170 to 190 degrees of right ascension and 15 to 30 degrees of
declination, writing one line per bin to wtheta.dat:

  0.0115 0.182 9531 8722.1 8722.1 8123.5
  ...
  8.577 0.00125 3.2145e-05 25.712

Command line usage

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

-b gives the survey footprint in degrees.  Objects outside the
footprint are dropped with a warning; random realizations are drawn
uniformly over it.

-t gives the separation range in degrees.  By default the range is
covered with logarithmic bins, -d per decade; -l switches to that many
bins of equal width instead.

-n is the number of randomized realizations averaged into the random
pair terms of the small-scale estimator.  -w draws random point
weights from the catalog's weight distribution instead of unit
weights.

-j splits the footprint into that many regions and adds jackknife
errors; -j 0 picks a region count automatically (twice the bin count).
Without -j errors are Poisson and the covariance matrix is diagonal.

-m pins the grid resolution separating the two estimators.  Without it
the crossover is picked from the catalog size and footprint area.

-s fixes the random seed for repeatable runs.


File formats

Catalogs are ASCII, one object per line, whitespace separated:

  RA Dec [weight]

RA and Dec are degrees; weight defaults to 1.  Blank lines and lines
starting with # are skipped.

Output files are ASCII, one line per bin in increasing separation
order, six significant digits, space separated.  The leading columns
are always the bin's representative separation in degrees and
w(theta).  The trailing columns depend on how the bin was measured:
with jackknife regions the single trailing column is the jackknife
error; for a pair-counted bin they are the four pair terms (real-real,
real-random, random-real, random-random); for a pixel-measured bin
they are the accumulated over-density product and pixel weight.

The covariance file (-c) holds the full matrix, one element per line:

  thetaA thetaB covariance


Algorithm outline

Pair counting is exact but quadratic, so it is reserved for small
separations where pairs are few.  Objects are bucketed into the cells
of a power-of-two grid over the sphere; for each object and each
separation bin, whole cells are pruned when their angular extent
cannot intersect the bin, and surviving cells are scanned for pairs.
The measured real-real counts are combined with counts against
randomized realizations of the catalog in the Landy-Szalay estimator

  w = (DD - DR - RD + RR) / RR

At wide separations the same statistic is measured far more cheaply
from a gridded density field: the catalog is sampled onto the grid at
the finest resolution in use, cell counts are converted to fractional
over-densities, and products of cell pairs accumulate into the bins
matched to each resolution.  Wider bins use coarser grids, derived by
aggregating the finest sampling rather than resampling the catalog.

Each bin is assigned the coarsest grid whose cell extent stays within
the bin's scale, and the crossover between estimators is itself a
resolution: bins needing a finer grid than the crossover are measured
by pair counting instead.

With regions, every accumulation also feeds per-region partials that
exclude pairs touching one region, giving leave-one-out estimates for
jackknife errors and covariances.

-------------
Public domain.
*/
package main
