// Package summary computes descriptive statistics, boxplot statistics and histogram bins
// for a sequence of measurements. Every function is a pure function of its inputs.
package summary

import (
	"errors"
	"fmt"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"math"
	"sort"
	"strings"
)

// QuantileMethod names the method used to estimate quartiles.
type QuantileMethod string

const (
	// QuantileLinear interpolates linearly between order statistics at h = (n-1)p (Hyndman and Fan type 7).
	QuantileLinear QuantileMethod = "linear"
	// QuantileEmpirical is the inverse of the empirical distribution function (gonum stat.Empirical, Hyndman and Fan type 1).
	QuantileEmpirical QuantileMethod = "empirical"
	// QuantileLinInterp is linear interpolation of the empirical distribution function (gonum stat.LinInterp, Hyndman and Fan type 4).
	QuantileLinInterp QuantileMethod = "lininterp"
)

// Deviation names the standard deviation estimator.
type Deviation string

const (
	// DeviationSample is the unbiased (n-1) sample standard deviation.
	DeviationSample Deviation = "sample"
	// DeviationPopulation is the (n) population standard deviation.
	DeviationPopulation Deviation = "population"
)

// ErrNoValues is returned when there are no (non-missing) values to summarize.
var ErrNoValues = errors.New("No values to summarize")

// Options defines the estimators used by Summarize.
type Options struct {
	Quantile  QuantileMethod
	Deviation Deviation
}

// DefaultOptions returns Options using linear quartiles and the sample standard deviation.
func DefaultOptions() *Options {
	return &Options{
		Quantile:  QuantileLinear,
		Deviation: DeviationSample,
	}
}

// Statistics is the standard descriptive tuple for a sequence of measurements.
type Statistics struct {
	// N is the total number of observations, including missing ones.
	N           int     `json:"n"`
	NMissing    int     `json:"n_missing"`
	PropMissing float64 `json:"prop_missing"`
	Mean        float64 `json:"mean"`
	SD          float64 `json:"sd"`
	Min         float64 `json:"min"`
	Q1          float64 `json:"q1"`
	Median      float64 `json:"median"`
	Q3          float64 `json:"q3"`
	Max         float64 `json:"max"`
	// The estimators used.
	Quantile  QuantileMethod `json:"quantile_method"`
	Deviation Deviation      `json:"sd_method"`
}

// ParseQuantileMethod returns the QuantileMethod named by s.
func ParseQuantileMethod(s string) (QuantileMethod, error) {

	switch m := QuantileMethod(strings.ToLower(s)); m {
	case QuantileLinear, QuantileEmpirical, QuantileLinInterp:
		return m, nil
	case "":
		return QuantileLinear, nil
	default:
		return "", fmt.Errorf("Invalid quantile method '%s'", s)
	}
}

// ParseDeviation returns the Deviation named by s.
func ParseDeviation(s string) (Deviation, error) {

	switch d := Deviation(strings.ToLower(s)); d {
	case DeviationSample, DeviationPopulation:
		return d, nil
	case "":
		return DeviationSample, nil
	default:
		return "", fmt.Errorf("Invalid standard deviation method '%s'", s)
	}
}

// Summarize computes Statistics for values, plus missing observations that have no value.
// values is not modified. With a single value the sample standard deviation is NaN.
func Summarize(values []float64, missing int, opts *Options) (*Statistics, error) {

	if opts == nil {
		opts = DefaultOptions()
	}

	if len(values) == 0 {
		return nil, ErrNoValues
	}

	if missing < 0 {
		return nil, fmt.Errorf("Invalid missing count %d", missing)
	}

	x := sorted(values)

	n := len(x) + missing

	s := &Statistics{
		N:         n,
		NMissing:  missing,
		Mean:      stat.Mean(x, nil),
		Min:       floats.Min(x),
		Max:       floats.Max(x),
		Quantile:  opts.Quantile,
		Deviation: opts.Deviation,
	}

	s.PropMissing = float64(missing) / float64(n)

	switch opts.Deviation {
	case DeviationPopulation:
		s.SD = math.Sqrt(stat.PopVariance(x, nil))
	case DeviationSample, "":
		s.Deviation = DeviationSample
		s.SD = stat.StdDev(x, nil)
	default:
		return nil, fmt.Errorf("Invalid standard deviation method '%s'", opts.Deviation)
	}

	if s.Quantile == "" {
		s.Quantile = QuantileLinear
	}

	qs := make([]float64, 3)

	for i, p := range []float64{0.25, 0.5, 0.75} {

		q, err := Quantile(p, s.Quantile, x)

		if err != nil {
			return nil, err
		}

		qs[i] = q
	}

	s.Q1 = qs[0]
	s.Median = qs[1]
	s.Q3 = qs[2]

	return s, nil
}

// Quantile returns the p-quantile of the sorted values x using method.
func Quantile(p float64, method QuantileMethod, x []float64) (float64, error) {

	if len(x) == 0 {
		return 0, ErrNoValues
	}

	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, fmt.Errorf("Invalid quantile %f", p)
	}

	switch method {
	case QuantileEmpirical:
		return stat.Quantile(p, stat.Empirical, x, nil), nil
	case QuantileLinInterp:
		return stat.Quantile(p, stat.LinInterp, x, nil), nil
	case QuantileLinear, "":
		return linearQuantile(p, x), nil
	default:
		return 0, fmt.Errorf("Invalid quantile method '%s'", method)
	}
}

// gonum only provides the type 1 and type 4 estimators.
func linearQuantile(p float64, x []float64) float64 {

	h := float64(len(x)-1) * p
	lo := math.Floor(h)
	i := int(lo)

	if i >= len(x)-1 {
		return x[len(x)-1]
	}

	return x[i] + (h-lo)*(x[i+1]-x[i])
}

func sorted(values []float64) []float64 {

	x := make([]float64, len(values))
	copy(x, values)

	sort.Float64s(x)
	return x
}
