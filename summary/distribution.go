package summary

import (
	"fmt"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"math"
)

// Boxplot holds Tukey boxplot statistics.
type Boxplot struct {
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	// The most extreme values within 1.5 IQR of the box.
	LowerWhisker float64   `json:"lower_whisker"`
	UpperWhisker float64   `json:"upper_whisker"`
	Outliers     []float64 `json:"outliers"`
}

// NewBoxplot computes boxplot statistics for values using method for the quartiles.
func NewBoxplot(values []float64, method QuantileMethod) (*Boxplot, error) {

	if len(values) == 0 {
		return nil, ErrNoValues
	}

	x := sorted(values)

	b := &Boxplot{
		Outliers: make([]float64, 0),
	}

	for i, p := range []float64{0.25, 0.5, 0.75} {

		q, err := Quantile(p, method, x)

		if err != nil {
			return nil, err
		}

		switch i {
		case 0:
			b.Q1 = q
		case 1:
			b.Median = q
		case 2:
			b.Q3 = q
		}
	}

	iqr := b.Q3 - b.Q1
	lo_fence := b.Q1 - 1.5*iqr
	hi_fence := b.Q3 + 1.5*iqr

	b.LowerWhisker = math.Inf(1)
	b.UpperWhisker = math.Inf(-1)

	for _, v := range x {

		if v < lo_fence || v > hi_fence {
			b.Outliers = append(b.Outliers, v)
			continue
		}

		b.LowerWhisker = math.Min(b.LowerWhisker, v)
		b.UpperWhisker = math.Max(b.UpperWhisker, v)
	}

	return b, nil
}

// Bin is a single histogram bin covering [Lower, Upper). The last bin also includes Upper.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// SturgesBins returns the number of histogram bins suggested by Sturges' rule for n values.
func SturgesBins(n int) int {

	if n < 1 {
		return 1
	}

	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// NewHistogram divides the range of values in to bins equal-width bins. If bins is zero the
// count is chosen by SturgesBins.
func NewHistogram(values []float64, bins int) ([]*Bin, error) {

	if len(values) == 0 {
		return nil, ErrNoValues
	}

	if bins < 0 {
		return nil, fmt.Errorf("Invalid bin count %d", bins)
	}

	if bins == 0 {
		bins = SturgesBins(len(values))
	}

	x := sorted(values)

	lo := floats.Min(x)
	hi := floats.Max(x)

	if lo == hi {
		lo = lo - 0.5
		hi = hi + 0.5
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)

	// stat.Histogram excludes values equal to the last divider
	last := dividers[bins]
	dividers[bins] = math.Nextafter(last, math.Inf(1))

	counts := stat.Histogram(nil, dividers, x, nil)

	hist := make([]*Bin, bins)

	for i := range hist {
		hist[i] = &Bin{
			Lower: dividers[i],
			Upper: dividers[i+1],
			Count: int(counts[i]),
		}
	}

	hist[bins-1].Upper = last
	return hist, nil
}
