package report

import (
	"bytes"
	"fmt"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"image/color"
)

// ChartOptions defines the size of rendered PNG charts.
type ChartOptions struct {
	Width  vg.Length
	Height vg.Length
}

// DefaultChartOptions returns a 6x4 inch ChartOptions.
func DefaultChartOptions() *ChartOptions {
	return &ChartOptions{
		Width:  6 * vg.Inch,
		Height: 4 * vg.Inch,
	}
}

var fill_colour = color.RGBA{R: 0x4c, G: 0x9a, B: 0x6a, A: 0xff}

// BoxplotPNG renders the girth boxplot as a PNG image.
func (r *Report) BoxplotPNG(opts *ChartOptions) ([]byte, error) {

	if opts == nil {
		opts = DefaultChartOptions()
	}

	p := plot.New()
	p.Title.Text = "Tree girth"
	p.Y.Label.Text = "Girth (mm)"

	box, err := plotter.NewBoxPlot(vg.Points(60), 0, plotter.Values(r.values))

	if err != nil {
		return nil, fmt.Errorf("Failed to create boxplot, %w", err)
	}

	// draw the quartiles and whiskers of the summary table rather than the plotter's own estimates
	b := r.Boxplot

	box.Quartile1 = b.Q1
	box.Median = b.Median
	box.Quartile3 = b.Q3
	box.AdjLow = b.LowerWhisker
	box.AdjHigh = b.UpperWhisker

	box.Outside = make([]int, 0)

	for i, v := range box.Values {

		if v < b.LowerWhisker || v > b.UpperWhisker {
			box.Outside = append(box.Outside, i)
		}
	}

	box.FillColor = fill_colour

	p.Add(box)
	p.NominalX("Girth")

	return writePNG(p, opts)
}

// HistogramPNG renders the girth histogram as a PNG image.
func (r *Report) HistogramPNG(opts *ChartOptions) ([]byte, error) {

	if opts == nil {
		opts = DefaultChartOptions()
	}

	if len(r.Histogram) == 0 {
		return nil, fmt.Errorf("Report has no histogram bins")
	}

	bins := make([]plotter.HistogramBin, len(r.Histogram))

	for i, b := range r.Histogram {
		bins[i] = plotter.HistogramBin{
			Min:    b.Lower,
			Max:    b.Upper,
			Weight: float64(b.Count),
		}
	}

	h := &plotter.Histogram{
		Bins:      bins,
		Width:     r.Histogram[0].Upper - r.Histogram[0].Lower,
		FillColor: fill_colour,
		LineStyle: plotter.DefaultLineStyle,
	}

	p := plot.New()
	p.Title.Text = "Tree girth"
	p.X.Label.Text = "Girth (mm)"
	p.Y.Label.Text = "Trees"

	p.Add(h)

	return writePNG(p, opts)
}

func writePNG(p *plot.Plot, opts *ChartOptions) ([]byte, error) {

	wt, err := p.WriterTo(opts.Width, opts.Height, "png")

	if err != nil {
		return nil, fmt.Errorf("Failed to create PNG writer, %w", err)
	}

	var buf bytes.Buffer

	_, err = wt.WriteTo(&buf)

	if err != nil {
		return nil, fmt.Errorf("Failed to render PNG, %w", err)
	}

	return buf.Bytes(), nil
}
