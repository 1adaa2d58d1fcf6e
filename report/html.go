package report

import (
	"bytes"
	"fmt"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// HTMLOptions defines options for rendering the interactive report.
type HTMLOptions struct {
	Title string
	// Where the echarts javascript is loaded from. Empty means the go-echarts default.
	AssetsHost string
}

// DefaultHTMLOptions returns the default HTMLOptions.
func DefaultHTMLOptions() *HTMLOptions {
	return &HTMLOptions{
		Title: "Tree girths",
	}
}

// HTML renders the boxplot, the histogram and the summary statistics as a single interactive page. The
// statistics are listed in the boxplot's subtitle.
func (r *Report) HTML(html_opts *HTMLOptions) ([]byte, error) {

	if html_opts == nil {
		html_opts = DefaultHTMLOptions()
	}

	init_opts := opts.Initialization{
		PageTitle:  html_opts.Title,
		Width:      "900px",
		Height:     "480px",
		AssetsHost: html_opts.AssetsHost,
	}

	s := r.Statistics
	b := r.Boxplot

	subtitle := fmt.Sprintf("n=%d n_missing=%d prop_missing=%s mean=%s sd=%s\nmin=%s q1=%s median=%s q3=%s max=%s",
		s.N, s.NMissing, formatFloat(s.PropMissing), formatFloat(s.Mean), formatFloat(s.SD),
		formatFloat(s.Min), formatFloat(s.Q1), formatFloat(s.Median), formatFloat(s.Q3), formatFloat(s.Max))

	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		charts.WithInitializationOpts(init_opts),
		charts.WithTitleOpts(opts.Title{Title: "Girth (mm)", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	box.SetXAxis([]string{"Girth"}).
		AddSeries("girth", []opts.BoxPlotData{
			{Name: "Girth", Value: []float64{b.LowerWhisker, b.Q1, b.Median, b.Q3, b.UpperWhisker}},
		})

	labels := make([]string, len(r.Histogram))
	counts := make([]opts.BarData, len(r.Histogram))

	for i, bin := range r.Histogram {
		labels[i] = fmt.Sprintf("%s-%s", formatFloat(bin.Lower), formatFloat(bin.Upper))
		counts[i] = opts.BarData{Value: bin.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(init_opts),
		charts.WithTitleOpts(opts.Title{Title: "Girth distribution", Subtitle: fmt.Sprintf("%d bins", len(r.Histogram))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	bar.SetXAxis(labels).
		AddSeries("trees", counts,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()

	if html_opts.AssetsHost != "" {
		page.SetAssetsHost(html_opts.AssetsHost)
	}

	page.AddCharts(box, bar)

	var buf bytes.Buffer

	err := page.Render(&buf)

	if err != nil {
		return nil, fmt.Errorf("Failed to render report, %w", err)
	}

	return buf.Bytes(), nil
}
