// Package report renders the descriptive statistics of a tree survey as charts and tables.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"github.com/sfomuseum/go-tree-survey/summary"
	"math"
	"strconv"
	"time"
)

// Report is the descriptive summary of the girths in a tree survey.
type Report struct {
	RunID      string              `json:"run_id"`
	Created    time.Time           `json:"created"`
	Statistics *summary.Statistics `json:"statistics"`
	Boxplot    *summary.Boxplot    `json:"boxplot"`
	Histogram  []*summary.Bin      `json:"histogram"`
	// Records that were left off the map, and why.
	Excluded []*Exclusion `json:"excluded"`
	values   []float64
}

// Exclusion records a photograph that was not drawn on the map.
type Exclusion struct {
	FileName string `json:"file"`
	Reason   string `json:"reason"`
}

// NewReportOptions defines options for NewReport.
type NewReportOptions struct {
	RunID   string
	Summary *summary.Options
	// The number of histogram bins. Zero means Sturges' rule.
	Bins int
}

// NewReport computes a Report for the measured girths in values plus missing unmeasured trees.
func NewReport(ctx context.Context, values []float64, missing int, opts *NewReportOptions) (*Report, error) {

	if opts == nil {
		opts = &NewReportOptions{}
	}

	summary_opts := opts.Summary

	if summary_opts == nil {
		summary_opts = summary.DefaultOptions()
	}

	stats, err := summary.Summarize(values, missing, summary_opts)

	if err != nil {
		return nil, fmt.Errorf("Failed to summarize girths, %w", err)
	}

	box, err := summary.NewBoxplot(values, summary_opts.Quantile)

	if err != nil {
		return nil, fmt.Errorf("Failed to derive boxplot, %w", err)
	}

	bins, err := summary.NewHistogram(values, opts.Bins)

	if err != nil {
		return nil, fmt.Errorf("Failed to derive histogram, %w", err)
	}

	r := &Report{
		RunID:      opts.RunID,
		Created:    time.Now().UTC(),
		Statistics: stats,
		Boxplot:    box,
		Histogram:  bins,
		Excluded:   make([]*Exclusion, 0),
		values:     values,
	}

	return r, nil
}

// Exclude adds a photograph to the list of records left off the map.
func (r *Report) Exclude(file_name string, reason string) {
	r.Excluded = append(r.Excluded, &Exclusion{
		FileName: file_name,
		Reason:   reason,
	})
}

type jsonStatistics struct {
	N           int                    `json:"n"`
	NMissing    int                    `json:"n_missing"`
	PropMissing float64                `json:"prop_missing"`
	Mean        *float64               `json:"mean"`
	SD          *float64               `json:"sd"`
	Min         *float64               `json:"min"`
	Q1          *float64               `json:"q1"`
	Median      *float64               `json:"median"`
	Q3          *float64               `json:"q3"`
	Max         *float64               `json:"max"`
	Quantile    summary.QuantileMethod `json:"quantile_method"`
	Deviation   summary.Deviation      `json:"sd_method"`
}

// MarshalJSON encodes the report. Undefined statistics (the sample standard deviation of a single value) are encoded as null.
func (r *Report) MarshalJSON() ([]byte, error) {

	type alias Report

	s := r.Statistics

	stats := &jsonStatistics{
		N:           s.N,
		NMissing:    s.NMissing,
		PropMissing: s.PropMissing,
		Mean:        nullable(s.Mean),
		SD:          nullable(s.SD),
		Min:         nullable(s.Min),
		Q1:          nullable(s.Q1),
		Median:      nullable(s.Median),
		Q3:          nullable(s.Q3),
		Max:         nullable(s.Max),
		Quantile:    s.Quantile,
		Deviation:   s.Deviation,
	}

	return json.Marshal(&struct {
		*alias
		Statistics *jsonStatistics `json:"statistics"`
	}{
		alias:      (*alias)(r),
		Statistics: stats,
	})
}

// SummaryJSON returns the report as indented JSON.
func (r *Report) SummaryJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// SummaryCSV returns the summary table as a two column (statistic, value) CSV document.
func (r *Report) SummaryCSV() ([]byte, error) {

	s := r.Statistics

	rows := [][]string{
		{"statistic", "value"},
		{"n", strconv.Itoa(s.N)},
		{"n_missing", strconv.Itoa(s.NMissing)},
		{"prop_missing", formatFloat(s.PropMissing)},
		{"mean", formatFloat(s.Mean)},
		{"sd", formatFloat(s.SD)},
		{"min", formatFloat(s.Min)},
		{"q1", formatFloat(s.Q1)},
		{"median", formatFloat(s.Median)},
		{"q3", formatFloat(s.Q3)},
		{"max", formatFloat(s.Max)},
		{"quantile_method", string(s.Quantile)},
		{"sd_method", string(s.Deviation)},
	}

	var buf bytes.Buffer

	wr := csv.NewWriter(&buf)

	err := wr.WriteAll(rows)

	if err != nil {
		return nil, fmt.Errorf("Failed to write summary table, %w", err)
	}

	return buf.Bytes(), nil
}

func nullable(f float64) *float64 {

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	return &f
}

// formatFloat renders f for the summary table; NaN is written as "NA".
func formatFloat(f float64) string {

	if math.IsNaN(f) {
		return "NA"
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}
