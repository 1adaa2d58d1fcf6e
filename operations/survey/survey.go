// Package survey runs a complete tree survey: it gathers photographs, joins them with girth measurements,
// maps the trees and reports on the distribution of their girths.
package survey

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/sfomuseum/go-tree-survey/common"
	"github.com/sfomuseum/go-tree-survey/feature"
	"github.com/sfomuseum/go-tree-survey/lookup"
	"github.com/sfomuseum/go-tree-survey/metadata"
	"github.com/sfomuseum/go-tree-survey/operations/gather"
	"github.com/sfomuseum/go-tree-survey/report"
	"github.com/sfomuseum/go-tree-survey/summary"
	"github.com/sfomuseum/go-tree-survey/tree"
	"github.com/sfomuseum/go-tree-survey/webmap"
	"github.com/tidwall/gjson"
	"gocloud.dev/blob"
	"log/slog"
	"path"
	"strings"
)

// ErrMissingLocation is returned, under the PolicyFail missing location policy, for a photograph with no GPS location.
var ErrMissingLocation = errors.New("Photograph has no location")

// Policy determines what happens to a record that can not be placed on the map.
type Policy string

const (
	// PolicySkip leaves the record off the map (and out of trees.geojson) with a warning. It is still counted in the statistics.
	PolicySkip Policy = "skip"
	// PolicyFail stops the survey.
	PolicyFail Policy = "fail"
)

// ParsePolicy returns the Policy named by s, or fallback if s is empty.
func ParsePolicy(s string, fallback Policy) (Policy, error) {

	switch p := Policy(strings.ToLower(s)); p {
	case PolicySkip, PolicyFail:
		return p, nil
	case "":
		return fallback, nil
	default:
		return "", fmt.Errorf("Invalid policy '%s'", s)
	}
}

const (
	MapKey         string = "map.html"
	FeaturesKey    string = "trees.geojson"
	ReportKey      string = "report.html"
	BoxplotKey     string = "boxplot.png"
	HistogramKey   string = "histogram.png"
	SummaryCSVKey  string = "summary.csv"
	SummaryJSONKey string = "summary.json"
)

// SurveyCallback is invoked with the outcome of a successful survey.
type SurveyCallback func(context.Context, *SurveyResult) error

// SurveyProcessor provides a struct for running a tree survey.
type SurveyProcessor struct {
	// A valid gocloud.dev/blob Bucket where photographs are stored.
	Photos *blob.Bucket
	// A valid gocloud.dev/blob Bucket where maps, charts and tables are published.
	Output *blob.Bucket
	// A valid whosonfirst/go-reader URI for the source of the girths CSV.
	GirthsReaderURI string
	// The path of the girths CSV, relative to GirthsReaderURI.
	GirthsPath string
	// An optional whosonfirst/go-writer URI where each tree's feature is written, alongside the photograph's
	// path, as "{PATH_WITHOUT_EXTENSION}.geojson".
	FeaturesWriterURI string
	// An optional gocloud.dev/blob URI of the features of an earlier survey. Photographs already surveyed
	// under a different name are an error.
	PreviousFeaturesURI string
	// A filename glob used to select photographs.
	Pattern string
	Join    tree.JoinMode
	// The policy for photographs with no GPS location.
	MissingLocation Policy
	// The policy for photographs whose GPS location is outside the valid EPSG:4326 range.
	InvalidCoordinates Policy
	Metadata           *metadata.ReadOptions
	HashImages         bool
	// Write thumbnails for map popups. Thumbnails that can not be created are logged and skipped.
	Thumbnails    bool
	ThumbnailSize uint
	// Publish outputs with a "public-read" ACL (S3 buckets only).
	PublicRead bool
	Summary    *summary.Options
	// The number of histogram bins. Zero means Sturges' rule.
	Bins     int
	Renderer webmap.GeoRenderer
	Callback SurveyCallback
}

// SurveyResult is the outcome of a survey.
type SurveyResult struct {
	RunID   string
	Records []*tree.Record
	// Features for the records that were placed on the map, in record order.
	Features [][]byte
	Report   *report.Report
	// The keys written to the output bucket.
	Artifacts []string
}

// Survey runs the survey end to end and publishes its outputs.
func (p *SurveyProcessor) Survey(ctx context.Context) (*SurveyResult, error) {

	run_id := uuid.NewString()

	logger := slog.Default()
	logger = logger.With("run", run_id)

	result := &SurveyResult{
		RunID:     run_id,
		Artifacts: make([]string, 0),
	}

	photos, err := gather.GatherImages(ctx, p.Photos, &gather.GatherImagesOptions{
		Pattern:    p.Pattern,
		HashImages: p.HashImages,
		Metadata:   p.Metadata,
	})

	if err != nil {
		return nil, err
	}

	logger.Info("Gathered photographs", "count", len(photos))

	err = p.checkDuplicates(ctx, photos)

	if err != nil {
		return nil, err
	}

	girths, err := tree.ReadGirths(ctx, p.GirthsReaderURI, p.GirthsPath)

	if err != nil {
		return nil, err
	}

	records, err := tree.Join(girths, photos, p.Join)

	if err != nil {
		return nil, fmt.Errorf("Failed to join girths with photographs, %w", err)
	}

	result.Records = records

	values, missing := tree.MeasuredGirths(records)

	rpt, err := report.NewReport(ctx, values, missing, &report.NewReportOptions{
		RunID:   run_id,
		Summary: p.Summary,
		Bins:    p.Bins,
	})

	if err != nil {
		return nil, err
	}

	result.Report = rpt

	features, err := p.features(ctx, records, rpt)

	if err != nil {
		return nil, err
	}

	result.Features = features

	err = p.publishFeatures(ctx, result)

	if err != nil {
		return nil, err
	}

	err = p.publishReport(ctx, result)

	if err != nil {
		return nil, err
	}

	logger.Info("Survey complete", "records", len(records), "mapped", len(features), "excluded", len(rpt.Excluded), "n", rpt.Statistics.N)

	if p.Callback != nil {

		err := p.Callback(ctx, result)

		if err != nil {
			return nil, fmt.Errorf("Failed to execute survey callback, %w", err)
		}
	}

	return result, nil
}

func (p *SurveyProcessor) checkDuplicates(ctx context.Context, photos []*gather.GatherImagesResponse) error {

	current, err := lookup.NewResponsesLookerUpper(ctx, photos)

	if err != nil {
		return err
	}

	looker_uppers := []lookup.LookerUpper{
		current,
	}

	if p.PreviousFeaturesURI != "" {

		previous, err := lookup.NewBlobLookerUpper(ctx, p.PreviousFeaturesURI)

		if err != nil {
			return fmt.Errorf("Failed to create lookup for previous survey, %w", err)
		}

		looker_uppers = append(looker_uppers, previous)
	}

	append_funcs := []lookup.AppendLookupFunc{
		lookup.FingerprintAppendLookupFunc,
	}

	if p.HashImages {
		append_funcs = append(append_funcs, lookup.ImageHashAppendLookupFunc)
	}

	_, err = lookup.NewLookupMap(ctx, looker_uppers, append_funcs)

	if err != nil {
		return fmt.Errorf("Failed to check for duplicate photographs, %w", err)
	}

	return nil
}

// features creates a feature for each record that can be placed on the map, applying the missing location
// and invalid coordinates policies to the rest.
func (p *SurveyProcessor) features(ctx context.Context, records []*tree.Record, rpt *report.Report) ([][]byte, error) {

	features := make([][]byte, 0, len(records))

	for _, r := range records {

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			// pass
		}

		logger := slog.Default()
		logger = logger.With("path", r.Path)

		if !r.HasLocation {

			if p.MissingLocation == PolicyFail {
				return nil, fmt.Errorf("%w: %s", ErrMissingLocation, r.Path)
			}

			logger.Warn("Photograph has no location, excluding it from the map")
			rpt.Exclude(r.FileName, "missing location")
			continue
		}

		_, err := feature.Project(r.Longitude, r.Latitude)

		if err != nil {

			if errors.Is(err, feature.ErrCoordinateOutOfRange) && p.InvalidCoordinates == PolicySkip {
				logger.Warn("Photograph location is out of range, excluding it from the map", "latitude", r.Latitude, "longitude", r.Longitude)
				rpt.Exclude(r.FileName, "invalid coordinates")
				continue
			}

			return nil, fmt.Errorf("Failed to project %s, %w", r.Path, err)
		}

		if p.Thumbnails {
			p.thumbnail(ctx, r)
		}

		body, err := feature.NewTreeFeature(ctx, r, nil)

		if err != nil {
			return nil, err
		}

		features = append(features, body)
	}

	return features, nil
}

// thumbnail publishes a thumbnail for r and records its key. Failures are logged, not returned.
func (p *SurveyProcessor) thumbnail(ctx context.Context, r *tree.Record) {

	logger := slog.Default()
	logger = logger.With("path", r.Path)

	th, err := common.NewThumbnail(ctx, p.Photos, r.Path, &common.ThumbnailOptions{
		MaxDimension: p.ThumbnailSize,
		Orientation:  r.Orientation,
	})

	if err != nil {
		logger.Warn("Failed to create thumbnail", "error", err)
		return
	}

	err = p.publish(ctx, th.Key, th.Body)

	if err != nil {
		logger.Warn("Failed to publish thumbnail", "error", err)
		return
	}

	r.Thumbnail = th.Key
}

func (p *SurveyProcessor) publishFeatures(ctx context.Context, result *SurveyResult) error {

	if len(result.Features) == 0 {
		slog.Warn("No photographs could be placed on the map, skipping map and GeoJSON outputs")
		return nil
	}

	if p.FeaturesWriterURI != "" {

		for _, body := range result.Features {

			photo_path := gjson.GetBytes(body, "properties.tree:path").String()
			feature_path := strings.TrimSuffix(photo_path, path.Ext(photo_path)) + ".geojson"

			err := common.WriteBytes(ctx, p.FeaturesWriterURI, feature_path, body)

			if err != nil {
				return err
			}
		}

		err := common.CloseWriter(ctx, p.FeaturesWriterURI)

		if err != nil {
			return err
		}
	}

	fc, err := feature.NewFeatureCollection(result.Features)

	if err != nil {
		return err
	}

	enc_fc, err := fc.MarshalJSON()

	if err != nil {
		return fmt.Errorf("Failed to marshal feature collection, %w", err)
	}

	err = p.publishArtifact(ctx, result, FeaturesKey, enc_fc)

	if err != nil {
		return err
	}

	renderer := p.Renderer

	if renderer == nil {

		r, err := webmap.NewLeafletRenderer(nil)

		if err != nil {
			return err
		}

		renderer = r
	}

	doc, err := renderer.RenderMap(ctx, result.Features)

	if err != nil {
		return fmt.Errorf("Failed to render map, %w", err)
	}

	return p.publishArtifact(ctx, result, MapKey, doc)
}

func (p *SurveyProcessor) publishReport(ctx context.Context, result *SurveyResult) error {

	rpt := result.Report

	type render_func func() ([]byte, error)

	outputs := []struct {
		Key    string
		Render render_func
	}{
		{BoxplotKey, func() ([]byte, error) { return rpt.BoxplotPNG(nil) }},
		{HistogramKey, func() ([]byte, error) { return rpt.HistogramPNG(nil) }},
		{ReportKey, func() ([]byte, error) { return rpt.HTML(nil) }},
		{SummaryCSVKey, rpt.SummaryCSV},
		{SummaryJSONKey, rpt.SummaryJSON},
	}

	for _, o := range outputs {

		body, err := o.Render()

		if err != nil {
			return fmt.Errorf("Failed to render %s, %w", o.Key, err)
		}

		err = p.publishArtifact(ctx, result, o.Key, body)

		if err != nil {
			return err
		}
	}

	return nil
}

func (p *SurveyProcessor) publishArtifact(ctx context.Context, result *SurveyResult, key string, body []byte) error {

	err := p.publish(ctx, key, body)

	if err != nil {
		return err
	}

	result.Artifacts = append(result.Artifacts, key)
	return nil
}
