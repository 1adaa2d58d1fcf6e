// Package webmap renders surveyed tree features as an interactive, layered web map.
package webmap

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/sfomuseum/go-tree-survey/feature"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"html/template"
	"image/color"
	"log/slog"
	"math"
)

//go:embed templates/map.html
var map_html string

var map_t = template.Must(template.New("map").Parse(map_html))

// GirthProperty is the feature property read to style markers.
const GirthProperty string = "properties.tree:girth_mm"

// MissingColour is the marker colour of trees without a girth measurement.
const MissingColour string = "#9e9e9e"

// ErrNoFeatures is returned when asked to render a map with no features.
var ErrNoFeatures = errors.New("No features to render")

// GeoRenderer is the interface for things that turn tree features (as produced by feature.NewTreeFeature) in to a renderable map document.
type GeoRenderer interface {
	RenderMap(context.Context, [][]byte) ([]byte, error)
}

// TileLayer is a base map layer.
type TileLayer struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"max_zoom"`
}

// DefaultTileLayers are the three base layers offered by default. The first one is shown initially.
var DefaultTileLayers = []TileLayer{
	{
		Name:        "OpenStreetMap",
		URL:         "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "&copy; OpenStreetMap contributors",
		MaxZoom:     19,
	},
	{
		Name:        "Esri World Imagery",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles &copy; Esri",
		MaxZoom:     19,
	},
	{
		Name:        "Esri World Topo",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Topo_Map/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles &copy; Esri",
		MaxZoom:     19,
	},
}

// LeafletRendererOptions defines options for a LeafletRenderer.
type LeafletRendererOptions struct {
	Title       string
	OverlayName string
	TileLayers  []TileLayer
	// Markers are MaxRadius * girth / max(girth) pixels, but never smaller than MinRadius.
	MinRadius float64
	MaxRadius float64
	// The number of colour stops drawn in the legend.
	LegendSteps int
	LeafletJS   string
	LeafletCSS  string
}

// DefaultLeafletRendererOptions returns the default LeafletRendererOptions.
func DefaultLeafletRendererOptions() *LeafletRendererOptions {
	return &LeafletRendererOptions{
		Title:       "Tree girths",
		OverlayName: "Trees",
		TileLayers:  DefaultTileLayers,
		MinRadius:   3,
		MaxRadius:   16,
		LegendSteps: 7,
		LeafletJS:   "https://unpkg.com/leaflet@1.9.4/dist/leaflet.js",
		LeafletCSS:  "https://unpkg.com/leaflet@1.9.4/dist/leaflet.css",
	}
}

// LeafletRenderer implements the GeoRenderer interface producing a standalone Leaflet HTML document.
type LeafletRenderer struct {
	GeoRenderer
	options *LeafletRendererOptions
}

// LegendStop is a labelled colour on the legend ramp.
type LegendStop struct {
	Label  string `json:"label"`
	Colour string `json:"colour"`
}

// Legend describes the colour ramp drawn on the map.
type Legend struct {
	Title         string       `json:"title"`
	Stops         []LegendStop `json:"stops"`
	Missing       bool         `json:"missing"`
	MissingColour string       `json:"missing_colour"`
}

type mapVars struct {
	Title       string
	OverlayName string
	LeafletJS   string
	LeafletCSS  string
	Layers      []TileLayer
	Features    json.RawMessage
	Bounds      [][2]float64
	Legend      *Legend
}

// NewLeafletRenderer returns a new LeafletRenderer. If opts is nil DefaultLeafletRendererOptions are used.
func NewLeafletRenderer(opts *LeafletRendererOptions) (*LeafletRenderer, error) {

	if opts == nil {
		opts = DefaultLeafletRendererOptions()
	}

	if len(opts.TileLayers) == 0 {
		return nil, errors.New("At least one tile layer is required")
	}

	if opts.MaxRadius <= 0 || opts.MinRadius < 0 || opts.MinRadius > opts.MaxRadius {
		return nil, fmt.Errorf("Invalid marker radius range %f - %f", opts.MinRadius, opts.MaxRadius)
	}

	if opts.LegendSteps < 2 {
		opts.LegendSteps = 2
	}

	r := &LeafletRenderer{
		options: opts,
	}

	return r, nil
}

// RenderMap styles features by girth and renders them as a Leaflet HTML document.
func (r *LeafletRenderer) RenderMap(ctx context.Context, features [][]byte) ([]byte, error) {

	if len(features) == 0 {
		return nil, ErrNoFeatures
	}

	scale, err := NewGirthScale(features)

	if err != nil {
		return nil, err
	}

	styled := make([][]byte, len(features))
	missing := false

	for i, body := range features {

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			// pass
		}

		girth_rsp := gjson.GetBytes(body, GirthProperty)

		if !girth_rsp.Exists() {
			missing = true
		}

		body, err = r.styleFeature(scale, body, girth_rsp)

		if err != nil {
			return nil, fmt.Errorf("Failed to style feature at offset %d, %w", i, err)
		}

		styled[i] = body
	}

	fc, err := feature.NewFeatureCollection(styled)

	if err != nil {
		return nil, err
	}

	enc_fc, err := fc.MarshalJSON()

	if err != nil {
		return nil, fmt.Errorf("Failed to marshal feature collection, %w", err)
	}

	vars := mapVars{
		Title:       r.options.Title,
		OverlayName: r.options.OverlayName,
		LeafletJS:   r.options.LeafletJS,
		LeafletCSS:  r.options.LeafletCSS,
		Layers:      r.options.TileLayers,
		Features:    json.RawMessage(enc_fc),
	}

	if fc.BBox != nil {
		b := fc.BBox.Bound()
		vars.Bounds = [][2]float64{
			{b.Min.Lat(), b.Min.Lon()},
			{b.Max.Lat(), b.Max.Lon()},
		}
	}

	lg, err := scale.Legend(r.options.LegendSteps)

	if err != nil {
		return nil, err
	}

	lg.Missing = missing
	vars.Legend = lg

	var buf bytes.Buffer

	err = map_t.Execute(&buf, vars)

	if err != nil {
		return nil, fmt.Errorf("Failed to render map, %w", err)
	}

	slog.Debug("Rendered map", "features", len(features), "min girth", scale.Min, "max girth", scale.Max)
	return buf.Bytes(), nil
}

func (r *LeafletRenderer) styleFeature(scale *GirthScale, body []byte, girth_rsp gjson.Result) ([]byte, error) {

	colour := MissingColour
	radius := r.options.MinRadius

	if girth_rsp.Exists() {

		g := girth_rsp.Float()

		c, err := scale.Colour(g)

		if err != nil {
			return nil, err
		}

		colour = c
		radius = scale.Radius(g, r.options.MinRadius, r.options.MaxRadius)
	}

	body, err := sjson.SetBytes(body, "properties.marker:colour", colour)

	if err != nil {
		return nil, err
	}

	return sjson.SetBytes(body, "properties.marker:radius", radius)
}

// GirthScale maps girths to marker colours and radii. It is fitted to the minimum and maximum girth of a set of features.
type GirthScale struct {
	Min      float64
	Max      float64
	colormap palette.ColorMap
}

// NewGirthScale fits a GirthScale to the girths of features. Features without a girth are ignored; if none has a girth
// the scale spans [0, 1].
func NewGirthScale(features [][]byte) (*GirthScale, error) {

	lo := math.Inf(1)
	hi := math.Inf(-1)

	for _, body := range features {

		rsp := gjson.GetBytes(body, GirthProperty)

		if !rsp.Exists() {
			continue
		}

		g := rsp.Float()
		lo = math.Min(lo, g)
		hi = math.Max(hi, g)
	}

	if math.IsInf(lo, 1) {
		lo = 0
		hi = 1
	}

	return NewGirthScaleWithRange(lo, hi)
}

// NewGirthScaleWithRange returns a GirthScale spanning [lo, hi].
func NewGirthScaleWithRange(lo float64, hi float64) (*GirthScale, error) {

	if lo > hi {
		return nil, fmt.Errorf("Invalid girth range %f - %f", lo, hi)
	}

	cm := moreland.SmoothBlueRed()

	cm_lo := lo
	cm_hi := hi

	if cm_lo == cm_hi {
		cm_lo = cm_lo - 0.5
		cm_hi = cm_hi + 0.5
	}

	// set max first so that min < max holds throughout
	cm.SetMax(cm_hi)
	cm.SetMin(cm_lo)

	s := &GirthScale{
		Min:      lo,
		Max:      hi,
		colormap: cm,
	}

	return s, nil
}

// Colour returns the "#rrggbb" colour for girth g. Values outside the scale are clamped.
func (s *GirthScale) Colour(g float64) (string, error) {

	g = math.Max(s.colormap.Min(), math.Min(s.colormap.Max(), g))

	c, err := s.colormap.At(g)

	if err != nil {
		return "", fmt.Errorf("Failed to derive colour for %f, %w", g, err)
	}

	return hexColour(c), nil
}

// Radius returns the marker radius for girth g: max_r scaled linearly by g / s.Max, no smaller than min_r.
func (s *GirthScale) Radius(g float64, min_r float64, max_r float64) float64 {

	if s.Max <= 0 {
		return min_r
	}

	r := max_r * g / s.Max
	return math.Max(min_r, math.Min(max_r, r))
}

// Legend returns a legend with steps evenly spaced colour stops from s.Min to s.Max.
func (s *GirthScale) Legend(steps int) (*Legend, error) {

	lg := &Legend{
		Title:         "Girth (mm)",
		Stops:         make([]LegendStop, steps),
		MissingColour: MissingColour,
	}

	for i := 0; i < steps; i++ {

		v := s.Min + (s.Max-s.Min)*float64(i)/float64(steps-1)

		c, err := s.Colour(v)

		if err != nil {
			return nil, err
		}

		lg.Stops[i] = LegendStop{
			Label:  fmt.Sprintf("%.0f", v),
			Colour: c,
		}
	}

	return lg, nil
}

func hexColour(c color.Color) string {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", nc.R, nc.G, nc.B)
}
