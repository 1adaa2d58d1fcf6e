package webmap

import (
	"context"
	"github.com/sfomuseum/go-tree-survey/feature"
	"github.com/sfomuseum/go-tree-survey/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func newFeatures(t *testing.T, girths ...int) [][]byte {
	t.Helper()

	ctx := context.Background()
	features := make([][]byte, len(girths))

	lons := []float64{-0.1, -0.2, -0.3, -0.4, -0.5}

	for i, g := range girths {

		r := &tree.Record{
			FileName:    "tree.jpg",
			Path:        "tree.jpg",
			Girth:       g,
			Longitude:   lons[i],
			Latitude:    51.5,
			HasLocation: true,
		}

		body, err := feature.NewTreeFeature(ctx, r, nil)
		require.NoError(t, err)

		features[i] = body
	}

	return features
}

func TestLeafletRenderer_RenderMap(t *testing.T) {

	ctx := context.Background()

	r, err := NewLeafletRenderer(nil)
	require.NoError(t, err)

	doc, err := r.RenderMap(ctx, newFeatures(t, 450, 1330, 2410))
	require.NoError(t, err)

	html := string(doc)

	for _, l := range DefaultTileLayers {
		assert.Contains(t, html, l.Name)
	}

	assert.Contains(t, html, `"Trees"`)
	assert.Contains(t, html, "marker:radius")
	assert.Contains(t, html, "L.control.layers")
	assert.Contains(t, html, "Girth (mm)")
	assert.Contains(t, html, "[[51.5,-0.3],[51.5,-0.1]]")
	assert.Contains(t, html, `"missing":false`, "every tree was measured")
}

func TestLeafletRenderer_MissingGirth(t *testing.T) {

	ctx := context.Background()

	r, err := NewLeafletRenderer(nil)
	require.NoError(t, err)

	doc, err := r.RenderMap(ctx, newFeatures(t, 450, 0))
	require.NoError(t, err)

	assert.Contains(t, string(doc), MissingColour)
	assert.Contains(t, string(doc), `"missing":true`)
}

func TestLeafletRenderer_NoFeatures(t *testing.T) {

	r, err := NewLeafletRenderer(nil)
	require.NoError(t, err)

	_, err = r.RenderMap(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoFeatures)
}

func TestNewLeafletRenderer_InvalidOptions(t *testing.T) {

	opts := DefaultLeafletRendererOptions()
	opts.TileLayers = nil

	_, err := NewLeafletRenderer(opts)
	assert.Error(t, err)

	opts = DefaultLeafletRendererOptions()
	opts.MinRadius = 20

	_, err = NewLeafletRenderer(opts)
	assert.Error(t, err)
}

func TestGirthScale(t *testing.T) {

	s, err := NewGirthScale(newFeatures(t, 450, 1330, 2410, 0))
	require.NoError(t, err)

	assert.Equal(t, 450.0, s.Min)
	assert.Equal(t, 2410.0, s.Max)

	lo, err := s.Colour(450)
	require.NoError(t, err)

	hi, err := s.Colour(2410)
	require.NoError(t, err)

	assert.NotEqual(t, lo, hi)
	assert.True(t, strings.HasPrefix(lo, "#"))
	assert.Len(t, lo, 7)

	clamped, err := s.Colour(99999)
	require.NoError(t, err)
	assert.Equal(t, hi, clamped)

	assert.Equal(t, 16.0, s.Radius(2410, 3, 16))
	assert.Equal(t, 8.0, s.Radius(1205, 3, 16))
	assert.Equal(t, 3.0, s.Radius(10, 3, 16))

	lg, err := s.Legend(5)
	require.NoError(t, err)
	require.Len(t, lg.Stops, 5)
	assert.Equal(t, "450", lg.Stops[0].Label)
	assert.Equal(t, "2410", lg.Stops[4].Label)
	assert.Equal(t, lo, lg.Stops[0].Colour)
	assert.Equal(t, hi, lg.Stops[4].Colour)
}

func TestGirthScale_SingleValue(t *testing.T) {

	s, err := NewGirthScaleWithRange(1000, 1000)
	require.NoError(t, err)

	_, err = s.Colour(1000)
	assert.NoError(t, err)

	assert.Equal(t, 16.0, s.Radius(1000, 3, 16))

	_, err = NewGirthScaleWithRange(2, 1)
	assert.Error(t, err)
}
