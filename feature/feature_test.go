package feature

import (
	"context"
	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-tree-survey/common"
	"github.com/sfomuseum/go-tree-survey/internal/testutil"
	"github.com/sfomuseum/go-tree-survey/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"math"
	"testing"
)

func TestProject_Range(t *testing.T) {

	tests := []struct {
		name string
		lon  float64
		lat  float64
		ok   bool
	}{
		{"origin", 0, 0, true},
		{"corners", 180, -90, true},
		{"other corners", -180, 90, true},
		{"latitude too large", 10, 90.0001, false},
		{"latitude too small", 10, -91, false},
		{"longitude too large", 180.5, 0, false},
		{"longitude too small", -200, 0, false},
		{"not a number", math.NaN(), 0, false},
		{"infinite", 0, math.Inf(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {

			pt, err := Project(tt.lon, tt.lat)

			if !tt.ok {
				assert.ErrorIs(t, err, ErrCoordinateOutOfRange)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.lon, pt.Lon())
			assert.Equal(t, tt.lat, pt.Lat())
		})
	}
}

func TestNewTreeFeature_RoundTrip(t *testing.T) {

	ctx := context.Background()

	coords := [][2]float64{
		{-0.1275, 51.507222},
		{151.209444, -33.865},
		{-122.419416, 37.774929},
		{0.1 + 0.2, 1.0 / 3.0},
	}

	for _, c := range coords {

		r := &tree.Record{
			FileName:    "oak.jpg",
			Path:        "oak.jpg",
			Longitude:   c[0],
			Latitude:    c[1],
			HasLocation: true,
		}

		body, err := NewTreeFeature(ctx, r, nil)
		require.NoError(t, err)

		pt, err := PointFromFeature(body)
		require.NoError(t, err)

		assert.Equal(t, c[0], pt.Lon(), "longitude is preserved exactly")
		assert.Equal(t, c[1], pt.Lat(), "latitude is preserved exactly")
	}
}

func TestNewTreeFeature_Properties(t *testing.T) {

	ctx := context.Background()

	r := &tree.Record{
		FileName:    "oak.jpg",
		Path:        "park/oak.jpg",
		Timestamp:   testutil.MustTime("2021-05-14 10:32:07"),
		Girth:       1330,
		Longitude:   -0.125,
		Latitude:    51.5,
		HasLocation: true,
		Fingerprint: "abc",
		MimeType:    "image/jpeg",
		ImageHashes: []*common.ImageHash{{Approach: "avg", Hash: "a:ff"}},
		CameraMake:  "TestCam",
		Thumbnail:   "thumbnails/oak_x_t.jpg",
	}

	opts := &NewTreeFeatureOptions{
		CustomProperties: map[string]interface{}{
			"survey:id": "run-1",
		},
	}

	body, err := NewTreeFeature(ctx, r, opts)
	require.NoError(t, err)

	assert.Equal(t, "Feature", gjson.GetBytes(body, "type").String())
	assert.Equal(t, "Point", gjson.GetBytes(body, "geometry.type").String())
	assert.Equal(t, CRS, gjson.GetBytes(body, "properties.geom:crs").String())
	assert.Equal(t, int64(1330), gjson.GetBytes(body, "properties.tree:girth_mm").Int())
	assert.Equal(t, "oak.jpg", gjson.GetBytes(body, "properties.tree:file").String())
	assert.Equal(t, "2021-05-14T10:32:07Z", gjson.GetBytes(body, "properties.tree:datetime").String())
	assert.Equal(t, "a:ff", gjson.GetBytes(body, "properties.media:imagehash_avg").String())
	assert.Equal(t, "thumbnails/oak_x_t.jpg", gjson.GetBytes(body, "properties.media:thumbnail").String())
	assert.Equal(t, "run-1", gjson.GetBytes(body, "properties.survey:id").String())
}

func TestNewTreeFeature_Errors(t *testing.T) {

	ctx := context.Background()

	_, err := NewTreeFeature(ctx, &tree.Record{Path: "a.jpg"}, nil)
	assert.ErrorIs(t, err, ErrNoLocation)

	_, err = NewTreeFeature(ctx, &tree.Record{Path: "a.jpg", Latitude: 95, HasLocation: true}, nil)
	assert.ErrorIs(t, err, ErrCoordinateOutOfRange)
}

func TestNewTreeFeature_NoGirth(t *testing.T) {

	body, err := NewTreeFeature(context.Background(), &tree.Record{Path: "a.jpg", HasLocation: true}, nil)
	require.NoError(t, err)

	assert.False(t, gjson.GetBytes(body, "properties.tree:girth_mm").Exists())
	assert.False(t, gjson.GetBytes(body, "properties.tree:created").Exists())
}

func TestNewFeatureCollection(t *testing.T) {

	ctx := context.Background()

	features := make([][]byte, 0)

	for _, pt := range []orb.Point{{-1, 50}, {2, 52}, {0.5, 51}} {

		r := &tree.Record{Path: "a.jpg", Longitude: pt.Lon(), Latitude: pt.Lat(), HasLocation: true}

		body, err := NewTreeFeature(ctx, r, nil)
		require.NoError(t, err)

		features = append(features, body)
	}

	fc, err := NewFeatureCollection(features)
	require.NoError(t, err)

	assert.Len(t, fc.Features, 3)

	bound := fc.BBox.Bound()
	assert.Equal(t, orb.Point{-1, 50}, bound.Min)
	assert.Equal(t, orb.Point{2, 52}, bound.Max)

	body, err := fc.MarshalJSON()
	require.NoError(t, err)

	assert.Equal(t, CRSURN, gjson.GetBytes(body, "crs.properties.name").String())
}
