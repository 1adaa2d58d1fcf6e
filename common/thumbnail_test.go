package common

import (
	"bytes"
	"context"
	"github.com/sfomuseum/go-tree-survey/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"image"
	"regexp"
	"testing"
)

func TestNewThumbnail_Orientation(t *testing.T) {

	ctx := context.Background()
	dir := t.TempDir()

	testutil.WriteFiles(t, dir, testutil.Photo{Name: "oak.jpg", Body: testutil.JPEG(64, 32, 100)})
	bucket := testutil.OpenBucket(t, dir)

	tests := []struct {
		orientation int
		width       int
		height      int
	}{
		{1, 32, 16},
		{3, 32, 16},
		{6, 16, 32},
		{8, 16, 32},
	}

	for _, tt := range tests {

		th, err := NewThumbnail(ctx, bucket, "oak.jpg", &ThumbnailOptions{
			MaxDimension: 32,
			Orientation:  tt.orientation,
		})

		require.NoError(t, err)

		assert.Equal(t, tt.width, th.Width, "width for orientation %d", tt.orientation)
		assert.Equal(t, tt.height, th.Height, "height for orientation %d", tt.orientation)
		assert.Equal(t, "jpeg", th.Format)

		cfg, _, err := image.DecodeConfig(bytes.NewReader(th.Body))
		require.NoError(t, err)

		assert.Equal(t, tt.width, cfg.Width)
		assert.Equal(t, tt.height, cfg.Height)
	}
}

func TestNewThumbnail_DefaultSize(t *testing.T) {

	ctx := context.Background()
	dir := t.TempDir()

	testutil.WriteFiles(t, dir, testutil.Photo{Name: "elm.jpg", Body: testutil.JPEG(480, 360, 50)})
	bucket := testutil.OpenBucket(t, dir)

	th, err := NewThumbnail(ctx, bucket, "elm.jpg", &ThumbnailOptions{})
	require.NoError(t, err)

	assert.Equal(t, int(DefaultThumbnailSize), th.Width)
	assert.Equal(t, 180, th.Height)
}

func TestOrientationDegrees(t *testing.T) {

	tests := map[int]float64{
		0: 0,
		1: 0,
		2: 0,
		3: 180,
		6: 270,
		8: 90,
	}

	for o, expected := range tests {
		assert.Equal(t, expected, OrientationDegrees(o), "orientation %d", o)
	}
}

func TestThumbnailKey(t *testing.T) {

	re := regexp.MustCompile(`^thumbnails/oak_[a-zA-Z0-9]+_t\.jpg$`)

	k, err := ThumbnailKey("trees/oak.JPG", "jpeg")
	require.NoError(t, err)
	assert.Regexp(t, re, k)

	k2, err := ThumbnailKey("trees/oak.JPG", "jpeg")
	require.NoError(t, err)
	assert.NotEqual(t, k, k2)
}
