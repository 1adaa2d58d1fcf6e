package gather

import (
	"context"
	"github.com/sfomuseum/go-tree-survey/common"
	"github.com/sfomuseum/go-tree-survey/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
)

func TestGatherImages_SortedAndFiltered(t *testing.T) {

	ctx := context.Background()
	dir := t.TempDir()

	testutil.WriteFiles(t, dir,
		testutil.TreePhoto("tree03.jpg", 51.5, -0.25, "2021-05-14 10:00:00"),
		testutil.TreePhoto("tree01.JPG", 51.5, -0.125, "2021-05-14 09:00:00"),
		testutil.TreePhoto("sub/tree02.jpg", 51.75, -0.5, ""),
		testutil.Photo{Name: "girths.csv", Body: []byte("Girth_mm\n450\n")},
		testutil.Photo{Name: "notes.txt", Body: []byte("not a photo")},
	)

	bucket := testutil.OpenBucket(t, dir)

	seen := make([]string, 0)

	opts := &GatherImagesOptions{
		Pattern:    "tree*.jpg",
		HashImages: true,
		Callback: func(ctx context.Context, rsp *GatherImagesResponse) error {
			seen = append(seen, rsp.Path)
			return nil
		},
	}

	responses, err := GatherImages(ctx, bucket, opts)
	require.NoError(t, err)
	require.Len(t, responses, 3)

	expected := []string{"sub/tree02.jpg", "tree01.JPG", "tree03.jpg"}

	paths := make([]string, len(responses))

	for i, rsp := range responses {
		paths[i] = rsp.Path
	}

	assert.Equal(t, expected, paths)
	assert.Equal(t, expected, seen, "callbacks run in key order")

	rsp := responses[1]

	assert.Equal(t, "image/jpeg", rsp.MimeType)
	assert.Len(t, rsp.Fingerprint, 40)
	assert.Positive(t, rsp.Size)
	require.Len(t, rsp.ImageHashes, len(common.ImageHashApproaches))
	assert.Equal(t, common.ImageHashAverage, rsp.ImageHashes[0].Approach)

	require.NotNil(t, rsp.Metadata)
	assert.True(t, rsp.Metadata.HasLocation)
	assert.InDelta(t, -0.125, rsp.Metadata.Longitude, 1e-9)
}

func TestGatherImages_EmptyDirectory(t *testing.T) {

	ctx := context.Background()
	bucket := testutil.OpenBucket(t, t.TempDir())

	_, err := GatherImages(ctx, bucket, &GatherImagesOptions{})
	assert.ErrorIs(t, err, ErrNoImages)
	assert.ErrorIs(t, err, ErrMissingDirectory)
}

func TestGatherImages_NoMatchingPattern(t *testing.T) {

	ctx := context.Background()
	dir := t.TempDir()

	testutil.WriteFiles(t, dir, testutil.TreePhoto("oak.jpg", 1, 1, ""))
	bucket := testutil.OpenBucket(t, dir)

	_, err := GatherImages(ctx, bucket, &GatherImagesOptions{Pattern: "*.png"})
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestOpenBucket_MissingDirectory(t *testing.T) {

	ctx := context.Background()
	uri := "file://" + filepath.ToSlash(filepath.Join(t.TempDir(), "does-not-exist"))

	_, err := OpenBucket(ctx, uri)
	assert.ErrorIs(t, err, ErrMissingDirectory)
}

func TestIsImage(t *testing.T) {

	tests := []struct {
		key      string
		expected bool
	}{
		{"a.jpg", true},
		{"a.JPEG", true},
		{"a.png", true},
		{"a.csv", false},
		{"a", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsImage(tt.key))
		})
	}
}
