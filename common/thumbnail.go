package common

import (
	"bytes"
	"context"
	"fmt"
	"github.com/aaronland/go-image-tools/imaging"
	"github.com/aaronland/go-image-tools/util"
	"github.com/aaronland/go-string/random"
	"github.com/nfnt/resize"
	"gocloud.dev/blob"
	"image/color"
	"log/slog"
	"path/filepath"
	"strings"
)

// DefaultThumbnailSize is the default maximum width or height, in pixels, of a thumbnail.
const DefaultThumbnailSize uint = 240

// ThumbnailOptions defines options for creating a new Thumbnail.
type ThumbnailOptions struct {
	// The maximum width or height of the thumbnail, in pixels.
	MaxDimension uint
	// The EXIF orientation (1-8) of the source image. Orientations 3, 6 and 8 are rotated upright; the mirrored orientations are left as-is.
	Orientation int
}

// Thumbnail is a scaled-down, upright copy of a source image.
type Thumbnail struct {
	// The (bucket) key the thumbnail should be written to, relative to the output root.
	Key string
	// The image format (as reported by the image package) used to encode Body.
	Format string
	// The encoded image.
	Body   []byte
	Width  int
	Height int
}

// NewThumbnail reads the image stored at key in bucket, rotates it upright and scales it to fit opts.MaxDimension.
func NewThumbnail(ctx context.Context, bucket *blob.Bucket, key string, opts *ThumbnailOptions) (*Thumbnail, error) {

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		// pass
	}

	max_dim := opts.MaxDimension

	if max_dim == 0 {
		max_dim = DefaultThumbnailSize
	}

	fh, err := bucket.NewReader(ctx, key, nil)

	if err != nil {
		return nil, fmt.Errorf("Failed to open %s for reading, %w", key, err)
	}

	defer fh.Close()

	im, format, err := util.DecodeImageFromReader(fh)

	if err != nil {
		return nil, fmt.Errorf("Failed to decode %s, %w", key, err)
	}

	degrees := OrientationDegrees(opts.Orientation)

	if degrees != 0 {
		slog.Debug("Rotate image upright", "key", key, "orientation", opts.Orientation, "degrees", degrees)
		im = imaging.Rotate(im, degrees, color.White)
	}

	im = resize.Thumbnail(max_dim, max_dim, im, resize.Lanczos3)

	var buf bytes.Buffer

	err = util.EncodeImage(im, format, &buf)

	if err != nil {
		return nil, fmt.Errorf("Failed to encode thumbnail for %s, %w", key, err)
	}

	thumb_key, err := ThumbnailKey(key, format)

	if err != nil {
		return nil, err
	}

	bounds := im.Bounds()

	t := &Thumbnail{
		Key:    thumb_key,
		Format: format,
		Body:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	return t, nil
}

// ThumbnailKey derives a "thumbnails/{STEM}_{SECRET}_t.{EXT}" key for the source image key. The random
// secret keeps browsers from serving a stale thumbnail when a survey is re-run.
func ThumbnailKey(key string, format string) (string, error) {

	rand_opts := random.DefaultOptions()
	rand_opts.AlphaNumeric = true

	secret, err := random.String(rand_opts)

	if err != nil {
		return "", fmt.Errorf("Failed to generate thumbnail secret, %w", err)
	}

	fname := filepath.Base(key)
	stem := strings.TrimSuffix(fname, filepath.Ext(fname))

	ext := format

	switch format {
	case "jpeg":
		ext = "jpg"
	case "":
		ext = strings.TrimLeft(strings.ToLower(filepath.Ext(fname)), ".")
	}

	return fmt.Sprintf("thumbnails/%s_%s_t.%s", stem, secret, ext), nil
}

// OrientationDegrees returns the counter-clockwise rotation, in degrees, needed to display an image
// with EXIF orientation o upright.
func OrientationDegrees(o int) float64 {

	switch o {
	case 3:
		return 180
	case 6:
		return 270
	case 8:
		return 90
	default:
		return 0
	}
}

