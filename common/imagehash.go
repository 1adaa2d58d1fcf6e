package common

import (
	"context"
	"fmt"
	"github.com/corona10/goimagehash"
	"gocloud.dev/blob"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
)

// ImageHash is a struct representing the results of an image hashing operation.
type ImageHash struct {
	// String label describing the image hashing procedure used.
	Approach string `json:"approach"`
	// The hexidecimal hash of an image.
	Hash string `json:"hash"`
}

const (
	ImageHashAverage    string = "avg"
	ImageHashDifference string = "diff"
)

// ImageHashApproaches are the hashing procedures applied by ImageHashes.
var ImageHashApproaches = []string{
	ImageHashAverage,
	ImageHashDifference,
}

// ImageHashes generates a list of ImageHash instances for an image stored in a blob.Bucket instance
// using the corona10/goimagehash package.
func ImageHashes(ctx context.Context, bucket *blob.Bucket, key string) ([]*ImageHash, error) {

	r, err := bucket.NewReader(ctx, key, nil)

	if err != nil {
		return nil, fmt.Errorf("Failed to create reader for %s, %w", key, err)
	}

	defer r.Close()

	im, _, err := image.Decode(r)

	if err != nil {
		return nil, fmt.Errorf("Failed to decode image from %s, %w", key, err)
	}

	return HashImage(ctx, im)
}

// HashImage generates a list of ImageHash instances for im, one for each of ImageHashApproaches.
func HashImage(ctx context.Context, im image.Image) ([]*ImageHash, error) {

	hashes := make([]*ImageHash, 0, len(ImageHashApproaches))

	for _, a := range ImageHashApproaches {

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			// pass
		}

		h, err := imageHash(im, a)

		if err != nil {
			return nil, err
		}

		slog.Debug("Hashed image", "approach", a, "hash", h.Hash)
		hashes = append(hashes, h)
	}

	return hashes, nil
}

func imageHash(im image.Image, approach string) (*ImageHash, error) {

	var h *goimagehash.ImageHash
	var err error

	switch approach {
	case ImageHashAverage:
		h, err = goimagehash.AverageHash(im)
	case ImageHashDifference:
		h, err = goimagehash.DifferenceHash(im)
	default:
		return nil, fmt.Errorf("Unknown image hash approach '%s'", approach)
	}

	if err != nil {
		return nil, fmt.Errorf("Failed to process image hash approach '%s', %w", approach, err)
	}

	rsp := &ImageHash{
		Approach: approach,
		Hash:     h.ToString(),
	}

	return rsp, nil
}
