package lookup

import (
	"context"
	"fmt"
	"github.com/tidwall/gjson"
	"gocloud.dev/blob"
	"io"
	"path/filepath"
	"strings"
	"sync"
)

// BlobLookerUpper implements the LookerUpper interface for the tree features (".geojson" files) of an
// earlier survey stored in a gocloud.dev/blob bucket.
type BlobLookerUpper struct {
	LookerUpper
	bucket *blob.Bucket
}

// NewBlobLookerUpper returns a new BlobLookerUpper for the bucket at uri.
func NewBlobLookerUpper(ctx context.Context, uri string) (LookerUpper, error) {

	bucket, err := blob.OpenBucket(ctx, uri)

	if err != nil {
		return nil, fmt.Errorf("Failed to open bucket, %w", err)
	}

	return NewBlobLookerUpperWithBucket(ctx, bucket)
}

// NewBlobLookerUpperWithBucket returns a new BlobLookerUpper for bucket.
func NewBlobLookerUpperWithBucket(ctx context.Context, bucket *blob.Bucket) (LookerUpper, error) {

	l := &BlobLookerUpper{
		bucket: bucket,
	}

	return l, nil
}

// Append passes an Entry for each tree feature in the bucket to append_funcs.
func (l *BlobLookerUpper) Append(ctx context.Context, lu *sync.Map, append_funcs ...AppendLookupFunc) error {

	bucket_iter := l.bucket.List(nil)

	for {
		obj, err := bucket_iter.Next(ctx)

		if err == io.EOF {
			break
		}

		if err != nil {
			return fmt.Errorf("Failed to list bucket, %w", err)
		}

		if filepath.Ext(obj.Key) != ".geojson" {
			continue
		}

		body, err := l.read(ctx, obj.Key)

		if err != nil {
			return err
		}

		e := EntryFromFeature(body)

		if e.Path == "" {
			continue
		}

		for _, f := range append_funcs {

			err := f(ctx, lu, e)

			if err != nil {
				return fmt.Errorf("Failed to append lookup for %s, %w", obj.Key, err)
			}
		}
	}

	return nil
}

func (l *BlobLookerUpper) read(ctx context.Context, key string) ([]byte, error) {

	fh, err := l.bucket.NewReader(ctx, key, nil)

	if err != nil {
		return nil, fmt.Errorf("Failed to open %s, %w", key, err)
	}

	defer fh.Close()

	body, err := io.ReadAll(fh)

	if err != nil {
		return nil, fmt.Errorf("Failed to read %s, %w", key, err)
	}

	return body, nil
}

// EntryFromFeature returns the Entry for a tree feature (as produced by feature.NewTreeFeature). Path is empty if
// the feature has no "tree:path" property.
func EntryFromFeature(body []byte) *Entry {

	e := &Entry{
		Path:        gjson.GetBytes(body, "properties.tree:path").String(),
		Fingerprint: gjson.GetBytes(body, "properties.media:fingerprint").String(),
		ImageHashes: make(map[string]string),
	}

	props := gjson.GetBytes(body, "properties")

	props.ForEach(func(k gjson.Result, v gjson.Result) bool {

		approach, ok := strings.CutPrefix(k.String(), "media:imagehash_")

		if ok {
			e.ImageHashes[approach] = v.String()
		}

		return true
	})

	return e
}
