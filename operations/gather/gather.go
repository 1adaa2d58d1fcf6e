// Package gather enumerates the photographs stored in a gocloud.dev/blob.Bucket and
// collects their fingerprints, image hashes and EXIF metadata.
//
// A directory that can not be read and a directory with no matching photographs are both missing-file
// errors: each matches ErrMissingDirectory, and the latter also matches ErrNoImages.
package gather

import (
	"context"
	"errors"
	"fmt"
	"github.com/sfomuseum/go-tree-survey/common"
	"github.com/sfomuseum/go-tree-survey/metadata"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
	"io"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrMissingDirectory is returned when the photograph bucket can not be opened or listed.
var ErrMissingDirectory = errors.New("Missing photograph directory")

// ErrNoImages is returned, wrapped together with ErrMissingDirectory, when the photograph bucket contains no
// images matching the requested pattern.
var ErrNoImages = errors.New("No photographs found")

// DefaultPattern matches every file name; only files with an image/* mimetype are gathered.
const DefaultPattern string = "*"

// GatherImagesResponse describes a single gathered photograph.
type GatherImagesResponse struct {
	Path        string              `json:"path"`
	Fingerprint string              `json:"fingerprint"`
	Size        int64               `json:"size"`
	MimeType    string              `json:"mimetype"`
	ImageHashes []*common.ImageHash `json:"imagehashes,omitempty"`
	Metadata    *metadata.Metadata  `json:"metadata"`
}

// GatherImageCallbackFunc is invoked, in key order, for each gathered photograph.
type GatherImageCallbackFunc func(context.Context, *GatherImagesResponse) error

// GatherImagesOptions defines options for gathering photographs.
type GatherImagesOptions struct {
	// A filename glob (see path.Match) matched, case-insensitively, against the base name of each key.
	Pattern string
	// Derive perceptual image hashes for each photograph. Photographs that can not be decoded are logged and left unhashed.
	HashImages bool
	// Options used to read EXIF metadata.
	Metadata *metadata.ReadOptions
	// An optional callback invoked for each photograph.
	Callback GatherImageCallbackFunc
}

// OpenBucket opens the gocloud.dev/blob bucket for uri, reporting failures as ErrMissingDirectory.
func OpenBucket(ctx context.Context, uri string) (*blob.Bucket, error) {

	bucket, err := blob.OpenBucket(ctx, uri)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to open '%s', %v", ErrMissingDirectory, uri, err)
	}

	return bucket, nil
}

// GatherImages gathers every photograph in bucket matching opts.Pattern. Responses are sorted by key.
// It is an error for bucket to contain no matching photographs.
func GatherImages(ctx context.Context, bucket *blob.Bucket, opts *GatherImagesOptions) ([]*GatherImagesResponse, error) {

	pattern := opts.Pattern

	if pattern == "" {
		pattern = DefaultPattern
	}

	paths, err := CrawlImages(ctx, bucket, pattern)

	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %w matching '%s'", ErrMissingDirectory, ErrNoImages, pattern)
	}

	responses := make([]*GatherImagesResponse, 0, len(paths))

	for _, p := range paths {

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			// pass
		}

		rsp, err := GatherImageResponseWithPath(ctx, bucket, p, opts)

		if err != nil {
			return nil, fmt.Errorf("Failed to gather %s, %w", p, err)
		}

		if opts.Callback != nil {

			err := opts.Callback(ctx, rsp)

			if err != nil {
				return nil, fmt.Errorf("Failed to process %s, %w", p, err)
			}
		}

		responses = append(responses, rsp)
	}

	return responses, nil
}

// CrawlImages iterates through all the items stored in a blob.Bucket instance and returns the sorted keys
// of those that are images and whose base name matches pattern.
func CrawlImages(ctx context.Context, bucket *blob.Bucket, pattern string) ([]string, error) {

	pattern = strings.ToLower(pattern)

	_, err := path.Match(pattern, "")

	if err != nil {
		return nil, fmt.Errorf("Invalid pattern '%s', %w", pattern, err)
	}

	paths := make([]string, 0)

	var list func(context.Context, *blob.Bucket, string) error

	list = func(ctx context.Context, b *blob.Bucket, prefix string) error {

		iter := b.List(&blob.ListOptions{
			Delimiter: "/",
			Prefix:    prefix,
		})

		for {

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				// pass
			}

			obj, err := iter.Next(ctx)

			if err == io.EOF {
				break
			}

			if err != nil {

				if gcerrors.Code(err) == gcerrors.NotFound {
					return fmt.Errorf("%w: %v", ErrMissingDirectory, err)
				}

				return err
			}

			if obj.IsDir {

				err := list(ctx, b, obj.Key)

				if err != nil {
					return err
				}

				continue
			}

			if !IsImage(obj.Key) {
				continue
			}

			fname := strings.ToLower(path.Base(obj.Key))

			ok, _ := path.Match(pattern, fname)

			if !ok {
				slog.Debug("Skip file not matching pattern", "key", obj.Key, "pattern", pattern)
				continue
			}

			paths = append(paths, obj.Key)
		}

		return nil
	}

	err = list(ctx, bucket, "")

	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// IsImage reports whether the mimetype derived from key's extension is an image/* type.
func IsImage(key string) bool {
	return strings.HasPrefix(mime.TypeByExtension(filepath.Ext(key)), "image/")
}

// GatherImageResponseWithPath gathers the fingerprint, image hashes and metadata for the photograph stored at key.
func GatherImageResponseWithPath(ctx context.Context, bucket *blob.Bucket, key string, opts *GatherImagesOptions) (*GatherImagesResponse, error) {

	logger := slog.Default()
	logger = logger.With("key", key)

	t := mime.TypeByExtension(filepath.Ext(key))

	fp, err := common.FingerprintFile(ctx, bucket, key)

	if err != nil {
		return nil, err
	}

	md, err := metadata.Read(ctx, bucket, key, opts.Metadata)

	if err != nil {
		return nil, err
	}

	rsp := &GatherImagesResponse{
		Path:        key,
		MimeType:    t,
		Fingerprint: fp.Hash,
		Size:        fp.Size,
		Metadata:    md,
	}

	if opts.HashImages {

		hashes, err := common.ImageHashes(ctx, bucket, key)

		if err != nil {
			logger.Warn("Failed to hash image", "error", err)
		} else {
			rsp.ImageHashes = hashes
		}
	}

	logger.Debug("Gathered image", "fingerprint", fp.Hash, "has location", md.HasLocation)
	return rsp, nil
}
