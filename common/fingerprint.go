package common

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"gocloud.dev/blob"
	"io"
)

// Fingerprint describes the SHA-1 hash and size of a file stored in a blob.Bucket instance.
type Fingerprint struct {
	// The hexidecimal SHA-1 hash of the file's contents.
	Hash string `json:"hash"`
	// The size of the file in bytes.
	Size int64 `json:"size"`
}

// FingerprintFile generates a SHA-1 hash of a file stored in a blob.Bucket instance.
func FingerprintFile(ctx context.Context, bucket *blob.Bucket, key string) (*Fingerprint, error) {

	fh, err := bucket.NewReader(ctx, key, nil)

	if err != nil {
		return nil, fmt.Errorf("Failed to open %s for reading, %w", key, err)
	}

	defer fh.Close()

	h := sha1.New()

	sz, err := io.Copy(h, fh)

	if err != nil {
		return nil, fmt.Errorf("Failed to hash %s, %w", key, err)
	}

	fp := &Fingerprint{
		Hash: hex.EncodeToString(h.Sum(nil)),
		Size: sz,
	}

	return fp, nil
}
