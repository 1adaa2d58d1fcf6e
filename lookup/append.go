package lookup

import (
	"context"
	"errors"
	"fmt"
	"github.com/sfomuseum/go-tree-survey/common"
	"log/slog"
	"sync"
)

// ErrDuplicateFingerprint is returned when two photographs have the same fingerprint.
var ErrDuplicateFingerprint = errors.New("Duplicate photograph fingerprint")

// AppendLookupFunc adds an Entry to a lookup table, returning an error if the entry conflicts with one already present.
type AppendLookupFunc func(context.Context, *sync.Map, *Entry) error

// FingerprintAppendLookupFunc records e's fingerprint. It is an error (ErrDuplicateFingerprint) for another
// photograph to have been recorded with the same fingerprint.
func FingerprintAppendLookupFunc(ctx context.Context, lu *sync.Map, e *Entry) error {

	if e.Fingerprint == "" {
		return nil
	}

	k := fmt.Sprintf("fingerprint:%s", e.Fingerprint)

	existing, exists := lu.LoadOrStore(k, e.Path)

	if exists && existing.(string) != e.Path {
		return fmt.Errorf("%w: %s is the same file as %s (%s)", ErrDuplicateFingerprint, e.Path, existing, e.Fingerprint)
	}

	return nil
}

// ImageHashAppendLookupFunc records e's average image hash. Photographs that share a hash are logged, but are not
// considered an error; different photographs of the same tree can look alike.
func ImageHashAppendLookupFunc(ctx context.Context, lu *sync.Map, e *Entry) error {

	h, ok := e.ImageHashes[common.ImageHashAverage]

	if !ok || h == "" {
		return nil
	}

	k := fmt.Sprintf("imagehash_%s:%s", common.ImageHashAverage, h)

	existing, exists := lu.LoadOrStore(k, e.Path)

	if exists && existing.(string) != e.Path {
		slog.Warn("Photographs share an image hash", "path", e.Path, "other", existing, "hash", h)
	}

	return nil
}
