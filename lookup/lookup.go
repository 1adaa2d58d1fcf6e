// Package lookup builds lookup tables of photograph fingerprints and image hashes in order to detect
// photographs that have been surveyed more than once.
package lookup

import (
	"context"
	"fmt"
	"github.com/sfomuseum/go-tree-survey/operations/gather"
	"sync"
)

// this will/should probably be updated to use aaronland/go-roster but there are only two
// implementations so the constructors are called directly

// LookerUpper is the interface for things that feed photograph entries to one or more AppendLookupFunc functions.
type LookerUpper interface {
	Append(context.Context, *sync.Map, ...AppendLookupFunc) error
}

// Entry is the lookup view of a single photograph.
type Entry struct {
	Path        string
	Fingerprint string
	// Image hashes keyed by approach (see common.ImageHashApproaches).
	ImageHashes map[string]string
}

// EntryFromResponse returns the Entry for a gathered photograph.
func EntryFromResponse(rsp *gather.GatherImagesResponse) *Entry {

	e := &Entry{
		Path:        rsp.Path,
		Fingerprint: rsp.Fingerprint,
		ImageHashes: make(map[string]string),
	}

	for _, h := range rsp.ImageHashes {
		e.ImageHashes[h.Approach] = h.Hash
	}

	return e
}

// NewLookupMap returns a lookup table populated by passing every entry produced by looker_uppers to append_funcs.
// The first error returned by any LookerUpper is returned.
func NewLookupMap(ctx context.Context, looker_uppers []LookerUpper, append_funcs []AppendLookupFunc) (*sync.Map, error) {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lu := new(sync.Map)

	done_ch := make(chan bool, len(looker_uppers))
	err_ch := make(chan error, len(looker_uppers))

	remaining := len(looker_uppers)

	for _, l := range looker_uppers {

		go func(l LookerUpper) {

			defer func() {
				done_ch <- true
			}()

			err := l.Append(ctx, lu, append_funcs...)

			if err != nil {
				err_ch <- err
			}

		}(l)
	}

	for remaining > 0 {
		select {
		case <-done_ch:
			remaining -= 1
		case err := <-err_ch:
			return nil, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	select {
	case err := <-err_ch:
		return nil, err
	default:
		// pass
	}

	return lu, nil
}

// ResponsesLookerUpper implements the LookerUpper interface for a list of gathered photographs.
type ResponsesLookerUpper struct {
	LookerUpper
	responses []*gather.GatherImagesResponse
}

// NewResponsesLookerUpper returns a new ResponsesLookerUpper for responses.
func NewResponsesLookerUpper(ctx context.Context, responses []*gather.GatherImagesResponse) (LookerUpper, error) {

	l := &ResponsesLookerUpper{
		responses: responses,
	}

	return l, nil
}

// Append passes an Entry for each gathered photograph, in order, to append_funcs.
func (l *ResponsesLookerUpper) Append(ctx context.Context, lu *sync.Map, append_funcs ...AppendLookupFunc) error {

	for _, rsp := range l.responses {

		select {
		case <-ctx.Done():
			return nil
		default:
			// pass
		}

		e := EntryFromResponse(rsp)

		for _, f := range append_funcs {

			err := f(ctx, lu, e)

			if err != nil {
				return fmt.Errorf("Failed to append lookup for %s, %w", e.Path, err)
			}
		}
	}

	return nil
}
