package common

import (
	"context"
	"fmt"
	"github.com/whosonfirst/go-reader/v2"
	"io"
	"sync"
)

var readers = make(map[string]reader.Reader)
var readers_mu = new(sync.RWMutex)

// NewReader returns a whosonfirst/go-reader.Reader instance. Instances
// are cached in memory for repeat lookups.
func NewReader(ctx context.Context, uri string) (reader.Reader, error) {

	readers_mu.RLock()
	r, ok := readers[uri]
	readers_mu.RUnlock()

	if ok {
		return r, nil
	}

	readers_mu.Lock()
	defer readers_mu.Unlock()

	r, ok = readers[uri]

	if ok {
		return r, nil
	}

	r, err := reader.NewReader(ctx, uri)

	if err != nil {
		return nil, fmt.Errorf("Failed to create reader for '%s', %w", uri, err)
	}

	readers[uri] = r
	return r, nil
}

// ReadAll reads the entirety of path from the reader identified by uri.
func ReadAll(ctx context.Context, uri string, path string) ([]byte, error) {

	r, err := NewReader(ctx, uri)

	if err != nil {
		return nil, err
	}

	fh, err := r.Read(ctx, path)

	if err != nil {
		return nil, fmt.Errorf("Failed to open %s for reading, %w", path, err)
	}

	defer fh.Close()

	body, err := io.ReadAll(fh)

	if err != nil {
		return nil, fmt.Errorf("Failed to read %s, %w", path, err)
	}

	return body, nil
}
