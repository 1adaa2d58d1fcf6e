package common

import (
	"bytes"
	"context"
	"fmt"
	"github.com/whosonfirst/go-ioutil"
	"github.com/whosonfirst/go-writer/v3"
	"sync"
)

var writers = make(map[string]writer.Writer)
var writers_mu = new(sync.RWMutex)

// NewWriter returns a whosonfirst/go-writer.Writer instance. Instances
// are cached in memory for repeat lookups.
func NewWriter(ctx context.Context, uri string) (writer.Writer, error) {

	writers_mu.Lock()
	defer writers_mu.Unlock()

	wr, ok := writers[uri]

	if ok {
		return wr, nil
	}

	wr, err := writer.NewWriter(ctx, uri)

	if err != nil {
		return nil, fmt.Errorf("Failed to create writer for '%s', %w", uri, err)
	}

	writers[uri] = wr
	return wr, nil
}

// WriteBytes writes body to path using the writer identified by uri.
func WriteBytes(ctx context.Context, uri string, path string, body []byte) error {

	wr, err := NewWriter(ctx, uri)

	if err != nil {
		return err
	}

	br := bytes.NewReader(body)
	fh, err := ioutil.NewReadSeekCloser(br)

	if err != nil {
		return fmt.Errorf("Failed to create ReadSeekCloser for %s, %w", path, err)
	}

	_, err = wr.Write(ctx, path, fh)

	if err != nil {
		return fmt.Errorf("Failed to write %s, %w", path, err)
	}

	return nil
}

// CloseWriter closes and evicts the cached writer for uri, if present.
func CloseWriter(ctx context.Context, uri string) error {

	writers_mu.Lock()
	defer writers_mu.Unlock()

	wr, ok := writers[uri]

	if !ok {
		return nil
	}

	delete(writers, uri)

	err := wr.Close(ctx)

	if err != nil {
		return fmt.Errorf("Failed to close writer for '%s', %w", uri, err)
	}

	return nil
}
