package testutil

import (
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Photo is a named fixture file.
type Photo struct {
	Name string
	Body []byte
}

// WriteFiles writes each photo to dir.
func WriteFiles(t *testing.T, dir string, photos ...Photo) {
	t.Helper()

	for _, p := range photos {
		path := filepath.Join(dir, p.Name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, p.Body, 0644))
	}
}

// OpenBucket opens dir as a fileblob bucket that is closed when the test ends.
func OpenBucket(t *testing.T, dir string) *blob.Bucket {
	t.Helper()

	bucket, err := fileblob.OpenBucket(dir, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		bucket.Close()
	})

	return bucket
}

// TreePhoto returns a small JPEG photograph tagged with a GPS location and capture time.
func TreePhoto(name string, lat float64, lon float64, taken string) Photo {

	e := &EXIF{
		Make:      "TestCam",
		Model:     "TC-1",
		HasGPS:    true,
		Latitude:  lat,
		Longitude: lon,
	}

	if taken != "" {
		e.DateTimeOriginal = MustTime(taken)
	}

	return Photo{
		Name: name,
		Body: JPEGWithEXIF(32, 24, shade(name), e),
	}
}

// UntaggedPhoto returns a small JPEG photograph with no EXIF data.
func UntaggedPhoto(name string) Photo {
	return Photo{
		Name: name,
		Body: JPEG(32, 24, 200),
	}
}

// MustTime parses a "2006-01-02 15:04:05" string in UTC.
func MustTime(s string) time.Time {

	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)

	if err != nil {
		panic(err)
	}

	return t
}

func shade(name string) uint8 {

	var s uint8

	for _, c := range []byte(name) {
		s = s*31 + c
	}

	return s
}
