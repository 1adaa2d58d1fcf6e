// Package metadata reads the EXIF properties (capture time, GPS location, orientation and camera) of photographs stored in a gocloud.dev/blob.Bucket.
package metadata

import (
	"context"
	"fmt"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"gocloud.dev/blob"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// EXIFTimeLayout is the layout of the EXIF DateTime and DateTimeOriginal tags. Note that
// the tags carry no time zone.
const EXIFTimeLayout string = "2006:01:02 15:04:05"

var register_once sync.Once

// Metadata is the subset of a photograph's EXIF data the survey cares about.
type Metadata struct {
	// The bucket key of the photograph.
	Path string `json:"path"`
	// The capture time. The zero value when HasTimestamp is false.
	Timestamp    time.Time `json:"timestamp"`
	HasTimestamp bool      `json:"has_timestamp"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	// HasLocation is false when the photograph has no EXIF data or no (parseable) GPS tags.
	HasLocation bool `json:"has_location"`
	// The EXIF orientation (1-8) or 0 if absent.
	Orientation int    `json:"orientation,omitempty"`
	CameraMake  string `json:"camera_make,omitempty"`
	CameraModel string `json:"camera_model,omitempty"`
}

// ReadOptions defines options for reading EXIF metadata.
type ReadOptions struct {
	// The time zone used to interpret EXIF timestamps. Defaults to UTC.
	Location *time.Location
}

// Read decodes the EXIF data for the photograph stored at path in bucket. A photograph without
// EXIF data is not an error: the returned Metadata simply has HasTimestamp and HasLocation set to false.
// Errors are only returned if the photograph can not be read.
func Read(ctx context.Context, bucket *blob.Bucket, path string, opts *ReadOptions) (*Metadata, error) {

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		// pass
	}

	fh, err := bucket.NewReader(ctx, path, nil)

	if err != nil {
		return nil, fmt.Errorf("Failed to open %s for reading, %w", path, err)
	}

	defer fh.Close()

	return ReadFromReader(path, fh, opts)
}

// ReadFromReader decodes the EXIF data for the photograph path read from r.
func ReadFromReader(path string, r io.Reader, opts *ReadOptions) (*Metadata, error) {

	register_once.Do(func() {
		exif.RegisterParsers(mknote.All...)
	})

	loc := time.UTC

	if opts != nil && opts.Location != nil {
		loc = opts.Location
	}

	logger := slog.Default()
	logger = logger.With("path", path)

	md := &Metadata{
		Path: path,
	}

	x, err := exif.Decode(r)

	if err != nil {
		logger.Warn("Failed to decode EXIF data", "error", err)
		return md, nil
	}

	t, err := captureTime(x, loc)

	if err == nil {
		md.Timestamp = t
		md.HasTimestamp = true
	} else {
		logger.Debug("No capture time", "error", err)
	}

	lat, lon, err := x.LatLong()

	if err == nil {
		md.Latitude = lat
		md.Longitude = lon
		md.HasLocation = true
	} else {
		logger.Debug("No GPS location", "error", err)
	}

	tag, err := x.Get(exif.Orientation)

	if err == nil {

		o, err := tag.Int(0)

		if err == nil {
			md.Orientation = o
		}
	}

	md.CameraMake = stringTag(x, exif.Make)
	md.CameraModel = stringTag(x, exif.Model)

	return md, nil
}

// captureTime prefers DateTimeOriginal, falling back to DateTime.
func captureTime(x *exif.Exif, loc *time.Location) (time.Time, error) {

	var t time.Time

	tag, err := x.Get(exif.DateTimeOriginal)

	if err != nil {

		tag, err = x.Get(exif.DateTime)

		if err != nil {
			return t, err
		}
	}

	str_dt, err := tag.StringVal()

	if err != nil {
		return t, fmt.Errorf("Failed to read date tag, %w", err)
	}

	str_dt = strings.Trim(str_dt, "\" \x00")

	t, err = time.ParseInLocation(EXIFTimeLayout, str_dt, loc)

	if err != nil {
		return t, fmt.Errorf("Failed to parse date '%s', %w", str_dt, err)
	}

	return t, nil
}

func stringTag(x *exif.Exif, name exif.FieldName) string {

	tag, err := x.Get(name)

	if err != nil {
		return ""
	}

	v, err := tag.StringVal()

	if err != nil {
		return ""
	}

	return strings.TrimSpace(strings.Trim(v, "\x00"))
}
