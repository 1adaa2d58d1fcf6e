// Package tree defines the survey's per-tree record and joins girth measurements to photograph metadata.
package tree

import (
	"github.com/sfomuseum/go-tree-survey/common"
	"github.com/sfomuseum/go-tree-survey/operations/gather"
	"path"
	"strings"
	"time"
)

// Record is a single surveyed tree: one photograph joined with its girth measurement.
type Record struct {
	// The base name of the photograph.
	FileName string `json:"file_name"`
	// The bucket key of the photograph.
	Path string `json:"path"`
	// Capture time, the zero value if the photograph has none.
	Timestamp time.Time `json:"timestamp"`
	// Trunk circumference at 1.4m, in millimetres. Zero means not measured.
	Girth       int     `json:"girth_mm"`
	Longitude   float64 `json:"longitude"`
	Latitude    float64 `json:"latitude"`
	HasLocation bool    `json:"has_location"`

	Fingerprint string              `json:"fingerprint,omitempty"`
	MimeType    string              `json:"mimetype,omitempty"`
	ImageHashes []*common.ImageHash `json:"imagehashes,omitempty"`
	Orientation int                 `json:"orientation,omitempty"`
	CameraMake  string              `json:"camera_make,omitempty"`
	CameraModel string              `json:"camera_model,omitempty"`
	// Key of the record's thumbnail, relative to the output root. Empty if none was produced.
	Thumbnail string `json:"thumbnail,omitempty"`
}

// HasGirth reports whether the tree's girth was measured.
func (r *Record) HasGirth() bool {
	return r.Girth > 0
}

// NewRecord creates a Record, without a girth, from a gathered photograph.
func NewRecord(rsp *gather.GatherImagesResponse) *Record {

	r := &Record{
		FileName:    path.Base(rsp.Path),
		Path:        rsp.Path,
		Fingerprint: rsp.Fingerprint,
		MimeType:    rsp.MimeType,
		ImageHashes: rsp.ImageHashes,
	}

	md := rsp.Metadata

	if md == nil {
		return r
	}

	if md.HasTimestamp {
		r.Timestamp = md.Timestamp
	}

	if md.HasLocation {
		r.Latitude = md.Latitude
		r.Longitude = md.Longitude
		r.HasLocation = true
	}

	r.Orientation = md.Orientation
	r.CameraMake = md.CameraMake
	r.CameraModel = md.CameraModel

	return r
}

// MeasuredGirths returns the measured girths, in record order, and the number of unmeasured records.
func MeasuredGirths(records []*Record) ([]float64, int) {

	values := make([]float64, 0, len(records))
	missing := 0

	for _, r := range records {

		if !r.HasGirth() {
			missing += 1
			continue
		}

		values = append(values, float64(r.Girth))
	}

	return values, missing
}

// normalizeKey maps a file name (or path) to the key used by the keyed join.
func normalizeKey(name string) string {
	return strings.ToLower(path.Base(strings.TrimSpace(name)))
}
