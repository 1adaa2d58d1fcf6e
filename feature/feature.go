// Package feature projects surveyed trees to WGS84 points and produces GeoJSON Feature documents for them.
package feature

import (
	"context"
	"errors"
	"fmt"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sfomuseum/go-tree-survey/tree"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"math"
	"time"
)

// CRS is the coordinate reference system every feature's geometry is expressed in.
const CRS string = "EPSG:4326"

// CRSURN is the OGC URN for CRS, used in a feature collection's "crs" member.
const CRSURN string = "urn:ogc:def:crs:EPSG::4326"

// ErrCoordinateOutOfRange is returned for latitudes outside [-90, 90] or longitudes outside [-180, 180].
var ErrCoordinateOutOfRange = errors.New("Coordinate out of range")

// ErrNoLocation is returned when creating a feature for a record that has no location.
var ErrNoLocation = errors.New("Record has no location")

// Project lifts a longitude, latitude pair in to an orb.Point in the CRS coordinate reference system.
func Project(lon float64, lat float64) (orb.Point, error) {

	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return orb.Point{}, fmt.Errorf("%w: (%f, %f) is not a number", ErrCoordinateOutOfRange, lon, lat)
	}

	if lat < -90.0 || lat > 90.0 {
		return orb.Point{}, fmt.Errorf("%w: latitude %f", ErrCoordinateOutOfRange, lat)
	}

	if lon < -180.0 || lon > 180.0 {
		return orb.Point{}, fmt.Errorf("%w: longitude %f", ErrCoordinateOutOfRange, lon)
	}

	return orb.Point{lon, lat}, nil
}

// NewTreeFeatureOptions is a struct containing application-specific options used in the creation of new tree features.
type NewTreeFeatureOptions struct {
	// Custom properties to assign to the new Feature, keyed by property name (without the "properties." prefix).
	CustomProperties map[string]interface{}
}

// NewTreeFeature creates a new GeoJSON Feature for r. It is an error if r has no location or
// an out of range location.
func NewTreeFeature(ctx context.Context, r *tree.Record, opts *NewTreeFeatureOptions) ([]byte, error) {

	if !r.HasLocation {
		return nil, fmt.Errorf("%w: %s", ErrNoLocation, r.Path)
	}

	pt, err := Project(r.Longitude, r.Latitude)

	if err != nil {
		return nil, fmt.Errorf("Failed to project %s, %w", r.Path, err)
	}

	f := geojson.NewFeature(pt)

	props := f.Properties

	props["tree:file"] = r.FileName
	props["tree:path"] = r.Path

	if r.HasGirth() {
		props["tree:girth_mm"] = r.Girth
	}

	if !r.Timestamp.IsZero() {
		props["tree:created"] = r.Timestamp.Unix()
		props["tree:datetime"] = r.Timestamp.Format(time.RFC3339)
	}

	props["geom:crs"] = CRS
	props["geom:latitude"] = r.Latitude
	props["geom:longitude"] = r.Longitude

	props["media:medium"] = "image"
	props["media:mimetype"] = r.MimeType
	props["media:fingerprint"] = r.Fingerprint

	for _, h := range r.ImageHashes {
		k := fmt.Sprintf("media:imagehash_%s", h.Approach)
		props[k] = h.Hash
	}

	if r.CameraMake != "" || r.CameraModel != "" {
		props["media:camera_make"] = r.CameraMake
		props["media:camera_model"] = r.CameraModel
	}

	if r.Thumbnail != "" {
		props["media:thumbnail"] = r.Thumbnail
	}

	body, err := f.MarshalJSON()

	if err != nil {
		return nil, fmt.Errorf("Failed to marshal feature for %s, %w", r.Path, err)
	}

	if opts != nil {

		for k, v := range opts.CustomProperties {

			path := fmt.Sprintf("properties.%s", k)
			body, err = sjson.SetBytes(body, path, v)

			if err != nil {
				return nil, fmt.Errorf("Failed to assign %s property, %w", path, err)
			}
		}
	}

	return body, nil
}

// PointFromFeature reads back the point geometry of a feature created by NewTreeFeature.
func PointFromFeature(body []byte) (orb.Point, error) {

	crs_rsp := gjson.GetBytes(body, "properties.geom:crs")

	if crs_rsp.Exists() && crs_rsp.String() != CRS {
		return orb.Point{}, fmt.Errorf("Unsupported CRS '%s'", crs_rsp.String())
	}

	f, err := geojson.UnmarshalFeature(body)

	if err != nil {
		return orb.Point{}, fmt.Errorf("Failed to unmarshal feature, %w", err)
	}

	pt, ok := f.Geometry.(orb.Point)

	if !ok {
		return orb.Point{}, fmt.Errorf("Feature geometry is a %s, not a Point", f.Geometry.GeoJSONType())
	}

	return pt, nil
}

// NewFeatureCollection combines features (as produced by NewTreeFeature) in to a FeatureCollection
// with a bounding box and a "crs" member.
func NewFeatureCollection(features [][]byte) (*geojson.FeatureCollection, error) {

	fc := geojson.NewFeatureCollection()
	mp := make(orb.MultiPoint, 0, len(features))

	for i, body := range features {

		f, err := geojson.UnmarshalFeature(body)

		if err != nil {
			return nil, fmt.Errorf("Failed to unmarshal feature at offset %d, %w", i, err)
		}

		pt, ok := f.Geometry.(orb.Point)

		if ok {
			mp = append(mp, pt)
		}

		fc.Append(f)
	}

	if len(mp) > 0 {
		fc.BBox = geojson.NewBBox(mp.Bound())
	}

	fc.ExtraMembers = geojson.Properties{
		"crs": map[string]interface{}{
			"type": "name",
			"properties": map[string]interface{}{
				"name": CRSURN,
			},
		},
	}

	return fc, nil
}
