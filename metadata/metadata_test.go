package metadata

import (
	"bytes"
	"context"
	"github.com/sfomuseum/go-tree-survey/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestReadFromReader_GPSAndTimestamp(t *testing.T) {

	e := &testutil.EXIF{
		Make:             "TestCam",
		Model:            "TC-1",
		Orientation:      6,
		DateTimeOriginal: testutil.MustTime("2021-05-14 10:32:07"),
		HasGPS:           true,
		Latitude:         51.5,
		Longitude:        -0.125,
	}

	body := testutil.JPEGWithEXIF(16, 16, 10, e)

	md, err := ReadFromReader("oak.jpg", bytes.NewReader(body), nil)
	require.NoError(t, err)

	assert.Equal(t, "oak.jpg", md.Path)
	assert.True(t, md.HasLocation)
	assert.InDelta(t, 51.5, md.Latitude, 1e-9)
	assert.InDelta(t, -0.125, md.Longitude, 1e-9)

	assert.True(t, md.HasTimestamp)
	assert.Equal(t, "2021-05-14T10:32:07Z", md.Timestamp.Format(time.RFC3339))

	assert.Equal(t, 6, md.Orientation)
	assert.Equal(t, "TestCam", md.CameraMake)
	assert.Equal(t, "TC-1", md.CameraModel)
}

func TestReadFromReader_SouthernHemisphere(t *testing.T) {

	e := &testutil.EXIF{
		HasGPS:    true,
		Latitude:  -33.75,
		Longitude: 151.25,
	}

	md, err := ReadFromReader("gum.tif", bytes.NewReader(testutil.EncodeEXIF(e)), nil)
	require.NoError(t, err)

	assert.True(t, md.HasLocation)
	assert.InDelta(t, -33.75, md.Latitude, 1e-9)
	assert.InDelta(t, 151.25, md.Longitude, 1e-9)
	assert.False(t, md.HasTimestamp)
}

func TestReadFromReader_DateTimeFallbackAndLocation(t *testing.T) {

	e := &testutil.EXIF{
		DateTime: testutil.MustTime("2020-01-02 03:04:05"),
	}

	ldn, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	md, err := ReadFromReader("ash.tif", bytes.NewReader(testutil.EncodeEXIF(e)), &ReadOptions{Location: ldn})
	require.NoError(t, err)

	assert.True(t, md.HasTimestamp)
	assert.Equal(t, "Europe/London", md.Timestamp.Location().String())
	assert.Equal(t, 3, md.Timestamp.Hour())
	assert.False(t, md.HasLocation, "no GPS tags were written")
}

func TestReadFromReader_NoEXIF(t *testing.T) {

	md, err := ReadFromReader("plain.jpg", bytes.NewReader(testutil.JPEG(8, 8, 0)), nil)
	require.NoError(t, err, "a photograph without EXIF data is not an error")

	assert.False(t, md.HasLocation)
	assert.False(t, md.HasTimestamp)
	assert.Zero(t, md.Orientation)
}

func TestRead_Bucket(t *testing.T) {

	ctx := context.Background()
	dir := t.TempDir()

	testutil.WriteFiles(t, dir, testutil.TreePhoto("beech.jpg", 52.25, 4.5, "2022-09-01 08:00:00"))
	bucket := testutil.OpenBucket(t, dir)

	md, err := Read(ctx, bucket, "beech.jpg", nil)
	require.NoError(t, err)

	assert.True(t, md.HasLocation)
	assert.InDelta(t, 52.25, md.Latitude, 1e-9)
	assert.InDelta(t, 4.5, md.Longitude, 1e-9)

	_, err = Read(ctx, bucket, "missing.jpg", nil)
	assert.Error(t, err)
}
