// Package testutil provides shared test fixtures: synthetic photographs carrying
// EXIF data and local gocloud.dev/blob buckets to store them in.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"time"
)

// EXIF describes the tags written by EncodeEXIF. Zero values are omitted.
type EXIF struct {
	Make        string
	Model       string
	Orientation int
	// Written to the DateTimeOriginal tag in the Exif sub-IFD.
	DateTimeOriginal time.Time
	// Written to the DateTime tag in IFD0.
	DateTime time.Time
	// HasGPS controls whether the GPS sub-IFD is written.
	HasGPS    bool
	Latitude  float64
	Longitude float64
}

const (
	tiffByte     uint16 = 1
	tiffASCII    uint16 = 2
	tiffShort    uint16 = 3
	tiffLong     uint16 = 4
	tiffRational uint16 = 5
)

type tiffEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

var le = binary.LittleEndian

func asciiEntry(tag uint16, v string) tiffEntry {
	b := append([]byte(v), 0)
	return tiffEntry{tag: tag, typ: tiffASCII, count: uint32(len(b)), data: b}
}

func shortEntry(tag uint16, v uint16) tiffEntry {
	b := make([]byte, 2)
	le.PutUint16(b, v)
	return tiffEntry{tag: tag, typ: tiffShort, count: 1, data: b}
}

func longEntry(tag uint16, v uint32) tiffEntry {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return tiffEntry{tag: tag, typ: tiffLong, count: 1, data: b}
}

func dmsEntry(tag uint16, decimal float64) tiffEntry {

	decimal = math.Abs(decimal)

	deg := math.Floor(decimal)
	minutes := math.Floor((decimal - deg) * 60)
	seconds := (decimal - deg - minutes/60) * 3600

	rats := [][2]uint32{
		{uint32(deg), 1},
		{uint32(minutes), 1},
		{uint32(math.Round(seconds * 10000)), 10000},
	}

	b := make([]byte, 0, 24)

	for _, r := range rats {
		b = le.AppendUint32(b, r[0])
		b = le.AppendUint32(b, r[1])
	}

	return tiffEntry{tag: tag, typ: tiffRational, count: 3, data: b}
}

func ifdSize(entries []tiffEntry) int {
	return 2 + 12*len(entries) + 4
}

// EncodeEXIF returns a little-endian TIFF stream containing the tags in e.
func EncodeEXIF(e *EXIF) []byte {

	ifd0 := make([]tiffEntry, 0)
	exif_ifd := make([]tiffEntry, 0)
	gps_ifd := make([]tiffEntry, 0)

	if e.Make != "" {
		ifd0 = append(ifd0, asciiEntry(0x010F, e.Make))
	}

	if e.Model != "" {
		ifd0 = append(ifd0, asciiEntry(0x0110, e.Model))
	}

	if e.Orientation != 0 {
		ifd0 = append(ifd0, shortEntry(0x0112, uint16(e.Orientation)))
	}

	if !e.DateTime.IsZero() {
		ifd0 = append(ifd0, asciiEntry(0x0132, e.DateTime.Format("2006:01:02 15:04:05")))
	}

	if !e.DateTimeOriginal.IsZero() {
		exif_ifd = append(exif_ifd, asciiEntry(0x9003, e.DateTimeOriginal.Format("2006:01:02 15:04:05")))
	}

	if e.HasGPS {

		lat_ref := "N"

		if e.Latitude < 0 {
			lat_ref = "S"
		}

		lon_ref := "E"

		if e.Longitude < 0 {
			lon_ref = "W"
		}

		gps_ifd = append(gps_ifd,
			asciiEntry(0x0001, lat_ref),
			dmsEntry(0x0002, e.Latitude),
			asciiEntry(0x0003, lon_ref),
			dmsEntry(0x0004, e.Longitude),
		)
	}

	// pointer entries are placeholders until offsets are known; tags must stay sorted

	exif_ptr := -1
	gps_ptr := -1

	if len(exif_ifd) > 0 {
		exif_ptr = len(ifd0)
		ifd0 = append(ifd0, longEntry(0x8769, 0))
	}

	if len(gps_ifd) > 0 {
		gps_ptr = len(ifd0)
		ifd0 = append(ifd0, longEntry(0x8825, 0))
	}

	ifds := [][]tiffEntry{ifd0}

	offset := 8 + ifdSize(ifd0)

	if exif_ptr > -1 {
		le.PutUint32(ifd0[exif_ptr].data, uint32(offset))
		ifds = append(ifds, exif_ifd)
		offset += ifdSize(exif_ifd)
	}

	if gps_ptr > -1 {
		le.PutUint32(ifd0[gps_ptr].data, uint32(offset))
		ifds = append(ifds, gps_ifd)
		offset += ifdSize(gps_ifd)
	}

	data_offset := offset

	var out bytes.Buffer
	var data bytes.Buffer

	out.WriteString("II")
	out.Write(le.AppendUint16(nil, 42))
	out.Write(le.AppendUint32(nil, 8))

	for _, ifd := range ifds {

		out.Write(le.AppendUint16(nil, uint16(len(ifd))))

		for _, en := range ifd {

			out.Write(le.AppendUint16(nil, en.tag))
			out.Write(le.AppendUint16(nil, en.typ))
			out.Write(le.AppendUint32(nil, en.count))

			if len(en.data) <= 4 {
				v := make([]byte, 4)
				copy(v, en.data)
				out.Write(v)
				continue
			}

			out.Write(le.AppendUint32(nil, uint32(data_offset+data.Len())))
			data.Write(en.data)

			if data.Len()%2 != 0 {
				data.WriteByte(0)
			}
		}

		// no next IFD; sub-IFDs are only reachable through their pointers
		out.Write(le.AppendUint32(nil, 0))
	}

	out.Write(data.Bytes())
	return out.Bytes()
}

// JPEG returns a w x h JPEG image filled with a gradient seeded by shade.
func JPEG(w int, h int, shade uint8) []byte {

	im := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			im.Set(x, y, color.RGBA{R: shade, G: uint8(x * 255 / w), B: uint8(y * 255 / h), A: 255})
		}
	}

	var buf bytes.Buffer

	err := jpeg.Encode(&buf, im, &jpeg.Options{Quality: 90})

	if err != nil {
		panic(err)
	}

	return buf.Bytes()
}

// JPEGWithEXIF returns a JPEG image with e embedded in an APP1 segment.
func JPEGWithEXIF(w int, h int, shade uint8, e *EXIF) []byte {

	im := JPEG(w, h, shade)
	tiff := EncodeEXIF(e)

	payload := append([]byte("Exif\x00\x00"), tiff...)

	var buf bytes.Buffer

	buf.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	buf.Write(binary.BigEndian.AppendUint16(nil, uint16(len(payload)+2)))
	buf.Write(payload)
	buf.Write(im[2:])

	return buf.Bytes()
}
