package tree

import (
	"fmt"
	"github.com/sfomuseum/go-tree-survey/metadata"
	"github.com/sfomuseum/go-tree-survey/operations/gather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func photos(names ...string) []*gather.GatherImagesResponse {

	responses := make([]*gather.GatherImagesResponse, len(names))

	for i, n := range names {
		responses[i] = &gather.GatherImagesResponse{
			Path:        n,
			Fingerprint: fmt.Sprintf("fp-%d", i),
			MimeType:    "image/jpeg",
			Metadata: &metadata.Metadata{
				Path:        n,
				HasLocation: true,
				Latitude:    float64(i),
				Longitude:   float64(-i),
			},
		}
	}

	return responses
}

func positional(mm ...int) *Girths {

	g := &Girths{}

	for i, v := range mm {
		g.Rows = append(g.Rows, &Girth{Line: i + 2, Millimetres: v})
	}

	return g
}

func keyed(pairs ...any) *Girths {

	g := &Girths{Keyed: true}

	for i := 0; i < len(pairs); i += 2 {
		g.Rows = append(g.Rows, &Girth{Line: i/2 + 2, File: pairs[i].(string), Millimetres: pairs[i+1].(int)})
	}

	return g
}

func TestJoin_PositionalPreservesOrder(t *testing.T) {

	girths := []int{450, 500, 1330, 2410, 0}
	names := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"}

	records, err := Join(positional(girths...), photos(names...), JoinAuto)
	require.NoError(t, err)
	require.Len(t, records, len(girths))

	for i, r := range records {
		assert.Equal(t, girths[i], r.Girth, "record %d", i)
		assert.Equal(t, names[i], r.FileName)
		assert.Equal(t, float64(i), r.Latitude)
	}

	assert.False(t, records[4].HasGirth())
}

func TestJoin_PositionalCountMismatch(t *testing.T) {

	_, err := Join(positional(450, 500), photos("a.jpg", "b.jpg", "c.jpg"), JoinPositional)
	assert.ErrorIs(t, err, ErrRowCountMismatch)

	_, err = Join(positional(450, 500, 600), photos("a.jpg", "b.jpg"), JoinPositional)
	assert.ErrorIs(t, err, ErrRowCountMismatch)
}

func TestJoin_KeyedIgnoresRowOrder(t *testing.T) {

	g := keyed("C.JPG", 2410, "a.jpg", 450, "b.jpg", 1330)

	records, err := Join(g, photos("a.jpg", "sub/b.jpg", "c.jpg"), JoinAuto)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, 450, records[0].Girth)
	assert.Equal(t, 1330, records[1].Girth)
	assert.Equal(t, "sub/b.jpg", records[1].Path)
	assert.Equal(t, "b.jpg", records[1].FileName)
	assert.Equal(t, 2410, records[2].Girth)
}

func TestJoin_KeyedErrors(t *testing.T) {

	tests := []struct {
		name   string
		girths *Girths
		photos []string
		err    error
	}{
		{"photo without row", keyed("a.jpg", 1), []string{"a.jpg", "b.jpg"}, ErrUnmatchedPhoto},
		{"row without photo", keyed("a.jpg", 1, "z.jpg", 2), []string{"a.jpg"}, ErrUnmatchedRow},
		{"duplicate row", keyed("a.jpg", 1, "A.jpg", 2), []string{"a.jpg"}, ErrDuplicateKey},
		{"duplicate photo name", keyed("a.jpg", 1), []string{"a.jpg", "sub/a.jpg"}, ErrDuplicateKey},
		{"empty key", keyed("", 1), []string{"a.jpg"}, ErrMissingKey},
		{"no file column", positional(1), []string{"a.jpg"}, ErrMissingKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Join(tt.girths, photos(tt.photos...), JoinKeyed)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParseJoinMode(t *testing.T) {

	m, err := ParseJoinMode("Keyed")
	require.NoError(t, err)
	assert.Equal(t, JoinKeyed, m)

	m, err = ParseJoinMode("")
	require.NoError(t, err)
	assert.Equal(t, JoinAuto, m)

	_, err = ParseJoinMode("zip")
	assert.Error(t, err)
}

func TestMeasuredGirths(t *testing.T) {

	records := []*Record{
		{Girth: 450},
		{Girth: 0},
		{Girth: 2410},
	}

	values, missing := MeasuredGirths(records)
	assert.Equal(t, []float64{450, 2410}, values)
	assert.Equal(t, 1, missing)
}
