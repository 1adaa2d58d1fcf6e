package tree

import (
	"context"
	"github.com/google/go-cmp/cmp"
	"github.com/sfomuseum/go-tree-survey/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestParseGirths_Positional(t *testing.T) {

	g, err := ParseGirths(strings.NewReader("Girth_mm\n450\n1330\nNA\n\n2410\n"))
	require.NoError(t, err)

	assert.False(t, g.Keyed)

	expected := []*Girth{
		{Line: 2, Millimetres: 450},
		{Line: 3, Millimetres: 1330},
		{Line: 4, Millimetres: 0},
		{Line: 6, Millimetres: 2410},
	}

	if diff := cmp.Diff(expected, g.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParseGirths_Keyed(t *testing.T) {

	csv := "\ufeffTree,File,girth_mm\nT1, oak.jpg ,1200\nT2,ash.jpg,\n"

	g, err := ParseGirths(strings.NewReader(csv))
	require.NoError(t, err)

	assert.True(t, g.Keyed)
	require.Len(t, g.Rows, 2)

	assert.Equal(t, "oak.jpg", g.Rows[0].File)
	assert.Equal(t, 1200, g.Rows[0].Millimetres)
	assert.Equal(t, "ash.jpg", g.Rows[1].File)
	assert.Zero(t, g.Rows[1].Millimetres)
}

func TestParseGirths_Errors(t *testing.T) {

	tests := []struct {
		name string
		csv  string
		err  error
	}{
		{"empty file", "", ErrMissingColumn},
		{"no girth column", "file,width\na.jpg,3\n", ErrMissingColumn},
		{"not an integer", "Girth_mm\n12.5\n", ErrInvalidGirth},
		{"negative", "Girth_mm\n-3\n", ErrInvalidGirth},
		{"zero", "Girth_mm\n0\n", ErrInvalidGirth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGirths(strings.NewReader(tt.csv))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParseGirths_InvalidLineNumber(t *testing.T) {

	_, err := ParseGirths(strings.NewReader("Girth_mm\n450\nbig\n"))
	require.ErrorIs(t, err, ErrInvalidGirth)
	assert.Contains(t, err.Error(), "line 3")
}

func TestReadGirths(t *testing.T) {

	ctx := context.Background()
	dir := t.TempDir()

	testutil.WriteFiles(t, dir, testutil.Photo{Name: "girths.csv", Body: []byte("Girth_mm\n450\n1330\n2410\n")})

	g, err := ReadGirths(ctx, "fs://"+dir, "girths.csv")
	require.NoError(t, err)
	require.Len(t, g.Rows, 3)
	assert.Equal(t, 2410, g.Rows[2].Millimetres)

	_, err = ReadGirths(ctx, "fs://"+dir, "missing.csv")
	assert.Error(t, err)
}
