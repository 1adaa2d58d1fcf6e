package tree

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"github.com/sfomuseum/go-tree-survey/common"
	"io"
	"strconv"
	"strings"
)

// GirthColumn is the name of the (required) CSV column containing girths in millimetres.
const GirthColumn string = "Girth_mm"

// FileColumns are the accepted names of the (optional) CSV column naming each row's photograph.
var FileColumns = []string{
	"file",
	"filename",
	"file_name",
}

// ErrMissingColumn is returned when the girth CSV has no GirthColumn.
var ErrMissingColumn = errors.New("Missing column")

// ErrInvalidGirth is returned for girth values that are not positive integers.
var ErrInvalidGirth = errors.New("Invalid girth")

// Girth is a single row of the girth CSV.
type Girth struct {
	// The 1-based line number of the row in the CSV.
	Line int
	// The photograph file name, if the CSV has a file column.
	File string
	// The girth in millimetres. Zero means not measured.
	Millimetres int
}

// Girths is the parsed girth CSV.
type Girths struct {
	Rows []*Girth
	// Keyed is true if the CSV has a file column.
	Keyed bool
}

// ReadGirths reads and parses the CSV at path from the whosonfirst/go-reader reader identified by reader_uri.
func ReadGirths(ctx context.Context, reader_uri string, path string) (*Girths, error) {

	body, err := common.ReadAll(ctx, reader_uri, path)

	if err != nil {
		return nil, err
	}

	g, err := ParseGirths(bytes.NewReader(body))

	if err != nil {
		return nil, fmt.Errorf("Failed to parse %s, %w", path, err)
	}

	return g, nil
}

// ParseGirths parses a girth CSV. Empty and "NA" girth cells are treated as not measured.
func ParseGirths(r io.Reader) (*Girths, error) {

	csv_r := csv.NewReader(r)
	csv_r.TrimLeadingSpace = true

	header, err := csv_r.Read()

	if err == io.EOF {
		return nil, fmt.Errorf("%w '%s', file is empty", ErrMissingColumn, GirthColumn)
	}

	if err != nil {
		return nil, fmt.Errorf("Failed to read header, %w", err)
	}

	girth_idx := -1
	file_idx := -1

	for i, col := range header {

		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))

		if strings.EqualFold(col, GirthColumn) {
			girth_idx = i
			continue
		}

		for _, name := range FileColumns {
			if strings.EqualFold(col, name) {
				file_idx = i
			}
		}
	}

	if girth_idx == -1 {
		return nil, fmt.Errorf("%w '%s'", ErrMissingColumn, GirthColumn)
	}

	g := &Girths{
		Rows:  make([]*Girth, 0),
		Keyed: file_idx > -1,
	}

	for {

		row, err := csv_r.Read()

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("Failed to read row, %w", err)
		}

		line, _ := csv_r.FieldPos(girth_idx)

		mm, err := parseGirth(row[girth_idx])

		if err != nil {
			return nil, fmt.Errorf("%w at line %d, %v", ErrInvalidGirth, line, err)
		}

		row_g := &Girth{
			Line:        line,
			Millimetres: mm,
		}

		if file_idx > -1 {
			row_g.File = strings.TrimSpace(row[file_idx])
		}

		g.Rows = append(g.Rows, row_g)
	}

	return g, nil
}

func parseGirth(v string) (int, error) {

	v = strings.TrimSpace(v)

	if v == "" || strings.EqualFold(v, "NA") {
		return 0, nil
	}

	mm, err := strconv.Atoi(v)

	if err != nil {
		return 0, fmt.Errorf("'%s' is not an integer", v)
	}

	if mm <= 0 {
		return 0, fmt.Errorf("%d is not a positive girth", mm)
	}

	return mm, nil
}
