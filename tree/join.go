package tree

import (
	"errors"
	"fmt"
	"github.com/sfomuseum/go-tree-survey/operations/gather"
	"log/slog"
	"strings"
)

// JoinMode determines how girth rows are paired with photographs.
type JoinMode string

const (
	// JoinAuto uses JoinKeyed if the girth CSV has a file column and JoinPositional otherwise.
	JoinAuto JoinMode = "auto"
	// JoinKeyed pairs rows with photographs by (case-insensitive) file name.
	JoinKeyed JoinMode = "keyed"
	// JoinPositional pairs the i-th row with the i-th photograph, in key order.
	JoinPositional JoinMode = "positional"
)

var (
	// ErrRowCountMismatch is returned by a positional join when there are not exactly as many rows as photographs.
	ErrRowCountMismatch = errors.New("Girth row count does not match photograph count")
	// ErrMissingKey is returned by a keyed join when the CSV has no file column, or a row has an empty file cell.
	ErrMissingKey = errors.New("Missing file name")
	// ErrDuplicateKey is returned by a keyed join when a file name appears more than once.
	ErrDuplicateKey = errors.New("Duplicate file name")
	// ErrUnmatchedPhoto is returned by a keyed join when a photograph has no girth row.
	ErrUnmatchedPhoto = errors.New("Photographs without a girth row")
	// ErrUnmatchedRow is returned by a keyed join when a girth row names an unknown photograph.
	ErrUnmatchedRow = errors.New("Girth rows without a photograph")
)

// ParseJoinMode returns the JoinMode named by s.
func ParseJoinMode(s string) (JoinMode, error) {

	switch m := JoinMode(strings.ToLower(s)); m {
	case JoinAuto, JoinKeyed, JoinPositional:
		return m, nil
	case "":
		return JoinAuto, nil
	default:
		return "", fmt.Errorf("Invalid join mode '%s'", s)
	}
}

// Join merges girths with photographs, returning one Record per photograph in photograph order.
// Mismatches are always errors: nothing is silently dropped or truncated.
func Join(girths *Girths, photos []*gather.GatherImagesResponse, mode JoinMode) ([]*Record, error) {

	if mode == JoinAuto || mode == "" {

		mode = JoinPositional

		if girths.Keyed {
			mode = JoinKeyed
		}
	}

	slog.Debug("Join girths", "mode", mode, "rows", len(girths.Rows), "photos", len(photos))

	switch mode {
	case JoinKeyed:
		return joinKeyed(girths, photos)
	case JoinPositional:
		return joinPositional(girths, photos)
	default:
		return nil, fmt.Errorf("Invalid join mode '%s'", mode)
	}
}

func joinPositional(girths *Girths, photos []*gather.GatherImagesResponse) ([]*Record, error) {

	if len(girths.Rows) != len(photos) {
		return nil, fmt.Errorf("%w: %d rows, %d photographs", ErrRowCountMismatch, len(girths.Rows), len(photos))
	}

	records := make([]*Record, len(photos))

	for i, rsp := range photos {

		row := girths.Rows[i]
		r := NewRecord(rsp)

		if row.File != "" && normalizeKey(row.File) != normalizeKey(r.FileName) {
			slog.Warn("Girth row names a different photograph than the one it is paired with", "line", row.Line, "file", row.File, "photo", r.FileName)
		}

		r.Girth = row.Millimetres
		records[i] = r
	}

	return records, nil
}

func joinKeyed(girths *Girths, photos []*gather.GatherImagesResponse) ([]*Record, error) {

	if !girths.Keyed {
		return nil, fmt.Errorf("%w: girth CSV has no file column (one of %s)", ErrMissingKey, strings.Join(FileColumns, ", "))
	}

	rows := make(map[string]*Girth)

	for _, row := range girths.Rows {

		if row.File == "" {
			return nil, fmt.Errorf("%w at line %d", ErrMissingKey, row.Line)
		}

		k := normalizeKey(row.File)

		other, exists := rows[k]

		if exists {
			return nil, fmt.Errorf("%w '%s' at lines %d and %d", ErrDuplicateKey, row.File, other.Line, row.Line)
		}

		rows[k] = row
	}

	records := make([]*Record, 0, len(photos))
	matched := make(map[string]string)
	unmatched := make([]string, 0)

	for _, rsp := range photos {

		r := NewRecord(rsp)
		k := normalizeKey(r.FileName)

		other, exists := matched[k]

		if exists {
			return nil, fmt.Errorf("%w '%s' for photographs %s and %s", ErrDuplicateKey, r.FileName, other, r.Path)
		}

		matched[k] = r.Path

		row, ok := rows[k]

		if !ok {
			unmatched = append(unmatched, r.Path)
			continue
		}

		r.Girth = row.Millimetres
		records = append(records, r)
	}

	if len(unmatched) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnmatchedPhoto, strings.Join(unmatched, ", "))
	}

	extra := make([]string, 0)

	for _, row := range girths.Rows {

		_, ok := matched[normalizeKey(row.File)]

		if !ok {
			extra = append(extra, fmt.Sprintf("%s (line %d)", row.File, row.Line))
		}
	}

	if len(extra) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnmatchedRow, strings.Join(extra, ", "))
	}

	return records, nil
}
