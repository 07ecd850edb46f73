package dataset

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrFileNotFound indicates a named input file is absent.
	ErrFileNotFound = errors.New("file not found")
	// ErrColumnNotFound indicates the header lacks a requested column.
	ErrColumnNotFound = errors.New("column not found")
	// ErrDuplicateKey indicates an id column repeats a key.
	ErrDuplicateKey = errors.New("duplicate key")
)

// ParseError reports a cell that is not a valid prediction value.
type ParseError struct {
	Path   string
	Row    int // 1-based data row, header excluded
	Column string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: row %d, column %q: %s (%q)", filepath.Base(e.Path), e.Row, e.Column, e.Reason, e.Value)
}

// Dataset is one labeled column of predictions, one value per entity.
type Dataset struct {
	Label  string
	Path   string
	Values []float64
	// Keys is parallel to Values when an id column was requested.
	Keys []string
	// ByKey is set when the file was read with an id column, even if it
	// held no data rows.
	ByKey bool
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Values) }

// Keyed reports whether rows carry entity keys.
func (d *Dataset) Keyed() bool { return d.ByKey || len(d.Keys) > 0 }

// Options controls how prediction files are read.
type Options struct {
	// Column holds the prediction values.
	Column string
	// IDColumn optionally holds entity keys used for alignment.
	IDColumn string
	// Delimiter for CSV. If 0, chosen by extension (.tsv -> tab, else comma).
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// Sheet selects the XLSX sheet; empty means the first one.
	Sheet string
}

// DefaultOptions returns options for a plain predictions CSV.
func DefaultOptions() Options {
	return Options{Column: "predicted_weight"}
}

// Loader reads a tabular file format.
type Loader interface {
	CanLoad(filename string) bool
	Open(path string, opt Options) (RowReader, io.Closer, error)
}

// RowReader yields records, header first, and io.EOF at the end.
type RowReader interface {
	Read() ([]string, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(xlsxLoader{})
	// csv is the fallback and must stay last
	Register(csvLoader{})
}

// Load reads the prediction column from the file at path.
func Load(label, path string, opt Options) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w: %w", path, ErrFileNotFound, err)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if opt.Column == "" {
		opt.Column = DefaultOptions().Column
	}
	for _, l := range registry {
		if !l.CanLoad(path) {
			continue
		}
		rr, closer, err := l.Open(path, opt)
		if err != nil {
			return nil, err
		}
		defer closer.Close()
		return extract(label, path, rr, opt)
	}
	return nil, fmt.Errorf("no loader for %s", path)
}

func extract(label, path string, rr RowReader, opt Options) (*Dataset, error) {
	header, err := rr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file: %w %q", filepath.Base(path), ErrColumnNotFound, opt.Column)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	valIdx := columnIndex(header, opt.Column)
	if valIdx < 0 {
		return nil, fmt.Errorf("%s: %w %q (have: %s)", filepath.Base(path), ErrColumnNotFound, opt.Column, strings.Join(header, ", "))
	}
	keyIdx := -1
	if opt.IDColumn != "" {
		keyIdx = columnIndex(header, opt.IDColumn)
		if keyIdx < 0 {
			return nil, fmt.Errorf("%s: %w %q (have: %s)", filepath.Base(path), ErrColumnNotFound, opt.IDColumn, strings.Join(header, ", "))
		}
	}

	ds := &Dataset{Label: label, Path: path, ByKey: keyIdx >= 0}
	var seen map[string]int
	if keyIdx >= 0 {
		seen = make(map[string]int)
	}
	row := 0
	for {
		rec, err := rr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", row+1, err)
		}
		if blank(rec) {
			continue
		}
		row++
		raw := cell(rec, valIdx)
		x, perr := parseNumeric(raw, opt)
		switch {
		case raw == "":
			return nil, &ParseError{Path: path, Row: row, Column: opt.Column, Value: raw, Reason: "missing value"}
		case errors.Is(perr, errAmbiguousComma):
			return nil, &ParseError{Path: path, Row: row, Column: opt.Column, Value: raw, Reason: "ambiguous comma, set the decimal separator"}
		case perr != nil || math.IsNaN(x) || math.IsInf(x, 0):
			return nil, &ParseError{Path: path, Row: row, Column: opt.Column, Value: raw, Reason: "not a number"}
		case x < 0:
			return nil, &ParseError{Path: path, Row: row, Column: opt.Column, Value: raw, Reason: "negative prediction"}
		}
		ds.Values = append(ds.Values, x)
		if keyIdx >= 0 {
			k := cell(rec, keyIdx)
			if first, dup := seen[k]; dup {
				return nil, fmt.Errorf("%s: %w %q in column %q (rows %d and %d)", filepath.Base(path), ErrDuplicateKey, k, opt.IDColumn, first, row)
			}
			seen[k] = row
			ds.Keys = append(ds.Keys, k)
		}
	}
	return ds, nil
}

func columnIndex(header []string, name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range header {
		// Excel exports often carry a BOM on the first header cell.
		h = strings.TrimPrefix(h, "\ufeff")
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i
		}
	}
	return -1
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
