// Package table holds CSV artifacts as header plus string cells. Values stay
// as text until a caller asks for a typed accessor, so a table re-serializes
// byte-for-byte modulo encoding.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ErrNoColumn is returned by typed accessors when the header lacks a column.
var ErrNoColumn = errors.New("column not found")

type Table struct {
	Columns []string
	Rows    [][]string
}

// Read parses a CSV document with a header row. A leading UTF-8 BOM is
// dropped from the first column name.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Columns: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// WriteCSV writes the header and rows as UTF-8 CSV without an index column.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Index returns the position of column in the header, or -1.
func (t *Table) Index(column string) int {
	if t == nil {
		return -1
	}
	return lo.IndexOf(t.Columns, column)
}

func (t *Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Cell returns the raw value at row i for column. Short rows yield "".
func (t *Table) Cell(i int, column string) (string, error) {
	idx := t.Index(column)
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrNoColumn, column)
	}
	row := t.Rows[i]
	if idx >= len(row) {
		return "", nil
	}
	return row[idx], nil
}

func (t *Table) Float(i int, column string) (float64, error) {
	s, err := t.Cell(i, column)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("row %d column %s: %w", i+1, column, err)
	}
	return v, nil
}

// OptionalFloat is Float for columns where an empty cell means "no value".
func (t *Table) OptionalFloat(i int, column string) (*float64, error) {
	s, err := t.Cell(i, column)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := t.Float(i, column)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Int accepts integral floats like "2025.0", which pandas writes for
// integer columns that once held a NaN.
// NaN, infinities and values beyond ±2^53 are errors.
func (t *Table) Int(i int, column string) (int, error) {
	v, err := t.Float(i, column)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.Abs(v) > maxExactInt {
		return 0, fmt.Errorf("row %d column %s: %v is not an integer", i+1, column, v)
	}
	return int(v), nil
}

const maxExactInt = 1 << 53

// Bool accepts the spellings pandas and spreadsheets produce.
func (t *Table) Bool(i int, column string) (bool, error) {
	s, err := t.Cell(i, column)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "t", "1.0":
		return true, nil
	case "false", "0", "no", "f", "0.0", "":
		return false, nil
	}
	return false, fmt.Errorf("row %d column %s: invalid bool %q", i+1, column, s)
}

// FilterEq keeps rows whose column exactly equals value (case-sensitive).
// No match, or a missing column, yields an empty table with the same header.
func (t *Table) FilterEq(column, value string) *Table {
	if t == nil {
		return &Table{Rows: [][]string{}}
	}
	out := &Table{Columns: t.Columns, Rows: [][]string{}}
	idx := t.Index(column)
	if idx < 0 {
		return out
	}
	out.Rows = lo.Filter(t.Rows, func(row []string, _ int) bool {
		return idx < len(row) && row[idx] == value
	})
	return out
}

// Filter keeps rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	out := &Table{Columns: t.Columns, Rows: [][]string{}}
	for i, row := range t.Rows {
		if keep(i) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Select projects the table onto columns, in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.Index(c)
		if idx[i] < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoColumn, c)
		}
	}
	out := &Table{Columns: append([]string(nil), columns...), Rows: make([][]string, 0, len(t.Rows))}
	for _, row := range t.Rows {
		projected := make([]string, len(idx))
		for j, k := range idx {
			if k < len(row) {
				projected[j] = row[k]
			}
		}
		out.Rows = append(out.Rows, projected)
	}
	return out, nil
}

// Rename returns a copy whose header has names replaced per mapping.
func (t *Table) Rename(mapping map[string]string) *Table {
	cols := lo.Map(t.Columns, func(c string, _ int) string {
		if n, ok := mapping[c]; ok {
			return n
		}
		return c
	})
	return &Table{Columns: cols, Rows: t.Rows}
}
