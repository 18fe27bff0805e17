// Package forecast turns model output tables into one display shape.
//
// Prophet exports a date-keyed table with a point estimate and an interval
// (ds, yhat, yhat_lower, yhat_upper). ARIMA exports a year-keyed table with a
// point estimate only (Year, Forecast). Both become []Record; the schema is
// picked once per load, so display code never branches on the model name.
//
// The ds key is either a bare year ("2025", "2025.0") or a date
// ("2025-01-01"). Dated rows keep their date for display.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/lox/evdemand/internal/models"
	"github.com/lox/evdemand/internal/table"
)

// Horizon is the first forecast year. Earlier rows are history.
const Horizon = 2025

// Record is one forecast row. Nil bounds mean the model did not estimate
// an interval, which is different from a bound of zero.
type Record struct {
	Year       int      `json:"year"`
	Date       string   `json:"date,omitempty"`
	Forecast   float64  `json:"forecast"`
	LowerBound *float64 `json:"lower_bound,omitempty"`
	UpperBound *float64 `json:"upper_bound,omitempty"`
}

type Schema int

const (
	SchemaProphet Schema = iota
	SchemaARIMA
)

func (s Schema) String() string {
	switch s {
	case SchemaProphet:
		return "prophet"
	case SchemaARIMA:
		return "arima"
	}
	return fmt.Sprintf("Schema(%d)", int(s))
}

// SchemaFor picks the input schema a model writes.
func SchemaFor(m models.Model) Schema {
	if m == models.ARIMA {
		return SchemaARIMA
	}
	return SchemaProphet
}

// HasBounds reports whether records in this schema carry an interval.
func (s Schema) HasBounds() bool {
	return s == SchemaProphet
}

// Columns returns the display header for normalized records.
func (s Schema) Columns() []string {
	if s.HasBounds() {
		return []string{"Year", "Forecast", "Lower Bound", "Upper Bound"}
	}
	return []string{"Year", "Forecast"}
}

type sourceColumns struct {
	key, point, lower, upper string
}

func (s Schema) source() sourceColumns {
	switch s {
	case SchemaProphet:
		return sourceColumns{key: "ds", point: "yhat", lower: "yhat_lower", upper: "yhat_upper"}
	case SchemaARIMA:
		return sourceColumns{key: "Year", point: "Forecast"}
	}
	panic(fmt.Sprintf("forecast: unknown schema %d", int(s)))
}

// ErrBadKey marks a key cell that is neither a finite year nor a date.
var ErrBadKey = errors.New("invalid forecast key")

// dateLayouts are the ds formats Prophet exports produce.
var dateLayouts = []string{time.DateOnly, time.DateTime, "2006-01-02T15:04:05", time.RFC3339}

// Key is a parsed ds/Year cell.
type Key struct {
	Year int
	Date string  // YYYY-MM-DD, empty for year-keyed rows
	X    float64 // fractional year, for plotting
}

// ParseKey reads a year-like number or a date. NaN, infinities and years
// outside 1..9999 are rejected.
func ParseKey(raw string) (Key, error) {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 1 || v >= 10000 {
			return Key{}, fmt.Errorf("%w: %q", ErrBadKey, raw)
		}
		return Key{Year: int(v), X: v}, nil
	}
	for _, layout := range dateLayouts {
		d, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		days := time.Date(d.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC).Sub(time.Date(d.Year(), 1, 1, 0, 0, 0, 0, time.UTC)).Hours() / 24
		return Key{
			Year: d.Year(),
			Date: d.Format(time.DateOnly),
			X:    float64(d.Year()) + float64(d.YearDay()-1)/days,
		}, nil
	}
	return Key{}, fmt.Errorf("%w: %q", ErrBadKey, raw)
}

func (s Schema) key(t *table.Table, i int) (Key, error) {
	raw, err := t.Cell(i, s.source().key)
	if err != nil {
		return Key{}, err
	}
	k, err := ParseKey(raw)
	if err != nil {
		return Key{}, fmt.Errorf("row %d column %s: %w", i+1, s.source().key, err)
	}
	return k, nil
}

// Normalize keeps rows whose year is >= Horizon and maps them to Records in
// input order. A missing column, a non-numeric value or a key that is neither
// a finite year nor a date is a malformed artifact.
func Normalize(t *table.Table, s Schema) ([]Record, error) {
	src := s.source()
	out := make([]Record, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		key, err := s.key(t, i)
		if err != nil {
			return nil, fmt.Errorf("%s forecast: %w", s, err)
		}
		if key.Year < Horizon {
			continue
		}

		rec := Record{Year: key.Year, Date: key.Date}
		if rec.Forecast, err = t.Float(i, src.point); err != nil {
			return nil, fmt.Errorf("%s forecast: %w", s, err)
		}
		if s.HasBounds() {
			if rec.LowerBound, err = t.OptionalFloat(i, src.lower); err != nil {
				return nil, fmt.Errorf("%s forecast: %w", s, err)
			}
			if rec.UpperBound, err = t.OptionalFloat(i, src.upper); err != nil {
				return nil, fmt.Errorf("%s forecast: %w", s, err)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// ToTable renders records under the schema's display header, for tables and
// downloads. Absent bounds are empty cells. Dated records are keyed by date.
func ToTable(records []Record, s Schema) *table.Table {
	cols := s.Columns()
	dated := lo.SomeBy(records, func(r Record) bool { return r.Date != "" })
	if dated {
		cols[0] = "Date"
	}
	t := &table.Table{Columns: cols, Rows: make([][]string, 0, len(records))}
	for _, r := range records {
		key := strconv.Itoa(r.Year)
		if dated {
			key = r.Date
		}
		row := []string{key, formatFloat(r.Forecast)}
		if s.HasBounds() {
			row = append(row, formatOptional(r.LowerBound), formatOptional(r.UpperBound))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Total sums the point forecasts.
func Total(records []Record) float64 {
	return lo.SumBy(records, func(r Record) float64 { return r.Forecast })
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
