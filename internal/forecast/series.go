package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lox/evdemand/internal/table"
)

// ObservedColumn is the Prophet column holding the fitted history.
const ObservedColumn = "y"

// ErrNoObserved is returned when a forecast table carries no history.
var ErrNoObserved = errors.New("no observed values in forecast table")

// Point is one row of a forecast table on a continuous time axis.
type Point struct {
	Key   Key
	Value float64
}

// Line returns the point forecast for every row, history included, in input
// order. Rows with an empty point value are skipped.
func Line(t *table.Table, s Schema) ([]Point, error) {
	pts, err := series(t, s, s.source().point)
	if err != nil {
		return nil, fmt.Errorf("%s forecast: %w", s, err)
	}
	return pts, nil
}

// Observed returns the history Prophet was fitted on: rows with a value in
// the y column. Future rows leave it empty.
func Observed(t *table.Table) ([]Point, error) {
	if !t.Has(ObservedColumn) {
		return nil, ErrNoObserved
	}
	pts, err := series(t, SchemaProphet, ObservedColumn)
	if err != nil {
		return nil, fmt.Errorf("observed: %w", err)
	}
	if len(pts) == 0 {
		return nil, ErrNoObserved
	}
	return pts, nil
}

// ObservedTable projects the history rows of a Prophet table for display,
// with ds and y under their dashboard names.
func ObservedTable(t *table.Table) (*table.Table, error) {
	src := SchemaProphet.source()
	cols, err := t.Select(src.key, ObservedColumn)
	if err != nil {
		return nil, fmt.Errorf("observed: %w", err)
	}
	hist := cols.Filter(func(i int) bool {
		v := strings.TrimSpace(cols.Rows[i][1])
		return v != "" && !strings.EqualFold(v, "nan")
	})
	return hist.Rename(map[string]string{src.key: "Date", ObservedColumn: "Historical Demand"}), nil
}

func series(t *table.Table, s Schema, column string) ([]Point, error) {
	out := make([]Point, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		raw, err := t.Cell(i, column)
		if err != nil {
			return nil, err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.EqualFold(raw, "nan") {
			continue
		}
		key, err := s.key(t, i)
		if err != nil {
			return nil, err
		}
		v, err := t.Float(i, column)
		if err != nil {
			return nil, err
		}
		if math.IsInf(v, 0) {
			return nil, fmt.Errorf("row %d column %s: value is infinite", i+1, column)
		}
		out = append(out, Point{Key: key, Value: v})
	}
	return out, nil
}
