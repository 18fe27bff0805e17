package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/lox/evdemand/internal/forecast"
	"github.com/lox/evdemand/internal/models"
	"github.com/lox/evdemand/internal/roi"
)

func ptr(v float64) *float64 { return &v }

func TestExecutive_Defaults(t *testing.T) {
	s := Executive(models.SanDiego, nil)
	if s.ForecastPeriod != "2025-2027" {
		t.Errorf("ForecastPeriod = %q", s.ForecastPeriod)
	}
	if s.TrendInsight != "Increasing EV demand projected in most regions." {
		t.Errorf("TrendInsight = %q", s.TrendInsight)
	}
	if !strings.Contains(s.Recommendation, "San Diego") {
		t.Errorf("Recommendation does not name the city: %q", s.Recommendation)
	}
}

func TestExecutive_FromForecast(t *testing.T) {
	recs := []forecast.Record{
		{Year: 2025, Forecast: 100},
		{Year: 2026, Forecast: 120},
		{Year: 2028, Forecast: 150},
	}
	s := Executive(models.Seattle, recs)
	if s.ForecastPeriod != "2025-2028" {
		t.Errorf("ForecastPeriod = %q", s.ForecastPeriod)
	}
	if !strings.Contains(s.TrendInsight, "rise") {
		t.Errorf("TrendInsight = %q", s.TrendInsight)
	}
}

func TestPeriod_SingleYear(t *testing.T) {
	if got := Period([]forecast.Record{{Year: 2026}}); got != "2026" {
		t.Errorf("Period = %q, want 2026", got)
	}
}

func TestWritePDF(t *testing.T) {
	est, err := roi.Compute(roi.DefaultInputs)
	if err != nil {
		t.Fatal(err)
	}
	recs := []forecast.Record{
		{Year: 2025, Forecast: 140, LowerBound: ptr(125), UpperBound: ptr(155)},
		{Year: 2026, Forecast: 165, LowerBound: ptr(146), UpperBound: ptr(184)},
	}

	tests := []struct {
		name string
		doc  Document
	}{
		{"summary only", Document{Summary: Executive(models.Vancouver, nil)}},
		{"full", Document{
			Summary:   Executive(models.Seattle, recs),
			Model:     models.Prophet,
			Schema:    forecast.SchemaProphet,
			Forecast:  recs,
			ROI:       &est,
			Generated: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WritePDF(&buf, tt.doc); err != nil {
				t.Fatalf("WritePDF: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
				t.Errorf("output does not start with %%PDF")
			}
		})
	}
}
