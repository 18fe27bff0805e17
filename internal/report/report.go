// Package report builds the executive summary for a city and renders it as
// a PDF.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/samber/lo"

	"github.com/lox/evdemand/internal/forecast"
	"github.com/lox/evdemand/internal/models"
	"github.com/lox/evdemand/internal/roi"
)

// DefaultPeriodEnd is the last forecast year assumed when no forecast
// artifact is available.
const DefaultPeriodEnd = 2027

type Summary struct {
	City               models.City `json:"city"`
	ForecastPeriod     string      `json:"forecast_period"`
	TrendInsight       string      `json:"trend_insight"`
	Recommendation     string      `json:"recommendation"`
	OptimizationImpact string      `json:"optimization_impact"`
}

// Executive returns the summary text for city. The forecast period is taken
// from records when there are any.
func Executive(city models.City, records []forecast.Record) Summary {
	return Summary{
		City:               city,
		ForecastPeriod:     Period(records),
		TrendInsight:       trendInsight(records),
		Recommendation:     fmt.Sprintf("Prioritize charging station expansion in %s, especially in high-demand zones during stable weather months.", city),
		OptimizationImpact: "Potential peak load reduction of 20-30% using off-peak charging strategies.",
	}
}

// Period formats the span of forecast years, e.g. "2025-2027".
func Period(records []forecast.Record) string {
	if len(records) == 0 {
		return fmt.Sprintf("%d-%d", forecast.Horizon, DefaultPeriodEnd)
	}
	first := lo.MinBy(records, func(a, b forecast.Record) bool { return a.Year < b.Year })
	last := lo.MaxBy(records, func(a, b forecast.Record) bool { return a.Year > b.Year })
	if first.Year == last.Year {
		return strconv.Itoa(first.Year)
	}
	return fmt.Sprintf("%d-%d", first.Year, last.Year)
}

func trendInsight(records []forecast.Record) string {
	if len(records) < 2 {
		return "Increasing EV demand projected in most regions."
	}
	first, last := records[0], records[len(records)-1]
	switch {
	case last.Forecast > first.Forecast:
		return fmt.Sprintf("Demand projected to rise from %.0f in %d to %.0f in %d.", first.Forecast, first.Year, last.Forecast, last.Year)
	case last.Forecast < first.Forecast:
		return fmt.Sprintf("Demand projected to ease from %.0f in %d to %.0f in %d.", first.Forecast, first.Year, last.Forecast, last.Year)
	}
	return "Demand projected to hold steady over the forecast period."
}

// Document is everything that goes into the PDF.
type Document struct {
	Summary   Summary
	Model     models.Model
	Schema    forecast.Schema
	Forecast  []forecast.Record
	ROI       *roi.Estimate
	Generated time.Time
}

// WritePDF renders doc as a one page A4 report.
func WritePDF(w io.Writer, doc Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("EV Charging Executive Summary: %s", doc.Summary.City), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Executive Summary: %s", doc.Summary.City))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.Cell(0, 5, fmt.Sprintf("Generated %s", doc.Generated.Format("2006-01-02 15:04")))
	pdf.Ln(8)
	pdf.SetTextColor(0, 0, 0)

	bullets := []struct{ label, text string }{
		{"Forecast Period", doc.Summary.ForecastPeriod},
		{"Trend Insight", doc.Summary.TrendInsight},
		{"Recommendation", doc.Summary.Recommendation},
		{"Optimization Impact", doc.Summary.OptimizationImpact},
	}
	for _, b := range bullets {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 6, b.label)
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, b.text, "", "L", false)
		pdf.Ln(2)
	}

	if len(doc.Forecast) > 0 {
		writeForecast(pdf, doc)
	}
	if doc.ROI != nil {
		writeROI(pdf, *doc.ROI)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return pdf.Output(w)
}

func writeForecast(pdf *gofpdf.Fpdf, doc Document) {
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("%s Forecast", doc.Model))
	pdf.Ln(9)

	tbl := forecast.ToTable(doc.Forecast, doc.Schema)
	width := 160.0 / float64(len(tbl.Columns))

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 236, 240)
	for _, col := range tbl.Columns {
		pdf.CellFormat(width, 7, col, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, row := range tbl.Rows {
		for i, cell := range row {
			align := "R"
			if i == 0 {
				align = "C"
			}
			pdf.CellFormat(width, 6, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(width, 6, "Total", "1", 0, "C", false, 0, "")
	pdf.CellFormat(width, 6, strconv.FormatFloat(forecast.Total(doc.Forecast), 'f', 2, 64), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
}

func writeROI(pdf *gofpdf.Fpdf, est roi.Estimate) {
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Station ROI Estimate")
	pdf.Ln(9)

	lines := []struct{ label, value string }{
		{"Installation cost per station", roi.Currency(est.Inputs.InstallCost)},
		{"Energy cost per kWh", roi.Currency(est.Inputs.EnergyCost)},
		{"Selling price per kWh", roi.Currency(est.Inputs.Price)},
		{"Forecast demand (kWh)", strconv.FormatFloat(est.Inputs.DemandKWh, 'f', 0, 64)},
		{"Revenue", roi.Currency(est.Revenue)},
		{"Cost", roi.Currency(est.Cost)},
		{"Profit", roi.Currency(est.Profit)},
	}
	for _, l := range lines {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(80, 6, l.label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 6, l.value, "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
}
