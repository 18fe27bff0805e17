// Package charts renders dashboard charts as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/lox/evdemand/internal/models"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

const (
	Width  = 8 * vg.Inch
	Height = 4 * vg.Inch
)

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = x
	p.Y.Label.Text = y
	p.Add(plotter.NewGrid())
	return p
}

func encode(p *plot.Plot) ([]byte, error) {
	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return nil, fmt.Errorf("create png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DemandHistory plots weighted demand by year.
func DemandHistory(city string, records []models.TimeSeriesRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	p := newPlot(fmt.Sprintf("EV Demand Over Time in %s", city), "Year", "Weighted Demand")

	pts := make(plotter.XYs, len(records))
	for i, r := range records {
		pts[i].X = float64(r.Year)
		pts[i].Y = r.WeightedDemand
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("demand line: %w", err)
	}
	line.Color = plotutil.Color(0)
	line.Width = vg.Points(2)
	points.Color = plotutil.Color(0)
	points.Shape = draw.CircleGlyph{}
	p.Add(line, points)

	// Years are integers; avoid fractional tick labels.
	years := lo.Uniq(lo.Map(records, func(r models.TimeSeriesRecord, _ int) int { return r.Year }))
	if len(years) <= 20 {
		p.X.Tick.Marker = yearTicks(years)
	}

	return encode(p)
}

func yearTicks(years []int) plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, len(years))
	for i, y := range years {
		ticks[i] = plot.Tick{Value: float64(y), Label: fmt.Sprint(y)}
	}
	return ticks
}

// WeatherImpact plots temperature against weighted demand. Point size
// follows EV count and colour follows humidity.
func WeatherImpact(city string, records []models.TimeSeriesRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	p := newPlot(fmt.Sprintf("Impact of Weather on EV Demand in %s", city), "Temperature", "Weighted Demand")

	pts := make(plotter.XYs, len(records))
	for i, r := range records {
		pts[i].X = r.Temperature
		pts[i].Y = r.WeightedDemand
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("weather scatter: %w", err)
	}

	minCount, maxCount := extent(records, func(r models.TimeSeriesRecord) float64 { return r.EVCount })
	minHum, maxHum := extent(records, func(r models.TimeSeriesRecord) float64 { return r.Humidity })
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		r := records[i]
		return draw.GlyphStyle{
			Color:  humidityColor(scale(r.Humidity, minHum, maxHum)),
			Radius: vg.Points(3 + 9*scale(r.EVCount, minCount, maxCount)),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(scatter)

	return encode(p)
}

func extent(records []models.TimeSeriesRecord, f func(models.TimeSeriesRecord) float64) (low, high float64) {
	low, high = math.Inf(1), math.Inf(-1)
	for _, r := range records {
		v := f(r)
		low = math.Min(low, v)
		high = math.Max(high, v)
	}
	return low, high
}

// scale maps v into [0,1] over [low,high]. A flat range maps to the middle.
func scale(v, low, high float64) float64 {
	if high <= low {
		return 0.5
	}
	return (v - low) / (high - low)
}

// humidityColor runs from a dry yellow to a humid deep blue.
func humidityColor(t float64) color.Color {
	dry := [3]float64{253, 231, 37}
	wet := [3]float64{68, 1, 84}
	mix := func(a, b float64) uint8 { return uint8(a + (b-a)*t) }
	return color.RGBA{R: mix(dry[0], wet[0]), G: mix(dry[1], wet[1]), B: mix(dry[2], wet[2]), A: 255}
}

// ScheduleHourly plots demand by hour with one line per date. Schedules
// without dates are drawn as a single line.
func ScheduleHourly(city string, records []models.ScheduleRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	p := newPlot(fmt.Sprintf("Hourly Charging Demand for %s", city), "Hour of Day", "Demand (kWh)")
	p.Legend.Top = true

	for i, date := range models.ScheduleDates(records) {
		day := lo.Filter(records, func(r models.ScheduleRecord, _ int) bool { return r.DateString() == date })
		pts := make(plotter.XYs, len(day))
		for j, r := range day {
			pts[j].X = float64(r.Hour)
			pts[j].Y = r.DemandKWh
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("schedule line %s: %w", date, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)

		name := date
		if name == "" {
			name = "Schedule"
		}
		p.Legend.Add(name, line)
	}

	p.X.Min, p.X.Max = 0, 23
	hours := make(plot.ConstantTicks, 24)
	for h := range hours {
		hours[h] = plot.Tick{Value: float64(h), Label: fmt.Sprint(h)}
	}
	p.X.Tick.Marker = hours

	return encode(p)
}
