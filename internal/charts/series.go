package charts

import (
	"fmt"

	"github.com/samber/lo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/lox/evdemand/internal/forecast"
)

// ForecastLine plots the point forecast over every row of a forecast table,
// with the first forecast year marked.
func ForecastLine(city, model string, pts []forecast.Point) ([]byte, error) {
	p, err := timeLine(fmt.Sprintf("%s Forecasted Demand for %s", model, city), "Forecasted Demand", pts, 1)
	if err != nil {
		return nil, err
	}

	low, high := p.Y.Min, p.Y.Max
	if horizonInRange(pts) {
		marker, err := plotter.NewLine(plotter.XYs{{X: forecast.Horizon, Y: low}, {X: forecast.Horizon, Y: high}})
		if err != nil {
			return nil, fmt.Errorf("horizon marker: %w", err)
		}
		marker.Color = plotutil.Color(3)
		marker.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(marker)
	}
	return encode(p)
}

// ObservedHistory plots the history a forecast model was fitted on.
func ObservedHistory(city string, pts []forecast.Point) ([]byte, error) {
	p, err := timeLine(fmt.Sprintf("Historical EV Charging Demand in %s", city), "Historical Demand", pts, 0)
	if err != nil {
		return nil, err
	}
	return encode(p)
}

func timeLine(title, yLabel string, pts []forecast.Point, colour int) (*plot.Plot, error) {
	if len(pts) == 0 {
		return nil, ErrNoData
	}

	p := newPlot(title, "Date", yLabel)
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i].X = pt.Key.X
		xys[i].Y = pt.Value
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", yLabel, err)
	}
	line.Color = plotutil.Color(colour)
	line.Width = vg.Points(2)
	p.Add(line)

	years := lo.Uniq(lo.Map(pts, func(pt forecast.Point, _ int) int { return pt.Key.Year }))
	if len(years) <= 20 {
		p.X.Tick.Marker = yearTicks(years)
	}
	return p, nil
}

func horizonInRange(pts []forecast.Point) bool {
	return lo.SomeBy(pts, func(pt forecast.Point) bool { return pt.Key.X < forecast.Horizon }) &&
		lo.SomeBy(pts, func(pt forecast.Point) bool { return pt.Key.X >= forecast.Horizon })
}
