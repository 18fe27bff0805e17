package api

import (
	"errors"
	"fmt"

	"github.com/lox/evdemand/internal/artifact"
	"github.com/lox/evdemand/internal/forecast"
	"github.com/lox/evdemand/internal/metrics"
	"github.com/lox/evdemand/internal/models"
)

const scheduleMissing = "Optimized charging schedule data not found. Ensure the optimization step has been run in the main program."

// Each loader resolves one artifact for a selection. A missing file or an
// empty city filter becomes a Notice; only unreadable or malformed artifacts
// return an error.

func (s *Server) loadTimeSeries(sel models.Selection, view string) (*timeSeriesData, error) {
	lookup, err := s.resolver.Load(artifact.KindTimeSeries, sel)
	if err != nil {
		return nil, err
	}
	data := &timeSeriesData{Path: lookup.Path}
	if lookup.Absent() {
		data.Notice = warning("Time series data not found at %s", lookup.Path)
		return data, nil
	}

	city := lookup.Table.FilterEq(models.ColCity, string(sel.City))
	if city.Empty() {
		metrics.EmptySelections.WithLabelValues(view).Inc()
		data.Notice = warning("No historical data available for %s", sel.City)
		return data, nil
	}

	if data.Records, err = models.DecodeTimeSeries(city); err != nil {
		return nil, fmt.Errorf("time series %s: %w", lookup.Path, err)
	}
	if data.Table, err = city.Select(models.TimeSeriesColumns...); err != nil {
		return nil, fmt.Errorf("time series %s: %w", lookup.Path, err)
	}
	if st, err := s.resolver.Stat(artifact.KindTimeSeries, sel); err == nil {
		data.ModTime = st.ModTime
	}
	return data, nil
}

func (s *Server) loadSummary(sel models.Selection) (*summaryData, error) {
	lookup, err := s.resolver.Load(artifact.KindSummary, sel)
	if err != nil {
		return nil, err
	}
	data := &summaryData{Path: lookup.Path}
	if lookup.Absent() {
		data.Notice = warning("Summary data not found at %s", lookup.Path)
		return data, nil
	}
	data.All = lookup.Table

	city := lookup.Table.FilterEq(models.ColCity, string(sel.City))
	if city.Empty() {
		metrics.EmptySelections.WithLabelValues("summary").Inc()
		data.Notice = warning("No summary data available for %s", sel.City)
		return data, nil
	}
	if data.City, err = city.Select(models.SummaryColumns...); err != nil {
		return nil, fmt.Errorf("summary %s: %w", lookup.Path, err)
	}
	return data, nil
}

func (s *Server) loadSchedule(sel models.Selection) (*scheduleData, error) {
	cols := s.resolver.Layout().ScheduleColumns
	lookup, err := s.resolver.Load(artifact.KindSchedule, sel)
	if err != nil {
		return nil, err
	}
	data := &scheduleData{Path: lookup.Path}
	if lookup.Absent() {
		data.Notice = failure(scheduleMissing)
		return data, nil
	}
	data.Columns = lookup.Table.Columns

	city := lookup.Table.FilterEq(cols.City, string(sel.City))
	if city.Empty() {
		metrics.EmptySelections.WithLabelValues("schedule").Inc()
		data.Notice = warning("No optimized schedule data available for %s", sel.City)
		return data, nil
	}
	data.City = city

	if data.Records, err = models.DecodeSchedule(city, cols); err != nil {
		return nil, fmt.Errorf("schedule %s: %w", lookup.Path, err)
	}
	data.HasDates = cols.Date != ""
	if cols.Optimal != "" {
		data.Recommended = models.OptimalHours(data.Records)
		if len(data.Recommended) == 0 {
			data.Notice = warning("No recommended charging hours for %s", sel.City)
		}
	} else {
		data.Recommended = data.Records
	}
	if st, err := s.resolver.Stat(artifact.KindSchedule, sel); err == nil {
		data.ModTime = st.ModTime
	}
	return data, nil
}

func (s *Server) loadForecast(sel models.Selection) (*forecastData, error) {
	data := &forecastData{Schema: forecast.SchemaFor(sel.Model)}

	img, err := s.resolver.Stat(artifact.KindForecastImage, sel)
	if err != nil {
		return nil, err
	}
	data.ImagePath = img.Path
	data.ImagePresent = img.Present
	if !img.Present {
		data.ImageNotice = warning("Forecast plot for %s (%s) not found at %s", sel.City, sel.Model, img.Path)
	}

	lookup, err := s.resolver.Load(artifact.KindForecastTable, sel)
	if err != nil {
		return nil, err
	}
	data.Path = lookup.Path
	if lookup.Absent() {
		data.Notice = warning("Forecast data for %s (%s) not found at %s", sel.City, sel.Model, lookup.Path)
		return data, nil
	}

	if data.Records, err = forecast.Normalize(lookup.Table, data.Schema); err != nil {
		return nil, fmt.Errorf("forecast %s: %w", lookup.Path, err)
	}
	if data.Line, err = forecast.Line(lookup.Table, data.Schema); err != nil {
		return nil, fmt.Errorf("forecast %s: %w", lookup.Path, err)
	}
	if st, err := s.resolver.Stat(artifact.KindForecastTable, sel); err == nil {
		data.ModTime = st.ModTime
	}
	if len(data.Records) == 0 {
		metrics.EmptySelections.WithLabelValues("forecast").Inc()
		data.Notice = warning("No forecast rows from %d onward for %s (%s)", forecast.Horizon, sel.City, sel.Model)
	}
	return data, nil
}

// loadObserved reads history for layouts without a time series artifact: the
// fitted values in the Prophet table for the city, whatever model is selected.
func (s *Server) loadObserved(sel models.Selection) (*observedData, error) {
	prophet := models.Selection{City: sel.City, Model: models.Prophet}
	lookup, err := s.resolver.Load(artifact.KindForecastTable, prophet)
	if err != nil {
		return nil, err
	}
	data := &observedData{Path: lookup.Path}
	if lookup.Absent() {
		data.Notice = warning("Forecast data for %s (%s) not found at %s", sel.City, models.Prophet, lookup.Path)
		return data, nil
	}

	data.Points, err = forecast.Observed(lookup.Table)
	if errors.Is(err, forecast.ErrNoObserved) {
		metrics.EmptySelections.WithLabelValues("history").Inc()
		data.Notice = warning("Historical data not available in %s", lookup.Path)
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w", lookup.Path, err)
	}
	if data.Table, err = forecast.ObservedTable(lookup.Table); err != nil {
		return nil, fmt.Errorf("forecast %s: %w", lookup.Path, err)
	}
	if st, err := s.resolver.Stat(artifact.KindForecastTable, prophet); err == nil {
		data.ModTime = st.ModTime
	}
	return data, nil
}
