package api

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lox/evdemand/internal/artifact"
	"github.com/lox/evdemand/internal/charts"
	"github.com/lox/evdemand/internal/forecast"
	"github.com/lox/evdemand/internal/metrics"
	"github.com/lox/evdemand/internal/models"
	"github.com/lox/evdemand/internal/report"
)

func servePNG(w http.ResponseWriter, data []byte, maxAge int) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
	w.Write(data)
}

// serveChart renders a chart through the cache. The key includes the source
// artifact's modification time so a re-exported file is never served stale.
func (s *Server) serveChart(w http.ResponseWriter, name string, sel models.Selection, modTime time.Time, render func() ([]byte, error)) {
	key := charts.Key(name, sel, modTime)
	if data, ok := s.charts.Get(key); ok {
		metrics.ChartRenders.WithLabelValues(name, "hit").Inc()
		servePNG(w, data, 300)
		return
	}

	data, err := render()
	if errors.Is(err, charts.ErrNoData) {
		http.Error(w, fmt.Sprintf("no %s data for %s", name, sel.City), http.StatusNotFound)
		return
	}
	if err != nil {
		serverError(w, name+" chart", err)
		return
	}
	metrics.ChartRenders.WithLabelValues(name, "miss").Inc()

	if err := s.charts.Set(key, data); err != nil {
		log.Printf("cache %s chart: %v", name, err)
	}
	servePNG(w, data, 300)
}

func (s *Server) handleHistoryChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	if s.resolver.Layout().HistoryFromForecast() {
		data, err := s.loadObserved(sel)
		if err != nil {
			serverError(w, "history chart", err)
			return
		}
		// Observed history does not depend on the selected model.
		sel.Model = models.Prophet
		s.serveChart(w, "observed", sel, data.ModTime, func() ([]byte, error) {
			return charts.ObservedHistory(string(sel.City), data.Points)
		})
		return
	}

	data, err := s.loadTimeSeries(sel, "history")
	if err != nil {
		serverError(w, "history chart", err)
		return
	}
	s.serveChart(w, "history", sel, data.ModTime, func() ([]byte, error) {
		return charts.DemandHistory(string(sel.City), data.Records)
	})
}

func (s *Server) handleForecastChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadForecast(sel)
	if err != nil {
		serverError(w, "forecast chart", err)
		return
	}
	s.serveChart(w, "forecast", sel, data.ModTime, func() ([]byte, error) {
		return charts.ForecastLine(string(sel.City), string(sel.Model), data.Line)
	})
}

func (s *Server) handleWeatherChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadTimeSeries(sel, "weather")
	if err != nil {
		serverError(w, "weather chart", err)
		return
	}
	s.serveChart(w, "weather", sel, data.ModTime, func() ([]byte, error) {
		return charts.WeatherImpact(string(sel.City), data.Records)
	})
}

func (s *Server) handleScheduleChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadSchedule(sel)
	if err != nil {
		serverError(w, "schedule chart", err)
		return
	}
	s.serveChart(w, "schedule", sel, data.ModTime, func() ([]byte, error) {
		return charts.ScheduleHourly(string(sel.City), data.Records)
	})
}

// handleForecastImage serves the forecast plot artifact as is, or scaled
// down when ?width= is given.
func (s *Server) handleForecastImage(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}

	width := 0
	if v := r.URL.Query().Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > charts.MaxThumbnailWidth {
			http.Error(w, fmt.Sprintf("width must be between 1 and %d", charts.MaxThumbnailWidth), http.StatusBadRequest)
			return
		}
		width = n
	}

	data, found, err := s.resolver.ReadBlob(artifact.KindForecastImage, sel)
	if err != nil {
		serverError(w, "forecast image", err)
		return
	}
	if !found {
		http.Error(w, fmt.Sprintf("Forecast plot for %s (%s) not found at %s", sel.City, sel.Model, s.resolver.Path(artifact.KindForecastImage, sel)), http.StatusNotFound)
		return
	}

	if width > 0 {
		if data, err = charts.Thumbnail(data, width); err != nil {
			serverError(w, "forecast thumbnail", err)
			return
		}
	}
	servePNG(w, data, 3600)
}

// handleOGImage serves a link preview card for the selection, built on the
// forecast plot when one exists.
func (s *Server) handleOGImage(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}

	background, _, err := s.resolver.ReadBlob(artifact.KindForecastImage, sel)
	if err != nil {
		log.Printf("og-image: %v", err)
		background = nil
	}

	card := charts.CardData{
		Title:    string(sel.City),
		Subtitle: fmt.Sprintf("%s forecast %s", sel.Model, report.Period(nil)),
		Footer:   "EV Charging Demand Dashboard",
	}
	if data, err := s.loadForecast(sel); err == nil && len(data.Records) > 0 {
		card.Subtitle = fmt.Sprintf("%s forecast %s: %s total", sel.Model, report.Period(data.Records), humanizeTotal(data.Records))
	}

	img, err := charts.Card(background, card)
	if err != nil && background != nil {
		log.Printf("og-image: %v, using plain background", err)
		img, err = charts.Card(nil, card)
	}
	if err != nil {
		serverError(w, "og-image", err)
		return
	}
	servePNG(w, img, 300)
}

func humanizeTotal(records []forecast.Record) string {
	return humanize.Comma(int64(math.Round(forecast.Total(records))))
}
