package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/evdemand/internal/artifact"
	"github.com/lox/evdemand/internal/charts"
	"github.com/lox/evdemand/internal/models"
)

// Options configures optional server behaviour.
type Options struct {
	// ChartCache stores rendered charts on disk. Nil disables caching.
	ChartCache *charts.Cache
	// Clock stamps generated reports. Defaults to the real clock.
	Clock clockwork.Clock
}

type Server struct {
	resolver *artifact.Resolver
	addr     string
	tmpl     *template.Template
	charts   *charts.Cache
	clock    clockwork.Clock
}

func NewServer(resolver *artifact.Resolver, addr string, opts Options) *Server {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Server{
		resolver: resolver,
		addr:     addr,
		tmpl:     newTemplates(),
		charts:   opts.ChartCache,
		clock:    clock,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/forecast", s.handleForecast)
	mux.HandleFunc("/weather", s.handleWeather)
	mux.HandleFunc("/summary", s.handleSummary)
	mux.HandleFunc("/schedule", s.handleSchedule)
	mux.HandleFunc("/executive", s.handleExecutive)
	mux.HandleFunc("/roi", s.handleROI)

	mux.HandleFunc("/charts/history.png", s.handleHistoryChart)
	mux.HandleFunc("/charts/forecast.png", s.handleForecastChart)
	mux.HandleFunc("/charts/weather.png", s.handleWeatherChart)
	mux.HandleFunc("/charts/schedule.png", s.handleScheduleChart)
	mux.HandleFunc("/forecast-image", s.handleForecastImage)
	mux.HandleFunc("/og-image.png", s.handleOGImage)

	mux.HandleFunc("/download/summary.csv", s.handleDownloadSummary)
	mux.HandleFunc("/download/summary.xlsx", s.handleDownloadSummary)
	mux.HandleFunc("/download/schedule.csv", s.handleDownloadSchedule)
	mux.HandleFunc("/download/schedule.xlsx", s.handleDownloadSchedule)
	mux.HandleFunc("/download/forecast.csv", s.handleDownloadForecast)
	mux.HandleFunc("/download/forecast.xlsx", s.handleDownloadForecast)
	mux.HandleFunc("/download/executive.pdf", s.handleDownloadExecutive)

	mux.HandleFunc("/api/timeseries", s.handleAPITimeSeries)
	mux.HandleFunc("/api/forecast", s.handleAPIForecast)
	mux.HandleFunc("/api/schedule", s.handleAPISchedule)
	mux.HandleFunc("/api/summary", s.handleAPISummary)
	mux.HandleFunc("/api/artifacts", s.handleAPIArtifacts)
	mux.HandleFunc("/api/roi", s.handleAPIROI)

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// errBadSelection marks a request whose city or model is not recognised.
var errBadSelection = errors.New("invalid selection")

// selection reads ?city= and ?model=, falling back to the defaults when a
// parameter is missing.
func selection(r *http.Request) (models.Selection, error) {
	sel := models.DefaultSelection
	q := r.URL.Query()
	if v := q.Get("city"); v != "" {
		city, err := models.ParseCity(v)
		if err != nil {
			return sel, fmt.Errorf("%w: %v", errBadSelection, err)
		}
		sel.City = city
	}
	if v := q.Get("model"); v != "" {
		model, err := models.ParseModel(v)
		if err != nil {
			return sel, fmt.Errorf("%w: %v", errBadSelection, err)
		}
		sel.Model = model
	}
	return sel, nil
}

// requireSelection writes a 400 and returns false when the selection is bad.
func requireSelection(w http.ResponseWriter, r *http.Request) (models.Selection, bool) {
	sel, err := selection(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return sel, false
	}
	return sel, true
}

// writeJSON encodes before writing the header so an unencodable value
// becomes a 500 rather than an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		serverError(w, "encode json", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

// HealthStatus reports artifact availability for the default selection.
type HealthStatus struct {
	Status    string            `json:"status"`
	Layout    string            `json:"layout"`
	DataDir   string            `json:"data_dir"`
	Artifacts []artifact.Status `json:"artifacts"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	inv, err := s.resolver.Inventory(models.DefaultSelection)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthStatus{
		Status:    "ok",
		Layout:    s.resolver.Layout().Name,
		DataDir:   s.resolver.Base(),
		Artifacts: inv,
	})
}
