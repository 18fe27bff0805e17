package api

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/lox/evdemand/internal/artifact"
	"github.com/lox/evdemand/internal/forecast"
	"github.com/lox/evdemand/internal/metrics"
	"github.com/lox/evdemand/internal/report"
	"github.com/lox/evdemand/internal/roi"
	"github.com/lox/evdemand/internal/table"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sendTable writes t as CSV or XLSX depending on the request path's
// extension. Output is buffered so an encoding failure can still become a 500.
func sendTable(w http.ResponseWriter, r *http.Request, dataset, fileName, sheet string, t *table.Table) {
	format := strings.TrimPrefix(path.Ext(r.URL.Path), ".")

	var buf bytes.Buffer
	var contentType string
	switch format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		if err := t.WriteCSV(&buf); err != nil {
			serverError(w, "write csv", err)
			return
		}
	case "xlsx":
		contentType = xlsxContentType
		fileName = strings.TrimSuffix(fileName, ".csv") + ".xlsx"
		if err := t.WriteXLSX(&buf, sheet); err != nil {
			serverError(w, "write xlsx", err)
			return
		}
	default:
		http.NotFound(w, r)
		return
	}

	metrics.Downloads.WithLabelValues(dataset, format).Inc()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Write(buf.Bytes())
}

func (s *Server) handleDownloadSummary(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadSummary(sel)
	if err != nil {
		serverError(w, "summary download", err)
		return
	}
	if data.All == nil {
		http.Error(w, data.Notice.Text, http.StatusNotFound)
		return
	}
	sendTable(w, r, "summary", s.resolver.Name(artifact.KindSummary, sel), "Summary", data.All)
}

func (s *Server) handleDownloadSchedule(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadSchedule(sel)
	if err != nil {
		serverError(w, "schedule download", err)
		return
	}
	if data.City == nil {
		http.Error(w, data.Notice.Text, http.StatusNotFound)
		return
	}
	sendTable(w, r, "schedule", scheduleFileName(string(sel.City)), "Schedule", data.City)
}

func (s *Server) handleDownloadForecast(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadForecast(sel)
	if err != nil {
		serverError(w, "forecast download", err)
		return
	}
	if data.Notice != nil && len(data.Records) == 0 {
		http.Error(w, data.Notice.Text, http.StatusNotFound)
		return
	}
	name := s.resolver.Name(artifact.KindForecastTable, sel)
	sendTable(w, r, "forecast", name, "Forecast", forecast.ToTable(data.Records, data.Schema))
}

func (s *Server) handleDownloadExecutive(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadForecast(sel)
	if err != nil {
		serverError(w, "executive download", err)
		return
	}

	in, problems := roiInputs(r)
	if len(problems) > 0 {
		http.Error(w, strings.Join(problems, "; "), http.StatusBadRequest)
		return
	}
	est, err := roi.Compute(in)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc := report.Document{
		Summary:   report.Executive(sel.City, data.Records),
		Model:     sel.Model,
		Schema:    data.Schema,
		Forecast:  data.Records,
		ROI:       &est,
		Generated: s.clock.Now(),
	}
	var buf bytes.Buffer
	if err := report.WritePDF(&buf, doc); err != nil {
		serverError(w, "executive pdf", err)
		return
	}

	metrics.Downloads.WithLabelValues("executive", "pdf").Inc()
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", strings.ReplaceAll(string(sel.City), " ", "_")+"_executive_summary.pdf"))
	w.Write(buf.Bytes())
}
