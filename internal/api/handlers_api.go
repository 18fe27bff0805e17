package api

import (
	"net/http"

	"github.com/lox/evdemand/internal/forecast"
	"github.com/lox/evdemand/internal/models"
	"github.com/lox/evdemand/internal/roi"
)

// apiResponse wraps JSON payloads. Data is empty, never null, when the
// artifact is absent or the city has no rows; Warning says why.
type apiResponse struct {
	City    models.City  `json:"city"`
	Model   models.Model `json:"model,omitempty"`
	Path    string       `json:"path,omitempty"`
	Warning string       `json:"warning,omitempty"`
	Data    any          `json:"data"`
}

func noticeText(n *Notice) string {
	if n == nil {
		return ""
	}
	return n.Text
}

func (s *Server) handleAPITimeSeries(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadTimeSeries(sel, "api")
	if err != nil {
		serverError(w, "api timeseries", err)
		return
	}
	records := data.Records
	if records == nil {
		records = []models.TimeSeriesRecord{}
	}
	writeJSON(w, http.StatusOK, apiResponse{City: sel.City, Path: data.Path, Warning: noticeText(data.Notice), Data: records})
}

func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadForecast(sel)
	if err != nil {
		serverError(w, "api forecast", err)
		return
	}
	records := data.Records
	if records == nil {
		records = []forecast.Record{}
	}
	writeJSON(w, http.StatusOK, apiResponse{City: sel.City, Model: sel.Model, Path: data.Path, Warning: noticeText(data.Notice), Data: records})
}

func (s *Server) handleAPISchedule(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadSchedule(sel)
	if err != nil {
		serverError(w, "api schedule", err)
		return
	}
	records := data.Records
	if records == nil {
		records = []models.ScheduleRecord{}
	}
	writeJSON(w, http.StatusOK, apiResponse{City: sel.City, Path: data.Path, Warning: noticeText(data.Notice), Data: records})
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadSummary(sel)
	if err != nil {
		serverError(w, "api summary", err)
		return
	}
	rows := []models.SummaryRecord{}
	if data.City != nil {
		if rows, err = models.DecodeSummary(data.City); err != nil {
			serverError(w, "api summary", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, apiResponse{City: sel.City, Path: data.Path, Warning: noticeText(data.Notice), Data: rows})
}

// handleAPIArtifacts reports which artifacts exist for the selection.
func (s *Server) handleAPIArtifacts(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	inv, err := s.resolver.Inventory(sel)
	if err != nil {
		serverError(w, "api artifacts", err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{City: sel.City, Model: sel.Model, Data: inv})
}

func (s *Server) handleAPIROI(w http.ResponseWriter, r *http.Request) {
	in, problems := roiInputs(r)
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": problems})
		return
	}
	est, err := roi.Compute(in)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": []string{err.Error()}})
		return
	}
	writeJSON(w, http.StatusOK, est)
}
