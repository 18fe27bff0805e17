package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/lox/evdemand/internal/forecast"
	"github.com/lox/evdemand/internal/report"
	"github.com/lox/evdemand/internal/roi"
	"github.com/lox/evdemand/internal/table"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	target := "/history"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// serverError logs err and writes a 500.
func serverError(w http.ResponseWriter, what string, err error) {
	log.Printf("%s: %v", what, err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}

	page := HistoryPage{Page: newPage("history", sel)}
	var tbl *table.Table
	if s.resolver.Layout().HistoryFromForecast() {
		data, err := s.loadObserved(sel)
		if err != nil {
			serverError(w, "history", err)
			return
		}
		page.notify(data.Notice)
		tbl = data.Table
	} else {
		data, err := s.loadTimeSeries(sel, "history")
		if err != nil {
			serverError(w, "history", err)
			return
		}
		page.notify(data.Notice)
		tbl = data.Table
	}
	if tbl != nil {
		page.HasData = true
		page.Columns = tbl.Columns
		page.Rows = tbl.Rows
	}
	s.render(w, "history.html", page)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadForecast(sel)
	if err != nil {
		serverError(w, "forecast", err)
		return
	}

	page := ForecastPage{Page: newPage("forecast", sel), ImagePresent: data.ImagePresent, HasLine: len(data.Line) > 0}
	page.notify(data.ImageNotice)
	page.notify(data.Notice)
	if len(data.Records) > 0 {
		tbl := forecast.ToTable(data.Records, data.Schema)
		page.HasTable = true
		page.Columns = tbl.Columns
		page.Rows = tbl.Rows
		page.Total = forecast.Total(data.Records)
	}
	s.render(w, "forecast.html", page)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadTimeSeries(sel, "weather")
	if err != nil {
		serverError(w, "weather", err)
		return
	}

	page := WeatherPage{Page: newPage("weather", sel), HasData: len(data.Records) > 0}
	page.notify(data.Notice)
	s.render(w, "weather.html", page)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadSummary(sel)
	if err != nil {
		serverError(w, "summary", err)
		return
	}

	page := SummaryPage{Page: newPage("summary", sel)}
	page.notify(data.Notice)
	if data.City != nil {
		page.HasData = true
		page.Columns = data.City.Columns
		page.Rows = data.City.Rows
	}
	s.render(w, "summary.html", page)
}

func scheduleFileName(city string) string {
	return fmt.Sprintf("%s_optimized_schedule.csv", city)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadSchedule(sel)
	if err != nil {
		serverError(w, "schedule", err)
		return
	}

	page := SchedulePage{
		Page:     newPage("schedule", sel),
		HasDates: data.HasDates,
		FileName: scheduleFileName(string(sel.City)),
	}
	page.notify(data.Notice)
	if len(data.Recommended) > 0 {
		page.HasData = true
		page.Rows = make([]ScheduleRow, len(data.Recommended))
		for i, rec := range data.Recommended {
			page.Rows[i] = ScheduleRow{
				Date:   rec.DateString(),
				Hour:   rec.Hour,
				Demand: strconv.FormatFloat(rec.DemandKWh, 'f', 2, 64),
			}
		}
	}
	s.render(w, "schedule.html", page)
}

func (s *Server) handleExecutive(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	data, err := s.loadForecast(sel)
	if err != nil {
		serverError(w, "executive", err)
		return
	}

	page := ExecutivePage{
		Page:    newPage("executive", sel),
		Summary: report.Executive(sel.City, data.Records),
	}
	s.render(w, "executive.html", page)
}

// roiInputs reads estimator inputs from the query, starting from the
// defaults. Unparseable values are reported per field.
func roiInputs(r *http.Request) (roi.Inputs, []string) {
	in := roi.DefaultInputs
	var problems []string
	q := r.URL.Query()
	for _, f := range []struct {
		param string
		dst   *float64
	}{
		{"install_cost", &in.InstallCost},
		{"energy_cost", &in.EnergyCost},
		{"price", &in.Price},
		{"demand_kwh", &in.DemandKWh},
	} {
		raw := q.Get(f.param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %q is not a number", f.param, raw))
			continue
		}
		*f.dst = v
	}
	return in, problems
}

func (s *Server) handleROI(w http.ResponseWriter, r *http.Request) {
	sel, ok := requireSelection(w, r)
	if !ok {
		return
	}
	in, problems := roiInputs(r)

	page := ROIPage{Page: newPage("roi", sel), Inputs: in, Errors: problems}
	if len(problems) == 0 {
		est, err := roi.Compute(in)
		if err != nil {
			page.Errors = append(page.Errors, err.Error())
		} else {
			page.Estimate = &est
		}
	}
	s.render(w, "roi.html", page)
}
