package api

import (
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/lox/evdemand/internal/forecast"
	"github.com/lox/evdemand/internal/models"
	"github.com/lox/evdemand/internal/report"
	"github.com/lox/evdemand/internal/roi"
	"github.com/lox/evdemand/internal/table"
)

// Notice is a message shown above a view instead of, or alongside, its data.
type Notice struct {
	Level string // "warning" or "error"
	Text  string
}

func warning(format string, args ...any) *Notice {
	return &Notice{Level: "warning", Text: fmt.Sprintf(format, args...)}
}

func failure(format string, args ...any) *Notice {
	return &Notice{Level: "error", Text: fmt.Sprintf(format, args...)}
}

// Tab is one entry in the dashboard navigation.
type Tab struct {
	ID    string
	Title string
	Path  string
}

var tabs = []Tab{
	{"history", "Historical Trends", "/history"},
	{"forecast", "Forecasts", "/forecast"},
	{"weather", "Weather Impact", "/weather"},
	{"summary", "Summary Statistics", "/summary"},
	{"schedule", "Optimized Charging Schedule", "/schedule"},
	{"executive", "Executive Summary", "/executive"},
	{"roi", "ROI Estimator", "/roi"},
}

// Page carries what every dashboard page needs: navigation, the current
// selection, and any notices.
type Page struct {
	Title     string
	Active    string
	Selection models.Selection
	Cities    []models.City
	Models    []models.Model
	Tabs      []Tab
	Notices   []*Notice
}

func newPage(active string, sel models.Selection) Page {
	p := Page{
		Active:    active,
		Selection: sel,
		Cities:    models.Cities,
		Models:    models.Models,
		Tabs:      tabs,
	}
	for _, t := range tabs {
		if t.ID == active {
			p.Title = t.Title
		}
	}
	return p
}

func (p *Page) notify(n *Notice) {
	if n != nil {
		p.Notices = append(p.Notices, n)
	}
}

// Query is the selection as a query string for links.
func (p Page) Query() template.URL {
	v := url.Values{}
	v.Set("city", string(p.Selection.City))
	v.Set("model", string(p.Selection.Model))
	return template.URL(v.Encode())
}

// timeSeriesData is the time series for one city.
type timeSeriesData struct {
	Path    string
	Table   *table.Table
	Records []models.TimeSeriesRecord
	ModTime time.Time
	Notice  *Notice
}

type summaryData struct {
	Path   string
	All    *table.Table
	City   *table.Table
	Notice *Notice
}

type scheduleData struct {
	Path    string
	Columns []string
	City    *table.Table
	Records []models.ScheduleRecord
	// Recommended are the rows shown in the table: optimal hours when the
	// layout flags them, otherwise every row for the city.
	Recommended []models.ScheduleRecord
	HasDates    bool
	ModTime     time.Time
	Notice      *Notice
}

type forecastData struct {
	Path    string
	Schema  forecast.Schema
	Records []forecast.Record
	// Line is the point forecast over every row, history included.
	Line         []forecast.Point
	ModTime      time.Time
	Notice       *Notice
	ImagePath    string
	ImagePresent bool
	ImageNotice  *Notice
}

// observedData is history read from the Prophet table's y column.
type observedData struct {
	Path    string
	Table   *table.Table
	Points  []forecast.Point
	ModTime time.Time
	Notice  *Notice
}

type HistoryPage struct {
	Page
	HasData bool
	Columns []string
	Rows    [][]string
}

type ForecastPage struct {
	Page
	ImagePresent bool
	HasLine      bool
	HasTable     bool
	Columns      []string
	Rows         [][]string
	Total        float64
}

type WeatherPage struct {
	Page
	HasData bool
}

type SummaryPage struct {
	Page
	HasData bool
	Columns []string
	Rows    [][]string
}

// ScheduleRow is one recommended charging hour as displayed.
type ScheduleRow struct {
	Date   string
	Hour   int
	Demand string
}

type SchedulePage struct {
	Page
	HasData  bool
	HasDates bool
	Rows     []ScheduleRow
	FileName string
}

type ExecutivePage struct {
	Page
	Summary report.Summary
}

type ROIPage struct {
	Page
	Inputs   roi.Inputs
	Estimate *roi.Estimate
	Errors   []string
}
