// Package config describes where artifacts live and what they are called.
//
// Two deployments of the dashboard grew different conventions for the same
// artifacts. The "dashboard" layout keeps everything in one export directory
// with snake_case city names (prophet_forecast_san_diego.csv) and a
// lower-case schedule header. The "platform" layout joins city words without
// a separator (prophet_forecast_sandiego.csv) and writes the schedule with
// capitalised columns and no date or optimal-hour flag. It also has no time
// series export, so its history comes from the Prophet table. A YAML file
// can override any field of either preset.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Files holds the artifact name templates. {model} and {city} are replaced
// with the normalised model and city names.
type Files struct {
	TimeSeries    string `yaml:"timeseries"`
	Summary       string `yaml:"summary"`
	Schedule      string `yaml:"schedule"`
	ForecastTable string `yaml:"forecast_table"`
	ForecastImage string `yaml:"forecast_image"`
}

// ScheduleColumns maps schedule fields to CSV header names. Date and Optimal
// may be empty when the artifact does not carry them.
type ScheduleColumns struct {
	City    string `yaml:"city"`
	Date    string `yaml:"date"`
	Hour    string `yaml:"hour"`
	Demand  string `yaml:"demand"`
	Optimal string `yaml:"optimal"`
}

// History sources. The platform deployment ships no time series file and
// draws history from the y column of the Prophet forecast table instead.
const (
	HistoryTimeSeries = "timeseries"
	HistoryForecast   = "forecast"
)

type Layout struct {
	Name            string          `yaml:"name"`
	Files           Files           `yaml:"files"`
	CitySeparator   string          `yaml:"city_separator"`
	ScheduleColumns ScheduleColumns `yaml:"schedule_columns"`
	HistorySource   string          `yaml:"history_source"`
}

// HistoryFromForecast reports whether the Historical Trends view reads the
// Prophet table rather than the time series artifact.
func (l Layout) HistoryFromForecast() bool {
	return l.HistorySource == HistoryForecast
}

var presets = map[string]Layout{
	"dashboard": {
		Name: "dashboard",
		Files: Files{
			TimeSeries:    "ev_demand_timeseries.csv",
			Summary:       "ev_summary_tableau.csv",
			Schedule:      "optimized_charging_schedule.csv",
			ForecastTable: "{model}_forecast_{city}.csv",
			ForecastImage: "{model}_forecast_{city}.png",
		},
		CitySeparator: "_",
		HistorySource: HistoryTimeSeries,
		ScheduleColumns: ScheduleColumns{
			City:    "city",
			Date:    "date",
			Hour:    "hour",
			Demand:  "demand_kwh",
			Optimal: "is_optimal",
		},
	},
	"platform": {
		Name: "platform",
		Files: Files{
			TimeSeries:    "ev_demand_timeseries.csv",
			Summary:       "ev_summary_tableau.csv",
			Schedule:      "optimized_charging_schedule.csv",
			ForecastTable: "{model}_forecast_{city}.csv",
			ForecastImage: "{model}_forecast_{city}.png",
		},
		CitySeparator: "",
		HistorySource: HistoryForecast,
		ScheduleColumns: ScheduleColumns{
			City:   "City",
			Hour:   "Hour",
			Demand: "Optimized_Demand",
		},
	},
}

// DefaultLayout is the preset used when nothing is configured.
const DefaultLayout = "dashboard"

// PresetNames returns the built-in layout names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns a copy of a built-in layout.
func Preset(name string) (Layout, error) {
	l, ok := presets[name]
	if !ok {
		return Layout{}, fmt.Errorf("unknown layout %q (have %v)", name, PresetNames())
	}
	return l, nil
}

// LoadLayout starts from the named preset and overlays the YAML file at path,
// if one is given. Fields the file leaves out keep their preset values.
func LoadLayout(name, path string) (Layout, error) {
	if name == "" {
		name = DefaultLayout
	}
	l, err := Preset(name)
	if err != nil {
		return Layout{}, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Layout{}, fmt.Errorf("reading layout file: %w", err)
		}
		if err := yaml.Unmarshal(data, &l); err != nil {
			return Layout{}, fmt.Errorf("parsing layout file: %w", err)
		}
	}

	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate checks that every artifact has a name and the schedule columns the
// dashboard cannot work without are set.
func (l Layout) Validate() error {
	required := []struct{ field, value string }{
		{"files.timeseries", l.Files.TimeSeries},
		{"files.summary", l.Files.Summary},
		{"files.schedule", l.Files.Schedule},
		{"files.forecast_table", l.Files.ForecastTable},
		{"files.forecast_image", l.Files.ForecastImage},
		{"schedule_columns.city", l.ScheduleColumns.City},
		{"schedule_columns.hour", l.ScheduleColumns.Hour},
		{"schedule_columns.demand", l.ScheduleColumns.Demand},
	}
	var errs []error
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("layout %s: %s is required", l.Name, r.field))
		}
	}
	switch l.HistorySource {
	case "", HistoryTimeSeries, HistoryForecast:
	default:
		errs = append(errs, fmt.Errorf("layout %s: history_source must be %q or %q, got %q", l.Name, HistoryTimeSeries, HistoryForecast, l.HistorySource))
	}
	return errors.Join(errs...)
}
