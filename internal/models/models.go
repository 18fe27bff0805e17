package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type City string

const (
	Seattle   City = "Seattle"
	Vancouver City = "Vancouver"
	SanDiego  City = "San Diego"
)

// Cities lists the supported cities in selector order.
var Cities = []City{Seattle, Vancouver, SanDiego}

type Model string

const (
	Prophet Model = "Prophet"
	ARIMA   Model = "ARIMA"
)

var Models = []Model{Prophet, ARIMA}

// ParseCity matches a city name exactly, falling back to a case-insensitive
// match so query strings like "san diego" resolve.
func ParseCity(s string) (City, error) {
	for _, c := range Cities {
		if string(c) == s {
			return c, nil
		}
	}
	for _, c := range Cities {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown city %q", s)
}

func ParseModel(s string) (Model, error) {
	for _, m := range Models {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown model %q", s)
}

// Selection is the (city, model) pair that drives artifact resolution.
type Selection struct {
	City  City
	Model Model
}

func (s Selection) String() string {
	return fmt.Sprintf("%s/%s", s.City, s.Model)
}

// DefaultSelection is what the dashboard shows before the user picks anything.
var DefaultSelection = Selection{City: Seattle, Model: Prophet}

type TimeSeriesRecord struct {
	City           string  `json:"city"`
	Year           int     `json:"year"`
	EVCount        float64 `json:"ev_count"`
	ElectricRange  float64 `json:"electric_range"`
	WeightedDemand float64 `json:"weighted_demand"`
	Temperature    float64 `json:"temperature"`
	Humidity       float64 `json:"humidity"`
	TrafficVolume  float64 `json:"traffic_volume"`
}

type SummaryRecord struct {
	City          string  `json:"city"`
	State         string  `json:"state"`
	EVCount       float64 `json:"ev_count"`
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	ElectricRange float64 `json:"electric_range"`
}

type ScheduleRecord struct {
	City      string
	Date      time.Time
	HasDate   bool
	Hour      int
	DemandKWh float64
	IsOptimal bool
}

// MarshalJSON writes the date as YYYY-MM-DD and omits it when the schedule
// has no date column.
func (r ScheduleRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		City      string  `json:"city"`
		Date      string  `json:"date,omitempty"`
		Hour      int     `json:"hour"`
		DemandKWh float64 `json:"demand_kwh"`
		IsOptimal bool    `json:"is_optimal"`
	}{r.City, r.DateString(), r.Hour, r.DemandKWh, r.IsOptimal})
}

// DateString formats the schedule date the way the dashboard tables show it.
func (r ScheduleRecord) DateString() string {
	if !r.HasDate {
		return ""
	}
	return r.Date.Format("2006-01-02")
}
