package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/lox/evdemand/internal/config"
	"github.com/lox/evdemand/internal/table"
)

// Time series and summary headers as the upstream export writes them.
const (
	ColCity           = "City"
	ColState          = "State"
	ColYear           = "Year"
	ColEVCount        = "EV_Count"
	ColElectricRange  = "Electric Range"
	ColWeightedDemand = "Weighted_Demand"
	ColTemperature    = "temperature"
	ColHumidity       = "humidity"
	ColTrafficVolume  = "traffic_volume"
)

// TimeSeriesColumns is the historical table as the dashboard displays it.
var TimeSeriesColumns = []string{ColYear, ColEVCount, ColElectricRange, ColWeightedDemand, ColTemperature, ColHumidity, ColTrafficVolume}

// SummaryColumns is the summary table as the dashboard displays it.
var SummaryColumns = []string{ColCity, ColState, ColEVCount, ColTemperature, ColHumidity, ColElectricRange}

// DecodeTimeSeries converts time series rows. A missing column or a
// non-numeric cell is a malformed artifact and returns an error.
func DecodeTimeSeries(t *table.Table) ([]TimeSeriesRecord, error) {
	out := make([]TimeSeriesRecord, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		var rec TimeSeriesRecord
		var err error
		if rec.City, err = t.Cell(i, ColCity); err != nil {
			return nil, err
		}
		if rec.Year, err = t.Int(i, ColYear); err != nil {
			return nil, err
		}
		for _, f := range []struct {
			col string
			dst *float64
		}{
			{ColEVCount, &rec.EVCount},
			{ColElectricRange, &rec.ElectricRange},
			{ColWeightedDemand, &rec.WeightedDemand},
			{ColTemperature, &rec.Temperature},
			{ColHumidity, &rec.Humidity},
			{ColTrafficVolume, &rec.TrafficVolume},
		} {
			if *f.dst, err = t.Float(i, f.col); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func DecodeSummary(t *table.Table) ([]SummaryRecord, error) {
	out := make([]SummaryRecord, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		var rec SummaryRecord
		var err error
		if rec.City, err = t.Cell(i, ColCity); err != nil {
			return nil, err
		}
		if rec.State, err = t.Cell(i, ColState); err != nil {
			return nil, err
		}
		for _, f := range []struct {
			col string
			dst *float64
		}{
			{ColEVCount, &rec.EVCount},
			{ColTemperature, &rec.Temperature},
			{ColHumidity, &rec.Humidity},
			{ColElectricRange, &rec.ElectricRange},
		} {
			if *f.dst, err = t.Float(i, f.col); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

var scheduleDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

func parseScheduleDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range scheduleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// DecodeSchedule converts schedule rows using the layout's column names.
// Date and optimal-hour columns are optional in the mapping; when unset the
// records carry no date and IsOptimal is false.
func DecodeSchedule(t *table.Table, cols config.ScheduleColumns) ([]ScheduleRecord, error) {
	out := make([]ScheduleRecord, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		var rec ScheduleRecord
		var err error
		if rec.City, err = t.Cell(i, cols.City); err != nil {
			return nil, err
		}
		if rec.Hour, err = t.Int(i, cols.Hour); err != nil {
			return nil, err
		}
		if rec.Hour < 0 || rec.Hour > 23 {
			return nil, fmt.Errorf("row %d: hour %d out of range", i+1, rec.Hour)
		}
		if rec.DemandKWh, err = t.Float(i, cols.Demand); err != nil {
			return nil, err
		}
		if cols.Date != "" {
			raw, err := t.Cell(i, cols.Date)
			if err != nil {
				return nil, err
			}
			if rec.Date, err = parseScheduleDate(raw); err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			rec.HasDate = true
		}
		if cols.Optimal != "" {
			if rec.IsOptimal, err = t.Bool(i, cols.Optimal); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// OptimalHours returns the rows flagged as recommended charging hours. The
// result is never nil.
func OptimalHours(records []ScheduleRecord) []ScheduleRecord {
	return lo.Filter(records, func(r ScheduleRecord, _ int) bool {
		return r.IsOptimal
	})
}

// ScheduleDates returns the distinct dates in first-seen order.
func ScheduleDates(records []ScheduleRecord) []string {
	return lo.Uniq(lo.Map(records, func(r ScheduleRecord, _ int) string {
		return r.DateString()
	}))
}
