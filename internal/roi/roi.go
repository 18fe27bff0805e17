// Package roi estimates the first-year return on a charging station from a
// forecast energy volume.
package roi

import (
	"errors"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

const (
	MinInstallCost = 1000.0
	MinEnergyCost  = 0.01
	MinPrice       = 0.01
)

type Inputs struct {
	InstallCost float64 `json:"install_cost"`
	EnergyCost  float64 `json:"energy_cost_per_kwh"`
	Price       float64 `json:"price_per_kwh"`
	DemandKWh   float64 `json:"demand_kwh"`
}

// DefaultInputs are the estimator's starting values.
var DefaultInputs = Inputs{
	InstallCost: 15000,
	EnergyCost:  0.12,
	Price:       0.30,
	DemandKWh:   500000,
}

// Validate checks the inputs against the estimator's minimums. NaN and
// infinite values are rejected outright since no comparison catches them.
func (in Inputs) Validate() error {
	var errs []error
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"install cost", in.InstallCost},
		{"energy cost", in.EnergyCost},
		{"price", in.Price},
		{"demand", in.DemandKWh},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			errs = append(errs, fmt.Errorf("%s must be a finite number", f.name))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if in.InstallCost < MinInstallCost {
		errs = append(errs, fmt.Errorf("install cost must be at least %s", Currency(MinInstallCost)))
	}
	if in.EnergyCost < MinEnergyCost {
		errs = append(errs, fmt.Errorf("energy cost must be at least %s per kWh", Currency(MinEnergyCost)))
	}
	if in.Price < MinPrice {
		errs = append(errs, fmt.Errorf("price must be at least %s per kWh", Currency(MinPrice)))
	}
	if in.DemandKWh < 0 {
		errs = append(errs, errors.New("demand must not be negative"))
	}
	return errors.Join(errs...)
}

type Estimate struct {
	Inputs  Inputs  `json:"inputs"`
	Revenue float64 `json:"revenue"`
	Cost    float64 `json:"cost"`
	Profit  float64 `json:"profit"`
}

// Compute validates the inputs and returns revenue, cost and profit.
func Compute(in Inputs) (Estimate, error) {
	if err := in.Validate(); err != nil {
		return Estimate{}, err
	}
	revenue := in.DemandKWh * in.Price
	cost := in.DemandKWh*in.EnergyCost + in.InstallCost
	if math.IsInf(revenue, 0) || math.IsInf(cost, 0) || math.IsNaN(revenue-cost) {
		return Estimate{}, errors.New("inputs are too large to estimate")
	}
	return Estimate{
		Inputs:  in,
		Revenue: revenue,
		Cost:    cost,
		Profit:  revenue - cost,
	}, nil
}

func (e Estimate) Profitable() bool {
	return e.Profit > 0
}

// Currency formats a dollar amount with thousands separators and cents.
func Currency(v float64) string {
	if v < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -v)
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}
