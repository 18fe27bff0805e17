package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	"github.com/lox/evdemand/internal/api"
	"github.com/lox/evdemand/internal/artifact"
	"github.com/lox/evdemand/internal/charts"
	"github.com/lox/evdemand/internal/config"
	"github.com/lox/evdemand/internal/forecast"
	"github.com/lox/evdemand/internal/models"
	"github.com/lox/evdemand/internal/roi"
)

// Globals are shared by every command.
type Globals struct {
	DataDir    string `help:"Directory holding the exported artifacts." default:"." env:"EVDEMAND_DATA_DIR" type:"path"`
	Layout     string `help:"Artifact naming layout (dashboard or platform)." default:"dashboard" env:"EVDEMAND_LAYOUT"`
	LayoutFile string `help:"YAML file overriding layout fields." env:"EVDEMAND_LAYOUT_FILE" type:"path"`
}

func (g *Globals) resolver() (*artifact.Resolver, error) {
	layout, err := config.LoadLayout(g.Layout, g.LayoutFile)
	if err != nil {
		return nil, err
	}
	return artifact.NewDir(g.DataDir, layout), nil
}

type CLI struct {
	Globals

	Serve    ServeCmd    `cmd:"" default:"withargs" help:"Run the dashboard web server."`
	Check    CheckCmd    `cmd:"" help:"Report which artifacts exist for every city and model."`
	Forecast ForecastCmd `cmd:"" help:"Print the normalized forecast table as CSV."`
	ROI      ROICmd      `cmd:"" name:"roi" help:"Estimate charging station return on investment."`
}

type ServeCmd struct {
	Addr          string `help:"HTTP listen address." default:":8080" env:"EVDEMAND_ADDR"`
	ChartCacheDir string `help:"Directory for rendered chart PNGs. Empty disables caching." env:"EVDEMAND_CHART_CACHE_DIR"`
}

func (c *ServeCmd) Run(g *Globals) error {
	resolver, err := g.resolver()
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	opts := api.Options{Clock: clock}
	if c.ChartCacheDir != "" {
		opts.ChartCache = charts.NewCache(c.ChartCacheDir, charts.DefaultMaxAge, clock)
		if n, err := opts.ChartCache.Prune(); err != nil {
			log.Printf("prune chart cache: %v", err)
		} else if n > 0 {
			log.Printf("pruned %d stale charts", n)
		}
	}

	inv, err := resolver.Inventory(models.DefaultSelection)
	if err != nil {
		return err
	}
	for _, st := range inv {
		if !st.Present {
			log.Printf("warning: %s not found at %s", st.Name, st.Path)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := api.NewServer(resolver, c.Addr, opts)
	log.Printf("serving %s (%s layout) on %s", resolver.Base(), resolver.Layout().Name, c.Addr)
	return server.Run(ctx)
}

type CheckCmd struct {
	Strict bool `help:"Exit non-zero when any artifact is missing."`
}

func (c *CheckCmd) Run(g *Globals) error {
	resolver, err := g.resolver()
	if err != nil {
		return err
	}

	missing := 0
	for _, city := range models.Cities {
		for _, model := range models.Models {
			sel := models.Selection{City: city, Model: model}
			inv, err := resolver.Inventory(sel)
			if err != nil {
				return err
			}
			for _, st := range inv {
				// Shared artifacts only need reporting once per city.
				if model != models.Prophet && st.Kind != artifact.KindForecastTable && st.Kind != artifact.KindForecastImage {
					continue
				}
				state := "ok"
				if !st.Present {
					state = "MISSING"
					missing++
				}
				fmt.Printf("%-10s %-8s %-15s %-8s %s\n", city, model, st.Name, state, st.Path)
			}
		}
	}

	if missing > 0 && c.Strict {
		return fmt.Errorf("%d artifacts missing", missing)
	}
	return nil
}

type ForecastCmd struct {
	City  string `help:"City to load." default:"Seattle"`
	Model string `help:"Forecast model (Prophet or ARIMA)." default:"Prophet"`
}

func (c *ForecastCmd) Run(g *Globals) error {
	city, err := models.ParseCity(c.City)
	if err != nil {
		return err
	}
	model, err := models.ParseModel(c.Model)
	if err != nil {
		return err
	}
	sel := models.Selection{City: city, Model: model}

	resolver, err := g.resolver()
	if err != nil {
		return err
	}
	lookup, err := resolver.Load(artifact.KindForecastTable, sel)
	if err != nil {
		return err
	}
	if lookup.Absent() {
		return fmt.Errorf("forecast data for %s (%s) not found at %s", city, model, lookup.Path)
	}

	schema := forecast.SchemaFor(model)
	records, err := forecast.Normalize(lookup.Table, schema)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		log.Printf("no forecast rows from %d onward in %s", forecast.Horizon, lookup.Path)
	}
	return forecast.ToTable(records, schema).WriteCSV(os.Stdout)
}

type ROICmd struct {
	InstallCost float64 `help:"Installation cost per station." default:"15000"`
	EnergyCost  float64 `help:"Energy cost per kWh." default:"0.12"`
	Price       float64 `help:"Selling price per kWh." default:"0.30"`
	DemandKWh   float64 `name:"demand-kwh" help:"Forecast demand in kWh." default:"500000"`
}

func (c *ROICmd) Run() error {
	est, err := roi.Compute(roi.Inputs{
		InstallCost: c.InstallCost,
		EnergyCost:  c.EnergyCost,
		Price:       c.Price,
		DemandKWh:   c.DemandKWh,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Revenue: %s\n", roi.Currency(est.Revenue))
	fmt.Printf("Cost:    %s\n", roi.Currency(est.Cost))
	fmt.Printf("Profit:  %s\n", roi.Currency(est.Profit))
	if !est.Profitable() {
		fmt.Println("Projected loss at these inputs.")
	}
	return nil
}

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("evdemand"),
		kong.Description("EV charging demand dashboard over exported analysis artifacts."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli.Globals); err != nil {
		log.Fatalf("%s: %v", ctx.Command(), err)
	}
}
