package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/capacity"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/config"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/db"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/forecast"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/planner"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/report"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	// Command line flags
	demands := flag.String("demands", "", "Station demands for one interval, comma- or space-separated (e.g. '400 200 500 300')")
	day := flag.String("day", "", "Forecast this day of the week instead of estimating -demands")
	yesterday := flag.String("yesterday", report.NotAvailable, "Yesterday's observed demand per station, or n/a")
	persist := flag.Bool("persist", false, "Load and save the line multiplier in the database")
	lineID := flag.String("line", planner.DefaultLineID, "Line whose multiplier is used with -persist")
	dbPath := flag.String("db", cfg.DatabasePath, "Path to SQLite database (DATABASE_URL selects PostgreSQL)")

	carCapacity := flag.Float64("car-capacity", cfg.CarCapacity, "Passenger capacity of each car")
	carsPerTrain := flag.Int("cars", cfg.CarsPerTrain, "Cars per train")
	minTrains := flag.Int("min-trains", -1, "Minimum trains per interval (default: hourly or daily config value)")
	boardingRate := flag.Float64("boarding-rate", cfg.BoardingRate, "Boarding rate, passengers/second")
	alightRate := flag.Float64("alight-rate", cfg.AlightRate, "Alighting rate, passengers/second")
	departRate := flag.Float64("depart-rate", cfg.DepartRate, "Share of riders leaving at each station")
	flag.Parse()

	cfg.CarCapacity = *carCapacity
	cfg.CarsPerTrain = *carsPerTrain
	cfg.BoardingRate = *boardingRate
	cfg.AlightRate = *alightRate
	cfg.DepartRate = *departRate
	if *minTrains >= 0 {
		cfg.MinTrainsPerHour = *minTrains
		cfg.MinTrainsPerDay = *minTrains
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid line parameters: %v", err)
	}

	if *day == "" {
		if err := runEstimate(*demands, cfg.HourlyParams()); err != nil {
			log.Fatal(err)
		}
		return
	}

	weekday, err := forecast.ParseWeekday(*day)
	if err != nil {
		log.Fatal(err)
	}
	observed, err := report.ParseDemands(*yesterday)
	if err != nil {
		log.Fatalf("Invalid -yesterday: %v", err)
	}

	if err := runForecast(cfg, weekday, observed, *persist, *lineID, *dbPath); err != nil {
		log.Fatal(err)
	}
}

func runEstimate(text string, params capacity.LineParams) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("enter the passenger demands at each station with -demands, e.g. -demands '400 200 500 300'")
	}
	profile, err := report.ParseDemands(text)
	if err != nil {
		return err
	}
	return report.WriteResults(os.Stdout, profile, params)
}

func runForecast(cfg *config.Config, day time.Weekday, observed []float64, persist bool, lineID, dbPath string) error {
	forecaster, err := forecast.NewForecaster(forecast.Line10Tables())
	if err != nil {
		return err
	}

	var plan planner.Plan
	if persist {
		ctx := context.Background()
		store, err := db.Open(ctx, cfg.DatabaseURL, dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		plan, err = planner.New(store, forecaster, cfg.DailyParams()).PlanDay(ctx, lineID, day, observed)
		if err != nil {
			return err
		}
	} else {
		plan, err = planner.New(nil, forecaster, cfg.DailyParams()).Stateless(day, observed)
		if err != nil {
			return err
		}
	}

	if len(observed) > 0 && !plan.Forecast.Adapted {
		log.Printf("Warning: ignored -yesterday; expected %d non-negative values, got %d", forecaster.Stations(), len(observed))
	}

	fmt.Printf("Forecast demand: %s\n", formatProfile(plan.Forecast.Profile))
	return report.WriteForecast(os.Stdout, plan)
}

func formatProfile(profile []float64) string {
	parts := make([]string, len(profile))
	for i, v := range profile {
		parts[i] = fmt.Sprintf("%.0f", v)
	}
	return strings.Join(parts, ", ")
}
