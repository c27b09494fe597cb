package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/capacity"
)

// Config holds all configuration for the queueing service
type Config struct {
	// Database
	DatabasePath string
	DatabaseURL  string // PostgreSQL; takes precedence over DatabasePath when set

	// HTTP API
	Port        string
	CORSOrigins []string

	// Forecast bookkeeping
	RetentionDuration time.Duration
	ForecastCacheSize int

	// Line parameters
	CarCapacity      float64
	CarsPerTrain     int
	MinTrainsPerHour int
	MinTrainsPerDay  int
	BoardingRate     float64
	AlightRate       float64
	DepartRate       float64
}

// LoadDotEnv reads .env and then .env.local, which overrides it. Missing
// files are ignored.
func LoadDotEnv() {
	if err := godotenv.Load(".env"); err == nil {
		log.Println("Loaded .env")
	}
	if err := godotenv.Overload(".env.local"); err == nil {
		log.Println("Loaded .env.local")
	}
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		DatabasePath: getEnv("SQLITE_DATABASE", "data/queueing.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		Port:        getEnv("PORT", "8081"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		RetentionDuration: time.Duration(getEnvInt("RETENTION_DAYS", 30)) * 24 * time.Hour,
		ForecastCacheSize: getEnvInt("FORECAST_CACHE_SIZE", 64),

		CarCapacity:      getEnvFloat("CAR_CAPACITY", capacity.DefaultCarCapacity),
		CarsPerTrain:     getEnvInt("CARS_PER_TRAIN", capacity.DefaultCarsPerTrain),
		MinTrainsPerHour: getEnvInt("MIN_TRAINS", capacity.DefaultMinTrainsPerHour),
		MinTrainsPerDay:  getEnvInt("MIN_TRAINS_DAILY", capacity.DefaultMinTrainsPerDay),
		BoardingRate:     getEnvFloat("BOARDING_RATE", capacity.DefaultBoardingRate),
		AlightRate:       getEnvFloat("ALIGHT_RATE", capacity.DefaultAlightRate),
		DepartRate:       getEnvFloat("DEPART_RATE", capacity.DefaultDepartRate),
	}
}

// HourlyParams returns line parameters for a one-hour planning interval.
func (c *Config) HourlyParams() capacity.LineParams {
	return capacity.LineParams{
		CarCapacity:  c.CarCapacity,
		CarsPerTrain: c.CarsPerTrain,
		MinFrequency: c.MinTrainsPerHour,
		BoardingRate: c.BoardingRate,
		AlightRate:   c.AlightRate,
		DepartRate:   c.DepartRate,
	}
}

// DailyParams returns line parameters for a whole-day forecast.
func (c *Config) DailyParams() capacity.LineParams {
	p := c.HourlyParams()
	p.MinFrequency = c.MinTrainsPerDay
	return p
}

// Validate checks both parameter sets.
func (c *Config) Validate() error {
	if err := c.HourlyParams().Validate(); err != nil {
		return err
	}
	return c.DailyParams().Validate()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Warning: ignoring non-integer %s=%q", key, value)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Printf("Warning: ignoring non-numeric %s=%q", key, value)
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
