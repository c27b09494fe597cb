package capacity

import (
	"fmt"
	"math"
)

// Defaults from the Line 10 planning study. Boarding and alighting rates are
// per-door rates times door width (1.65 m) times doors per train (9).
const (
	DefaultCarCapacity      = 166
	DefaultCarsPerTrain     = 3
	DefaultMinTrainsPerHour = 10
	DefaultMinTrainsPerDay  = 120
	DefaultBoardingRate     = 0.87 * 1.65 * 9
	DefaultAlightRate       = 0.65 * 1.65 * 9
	DefaultDepartRate       = 0.2
)

// LineParams is the fixed configuration of a line for one calculation.
type LineParams struct {
	CarCapacity  float64 `json:"carCapacity"`
	CarsPerTrain int     `json:"carsPerTrain"`
	MinFrequency int     `json:"minFrequency"`
	BoardingRate float64 `json:"boardingRate"`
	AlightRate   float64 `json:"alightRate"`
	DepartRate   float64 `json:"departRate"`
}

// DefaultHourlyParams returns parameters for planning a one-hour interval.
func DefaultHourlyParams() LineParams {
	return LineParams{
		CarCapacity:  DefaultCarCapacity,
		CarsPerTrain: DefaultCarsPerTrain,
		MinFrequency: DefaultMinTrainsPerHour,
		BoardingRate: DefaultBoardingRate,
		AlightRate:   DefaultAlightRate,
		DepartRate:   DefaultDepartRate,
	}
}

// DefaultDailyParams is DefaultHourlyParams with a per-day service floor,
// matching daily forecast profiles.
func DefaultDailyParams() LineParams {
	p := DefaultHourlyParams()
	p.MinFrequency = DefaultMinTrainsPerDay
	return p
}

// Validate checks every parameter is in range.
func (p LineParams) Validate() error {
	if p.CarCapacity <= 0 || math.IsNaN(p.CarCapacity) || math.IsInf(p.CarCapacity, 0) {
		return fmt.Errorf("car capacity must be positive, got %v: %w", p.CarCapacity, ErrInvalidInput)
	}
	if p.CarsPerTrain <= 0 {
		return fmt.Errorf("cars per train must be positive, got %d: %w", p.CarsPerTrain, ErrInvalidInput)
	}
	if p.MinFrequency < 0 {
		return fmt.Errorf("minimum frequency must not be negative, got %d: %w", p.MinFrequency, ErrInvalidInput)
	}
	if p.BoardingRate <= 0 || math.IsNaN(p.BoardingRate) {
		return fmt.Errorf("boarding rate must be positive, got %v: %w", p.BoardingRate, ErrInvalidInput)
	}
	if p.AlightRate <= 0 || math.IsNaN(p.AlightRate) {
		return fmt.Errorf("alight rate must be positive, got %v: %w", p.AlightRate, ErrInvalidInput)
	}
	return validateDepartRate(p.DepartRate)
}
