package capacity

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for non-positive rates or capacities, empty or
// negative demand profiles, and zero train counts.
var ErrInvalidInput = errors.New("invalid input")

// Result is the outcome of estimating one line for one interval.
type Result struct {
	Trains        int     `json:"trains"`
	FillRate      float64 `json:"fillRate"`
	DwellSeconds  float64 `json:"dwellSeconds"`
	PeakOccupancy float64 `json:"peakOccupancy"`
	SetByMinimum  bool    `json:"setByMinimum"` // trains floored by MinFrequency
}

// SimulateLineOccupancy runs one train along the line and returns the highest
// load it carries. At every station after the first, departRate of the riders
// on board get off and the station's demand gets on.
func SimulateLineOccupancy(profile []float64, departRate float64) (float64, error) {
	if err := validateProfile(profile); err != nil {
		return 0, err
	}
	if err := validateDepartRate(departRate); err != nil {
		return 0, err
	}

	if len(profile) == 1 {
		return profile[0], nil
	}

	current := profile[0]
	peak := current
	for _, demand := range profile[1:] {
		current = current*(1-departRate) + demand
		peak = math.Max(peak, current)
	}
	return peak, nil
}

// TrainsRequired returns the number of trains needed to carry peak riders in
// one interval, never fewer than minFrequency, and the resulting fill rate.
func TrainsRequired(peak, carCapacity float64, carsPerTrain, minFrequency int) (int, float64, error) {
	if carCapacity <= 0 || math.IsNaN(carCapacity) {
		return 0, 0, fmt.Errorf("car capacity must be positive, got %v: %w", carCapacity, ErrInvalidInput)
	}
	if carsPerTrain <= 0 {
		return 0, 0, fmt.Errorf("cars per train must be positive, got %d: %w", carsPerTrain, ErrInvalidInput)
	}
	if minFrequency < 0 {
		return 0, 0, fmt.Errorf("minimum frequency must not be negative, got %d: %w", minFrequency, ErrInvalidInput)
	}
	if peak < 0 || math.IsNaN(peak) || math.IsInf(peak, 0) {
		return 0, 0, fmt.Errorf("peak demand must be a non-negative number, got %v: %w", peak, ErrInvalidInput)
	}

	passengersPerTrain := carCapacity * float64(carsPerTrain)
	needed := math.Ceil(peak / passengersPerTrain)
	if needed > math.MaxInt32 {
		return 0, 0, fmt.Errorf("peak demand %v needs more than %d trains: %w", peak, math.MaxInt32, ErrInvalidInput)
	}
	trains := int(needed)
	if trains < minFrequency {
		trains = minFrequency
	}

	// No demand and no floor: nothing runs and nothing is filled.
	if trains == 0 {
		return 0, 0, nil
	}

	fill := peak / (float64(trains) * passengersPerTrain)
	return trains, fill, nil
}

// TrainsNeededOnLine sizes service for the most crowded segment of the line
// rather than for any single station's demand.
func TrainsNeededOnLine(profile []float64, departRate, carCapacity float64, carsPerTrain, minFrequency int) (int, float64, error) {
	peak, err := SimulateLineOccupancy(profile, departRate)
	if err != nil {
		return 0, 0, err
	}
	return TrainsRequired(peak, carCapacity, carsPerTrain, minFrequency)
}

// AverageStationDwellTime returns the average number of seconds a train
// spends at each station while the profile's riders board and alight.
//
// The alighting term counts every rider except the peak load. When the peak
// falls mid-line this undercounts riders still aboard at the last station.
func AverageStationDwellTime(profile []float64, trains int, boardingRate, alightRate, departRate float64) (float64, error) {
	if trains <= 0 {
		return 0, fmt.Errorf("trains must be positive, got %d: %w", trains, ErrInvalidInput)
	}
	if boardingRate <= 0 || math.IsNaN(boardingRate) {
		return 0, fmt.Errorf("boarding rate must be positive, got %v: %w", boardingRate, ErrInvalidInput)
	}
	if alightRate <= 0 || math.IsNaN(alightRate) {
		return 0, fmt.Errorf("alight rate must be positive, got %v: %w", alightRate, ErrInvalidInput)
	}

	peak, err := SimulateLineOccupancy(profile, departRate)
	if err != nil {
		return 0, err
	}

	total := sum(profile)
	boarding := total / float64(trains) / boardingRate
	alighting := (total - peak) / float64(trains) / alightRate

	return (boarding + alighting) / float64(len(profile)), nil
}

// Estimate computes trains, fill rate and dwell time for a profile under the
// given line parameters.
func Estimate(profile []float64, params LineParams) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}

	peak, err := SimulateLineOccupancy(profile, params.DepartRate)
	if err != nil {
		return Result{}, err
	}

	trains, fill, err := TrainsRequired(peak, params.CarCapacity, params.CarsPerTrain, params.MinFrequency)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Trains:        trains,
		FillRate:      fill,
		PeakOccupancy: peak,
		SetByMinimum:  trains == params.MinFrequency,
	}

	// A line with no riders and no minimum service has nothing to dwell for.
	if trains == 0 {
		return res, nil
	}

	res.DwellSeconds, err = AverageStationDwellTime(profile, trains, params.BoardingRate, params.AlightRate, params.DepartRate)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func validateProfile(profile []float64) error {
	if len(profile) == 0 {
		return fmt.Errorf("demand profile needs at least one station: %w", ErrInvalidInput)
	}
	for i, d := range profile {
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return fmt.Errorf("station %d demand must be a non-negative number, got %v: %w", i, d, ErrInvalidInput)
		}
	}
	return nil
}

func validateDepartRate(rate float64) error {
	if rate < 0 || rate >= 1 || math.IsNaN(rate) {
		return fmt.Errorf("depart rate must be in [0,1), got %v: %w", rate, ErrInvalidInput)
	}
	return nil
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
