package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidInput is returned for mismatched vector lengths, zero
// predictions, unknown weekdays and malformed reference tables.
var ErrInvalidInput = errors.New("invalid input")

// observationWeight is how much of the new multiplier comes from the latest
// observed/predicted ratio; the rest is carried over from the previous value.
const observationWeight = 0.5

// Forecast is one day's predicted demand and the multiplier that produced it.
type Forecast struct {
	Day        time.Weekday `json:"day"`
	Profile    []float64    `json:"profile"`
	Multiplier []float64    `json:"multiplier"`
	Adapted    bool         `json:"adapted"` // an observation was folded into Multiplier
}

// MarshalJSON writes Day by name ("Wednesday"), matching the run log.
func (f Forecast) MarshalJSON() ([]byte, error) {
	type alias Forecast
	return json.Marshal(struct {
		Day string `json:"day"`
		alias
	}{Day: f.Day.String(), alias: alias(f)})
}

// UnmarshalJSON accepts the weekday name written by MarshalJSON.
func (f *Forecast) UnmarshalJSON(data []byte) error {
	type alias Forecast
	aux := struct {
		Day string `json:"day"`
		*alias
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Day == "" {
		return nil
	}
	day, err := ParseWeekday(aux.Day)
	if err != nil {
		return err
	}
	f.Day = day
	return nil
}

// BlendTowardEventProfile moves each station from its regular demand toward
// its event demand by the station's multiplier. Stations whose event demand
// is below regular take the event value unchanged.
func BlendTowardEventProfile(regular, event, multiplier []float64) ([]float64, error) {
	if len(regular) != len(event) || len(regular) != len(multiplier) {
		return nil, fmt.Errorf("profile lengths differ: regular=%d event=%d multiplier=%d: %w",
			len(regular), len(event), len(multiplier), ErrInvalidInput)
	}

	blended := make([]float64, len(regular))
	for i := range regular {
		gap := event[i] - regular[i]
		if gap >= 0 {
			blended[i] = regular[i] + gap*multiplier[i]
		} else {
			blended[i] = event[i]
		}
	}
	return blended, nil
}

// UpdateMultiplier folds yesterday's observed/predicted ratio into the
// previous multiplier, weighting both halves equally.
func UpdateMultiplier(predicted, observed, previous []float64) ([]float64, error) {
	if len(predicted) != len(observed) || len(predicted) != len(previous) {
		return nil, fmt.Errorf("vector lengths differ: predicted=%d observed=%d previous=%d: %w",
			len(predicted), len(observed), len(previous), ErrInvalidInput)
	}

	updated := make([]float64, len(predicted))
	for i := range predicted {
		if predicted[i] == 0 {
			return nil, fmt.Errorf("station %d has zero predicted demand: %w", i, ErrInvalidInput)
		}
		updated[i] = observationWeight*(observed[i]/predicted[i]) + (1-observationWeight)*previous[i]
	}
	return updated, nil
}

// Forecaster produces daily demand forecasts from a line's reference tables.
// It holds no state between calls and is safe for concurrent use.
type Forecaster struct {
	tables Tables
}

// NewForecaster validates the tables and returns a forecaster over them.
func NewForecaster(tables Tables) (*Forecaster, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return &Forecaster{tables: tables}, nil
}

// Stations returns the number of stations in every forecast.
func (f *Forecaster) Stations() int {
	return f.tables.Stations()
}

// StaticMultiplier returns a copy of the multiplier used before any
// observation is available.
func (f *Forecaster) StaticMultiplier() []float64 {
	return append([]float64(nil), f.tables.StaticMultiplier...)
}

// Typical returns a copy of the regular-service profile for day.
func (f *Forecaster) Typical(day time.Weekday) ([]float64, error) {
	reg, ok := f.tables.Regular[day]
	if !ok {
		return nil, fmt.Errorf("no regular profile for %v: %w", day, ErrInvalidInput)
	}
	return append([]float64(nil), reg...), nil
}

// Forecast predicts demand for day from the static multiplier, adapted by
// yesterday's observation when one is usable.
func (f *Forecaster) Forecast(day time.Weekday, observedYesterday []float64) (Forecast, error) {
	return f.ForecastFrom(day, observedYesterday, f.tables.StaticMultiplier)
}

// ForecastFrom is Forecast starting from a caller-held multiplier instead of
// the static one. An observation that is empty, has the wrong station count
// or holds negative or non-finite values is ignored and previous is used
// as is.
func (f *Forecaster) ForecastFrom(day time.Weekday, observedYesterday, previous []float64) (Forecast, error) {
	regular, ok := f.tables.Regular[day]
	if !ok {
		return Forecast{}, fmt.Errorf("no regular profile for %v: %w", day, ErrInvalidInput)
	}
	event := f.tables.Event[day]

	if len(previous) != f.Stations() {
		return Forecast{}, fmt.Errorf("multiplier has %d stations, want %d: %w", len(previous), f.Stations(), ErrInvalidInput)
	}

	multiplier := append([]float64(nil), previous...)
	adapted := false
	if f.usable(observedYesterday) {
		updated, err := UpdateMultiplier(regular, observedYesterday, previous)
		if err != nil {
			return Forecast{}, err
		}
		multiplier = updated
		adapted = true
	}

	profile, err := BlendTowardEventProfile(regular, event, multiplier)
	if err != nil {
		return Forecast{}, err
	}

	return Forecast{
		Day:        day,
		Profile:    profile,
		Multiplier: multiplier,
		Adapted:    adapted,
	}, nil
}

// PercentageVsTypical returns the forecast's total as a whole percentage of
// the day's regular total, truncated toward zero.
func (f *Forecaster) PercentageVsTypical(day time.Weekday, profile []float64) (int, error) {
	regular, ok := f.tables.Regular[day]
	if !ok {
		return 0, fmt.Errorf("no regular profile for %v: %w", day, ErrInvalidInput)
	}

	typical := total(regular)
	if typical == 0 {
		return 0, fmt.Errorf("typical demand for %v is zero: %w", day, ErrInvalidInput)
	}
	return int(total(profile) / typical * 100), nil
}

func (f *Forecaster) usable(observed []float64) bool {
	if len(observed) == 0 || len(observed) != f.Stations() {
		return false
	}
	for _, v := range observed {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func total(values []float64) float64 {
	t := 0.0
	for _, v := range values {
		t += v
	}
	return t
}
