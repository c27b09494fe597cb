package planner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/capacity"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/forecast"
)

// DefaultLineID identifies the Paris Metro Line 10 tables.
const DefaultLineID = "line10"

// Run is one recorded forecast-and-estimate pass.
type Run struct {
	ID               string    `json:"id"`
	LineID           string    `json:"lineId"`
	Day              string    `json:"day"`
	Adapted          bool      `json:"adapted"`
	TotalDemand      float64   `json:"totalDemand"`
	PercentOfTypical int       `json:"percentOfTypical"`
	Trains           int       `json:"trains"`
	FillRate         float64   `json:"fillRate"`
	DwellSeconds     float64   `json:"dwellSeconds"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Store persists the evolving multiplier per line and the run log.
type Store interface {
	GetMultiplier(ctx context.Context, lineID string) ([]float64, error)
	SaveMultiplier(ctx context.Context, lineID string, multiplier []float64) error
	DeleteMultiplier(ctx context.Context, lineID string) error
	RecordRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Cleanup(ctx context.Context, retention time.Duration) error
}

// Plan is the outcome of planning one day.
type Plan struct {
	RunID    string            `json:"runId,omitempty"` // set only for recorded runs
	Forecast forecast.Forecast `json:"forecast"`
	Percent  int               `json:"percentOfTypical"`
	Estimate capacity.Result   `json:"estimate"`
}

// Planner owns the multiplier that carries over from day to day. It loads
// the stored value, folds in yesterday's observation, and saves the result
// so the forecasting core itself stays stateless.
type Planner struct {
	store      Store
	forecaster *forecast.Forecaster
	params     capacity.LineParams

	mu        sync.Mutex
	lineLocks map[string]*sync.Mutex
}

// New creates a planner for one line.
func New(store Store, forecaster *forecast.Forecaster, params capacity.LineParams) *Planner {
	return &Planner{
		store:      store,
		forecaster: forecaster,
		params:     params,
		lineLocks:  make(map[string]*sync.Mutex),
	}
}

// lockLine serializes read-modify-write of one line's multiplier. Callers
// must call the returned unlock.
func (p *Planner) lockLine(lineID string) (unlock func()) {
	p.mu.Lock()
	l, ok := p.lineLocks[lineID]
	if !ok {
		l = &sync.Mutex{}
		p.lineLocks[lineID] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Static plans day from the static multiplier and touches no stored state.
func (p *Planner) Static(day time.Weekday) (Plan, error) {
	return p.Stateless(day, nil)
}

// Stateless plans day from the static multiplier adapted by
// observedYesterday, without loading or saving anything. A planner used
// only this way may have a nil Store.
func (p *Planner) Stateless(day time.Weekday, observedYesterday []float64) (Plan, error) {
	fc, err := p.forecaster.Forecast(day, observedYesterday)
	if err != nil {
		return Plan{}, err
	}
	return p.finish(fc)
}

// PlanDay forecasts day for lineID, adapting the stored multiplier with
// observedYesterday when it is usable, then sizes service for the forecast.
// The new multiplier is saved only when the observation was used. Calls for
// the same line run one at a time, so each observation builds on the last.
func (p *Planner) PlanDay(ctx context.Context, lineID string, day time.Weekday, observedYesterday []float64) (Plan, error) {
	defer p.lockLine(lineID)()

	previous, err := p.store.GetMultiplier(ctx, lineID)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to load multiplier for %s: %w", lineID, err)
	}

	// Start from the static multiplier when nothing usable is stored.
	if len(previous) != p.forecaster.Stations() {
		if previous != nil {
			log.Printf("Planner: stored multiplier for %s has %d stations, want %d; using static", lineID, len(previous), p.forecaster.Stations())
		}
		previous = p.forecaster.StaticMultiplier()
	}

	fc, err := p.forecaster.ForecastFrom(day, observedYesterday, previous)
	if err != nil {
		return Plan{}, err
	}
	if len(observedYesterday) > 0 && !fc.Adapted {
		log.Printf("Planner: ignoring unusable observation for %s (%d values)", lineID, len(observedYesterday))
	}

	plan, err := p.finish(fc)
	if err != nil {
		return Plan{}, err
	}
	plan.RunID = uuid.NewString()

	if fc.Adapted {
		if err := p.store.SaveMultiplier(ctx, lineID, fc.Multiplier); err != nil {
			return Plan{}, fmt.Errorf("failed to save multiplier for %s: %w", lineID, err)
		}
	}

	run := Run{
		ID:               plan.RunID,
		LineID:           lineID,
		Day:              day.String(),
		Adapted:          fc.Adapted,
		TotalDemand:      sum(fc.Profile),
		PercentOfTypical: plan.Percent,
		Trains:           plan.Estimate.Trains,
		FillRate:         plan.Estimate.FillRate,
		DwellSeconds:     plan.Estimate.DwellSeconds,
		CreatedAt:        time.Now().UTC(),
	}
	if err := p.store.RecordRun(ctx, run); err != nil {
		// Run logging is best effort.
		log.Printf("Planner: failed to record run %s: %v", run.ID, err)
	}

	return plan, nil
}

// Multiplier returns the stored multiplier for lineID, or the static one when
// none is stored.
func (p *Planner) Multiplier(ctx context.Context, lineID string) ([]float64, bool, error) {
	m, err := p.store.GetMultiplier(ctx, lineID)
	if err != nil {
		return nil, false, err
	}
	if len(m) != p.forecaster.Stations() {
		return p.forecaster.StaticMultiplier(), false, nil
	}
	return m, true, nil
}

// Reset discards the stored multiplier so the next plan starts from static.
func (p *Planner) Reset(ctx context.Context, lineID string) error {
	defer p.lockLine(lineID)()
	return p.store.DeleteMultiplier(ctx, lineID)
}

// Runs returns up to limit recent runs, newest first.
func (p *Planner) Runs(ctx context.Context, limit int) ([]Run, error) {
	return p.store.ListRuns(ctx, limit)
}

func (p *Planner) finish(fc forecast.Forecast) (Plan, error) {
	pct, err := p.forecaster.PercentageVsTypical(fc.Day, fc.Profile)
	if err != nil {
		return Plan{}, err
	}

	est, err := capacity.Estimate(fc.Profile, p.params)
	if err != nil {
		return Plan{}, err
	}

	return Plan{
		Forecast: fc,
		Percent:  pct,
		Estimate: est,
	}, nil
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
