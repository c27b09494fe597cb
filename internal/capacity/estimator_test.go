package capacity

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance*math.Max(1, math.Abs(b))
}

func TestSimulateLineOccupancy(t *testing.T) {
	tests := []struct {
		name    string
		profile []float64
		rate    float64
		want    float64
	}{
		{"single station", []float64{4200}, 0.2, 4200},
		{"single station ignores rate", []float64{4200}, 0.95, 4200},
		{"zero depart rate accumulates", []float64{100, 200, 300}, 0, 600},
		{"peak at first station", []float64{1000, 0, 0}, 0.5, 1000},
		{"peak mid line", []float64{100, 1000, 0, 0}, 0.5, 1050},
		{"planner example", []float64{9000, 7500, 8000, 5000, 9000}, 0.2, 25646.4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SimulateLineOccupancy(tc.profile, tc.rate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !almostEqual(got, tc.want) {
				t.Errorf("SimulateLineOccupancy(%v, %v) = %v, want %v", tc.profile, tc.rate, got, tc.want)
			}
		})
	}
}

func TestSimulateLineOccupancyInvalid(t *testing.T) {
	tests := []struct {
		name    string
		profile []float64
		rate    float64
	}{
		{"empty profile", nil, 0.2},
		{"negative demand", []float64{100, -1}, 0.2},
		{"NaN demand", []float64{math.NaN()}, 0.2},
		{"rate of one", []float64{100, 200}, 1},
		{"negative rate", []float64{100, 200}, -0.1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SimulateLineOccupancy(tc.profile, tc.rate)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestTrainsRequired(t *testing.T) {
	tests := []struct {
		name      string
		peak      float64
		minFreq   int
		wantTrain int
		wantFill  float64
	}{
		{"exact fit", 498 * 20, 10, 20, 1},
		{"rounds up", 498*20 + 1, 10, 21, (498*20 + 1) / (21 * 498.0)},
		{"floored by minimum", 498, 10, 10, 0.1},
		{"zero demand uses minimum", 0, 10, 10, 0},
		{"zero demand no minimum", 0, 0, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			trains, fill, err := TrainsRequired(tc.peak, 166, 3, tc.minFreq)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if trains != tc.wantTrain {
				t.Errorf("trains = %d, want %d", trains, tc.wantTrain)
			}
			if !almostEqual(fill, tc.wantFill) {
				t.Errorf("fill = %v, want %v", fill, tc.wantFill)
			}
		})
	}
}

func TestTrainsRequiredMonotonic(t *testing.T) {
	prev := 0
	for peak := 0.0; peak <= 20000; peak += 137 {
		trains, fill, err := TrainsRequired(peak, 166, 3, 10)
		if err != nil {
			t.Fatalf("peak %v: %v", peak, err)
		}
		if trains < prev {
			t.Fatalf("trains decreased from %d to %d at peak %v", prev, trains, peak)
		}
		if trains < 10 {
			t.Fatalf("trains %d below minimum frequency at peak %v", trains, peak)
		}
		if fill > 1+tolerance {
			t.Fatalf("fill %v exceeds 1 at peak %v", fill, peak)
		}
		prev = trains
	}
}

func TestTrainsRequiredInvalid(t *testing.T) {
	tests := []struct {
		name     string
		capacity float64
		cars     int
		minFreq  int
		peak     float64
	}{
		{"zero capacity", 0, 3, 10, 100},
		{"negative capacity", -5, 3, 10, 100},
		{"zero cars", 166, 0, 10, 100},
		{"negative minimum", 166, 3, -1, 100},
		{"negative peak", 166, 3, 10, -1},
		{"infinite peak", 166, 3, 10, math.Inf(1)},
		{"peak beyond any fleet", 166, 3, 10, 1e300},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := TrainsRequired(tc.peak, tc.capacity, tc.cars, tc.minFreq)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestTrainsNeededOnLinePlannerExample(t *testing.T) {
	trains, fill, err := TrainsNeededOnLine([]float64{9000, 7500, 8000, 5000, 9000}, 0.2, 166, 3, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trains != 52 {
		t.Errorf("trains = %d, want 52", trains)
	}
	if !almostEqual(fill, 25646.4/(52*498)) {
		t.Errorf("fill = %v, want %v", fill, 25646.4/(52*498))
	}
	if math.Abs(fill-0.9904) > 1e-4 {
		t.Errorf("fill = %v, want about 0.9904", fill)
	}
}

func TestAverageStationDwellTime(t *testing.T) {
	profile := []float64{9000, 7500, 8000, 5000, 9000}

	got, err := AverageStationDwellTime(profile, 52, DefaultBoardingRate, DefaultAlightRate, 0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := 38500.0
	peak := 25646.4
	want := (total/52/DefaultBoardingRate + (total-peak)/52/DefaultAlightRate) / 5
	if !almostEqual(got, want) {
		t.Errorf("dwell = %v, want %v", got, want)
	}
	if math.Abs(got-16.5832) > 1e-3 {
		t.Errorf("dwell = %v, want about 16.583", got)
	}
}

func TestAverageStationDwellTimeSingleStation(t *testing.T) {
	// Every rider is still aboard, so only boarding time counts.
	got, err := AverageStationDwellTime([]float64{1000}, 10, 5, 2, 0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 20) {
		t.Errorf("dwell = %v, want 20", got)
	}
}

func TestAverageStationDwellTimeUsesPeakNotFinalLoad(t *testing.T) {
	// Peak 1050 at station 1; the final load would be 262.5.
	profile := []float64{100, 1000, 0, 0}
	got, err := AverageStationDwellTime(profile, 1, 1, 1, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := (1100.0 + (1100.0 - 1050.0)) / 4
	if !almostEqual(got, want) {
		t.Errorf("dwell = %v, want %v", got, want)
	}
}

func TestAverageStationDwellTimeInvalid(t *testing.T) {
	profile := []float64{100, 200}
	tests := []struct {
		name      string
		trains    int
		boarding  float64
		alighting float64
	}{
		{"zero trains", 0, 1, 1},
		{"zero boarding rate", 5, 0, 1},
		{"negative alight rate", 5, 1, -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := AverageStationDwellTime(profile, tc.trains, tc.boarding, tc.alighting, 0.2)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestEstimate(t *testing.T) {
	res, err := Estimate([]float64{9000, 7500, 8000, 5000, 9000}, DefaultHourlyParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Trains != 52 {
		t.Errorf("Trains = %d, want 52", res.Trains)
	}
	if res.SetByMinimum {
		t.Error("SetByMinimum should be false when capacity decides")
	}
	if !almostEqual(res.PeakOccupancy, 25646.4) {
		t.Errorf("PeakOccupancy = %v, want 25646.4", res.PeakOccupancy)
	}
	if res.DwellSeconds <= 0 {
		t.Errorf("DwellSeconds = %v, want positive", res.DwellSeconds)
	}
}

func TestEstimateSetByMinimum(t *testing.T) {
	res, err := Estimate([]float64{400, 200, 500, 300}, DefaultHourlyParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Trains != DefaultMinTrainsPerHour || !res.SetByMinimum {
		t.Errorf("got %d trains (SetByMinimum=%v), want minimum %d", res.Trains, res.SetByMinimum, DefaultMinTrainsPerHour)
	}
	if res.FillRate >= 1 {
		t.Errorf("FillRate = %v, want below 1 when oversupplied", res.FillRate)
	}
}

func TestEstimateNoServiceNoDemand(t *testing.T) {
	params := DefaultHourlyParams()
	params.MinFrequency = 0

	res, err := Estimate([]float64{0, 0, 0}, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Trains != 0 || res.FillRate != 0 || res.DwellSeconds != 0 {
		t.Errorf("got %+v, want zero result", res)
	}
}

func TestLineParamsValidate(t *testing.T) {
	if err := DefaultHourlyParams().Validate(); err != nil {
		t.Fatalf("default hourly params invalid: %v", err)
	}
	if err := DefaultDailyParams().Validate(); err != nil {
		t.Fatalf("default daily params invalid: %v", err)
	}

	mutations := map[string]func(*LineParams){
		"capacity":    func(p *LineParams) { p.CarCapacity = 0 },
		"cars":        func(p *LineParams) { p.CarsPerTrain = 0 },
		"minimum":     func(p *LineParams) { p.MinFrequency = -1 },
		"boarding":    func(p *LineParams) { p.BoardingRate = 0 },
		"alighting":   func(p *LineParams) { p.AlightRate = -2 },
		"depart high": func(p *LineParams) { p.DepartRate = 1 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			p := DefaultHourlyParams()
			mutate(&p)
			if err := p.Validate(); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
