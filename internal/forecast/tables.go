package forecast

import (
	"fmt"
	"strings"
	"time"
)

// Line10Stations is the number of stations covered by the Line 10 tables.
const Line10Stations = 16

// line10EventMultiplier is the share of the regular-to-event gap expected to
// materialize before any day has been observed.
const line10EventMultiplier = 23

// Tables holds the reference demand data for one line: per weekday, the
// average regular-service profile and the average event-period profile,
// plus the multiplier used when no observation is available.
type Tables struct {
	Regular          map[time.Weekday][]float64
	Event            map[time.Weekday][]float64
	StaticMultiplier []float64
}

// Stations returns the profile length every table entry shares.
func (t Tables) Stations() int {
	return len(t.StaticMultiplier)
}

// Validate checks that every weekday has a regular and event profile of the
// same length as the static multiplier.
func (t Tables) Validate() error {
	n := t.Stations()
	if n == 0 {
		return fmt.Errorf("static multiplier is empty: %w", ErrInvalidInput)
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		reg, ok := t.Regular[day]
		if !ok || len(reg) != n {
			return fmt.Errorf("%s regular profile has %d stations, want %d: %w", day, len(reg), n, ErrInvalidInput)
		}
		ev, ok := t.Event[day]
		if !ok || len(ev) != n {
			return fmt.Errorf("%s event profile has %d stations, want %d: %w", day, len(ev), n, ErrInvalidInput)
		}
	}
	return nil
}

// Line10Tables returns the Paris Metro Line 10 reference data. Each call
// returns fresh slices so callers cannot alter another caller's copy.
func Line10Tables() Tables {
	regular := map[time.Weekday][]float64{
		time.Sunday:    {13698, 3777, 2105, 2579, 5811, 2468, 6153, 969, 3322, 1559, 9348, 1742, 5944, 2402, 195, 2151},
		time.Monday:    {21999, 11125, 3576, 3839, 11117, 3645, 10982, 2522, 8665, 3723, 16246, 3511, 9391, 5731, 410, 5241},
		time.Tuesday:   {22671, 11854, 4051, 4524, 12508, 4080, 12424, 2792, 9241, 4121, 17618, 3877, 10126, 6267, 430, 5670},
		time.Wednesday: {22710, 12411, 4296, 4732, 12835, 4443, 12664, 2857, 9574, 4300, 18658, 4071, 10621, 6438, 454, 5970},
		time.Thursday:  {21878, 11908, 4171, 4599, 12336, 4281, 12451, 2766, 9325, 4011, 18214, 3807, 10208, 6145, 436, 5806},
		time.Friday:    {21373, 11921, 4444, 4708, 13688, 4322, 12270, 2672, 8970, 4109, 18342, 3986, 10886, 6108, 427, 5747},
		time.Saturday:  {14382, 6229, 3653, 4171, 12335, 4165, 10791, 1729, 5125, 2743, 14446, 2942, 9273, 3886, 278, 3607},
	}

	event := map[time.Weekday][]float64{
		time.Sunday:    {21610, 7779, 3514, 3881, 10970, 4019, 10144, 2592, 10423, 4825, 18916, 4604, 9235, 4327, 473, 7779},
		time.Monday:    {20937, 11220, 4317, 5464, 13210, 4845, 11778, 3222, 10665, 5351, 20776, 4769, 10920, 6215, 543, 7633},
		time.Tuesday:   {21262, 11260, 4514, 4888, 12803, 5250, 11885, 3199, 10683, 5070, 21445, 4814, 11212, 6898, 540, 7545},
		time.Wednesday: {20537, 11308, 4436, 4973, 12829, 5344, 11846, 3157, 10677, 5145, 21281, 4790, 11228, 6902, 566, 5540},
		time.Thursday:  {21307, 11450, 4527, 5052, 12701, 5246, 11939, 3049, 10511, 5012, 21515, 4740, 11368, 6922, 522, 7248},
		time.Friday:    {21514, 10670, 4533, 4640, 12694, 5002, 11984, 2777, 9392, 4103, 18818, 3933, 10616, 6807, 447, 5558},
		time.Saturday:  {19715, 5701, 3484, 3790, 12155, 3845, 10899, 1891, 4580, 2616, 13435, 2691, 8878, 5075, 282, 3851},
	}

	return Tables{
		Regular:          regular,
		Event:            event,
		StaticMultiplier: Uniform(Line10Stations, line10EventMultiplier),
	}
}

// Uniform returns a multiplier vector of n copies of value.
func Uniform(n int, value float64) []float64 {
	m := make([]float64, n)
	for i := range m {
		m[i] = value
	}
	return m
}

// ParseWeekday maps an English day name, in any case, to a time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	name = strings.TrimSpace(name)
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.EqualFold(name, day.String()) {
			return day, nil
		}
	}
	return 0, fmt.Errorf("unknown day of week %q: %w", name, ErrInvalidInput)
}
