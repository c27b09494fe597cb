// Package report renders estimates and forecasts as plain text and parses the
// demand lists people type into the CLI or the API.
package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/capacity"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/planner"
)

// ErrMalformedDemands is returned when demand text is not a list of
// non-negative numbers.
var ErrMalformedDemands = errors.New("malformed demand list")

// NotAvailable marks "no observation yesterday" in text input.
const NotAvailable = "n/a"

// ParseDemands reads a comma- or whitespace-separated list of non-negative
// numbers. Blank text and "n/a" yield an empty profile.
func ParseDemands(text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, NotAvailable) {
		return nil, nil
	}

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	demands := make([]float64, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d (%q) is not a number: %w", i+1, f, ErrMalformedDemands)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("value %d (%q) must be a non-negative number: %w", i+1, f, ErrMalformedDemands)
		}
		demands = append(demands, v)
	}
	return demands, nil
}

// WriteResults prints the line summary table for profile:
//
//	RESULTS:
//	Number of stations on line:               5
//	...
func WriteResults(w io.Writer, profile []float64, params capacity.LineParams) error {
	res, err := capacity.Estimate(profile, params)
	if err != nil {
		return err
	}

	total := 0.0
	for _, d := range profile {
		total += d
	}

	var b strings.Builder
	b.WriteString("\nRESULTS:\n")
	row(&b, "Number of stations on line:", strconv.Itoa(len(profile)))
	row(&b, "Average demand at each station:", fmt.Sprintf("%.0f", total/float64(len(profile))))
	b.WriteString("\n")
	if res.SetByMinimum {
		// Single-space separator on this row.
		fmt.Fprintf(&b, "%-40s %s\n", "Trains needed to meet interval demand:", fmt.Sprintf("%d (set by minimum frequency)", res.Trains))
	} else {
		row(&b, "Trains needed to meet interval demand:", strconv.Itoa(res.Trains))
	}
	row(&b, "Fill percentage:", truncatedPercent(res.FillRate))
	row(&b, "Average boarding time at each station:", fmt.Sprintf("%.2f seconds", res.DwellSeconds))

	_, err = io.WriteString(w, b.String())
	return err
}

// WriteForecast prints the daily forecast summary for a plan.
func WriteForecast(w io.Writer, plan planner.Plan) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Today's Metro Forecast (%s):\n", plan.Forecast.Day)
	fmt.Fprintf(&b, "Demand Increase: %d%%\n", plan.Percent)
	fmt.Fprintf(&b, "Number of Trains Needed: %d\n", plan.Estimate.Trains)
	fmt.Fprintf(&b, "Fill Rate: %.2f%%\n", plan.Estimate.FillRate*100)
	fmt.Fprintf(&b, "Average Station Time: %.2f seconds\n", plan.Estimate.DwellSeconds)

	_, err := io.WriteString(w, b.String())
	return err
}

func row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%-40s  %s\n", label, value)
}

// truncatedPercent renders fill as a percentage cut to five characters of
// its shortest decimal form, e.g. 0.99036 -> "99.03%".
func truncatedPercent(fill float64) string {
	s := shortestFloat(fill * 100)
	if len(s) > 5 {
		s = s[:5]
	}
	return s + "%"
}

// shortestFloat formats v with the fewest digits that round-trip, always
// showing a decimal point, and switching to exponent form below 1e-4 or
// from 1e16 up.
func shortestFloat(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
