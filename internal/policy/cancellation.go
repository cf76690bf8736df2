// Package policy holds the cancellation-fee rules. Everything here is pure
// computation; charging and state changes stay with the callers.
package policy

import (
	"fmt"
	"time"
)

// FreeCancellationWindowHours is the cutoff: at or under this many hours
// before the class starts, cancelling costs a fee.
const FreeCancellationWindowHours = 48.0

// CancellationFee is the flat fee quoted inside the window, in currency units.
const CancellationFee = 90.0

type Decision struct {
	HoursUntilStart float64
	FeeRequired     bool
	Fee             float64
}

// Evaluate classifies a cancellation of something starting on the given
// calendar date at hour ("HH:MM"), relative to now. A start 48 hours or less
// away requires the fee; note this includes starts already in the past, whose
// hour difference is negative.
func Evaluate(date time.Time, hour string, now time.Time) (Decision, error) {
	start, err := CombineDateHour(date, hour)
	if err != nil {
		return Decision{}, err
	}

	hours := start.Sub(now).Hours()
	decision := Decision{HoursUntilStart: hours}

	if hours <= FreeCancellationWindowHours {
		decision.FeeRequired = true
		decision.Fee = CancellationFee
	}

	return decision, nil
}

// CombineDateHour builds the start instant from a calendar date and a
// wall-clock "HH:MM" value, in the date's location.
func CombineDateHour(date time.Time, hour string) (time.Time, error) {
	clock, err := time.Parse("15:04", hour)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse hour %q: %w", hour, err)
	}

	return time.Date(
		date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), 0, 0,
		date.Location(),
	), nil
}
