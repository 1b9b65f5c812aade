// Package twilight derives light-condition flags from provider astronomy
// data. The calculator is pure: for any input it returns a status and never
// an error. Unparsable sunrise/sunset strings degrade to a non-twilight
// status carrying a diagnostic reason.
package twilight

import (
	"fmt"
	"strings"
	"time"

	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// DefaultWindowMinutes is the half-width of the twilight band around
// sunrise and sunset when no override is configured.
const DefaultWindowMinutes = 30

// clockLayout parses the provider's "hh:mm AM|PM" sunrise/sunset strings.
const clockLayout = "3:04 PM"

// Compute returns the twilight status for the reference instant. The
// sunrise/sunset clock strings are anchored onto the reference instant's
// calendar date in its location, then a symmetric window of windowMinutes
// is built around each. windowMinutes <= 0 selects DefaultWindowMinutes.
//
// Flags:
//   - InMorningTwilight / InEveningTwilight: at falls inside the
//     respective window (boundaries inclusive).
//   - IsTwilight: either of the above.
//   - IsNighttime: at is before the morning window's start or after the
//     evening window's end.
func Compute(astro types.AstronomyData, at time.Time, windowMinutes int) types.TwilightStatus {
	if windowMinutes <= 0 {
		windowMinutes = DefaultWindowMinutes
	}

	sunrise, err := anchorClockString(astro.Sunrise, at)
	if err != nil {
		return types.TwilightStatus{Reason: fmt.Sprintf("sunrise: %v", err)}
	}
	sunset, err := anchorClockString(astro.Sunset, at)
	if err != nil {
		return types.TwilightStatus{Reason: fmt.Sprintf("sunset: %v", err)}
	}

	half := time.Duration(windowMinutes) * time.Minute
	morningStart := sunrise.Add(-half)
	morningEnd := sunrise.Add(half)
	eveningStart := sunset.Add(-half)
	eveningEnd := sunset.Add(half)

	inMorning := inWindow(at, morningStart, morningEnd)
	inEvening := inWindow(at, eveningStart, eveningEnd)

	return types.TwilightStatus{
		IsTwilight:        inMorning || inEvening,
		IsNighttime:       at.Before(morningStart) || at.After(eveningEnd),
		InMorningTwilight: inMorning,
		InEveningTwilight: inEvening,
		Sunrise:           astro.Sunrise,
		Sunset:            astro.Sunset,
		SunriseAt:         &sunrise,
		SunsetAt:          &sunset,
	}
}

// anchorClockString parses an "hh:mm AM|PM" string and places it on the
// calendar date of ref, in ref's location.
func anchorClockString(s string, ref time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("missing clock string")
	}
	parsed, err := time.Parse(clockLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparsable clock string %q", s)
	}
	return time.Date(
		ref.Year(), ref.Month(), ref.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, ref.Location(),
	), nil
}

// inWindow reports whether at falls within [start, end], inclusive on both
// boundaries so an instant exactly at sunrise counts as twilight.
func inWindow(at, start, end time.Time) bool {
	return !at.Before(start) && !at.After(end)
}
