// Package forecast narrows an hourly forecast series down to a single
// aggregated sample for a future time window. The aggregator is pure and
// total: malformed or empty inputs yield a nil aggregate, never an error.
package forecast

import (
	"strings"
	"time"

	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// Window is a future span expressed in minutes ahead of a reference "now":
// [StartMinutes, EndMinutes).
type Window struct {
	StartMinutes int
	EndMinutes   int
}

// Aggregate is one weather sample summarizing every hourly bucket that
// overlaps the requested window.
type Aggregate struct {
	TemperatureF float64   `json:"temperature_f"`
	Humidity     float64   `json:"humidity"`
	WindMph      float64   `json:"wind_mph"`
	PrecipChance float64   `json:"precip_chance"`
	Condition    string    `json:"condition"`
	HoursUsed    int       `json:"hours_used"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
}

// precipKeywords mark condition texts that describe precipitation. The first
// selected bucket whose text contains one of these wins the aggregate's
// condition text.
var precipKeywords = []string{"rain", "snow", "sleet", "drizzle", "storm", "thunder"}

// AggregateWindow selects every hourly bucket whose one-hour span overlaps
// [now+StartMinutes, now+EndMinutes) and folds them into one sample:
// temperature and humidity as arithmetic means, wind speed and precipitation
// chance as worst-case maxima (per-bucket chance is max of rain and snow).
//
// When no bucket overlaps the window, the single next bucket still in
// progress or ahead of now is used alone (HoursUsed=1). Returns nil only
// when the hourly series is empty.
func AggregateWindow(hourly []types.HourlySample, now time.Time, w Window) *Aggregate {
	if len(hourly) == 0 {
		return nil
	}

	windowStart := now.Add(time.Duration(w.StartMinutes) * time.Minute)
	windowEnd := now.Add(time.Duration(w.EndMinutes) * time.Minute)

	var selected []types.HourlySample
	for _, sample := range hourly {
		spanEnd := sample.Time.Add(time.Hour)
		if sample.Time.Before(windowEnd) && spanEnd.After(windowStart) {
			selected = append(selected, sample)
		}
	}

	if len(selected) == 0 {
		next := nextBucket(hourly, now)
		if next == nil {
			// Series exists but lies entirely in the past; the last bucket
			// is the best available signal.
			next = &hourly[len(hourly)-1]
		}
		selected = []types.HourlySample{*next}
	}

	var tempSum, humiditySum, windMax, precipMax float64
	for i, sample := range selected {
		tempSum += sample.TemperatureF
		humiditySum += sample.Humidity
		if i == 0 || sample.WindMph > windMax {
			windMax = sample.WindMph
		}
		chance := sample.ChanceOfRain
		if sample.ChanceOfSnow > chance {
			chance = sample.ChanceOfSnow
		}
		if chance > precipMax {
			precipMax = chance
		}
	}

	n := float64(len(selected))
	return &Aggregate{
		TemperatureF: tempSum / n,
		Humidity:     humiditySum / n,
		WindMph:      windMax,
		PrecipChance: precipMax,
		Condition:    pickCondition(selected),
		HoursUsed:    len(selected),
		WindowStart:  windowStart,
		WindowEnd:    windowEnd,
	}
}

// nextBucket returns the first bucket whose span has not fully elapsed at
// now, or nil when every bucket is in the past.
func nextBucket(hourly []types.HourlySample, now time.Time) *types.HourlySample {
	for i := range hourly {
		if hourly[i].Time.Add(time.Hour).After(now) {
			return &hourly[i]
		}
	}
	return nil
}

// pickCondition prefers the first selected bucket whose condition text
// mentions precipitation; otherwise the first bucket's text stands.
func pickCondition(selected []types.HourlySample) string {
	for _, sample := range selected {
		lower := strings.ToLower(sample.Condition)
		for _, kw := range precipKeywords {
			if strings.Contains(lower, kw) {
				return sample.Condition
			}
		}
	}
	return selected[0].Condition
}
