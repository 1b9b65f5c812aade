package types

import "time"

// WeatherSnapshot is a point-in-time observation of current conditions.
// Snapshots are immutable once fetched; FetchedAt and ExpiresAt bound the
// window in which a cached snapshot may be reused.
type WeatherSnapshot struct {
	TemperatureF float64   `json:"temperature_f"`
	FeelsLikeF   float64   `json:"feels_like_f"`
	Humidity     float64   `json:"humidity"`
	WindMph      float64   `json:"wind_mph"`
	Condition    string    `json:"condition"`
	PrecipChance float64   `json:"precip_chance"`
	UVIndex      float64   `json:"uv_index"`
	FetchedAt    time.Time `json:"fetched_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the snapshot is past its reuse window at the
// given instant.
func (s WeatherSnapshot) Expired(at time.Time) bool {
	return at.After(s.ExpiresAt)
}

// HourlySample is one hourly bucket from the provider's forecast series.
// Each sample covers the one-hour span starting at Time.
type HourlySample struct {
	Time         time.Time `json:"time"`
	TemperatureF float64   `json:"temperature_f"`
	Humidity     float64   `json:"humidity"`
	WindMph      float64   `json:"wind_mph"`
	Condition    string    `json:"condition"`
	ChanceOfRain float64   `json:"chance_of_rain"`
	ChanceOfSnow float64   `json:"chance_of_snow"`
}

// ForecastDay carries the day-level forecast plus the hourly series the
// window aggregator consumes.
type ForecastDay struct {
	TempHighF    float64        `json:"temp_high_f"`
	TempLowF     float64        `json:"temp_low_f"`
	PrecipChance float64        `json:"precip_chance"`
	Hourly       []HourlySample `json:"hourly"`
}

// AstronomyData holds the provider's sun and moon data. Sunrise and Sunset
// are "hh:mm AM|PM" strings exactly as the provider returns them; only the
// twilight calculator interprets them.
type AstronomyData struct {
	Sunrise          string `json:"sunrise"`
	Sunset           string `json:"sunset"`
	MoonPhase        string `json:"moon_phase"`
	MoonIllumination int    `json:"moon_illumination"`
}

// WeatherBundle is the full response shape from the weather gateway:
// current conditions, the day's forecast, and astronomy data.
type WeatherBundle struct {
	Current   WeatherSnapshot `json:"current"`
	Forecast  ForecastDay     `json:"forecast"`
	Astronomy AstronomyData   `json:"astronomy"`
}

// TwilightStatus is derived from astronomy data for a reference instant.
// It is never persisted.
type TwilightStatus struct {
	IsTwilight        bool       `json:"is_twilight"`
	IsNighttime       bool       `json:"is_nighttime"`
	InMorningTwilight bool       `json:"in_morning_twilight"`
	InEveningTwilight bool       `json:"in_evening_twilight"`
	Sunrise           string     `json:"sunrise,omitempty"`
	Sunset            string     `json:"sunset,omitempty"`
	SunriseAt         *time.Time `json:"sunrise_at,omitempty"`
	SunsetAt          *time.Time `json:"sunset_at,omitempty"`
	// Reason explains a degraded result (missing or unparsable sunrise or
	// sunset strings). Empty on a fully computed status.
	Reason string `json:"reason,omitempty"`
}
