package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// weatherAPIBase is the default provider base URL. Overridable in tests
// via WeatherClientConfig.BaseURL.
const weatherAPIBase = "https://api.weatherapi.com"

// DefaultSnapshotTTL bounds how long a fetched bundle may be reused before
// the next trigger refetches.
const DefaultSnapshotTTL = 15 * time.Minute

// WeatherClientConfig holds the configuration for creating a WeatherClient.
type WeatherClientConfig struct {
	APIKey      types.SecretString
	Location    string // provider query string, e.g. "Annapolis,MD" or "38.97,-76.49"
	BaseURL     string // override for testing; defaults to weatherAPIBase
	SnapshotTTL time.Duration
	Logger      *slog.Logger
}

// Provider response shapes. Only the fields the recommendation core
// consumes are decoded.

type providerCondition struct {
	Text string `json:"text"`
}

type providerCurrent struct {
	TempF      float64           `json:"temp_f"`
	FeelsLikeF float64           `json:"feelslike_f"`
	Humidity   float64           `json:"humidity"`
	WindMph    float64           `json:"wind_mph"`
	UV         float64           `json:"uv"`
	Condition  providerCondition `json:"condition"`
}

type providerHour struct {
	TimeEpoch    int64             `json:"time_epoch"`
	TempF        float64           `json:"temp_f"`
	Humidity     float64           `json:"humidity"`
	WindMph      float64           `json:"wind_mph"`
	ChanceOfRain float64           `json:"chance_of_rain"`
	ChanceOfSnow float64           `json:"chance_of_snow"`
	Condition    providerCondition `json:"condition"`
}

type providerDay struct {
	MaxTempF          float64 `json:"maxtemp_f"`
	MinTempF          float64 `json:"mintemp_f"`
	DailyChanceOfRain float64 `json:"daily_chance_of_rain"`
}

type providerAstro struct {
	Sunrise          string `json:"sunrise"`
	Sunset           string `json:"sunset"`
	MoonPhase        string `json:"moon_phase"`
	MoonIllumination int    `json:"moon_illumination"`
}

type providerForecastDay struct {
	Day   providerDay    `json:"day"`
	Astro providerAstro  `json:"astro"`
	Hour  []providerHour `json:"hour"`
}

type providerResponse struct {
	Current  providerCurrent `json:"current"`
	Forecast struct {
		ForecastDay []providerForecastDay `json:"forecastday"`
	} `json:"forecast"`
}

// WeatherClient fetches current conditions, the hourly forecast, and
// astronomy data from the provider in a single forecast call, and caches
// the decoded bundle for SnapshotTTL. Evaluations within the TTL reuse the
// cached bundle; a trigger never blocks on the provider twice in a row.
type WeatherClient struct {
	base     *BaseClient
	apiKey   types.SecretString
	location string
	baseURL  string
	ttl      time.Duration
	clock    types.Clock
	logger   *slog.Logger

	mu     sync.Mutex
	cached *types.WeatherBundle
}

// NewWeatherClient creates a WeatherClient. The httpClient timeout should
// be short; the provider answers forecast calls in well under a second.
func NewWeatherClient(httpClient *http.Client, cfg WeatherClientConfig) *WeatherClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = weatherAPIBase
	}
	ttl := cfg.SnapshotTTL
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := NewBaseClient(httpClient, "weather", DefaultRetryPolicy(), "WOTSapp/1.0")

	return &WeatherClient{
		base:     base,
		apiKey:   cfg.APIKey,
		location: cfg.Location,
		baseURL:  baseURL,
		ttl:      ttl,
		clock:    types.RealClock{},
		logger:   logger,
	}
}

// WithClock overrides the cache clock. Test hook.
func (c *WeatherClient) WithClock(clock types.Clock) *WeatherClient {
	c.clock = clock
	return c
}

// FetchBundle returns the current weather bundle, serving from cache while
// the snapshot is fresh.
func (c *WeatherClient) FetchBundle(ctx context.Context) (*types.WeatherBundle, error) {
	now := c.clock.Now()

	c.mu.Lock()
	if c.cached != nil && !c.cached.Current.Expired(now) {
		bundle := *c.cached
		c.mu.Unlock()
		return &bundle, nil
	}
	c.mu.Unlock()

	bundle, err := c.fetch(ctx, now)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cached = bundle
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "fetched weather bundle",
		"condition", bundle.Current.Condition,
		"temperature_f", bundle.Current.TemperatureF,
		"hourly_samples", len(bundle.Forecast.Hourly),
	)
	return bundle, nil
}

func (c *WeatherClient) fetch(ctx context.Context, now time.Time) (*types.WeatherBundle, error) {
	q := url.Values{}
	q.Set("key", c.apiKey.Unmask())
	q.Set("q", c.location)
	q.Set("days", "2")
	q.Set("aqi", "no")
	q.Set("alerts", "no")
	reqURL := c.baseURL + "/v1/forecast.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build weather request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			fmt.Sprintf("weather provider returned %d", resp.StatusCode),
			fmt.Errorf("response body: %s", string(body)),
		)
	}

	var decoded providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "failed to decode weather response", err)
	}
	if len(decoded.Forecast.ForecastDay) == 0 {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "weather response contains no forecast days", nil)
	}

	return c.toBundle(decoded, now), nil
}

// toBundle maps the provider response onto the domain bundle. Hourly
// samples from all returned days are concatenated so a late-evening window
// can spill into tomorrow's buckets.
func (c *WeatherClient) toBundle(decoded providerResponse, now time.Time) *types.WeatherBundle {
	today := decoded.Forecast.ForecastDay[0]

	var hourly []types.HourlySample
	for _, day := range decoded.Forecast.ForecastDay {
		for _, h := range day.Hour {
			hourly = append(hourly, types.HourlySample{
				Time:         time.Unix(h.TimeEpoch, 0).UTC(),
				TemperatureF: h.TempF,
				Humidity:     h.Humidity,
				WindMph:      h.WindMph,
				Condition:    h.Condition.Text,
				ChanceOfRain: h.ChanceOfRain,
				ChanceOfSnow: h.ChanceOfSnow,
			})
		}
	}

	return &types.WeatherBundle{
		Current: types.WeatherSnapshot{
			TemperatureF: decoded.Current.TempF,
			FeelsLikeF:   decoded.Current.FeelsLikeF,
			Humidity:     decoded.Current.Humidity,
			WindMph:      decoded.Current.WindMph,
			Condition:    decoded.Current.Condition.Text,
			PrecipChance: today.Day.DailyChanceOfRain,
			UVIndex:      decoded.Current.UV,
			FetchedAt:    now,
			ExpiresAt:    now.Add(c.ttl),
		},
		Forecast: types.ForecastDay{
			TempHighF:    today.Day.MaxTempF,
			TempLowF:     today.Day.MinTempF,
			PrecipChance: today.Day.DailyChanceOfRain,
			Hourly:       hourly,
		},
		Astronomy: types.AstronomyData{
			Sunrise:          today.Astro.Sunrise,
			Sunset:           today.Astro.Sunset,
			MoonPhase:        today.Astro.MoonPhase,
			MoonIllumination: today.Astro.MoonIllumination,
		},
	}
}
