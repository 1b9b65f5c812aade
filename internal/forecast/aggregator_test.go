package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

var testNow = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

// sample builds an hourly bucket offset whole hours from testNow.
func sample(hoursAhead int, temp, wind, rain, snow float64, condition string) types.HourlySample {
	return types.HourlySample{
		Time:         testNow.Add(time.Duration(hoursAhead) * time.Hour),
		TemperatureF: temp,
		Humidity:     50,
		WindMph:      wind,
		Condition:    condition,
		ChanceOfRain: rain,
		ChanceOfSnow: snow,
	}
}

func TestAggregateWindow_MeansAndMaxima(t *testing.T) {
	hourly := []types.HourlySample{
		sample(1, 40, 5, 10, 0, "Partly cloudy"),
		sample(2, 44, 12, 60, 0, "Light rain"),
		sample(3, 42, 9, 20, 0, "Overcast"),
	}

	agg := AggregateWindow(hourly, testNow, Window{StartMinutes: 60, EndMinutes: 240})

	require.NotNil(t, agg)
	assert.InDelta(t, 42, agg.TemperatureF, 0.001)
	assert.InDelta(t, 12, agg.WindMph, 0.001)
	assert.InDelta(t, 60, agg.PrecipChance, 0.001)
	assert.Equal(t, 3, agg.HoursUsed)
}

func TestAggregateWindow_PrecipChanceUsesMaxOfRainAndSnow(t *testing.T) {
	hourly := []types.HourlySample{
		sample(1, 30, 5, 10, 45, "Snow showers"),
		sample(2, 31, 5, 30, 20, "Cloudy"),
	}

	agg := AggregateWindow(hourly, testNow, Window{StartMinutes: 60, EndMinutes: 180})

	require.NotNil(t, agg)
	assert.InDelta(t, 45, agg.PrecipChance, 0.001)
}

func TestAggregateWindow_ConditionPrefersPrecipitationKeyword(t *testing.T) {
	tests := []struct {
		name       string
		conditions []string
		want       string
	}{
		{"rain in later bucket wins", []string{"Sunny", "Heavy rain", "Clear"}, "Heavy rain"},
		{"first precip text wins over later", []string{"Drizzle", "Thunderstorm", "Clear"}, "Drizzle"},
		{"no precip falls back to first", []string{"Sunny", "Cloudy", "Clear"}, "Sunny"},
		{"keyword match is case-insensitive", []string{"Clear", "SNOW SQUALLS", "Clear"}, "SNOW SQUALLS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hourly := []types.HourlySample{
				sample(1, 40, 5, 0, 0, tt.conditions[0]),
				sample(2, 40, 5, 0, 0, tt.conditions[1]),
				sample(3, 40, 5, 0, 0, tt.conditions[2]),
			}
			agg := AggregateWindow(hourly, testNow, Window{StartMinutes: 60, EndMinutes: 240})
			require.NotNil(t, agg)
			assert.Equal(t, tt.want, agg.Condition)
		})
	}
}

func TestAggregateWindow_PartialOverlapSelectsBucket(t *testing.T) {
	// Bucket at +1h spans [10:00, 11:00); window [10:30, 10:45) overlaps it.
	hourly := []types.HourlySample{
		sample(1, 40, 5, 0, 0, "Sunny"),
		sample(2, 60, 5, 0, 0, "Sunny"),
	}

	agg := AggregateWindow(hourly, testNow, Window{StartMinutes: 90, EndMinutes: 105})

	require.NotNil(t, agg)
	assert.Equal(t, 1, agg.HoursUsed)
	assert.InDelta(t, 40, agg.TemperatureF, 0.001)
}

func TestAggregateWindow_FallsBackToNextFutureBucket(t *testing.T) {
	hourly := []types.HourlySample{
		sample(-2, 35, 5, 0, 0, "Cold"),
		sample(5, 50, 8, 15, 0, "Sunny"),
	}

	// Window far beyond the series: no overlap, next future bucket used.
	agg := AggregateWindow(hourly, testNow, Window{StartMinutes: 600, EndMinutes: 660})

	require.NotNil(t, agg)
	assert.Equal(t, 1, agg.HoursUsed)
	assert.InDelta(t, 50, agg.TemperatureF, 0.001)
}

func TestAggregateWindow_AllBucketsPastUsesLast(t *testing.T) {
	hourly := []types.HourlySample{
		sample(-5, 35, 5, 0, 0, "Cold"),
		sample(-3, 38, 5, 0, 0, "Cool"),
	}

	agg := AggregateWindow(hourly, testNow, Window{StartMinutes: 60, EndMinutes: 120})

	require.NotNil(t, agg)
	assert.Equal(t, 1, agg.HoursUsed)
	assert.InDelta(t, 38, agg.TemperatureF, 0.001)
}

func TestAggregateWindow_NilOnEmptySeries(t *testing.T) {
	assert.Nil(t, AggregateWindow(nil, testNow, Window{StartMinutes: 0, EndMinutes: 120}))
	assert.Nil(t, AggregateWindow([]types.HourlySample{}, testNow, Window{}))
}
