package apsystems

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raterudder/apsystems-sensor/pkg/types"
)

func TestLegacyReading(t *testing.T) {
	t.Run("Examples", func(t *testing.T) {
		s := LegacySeries{100, 200, 250}
		assert.Equal(t, 250.0, s.Reading(types.ReadingWatts))
		assert.Equal(t, 0.05, s.Reading(types.ReadingKwh))
	})

	t.Run("Kwh Sums Every Sample", func(t *testing.T) {
		s := make(LegacySeries, 0, 100)
		for i := 0; i < 100; i++ {
			s = append(s, 1200)
		}
		// 100 * 1200 * 0.08345 / 1000 = 10.014
		assert.Equal(t, 10.01, s.Reading(types.ReadingKwh))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, 0.0, LegacySeries{}.Reading(types.ReadingWatts))
		assert.Equal(t, 0.0, LegacySeries(nil).Reading(types.ReadingKwh))
	})
}

func TestDashboardReading(t *testing.T) {
	t.Run("Examples", func(t *testing.T) {
		series, err := DecodeDashboard([]byte(`{"data":{"list":["1.2",null,"3.4"]}}`))
		require.NoError(t, err)
		assert.Equal(t, DashboardSeries{"1.2", "3.4"}, series)
		assert.Equal(t, 3.4, series.Reading(types.ReadingKwh))
		assert.Equal(t, 142.0, series.Reading(types.ReadingWatts))
	})

	t.Run("Rounds Kwh", func(t *testing.T) {
		assert.Equal(t, 12.35, DashboardSeries{"12.3456"}.Reading(types.ReadingKwh))
		assert.Equal(t, 514.0, DashboardSeries{"12.3456"}.Reading(types.ReadingWatts))
	})

	t.Run("Numeric Entries", func(t *testing.T) {
		series, err := DecodeDashboard([]byte(`[1.5, 2.4]`))
		require.NoError(t, err)
		assert.Equal(t, 2.4, series.Reading(types.ReadingKwh))
		assert.Equal(t, 100.0, series.Reading(types.ReadingWatts))
	})

	t.Run("Unparsable Last Entry", func(t *testing.T) {
		assert.Equal(t, 0.0, DashboardSeries{"1.2", "n/a"}.Reading(types.ReadingKwh))
		assert.Equal(t, 0.0, DashboardSeries{"true"}.Reading(types.ReadingWatts))
	})

	t.Run("Trailing Garbage", func(t *testing.T) {
		assert.Equal(t, 3.4, DashboardSeries{"3.4kWh"}.Reading(types.ReadingKwh))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, 0.0, DashboardSeries{}.Reading(types.ReadingKwh))
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.0, Normalize(types.ReadingWatts, nil))
	assert.Equal(t, 7.0, Normalize(types.ReadingWatts, LegacySeries{7}))
	assert.Equal(t, 1.0, Normalize(types.ReadingKwh, DashboardSeries{"1"}))
}

func TestParseIntJSON(t *testing.T) {
	for in, want := range map[string]int{
		`100`:      100,
		`12.7`:     12,
		`-3.9`:     -3,
		`"42"`:     42,
		`" 42W"`:   42,
		`"12.7"`:   12,
		`"0x1A"`:   26,
		`"abc"`:    0,
		`""`:       0,
		`null`:     0,
		`true`:     0,
		`{"a":1}`:  0,
		`[1]`:      0,
		`1e3`:      1000,
		`1e300`:    0,
		`"-17abc"`: -17,
	} {
		assert.Equal(t, want, parseIntJSON([]byte(in)), in)
	}
}

func TestParseFloatPrefix(t *testing.T) {
	assert.Equal(t, 3.4, parseFloatPrefix("3.4"))
	assert.Equal(t, 0.5, parseFloatPrefix(" .5"))
	assert.Equal(t, -2.0, parseFloatPrefix("-2"))
	assert.Equal(t, 1500.0, parseFloatPrefix("1.5e3"))
	assert.Equal(t, 7.0, parseFloatPrefix("7."))
	assert.True(t, math.IsNaN(parseFloatPrefix("")))
	assert.True(t, math.IsNaN(parseFloatPrefix("abc")))
}
