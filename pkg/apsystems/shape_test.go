package apsystems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raterudder/apsystems-sensor/pkg/types"
)

func TestDecodeLegacy(t *testing.T) {
	t.Run("String Encoded", func(t *testing.T) {
		s, err := DecodeLegacy([]byte(`{"code":"1","data":{"time":"[\"08:00\",\"08:05\"]","power":"[100,200,250]"}}`))
		require.NoError(t, err)
		assert.Equal(t, LegacySeries{100, 200, 250}, s)
	})

	t.Run("Structured", func(t *testing.T) {
		s, err := DecodeLegacy([]byte(`{"data":{"power":[100,"200",null,"x"]}}`))
		require.NoError(t, err)
		assert.Equal(t, LegacySeries{100, 200, 0, 0}, s)
		assert.Equal(t, 0.0, s.Reading(types.ReadingWatts), "last unparsable sample is 0")
	})

	t.Run("Top Level Power", func(t *testing.T) {
		s, err := DecodeLegacy([]byte(`{"power":"[5,6]"}`))
		require.NoError(t, err)
		assert.Equal(t, LegacySeries{5, 6}, s)
	})

	for name, body := range map[string]string{
		"Not JSON":        `<html></html>`,
		"Missing Power":   `{"data":{}}`,
		"Null Power":      `{"data":{"power":null}}`,
		"Power Not Array": `{"data":{"power":{"a":1}}}`,
		"Bad String":      `{"data":{"power":"not json"}}`,
		"Empty":           `{"data":{"power":"[]"}}`,
		"Array Root":      `[1,2,3]`,
		"Empty Body":      ``,
	} {
		t.Run(name, func(t *testing.T) {
			s, err := DecodeLegacy([]byte(body))
			assert.ErrorIs(t, err, ErrNoData)
			assert.Equal(t, 0.0, s.Reading(types.ReadingWatts))
			assert.Equal(t, 0.0, s.Reading(types.ReadingKwh))
		})
	}
}

func TestDecodeDashboard(t *testing.T) {
	for name, tc := range map[string]struct {
		body string
		want DashboardSeries
	}{
		"Top Level List":    {`{"list":["1","2"]}`, DashboardSeries{"1", "2"}},
		"Direct Array":      {`["1","2"]`, DashboardSeries{"1", "2"}},
		"Data Array":        {`{"code":0,"data":["3"]}`, DashboardSeries{"3"}},
		"Data List":         {`{"data":{"list":["4",""]}}`, DashboardSeries{"4"}},
		"Data Data":         {`{"data":{"data":[5]}}`, DashboardSeries{"5"}},
		"List Preferred":    {`{"list":["1"],"data":["2"]}`, DashboardSeries{"1"}},
		"Mixed Filtered":    {`{"data":{"list":[null,"",1.25,"2.5"]}}`, DashboardSeries{"1.25", "2.5"}},
		"Keeps Non Numeric": {`["1",true]`, DashboardSeries{"1", "true"}},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeDashboard([]byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for name, body := range map[string]string{
		"Not JSON":      `{"data":`,
		"No List":       `{"code":1}`,
		"Only Nulls":    `{"data":{"list":[null,""]}}`,
		"List Object":   `{"list":{"a":1},"data":"x"}`,
		"Too Deep":      `{"data":{"data":{"data":[1]}}}`,
		"Scalar":        `42`,
		"Empty String":  `""`,
		"Entirely Null": `null`,
	} {
		t.Run(name, func(t *testing.T) {
			s, err := DecodeDashboard([]byte(body))
			assert.ErrorIs(t, err, ErrNoData)
			assert.Equal(t, 0.0, Normalize(types.ReadingKwh, s))
		})
	}
}
