package apsystems

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/raterudder/apsystems-sensor/pkg/types"
)

// legacyKwhFactor converts one legacy power sample (W over the sampling
// interval) to Wh for this device family.
const legacyKwhFactor = 0.08345

// Normalize reduces any decoded series to a reading. A nil series is 0.
func Normalize(kind types.ReadingKind, s Series) float64 {
	if s == nil {
		return 0
	}
	return s.Reading(kind)
}

// Reading returns the last sample for Watts, or the sum of all samples
// converted to kWh and rounded to 2 decimals for Kwh.
func (s LegacySeries) Reading(kind types.ReadingKind) float64 {
	if len(s) == 0 {
		return 0
	}
	if kind == types.ReadingKwh {
		return round2(lo.SumBy([]int(s), func(v int) float64 {
			return float64(v) * legacyKwhFactor / 1000
		}))
	}
	return float64(s[len(s)-1])
}

// Reading treats the last entry as today's total in kWh. For Watts it returns
// the average power over a full day, total/24*1000, since the dashboard has no
// instantaneous power. That is a coarse approximation and reads low during
// daylight.
func (s DashboardSeries) Reading(kind types.ReadingKind) float64 {
	if len(s) == 0 {
		return 0
	}
	total := parseFloatPrefix(s[len(s)-1])
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0
	}
	if kind == types.ReadingKwh {
		return round2(total)
	}
	return math.Round(total / 24 * 1000)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var (
	intPrefix   = regexp.MustCompile(`^[+-]?[0-9]+`)
	hexPrefix   = regexp.MustCompile(`^([+-]?)0[xX]([0-9a-fA-F]+)`)
	floatPrefix = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?`)
)

// parseIntJSON converts a JSON value to an int the way loose JavaScript consumers
// do: numbers are truncated, strings are parsed by their leading integer and
// everything else is 0.
func parseIntJSON(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	switch {
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		return parseIntPrefix(s)
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil || math.Abs(f) >= 1<<62 {
			return 0
		}
		return int(math.Trunc(f))
	}
	return 0
}

func parseIntPrefix(s string) int {
	s = strings.TrimSpace(s)
	if m := hexPrefix.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseInt(m[2], 16, 64)
		if err != nil {
			return 0
		}
		if m[1] == "-" {
			v = -v
		}
		return int(v)
	}
	m := intPrefix.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return v
}

// parseFloatPrefix parses the leading decimal number of s and returns NaN if
// there is none.
func parseFloatPrefix(s string) float64 {
	m := floatPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
