package apsystems

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"

	"github.com/raterudder/apsystems-sensor/pkg/types"
)

// Series is the decoded payload of one of the two response shapes. It is
// implemented only by LegacySeries and DashboardSeries.
type Series interface {
	// Reading reduces the series to a single value of the given kind.
	Reading(kind types.ReadingKind) float64
	series()
}

// LegacySeries holds the per-interval power samples in Watts, already integer
// parsed. Unparsable samples are 0.
type LegacySeries []int

func (LegacySeries) series() {}

// DashboardSeries holds the non-empty entries of a dashboard energy list as
// their textual form, oldest first.
type DashboardSeries []string

func (DashboardSeries) series() {}

// maxListDepth bounds how far "data" wrappers are followed.
const maxListDepth = 2

// DecodeLegacy extracts data.power from a legacy response. The power field may
// hold the array directly or as a JSON encoded string.
func DecodeLegacy(body []byte) (LegacySeries, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}

	power, ok := legacyPowerField(root)
	if !ok {
		return nil, fmt.Errorf("%w: missing data.power", ErrNoData)
	}
	power = unwrapJSONString(power)

	var samples []json.RawMessage
	if err := json.Unmarshal(power, &samples); err != nil {
		return nil, fmt.Errorf("%w: data.power is not an array", ErrNoData)
	}
	if len(samples) == 0 {
		return LegacySeries{}, fmt.Errorf("%w: data.power is empty", ErrNoData)
	}
	return lo.Map(samples, func(s json.RawMessage, _ int) int {
		return parseIntJSON(s)
	}), nil
}

func legacyPowerField(root map[string]json.RawMessage) (json.RawMessage, bool) {
	var data map[string]json.RawMessage
	if err := json.Unmarshal(root["data"], &data); err == nil {
		if p, ok := data["power"]; ok && !isNull(p) {
			return p, true
		}
	}
	if p, ok := root["power"]; ok && !isNull(p) {
		return p, true
	}
	return nil, false
}

// DecodeDashboard locates the energy list in a dashboard response. The list
// is taken from "list" when present, else from the value itself when it is an
// array, else from "data", following nested "data" wrappers. Null and empty
// string entries are dropped.
func DecodeDashboard(body []byte) (DashboardSeries, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response is not json", ErrNoData)
	}
	list, ok := locateList(body, 0)
	if !ok {
		return nil, fmt.Errorf("%w: no energy list", ErrNoData)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(list, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	series := DashboardSeries(lo.FilterMap(entries, func(e json.RawMessage, _ int) (string, bool) {
		return entryText(e)
	}))
	if len(series) == 0 {
		return series, fmt.Errorf("%w: energy list has no values", ErrNoData)
	}
	return series, nil
}

func locateList(raw json.RawMessage, depth int) (json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}
	switch raw[0] {
	case '[':
		return raw, true
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, false
		}
		if l, ok := obj["list"]; ok && isArray(l) {
			return l, true
		}
		if d, ok := obj["data"]; ok && depth < maxListDepth {
			return locateList(d, depth+1)
		}
	}
	return nil, false
}

// entryText returns the text parseFloat would see for an entry and false for
// entries that are filtered out.
func entryText(e json.RawMessage) (string, bool) {
	e = bytes.TrimSpace(e)
	if len(e) == 0 || isNull(e) {
		return "", false
	}
	if e[0] == '"' {
		var s string
		if err := json.Unmarshal(e, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	}
	return string(e), true
}

func unwrapJSONString(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return raw
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return raw
	}
	return json.RawMessage(s)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
