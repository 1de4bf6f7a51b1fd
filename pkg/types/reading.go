package types

import (
	"fmt"
	"strings"
)

// ReadingKind selects which scalar is derived from a fetched series.
type ReadingKind string

const (
	// ReadingWatts is instantaneous power in Watts.
	ReadingWatts ReadingKind = "Watts"
	// ReadingKwh is the accumulated energy for the current day in kWh.
	ReadingKwh ReadingKind = "Kwh"
)

// ParseReadingKind accepts the configured selector case-insensitively. An empty
// string defaults to Watts.
func ParseReadingKind(s string) (ReadingKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "watts", "w":
		return ReadingWatts, nil
	case "kwh":
		return ReadingKwh, nil
	}
	return "", fmt.Errorf("unknown reading kind: %q", s)
}

// Unit returns the display unit of the reading.
func (k ReadingKind) Unit() string {
	if k == ReadingKwh {
		return "kWh"
	}
	return "W"
}

// Mode selects which vendor API is polled.
type Mode string

const (
	// ModeSession replays the demo login and reads the dashboard API.
	ModeSession Mode = "session"
	// ModeLegacy posts directly to the legacy ECU endpoint.
	ModeLegacy Mode = "legacy"
)

// Outcome describes how a poll ended. Anything other than OutcomeOK comes with
// a zero value.
type Outcome string

const (
	OutcomeOK                 Outcome = "ok"
	OutcomeMissingCredentials Outcome = "missing_credentials"
	OutcomeAuthFailed         Outcome = "auth_failed"
	OutcomeInvalidSession     Outcome = "invalid_session"
	OutcomeNoData             Outcome = "no_data"
	OutcomeTransportError     Outcome = "transport_error"
	OutcomeLegacyRetired      Outcome = "legacy_retired"
)

// Reading is the result of a single poll.
type Reading struct {
	Kind    ReadingKind `json:"kind"`
	Mode    Mode        `json:"mode"`
	Value   float64     `json:"value"`
	Outcome Outcome     `json:"outcome"`
	// Reason is a human readable diagnostic for degraded outcomes.
	Reason string `json:"reason,omitempty"`
}

// Degraded returns true when the reading is a fallback zero.
func (r Reading) Degraded() bool {
	return r.Outcome != OutcomeOK
}
