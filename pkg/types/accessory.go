package types

import "fmt"

// LuxBounds is the range the host maps the reading into for its light sensor.
type LuxBounds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// DefaultLuxBounds matches the range a HomeKit light sensor accepts.
var DefaultLuxBounds = LuxBounds{Min: 0.0001, Max: 100000}

// Validate ensures the bounds are usable.
func (b LuxBounds) Validate() error {
	if b.Min > b.Max {
		return fmt.Errorf("lux min (%g) is greater than max (%g)", b.Min, b.Max)
	}
	return nil
}

// Clamp returns v limited to the bounds.
func (b LuxBounds) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// AccessoryInfo is the descriptive part of the accessory configuration that
// the host shows to the user.
type AccessoryInfo struct {
	Name         string      `json:"name" yaml:"name"`
	Manufacturer string      `json:"manufacturer" yaml:"manufacturer"`
	Model        string      `json:"model" yaml:"model"`
	Serial       string      `json:"serial" yaml:"serial"`
	Kind         ReadingKind `json:"kind" yaml:"-"`
	Mode         Mode        `json:"mode" yaml:"-"`
	Lux          LuxBounds   `json:"lux" yaml:"lux"`
}
