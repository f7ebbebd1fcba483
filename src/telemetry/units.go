package telemetry

import (
	"fmt"
	"strings"
)

// UnitSystem selects the display units for speeds and distances
type UnitSystem int

const (
	Metric UnitSystem = iota
	Imperial
)

// String returns the canonical name of the unit system
func (u UnitSystem) String() string {
	if u == Imperial {
		return "imperial"
	}
	return "metric"
}

// ParseUnitSystem parses a unit system name from configuration
func ParseUnitSystem(s string) (UnitSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "metric", "km", "kmh", "km/h":
		return Metric, nil
	case "imperial", "miles", "mph":
		return Imperial, nil
	}
	return Metric, fmt.Errorf("unknown unit system %q (want metric or imperial)", s)
}

// SpeedFactor converts m/s to km/h (metric) or mph (imperial) by multiplication
func SpeedFactor(useImperial bool) float64 {
	if useImperial {
		return 2.23694
	}
	return 3.6
}

// DistanceFactor converts centimeters to meters (metric) or feet (imperial) by division
func DistanceFactor(useImperial bool) float64 {
	if useImperial {
		return 30.48
	}
	return 100
}

// Converter holds the conversion factors fixed at startup
type Converter struct {
	SpeedFactor    float64
	DistanceFactor float64
}

// NewConverter creates a Converter for the given unit system
func NewConverter(units UnitSystem) Converter {
	imperial := units == Imperial
	return Converter{
		SpeedFactor:    SpeedFactor(imperial),
		DistanceFactor: DistanceFactor(imperial),
	}
}

// Speed converts m/s to display units (unrounded)
func (c Converter) Speed(metersPerSecond float64) float64 {
	return metersPerSecond * c.SpeedFactor
}

// Distance converts centimeters to display units (unrounded)
func (c Converter) Distance(centimeters float64) float64 {
	return centimeters / c.DistanceFactor
}
