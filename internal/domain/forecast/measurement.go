package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit tags a measurement with the unit it was ingested in. The tag doubles as
// the rendering suffix.
type Unit string

const (
	UnitFahrenheit Unit = "°F"
	UnitPercent    Unit = "%"
	UnitMph        Unit = " mph"
	UnitMiles      Unit = " mi"
)

// NotAvailable is rendered in place of absent values.
const NotAvailable = "N/A"

// MphToKph converts miles per hour to kilometres per hour.
const MphToKph = 1.60934

var knownUnits = []Unit{UnitFahrenheit, UnitPercent, UnitMph, UnitMiles}

// Measurement is an optional, unit-tagged provider value.
type Measurement struct {
	Value *float64
	Unit  Unit
}

// NewMeasurement keeps v only when it is present and finite.
func NewMeasurement(v *float64, unit Unit) Measurement {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Measurement{Unit: unit}
	}
	value := *v
	return Measurement{Value: &value, Unit: unit}
}

// Valid reports whether a value is present.
func (m Measurement) Valid() bool {
	return m.Value != nil
}

// String renders the value with its unit suffix, or N/A.
func (m Measurement) String() string {
	if m.Value == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*m.Value, 'f', -1, 64) + string(m.Unit)
}

// Celsius converts a Fahrenheit measurement.
func (m Measurement) Celsius() (float64, bool) {
	if m.Value == nil || m.Unit != UnitFahrenheit {
		return 0, false
	}
	return FahrenheitToCelsius(*m.Value), true
}

// KilometersPerHour converts a mph measurement.
func (m Measurement) KilometersPerHour() (float64, bool) {
	if m.Value == nil || m.Unit != UnitMph {
		return 0, false
	}
	return *m.Value * MphToKph, true
}

// FahrenheitToCelsius applies (F - 32) * 5/9.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

func (m Measurement) clone() Measurement {
	if m.Value == nil {
		return m
	}
	v := *m.Value
	return Measurement{Value: &v, Unit: m.Unit}
}

func (m *Measurement) defaultUnit(unit Unit) {
	if m.Valid() && m.Unit == "" {
		m.Unit = unit
	}
}

// MarshalJSON emits the rendered form, e.g. "80°F" or "N/A".
func (m Measurement) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts the rendered form, a bare number or null.
func (m *Measurement) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*m = Measurement{}
		return nil
	}
	if !strings.HasPrefix(trimmed, `"`) {
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return fmt.Errorf("measurement: %w", err)
		}
		*m = NewMeasurement(&v, "")
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == NotAvailable {
		*m = Measurement{}
		return nil
	}
	unit := Unit("")
	number := raw
	for _, candidate := range knownUnits {
		suffix := strings.TrimSpace(string(candidate))
		if strings.HasSuffix(raw, suffix) {
			unit = candidate
			number = strings.TrimSpace(strings.TrimSuffix(raw, suffix))
			break
		}
	}
	v, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return fmt.Errorf("measurement %q: %w", raw, err)
	}
	*m = NewMeasurement(&v, unit)
	return nil
}
