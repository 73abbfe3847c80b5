package forecast

import (
	"encoding/json"
	"time"
)

// Status is the categorical sky condition of a record.
type Status string

const (
	StatusCloudy Status = "Cloudy"
	StatusClear  Status = "Clear"
)

// CloudyThreshold is the cloud cover percentage above which a record is Cloudy.
const CloudyThreshold = 50.0

// StatusFor derives the sky condition. Exactly 50% is still Clear and a
// missing cloud cover counts as Clear.
func StatusFor(cloudCover *float64) Status {
	if cloudCover != nil && *cloudCover > CloudyThreshold {
		return StatusCloudy
	}
	return StatusClear
}

// ClockTime is a local "HH:MM" time; empty means unknown.
type ClockTime string

// String renders the clock time or N/A.
func (c ClockTime) String() string {
	if c == "" {
		return NotAvailable
	}
	return string(c)
}

// MarshalJSON emits "N/A" for unknown times.
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON maps "N/A" back to unknown.
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == NotAvailable {
		raw = ""
	}
	*c = ClockTime(raw)
	return nil
}

// Record is one normalized timeline interval.
type Record struct {
	StartTime    time.Time   `json:"startTime"`
	Date         string      `json:"date"`
	Status       Status      `json:"status"`
	MaxTemp      Measurement `json:"maxTemp"`
	MinTemp      Measurement `json:"minTemp"`
	ApparentTemp Measurement `json:"apparentTemp"`
	Sunrise      ClockTime   `json:"sunrise"`
	Sunset       ClockTime   `json:"sunset"`
	Humidity     Measurement `json:"humidity"`
	WindSpeed    Measurement `json:"windSpeed"`
	Visibility   Measurement `json:"visibility"`
	CloudCover   Measurement `json:"cloudCover"`
}

// UnmarshalJSON decodes a record and gives unitless measurements the unit
// their field is always rendered with.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = Record(decoded)
	r.MaxTemp.defaultUnit(UnitFahrenheit)
	r.MinTemp.defaultUnit(UnitFahrenheit)
	r.ApparentTemp.defaultUnit(UnitFahrenheit)
	r.Humidity.defaultUnit(UnitPercent)
	r.WindSpeed.defaultUnit(UnitMph)
	r.Visibility.defaultUnit(UnitMiles)
	r.CloudCover.defaultUnit(UnitPercent)
	return nil
}

// DayRecord is a record of the daily timeline.
type DayRecord = Record

// HourRecord is a record of the hourly timeline; same shape, finer sampling.
type HourRecord = Record

// Clone deep-copies a record.
func (r Record) Clone() Record {
	out := r
	out.MaxTemp = r.MaxTemp.clone()
	out.MinTemp = r.MinTemp.clone()
	out.ApparentTemp = r.ApparentTemp.clone()
	out.Humidity = r.Humidity.clone()
	out.WindSpeed = r.WindSpeed.clone()
	out.Visibility = r.Visibility.clone()
	out.CloudCover = r.CloudCover.clone()
	return out
}

// CloneRecords deep-copies a slice so snapshots never alias live data.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
