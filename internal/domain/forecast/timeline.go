package forecast

import "time"

// Timestep selects the timeline granularity.
type Timestep string

const (
	TimestepDaily  Timestep = "1d"
	TimestepHourly Timestep = "1h"
)

// HourlyHorizon bounds the hourly timeline.
const HourlyHorizon = 5 * 24 * time.Hour

// Timeline is the provider payload after schema validation.
type Timeline struct {
	Timestep  Timestep   `json:"timestep"`
	StartTime time.Time  `json:"startTime"`
	EndTime   time.Time  `json:"endTime"`
	Intervals []Interval `json:"intervals"`
}

// Interval is one timeline bucket.
type Interval struct {
	StartTime time.Time `json:"startTime"`
	Values    Values    `json:"values"`
}

// Values carries the raw provider fields; any of them may be missing.
type Values struct {
	Temperature         *float64   `json:"temperature,omitempty"`
	TemperatureApparent *float64   `json:"temperatureApparent,omitempty"`
	TemperatureMin      *float64   `json:"temperatureMin,omitempty"`
	TemperatureMax      *float64   `json:"temperatureMax,omitempty"`
	WindSpeed           *float64   `json:"windSpeed,omitempty"`
	Humidity            *float64   `json:"humidity,omitempty"`
	Visibility          *float64   `json:"visibility,omitempty"`
	CloudCover          *float64   `json:"cloudCover,omitempty"`
	SunriseTime         *time.Time `json:"sunriseTime,omitempty"`
	SunsetTime          *time.Time `json:"sunsetTime,omitempty"`
}
