package forecast

import (
	"time"

	"github.com/yanqian/weather-favorites/pkg/util"
)

const dailyDateLayout = "Monday, Jan 2, 2006"

// NormalizeDaily converts a daily timeline, preserving provider order.
func NormalizeDaily(tl Timeline) []DayRecord {
	return normalizeAll(tl, TimestepDaily)
}

// NormalizeHourly converts an hourly timeline, preserving provider order.
func NormalizeHourly(tl Timeline) []HourRecord {
	return normalizeAll(tl, TimestepHourly)
}

func normalizeAll(tl Timeline, step Timestep) []Record {
	records := make([]Record, 0, len(tl.Intervals))
	for _, interval := range tl.Intervals {
		records = append(records, Normalize(interval, step))
	}
	return records
}

// Normalize maps one interval onto a record. It never fails: missing fields
// stay absent. Clock times are shown in the offset of the interval itself.
func Normalize(in Interval, step Timestep) Record {
	v := in.Values
	loc := in.StartTime.Location()
	return Record{
		StartTime:    in.StartTime,
		Date:         renderDate(in.StartTime, step),
		Status:       StatusFor(v.CloudCover),
		MaxTemp:      NewMeasurement(v.TemperatureMax, UnitFahrenheit),
		MinTemp:      NewMeasurement(v.TemperatureMin, UnitFahrenheit),
		ApparentTemp: NewMeasurement(v.TemperatureApparent, UnitFahrenheit),
		Sunrise:      clockIn(v.SunriseTime, loc),
		Sunset:       clockIn(v.SunsetTime, loc),
		Humidity:     NewMeasurement(v.Humidity, UnitPercent),
		WindSpeed:    NewMeasurement(v.WindSpeed, UnitMph),
		Visibility:   NewMeasurement(v.Visibility, UnitMiles),
		CloudCover:   NewMeasurement(v.CloudCover, UnitPercent),
	}
}

func renderDate(t time.Time, step Timestep) string {
	if t.IsZero() {
		return ""
	}
	if step == TimestepHourly {
		return t.Format(time.RFC3339)
	}
	return t.Format(dailyDateLayout)
}

func clockIn(t *time.Time, loc *time.Location) ClockTime {
	if t == nil || t.IsZero() {
		return ""
	}
	return ClockTime(util.ClockTime(t.In(loc)))
}
