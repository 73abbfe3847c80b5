package util

import "time"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ClockTime renders t as a 24h "HH:MM" clock in its own location.
func ClockTime(t time.Time) string {
	return t.Format("15:04")
}
