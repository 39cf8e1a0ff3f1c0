// Package sysstate snapshots always-available device and environment
// context for prompt injection: time, day, and battery level.
package sysstate

import "time"

// Snapshot is one system-state reading. BatteryPercent is -1 when no
// battery information is available.
type Snapshot struct {
	DateTime       string `json:"datetime"`
	DayOfWeek      string `json:"day_of_week"`
	TimeOfDay      string `json:"time_of_day"` // morning, afternoon, evening, night
	BatteryPercent int    `json:"battery_percent"`
}

// Get returns the current system-state snapshot.
func Get() Snapshot {
	now := time.Now()
	return Snapshot{
		DateTime:       now.Format("2006-01-02T15:04:05"),
		DayOfWeek:      now.Weekday().String(),
		TimeOfDay:      timeOfDay(now.Hour()),
		BatteryPercent: batteryPercent(),
	}
}

func timeOfDay(hour int) string {
	switch {
	case hour < 5:
		return "night"
	case hour < 12:
		return "morning"
	case hour < 17:
		return "afternoon"
	case hour < 21:
		return "evening"
	default:
		return "night"
	}
}
