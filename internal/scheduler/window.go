// Package scheduler decides which instruments to evaluate at which minute,
// runs the per-tick scan, and deduplicates alerts across ticks.
package scheduler

import "time"

// Window is the daily time-of-day range during which scanning is permitted,
// in a fixed timezone. StartHour > EndHour means the window wraps midnight.
type Window struct {
	StartHour int
	EndHour   int
	Location  *time.Location
}

// NewWindow resolves the timezone name and returns the window. An unknown
// timezone is a configuration error; callers fail fast at startup.
func NewWindow(startHour, endHour int, timezone string) (Window, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Window{}, err
	}
	return Window{StartHour: startHour, EndHour: endHour, Location: loc}, nil
}

// Active reports whether now falls inside the window. Hour granularity only.
func (w Window) Active(now time.Time) bool {
	hour := now.In(w.Location).Hour()
	if w.StartHour > w.EndHour {
		return hour >= w.StartHour || hour < w.EndHour
	}
	return hour >= w.StartHour && hour < w.EndHour
}
