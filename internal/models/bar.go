// Package models defines the core domain entities: price bars, instrument
// groups, crossover events, and alert records.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Interval is a supported candle timeframe.
type Interval string

const (
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
)

// ParseInterval converts a config string into an Interval.
func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case Interval5m:
		return Interval5m, nil
	case Interval15m:
		return Interval15m, nil
	}
	return "", fmt.Errorf("unsupported interval: %q", s)
}

// Duration returns the wall-clock length of one bar.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	}
	return 0
}

// Bar is one OHLC candle. A fetched series is ordered oldest to newest, with
// the still-forming candle last.
type Bar struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// Validate checks bar field constraints.
func (b *Bar) Validate() error {
	if b.Time.IsZero() {
		return errors.New("bar time must not be zero")
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return errors.New("bar prices must be positive")
	}
	if b.High < b.Low {
		return errors.New("bar high must be >= low")
	}
	return nil
}

// InstrumentGroup is a static partition of symbols sharing a timeframe and a
// sampling cadence. Groups are pure configuration and never mutate at runtime.
type InstrumentGroup struct {
	Name         string   `json:"name" mapstructure:"name"`
	Interval     Interval `json:"interval" mapstructure:"interval"`
	Symbols      []string `json:"symbols" mapstructure:"symbols"`
	EveryMinutes int      `json:"every_minutes" mapstructure:"every_minutes"`
}

// Validate checks group field constraints.
func (g *InstrumentGroup) Validate() error {
	if g.Name == "" {
		return errors.New("group name must not be empty")
	}
	if _, err := ParseInterval(string(g.Interval)); err != nil {
		return fmt.Errorf("group %s: %w", g.Name, err)
	}
	if len(g.Symbols) == 0 {
		return fmt.Errorf("group %s must contain at least one symbol", g.Name)
	}
	if g.EveryMinutes < 1 || g.EveryMinutes > 60 {
		return fmt.Errorf("group %s: every_minutes must be between 1 and 60", g.Name)
	}
	return nil
}
