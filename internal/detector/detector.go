// Package detector computes the EMA indicator and classifies price/EMA
// crossovers. It is pure: no I/O, no clocks beyond the DetectedAt stamp.
package detector

import (
	"time"

	"github.com/finsignal/emacross/internal/models"
)

// DefaultSpan is the EMA span used for crossover detection.
const DefaultSpan = 100

// EMA returns the exponential moving average of values with the given span,
// aligned one-to-one with the input. The series is seeded with the first
// value: ema[0] = values[0], ema[i] = values[i]*α + ema[i-1]*(1-α) where
// α = 2/(span+1).
func EMA(values []float64, span int) []float64 {
	if len(values) == 0 || span < 1 {
		return nil
	}
	alpha := 2.0 / (float64(span) + 1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// Detector classifies crossovers over fetched bar series.
type Detector struct {
	span    int
	minBars int
}

// New returns a Detector with the given EMA span and warm-up requirement.
// Non-positive arguments fall back to the defaults.
func New(span, minBars int) *Detector {
	if span < 2 {
		span = DefaultSpan
	}
	if minBars < 1 {
		minBars = DefaultSpan
	}
	return &Detector{span: span, minBars: minBars}
}

// Detect evaluates the last two closed bars of a series and returns the
// crossover event between them, or nil.
//
// The final element of bars is the currently-forming candle and is never
// evaluated: the decision is made on bars[len-3] (previous closed) and
// bars[len-2] (last closed). A series shorter than the warm-up requirement
// yields nil; insufficient history means "no opinion", not an error.
func (d *Detector) Detect(symbol string, interval models.Interval, bars []models.Bar) *models.CrossoverEvent {
	if len(bars) < d.minBars || len(bars) < 3 {
		return nil
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	ema := EMA(closes, d.span)

	prev := len(bars) - 3
	last := len(bars) - 2

	var dir models.Direction
	switch {
	case closes[prev] < ema[prev] && closes[last] > ema[last]:
		dir = models.Bullish
	case closes[prev] > ema[prev] && closes[last] < ema[last]:
		dir = models.Bearish
	default:
		return nil
	}

	return &models.CrossoverEvent{
		Symbol:     symbol,
		Interval:   interval,
		Direction:  dir,
		Price:      closes[last],
		BarTime:    bars[last].Time,
		EMA:        ema[last],
		PrevClose:  closes[prev],
		PrevEMA:    ema[prev],
		DetectedAt: time.Now(),
	}
}
