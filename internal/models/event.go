package models

import "time"

// Direction is the side of an EMA crossover.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// CrossoverEvent records price closing across the EMA between two consecutive
// closed bars. Events are produced and consumed within a single scan cycle.
type CrossoverEvent struct {
	Symbol     string    `json:"symbol"`
	Interval   Interval  `json:"interval"`
	Direction  Direction `json:"direction"`
	Price      float64   `json:"price"`    // last closed bar's close
	BarTime    time.Time `json:"bar_time"` // last closed bar's open time
	EMA        float64   `json:"ema"`      // EMA value on the last closed bar
	PrevClose  float64   `json:"prev_close"`
	PrevEMA    float64   `json:"prev_ema"`
	DetectedAt time.Time `json:"detected_at"`
}

// Key identifies the instrument slot an event belongs to, for dedup purposes.
func (e *CrossoverEvent) Key() string {
	return e.Symbol + ":" + string(e.Interval)
}

// AlertRecord is the per-instrument dedup state: the last crossover that was
// actually delivered for a symbol+interval slot.
type AlertRecord struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
	BarTime   time.Time `json:"bar_time"`
	SentAt    time.Time `json:"sent_at"`
}
