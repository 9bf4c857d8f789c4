package detector

import (
	"math"
	"testing"
	"time"

	"github.com/finsignal/emacross/internal/models"
)

func barsFromCloses(closes []float64) []models.Bar {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Time:  start.Add(time.Duration(i) * 5 * time.Minute),
			Open:  c,
			High:  c + 0.5,
			Low:   c - 0.5,
			Close: c,
		}
	}
	return bars
}

func TestEMA_Recurrence(t *testing.T) {
	closes := []float64{100, 102, 101, 99, 103, 104, 98, 100.5, 101.25, 97}
	span := 100
	got := EMA(closes, span)

	if len(got) != len(closes) {
		t.Fatalf("Expected %d values, got %d", len(closes), len(got))
	}

	alpha := 2.0 / float64(span+1)
	want := closes[0]
	for i, c := range closes {
		if i > 0 {
			want = c*alpha + want*(1-alpha)
		}
		if math.Abs(got[i]-want) > 1e-6 {
			t.Errorf("ema[%d] = %f, want %f", i, got[i], want)
		}
	}
}

func TestEMA_Empty(t *testing.T) {
	if got := EMA(nil, 100); got != nil {
		t.Errorf("Expected nil for empty input, got %v", got)
	}
	if got := EMA([]float64{1, 2}, 0); got != nil {
		t.Errorf("Expected nil for invalid span, got %v", got)
	}
}

// crossSeries returns a warm-up of flat closes followed by the given trailing
// closes (previous closed, last closed, forming).
func crossSeries(warmup int, level float64, tail ...float64) []float64 {
	closes := make([]float64, 0, warmup+len(tail))
	for i := 0; i < warmup; i++ {
		closes = append(closes, level)
	}
	return append(closes, tail...)
}

func TestDetect_BullishCross(t *testing.T) {
	d := New(100, 100)
	// Flat at 100 so the EMA sits at 100, then close below, then close above.
	closes := crossSeries(100, 100, 99, 101, 100.5)
	bars := barsFromCloses(closes)

	ev := d.Detect("EURUSD=X", models.Interval15m, bars)
	if ev == nil {
		t.Fatal("Expected a bullish event, got nil")
	}
	if ev.Direction != models.Bullish {
		t.Errorf("Expected bullish, got %s", ev.Direction)
	}
	if ev.Price != 101 {
		t.Errorf("Expected price 101, got %f", ev.Price)
	}
	if ev.Symbol != "EURUSD=X" || ev.Interval != models.Interval15m {
		t.Errorf("Event carries wrong identity: %s [%s]", ev.Symbol, ev.Interval)
	}
	if !ev.BarTime.Equal(bars[len(bars)-2].Time) {
		t.Errorf("Event bar time should be the last closed bar's, got %v", ev.BarTime)
	}
}

func TestDetect_BearishCross(t *testing.T) {
	d := New(100, 100)
	closes := crossSeries(100, 100, 101, 99, 99.5)
	ev := d.Detect("GBPJPY=X", models.Interval15m, barsFromCloses(closes))
	if ev == nil {
		t.Fatal("Expected a bearish event, got nil")
	}
	if ev.Direction != models.Bearish {
		t.Errorf("Expected bearish, got %s", ev.Direction)
	}
	if ev.Price != 99 {
		t.Errorf("Expected price 99, got %f", ev.Price)
	}
}

func TestDetect_NoEventWhenBothSameSide(t *testing.T) {
	d := New(100, 100)
	tests := []struct {
		name string
		tail []float64
	}{
		{"both above", []float64{101, 102, 103}},
		{"both below", []float64{99, 98, 97}},
		{"touch without cross", []float64{101, 101, 101}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closes := crossSeries(100, 100, tt.tail...)
			if ev := d.Detect("ES=F", models.Interval5m, barsFromCloses(closes)); ev != nil {
				t.Errorf("Expected no event, got %s", ev.Direction)
			}
		})
	}
}

func TestDetect_FormingBarIgnored(t *testing.T) {
	d := New(100, 100)
	// The still-forming bar must never influence the decision.
	for _, forming := range []float64{50, 100, 101, 500} {
		closes := crossSeries(100, 100, 99, 101, forming)
		ev := d.Detect("NQ=F", models.Interval5m, barsFromCloses(closes))
		if ev == nil || ev.Direction != models.Bullish {
			t.Errorf("forming=%v: expected bullish event regardless of forming bar", forming)
		}
		if ev != nil && ev.Price != 101 {
			t.Errorf("forming=%v: expected price 101, got %f", forming, ev.Price)
		}
	}
}

func TestDetect_InsufficientHistory(t *testing.T) {
	d := New(100, 100)
	closes := crossSeries(50, 100, 99, 101, 100.5)
	if ev := d.Detect("XAUUSD=X", models.Interval5m, barsFromCloses(closes)); ev != nil {
		t.Errorf("Expected nil on short history, got %s", ev.Direction)
	}
	if ev := d.Detect("XAUUSD=X", models.Interval5m, nil); ev != nil {
		t.Error("Expected nil on empty history")
	}
}

func TestDetect_ExactWarmupBoundary(t *testing.T) {
	d := New(100, 100)
	// 96 warm-up + 3 trailing = 99 bars: one short of the requirement.
	closes := crossSeries(96, 100, 99, 101, 100.5)
	if ev := d.Detect("YM=F", models.Interval5m, barsFromCloses(closes)); ev != nil {
		t.Error("Expected nil just below warm-up boundary")
	}
	// 97 warm-up + 3 trailing = 100 bars: exactly enough.
	closes = crossSeries(97, 100, 99, 101, 100.5)
	if ev := d.Detect("YM=F", models.Interval5m, barsFromCloses(closes)); ev == nil {
		t.Error("Expected event at warm-up boundary")
	}
}
