package scheduler

import (
	"context"
	"time"

	"github.com/finsignal/emacross/internal/logger"
	"github.com/finsignal/emacross/internal/models"
)

// SeriesFetcher supplies recent candle history for a symbol.
type SeriesFetcher interface {
	Candles(ctx context.Context, symbol string, interval models.Interval) ([]models.Bar, error)
}

// Detector classifies a fetched series into at most one crossover event.
type Detector interface {
	Detect(symbol string, interval models.Interval, bars []models.Bar) *models.CrossoverEvent
}

// Notifier delivers a crossover alert.
type Notifier interface {
	SendAlert(ev models.CrossoverEvent) error
}

// AlertStore persists fired alerts and dedup state. May be nil.
type AlertStore interface {
	AddAlert(ev *models.CrossoverEvent, notified bool) error
	SaveAlertState(rec models.AlertRecord) error
	LoadAlertStates() (map[string]models.AlertRecord, error)
}

// Config tunes scanner behavior.
type Config struct {
	CooldownMultiplier int
	MinBars            int // warm-up requirement; shorter fetches are skipped
}

// TickResult summarizes one scheduler tick.
type TickResult struct {
	Active     int // checks evaluated
	Skipped    int // checks skipped on fetch failure or short history
	Alerts     int // alerts dispatched
	Suppressed int // crossovers withheld by dedup
}

// Scanner orchestrates one detection cycle: gate, catalog, fetch, detect,
// dedup, dispatch. It owns no goroutines; callers drive it from a loop or a
// single one-shot invocation.
type Scanner struct {
	window   Window
	catalog  *Catalog
	fetcher  SeriesFetcher
	detector Detector
	notifier Notifier
	store    AlertStore
	dedup    *deduper
	minBars  int
}

// New creates a Scanner. notifier and store may be nil; detection still runs
// and outcomes are logged.
func New(window Window, catalog *Catalog, fetcher SeriesFetcher, detector Detector,
	notifier Notifier, store AlertStore, cfg Config) *Scanner {

	minBars := cfg.MinBars
	if minBars < 3 {
		minBars = 3
	}
	s := &Scanner{
		window:   window,
		catalog:  catalog,
		fetcher:  fetcher,
		detector: detector,
		notifier: notifier,
		store:    store,
		dedup:    newDeduper(cfg.CooldownMultiplier),
		minBars:  minBars,
	}

	if store != nil {
		persisted, err := store.LoadAlertStates()
		if err != nil {
			logger.Warn("Failed to load persisted alert states: %v", err)
		} else if len(persisted) > 0 {
			s.dedup.load(persisted)
			logger.Info("Loaded %d persisted alert states", len(persisted))
		}
	}

	return s
}

// InWindow reports whether now falls inside the monitoring window.
func (s *Scanner) InWindow(now time.Time) bool {
	return s.window.Active(now)
}

// Tick runs one detection cycle for the given wall-clock time. Outside the
// monitoring window it does nothing. Inside, every due instrument is
// evaluated; a fetch or history failure skips that instrument only.
func (s *Scanner) Tick(ctx context.Context, now time.Time) TickResult {
	var res TickResult

	if !s.window.Active(now) {
		logger.Debug("Outside monitoring window, skipping tick")
		return res
	}

	checks := s.catalog.Due(now.Minute())
	if len(checks) == 0 {
		return res
	}
	logger.Info("Minute %02d: %d instruments due", now.Minute(), len(checks))

	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			logger.Warn("Tick cancelled with %d checks remaining", len(checks)-res.Active-res.Skipped)
			return res
		}
		ev, ok := s.evaluate(ctx, check)
		if !ok {
			res.Skipped++
			continue
		}
		res.Active++
		if ev == nil {
			continue
		}
		if s.dedup.suppressed(ev, now) {
			res.Suppressed++
			logger.Info("Suppressed repeat %s cross for %s [%s]", ev.Direction, ev.Symbol, ev.Interval)
			continue
		}
		s.dispatch(ev, now)
		res.Alerts++
	}

	logger.Info("Tick complete: %d evaluated, %d skipped, %d alerts, %d suppressed",
		res.Active, res.Skipped, res.Alerts, res.Suppressed)
	return res
}

// evaluate fetches and classifies one instrument. The bool is false when the
// instrument was skipped this cycle.
func (s *Scanner) evaluate(ctx context.Context, check Check) (*models.CrossoverEvent, bool) {
	bars, err := s.fetcher.Candles(ctx, check.Symbol, check.Interval)
	if err != nil {
		logger.Warn("Fetch failed for %s [%s]: %v", check.Symbol, check.Interval, err)
		return nil, false
	}
	if len(bars) < s.minBars {
		logger.Warn("Insufficient history for %s [%s]: %d bars", check.Symbol, check.Interval, len(bars))
		return nil, false
	}
	return s.detector.Detect(check.Symbol, check.Interval, bars), true
}

// dispatch delivers and records one alert. Delivery failure is logged and
// never aborts the tick; the crossover is not retried.
func (s *Scanner) dispatch(ev *models.CrossoverEvent, now time.Time) {
	notified := false
	if s.notifier != nil {
		if err := s.notifier.SendAlert(*ev); err != nil {
			logger.Error("Failed to deliver alert for %s: %v", ev.Symbol, err)
		} else {
			notified = true
		}
	}
	logger.Info("%s cross: %s [%s] close=%.4f ema=%.4f", ev.Direction, ev.Symbol, ev.Interval, ev.Price, ev.EMA)

	rec := s.dedup.record(ev, now)
	if s.store != nil {
		if err := s.store.AddAlert(ev, notified); err != nil {
			logger.Warn("Failed to persist alert for %s: %v", ev.Symbol, err)
		}
		if err := s.store.SaveAlertState(rec); err != nil {
			logger.Warn("Failed to persist alert state for %s: %v", rec.Key, err)
		}
	}
}

// Shutdown checkpoints dedup state before exit.
func (s *Scanner) Shutdown() {
	if s.store == nil {
		return
	}
	logger.Info("Checkpointing %d alert states before shutdown", len(s.dedup.records))
	s.dedup.checkpoint(s.store.SaveAlertState)
}
