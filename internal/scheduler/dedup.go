package scheduler

import (
	"time"

	"github.com/finsignal/emacross/internal/logger"
	"github.com/finsignal/emacross/internal/models"
)

// deduper suppresses re-firing the same crossover across consecutive ticks.
//
// The underlying detector is stateless per tick, so without this a cross would
// re-alert on every minute the cadence samples while price hovers at the EMA.
// Policy: a detected cross is suppressed when the previously delivered alert
// for the same symbol+interval slot has the same direction and either refers
// to the same closed bar or was sent within the cooldown. An opposite-direction
// cross always fires. A zero cooldown multiplier disables time-based
// suppression (same-bar suppression still applies).
type deduper struct {
	records    map[string]models.AlertRecord
	multiplier int
}

func newDeduper(multiplier int) *deduper {
	return &deduper{
		records:    make(map[string]models.AlertRecord),
		multiplier: multiplier,
	}
}

// load seeds the dedup map from persisted records, so restarts do not
// re-fire alerts already delivered.
func (d *deduper) load(records map[string]models.AlertRecord) {
	for k, rec := range records {
		d.records[k] = rec
	}
}

// suppressed reports whether ev duplicates the last delivered alert.
func (d *deduper) suppressed(ev *models.CrossoverEvent, now time.Time) bool {
	rec, ok := d.records[ev.Key()]
	if !ok || rec.Direction != ev.Direction {
		return false
	}
	if rec.BarTime.Equal(ev.BarTime) {
		return true
	}
	if d.multiplier <= 0 {
		return false
	}
	cooldown := time.Duration(d.multiplier) * ev.Interval.Duration()
	return now.Sub(rec.SentAt) < cooldown
}

// record marks ev as delivered.
func (d *deduper) record(ev *models.CrossoverEvent, now time.Time) models.AlertRecord {
	rec := models.AlertRecord{
		Key:       ev.Key(),
		Direction: ev.Direction,
		BarTime:   ev.BarTime,
		SentAt:    now,
	}
	d.records[ev.Key()] = rec
	return rec
}

// checkpoint persists all dedup records through the given saver.
func (d *deduper) checkpoint(save func(models.AlertRecord) error) {
	for _, rec := range d.records {
		if err := save(rec); err != nil {
			logger.Warn("Failed to checkpoint alert state for %s: %v", rec.Key, err)
		}
	}
}
