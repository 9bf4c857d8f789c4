package scheduler

import "github.com/finsignal/emacross/internal/models"

// Check is one (symbol, interval) pair due for evaluation this tick.
type Check struct {
	Symbol   string
	Interval models.Interval
	Group    string
}

// Catalog is the static instrument partition. It has no mutable state; its
// only behavior is answering which checks are due at a given minute.
type Catalog struct {
	groups []models.InstrumentGroup
}

// NewCatalog builds a catalog from configured groups.
func NewCatalog(groups []models.InstrumentGroup) *Catalog {
	return &Catalog{groups: groups}
}

// Size returns the total number of symbols across all groups.
func (c *Catalog) Size() int {
	n := 0
	for _, g := range c.groups {
		n += len(g.Symbols)
	}
	return n
}

// Due returns the checks due at the given wall-clock minute. A group is due
// exactly when minute is a multiple of its cadence; groups sharing a due
// minute are all returned, in configured order.
func (c *Catalog) Due(minute int) []Check {
	var checks []Check
	for _, g := range c.groups {
		if minute%g.EveryMinutes != 0 {
			continue
		}
		for _, sym := range g.Symbols {
			checks = append(checks, Check{Symbol: sym, Interval: g.Interval, Group: g.Name})
		}
	}
	return checks
}
