// Package state persists the per-session cost accumulation record.
package state

import (
	"math"

	"github.com/shopspring/decimal"
)

// Record is the durable accumulation state for one session.
//
// Totals always equal the sum of exactly the generations listed in SeenIDs.
// Records are treated as values: Fold returns a new Record and never
// mutates the receiver.
type Record struct {
	SeenIDs            []string `json:"seen_ids"`
	TotalCost          float64  `json:"total_cost"`
	TotalCacheDiscount float64  `json:"total_cache_discount"`
	LastProvider       string   `json:"last_provider"`
	LastModel          string   `json:"last_model"`
}

// Entry is one successfully fetched generation to fold into a Record.
type Entry struct {
	ID            string
	Cost          float64
	CacheDiscount float64
	Provider      string
	Model         string
}

// Seen returns a membership set over SeenIDs.
func (r Record) Seen() map[string]struct{} {
	set := make(map[string]struct{}, len(r.SeenIDs))
	for _, id := range r.SeenIDs {
		set[id] = struct{}{}
	}
	return set
}

// Fold returns a copy of r with e added to the totals and marked seen.
// Empty provider/model labels leave the previous labels in place.
func (r Record) Fold(e Entry) Record {
	next := r
	next.SeenIDs = make([]string, len(r.SeenIDs), len(r.SeenIDs)+1)
	copy(next.SeenIDs, r.SeenIDs)
	next.SeenIDs = append(next.SeenIDs, e.ID)

	next.TotalCost = addMoney(r.TotalCost, e.Cost)
	next.TotalCacheDiscount = addMoney(r.TotalCacheDiscount, e.CacheDiscount)
	if e.Provider != "" {
		next.LastProvider = e.Provider
	}
	if e.Model != "" {
		next.LastModel = e.Model
	}
	return next
}

// addMoney sums two amounts in decimal so long sessions do not drift
// (0.1 + 0.2 stays 0.3).
func addMoney(a, b float64) float64 {
	if !finite(a) || !finite(b) {
		return a + b
	}
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// normalized guarantees a non-nil SeenIDs so it encodes as [] rather than null.
func (r Record) normalized() Record {
	if r.SeenIDs == nil {
		r.SeenIDs = []string{}
	}
	return r
}
