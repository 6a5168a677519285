// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package earnings

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Tracker is the append-only local earnings mirror. The history is
// protected by a single read-write lock: the orchestrator is the sole
// writer, reporters (e.g. a future status command) are readers, per
// spec §5's shared-resource model.
type Tracker struct {
	mu      sync.RWMutex
	path    string
	history []Entry
}

// NewTracker loads any existing earnings.json at path, or starts with
// an empty history if this is the first run.
func NewTracker(path string) (*Tracker, error) {
	h, err := loadHistory(path)
	if err != nil {
		return nil, err
	}
	return &Tracker{path: path, history: h}, nil
}

// Record appends entry to history. It does not persist by itself;
// callers pair Record with Persist, matching the orchestrator's
// `earnings.record(e); earnings.persist()` step from spec §4.7.
func (t *Tracker) Record(entry Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = append(t.history, entry)
}

// Persist atomically rewrites earnings.json with the current history.
func (t *Tracker) Persist() error {
	t.mu.RLock()
	snapshot := make([]Entry, len(t.history))
	copy(snapshot, t.history)
	t.mu.RUnlock()

	if err := saveHistory(t.path, snapshot); err != nil {
		return fmt.Errorf("earnings: persist: %w", err)
	}
	return nil
}

// History returns a defensive copy of the full entry history.
func (t *Tracker) History() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.history))
	copy(out, t.history)
	return out
}

// Totals is the derived (total, pending, today) triple, per invariant
// I1: total sums Confirmed+Paid entries, pending sums Pending entries,
// today sums every entry (any status) dated today in UTC.
type Totals struct {
	Total   decimal.Decimal
	Pending decimal.Decimal
	Today   decimal.Decimal
}

// Totals computes the current (total, pending, today) triple from
// history. Never persisted: always recomputed, so it can never drift
// from the history it summarizes.
func (t *Tracker) Totals(now time.Time) Totals {
	t.mu.RLock()
	defer t.mu.RUnlock()

	today := now.UTC().Format("2006-01-02")

	var totals Totals
	for _, e := range t.history {
		switch e.Status {
		case StatusConfirmed, StatusPaid:
			totals.Total = totals.Total.Add(e.Amount)
		case StatusPending:
			totals.Pending = totals.Pending.Add(e.Amount)
		}
		if e.Timestamp.UTC().Format("2006-01-02") == today {
			totals.Today = totals.Today.Add(e.Amount)
		}
	}
	return totals
}
