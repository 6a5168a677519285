// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

// Package earnings tracks the agent's local mirror of platform-
// authoritative earnings records: an append-only history persisted as
// a whole-file atomic rewrite, with total/pending/today derived from
// that history on read.
package earnings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of one earnings entry.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusPaid      Status = "Paid"
)

// Entry is one append-only earnings record, per spec §3.
type Entry struct {
	Timestamp   time.Time       `json:"timestamp"`
	TaskID      string          `json:"task_id"`
	GPUHours    float64         `json:"gpu_hours"`
	RatePerHour decimal.Decimal `json:"rate_per_hour"`
	Amount      decimal.Decimal `json:"amount"`
	Status      Status          `json:"status"`
}

// history is the on-disk shape of earnings.json: just the history
// vector. Total/pending/today are never persisted — they are derived
// from history on every read, per invariant I1, so they can never drift
// out of sync with it.
type history struct {
	History []Entry `json:"history"`
}

// loadHistory reads path, returning an empty history if the file does
// not yet exist (first run).
func loadHistory(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("earnings: reading %s: %w", path, err)
	}

	var h history
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("earnings: decoding %s: %w", path, err)
	}
	return h.History, nil
}

// saveHistory writes entries to path as a whole-file atomic rewrite:
// encode to a temp file in the same directory, then rename over the
// destination so a crash mid-write never leaves a truncated
// earnings.json.
func saveHistory(path string, entries []Entry) error {
	data, err := json.MarshalIndent(history{History: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("earnings: encoding history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("earnings: creating data dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("earnings: writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("earnings: renaming into place: %w", err)
	}
	return nil
}
