// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultCacheMaxAge is the "older than N days" eviction threshold for
// cached model/input files.
const DefaultCacheMaxAge = 14 * 24 * time.Hour

// EvictStale removes every regular file under cacheDir whose
// modification time is older than maxAge. Eviction runs on demand, not
// on a ticker: it runs only when EvictStale is called, and neither the
// orchestrator nor the executor calls it.
func EvictStale(cacheDir string, maxAge time.Duration, log *logrus.Entry) (evicted int, err error) {
	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("executor: reading cache dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.WithError(err).WithField("file", entry.Name()).Warn("cache eviction: stat failed, skipping")
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(cacheDir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.WithError(err).WithField("file", entry.Name()).Warn("cache eviction: remove failed")
			continue
		}
		log.WithFields(logrus.Fields{"file": entry.Name(), "age": time.Since(info.ModTime())}).Debug("evicted stale cache entry")
		evicted++
	}

	return evicted, nil
}
