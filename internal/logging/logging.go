// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

// Package logging wires up the agent's structured logger. The teacher
// logs hand-built JSON strings through log.Printf; we keep its "one
// structured event per significant state transition" discipline but
// route it through logrus so fields are real, not interpolated.
package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a root logrus entry at the given level, logging to stderr
// as JSON (matching the teacher's stderr-JSON convention). An invalid
// level falls back to info and logs a warning, same precedence as the
// teacher's resolveLogLevel.
func New(level string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		l.SetLevel(logrus.InfoLevel)
		entry := logrus.NewEntry(l)
		entry.WithField("requested_level", level).Warn("invalid log level, defaulting to info")
		return entry
	}
	l.SetLevel(parsed)
	return logrus.NewEntry(l)
}

// ResolveLevel determines the effective log level from an env var and a
// flag value, mirroring the teacher's LOG_LEVEL-env-over-flag precedence.
func ResolveLevel(flagValue string, validLevels []string) string {
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		if contains(validLevels, envLevel) {
			return envLevel
		}
		fmt.Fprintf(os.Stderr, "invalid LOG_LEVEL env var %q, valid=%v, using flag %q\n",
			envLevel, validLevels, flagValue)
	}
	return flagValue
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
