// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

// Package config defines the agent's typed settings surface. It mirrors
// the field set of spec §6's config.toml, following the shape of the
// teacher's mcp.Config flag-default resolution. Reading config.toml from
// disk and parsing CLI flags are external-collaborator concerns (see
// spec.md §6 Collaborator contracts) and live outside this package;
// Config is the record they are expected to produce.
package config

import "time"

// GPU holds the gpu sub-tree of config.toml.
type GPU struct {
	// Index restricts the agent to a single device index. -1 means "use
	// whichever device the HAL detector reports first."
	Index int `toml:"index"`
	// Vendor overrides automatic vendor detection ("nvidia", "amd",
	// "apple", "intel", or "" for auto).
	Vendor string `toml:"vendor"`
}

// Network holds the network sub-tree of config.toml.
type Network struct {
	HeartbeatInterval time.Duration `toml:"heartbeat_interval"`
	ReconnectMinDelay time.Duration `toml:"reconnect_min_delay"`
	ReconnectMaxDelay time.Duration `toml:"reconnect_max_delay"`
}

// Availability holds the availability sub-tree of config.toml.
type Availability struct {
	HoursPerDay float64 `toml:"hours_per_day"`
	Timezone    string  `toml:"timezone"`

	// Reliability is the field spec.md Open Question (c) notes
	// original_source declares but never computes: a rolling score of
	// how reliably the agent honored its advertised availability
	// window. Carried here for wire/config parity; nothing in this
	// repo updates it yet.
	Reliability float64 `toml:"reliability"`
}

// Config is the agent's full typed configuration record, the verbatim
// field set of spec.md §6. A loader external to this package (TOML file
// + CLI flags, per the Non-goal) is responsible for producing one;
// DefaultConfig supplies the defaults it starts from.
type Config struct {
	PlatformURL    string `toml:"platform_url"`
	PrivateKeyPath string `toml:"private_key_path"`
	DataDir        string `toml:"data_dir"`
	LogLevel       string `toml:"log_level"`

	GPU          GPU          `toml:"gpu"`
	Network      Network      `toml:"network"`
	Availability Availability `toml:"availability"`
}

// DefaultConfig returns the settings a fresh config.toml is auto-created
// with when absent, per spec §6.
func DefaultConfig(dataDir string) Config {
	return Config{
		PlatformURL:    "wss://platform.orban.io",
		PrivateKeyPath: dataDir + "/agent.key",
		DataDir:        dataDir,
		LogLevel:       "info",
		GPU: GPU{
			Index:  -1,
			Vendor: "",
		},
		Network: Network{
			HeartbeatInterval: 30 * time.Second,
			ReconnectMinDelay: time.Second,
			ReconnectMaxDelay: 2 * time.Minute,
		},
		Availability: Availability{
			HoursPerDay: 24,
			Timezone:    "UTC",
			Reliability: 0,
		},
	}
}

// ValidLogLevels are the log levels internal/logging accepts.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// IsValidLogLevel reports whether level is one of ValidLogLevels.
func IsValidLogLevel(level string) bool {
	for _, v := range ValidLogLevels {
		if level == v {
			return true
		}
	}
	return false
}
