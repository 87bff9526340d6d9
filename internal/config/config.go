// Package config loads and represents the configuration record consumed by
// the connection factory and pool: a YAML-backed loader with an
// applyDefaults pass. The validation predicate itself is isolated in
// validate.go as a pure function, kept external to the core pool/executor/
// runner subsystems.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Record is the configuration record recognized by the factory and pool.
// Unknown YAML keys are ignored by yaml.v3's default decode behavior unless
// KnownFields is set, which this loader deliberately does not set —
// unrecognized keys are tolerated rather than rejected.
type Record struct {
	Host       string         `yaml:"host"`
	Username   string         `yaml:"username"`
	Database   string         `yaml:"database"`
	Password   string         `yaml:"password"`
	Port       int            `yaml:"port"`
	Socket     string         `yaml:"socket"`
	Charset    string         `yaml:"charset"`
	Persistent bool           `yaml:"persistent"`
	Options    map[string]any `yaml:"options"`

	// Capacity is the pool's bounded size (N≥1). It is not part of the
	// MySQL handshake but travels with the same record, carrying both DSN
	// fields and pool sizing fields together.
	Capacity int `yaml:"capacity"`
}

// Load reads and parses a configuration record from a YAML file, applies
// defaults, and validates it.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	rec.applyDefaults()

	if err := Validate(&rec); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &rec, nil
}

// applyDefaults fills in reasonable defaults for unset optional fields
// (charset=utf8mb4, capacity=10).
func (r *Record) applyDefaults() {
	if r.Charset == "" {
		r.Charset = "utf8mb4"
	}
	if r.Capacity == 0 {
		r.Capacity = 10
	}
}
