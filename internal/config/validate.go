package config

import "github.com/joao-brasil/asyncmysql/internal/errs"

// Validate is the pure predicate over a configuration record: no I/O, no
// side effects, depends on nothing but the Record shape itself.
func Validate(r *Record) error {
	if r.Host == "" {
		return &errs.ConfigInvalid{Field: "host", Expected: "non-empty string"}
	}
	if r.Database == "" {
		return &errs.ConfigInvalid{Field: "database", Expected: "non-empty string"}
	}
	if r.Port < 0 {
		return &errs.ConfigInvalid{Field: "port", Expected: "positive integer"}
	}
	if r.Capacity < 1 {
		return &errs.ConfigInvalid{Field: "capacity", Expected: "integer >= 1"}
	}
	return nil
}
