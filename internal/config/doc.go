// Package config loads, normalizes, and validates ballotproof configuration
// data.
//
// The file holds engine-operational knobs only: log output, worker counts,
// journal placement, and I/O retry behavior. Election semantics such as trial
// counts, risk limits, and audit rates never live here; those are read from
// the audit parameter files inside the election directory.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
