// Package logging assembles the structured slog loggers used across the
// audit engine.
//
// It owns the console and JSON handlers, level parsing, and the standard
// attribute keys (election, collection, contest, stage) so every component
// tags its lines the same way. A no-op logger is provided for tests and for
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit records with the same shape as the rest of the system.
package logging
