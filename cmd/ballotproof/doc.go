// Package main hosts the ballotproof CLI entrypoint and command graph.
//
// The cobra-based command tree translates terminal invocations into loads
// and validations of an election directory, sampling-order computation,
// stage runs, journal views, synthetic election generation, and
// configuration scaffolding. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
