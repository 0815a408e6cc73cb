// Package logging assembles the structured slog loggers used across showgrab.
//
// It owns the console and JSON handlers, centralizes level plumbing, and
// exposes attribute helpers plus standardized field keys so every component
// tags log lines the same way. A no-op logger is provided for tests and for
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
