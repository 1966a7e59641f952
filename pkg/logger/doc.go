// Package logger provides structured logging driven by the environment's
// opentelemetry_level setting. It wraps the standard log/slog package,
// picking a text handler for the dev environment and JSON elsewhere.
package logger
