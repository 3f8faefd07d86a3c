// Package logging provides structured logging for ThermoSentry.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Per-zone child loggers for the supervision workers
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting supervision", "zones", 4)
//
//	zoneLog := logger.ForZone("emulator_zone0")
//	zoneLog.Info("measurement taken", "index", 3, "temp", 71.5)
//
// # Security
//
// Never log secrets, tokens, passwords, or API keys.
package logging
