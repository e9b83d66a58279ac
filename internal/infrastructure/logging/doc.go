// Package logging provides structured logging for Lightmount Core.
//
// It wraps log/slog so every component logs with the same default fields
// (service, version) and the same level filtering.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Component("bridge").Info("connected", "broker", host)
//
// Ignored transitions are logged at debug level by the fixture package, so
// running at debug shows every event that did not change state.
package logging
