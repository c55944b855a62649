// Package logger provides structured logging utilities built on Go's
// standard slog package: a factory with environment presets and a set of
// pre-built attributes for dispatch logging.
//
// # Basic Usage
//
// Create loggers using the factory function:
//
//	import "github.com/praxislabs/cqrs/core/logger"
//
//	// Development: text output at debug level
//	log := logger.New(logger.WithDevelopment("payments"))
//
//	// Production: JSON output at info level
//	log := logger.New(logger.WithProduction("payments"))
//
//	log.Info("dispatch complete",
//		logger.Command("TransferFunds"),
//		logger.Duration(elapsed),
//	)
//
// # Attribute Helpers
//
// Attribute helpers return an empty slog.Attr for nil or empty input, so
// callsites never need nil checks:
//
//	log.Error("dispatch failed",
//		logger.Command(name),
//		logger.Error(err),          // no-op when err is nil
//		logger.CorrelationID(cid),  // no-op when cid is empty
//	)
package logger
