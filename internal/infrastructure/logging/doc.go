// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Log Levels:
//   - Debug: Verbose debugging information
//   - Info: General informational messages
//   - Warn: Warning messages
//   - Error: Error messages
//   - Fatal: Fatal errors (exits process)
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("acquisition armed", zap.String("pool", "samples"))
//	logger.Error("digitizer refused to start", zap.Error(err))
//
// Components receive named child loggers:
//
//	sched := scheduler.New(cfg, scheduler.Deps{Log: logger.Named("scheduler")})
package logging
