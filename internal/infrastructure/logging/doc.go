// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON lines for machine parsing
//   - Development: colored console output for humans
//
// Logs go to stderr by default so that command output on stdout stays
// clean for piping.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.ForQuery(`class a > text`).Debug("compiled")
//	logger.Error("fetch failed", zap.String("url", u), zap.Error(err))
package logging
