// Package main is the entry point for the hquery HTTP server.
//
// The server accepts HTML inline or by URL and evaluates queries against
// it, returning JSON.
//
// Configuration:
//   - Environment variables with the HQ_ prefix (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	./hq-server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./hq-server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
