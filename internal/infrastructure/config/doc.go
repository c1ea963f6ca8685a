// Package config provides 12-factor configuration for the hq tools.
//
// Every setting is read from an HQ_-prefixed environment variable and has
// a default, so a zero environment yields a working configuration. Command
// line flags in cmd/ override what is loaded here.
//
// Environment Variables:
//   - HQ_PORT, HQ_HOST
//   - HQ_LOG_LEVEL, HQ_LOG_DEV
//   - HQ_RATE_LIMIT_RPS, HQ_RATE_LIMIT_BURST, HQ_RATE_LIMIT_ENABLED
//   - HQ_MAX_DEPTH, HQ_MAX_HTML_SIZE, HQ_SANITIZE
//   - HQ_FETCH_TIMEOUT, HQ_FETCH_RETRIES, HQ_FETCH_RPS, HQ_USER_AGENT
package config
