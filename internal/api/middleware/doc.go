// Package middleware holds the gin middleware of the query API: request
// IDs, access logging, CORS and per-IP rate limiting.
package middleware
