// Package http implements the JSON API of the query server.
//
// Endpoints:
//
//	GET  /        service name and version
//	GET  /health  liveness
//	GET  /stats   running totals
//	POST /query   {"html"|"url": ..., "query"|"queries": ...}
package http
