// Package middleware provides HTTP middleware for the image browser application.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Response compression (gzip) for JSON responses; image routes bypass it
//   - Prometheus request metrics with cardinality-safe path labels
//   - Configurable filtering for health checks and thumbnail fetches
package middleware
