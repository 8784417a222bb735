// Package api exposes the HTTP surface: batch job intake, on-demand
// subtitle extraction and transcription, status, stored transcript lookup,
// and Prometheus metrics.
package api
