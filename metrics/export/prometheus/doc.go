// Package prometheus exposes the client's in-process metrics in Prometheus
// text exposition format, either rendered directly or served over HTTP.
// It renders from snapshots and holds no state of its own.
package prometheus
