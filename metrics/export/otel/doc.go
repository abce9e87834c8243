// Package otel bridges the client's in-process metrics into an
// OpenTelemetry meter via observable instruments. Collection pulls a fresh
// snapshot on every reader cycle; the exporter itself holds no counters.
package otel
