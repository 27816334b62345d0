// Package tracing is a thin wrapper around OpenTelemetry so the engine can
// emit run/layer/task spans through a stable helper API (StartSpan, EndSpan)
// without importing the upstream packages everywhere. Uninitialised tracing
// yields no-op spans.
package tracing
