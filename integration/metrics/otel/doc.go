// Package otel exports the engine's dispatch metrics through an
// OpenTelemetry MeterProvider.
//
// The Recorder implements the engine's metrics contract: counters for
// processed/success/failure/retry and cache hit/miss/eviction events, and
// histograms for dispatch durations in milliseconds. Every instrument is
// published under the "cqrs." namespace with the command or query type as
// the request.type attribute.
//
// # Usage Example
//
//	recorder := otel.NewRecorder(meterProvider)
//	commands := command.NewBus(registry, command.WithRecorder(recorder))
//	queries := query.NewBus(queryRegistry, query.WithRecorder(recorder))
package otel
