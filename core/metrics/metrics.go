// Package metrics defines the sink contract the dispatch pipeline emits
// counters and timers into. Concrete backends live under
// integration/metrics; the Noop recorder is used when none is configured.
package metrics

import (
	"context"
	"time"
)

// Counter and timer names emitted by the buses, keyed by request type.
const (
	CommandProcessed = "command.processed"
	CommandSuccess   = "command.success"
	CommandFailure   = "command.failure"
	CommandRetry     = "command.retry"
	CommandDuration  = "command.duration"

	QueryProcessed = "query.processed"
	QuerySuccess   = "query.success"
	QueryFailure   = "query.failure"
	QueryDuration  = "query.duration"

	CacheHit      = "cache.hit"
	CacheMiss     = "cache.miss"
	CacheEviction = "cache.eviction"
)

// Recorder receives pipeline metrics. Implementations must be safe for
// concurrent use; every bus call may emit from its own goroutine.
type Recorder interface {
	// Inc increments the named counter for the given request type.
	Inc(ctx context.Context, name, requestType string)

	// Observe records a processing duration for the given request type.
	Observe(ctx context.Context, name, requestType string, d time.Duration)
}

// Noop is a Recorder that discards everything.
type Noop struct{}

func (Noop) Inc(ctx context.Context, name, requestType string) {}

func (Noop) Observe(ctx context.Context, name, requestType string, d time.Duration) {}
