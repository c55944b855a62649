package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/praxislabs/cqrs"
	namespace           = "cqrs."
)

// Recorder publishes dispatch metrics through an OpenTelemetry meter.
// Instruments are created lazily per metric name and cached, so hot-path
// emission is a map load plus an Add or Record call.
type Recorder struct {
	meter metric.Meter

	mu         sync.RWMutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

// NewRecorder creates a Recorder over the given meter provider.
func NewRecorder(provider metric.MeterProvider) *Recorder {
	return &Recorder{
		meter:      provider.Meter(instrumentationName),
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

// Inc adds one to the named counter, attributed with the request type.
func (r *Recorder) Inc(ctx context.Context, name, requestType string) {
	counter, err := r.counter(name)
	if err != nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("request.type", requestType),
	))
}

// Observe records a duration in milliseconds on the named histogram,
// attributed with the request type.
func (r *Recorder) Observe(ctx context.Context, name, requestType string, d time.Duration) {
	histogram, err := r.histogram(name)
	if err != nil {
		return
	}
	histogram.Record(ctx, float64(d.Milliseconds()), metric.WithAttributes(
		attribute.String("request.type", requestType),
	))
}

func (r *Recorder) counter(name string) (metric.Int64Counter, error) {
	r.mu.RLock()
	counter, ok := r.counters[name]
	r.mu.RUnlock()
	if ok {
		return counter, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if counter, ok = r.counters[name]; ok {
		return counter, nil
	}

	counter, err := r.meter.Int64Counter(
		namespace+name,
		metric.WithDescription("Number of "+name+" events"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		return nil, err
	}

	r.counters[name] = counter
	return counter, nil
}

func (r *Recorder) histogram(name string) (metric.Float64Histogram, error) {
	r.mu.RLock()
	histogram, ok := r.histograms[name]
	r.mu.RUnlock()
	if ok {
		return histogram, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if histogram, ok = r.histograms[name]; ok {
		return histogram, nil
	}

	histogram, err := r.meter.Float64Histogram(
		namespace+name,
		metric.WithDescription("Duration of "+name),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	r.histograms[name] = histogram
	return histogram, nil
}
