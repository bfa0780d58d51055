// Package observe defines the OpenTelemetry metric instruments for the
// runtime. The default global meter provider is a no-op, so instruments cost
// nothing unless the embedder installs a real provider.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all runtime metrics.
const meterName = "github.com/voicekey-io/voicekey"

// latencyBuckets covers the dispatch path, which should stay well under a
// second.
var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics holds the runtime's metric instruments. The OTel types are safe
// for concurrent use.
type Metrics struct {
	// DroppedFrames counts capture frames discarded on backpressure.
	DroppedFrames metric.Int64Counter

	// DroppedTranscripts counts finals rejected by the confidence filter.
	DroppedTranscripts metric.Int64Counter

	// WakeTimeouts counts wake windows closed by the watchdog.
	WakeTimeouts metric.Int64Counter

	// InactivityPauses counts auto-pauses from the inactivity timer.
	InactivityPauses metric.Int64Counter

	// RetryAttempts counts resilience retries, attributed by error code.
	RetryAttempts metric.Int64Counter

	// Dispatches counts executed actions, attributed by kind.
	Dispatches metric.Int64Counter

	// DispatchDuration tracks action execution latency.
	DispatchDuration metric.Float64Histogram
}

// NewMetrics creates all instruments from the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.DroppedFrames, err = m.Int64Counter("voicekey.audio.frames.dropped",
		metric.WithDescription("Capture frames discarded because the frame queue was full."),
	); err != nil {
		return nil, err
	}
	if met.DroppedTranscripts, err = m.Int64Counter("voicekey.asr.finals.dropped",
		metric.WithDescription("Final transcripts rejected by the confidence filter."),
	); err != nil {
		return nil, err
	}
	if met.WakeTimeouts, err = m.Int64Counter("voicekey.wake.window.timeouts",
		metric.WithDescription("Wake windows closed after silence."),
	); err != nil {
		return nil, err
	}
	if met.InactivityPauses, err = m.Int64Counter("voicekey.inactivity.pauses",
		metric.WithDescription("Automatic pauses triggered by the inactivity timer."),
	); err != nil {
		return nil, err
	}
	if met.RetryAttempts, err = m.Int64Counter("voicekey.resilience.retries",
		metric.WithDescription("Retry attempts by error code."),
	); err != nil {
		return nil, err
	}
	if met.Dispatches, err = m.Int64Counter("voicekey.dispatch.actions",
		metric.WithDescription("Dispatched actions by kind."),
	); err != nil {
		return nil, err
	}
	if met.DispatchDuration, err = m.Float64Histogram("voicekey.dispatch.duration",
		metric.WithDescription("Action execution latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the package-level Metrics built from the global provider.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic(err)
		}
	})
	return defaultMetrics
}

// CountRetry records one retry attempt for the given error code.
func (m *Metrics) CountRetry(ctx context.Context, code string) {
	m.RetryAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// CountDispatch records one executed action of the given kind.
func (m *Metrics) CountDispatch(ctx context.Context, kind string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.Dispatches.Add(ctx, 1, attrs)
	m.DispatchDuration.Record(ctx, seconds, attrs)
}
