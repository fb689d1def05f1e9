package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/melissa-hq/flagengine/internal/domain"
)

const (
	meterName  = "flagengine"
	tracerName = "flagengine"
)

// Provider records evaluation telemetry through OpenTelemetry. The
// engine only reports usage for flags that opt in via TrackUsage and
// durations for flags that opt in via TrackPerformance.
type Provider struct {
	tracer trace.Tracer
	meter  metric.Meter

	evaluations  metric.Int64Counter
	evalDuration metric.Float64Histogram
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
	unknownFlags metric.Int64Counter
	flagCount    metric.Int64ObservableGauge
}

// New creates a new telemetry provider. flagCount, when non-nil, is
// observed as a gauge of the store size.
func New(flagCount func() int64) (*Provider, error) {
	p := &Provider{
		tracer: otel.Tracer(tracerName),
		meter:  otel.Meter(meterName),
	}

	if err := p.initMetrics(flagCount); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Provider) initMetrics(flagCount func() int64) error {
	var err error

	p.evaluations, err = p.meter.Int64Counter(
		"flagengine.evaluations",
		metric.WithDescription("Number of flag evaluations"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return err
	}

	p.evalDuration, err = p.meter.Float64Histogram(
		"flagengine.evaluation.duration",
		metric.WithDescription("Duration of flag evaluations"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.cacheHits, err = p.meter.Int64Counter(
		"flagengine.cache.hits",
		metric.WithDescription("Number of result cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	p.cacheMisses, err = p.meter.Int64Counter(
		"flagengine.cache.misses",
		metric.WithDescription("Number of result cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	p.unknownFlags, err = p.meter.Int64Counter(
		"flagengine.evaluations.unknown_flag",
		metric.WithDescription("Number of evaluations against unknown flag IDs"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return err
	}

	if flagCount != nil {
		p.flagCount, err = p.meter.Int64ObservableGauge(
			"flagengine.flags",
			metric.WithDescription("Number of registered flags"),
			metric.WithUnit("{flag}"),
			metric.WithInt64Callback(func(ctx context.Context, observer metric.Int64Observer) error {
				observer.Observe(flagCount())
				return nil
			}),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// StartEvaluation opens a span around one evaluation call.
func (p *Provider) StartEvaluation(ctx context.Context, flagID string) (context.Context, trace.Span) {
	if p == nil {
		return ctx, noopSpan(ctx)
	}
	return p.tracer.Start(ctx, "flagengine.evaluate",
		trace.WithAttributes(attribute.String("flag.id", flagID)),
	)
}

// RecordEvaluation counts one evaluation outcome.
func (p *Provider) RecordEvaluation(ctx context.Context, flagID string, reason domain.Reason, enabled bool) {
	if p == nil {
		return
	}
	p.evaluations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flag.id", flagID),
		attribute.String("reason", string(reason)),
		attribute.Bool("enabled", enabled),
	))
}

// RecordDuration records the wall-clock duration of one evaluation.
func (p *Provider) RecordDuration(ctx context.Context, flagID string, d time.Duration) {
	if p == nil {
		return
	}
	p.evalDuration.Record(ctx, float64(d.Microseconds())/1000.0, metric.WithAttributes(
		attribute.String("flag.id", flagID),
	))
}

// RecordCacheHit counts one result cache hit.
func (p *Provider) RecordCacheHit(ctx context.Context, flagID string) {
	if p == nil {
		return
	}
	p.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("flag.id", flagID)))
}

// RecordCacheMiss counts one result cache miss.
func (p *Provider) RecordCacheMiss(ctx context.Context, flagID string) {
	if p == nil {
		return
	}
	p.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("flag.id", flagID)))
}

// RecordUnknownFlag counts an evaluation against a flag ID that is not
// registered. Unknown flags degrade to disabled, they are not errors,
// but a spike here usually means a caller outlived a removed flag.
func (p *Provider) RecordUnknownFlag(ctx context.Context, flagID string) {
	if p == nil {
		return
	}
	p.unknownFlags.Add(ctx, 1, metric.WithAttributes(attribute.String("flag.id", flagID)))
}

func noopSpan(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}
