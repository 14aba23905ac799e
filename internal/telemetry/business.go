package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const businessTracerName = ServiceName + "/business"

// BusinessTracer opens spans around recommendation engine operations.
// It resolves the global tracer provider lazily, so it is safe to create before Init.
type BusinessTracer struct{}

// NewBusinessTracer creates a new instance of BusinessTracer.
func NewBusinessTracer() *BusinessTracer {
	return &BusinessTracer{}
}

func (bt *BusinessTracer) tracer() trace.Tracer {
	return otel.Tracer(businessTracerName)
}

// SnapshotMetrics describes a freshly loaded snapshot
type SnapshotMetrics struct {
	Connections int
	RoutePairs  int
	Airports    int
	QuotePairs  int
}

// RecommendationMetrics describes the outcome of one ranking run
type RecommendationMetrics struct {
	Evaluated int
	Returned  int
	TopScore  float64
}

// TraceSnapshotRefresh starts a span for a table reload
func (bt *BusinessTracer) TraceSnapshotRefresh(ctx context.Context) (context.Context, trace.Span) {
	return bt.tracer().Start(ctx, "snapshot_refresh")
}

// RecordSnapshot adds snapshot sizes to span
func (bt *BusinessTracer) RecordSnapshot(span trace.Span, metrics SnapshotMetrics) {
	span.SetAttributes(
		attribute.Int("snapshot.connections", metrics.Connections),
		attribute.Int("snapshot.route_pairs", metrics.RoutePairs),
		attribute.Int("snapshot.airports", metrics.Airports),
		attribute.Int("snapshot.quote_pairs", metrics.QuotePairs),
	)
}

// TraceRecommendation starts a span for ranking destinations from origin
func (bt *BusinessTracer) TraceRecommendation(ctx context.Context, origin, currency string, fresh bool) (context.Context, trace.Span) {
	return bt.tracer().Start(ctx, "recommendation", trace.WithAttributes(
		attribute.String("recommend.origin", origin),
		attribute.String("recommend.currency", currency),
		attribute.Bool("recommend.fresh", fresh),
	))
}

// RecordRecommendation adds ranking results to span
func (bt *BusinessTracer) RecordRecommendation(span trace.Span, metrics RecommendationMetrics) {
	span.SetAttributes(
		attribute.Int("recommend.evaluated", metrics.Evaluated),
		attribute.Int("recommend.returned", metrics.Returned),
		attribute.Float64("recommend.top_score", metrics.TopScore),
	)
}

// TraceRouteResolution starts a span for an itinerary lookup
func (bt *BusinessTracer) TraceRouteResolution(ctx context.Context, from, to string) (context.Context, trace.Span) {
	return bt.tracer().Start(ctx, "route_resolution", trace.WithAttributes(
		attribute.String("route.from", from),
		attribute.String("route.to", to),
	))
}

// RecordRouteResult adds itinerary counts per tier to span
func (bt *BusinessTracer) RecordRouteResult(span trace.Span, direct, oneStop, twoStop int) {
	span.SetAttributes(
		attribute.Int("route.direct", direct),
		attribute.Int("route.one_stop", oneStop),
		attribute.Int("route.two_stop", twoStop),
	)
}

// TraceRateResolution starts a span for a base->quote rate lookup
func (bt *BusinessTracer) TraceRateResolution(ctx context.Context, base, quote string, fresh bool) (context.Context, trace.Span) {
	return bt.tracer().Start(ctx, "rate_resolution", trace.WithAttributes(
		attribute.String("rate.base", base),
		attribute.String("rate.quote", quote),
		attribute.Bool("rate.fresh", fresh),
	))
}

// RecordRate adds the resolved rate and how it was found to span
func (bt *BusinessTracer) RecordRate(span trace.Span, rate float64, method string) {
	span.SetAttributes(
		attribute.Float64("rate.value", rate),
		attribute.String("rate.method", method),
	)
}

// TraceTrendEstimation starts a span for a trailing-window trend
func (bt *BusinessTracer) TraceTrendEstimation(ctx context.Context, base, quote string, window int) (context.Context, trace.Span) {
	return bt.tracer().Start(ctx, "trend_estimation", trace.WithAttributes(
		attribute.String("trend.base", base),
		attribute.String("trend.quote", quote),
		attribute.Int("trend.window", window),
	))
}

// RecordTrend adds the estimated change to span
func (bt *BusinessTracer) RecordTrend(span trace.Span, percent float64, method string) {
	span.SetAttributes(
		attribute.Float64("trend.percent", percent),
		attribute.String("trend.method", method),
	)
}

// End records err on span, if any, and ends it
func (bt *BusinessTracer) End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
