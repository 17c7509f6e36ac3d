// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Package strictotel provides OpenTelemetry instrumentation for strictpack
// registries. It implements the [strictpack.CodecHook] interface to add
// tracing and metrics to codec compilation, encoding and decoding.
//
// Usage:
//
//	reg := strictpack.NewRegistry()
//	strictotel.InstrumentRegistry(reg, strictotel.DefaultConfig())
package strictotel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Query-farm/strictpack/strictpack"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "strictpack"

// OtelConfig configures OpenTelemetry instrumentation for a registry.
type OtelConfig struct {
	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider
	// EnableTracing enables span creation. Default true.
	EnableTracing bool
	// EnableMetrics enables counter and histogram recording. Default true.
	EnableMetrics bool
	// RecordExceptions calls RecordError on the span for failed calls.
	// Default true.
	RecordExceptions bool
	// TraceCompileOnly limits spans to codec compilation. Encode and decode
	// still record metrics.
	TraceCompileOnly bool
	// CustomAttributes are added to every span.
	CustomAttributes []attribute.KeyValue
}

// DefaultConfig returns an OtelConfig with sensible defaults.
// TracerProvider and MeterProvider are resolved from the global OTel SDK
// at instrumentation time.
func DefaultConfig() OtelConfig {
	return OtelConfig{
		EnableTracing:    true,
		EnableMetrics:    true,
		RecordExceptions: true,
	}
}

// InstrumentRegistry attaches OpenTelemetry instrumentation to reg via
// [strictpack.Registry.SetCodecHook].
func InstrumentRegistry(reg *strictpack.Registry, cfg OtelConfig) {
	reg.SetCodecHook(NewHook(cfg))
}

// NewHook returns a CodecHook recording spans and metrics per cfg.
func NewHook(cfg OtelConfig) strictpack.CodecHook {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}

	hook := &otelHook{
		cfg:    cfg,
		tracer: cfg.TracerProvider.Tracer(instrumentationName),
	}

	if cfg.EnableMetrics {
		meter := cfg.MeterProvider.Meter(instrumentationName)
		hook.callCounter, _ = meter.Int64Counter("strictpack.codec.calls",
			metric.WithUnit("{call}"),
			metric.WithDescription("Number of codec compile, encode and decode calls"),
		)
		hook.durationHistogram, _ = meter.Float64Histogram("strictpack.codec.duration",
			metric.WithUnit("s"),
			metric.WithDescription("Duration of codec calls"),
		)
		hook.bytesCounter, _ = meter.Int64Counter("strictpack.codec.bytes",
			metric.WithUnit("By"),
			metric.WithDescription("Bytes written by encodes and consumed by decodes"),
		)
	}
	return hook
}

// otelHook implements strictpack.CodecHook with OpenTelemetry tracing and metrics.
type otelHook struct {
	cfg               OtelConfig
	tracer            trace.Tracer
	callCounter       metric.Int64Counter
	durationHistogram metric.Float64Histogram
	bytesCounter      metric.Int64Counter
}

// spanToken is the HookToken returned by OnCodecStart.
type spanToken struct {
	span      trace.Span
	startTime time.Time
}

// OnCodecStart starts an internal span for the call.
func (h *otelHook) OnCodecStart(ctx context.Context, info strictpack.CodecInfo) (context.Context, strictpack.HookToken) {
	if !h.cfg.EnableTracing || (h.cfg.TraceCompileOnly && info.Operation != strictpack.CodecOpCompile) {
		return ctx, &spanToken{startTime: time.Now()}
	}

	attrs := []attribute.KeyValue{
		attribute.String("strictpack.operation", info.Operation),
		attribute.String("strictpack.type", info.Type),
		attribute.String("strictpack.variant", info.Variant),
	}
	attrs = append(attrs, h.cfg.CustomAttributes...)

	ctx, span := h.tracer.Start(ctx, fmt.Sprintf("strictpack/%s", info.Operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx, &spanToken{span: span, startTime: time.Now()}
}

// OnCodecEnd records metrics and span status, and ends the span.
func (h *otelHook) OnCodecEnd(ctx context.Context, token strictpack.HookToken, info strictpack.CodecInfo, stats *strictpack.CodecStatistics, err error) {
	st, ok := token.(*spanToken)
	if !ok {
		return
	}
	duration := time.Since(st.startTime)

	status := "ok"
	if err != nil {
		status = "error"
	}

	if h.cfg.EnableMetrics {
		metricAttrs := metric.WithAttributes(
			attribute.String("strictpack.operation", info.Operation),
			attribute.String("strictpack.type", info.Type),
			attribute.String("status", status),
		)
		if h.callCounter != nil {
			h.callCounter.Add(ctx, 1, metricAttrs)
		}
		if h.durationHistogram != nil {
			h.durationHistogram.Record(ctx, duration.Seconds(), metricAttrs)
		}
		if h.bytesCounter != nil && stats != nil && stats.Bytes > 0 {
			h.bytesCounter.Add(ctx, stats.Bytes, metricAttrs)
		}
	}

	if st.span == nil || !st.span.IsRecording() {
		return
	}
	if stats != nil {
		st.span.SetAttributes(
			attribute.Int64("strictpack.bytes", stats.Bytes),
			attribute.Int64("strictpack.types_compiled", stats.Types),
		)
	}
	if err != nil {
		st.span.SetStatus(codes.Error, err.Error())
		if h.cfg.RecordExceptions {
			st.span.RecordError(err)
		}
		errType := fmt.Sprintf("%T", err)
		var se *strictpack.Error
		if errors.As(err, &se) {
			errType = se.Kind.String()
		}
		st.span.SetAttributes(attribute.String("strictpack.error_kind", errType))
	} else {
		st.span.SetStatus(codes.Ok, "")
	}
	st.span.End()
}
