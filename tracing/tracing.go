// Copyright 2026 The Teleroute Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/teleroute/teleroute/tracing"

// EventType represents the severity of an internal operational event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event is an internal operational event, such as an exporter failing.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler processes internal operational events.
type EventHandler func(Event)

// DefaultEventHandler returns an EventHandler that logs to logger. A nil
// logger discards events.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {}
	}
	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

// Provider represents the available tracing providers.
type Provider string

const (
	// NoopProvider creates spans without exporting them (default).
	NoopProvider Provider = "noop"
	// StdoutProvider prints spans to stdout.
	StdoutProvider Provider = "stdout"
	// OTLPProvider exports over OTLP gRPC.
	OTLPProvider Provider = "otlp"
	// OTLPHTTPProvider exports over OTLP HTTP.
	OTLPHTTPProvider Provider = "otlp-http"
)

var (
	// ErrConflictingProviders is returned when more than one provider option is given.
	ErrConflictingProviders = errors.New("conflicting tracing providers")

	// ErrUnsupportedProvider is returned for an unknown [Provider].
	ErrUnsupportedProvider = errors.New("unsupported tracing provider")
)

// Tracer owns a tracer provider and creates dispatch spans.
// All methods are safe for concurrent use once [Tracer.Start] returned.
type Tracer struct {
	tracer         trace.Tracer
	tracerProvider trace.TracerProvider
	sdkProvider    *sdktrace.TracerProvider
	propagator     propagation.TextMapPropagator
	eventHandler   EventHandler

	serviceName    string
	serviceVersion string
	sampleRate     float64

	provider         Provider
	providerSetCount int
	otlpEndpoint     string
	otlpInsecure     bool
	stdoutWriter     io.Writer

	filter         *pathFilter
	recordHeaders  []string
	spanStartHook  SpanStartHook
	spanFinishHook SpanFinishHook
	optionErrors   []error

	customTracerProvider bool
	registerGlobal       bool
	started              atomic.Bool
	shutdown             atomic.Bool
}

// New creates a [Tracer]. Noop and stdout providers are ready immediately;
// OTLP providers are connected by [Tracer.Start].
func New(opts ...Option) (*Tracer, error) {
	t := &Tracer{
		serviceName:    "teleroute",
		serviceVersion: "dev",
		sampleRate:     1.0,
		provider:       NoopProvider,
		stdoutWriter:   os.Stdout,
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{},
		),
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid tracing configuration: %w", err)
	}
	if t.needsContext() {
		return t, nil
	}
	if err := t.initializeProvider(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("tracing initialization failed: %v", err))
	}
	return t
}

func (t *Tracer) validate() error {
	if len(t.optionErrors) > 0 {
		return errors.Join(t.optionErrors...)
	}
	if t.providerSetCount > 1 {
		return fmt.Errorf("%w: only one of WithNoop, WithStdout, WithOTLP or WithOTLPHTTP can be used", ErrConflictingProviders)
	}
	if t.serviceName == "" {
		return errors.New("service name cannot be empty")
	}
	if t.serviceVersion == "" {
		return errors.New("service version cannot be empty")
	}
	switch t.provider {
	case NoopProvider, StdoutProvider, OTLPProvider, OTLPHTTPProvider:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedProvider, t.provider)
	}
	if t.customTracerProvider && t.tracerProvider == nil {
		return errors.New("custom tracer provider is nil")
	}
	return nil
}

func (t *Tracer) needsContext() bool {
	return !t.customTracerProvider && (t.provider == OTLPProvider || t.provider == OTLPHTTPProvider)
}

// Start connects OTLP exporters. It is a no-op for other providers and
// idempotent.
func (t *Tracer) Start(ctx context.Context) error {
	if !t.started.CompareAndSwap(false, true) {
		return nil
	}
	if t.tracer != nil {
		return nil
	}
	if err := t.initializeProviderWithContext(ctx); err != nil {
		t.started.Store(false)
		return err
	}
	return nil
}

// Shutdown flushes and stops the tracer provider unless it was supplied by
// the caller. It is idempotent.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if !t.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	if t.sdkProvider == nil || t.customTracerProvider {
		return nil
	}
	if err := t.sdkProvider.ForceFlush(ctx); err != nil {
		t.emitWarning("trace flush warning", "error", err)
	}
	if err := t.sdkProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracer provider shutdown: %w", err)
	}
	return nil
}

// Tracer returns the OpenTelemetry tracer, or a no-op tracer before an OTLP
// provider was started.
func (t *Tracer) Tracer() trace.Tracer {
	if t.tracer == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return t.tracer
}

// Propagator returns the propagator used to extract and inject trace context.
func (t *Tracer) Propagator() propagation.TextMapPropagator { return t.propagator }

// Provider returns the configured provider.
func (t *Tracer) Provider() Provider { return t.provider }

// ServiceName returns the service name.
func (t *Tracer) ServiceName() string { return t.serviceName }

// ServiceVersion returns the service version.
func (t *Tracer) ServiceVersion() string { return t.serviceVersion }

// StartSpan starts an internal span, for work inside a handler.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.Tracer().Start(ctx, name, opts...)
}

// TraceID returns the trace id of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// SpanID returns the span id of the span in ctx, or "".
func SpanID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasSpanID() {
		return sc.SpanID().String()
	}
	return ""
}

// SetSpanAttributeFromContext sets an attribute on the span in ctx.
func SetSpanAttributeFromContext(ctx context.Context, key string, value any) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(buildAttribute(key, value))
	}
}

// AddSpanEventFromContext adds an event to the span in ctx.
func AddSpanEventFromContext(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

func buildAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	}
	return attribute.String(key, fmt.Sprint(value))
}

func (t *Tracer) registerProvider(tp trace.TracerProvider) {
	t.tracerProvider = tp
	t.tracer = tp.Tracer(instrumentationName)
	if t.registerGlobal {
		t.emitDebug("Setting global OpenTelemetry tracer provider", "provider", t.provider)
		otel.SetTracerProvider(tp)
	}
}

func (t *Tracer) emit(et EventType, msg string, args ...any) {
	if t.eventHandler != nil {
		t.eventHandler(Event{Type: et, Message: msg, Args: args})
	}
}

func (t *Tracer) emitWarning(msg string, args ...any) { t.emit(EventWarning, msg, args...) }
func (t *Tracer) emitInfo(msg string, args ...any)    { t.emit(EventInfo, msg, args...) }
func (t *Tracer) emitDebug(msg string, args ...any)   { t.emit(EventDebug, msg, args...) }
