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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a [Tracer].
type Option func(*Tracer)

// SpanStartHook runs after a dispatch span started, before matching.
type SpanStartHook func(ctx context.Context, span trace.Span, req *http.Request)

// SpanFinishHook runs before a dispatch span ends.
type SpanFinishHook func(span trace.Span, statusCode int)

// WithTracerProvider uses a caller-managed [trace.TracerProvider]. Provider
// options are ignored and [Tracer.Shutdown] leaves it running.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(t *Tracer) {
		t.tracerProvider = provider
		t.customTracerProvider = true
	}
}

// WithGlobalTracerProvider registers the provider with otel.SetTracerProvider.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) { t.registerGlobal = true }
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(t *Tracer) { t.serviceName = name }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) { t.serviceVersion = version }
}

// WithSampleRate sets the head sampling ratio, clamped to [0, 1]. Sampled
// parents are always honoured.
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) { t.sampleRate = min(max(rate, 0), 1) }
}

// WithCustomPropagator replaces the default W3C trace context and baggage
// propagator.
func WithCustomPropagator(propagator propagation.TextMapPropagator) Option {
	return func(t *Tracer) { t.propagator = propagator }
}

// WithEventHandler sets the handler for internal operational events.
func WithEventHandler(handler EventHandler) Option {
	return func(t *Tracer) { t.eventHandler = handler }
}

// WithLogger logs internal operational events to logger.
func WithLogger(logger *slog.Logger) Option {
	return WithEventHandler(DefaultEventHandler(logger))
}

// WithSpanStartHook sets a hook run when a dispatch span starts.
func WithSpanStartHook(hook SpanStartHook) Option {
	return func(t *Tracer) { t.spanStartHook = hook }
}

// WithSpanFinishHook sets a hook run before a dispatch span ends.
func WithSpanFinishHook(hook SpanFinishHook) Option {
	return func(t *Tracer) { t.spanFinishHook = hook }
}

// WithHeaders records the named request headers as span attributes
// (http.request.header.<name>). Credentials are never recorded.
func WithHeaders(headers ...string) Option {
	return func(t *Tracer) {
		for _, h := range headers {
			h = strings.ToLower(h)
			if sensitiveHeaders[h] {
				continue
			}
			t.recordHeaders = append(t.recordHeaders, h)
		}
	}
}

// WithExcludePaths skips spans for exact request paths.
func WithExcludePaths(paths ...string) Option {
	return func(t *Tracer) {
		pf := t.exclusions()
		for _, p := range paths {
			pf.paths[p] = true
		}
	}
}

// WithExcludePrefixes skips spans for paths with the given prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(t *Tracer) {
		pf := t.exclusions()
		pf.prefixes = append(pf.prefixes, prefixes...)
	}
}

// WithExcludePatterns skips spans for paths matching the regular
// expressions. An invalid expression makes [New] fail.
func WithExcludePatterns(patterns ...string) Option {
	return func(t *Tracer) {
		pf := t.exclusions()
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				t.optionErrors = append(t.optionErrors, fmt.Errorf("invalid exclude pattern %q: %w", p, err))
				continue
			}
			pf.patterns = append(pf.patterns, re)
		}
	}
}

// OTLPOption configures the OTLP gRPC exporter.
type OTLPOption func(*Tracer)

// OTLPInsecure disables TLS for the OTLP gRPC exporter.
func OTLPInsecure() OTLPOption {
	return func(t *Tracer) { t.otlpInsecure = true }
}

// WithOTLP selects the OTLP gRPC provider.
//
//	tracing.WithOTLP("localhost:4317", tracing.OTLPInsecure())
func WithOTLP(endpoint string, opts ...OTLPOption) Option {
	return func(t *Tracer) {
		t.provider = OTLPProvider
		t.providerSetCount++
		t.otlpEndpoint = endpoint
		for _, opt := range opts {
			opt(t)
		}
	}
}

// WithOTLPHTTP selects the OTLP HTTP provider. An http:// endpoint
// disables TLS.
func WithOTLPHTTP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPHTTPProvider
		t.providerSetCount++
		t.otlpEndpoint = endpoint
	}
}

// WithStdout selects the stdout provider.
func WithStdout() Option {
	return func(t *Tracer) {
		t.provider = StdoutProvider
		t.providerSetCount++
	}
}

// WithStdoutWriter redirects the stdout provider's output to w.
func WithStdoutWriter(w io.Writer) Option {
	return func(t *Tracer) { t.stdoutWriter = w }
}

// WithNoop selects the noop provider.
func WithNoop() Option {
	return func(t *Tracer) {
		t.provider = NoopProvider
		t.providerSetCount++
	}
}
