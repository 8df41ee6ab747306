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
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// initializeProvider sets up providers that need no network connection.
func (t *Tracer) initializeProvider() error {
	if t.customTracerProvider {
		t.emitDebug("Using custom tracer provider")
		t.registerProvider(t.tracerProvider)
		return nil
	}

	switch t.provider {
	case NoopProvider:
		t.useSDKProvider()
		return nil
	case StdoutProvider:
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(t.stdoutWriter), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		t.useSDKProvider(sdktrace.WithBatcher(exporter))
		return nil
	}
	return fmt.Errorf("%w: %s needs Start(ctx)", ErrUnsupportedProvider, t.provider)
}

// initializeProviderWithContext connects OTLP exporters.
func (t *Tracer) initializeProviderWithContext(ctx context.Context) error {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch t.provider {
	case OTLPProvider:
		var opts []otlptracegrpc.Option
		if t.otlpEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(t.otlpEndpoint))
		}
		if t.otlpInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	case OTLPHTTPProvider:
		exporter, err = otlptracehttp.New(ctx, otlpHTTPOptions(t.otlpEndpoint)...)
	default:
		return fmt.Errorf("%w: %s does not connect", ErrUnsupportedProvider, t.provider)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s exporter: %w", t.provider, err)
	}

	t.useSDKProvider(sdktrace.WithBatcher(exporter))
	t.emitInfo("Tracing initialized", "provider", t.provider, "endpoint", t.otlpEndpoint, "service", t.serviceName)
	return nil
}

func otlpHTTPOptions(endpoint string) []otlptracehttp.Option {
	if endpoint == "" {
		return nil
	}
	insecure := false
	if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint, insecure = rest, true
	} else if rest, ok := strings.CutPrefix(endpoint, "https://"); ok {
		endpoint = rest
	}
	if host, _, found := strings.Cut(endpoint, "/"); found {
		endpoint = host
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

func (t *Tracer) useSDKProvider(opts ...sdktrace.TracerProviderOption) {
	opts = append(opts,
		sdktrace.WithResource(createResource(t.serviceName, t.serviceVersion)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate))),
	)
	tp := sdktrace.NewTracerProvider(opts...)
	t.sdkProvider = tp
	t.registerProvider(tp)
}

func createResource(serviceName, serviceVersion string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
}
