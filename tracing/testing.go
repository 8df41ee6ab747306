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
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestingTracer creates a noop-provider [Tracer] that is shut down on test
// cleanup.
func TestingTracer(tb testing.TB, opts ...Option) *Tracer {
	tb.Helper()

	t, err := New(append([]Option{WithServiceName("test-service"), WithNoop()}, opts...)...)
	if err != nil {
		tb.Fatalf("TestingTracer: failed to create tracer: %v", err)
	}
	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.Shutdown(ctx)
	})
	return t
}

// TestingTracerWithRecorder creates a [Tracer] whose spans are captured by
// the returned [tracetest.SpanRecorder].
func TestingTracerWithRecorder(tb testing.TB, opts ...Option) (*Tracer, *tracetest.SpanRecorder) {
	tb.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tb.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	t, err := New(append([]Option{WithServiceName("test-service"), WithTracerProvider(tp)}, opts...)...)
	if err != nil {
		tb.Fatalf("TestingTracerWithRecorder: failed to create tracer: %v", err)
	}
	return t, sr
}
