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
	"net/http"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/teleroute/teleroute/router"
)

const attrPrefixHeader = "http.request.header."

// sensitiveHeaders are never recorded on spans.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
}

type pathFilter struct {
	paths    map[string]bool
	prefixes []string
	patterns []*regexp.Regexp
}

func (t *Tracer) exclusions() *pathFilter {
	if t.filter == nil {
		t.filter = &pathFilter{paths: make(map[string]bool)}
	}
	return t.filter
}

func (pf *pathFilter) shouldExclude(path string) bool {
	if pf == nil {
		return false
	}
	if pf.paths[path] {
		return true
	}
	for _, p := range pf.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, re := range pf.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// ShouldExcludePath reports whether requests for path get no span.
func (t *Tracer) ShouldExcludePath(path string) bool {
	return t.filter.shouldExclude(path)
}

// OnRequestStart implements [router.ObservabilityRecorder]. It extracts the
// caller's trace context and starts a server span. The span is named after
// the method until the route is known.
func (t *Tracer) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	if t.tracer == nil || t.filter.shouldExclude(req.URL.Path) {
		return ctx, nil
	}

	ctx = t.propagator.Extract(ctx, propagation.HeaderCarrier(req.Header))
	ctx, span := t.tracer.Start(ctx, req.Method, trace.WithSpanKind(trace.SpanKindServer))
	if !span.IsRecording() {
		return ctx, nil
	}

	attrs := make([]attribute.KeyValue, 0, 5+len(t.recordHeaders))
	attrs = append(attrs,
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.URL.Path),
		attribute.String("server.address", req.Host),
	)
	if ua := req.UserAgent(); ua != "" {
		attrs = append(attrs, attribute.String("user_agent.original", ua))
	}
	if req.URL.RawQuery != "" {
		attrs = append(attrs, attribute.Bool("url.has_query", true))
	}
	for _, h := range t.recordHeaders {
		if v := req.Header.Get(h); v != "" {
			attrs = append(attrs, attribute.String(attrPrefixHeader+h, v))
		}
	}
	span.SetAttributes(attrs...)

	if t.spanStartHook != nil {
		t.spanStartHook(ctx, span, req)
	}
	return ctx, span
}

// OnRequestEnd implements [router.ObservabilityRecorder]. Server errors
// mark the span as failed; client errors are recorded as events only.
func (t *Tracer) OnRequestEnd(_ context.Context, state any, out router.Outcome) {
	span, ok := state.(trace.Span)
	if !ok {
		return
	}

	route := out.Pattern
	if route == "" {
		route = router.PatternNotFound
	}
	span.SetName(out.Method + " " + route)

	attrs := []attribute.KeyValue{
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", out.Status),
		attribute.Int64("http.response.body.size", out.Size),
		attribute.String("teleroute.strategy", string(out.Strategy)),
		attribute.Int("teleroute.steps", out.Steps),
		attribute.Int("teleroute.teleports", out.Teleports),
	}
	if out.Alias != "" {
		attrs = append(attrs, attribute.String("teleroute.alias", out.Alias))
	}
	if out.RequestID != "" {
		attrs = append(attrs, attribute.String("http.request.id", out.RequestID))
	}
	span.SetAttributes(attrs...)

	switch {
	case out.Status >= http.StatusInternalServerError:
		if out.Err != nil {
			span.RecordError(out.Err)
			span.SetStatus(codes.Error, out.Err.Error())
		} else {
			span.SetStatus(codes.Error, http.StatusText(out.Status))
		}
	case out.Err != nil:
		span.AddEvent("dispatch.rejected", trace.WithAttributes(
			attribute.String("error.message", out.Err.Error()),
		))
	}

	if t.spanFinishHook != nil {
		t.spanFinishHook(span, out.Status)
	}
	span.End()
}

var _ router.ObservabilityRecorder = (*Tracer)(nil)
