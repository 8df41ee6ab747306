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
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	trerrors "github.com/teleroute/teleroute/errors"
	"github.com/teleroute/teleroute/router"
)

func attrMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func tracedRouter(t *testing.T, tr *Tracer) *router.Router {
	t.Helper()

	r := router.MustNew(router.WithObservability(tr))
	require.NoError(t, r.Interceptor("deny", func(*router.Context) error {
		return trerrors.WithStatus(errors.New("no entry"), http.StatusUnauthorized)
	}))
	require.NoError(t, r.GET("/health", func(c *router.Context) { c.NoContent(http.StatusNoContent) }))
	require.NoError(t, r.GET("/orgs/:org/repos/:repo/issues", func(c *router.Context) {
		SetSpanAttributeFromContext(c.Request.Context(), "org", c.Param("org"))
		AddSpanEventFromContext(c.Request.Context(), "issues.listed", attribute.Int("count", 3))
		_ = c.String(http.StatusOK, "%s", TraceID(c.Request.Context()))
	}, router.WithAlias("issues.index")))
	require.NoError(t, r.GET("/private", func(*router.Context) {}, router.WithInterceptors("deny")))
	require.NoError(t, r.GET("/boom", func(*router.Context) { panic("kaboom") }))
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTracer_DispatchSpan(t *testing.T) {
	t.Parallel()

	tr, sr := TestingTracerWithRecorder(t, WithHeaders("X-Tenant", "Authorization"))
	r := tracedRouter(t, tr)

	req := httptest.NewRequest(http.MethodGet, "/orgs/acme/repos/api/issues?state=open", nil)
	req.Header.Set("X-Tenant", "blue")
	req.Header.Set("Authorization", "Bearer secret")
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "GET /orgs/:org/repos/:repo/issues", span.Name())
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())
	assert.Equal(t, span.SpanContext().TraceID().String(), w.Body.String())

	attrs := attrMap(span)
	assert.Equal(t, "/orgs/:org/repos/:repo/issues", attrs["http.route"].AsString())
	assert.Equal(t, int64(200), attrs["http.response.status_code"].AsInt64())
	assert.Equal(t, "issues.index", attrs["teleroute.alias"].AsString())
	assert.Contains(t, []string{"walk", "teleport"}, attrs["teleroute.strategy"].AsString())
	assert.Equal(t, "acme", attrs["org"].AsString())
	assert.Equal(t, "blue", attrs[attrPrefixHeader+"x-tenant"].AsString())
	assert.True(t, attrs["url.has_query"].AsBool())
	assert.NotEmpty(t, attrs["http.request.id"].AsString())
	assert.NotContains(t, attrs, attribute.Key(attrPrefixHeader+"authorization"))

	require.Len(t, span.Events(), 1)
	assert.Equal(t, "issues.listed", span.Events()[0].Name)
}

func TestTracer_StaticAndErrorSpans(t *testing.T) {
	t.Parallel()

	tr, sr := TestingTracerWithRecorder(t)
	r := tracedRouter(t, tr)

	serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/private", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	spans := sr.Ended()
	require.Len(t, spans, 4)

	health := attrMap(spans[0])
	assert.Equal(t, "static", health["teleroute.strategy"].AsString())
	assert.Equal(t, int64(0), health["teleroute.teleports"].AsInt64())

	assert.Equal(t, "GET "+router.PatternNotFound, spans[1].Name())
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "dispatch.rejected", spans[1].Events()[0].Name)

	assert.Equal(t, int64(401), attrMap(spans[2])["http.response.status_code"].AsInt64())
	assert.Equal(t, codes.Unset, spans[2].Status().Code)

	assert.Equal(t, codes.Error, spans[3].Status().Code)
	assert.Contains(t, spans[3].Status().Description, "kaboom")
}

func TestTracer_JoinsIncomingTrace(t *testing.T) {
	t.Parallel()

	tr, sr := TestingTracerWithRecorder(t)
	r := tracedRouter(t, tr)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("traceparent", "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	serve(r, req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "b7ad6b7169203331", spans[0].Parent().SpanID().String())
	assert.True(t, spans[0].Parent().IsRemote())
}

func TestTracer_ExclusionsAndHooks(t *testing.T) {
	t.Parallel()

	var started, finished int
	tr, sr := TestingTracerWithRecorder(t,
		WithExcludePaths("/health"),
		WithExcludePrefixes("/orgs/internal/"),
		WithExcludePatterns(`^/boom$`),
		WithSpanStartHook(func(context.Context, trace.Span, *http.Request) { started++ }),
		WithSpanFinishHook(func(_ trace.Span, status int) {
			finished++
			assert.Equal(t, http.StatusOK, status)
		}),
	)
	r := tracedRouter(t, tr)

	serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/orgs/internal/repos/x/issues", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/orgs/acme/repos/x/issues", nil))

	assert.Len(t, sr.Ended(), 1)
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, finished)
	assert.True(t, tr.ShouldExcludePath("/health"))
}

func TestTracer_SampleRateZero(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := MustNew(WithStdout(), WithStdoutWriter(&buf), WithSampleRate(-3))
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })

	serve(tracedRouter(t, tr), httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, tr.Shutdown(context.Background()))
	assert.Empty(t, buf.String())
}

func TestTracer_StdoutProvider(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := MustNew(WithStdout(), WithStdoutWriter(&buf), WithServiceName("catalog"), WithSampleRate(1))
	assert.Equal(t, StdoutProvider, tr.Provider())

	serve(tracedRouter(t, tr), httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, tr.Shutdown(context.Background()))
	require.NoError(t, tr.Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "GET /health")
	assert.Contains(t, out, "catalog")
}

func TestTracer_OTLPDeferredUntilStart(t *testing.T) {
	t.Parallel()

	tr := MustNew(WithOTLPHTTP("http://127.0.0.1:4318"))
	assert.Equal(t, OTLPHTTPProvider, tr.Provider())

	// Before Start, dispatch runs without spans.
	_, state := tr.OnRequestStart(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, state)
	assert.NotNil(t, tr.Tracer())

	require.NoError(t, tr.Start(context.Background()))
	require.NoError(t, tr.Start(context.Background()))

	ctx, span := tr.StartSpan(context.Background(), "resolve")
	assert.NotEmpty(t, TraceID(ctx))
	assert.NotEmpty(t, SpanID(ctx))
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = tr.Shutdown(ctx)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
		is   error
	}{
		{"conflicting", []Option{WithStdout(), WithNoop()}, ErrConflictingProviders},
		{"unknown provider", []Option{func(t *Tracer) { t.provider = "zipkin" }}, ErrUnsupportedProvider},
		{"empty name", []Option{WithServiceName("")}, nil},
		{"empty version", []Option{WithServiceVersion("")}, nil},
		{"nil provider", []Option{WithTracerProvider(nil)}, nil},
		{"bad pattern", []Option{WithExcludePatterns("[")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.opts...)
			require.Error(t, err)
			if tt.is != nil {
				require.ErrorIs(t, err, tt.is)
			}
		})
	}
	assert.Panics(t, func() { MustNew(WithServiceName("")) })
}

func TestHelpers_NoSpan(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, TraceID(ctx))
	assert.Empty(t, SpanID(ctx))
	SetSpanAttributeFromContext(ctx, "k", 1)
	AddSpanEventFromContext(ctx, "e")

	tr := TestingTracer(t)
	assert.Equal(t, NoopProvider, tr.Provider())
	assert.Equal(t, "test-service", tr.ServiceName())
	assert.NotNil(t, tr.Propagator())
}

func TestBuildAttribute(t *testing.T) {
	t.Parallel()

	assert.Equal(t, attribute.STRING, buildAttribute("k", "v").Value.Type())
	assert.Equal(t, attribute.INT64, buildAttribute("k", 3).Value.Type())
	assert.Equal(t, attribute.INT64, buildAttribute("k", int64(3)).Value.Type())
	assert.Equal(t, attribute.FLOAT64, buildAttribute("k", 1.5).Value.Type())
	assert.Equal(t, attribute.BOOL, buildAttribute("k", true).Value.Type())
	assert.Equal(t, attribute.STRINGSLICE, buildAttribute("k", []string{"a"}).Value.Type())
	assert.Equal(t, "[1 2]", buildAttribute("k", []int{1, 2}).Value.AsString())
}
