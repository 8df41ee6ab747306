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

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{"nil output", []Option{WithOutput(nil)}, ErrNilOutput},
		{"unknown handler", []Option{WithHandlerType("xml")}, ErrInvalidHandler},
		{"nil custom logger", []Option{WithCustomLogger(nil)}, ErrNilLogger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.opts...)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Panics(t, func() { MustNew(WithOutput(nil)) })
}

func TestLogger_ServiceAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(
		WithOutput(&buf),
		WithServiceName("catalog"),
		WithServiceVersion("1.4.0"),
		WithEnvironment("staging"),
	)
	l.Info("route registered", "pattern", "/users/:id")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "catalog", lines[0]["service"])
	assert.Equal(t, "1.4.0", lines[0]["version"])
	assert.Equal(t, "staging", lines[0]["env"])
	assert.Equal(t, "/users/:id", lines[0]["pattern"])
	assert.Equal(t, "catalog", l.ServiceName())
	assert.Equal(t, "1.4.0", l.ServiceVersion())
	assert.Equal(t, "staging", l.Environment())
}

func TestLogger_Redaction(t *testing.T) {
	t.Parallel()

	for _, ht := range []HandlerType{JSONHandler, TextHandler, ConsoleHandler, CharmHandler} {
		t.Run(string(ht), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			l := MustNew(WithOutput(&buf), WithHandlerType(ht), WithRedactedKeys("session"))
			l.Info("login",
				"password", "hunter2",
				"Authorization", "Bearer abc",
				"session", "s3cr3t",
				"user", "ada",
			)

			out := buf.String()
			assert.NotContains(t, out, "hunter2")
			assert.NotContains(t, out, "Bearer abc")
			assert.NotContains(t, out, "s3cr3t")
			assert.Contains(t, out, redacted)
			assert.Contains(t, out, "ada")
		})
	}
}

func TestLogger_ReplaceAttrRunsAfterRedaction(t *testing.T) {
	t.Parallel()

	var seen []string
	var buf bytes.Buffer
	l := MustNew(WithOutput(&buf), WithReplaceAttr(func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == "token" || a.Key == "drop" {
			seen = append(seen, a.Key)
		}
		if a.Key == "drop" {
			return slog.Attr{}
		}
		return a
	}))
	l.Info("x", "token", "t", "drop", "d")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, redacted, lines[0]["token"])
	assert.NotContains(t, lines[0], "drop")
	assert.Equal(t, []string{"drop"}, seen)
}

func TestLogger_SetLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithOutput(&buf), WithLevel(LevelWarn))
	l.Info("hidden")
	l.Warn("shown")
	require.NoError(t, l.SetLevel(LevelDebug))
	assert.Equal(t, LevelDebug, l.Level())
	l.Debug("now shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "shown", lines[0]["msg"])
	assert.Equal(t, "now shown", lines[1]["msg"])

	custom := MustNew(WithCustomLogger(slog.New(slog.DiscardHandler)))
	require.ErrorIs(t, custom.SetLevel(LevelDebug), ErrCannotChangeLevel)
}

func TestLogger_Shutdown(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithOutput(&buf))
	require.True(t, l.IsEnabled())
	require.NoError(t, l.Shutdown(context.Background()))
	assert.False(t, l.IsEnabled())

	l.Error("dropped")
	assert.Empty(t, buf.String())
}

func TestLogger_TraceCorrelation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithOutput(&buf), WithServiceName("svc"))
	l.Logger().InfoContext(spanContext(t), "with span")
	l.Logger().InfoContext(context.Background(), "without span")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", lines[0][fieldTraceID])
	assert.Equal(t, "0102030405060708", lines[0][fieldSpanID])
	assert.NotContains(t, lines[1], fieldTraceID)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"", LevelInfo},
		{"warning", LevelWarn},
		{" Warn ", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("verbose")
	require.ErrorIs(t, err, ErrInvalidLevel)
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		SpanID:     trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
		TraceFlags: trace.FlagsSampled,
	})
	require.True(t, sc.IsValid())
	return trace.ContextWithSpanContext(context.Background(), sc)
}
