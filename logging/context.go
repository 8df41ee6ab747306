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
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	fieldTraceID = "trace_id"
	fieldSpanID  = "span_id"
)

// ContextLogger binds a logger to a context. When the context carries a
// valid OpenTelemetry span, its trace and span ids are available through
// [ContextLogger.TraceID] and [ContextLogger.SpanID] and are added to every
// record.
//
// A ContextLogger is typically created per request and used by a single
// goroutine.
type ContextLogger struct {
	logger  *slog.Logger
	ctx     context.Context
	traceID string
	spanID  string
}

// NewContextLogger creates a context-aware logger from logger.
func NewContextLogger(ctx context.Context, logger *Logger) *ContextLogger {
	return FromSlog(ctx, logger.Logger())
}

// FromSlog creates a context-aware logger from a plain [slog.Logger], such
// as the one returned by router.Context.Logger.
func FromSlog(ctx context.Context, logger *slog.Logger) *ContextLogger {
	cl := &ContextLogger{logger: logger, ctx: ctx}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		cl.traceID = sc.TraceID().String()
		cl.spanID = sc.SpanID().String()
	}
	return cl
}

// Logger returns the underlying [slog.Logger].
func (cl *ContextLogger) Logger() *slog.Logger { return cl.logger }

// TraceID returns the trace ID if available.
func (cl *ContextLogger) TraceID() string { return cl.traceID }

// SpanID returns the span ID if available.
func (cl *ContextLogger) SpanID() string { return cl.spanID }

// With returns a ContextLogger with additional attributes.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	nc := *cl
	nc.logger = cl.logger.With(args...)
	return &nc
}

func (cl *ContextLogger) Debug(msg string, args ...any) { cl.log(slog.LevelDebug, msg, args) }
func (cl *ContextLogger) Info(msg string, args ...any)  { cl.log(slog.LevelInfo, msg, args) }
func (cl *ContextLogger) Warn(msg string, args ...any)  { cl.log(slog.LevelWarn, msg, args) }
func (cl *ContextLogger) Error(msg string, args ...any) { cl.log(slog.LevelError, msg, args) }

func (cl *ContextLogger) log(level slog.Level, msg string, args []any) {
	if !cl.logger.Enabled(cl.ctx, level) {
		return
	}
	// Loggers built by this package add the ids in their handler.
	if _, ok := cl.logger.Handler().(*traceHandler); !ok && cl.traceID != "" {
		args = append(args, fieldTraceID, cl.traceID, fieldSpanID, cl.spanID)
	}
	cl.logger.Log(cl.ctx, level, msg, args...)
}
