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

package router

import (
	"context"
	"log/slog"

	"github.com/teleroute/teleroute/tree"
)

// DiagnosticEvent represents a router diagnostic or anomaly. Events raised
// by the route tree during registration are forwarded unchanged.
type DiagnosticEvent = tree.DiagnosticEvent

// DiagnosticKind categorizes diagnostic events.
type DiagnosticKind = tree.DiagnosticKind

// DiagnosticHandler receives diagnostic events from the router.
// If none is configured, events go to the router's logger at debug level.
//
// Example:
//
//	handler := router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
//	    metrics.Increment("router.diagnostics", "kind", string(e.Kind))
//	})
//	r := router.MustNew(router.WithDiagnostics(handler))
type DiagnosticHandler = tree.DiagnosticHandler

// DiagnosticHandlerFunc is a function adapter for DiagnosticHandler.
type DiagnosticHandlerFunc = tree.DiagnosticHandlerFunc

const (
	// Raised by the route tree.
	DiagRouteRegistered  = tree.DiagRouteRegistered
	DiagRouteOverwritten = tree.DiagRouteOverwritten
	DiagParamRenamed     = tree.DiagParamRenamed
	DiagAliasReassigned  = tree.DiagAliasReassigned

	// Raised during dispatch.
	DiagInterceptorRejected DiagnosticKind = "interceptor_rejected"
	DiagHandlerUnresolved   DiagnosticKind = "handler_unresolved"
	DiagHandlerPanic        DiagnosticKind = "handler_panic"
	DiagFreezeIncomplete    DiagnosticKind = "freeze_incomplete"
)

// SlogDiagnostics returns a handler that writes events to logger. Dispatch
// failures are logged at warn level, registration events at debug level.
func SlogDiagnostics(logger *slog.Logger) DiagnosticHandler {
	return DiagnosticHandlerFunc(func(e DiagnosticEvent) {
		level := slog.LevelDebug
		switch e.Kind {
		case DiagInterceptorRejected, DiagRouteOverwritten, DiagAliasReassigned:
			level = slog.LevelInfo
		case DiagHandlerUnresolved, DiagHandlerPanic, DiagFreezeIncomplete:
			level = slog.LevelWarn
		}

		attrs := make([]slog.Attr, 0, len(e.Fields)+1)
		attrs = append(attrs, slog.String("kind", string(e.Kind)))
		for k, v := range e.Fields {
			attrs = append(attrs, slog.Any(k, v))
		}
		logger.LogAttrs(context.Background(), level, e.Message, attrs...)
	})
}

func (r *Router) emit(kind DiagnosticKind, message string, fields map[string]any) {
	if r.diagnostics == nil {
		return
	}
	r.diagnostics.OnDiagnostic(DiagnosticEvent{Kind: kind, Message: message, Fields: fields})
}
