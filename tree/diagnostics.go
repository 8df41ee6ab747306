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

package tree

// DiagnosticEvent is an informational event raised while the tree is built.
// The tree behaves the same whether or not events are collected.
type DiagnosticEvent struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]any
}

// DiagnosticKind categorizes diagnostic events.
type DiagnosticKind string

const (
	DiagRouteRegistered  DiagnosticKind = "route_registered"
	DiagRouteOverwritten DiagnosticKind = "route_overwritten"
	DiagParamRenamed     DiagnosticKind = "param_renamed"
	DiagAliasReassigned  DiagnosticKind = "alias_reassigned"
)

// DiagnosticHandler receives diagnostic events from the tree.
//
//	h := tree.DiagnosticHandlerFunc(func(e tree.DiagnosticEvent) {
//	    slog.Warn(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	t := tree.MustNew(tree.WithDiagnostics(h))
type DiagnosticHandler interface {
	OnDiagnostic(DiagnosticEvent)
}

// DiagnosticHandlerFunc is a function adapter for DiagnosticHandler.
type DiagnosticHandlerFunc func(DiagnosticEvent)

func (f DiagnosticHandlerFunc) OnDiagnostic(e DiagnosticEvent) {
	f(e)
}

func (t *Tree) emit(kind DiagnosticKind, message string, fields map[string]any) {
	if t.diagnostics != nil {
		t.diagnostics.OnDiagnostic(DiagnosticEvent{
			Kind:    kind,
			Message: message,
			Fields:  fields,
		})
	}
}
