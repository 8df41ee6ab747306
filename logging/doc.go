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

// Package logging builds structured slog loggers for teleroute services.
//
// # Basic Usage
//
//	logger := logging.MustNew(logging.WithConsoleHandler())
//	logger.Info("router ready", "routes", 42)
//
// # Handlers
//
// Four output formats are available:
//   - JSON (default): one object per line for log aggregation
//   - Text: slog's key=value format
//   - Console: compact ANSI-colored lines for development
//   - Charm: charmbracelet/log styling for interactive tools
//
// # Service Metadata
//
// WithServiceName, WithServiceVersion and WithEnvironment add service,
// version and env attributes to every record.
//
// # Sensitive Data Redaction
//
// Attributes named password, token, secret, api_key or authorization are
// replaced with "***REDACTED***" in every handler. WithRedactedKeys adds
// more names.
//
// # Trace Correlation
//
// Records logged with a context holding an OpenTelemetry span get trace_id
// and span_id attributes:
//
//	logger.Logger().InfoContext(ctx, "resolving handler")
//
// # Access Logs
//
// [AccessLog] implements router.ObservabilityRecorder and writes one record
// per dispatched request, including the route pattern and how the path was
// matched.
package logging
