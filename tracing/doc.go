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

// Package tracing creates OpenTelemetry spans for teleroute dispatch.
//
// A [Tracer] implements router.ObservabilityRecorder. Each dispatched
// request gets a server span named after its route pattern, carrying the
// match strategy, the number of tree steps and teleport shortcuts, the
// alias and the request id:
//
//	tr := tracing.MustNew(
//	    tracing.WithOTLP("localhost:4317", tracing.OTLPInsecure()),
//	    tracing.WithServiceName("catalog"),
//	)
//	if err := tr.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer tr.Shutdown(context.Background())
//	r := router.MustNew(router.WithObservability(tr))
//
// # Providers
//
//   - Noop (default): spans are created but never exported
//   - Stdout: pretty-printed JSON for development
//   - OTLP: gRPC export to a collector
//   - OTLP HTTP: HTTP export to a collector
//
// OTLP exporters are created in [Tracer.Start] so the connection honours
// its context.
//
// Incoming W3C trace context is extracted from request headers, so spans
// join the caller's trace. Handlers reach the span through the request
// context:
//
//	tracing.SetSpanAttributeFromContext(c.Request.Context(), "user.id", id)
package tracing
