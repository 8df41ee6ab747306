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

// Package metrics records OpenTelemetry metrics for teleroute dispatch.
//
// A [Recorder] implements router.ObservabilityRecorder. Attach it to a
// router and every dispatched request is counted and timed, labelled with
// its route pattern, status and the way the path was matched:
//
//	rec := metrics.MustNew(
//	    metrics.WithPrometheus(":9090", "/metrics"),
//	    metrics.WithServiceName("catalog"),
//	)
//	defer rec.Shutdown(context.Background())
//	if err := rec.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	r := router.MustNew(router.WithObservability(rec))
//
// # Providers
//
//   - Prometheus (default): pull-based, served by a dedicated server or
//     mounted with [Recorder.Handler]
//   - OTLP: pushes over HTTP to a collector
//   - Stdout: periodic JSON dumps for development
//
// [WithMeterProvider] plugs in a provider managed by the caller.
//
// # Dispatch Metrics
//
//	teleroute_dispatch_duration_seconds  histogram  method, route, status_code, strategy
//	teleroute_dispatch_requests_total    counter    method, route, status_code, strategy
//	teleroute_dispatch_active            gauge
//	teleroute_dispatch_errors_total      counter    status >= 400
//	teleroute_response_size_bytes        histogram
//	teleroute_match_steps                histogram  child lookups per tree walk
//	teleroute_match_teleports_total      counter    shortcuts taken per route
//	teleroute_match_misses_total         counter    requests no route matched
//
// Requests that match no route are labelled with router.PatternNotFound,
// never with the raw path.
//
// # Custom Metrics
//
// [Recorder.IncrementCounter], [Recorder.RecordHistogram] and
// [Recorder.SetGauge] create instruments on first use, up to
// [WithMaxCustomMetrics]. The teleroute_ prefix is reserved.
package metrics
