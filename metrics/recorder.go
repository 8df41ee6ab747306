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

package metrics

import (
	"context"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/teleroute/teleroute/router"
)

// dispatchState is the token passed from OnRequestStart to OnRequestEnd.
type dispatchState struct{}

var activeState = &dispatchState{}

// OnRequestStart implements [router.ObservabilityRecorder]. Excluded paths
// return a nil state and are not recorded.
func (r *Recorder) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	if r.shuttingDown.Load() || r.filter.path(req.URL.Path) {
		return ctx, nil
	}
	r.activeDispatches.Add(ctx, 1, metric.WithAttributeSet(r.serviceAttrs))
	return ctx, activeState
}

// OnRequestEnd implements [router.ObservabilityRecorder].
func (r *Recorder) OnRequestEnd(ctx context.Context, state any, out router.Outcome) {
	if state == nil {
		return
	}
	r.activeDispatches.Add(ctx, -1, metric.WithAttributeSet(r.serviceAttrs))
	if r.filter.route(out.Pattern) {
		return
	}

	route := out.Pattern
	if route == "" {
		route = router.PatternNotFound
	}
	attrs := metric.WithAttributes(
		attribute.String("service.name", r.serviceName),
		attribute.String("service.version", r.serviceVersion),
		attribute.String("http.request.method", out.Method),
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", out.Status),
		attribute.String("http.status_class", statusClass(out.Status)),
		attribute.String("teleroute.strategy", string(out.Strategy)),
	)

	r.dispatchDuration.Record(ctx, out.Duration.Seconds(), attrs)
	r.dispatchCount.Add(ctx, 1, attrs)
	if out.Status >= http.StatusBadRequest {
		r.dispatchErrors.Add(ctx, 1, attrs)
	}
	if out.Size > 0 {
		r.responseSize.Record(ctx, out.Size, attrs)
	}

	routeAttrs := metric.WithAttributes(
		attribute.String("service.name", r.serviceName),
		attribute.String("http.route", route),
	)
	switch out.Strategy {
	case router.StrategyMiss:
		r.matchMisses.Add(ctx, 1, metric.WithAttributeSet(r.serviceAttrs))
		r.matchSteps.Record(ctx, int64(out.Steps), routeAttrs)
	case router.StrategyWalk, router.StrategyTeleport:
		r.matchSteps.Record(ctx, int64(out.Steps), routeAttrs)
		if out.Teleports > 0 {
			r.matchTeleports.Add(ctx, int64(out.Teleports), routeAttrs)
		}
	}
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

var _ router.ObservabilityRecorder = (*Recorder)(nil)
