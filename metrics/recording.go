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
	"fmt"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var metricNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)

const maxMetricNameLength = 255

// reservedPrefixes may not be used by custom metrics.
var reservedPrefixes = []string{"__", "teleroute_", "teleroute."}

func validateMetricName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidMetricName)
	case len(name) > maxMetricNameLength:
		return fmt.Errorf("%w: %d characters (max %d)", ErrInvalidMetricName, len(name), maxMetricNameLength)
	case !metricNameRegex.MatchString(name):
		return fmt.Errorf("%w: %q must start with a letter and contain only alphanumeric, underscore, dot or hyphen",
			ErrInvalidMetricName, name)
	}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return fmt.Errorf("%w: %q uses reserved prefix %q", ErrInvalidMetricName, name, prefix)
		}
	}
	return nil
}

func (r *Recorder) initializeInstruments() error {
	var err error

	if r.dispatchDuration, err = r.meter.Float64Histogram(
		"teleroute_dispatch_duration_seconds",
		metric.WithDescription("Duration of dispatched requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	); err != nil {
		return fmt.Errorf("failed to create dispatch duration histogram: %w", err)
	}
	if r.dispatchCount, err = r.meter.Int64Counter(
		"teleroute_dispatch_requests_total",
		metric.WithDescription("Total number of dispatched requests"),
	); err != nil {
		return fmt.Errorf("failed to create dispatch counter: %w", err)
	}
	if r.activeDispatches, err = r.meter.Int64UpDownCounter(
		"teleroute_dispatch_active",
		metric.WithDescription("Number of requests being dispatched"),
	); err != nil {
		return fmt.Errorf("failed to create active dispatch gauge: %w", err)
	}
	if r.dispatchErrors, err = r.meter.Int64Counter(
		"teleroute_dispatch_errors_total",
		metric.WithDescription("Total number of dispatched requests answered with status >= 400"),
	); err != nil {
		return fmt.Errorf("failed to create dispatch error counter: %w", err)
	}
	if r.responseSize, err = r.meter.Int64Histogram(
		"teleroute_response_size_bytes",
		metric.WithDescription("Size of response bodies in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(r.sizeBuckets...),
	); err != nil {
		return fmt.Errorf("failed to create response size histogram: %w", err)
	}
	if r.matchSteps, err = r.meter.Int64Histogram(
		"teleroute_match_steps",
		metric.WithDescription("Child lookups performed per tree walk"),
		metric.WithExplicitBucketBoundaries(DefaultStepBuckets...),
	); err != nil {
		return fmt.Errorf("failed to create match steps histogram: %w", err)
	}
	if r.matchTeleports, err = r.meter.Int64Counter(
		"teleroute_match_teleports_total",
		metric.WithDescription("Total number of teleport shortcuts taken while matching"),
	); err != nil {
		return fmt.Errorf("failed to create teleport counter: %w", err)
	}
	if r.matchMisses, err = r.meter.Int64Counter(
		"teleroute_match_misses_total",
		metric.WithDescription("Total number of requests no route matched"),
	); err != nil {
		return fmt.Errorf("failed to create miss counter: %w", err)
	}
	if r.customMetricFailures, err = r.meter.Int64Counter(
		"teleroute_custom_metric_failures_total",
		metric.WithDescription("Total number of rejected custom metric operations"),
	); err != nil {
		return fmt.Errorf("failed to create custom metric failures counter: %w", err)
	}
	return nil
}

// RecordHistogram records value on the custom histogram name.
func (r *Recorder) RecordHistogram(ctx context.Context, name string, value float64, attrs ...attribute.KeyValue) error {
	h, err := getOrCreate(r, r.customHistograms, name, func() (metric.Float64Histogram, error) {
		return r.meter.Float64Histogram(name, metric.WithDescription("Custom histogram metric"))
	})
	if err != nil {
		r.customFailure(ctx)
		return fmt.Errorf("record histogram %q: %w", name, err)
	}
	h.Record(ctx, value, metric.WithAttributes(attrs...))
	return nil
}

// IncrementCounter adds 1 to the custom counter name.
func (r *Recorder) IncrementCounter(ctx context.Context, name string, attrs ...attribute.KeyValue) error {
	return r.AddCounter(ctx, name, 1, attrs...)
}

// AddCounter adds value to the custom counter name.
func (r *Recorder) AddCounter(ctx context.Context, name string, value int64, attrs ...attribute.KeyValue) error {
	c, err := getOrCreate(r, r.customCounters, name, func() (metric.Int64Counter, error) {
		return r.meter.Int64Counter(name, metric.WithDescription("Custom counter metric"))
	})
	if err != nil {
		r.customFailure(ctx)
		return fmt.Errorf("add counter %q: %w", name, err)
	}
	c.Add(ctx, value, metric.WithAttributes(attrs...))
	return nil
}

// SetGauge sets the custom gauge name to value.
func (r *Recorder) SetGauge(ctx context.Context, name string, value float64, attrs ...attribute.KeyValue) error {
	g, err := getOrCreate(r, r.customGauges, name, func() (metric.Float64Gauge, error) {
		return r.meter.Float64Gauge(name, metric.WithDescription("Custom gauge metric"))
	})
	if err != nil {
		r.customFailure(ctx)
		return fmt.Errorf("set gauge %q: %w", name, err)
	}
	g.Record(ctx, value, metric.WithAttributes(attrs...))
	return nil
}

// CustomMetricCount returns the number of custom instruments created.
func (r *Recorder) CustomMetricCount() int {
	r.customMu.RLock()
	defer r.customMu.RUnlock()
	return r.customMetricCount
}

// CustomMetricFailures returns the number of rejected custom metric operations.
func (r *Recorder) CustomMetricFailures() int64 {
	return r.customFailures.Load()
}

func (r *Recorder) customFailure(ctx context.Context) {
	r.customFailures.Add(1)
	r.customMetricFailures.Add(ctx, 1)
}

// getOrCreate returns the instrument registered under name in m, creating
// it with create while the custom metric budget lasts.
func getOrCreate[T any](r *Recorder, m map[string]T, name string, create func() (T, error)) (T, error) {
	r.customMu.RLock()
	inst, ok := m[name]
	r.customMu.RUnlock()
	if ok {
		return inst, nil
	}

	var zero T
	if err := validateMetricName(name); err != nil {
		return zero, err
	}

	r.customMu.Lock()
	defer r.customMu.Unlock()
	if inst, ok := m[name]; ok {
		return inst, nil
	}
	if r.customMetricCount >= r.maxCustomMetrics {
		return zero, &limitError{metricName: name, limit: r.maxCustomMetrics}
	}
	inst, err := create()
	if err != nil {
		return zero, err
	}
	m[name] = inst
	r.customMetricCount++
	return inst, nil
}
