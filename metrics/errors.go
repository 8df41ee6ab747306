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
	"errors"
	"fmt"
)

var (
	// ErrConflictingProviders is returned when more than one of WithPrometheus,
	// WithOTLP and WithStdout is given.
	ErrConflictingProviders = errors.New("conflicting metrics providers")

	// ErrUnsupportedProvider is returned for an unknown [Provider].
	ErrUnsupportedProvider = errors.New("unsupported metrics provider")

	// ErrNotPrometheus is returned by [Recorder.Handler] for non-Prometheus providers.
	ErrNotPrometheus = errors.New("handler only available with Prometheus provider")

	// ErrInvalidMetricName is returned for custom metric names that are empty,
	// too long, malformed or reserved.
	ErrInvalidMetricName = errors.New("invalid metric name")

	// ErrMetricLimitReached is returned when [WithMaxCustomMetrics] is exhausted.
	ErrMetricLimitReached = errors.New("custom metrics limit reached")

	// ErrServerNotReady is returned when the metrics server fails to start within the timeout.
	ErrServerNotReady = errors.New("metrics server not ready")
)

type limitError struct {
	metricName string
	limit      int
}

func (e *limitError) Error() string {
	return fmt.Sprintf("%s: cannot create %q (limit: %d)", ErrMetricLimitReached, e.metricName, e.limit)
}

func (e *limitError) Unwrap() error { return ErrMetricLimitReached }
