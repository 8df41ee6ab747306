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
	"log/slog"

	trerrors "github.com/teleroute/teleroute/errors"
)

// Option defines functional options for router configuration.
type Option func(*Router)

// WithDiagnostics sets a diagnostic handler for the router. It receives
// both registration events from the route tree and dispatch events.
//
// Example:
//
//	r := router.MustNew(router.WithDiagnostics(router.SlogDiagnostics(logger)))
func WithDiagnostics(handler DiagnosticHandler) Option {
	return func(r *Router) {
		r.diagnostics = handler
	}
}

// WithLogger sets the logger used for dispatch errors and, when no
// diagnostic handler is configured, for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithResolver sets the resolver for class-method handlers.
//
// Example:
//
//	reg := router.NewRegistry()
//	reg.Register("UserController", "show", showUser)
//	r := router.MustNew(router.WithResolver(reg))
func WithResolver(resolver Resolver) Option {
	return func(r *Router) {
		r.resolver = resolver
	}
}

// WithErrorFormatter sets the formatter for 404, 405 and dispatch failures.
//
// Default: RFC 9457 problem details.
func WithErrorFormatter(formatter trerrors.Formatter) Option {
	return func(r *Router) {
		r.formatter = formatter
	}
}

// WithObservability adds recorders that observe every dispatched request.
// Recorders are started in order and finished in reverse order.
func WithObservability(recorders ...ObservabilityRecorder) Option {
	return func(r *Router) {
		r.recorders = append(r.recorders, recorders...)
	}
}

// WithRequestIDHeader sets the header used to read and echo request ids.
//
// Default: "X-Request-ID"
func WithRequestIDHeader(header string) Option {
	return func(r *Router) {
		r.requestIDHeader = header
	}
}

// WithoutRequestID disables request id generation.
func WithoutRequestID() Option {
	return func(r *Router) {
		r.requestIDHeader = ""
	}
}

// WithBloomFilterSize sets the bloom filter size of the static route table.
// Larger sizes reduce false positives.
//
// Default: 1000
// Must be > 0 or validation will fail.
func WithBloomFilterSize(size uint64) Option {
	return func(r *Router) {
		r.bloomFilterSize = size
	}
}

// WithBloomFilterHashFunctions sets the number of bloom filter hash functions.
//
// Default: 3
// Range: 1-10 (values outside this range are clamped)
func WithBloomFilterHashFunctions(numFuncs int) Option {
	return func(r *Router) {
		r.bloomHashFunctions = max(1, min(numFuncs, 10))
	}
}

// WithStaticBloomThreshold sets the static route count from which negative
// lookups are answered by the bloom filter.
func WithStaticBloomThreshold(n int) Option {
	return func(r *Router) {
		r.bloomThreshold = n
	}
}

// WithRecovery enables or disables recovering from handler panics. A
// recovered panic is answered with 500.
//
// Default: true
func WithRecovery(enabled bool) Option {
	return func(r *Router) {
		r.recovery = enabled
	}
}
