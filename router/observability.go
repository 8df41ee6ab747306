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
	"net/http"
	"time"
)

// Strategy names how a request path was resolved.
type Strategy string

const (
	// StrategyStatic means the static route table answered the lookup.
	StrategyStatic Strategy = "static"
	// StrategyWalk means the tree was walked one segment at a time.
	StrategyWalk Strategy = "walk"
	// StrategyTeleport means the tree walk took at least one shortcut.
	StrategyTeleport Strategy = "teleport"
	// StrategyMiss means no route matched.
	StrategyMiss Strategy = "miss"
)

// PatternNotFound is reported as the pattern of requests no route matched.
const PatternNotFound = "_not_found"

// Outcome describes a finished dispatch.
type Outcome struct {
	Method    string
	Pattern   string // route pattern, or PatternNotFound
	Alias     string
	Status    int
	Size      int64
	Strategy  Strategy
	Steps     int
	Teleports int
	Duration  time.Duration
	RequestID string
	Err       error // dispatch error rendered to the client, if any
}

// ObservabilityRecorder hooks into the lifecycle of every dispatched request.
//
// Lifecycle:
//  1. OnRequestStart is called before matching. It returns a possibly
//     enriched context and an opaque state token. The context is always
//     attached to the request.
//  2. The request is matched and dispatched.
//  3. OnRequestEnd is called with the state token and the outcome, unless
//     the token was nil.
//
// Implementations must be safe for concurrent use.
type ObservabilityRecorder interface {
	OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any)
	OnRequestEnd(ctx context.Context, state any, outcome Outcome)
}

// ResponseInfo is implemented by response writers that track response metadata.
type ResponseInfo interface {
	StatusCode() int
	Size() int64
}

// responseWriter wraps http.ResponseWriter to capture status code and size.
// It also prevents "superfluous response.WriteHeader call" errors.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int64
	written    bool
}

// WriteHeader captures the status code and prevents duplicate calls.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.ResponseWriter.WriteHeader(code)
		rw.written = true
	}
}

// Write captures the response size and marks as written.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.written = true
	}
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

// StatusCode returns the HTTP status code.
func (rw *responseWriter) StatusCode() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

// Size returns the response size in bytes.
func (rw *responseWriter) Size() int64 {
	return rw.size
}

// Written returns true if headers have been written.
func (rw *responseWriter) Written() bool {
	return rw.written
}

// Flush implements http.Flusher.
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

var _ ResponseInfo = (*responseWriter)(nil)
