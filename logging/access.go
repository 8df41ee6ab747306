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

package logging

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teleroute/teleroute/router"
)

// AccessLog writes one record per dispatched request. It implements
// [router.ObservabilityRecorder]:
//
//	access := logging.NewAccessLog(logger.Logger(),
//	    logging.WithExcludePaths("/health"),
//	    logging.WithSlowThreshold(500*time.Millisecond),
//	)
//	r := router.MustNew(router.WithObservability(access))
//
// Server errors are logged at error level, client errors and slow requests
// at warn, everything else at info.
type AccessLog struct {
	logger          *slog.Logger
	excludePaths    map[string]bool
	excludePrefixes []string
	slowThreshold   time.Duration
	errorsOnly      bool
}

// AccessOption configures an [AccessLog].
type AccessOption func(*AccessLog)

// WithExcludePaths skips requests whose path equals one of paths.
func WithExcludePaths(paths ...string) AccessOption {
	return func(a *AccessLog) {
		for _, p := range paths {
			a.excludePaths[p] = true
		}
	}
}

// WithExcludePrefixes skips requests whose path starts with one of prefixes.
func WithExcludePrefixes(prefixes ...string) AccessOption {
	return func(a *AccessLog) { a.excludePrefixes = append(a.excludePrefixes, prefixes...) }
}

// WithSlowThreshold marks requests slower than d as slow and logs them at
// warn level. Zero disables.
func WithSlowThreshold(d time.Duration) AccessOption {
	return func(a *AccessLog) { a.slowThreshold = d }
}

// WithErrorsOnly logs only requests with status >= 400 or slow requests.
func WithErrorsOnly() AccessOption {
	return func(a *AccessLog) { a.errorsOnly = true }
}

// NewAccessLog creates an access log writing to logger. A nil logger uses
// [slog.Default].
func NewAccessLog(logger *slog.Logger, opts ...AccessOption) *AccessLog {
	if logger == nil {
		logger = slog.Default()
	}
	a := &AccessLog{logger: logger, excludePaths: make(map[string]bool)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type accessState struct {
	path      string
	remote    string
	userAgent string
}

// OnRequestStart implements [router.ObservabilityRecorder].
// Excluded requests return a nil state and are not logged.
func (a *AccessLog) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	path := req.URL.Path
	if a.excludePaths[path] {
		return ctx, nil
	}
	for _, prefix := range a.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return ctx, nil
		}
	}
	return ctx, &accessState{
		path:      path,
		remote:    req.RemoteAddr,
		userAgent: req.UserAgent(),
	}
}

// OnRequestEnd implements [router.ObservabilityRecorder].
func (a *AccessLog) OnRequestEnd(ctx context.Context, state any, out router.Outcome) {
	st, ok := state.(*accessState)
	if !ok {
		return
	}
	slow := a.slowThreshold > 0 && out.Duration > a.slowThreshold
	if a.errorsOnly && out.Status < http.StatusBadRequest && !slow {
		return
	}

	level := slog.LevelInfo
	switch {
	case out.Status >= http.StatusInternalServerError:
		level = slog.LevelError
	case out.Status >= http.StatusBadRequest || slow:
		level = slog.LevelWarn
	}
	if !a.logger.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, 14)
	attrs = append(attrs,
		slog.String("method", out.Method),
		slog.String("path", st.path),
		slog.String("route", out.Pattern),
		slog.Int("status", out.Status),
		slog.Int64("bytes", out.Size),
		slog.Float64("duration_ms", float64(out.Duration.Microseconds())/1000),
		slog.String("strategy", string(out.Strategy)),
		slog.Int("teleports", out.Teleports),
		slog.String("remote", st.remote),
	)
	if out.Alias != "" {
		attrs = append(attrs, slog.String("alias", out.Alias))
	}
	if out.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", out.RequestID))
	}
	if st.userAgent != "" {
		attrs = append(attrs, slog.String("user_agent", st.userAgent))
	}
	if slow {
		attrs = append(attrs, slog.Bool("slow", true))
	}
	if out.Err != nil {
		attrs = append(attrs, slog.String("error", out.Err.Error()))
	}
	a.logger.LogAttrs(ctx, level, "access", attrs...)
}

var _ router.ObservabilityRecorder = (*AccessLog)(nil)
