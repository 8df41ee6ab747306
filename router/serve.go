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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	trerrors "github.com/teleroute/teleroute/errors"
	"github.com/teleroute/teleroute/tree"
)

// maxRequestIDLength bounds incoming request ids that are echoed back.
const maxRequestIDLength = 128

// ServeHTTP implements http.Handler.
//
// For each request:
//  1. Freezes the router if this is the first request
//  2. Starts observability recorders
//  3. Matches the path (static table first, then the tree walk)
//  4. Answers 404 or 405 when no route or method matches
//  5. Runs the route's interceptors in order, then its handler
//  6. Finishes observability recorders with the outcome
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.freezeOnce.Do(func() {
		if err := r.Freeze(); err != nil {
			r.logger.Warn("router frozen with unresolvable routes", slog.Any("error", err))
		}
	})

	start := time.Now()
	ctx := req.Context()

	var states []any
	if len(r.recorders) > 0 {
		states = make([]any, len(r.recorders))
		for i, rec := range r.recorders {
			ctx, states[i] = rec.OnRequestStart(ctx, req)
		}
		if ctx != req.Context() {
			req = req.WithContext(ctx)
		}
	}

	rw := &responseWriter{ResponseWriter: w}
	out := Outcome{Method: req.Method}
	if r.requestIDHeader != "" {
		out.RequestID = r.requestID(req)
		rw.Header().Set(r.requestIDHeader, out.RequestID)
	}

	r.dispatch(rw, req, &out)

	out.Status = rw.StatusCode()
	out.Size = rw.Size()
	out.Duration = time.Since(start)

	for i := len(r.recorders) - 1; i >= 0; i-- {
		if states[i] != nil {
			r.recorders[i].OnRequestEnd(ctx, states[i], out)
		}
	}
}

func (r *Router) dispatch(w *responseWriter, req *http.Request, out *Outcome) {
	m := r.tree.Match(req.URL.EscapedPath())
	out.Steps = m.Steps
	out.Teleports = m.Teleports

	switch {
	case !m.Found():
		out.Strategy = StrategyMiss
		out.Pattern = PatternNotFound
		out.Err = trerrors.WithStatus(fmt.Errorf("%w: %s", ErrRouteNotFound, req.URL.Path), http.StatusNotFound)
		r.writeError(w, req, out.Err)
		return
	case m.Static:
		out.Strategy = StrategyStatic
	case m.Teleports > 0:
		out.Strategy = StrategyTeleport
	default:
		out.Strategy = StrategyWalk
	}
	out.Pattern = m.Node.FullPath()
	out.Alias = m.Node.Alias()

	if err := checkMethod(m.Node, req.Method); err != nil {
		out.Err = err
		r.writeError(w, req, err)
		return
	}
	method, _ := tree.ParseMethod(req.Method)
	settings, err := m.Node.Settings(method)
	if err != nil {
		out.Err = trerrors.WithStatus(err, http.StatusInternalServerError)
		r.writeError(w, req, out.Err)
		return
	}

	c := acquireContext(r, w, req, m, method)
	c.requestID = out.RequestID
	defer releaseContext(c)
	if r.recovery {
		defer r.recoverPanic(c, out)
	}

	for _, name := range settings.Interceptors {
		ic, ok := r.interceptors[name]
		if !ok {
			out.Err = trerrors.WithStatus(
				fmt.Errorf("%w: %q on %s %s", ErrUnknownInterceptor, name, method, out.Pattern),
				http.StatusInternalServerError,
			)
			r.emit(DiagHandlerUnresolved, "interceptor not registered", map[string]any{
				"interceptor": name,
				"method":      method.String(),
				"pattern":     out.Pattern,
			})
			r.writeError(w, req, out.Err)
			return
		}
		if err := ic(c); err != nil {
			out.Err = rejection(err)
			r.emit(DiagInterceptorRejected, "interceptor rejected request", map[string]any{
				"interceptor": name,
				"method":      method.String(),
				"pattern":     out.Pattern,
				"error":       err.Error(),
			})
			r.writeError(w, req, out.Err)
			return
		}
	}

	h, err := r.resolve(settings.Handler)
	if err != nil {
		out.Err = trerrors.WithStatus(err, http.StatusInternalServerError)
		r.emit(DiagHandlerUnresolved, "handler could not be resolved", map[string]any{
			"method":  method.String(),
			"pattern": out.Pattern,
			"error":   err.Error(),
		})
		r.writeError(w, req, out.Err)
		return
	}

	h(c)
}

// rejection gives an interceptor error status 403 unless it carries one.
func rejection(err error) error {
	var typed trerrors.ErrorType
	if errors.As(err, &typed) {
		return err
	}
	return trerrors.WithStatus(err, http.StatusForbidden)
}

func (r *Router) recoverPanic(c *Context, out *Outcome) {
	v := recover()
	if v == nil {
		return
	}
	if v == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
		panic(v)
	}

	err := fmt.Errorf("handler panic: %v", v)
	out.Err = trerrors.WithStatus(err, http.StatusInternalServerError)
	r.emit(DiagHandlerPanic, "handler panicked", map[string]any{
		"pattern": out.Pattern,
		"panic":   fmt.Sprint(v),
	})
	r.logger.Error("handler panicked",
		slog.String("pattern", out.Pattern),
		slog.String("request_id", out.RequestID),
		slog.Any("panic", v),
	)
	r.writeError(c.Response, c.Request, out.Err)
}

// writeError renders err through the configured formatter unless a response
// was already started.
func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	if rw, ok := w.(*responseWriter); ok && rw.Written() {
		r.logger.Debug("response already started, dropping error", slog.Any("error", err))
		return
	}
	resp := r.formatter.Format(req, err)
	if werr := trerrors.Write(w, resp); werr != nil {
		r.logger.LogAttrs(context.Background(), slog.LevelDebug, "error response write failed",
			slog.Any("error", werr))
	}
}

// requestID reuses a well-formed incoming id or generates a UUIDv7.
func (r *Router) requestID(req *http.Request) string {
	if id := req.Header.Get(r.requestIDHeader); id != "" && len(id) <= maxRequestIDLength && printable(id) {
		return id
	}
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func printable(s string) bool {
	for i := range len(s) {
		if s[i] <= 0x20 || s[i] >= 0x7f {
			return false
		}
	}
	return true
}
