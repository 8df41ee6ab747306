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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/teleroute/teleroute/tree"
)

// HandlerFunc handles a matched request.
type HandlerFunc func(*Context)

// Interceptor runs before the handler of every route that names it. A non-nil
// error aborts dispatch; the error is rendered through the router's error
// formatter with status 403 unless it carries its own status.
type Interceptor func(*Context) error

// Context carries a matched request through interceptors and the handler.
//
// Contexts are pooled. A Context must not be retained after the handler
// returns.
type Context struct {
	Request  *http.Request
	Response http.ResponseWriter

	router    *Router
	node      *tree.Node
	method    tree.Method
	params    []string
	names     []string
	requestID string
	values    map[string]any
}

var contextPool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquireContext(r *Router, w http.ResponseWriter, req *http.Request, m tree.Match, method tree.Method) *Context {
	c, ok := contextPool.Get().(*Context)
	if !ok {
		c = &Context{}
	}
	c.router = r
	c.Response = w
	c.Request = req
	c.node = m.Node
	c.method = method
	c.params = m.Params
	c.names = m.Node.ParamNames()
	return c
}

func releaseContext(c *Context) {
	c.Request = nil
	c.Response = nil
	c.router = nil
	c.node = nil
	c.params = nil
	c.names = nil
	c.requestID = ""
	clear(c.values)
	contextPool.Put(c)
}

// Param returns the value of the named path parameter, or "" if the route
// has no such parameter. The name is given without the leading colon.
// When a pattern repeats a name, as in "/:i/hi/:i", Param and [Context.Params]
// only see the first value; use [Context.ParamValues] for positional access.
//
// Example:
//
//	r.GET("/users/:id", func(c *router.Context) {
//	    id := c.Param("id")
//	})
func (c *Context) Param(name string) string {
	for i, n := range c.names {
		if n == name && i < len(c.params) {
			return c.params[i]
		}
	}
	return ""
}

// Params returns all path parameters keyed by name.
func (c *Context) Params() map[string]string {
	out := make(map[string]string, len(c.names))
	for i, n := range c.names {
		if _, seen := out[n]; !seen && i < len(c.params) {
			out[n] = c.params[i]
		}
	}
	return out
}

// ParamValues returns the path parameter values in path order, including
// every value of a repeated name.
func (c *Context) ParamValues() []string {
	return append([]string(nil), c.params...)
}

// Route returns the matched route node.
func (c *Context) Route() *tree.Node { return c.node }

// Pattern returns the pattern of the matched route.
func (c *Context) Pattern() string { return c.node.FullPath() }

// Method returns the request method.
func (c *Context) Method() tree.Method { return c.method }

// RequestID returns the id assigned to the request, or "" when request ids
// are disabled.
func (c *Context) RequestID() string { return c.requestID }

// Extra returns the extra settings registered for the matched route and
// request method.
func (c *Context) Extra() any {
	extra, err := c.node.Extra(c.method)
	if err != nil {
		return nil
	}
	return extra
}

// Set stores a value for later interceptors and the handler.
func (c *Context) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// Get returns a value stored with Set.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Logger returns the router's logger annotated with the request id and
// matched route.
func (c *Context) Logger() *slog.Logger {
	l := c.router.logger.With(slog.String("route", c.node.FullPath()))
	if c.requestID != "" {
		l = l.With(slog.String("request_id", c.requestID))
	}
	return l
}

// URL builds a path for the route registered under alias.
// See [Router.URL].
func (c *Context) URL(alias string, params ...string) (string, error) {
	return c.router.URL(alias, params...)
}

// String writes a plain-text response.
func (c *Context) String(status int, format string, args ...any) error {
	c.Response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.Response.WriteHeader(status)
	_, err := fmt.Fprintf(c.Response, format, args...)
	return err
}

// JSON writes v as a JSON response.
func (c *Context) JSON(status int, v any) error {
	c.Response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.Response.WriteHeader(status)
	return json.NewEncoder(c.Response).Encode(v)
}

// NoContent writes a response with no body.
func (c *Context) NoContent(status int) {
	c.Response.WriteHeader(status)
}

// Error renders err through the router's error formatter.
func (c *Context) Error(err error) {
	c.router.writeError(c.Response, c.Request, err)
}
