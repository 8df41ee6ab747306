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
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	trerrors "github.com/teleroute/teleroute/errors"
	"github.com/teleroute/teleroute/tree"
)

const (
	// defaultBloomFilterSize is the default size of the static table's bloom filter.
	defaultBloomFilterSize = 1000

	// defaultBloomHashFunctions is the default number of bloom filter hash functions.
	defaultBloomHashFunctions = 3

	// defaultRequestIDHeader is read for an incoming request id and set on the response.
	defaultRequestIDHeader = "X-Request-ID"
)

// Router dispatches HTTP requests through a route tree.
//
// Routes are registered up front. The router freezes on the first request
// it serves; registrations after that fail with [ErrRouterFrozen]. Matching
// is lock-free and safe for concurrent use.
//
// Example:
//
//	r := router.MustNew()
//	r.GET("/users/:id", func(c *router.Context) {
//	    c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
//	})
//	http.ListenAndServe(":8080", r)
type Router struct {
	tree         *tree.Tree
	mu           sync.Mutex             // serializes registration and Freeze
	interceptors map[string]Interceptor // immutable once frozen
	frozen       atomic.Bool
	freezeOnce   sync.Once

	resolver        Resolver
	formatter       trerrors.Formatter
	logger          *slog.Logger
	diagnostics     DiagnosticHandler
	recorders       []ObservabilityRecorder
	requestIDHeader string
	recovery        bool

	bloomFilterSize    uint64
	bloomHashFunctions int
	bloomThreshold     int
}

// New creates a router. Configuration is validated immediately.
//
// Example:
//
//	r, err := router.New(
//	    router.WithResolver(registry),
//	    router.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatalf("Invalid router configuration: %v", err)
//	}
func New(opts ...Option) (*Router, error) {
	r := &Router{
		interceptors:       make(map[string]Interceptor),
		requestIDHeader:    defaultRequestIDHeader,
		recovery:           true,
		bloomFilterSize:    defaultBloomFilterSize,
		bloomHashFunctions: defaultBloomHashFunctions,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.diagnostics == nil {
		r.diagnostics = SlogDiagnostics(r.logger)
	}
	if r.formatter == nil {
		r.formatter = trerrors.NewRFC9457("")
	}

	t, err := tree.New(
		tree.WithDiagnostics(r.diagnostics),
		tree.WithBloomFilterSize(r.bloomFilterSize),
		tree.WithBloomFilterHashFunctions(r.bloomHashFunctions),
		tree.WithStaticBloomThreshold(r.bloomThreshold),
	)
	if err != nil {
		return nil, fmt.Errorf("router configuration validation failed: %w", err)
	}
	r.tree = t

	return r, nil
}

// MustNew creates a router and panics if configuration is invalid.
func MustNew(opts ...Option) *Router {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("router.MustNew: %v", err))
	}
	return r
}

// Interceptor registers fn under name. Routes reference interceptors by
// name; a later registration under the same name replaces the earlier one.
func (r *Router) Interceptor(name string, fn Interceptor) error {
	if fn == nil {
		return fmt.Errorf("%w: interceptor %q", ErrNilHandler, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return fmt.Errorf("%w: cannot register interceptor %q", ErrRouterFrozen, name)
	}
	r.interceptors[name] = fn
	return nil
}

// RouteOption configures a single route registration.
type RouteOption func(*routeConfig)

type routeConfig struct {
	interceptors []string
	alias        string
	extra        any
}

// WithInterceptors appends named interceptors to the route. They run after
// any group interceptors, in the order given.
func WithInterceptors(names ...string) RouteOption {
	return func(rc *routeConfig) {
		rc.interceptors = append(rc.interceptors, names...)
	}
}

// WithAlias names the route for reverse URL building. Inside a group the
// group's name prefix is prepended.
func WithAlias(alias string) RouteOption {
	return func(rc *routeConfig) {
		rc.alias = alias
	}
}

// WithExtra attaches arbitrary settings to the route, available to
// interceptors and handlers through [Context.Extra].
func WithExtra(extra any) RouteOption {
	return func(rc *routeConfig) {
		rc.extra = extra
	}
}

// GET registers fn for GET requests to pattern.
func (r *Router) GET(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return r.handleFunc([]tree.Method{tree.MethodGet}, pattern, fn, opts)
}

// POST registers fn for POST requests to pattern.
func (r *Router) POST(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return r.handleFunc([]tree.Method{tree.MethodPost}, pattern, fn, opts)
}

// PUT registers fn for PUT requests to pattern.
func (r *Router) PUT(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return r.handleFunc([]tree.Method{tree.MethodPut}, pattern, fn, opts)
}

// PATCH registers fn for PATCH requests to pattern.
func (r *Router) PATCH(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return r.handleFunc([]tree.Method{tree.MethodPatch}, pattern, fn, opts)
}

// DELETE registers fn for DELETE requests to pattern.
func (r *Router) DELETE(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return r.handleFunc([]tree.Method{tree.MethodDelete}, pattern, fn, opts)
}

// HEAD registers fn for HEAD requests to pattern.
func (r *Router) HEAD(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return r.handleFunc([]tree.Method{tree.MethodHead}, pattern, fn, opts)
}

// OPTIONS registers fn for OPTIONS requests to pattern.
func (r *Router) OPTIONS(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return r.handleFunc([]tree.Method{tree.MethodOptions}, pattern, fn, opts)
}

// Any registers fn for every supported method.
func (r *Router) Any(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return r.handleFunc(tree.AllMethods(), pattern, fn, opts)
}

// Match registers fn for the named methods, which are parsed
// case-insensitively.
//
// Example:
//
//	r.Match([]string{"GET", "HEAD"}, "/status", statusHandler)
func (r *Router) Match(verbs []string, pattern string, fn HandlerFunc, opts ...RouteOption) error {
	methods, err := tree.ParseMethods(verbs...)
	if err != nil {
		return err
	}
	return r.handleFunc(methods, pattern, fn, opts)
}

// Route registers any handler variant for methods. Class-method handlers
// are resolved at dispatch time through the configured [Resolver].
//
// Example:
//
//	r.Route([]tree.Method{tree.MethodGet}, "/users/:id",
//	    tree.ClassMethod{Class: "UserController", Method: "show"},
//	    router.WithAlias("users.show"))
func (r *Router) Route(methods []tree.Method, pattern string, h tree.Handler, opts ...RouteOption) error {
	rc := &routeConfig{}
	for _, opt := range opts {
		opt(rc)
	}
	return r.register(methods, pattern, h, rc)
}

func (r *Router) handleFunc(methods []tree.Method, pattern string, fn HandlerFunc, opts []RouteOption) error {
	if fn == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, pattern)
	}
	return r.Route(methods, pattern, tree.Function{Fn: fn}, opts...)
}

func (r *Router) register(methods []tree.Method, pattern string, h tree.Handler, rc *routeConfig) error {
	switch h := h.(type) {
	case nil:
		return fmt.Errorf("%w: %s", ErrNilHandler, pattern)
	case tree.Function:
		if h.Fn == nil {
			return fmt.Errorf("%w: %s", ErrNilHandler, pattern)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return fmt.Errorf("%w: cannot register %q", ErrRouterFrozen, pattern)
	}

	_, err := r.tree.Add(tree.Registration{
		Pattern:      pattern,
		Methods:      methods,
		Handler:      h,
		Interceptors: rc.interceptors,
		Alias:        rc.alias,
		Extra:        rc.extra,
	})
	if errors.Is(err, tree.ErrTreeFrozen) {
		return fmt.Errorf("%w: %w", ErrRouterFrozen, err)
	}
	return err
}

// Freeze stops accepting registrations and checks that every route's
// interceptors are registered and its handler can be resolved. Problems are
// returned joined; the router serves regardless and answers affected routes
// with 500. Freeze is called on the first request served.
func (r *Router) Freeze() error {
	r.mu.Lock()
	r.frozen.Store(true)
	r.tree.Freeze()
	r.mu.Unlock()

	var errs []error
	r.tree.Walk(func(n *tree.Node) bool {
		for _, m := range n.Methods() {
			s, err := n.Settings(m)
			if err != nil {
				continue
			}
			for _, name := range s.Interceptors {
				if _, ok := r.interceptors[name]; !ok {
					errs = append(errs, fmt.Errorf("%w: %q on %s %s", ErrUnknownInterceptor, name, m, n.FullPath()))
				}
			}
			if _, err := r.resolve(s.Handler); err != nil {
				errs = append(errs, fmt.Errorf("%s %s: %w", m, n.FullPath(), err))
			}
		}
		return true
	})

	for _, err := range errs {
		r.emit(DiagFreezeIncomplete, "route will fail at dispatch", map[string]any{"error": err.Error()})
	}
	return errors.Join(errs...)
}

// Frozen reports whether the router stopped accepting registrations.
func (r *Router) Frozen() bool {
	return r.frozen.Load()
}

// Tree returns the underlying route tree for introspection.
func (r *Router) Tree() *tree.Tree {
	return r.tree
}

// Routes returns every registered route, sorted by pattern.
func (r *Router) Routes() []tree.RouteInfo {
	return r.tree.Routes()
}

// Find resolves method and target the way ServeHTTP does, without
// dispatching. Any query string or fragment in target is ignored.
//
// The error wraps [ErrRouteNotFound] when no route matches and
// [ErrMethodNotAllowed] when the route exists but does not accept method.
func (r *Router) Find(method, target string) (tree.Match, error) {
	path := stripQuery(target)
	m := r.tree.Match(path)
	if !m.Found() {
		return m, fmt.Errorf("%w: %s", ErrRouteNotFound, path)
	}
	if err := checkMethod(m.Node, method); err != nil {
		return m, err
	}
	return m, nil
}

func checkMethod(n *tree.Node, verb string) error {
	m, err := tree.ParseMethod(verb)
	if err == nil && n.HasMethod(m) {
		return nil
	}
	methods := n.Methods()
	allowed := make([]string, len(methods))
	for i, am := range methods {
		allowed[i] = am.String()
	}
	return &methodNotAllowedError{method: verb, allowed: allowed}
}

// stripQuery cuts a request target at the first '?' or '#'.
func stripQuery(target string) string {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		return target[:i]
	}
	return target
}

// URL builds the path of the route registered under alias, substituting
// params into its parameter segments from left to right. Values are
// path-escaped.
//
// Example:
//
//	r.GET("/users/:id/posts/:post", h, router.WithAlias("posts.show"))
//	u, _ := r.URL("posts.show", "42", "7") // "/users/42/posts/7"
func (r *Router) URL(alias string, params ...string) (string, error) {
	n := r.tree.Lookup(alias)
	if n == nil {
		return "", fmt.Errorf("%w: alias %q", ErrRouteNotFound, alias)
	}
	names := n.ParamNames()
	if len(params) < len(names) {
		return "", fmt.Errorf("%w: %q for alias %q", ErrMissingRouteParameter, names[len(params)], alias)
	}

	escaped := make([]string, len(params))
	for i, p := range params {
		escaped[i] = url.PathEscape(p)
	}
	return r.tree.URL(alias, escaped...), nil
}

// URLFor builds the path of the route registered under alias from named
// parameters and appends query, if any. Parameter names may be given with or
// without the leading colon.
func (r *Router) URLFor(alias string, params map[string]string, query url.Values) (string, error) {
	n := r.tree.Lookup(alias)
	if n == nil {
		return "", fmt.Errorf("%w: alias %q", ErrRouteNotFound, alias)
	}

	escaped := make(map[string]string, len(params))
	for k, v := range params {
		escaped[strings.TrimLeft(k, ":")] = url.PathEscape(v)
	}
	for _, name := range n.ParamNames() {
		if _, ok := escaped[name]; !ok {
			return "", fmt.Errorf("%w: %q for alias %q", ErrMissingRouteParameter, name, alias)
		}
	}
	// Every token of the template the tree substitutes into must be filled.
	for seg := range strings.SplitSeq(n.FullPath(), "/") {
		if strings.HasPrefix(seg, ":") {
			if _, ok := escaped[seg[1:]]; !ok {
				return "", fmt.Errorf("%w: %q for alias %q", ErrMissingRouteParameter, seg[1:], alias)
			}
		}
	}

	u := r.tree.URLWithParams(alias, escaped)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, nil
}

// MustURL is like URL but panics on error.
func (r *Router) MustURL(alias string, params ...string) string {
	u, err := r.URL(alias, params...)
	if err != nil {
		panic(fmt.Sprintf("MustURL failed: %v", err))
	}
	return u
}
