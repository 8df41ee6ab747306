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

package router_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	trerrors "github.com/teleroute/teleroute/errors"
	"github.com/teleroute/teleroute/router"
	"github.com/teleroute/teleroute/tree"
)

func serve(r *router.Router, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func echoPattern(c *router.Context) {
	_ = c.String(http.StatusOK, "%s %v", c.Pattern(), c.ParamValues())
}

func problem(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRouter_Dispatch(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	require.NoError(t, r.GET("/users", echoPattern))
	require.NoError(t, r.GET("/users/:id", echoPattern))
	require.NoError(t, r.GET("/users/me", echoPattern))
	require.NoError(t, r.POST("/users/:id/posts/:post", echoPattern))
	require.NoError(t, r.GET("/:slug", echoPattern))

	tests := []struct {
		name   string
		method string
		target string
		status int
		body   string
	}{
		{"static", http.MethodGet, "/users", http.StatusOK, "/users []"},
		{"param", http.MethodGet, "/users/42", http.StatusOK, "/users/:id [42]"},
		{"static beats param", http.MethodGet, "/users/me", http.StatusOK, "/users/me []"},
		{"two params", http.MethodPost, "/users/1/posts/2", http.StatusOK, "/users/:id/posts/:post [1 2]"},
		{"root param", http.MethodGet, "/about", http.StatusOK, "/:slug [about]"},
		{"query stripped", http.MethodGet, "/users/42?expand=posts", http.StatusOK, "/users/:id [42]"},
		{"trailing slash", http.MethodGet, "/users/42/", http.StatusOK, "/users/:id [42]"},
		{"double slash", http.MethodGet, "//users//42", http.StatusOK, "/users/:id [42]"},
		{"escaped value", http.MethodGet, "/users/a%20b", http.StatusOK, "/users/:id [a b]"},
		{"too deep", http.MethodGet, "/users/42/posts", http.StatusNotFound, ""},
		{"unknown", http.MethodGet, "/a/b/c/d", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := serve(r, tt.method, tt.target)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestRouter_NotFoundProblem(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	require.NoError(t, r.GET("/users", echoPattern))

	w := serve(r, http.MethodGet, "/nope?x=1")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json; charset=utf-8", w.Header().Get("Content-Type"))

	body := problem(t, w)
	assert.InDelta(t, 404, body["status"], 0)
	assert.Equal(t, "/nope", body["instance"])
	assert.Contains(t, body["detail"], "route not found")
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	require.NoError(t, r.GET("/items/:id", echoPattern))
	require.NoError(t, r.DELETE("/items/:id", echoPattern))

	for _, method := range []string{http.MethodPost, "TRACE"} {
		w := serve(r, method, "/items/1")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.Equal(t, "GET, DELETE", strings.Join(w.Header().Values("Allow"), ", "), method)
		assert.Equal(t, "method_not_allowed", problem(t, w)["code"])
	}
}

func TestRouter_MatchAndAny(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	require.NoError(t, r.Match([]string{"get", " HEAD "}, "/status", echoPattern))
	require.NoError(t, r.Any("/echo", echoPattern))
	require.ErrorIs(t, r.Match([]string{"BREW"}, "/coffee", echoPattern), tree.ErrUnknownMethod)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodHead, "/status").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodPut, "/status").Code)
	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"} {
		assert.Equal(t, http.StatusOK, serve(r, m, "/echo").Code, m)
	}
}

func TestRouter_RegistrationErrors(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	require.ErrorIs(t, r.GET("/a", nil), router.ErrNilHandler)
	require.ErrorIs(t, r.Route([]tree.Method{tree.MethodGet}, "/a", nil), router.ErrNilHandler)
	require.ErrorIs(t, r.Route([]tree.Method{tree.MethodGet}, "/a", tree.Function{}), router.ErrNilHandler)
	require.ErrorIs(t, r.Interceptor("x", nil), router.ErrNilHandler)
	require.ErrorIs(t, r.GET("/-bad", echoPattern), tree.ErrPatternSyntax)
	require.ErrorIs(t, r.Route(nil, "/a", tree.Function{Fn: router.HandlerFunc(echoPattern)}), tree.ErrEmptyMethods)
}

func TestRouter_FreezesOnFirstRequest(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	require.NoError(t, r.GET("/a", echoPattern))
	assert.False(t, r.Frozen())

	serve(r, http.MethodGet, "/a")
	assert.True(t, r.Frozen())
	require.ErrorIs(t, r.GET("/b", echoPattern), router.ErrRouterFrozen)
	require.ErrorIs(t, r.Interceptor("late", func(*router.Context) error { return nil }), router.ErrRouterFrozen)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/b").Code)
}

func TestRouter_Interceptors(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []string
	record := func(name string) router.Interceptor {
		return func(c *router.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			c.Set(name, true)
			return nil
		}
	}

	r := router.MustNew()
	require.NoError(t, r.Interceptor("auth", record("auth")))
	require.NoError(t, r.Interceptor("audit", record("audit")))
	require.NoError(t, r.Interceptor("deny", func(*router.Context) error {
		return errors.New("not for you")
	}))
	require.NoError(t, r.Interceptor("teapot", func(*router.Context) error {
		return trerrors.WithStatus(errors.New("short and stout"), http.StatusTeapot)
	}))

	require.NoError(t, r.GET("/ok", func(c *router.Context) {
		_, seen := c.Get("audit")
		_ = c.String(http.StatusOK, "audit=%v", seen)
	}, router.WithInterceptors("auth", "audit")))
	require.NoError(t, r.GET("/denied", echoPattern, router.WithInterceptors("auth", "deny", "audit")))
	require.NoError(t, r.GET("/teapot", echoPattern, router.WithInterceptors("teapot")))
	require.NoError(t, r.GET("/missing", echoPattern, router.WithInterceptors("ghost")))

	w := serve(r, http.MethodGet, "/ok")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audit=true", w.Body.String())

	w = serve(r, http.MethodGet, "/denied")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "not for you", problem(t, w)["detail"])

	assert.Equal(t, http.StatusTeapot, serve(r, http.MethodGet, "/teapot").Code)

	w = serve(r, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, problem(t, w)["detail"], "unknown interceptor")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"auth", "audit", "auth"}, order)
}

func TestRouter_ClassMethodResolution(t *testing.T) {
	t.Parallel()

	reg := router.NewRegistry()
	reg.Register("UserController", "show", func(c *router.Context) {
		_ = c.String(http.StatusOK, "user %s", c.Param("id"))
	})

	r := router.MustNew(router.WithResolver(reg))
	get := []tree.Method{tree.MethodGet}
	require.NoError(t, r.Route(get, "/users/:id", tree.ClassMethod{Class: "UserController", Method: "show"}))
	require.NoError(t, r.Route(get, "/posts/:id", tree.ClassMethod{Class: "PostController", Method: "show"}))
	require.NoError(t, r.Route(get, "/odd", tree.Function{Fn: 42}))

	err := r.Freeze()
	require.ErrorIs(t, err, router.ErrHandlerUnresolved)
	assert.Contains(t, err.Error(), "PostController::show")
	assert.Contains(t, err.Error(), "int")

	w := serve(r, http.MethodGet, "/users/7")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user 7", w.Body.String())

	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodGet, "/posts/7").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodGet, "/odd").Code)

	assert.Equal(t, []tree.ClassMethod{{Class: "UserController", Method: "show"}}, reg.Refs())
}

func TestRouter_ResolverFunc(t *testing.T) {
	t.Parallel()

	boom := errors.New("container offline")
	r := router.MustNew(router.WithResolver(router.ResolverFunc(func(tree.ClassMethod) (router.HandlerFunc, error) {
		return nil, boom
	})))
	require.NoError(t, r.Route([]tree.Method{tree.MethodGet}, "/x", tree.ClassMethod{Class: "X", Method: "y"}))

	err := r.Freeze()
	require.ErrorIs(t, err, router.ErrHandlerUnresolved)
	require.ErrorIs(t, err, boom)

	noResolver := router.MustNew()
	require.NoError(t, noResolver.Route([]tree.Method{tree.MethodGet}, "/x", tree.ClassMethod{Class: "X", Method: "y"}))
	require.ErrorIs(t, noResolver.Freeze(), router.ErrNoResolver)
}

func TestRouter_PanicRecovery(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	require.NoError(t, r.GET("/panic", func(*router.Context) { panic("kaboom") }))

	w := serve(r, http.MethodGet, "/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, problem(t, w)["detail"], "kaboom")

	noRecovery := router.MustNew(router.WithRecovery(false))
	require.NoError(t, noRecovery.GET("/panic", func(*router.Context) { panic("kaboom") }))
	assert.Panics(t, func() { serve(noRecovery, http.MethodGet, "/panic") })
}

func TestRouter_RequestID(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	require.NoError(t, r.GET("/id", func(c *router.Context) {
		_ = c.String(http.StatusOK, "%s", c.RequestID())
	}))

	w := serve(r, http.MethodGet, "/id")
	id, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, id.String(), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-ID", "upstream-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-ID", "has space")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "has space", w.Body.String())

	off := router.MustNew(router.WithoutRequestID())
	require.NoError(t, off.GET("/id", func(c *router.Context) {
		_ = c.String(http.StatusOK, "[%s]", c.RequestID())
	}))
	w = serve(off, http.MethodGet, "/id")
	assert.Empty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "[]", w.Body.String())
}

func TestRouter_ContextAccessors(t *testing.T) {
	t.Parallel()

	type limits struct{ RPS int }
	r := router.MustNew()
	require.NoError(t, r.PUT("/orgs/:org/repos/:repo", func(c *router.Context) {
		assert.Equal(t, "acme", c.Param("org"))
		assert.Equal(t, "", c.Param("missing"))
		assert.Equal(t, map[string]string{"org": "acme", "repo": "web"}, c.Params())
		assert.Equal(t, tree.MethodPut, c.Method())
		assert.Equal(t, limits{RPS: 5}, c.Extra())
		assert.Equal(t, "repos.update", c.Route().Alias())
		assert.NotNil(t, c.Logger())
		u, err := c.URL("repos.update", "acme", "api")
		assert.NoError(t, err)
		assert.Equal(t, "/orgs/acme/repos/api", u)
		_ = c.JSON(http.StatusAccepted, map[string]string{"ok": "yes"})
	}, router.WithExtra(limits{RPS: 5}), router.WithAlias("repos.update")))

	w := serve(r, http.MethodPut, "/orgs/acme/repos/web")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"ok":"yes"}`, w.Body.String())
}

func TestRouter_RepeatedParamName(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	require.NoError(t, r.GET("/:i/hi/1/2/:i", func(c *router.Context) {
		assert.Equal(t, "ee", c.Param("i"))
		assert.Equal(t, map[string]string{"i": "ee"}, c.Params())
		assert.Equal(t, []string{"ee", "hello"}, c.ParamValues())
		c.NoContent(http.StatusNoContent)
	}))

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/ee/hi/1/2/hello").Code)
}

func TestRouter_URLRoundTrip(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	require.NoError(t, r.GET("/files/:name/rev/:rev", func(c *router.Context) {
		_ = c.String(http.StatusOK, "%s@%s", c.Param("name"), c.Param("rev"))
	}, router.WithAlias("file")))

	tests := []struct {
		name, rev string
	}{
		{"a/b", "1"},
		{"dir/sub/file.txt", "2"},
		{"100%", "3"},
		{"with space", "a/b%2F"},
		{"caf\u00e9", "x"},
	}
	for _, tt := range tests {
		u, err := r.URL("file", tt.name, tt.rev)
		require.NoError(t, err)

		w := serve(r, http.MethodGet, u)
		require.Equal(t, http.StatusOK, w.Code, "GET %s", u)
		assert.Equal(t, tt.name+"@"+tt.rev, w.Body.String(), "GET %s", u)
	}
}

func TestRouter_URLForAfterParamRename(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	require.NoError(t, r.GET("/post/:slug/edit", echoPattern, router.WithAlias("edit")))
	require.NoError(t, r.GET("/post/:id", echoPattern))

	u, err := r.URLFor("edit", map[string]string{"id": "5"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/post/5/edit", u)

	_, err = r.URLFor("edit", map[string]string{"slug": "5"}, nil)
	require.ErrorIs(t, err, router.ErrMissingRouteParameter)
	assert.Contains(t, err.Error(), `"id"`)

	w := serve(r, http.MethodGet, u)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/post/:id/edit [5]", w.Body.String())
}

func TestRouter_URL(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	require.NoError(t, r.GET("/users/:id/posts/:post", echoPattern, router.WithAlias("posts.show")))
	require.NoError(t, r.GET("/about", echoPattern, router.WithAlias("about")))

	u, err := r.URL("posts.show", "42", "7")
	require.NoError(t, err)
	assert.Equal(t, "/users/42/posts/7", u)

	u, err = r.URL("posts.show", "a b", "x/y")
	require.NoError(t, err)
	assert.Equal(t, "/users/a%20b/posts/x%2Fy", u)

	_, err = r.URL("posts.show", "42")
	require.ErrorIs(t, err, router.ErrMissingRouteParameter)
	assert.Contains(t, err.Error(), `"post"`)

	_, err = r.URL("nope")
	require.ErrorIs(t, err, router.ErrRouteNotFound)

	u, err = r.URLFor("posts.show", map[string]string{":id": "1", "post": "2"}, url.Values{"page": {"3"}})
	require.NoError(t, err)
	assert.Equal(t, "/users/1/posts/2?page=3", u)

	_, err = r.URLFor("posts.show", map[string]string{"id": "1"}, nil)
	require.ErrorIs(t, err, router.ErrMissingRouteParameter)

	assert.Equal(t, "/about", r.MustURL("about"))
	assert.Panics(t, func() { r.MustURL("nope") })
}

func TestRouter_FindAndRoutes(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	require.NoError(t, r.GET("/a/b/c/d", echoPattern))
	require.NoError(t, r.POST("/a/:x", echoPattern))

	m, err := r.Find("GET", "/a/b/c/d?q=1#frag")
	require.NoError(t, err)
	assert.True(t, m.Static)

	_, err = r.Find("GET", "/a/1")
	require.ErrorIs(t, err, router.ErrMethodNotAllowed)

	_, err = r.Find("GET", "/zzz")
	require.ErrorIs(t, err, router.ErrRouteNotFound)

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, "/a/:x", routes[0].Pattern)
	assert.Equal(t, "/a/b/c/d", routes[1].Pattern)
	assert.Same(t, r.Tree().Root(), r.Tree().Root())
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []router.Outcome
	skip     string
}

type ctxKey struct{}

func (o *recordingObserver) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	if req.URL.Path == o.skip {
		return ctx, nil
	}
	return context.WithValue(ctx, ctxKey{}, "seen"), struct{}{}
}

func (o *recordingObserver) OnRequestEnd(ctx context.Context, _ any, out router.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ctx.Value(ctxKey{}) == "seen" {
		o.outcomes = append(o.outcomes, out)
	}
}

func TestRouter_Observability(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{skip: "/health"}
	r := router.MustNew(router.WithObservability(obs))
	require.NoError(t, r.GET("/health", echoPattern))
	require.NoError(t, r.GET("/a/b/c/:d", func(c *router.Context) {
		assert.Equal(t, "seen", c.Request.Context().Value(ctxKey{}))
		c.NoContent(http.StatusNoContent)
	}))
	require.NoError(t, r.GET("/x/:y", echoPattern))
	require.NoError(t, r.GET("/x/z", echoPattern))

	serve(r, http.MethodGet, "/health")
	serve(r, http.MethodGet, "/a/b/c/1")
	serve(r, http.MethodGet, "/x/1")
	serve(r, http.MethodGet, "/missing")
	serve(r, http.MethodPost, "/x/1")

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Len(t, obs.outcomes, 4)

	assert.Equal(t, "/a/b/c/:d", obs.outcomes[0].Pattern)
	assert.Equal(t, router.StrategyTeleport, obs.outcomes[0].Strategy)
	assert.Equal(t, http.StatusNoContent, obs.outcomes[0].Status)
	assert.NotEmpty(t, obs.outcomes[0].RequestID)

	assert.Equal(t, router.StrategyWalk, obs.outcomes[1].Strategy)
	assert.Equal(t, http.StatusOK, obs.outcomes[1].Status)
	assert.Positive(t, obs.outcomes[1].Size)

	assert.Equal(t, router.PatternNotFound, obs.outcomes[2].Pattern)
	assert.Equal(t, router.StrategyMiss, obs.outcomes[2].Strategy)
	require.ErrorIs(t, obs.outcomes[2].Err, router.ErrRouteNotFound)

	assert.Equal(t, "/x/:y", obs.outcomes[3].Pattern)
	assert.Equal(t, http.StatusMethodNotAllowed, obs.outcomes[3].Status)
	require.ErrorIs(t, obs.outcomes[3].Err, router.ErrMethodNotAllowed)
}

func TestRouter_SimpleErrorFormatter(t *testing.T) {
	t.Parallel()

	r := router.MustNew(router.WithErrorFormatter(trerrors.NewSimple()))
	w := serve(r, http.MethodGet, "/none")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, problem(t, w)["error"], "route not found")
}

func TestRouter_InvalidConfiguration(t *testing.T) {
	t.Parallel()

	_, err := router.New(router.WithBloomFilterSize(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "router configuration validation failed")
	assert.Panics(t, func() { router.MustNew(router.WithBloomFilterSize(0)) })
}
