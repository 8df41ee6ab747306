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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teleroute/teleroute/tree"
)

func TestJoinPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, pattern, want string
	}{
		{"", "/users", "/users"},
		{"/api", "", "/api"},
		{"/api", "/users", "/api/users"},
		{"/api/", "/users", "/api/users"},
		{"/api", "users", "/api/users"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, joinPrefix(tt.prefix, tt.pattern), "%q + %q", tt.prefix, tt.pattern)
	}
}

func TestJoinName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, name, want string
	}{
		{"", "show", "show"},
		{"users", "", "users"},
		{"users", "show", "users.show"},
		{"api.", "users", "api.users"},
		{"api.", ".users.", "api.users"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, joinName(tt.prefix, tt.name))
	}
}

func TestGroup_NestedPrefixesInterceptorsAndAliases(t *testing.T) {
	t.Parallel()

	var order []string
	r := MustNew()
	for _, name := range []string{"auth", "audit", "rate"} {
		require.NoError(t, r.Interceptor(name, func(*Context) error {
			order = append(order, name)
			return nil
		}))
	}

	api := r.Group("/api", "auth").SetNamePrefix("api.")
	users := api.Group("/users", "audit").SetNamePrefix("users")
	assert.Equal(t, "/api/users", users.Prefix())

	require.NoError(t, users.GET("/:id", func(c *Context) {
		_ = c.String(http.StatusOK, "%s", c.Param("id"))
	}, WithAlias("show"), WithInterceptors("rate")))
	require.NoError(t, users.Route([]tree.Method{tree.MethodPost}, "", tree.Function{Fn: HandlerFunc(func(c *Context) {
		c.NoContent(http.StatusCreated)
	})}, WithAlias("create")))

	u, err := r.URL("api.users.show", "9")
	require.NoError(t, err)
	assert.Equal(t, "/api/users/9", u)

	u, err = r.URL("api.users.create")
	require.NoError(t, err)
	assert.Equal(t, "/api/users", u)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/9", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "9", w.Body.String())
	assert.Equal(t, []string{"auth", "audit", "rate"}, order)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/users", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"auth", "audit", "rate", "auth", "audit"}, order)
}

func TestGroup_UseAffectsLaterRoutesOnly(t *testing.T) {
	t.Parallel()

	r := MustNew()
	g := r.Group("/v1")
	require.NoError(t, g.GET("/open", func(*Context) {}))
	g.Use("auth")
	require.NoError(t, g.GET("/closed", func(*Context) {}))
	require.ErrorIs(t, g.DELETE("/x", nil), ErrNilHandler)

	open := r.Tree().Match("/v1/open").Node
	closed := r.Tree().Match("/v1/closed").Node
	require.NotNil(t, open)
	require.NotNil(t, closed)
	assert.False(t, open.HasInterceptorsForMethod(tree.MethodGet))

	names, err := closed.Interceptors(tree.MethodGet)
	require.NoError(t, err)
	assert.Equal(t, []string{"auth"}, names)
}

func TestGroup_AllVerbs(t *testing.T) {
	t.Parallel()

	r := MustNew()
	g := r.Group("/g")
	h := func(*Context) {}
	require.NoError(t, g.GET("/r", h))
	require.NoError(t, g.POST("/r", h))
	require.NoError(t, g.PUT("/r", h))
	require.NoError(t, g.PATCH("/r", h))
	require.NoError(t, g.DELETE("/r", h))
	require.NoError(t, g.HEAD("/r", h))
	require.NoError(t, g.OPTIONS("/r", h))

	n := r.Tree().Match("/g/r").Node
	require.NotNil(t, n)
	assert.Equal(t, tree.AllMethods(), n.Methods())
}
