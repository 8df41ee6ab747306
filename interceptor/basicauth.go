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

package interceptor

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	trerrors "github.com/teleroute/teleroute/errors"
	"github.com/teleroute/teleroute/router"
)

// UserKey is the context key under which [BasicAuth] stores the
// authenticated user name.
const UserKey = "interceptor.user"

// BasicAuthOption configures [BasicAuth].
type BasicAuthOption func(*basicAuthConfig)

type basicAuthConfig struct {
	users     map[string]string
	realm     string
	validator func(user, password string) bool
	skipPaths map[string]bool
}

// WithUsers sets the accepted user/password pairs. Passwords are compared
// in constant time.
func WithUsers(users map[string]string) BasicAuthOption {
	return func(cfg *basicAuthConfig) { cfg.users = users }
}

// WithRealm sets the realm announced in WWW-Authenticate. Default
// "Restricted".
func WithRealm(realm string) BasicAuthOption {
	return func(cfg *basicAuthConfig) { cfg.realm = realm }
}

// WithCredentialValidator checks credentials with fn instead of the user
// table.
func WithCredentialValidator(fn func(user, password string) bool) BasicAuthOption {
	return func(cfg *basicAuthConfig) { cfg.validator = fn }
}

// WithAuthSkipPaths lets requests to the given route patterns through
// without credentials.
func WithAuthSkipPaths(patterns ...string) BasicAuthOption {
	return func(cfg *basicAuthConfig) {
		for _, p := range patterns {
			cfg.skipPaths[p] = true
		}
	}
}

// BasicAuth rejects requests without valid HTTP basic credentials with 401.
func BasicAuth(opts ...BasicAuthOption) router.Interceptor {
	cfg := &basicAuthConfig{realm: "Restricted", skipPaths: make(map[string]bool)}
	for _, opt := range opts {
		opt(cfg)
	}
	challenge := "Basic realm=" + strconv.Quote(cfg.realm)

	return func(c *router.Context) error {
		if cfg.skipPaths[c.Pattern()] {
			return nil
		}
		user, password, ok := c.Request.BasicAuth()
		if ok && cfg.check(user, password) {
			c.Set(UserKey, user)
			return nil
		}
		c.Response.Header().Set("WWW-Authenticate", challenge)
		return trerrors.WithStatus(ErrUnauthorized, http.StatusUnauthorized)
	}
}

func (cfg *basicAuthConfig) check(user, password string) bool {
	if cfg.validator != nil {
		return cfg.validator(user, password)
	}
	want, ok := cfg.users[user]
	if !ok {
		// Compare anyway so unknown users take as long as known ones.
		want = password + "x"
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(want)) == 1 && ok
}
