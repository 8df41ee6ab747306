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
	"net/http"
	"slices"
	"strconv"
	"strings"

	trerrors "github.com/teleroute/teleroute/errors"
	"github.com/teleroute/teleroute/router"
)

// CORSOption configures [CORS].
type CORSOption func(*corsConfig)

type corsConfig struct {
	allowedOrigins   []string
	allowAll         bool
	allowedMethods   []string
	allowedHeaders   []string
	exposedHeaders   []string
	allowCredentials bool
	maxAge           int
	originFunc       func(origin string) bool
	reject           bool
}

// WithAllowedOrigins sets the accepted origins.
func WithAllowedOrigins(origins ...string) CORSOption {
	return func(cfg *corsConfig) {
		cfg.allowedOrigins = origins
		cfg.allowAll = false
	}
}

// WithAllowAllOrigins answers every origin with "*". Ignored when
// credentials are allowed.
func WithAllowAllOrigins() CORSOption {
	return func(cfg *corsConfig) { cfg.allowAll = true }
}

// WithAllowedMethods sets Access-Control-Allow-Methods.
func WithAllowedMethods(methods ...string) CORSOption {
	return func(cfg *corsConfig) { cfg.allowedMethods = methods }
}

// WithAllowedHeaders sets Access-Control-Allow-Headers.
func WithAllowedHeaders(headers ...string) CORSOption {
	return func(cfg *corsConfig) { cfg.allowedHeaders = headers }
}

// WithExposedHeaders sets Access-Control-Expose-Headers.
func WithExposedHeaders(headers ...string) CORSOption {
	return func(cfg *corsConfig) { cfg.exposedHeaders = headers }
}

// WithAllowCredentials sets Access-Control-Allow-Credentials.
func WithAllowCredentials() CORSOption {
	return func(cfg *corsConfig) { cfg.allowCredentials = true }
}

// WithMaxAge sets the preflight cache lifetime in seconds. Default 3600.
func WithMaxAge(seconds int) CORSOption {
	return func(cfg *corsConfig) { cfg.maxAge = seconds }
}

// WithAllowOriginFunc accepts origins for which fn returns true, in
// addition to the allow list.
func WithAllowOriginFunc(fn func(origin string) bool) CORSOption {
	return func(cfg *corsConfig) { cfg.originFunc = fn }
}

// WithRejectDisallowed answers requests from unknown origins with 403
// instead of serving them without CORS headers.
func WithRejectDisallowed() CORSOption {
	return func(cfg *corsConfig) { cfg.reject = true }
}

// CORS sets cross-origin response headers. Preflight requests need an
// OPTIONS route; the interceptor adds the preflight headers to it.
func CORS(opts ...CORSOption) router.Interceptor {
	cfg := &corsConfig{
		allowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		allowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		maxAge:         3600,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	methods := strings.Join(cfg.allowedMethods, ", ")
	headers := strings.Join(cfg.allowedHeaders, ", ")
	exposed := strings.Join(cfg.exposedHeaders, ", ")

	return func(c *router.Context) error {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			return nil
		}
		h := c.Response.Header()
		h.Add("Vary", "Origin")

		switch {
		case cfg.allowAll && !cfg.allowCredentials:
			h.Set("Access-Control-Allow-Origin", "*")
		case cfg.allowed(origin):
			h.Set("Access-Control-Allow-Origin", origin)
		case cfg.reject:
			return trerrors.WithStatus(ErrOriginNotAllowed, http.StatusForbidden)
		default:
			return nil
		}

		if cfg.allowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if exposed != "" {
			h.Set("Access-Control-Expose-Headers", exposed)
		}
		if c.Request.Method == http.MethodOptions && c.Request.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if cfg.maxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.maxAge))
			}
		}
		return nil
	}
}

func (cfg *corsConfig) allowed(origin string) bool {
	if cfg.allowAll || slices.Contains(cfg.allowedOrigins, origin) {
		return true
	}
	return cfg.originFunc != nil && cfg.originFunc(origin)
}
