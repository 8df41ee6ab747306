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
	"fmt"
	"maps"

	"github.com/teleroute/teleroute/router"
)

// SecurityOption configures [SecurityHeaders].
type SecurityOption func(*securityConfig)

type securityConfig struct {
	frameOptions      string
	nosniff           bool
	hstsMaxAge        int
	hstsSubdomains    bool
	hstsPreload       bool
	csp               string
	referrerPolicy    string
	permissionsPolicy string
	custom            map[string]string
}

// WithFrameOptions sets X-Frame-Options. Empty disables it.
func WithFrameOptions(v string) SecurityOption {
	return func(cfg *securityConfig) { cfg.frameOptions = v }
}

// WithContentSecurityPolicy sets Content-Security-Policy. Empty disables it.
func WithContentSecurityPolicy(v string) SecurityOption {
	return func(cfg *securityConfig) { cfg.csp = v }
}

// WithReferrerPolicy sets Referrer-Policy. Empty disables it.
func WithReferrerPolicy(v string) SecurityOption {
	return func(cfg *securityConfig) { cfg.referrerPolicy = v }
}

// WithPermissionsPolicy sets Permissions-Policy.
func WithPermissionsPolicy(v string) SecurityOption {
	return func(cfg *securityConfig) { cfg.permissionsPolicy = v }
}

// WithHSTS configures Strict-Transport-Security, sent on TLS requests only.
// A maxAge of zero disables it.
func WithHSTS(maxAge int, includeSubdomains, preload bool) SecurityOption {
	return func(cfg *securityConfig) {
		cfg.hstsMaxAge = maxAge
		cfg.hstsSubdomains = includeSubdomains
		cfg.hstsPreload = preload
	}
}

// WithHeader adds a custom response header.
func WithHeader(name, value string) SecurityOption {
	return func(cfg *securityConfig) { cfg.custom[name] = value }
}

// SecurityHeaders sets hardening response headers and never rejects.
//
// Defaults:
//   - X-Frame-Options: DENY
//   - X-Content-Type-Options: nosniff
//   - Strict-Transport-Security: max-age=31536000; includeSubDomains
//   - Content-Security-Policy: default-src 'self'
//   - Referrer-Policy: strict-origin-when-cross-origin
func SecurityHeaders(opts ...SecurityOption) router.Interceptor {
	cfg := &securityConfig{
		frameOptions:   "DENY",
		nosniff:        true,
		hstsMaxAge:     31536000,
		hstsSubdomains: true,
		csp:            "default-src 'self'",
		referrerPolicy: "strict-origin-when-cross-origin",
		custom:         make(map[string]string),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	static := make(map[string]string, 5+len(cfg.custom))
	set := func(name, value string) {
		if value != "" {
			static[name] = value
		}
	}
	set("X-Frame-Options", cfg.frameOptions)
	if cfg.nosniff {
		set("X-Content-Type-Options", "nosniff")
	}
	set("Content-Security-Policy", cfg.csp)
	set("Referrer-Policy", cfg.referrerPolicy)
	set("Permissions-Policy", cfg.permissionsPolicy)
	maps.Copy(static, cfg.custom)

	var hsts string
	if cfg.hstsMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d", cfg.hstsMaxAge)
		if cfg.hstsSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.hstsPreload {
			hsts += "; preload"
		}
	}

	return func(c *router.Context) error {
		h := c.Response.Header()
		for name, value := range static {
			h.Set(name, value)
		}
		if hsts != "" && c.Request.TLS != nil {
			h.Set("Strict-Transport-Security", hsts)
		}
		return nil
	}
}
