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

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Parallel()

	s, cfg, err := LoadSettings(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":8080", s.Server.Addr)
	assert.Equal(t, 10*time.Second, s.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, s.Server.ShutdownTimeout)
	assert.Equal(t, "X-Request-ID", s.Router.RequestIDHeader)
	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, "console", s.Log.Format)
	assert.Equal(t, "prometheus", s.Metrics.Provider)
	assert.Equal(t, "/metrics", s.Metrics.Path)
	assert.Equal(t, "noop", s.Tracing.Provider)
	assert.InDelta(t, 1.0, s.Tracing.SampleRate, 1e-9)
	assert.Equal(t, "memory", s.Snapshot.Store)
	assert.Equal(t, "teleroute:snapshot:", s.Snapshot.KeyPrefix)
}

func TestLoadSettings_Layers(t *testing.T) {
	t.Parallel()

	s, _, err := LoadSettings(context.Background(),
		WithContent([]byte(`
manifest: routes.yaml
server:
  addr: ":9000"
  write_timeout: 5s
router:
  bloom_size: 4096
  static_bloom_threshold: 8
log:
  format: json
  access_log: true
  exclude_paths: [/health]
metrics:
  provider: otlp
  endpoint: "collector:4318"
tracing:
  provider: otlp
  endpoint: "collector:4317"
  insecure: true
  sample_rate: 0.1
snapshot:
  store: redis
  redis_addr: "localhost:6379"
  ttl: 1h
interceptors:
  security_headers: true
  cors_origins: "https://a.example,https://b.example"
  rate_limit: 2.5
  basic_auth_users:
    ada: lovelace
`), FormatYAML),
		WithSource(envSource("TELEROUTE_", "TELEROUTE_LOG__LEVEL=debug", "TELEROUTE_ROUTER__DISABLE_RECOVERY=true")),
	)
	require.NoError(t, err)

	assert.Equal(t, "routes.yaml", s.Manifest)
	assert.Equal(t, ":9000", s.Server.Addr)
	assert.Equal(t, 5*time.Second, s.Server.WriteTimeout)
	assert.Equal(t, uint64(4096), s.Router.BloomSize)
	assert.Equal(t, 8, s.Router.StaticBloomThreshold)
	assert.True(t, s.Router.DisableRecovery)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "json", s.Log.Format)
	assert.True(t, s.Log.AccessLog)
	assert.Equal(t, []string{"/health"}, s.Log.ExcludePaths)
	assert.Equal(t, "collector:4318", s.Metrics.Endpoint)
	assert.True(t, s.Tracing.Insecure)
	assert.InDelta(t, 0.1, s.Tracing.SampleRate, 1e-9)
	assert.Equal(t, "redis", s.Snapshot.Store)
	assert.Equal(t, time.Hour, s.Snapshot.TTL)
	assert.True(t, s.Interceptors.SecurityHeaders)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.Interceptors.CORSOrigins)
	assert.InDelta(t, 2.5, s.Interceptors.RateLimit, 1e-9)
	assert.Equal(t, "teleroute", s.Interceptors.AuthRealm)
	assert.Equal(t, map[string]string{"ada": "lovelace"}, s.Interceptors.BasicAuthUsers)
}

func TestLoadSettings_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		source  string
		field   string
	}{
		{"unknown key", "servr:\n  addr: x\n", "json-schema", ""},
		{"unknown provider", "metrics:\n  provider: statsd\n", "json-schema", ""},
		{"otlp metrics without endpoint", "metrics:\n  provider: otlp\n", "binding", "Metrics.Endpoint"},
		{"redis without address", "snapshot:\n  store: redis\n", "binding", "Snapshot.RedisAddr"},
		{"sample rate above one", "tracing:\n  sample_rate: 2\n", "binding", "Tracing.SampleRate"},
		{"tiny bloom", "router:\n  bloom_size: 8\n", "binding", "Router.BloomSize"},
		{"negative body limit", "interceptors:\n  body_limit: -1\n", "binding", "Interceptors.BodyLimit"},
		{"otlp tracing without endpoint", "tracing:\n  provider: otlp-http\n", "binding", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := LoadSettings(context.Background(), WithContent([]byte(tt.content), FormatYAML))
			var cerr *Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.source, cerr.Source)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}
