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
	_ "embed"
	"errors"
	"time"
)

// SettingsSchema is the JSON Schema of [Settings] documents.
//
//go:embed settings.schema.json
var SettingsSchema []byte

// Settings configures teleroute serve.
type Settings struct {
	// Manifest is the route manifest to serve.
	Manifest string `config:"manifest"`

	Server   ServerSettings   `config:"server"`
	Router   RouterSettings   `config:"router"`
	Log      LogSettings      `config:"log"`
	Metrics  MetricsSettings  `config:"metrics"`
	Tracing  TracingSettings  `config:"tracing"`
	Snapshot SnapshotSettings `config:"snapshot"`

	Interceptors InterceptorSettings `config:"interceptors"`
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Addr            string        `config:"addr" default:":8080" validate:"required"`
	ReadTimeout     time.Duration `config:"read_timeout" default:"10s" validate:"gte=0"`
	WriteTimeout    time.Duration `config:"write_timeout" default:"30s" validate:"gte=0"`
	IdleTimeout     time.Duration `config:"idle_timeout" default:"60s" validate:"gte=0"`
	ShutdownTimeout time.Duration `config:"shutdown_timeout" default:"15s" validate:"gt=0"`
}

// RouterSettings configures the router.
type RouterSettings struct {
	RequestIDHeader      string `config:"request_id_header" default:"X-Request-ID"`
	DisableRequestID     bool   `config:"disable_request_id"`
	DisableRecovery      bool   `config:"disable_recovery"`
	BloomSize            uint64 `config:"bloom_size" validate:"omitempty,gte=64"`
	BloomHashFunctions   int    `config:"bloom_hash_functions" validate:"omitempty,gte=1,lte=16"`
	StaticBloomThreshold int    `config:"static_bloom_threshold" validate:"gte=0"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level        string   `config:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Format       string   `config:"format" default:"console" validate:"oneof=json text console charm"`
	AccessLog    bool     `config:"access_log"`
	RedactKeys   []string `config:"redact_keys"`
	ExcludePaths []string `config:"exclude_paths"`
}

// MetricsSettings configures metrics.
type MetricsSettings struct {
	Provider      string        `config:"provider" default:"prometheus" validate:"oneof=prometheus otlp stdout none"`
	Path          string        `config:"path" default:"/metrics" validate:"startswith=/"`
	Endpoint      string        `config:"endpoint" validate:"required_if=Provider otlp"`
	Interval      time.Duration `config:"interval" default:"30s"`
	ExcludePaths  []string      `config:"exclude_paths"`
	ExcludeRoutes []string      `config:"exclude_routes"`
}

// TracingSettings configures tracing. A zero SampleRate means unset and
// samples everything.
type TracingSettings struct {
	Provider   string  `config:"provider" default:"noop" validate:"oneof=noop stdout otlp otlp-http"`
	Endpoint   string  `config:"endpoint"`
	Insecure   bool    `config:"insecure"`
	SampleRate float64 `config:"sample_rate" default:"1" validate:"gte=0,lte=1"`
}

// SnapshotSettings configures where tree snapshots are kept.
type SnapshotSettings struct {
	Store     string        `config:"store" default:"memory" validate:"oneof=memory redis"`
	RedisAddr string        `config:"redis_addr" validate:"required_if=Store redis"`
	KeyPrefix string        `config:"key_prefix" default:"teleroute:snapshot:"`
	TTL       time.Duration `config:"ttl" validate:"gte=0"`
}

// InterceptorSettings enables the built-in interceptors registered by
// serve. Each is registered only when configured.
type InterceptorSettings struct {
	SecurityHeaders bool              `config:"security_headers"`
	CORSOrigins     []string          `config:"cors_origins"`
	RateLimit       float64           `config:"rate_limit" validate:"gte=0"`
	RateBurst       int               `config:"rate_burst" validate:"gte=0"`
	BodyLimit       int64             `config:"body_limit" validate:"gte=0"`
	AuthRealm       string            `config:"auth_realm" default:"teleroute"`
	BasicAuthUsers  map[string]string `config:"basic_auth_users"`
}

// Validate checks constraints spanning several fields.
func (s *Settings) Validate() error {
	if s.Tracing.Endpoint == "" && (s.Tracing.Provider == "otlp" || s.Tracing.Provider == "otlp-http") {
		return errors.New("tracing.endpoint is required for OTLP providers")
	}
	return nil
}

// LoadSettings loads [Settings] from opts, validating against
// [SettingsSchema].
func LoadSettings(ctx context.Context, opts ...Option) (*Settings, *Config, error) {
	var s Settings
	all := make([]Option, 0, len(opts)+2)
	all = append(all, opts...)
	all = append(all, WithJSONSchema(SettingsSchema), WithBinding(&s))

	cfg, err := New(all...)
	if err != nil {
		return nil, nil, err
	}
	if err = cfg.Load(ctx); err != nil {
		return nil, nil, err
	}
	return &s, cfg, nil
}
