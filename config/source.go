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
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/consul/api"
)

// Source produces one layer of configuration values.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// SourceFunc adapts a function to [Source].
type SourceFunc func(ctx context.Context) (map[string]any, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) (map[string]any, error) { return f(ctx) }

// FileSource reads a file on every Load.
type FileSource struct {
	path   string
	format Format
}

// NewFileSource returns a source for the file at path.
func NewFileSource(path string, format Format) *FileSource {
	return &FileSource{path: path, format: format}
}

// Load implements [Source].
func (f *FileSource) Load(context.Context) (map[string]any, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	values, err := Decode(f.format, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f.path, err)
	}
	return values, nil
}

// ContentSource decodes a fixed byte slice.
type ContentSource struct {
	data   []byte
	format Format
}

// NewContentSource returns a source for inline content.
func NewContentSource(data []byte, format Format) *ContentSource {
	return &ContentSource{data: data, format: format}
}

// Load implements [Source].
func (c *ContentSource) Load(context.Context) (map[string]any, error) {
	values, err := Decode(c.format, c.data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	return values, nil
}

// EnvSeparator splits environment variable names into nested keys.
const EnvSeparator = "__"

// EnvSource reads environment variables with a prefix. The prefix is
// stripped, names are lowercased and [EnvSeparator] nests them.
//
//	TELEROUTE_LOG__LEVEL=debug    -> log.level = "debug"
//	TELEROUTE_MANIFEST=routes.yml -> manifest = "routes.yml"
type EnvSource struct {
	prefix  string
	environ func() []string
}

// NewEnvSource returns a source for variables starting with prefix.
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{prefix: prefix, environ: os.Environ}
}

// Load implements [Source].
func (e *EnvSource) Load(context.Context) (map[string]any, error) {
	out := make(map[string]any)
	for _, kv := range e.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, e.prefix) {
			continue
		}
		name = strings.TrimPrefix(name, e.prefix)

		parts := make([]string, 0, 4)
		for p := range strings.SplitSeq(strings.ToLower(name), EnvSeparator) {
			if p = strings.Trim(p, "_ "); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}

		current := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := current[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[p] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = strings.TrimSpace(value)
	}
	return out, nil
}

// ConsulKV is the part of the Consul KV API the source needs.
type ConsulKV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
}

// ConsulSource reads one key from Consul's KV store. A missing key yields
// no values.
type ConsulSource struct {
	kv        ConsulKV
	key       string
	format    Format
	lastIndex uint64
}

// NewConsulSource returns a source for key. When kv is nil a client is
// built from the CONSUL_HTTP_ADDR and CONSUL_HTTP_TOKEN environment.
func NewConsulSource(key string, format Format, kv ConsulKV) (*ConsulSource, error) {
	if kv == nil {
		client, err := api.NewClient(api.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create consul client: %w", err)
		}
		kv = client.KV()
	}
	return &ConsulSource{kv: kv, key: key, format: format}, nil
}

// Load implements [Source].
func (c *ConsulSource) Load(ctx context.Context) (map[string]any, error) {
	pair, meta, err := c.kv.Get(c.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get consul key: %w", err)
	}
	if meta != nil {
		c.lastIndex = meta.LastIndex
	}
	if pair == nil {
		return make(map[string]any), nil
	}

	values, err := Decode(c.format, pair.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode consul value: %w", err)
	}
	return values, nil
}

// LastIndex returns the Consul index seen by the latest Load.
func (c *ConsulSource) LastIndex() uint64 { return c.lastIndex }
