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
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Get returns the value at a dotted key, or nil. Keys are case-insensitive.
func (c *Config) Get(key string) any {
	if c == nil || key == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	key = strings.ToLower(key)
	if v, ok := c.values[key]; ok {
		return v
	}

	var current any = c.values
	for seg := range strings.SplitSeq(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		if current, ok = m[seg]; !ok {
			return nil
		}
	}
	return current
}

// Has reports whether key is set.
func (c *Config) Has(key string) bool { return c.Get(key) != nil }

// String returns the value at key as a string.
func (c *Config) String(key string) string { return cast.ToString(c.Get(key)) }

// Int returns the value at key as an int.
func (c *Config) Int(key string) int { return cast.ToInt(c.Get(key)) }

// Int64 returns the value at key as an int64.
func (c *Config) Int64(key string) int64 { return cast.ToInt64(c.Get(key)) }

// Float64 returns the value at key as a float64.
func (c *Config) Float64(key string) float64 { return cast.ToFloat64(c.Get(key)) }

// Bool returns the value at key as a bool.
func (c *Config) Bool(key string) bool { return cast.ToBool(c.Get(key)) }

// Duration returns the value at key as a duration. Strings use
// time.ParseDuration syntax; bare numbers are nanoseconds.
func (c *Config) Duration(key string) time.Duration { return cast.ToDuration(c.Get(key)) }

// StringSlice returns the value at key as a string slice. A string is split
// on commas.
func (c *Config) StringSlice(key string) []string {
	v := c.Get(key)
	if s, ok := v.(string); ok {
		if s == "" {
			return []string{}
		}
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return cast.ToStringSlice(v)
}

// StringMap returns the value at key as a map.
func (c *Config) StringMap(key string) map[string]any { return cast.ToStringMap(c.Get(key)) }

// StringOr is like [Config.String] with a fallback for unset keys.
func (c *Config) StringOr(key, def string) string {
	if v := c.Get(key); v != nil {
		return cast.ToString(v)
	}
	return def
}

// IntOr is like [Config.Int] with a fallback for unset keys.
func (c *Config) IntOr(key string, def int) int {
	if v := c.Get(key); v != nil {
		return cast.ToInt(v)
	}
	return def
}

// BoolOr is like [Config.Bool] with a fallback for unset keys.
func (c *Config) BoolOr(key string, def bool) bool {
	if v := c.Get(key); v != nil {
		return cast.ToBool(v)
	}
	return def
}

// DurationOr is like [Config.Duration] with a fallback for unset keys.
func (c *Config) DurationOr(key string, def time.Duration) time.Duration {
	if v := c.Get(key); v != nil {
		return cast.ToDuration(v)
	}
	return def
}
