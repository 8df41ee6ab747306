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

// Package config loads layered configuration from files, inline content,
// environment variables and Consul.
//
// Sources are applied in the order they are given; later sources override
// earlier ones key by key. Keys are case-insensitive and addressed with dots:
//
//	cfg := config.MustNew(
//	    config.WithFile("teleroute.yaml"),
//	    config.WithConsul("teleroute/${TELEROUTE_ENV}.yaml"),
//	    config.WithEnv("TELEROUTE_"),
//	)
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	addr := cfg.StringOr("server.addr", ":8080")
//
// Environment variables nest on a double underscore, so
// TELEROUTE_SERVER__READ_TIMEOUT becomes server.read_timeout.
//
// # Binding and validation
//
// Merged values can be checked against a JSON Schema, custom functions and
// bound into a struct. Bound structs get defaults from "default" tags and are
// validated with "validate" tags and their own Validate method:
//
//	var s config.Settings
//	cfg := config.MustNew(
//	    config.WithFile("teleroute.yaml"),
//	    config.WithJSONSchema(config.SettingsSchema),
//	    config.WithBinding(&s),
//	)
//
// [LoadSettings] wraps this for the settings of teleroute serve.
package config
