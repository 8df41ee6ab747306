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

package main

import "github.com/caarlos0/env/v11"

// cliEnv is the command's own environment. Serve settings use the separate
// TELEROUTE_ prefix handled by the config package.
type cliEnv struct {
	Config    string `env:"TELEROUTECTL_CONFIG"`
	Manifest  string `env:"TELEROUTECTL_MANIFEST"`
	LogLevel  string `env:"TELEROUTECTL_LOG_LEVEL" envDefault:"info"`
	ConsulKey string `env:"TELEROUTECTL_CONSUL_KEY"`
	NoColor   bool   `env:"NO_COLOR"`
}

func parseEnv(environ []string) (cliEnv, error) {
	var e cliEnv
	err := env.ParseWithOptions(&e, env.Options{Environment: env.ToMap(environ)})
	return e, err
}
