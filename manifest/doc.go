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

// Package manifest declares routes in YAML, TOML or JSON and applies them
// to a [router.Router].
//
// A manifest is a tree of groups. Each group may add a path prefix,
// interceptors and an alias prefix, and holds routes and nested groups:
//
//	version: 1
//	interceptors: [request-log]
//	routes:
//	  - pattern: /health
//	    methods: GET
//	    handler: HealthController::check
//	groups:
//	  - prefix: /api/users
//	    alias: users
//	    interceptors: [auth]
//	    routes:
//	      - pattern: /:id
//	        methods: [GET, HEAD]
//	        class: UserController
//	        method: show
//	        alias: show            # users.show
//	        extra: {cache_ttl: 60}
//
// Handlers are class-method references, written either as "Class::method"
// or with separate class and method keys. They are resolved by the router's
// [router.Resolver] at dispatch time.
package manifest
