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

package router_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teleroute/teleroute/router"
)

func TestSlogDiagnostics(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := router.MustNew(router.WithLogger(logger))

	require.NoError(t, r.GET("/users/:id", echoPattern))
	require.NoError(t, r.GET("/users/:uid", echoPattern))
	serve(r, http.MethodGet, "/users/1")

	var kinds []string
	levels := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		kind, _ := rec["kind"].(string)
		kinds = append(kinds, kind)
		levels[kind], _ = rec["level"].(string)
	}

	assert.Contains(t, kinds, string(router.DiagRouteRegistered))
	assert.Contains(t, kinds, string(router.DiagParamRenamed))
	assert.Contains(t, kinds, string(router.DiagRouteOverwritten))
	assert.Equal(t, "DEBUG", levels[string(router.DiagRouteRegistered)])
	assert.Equal(t, "INFO", levels[string(router.DiagRouteOverwritten)])
}

func TestCustomDiagnosticsHandler(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var events []router.DiagnosticEvent
	r := router.MustNew(router.WithDiagnostics(router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})))

	require.NoError(t, r.Interceptor("deny", func(*router.Context) error { return assert.AnError }))
	require.NoError(t, r.GET("/a", echoPattern, router.WithInterceptors("deny")))
	require.NoError(t, r.GET("/b", echoPattern, router.WithInterceptors("ghost")))
	serve(r, http.MethodGet, "/a")

	mu.Lock()
	defer mu.Unlock()
	var kinds []router.DiagnosticKind
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, router.DiagFreezeIncomplete)
	assert.Contains(t, kinds, router.DiagInterceptorRejected)

	last := events[len(events)-1]
	assert.Equal(t, router.DiagInterceptorRejected, last.Kind)
	assert.Equal(t, "deny", last.Fields["interceptor"])
	assert.Equal(t, "/a", last.Fields["pattern"])
}
