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

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalWidth_NotATerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	assert.Zero(t, terminalWidth(&buf))
	assert.Zero(t, terminalWidth(colorWriter(&buf, nil, true)))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	assert.Zero(t, terminalWidth(f), "regular files have no window size")
}

func TestBannerTitle(t *testing.T) {
	t.Parallel()

	full := bannerTitle(0)
	assert.Greater(t, strings.Count(full, "\n"), 1, "figlet art spans several lines")
	assert.Equal(t, full, bannerTitle(500))

	narrow := bannerTitle(20)
	assert.Equal(t, 1, strings.Count(narrow, "\n"))
	assert.Contains(t, narrow, "teleroute")
}

func TestRenderRoutes_Width(t *testing.T) {
	t.Parallel()

	rows := []routeRow{
		{Method: "GET", Pattern: "/repositories/:workspace/:repo/pullrequests/:pr/comments/:comment", Handler: "CommentController::show", Interceptors: []string{"auth", "audit", "trace"}, Alias: "comments.show"},
		{Method: "POST", Pattern: "/health", Handler: "HealthController::check", Static: true},
	}

	wide := renderRoutes(rows, 0)
	assert.Contains(t, wide, "CommentController::show")
	assert.Equal(t, wide, renderRoutes(rows, 1000), "tables narrower than the terminal are left alone")

	require.Greater(t, lipgloss.Width(wide), 80)
	for _, line := range strings.Split(renderRoutes(rows, 80), "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 80)
	}
}
