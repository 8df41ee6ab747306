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

package tree

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixtureRoute struct {
	method  Method
	pattern string
}

func loadFixtureRoutes(t *testing.T) []fixtureRoute {
	t.Helper()

	f, err := os.Open("testdata/api_routes.txt")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	var routes []fixtureRoute
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		require.Len(t, fields, 2, "malformed fixture line %q", line)

		m, err := ParseMethod(fields[0])
		require.NoError(t, err)
		routes = append(routes, fixtureRoute{method: m, pattern: fields[1]})
	}
	require.NoError(t, sc.Err())
	return routes
}

func buildFixtureTree(t *testing.T) (*Tree, []fixtureRoute) {
	t.Helper()

	tr := MustNew(WithBloomFilterSize(4096))
	routes := loadFixtureRoutes(t)
	for _, r := range routes {
		_, err := tr.Add(Registration{
			Pattern: r.pattern,
			Methods: []Method{r.method},
			Handler: ClassMethod{Class: "api", Method: r.method.String() + " " + r.pattern},
		})
		require.NoError(t, err, r.pattern)
	}
	return tr, routes
}

// sampleURL fills every parameter of pattern with a value that never
// collides with a literal segment of the fixture.
func sampleURL(pattern string) (string, []string) {
	segs := strings.Split(pattern, "/")
	var params []string
	for i, s := range segs {
		if isParamSegment(s) {
			v := fmt.Sprintf("zq%d", len(params))
			segs[i] = v
			params = append(params, v)
		}
	}
	return strings.Join(segs, "/"), params
}

// shape erases parameter names so patterns that only differ by them compare equal.
func shape(pattern string) string {
	segs := strings.Split(pattern, "/")
	for i, s := range segs {
		if isParamSegment(s) {
			segs[i] = ":"
		}
	}
	return strings.Join(segs, "/")
}

func TestFixture_EverySampleResolvesToItsPattern(t *testing.T) {
	t.Parallel()

	tr, routes := buildFixtureTree(t)
	require.GreaterOrEqual(t, len(routes), 150)
	requireValidTeleports(t, tr)

	for _, r := range routes {
		url, params := sampleURL(r.pattern)
		m := tr.Match(url)
		require.True(t, m.Found(), "%s %s (sample %s)", r.method, r.pattern, url)
		assert.Equal(t, shape(r.pattern), shape(m.Node.FullPath()), url)
		assert.True(t, m.Node.HasMethod(r.method), "%s %s", r.method, r.pattern)
		assert.Equal(t, params, m.Params, url)
		assert.Equal(t, len(params) == 0, m.Static, url)
	}
}

func TestFixture_TeleportWalkEqualsNaiveWalk(t *testing.T) {
	t.Parallel()

	tr, routes := buildFixtureTree(t)

	var samples []string
	for _, r := range routes {
		url, _ := sampleURL(r.pattern)
		samples = append(samples,
			url,
			url+"/zzextra",
			strings.TrimSuffix(url, "/"+url[strings.LastIndexByte(url, '/')+1:]),
			strings.Replace(url, "/", "/x", 2),
		)
	}

	taken := 0
	for _, p := range samples {
		segs := pathSegments(p)
		fast := tr.walk(segs, true)
		naive := tr.walk(segs, false)
		require.Same(t, naive.Node, fast.Node, p)
		assert.Equal(t, naive.Params, fast.Params, p)
		taken += fast.Teleports
	}
	assert.Positive(t, taken, "the fixture has long single-child chains")
}

func TestFixture_KnownMisses(t *testing.T) {
	t.Parallel()

	tr, _ := buildFixtureTree(t)

	misses := []string{
		"/repositories/w/r/pipelines_config/ssh/known_hosts/h/extra",
		"/repositories/w/r/pipelines_config/ssh",
		"/repositories/w/r/pipelines_config/ssh/known_host",
		"/workspaces/w/pipelines-config/identity/oidc",
		"/user/emails/a/b",
		"/nope",
		"/addon/linkers/k/values/v/w",
	}
	for _, p := range misses {
		assert.False(t, tr.Match(p).Found(), p)
	}
}

func TestFixture_ConcurrentMatch(t *testing.T) {
	t.Parallel()

	tr, routes := buildFixtureTree(t)
	tr.Freeze()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, r := range routes {
				url, params := sampleURL(r.pattern)
				m := tr.Match(url)
				if assert.True(t, m.Found(), url) {
					assert.Equal(t, params, m.Params, url)
				}
			}
		}()
	}
	wg.Wait()
}
