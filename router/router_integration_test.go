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

//go:build integration

package router_test

import (
	"bufio"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/teleroute/teleroute/router"
	"github.com/teleroute/teleroute/tree"
)

// loadAPIRoutes reads the shared route fixture of the tree package.
func loadAPIRoutes() [][2]string {
	f, err := os.Open("../tree/testdata/api_routes.txt")
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()

	var routes [][2]string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		method, pattern, ok := strings.Cut(line, " ")
		Expect(ok).To(BeTrue(), line)
		routes = append(routes, [2]string{method, strings.TrimSpace(pattern)})
	}
	Expect(sc.Err()).NotTo(HaveOccurred())
	return routes
}

// concreteURL replaces every parameter segment with a distinct value.
func concreteURL(pattern string) string {
	segs := strings.Split(pattern, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			segs[i] = fmt.Sprintf("zq%d", i)
		}
	}
	return strings.Join(segs, "/")
}

// patternShape hides parameter names, which later registrations may rename.
func patternShape(pattern string) string {
	segs := strings.Split(pattern, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			segs[i] = ":"
		}
	}
	return strings.Join(segs, "/")
}

var _ = Describe("Router Integration", func() {
	Describe("Complete request lifecycle", func() {
		It("should run group and route interceptors before the handler", func() {
			var calls []string
			r := router.MustNew()
			for _, name := range []string{"auth", "tenant", "audit"} {
				Expect(r.Interceptor(name, func(c *router.Context) error {
					calls = append(calls, name)
					return nil
				})).To(Succeed())
			}

			api := r.Group("/api", "auth").Group("/orgs/:org", "tenant")
			Expect(api.GET("/repos/:repo", func(c *router.Context) {
				calls = append(calls, "handler:"+c.Param("org")+"/"+c.Param("repo"))
				c.NoContent(http.StatusNoContent)
			}, router.WithInterceptors("audit"))).To(Succeed())

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orgs/acme/repos/web?page=2", nil))

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(calls).To(Equal([]string{"auth", "tenant", "audit", "handler:acme/web"}))
		})

		It("should stop at the first rejecting interceptor", func() {
			handled := false
			r := router.MustNew()
			Expect(r.Interceptor("deny", func(*router.Context) error {
				return fmt.Errorf("tenant suspended")
			})).To(Succeed())
			Expect(r.GET("/x", func(*router.Context) { handled = true }, router.WithInterceptors("deny"))).To(Succeed())

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(w.Body.String()).To(ContainSubstring("tenant suspended"))
			Expect(handled).To(BeFalse())
		})
	})

	Describe("Realistic API route set", func() {
		var r *router.Router
		var routes [][2]string

		BeforeEach(func() {
			r = router.MustNew()
			routes = loadAPIRoutes()
			for _, rt := range routes {
				pattern := rt[1]
				Expect(r.Match([]string{rt[0]}, pattern, func(c *router.Context) {
					_ = c.String(http.StatusOK, "%s", pattern)
				})).To(Succeed(), pattern)
			}
		})

		It("should dispatch every route to its own pattern", func() {
			for _, rt := range routes {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(rt[0], concreteURL(rt[1]), nil))
				Expect(w.Code).To(Equal(http.StatusOK), rt[1])
				Expect(patternShape(w.Body.String())).To(Equal(patternShape(tree.NormalizePattern(rt[1]))))
			}
		})

		It("should answer unregistered methods with 405 and an Allow header", func() {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, concreteURL(routes[0][1]), nil))
			Expect(w.Code).To(Equal(http.StatusMethodNotAllowed))
			Expect(w.Header().Values("Allow")).NotTo(BeEmpty())
		})

		It("should be safe for concurrent dispatch", func() {
			var wg sync.WaitGroup
			failures := make(chan string, len(routes)*4)
			for range 4 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					for _, rt := range routes {
						w := httptest.NewRecorder()
						r.ServeHTTP(w, httptest.NewRequest(rt[0], concreteURL(rt[1]), nil))
						if w.Code != http.StatusOK {
							failures <- rt[1]
						}
					}
				}()
			}
			wg.Wait()
			close(failures)
			Expect(failures).To(BeEmpty())
		})
	})

	Describe("Frozen router", func() {
		It("should reject registrations once serving", func() {
			r := router.MustNew()
			Expect(r.GET("/a", func(*router.Context) {})).To(Succeed())
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/a", nil))
			Expect(r.GET("/b", func(*router.Context) {})).To(MatchError(router.ErrRouterFrozen))
		})
	})
})
