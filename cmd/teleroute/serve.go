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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/teleroute/teleroute/config"
	"github.com/teleroute/teleroute/interceptor"
	"github.com/teleroute/teleroute/logging"
	"github.com/teleroute/teleroute/metrics"
	"github.com/teleroute/teleroute/router"
	"github.com/teleroute/teleroute/snapshot"
	"github.com/teleroute/teleroute/tracing"
	"github.com/teleroute/teleroute/tree"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// passedKey lists the pass-through interceptors a request went through.
const passedKey = "teleroute.passed"

type serveOptions struct {
	configPath   string
	manifestPath string
	addr         string
	snapshotKey  string
	refresh      bool
	banner       bool
}

func cmdServe(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("serve", "")
	var opts serveOptions
	fs.StringVar(&opts.configPath, "config", c.env.Config, "settings file (YAML, TOML or JSON)")
	fs.StringVar(&opts.manifestPath, "manifest", c.env.Manifest, "route manifest, overrides the settings")
	fs.StringVar(&opts.addr, "addr", "", "listen address, overrides server.addr")
	fs.StringVar(&opts.snapshotKey, "snapshot-key", "routes", "key of the route snapshot in the store")
	fs.BoolVar(&opts.refresh, "refresh", false, "drop the stored snapshot and rebuild it from the manifest")
	fs.BoolVar(&opts.banner, "banner", true, "print the startup banner")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	srv, err := newServer(ctx, c, opts)
	if err != nil {
		return err
	}
	return srv.run(ctx, func(addr string) {
		if opts.banner {
			srv.printBanner(c.stdout, addr)
		}
	})
}

// server is a configured, not yet listening, serve instance.
type server struct {
	settings     *config.Settings
	logger       *logging.Logger
	router       *router.Router
	http         *http.Server
	metrics      *metrics.Recorder
	tracer       *tracing.Tracer
	snapshot     *snapshot.Snapshot
	cached       bool
	interceptors []string
	closers      []func(context.Context) error
}

func newServer(ctx context.Context, c *cli, opts serveOptions) (_ *server, err error) {
	cfgOpts := []config.Option{}
	if opts.configPath != "" {
		cfgOpts = append(cfgOpts, config.WithFile(opts.configPath))
	}
	if c.env.ConsulKey != "" {
		cfgOpts = append(cfgOpts, config.WithConsul(c.env.ConsulKey))
	}
	cfgOpts = append(cfgOpts, config.WithEnv("TELEROUTE_"))

	settings, _, err := config.LoadSettings(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	if opts.manifestPath != "" {
		settings.Manifest = opts.manifestPath
	}
	if opts.addr != "" {
		settings.Server.Addr = opts.addr
	}

	s := &server{settings: settings}
	defer func() {
		if err != nil {
			_ = s.close(context.Background())
		}
	}()

	if s.logger, err = newLogger(c, settings.Log); err != nil {
		return nil, err
	}
	s.closers = append(s.closers, s.logger.Shutdown)
	log := s.logger.Logger()

	recorders, err := s.observability(ctx, log)
	if err != nil {
		return nil, err
	}

	ropts := []router.Option{
		router.WithLogger(log),
		router.WithDiagnostics(router.SlogDiagnostics(log)),
		router.WithResolver(echoResolver()),
		router.WithRecovery(!settings.Router.DisableRecovery),
		router.WithObservability(recorders...),
	}
	if settings.Router.DisableRequestID {
		ropts = append(ropts, router.WithoutRequestID())
	} else {
		ropts = append(ropts, router.WithRequestIDHeader(settings.Router.RequestIDHeader))
	}
	if settings.Router.BloomSize > 0 {
		ropts = append(ropts, router.WithBloomFilterSize(settings.Router.BloomSize))
	}
	if settings.Router.BloomHashFunctions > 0 {
		ropts = append(ropts, router.WithBloomFilterHashFunctions(settings.Router.BloomHashFunctions))
	}
	if settings.Router.StaticBloomThreshold > 0 {
		ropts = append(ropts, router.WithStaticBloomThreshold(settings.Router.StaticBloomThreshold))
	}
	if s.router, err = router.New(ropts...); err != nil {
		return nil, err
	}

	if err = s.loadRoutes(ctx, c, opts); err != nil {
		return nil, err
	}
	if s.interceptors, err = registerInterceptors(s.router, settings.Interceptors, interceptorNames(s.snapshot), log); err != nil {
		return nil, err
	}
	if err = s.mountMetrics(); err != nil {
		return nil, err
	}
	if ferr := s.router.Freeze(); ferr != nil {
		log.Warn("routes that will answer 500", slog.Any("error", ferr))
	}

	s.http = &http.Server{
		Addr:              settings.Server.Addr,
		Handler:           s.router,
		ReadTimeout:       settings.Server.ReadTimeout,
		ReadHeaderTimeout: settings.Server.ReadTimeout,
		WriteTimeout:      settings.Server.WriteTimeout,
		IdleTimeout:       settings.Server.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}
	return s, nil
}

func newLogger(c *cli, ls config.LogSettings) (*logging.Logger, error) {
	level, err := logging.ParseLevel(ls.Level)
	if err != nil {
		return nil, err
	}
	opts := []logging.Option{
		logging.WithHandlerType(logging.HandlerType(ls.Format)),
		logging.WithOutput(c.stderr),
		logging.WithLevel(level),
		logging.WithServiceName("teleroute"),
		logging.WithServiceVersion(version),
	}
	if len(ls.RedactKeys) > 0 {
		opts = append(opts, logging.WithRedactedKeys(ls.RedactKeys...))
	}
	return logging.New(opts...)
}

// observability builds and starts the tracer, the metrics recorder and the
// access log, in that order, as configured.
func (s *server) observability(ctx context.Context, log *slog.Logger) ([]router.ObservabilityRecorder, error) {
	var recorders []router.ObservabilityRecorder
	ms, ts := s.settings.Metrics, s.settings.Tracing

	topts := []tracing.Option{
		tracing.WithServiceName("teleroute"),
		tracing.WithServiceVersion(version),
		tracing.WithLogger(log),
		tracing.WithSampleRate(ts.SampleRate),
	}
	switch ts.Provider {
	case "stdout":
		topts = append(topts, tracing.WithStdout())
	case "otlp":
		var oopts []tracing.OTLPOption
		if ts.Insecure {
			oopts = append(oopts, tracing.OTLPInsecure())
		}
		topts = append(topts, tracing.WithOTLP(ts.Endpoint, oopts...))
	case "otlp-http":
		topts = append(topts, tracing.WithOTLPHTTP(ts.Endpoint))
	default:
		topts = append(topts, tracing.WithNoop())
	}
	if ms.Provider == "prometheus" {
		topts = append(topts, tracing.WithExcludePaths(ms.Path))
	}
	tracer, err := tracing.New(topts...)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	if err = tracer.Start(ctx); err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	s.tracer = tracer
	s.closers = append(s.closers, tracer.Shutdown)
	recorders = append(recorders, tracer)

	if ms.Provider != "none" {
		mopts := []metrics.Option{
			metrics.WithServiceName("teleroute"),
			metrics.WithServiceVersion(version),
			metrics.WithLogger(log),
			metrics.WithExportInterval(ms.Interval),
			metrics.WithExcludePaths(ms.ExcludePaths...),
			metrics.WithExcludeRoutes(ms.ExcludeRoutes...),
		}
		switch ms.Provider {
		case "otlp":
			mopts = append(mopts, metrics.WithOTLP(ms.Endpoint))
		case "stdout":
			mopts = append(mopts, metrics.WithStdout())
		default:
			mopts = append(mopts,
				metrics.WithPrometheus(":9090", ms.Path),
				metrics.WithServerDisabled(),
				metrics.WithExcludePaths(ms.Path),
			)
		}
		rec, err := metrics.New(mopts...)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		if err = rec.Start(ctx); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		s.metrics = rec
		s.closers = append(s.closers, rec.Shutdown)
		recorders = append(recorders, rec)
	}

	if s.settings.Log.AccessLog {
		recorders = append(recorders, logging.NewAccessLog(log, logging.WithExcludePaths(s.settings.Log.ExcludePaths...)))
	}
	return recorders, nil
}

// loadRoutes fetches the route snapshot from the store, taking it from the
// manifest when the store has none, and registers its routes.
func (s *server) loadRoutes(ctx context.Context, c *cli, opts serveOptions) error {
	ss := s.settings.Snapshot
	var store snapshot.Store
	switch ss.Store {
	case "redis":
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		client, err := snapshot.Connect(dialCtx, ss.RedisAddr)
		cancel()
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func(context.Context) error { return client.Close() })
		store = snapshot.NewRedisStore(client, snapshot.WithKeyPrefix(ss.KeyPrefix), snapshot.WithTTL(ss.TTL))
	default:
		store = snapshot.NewMemoryStore(snapshot.WithMemoryTTL(ss.TTL))
	}

	if opts.refresh {
		if err := store.Delete(ctx, opts.snapshotKey); err != nil {
			return err
		}
	}

	snap, cached, err := snapshot.GetOrTake(ctx, store, opts.snapshotKey, func() (*snapshot.Snapshot, error) {
		_, built, err := c.load(s.settings.Manifest)
		if err != nil {
			return nil, err
		}
		return snapshot.Take(built.Tree())
	})
	if err != nil {
		return err
	}
	s.snapshot, s.cached = snap, cached
	s.logger.Info("routes loaded",
		"snapshot", snap.ID,
		"routes", snap.Len(),
		"cached", cached,
		"store", ss.Store,
	)
	return snap.Apply(s.router)
}

func (s *server) mountMetrics() error {
	if s.metrics == nil || s.metrics.Provider() != metrics.PrometheusProvider {
		return nil
	}
	h, err := s.metrics.Handler()
	if err != nil {
		return err
	}
	return s.router.GET(s.metrics.Path(), func(c *router.Context) {
		h.ServeHTTP(c.Response, c.Request)
	})
}

// run listens on the configured address and serves until ctx is done,
// then shuts down within the configured timeout. ready is called with the
// bound address before the first request is accepted.
func (s *server) run(ctx context.Context, ready func(addr string)) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		_ = s.close(context.Background())
		return err
	}
	if ready != nil {
		ready(ln.Addr().String())
	}
	s.logger.Info("server started", "addr", ln.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err = <-serveErr:
		_ = s.close(context.Background())
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("server shutting down", "reason", context.Cause(ctx))
	}

	// ctx is already done; shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.settings.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err = s.http.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shut down: %w", err))
	}
	s.logger.Info("server exited")
	errs = append(errs, s.close(shutdownCtx))
	return errors.Join(errs...)
}

// close releases everything newServer acquired, newest first.
func (s *server) close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// echoResponse is what every served route answers with.
type echoResponse struct {
	Handler      string            `json:"handler"`
	Route        string            `json:"route"`
	Alias        string            `json:"alias,omitempty"`
	Method       string            `json:"method"`
	Params       map[string]string `json:"params,omitempty"`
	Extra        any               `json:"extra,omitempty"`
	Interceptors []string          `json:"interceptors,omitempty"`
	User         string            `json:"user,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
	TraceID      string            `json:"trace_id,omitempty"`
}

// echoResolver resolves every class-method reference to a handler that
// describes the match it was dispatched for.
func echoResolver() router.Resolver {
	return router.ResolverFunc(func(ref tree.ClassMethod) (router.HandlerFunc, error) {
		name := ref.Class + "::" + ref.Method
		return func(c *router.Context) {
			resp := echoResponse{
				Handler:   name,
				Route:     c.Pattern(),
				Alias:     c.Route().Alias(),
				Method:    c.Method().String(),
				Extra:     c.Extra(),
				RequestID: c.RequestID(),
				TraceID:   tracing.TraceID(c.Request.Context()),
			}
			if params := c.Params(); len(params) > 0 {
				resp.Params = params
			}
			if v, ok := c.Get(interceptor.UserKey); ok {
				resp.User, _ = v.(string)
			}
			if v, ok := c.Get(passedKey); ok {
				resp.Interceptors, _ = v.([]string)
			}
			_ = c.JSON(http.StatusOK, resp)
		}, nil
	})
}

// interceptorNames returns the interceptors referenced by s's routes.
func interceptorNames(s *snapshot.Snapshot) []string {
	var names []string
	for _, rt := range s.Routes {
		for _, n := range rt.Interceptors {
			if !slices.Contains(names, n) {
				names = append(names, n)
			}
		}
	}
	slices.Sort(names)
	return names
}

// registerInterceptors registers the configured built-ins and a
// pass-through for every other referenced name. It returns the names of
// the built-ins in use.
func registerInterceptors(r *router.Router, is config.InterceptorSettings, referenced []string, log *slog.Logger) ([]string, error) {
	builtins := make(map[string]router.Interceptor)
	if is.SecurityHeaders {
		builtins["security_headers"] = interceptor.SecurityHeaders()
	}
	if len(is.CORSOrigins) > 0 {
		if slices.Contains(is.CORSOrigins, "*") {
			builtins["cors"] = interceptor.CORS(interceptor.WithAllowAllOrigins())
		} else {
			builtins["cors"] = interceptor.CORS(interceptor.WithAllowedOrigins(is.CORSOrigins...))
		}
	}
	if is.RateLimit > 0 {
		builtins["rate_limit"] = interceptor.RateLimit(is.RateLimit, is.RateBurst)
	}
	if is.BodyLimit > 0 {
		builtins["body_limit"] = interceptor.BodyLimit(is.BodyLimit)
	}
	if len(is.BasicAuthUsers) > 0 {
		builtins["basic_auth"] = interceptor.BasicAuth(
			interceptor.WithUsers(is.BasicAuthUsers),
			interceptor.WithRealm(is.AuthRealm),
		)
	}

	var errs []error
	for name, fn := range builtins {
		errs = append(errs, r.Interceptor(name, fn))
	}
	for _, name := range referenced {
		if _, ok := builtins[name]; ok {
			continue
		}
		log.Warn("interceptor has no implementation, passing requests through", "interceptor", name)
		errs = append(errs, r.Interceptor(name, passThrough(name)))
	}

	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, errors.Join(errs...)
}

func passThrough(name string) router.Interceptor {
	return func(c *router.Context) error {
		var passed []string
		if v, ok := c.Get(passedKey); ok {
			passed, _ = v.([]string)
		}
		c.Set(passedKey, append(passed, name))
		tracing.AddSpanEventFromContext(c.Request.Context(), "interceptor.passed")
		return nil
	}
}
