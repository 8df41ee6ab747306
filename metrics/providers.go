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

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func (r *Recorder) initializeProvider() error {
	if r.customMeterProvider {
		if r.meterProvider == nil {
			return errors.New("custom meter provider is nil")
		}
		r.emitDebug("Using custom meter provider")
		return r.initializeMeter()
	}

	var err error
	switch r.provider {
	case PrometheusProvider:
		err = r.initPrometheusProvider()
	case OTLPProvider:
		err = r.initOTLPProvider()
	case StdoutProvider:
		err = r.initStdoutProvider()
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedProvider, r.provider)
	}
	if err != nil {
		return err
	}

	if r.registerGlobal {
		r.emitDebug("Setting global OpenTelemetry meter provider", "provider", r.provider)
		otel.SetMeterProvider(r.meterProvider)
	}
	return r.initializeMeter()
}

func (r *Recorder) initializeMeter() error {
	r.meter = r.meterProvider.Meter(instrumentationName)
	return r.initializeInstruments()
}

// initPrometheusProvider uses a private registry so several recorders can
// coexist in one process.
func (r *Recorder) initPrometheusProvider() error {
	r.prometheusRegistry = promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(r.prometheusRegistry))
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	r.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	r.prometheusHandler = promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
	return nil
}

func (r *Recorder) initOTLPProvider() error {
	var opts []otlpmetrichttp.Option
	endpoint := r.otlpEndpoint
	insecure := strings.HasPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://")
	if host, _, found := strings.Cut(endpoint, "/"); found {
		endpoint = host
	}
	opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
	if insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	r.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(
		sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval)),
	))
	return nil
}

func (r *Recorder) initStdoutProvider() error {
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(r.stdoutWriter))
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}
	r.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(
		sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval)),
	))
	return nil
}

func (r *Recorder) startServer(ctx context.Context) error {
	if r.shuttingDown.Load() {
		return nil
	}
	ln, err := net.Listen("tcp", r.serverAddr)
	if err != nil {
		r.emitError("Failed to start metrics server", "error", err, "address", r.serverAddr)
		return fmt.Errorf("metrics server listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(r.metricsPath, r.prometheusHandler)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	r.serverMu.Lock()
	r.server = srv
	r.listener = ln
	r.serverMu.Unlock()

	r.emitInfo("Metrics server starting", "address", ln.Addr().String(), "path", r.metricsPath)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.emitError("Metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = r.stopServer(shutdownCtx)
	}()
	return nil
}

func (r *Recorder) stopServer(ctx context.Context) error {
	r.serverMu.Lock()
	srv := r.server
	r.server = nil
	r.listener = nil
	r.serverMu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		r.emitError("Error shutting down metrics server", "error", err)
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	r.emitDebug("Metrics server shut down")
	return nil
}
