package common

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Outcomes recorded by ViewRefreshTotal.
const (
	RefreshLoaded = "loaded"
	RefreshFailed = "failed"
	RefreshStale  = "stale"
)

type Metrics struct {
	FetchSeconds     *prometheus.HistogramVec
	FetchBytesTotal  *prometheus.CounterVec
	FetchErrorsTotal *prometheus.CounterVec
	ViewRefreshTotal *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		FetchSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timetable_fetch_seconds",
				Help:    "Time taken by a schedule GET against the upstream endpoint",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"direction"},
		),
		FetchBytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timetable_fetch_bytes_total",
				Help: "Bytes downloaded from the upstream endpoint per direction",
			},
			[]string{"direction"},
		),
		FetchErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timetable_fetch_errors_total",
				Help: "Failed schedule fetches per direction",
			},
			[]string{"direction"},
		),
		ViewRefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timetable_view_refresh_total",
				Help: "Board refreshes by outcome (loaded, failed, stale)",
			},
			[]string{"board", "outcome"},
		),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_web_sessions",
			Help: "Browsers whose boards are currently held by the web server",
		}),
	}

	registry.MustRegister(
		metrics.FetchSeconds,
		metrics.FetchBytesTotal,
		metrics.FetchErrorsTotal,
		metrics.ViewRefreshTotal,
		metrics.ActiveSessions,
	)

	return metrics
}

// The helpers below accept a nil receiver so callers never need to check
// whether telemetry is enabled.

func (metrics *Metrics) ObserveFetch(direction string, elapsed time.Duration, bytes int) {
	if metrics == nil {
		return
	}
	metrics.FetchSeconds.WithLabelValues(direction).Observe(elapsed.Seconds())
	metrics.FetchBytesTotal.WithLabelValues(direction).Add(float64(bytes))
}

func (metrics *Metrics) FetchFailed(direction string) {
	if metrics == nil {
		return
	}
	metrics.FetchErrorsTotal.WithLabelValues(direction).Inc()
}

func (metrics *Metrics) Refreshed(board, outcome string) {
	if metrics == nil {
		return
	}
	metrics.ViewRefreshTotal.WithLabelValues(board, outcome).Inc()
}

func (metrics *Metrics) SessionsActive(active int) {
	if metrics == nil {
		return
	}
	metrics.ActiveSessions.Set(float64(active))
}

// TelemetryServer exposes the process metrics and pprof on their own
// listener, away from the public routes.
type TelemetryServer struct {
	registry *prometheus.Registry
	router   chi.Router
	server   *http.Server
}

func NewTelemetryServer(addr string) *TelemetryServer {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "timetable_build_info",
			Help:        "Always 1, labelled with the running build",
			ConstLabels: prometheus.Labels{"version": Version, "git_commit": GitCommit},
		}, func() float64 { return 1 }),
	)

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	router.Mount("/debug", middleware.Profiler())

	return &TelemetryServer{
		registry: registry,
		router:   router,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (telemetry *TelemetryServer) GetRegistry() *prometheus.Registry {
	return telemetry.registry
}

func (telemetry *TelemetryServer) Handler() http.Handler {
	return telemetry.router
}

// Start binds the listener before returning so a taken port is reported to
// the caller; serving continues in the background until Stop.
func (telemetry *TelemetryServer) Start() error {
	listener, err := net.Listen("tcp", telemetry.server.Addr)
	if err != nil {
		return fmt.Errorf("telemetry listen %s: %w", telemetry.server.Addr, err)
	}

	go func() {
		if err := telemetry.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("telemetry server stopped")
		}
	}()

	log.Info().Str("addr", listener.Addr().String()).Msg("telemetry server started")
	return nil
}

func (telemetry *TelemetryServer) Stop(ctx context.Context) error {
	return telemetry.server.Shutdown(ctx)
}
