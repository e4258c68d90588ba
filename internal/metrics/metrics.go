package metrics

import (
	"fmt"
	"net/http"
	"time"

	"pkgsweep/internal/registry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pkgsweep"

// Metrics holds the run's Prometheus collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	pagesTotal         *prometheus.CounterVec
	packagesListed     *prometheus.CounterVec
	fetchErrorsTotal   *prometheus.CounterVec
	deletesTotal       *prometheus.CounterVec
	httpRequestsTotal  *prometheus.CounterVec
	lastRunTimestamp   prometheus.Gauge
	lastRunDuration    prometheus.Gauge
	rateLimitRemaining prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		pagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_pages_total",
			Help:      "Package listing pages requested.",
		}, []string{"package_type", "visibility"}),
		packagesListed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packages_listed_total",
			Help:      "Package descriptors returned by the registry.",
		}, []string{"package_type", "visibility"}),
		fetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_errors_total",
			Help:      "Listing sessions stopped by a non-200 response or transport error.",
		}, []string{"package_type", "visibility"}),
		deletesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletes_total",
			Help:      "Delete outcomes by package type and status.",
		}, []string{"package_type", "status"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Registry HTTP requests by method and status code.",
		}, []string{"code", "method"}),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run started.",
		}),
		lastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		rateLimitRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_limit_remaining",
			Help:      "Lowest X-RateLimit-Remaining observed during the last run.",
		}),
	}
	m.reg.MustRegister(
		m.pagesTotal,
		m.packagesListed,
		m.fetchErrorsTotal,
		m.deletesTotal,
		m.httpRequestsTotal,
		m.lastRunTimestamp,
		m.lastRunDuration,
		m.rateLimitRemaining,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// InstrumentTransport counts every request passing through next.
func (m *Metrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if m == nil {
		return next
	}
	return promhttp.InstrumentRoundTripperCounter(m.httpRequestsTotal, next)
}

func (m *Metrics) RecordFetch(res registry.FetchResult) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"package_type": res.Key.PackageType, "visibility": res.Key.Visibility}
	m.pagesTotal.With(labels).Add(float64(res.Pages))
	m.packagesListed.With(labels).Add(float64(len(res.Packages)))
	if res.Err != nil {
		m.fetchErrorsTotal.With(labels).Inc()
	}
}

func (m *Metrics) RecordDelete(res registry.DeleteResult) {
	if m == nil {
		return
	}
	m.deletesTotal.WithLabelValues(res.Package.Type, string(res.Status)).Inc()
}

func (m *Metrics) RecordRun(started time.Time, took time.Duration, rate registry.RateSnapshot) {
	if m == nil {
		return
	}
	m.lastRunTimestamp.Set(float64(started.Unix()))
	m.lastRunDuration.Set(took.Seconds())
	if rate.Observed {
		m.rateLimitRemaining.Set(float64(rate.Remaining))
	}
}

// WriteTextfile writes all collectors in the text exposition format, for the
// node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
