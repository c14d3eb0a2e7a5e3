// Package metrics exposes Prometheus counters/histograms for the sync
// engine's HTTP surface and reconciliation cycles, plus a gopsutil-backed
// system-resource snapshot.
package metrics

import (
	"net/http"
	"time"

	"github.com/coursesync/syncengine/internal/sync"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "syncengine"

// Manager owns every metric this process exports and the registry they are
// registered against.
type Manager struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	syncCyclesTotal   *prometheus.CounterVec
	syncCycleDuration prometheus.Histogram
	coursesPushed     prometheus.Counter
	coursesPulled     prometheus.Counter
	coursesSkipped    prometheus.Counter
	todosPushed       prometheus.Counter
	todosPulled       prometheus.Counter
	todosSkipped      prometheus.Counter

	cpuUsagePercent    prometheus.Gauge
	memoryUsedBytes    prometheus.Gauge
	memoryUsagePercent prometheus.Gauge
	diskUsedBytes      prometheus.Gauge
	diskUsagePercent   prometheus.Gauge
}

// New builds a Manager with a private registry and registers every metric.
func New() *Manager {
	registry := prometheus.NewRegistry()

	m := &Manager{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of HTTP requests served by the local REST surface.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help: "HTTP request latency in seconds.", Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		syncCyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "cycles_total",
			Help: "Total number of sync_all cycles, labelled by outcome.",
		}, []string{"outcome"}),
		syncCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "sync", Name: "cycle_duration_seconds",
			Help: "Duration of a sync_all cycle in seconds.", Buckets: prometheus.DefBuckets,
		}),
		coursesPushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "courses_pushed_total",
			Help: "Total courses pushed to the remote.",
		}),
		coursesPulled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "courses_pulled_total",
			Help: "Total courses pulled from the remote.",
		}),
		coursesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "courses_skipped_total",
			Help: "Total courses skipped during a pull.",
		}),
		todosPushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "todos_pushed_total",
			Help: "Total todos pushed to the remote.",
		}),
		todosPulled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "todos_pulled_total",
			Help: "Total todos pulled from the remote.",
		}),
		todosSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "todos_skipped_total",
			Help: "Total todos skipped during a pull.",
		}),
		cpuUsagePercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "system", Name: "cpu_usage_percent",
			Help: "Host CPU usage percent, last sample.",
		}),
		memoryUsedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "system", Name: "memory_used_bytes",
			Help: "Host memory used in bytes, last sample.",
		}),
		memoryUsagePercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "system", Name: "memory_usage_percent",
			Help: "Host memory usage percent, last sample.",
		}),
		diskUsedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "system", Name: "disk_used_bytes",
			Help: "Data directory's filesystem usage in bytes, last sample.",
		}),
		diskUsagePercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "system", Name: "disk_usage_percent",
			Help: "Data directory's filesystem usage percent, last sample.",
		}),
	}

	registry.MustRegister(
		m.httpRequestsTotal, m.httpRequestDuration,
		m.syncCyclesTotal, m.syncCycleDuration,
		m.coursesPushed, m.coursesPulled, m.coursesSkipped,
		m.todosPushed, m.todosPulled, m.todosSkipped,
		m.cpuUsagePercent, m.memoryUsedBytes, m.memoryUsagePercent,
		m.diskUsedBytes, m.diskUsagePercent,
	)
	return m
}

// Handler serves the Prometheus exposition format for this Manager's
// registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one HTTP request's method, request path, status
// class (2xx/3xx/4xx/5xx), and latency.
func (m *Manager) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, statusLabel(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSyncCycle implements sync.MetricsRecorder.
func (m *Manager) RecordSyncCycle(stats sync.Stats, err error, duration time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.syncCyclesTotal.WithLabelValues(outcome).Inc()
	m.syncCycleDuration.Observe(duration.Seconds())
	m.coursesPushed.Add(float64(stats.CoursesPushed))
	m.coursesPulled.Add(float64(stats.CoursesPulled))
	m.coursesSkipped.Add(float64(stats.CoursesSkipped))
	m.todosPushed.Add(float64(stats.TodosPushed))
	m.todosPulled.Add(float64(stats.TodosPulled))
	m.todosSkipped.Add(float64(stats.TodosSkipped))
}

// RecordSystemSnapshot publishes the latest host resource reading as gauges.
func (m *Manager) RecordSystemSnapshot(snap SystemSnapshot) {
	m.cpuUsagePercent.Set(snap.CPUUsagePercent)
	m.memoryUsedBytes.Set(float64(snap.MemoryUsedBytes))
	m.memoryUsagePercent.Set(snap.MemoryUsagePercent)
	m.diskUsedBytes.Set(float64(snap.DiskUsedBytes))
	m.diskUsagePercent.Set(snap.DiskUsagePercent)
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
