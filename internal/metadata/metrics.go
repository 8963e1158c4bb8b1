package metadata

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the crawler's prometheus collectors. Register it on a
// dedicated registry per process; the collectors are safe for concurrent use.
type Metrics struct {
	pagesFetched  *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	admissions    *prometheus.CounterVec
	errors        *prometheus.CounterVec
	runs          *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_pages_fetched_total",
			Help: "Pages fetched, by HTTP status class.",
		}, []string{"status_class"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "crawler_fetch_duration_seconds",
			Help:    "Time spent fetching a single page.",
			Buckets: prometheus.DefBuckets,
		}),
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_admissions_total",
			Help: "Frontier decisions for discovered links, by reason.",
		}, []string{"reason"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_errors_total",
			Help: "Recorded errors, by package and cause.",
		}, []string{"package", "cause"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_runs_total",
			Help: "Finished crawl runs, by final state.",
		}, []string{"state"}),
	}
	reg.MustRegister(m.pagesFetched, m.fetchDuration, m.admissions, m.errors, m.runs)
	return m
}

func (m *Metrics) observeFetch(status int, duration time.Duration) {
	m.pagesFetched.WithLabelValues(statusClass(status)).Inc()
	m.fetchDuration.Observe(duration.Seconds())
}

func (m *Metrics) observeAdmission(reason string) {
	m.admissions.WithLabelValues(reason).Inc()
}

func (m *Metrics) observeError(packageName string, cause ErrorCause) {
	m.errors.WithLabelValues(packageName, cause.String()).Inc()
}

func (m *Metrics) observeRun(state string) {
	m.runs.WithLabelValues(state).Inc()
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}

func (m *Metrics) PagesCounter() *prometheus.CounterVec {
	return m.pagesFetched
}

func (m *Metrics) AdmissionsCounter() *prometheus.CounterVec {
	return m.admissions
}

func (m *Metrics) ErrorsCounter() *prometheus.CounterVec {
	return m.errors
}
