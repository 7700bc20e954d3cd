package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for inbound HTTP requests and for the
// background post-sync engine.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	syncTotal       *prometheus.CounterVec
	postsUpserted   prometheus.Counter
	syncDuration    prometheus.Histogram
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "creatorpulse",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "creatorpulse",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	syncTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "creatorpulse",
		Subsystem: "sync",
		Name:      "account_syncs_total",
		Help:      "Total number of post sync runs by outcome.",
	}, []string{"status"})

	postsUpserted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "creatorpulse",
		Subsystem: "sync",
		Name:      "posts_upserted_total",
		Help:      "Total number of posts written during sync runs.",
	})

	syncDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "creatorpulse",
		Subsystem: "sync",
		Name:      "duration_seconds",
		Help:      "Latency distribution for full account sync runs.",
		Buckets:   prometheus.DefBuckets,
	})

	for _, c := range []prometheus.Collector{requestDuration, requestTotal, syncTotal, postsUpserted, syncDuration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		syncTotal:       syncTotal,
		postsUpserted:   postsUpserted,
		syncDuration:    syncDuration,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// ObserveSync records the outcome and duration of one sync run.
func (c *Collector) ObserveSync(status string, duration time.Duration) {
	c.syncTotal.WithLabelValues(status).Inc()
	c.syncDuration.Observe(duration.Seconds())
}

// AddPostsUpserted counts posts written during a sync run.
func (c *Collector) AddPostsUpserted(n int) {
	c.postsUpserted.Add(float64(n))
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
