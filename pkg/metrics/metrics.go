// Package metrics provides Prometheus instrumentation.
//
// Wire it up once at boot:
//
//	m := metrics.New()
//	r.Use(m.Middleware())
//	r.Handle("GET", "/metrics", "metrics", m.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the registry and every collector the app exports.
type Metrics struct {
	Registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec

	// Checkout instrumentation: one payment recorded per successful
	// submission, plus the derived cart/order effects and sweeper retries.
	PaymentsRecorded  prometheus.Counter
	DuplicatePayments prometheus.Counter
	CartsCleared      prometheus.Counter
	OrdersSettled     prometheus.Counter
	SettlementRetries prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "brewhaus",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		RequestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "brewhaus",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		PaymentsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brewhaus",
			Subsystem: "checkout",
			Name:      "payments_recorded_total",
			Help:      "Payment records durably written.",
		}),
		DuplicatePayments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brewhaus",
			Subsystem: "checkout",
			Name:      "duplicate_submissions_total",
			Help:      "Submissions deduplicated by idempotency key.",
		}),
		CartsCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brewhaus",
			Subsystem: "checkout",
			Name:      "cart_entries_cleared_total",
			Help:      "Cart entries removed during settlement.",
		}),
		OrdersSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brewhaus",
			Subsystem: "checkout",
			Name:      "orders_settled_total",
			Help:      "Orders whose payment axis flipped to done.",
		}),
		SettlementRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brewhaus",
			Subsystem: "checkout",
			Name:      "settlement_retries_total",
			Help:      "Sweeper retries of incomplete settlements.",
		}),
	}

	m.Registry.MustRegister(collectors.NewGoCollector())
	m.Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m.Registry.MustRegister(
		m.RequestDuration,
		m.RequestTotal,
		m.PaymentsRecorded,
		m.DuplicatePayments,
		m.CartsCleared,
		m.OrdersSettled,
		m.SettlementRetries,
	)

	return m
}

// statusRecorder captures the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware observes duration and count per method/path/status.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			status := strconv.Itoa(rec.status)
			m.RequestDuration.WithLabelValues(r.Method, r.URL.Path, status).
				Observe(time.Since(start).Seconds())
			m.RequestTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		})
	}
}

// Handler exposes the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
