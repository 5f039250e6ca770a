package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Tomlord1122/todo-homework/internal/service"
)

// Metrics holds the Prometheus collectors of the HTTP server.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	signups       prometheus.Counter
	verifications *prometheus.CounterVec
	images        *prometheus.CounterVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "todo_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		signups: factory.NewCounter(prometheus.CounterOpts{
			Name: "todo_signups_total",
			Help: "Accounts created through signup",
		}),
		verifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_email_verifications_total",
				Help: "Verification link redemptions by outcome",
			},
			[]string{"outcome"},
		),
		images: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_completed_images_total",
				Help: "Stored completion images, by whether a thumbnail was derived",
			},
			[]string{"thumbnail"},
		),
	}
}

// Middleware records the count and latency of every request, labelled with
// the matched route pattern rather than the raw path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) observeTodo(todo *service.TodoResponse) {
	if todo.CompletedImage == "" {
		return
	}
	m.images.WithLabelValues(strconv.FormatBool(todo.Thumbnail != "")).Inc()
}
