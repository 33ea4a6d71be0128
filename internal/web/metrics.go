package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/tablemate/internal/conversation"
	"github.com/example/tablemate/internal/restaurant"
)

const namespace = "tablemate"

// Metrics holds the server's prometheus collectors on a private registry, so several
// servers (and tests) can coexist in one process.
//
// Metrics:
//   - tablemate_chat_turns_total{restaurant,intent,kind}
//   - tablemate_booking_events_total{restaurant,event}
//   - tablemate_http_request_duration_seconds{method,code}
//   - tablemate_waitlist_length{restaurant}
//   - tablemate_tables_occupancy_percent{restaurant}
type Metrics struct {
	registry *prometheus.Registry

	turns    *prometheus.CounterVec
	events   *prometheus.CounterVec
	requests *prometheus.HistogramVec
}

// NewMetrics registers collectors for every restaurant in dir.
func NewMetrics(dir *restaurant.Directory) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		turns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns handled, by classified intent and response kind.",
		}, []string{"restaurant", "intent", "kind"}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "events_total",
			Help:      "Committed reservation changes: booked, waitlisted, modified, cancelled, seated.",
		}, []string{"restaurant", "event"}),
		requests: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "code"}),
	}

	for _, r := range dir.All() {
		r := r
		labels := prometheus.Labels{"restaurant": r.ID()}
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "waitlist",
			Name:        "length",
			Help:        "Parties currently waiting.",
			ConstLabels: labels,
		}, func() float64 { return float64(r.Stats().WaitlistLength) })
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "tables",
			Name:        "occupancy_percent",
			Help:        "Share of tables currently reserved.",
			ConstLabels: labels,
		}, func() float64 { return float64(r.Stats().OccupancyPercent) })
	}
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observeTurn(restaurantID string, resp conversation.Response) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(restaurantID, resp.Intent.String(), string(resp.Kind)).Inc()
	if resp.Event != "" {
		m.Event(restaurantID, string(resp.Event))
	}
}

// Event counts one committed change. The waitlist seater reports "seated" through it.
func (m *Metrics) Event(restaurantID, event string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(restaurantID, event).Inc()
}

func (m *Metrics) observeRequest(method string, code int, took time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(code)).Observe(took.Seconds())
}
