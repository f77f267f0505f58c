package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "widget_requests_total",
			Help:      "Count of widget requests by action.",
		},
		[]string{"action"},
	)

	searches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "availability_searches_total",
			Help:      "Count of availability searches by mode (external or fallback).",
		},
		[]string{"mode"},
	)

	holds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "holds_created_total",
			Help:      "Count of holds created by mode (external or fallback).",
		},
		[]string{"mode"},
	)

	confirmations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "confirmations_total",
			Help:      "Count of reservation confirmations by path.",
		},
		[]string{"path"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "notifications_total",
			Help:      "Count of notification dispatch outcomes.",
		},
		[]string{"outcome"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, searches, holds, confirmations, notifications)
	})
}

func IncHTTP(action string) {
	httpRequests.WithLabelValues(action).Inc()
}

func IncSearch(mode string) {
	searches.WithLabelValues(mode).Inc()
}

func IncHold(mode string) {
	holds.WithLabelValues(mode).Inc()
}

func IncConfirmation(path string) {
	confirmations.WithLabelValues(path).Inc()
}

func IncNotification(outcome string) {
	notifications.WithLabelValues(outcome).Inc()
}
