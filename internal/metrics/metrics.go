package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agenda_frontend",
			Name:      "reservation_created_total",
			Help:      "Count of reservations created through the widget.",
		},
	)

	reservationConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agenda_frontend",
			Name:      "reservation_conflict_total",
			Help:      "Count of submits rejected because the slot was taken.",
		},
	)

	reservationCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agenda_frontend",
			Name:      "reservation_cancelled_total",
			Help:      "Count of reservations cancelled from the dashboard.",
		},
	)

	slotFetch = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agenda_frontend",
			Name:      "slot_fetch_total",
			Help:      "Count of slot fetches by result (applied, stale, error).",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agenda_frontend",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by handler.",
		},
		[]string{"handler"},
	)

	adminExports = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agenda_frontend",
			Name:      "admin_export_total",
			Help:      "Count of dashboard xlsx exports.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationCreated, reservationConflict,
			reservationCancelled, slotFetch, httpRequests, adminExports)
	})
}

func IncReservationCreated() {
	reservationCreated.Inc()
}

func IncReservationConflict() {
	reservationConflict.Inc()
}

func IncReservationCancelled() {
	reservationCancelled.Inc()
}

func IncSlotFetch(result string) {
	slotFetch.WithLabelValues(result).Inc()
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}

func IncAdminExport() {
	adminExports.Inc()
}
