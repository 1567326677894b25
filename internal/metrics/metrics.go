package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and exposes the domain counters.
type Collector struct {
	reg *prometheus.Registry

	TripsCreated   prometheus.Counter
	TripsStarted   prometheus.Counter
	TripsCompleted prometheus.Counter

	ReservationsAccepted prometheus.Counter
	ReservationsRejected *prometheus.CounterVec // reason label: capacity|locked

	RatingsSubmitted prometheus.Counter
	RatingsRejected  prometheus.Counter
}

// NewCollector builds a Collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		TripsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rumbo_trips_created_total",
			Help: "Total trips published by drivers.",
		}),
		TripsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rumbo_trips_started_total",
			Help: "Total trips transitioned to in_progress.",
		}),
		TripsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rumbo_trips_completed_total",
			Help: "Total trips transitioned to completed.",
		}),
		ReservationsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rumbo_reservations_accepted_total",
			Help: "Total seat reservations accepted.",
		}),
		ReservationsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rumbo_reservations_rejected_total",
			Help: "Seat reservations rejected, by reason.",
		}, []string{"reason"}),
		RatingsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rumbo_ratings_submitted_total",
			Help: "Total ratings recorded.",
		}),
		RatingsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rumbo_ratings_rejected_total",
			Help: "Total duplicate ratings rejected.",
		}),
	}

	reg.MustRegister(
		c.TripsCreated, c.TripsStarted, c.TripsCompleted,
		c.ReservationsAccepted, c.ReservationsRejected,
		c.RatingsSubmitted, c.RatingsRejected,
	)

	return c
}

// Handler returns the /metrics HTTP handler for the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
