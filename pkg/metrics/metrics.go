package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ticketing"

var (
	// ReservationsTotal counts reservation attempts by outcome code
	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// TicketsIssuedTotal counts tickets created by the reservation engine
	TicketsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_issued_total",
			Help:      "Tickets issued",
		},
	)

	// ScansTotal counts validation attempts by outcome code
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Ticket validation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// InvariantViolationsTotal counts detected invariant violations
	InvariantViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invariant_violations_total",
			Help:      "Invariant violations detected at runtime",
		},
		[]string{"kind"},
	)

	// ReservationDuration observes the atomic check-and-issue step
	ReservationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reservation_duration_seconds",
			Help:      "Time spent creating a reservation",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

const OutcomeSuccess = "success"
