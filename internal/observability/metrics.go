package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sbe_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	LocksCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sbe_locks_created_total",
			Help: "Seat lock creation attempts by result",
		},
		[]string{"result"},
	)

	SeatsRestored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sbe_seats_restored_total",
			Help: "Seats credited back to event inventory",
		},
	)

	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sbe_booking_transitions_total",
			Help: "Booking state transitions by target status",
		},
		[]string{"to"},
	)

	PaymentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sbe_payment_outcomes_total",
			Help: "Payment reconciliation outcomes",
		},
		[]string{"outcome"},
	)

	SweepProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sbe_sweep_processed_total",
			Help: "Items resolved by sweeper runs",
		},
		[]string{"job"},
	)

	SweepErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sbe_sweep_errors_total",
			Help: "Per-item sweeper failures",
		},
		[]string{"job"},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sbe_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sbe_outbox_lag_seconds",
			Help: "Age of the oldest unpublished outbox record",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sbe_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)
