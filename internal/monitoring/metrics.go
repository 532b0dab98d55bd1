// Package monitoring exposes prometheus metrics for the booking and
// scanning paths. Metrics are registered via promauto at init and recorded
// from the handlers; recording never affects request outcomes.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatepass_bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	redemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatepass_redemptions_total",
			Help: "Entry redemption attempts by outcome",
		},
		[]string{"outcome"},
	)

	bookingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gatepass_booking_duration_seconds",
			Help:    "Latency of the booking workflow",
			Buckets: prometheus.DefBuckets,
		},
	)

	expiredPasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gatepass_expired_passes_total",
			Help: "Passes transitioned to expired by the sweep worker",
		},
	)
)

// Booking outcomes. Matched to the wire-level error taxonomy so dashboards
// can separate sold-out pressure from duplicate bookings.
const (
	OutcomeSuccess         = "success"
	OutcomeSoldOut         = "sold_out"
	OutcomeAlreadyBooked   = "already_booked"
	OutcomeNotFound        = "not_found"
	OutcomeAlreadyRedeemed = "already_redeemed"
	OutcomeForbidden       = "forbidden"
	OutcomeError           = "error"
)

// RecordBooking counts one booking attempt and its latency.
func RecordBooking(outcome string, elapsed time.Duration) {
	bookings.WithLabelValues(outcome).Inc()
	bookingDuration.Observe(elapsed.Seconds())
}

// RecordRedemption counts one redemption attempt.
func RecordRedemption(outcome string) {
	redemptions.WithLabelValues(outcome).Inc()
}

// RecordExpired counts passes expired by the sweep worker.
func RecordExpired(n int64) {
	if n > 0 {
		expiredPasses.Add(float64(n))
	}
}
