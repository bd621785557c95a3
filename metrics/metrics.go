package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sponsorship metrics
	SponsorshipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanup_sponsorships_total",
			Help: "Sponsorship submissions by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	FundingPledgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cleanup_funding_pledged_total",
			Help: "Funding pledged through accepted sponsorships, in base currency",
		},
	)

	SponsorshipReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanup_sponsorship_reviews_total",
			Help: "Sponsorship status changes made by organizers",
		},
		[]string{"status"},
	)

	// Volunteer metrics
	RegistrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cleanup_registrations_total",
			Help: "Volunteer registrations created",
		},
	)

	CheckInsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanup_checkins_total",
			Help: "QR check-in attempts by outcome",
		},
		[]string{"outcome"},
	)

	// HTTP metrics
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cleanup_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanup_rate_limit_hits_total",
			Help: "Requests refused by the rate limiter",
		},
		[]string{"scope"},
	)
)
