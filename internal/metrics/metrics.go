package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Verification lifecycle

	TokensIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "verification_tokens_issued_total",
		Help:      "Verification tokens issued, by purpose.",
	}, []string{"purpose"})

	TokenRedemptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "verification_token_redemptions_total",
		Help:      "Redemption attempts, by purpose and outcome.",
	}, []string{"purpose", "outcome"})

	TokensSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "verification_tokens_swept_total",
		Help:      "Expired unused tokens marked used by the sweeper.",
	})

	// Sessions

	LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "logins_total",
		Help:      "Login attempts, by outcome.",
	}, []string{"outcome"})

	SessionValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "session_validations_total",
		Help:      "Session token validations, by outcome.",
	}, []string{"outcome"})

	// Email dispatch

	EmailsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "emails_sent_total",
		Help:      "Transactional emails dispatched, by template and outcome.",
	}, []string{"template", "outcome"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "auth",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})

	// Rate limiting

	RateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "rate_limited_requests_total",
		Help:      "Requests rejected by the rate limiter, by path.",
	}, []string{"path"})
)

func Register() {
	prometheus.MustRegister(
		TokensIssuedTotal,
		TokenRedemptionsTotal,
		TokensSweptTotal,
		LoginsTotal,
		SessionValidationsTotal,
		EmailsSentTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
		RateLimitedTotal,
	)
}

// HealthReporter is satisfied by *health.Checker.
type HealthReporter interface {
	LivenessHandler() http.HandlerFunc
	ReadinessHandler() http.HandlerFunc
}

// NewServer builds the dedicated metrics server carrying /metrics and the
// health endpoints.
func NewServer(addr string, checker HealthReporter) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if checker != nil {
		mux.HandleFunc("/healthz", checker.LivenessHandler())
		mux.HandleFunc("/readyz", checker.ReadinessHandler())
	}
	return &http.Server{Addr: addr, Handler: mux}
}
