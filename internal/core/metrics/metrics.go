package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Count of HTTP requests"},
		[]string{"path", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"},
	)
	// outcome: ok / invalid_credentials / not_activated / error
	SignIns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_signin_total", Help: "Sign-in attempts by outcome"},
		[]string{"outcome"},
	)
	SignUps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_signup_total", Help: "Sign-up attempts by outcome"},
		[]string{"outcome"},
	)
	// reason: unauthenticated / forbidden / no_rule
	AuthzDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "authz_denied_total", Help: "Requests denied by the authorization policy"},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, SignIns, SignUps, AuthzDenied)
}
