package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "twitteroauth", Name: "logins_total", Help: "Number of OAuth callback logins by outcome."},
		[]string{"outcome"},
	)
	TokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "twitteroauth", Name: "token_refreshes_total", Help: "Number of refresh-token exchanges by outcome."},
		[]string{"outcome"},
	)
	EmailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "twitteroauth", Name: "emails_sent_total", Help: "Number of delivered emails by kind."},
		[]string{"kind"},
	)
	EmailsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "twitteroauth", Name: "emails_failed_total", Help: "Number of failed or dropped emails by kind."},
		[]string{"kind"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "twitteroauth", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "twitteroauth", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(Logins)
	reg.MustRegister(TokenRefreshes)
	reg.MustRegister(EmailsSent)
	reg.MustRegister(EmailsFailed)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
