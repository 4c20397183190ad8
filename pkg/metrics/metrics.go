package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DeviceSessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "planfill", Name: "device_sessions_started_total", Help: "Number of device login sessions created."},
	)
	DeviceSessionsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "planfill", Name: "device_sessions_resolved_total", Help: "Number of device login sessions reaching a terminal state, by result."},
		[]string{"result"},
	)
	DevicePolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "planfill", Name: "device_polls_total", Help: "Number of poll requests, by observed status."},
		[]string{"status"},
	)
	TokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "planfill", Name: "tokens_issued_total", Help: "Number of bearer tokens minted."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "planfill", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "planfill", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(DeviceSessionsStarted)
	reg.MustRegister(DeviceSessionsResolved)
	reg.MustRegister(DevicePolls)
	reg.MustRegister(TokensIssued)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
