package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})

	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_refreshes_total",
		Help: "Refresh-token exchanges by outcome.",
	}, []string{"outcome"})

	Rotations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_session_rotations_total",
		Help: "Refresh sessions rotated near expiry.",
	})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_otp_verifications_total",
		Help: "OTP verification attempts by outcome.",
	}, []string{"outcome"})
)
