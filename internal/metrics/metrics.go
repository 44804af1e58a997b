package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	LoginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"}, // success|invalid_credentials|error
	)

	UsageEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_usage_events_total",
			Help: "Usage events by pipeline stage",
		},
		[]string{"stage"}, // published|ingested|invalid|failed
	)

	registerOnce sync.Once
)

// MustRegister registers the collectors once per process; serve and the
// worker may both call it.
func MustRegister(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(
			LoginAttemptsTotal,
			UsageEventsTotal,
		)
	})
}
