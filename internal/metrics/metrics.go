package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	CreditOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creditos_operations_total",
			Help: "Credit API operations by operation and outcome",
		},
		[]string{"op", "outcome"}, // create|update|delete|list|get|stats , ok|invalid|not_found|error
	)

	EventsRelayed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "creditos_events_relayed_total",
			Help: "Outbox events published to Kafka by the relay worker",
		},
	)

	EventsProjected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creditos_events_projected_total",
			Help: "Change-feed events written to ClickHouse by type",
		},
		[]string{"type"}, // created|updated|deleted|invalid
	)
)

// MustRegister registers all collectors on r. Registering twice on the same
// registry is a no-op, so servers built in tests can share the default one.
func MustRegister(r prometheus.Registerer) {
	for _, c := range []prometheus.Collector{CreditOperations, EventsRelayed, EventsProjected} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			panic(err)
		}
	}
}
