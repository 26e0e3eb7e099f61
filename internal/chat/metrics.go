package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectedSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_connected_sessions",
		Help: "Number of currently registered sessions",
	})

	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_messages_total",
		Help: "Total messages routed by type",
	}, []string{"type"})

	RouteDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_route_duration_seconds",
		Help:    "Time to route each message type",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	DroppedDeliveries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_dropped_deliveries_total",
		Help: "Outbound messages dropped on full or closed send queues",
	})

	IdleTransitions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_idle_transitions_total",
		Help: "Sessions demoted to IDLE by the inactivity sweep",
	})
)

func init() {
	prometheus.MustRegister(ConnectedSessions)
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(RouteDuration)
	prometheus.MustRegister(DroppedDeliveries)
	prometheus.MustRegister(IdleTransitions)
}
