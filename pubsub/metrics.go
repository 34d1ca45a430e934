package pubsub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "neighbor",
		Subsystem: "pubsub",
		Name:      "events_published_total",
		Help:      "Change events published to the propagation channel.",
	}, []string{"table", "event"})

	eventsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "neighbor",
		Subsystem: "pubsub",
		Name:      "events_delivered_total",
		Help:      "Change events delivered to local subscribers.",
	}, []string{"table", "event"})
)
