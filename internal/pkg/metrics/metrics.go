/*
Package metrics declares the Prometheus collectors exported on /metrics.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "livechat"

// Drop reasons used as the "reason" label of EventsDropped.
const (
	ReasonUnknownSender     = "unknown_sender"
	ReasonUnknownRecipient  = "unknown_recipient"
	ReasonDuplicateLogin    = "duplicate_login"
	ReasonEmptyBody         = "empty_body"
	ReasonBodyTooLong       = "body_too_long"
	ReasonInvalidPayload    = "invalid_payload"
	ReasonUnsupportedEvent  = "unsupported_event"
	ReasonRateLimited       = "rate_limited"
	ReasonPanic             = "panic"
	ReasonSendQueueOverflow = "send_queue_overflow"
)

var (
	// ParticipantsOnline is the number of registered participants.
	ParticipantsOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "participants_online",
		Help:      "Number of logged-in participants.",
	})

	// ConnectionsOpen is the number of live websocket connections, logged in or not.
	ConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections_open",
		Help:      "Number of open websocket connections.",
	})

	// MessagesTotal counts created messages by variant (user, private, system).
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_total",
		Help:      "Messages created, by variant.",
	}, []string{"variant"})

	// EventsTotal counts inbound events by name.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Inbound events processed, by event name.",
	}, []string{"event"})

	// EventsDropped counts events dropped without effect, by reason.
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Inbound events or deliveries dropped, by reason.",
	}, []string{"reason"})
)

// Dropped increments EventsDropped for reason.
func Dropped(reason string) {
	EventsDropped.WithLabelValues(reason).Inc()
}
