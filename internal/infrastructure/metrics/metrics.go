// Package metrics provides Prometheus metrics for the chat service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled HTTP requests.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration tracks request latency.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ConversationsCreated counts conversations opened for a new pair.
	ConversationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_conversations_created_total",
			Help: "Total number of conversations created",
		},
	)

	// MessagesAppended counts durable appends.
	MessagesAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_appended_total",
			Help: "Total number of messages appended",
		},
	)

	// MessagesReplayed counts sends answered with an already stored message.
	MessagesReplayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_replayed_total",
			Help: "Total number of idempotent send replays",
		},
	)

	// ActiveChannels tracks live delivery channels on this node.
	ActiveChannels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_active_channels",
			Help: "Number of currently registered delivery channels",
		},
	)

	// Deliveries counts frames handed to local channels.
	Deliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_deliveries_total",
			Help: "Total number of messages enqueued to channels",
		},
	)

	// DroppedChannels counts channels closed because their buffer was full.
	DroppedChannels = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_dropped_channels_total",
			Help: "Total number of channels dropped for backpressure",
		},
	)

	// BridgeEnvelopes counts cross-node envelopes by direction.
	BridgeEnvelopes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_bridge_envelopes_total",
			Help: "Total number of fan-out envelopes exchanged with other nodes",
		},
		[]string{"direction"},
	)

	// Notifications counts unread notification outcomes.
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_unread_notifications_total",
			Help: "Total number of unread notification tasks by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordChannelRegistered increments channel metrics.
func RecordChannelRegistered() {
	ActiveChannels.Inc()
}

// RecordChannelUnregistered decrements channel metrics.
func RecordChannelUnregistered() {
	ActiveChannels.Dec()
}

// RecordAppend records a send outcome.
func RecordAppend(replayed bool) {
	if replayed {
		MessagesReplayed.Inc()
		return
	}
	MessagesAppended.Inc()
}

// RecordNotification records an unread notification outcome.
func RecordNotification(outcome string) {
	Notifications.WithLabelValues(outcome).Inc()
}
