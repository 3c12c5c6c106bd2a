package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "watchbridge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "watchbridge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	peerMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "watchbridge",
			Subsystem: "peer",
			Name:      "messages_total",
			Help:      "Peer messages by classification.",
		},
		[]string{"kind"},
	)
	outboundCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "watchbridge",
			Subsystem: "dispatcher",
			Name:      "outbound_calls_total",
			Help:      "Outbound method calls by method.",
		},
		[]string{"channel", "method"},
	)
	inboundCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "watchbridge",
			Subsystem: "dispatcher",
			Name:      "inbound_calls_total",
			Help:      "Inbound method calls by result.",
		},
		[]string{"channel", "method", "status"},
	)
	sessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "watchbridge",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions.",
		},
		[]string{"from", "to"},
	)
	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "watchbridge",
			Subsystem: "notify",
			Name:      "submissions_total",
			Help:      "Teardown notification submissions.",
		},
		[]string{"success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, peerMessages, outboundCalls, inboundCalls, sessionTransitions, notifications)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordPeerMessage(kind string) {
	RegisterMetrics()
	peerMessages.WithLabelValues(kind).Inc()
}

func RecordOutboundCall(channel, method string) {
	RegisterMetrics()
	outboundCalls.WithLabelValues(channel, method).Inc()
}

func RecordInboundCall(channel, method, status string) {
	RegisterMetrics()
	inboundCalls.WithLabelValues(channel, method, status).Inc()
}

func RecordTransition(from, to string) {
	RegisterMetrics()
	sessionTransitions.WithLabelValues(from, to).Inc()
}

func RecordNotification(success bool) {
	RegisterMetrics()
	notifications.WithLabelValues(strconv.FormatBool(success)).Inc()
}
