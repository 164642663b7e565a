package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	joblink = "joblink"

	eventsSentTotal        = "events_sent_total"
	sendFailuresTotal      = "send_failures_total"
	reconnectAttemptsTotal = "reconnect_attempts_total"
	linkState              = "link_state"

	// Labels
	eventTypeLabel = "type"
)

var eventsSentLabels = []string{
	eventTypeLabel,
}

/**
* Metrics definition
**/
var eventsSentTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: joblink,
		Name:      eventsSentTotal,
		Help:      "number of events handed to the transport, by event type",
	},
	eventsSentLabels,
)

var sendFailuresTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: joblink,
		Name:      sendFailuresTotal,
		Help:      "number of send attempts that failed at the transport",
	},
)

var reconnectAttemptsTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: joblink,
		Name:      reconnectAttemptsTotal,
		Help:      "number of reconnection attempts performed",
	},
)

var linkStateMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: joblink,
		Name:      linkState,
		Help:      "current link state (0 disconnected, 1 connecting, 2 connected, 3 reconnecting, 4 detached)",
	},
)

func IncreaseEventsSentMetric(eventType string) {
	labels := prometheus.Labels{
		eventTypeLabel: eventType,
	}
	eventsSentTotalMetric.With(labels).Inc()
}

func IncreaseSendFailuresMetric() {
	sendFailuresTotalMetric.Inc()
}

func IncreaseReconnectAttemptsMetric() {
	reconnectAttemptsTotalMetric.Inc()
}

func UpdateLinkStateMetric(state int) {
	linkStateMetric.Set(float64(state))
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(eventsSentTotalMetric)
	prometheus.MustRegister(sendFailuresTotalMetric)
	prometheus.MustRegister(reconnectAttemptsTotalMetric)
	prometheus.MustRegister(linkStateMetric)
}
