// Package metrics holds prometheus collectors for the poll/dispatch path,
// exposed on the admin server's /metrics endpoint.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// UpdatesPolled counts inbound updates received over all poll batches.
	UpdatesPolled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parley_updates_polled_total",
		Help: "Inbound updates received from the platform",
	})

	// PollFailures counts failed getUpdates calls (retried with the same cursor).
	PollFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parley_poll_failures_total",
		Help: "Failed long-poll requests",
	})

	// Dispatches counts dispatch outcomes by kind: command, listener or drop.
	Dispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_dispatches_total",
		Help: "Dispatched events by kind",
	}, []string{"kind"})

	// HandlerFailures counts plugin handler errors and panics per plugin.
	HandlerFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_handler_failures_total",
		Help: "Plugin handler errors caught at the dispatch boundary",
	}, []string{"plugin"})

	// ResponsesSent counts outbound deliveries by response kind.
	ResponsesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_responses_sent_total",
		Help: "Plugin responses forwarded to the platform",
	}, []string{"kind"})

	// DeliveryFailures counts outbound deliveries that failed (logged, not retried).
	DeliveryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parley_delivery_failures_total",
		Help: "Outbound delivery calls that failed",
	})
)

func init() {
	prometheus.MustRegister(
		UpdatesPolled,
		PollFailures,
		Dispatches,
		HandlerFailures,
		ResponsesSent,
		DeliveryFailures,
	)
}
