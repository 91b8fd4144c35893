// Package metrics defines the Prometheus instruments. One Metrics value is
// created at startup and shared by the dispatcher, the providers, and the
// notification worker; the admin server exposes the registry at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	Registry *prometheus.Registry

	WebhookRequests   *prometheus.CounterVec
	IntentDispatches  *prometheus.CounterVec
	HandlerErrors     *prometheus.CounterVec
	HandlerDuration   *prometheus.HistogramVec
	ProviderFailovers prometheus.Counter
	FallbackRequests  *prometheus.CounterVec
	NotificationsSent *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "shopbot"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		Registry: reg,
		WebhookRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_requests_total",
			Help:      "Inbound webhook requests by outcome.",
		}, []string{"outcome"}),
		IntentDispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_dispatches_total",
			Help:      "Dispatched intent events by intent name.",
		}, []string{"intent"}),
		HandlerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_errors_total",
			Help:      "Errors recovered by the dispatcher, by intent name.",
		}, []string{"intent"}),
		HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_seconds",
			Help:      "Handler execution time by intent name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),
		ProviderFailovers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_failovers_total",
			Help:      "Fallback completions that needed a non-preferred provider.",
		}),
		FallbackRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_requests_total",
			Help:      "Unmatched-intent fallback completions by outcome.",
		}, []string{"outcome"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Order notifications by channel and outcome.",
		}, []string{"channel", "outcome"}),
	}

	reg.MustRegister(
		m.WebhookRequests,
		m.IntentDispatches,
		m.HandlerErrors,
		m.HandlerDuration,
		m.ProviderFailovers,
		m.FallbackRequests,
		m.NotificationsSent,
	)
	return m
}
