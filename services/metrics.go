package services

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the triage counters on a private registry. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Turns               *prometheus.CounterVec
	Triage              *prometheus.CounterVec
	CompletionFallbacks *prometheus.CounterVec
	DirectoryErrors     *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "symptomwise",
			Name:      "turns_total",
			Help:      "Conversation turns handled, by channel and response kind",
		}, []string{"channel", "kind"}),
		Triage: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "symptomwise",
			Name:      "triage_total",
			Help:      "Completed diagnoses by urgency band",
		}, []string{"channel", "urgency"}),
		CompletionFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "symptomwise",
			Name:      "completion_fallbacks_total",
			Help:      "Diagnoses that used the fallback text",
		}, []string{"channel"}),
		DirectoryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "symptomwise",
			Name:      "directory_errors_total",
			Help:      "Failed doctor or hospital lookups",
		}, []string{"directory"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "symptomwise",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.Turns, m.Triage, m.CompletionFallbacks, m.DirectoryErrors, m.HTTPRequests)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) recordTurn(channel, kind string) {
	if m != nil {
		m.Turns.WithLabelValues(channel, kind).Inc()
	}
}

func (m *Metrics) recordTriage(channel, urgency string) {
	if m != nil {
		m.Triage.WithLabelValues(channel, urgency).Inc()
	}
}

func (m *Metrics) recordFallback(channel string) {
	if m != nil {
		m.CompletionFallbacks.WithLabelValues(channel).Inc()
	}
}

func (m *Metrics) recordDirectoryError(directory string) {
	if m != nil {
		m.DirectoryErrors.WithLabelValues(directory).Inc()
	}
}

// RecordRequest is called by the request logging middleware.
func (m *Metrics) RecordRequest(method, route, status string) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	}
}
