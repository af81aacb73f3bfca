package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/marquee/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records playback and channel activity.
type Metrics struct {
	registry *prometheus.Registry

	Presentations  prometheus.Counter
	Active         prometheus.Gauge
	StepsAdvanced  *prometheus.CounterVec
	SlideChanges   *prometheus.CounterVec
	ChannelTraffic *prometheus.CounterVec
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Presentations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marquee_presentations_total",
			Help: "Total number of presentations started",
		}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marquee_active_presentations",
			Help: "Number of presentations currently running",
		}),
		StepsAdvanced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marquee_step_changes_total",
			Help: "Total number of step changes within a slide",
		}, []string{"origin"}),
		SlideChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marquee_slide_changes_total",
			Help: "Total number of slide changes",
		}, []string{"origin"}),
		ChannelTraffic: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marquee_channel_messages_total",
			Help: "Presentation channel messages by direction and type",
		}, []string{"direction", "type"}),
	}
	m.registry.MustRegister(m.Presentations, m.Active, m.StepsAdvanced, m.SlideChanges, m.ChannelTraffic)
	return m
}

// Registry exposes the registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record playback metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStart: func(ctx context.Context, e *domain.PlaybackEvent) {
			m.Presentations.Inc()
			m.Active.Inc()
		},
		OnStepChange: func(ctx context.Context, e *domain.PlaybackEvent) {
			m.StepsAdvanced.WithLabelValues(string(e.Origin)).Inc()
		},
		OnSlideChange: func(ctx context.Context, e *domain.PlaybackEvent) {
			m.SlideChanges.WithLabelValues(string(e.Origin)).Inc()
		},
		OnExit: func(ctx context.Context, e *domain.PlaybackEvent) {
			m.Active.Dec()
		},
	}
}

// ObserveMessage counts a channel message. It matches channel.WithObserver.
func (m *Metrics) ObserveMessage(direction string, msg domain.ChannelMessage) {
	m.ChannelTraffic.WithLabelValues(direction, string(msg.Type)).Inc()
}
