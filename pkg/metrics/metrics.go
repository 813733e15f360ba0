// Package metrics holds Prometheus collectors for segmentation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	runsTotal        *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	sessionDuration  *prometheus.HistogramVec
	framesPropagated *prometheus.CounterVec
	framesRendered   *prometheus.CounterVec
	videoFrames      prometheus.Gauge
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pivotseg_runs_total",
		Help: "Segmentation runs by prompt kind and result",
	}, []string{"prompt", "result"})
	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pivotseg_stage_duration_seconds",
		Help:    "Wall time spent in each pipeline stage",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"stage"})
	sessionDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pivotseg_session_duration_seconds",
		Help:    "Wall time of one segmentation session",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"direction"})
	framesPropagated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pivotseg_frames_propagated_total",
		Help: "Frames that received masks from propagation",
	}, []string{"direction"})
	framesRendered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pivotseg_frames_rendered_total",
		Help: "Frames written by the compositor",
	}, []string{"mode"})
	videoFrames := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pivotseg_video_frames",
		Help: "Frame count of the most recent input video",
	})

	registry.MustRegister(
		runsTotal,
		stageDuration,
		sessionDuration,
		framesPropagated,
		framesRendered,
		videoFrames,
	)

	return &Metrics{
		registry:         registry,
		runsTotal:        runsTotal,
		stageDuration:    stageDuration,
		sessionDuration:  sessionDuration,
		framesPropagated: framesPropagated,
		framesRendered:   framesRendered,
		videoFrames:      videoFrames,
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// IncRun counts a finished run.
func (m *Metrics) IncRun(prompt string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.runsTotal.WithLabelValues(prompt, result).Inc()
}

// ObserveStage records the duration of a stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveSession records one drained segmentation session.
func (m *Metrics) ObserveSession(direction string, frames int, d time.Duration) {
	if m == nil {
		return
	}
	m.sessionDuration.WithLabelValues(direction).Observe(d.Seconds())
	m.framesPropagated.WithLabelValues(direction).Add(float64(frames))
}

// AddRendered counts frames written in mode.
func (m *Metrics) AddRendered(mode string, frames int) {
	if m == nil {
		return
	}
	m.framesRendered.WithLabelValues(mode).Add(float64(frames))
}

// SetVideoFrames sets the input frame count gauge.
func (m *Metrics) SetVideoFrames(n int) {
	if m == nil {
		return
	}
	m.videoFrames.Set(float64(n))
}

// WriteToTextfile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
