package tts

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for a session.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	synthesisTotal    *prometheus.CounterVec
	synthesisDuration *prometheus.HistogramVec
	playbackTotal     *prometheus.CounterVec
	historyEvictions  prometheus.Counter
}

// NewMetrics creates the session collectors and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		synthesisTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voicebox",
				Name:      "synthesis_total",
				Help:      "Completed synthesis requests by engine and outcome.",
			},
			[]string{"engine", "outcome"},
		),
		synthesisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "voicebox",
				Name:      "synthesis_duration_seconds",
				Help:      "Time spent waiting for the speech engine.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"engine"},
		),
		playbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voicebox",
				Name:      "playback_total",
				Help:      "Playback attempts by source and outcome.",
			},
			[]string{"source", "outcome"},
		),
		historyEvictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "voicebox",
				Name:      "history_evictions_total",
				Help:      "History entries dropped to stay within capacity.",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.synthesisTotal, m.synthesisDuration, m.playbackTotal, m.historyEvictions)
	}
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveSynthesis records one engine call.
func (m *Metrics) ObserveSynthesis(engine string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.synthesisTotal.WithLabelValues(engine, outcome(err)).Inc()
	m.synthesisDuration.WithLabelValues(engine).Observe(d.Seconds())
}

// ObservePlayback records one renderer call. Source is "synthesis" or "replay".
func (m *Metrics) ObservePlayback(source string, err error) {
	if m == nil {
		return
	}
	m.playbackTotal.WithLabelValues(source, outcome(err)).Inc()
}

// ObserveEviction records one history eviction.
func (m *Metrics) ObserveEviction() {
	if m == nil {
		return
	}
	m.historyEvictions.Inc()
}
