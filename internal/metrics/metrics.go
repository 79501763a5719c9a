package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics - все методы безопасны на nil, метрики опциональны
type Metrics struct {
	TurnsTotal *prometheus.CounterVec

	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec

	CommandsTotal *prometheus.CounterVec

	HistoryLength    prometheus.Gauge
	EvictedEntries   prometheus.Counter
	PersistenceTotal *prometheus.CounterVec

	RateLimitHitsTotal prometheus.Counter
	ActiveSessions     prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. A nil reg means the default registry.
func New(reg prometheus.Registerer) *Metrics {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	factory := promauto.With(reg)

	m := &Metrics{
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctxchat_turns_total",
				Help: "Total number of chat turns by outcome",
			},
			[]string{"status"},
		),

		LLMRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctxchat_llm_requests_total",
				Help: "Total number of completion requests",
			},
			[]string{"provider", "status"},
		),
		LLMRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ctxchat_llm_request_duration_seconds",
				Help:    "Completion request duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),

		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctxchat_commands_total",
				Help: "Total number of session commands",
			},
			[]string{"command"},
		),

		HistoryLength: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ctxchat_history_length",
				Help: "Number of entries in the most recently updated conversation",
			},
		),
		EvictedEntries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ctxchat_history_evicted_total",
				Help: "Total number of entries trimmed from history",
			},
		),
		PersistenceTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctxchat_persistence_operations_total",
				Help: "Total number of save and load operations",
			},
			[]string{"op", "status"},
		),

		RateLimitHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ctxchat_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ctxchat_active_sessions",
				Help: "Number of live chat sessions",
			},
		),

		gatherer: gatherer,
	}

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (m *Metrics) RecordTurn(status string) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordLLMRequest(provider, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordCommand(command string) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(command).Inc()
}

func (m *Metrics) SetHistoryLength(n int) {
	if m == nil {
		return
	}
	m.HistoryLength.Set(float64(n))
}

func (m *Metrics) RecordEvictions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.EvictedEntries.Add(float64(n))
}

func (m *Metrics) RecordPersistence(op, status string) {
	if m == nil {
		return
	}
	m.PersistenceTotal.WithLabelValues(op, status).Inc()
}

func (m *Metrics) RecordRateLimitHit() {
	if m == nil {
		return
	}
	m.RateLimitHitsTotal.Inc()
}

func (m *Metrics) SetActiveSessions(count int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(count))
}
