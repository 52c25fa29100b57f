package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		FetcherRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrank_fetcher_runs_total",
			Help: "The total number of Playtomic import runs.",
		}),
		OutcomesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrank_outcomes_recorded_total",
			Help: "The total number of match outcomes recorded.",
		}),
		Recomputations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldrank_recomputations_total",
			Help: "The total number of aggregate recomputations, by kind.",
		}, []string{"kind"}),
		RecomputeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldrank_recompute_failures_total",
			Help: "The total number of failed recomputations, by kind.",
		}, []string{"kind"}),
		RecomputeCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrank_recompute_coalesced_total",
			Help: "Recompute requests absorbed by an in-flight or pending job for the same key.",
		}),
		JobsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrank_jobs_dropped_total",
			Help: "Recompute jobs dropped because the queue was full.",
		}),
		RecomputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fieldrank_recompute_duration_seconds",
			Help:    "The duration of aggregate recomputations, by kind.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fieldrank_recompute_queue_depth",
			Help: "Jobs waiting in the recompute queue.",
		}),
		SlotLookupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrank_slot_lookup_failures_total",
			Help: "Slot store failures swallowed by the alternative finder.",
		}),
		SuggestionsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrank_opponent_suggestions_served_total",
			Help: "The total number of opponent suggestion requests served.",
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrank_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrank_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fieldrank_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.FetcherRuns,
		s.OutcomesRecorded,
		s.Recomputations,
		s.RecomputeFailures,
		s.RecomputeCoalesced,
		s.JobsDropped,
		s.RecomputeDuration,
		s.QueueDepth,
		s.SlotLookupFailures,
		s.SuggestionsServed,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncFetcherRuns() { s.FetcherRuns.Inc() }
func (s *Service) IncOutcomesRecorded() { s.OutcomesRecorded.Inc() }

func (s *Service) IncRecomputations(kind string) {
	s.Recomputations.WithLabelValues(kind).Inc()
}

func (s *Service) IncRecomputeFailures(kind string) {
	s.RecomputeFailures.WithLabelValues(kind).Inc()
}

func (s *Service) IncRecomputeCoalesced() { s.RecomputeCoalesced.Inc() }
func (s *Service) IncJobsDropped() { s.JobsDropped.Inc() }

func (s *Service) ObserveRecomputeDuration(kind string, duration float64) {
	s.RecomputeDuration.WithLabelValues(kind).Observe(duration)
}

func (s *Service) SetQueueDepth(depth int) { s.QueueDepth.Set(float64(depth)) }

func (s *Service) IncSlotLookupFailures() { s.SlotLookupFailures.Inc() }
func (s *Service) IncSuggestionsServed() { s.SuggestionsServed.Inc() }
func (s *Service) IncSlackNotifSent() { s.SlackNotifSent.Inc() }
func (s *Service) IncSlackNotifFailed() { s.SlackNotifFailed.Inc() }

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
