package http

import (
	"net/http"

	"github.com/mauv0809/fieldrank/internal/config"
	"github.com/mauv0809/fieldrank/internal/matchmaking"
	"github.com/mauv0809/fieldrank/internal/metrics"
	"github.com/mauv0809/fieldrank/internal/notifier"
	"github.com/mauv0809/fieldrank/internal/pubsub"
)

// NewServer wires the routes. mcpHandler and inngestHandler may be nil, in
// which case their routes are not mounted.
func NewServer(
	service matchmaking.MatchmakingService,
	proc Recomputer,
	imp Importer,
	notifier notifier.Notifier,
	metricsSvc metrics.Metrics,
	metricsHandler http.Handler,
	cfg config.Config,
	pubsub pubsub.PubSubClient,
	mcpHandler http.Handler,
	inngestHandler http.Handler,
) *Server {
	server := &Server{
		Service:        service,
		Processor:      proc,
		Importer:       imp,
		Notifier:       notifier,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
		mcp:            mcpHandler,
		inngest:        inngestHandler,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	slackCommand := slackVerificationMiddleware(s.Cfg.Slack.SigningSecret)

	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))

	s.Router.Handle("GET /leaderboard", Chain(s.LeaderboardHandler(), paramsMiddleware))
	s.Router.Handle("POST /leaderboard/recompute", Chain(s.RecomputeLeaderboardHandler(), paramsMiddleware))
	s.Router.Handle("GET /profile", Chain(s.ProfileHandler(), paramsMiddleware))
	s.Router.Handle("GET /estimate", Chain(s.EstimateHandler(), paramsMiddleware))
	s.Router.Handle("GET /opponents", Chain(s.OpponentsHandler(), paramsMiddleware))
	s.Router.Handle("GET /alternatives", Chain(s.AlternativesHandler(), paramsMiddleware))
	s.Router.Handle("POST /outcomes", Chain(s.RecordOutcomeHandler(), paramsMiddleware))

	s.Router.Handle("POST /pubsub/outcome-recorded", Chain(s.OutcomeRecordedPushHandler(), paramsMiddleware))
	s.Router.Handle("/fetch", Chain(s.FetchMatchesHandler(), paramsMiddleware))
	s.Router.Handle("/fetch-slots", Chain(s.FetchSlotsHandler(), paramsMiddleware))

	s.Router.Handle("POST /slack/command/leaderboard", Chain(s.LeaderboardCommandHandler(), paramsMiddleware, slackCommand))
	s.Router.Handle("POST /slack/command/profile", Chain(s.ProfileCommandHandler(), paramsMiddleware, slackCommand))
	s.Router.Handle("POST /slack/command/opponents", Chain(s.OpponentsCommandHandler(), paramsMiddleware, slackCommand))

	if s.mcp != nil {
		s.Router.Handle("/mcp", s.mcp)
	}
	if s.inngest != nil {
		s.Router.Handle("/api/inngest", s.inngest)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
