package http

import (
	"context"
	"net/http"
	"time"

	"github.com/mauv0809/fieldrank/internal/changefeed"
	"github.com/mauv0809/fieldrank/internal/config"
	"github.com/mauv0809/fieldrank/internal/importer"
	"github.com/mauv0809/fieldrank/internal/matchmaking"
	"github.com/mauv0809/fieldrank/internal/metrics"
	"github.com/mauv0809/fieldrank/internal/notifier"
	"github.com/mauv0809/fieldrank/internal/processor"
	"github.com/mauv0809/fieldrank/internal/pubsub"
	"github.com/mauv0809/fieldrank/internal/rating"
)

// Recomputer is the part of the processor the handlers drive directly.
type Recomputer interface {
	RecomputeLeaderboard(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error)
	RebuildAll(ctx context.Context) (processor.RebuildSummary, error)
	HandleSignal(ctx context.Context, s changefeed.Signal)
}

// Importer pulls bookings from Playtomic.
type Importer interface {
	ImportMatches(ctx context.Context, since time.Time, dryRun bool) (importer.MatchReport, error)
	ImportSlots(ctx context.Context, date string, dryRun bool) (importer.SlotReport, error)
}

type Server struct {
	Service        matchmaking.MatchmakingService
	Processor      Recomputer
	Importer       Importer
	Notifier       notifier.Notifier
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
	mcp            http.Handler
	inngest        http.Handler
}
