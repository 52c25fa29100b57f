package inngest

import (
	"context"
	"net/http"
	"time"

	"github.com/mauv0809/fieldrank/internal/importer"
	"github.com/mauv0809/fieldrank/internal/processor"
)

type InngestClient interface {
	Serve() http.Handler
	SendEvent(ctx context.Context, name string, data map[string]any) error
}

// Rebuilder recomputes every cached aggregate.
type Rebuilder interface {
	RebuildAll(ctx context.Context) (processor.RebuildSummary, error)
}

// Importer pulls recent bookings.
type Importer interface {
	ImportMatches(ctx context.Context, since time.Time, dryRun bool) (importer.MatchReport, error)
	ImportSlots(ctx context.Context, date string, dryRun bool) (importer.SlotReport, error)
}
