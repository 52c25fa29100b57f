package inngest

import (
	"time"

	"github.com/inngest/inngestgo"
)

const (
	// RebuildCron runs the nightly full recompute.
	RebuildCron = "0 3 * * *"
	// ImportCron pulls yesterday's results and today's availability.
	ImportCron = "30 2 * * *"

	// EventRebuildRequested triggers an on-demand rebuild.
	EventRebuildRequested = "fieldrank/rebuild.requested"
)

type client struct {
	inngestClient inngestgo.Client
	rebuilder     Rebuilder
	importer      Importer
	now           func() time.Time
}
