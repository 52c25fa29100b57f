package inngest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/mauv0809/fieldrank/internal/importer"
	"github.com/mauv0809/fieldrank/internal/processor"
)

// New registers the scheduled functions on inngestClient. importer may be
// nil, in which case no import function is registered.
func New(inngestClient inngestgo.Client, rebuilder Rebuilder, imp Importer) (InngestClient, error) {
	c := &client{
		inngestClient: inngestClient,
		rebuilder:     rebuilder,
		importer:      imp,
		now:           func() time.Time { return time.Now().UTC() },
	}
	if err := c.createRebuildFunctions(); err != nil {
		return nil, err
	}
	if imp != nil {
		if err := c.createImportFunction(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (i *client) createRebuildFunctions() error {
	handler := func(ctx context.Context, _ inngestgo.Input[map[string]any]) (any, error) {
		return step.Run(ctx, "rebuild-all", func(ctx context.Context) (processor.RebuildSummary, error) {
			return i.rebuild(ctx)
		})
	}

	_, err := inngestgo.CreateFunction(
		i.inngestClient,
		inngestgo.FunctionOpts{ID: "nightly-rebuild", Name: "Rebuild leaderboards and profiles"},
		inngestgo.CronTrigger(RebuildCron),
		handler,
	)
	if err != nil {
		return fmt.Errorf("failed to create nightly rebuild function: %w", err)
	}

	_, err = inngestgo.CreateFunction(
		i.inngestClient,
		inngestgo.FunctionOpts{ID: "requested-rebuild", Name: "Rebuild on request"},
		inngestgo.EventTrigger(EventRebuildRequested, nil),
		handler,
	)
	if err != nil {
		return fmt.Errorf("failed to create requested rebuild function: %w", err)
	}
	return nil
}

func (i *client) createImportFunction() error {
	_, err := inngestgo.CreateFunction(
		i.inngestClient,
		inngestgo.FunctionOpts{ID: "nightly-import", Name: "Import Playtomic results and availability"},
		inngestgo.CronTrigger(ImportCron),
		func(ctx context.Context, _ inngestgo.Input[map[string]any]) (any, error) {
			// Steps are retried independently.
			matches, err := step.Run(ctx, "import-matches", func(ctx context.Context) (importer.MatchReport, error) {
				return i.importMatches(ctx)
			})
			if err != nil {
				return nil, err
			}
			slots, err := step.Run(ctx, "import-slots", func(ctx context.Context) (importer.SlotReport, error) {
				return i.importSlots(ctx)
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{"matches": matches, "slots": slots}, nil
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create nightly import function: %w", err)
	}
	return nil
}

func (i *client) rebuild(ctx context.Context) (processor.RebuildSummary, error) {
	log.Info("Scheduled rebuild starting")
	summary, err := i.rebuilder.RebuildAll(ctx)
	if err != nil {
		log.Error("Scheduled rebuild failed", "error", err)
		return summary, err
	}
	log.Info("Scheduled rebuild finished", "leaderboards", summary.Leaderboards, "profiles", summary.Profiles)
	return summary, nil
}

func (i *client) importMatches(ctx context.Context) (importer.MatchReport, error) {
	return i.importer.ImportMatches(ctx, i.now().AddDate(0, 0, -1), false)
}

func (i *client) importSlots(ctx context.Context) (importer.SlotReport, error) {
	return i.importer.ImportSlots(ctx, i.now().Format("2006-01-02"), false)
}

func (i *client) Serve() http.Handler {
	return i.inngestClient.Serve()
}

func (i *client) SendEvent(ctx context.Context, name string, data map[string]any) error {
	_, err := i.inngestClient.Send(ctx, inngestgo.Event{Name: name, Data: data})
	return err
}
