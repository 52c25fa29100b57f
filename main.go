package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/inngest/inngestgo"
	"github.com/mauv0809/fieldrank/internal/changefeed"
	"github.com/mauv0809/fieldrank/internal/config"
	"github.com/mauv0809/fieldrank/internal/database"
	server "github.com/mauv0809/fieldrank/internal/http"
	"github.com/mauv0809/fieldrank/internal/importer"
	"github.com/mauv0809/fieldrank/internal/inngest"
	"github.com/mauv0809/fieldrank/internal/matchmaking"
	"github.com/mauv0809/fieldrank/internal/mcptools"
	"github.com/mauv0809/fieldrank/internal/metrics"
	"github.com/mauv0809/fieldrank/internal/notifier/slack"
	"github.com/mauv0809/fieldrank/internal/playtomic"
	"github.com/mauv0809/fieldrank/internal/processor"
	"github.com/mauv0809/fieldrank/internal/pubsub"
	"github.com/mauv0809/fieldrank/internal/store"
	"github.com/mauv0809/fieldrank/internal/store/docstore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var (
		pubsubClient pubsub.PubSubClient
		feed         changefeed.Feed
	)
	if cfg.ProjectID != "" {
		pubsubClient = pubsub.New(cfg.ProjectID)
		defer pubsubClient.Close()
	}

	var st store.Store
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		fsClient, err := docstore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			log.Fatalf("Failed to initialize firestore: %s", err)
		}
		docs := docstore.New(fsClient)
		defer docs.Close()
		st = docs
		feed = docstore.NewFeed(fsClient)
	default:
		db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
		if err != nil {
			log.Fatalf("Failed to initialize database: %s", err)
		}
		defer func() {
			log.Info("Closing database connection")
			dbTeardown()
		}()
		st = store.New(db)
		if pubsubClient != nil {
			feed = pubsub.NewFeed(pubsubClient, cfg.PubSub.Subscription)
		} else {
			feed = changefeed.NewLocal()
		}
	}
	storeInitDuration := time.Since(startTime)
	log.Info("Store initialization time recorded", "backend", cfg.StoreBackend, "duration_ms", storeInitDuration.Milliseconds())

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	playtomicClient := playtomic.NewClient()
	notifier := slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)

	proc := processor.New(st, metricsSvc, processor.Config{
		WorkerCount: cfg.Processor.WorkerCount,
		QueueSize:   cfg.Processor.QueueSize,
		Debounce:    cfg.Processor.Debounce,
	})
	proc.Start(ctx)
	go func() {
		if err := feed.Subscribe(ctx, proc.HandleSignal); err != nil {
			log.Error("Change feed subscription ended", "error", err)
		}
	}()

	matchmakingService := matchmaking.NewService(st, proc, feed, metricsSvc)
	imp := importer.New(playtomicClient, matchmakingService, st, metricsSvc, cfg.TenantID)

	var mcpHandler http.Handler
	if cfg.MCPAPIKey != "" {
		mcpHandler = mcptools.New(matchmakingService, version).Handler(cfg.MCPAPIKey)
	} else {
		log.Warn("MCP_API_KEY not set, MCP tools are disabled")
	}

	var inngestHandler http.Handler
	if cfg.Inngest.Enabled() {
		inngestProvider, err := inngestgo.NewClient(inngestgo.ClientOpts{
			AppID:      cfg.Inngest.AppID,
			SigningKey: &cfg.Inngest.SigningKey,
			EventKey:   &cfg.Inngest.EventKey,
			Dev:        &cfg.Inngest.Dev,
		})
		if err != nil {
			log.Fatalf("Failed to initialize inngest: %s", err)
		}
		inngestClient, err := inngest.New(inngestProvider, proc, imp)
		if err != nil {
			log.Fatalf("Failed to register inngest functions: %s", err)
		}
		inngestHandler = inngestClient.Serve()
	}

	s := server.NewServer(
		matchmakingService,
		proc,
		imp,
		notifier,
		metricsSvc,
		metricsHandler,
		cfg,
		pubsubClient,
		mcpHandler,
		inngestHandler,
	)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Server started", "port", cfg.Port, "version", version)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server error", "error", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	stop()
	proc.Stop()
	log.Info("Server process shutting down")
}
