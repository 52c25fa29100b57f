package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mauv0809/fieldrank/internal/database"
	"github.com/mauv0809/fieldrank/internal/metrics"
	"github.com/mauv0809/fieldrank/internal/processor"
	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
	"github.com/mauv0809/fieldrank/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

var venues = []string{"club-north", "club-south", "club-harbour"}

// seedConfig is read from the environment; only the database is required.
type seedConfig struct {
	dbName     string
	primaryURL string
	authToken  string
	players    int
	matches    int
	seed       int64
}

func loadConfig() seedConfig {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}
	cfg := seedConfig{
		dbName:     os.Getenv("DB_NAME"),
		primaryURL: os.Getenv("TURSO_PRIMARY_URL"),
		authToken:  os.Getenv("TURSO_AUTH_TOKEN"),
		players:    envInt("SEED_PLAYERS", 24),
		matches:    envInt("SEED_MATCHES", 500),
		seed:       int64(envInt("SEED", 1)),
	}
	if cfg.dbName == "" && cfg.primaryURL == "" {
		log.Fatal("Error: set DB_NAME or TURSO_PRIMARY_URL.")
	}
	return cfg
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// player has a hidden strength that drives the simulated results.
type player struct {
	id       string
	strength float64
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()
	ctx := context.Background()

	db, teardown, err := database.InitDB(cfg.dbName, cfg.primaryURL, cfg.authToken)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()
	st := store.New(db)

	rng := rand.New(rand.NewSource(cfg.seed))
	players := make([]player, cfg.players)
	for i := range players {
		players[i] = player{id: fmt.Sprintf("seed-player-%02d", i+1), strength: rng.Float64()}
	}

	log.Info("Preparing to insert outcomes...", "matches", cfg.matches, "players", cfg.players)
	startTime := time.Now()
	start := time.Now().UTC().AddDate(0, 0, -cfg.matches/4-1)
	for i := 0; i < cfg.matches; i++ {
		o := simulate(rng, players, start.Add(time.Duration(i)*6*time.Hour))
		if err := st.RecordMatchOutcome(ctx, o); err != nil {
			log.Fatalf("Failed to record outcome %s: %s", o.MatchID, err)
		}
		if (i+1)%100 == 0 {
			log.Info("Recorded outcomes", "count", i+1)
		}
	}
	log.Info("Outcomes recorded", "duration", time.Since(startTime))

	var records []slots.SlotRecord
	for d := 0; d < 7; d++ {
		date := time.Now().AddDate(0, 0, d).Format(time.DateOnly)
		for _, venue := range venues {
			records = append(records, daySlots(rng, venue, date)...)
		}
	}
	if err := st.UpsertSlots(ctx, records); err != nil {
		log.Fatalf("Failed to insert slots: %s", err)
	}
	log.Info("Slots inserted", "count", len(records))

	proc := processor.New(st, metrics.NewService(prometheus.NewRegistry()), processor.Config{})
	summary, err := proc.RebuildAll(ctx)
	if err != nil {
		log.Fatalf("Failed to rebuild aggregates: %s", err)
	}
	log.Info("Seeding completed successfully!", "leaderboards", summary.Leaderboards, "profiles", summary.Profiles, "duration", time.Since(startTime))
}

// simulate draws a doubles match between four distinct players and decides
// it with the same outcome model the engine uses for estimates.
func simulate(rng *rand.Rand, players []player, at time.Time) rating.MatchOutcome {
	picked := rng.Perm(len(players))[:4]
	a := []player{players[picked[0]], players[picked[1]]}
	b := []player{players[picked[2]], players[picked[3]]}

	p := rating.EstimateOutcome((a[0].strength+a[1].strength)/2, (b[0].strength+b[1].strength)/2)
	o := rating.MatchOutcome{
		MatchID:    uuid.NewString(),
		FieldID:    venues[rng.Intn(len(venues))],
		Date:       at,
		SideA:      []string{a[0].id, a[1].id},
		SideB:      []string{b[0].id, b[1].id},
		RecordedAt: at.Add(2 * time.Hour),
	}
	switch r := rng.Float64(); {
	case r < p.PWin:
		o.WinnerSide = rating.SideA
		o.SideAScore, o.SideBScore = 12, 6+rng.Intn(5)
	case r < p.PWin+p.PDraw:
		o.IsDraw = true
		o.SideAScore = 9 + rng.Intn(4)
		o.SideBScore = o.SideAScore
	default:
		o.WinnerSide = rating.SideB
		o.SideAScore, o.SideBScore = 6+rng.Intn(5), 12
	}
	return o
}

// daySlots returns 90 minute slots from 08:00 on four courts, about a third of them booked.
func daySlots(rng *rand.Rand, venue, date string) []slots.SlotRecord {
	var out []slots.SlotRecord
	for court := 1; court <= 4; court++ {
		for start := 8 * 60; start+90 <= 22*60; start += 90 {
			status := slots.StatusAvailable
			if rng.Intn(3) == 0 {
				status = slots.StatusBooked
			}
			out = append(out, slots.SlotRecord{
				FacilityID: venue,
				CourtID:    fmt.Sprintf("court-%d", court),
				Date:       date,
				TimeRange:  slots.FormatRange(start, 90),
				Status:     status,
			})
		}
	}
	return out
}
