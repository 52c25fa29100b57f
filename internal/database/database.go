package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mauv0809/fieldrank/migrations"
	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// InitDB opens the database and migrates it to the latest schema.
// With an empty primaryURL dbPath is a local SQLite file (or ":memory:").
// The returned teardown closes the connection.
func InitDB(dbPath, primaryURL, authToken string) (*sql.DB, func(), error) {
	var (
		db  *sql.DB
		err error
	)
	if primaryURL == "" {
		log.Info("Initializing local-only SQLite database", "path", dbPath)
		db, err = sql.Open("libsql", "file:"+dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open local database: %w", err)
		}
		// SQLite serialises writers anyway, and every new connection to
		// :memory: would see an empty database.
		db.SetMaxOpenConns(1)
	} else {
		log.Info("Initializing Turso database", "url", primaryURL)
		dsn := primaryURL
		if authToken != "" {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "authToken=" + authToken
		}
		db, err = sql.Open("libsql", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db %s: %w", primaryURL, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	teardown := func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}
	return db, teardown, nil
}

func migrate(db *sql.DB) error {
	// Foreign key support is not enabled by default in SQLite
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(log.Default())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Database initialized successfully")
	return nil
}
