package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesTables(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err, "InitDB should not return an error")
	defer teardown()

	for _, table := range []string{"match_outcomes", "outcome_participants", "player_skill_profiles", "field_leaderboards", "slots"} {
		t.Run(table, func(t *testing.T) {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
			require.NoError(t, err, "Querying for %s table should not produce an error", table)
			assert.Equal(t, table, name)
		})
	}
}

func TestInitDB_IsIdempotent(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()

	require.NoError(t, migrate(db), "re-running migrations should be a no-op")

	var version int64
	require.NoError(t, db.QueryRow("SELECT MAX(version_id) FROM goose_db_version").Scan(&version))
	assert.Equal(t, int64(1), version)
}
