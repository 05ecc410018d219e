package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/garyjia/business-trip/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenAndMigrate(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	db, err := Open(ctx, Config{Path: filepath.Join(t.TempDir(), "data", "trips.db"), MaxOpenConns: 1}, logger)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db, migrations.FS, logger))
	// second run is a no-op
	require.NoError(t, Migrate(ctx, db, migrations.FS, logger))

	for _, table := range []string{"countries", "cities", "hotels", "transport_routes", "trips", "trip_history", "settlements", "settlement_items"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}
