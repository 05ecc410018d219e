package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/domain/workflow"
	"github.com/garyjia/business-trip/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/business-trip/migrations"
	"github.com/garyjia/business-trip/pkg/database"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestDB opens a migrated database in a temp dir with a small catalog
func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	sqlDB, err := database.Open(ctx, database.Config{Path: filepath.Join(t.TempDir(), "trips.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(ctx, sqlDB, migrations.FS, logger))

	seed := []string{
		`INSERT INTO countries (id, name, per_diem_rate) VALUES ('PL', 'Poland', '100'), ('DE', 'Germany', '200'), ('PT', 'Portugal', NULL)`,
		`INSERT INTO cities (id, name, country_id) VALUES ('WAW', 'Warsaw', 'PL'), ('BER', 'Berlin', 'DE'), ('LIS', 'Lisbon', 'PT')`,
		`INSERT INTO hotels (id, name, city_id, nightly_price) VALUES ('BER-MITTE', 'Hotel Mitte', 'BER', '300.00')`,
		`INSERT INTO transport_routes (id, provider, kind, one_way_price) VALUES ('WAW-BER-TRAIN', 'PKP Intercity', 'train', '300.00')`,
	}
	for _, stmt := range seed {
		_, err := sqlDB.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	return sqlite.NewDB(sqlDB, logger)
}

func date(s string) time.Time {
	d, err := time.Parse(entity.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// sampleTrip is the Warsaw to Berlin plan with hotel and train
func sampleTrip() *entity.Trip {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return &entity.Trip{
		ID:                uuid.NewString(),
		RequesterID:       "emp-1",
		OriginCityID:      "WAW",
		DestinationCityID: "BER",
		StartDate:         date("2026-03-10"),
		EndDate:           date("2026-03-12"),
		Purpose:           "Customer workshop",
		Status:            workflow.StateNew,
		Transport: &entity.TransportSelection{
			RouteID:     "WAW-BER-TRAIN",
			Provider:    "PKP Intercity",
			Kind:        "train",
			OneWayPrice: decimal.RequireFromString("300.00"),
		},
		Hotel: &entity.HotelSelection{
			HotelID:      "BER-MITTE",
			Name:         "Hotel Mitte",
			NightlyPrice: decimal.RequireFromString("300.00"),
		},
		Estimate: entity.CostEstimate{
			Transport:   decimal.RequireFromString("600"),
			Hotel:       decimal.RequireFromString("600"),
			PerDiem:     decimal.RequireFromString("600"),
			Total:       decimal.RequireFromString("1800.00"),
			Days:        3,
			Nights:      2,
			PerDiemRate: decimal.RequireFromString("200"),
			Currency:    "PLN",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
