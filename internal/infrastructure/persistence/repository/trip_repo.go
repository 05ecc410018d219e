package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/domain/workflow"
	"github.com/garyjia/business-trip/internal/infrastructure/persistence/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const tripColumns = `
	id, requester_id, origin_city_id, destination_city_id, start_date, end_date,
	purpose, status_code, route_id, route_provider, route_kind, route_one_way_price,
	hotel_id, hotel_name, hotel_nightly_price, est_transport, est_hotel, est_per_diem,
	est_total, est_days, est_nights, est_per_diem_rate, currency, rejection_reason,
	version, created_at, updated_at`

// TripRepository implements port.TripRepository
type TripRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *sqlite.DB, logger *zap.Logger) port.TripRepository {
	return &TripRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new trip
func (r *TripRepository) Create(ctx context.Context, trip *entity.Trip) error {
	query := `INSERT INTO trips (` + tripColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if trip.Version == 0 {
		trip.Version = 1
	}

	args := append([]any{trip.ID}, tripValues(trip)...)
	args = append(args, trip.Version, trip.CreatedAt.UTC(), trip.UpdatedAt.UTC())

	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to create trip", zap.String("trip_id", trip.ID), zap.Error(err))
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

// GetByID retrieves a trip by ID
func (r *TripRepository) GetByID(ctx context.Context, id string) (*entity.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = ?`

	trip, err := scanTrip(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: trip %s", entity.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get trip", zap.String("trip_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// Update writes every mutable column when the stored version still equals
// expectedVersion, then advances trip.Version
func (r *TripRepository) Update(ctx context.Context, trip *entity.Trip, expectedVersion int64) error {
	query := `
		UPDATE trips SET
			requester_id = ?, origin_city_id = ?, destination_city_id = ?, start_date = ?, end_date = ?,
			purpose = ?, status_code = ?, route_id = ?, route_provider = ?, route_kind = ?,
			route_one_way_price = ?, hotel_id = ?, hotel_name = ?, hotel_nightly_price = ?,
			est_transport = ?, est_hotel = ?, est_per_diem = ?, est_total = ?, est_days = ?,
			est_nights = ?, est_per_diem_rate = ?, currency = ?, rejection_reason = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	args := append(tripValues(trip), trip.UpdatedAt.UTC(), trip.ID, expectedVersion)

	exec := r.db.Executor(ctx)
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update trip", zap.String("trip_id", trip.ID), zap.Error(err))
		return fmt.Errorf("failed to update trip: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists int
		err := exec.QueryRowContext(ctx, `SELECT 1 FROM trips WHERE id = ?`, trip.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: trip %s", entity.ErrNotFound, trip.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to check trip: %w", err)
		}
		r.logger.Warn("Stale trip version",
			zap.String("trip_id", trip.ID),
			zap.Int64("expected_version", expectedVersion))
		return fmt.Errorf("%w: trip %s changed since version %d",
			entity.ErrConcurrentModification, trip.ID, expectedVersion)
	}

	trip.Version = expectedVersion + 1
	return nil
}

// List returns trips matching filter, newest first
func (r *TripRepository) List(ctx context.Context, filter port.TripFilter) ([]*entity.Trip, error) {
	var (
		where []string
		args  []any
	)
	if filter.RequesterID != "" {
		where = append(where, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if filter.Status != "" {
		where = append(where, "status_code = ?")
		args = append(args, filter.Status.Code())
	}

	query := `SELECT ` + tripColumns + ` FROM trips`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list trips", zap.Error(err))
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []*entity.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// tripValues returns the mutable columns in tripColumns order, skipping id
func tripValues(t *entity.Trip) []any {
	var (
		routeID, provider, kind, oneWay sql.NullString
		hotelID, hotelName, nightly     sql.NullString
	)
	if t.Transport != nil {
		routeID = nullString(t.Transport.RouteID)
		provider = nullString(t.Transport.Provider)
		kind = nullString(t.Transport.Kind)
		oneWay = nullString(t.Transport.OneWayPrice.String())
	}
	if t.Hotel != nil {
		hotelID = nullString(t.Hotel.HotelID)
		hotelName = nullString(t.Hotel.Name)
		nightly = nullString(t.Hotel.NightlyPrice.String())
	}

	return []any{
		t.RequesterID,
		t.OriginCityID,
		t.DestinationCityID,
		t.StartDate.UTC().Format(entity.DateLayout),
		t.EndDate.UTC().Format(entity.DateLayout),
		t.Purpose,
		t.Status.Code(),
		routeID,
		provider,
		kind,
		oneWay,
		hotelID,
		hotelName,
		nightly,
		t.Estimate.Transport.String(),
		t.Estimate.Hotel.String(),
		t.Estimate.PerDiem.String(),
		t.Estimate.Total.String(),
		t.Estimate.Days,
		t.Estimate.Nights,
		t.Estimate.PerDiemRate.String(),
		t.Estimate.Currency,
		nullString(t.RejectionReason),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*entity.Trip, error) {
	var (
		t                                  entity.Trip
		startDate, endDate                 string
		statusCode                         int
		routeID, provider, kind, oneWay    sql.NullString
		hotelID, hotelName, nightly        sql.NullString
		estTransport, estHotel, estPerDiem string
		estTotal, estRate                  string
		rejection                          sql.NullString
		createdAt, updatedAt               time.Time
	)

	err := row.Scan(
		&t.ID, &t.RequesterID, &t.OriginCityID, &t.DestinationCityID, &startDate, &endDate,
		&t.Purpose, &statusCode, &routeID, &provider, &kind, &oneWay,
		&hotelID, &hotelName, &nightly, &estTransport, &estHotel, &estPerDiem,
		&estTotal, &t.Estimate.Days, &t.Estimate.Nights, &estRate, &t.Estimate.Currency, &rejection,
		&t.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if t.StartDate, err = time.Parse(entity.DateLayout, startDate); err != nil {
		return nil, fmt.Errorf("trip %s start_date: %w", t.ID, err)
	}
	if t.EndDate, err = time.Parse(entity.DateLayout, endDate); err != nil {
		return nil, fmt.Errorf("trip %s end_date: %w", t.ID, err)
	}
	if t.Status, err = workflow.StateFromCode(statusCode); err != nil {
		return nil, fmt.Errorf("trip %s: %w", t.ID, err)
	}

	if routeID.Valid {
		price, err := decimal.NewFromString(oneWay.String)
		if err != nil {
			return nil, fmt.Errorf("trip %s route price: %w", t.ID, err)
		}
		t.Transport = &entity.TransportSelection{
			RouteID:     routeID.String,
			Provider:    provider.String,
			Kind:        kind.String,
			OneWayPrice: price,
		}
	}
	if hotelID.Valid {
		price, err := decimal.NewFromString(nightly.String)
		if err != nil {
			return nil, fmt.Errorf("trip %s hotel price: %w", t.ID, err)
		}
		t.Hotel = &entity.HotelSelection{
			HotelID:      hotelID.String,
			Name:         hotelName.String,
			NightlyPrice: price,
		}
	}

	amounts := []struct {
		raw string
		dst *decimal.Decimal
	}{
		{estTransport, &t.Estimate.Transport},
		{estHotel, &t.Estimate.Hotel},
		{estPerDiem, &t.Estimate.PerDiem},
		{estTotal, &t.Estimate.Total},
		{estRate, &t.Estimate.PerDiemRate},
	}
	for _, a := range amounts {
		if *a.dst, err = decimal.NewFromString(a.raw); err != nil {
			return nil, fmt.Errorf("trip %s estimate: %w", t.ID, err)
		}
	}

	t.RejectionReason = rejection.String
	t.CreatedAt = createdAt
	t.UpdatedAt = updatedAt
	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Verify interface compliance
var _ port.TripRepository = (*TripRepository)(nil)
