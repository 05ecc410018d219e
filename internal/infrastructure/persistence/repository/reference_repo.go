package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/infrastructure/persistence/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReferenceRepository reads the catalog tables and implements port.ReferenceDataProvider
type ReferenceRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewReferenceRepository creates a new catalog reader
func NewReferenceRepository(db *sqlite.DB, logger *zap.Logger) port.ReferenceDataProvider {
	return &ReferenceRepository{
		db:     db,
		logger: logger,
	}
}

// GetCity retrieves a city by ID
func (r *ReferenceRepository) GetCity(ctx context.Context, cityID string) (*entity.City, error) {
	var city entity.City
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT id, name, country_id FROM cities WHERE id = ?`, cityID,
	).Scan(&city.ID, &city.Name, &city.CountryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: city %s", entity.ErrNotFound, cityID)
	}
	if err != nil {
		r.logger.Error("Failed to get city", zap.String("city_id", cityID), zap.Error(err))
		return nil, fmt.Errorf("failed to get city: %w", err)
	}
	return &city, nil
}

// GetPerDiemRate returns the country's daily allowance, nil when unset
func (r *ReferenceRepository) GetPerDiemRate(ctx context.Context, countryID string) (*decimal.Decimal, error) {
	var rate sql.NullString
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT per_diem_rate FROM countries WHERE id = ?`, countryID,
	).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: country %s", entity.ErrNotFound, countryID)
	}
	if err != nil {
		r.logger.Error("Failed to get per-diem rate", zap.String("country_id", countryID), zap.Error(err))
		return nil, fmt.Errorf("failed to get per-diem rate: %w", err)
	}
	if !rate.Valid || rate.String == "" {
		return nil, nil
	}

	d, err := decimal.NewFromString(rate.String)
	if err != nil {
		return nil, fmt.Errorf("country %s per-diem rate: %w", countryID, err)
	}
	return &d, nil
}

// GetRoute retrieves a transport route by ID
func (r *ReferenceRepository) GetRoute(ctx context.Context, routeID string) (*entity.Route, error) {
	var (
		route entity.Route
		price string
	)
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT id, provider, kind, one_way_price FROM transport_routes WHERE id = ?`, routeID,
	).Scan(&route.ID, &route.Provider, &route.Kind, &price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: route %s", entity.ErrNotFound, routeID)
	}
	if err != nil {
		r.logger.Error("Failed to get route", zap.String("route_id", routeID), zap.Error(err))
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	if route.OneWayPrice, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("route %s price: %w", routeID, err)
	}
	return &route, nil
}

// GetHotel retrieves a hotel by ID
func (r *ReferenceRepository) GetHotel(ctx context.Context, hotelID string) (*entity.Hotel, error) {
	var (
		hotel entity.Hotel
		price string
	)
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT id, name, city_id, nightly_price FROM hotels WHERE id = ?`, hotelID,
	).Scan(&hotel.ID, &hotel.Name, &hotel.CityID, &price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: hotel %s", entity.ErrNotFound, hotelID)
	}
	if err != nil {
		r.logger.Error("Failed to get hotel", zap.String("hotel_id", hotelID), zap.Error(err))
		return nil, fmt.Errorf("failed to get hotel: %w", err)
	}
	if hotel.NightlyPrice, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("hotel %s price: %w", hotelID, err)
	}
	return &hotel, nil
}

// Verify interface compliance
var _ port.ReferenceDataProvider = (*ReferenceRepository)(nil)
