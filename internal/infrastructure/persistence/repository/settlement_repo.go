package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/infrastructure/persistence/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SettlementRepository implements port.SettlementRepository
type SettlementRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *sqlite.DB, logger *zap.Logger) port.SettlementRepository {
	return &SettlementRepository{
		db:     db,
		logger: logger,
	}
}

// Save replaces the stored settlement and its items. Call it inside a
// transaction so the delete and the inserts land together.
func (r *SettlementRepository) Save(ctx context.Context, s *entity.Settlement) error {
	exec := r.db.Executor(ctx)

	if _, err := exec.ExecContext(ctx, `DELETE FROM settlements WHERE trip_id = ?`, s.TripID); err != nil {
		r.logger.Error("Failed to clear settlement", zap.String("trip_id", s.TripID), zap.Error(err))
		return fmt.Errorf("failed to clear settlement: %w", err)
	}

	var approvedAt sql.NullTime
	if s.ApprovedAt != nil {
		approvedAt = sql.NullTime{Time: s.ApprovedAt.UTC(), Valid: true}
	}
	_, err := exec.ExecContext(ctx,
		`INSERT INTO settlements (trip_id, currency, submitted_at, approved_at) VALUES (?, ?, ?, ?)`,
		s.TripID, s.Currency, s.SubmittedAt.UTC(), approvedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save settlement", zap.String("trip_id", s.TripID), zap.Error(err))
		return fmt.Errorf("failed to save settlement: %w", err)
	}

	itemQuery := `
		INSERT INTO settlement_items (
			id, trip_id, position, kind, description, amount, payer,
			system_generated, read_only, receipt_ref
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, item := range s.Items {
		_, err := exec.ExecContext(ctx, itemQuery,
			item.ID,
			s.TripID,
			i,
			string(item.Kind),
			item.Description,
			item.Amount.String(),
			string(item.Payer),
			item.SystemGenerated,
			item.ReadOnly,
			nullString(item.ReceiptRef),
		)
		if err != nil {
			r.logger.Error("Failed to save settlement item",
				zap.String("trip_id", s.TripID),
				zap.String("item_id", item.ID),
				zap.Error(err))
			return fmt.Errorf("failed to save settlement item: %w", err)
		}
	}

	r.logger.Debug("Settlement saved", zap.String("trip_id", s.TripID), zap.Int("items", len(s.Items)))
	return nil
}

// GetByTripID loads the settlement with items in ledger order
func (r *SettlementRepository) GetByTripID(ctx context.Context, tripID string) (*entity.Settlement, error) {
	exec := r.db.Executor(ctx)

	var (
		s          = entity.Settlement{TripID: tripID}
		approvedAt sql.NullTime
	)
	err := exec.QueryRowContext(ctx,
		`SELECT currency, submitted_at, approved_at FROM settlements WHERE trip_id = ?`, tripID,
	).Scan(&s.Currency, &s.SubmittedAt, &approvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: settlement for trip %s", entity.ErrNotFound, tripID)
	}
	if err != nil {
		r.logger.Error("Failed to get settlement", zap.String("trip_id", tripID), zap.Error(err))
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	if approvedAt.Valid {
		at := approvedAt.Time
		s.ApprovedAt = &at
	}

	rows, err := exec.QueryContext(ctx, `
		SELECT id, kind, description, amount, payer, system_generated, read_only, receipt_ref
		FROM settlement_items
		WHERE trip_id = ?
		ORDER BY position ASC
	`, tripID)
	if err != nil {
		r.logger.Error("Failed to get settlement items", zap.String("trip_id", tripID), zap.Error(err))
		return nil, fmt.Errorf("failed to get settlement items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item        entity.LineItem
			kind, payer string
			amount      string
			receiptRef  sql.NullString
		)
		err := rows.Scan(&item.ID, &kind, &item.Description, &amount, &payer,
			&item.SystemGenerated, &item.ReadOnly, &receiptRef)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement item: %w", err)
		}
		if item.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("settlement item %s amount: %w", item.ID, err)
		}
		item.Kind = entity.ItemKind(kind)
		item.Payer = entity.Payer(payer)
		item.ReceiptRef = receiptRef.String
		s.Items = append(s.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &s, nil
}

// MarkApproved stamps the approval time on a submitted settlement
func (r *SettlementRepository) MarkApproved(ctx context.Context, tripID string, at time.Time) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		`UPDATE settlements SET approved_at = ? WHERE trip_id = ?`, at.UTC(), tripID)
	if err != nil {
		r.logger.Error("Failed to approve settlement", zap.String("trip_id", tripID), zap.Error(err))
		return fmt.Errorf("failed to approve settlement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: settlement for trip %s", entity.ErrNotFound, tripID)
	}
	return nil
}

// Verify interface compliance
var _ port.SettlementRepository = (*SettlementRepository)(nil)
