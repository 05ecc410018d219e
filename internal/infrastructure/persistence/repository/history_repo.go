package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/domain/workflow"
	"github.com/garyjia/business-trip/internal/infrastructure/persistence/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlite.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a history record
func (r *HistoryRepository) Create(ctx context.Context, history *entity.TripHistory) error {
	query := `
		INSERT INTO trip_history (
			id, trip_id, actor_id, action, from_status, to_status, note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now()
	}

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		history.ID,
		history.TripID,
		history.ActorID,
		history.Action,
		nullString(string(history.FromStatus)),
		string(history.ToStatus),
		nullString(history.Note),
		history.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.String("trip_id", history.TripID), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}
	return nil
}

// GetByTripID retrieves all history records for a trip, oldest first
func (r *HistoryRepository) GetByTripID(ctx context.Context, tripID string) ([]*entity.TripHistory, error) {
	query := `
		SELECT id, trip_id, actor_id, action, from_status, to_status, note, created_at
		FROM trip_history
		WHERE trip_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, tripID)
	if err != nil {
		r.logger.Error("Failed to get history by trip ID", zap.String("trip_id", tripID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []*entity.TripHistory
	for rows.Next() {
		var (
			record     entity.TripHistory
			fromStatus sql.NullString
			toStatus   string
			note       sql.NullString
		)
		err := rows.Scan(
			&record.ID,
			&record.TripID,
			&record.ActorID,
			&record.Action,
			&fromStatus,
			&toStatus,
			&note,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		record.FromStatus = workflow.State(fromStatus.String)
		record.ToStatus = workflow.State(toStatus)
		record.Note = note.String
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
