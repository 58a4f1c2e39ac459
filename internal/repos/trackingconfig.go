package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenkind/playtrack-backend/internal/logger"
	"github.com/lumenkind/playtrack-backend/internal/types"
)

type TrackingConfigRepo interface {
	UpsertByChildID(ctx context.Context, tx *gorm.DB, row *types.ProgressTrackingConfig) error
	GetByChildID(ctx context.Context, tx *gorm.DB, childID uuid.UUID) (*types.ProgressTrackingConfig, error)
}

type trackingConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrackingConfigRepo(db *gorm.DB, baseLog *logger.Logger) TrackingConfigRepo {
	return &trackingConfigRepo{db: db, log: baseLog.With("repo", "TrackingConfigRepo")}
}

func (r *trackingConfigRepo) UpsertByChildID(ctx context.Context, tx *gorm.DB, row *types.ProgressTrackingConfig) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil
	}
	// One config row per child; re-initialization overwrites in place, so an
	// existing row keeps its primary key regardless of the one the caller
	// generated.
	var existing types.ProgressTrackingConfig
	err := transaction.WithContext(ctx).
		Where("child_id = ?", row.ChildID).
		First(&existing).Error
	if err == nil {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		return transaction.WithContext(ctx).Save(row).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *trackingConfigRepo) GetByChildID(ctx context.Context, tx *gorm.DB, childID uuid.UUID) (*types.ProgressTrackingConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.ProgressTrackingConfig
	if err := transaction.WithContext(ctx).
		Where("child_id = ?", childID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
