package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenkind/playtrack-backend/internal/logger"
	"github.com/lumenkind/playtrack-backend/internal/types"
)

type BehavioralRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.BehavioralDataPoint) ([]*types.BehavioralDataPoint, error)
	GetByChildSince(ctx context.Context, tx *gorm.DB, childID uuid.UUID, since time.Time) ([]*types.BehavioralDataPoint, error)
}

type behavioralRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBehavioralRepo(db *gorm.DB, baseLog *logger.Logger) BehavioralRepo {
	return &behavioralRepo{db: db, log: baseLog.With("repo", "BehavioralRepo")}
}

func (r *behavioralRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.BehavioralDataPoint) ([]*types.BehavioralDataPoint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.BehavioralDataPoint{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *behavioralRepo) GetByChildSince(ctx context.Context, tx *gorm.DB, childID uuid.UUID, since time.Time) ([]*types.BehavioralDataPoint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.BehavioralDataPoint
	q := transaction.WithContext(ctx).Where("child_id = ?", childID)
	if !since.IsZero() {
		q = q.Where("observed_at >= ?", since)
	}
	if err := q.Order("observed_at asc").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
