package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenkind/playtrack-backend/internal/logger"
	"github.com/lumenkind/playtrack-backend/internal/types"
)

type EmotionalRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.EmotionalStateTransition) ([]*types.EmotionalStateTransition, error)
	GetByChildSince(ctx context.Context, tx *gorm.DB, childID uuid.UUID, since time.Time) ([]*types.EmotionalStateTransition, error)
}

type emotionalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmotionalRepo(db *gorm.DB, baseLog *logger.Logger) EmotionalRepo {
	return &emotionalRepo{db: db, log: baseLog.With("repo", "EmotionalRepo")}
}

func (r *emotionalRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.EmotionalStateTransition) ([]*types.EmotionalStateTransition, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.EmotionalStateTransition{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *emotionalRepo) GetByChildSince(ctx context.Context, tx *gorm.DB, childID uuid.UUID, since time.Time) ([]*types.EmotionalStateTransition, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.EmotionalStateTransition
	q := transaction.WithContext(ctx).Where("child_id = ?", childID)
	if !since.IsZero() {
		q = q.Where("observed_at >= ?", since)
	}
	if err := q.Order("observed_at asc").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
