package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenkind/playtrack-backend/internal/logger"
	"github.com/lumenkind/playtrack-backend/internal/types"
)

type MilestoneAchievementRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.MilestoneAchievementRecord) error
	GetByChildSince(ctx context.Context, tx *gorm.DB, childID uuid.UUID, since time.Time) ([]*types.MilestoneAchievementRecord, error)
}

type milestoneAchievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMilestoneAchievementRepo(db *gorm.DB, baseLog *logger.Logger) MilestoneAchievementRepo {
	return &milestoneAchievementRepo{db: db, log: baseLog.With("repo", "MilestoneAchievementRepo")}
}

func (r *milestoneAchievementRepo) Create(ctx context.Context, tx *gorm.DB, row *types.MilestoneAchievementRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *milestoneAchievementRepo) GetByChildSince(ctx context.Context, tx *gorm.DB, childID uuid.UUID, since time.Time) ([]*types.MilestoneAchievementRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.MilestoneAchievementRecord
	q := transaction.WithContext(ctx).Where("child_id = ?", childID)
	if !since.IsZero() {
		q = q.Where("achieved_at >= ?", since)
	}
	if err := q.Order("achieved_at asc").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
