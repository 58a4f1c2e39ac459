package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenkind/playtrack-backend/internal/logger"
	"github.com/lumenkind/playtrack-backend/internal/types"
)

type SkillAssessmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.SkillAssessment) ([]*types.SkillAssessment, error)
	GetByChildSince(ctx context.Context, tx *gorm.DB, childID uuid.UUID, since time.Time) ([]*types.SkillAssessment, error)
}

type skillAssessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) SkillAssessmentRepo {
	return &skillAssessmentRepo{db: db, log: baseLog.With("repo", "SkillAssessmentRepo")}
}

func (r *skillAssessmentRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.SkillAssessment) ([]*types.SkillAssessment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.SkillAssessment{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *skillAssessmentRepo) GetByChildSince(ctx context.Context, tx *gorm.DB, childID uuid.UUID, since time.Time) ([]*types.SkillAssessment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.SkillAssessment
	q := transaction.WithContext(ctx).Where("child_id = ?", childID)
	if !since.IsZero() {
		q = q.Where("assessed_at >= ?", since)
	}
	if err := q.Order("assessed_at asc").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
