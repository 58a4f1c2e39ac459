package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenkind/playtrack-backend/internal/logger"
	"github.com/lumenkind/playtrack-backend/internal/types"
)

type ChildProfileRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.ChildProfile) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChildProfile, error)
}

type childProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChildProfileRepo(db *gorm.DB, baseLog *logger.Logger) ChildProfileRepo {
	return &childProfileRepo{db: db, log: baseLog.With("repo", "ChildProfileRepo")}
}

func (r *childProfileRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.ChildProfile) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id = ?", row.ID).
		Assign(row).
		FirstOrCreate(row).Error
}

func (r *childProfileRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChildProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.ChildProfile
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
