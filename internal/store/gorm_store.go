package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenkind/playtrack-backend/internal/apperr"
	"github.com/lumenkind/playtrack-backend/internal/logger"
	"github.com/lumenkind/playtrack-backend/internal/repos"
	"github.com/lumenkind/playtrack-backend/internal/types"
)

// GormStore is the database-backed Store. Each append is its own
// transaction boundary; ordering and atomicity come from the database, so
// unlike MemoryStore no in-process per-child lock is needed.
type GormStore struct {
	db         *gorm.DB
	log        *logger.Logger
	profiles   repos.ChildProfileRepo
	configs    repos.TrackingConfigRepo
	behavioral repos.BehavioralRepo
	emotional  repos.EmotionalRepo
	skills     repos.SkillAssessmentRepo
	milestones repos.MilestoneAchievementRepo
}

func NewGormStore(db *gorm.DB, baseLog *logger.Logger) *GormStore {
	log := baseLog.With("store", "GormStore")
	return &GormStore{
		db:         db,
		log:        log,
		profiles:   repos.NewChildProfileRepo(db, baseLog),
		configs:    repos.NewTrackingConfigRepo(db, baseLog),
		behavioral: repos.NewBehavioralRepo(db, baseLog),
		emotional:  repos.NewEmotionalRepo(db, baseLog),
		skills:     repos.NewSkillAssessmentRepo(db, baseLog),
		milestones: repos.NewMilestoneAchievementRepo(db, baseLog),
	}
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) Initialize(ctx context.Context, profile *types.ChildProfile, cfg *types.ProgressTrackingConfig) error {
	if profile == nil || cfg == nil {
		return apperr.Validationf("profile and config required")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.profiles.Upsert(ctx, tx, profile); err != nil {
			return err
		}
		return s.configs.UpsertByChildID(ctx, tx, cfg)
	})
}

func (s *GormStore) Profile(ctx context.Context, childID uuid.UUID) (*types.ChildProfile, error) {
	row, err := s.profiles.GetByID(ctx, nil, childID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.NotFoundf("child %s tracking not initialized", childID)
	}
	return row, nil
}

func (s *GormStore) Config(ctx context.Context, childID uuid.UUID) (*types.ProgressTrackingConfig, error) {
	row, err := s.configs.GetByChildID(ctx, nil, childID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.NotFoundf("child %s tracking not initialized", childID)
	}
	return row, nil
}

// requireInitialized makes the write-path NotFound contract explicit instead
// of relying on foreign key errors.
func (s *GormStore) requireInitialized(ctx context.Context, childID uuid.UUID) error {
	_, err := s.Config(ctx, childID)
	return err
}

func (s *GormStore) AppendBehavioral(ctx context.Context, point *types.BehavioralDataPoint) error {
	if point == nil {
		return apperr.Validationf("nil behavioral point")
	}
	if err := s.requireInitialized(ctx, point.ChildID); err != nil {
		return err
	}
	_, err := s.behavioral.Create(ctx, nil, []*types.BehavioralDataPoint{point})
	return err
}

func (s *GormStore) AppendEmotional(ctx context.Context, tr *types.EmotionalStateTransition) error {
	if tr == nil {
		return apperr.Validationf("nil emotional transition")
	}
	if err := s.requireInitialized(ctx, tr.ChildID); err != nil {
		return err
	}
	_, err := s.emotional.Create(ctx, nil, []*types.EmotionalStateTransition{tr})
	return err
}

func (s *GormStore) AppendSkill(ctx context.Context, a *types.SkillAssessment) error {
	if a == nil {
		return apperr.Validationf("nil skill assessment")
	}
	if err := s.requireInitialized(ctx, a.ChildID); err != nil {
		return err
	}
	_, err := s.skills.Create(ctx, nil, []*types.SkillAssessment{a})
	return err
}

func (s *GormStore) AppendMilestone(ctx context.Context, rec *types.MilestoneAchievementRecord) error {
	if rec == nil {
		return apperr.Validationf("nil milestone record")
	}
	if err := s.requireInitialized(ctx, rec.ChildID); err != nil {
		return err
	}
	return s.milestones.Create(ctx, nil, rec)
}

func (s *GormStore) BehavioralSince(ctx context.Context, childID uuid.UUID, since time.Time) ([]*types.BehavioralDataPoint, error) {
	if err := s.requireInitialized(ctx, childID); err != nil {
		return nil, err
	}
	return s.behavioral.GetByChildSince(ctx, nil, childID, since)
}

func (s *GormStore) EmotionalSince(ctx context.Context, childID uuid.UUID, since time.Time) ([]*types.EmotionalStateTransition, error) {
	if err := s.requireInitialized(ctx, childID); err != nil {
		return nil, err
	}
	return s.emotional.GetByChildSince(ctx, nil, childID, since)
}

func (s *GormStore) SkillsSince(ctx context.Context, childID uuid.UUID, since time.Time) ([]*types.SkillAssessment, error) {
	if err := s.requireInitialized(ctx, childID); err != nil {
		return nil, err
	}
	return s.skills.GetByChildSince(ctx, nil, childID, since)
}

func (s *GormStore) MilestonesSince(ctx context.Context, childID uuid.UUID, since time.Time) ([]*types.MilestoneAchievementRecord, error) {
	if err := s.requireInitialized(ctx, childID); err != nil {
		return nil, err
	}
	return s.milestones.GetByChildSince(ctx, nil, childID, since)
}
