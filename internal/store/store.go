package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lumenkind/playtrack-backend/internal/types"
)

// Store is the Child Tracking Store: exclusive owner of all per-child logs
// and tracking configuration. Logs are append-only and read back in
// ascending ObservedAt order; reads never trigger side effects.
//
// Appends for a child that was never initialized fail with apperr.ErrNotFound.
// Initialize is idempotent on the config and never clears historical logs.
type Store interface {
	Initialize(ctx context.Context, profile *types.ChildProfile, cfg *types.ProgressTrackingConfig) error
	Profile(ctx context.Context, childID uuid.UUID) (*types.ChildProfile, error)
	Config(ctx context.Context, childID uuid.UUID) (*types.ProgressTrackingConfig, error)

	AppendBehavioral(ctx context.Context, point *types.BehavioralDataPoint) error
	AppendEmotional(ctx context.Context, tr *types.EmotionalStateTransition) error
	AppendSkill(ctx context.Context, a *types.SkillAssessment) error
	AppendMilestone(ctx context.Context, rec *types.MilestoneAchievementRecord) error

	// Since queries return records with ObservedAt (AchievedAt / AssessedAt
	// for skills and milestones) at or after the given time, ascending. A
	// zero time returns the full history.
	BehavioralSince(ctx context.Context, childID uuid.UUID, since time.Time) ([]*types.BehavioralDataPoint, error)
	EmotionalSince(ctx context.Context, childID uuid.UUID, since time.Time) ([]*types.EmotionalStateTransition, error)
	SkillsSince(ctx context.Context, childID uuid.UUID, since time.Time) ([]*types.SkillAssessment, error)
	MilestonesSince(ctx context.Context, childID uuid.UUID, since time.Time) ([]*types.MilestoneAchievementRecord, error)
}
