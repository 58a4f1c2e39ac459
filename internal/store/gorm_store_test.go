package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lumenkind/playtrack-backend/internal/apperr"
	"github.com/lumenkind/playtrack-backend/internal/logger"
	"github.com/lumenkind/playtrack-backend/internal/types"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.ChildProfile{},
		&types.ProgressTrackingConfig{},
		&types.BehavioralDataPoint{},
		&types.EmotionalStateTransition{},
		&types.SkillAssessment{},
		&types.MilestoneAchievementRecord{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewGormStore(db, logger.NewNop())
}

func TestGormStoreRoundTrip(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()
	childID := uuid.New()

	profile := &types.ChildProfile{
		ID: childID, Name: "Test Child", Age: 6, SupportLevel: 2,
		Interests:         []string{"trains", "puzzles"},
		CalmingStrategies: []string{"deep_pressure"},
	}
	cfg := &types.ProgressTrackingConfig{
		ID: uuid.New(), ChildID: childID,
		FocusAreas:       []types.BehaviorType{types.BehaviorSocialInteraction},
		MilestoneTargets: []string{"social_reciprocity"},
		AlertThresholds:  map[string]float64{types.ThresholdBehavioralIntensitySpike: 0.9},
	}
	if err := s.Initialize(ctx, profile, cfg); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	gotProfile, err := s.Profile(ctx, childID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if len(gotProfile.Interests) != 2 || gotProfile.Interests[0] != "trains" {
		t.Fatalf("interests lost in round trip: %v", gotProfile.Interests)
	}
	gotCfg, err := s.Config(ctx, childID)
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if !gotCfg.FocusesOn(types.BehaviorSocialInteraction) || !gotCfg.TargetsMilestone("social_reciprocity") {
		t.Fatalf("config fields lost in round trip: %+v", gotCfg)
	}
	if gotCfg.AlertThresholds[types.ThresholdBehavioralIntensitySpike] != 0.9 {
		t.Fatalf("alert thresholds lost in round trip: %v", gotCfg.AlertThresholds)
	}

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		if err := s.AppendBehavioral(ctx, &types.BehavioralDataPoint{
			ID: uuid.New(), ChildID: childID, SessionID: uuid.New(),
			BehaviorType: types.BehaviorSocialInteraction,
			Intensity:    0.4 + float64(i)*0.1,
			ObservedAt:   base.Add(time.Duration(i) * time.Minute),
			CreatedAt:    base,
		}); err != nil {
			t.Fatalf("AppendBehavioral %d: %v", i, err)
		}
	}
	points, err := s.BehavioralSince(ctx, childID, time.Time{})
	if err != nil {
		t.Fatalf("BehavioralSince: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].ObservedAt.Before(points[i-1].ObservedAt) {
			t.Fatalf("points not ascending by observed_at")
		}
	}

	if err := s.AppendMilestone(ctx, &types.MilestoneAchievementRecord{
		ID: uuid.New(), ChildID: childID, MilestoneID: "social_reciprocity",
		Confidence: 0.82, Evidence: []string{"skill social_interaction at 0.80 meets 0.75"},
		AchievedAt: time.Now().UTC(), CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("AppendMilestone: %v", err)
	}
	records, err := s.MilestonesSince(ctx, childID, time.Time{})
	if err != nil {
		t.Fatalf("MilestonesSince: %v", err)
	}
	if len(records) != 1 || len(records[0].Evidence) != 1 {
		t.Fatalf("milestone evidence lost in round trip: %+v", records)
	}
}

func TestGormStoreUninitializedChild(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	if _, err := s.Config(ctx, uuid.New()); !apperr.IsNotFound(err) {
		t.Fatalf("Config on unknown child: err = %v, want not-found", err)
	}
	err := s.AppendSkill(ctx, &types.SkillAssessment{ID: uuid.New(), ChildID: uuid.New(), SkillName: "attention", AssessedAt: time.Now()})
	if !apperr.IsNotFound(err) {
		t.Fatalf("AppendSkill on unknown child: err = %v, want not-found", err)
	}
}

func TestGormStoreReinitializeOverwritesConfig(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()
	childID := uuid.New()

	first := &types.ProgressTrackingConfig{ID: uuid.New(), ChildID: childID, TrackingFrequency: "per_session"}
	if err := s.Initialize(ctx, &types.ChildProfile{ID: childID, Name: "A", Age: 5, SupportLevel: 1}, first); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := s.AppendEmotional(ctx, &types.EmotionalStateTransition{
		ID: uuid.New(), ChildID: childID,
		FromState: types.StateNeutral, ToState: types.StateCalm,
		ObservedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("AppendEmotional: %v", err)
	}

	second := &types.ProgressTrackingConfig{ID: uuid.New(), ChildID: childID, TrackingFrequency: "daily"}
	if err := s.Initialize(ctx, &types.ChildProfile{ID: childID, Name: "A", Age: 6, SupportLevel: 1}, second); err != nil {
		t.Fatalf("re-Initialize: %v", err)
	}

	cfg, err := s.Config(ctx, childID)
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if cfg.TrackingFrequency != "daily" {
		t.Fatalf("config not overwritten: %q", cfg.TrackingFrequency)
	}
	if cfg.ID != first.ID {
		t.Fatalf("re-initialization wrote a second config row: id %s, want %s", cfg.ID, first.ID)
	}
	transitions, err := s.EmotionalSince(ctx, childID, time.Time{})
	if err != nil {
		t.Fatalf("EmotionalSince: %v", err)
	}
	if len(transitions) != 1 {
		t.Fatalf("re-initialization dropped the emotional log: got %d", len(transitions))
	}
}
