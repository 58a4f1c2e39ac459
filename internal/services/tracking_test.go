package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lumenkind/playtrack-backend/internal/analysis"
	"github.com/lumenkind/playtrack-backend/internal/apperr"
	"github.com/lumenkind/playtrack-backend/internal/logger"
	"github.com/lumenkind/playtrack-backend/internal/store"
	"github.com/lumenkind/playtrack-backend/internal/types"
)

func newTestService(t *testing.T) (ProgressTrackingService, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	svc := NewProgressTrackingService(st, analysis.DefaultCatalog(), analysis.DefaultConfig(), logger.NewNop(), nil)
	return svc, st
}

func testProfile(childID uuid.UUID) *types.ChildProfile {
	return &types.ChildProfile{
		ID:                childID,
		Name:              "Test Child",
		Age:               7,
		SupportLevel:      1,
		CalmingStrategies: []string{"quiet_corner"},
	}
}

func TestInitializeChildTracking(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		_, err := svc.InitializeChildTracking(ctx, &types.ChildProfile{ID: uuid.Nil})
		require.True(t, apperr.IsValidation(err))

		_, err = svc.InitializeChildTracking(ctx, &types.ChildProfile{ID: uuid.New(), Age: 42, SupportLevel: 1})
		require.True(t, apperr.IsValidation(err))

		_, err = svc.InitializeChildTracking(ctx, &types.ChildProfile{ID: uuid.New(), Age: 7, SupportLevel: 5})
		require.True(t, apperr.IsValidation(err))
	})

	t.Run("derives config from profile", func(t *testing.T) {
		childID := uuid.New()
		cfg, err := svc.InitializeChildTracking(ctx, testProfile(childID))
		require.NoError(t, err)
		require.Equal(t, childID, cfg.ChildID)
		require.Contains(t, cfg.FocusAreas, types.BehaviorSocialInteraction)
		require.Contains(t, cfg.FocusAreas, types.BehaviorEmotionalRegulation)
		require.Contains(t, cfg.MilestoneTargets, "social_reciprocity")
		require.Greater(t, cfg.AlertThresholds[types.ThresholdBehavioralIntensitySpike], 0.0)
	})

	t.Run("support level widens focus areas", func(t *testing.T) {
		profile := testProfile(uuid.New())
		profile.SupportLevel = 3
		profile.SensoryProfile = "hypersensitive_auditory"
		cfg, err := svc.InitializeChildTracking(ctx, profile)
		require.NoError(t, err)
		require.Contains(t, cfg.FocusAreas, types.BehaviorCommunication)
		require.Contains(t, cfg.FocusAreas, types.BehaviorAdaptiveBehavior)
		require.Contains(t, cfg.FocusAreas, types.BehaviorSensoryProcessing)
		// adaptive_flexibility caps at support level 2.
		require.NotContains(t, cfg.MilestoneTargets, "adaptive_flexibility")
	})

	t.Run("age bounds milestone targets", func(t *testing.T) {
		profile := testProfile(uuid.New())
		profile.Age = 3
		cfg, err := svc.InitializeChildTracking(ctx, profile)
		require.NoError(t, err)
		require.NotContains(t, cfg.MilestoneTargets, "attention_sustained_engagement")
	})
}

func TestRecordBehavioralObservations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("uninitialized child", func(t *testing.T) {
		_, err := svc.RecordBehavioralObservations(ctx, uuid.New(), uuid.New(), []BehavioralObservationInput{
			{BehaviorType: types.BehaviorSocialInteraction, Intensity: 0.5},
		})
		require.True(t, apperr.IsNotFound(err))
	})

	childID := uuid.New()
	_, err := svc.InitializeChildTracking(ctx, testProfile(childID))
	require.NoError(t, err)

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := svc.RecordBehavioralObservations(ctx, childID, uuid.New(), []BehavioralObservationInput{
			{BehaviorType: "telepathy", Intensity: 0.5},
		})
		require.True(t, apperr.IsValidation(err))

		_, err = svc.RecordBehavioralObservations(ctx, childID, uuid.New(), []BehavioralObservationInput{
			{BehaviorType: types.BehaviorSocialInteraction, Intensity: 1.5},
		})
		require.True(t, apperr.IsValidation(err))

		_, err = svc.RecordBehavioralObservations(ctx, childID, uuid.New(), []BehavioralObservationInput{
			{BehaviorType: types.BehaviorSocialInteraction, Intensity: 0.5, DurationSeconds: -10},
		})
		require.True(t, apperr.IsValidation(err))
	})

	t.Run("appends points with ids and timestamps", func(t *testing.T) {
		sessionID := uuid.New()
		at := time.Now().Add(-10 * time.Minute)
		points, err := svc.RecordBehavioralObservations(ctx, childID, sessionID, []BehavioralObservationInput{
			{BehaviorType: types.BehaviorSocialInteraction, Intensity: 0.6, DurationSeconds: 30, ObservedAt: &at},
			{BehaviorType: types.BehaviorCommunication, Intensity: 0.4, DurationSeconds: 15},
		})
		require.NoError(t, err)
		require.Len(t, points, 2)
		for _, p := range points {
			require.NotEqual(t, uuid.Nil, p.ID)
			require.Equal(t, childID, p.ChildID)
			require.Equal(t, sessionID, p.SessionID)
		}
		require.WithinDuration(t, at, points[0].ObservedAt, time.Second)
	})
}

func TestRecordEmotionalTransitions(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	childID := uuid.New()
	_, err := svc.InitializeChildTracking(ctx, testProfile(childID))
	require.NoError(t, err)
	sessionID := uuid.New()

	t.Run("rejects unknown states", func(t *testing.T) {
		_, err := svc.RecordEmotionalTransitions(ctx, childID, sessionID, []EmotionalTransitionInput{
			{FromState: "euphoric", ToState: types.StateCalm},
		})
		require.True(t, apperr.IsValidation(err))
	})

	t.Run("rejected batch appends nothing", func(t *testing.T) {
		_, err := svc.RecordEmotionalTransitions(ctx, childID, sessionID, []EmotionalTransitionInput{
			{FromState: types.StateCalm, ToState: types.StateAnxious, DurationSeconds: 30},
			{FromState: "euphoric", ToState: types.StateCalm},
		})
		require.True(t, apperr.IsValidation(err))
		history, err := st.EmotionalSince(ctx, childID, time.Time{})
		require.NoError(t, err)
		require.Empty(t, history)
	})

	t.Run("dysregulated endpoint yields support recommendations", func(t *testing.T) {
		result, err := svc.RecordEmotionalTransitions(ctx, childID, sessionID, []EmotionalTransitionInput{
			{FromState: types.StateCalm, ToState: types.StateAnxious, DurationSeconds: 45},
			{FromState: types.StateAnxious, ToState: types.StateOverwhelmed, DurationSeconds: 90, SupportNeeded: true},
		})
		require.NoError(t, err)
		require.Len(t, result.Recorded, 2)
		require.Equal(t, 2, result.Insights.SampleCount)
		require.NotEmpty(t, result.Recommendations)
	})

	t.Run("regulated endpoint recommends continuing", func(t *testing.T) {
		result, err := svc.RecordEmotionalTransitions(ctx, childID, sessionID, []EmotionalTransitionInput{
			{FromState: types.StateOverwhelmed, ToState: types.StateCalm, DurationSeconds: 120},
		})
		require.NoError(t, err)
		require.Len(t, result.Recommendations, 1)
		require.False(t, result.Recommendations[0].FromHistory)
	})
}

// A skill update that crosses a milestone threshold must surface the
// achievement, and re-detections inside the cool-down must not re-notify.
func TestSkillUpdateMilestoneCrossing(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	childID := uuid.New()
	_, err := svc.InitializeChildTracking(ctx, testProfile(childID))
	require.NoError(t, err)
	sessionID := uuid.New()

	// Below the 0.75 bar: nothing achieved anywhere.
	res, err := svc.UpdateSkillAssessment(ctx, childID, SkillUpdateInput{
		SkillName: "social_interaction", NewScore: 0.5, Method: "observation",
	})
	require.NoError(t, err)
	require.Empty(t, res.NewlyAchieved)
	require.Equal(t, 0.5, res.Assessment.BaselineScore) // first record sets its own baseline
	require.InDelta(t, 0.7, res.Assessment.TargetScore, 1e-9)

	newly, err := svc.DetectMilestoneAchievements(ctx, childID, sessionID)
	require.NoError(t, err)
	require.Empty(t, newly)

	// Crossing the bar records the achievement straight from the update.
	res, err = svc.UpdateSkillAssessment(ctx, childID, SkillUpdateInput{
		SkillName: "social_interaction", NewScore: 0.8, Method: "observation",
	})
	require.NoError(t, err)
	require.Len(t, res.NewlyAchieved, 1)
	require.Equal(t, "social_reciprocity", res.NewlyAchieved[0].MilestoneID)
	require.Greater(t, res.NewlyAchieved[0].Confidence, 0.5)
	require.False(t, res.NewlyAchieved[0].Reconfirmed)
	require.NotEmpty(t, res.NewlyAchieved[0].Evidence)
	require.Equal(t, 0.5, res.Assessment.BaselineScore) // baseline carried forward

	// A decisive score raises the recorded confidence past the suppression bar.
	res, err = svc.UpdateSkillAssessment(ctx, childID, SkillUpdateInput{
		SkillName: "social_interaction", NewScore: 1.0, Method: "observation",
	})
	require.NoError(t, err)
	require.Len(t, res.NewlyAchieved, 1)
	require.Equal(t, "social_reciprocity", res.NewlyAchieved[0].MilestoneID)
	require.GreaterOrEqual(t, res.NewlyAchieved[0].Confidence, 0.8)

	// Inside the cool-down the sweep reconfirms without re-notifying.
	newly, err = svc.DetectMilestoneAchievements(ctx, childID, sessionID)
	require.NoError(t, err)
	require.Empty(t, newly)

	records, err := st.MilestonesSince(ctx, childID, time.Time{})
	require.NoError(t, err)
	var reconfirmed int
	for _, r := range records {
		if r.Reconfirmed {
			reconfirmed++
		}
	}
	require.GreaterOrEqual(t, reconfirmed, 1, "suppressed re-detection should still be recorded as a reconfirmation")
}

func TestGetNextMilestoneTargets(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	childID := uuid.New()
	_, err := svc.InitializeChildTracking(ctx, testProfile(childID))
	require.NoError(t, err)

	// With no data every target is pending, ranked deterministically.
	targets, err := svc.GetNextMilestoneTargets(ctx, childID)
	require.NoError(t, err)
	require.NotEmpty(t, targets)

	// A near-threshold skill pushes its milestone to the front.
	_, err = svc.UpdateSkillAssessment(ctx, childID, SkillUpdateInput{
		SkillName: "social_interaction", NewScore: 0.74, Method: "observation",
	})
	require.NoError(t, err)
	targets, err = svc.GetNextMilestoneTargets(ctx, childID)
	require.NoError(t, err)
	require.Equal(t, "social_reciprocity", targets[0])

	// Achieved milestones drop out of the pending list.
	_, err = svc.UpdateSkillAssessment(ctx, childID, SkillUpdateInput{
		SkillName: "social_interaction", NewScore: 1.0, Method: "observation",
	})
	require.NoError(t, err)
	targets, err = svc.GetNextMilestoneTargets(ctx, childID)
	require.NoError(t, err)
	require.NotContains(t, targets, "social_reciprocity")
}

func TestGenerateRealTimeMetrics(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	childID := uuid.New()
	_, err := svc.InitializeChildTracking(ctx, testProfile(childID))
	require.NoError(t, err)
	sessionID := uuid.New()

	_, err = svc.RecordBehavioralObservations(ctx, childID, sessionID, []BehavioralObservationInput{
		{BehaviorType: types.BehaviorSocialInteraction, Intensity: 0.8, DurationSeconds: 30},
		{BehaviorType: types.BehaviorAttentionRegulation, Intensity: 0.6, DurationSeconds: 60},
	})
	require.NoError(t, err)
	_, err = svc.RecordEmotionalTransitions(ctx, childID, sessionID, []EmotionalTransitionInput{
		{FromState: types.StateNeutral, ToState: types.StateEngaged, DurationSeconds: 20},
	})
	require.NoError(t, err)

	m, err := svc.GenerateRealTimeMetrics(ctx, sessionID, childID)
	require.NoError(t, err)
	require.Equal(t, sessionID, m.SessionID)
	require.Equal(t, childID, m.ChildID)
	require.Equal(t, 3, m.ObservationCount)
	require.Equal(t, types.StateEngaged, m.CurrentState)
	require.Greater(t, m.EngagementScore, 0.0)
	require.Greater(t, m.AttentionScore, 0.0)
}

func TestGenerateRealTimeMetricsRebuildsAfterRestart(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	childID := uuid.New()
	_, err := svc.InitializeChildTracking(ctx, testProfile(childID))
	require.NoError(t, err)
	sessionID := uuid.New()

	_, err = svc.RecordBehavioralObservations(ctx, childID, sessionID, []BehavioralObservationInput{
		{BehaviorType: types.BehaviorCommunication, Intensity: 0.7, DurationSeconds: 30},
	})
	require.NoError(t, err)

	// A fresh service over the same store simulates a process restart; the
	// registry is empty but the logs survive.
	restarted := NewProgressTrackingService(st, analysis.DefaultCatalog(), analysis.DefaultConfig(), logger.NewNop(), nil)
	m, err := restarted.GenerateRealTimeMetrics(ctx, sessionID, childID)
	require.NoError(t, err)
	require.Equal(t, 1, m.ObservationCount)
	require.Greater(t, m.EngagementScore, 0.0)
}

func TestGenerateDashboardData(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("uninitialized child degrades to empty partial", func(t *testing.T) {
		data, err := svc.GenerateDashboardData(ctx, uuid.New(), time.Time{}, time.Time{})
		require.NoError(t, err)
		require.True(t, data.Partial)
		require.NotEmpty(t, data.PartialReasons)
	})

	childID := uuid.New()
	_, err := svc.InitializeChildTracking(ctx, testProfile(childID))
	require.NoError(t, err)

	t.Run("zero observations is not an error", func(t *testing.T) {
		data, err := svc.GenerateDashboardData(ctx, childID, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.False(t, data.Partial)
		require.True(t, data.Emotional.LowConfidence)
		require.True(t, data.RegulationLowConfidence)
		require.InDelta(t, 0.5, data.CurrentRegulation, 1e-9)
		require.NotEmpty(t, data.NextTargets)
	})

	t.Run("single observation stays insufficient", func(t *testing.T) {
		sessionID := uuid.New()
		_, err := svc.RecordBehavioralObservations(ctx, childID, sessionID, []BehavioralObservationInput{
			{BehaviorType: types.BehaviorSocialInteraction, Intensity: 0.6, DurationSeconds: 30},
		})
		require.NoError(t, err)

		data, err := svc.GenerateDashboardData(ctx, childID, time.Time{}, time.Time{})
		require.NoError(t, err)
		pa, ok := data.Behavioral.Patterns[types.BehaviorSocialInteraction]
		require.True(t, ok)
		require.True(t, pa.InsufficientData)
	})
}

func TestGenerateLongTermReport(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	childID := uuid.New()
	_, err := svc.InitializeChildTracking(ctx, testProfile(childID))
	require.NoError(t, err)
	sessionID := uuid.New()

	intervention := "visual_schedule"
	var obs []BehavioralObservationInput
	for i := 0; i < 6; i++ {
		at := time.Now().Add(time.Duration(i-6) * time.Hour)
		o := BehavioralObservationInput{
			BehaviorType:    types.BehaviorSocialInteraction,
			Intensity:       0.3 + float64(i)*0.1,
			DurationSeconds: 30,
			ObservedAt:      &at,
		}
		if i%2 == 0 {
			o.InterventionUsed = &intervention
		}
		obs = append(obs, o)
	}
	_, err = svc.RecordBehavioralObservations(ctx, childID, sessionID, obs)
	require.NoError(t, err)
	_, err = svc.UpdateSkillAssessment(ctx, childID, SkillUpdateInput{
		SkillName: "social_interaction", NewScore: 0.6, Method: "observation",
	})
	require.NoError(t, err)

	report, err := svc.GenerateLongTermReport(ctx, childID, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.False(t, report.Partial)

	pred, ok := report.Predictions[types.BehaviorSocialInteraction]
	require.True(t, ok)
	require.True(t, pred.Heuristic)

	require.NotEmpty(t, report.MilestoneReadiness)
	require.Contains(t, report.MilestoneReadiness, "social_reciprocity")

	require.Len(t, report.InterventionEffects, 1)
	require.Equal(t, intervention, report.InterventionEffects[0].Intervention)
	require.Equal(t, 3, report.InterventionEffects[0].Uses)
}

func TestGenerateProgressSummary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("uninitialized child is not-found", func(t *testing.T) {
		_, err := svc.GenerateProgressSummary(ctx, uuid.New())
		require.True(t, apperr.IsNotFound(err))
	})

	childID := uuid.New()
	_, err := svc.InitializeChildTracking(ctx, testProfile(childID))
	require.NoError(t, err)

	t.Run("zero data never fails", func(t *testing.T) {
		summary, err := svc.GenerateProgressSummary(ctx, childID)
		require.NoError(t, err)
		require.Zero(t, summary.ObservationCount)
		require.Zero(t, summary.TransitionCount)
		require.True(t, summary.LowConfidence)
		require.InDelta(t, 0.5, summary.RegulationScore, 1e-9)
	})

	t.Run("counts reflect the logs", func(t *testing.T) {
		sessionID := uuid.New()
		_, err := svc.RecordBehavioralObservations(ctx, childID, sessionID, []BehavioralObservationInput{
			{BehaviorType: types.BehaviorSocialInteraction, Intensity: 0.5, DurationSeconds: 10},
			{BehaviorType: types.BehaviorSocialInteraction, Intensity: 0.6, DurationSeconds: 10},
		})
		require.NoError(t, err)
		_, err = svc.RecordEmotionalTransitions(ctx, childID, sessionID, []EmotionalTransitionInput{
			{FromState: types.StateAnxious, ToState: types.StateCalm, DurationSeconds: 60},
			{FromState: types.StateCalm, ToState: types.StateContent, DurationSeconds: 30},
		})
		require.NoError(t, err)
		_, err = svc.UpdateSkillAssessment(ctx, childID, SkillUpdateInput{
			SkillName: "communication", NewScore: 0.4, Method: "observation",
		})
		require.NoError(t, err)

		summary, err := svc.GenerateProgressSummary(ctx, childID)
		require.NoError(t, err)
		require.Equal(t, 2, summary.ObservationCount)
		require.Equal(t, 2, summary.TransitionCount)
		require.Equal(t, 1, summary.SkillCount)
		require.False(t, summary.LowConfidence)
	})
}
