package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/lumenkind/playtrack-backend/internal/analysis"
	"github.com/lumenkind/playtrack-backend/internal/apperr"
	redisclient "github.com/lumenkind/playtrack-backend/internal/clients/redis"
	"github.com/lumenkind/playtrack-backend/internal/logger"
	"github.com/lumenkind/playtrack-backend/internal/store"
	"github.com/lumenkind/playtrack-backend/internal/types"
)

// maxSupportedAge bounds profile validation; the platform targets children.
const maxSupportedAge = 18

// BehavioralObservationInput is one raw observation as submitted by a game
// session or clinician.
type BehavioralObservationInput struct {
	BehaviorType     types.BehaviorType     `json:"behavior_type"`
	Intensity        float64                `json:"intensity"`
	DurationSeconds  float64                `json:"duration_seconds"`
	Context          map[string]interface{} `json:"context,omitempty"`
	Trigger          *string                `json:"trigger,omitempty"`
	InterventionUsed *string                `json:"intervention_used,omitempty"`
	ObservedAt       *time.Time             `json:"observed_at,omitempty"`
}

// EmotionalTransitionInput is one raw state transition. Per-event recording
// is a batch of size one.
type EmotionalTransitionInput struct {
	FromState          types.EmotionalState `json:"from_state"`
	ToState            types.EmotionalState `json:"to_state"`
	TriggerEvent       *string              `json:"trigger_event,omitempty"`
	DurationSeconds    float64              `json:"duration_seconds"`
	SupportNeeded      bool                 `json:"support_needed"`
	RegulationStrategy *string              `json:"regulation_strategy,omitempty"`
	ObservedAt         *time.Time           `json:"observed_at,omitempty"`
}

// EmotionalRecordingResult pairs the appended transitions with the immediate
// read-back the recording contract promises: progression insights plus
// support recommendations for the state the child is now in.
type EmotionalRecordingResult struct {
	Recorded        []*types.EmotionalStateTransition `json:"recorded"`
	Insights        analysis.EmotionalProgressProfile `json:"insights"`
	Recommendations []analysis.Recommendation         `json:"recommendations"`
}

type SkillUpdateInput struct {
	SkillName string  `json:"skill_name"`
	NewScore  float64 `json:"new_score"`
	Method    string  `json:"assessment_method"`
	Notes     string  `json:"notes,omitempty"`
}

type SkillUpdateResult struct {
	Assessment    *types.SkillAssessment              `json:"assessment"`
	NewlyAchieved []*types.MilestoneAchievementRecord `json:"newly_achieved,omitempty"`
}

// ProgressTrackingService is the only surface external callers talk to. It
// owns the Child Tracking Store and composes the three analyzers.
type ProgressTrackingService interface {
	InitializeChildTracking(ctx context.Context, profile *types.ChildProfile) (*types.ProgressTrackingConfig, error)
	RecordBehavioralObservations(ctx context.Context, childID, sessionID uuid.UUID, obs []BehavioralObservationInput) ([]*types.BehavioralDataPoint, error)
	RecordEmotionalTransitions(ctx context.Context, childID, sessionID uuid.UUID, trs []EmotionalTransitionInput) (*EmotionalRecordingResult, error)
	UpdateSkillAssessment(ctx context.Context, childID uuid.UUID, input SkillUpdateInput) (*SkillUpdateResult, error)

	GenerateRealTimeMetrics(ctx context.Context, sessionID, childID uuid.UUID) (*types.RealTimeProgressMetrics, error)
	DetectMilestoneAchievements(ctx context.Context, childID, sessionID uuid.UUID) ([]*types.MilestoneAchievementRecord, error)
	GetNextMilestoneTargets(ctx context.Context, childID uuid.UUID) ([]string, error)

	GenerateDashboardData(ctx context.Context, childID uuid.UUID, start, end time.Time) (*DashboardData, error)
	GenerateLongTermReport(ctx context.Context, childID uuid.UUID, start, end time.Time) (*Report, error)
	GenerateProgressSummary(ctx context.Context, childID uuid.UUID) (*ProgressSummary, error)
}

type progressTrackingService struct {
	store    store.Store
	catalog  analysis.Catalog
	acfg     analysis.Config
	log      *logger.Logger
	sessions *SessionRegistry
	bus      redisclient.MetricsBus
}

// NewProgressTrackingService wires the orchestrator. bus may be nil; metrics
// then stay local to the process.
func NewProgressTrackingService(st store.Store, catalog analysis.Catalog, acfg analysis.Config, baseLog *logger.Logger, bus redisclient.MetricsBus) ProgressTrackingService {
	return &progressTrackingService{
		store:    st,
		catalog:  catalog,
		acfg:     acfg,
		log:      baseLog.With("service", "ProgressTrackingService"),
		sessions: NewSessionRegistry(),
		bus:      bus,
	}
}

func (s *progressTrackingService) InitializeChildTracking(ctx context.Context, profile *types.ChildProfile) (*types.ProgressTrackingConfig, error) {
	if profile == nil || profile.ID == uuid.Nil {
		return nil, apperr.Validationf("child id required")
	}
	if profile.Age < 0 || profile.Age > maxSupportedAge {
		return nil, apperr.Validationf("age %d out of supported range 0..%d", profile.Age, maxSupportedAge)
	}
	if profile.SupportLevel < 1 || profile.SupportLevel > 3 {
		return nil, apperr.Validationf("support level %d out of range 1..3", profile.SupportLevel)
	}

	now := time.Now().UTC()
	cfg := &types.ProgressTrackingConfig{
		ID:                uuid.New(),
		ChildID:           profile.ID,
		FocusAreas:        deriveFocusAreas(profile),
		MilestoneTargets:  deriveMilestoneTargets(s.catalog, profile),
		AlertThresholds:   defaultAlertThresholds(),
		TrackingFrequency: "per_session",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	if err := s.store.Initialize(ctx, profile, cfg); err != nil {
		return nil, err
	}
	s.log.Info("Child tracking initialized", "child_id", profile.ID, "focus_areas", cfg.FocusAreas)
	return cfg, nil
}

// deriveFocusAreas tailors the tracked patterns to the profile: everyone gets
// the social/emotional core, higher support levels widen the set, and sensory
// or trigger-heavy profiles pull in their specific patterns.
func deriveFocusAreas(profile *types.ChildProfile) []types.BehaviorType {
	areas := []types.BehaviorType{
		types.BehaviorSocialInteraction,
		types.BehaviorEmotionalRegulation,
	}
	add := func(b types.BehaviorType) {
		for _, a := range areas {
			if a == b {
				return
			}
		}
		areas = append(areas, b)
	}
	if profile.SupportLevel >= 2 {
		add(types.BehaviorCommunication)
		add(types.BehaviorAttentionRegulation)
	}
	if profile.SupportLevel >= 3 {
		add(types.BehaviorAdaptiveBehavior)
	}
	if profile.SensoryProfile != "" {
		add(types.BehaviorSensoryProcessing)
	}
	if len(profile.Triggers) > 0 {
		add(types.BehaviorEmotionalRegulation)
	}
	return areas
}

func deriveMilestoneTargets(catalog analysis.Catalog, profile *types.ChildProfile) []string {
	applicable := catalog.ApplicableTo(profile.Age, profile.SupportLevel)
	ids := make([]string, 0, len(applicable))
	for _, m := range applicable {
		ids = append(ids, m.ID)
	}
	return ids
}

func defaultAlertThresholds() map[string]float64 {
	return map[string]float64{
		types.ThresholdEmotionalRegulationDecline: 0.3,
		types.ThresholdBehavioralIntensitySpike:   0.9,
		types.ThresholdAttentionDrop:              0.3,
	}
}

func (s *progressTrackingService) RecordBehavioralObservations(ctx context.Context, childID, sessionID uuid.UUID, obs []BehavioralObservationInput) ([]*types.BehavioralDataPoint, error) {
	if childID == uuid.Nil {
		return nil, apperr.Validationf("child id required")
	}
	cfg, err := s.store.Config(ctx, childID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	points := make([]*types.BehavioralDataPoint, 0, len(obs))
	for i, o := range obs {
		if !o.BehaviorType.Valid() {
			return nil, apperr.Validationf("observation %d: unknown behavior type %q", i, o.BehaviorType)
		}
		if o.Intensity < 0 || o.Intensity > 1 {
			return nil, apperr.Validationf("observation %d: intensity %.3f out of range [0,1]", i, o.Intensity)
		}
		if o.DurationSeconds < 0 {
			return nil, apperr.Validationf("observation %d: negative duration", i)
		}
		observedAt := now
		if o.ObservedAt != nil {
			observedAt = o.ObservedAt.UTC()
		}
		points = append(points, &types.BehavioralDataPoint{
			ID:               uuid.New(),
			ChildID:          childID,
			SessionID:        sessionID,
			BehaviorType:     o.BehaviorType,
			Intensity:        o.Intensity,
			DurationSeconds:  o.DurationSeconds,
			Context:          datatypes.JSONMap(o.Context),
			Trigger:          o.Trigger,
			InterventionUsed: o.InterventionUsed,
			ObservedAt:       observedAt,
			CreatedAt:        now,
		})
	}

	alertPatterns := map[types.BehaviorType]bool{}
	spike := cfg.AlertThresholds[types.ThresholdBehavioralIntensitySpike]
	for _, p := range points {
		if err := s.store.AppendBehavioral(ctx, p); err != nil {
			return nil, err
		}
		s.sessions.ObserveBehavioral(sessionID, childID, cfg.FocusAreas, p)
		if spike > 0 && p.Intensity >= spike {
			alertPatterns[p.BehaviorType] = true
		}
	}

	s.publishSessionMetrics(ctx, sessionID)

	// Threshold crossings trigger a lightweight milestone re-check. The store
	// reads snapshot the log, so this never holds the child's write path.
	if len(alertPatterns) > 0 {
		if _, err := s.recheckMilestonesForPatterns(ctx, childID, alertPatterns); err != nil {
			s.log.Warn("Milestone re-check after intensity alert failed", "child_id", childID, "error", err)
		}
	}
	return points, nil
}

func (s *progressTrackingService) RecordEmotionalTransitions(ctx context.Context, childID, sessionID uuid.UUID, trs []EmotionalTransitionInput) (*EmotionalRecordingResult, error) {
	if childID == uuid.Nil {
		return nil, apperr.Validationf("child id required")
	}
	cfg, err := s.store.Config(ctx, childID)
	if err != nil {
		return nil, err
	}

	// Validate the whole batch before touching the append-only log; a bad
	// entry must not leave a partial prefix behind.
	now := time.Now().UTC()
	rows := make([]*types.EmotionalStateTransition, 0, len(trs))
	for i, in := range trs {
		if !in.FromState.Valid() || !in.ToState.Valid() {
			return nil, apperr.Validationf("transition %d: unknown emotional state", i)
		}
		if in.DurationSeconds < 0 {
			return nil, apperr.Validationf("transition %d: negative duration", i)
		}
		observedAt := now
		if in.ObservedAt != nil {
			observedAt = in.ObservedAt.UTC()
		}
		rows = append(rows, &types.EmotionalStateTransition{
			ID:                 uuid.New(),
			ChildID:            childID,
			SessionID:          sessionID,
			FromState:          in.FromState,
			ToState:            in.ToState,
			TriggerEvent:       in.TriggerEvent,
			DurationSeconds:    in.DurationSeconds,
			SupportNeeded:      in.SupportNeeded,
			RegulationStrategy: in.RegulationStrategy,
			ObservedAt:         observedAt,
			CreatedAt:          now,
		})
	}

	recorded := make([]*types.EmotionalStateTransition, 0, len(rows))
	for _, tr := range rows {
		if err := s.store.AppendEmotional(ctx, tr); err != nil {
			return nil, err
		}
		recorded = append(recorded, tr)
		s.sessions.ObserveEmotional(sessionID, childID, cfg.FocusAreas, tr)
	}

	s.publishSessionMetrics(ctx, sessionID)

	history, err := s.store.EmotionalSince(ctx, childID, now.AddDate(0, 0, -s.acfg.DefaultLookbackDays))
	if err != nil {
		return nil, err
	}
	result := &EmotionalRecordingResult{
		Recorded: recorded,
		Insights: analysis.AnalyzeEmotionalProgression(s.acfg, history),
	}
	if len(recorded) > 0 {
		current := recorded[len(recorded)-1].ToState
		profile, err := s.store.Profile(ctx, childID)
		var calming []string
		if err == nil {
			calming = profile.CalmingStrategies
		}
		result.Recommendations = analysis.SupportRecommendations(s.acfg, current, history, calming)
	}
	return result, nil
}

func (s *progressTrackingService) UpdateSkillAssessment(ctx context.Context, childID uuid.UUID, input SkillUpdateInput) (*SkillUpdateResult, error) {
	if childID == uuid.Nil {
		return nil, apperr.Validationf("child id required")
	}
	if input.SkillName == "" {
		return nil, apperr.Validationf("skill name required")
	}
	if input.NewScore < 0 || input.NewScore > 1 {
		return nil, apperr.Validationf("score %.3f out of range [0,1]", input.NewScore)
	}
	if _, err := s.store.Config(ctx, childID); err != nil {
		return nil, err
	}

	history, err := s.store.SkillsSince(ctx, childID, time.Time{})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	assessment := &types.SkillAssessment{
		ID:           uuid.New(),
		ChildID:      childID,
		SkillName:    input.SkillName,
		CurrentScore: input.NewScore,
		Method:       input.Method,
		Notes:        input.Notes,
		AssessedAt:   now,
		CreatedAt:    now,
	}
	if prev, ok := types.LatestSkillScores(history)[input.SkillName]; ok {
		assessment.Category = prev.Category
		assessment.BaselineScore = prev.BaselineScore
		assessment.TargetScore = prev.TargetScore
	} else {
		assessment.BaselineScore = input.NewScore
		assessment.TargetScore = types.Clamp01(input.NewScore + 0.2)
	}

	if err := s.store.AppendSkill(ctx, assessment); err != nil {
		return nil, err
	}

	// A skill update may have just crossed a milestone threshold; run the
	// focused single-milestone check for every catalog entry reading it.
	newly, err := s.recheckMilestonesForSkill(ctx, childID, input.SkillName)
	if err != nil {
		s.log.Warn("Milestone re-check after skill update failed", "child_id", childID, "skill", input.SkillName, "error", err)
	}
	return &SkillUpdateResult{Assessment: assessment, NewlyAchieved: newly}, nil
}

func (s *progressTrackingService) GenerateRealTimeMetrics(ctx context.Context, sessionID, childID uuid.UUID) (*types.RealTimeProgressMetrics, error) {
	if m, ok := s.sessions.Snapshot(sessionID); ok {
		return &m, nil
	}
	// Registry miss (e.g. restart mid-session): rebuild from the session's
	// recorded observations.
	cfg, err := s.store.Config(ctx, childID)
	if err != nil {
		return nil, err
	}
	behavioral, err := s.store.BehavioralSince(ctx, childID, time.Time{})
	if err != nil {
		return nil, err
	}
	emotional, err := s.store.EmotionalSince(ctx, childID, time.Time{})
	if err != nil {
		return nil, err
	}
	for _, p := range behavioral {
		if p.SessionID == sessionID {
			s.sessions.ObserveBehavioral(sessionID, childID, cfg.FocusAreas, p)
		}
	}
	for _, t := range emotional {
		if t.SessionID == sessionID {
			s.sessions.ObserveEmotional(sessionID, childID, cfg.FocusAreas, t)
		}
	}
	m, ok := s.sessions.Snapshot(sessionID)
	if !ok {
		s.sessions.ensure(sessionID, childID, cfg.FocusAreas)
		m, _ = s.sessions.Snapshot(sessionID)
	}
	return &m, nil
}

func (s *progressTrackingService) DetectMilestoneAchievements(ctx context.Context, childID, sessionID uuid.UUID) ([]*types.MilestoneAchievementRecord, error) {
	cfg, err := s.store.Config(ctx, childID)
	if err != nil {
		return nil, err
	}
	skills, err := s.store.SkillsSince(ctx, childID, time.Time{})
	if err != nil {
		return nil, err
	}
	behavioral, err := s.store.BehavioralSince(ctx, childID, time.Now().UTC().AddDate(0, 0, -s.acfg.DefaultLookbackDays))
	if err != nil {
		return nil, err
	}

	var targets []analysis.Milestone
	for _, id := range cfg.MilestoneTargets {
		if m, ok := s.catalog.Get(id); ok {
			targets = append(targets, m)
		}
	}
	results := analysis.AnalyzeMilestoneReadiness(s.acfg, targets, skills, behavioral)

	var newly []*types.MilestoneAchievementRecord
	for _, id := range analysis.RankByReadiness(results) {
		res := results[id]
		if !res.Achieved {
			continue
		}
		rec, fresh, err := s.recordMilestoneAchievement(ctx, childID, res)
		if err != nil {
			return nil, err
		}
		if fresh {
			newly = append(newly, rec)
		}
	}
	// The sweep closes out a session's analysis; push its final metrics
	// snapshot to any live dashboard listeners.
	s.publishSessionMetrics(ctx, sessionID)
	return newly, nil
}

func (s *progressTrackingService) GetNextMilestoneTargets(ctx context.Context, childID uuid.UUID) ([]string, error) {
	cfg, err := s.store.Config(ctx, childID)
	if err != nil {
		return nil, err
	}
	skills, err := s.store.SkillsSince(ctx, childID, time.Time{})
	if err != nil {
		return nil, err
	}
	behavioral, err := s.store.BehavioralSince(ctx, childID, time.Now().UTC().AddDate(0, 0, -s.acfg.DefaultLookbackDays))
	if err != nil {
		return nil, err
	}
	achieved, err := s.achievedMilestoneIDs(ctx, childID)
	if err != nil {
		return nil, err
	}

	var pending []analysis.Milestone
	for _, id := range cfg.MilestoneTargets {
		if achieved[id] {
			continue
		}
		if m, ok := s.catalog.Get(id); ok {
			pending = append(pending, m)
		}
	}
	results := analysis.AnalyzeMilestoneReadiness(s.acfg, pending, skills, behavioral)
	return analysis.RankByReadiness(results), nil
}

func (s *progressTrackingService) achievedMilestoneIDs(ctx context.Context, childID uuid.UUID) (map[string]bool, error) {
	records, err := s.store.MilestonesSince(ctx, childID, time.Time{})
	if err != nil {
		return nil, err
	}
	out := map[string]bool{}
	for _, r := range records {
		out[r.MilestoneID] = true
	}
	return out, nil
}

// recordMilestoneAchievement appends an achievement record. If the same
// milestone already has a high-confidence record inside the cool-down window
// the append is a reconfirmation: still kept, but fresh=false so callers do
// not emit a second "newly achieved" notification.
func (s *progressTrackingService) recordMilestoneAchievement(ctx context.Context, childID uuid.UUID, res analysis.ReadinessResult) (*types.MilestoneAchievementRecord, bool, error) {
	now := time.Now().UTC()
	recent, err := s.store.MilestonesSince(ctx, childID, now.Add(-s.acfg.MilestoneCooldown))
	if err != nil {
		return nil, false, err
	}
	suppressed := false
	for _, r := range recent {
		if r.MilestoneID == res.MilestoneID && r.Confidence >= s.acfg.HighConfidence {
			suppressed = true
			break
		}
	}

	rec := &types.MilestoneAchievementRecord{
		ID:          uuid.New(),
		ChildID:     childID,
		MilestoneID: res.MilestoneID,
		Confidence:  res.Confidence,
		Evidence:    res.Evidence,
		Reconfirmed: suppressed,
		AchievedAt:  now,
		CreatedAt:   now,
	}
	if err := s.store.AppendMilestone(ctx, rec); err != nil {
		return nil, false, err
	}
	if suppressed {
		s.log.Debug("Milestone reconfirmed inside cool-down; notification suppressed",
			"child_id", childID, "milestone", res.MilestoneID, "confidence", res.Confidence)
	} else {
		s.log.Info("Milestone achieved", "child_id", childID, "milestone", res.MilestoneID, "confidence", res.Confidence)
	}
	return rec, !suppressed, nil
}

// recheckMilestonesForSkill runs the single-milestone check for catalog
// entries whose criteria read the updated skill.
func (s *progressTrackingService) recheckMilestonesForSkill(ctx context.Context, childID uuid.UUID, skillName string) ([]*types.MilestoneAchievementRecord, error) {
	candidates := s.catalog.ReferencingSkill(skillName)
	if len(candidates) == 0 {
		return nil, nil
	}
	return s.recheckMilestones(ctx, childID, candidates)
}

func (s *progressTrackingService) recheckMilestonesForPatterns(ctx context.Context, childID uuid.UUID, patterns map[types.BehaviorType]bool) ([]*types.MilestoneAchievementRecord, error) {
	var candidates []analysis.Milestone
	for _, m := range s.catalog.Milestones {
		for _, b := range m.Behaviors {
			if patterns[b.Pattern] {
				candidates = append(candidates, m)
				break
			}
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return s.recheckMilestones(ctx, childID, candidates)
}

func (s *progressTrackingService) recheckMilestones(ctx context.Context, childID uuid.UUID, candidates []analysis.Milestone) ([]*types.MilestoneAchievementRecord, error) {
	cfg, err := s.store.Config(ctx, childID)
	if err != nil {
		return nil, err
	}
	skills, err := s.store.SkillsSince(ctx, childID, time.Time{})
	if err != nil {
		return nil, err
	}
	behavioral, err := s.store.BehavioralSince(ctx, childID, time.Now().UTC().AddDate(0, 0, -s.acfg.DefaultLookbackDays))
	if err != nil {
		return nil, err
	}

	var newly []*types.MilestoneAchievementRecord
	for _, m := range candidates {
		if !cfg.TargetsMilestone(m.ID) {
			continue
		}
		res := analysis.CheckMilestoneAchievement(s.acfg, m, skills, behavioral)
		if !res.Achieved {
			continue
		}
		rec, fresh, err := s.recordMilestoneAchievement(ctx, childID, res)
		if err != nil {
			return nil, err
		}
		if fresh {
			newly = append(newly, rec)
		}
	}
	return newly, nil
}

func (s *progressTrackingService) publishSessionMetrics(ctx context.Context, sessionID uuid.UUID) {
	if s.bus == nil {
		return
	}
	m, ok := s.sessions.Snapshot(sessionID)
	if !ok {
		return
	}
	if err := s.bus.Publish(ctx, m); err != nil {
		s.log.Warn("Failed to publish session metrics", "session_id", sessionID, "error", err)
	}
}
