package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lumenkind/playtrack-backend/internal/analysis"
	"github.com/lumenkind/playtrack-backend/internal/apperr"
	"github.com/lumenkind/playtrack-backend/internal/types"
)

// SkillOverview is the dashboard view of one skill's trajectory.
type SkillOverview struct {
	SkillName        string    `json:"skill_name"`
	Category         string    `json:"category,omitempty"`
	BaselineScore    float64   `json:"baseline_score"`
	CurrentScore     float64   `json:"current_score"`
	TargetScore      float64   `json:"target_score"`
	ProgressFraction float64   `json:"progress_fraction"`
	AssessedAt       time.Time `json:"assessed_at"`
}

// InterventionEffect summarizes how observations recorded with a given
// intervention compare against the child's overall intensity baseline.
type InterventionEffect struct {
	Intervention      string  `json:"intervention"`
	Uses              int     `json:"uses"`
	MeanIntensity     float64 `json:"mean_intensity"`
	BaselineIntensity float64 `json:"baseline_intensity"`
}

// DashboardData is the read-only per-child aggregation behind the dashboard
// endpoint. Partial marks responses where one or more sub-analyses were
// skipped or degraded; PartialReasons says which and why.
type DashboardData struct {
	ChildID        uuid.UUID `json:"child_id"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	Partial        bool      `json:"partial"`
	PartialReasons []string  `json:"partial_reasons,omitempty"`

	Behavioral              *analysis.ComprehensiveAnalysis       `json:"behavioral"`
	Emotional               *analysis.EmotionalProgressProfile    `json:"emotional"`
	CurrentRegulation       float64                               `json:"current_regulation"`
	RegulationLowConfidence bool                                  `json:"regulation_low_confidence"`
	Skills                  []SkillOverview                       `json:"skills"`
	RecentMilestones        []*types.MilestoneAchievementRecord   `json:"recent_milestones"`
	NextTargets             []string                              `json:"next_targets"`
}

// Report is the heavier clinician-facing aggregation: the dashboard plus
// trajectory projections, milestone readiness, and intervention effects.
type Report struct {
	DashboardData
	Predictions         map[types.BehaviorType]analysis.TrendPrediction `json:"predictions"`
	MilestoneReadiness  map[string]analysis.ReadinessResult             `json:"milestone_readiness"`
	InterventionEffects []InterventionEffect                            `json:"intervention_effects"`
}

// ProgressSummary is the compact always-available summary; it never fails for
// an initialized child, even with zero observations.
type ProgressSummary struct {
	ChildID            uuid.UUID `json:"child_id"`
	ObservationCount   int       `json:"observation_count"`
	TransitionCount    int       `json:"transition_count"`
	SkillCount         int       `json:"skill_count"`
	MilestonesAchieved int       `json:"milestones_achieved"`
	RegulationScore    float64   `json:"regulation_score"`
	LowConfidence      bool      `json:"low_confidence"`
	NextTargets        []string  `json:"next_targets"`
}

func emptyDashboard(childID uuid.UUID, start, end time.Time) *DashboardData {
	return &DashboardData{
		ChildID:                 childID,
		WindowStart:             start,
		WindowEnd:               end,
		Behavioral:              &analysis.ComprehensiveAnalysis{Patterns: map[types.BehaviorType]analysis.PatternAnalysis{}},
		Emotional:               &analysis.EmotionalProgressProfile{LowConfidence: true, StateDistribution: map[types.EmotionalState]float64{}},
		CurrentRegulation:       0.5,
		RegulationLowConfidence: true,
		Skills:                  []SkillOverview{},
		RecentMilestones:        []*types.MilestoneAchievementRecord{},
		NextTargets:             []string{},
	}
}

// GenerateDashboardData assembles the per-child dashboard for the window.
// Sub-analyses run in parallel under the caller's deadline; a sub-analysis
// that cannot complete degrades the response to partial instead of failing
// it. An uninitialized child yields an empty, well-formed dashboard because
// dashboards are expected to be resilient.
func (s *progressTrackingService) GenerateDashboardData(ctx context.Context, childID uuid.UUID, start, end time.Time) (*DashboardData, error) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -s.acfg.DefaultLookbackDays)
	}
	out := emptyDashboard(childID, start, end)

	if _, err := s.store.Config(ctx, childID); err != nil {
		if apperr.IsNotFound(err) {
			out.Partial = true
			out.PartialReasons = append(out.PartialReasons, "tracking not initialized")
			return out, nil
		}
		return nil, err
	}

	var mu sync.Mutex
	degrade := func(reason string) {
		mu.Lock()
		out.Partial = true
		out.PartialReasons = append(out.PartialReasons, reason)
		mu.Unlock()
	}

	windowDays := int(end.Sub(start).Hours()/24) + 1

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		points, err := s.store.BehavioralSince(gctx, childID, start)
		if err != nil {
			degrade("behavioral analysis unavailable: " + err.Error())
			return nil
		}
		ca := analysis.AnalyzeComprehensivePatterns(s.acfg, points, windowDays)
		mu.Lock()
		out.Behavioral = &ca
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		transitions, err := s.store.EmotionalSince(gctx, childID, start)
		if err != nil {
			degrade("emotional analysis unavailable: " + err.Error())
			return nil
		}
		profile := analysis.AnalyzeEmotionalProgression(s.acfg, transitions)
		current, low := analysis.CurrentRegulationScore(s.acfg, transitions)
		mu.Lock()
		out.Emotional = &profile
		out.CurrentRegulation = current
		out.RegulationLowConfidence = low
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		skills, err := s.store.SkillsSince(gctx, childID, time.Time{})
		if err != nil {
			degrade("skills overview unavailable: " + err.Error())
			return nil
		}
		overview := skillsOverview(skills)
		mu.Lock()
		out.Skills = overview
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		milestones, err := s.store.MilestonesSince(gctx, childID, start)
		if err != nil {
			degrade("milestone history unavailable: " + err.Error())
			return nil
		}
		mu.Lock()
		out.RecentMilestones = milestones
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		degrade("deadline exceeded before all sections completed")
		return out, nil
	}

	targets, err := s.GetNextMilestoneTargets(ctx, childID)
	if err != nil {
		degrade("next targets unavailable: " + err.Error())
	} else {
		out.NextTargets = targets
	}
	return out, nil
}

// GenerateLongTermReport extends the dashboard with trajectory projections,
// full milestone readiness, and intervention effects. Degrades to a partial
// report rather than erroring when sub-analyses lack data or time.
func (s *progressTrackingService) GenerateLongTermReport(ctx context.Context, childID uuid.UUID, start, end time.Time) (*Report, error) {
	dash, err := s.GenerateDashboardData(ctx, childID, start, end)
	if err != nil {
		return nil, err
	}
	report := &Report{
		DashboardData:      *dash,
		Predictions:        map[types.BehaviorType]analysis.TrendPrediction{},
		MilestoneReadiness: map[string]analysis.ReadinessResult{},
	}

	points, err := s.store.BehavioralSince(ctx, childID, report.WindowStart)
	if err != nil {
		report.Partial = true
		report.PartialReasons = append(report.PartialReasons, "trajectory projections unavailable: "+err.Error())
		return report, nil
	}
	for bt := range report.Behavioral.Patterns {
		report.Predictions[bt] = analysis.PredictPatternTrend(s.acfg, bt, points)
	}
	report.InterventionEffects = interventionEffects(points)

	if ctx.Err() != nil {
		report.Partial = true
		report.PartialReasons = append(report.PartialReasons, "deadline exceeded before milestone readiness completed")
		return report, nil
	}

	cfg, err := s.store.Config(ctx, childID)
	if err == nil {
		skills, serr := s.store.SkillsSince(ctx, childID, time.Time{})
		if serr == nil {
			var targets []analysis.Milestone
			for _, id := range cfg.MilestoneTargets {
				if m, ok := s.catalog.Get(id); ok {
					targets = append(targets, m)
				}
			}
			report.MilestoneReadiness = analysis.AnalyzeMilestoneReadiness(s.acfg, targets, skills, points)
		} else {
			report.Partial = true
			report.PartialReasons = append(report.PartialReasons, "milestone readiness unavailable: "+serr.Error())
		}
	}
	return report, nil
}

// GenerateProgressSummary is the cheap, always-available summary.
func (s *progressTrackingService) GenerateProgressSummary(ctx context.Context, childID uuid.UUID) (*ProgressSummary, error) {
	if _, err := s.store.Config(ctx, childID); err != nil {
		return nil, err
	}
	out := &ProgressSummary{ChildID: childID, RegulationScore: s.acfg.NeutralRegulationScore, LowConfidence: true, NextTargets: []string{}}

	if points, err := s.store.BehavioralSince(ctx, childID, time.Time{}); err == nil {
		out.ObservationCount = len(points)
	}
	if transitions, err := s.store.EmotionalSince(ctx, childID, time.Time{}); err == nil {
		out.TransitionCount = len(transitions)
		out.RegulationScore, out.LowConfidence = analysis.CurrentRegulationScore(s.acfg, transitions)
	}
	if skills, err := s.store.SkillsSince(ctx, childID, time.Time{}); err == nil {
		out.SkillCount = len(types.LatestSkillScores(skills))
	}
	if records, err := s.store.MilestonesSince(ctx, childID, time.Time{}); err == nil {
		seen := map[string]bool{}
		for _, r := range records {
			seen[r.MilestoneID] = true
		}
		out.MilestonesAchieved = len(seen)
	}
	if targets, err := s.GetNextMilestoneTargets(ctx, childID); err == nil {
		out.NextTargets = targets
	}
	return out, nil
}

func skillsOverview(history []*types.SkillAssessment) []SkillOverview {
	latest := types.LatestSkillScores(history)
	out := make([]SkillOverview, 0, len(latest))
	for _, a := range latest {
		progress := 1.0
		if span := a.TargetScore - a.BaselineScore; span > 0 {
			progress = types.Clamp01((a.CurrentScore - a.BaselineScore) / span)
		}
		out = append(out, SkillOverview{
			SkillName:        a.SkillName,
			Category:         a.Category,
			BaselineScore:    a.BaselineScore,
			CurrentScore:     a.CurrentScore,
			TargetScore:      a.TargetScore,
			ProgressFraction: progress,
			AssessedAt:       a.AssessedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SkillName < out[j].SkillName })
	return out
}

func interventionEffects(points []*types.BehavioralDataPoint) []InterventionEffect {
	if len(points) == 0 {
		return nil
	}
	var baselineSum float64
	for _, p := range points {
		baselineSum += p.Intensity
	}
	baseline := baselineSum / float64(len(points))

	type agg struct {
		uses int
		sum  float64
	}
	byIntervention := map[string]*agg{}
	for _, p := range points {
		if p.InterventionUsed == nil || *p.InterventionUsed == "" {
			continue
		}
		a, ok := byIntervention[*p.InterventionUsed]
		if !ok {
			a = &agg{}
			byIntervention[*p.InterventionUsed] = a
		}
		a.uses++
		a.sum += p.Intensity
	}

	out := make([]InterventionEffect, 0, len(byIntervention))
	for name, a := range byIntervention {
		out = append(out, InterventionEffect{
			Intervention:      name,
			Uses:              a.uses,
			MeanIntensity:     a.sum / float64(a.uses),
			BaselineIntensity: baseline,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Uses > out[j].Uses })
	return out
}
