package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/lumenkind/playtrack-backend/internal/types"
)

// ReadinessResult reports how close a child is to one catalog milestone.
type ReadinessResult struct {
	MilestoneID string `json:"milestone_id"`
	// Readiness is the mean satisfaction fraction across criteria; 1.0 means
	// every criterion is met.
	Readiness        float64  `json:"readiness"`
	Achieved         bool     `json:"achieved"`
	Confidence       float64  `json:"confidence"`
	Evidence         []string `json:"evidence,omitempty"`
	InsufficientData bool     `json:"insufficient_data"`
}

// AnalyzeMilestoneReadiness evaluates every given milestone against the
// child's skill history and behavioral window.
func AnalyzeMilestoneReadiness(cfg Config, milestones []Milestone, skills []*types.SkillAssessment, behavior []*types.BehavioralDataPoint) map[string]ReadinessResult {
	latest := types.LatestSkillScores(skills)
	out := make(map[string]ReadinessResult, len(milestones))
	for _, m := range milestones {
		out[m.ID] = evaluateMilestone(cfg, m, latest, behavior)
	}
	return out
}

// CheckMilestoneAchievement is the focused single-milestone check run when a
// skill update may have just crossed a threshold.
func CheckMilestoneAchievement(cfg Config, m Milestone, skills []*types.SkillAssessment, behavior []*types.BehavioralDataPoint) ReadinessResult {
	return evaluateMilestone(cfg, m, types.LatestSkillScores(skills), behavior)
}

// RankByReadiness orders milestone ids by readiness descending, closest to
// achieved first.
func RankByReadiness(results map[string]ReadinessResult) []string {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		ri, rj := results[ids[i]], results[ids[j]]
		if ri.Readiness != rj.Readiness {
			return ri.Readiness > rj.Readiness
		}
		return ids[i] < ids[j]
	})
	return ids
}

func evaluateMilestone(cfg Config, m Milestone, latest map[string]*types.SkillAssessment, behavior []*types.BehavioralDataPoint) ReadinessResult {
	out := ReadinessResult{MilestoneID: m.ID}

	total := len(m.Skills) + len(m.Behaviors)
	if total == 0 {
		out.InsufficientData = true
		return out
	}

	var creditSum float64
	var marginSum float64
	satisfied := 0
	evidenceCount := 0

	for _, c := range m.Skills {
		a, ok := latest[c.Skill]
		if !ok {
			out.InsufficientData = true
			out.Evidence = append(out.Evidence,
				fmt.Sprintf("skill %s: no assessment on record", c.Skill))
			continue
		}
		evidenceCount++
		if a.CurrentScore >= c.MinScore {
			satisfied++
			creditSum++
			marginSum += thresholdMargin(a.CurrentScore, c.MinScore)
			out.Evidence = append(out.Evidence,
				fmt.Sprintf("skill %s at %.2f meets %.2f (assessment %s)", c.Skill, a.CurrentScore, c.MinScore, a.ID))
		} else {
			if c.MinScore > 0 {
				creditSum += types.Clamp01(a.CurrentScore / c.MinScore)
			}
			out.Evidence = append(out.Evidence,
				fmt.Sprintf("skill %s at %.2f below %.2f", c.Skill, a.CurrentScore, c.MinScore))
		}
	}

	for _, c := range m.Behaviors {
		pa := AnalyzePattern(cfg, c.Pattern, behavior)
		evidenceCount += pa.SampleCount
		credit, ok := behaviorCredit(c, pa)
		creditSum += credit
		if ok {
			satisfied++
			if c.MinMeanIntensity > 0 {
				// Margin from the strongest observation: an extra
				// above-threshold point can only raise it, never dilute it.
				marginSum += thresholdMargin(pa.PeakIntensity, c.MinMeanIntensity)
			}
			out.Evidence = append(out.Evidence,
				fmt.Sprintf("pattern %s: mean %.2f, trend %s over %d observations", c.Pattern, pa.MeanIntensity, pa.Direction, pa.SampleCount))
		} else {
			out.Evidence = append(out.Evidence,
				fmt.Sprintf("pattern %s: criterion not met (mean %.2f, trend %s, %d observations)", c.Pattern, pa.MeanIntensity, pa.Direction, pa.SampleCount))
		}
		if pa.InsufficientData {
			out.InsufficientData = true
		}
	}

	out.Readiness = types.Clamp01(creditSum / float64(total))
	out.Achieved = satisfied == total

	// Confidence reflects both how far above threshold the evidence sits and
	// how much corroborating data exists; more observations never lower it.
	dataFactor := 1.0
	if cfg.EvidenceSaturation > 0 {
		dataFactor = math.Min(1, float64(evidenceCount)/float64(cfg.EvidenceSaturation))
	}
	if out.Achieved {
		margin := 0.0
		if satisfied > 0 {
			margin = marginSum / float64(satisfied)
		}
		out.Confidence = types.Clamp01(0.5 + 0.3*margin + 0.2*dataFactor)
	} else {
		out.Confidence = types.Clamp01(out.Readiness * (0.5 + 0.5*dataFactor))
	}
	return out
}

// behaviorCredit returns the partial credit for a behavior criterion and
// whether it is fully satisfied. An insufficient-data trend is not treated as
// declining, but it cannot satisfy an intensity floor it has no data for.
func behaviorCredit(c BehaviorCriterion, pa PatternAnalysis) (float64, bool) {
	if c.MinMeanIntensity > 0 {
		if pa.SampleCount == 0 {
			return 0, false
		}
		if pa.MeanIntensity >= c.MinMeanIntensity {
			if c.ForbidDeclining && pa.Direction == TrendDeclining {
				return 0.5, false
			}
			return 1, true
		}
		return types.Clamp01(pa.MeanIntensity / c.MinMeanIntensity), false
	}
	if c.ForbidDeclining {
		if pa.Direction == TrendDeclining {
			return 0, false
		}
		return 1, true
	}
	return 1, true
}

// thresholdMargin normalizes how far a value clears its threshold into [0,1].
func thresholdMargin(value, min float64) float64 {
	headroom := 1 - min
	if headroom < 0.05 {
		headroom = 0.05
	}
	return types.Clamp01((value - min) / headroom)
}
