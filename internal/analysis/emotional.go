package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/lumenkind/playtrack-backend/internal/types"
)

// EmotionalProgressProfile characterizes self-regulation over a window of
// state transitions.
type EmotionalProgressProfile struct {
	RegulationScore       float64                          `json:"regulation_score"`
	LowConfidence         bool                             `json:"low_confidence"`
	SampleCount           int                              `json:"sample_count"`
	TowardCalmUnaidedRate float64                          `json:"toward_calm_unaided_rate"`
	SupportRate           float64                          `json:"support_rate"`
	AvgTransitionSeconds  float64                          `json:"avg_transition_seconds"`
	StateDistribution     map[types.EmotionalState]float64 `json:"state_distribution"`
	PredominantState      types.EmotionalState             `json:"predominant_state,omitempty"`
}

// Recommendation is one ranked, actionable support suggestion.
type Recommendation struct {
	Action      string  `json:"action"`
	Rationale   string  `json:"rationale"`
	Score       float64 `json:"score"`
	FromHistory bool    `json:"from_history"`
}

// AnalyzeEmotionalProgression derives a regulation-ability score from
// (a) the share of transitions moving toward calmer states without support,
// (b) average transition duration relative to the recovery reference, and
// (c) how often support was needed. Fewer than two transitions yields the
// configured neutral midpoint flagged low-confidence.
func AnalyzeEmotionalProgression(cfg Config, transitions []*types.EmotionalStateTransition) EmotionalProgressProfile {
	out := EmotionalProgressProfile{
		SampleCount:       len(transitions),
		StateDistribution: map[types.EmotionalState]float64{},
	}
	if len(transitions) < 2 {
		out.RegulationScore = cfg.NeutralRegulationScore
		out.LowConfidence = true
		for _, t := range transitions {
			out.StateDistribution[t.ToState] = 1
			out.PredominantState = t.ToState
		}
		return out
	}

	var towardCalmUnaided, supported int
	var durSum float64
	counts := map[types.EmotionalState]int{}
	for _, t := range transitions {
		if t.TowardCalm() && !t.SupportNeeded {
			towardCalmUnaided++
		}
		if t.SupportNeeded {
			supported++
		}
		durSum += t.DurationSeconds
		counts[t.ToState]++
	}

	n := float64(len(transitions))
	out.TowardCalmUnaidedRate = float64(towardCalmUnaided) / n
	out.SupportRate = float64(supported) / n
	out.AvgTransitionSeconds = durSum / n

	best := 0
	for state, c := range counts {
		out.StateDistribution[state] = float64(c) / n
		if c > best {
			best = c
			out.PredominantState = state
		}
	}

	recovery := 1.0
	if cfg.RecoveryReferenceSeconds > 0 {
		recovery = 1 / (1 + out.AvgTransitionSeconds/cfg.RecoveryReferenceSeconds)
	}

	out.RegulationScore = types.Clamp01(
		0.5*out.TowardCalmUnaidedRate + 0.3*(1-out.SupportRate) + 0.2*recovery)
	return out
}

// CurrentRegulationScore is the recency-weighted variant used by dashboards.
// Each transition contributes a fixed regulation value and the weights decay
// exponentially from the most recent transition backwards.
func CurrentRegulationScore(cfg Config, transitions []*types.EmotionalStateTransition) (float64, bool) {
	if len(transitions) < 2 {
		return cfg.NeutralRegulationScore, true
	}
	ordered := make([]*types.EmotionalStateTransition, len(transitions))
	copy(ordered, transitions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ObservedAt.Before(ordered[j].ObservedAt)
	})

	decay := cfg.RecencyDecay
	if decay <= 0 || decay > 1 {
		decay = 1
	}

	var weighted, weightSum float64
	n := len(ordered)
	for i, t := range ordered {
		w := math.Pow(decay, float64(n-1-i))
		weighted += w * transitionValue(t)
		weightSum += w
	}
	if weightSum == 0 {
		return cfg.NeutralRegulationScore, true
	}
	return types.Clamp01(weighted / weightSum), false
}

// transitionValue scores a single edge: unaided moves toward calm are the
// strongest signal, supported dysregulated moves the weakest.
func transitionValue(t *types.EmotionalStateTransition) float64 {
	switch {
	case t.TowardCalm() && !t.SupportNeeded:
		return 1.0
	case t.TowardCalm() && t.SupportNeeded:
		return 0.6
	case !t.SupportNeeded:
		return 0.4
	default:
		return 0.1
	}
}

// SupportRecommendations ranks immediate, actionable strategies for a child
// currently in the given state. Strategies the child's own history shows were
// followed by calmer states rank first; profile calming strategies with no
// history get a modest prior; generic clinically-neutral guidance backstops
// everything.
func SupportRecommendations(cfg Config, current types.EmotionalState, history []*types.EmotionalStateTransition, calmingStrategies []string) []Recommendation {
	if !current.Dysregulated() {
		return []Recommendation{{
			Action:    "Continue the current activity and keep the environment steady.",
			Rationale: fmt.Sprintf("Current state %q is regulated; no intervention needed.", current),
			Score:     0.5,
		}}
	}

	type stat struct{ uses, successes int }
	stats := map[string]*stat{}
	for _, t := range history {
		if t.RegulationStrategy == nil || *t.RegulationStrategy == "" {
			continue
		}
		if t.FromState != current {
			continue
		}
		s, ok := stats[*t.RegulationStrategy]
		if !ok {
			s = &stat{}
			stats[*t.RegulationStrategy] = s
		}
		s.uses++
		if t.TowardCalm() {
			s.successes++
		}
	}

	minUses := cfg.MinStrategyUses
	if minUses <= 0 {
		minUses = 1
	}

	var recs []Recommendation
	for name, s := range stats {
		rate := float64(s.successes) / float64(s.uses)
		trust := math.Min(1, float64(s.uses)/float64(minUses))
		recs = append(recs, Recommendation{
			Action:      fmt.Sprintf("Use previously-successful strategy %q.", name),
			Rationale:   fmt.Sprintf("Followed by a calmer state in %d of %d past uses from %q.", s.successes, s.uses, current),
			Score:       types.Clamp01(rate * trust),
			FromHistory: true,
		})
	}

	tried := func(name string) bool {
		_, ok := stats[name]
		return ok
	}
	for _, name := range calmingStrategies {
		if name == "" || tried(name) {
			continue
		}
		recs = append(recs, Recommendation{
			Action:    fmt.Sprintf("Try the child's listed calming strategy %q.", name),
			Rationale: "Listed in the child's profile; not yet observed from this state.",
			Score:     0.4,
		})
	}

	if len(recs) == 0 {
		recs = genericSupportRecommendations(current)
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	return recs
}

func genericSupportRecommendations(current types.EmotionalState) []Recommendation {
	return []Recommendation{
		{
			Action:    "Offer a sensory break in a quiet space.",
			Rationale: fmt.Sprintf("No strategy history from state %q; reducing input is a safe first step.", current),
			Score:     0.35,
		},
		{
			Action:    "Lower environmental stimulation (volume, lighting, pace).",
			Rationale: "Generic de-escalation guidance.",
			Score:     0.3,
		},
		{
			Action:    "Offer a simple choice between two preferred activities.",
			Rationale: "Restoring a sense of control supports re-regulation.",
			Score:     0.25,
		},
		{
			Action:    "Model slow breathing and stay nearby for co-regulation.",
			Rationale: "Generic co-regulation guidance.",
			Score:     0.2,
		},
	}
}
