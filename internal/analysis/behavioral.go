package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/lumenkind/playtrack-backend/internal/types"
)

type TrendDirection string

const (
	TrendImproving    TrendDirection = "improving"
	TrendStable       TrendDirection = "stable"
	TrendDeclining    TrendDirection = "declining"
	TrendInsufficient TrendDirection = "insufficient_data"
)

// PatternAnalysis summarizes one behavioral pattern over a window.
type PatternAnalysis struct {
	Pattern             types.BehaviorType `json:"pattern"`
	SampleCount         int                `json:"sample_count"`
	MeanIntensity       float64            `json:"mean_intensity"`
	PeakIntensity       float64            `json:"peak_intensity"`
	MeanDurationSeconds float64            `json:"mean_duration_seconds"`
	// TrendDelta is the later-half mean intensity minus the earlier-half
	// mean, sign-adjusted so positive always reads as improvement.
	TrendDelta        float64        `json:"trend_delta"`
	Direction         TrendDirection `json:"direction"`
	Confidence        float64        `json:"confidence"`
	InsufficientData  bool           `json:"insufficient_data"`
	RecurringTriggers []string       `json:"recurring_triggers,omitempty"`
	Recommendations   []string       `json:"recommendations"`
}

// ComprehensiveAnalysis aggregates per-pattern analyses across a window.
type ComprehensiveAnalysis struct {
	Patterns             map[types.BehaviorType]PatternAnalysis `json:"patterns"`
	SteepestDecline      types.BehaviorType                     `json:"steepest_decline,omitempty"`
	StrongestImprovement types.BehaviorType                     `json:"strongest_improvement,omitempty"`
	WindowDays           int                                    `json:"window_days"`
}

// TrendPrediction extrapolates the recent trend one window forward. It is a
// heuristic projection, not a validated forecast, and must not drive
// milestone decisions on its own.
type TrendPrediction struct {
	Pattern                types.BehaviorType `json:"pattern"`
	ProjectedMeanIntensity float64            `json:"projected_mean_intensity"`
	Direction              TrendDirection     `json:"direction"`
	Heuristic              bool               `json:"heuristic"`
	Confidence             float64            `json:"confidence"`
	InsufficientData       bool               `json:"insufficient_data"`
}

// intensityInverted marks patterns where a falling intensity is the desired
// direction (less frequent/severe is better).
func intensityInverted(b types.BehaviorType) bool {
	return b == types.BehaviorRepetitiveMovements
}

// AnalyzePattern classifies the direction and strength of change in one
// behavioral pattern. Fewer than cfg.MinPatternPoints observations yields a
// low-confidence insufficient-data result, never an error.
func AnalyzePattern(cfg Config, pattern types.BehaviorType, points []*types.BehavioralDataPoint) PatternAnalysis {
	filtered := make([]*types.BehavioralDataPoint, 0, len(points))
	for _, p := range points {
		if p != nil && p.BehaviorType == pattern {
			filtered = append(filtered, p)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].ObservedAt.Before(filtered[j].ObservedAt)
	})

	out := PatternAnalysis{
		Pattern:     pattern,
		SampleCount: len(filtered),
	}

	if len(filtered) < cfg.MinPatternPoints {
		out.Direction = TrendInsufficient
		out.InsufficientData = true
		if cfg.MinPatternPoints > 0 {
			out.Confidence = types.Clamp01(0.2 * float64(len(filtered)) / float64(cfg.MinPatternPoints))
		}
		out.MeanIntensity = meanIntensity(filtered)
		out.PeakIntensity = peakIntensity(filtered)
		out.MeanDurationSeconds = meanDuration(filtered)
		out.Recommendations = []string{
			fmt.Sprintf("Not enough %s observations yet; keep recording before drawing conclusions.", pattern),
		}
		return out
	}

	out.MeanIntensity = meanIntensity(filtered)
	out.PeakIntensity = peakIntensity(filtered)
	out.MeanDurationSeconds = meanDuration(filtered)

	// Half-window comparison keeps a single outlier from flipping the
	// classification the way a last-point comparison would.
	half := len(filtered) / 2
	earlier := filtered[:half]
	later := filtered[half:]
	delta := meanIntensity(later) - meanIntensity(earlier)
	if intensityInverted(pattern) {
		delta = -delta
	}
	out.TrendDelta = delta

	switch {
	case delta >= cfg.ImprovingDelta:
		out.Direction = TrendImproving
	case delta <= cfg.DecliningDelta:
		out.Direction = TrendDeclining
	default:
		out.Direction = TrendStable
	}

	if cfg.TrendConfidenceSamples > 0 {
		out.Confidence = types.Clamp01(float64(len(filtered)) / float64(cfg.TrendConfidenceSamples))
	}

	out.RecurringTriggers = recurringTriggers(filtered)
	out.Recommendations = patternRecommendations(pattern, out.Direction, out.RecurringTriggers)
	return out
}

// AnalyzeComprehensivePatterns runs AnalyzePattern for every behavior type
// present in the lookback window and flags the steepest decline and the
// strongest improvement for dashboards.
func AnalyzeComprehensivePatterns(cfg Config, points []*types.BehavioralDataPoint, lookbackDays int) ComprehensiveAnalysis {
	if lookbackDays <= 0 {
		lookbackDays = cfg.DefaultLookbackDays
	}
	cutoff := time.Now().AddDate(0, 0, -lookbackDays)
	windowed := make([]*types.BehavioralDataPoint, 0, len(points))
	seen := map[types.BehaviorType]bool{}
	for _, p := range points {
		if p == nil || p.ObservedAt.Before(cutoff) {
			continue
		}
		windowed = append(windowed, p)
		seen[p.BehaviorType] = true
	}

	out := ComprehensiveAnalysis{
		Patterns:   make(map[types.BehaviorType]PatternAnalysis, len(seen)),
		WindowDays: lookbackDays,
	}

	worstDelta := 0.0
	bestDelta := 0.0
	for bt := range seen {
		pa := AnalyzePattern(cfg, bt, windowed)
		out.Patterns[bt] = pa
		if pa.InsufficientData {
			continue
		}
		if pa.Direction == TrendDeclining && pa.TrendDelta < worstDelta {
			worstDelta = pa.TrendDelta
			out.SteepestDecline = bt
		}
		if pa.Direction == TrendImproving && pa.TrendDelta > bestDelta {
			bestDelta = pa.TrendDelta
			out.StrongestImprovement = bt
		}
	}
	return out
}

// PredictPatternTrend extrapolates the half-window delta one further window
// forward. Always marked heuristic.
func PredictPatternTrend(cfg Config, pattern types.BehaviorType, points []*types.BehavioralDataPoint) TrendPrediction {
	pa := AnalyzePattern(cfg, pattern, points)
	out := TrendPrediction{
		Pattern:          pattern,
		Direction:        pa.Direction,
		Heuristic:        true,
		InsufficientData: pa.InsufficientData,
	}
	if pa.InsufficientData {
		out.Confidence = pa.Confidence
		out.ProjectedMeanIntensity = pa.MeanIntensity
		return out
	}
	delta := pa.TrendDelta
	if intensityInverted(pattern) {
		delta = -delta
	}
	out.ProjectedMeanIntensity = types.Clamp01(pa.MeanIntensity + delta)
	// A projection is weaker evidence than the trend it is derived from.
	out.Confidence = types.Clamp01(pa.Confidence * 0.6)
	return out
}

func meanIntensity(points []*types.BehavioralDataPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Intensity
	}
	return sum / float64(len(points))
}

func peakIntensity(points []*types.BehavioralDataPoint) float64 {
	var max float64
	for _, p := range points {
		if p.Intensity > max {
			max = p.Intensity
		}
	}
	return max
}

func meanDuration(points []*types.BehavioralDataPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.DurationSeconds
	}
	return sum / float64(len(points))
}

func recurringTriggers(points []*types.BehavioralDataPoint) []string {
	counts := map[string]int{}
	for _, p := range points {
		if p.Trigger != nil && *p.Trigger != "" {
			counts[*p.Trigger]++
		}
	}
	var out []string
	for trig, n := range counts {
		if n >= 2 {
			out = append(out, trig)
		}
	}
	sort.Strings(out)
	return out
}

func patternRecommendations(pattern types.BehaviorType, dir TrendDirection, triggers []string) []string {
	var recs []string
	switch dir {
	case TrendDeclining:
		recs = append(recs,
			fmt.Sprintf("Increase support around %s: review recent sessions for added stressors.", pattern))
	case TrendImproving:
		recs = append(recs,
			fmt.Sprintf("Reinforce the strategies currently used for %s; the trend is positive.", pattern))
	default:
		recs = append(recs,
			fmt.Sprintf("Maintain the current approach for %s and continue monitoring.", pattern))
	}
	for _, trig := range triggers {
		recs = append(recs,
			fmt.Sprintf("Trigger %q recurs in this window; prepare a proactive strategy before exposure.", trig))
	}
	return recs
}
