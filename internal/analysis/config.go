package analysis

import "time"

// Config carries every tuning knob used by the analyzers. The scoring policy
// lives here, not in control flow, so coefficients can change without
// touching the classifiers.
type Config struct {
	// MinPatternPoints is the minimum number of observations of a single
	// pattern before trend classification is attempted.
	MinPatternPoints int
	// ImprovingDelta / DecliningDelta are the half-window mean-intensity
	// bands that classify a trend. Delta above ImprovingDelta reads as
	// improving, below DecliningDelta as declining, stable in between.
	ImprovingDelta float64
	DecliningDelta float64
	// TrendConfidenceSamples is the sample count at which trend confidence
	// saturates at 1.0.
	TrendConfidenceSamples int

	// RecencyDecay is the per-transition exponential decay applied by the
	// current-regulation score; the most recent transition has weight 1.
	RecencyDecay float64
	// NeutralRegulationScore is returned when the transition log is empty or
	// has a single entry.
	NeutralRegulationScore float64
	// RecoveryReferenceSeconds scales transition duration into a recovery
	// score: durations well under the reference score near 1.
	RecoveryReferenceSeconds float64
	// MinStrategyUses is the number of uses before a regulation strategy's
	// observed success rate is fully trusted when ranking recommendations.
	MinStrategyUses int

	// HighConfidence is the confidence at or above which a milestone
	// achievement suppresses duplicate notifications.
	HighConfidence float64
	// MilestoneCooldown is the window within which a re-detected milestone is
	// recorded as a reconfirmation instead of a new achievement.
	MilestoneCooldown time.Duration
	// EvidenceSaturation is the observation count at which the data factor of
	// milestone confidence saturates.
	EvidenceSaturation int

	// DefaultLookbackDays bounds dashboard windows when the caller gives none.
	DefaultLookbackDays int
}

func DefaultConfig() Config {
	return Config{
		MinPatternPoints:         3,
		ImprovingDelta:           0.05,
		DecliningDelta:           -0.05,
		TrendConfidenceSamples:   10,
		RecencyDecay:             0.85,
		NeutralRegulationScore:   0.5,
		RecoveryReferenceSeconds: 120,
		MinStrategyUses:          3,
		HighConfidence:           0.8,
		MilestoneCooldown:        72 * time.Hour,
		EvidenceSaturation:       20,
		DefaultLookbackDays:      30,
	}
}
