package types

// BehaviorType is the closed set of behavioral patterns tracked as
// intensity/duration time series. Adding a value here is a compile-time
// visible change for every switch over the set.
type BehaviorType string

const (
	BehaviorSocialInteraction   BehaviorType = "social_interaction"
	BehaviorEmotionalRegulation BehaviorType = "emotional_regulation"
	BehaviorCommunication       BehaviorType = "communication"
	BehaviorSensoryProcessing   BehaviorType = "sensory_processing"
	BehaviorAttentionRegulation BehaviorType = "attention_regulation"
	BehaviorRepetitiveMovements BehaviorType = "repetitive_movements"
	BehaviorAdaptiveBehavior    BehaviorType = "adaptive_behavior"
)

func AllBehaviorTypes() []BehaviorType {
	return []BehaviorType{
		BehaviorSocialInteraction,
		BehaviorEmotionalRegulation,
		BehaviorCommunication,
		BehaviorSensoryProcessing,
		BehaviorAttentionRegulation,
		BehaviorRepetitiveMovements,
		BehaviorAdaptiveBehavior,
	}
}

func (b BehaviorType) Valid() bool {
	switch b {
	case BehaviorSocialInteraction, BehaviorEmotionalRegulation, BehaviorCommunication,
		BehaviorSensoryProcessing, BehaviorAttentionRegulation, BehaviorRepetitiveMovements,
		BehaviorAdaptiveBehavior:
		return true
	}
	return false
}

// EmotionalState is the closed set of named emotional states forming the
// nodes of a child's transition graph.
type EmotionalState string

const (
	StateCalm        EmotionalState = "calm"
	StateHappy       EmotionalState = "happy"
	StateExcited     EmotionalState = "excited"
	StateAnxious     EmotionalState = "anxious"
	StateFrustrated  EmotionalState = "frustrated"
	StateOverwhelmed EmotionalState = "overwhelmed"
	StateFocused     EmotionalState = "focused"
	StateContent     EmotionalState = "content"
	StateEngaged     EmotionalState = "engaged"
	StateNeutral     EmotionalState = "neutral"
)

func (s EmotionalState) Valid() bool {
	_, ok := stateCalmness[s]
	return ok
}

// stateCalmness orders states by how regulated they are; 1.0 is fully calm,
// values near 0 are dysregulated. Used by the emotional analyzer to decide
// whether a transition moves toward calm.
var stateCalmness = map[EmotionalState]float64{
	StateCalm:        1.0,
	StateContent:     0.9,
	StateFocused:     0.85,
	StateHappy:       0.8,
	StateEngaged:     0.75,
	StateNeutral:     0.6,
	StateExcited:     0.5,
	StateAnxious:     0.3,
	StateFrustrated:  0.2,
	StateOverwhelmed: 0.1,
}

// Calmness returns the regulation ordering value for a state; unknown states
// map to the neutral midpoint.
func (s EmotionalState) Calmness() float64 {
	if v, ok := stateCalmness[s]; ok {
		return v
	}
	return 0.5
}

// Dysregulated reports whether the state sits below the neutral band.
func (s EmotionalState) Dysregulated() bool {
	return s.Calmness() < stateCalmness[StateNeutral]
}

// Clamp01 clamps already-validated numeric ranges into [0,1]. Raw caller
// input is rejected, not clamped; this is for derived scores only.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
