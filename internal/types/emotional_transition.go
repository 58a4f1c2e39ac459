package types

import (
	"time"

	"github.com/google/uuid"
)

// EmotionalStateTransition is one timestamped edge in the child's emotional
// state graph. Immutable once appended.
type EmotionalStateTransition struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ChildID            uuid.UUID      `gorm:"type:uuid;not null;index:idx_emotional_child_time" json:"child_id"`
	SessionID          uuid.UUID      `gorm:"type:uuid;index" json:"session_id"`
	FromState          EmotionalState `gorm:"column:from_state;not null" json:"from_state"`
	ToState            EmotionalState `gorm:"column:to_state;not null" json:"to_state"`
	TriggerEvent       *string        `gorm:"column:trigger_event" json:"trigger_event,omitempty"`
	DurationSeconds    float64        `gorm:"column:duration_seconds;not null" json:"duration_seconds"`
	SupportNeeded      bool           `gorm:"column:support_needed;not null" json:"support_needed"`
	RegulationStrategy *string        `gorm:"column:regulation_strategy" json:"regulation_strategy,omitempty"`
	ObservedAt         time.Time      `gorm:"column:observed_at;not null;index:idx_emotional_child_time" json:"observed_at"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`
}

func (EmotionalStateTransition) TableName() string { return "emotional_state_transition" }

// TowardCalm reports whether the edge moves to a more regulated state.
func (t *EmotionalStateTransition) TowardCalm() bool {
	return t.ToState.Calmness() > t.FromState.Calmness()
}
