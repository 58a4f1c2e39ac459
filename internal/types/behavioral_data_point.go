package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BehavioralDataPoint is one timestamped behavioral observation. Immutable
// once appended; ordered by ObservedAt within a child's log.
type BehavioralDataPoint struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ChildID          uuid.UUID         `gorm:"type:uuid;not null;index:idx_behavioral_child_time" json:"child_id"`
	SessionID        uuid.UUID         `gorm:"type:uuid;index" json:"session_id"`
	BehaviorType     BehaviorType      `gorm:"column:behavior_type;not null" json:"behavior_type"`
	Intensity        float64           `gorm:"column:intensity;not null" json:"intensity"`
	DurationSeconds  float64           `gorm:"column:duration_seconds;not null" json:"duration_seconds"`
	Context          datatypes.JSONMap `gorm:"type:jsonb;column:context" json:"context,omitempty"`
	Trigger          *string           `gorm:"column:trigger" json:"trigger,omitempty"`
	InterventionUsed *string           `gorm:"column:intervention_used" json:"intervention_used,omitempty"`
	ObservedAt       time.Time         `gorm:"column:observed_at;not null;index:idx_behavioral_child_time" json:"observed_at"`
	CreatedAt        time.Time         `gorm:"not null" json:"created_at"`
}

func (BehavioralDataPoint) TableName() string { return "behavioral_data_point" }
