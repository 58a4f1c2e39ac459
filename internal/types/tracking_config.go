package types

import (
	"time"

	"github.com/google/uuid"
)

// Well-known alert threshold names seeded at initialization.
const (
	ThresholdEmotionalRegulationDecline = "emotional_regulation_decline"
	ThresholdBehavioralIntensitySpike   = "behavioral_intensity_spike"
	ThresholdAttentionDrop              = "attention_drop"
)

// ProgressTrackingConfig is the per-child tracking configuration derived from
// the profile at initialization. Exactly one row per child; re-initialization
// overwrites it but never touches the historical logs.
type ProgressTrackingConfig struct {
	ID                uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	ChildID           uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex" json:"child_id"`
	FocusAreas        []BehaviorType     `gorm:"serializer:json;column:focus_areas" json:"focus_areas"`
	MilestoneTargets  []string           `gorm:"serializer:json;column:milestone_targets" json:"milestone_targets"`
	AlertThresholds   map[string]float64 `gorm:"serializer:json;column:alert_thresholds" json:"alert_thresholds"`
	TrackingFrequency string             `gorm:"column:tracking_frequency" json:"tracking_frequency"`
	CreatedAt         time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time          `gorm:"not null" json:"updated_at"`
}

func (ProgressTrackingConfig) TableName() string { return "progress_tracking_config" }

// FocusesOn reports whether the pattern is one of the child's focus areas.
func (c *ProgressTrackingConfig) FocusesOn(b BehaviorType) bool {
	for _, fa := range c.FocusAreas {
		if fa == b {
			return true
		}
	}
	return false
}

// TargetsMilestone reports whether the milestone is in the child's target set.
func (c *ProgressTrackingConfig) TargetsMilestone(id string) bool {
	for _, m := range c.MilestoneTargets {
		if m == id {
			return true
		}
	}
	return false
}
