package types

import (
	"time"

	"github.com/google/uuid"
)

// MilestoneAchievementRecord marks that a catalog milestone was detected for
// a child. Append-only; the same milestone may be re-recorded over time as a
// reconfirmation, flagged so that callers can suppress duplicate
// notifications.
type MilestoneAchievementRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChildID     uuid.UUID `gorm:"type:uuid;not null;index:idx_milestone_child_time" json:"child_id"`
	MilestoneID string    `gorm:"column:milestone_id;not null;index" json:"milestone_id"`
	Confidence  float64   `gorm:"column:confidence;not null" json:"confidence"`
	Evidence    []string  `gorm:"serializer:json;column:evidence" json:"evidence,omitempty"`
	Reconfirmed bool      `gorm:"column:reconfirmed;not null" json:"reconfirmed"`
	AchievedAt  time.Time `gorm:"column:achieved_at;not null;index:idx_milestone_child_time" json:"achieved_at"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (MilestoneAchievementRecord) TableName() string { return "milestone_achievement_record" }
