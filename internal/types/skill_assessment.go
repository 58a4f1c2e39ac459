package types

import (
	"time"

	"github.com/google/uuid"
)

// SkillAssessment is one point on a named skill's trajectory. Every update
// appends a new record; the "current" value of a skill is the latest record
// by AssessedAt, so the assessment history is never rewritten.
type SkillAssessment struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChildID       uuid.UUID `gorm:"type:uuid;not null;index:idx_skill_child_time" json:"child_id"`
	SkillName     string    `gorm:"column:skill_name;not null;index" json:"skill_name"`
	Category      string    `gorm:"column:category" json:"category"`
	BaselineScore float64   `gorm:"column:baseline_score;not null" json:"baseline_score"`
	CurrentScore  float64   `gorm:"column:current_score;not null" json:"current_score"`
	TargetScore   float64   `gorm:"column:target_score;not null" json:"target_score"`
	Method        string    `gorm:"column:method" json:"method"`
	Notes         string    `gorm:"column:notes" json:"notes,omitempty"`
	AssessedAt    time.Time `gorm:"column:assessed_at;not null;index:idx_skill_child_time" json:"assessed_at"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (SkillAssessment) TableName() string { return "skill_assessment" }

// LatestSkillScores reduces an assessment history to the current score per
// skill (latest by AssessedAt).
func LatestSkillScores(history []*SkillAssessment) map[string]*SkillAssessment {
	latest := make(map[string]*SkillAssessment, len(history))
	for _, a := range history {
		prev, ok := latest[a.SkillName]
		if !ok || a.AssessedAt.After(prev.AssessedAt) {
			latest[a.SkillName] = a
		}
	}
	return latest
}
