package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChildProfile is the identity and therapeutic context for one tracked child.
// Created once at tracking initialization and rarely mutated afterwards.
type ChildProfile struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string            `gorm:"column:name;not null" json:"name"`
	Age               int               `gorm:"column:age;not null" json:"age"`
	SupportLevel      int               `gorm:"column:support_level;not null" json:"support_level"`
	SensoryProfile    string            `gorm:"column:sensory_profile" json:"sensory_profile"`
	CommunicationPref datatypes.JSONMap `gorm:"type:jsonb;column:communication_pref" json:"communication_pref,omitempty"`
	Interests         []string          `gorm:"serializer:json;column:interests" json:"interests,omitempty"`
	Triggers          []string          `gorm:"serializer:json;column:triggers" json:"triggers,omitempty"`
	CalmingStrategies []string          `gorm:"serializer:json;column:calming_strategies" json:"calming_strategies,omitempty"`
	CreatedAt         time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"not null" json:"updated_at"`
	DeletedAt         gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChildProfile) TableName() string { return "child_profile" }
