package types

import (
	"time"

	"github.com/google/uuid"
)

// RealTimeProgressMetrics is the ephemeral per-session snapshot recomputed
// while a session is active. It is never persisted as-is; on session end the
// underlying observations already live in the per-child logs.
type RealTimeProgressMetrics struct {
	SessionID         uuid.UUID                `json:"session_id"`
	ChildID           uuid.UUID                `json:"child_id"`
	StartedAt         time.Time                `json:"started_at"`
	LastUpdate        time.Time                `json:"last_update"`
	EngagementScore   float64                  `json:"engagement_score"`
	AttentionScore    float64                  `json:"attention_score"`
	CurrentState      EmotionalState           `json:"current_state"`
	RegulationEvents  int                      `json:"regulation_events"`
	SupportEvents     int                      `json:"support_events"`
	ObservationCount  int                      `json:"observation_count"`
	FocusAreaProgress map[BehaviorType]float64 `json:"focus_area_progress"`
}
