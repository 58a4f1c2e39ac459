package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumenkind/playtrack-backend/internal/logger"
	"github.com/lumenkind/playtrack-backend/internal/services"
	"github.com/lumenkind/playtrack-backend/internal/types"
)

type TrackingHandler struct {
	log         *logger.Logger
	trackingSvc services.ProgressTrackingService
}

func NewTrackingHandler(log *logger.Logger, tsvc services.ProgressTrackingService) *TrackingHandler {
	return &TrackingHandler{
		log:         log.With("handler", "TrackingHandler"),
		trackingSvc: tsvc,
	}
}

type childProfilePayload struct {
	ChildID           uuid.UUID              `json:"child_id"`
	Name              string                 `json:"name"`
	Age               int                    `json:"age"`
	SupportLevel      int                    `json:"support_level"`
	SensoryProfile    string                 `json:"sensory_profile"`
	CommunicationPref map[string]interface{} `json:"communication_pref"`
	Interests         []string               `json:"interests"`
	Triggers          []string               `json:"triggers"`
	CalmingStrategies []string               `json:"calming_strategies"`
}

// POST /api/tracking/initialize
// { child_profile } -> { config }
func (h *TrackingHandler) Initialize(c *gin.Context) {
	var req struct {
		ChildProfile childProfilePayload `json:"child_profile" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	p := req.ChildProfile
	cfg, err := h.trackingSvc.InitializeChildTracking(c.Request.Context(), &types.ChildProfile{
		ID:                p.ChildID,
		Name:              p.Name,
		Age:               p.Age,
		SupportLevel:      p.SupportLevel,
		SensoryProfile:    p.SensoryProfile,
		CommunicationPref: p.CommunicationPref,
		Interests:         p.Interests,
		Triggers:          p.Triggers,
		CalmingStrategies: p.CalmingStrategies,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"config": cfg})
}

func childIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("child_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/tracking/:child_id/behavioral
// { session_id, observations } -> { recorded_count, observation_ids }
func (h *TrackingHandler) RecordBehavioral(c *gin.Context) {
	childID, ok := childIDParam(c)
	if !ok {
		return
	}
	var req struct {
		SessionID    uuid.UUID                             `json:"session_id"`
		Observations []services.BehavioralObservationInput `json:"observations" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	points, err := h.trackingSvc.RecordBehavioralObservations(c.Request.Context(), childID, req.SessionID, req.Observations)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	ids := make([]uuid.UUID, len(points))
	for i, p := range points {
		ids[i] = p.ID
	}
	RespondOK(c, gin.H{"recorded_count": len(points), "observation_ids": ids})
}

// POST /api/tracking/:child_id/emotional
// { session_id, transitions } -> { recorded_count, insights, recommendations }
func (h *TrackingHandler) RecordEmotional(c *gin.Context) {
	childID, ok := childIDParam(c)
	if !ok {
		return
	}
	var req struct {
		SessionID   uuid.UUID                           `json:"session_id"`
		Transitions []services.EmotionalTransitionInput `json:"transitions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	result, err := h.trackingSvc.RecordEmotionalTransitions(c.Request.Context(), childID, req.SessionID, req.Transitions)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"recorded_count":  len(result.Recorded),
		"insights":        result.Insights,
		"recommendations": result.Recommendations,
	})
}

// POST /api/tracking/:child_id/skill
// { skill_name, new_score, assessment_method, notes? } -> SkillUpdateResult
func (h *TrackingHandler) UpdateSkill(c *gin.Context) {
	childID, ok := childIDParam(c)
	if !ok {
		return
	}
	var req services.SkillUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	result, err := h.trackingSvc.UpdateSkillAssessment(c.Request.Context(), childID, req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, result)
}

// POST /api/tracking/:child_id/session-analysis
// { session_id } -> { milestones_detected, real_time_metrics }
func (h *TrackingHandler) SessionAnalysis(c *gin.Context) {
	childID, ok := childIDParam(c)
	if !ok {
		return
	}
	var req struct {
		SessionID uuid.UUID `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	milestones, err := h.trackingSvc.DetectMilestoneAchievements(c.Request.Context(), childID, req.SessionID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	metrics, err := h.trackingSvc.GenerateRealTimeMetrics(c.Request.Context(), req.SessionID, childID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"milestones_detected": milestones,
		"real_time_metrics":   metrics,
	})
}

// GET /api/tracking/:child_id/next-milestones
func (h *TrackingHandler) NextMilestones(c *gin.Context) {
	childID, ok := childIDParam(c)
	if !ok {
		return
	}
	targets, err := h.trackingSvc.GetNextMilestoneTargets(c.Request.Context(), childID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"next_milestones": targets})
}

// GET /api/tracking/:child_id/metrics/:session_id
func (h *TrackingHandler) SessionMetrics(c *gin.Context) {
	childID, ok := childIDParam(c)
	if !ok {
		return
	}
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	metrics, err := h.trackingSvc.GenerateRealTimeMetrics(c.Request.Context(), sessionID, childID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, metrics)
}
