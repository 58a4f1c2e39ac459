package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumenkind/playtrack-backend/internal/types"
)

// engagementWeight is the smoothing factor for the rolling engagement and
// attention scores; higher weights favor the newest observation.
const engagementWeight = 0.3

// SessionRegistry owns the ephemeral per-session metric snapshots. Each
// session's state is guarded by its own mutex: only that session's event
// stream mutates it, while dashboard reads take a snapshot at any time.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionState
}

type sessionState struct {
	mu      sync.Mutex
	metrics types.RealTimeProgressMetrics
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: map[uuid.UUID]*sessionState{}}
}

// ensure returns the session's state, creating it on first use.
func (r *SessionRegistry) ensure(sessionID, childID uuid.UUID, focusAreas []types.BehaviorType) *sessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.sessions[sessionID]; ok {
		return st
	}
	now := time.Now().UTC()
	progress := make(map[types.BehaviorType]float64, len(focusAreas))
	for _, fa := range focusAreas {
		progress[fa] = 0
	}
	st := &sessionState{metrics: types.RealTimeProgressMetrics{
		SessionID:         sessionID,
		ChildID:           childID,
		StartedAt:         now,
		LastUpdate:        now,
		CurrentState:      types.StateNeutral,
		FocusAreaProgress: progress,
	}}
	r.sessions[sessionID] = st
	return st
}

// ObserveBehavioral folds one observation into the rolling session scores.
func (r *SessionRegistry) ObserveBehavioral(sessionID, childID uuid.UUID, focusAreas []types.BehaviorType, p *types.BehavioralDataPoint) {
	st := r.ensure(sessionID, childID, focusAreas)
	st.mu.Lock()
	defer st.mu.Unlock()
	m := &st.metrics
	m.ObservationCount++
	m.LastUpdate = time.Now().UTC()

	switch p.BehaviorType {
	case types.BehaviorAttentionRegulation:
		m.AttentionScore = rollingBlend(m.AttentionScore, p.Intensity)
	case types.BehaviorSocialInteraction, types.BehaviorCommunication, types.BehaviorAdaptiveBehavior:
		m.EngagementScore = rollingBlend(m.EngagementScore, p.Intensity)
	}

	if _, ok := m.FocusAreaProgress[p.BehaviorType]; ok {
		m.FocusAreaProgress[p.BehaviorType] = rollingBlend(m.FocusAreaProgress[p.BehaviorType], p.Intensity)
	}
}

// ObserveEmotional folds one transition into the session state.
func (r *SessionRegistry) ObserveEmotional(sessionID, childID uuid.UUID, focusAreas []types.BehaviorType, t *types.EmotionalStateTransition) {
	st := r.ensure(sessionID, childID, focusAreas)
	st.mu.Lock()
	defer st.mu.Unlock()
	m := &st.metrics
	m.ObservationCount++
	m.LastUpdate = time.Now().UTC()
	m.CurrentState = t.ToState
	if t.TowardCalm() {
		m.RegulationEvents++
	}
	if t.SupportNeeded {
		m.SupportEvents++
	}
}

// Snapshot returns a copy of the session metrics.
func (r *SessionRegistry) Snapshot(sessionID uuid.UUID) (types.RealTimeProgressMetrics, bool) {
	r.mu.RLock()
	st, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return types.RealTimeProgressMetrics{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	m := st.metrics
	m.FocusAreaProgress = make(map[types.BehaviorType]float64, len(st.metrics.FocusAreaProgress))
	for k, v := range st.metrics.FocusAreaProgress {
		m.FocusAreaProgress[k] = v
	}
	return m, true
}

// End discards the session state, returning the final snapshot. The
// underlying observations already live in the per-child logs, so nothing is
// lost.
func (r *SessionRegistry) End(sessionID uuid.UUID) (types.RealTimeProgressMetrics, bool) {
	m, ok := r.Snapshot(sessionID)
	if !ok {
		return types.RealTimeProgressMetrics{}, false
	}
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	return m, true
}

func rollingBlend(prev, next float64) float64 {
	if prev == 0 {
		return types.Clamp01(next)
	}
	return types.Clamp01((1-engagementWeight)*prev + engagementWeight*next)
}
