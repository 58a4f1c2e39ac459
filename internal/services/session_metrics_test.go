package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lumenkind/playtrack-backend/internal/types"
)

func behavioralPoint(childID uuid.UUID, bt types.BehaviorType, intensity float64) *types.BehavioralDataPoint {
	return &types.BehavioralDataPoint{
		ID:           uuid.New(),
		ChildID:      childID,
		BehaviorType: bt,
		Intensity:    intensity,
		ObservedAt:   time.Now().UTC(),
	}
}

func TestSessionRegistryObserveAndSnapshot(t *testing.T) {
	r := NewSessionRegistry()
	sessionID := uuid.New()
	childID := uuid.New()
	focus := []types.BehaviorType{types.BehaviorSocialInteraction}

	_, ok := r.Snapshot(sessionID)
	require.False(t, ok, "unknown session should not snapshot")

	r.ObserveBehavioral(sessionID, childID, focus, behavioralPoint(childID, types.BehaviorSocialInteraction, 0.8))
	r.ObserveBehavioral(sessionID, childID, focus, behavioralPoint(childID, types.BehaviorAttentionRegulation, 0.6))

	m, ok := r.Snapshot(sessionID)
	require.True(t, ok)
	require.Equal(t, 2, m.ObservationCount)
	require.InDelta(t, 0.8, m.EngagementScore, 1e-9) // first engagement sample taken as-is
	require.InDelta(t, 0.6, m.AttentionScore, 1e-9)
	require.InDelta(t, 0.8, m.FocusAreaProgress[types.BehaviorSocialInteraction], 1e-9)

	// The second engagement sample blends instead of replacing.
	r.ObserveBehavioral(sessionID, childID, focus, behavioralPoint(childID, types.BehaviorCommunication, 0.4))
	m, _ = r.Snapshot(sessionID)
	require.InDelta(t, 0.7*0.8+0.3*0.4, m.EngagementScore, 1e-9)
}

func TestSessionRegistryObserveEmotional(t *testing.T) {
	r := NewSessionRegistry()
	sessionID := uuid.New()
	childID := uuid.New()

	r.ObserveEmotional(sessionID, childID, nil, &types.EmotionalStateTransition{
		ID: uuid.New(), ChildID: childID,
		FromState: types.StateAnxious, ToState: types.StateCalm,
		ObservedAt: time.Now().UTC(),
	})
	r.ObserveEmotional(sessionID, childID, nil, &types.EmotionalStateTransition{
		ID: uuid.New(), ChildID: childID,
		FromState: types.StateCalm, ToState: types.StateFrustrated, SupportNeeded: true,
		ObservedAt: time.Now().UTC(),
	})

	m, ok := r.Snapshot(sessionID)
	require.True(t, ok)
	require.Equal(t, types.StateFrustrated, m.CurrentState)
	require.Equal(t, 1, m.RegulationEvents)
	require.Equal(t, 1, m.SupportEvents)
	require.Equal(t, 2, m.ObservationCount)
}

func TestSessionRegistrySnapshotIsACopy(t *testing.T) {
	r := NewSessionRegistry()
	sessionID := uuid.New()
	childID := uuid.New()
	focus := []types.BehaviorType{types.BehaviorSocialInteraction}

	r.ObserveBehavioral(sessionID, childID, focus, behavioralPoint(childID, types.BehaviorSocialInteraction, 0.5))
	m, _ := r.Snapshot(sessionID)
	m.FocusAreaProgress[types.BehaviorSocialInteraction] = 99

	again, _ := r.Snapshot(sessionID)
	require.InDelta(t, 0.5, again.FocusAreaProgress[types.BehaviorSocialInteraction], 1e-9,
		"mutating a snapshot must not touch the live session state")
}

func TestSessionRegistryEnd(t *testing.T) {
	r := NewSessionRegistry()
	sessionID := uuid.New()
	childID := uuid.New()

	r.ObserveBehavioral(sessionID, childID, nil, behavioralPoint(childID, types.BehaviorCommunication, 0.5))

	final, ok := r.End(sessionID)
	require.True(t, ok)
	require.Equal(t, 1, final.ObservationCount)

	_, ok = r.Snapshot(sessionID)
	require.False(t, ok, "ended session should be gone")

	_, ok = r.End(sessionID)
	require.False(t, ok, "double end should report missing")
}
