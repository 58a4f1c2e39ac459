package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumenkind/playtrack-backend/internal/apperr"
	"github.com/lumenkind/playtrack-backend/internal/types"
)

// MemoryStore keeps every child's logs in process memory. Each child owns
// its own RWMutex, so appends for different children never contend; the
// outer lock only guards the child map itself.
type MemoryStore struct {
	mu       sync.RWMutex
	children map[uuid.UUID]*childLog
}

type childLog struct {
	mu         sync.RWMutex
	profile    types.ChildProfile
	config     types.ProgressTrackingConfig
	behavioral []*types.BehavioralDataPoint
	emotional  []*types.EmotionalStateTransition
	skills     []*types.SkillAssessment
	milestones []*types.MilestoneAchievementRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{children: map[uuid.UUID]*childLog{}}
}

func (s *MemoryStore) child(id uuid.UUID) (*childLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.children[id]
	if !ok {
		return nil, apperr.NotFoundf("child %s tracking not initialized", id)
	}
	return c, nil
}

func (s *MemoryStore) Initialize(_ context.Context, profile *types.ChildProfile, cfg *types.ProgressTrackingConfig) error {
	if profile == nil || cfg == nil {
		return apperr.Validationf("profile and config required")
	}
	s.mu.Lock()
	c, ok := s.children[profile.ID]
	if !ok {
		c = &childLog{}
		s.children[profile.ID] = c
	}
	s.mu.Unlock()

	// Re-initialization overwrites profile and config but keeps the logs.
	c.mu.Lock()
	c.profile = *profile
	c.config = *cfg
	c.mu.Unlock()
	return nil
}

func (s *MemoryStore) Profile(_ context.Context, childID uuid.UUID) (*types.ChildProfile, error) {
	c, err := s.child(childID)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p := c.profile
	return &p, nil
}

func (s *MemoryStore) Config(_ context.Context, childID uuid.UUID) (*types.ProgressTrackingConfig, error) {
	c, err := s.child(childID)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg := c.config
	return &cfg, nil
}

func (s *MemoryStore) AppendBehavioral(_ context.Context, point *types.BehavioralDataPoint) error {
	if point == nil {
		return apperr.Validationf("nil behavioral point")
	}
	c, err := s.child(point.ChildID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.behavioral = insertByTime(c.behavioral, point, func(p *types.BehavioralDataPoint) time.Time { return p.ObservedAt })
	return nil
}

func (s *MemoryStore) AppendEmotional(_ context.Context, tr *types.EmotionalStateTransition) error {
	if tr == nil {
		return apperr.Validationf("nil emotional transition")
	}
	c, err := s.child(tr.ChildID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emotional = insertByTime(c.emotional, tr, func(t *types.EmotionalStateTransition) time.Time { return t.ObservedAt })
	return nil
}

func (s *MemoryStore) AppendSkill(_ context.Context, a *types.SkillAssessment) error {
	if a == nil {
		return apperr.Validationf("nil skill assessment")
	}
	c, err := s.child(a.ChildID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skills = insertByTime(c.skills, a, func(x *types.SkillAssessment) time.Time { return x.AssessedAt })
	return nil
}

func (s *MemoryStore) AppendMilestone(_ context.Context, rec *types.MilestoneAchievementRecord) error {
	if rec == nil {
		return apperr.Validationf("nil milestone record")
	}
	c, err := s.child(rec.ChildID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.milestones = insertByTime(c.milestones, rec, func(r *types.MilestoneAchievementRecord) time.Time { return r.AchievedAt })
	return nil
}

func (s *MemoryStore) BehavioralSince(_ context.Context, childID uuid.UUID, since time.Time) ([]*types.BehavioralDataPoint, error) {
	c, err := s.child(childID)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sliceSince(c.behavioral, since, func(p *types.BehavioralDataPoint) time.Time { return p.ObservedAt }), nil
}

func (s *MemoryStore) EmotionalSince(_ context.Context, childID uuid.UUID, since time.Time) ([]*types.EmotionalStateTransition, error) {
	c, err := s.child(childID)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sliceSince(c.emotional, since, func(t *types.EmotionalStateTransition) time.Time { return t.ObservedAt }), nil
}

func (s *MemoryStore) SkillsSince(_ context.Context, childID uuid.UUID, since time.Time) ([]*types.SkillAssessment, error) {
	c, err := s.child(childID)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sliceSince(c.skills, since, func(a *types.SkillAssessment) time.Time { return a.AssessedAt }), nil
}

func (s *MemoryStore) MilestonesSince(_ context.Context, childID uuid.UUID, since time.Time) ([]*types.MilestoneAchievementRecord, error) {
	c, err := s.child(childID)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sliceSince(c.milestones, since, func(r *types.MilestoneAchievementRecord) time.Time { return r.AchievedAt }), nil
}

// insertByTime keeps the log sorted by timestamp without reordering equal
// timestamps; observations usually arrive in order, so the common case is a
// plain append.
func insertByTime[T any](log []*T, rec *T, at func(*T) time.Time) []*T {
	if n := len(log); n == 0 || !at(rec).Before(at(log[n-1])) {
		return append(log, rec)
	}
	i := sort.Search(len(log), func(i int) bool { return at(log[i]).After(at(rec)) })
	log = append(log, nil)
	copy(log[i+1:], log[i:])
	log[i] = rec
	return log
}

// sliceSince returns a copy so analyzers never share backing arrays with the
// live log (copy-then-compute).
func sliceSince[T any](log []*T, since time.Time, at func(*T) time.Time) []*T {
	i := 0
	if !since.IsZero() {
		i = sort.Search(len(log), func(i int) bool { return !at(log[i]).Before(since) })
	}
	out := make([]*T, len(log)-i)
	copy(out, log[i:])
	return out
}
