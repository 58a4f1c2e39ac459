package analysis

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lumenkind/playtrack-backend/internal/types"
)

// SkillCriterion requires the latest assessment of a named skill to be at or
// above a score.
type SkillCriterion struct {
	Skill    string  `yaml:"skill" json:"skill"`
	MinScore float64 `yaml:"min_score" json:"min_score"`
}

// BehaviorCriterion constrains the windowed statistics of one behavioral
// pattern: a minimum mean intensity, a non-declining trend, or both.
type BehaviorCriterion struct {
	Pattern          types.BehaviorType `yaml:"pattern" json:"pattern"`
	MinMeanIntensity float64            `yaml:"min_mean_intensity,omitempty" json:"min_mean_intensity,omitempty"`
	ForbidDeclining  bool               `yaml:"forbid_declining,omitempty" json:"forbid_declining,omitempty"`
}

// Milestone is one entry in the static clinical catalog. Applicability bounds
// of zero mean unbounded.
type Milestone struct {
	ID              string              `yaml:"id" json:"id"`
	Description     string              `yaml:"description" json:"description"`
	MinAge          int                 `yaml:"min_age,omitempty" json:"min_age,omitempty"`
	MaxAge          int                 `yaml:"max_age,omitempty" json:"max_age,omitempty"`
	MaxSupportLevel int                 `yaml:"max_support_level,omitempty" json:"max_support_level,omitempty"`
	Skills          []SkillCriterion    `yaml:"skills,omitempty" json:"skills,omitempty"`
	Behaviors       []BehaviorCriterion `yaml:"behaviors,omitempty" json:"behaviors,omitempty"`
}

// ReferencesSkill reports whether any criterion of the milestone reads the
// named skill; used to pick which milestones to re-check on a skill update.
func (m Milestone) ReferencesSkill(name string) bool {
	for _, c := range m.Skills {
		if c.Skill == name {
			return true
		}
	}
	return false
}

// ApplicableTo reports whether the milestone applies to a child of the given
// age and support level.
func (m Milestone) ApplicableTo(age, supportLevel int) bool {
	if m.MinAge > 0 && age < m.MinAge {
		return false
	}
	if m.MaxAge > 0 && age > m.MaxAge {
		return false
	}
	if m.MaxSupportLevel > 0 && supportLevel > m.MaxSupportLevel {
		return false
	}
	return true
}

// Catalog is the static set of milestone definitions.
type Catalog struct {
	Milestones []Milestone `yaml:"milestones" json:"milestones"`
}

func (c Catalog) Get(id string) (Milestone, bool) {
	for _, m := range c.Milestones {
		if m.ID == id {
			return m, true
		}
	}
	return Milestone{}, false
}

func (c Catalog) ApplicableTo(age, supportLevel int) []Milestone {
	var out []Milestone
	for _, m := range c.Milestones {
		if m.ApplicableTo(age, supportLevel) {
			out = append(out, m)
		}
	}
	return out
}

// ReferencingSkill returns the milestones whose criteria read the named skill.
func (c Catalog) ReferencingSkill(name string) []Milestone {
	var out []Milestone
	for _, m := range c.Milestones {
		if m.ReferencesSkill(name) {
			out = append(out, m)
		}
	}
	return out
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	for _, m := range c.Milestones {
		if m.ID == "" {
			return Catalog{}, fmt.Errorf("parse catalog: milestone with empty id")
		}
		for _, b := range m.Behaviors {
			if !b.Pattern.Valid() {
				return Catalog{}, fmt.Errorf("parse catalog: milestone %s references unknown pattern %q", m.ID, b.Pattern)
			}
		}
	}
	return c, nil
}

// DefaultCatalog is the built-in milestone set used when no catalog file is
// configured.
func DefaultCatalog() Catalog {
	return Catalog{Milestones: []Milestone{
		{
			ID:          "emotional_regulation_improvement",
			Description: "Sustained gains in self-regulation during play.",
			Skills:      []SkillCriterion{{Skill: "emotional_regulation", MinScore: 0.7}},
			Behaviors: []BehaviorCriterion{
				{Pattern: types.BehaviorEmotionalRegulation, ForbidDeclining: true},
			},
		},
		{
			ID:          "communication_clarity",
			Description: "Clear, consistent communication attempts across sessions.",
			Skills:      []SkillCriterion{{Skill: "communication", MinScore: 0.7}},
			Behaviors: []BehaviorCriterion{
				{Pattern: types.BehaviorCommunication, MinMeanIntensity: 0.5},
			},
		},
		{
			ID:          "social_reciprocity",
			Description: "Back-and-forth social engagement initiated by the child.",
			Skills:      []SkillCriterion{{Skill: "social_interaction", MinScore: 0.75}},
		},
		{
			ID:          "sensory_tolerance_expansion",
			Description: "Wider tolerance of sensory input without distress.",
			Skills:      []SkillCriterion{{Skill: "sensory_tolerance", MinScore: 0.65}},
			Behaviors: []BehaviorCriterion{
				{Pattern: types.BehaviorSensoryProcessing, ForbidDeclining: true},
			},
		},
		{
			ID:          "attention_sustained_engagement",
			Description: "Sustained attention across a full game activity.",
			MinAge:      4,
			Skills:      []SkillCriterion{{Skill: "attention", MinScore: 0.6}},
			Behaviors: []BehaviorCriterion{
				{Pattern: types.BehaviorAttentionRegulation, MinMeanIntensity: 0.5},
			},
		},
		{
			ID:              "adaptive_flexibility",
			Description:     "Flexible responses to routine or rule changes.",
			MaxSupportLevel: 2,
			Skills:          []SkillCriterion{{Skill: "adaptive_behavior", MinScore: 0.6}},
			Behaviors: []BehaviorCriterion{
				{Pattern: types.BehaviorAdaptiveBehavior, ForbidDeclining: true},
			},
		},
	}}
}
