package analysis

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "catalog.yaml")
		raw := `milestones:
  - id: custom_milestone
    description: Test milestone.
    min_age: 5
    skills:
      - skill: communication
        min_score: 0.6
    behaviors:
      - pattern: communication
        min_mean_intensity: 0.4
`
		if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		c, err := LoadCatalog(path)
		if err != nil {
			t.Fatalf("LoadCatalog: %v", err)
		}
		m, ok := c.Get("custom_milestone")
		if !ok {
			t.Fatalf("loaded catalog missing custom_milestone")
		}
		if m.MinAge != 5 || len(m.Skills) != 1 || m.Skills[0].MinScore != 0.6 {
			t.Fatalf("milestone fields lost in load: %+v", m)
		}
	})

	t.Run("unknown pattern rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		raw := `milestones:
  - id: bad_milestone
    behaviors:
      - pattern: telekinesis
`
		if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		if _, err := LoadCatalog(path); err == nil {
			t.Fatalf("expected error for unknown behavior pattern")
		}
	})

	t.Run("empty id rejected", func(t *testing.T) {
		path := filepath.Join(dir, "noid.yaml")
		if err := os.WriteFile(path, []byte("milestones:\n  - description: nameless\n"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		if _, err := LoadCatalog(path); err == nil {
			t.Fatalf("expected error for empty milestone id")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadCatalog(filepath.Join(dir, "nope.yaml")); err == nil {
			t.Fatalf("expected error for missing file")
		}
	})
}

func TestDefaultCatalogApplicability(t *testing.T) {
	catalog := DefaultCatalog()

	young := catalog.ApplicableTo(3, 1)
	for _, m := range young {
		if m.ID == "attention_sustained_engagement" {
			t.Fatalf("min-age milestone applied to a 3 year old")
		}
	}

	highSupport := catalog.ApplicableTo(8, 3)
	for _, m := range highSupport {
		if m.ID == "adaptive_flexibility" {
			t.Fatalf("max-support milestone applied at support level 3")
		}
	}

	all := catalog.ApplicableTo(8, 1)
	if len(all) != len(catalog.Milestones) {
		t.Fatalf("age 8 support 1 should receive every milestone, got %d of %d", len(all), len(catalog.Milestones))
	}
}

func TestCatalogReferencingSkill(t *testing.T) {
	catalog := DefaultCatalog()
	refs := catalog.ReferencingSkill("social_interaction")
	if len(refs) != 1 || refs[0].ID != "social_reciprocity" {
		t.Fatalf("ReferencingSkill(social_interaction) = %v", refs)
	}
	if got := catalog.ReferencingSkill("juggling"); len(got) != 0 {
		t.Fatalf("unknown skill matched milestones: %v", got)
	}
}
