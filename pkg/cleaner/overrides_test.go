package cleaner

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMerge(t *testing.T) {
	t.Run("nil other returns receiver", func(t *testing.T) {
		base := DefaultConfig()
		if got := base.Merge(nil); got != base {
			t.Error("expected merge with nil to return the receiver")
		}
	})

	t.Run("lists append without duplicates", func(t *testing.T) {
		base := DefaultConfig()
		merged := base.Merge(&Config{
			ActionWords: []string{"share", "like and follow"},
		})

		count := 0
		for _, w := range merged.ActionWords {
			if w == "share" {
				count++
			}
		}
		if count != 1 {
			t.Errorf("expected 'share' once, found %d times", count)
		}

		found := false
		for _, w := range merged.ActionWords {
			if w == "like and follow" {
				found = true
			}
		}
		if !found {
			t.Error("expected new action word to be appended")
		}
	})

	t.Run("positive caps override", func(t *testing.T) {
		merged := DefaultConfig().Merge(&Config{TinyImageMax: 100})
		if merged.TinyImageMax != 100 {
			t.Errorf("expected TinyImageMax 100, got %d", merged.TinyImageMax)
		}
	})

	t.Run("zero caps keep defaults", func(t *testing.T) {
		merged := DefaultConfig().Merge(&Config{})
		if merged.AdTextCap != DefaultConfig().AdTextCap {
			t.Errorf("expected default AdTextCap, got %d", merged.AdTextCap)
		}
	})
}

func TestLoadRulesFile(t *testing.T) {
	t.Run("merges yaml overrides into defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		yaml := `
ad_markers:
  - "brought to you by"
tiny_image_max: 80
`
		if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadRulesFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		found := false
		for _, m := range cfg.AdMarkers {
			if m == "brought to you by" {
				found = true
			}
		}
		if !found {
			t.Error("expected custom ad marker in merged config")
		}
		if cfg.TinyImageMax != 80 {
			t.Errorf("expected TinyImageMax 80, got %d", cfg.TinyImageMax)
		}
		if len(cfg.FooterPhrases) == 0 {
			t.Error("expected default footer phrases to survive the merge")
		}
	})

	t.Run("missing file errors", func(t *testing.T) {
		if _, err := LoadRulesFile("/nonexistent/rules.yaml"); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid yaml errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("{not yaml: ["), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadRulesFile(path); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})
}
