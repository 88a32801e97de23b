package cleaner

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRulesFile reads a YAML rule-override file and merges it into the
// default config. List entries are appended (deduplicated); non-zero caps
// replace the defaults. This lets users extend the marker tables for a
// newsletter platform the defaults don't cover without touching code.
func LoadRulesFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-specified rules file
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var overrides Config
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	return DefaultConfig().Merge(&overrides), nil
}

// Merge combines another config into this one and returns the result.
// List values are appended without duplicates; positive caps override.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	merged := *c
	merged.BoilerplateClasses = appendUnique(c.BoilerplateClasses, other.BoilerplateClasses)
	merged.ActionWords = appendUnique(c.ActionWords, other.ActionWords)
	merged.AdMarkers = appendUnique(c.AdMarkers, other.AdMarkers)
	merged.ExactAdMarkers = appendUnique(c.ExactAdMarkers, other.ExactAdMarkers)
	merged.FooterPhrases = appendUnique(c.FooterPhrases, other.FooterPhrases)

	if other.ForwardedTextCap > 0 {
		merged.ForwardedTextCap = other.ForwardedTextCap
	}
	if other.DateTextCap > 0 {
		merged.DateTextCap = other.DateTextCap
	}
	if other.AdTextCap > 0 {
		merged.AdTextCap = other.AdTextCap
	}
	if other.FooterTextCap > 0 {
		merged.FooterTextCap = other.FooterTextCap
	}
	if other.SignatureTextCap > 0 {
		merged.SignatureTextCap = other.SignatureTextCap
	}
	if other.ReadInAppCap > 0 {
		merged.ReadInAppCap = other.ReadInAppCap
	}
	if other.AuthorTolerance > 0 {
		merged.AuthorTolerance = other.AuthorTolerance
	}
	if other.TinyImageMax > 0 {
		merged.TinyImageMax = other.TinyImageMax
	}

	return &merged
}

func appendUnique(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]bool, len(base))
	merged := make([]string, 0, len(base)+len(extra))
	for _, v := range base {
		if !seen[v] {
			seen[v] = true
			merged = append(merged, v)
		}
	}
	for _, v := range extra {
		if !seen[v] {
			seen[v] = true
			merged = append(merged, v)
		}
	}
	return merged
}
