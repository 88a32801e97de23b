package cleaner

import "time"

// Stats records what a cleaning pass did.
type Stats struct {
	InputBytes  int
	OutputBytes int

	ElementsRemoved int
	Footnotes       int

	// RemovalsByRule counts removals per named rule or stage.
	RemovalsByRule map[string]int

	TotalDuration time.Duration
}

// NewStats returns an initialized Stats.
func NewStats() *Stats {
	return &Stats{
		RemovalsByRule: make(map[string]int),
	}
}

// RecordRemoval counts one removal attributed to the named rule.
func (s *Stats) RecordRemoval(rule string) {
	s.ElementsRemoved++
	s.RemovalsByRule[rule]++
}

// Warning describes a non-fatal problem during cleaning.
type Warning struct {
	Stage   string
	Message string
	Detail  string
}

// Result holds the cleaned content and pass diagnostics.
type Result struct {
	Content  string
	Stats    *Stats
	Warnings []Warning
}

// AddWarning appends a warning to the result.
func (r *Result) AddWarning(stage, message, detail string) {
	r.Warnings = append(r.Warnings, Warning{Stage: stage, Message: message, Detail: detail})
}
