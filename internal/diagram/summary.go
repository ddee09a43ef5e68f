package diagram

import "sort"

// SkippedEntry records a diagram that could not be written at all.
type SkippedEntry struct {
	Diagram string `json:"diagram"`
	Kind    string `json:"kind"`
	Size    int    `json:"size"`
	Limit   int    `json:"limit"`
	Reason  string `json:"reason"`
}

// SplitEntry records a diagram that was broken into part files.
type SplitEntry struct {
	Diagram string   `json:"diagram"`
	Parts   []string `json:"parts"`
	Size    int      `json:"size"`
	Limit   int      `json:"limit"`
	Reason  string   `json:"reason"`
}

// ViolationEntry records a written artifact that breaks a rendering
// guideline.
type ViolationEntry struct {
	Diagram string `json:"diagram"`
	Rule    string `json:"rule"`
	Detail  string `json:"detail"`
}

// Summary accumulates every degradation decision of one projection run.
// It is shared across all views and never reset mid-run.
type Summary struct {
	Skipped    []SkippedEntry   `json:"skipped"`
	Split      []SplitEntry     `json:"split"`
	Violations []ViolationEntry `json:"violations"`
}

func (s *Summary) addSkipped(diagram, kind string, size, limit int, reason string) {
	s.Skipped = append(s.Skipped, SkippedEntry{
		Diagram: diagram,
		Kind:    kind,
		Size:    size,
		Limit:   limit,
		Reason:  reason,
	})
}

func (s *Summary) addSplit(diagram string, parts []string, size, limit int, reason string) {
	sorted := make([]string, len(parts))
	copy(sorted, parts)
	sort.Strings(sorted)
	s.Split = append(s.Split, SplitEntry{
		Diagram: diagram,
		Parts:   sorted,
		Size:    size,
		Limit:   limit,
		Reason:  reason,
	})
}

func (s *Summary) addViolation(diagram, rule, detail string) {
	s.Violations = append(s.Violations, ViolationEntry{
		Diagram: diagram,
		Rule:    rule,
		Detail:  detail,
	})
}
