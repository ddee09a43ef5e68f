package grouping

import (
	"sort"
	"strings"

	"tenancy-graphx/internal/graph"
)

// Member is the neutral view the workload grouper operates on. Records
// and graph nodes are both reduced to this shape so the grouping pass
// produces identical results no matter which stage asks for it.
type Member struct {
	ID           string
	Name         string
	FreeformTags map[string]any
	DefinedTags  map[string]any
}

// Workload is a named group of members that appear to belong to one
// application.
type Workload struct {
	Name      string
	MemberIDs []string
}

func (w Workload) Size() int { return len(w.MemberIDs) }

var workloadTagKeys = []string{"app", "application", "service", "workload", "project", "stack"}

var workloadNameKeywords = []string{"media", "stream", "cdn", "edge", "demo", "sandbox"}

// Environment prefixes that name a stage rather than an application.
var excludedPrefixes = map[string]bool{
	"prod":       true,
	"production": true,
	"dev":        true,
	"test":       true,
	"stage":      true,
	"staging":    true,
}

// MembersFromRecords adapts input records for grouping.
func MembersFromRecords(records []graph.Record) []Member {
	members := make([]Member, 0, len(records))
	for _, rec := range records {
		if rec.OCID == "" {
			continue
		}
		name := rec.DisplayName
		if name == "" {
			name = rec.Name
		}
		members = append(members, Member{
			ID:           rec.OCID,
			Name:         name,
			FreeformTags: rec.FreeformTags,
			DefinedTags:  rec.DefinedTags,
		})
	}
	return members
}

// MembersFromNodes adapts graph nodes for grouping.
func MembersFromNodes(nodes []graph.Node) []Member {
	members := make([]Member, 0, len(nodes))
	for _, node := range nodes {
		if node.NodeID == "" {
			continue
		}
		m := Member{ID: node.NodeID, Name: node.Name}
		if freeform, ok := node.Tags["freeformTags"].(map[string]any); ok {
			m.FreeformTags = freeform
		}
		if defined, ok := node.Tags["definedTags"].(map[string]any); ok {
			m.DefinedTags = defined
		}
		members = append(members, m)
	}
	return members
}

// GroupWorkloads clusters members into named workloads. A member's
// workload name is taken from its tags when possible, from an
// application keyword in its display name otherwise, and as a last
// resort from a name prefix shared by at least three members. Groups
// smaller than minSize are discarded. The result is ordered by
// descending size, then name, and is insensitive to the input order.
func GroupWorkloads(members []Member, minSize int) []Workload {
	if minSize <= 0 {
		minSize = 3
	}

	prefixCounts := make(map[string]int)
	for _, m := range members {
		if token := prefixToken(m.Name); token != "" {
			prefixCounts[strings.ToLower(token)]++
		}
	}

	type bucket struct {
		display string
		ids     []string
	}
	buckets := make(map[string]*bucket)
	for _, m := range members {
		name := chooseWorkload(m, prefixCounts)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{display: name}
			buckets[key] = b
		} else if name < b.display {
			// Prefer the lexicographically smallest casing so the group
			// name does not depend on member order.
			b.display = name
		}
		b.ids = append(b.ids, m.ID)
	}

	var groups []Workload
	for _, b := range buckets {
		if len(b.ids) < minSize {
			continue
		}
		sort.Strings(b.ids)
		groups = append(groups, Workload{Name: b.display, MemberIDs: b.ids})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].MemberIDs) != len(groups[j].MemberIDs) {
			return len(groups[i].MemberIDs) > len(groups[j].MemberIDs)
		}
		return strings.ToLower(groups[i].Name) < strings.ToLower(groups[j].Name)
	})
	return groups
}

func chooseWorkload(m Member, prefixCounts map[string]int) string {
	for _, cand := range candidateNames(m) {
		lower := strings.ToLower(cand)
		if isNameKeyword(lower) {
			return cand
		}
		if prefixCounts[lower] >= 3 {
			return cand
		}
		if (strings.Contains(cand, " ") || len(cand) >= 4) && !excludedPrefixes[lower] {
			return cand
		}
	}
	return ""
}

// candidateNames lists a member's possible workload names, most
// trustworthy source first, deduplicated case-insensitively with the
// first casing kept.
func candidateNames(m Member) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(cand string) {
		cand = strings.TrimSpace(cand)
		if cand == "" {
			return
		}
		lower := strings.ToLower(cand)
		if seen[lower] {
			return
		}
		seen[lower] = true
		out = append(out, cand)
	}

	for _, key := range workloadTagKeys {
		if v, ok := m.FreeformTags[key].(string); ok {
			add(v)
		}
		for _, ns := range sortedKeys(m.DefinedTags) {
			inner, ok := m.DefinedTags[ns].(map[string]any)
			if !ok {
				continue
			}
			if v, ok := inner[key].(string); ok {
				add(v)
			}
		}
	}

	lowerName := strings.ToLower(m.Name)
	for _, kw := range workloadNameKeywords {
		if strings.Contains(lowerName, kw) {
			add(kw)
		}
	}

	if token := prefixToken(m.Name); token != "" {
		add(token)
	}
	return out
}

// prefixToken returns the first name segment before a dash, underscore
// or dot when it is at least three characters long.
func prefixToken(name string) string {
	token := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	if len(token) == 0 || len(token[0]) < 3 {
		return ""
	}
	return token[0]
}

func isNameKeyword(lower string) bool {
	for _, kw := range workloadNameKeywords {
		if lower == kw {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
