package diagram

import (
	"fmt"
	"sort"
	"strings"

	"tenancy-graphx/internal/graph"
	"tenancy-graphx/internal/grouping"
)

const (
	topNTenancySplitGroups   = 30
	topNConsolidatedOverview = 12
	topNConsolidatedWorkload = 8
	workloadCommentMinSize   = 5
	topNArchGroups           = 10
	topNArchLaneConcepts     = 6
)

type countEntry struct {
	label string
	count int
}

func sortCountEntries(entries []countEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return strings.ToLower(entries[i].label) < strings.ToLower(entries[j].label)
	})
}

// capEntries keeps the top entries and folds the rest into an
// "Other <kind>" bucket.
func capEntries(entries []countEntry, topN int, otherKind string) []countEntry {
	sortCountEntries(entries)
	if len(entries) <= topN {
		return entries
	}
	rest := 0
	for _, e := range entries[topN:] {
		rest += e.count
	}
	capped := append([]countEntry{}, entries[:topN]...)
	return append(capped, countEntry{label: "Other " + otherKind, count: rest})
}

// groupSummaries counts the non-compartment members of each split group.
func groupSummaries(groups []splitGroup) []countEntry {
	entries := make([]countEntry, 0, len(groups))
	for _, g := range groups {
		count := 0
		for i := range g.nodes {
			if graph.BareType(g.nodes[i].NodeType) != "Compartment" {
				count++
			}
		}
		entries = append(entries, countEntry{label: g.label, count: count})
	}
	sortCountEntries(entries)
	return entries
}

// compartmentCounts tallies non-compartment resources per owning
// compartment, labelled with the compartment display name.
func (p *projection) compartmentCounts() []countEntry {
	return p.compartmentCountsFor(p.nodes)
}

func (p *projection) compartmentCountsFor(nodes []graph.Node) []countEntry {
	counts := make(map[string]int)
	for i := range nodes {
		n := &nodes[i]
		if graph.BareType(n.NodeType) == "Compartment" || n.CompartmentID == "" {
			continue
		}
		counts[n.CompartmentID]++
	}
	entries := make([]countEntry, 0, len(counts))
	for id, count := range counts {
		entries = append(entries, countEntry{label: p.tree.compartmentName(id), count: count})
	}
	sortCountEntries(entries)
	return entries
}

// vcnCounts tallies attached resources per VCN.
func (p *projection) vcnCounts() []countEntry {
	return p.vcnCountsFor(p.nodes)
}

func (p *projection) vcnCountsFor(nodes []graph.Node) []countEntry {
	counts := make(map[string]int)
	for i := range nodes {
		id := nodes[i].NodeID
		vcn := p.att.vcnOf[id]
		if vcn == "" || vcn == id {
			continue
		}
		counts[vcn]++
	}
	entries := make([]countEntry, 0, len(counts))
	for vcnID, count := range counts {
		label := "VCN " + shortOCID(vcnID)
		if vcn, ok := p.byID[vcnID]; ok && vcn.Name != "" && !isOCID(vcn.Name) {
			label = vcn.Name
		}
		entries = append(entries, countEntry{label: label, count: count})
	}
	sortCountEntries(entries)
	return entries
}

func (p *projection) regionNames() []string {
	seen := make(map[string]bool)
	var regions []string
	for i := range p.nodes {
		r := p.nodes[i].Region
		if r == "" {
			r = "Global"
		}
		if !seen[r] {
			seen[r] = true
			regions = append(regions, r)
		}
	}
	sort.Strings(regions)
	return regions
}

func (p *projection) workloadGroups() []grouping.Workload {
	var candidates []graph.Node
	for i := range p.nodes {
		if graph.BareType(p.nodes[i].NodeType) != "Compartment" {
			candidates = append(candidates, p.nodes[i])
		}
	}
	return grouping.GroupWorkloads(grouping.MembersFromNodes(candidates), 0)
}

// Names that say nothing about the application a group serves.
var genericWorkloadNames = map[string]bool{
	"default": true,
	"main":    true,
	"primary": true,
	"shared":  true,
	"common":  true,
	"infra":   true,
	"core":    true,
	"base":    true,
	"misc":    true,
	"general": true,
}

// workloadsTopComment summarizes the biggest workloads in one comment
// line for the consolidated views.
func (p *projection) workloadsTopComment() string {
	var parts []string
	rest := 0
	shown := 0
	for _, wl := range p.workloadGroups() {
		if wl.Size() < workloadCommentMinSize || genericWorkloadNames[strings.ToLower(wl.Name)] {
			continue
		}
		if shown < topNConsolidatedWorkload {
			parts = append(parts, fmt.Sprintf("%s (n=%d)", wl.Name, wl.Size()))
			shown++
		} else {
			rest += wl.Size()
		}
	}
	if len(parts) == 0 {
		return "%% Workloads (top): (none)"
	}
	if rest > 0 {
		parts = append(parts, fmt.Sprintf("Other (n=%d)", rest))
	}
	return "%% Workloads (top): " + strings.Join(parts, ", ")
}

// compactOverview renders the stub body used when a view is replaced by
// split parts: regions, top compartments, top VCNs, and optionally top
// workloads, all as count nodes.
func (p *projection) compactOverview(f *idFactory, title string, topN int, includeWorkloads bool) []string {
	var lines []string
	outer := f.id("overview:tenancy")
	lines = append(lines, subgraphLine(outer, title), "direction LR")

	lines = append(lines, subgraphLine(f.fixed("overview_regions"), "Regions"))
	for _, region := range p.regionNames() {
		id := f.id("overview:region:" + region)
		lines = append(lines, "  "+shapedNode(id, "Region: "+region, shapeRound))
		lines = append(lines, fmt.Sprintf("  class %s external", id))
	}
	lines = append(lines, "end")

	lines = append(lines, subgraphLine(f.fixed("overview_compartments"), "Top Compartments"))
	for _, e := range capEntries(p.compartmentCounts(), topN, "Compartments") {
		id := f.id("overview:compartment:" + e.label)
		lines = append(lines, "  "+shapedNode(id, fmt.Sprintf("%s (n=%d)", compactLabel(e.label, 40), e.count), shapeRect))
	}
	lines = append(lines, "end")

	lines = append(lines, subgraphLine(f.fixed("overview_vcns"), "Top VCNs"))
	for _, e := range capEntries(p.vcnCounts(), topN, "VCNs") {
		id := f.id("overview:vcn:" + e.label)
		lines = append(lines, "  "+shapedNode(id, fmt.Sprintf("%s (n=%d)", compactLabel(e.label, 40), e.count), shapeRect))
	}
	lines = append(lines, "end")

	if includeWorkloads {
		lines = append(lines, subgraphLine(f.fixed("overview_workloads"), "Top Workloads"))
		entries := make([]countEntry, 0)
		for _, wl := range p.workloadGroups() {
			entries = append(entries, countEntry{label: wl.Name, count: wl.Size()})
		}
		for _, e := range capEntries(entries, topN, "Workloads") {
			id := f.id("overview:workload:" + e.label)
			lines = append(lines, "  "+shapedNode(id, fmt.Sprintf("%s (n=%d)", compactLabel(e.label, 40), e.count), shapeRect))
		}
		lines = append(lines, "end")
	}

	lines = append(lines, "end")
	return lines
}
