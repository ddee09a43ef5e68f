package diagram

import (
	"fmt"

	"tenancy-graphx/internal/graph"
	"tenancy-graphx/internal/grouping"
)

// Pure telemetry plumbing; it would dominate the concept lanes without
// describing any architecture.
var archExcludedTypes = map[string]bool{
	"LogAnalyticsEntity":   true,
	"Log":                  true,
	"LogGroup":             true,
	"LogAnalyticsLogGroup": true,
	"ServiceConnector":     true,
}

var laneClass = map[string]string{
	"iam":           "policy",
	"security":      "policy",
	"network":       "network",
	"app":           "compute",
	"data":          "storage",
	"observability": "boundary",
	"other":         "boundary",
}

// renderArchitectureView draws the tenancy at concept granularity: the
// biggest compartments and VCNs plus service lanes of clustered
// concepts.
func (p *projection) renderArchitectureView(nodes []graph.Node, _ int) []string {
	f := newIDFactory()
	lines := diagramHeader("LR", "tenancy", "architecture")
	lines = append(lines, "%% Architecture Overview")
	lines = append(lines, legendLines(f)...)

	lines = append(lines, subgraphLine(f.id("arch:tenancy"), tenancyLabel(nodes)))

	lines = append(lines, subgraphLine(f.fixed("arch_compartments"), "Top Compartments"))
	for _, e := range capEntries(p.compartmentCountsFor(nodes), topNArchGroups, "Compartments") {
		id := f.id("arch:compartment:" + e.label)
		lines = append(lines, "  "+shapedNode(id, fmt.Sprintf("%s (n=%d)", compactLabel(e.label, 40), e.count), shapeRect))
	}
	lines = append(lines, "end")

	vcnNodeIDs := make(map[string]string)
	lines = append(lines, subgraphLine(f.fixed("arch_vcns"), "Top VCNs"))
	vcnEntries := capEntries(p.vcnCountsFor(nodes), topNArchGroups, "VCNs")
	for i, e := range vcnEntries {
		id := f.id("arch:vcn:" + e.label)
		lines = append(lines, "  "+shapedNode(id, fmt.Sprintf("%s (n=%d)", compactLabel(e.label, 40), e.count), shapeRect))
		lines = append(lines, fmt.Sprintf("  class %s network", id))
		if i < topNArchGroups {
			vcnNodeIDs[e.label] = id
		}
	}
	lines = append(lines, "end")

	scopeIDs := make(map[string]bool, len(nodes))
	for i := range nodes {
		if archExcludedTypes[graph.BareType(nodes[i].NodeType)] {
			continue
		}
		scopeIDs[nodes[i].NodeID] = true
	}
	concepts := grouping.BuildConcepts(p.nodes, p.edges, scopeIDs)

	byLane := make(map[string][]grouping.ConceptNode)
	for _, c := range concepts {
		byLane[c.Lane] = append(byLane[c.Lane], c)
	}

	type placedConcept struct {
		id       string
		vcnNames []string
	}
	var placed []placedConcept

	lines = append(lines, subgraphLine(f.fixed("arch_lanes"), "Service Lanes"))
	for _, lane := range laneOrder {
		laneConcepts := byLane[lane]
		if len(laneConcepts) == 0 {
			continue
		}
		lines = append(lines, subgraphLine(f.id("arch:lane:"+lane), laneLabels[lane]))
		shown := laneConcepts
		rest := 0
		if len(shown) > topNArchLaneConcepts {
			for _, c := range shown[topNArchLaneConcepts:] {
				rest += c.Count
			}
			shown = shown[:topNArchLaneConcepts]
		}
		for _, c := range shown {
			id := f.id("arch:concept:" + c.ConceptID)
			label := fmt.Sprintf("%s (n=%d)", grouping.SanitizeConceptLabel(c.Label), c.Count)
			lines = append(lines, "  "+shapedNode(id, label, shapeRect))
			lines = append(lines, fmt.Sprintf("  class %s %s", id, laneClass[lane]))
			if c.Placement == grouping.PlacementInVCN && len(c.VCNNames) > 0 {
				placed = append(placed, placedConcept{id: id, vcnNames: c.VCNNames})
			}
		}
		if rest > 0 {
			id := f.id("arch:lane-rest:" + lane)
			lines = append(lines, "  "+shapedNode(id, fmt.Sprintf("Other (n=%d)", rest), shapeRect))
			lines = append(lines, fmt.Sprintf("  class %s %s", id, laneClass[lane]))
		}
		lines = append(lines, "end")
	}
	lines = append(lines, "end") // Service Lanes
	lines = append(lines, "end") // tenancy

	for _, pc := range placed {
		for _, vcnName := range pc.vcnNames {
			if vcnID, ok := vcnNodeIDs[vcnName]; ok {
				lines = append(lines, edgeLine(pc.id, vcnID, "in VCN", true))
			}
		}
	}
	return lines
}

// writeConsolidatedArchitecture renders the architecture view under the
// consolidated ladder.
func (p *projection) writeConsolidatedArchitecture() error {
	return p.renderBounded(
		"diagram.consolidated.architecture.mmd",
		"consolidated architecture",
		p.nodes,
		p.depth, p.depth,
		defaultSplitModes(),
		p.renderArchitectureView,
		p.consolidatedSplitStub("LR", "architecture"),
		nil,
	)
}
