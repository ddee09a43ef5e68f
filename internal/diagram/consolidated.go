package diagram

import (
	"fmt"

	"tenancy-graphx/internal/graph"
)

// Summary category buckets, in display order.
var summaryCategories = []string{"Compute", "Network", "Storage", "Policy / IAM", "Other"}

// summaryCategory folds a node into one of the coarse count buckets.
func summaryCategory(n *graph.Node) string {
	bare := graph.BareType(n.NodeType)
	switch {
	case n.NodeCategory == graph.CategoryCompute:
		return "Compute"
	case storageShapeTypes[bare]:
		return "Storage"
	case n.NodeCategory == graph.CategorySecurity || laneOf(n) == "iam":
		return "Policy / IAM"
	case n.NodeCategory == graph.CategoryNetwork:
		return "Network"
	default:
		return "Other"
	}
}

// summaryCountNodes renders the category count nodes for one scope.
func summaryCountNodes(f *idFactory, scope string, members []*graph.Node) []string {
	counts := make(map[string]int)
	for _, n := range members {
		if countExcludedTypes[graph.BareType(n.NodeType)] {
			continue
		}
		counts[summaryCategory(n)]++
	}
	var lines []string
	for _, category := range summaryCategories {
		if counts[category] == 0 {
			continue
		}
		id := f.id("summary:" + scope + ":" + category)
		lines = append(lines, "  "+shapedNode(id, fmt.Sprintf("%s (%d)", category, counts[category]), shapeRect))
	}
	return lines
}

// renderConsolidatedFlowchart renders the tenancy-wide summary. At
// depth 1 it degrades to the global connectivity map.
func (p *projection) renderConsolidatedFlowchart(nodes []graph.Node, depth int) []string {
	lines := diagramHeader("TD", "tenancy", "overview")
	if depth <= 1 {
		lines = append(lines, p.renderGlobalMap(nodes)...)
	} else {
		lines = append(lines, p.renderSummaryHierarchy(nodes)...)
	}
	lines = append(lines, p.workloadsTopComment())
	if depth <= 1 && p.depth > 1 {
		lines = insertLines(lines, 1, "%% NOTE: global map renders at depth 1 (tenancy + regions).")
	}
	return lines
}

// renderGlobalMap draws one round node per region plus the RPC links
// between them.
func (p *projection) renderGlobalMap(nodes []graph.Node) []string {
	f := newIDFactory()
	lines := []string{"%% Global Connectivity Map"}
	lines = append(lines, subgraphLine(f.id("consolidated:tenancy"), tenancyLabel(nodes)), "direction TB")
	regionIDs := make(map[string]string)
	for _, g := range groupByRegion(nodes) {
		id := f.id("consolidated:region:" + g.key)
		lines = append(lines, "  "+shapedNode(id, "Region: "+g.label, shapeRound))
		lines = append(lines, fmt.Sprintf("  class %s external", id))
		regionIDs[g.key] = id
	}
	lines = append(lines, "end")
	lines = append(lines, regionEdges(regionIDs, regionLinks(nodes, p.byID))...)
	return lines
}

func regionEdges(regionIDs map[string]string, links [][2]string) []string {
	var lines []string
	for _, link := range links {
		a, okA := regionIDs[link[0]]
		b, okB := regionIDs[link[1]]
		if okA && okB {
			lines = append(lines, edgeLine(a, b, "RPC", false))
		}
	}
	return lines
}

// renderSummaryHierarchy draws regions, compartments, VCNs, and subnets
// with category counts instead of individual resources.
func (p *projection) renderSummaryHierarchy(nodes []graph.Node) []string {
	f := newIDFactory()
	lines := []string{"%% Consolidated Summary Flowchart"}
	lines = append(lines, subgraphLine(f.id("consolidated:tenancy"), tenancyLabel(nodes)), "direction TB")

	regionIDs := make(map[string]string)
	for _, g := range groupByRegion(nodes) {
		lines = append(lines, "%% Region overlay: "+g.label)
		id := f.id("consolidated:region:" + g.key)
		lines = append(lines, "  "+shapedNode(id, "Region: "+g.label, shapeRound))
		lines = append(lines, fmt.Sprintf("  class %s external", id))
		regionIDs[g.key] = id
	}

	groups := p.tree.groupByLevel1Compartment(nodes)
	aliases := compartmentAliases(groupKeys(groups))
	all := nodePointers(nodes)
	for _, group := range groups {
		lines = append(lines, subgraphLine(f.id("consolidated:comp:"+group.key), p.compartmentGroupLabel(group, aliases)))
		members := nodesOfGroup(group)

		inVCN := make(map[string]bool)
		for _, vcn := range vcnsInGroup(members) {
			lines = append(lines, subgraphLine(f.id("consolidated:vcnbox:"+vcn.NodeID), compactLabel(vcnLabel(vcn), 48)))
			inVCN[vcn.NodeID] = true

			attached := p.groupedByVCN(all, vcn.NodeID, nil)
			var vcnLevel []*graph.Node
			bySubnet := make(map[string][]*graph.Node)
			var subnets []*graph.Node
			for _, n := range attached {
				inVCN[n.NodeID] = true
				switch {
				case graph.BareType(n.NodeType) == "Subnet":
					subnets = append(subnets, n)
				case p.att.subnetOf[n.NodeID] != "":
					sub := p.att.subnetOf[n.NodeID]
					bySubnet[sub] = append(bySubnet[sub], n)
				default:
					vcnLevel = append(vcnLevel, n)
				}
			}
			if len(vcnLevel) > 0 {
				lines = append(lines, subgraphLine(f.id("consolidated:vcnlevel:"+vcn.NodeID), "VCN-level Resources"))
				lines = append(lines, summaryCountNodes(f, "vcn:"+vcn.NodeID, vcnLevel)...)
				lines = append(lines, "end")
			}
			sortNodesForDetail(subnets)
			for _, subnet := range subnets {
				lines = append(lines, subgraphLine(f.id("consolidated:subnetbox:"+subnet.NodeID), compactLabel(subnetLabel(subnet), 48)))
				lines = append(lines, summaryCountNodes(f, "subnet:"+subnet.NodeID, bySubnet[subnet.NodeID])...)
				lines = append(lines, "end")
			}
			lines = append(lines, "end")
		}

		var loose []*graph.Node
		for _, n := range members {
			bare := graph.BareType(n.NodeType)
			if bare == "Compartment" || bare == "Vcn" || bare == "Subnet" || inVCN[n.NodeID] {
				continue
			}
			if _, attached := p.att.vcnOf[n.NodeID]; attached {
				continue
			}
			loose = append(loose, n)
		}
		if len(loose) > 0 {
			lines = append(lines, subgraphLine(f.id("consolidated:loose:"+group.key), "Out-of-VCN Services"))
			lines = append(lines, summaryCountNodes(f, "comp:"+group.key+":loose", loose)...)
			lines = append(lines, "end")
		}
		lines = append(lines, "end")
	}

	lines = append(lines, "end") // tenancy
	lines = append(lines, regionEdges(regionIDs, regionLinks(nodes, p.byID))...)
	return lines
}

// writeConsolidatedFlowchart renders the summary view under the ladder.
func (p *projection) writeConsolidatedFlowchart() error {
	return p.renderBounded(
		"diagram.consolidated.flowchart.mmd",
		"consolidated flowchart",
		p.nodes,
		p.depth, p.depth,
		defaultSplitModes(),
		p.renderConsolidatedFlowchart,
		p.consolidatedSplitStub("TD", "overview"),
		nil,
	)
}
