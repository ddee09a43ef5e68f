package diagram

import (
	"fmt"
	"sort"

	"tenancy-graphx/internal/graph"
)

// Types excluded from aggregate counts: pure plumbing that would drown
// the overview in noise.
var countExcludedTypes = map[string]bool{
	"Compartment": true,
	"Vcn":         true,
	"Subnet":      true,
	"Vnic":        true,
	"PrivateIp":   true,
}

var observabilityBucketTypes = map[string]bool{
	"Log":                  true,
	"LogGroup":             true,
	"LogAnalyticsEntity":   true,
	"LogAnalyticsLogGroup": true,
	"ServiceConnector":     true,
	"Alarm":                true,
	"NotificationTopic":    true,
	"Event":                true,
}

// aggregateBucket names the overview bucket a resource counts into.
func aggregateBucket(n *graph.Node) string {
	bare := graph.BareType(n.NodeType)
	switch {
	case bare == "Instance":
		return "Instances"
	case bare == "BlockVolume" || bare == "BootVolume" || bare == "Volume":
		return "Block Storage"
	case observabilityBucketTypes[bare]:
		return "Observability Suite"
	case bare == "AutonomousDatabase":
		return "Autonomous DBs"
	case bare == "ExadataVmCluster" || bare == "CloudExadataVmCluster":
		return "Exadata VM Clusters"
	default:
		return graph.FriendlyType(n.NodeType)
	}
}

func bucketCounts(members []*graph.Node) []countEntry {
	counts := make(map[string]int)
	for _, n := range members {
		if countExcludedTypes[graph.BareType(n.NodeType)] {
			continue
		}
		counts[aggregateBucket(n)]++
	}
	entries := make([]countEntry, 0, len(counts))
	for label, count := range counts {
		entries = append(entries, countEntry{label: label, count: count})
	}
	sortCountEntries(entries)
	return entries
}

// renderTenancyView draws the whole-tenancy overview at the given
// depth: compartments at depth 1, VCN and subnet boxes at depth 2,
// gateway and aggregate detail at depth 3.
func (p *projection) renderTenancyView(nodes []graph.Node, depth int) []string {
	f := newIDFactory()
	lines := diagramHeader("LR", "tenancy", "overview")

	tenancyID := f.id("tenancy:root")
	lines = append(lines, subgraphLine(tenancyID, tenancyLabel(nodes)), "direction LR")

	lines = append(lines, "%% Region overlay (labels only)")
	regions := regionsOf(nodes)
	for _, region := range regions {
		id := f.id("tenancy:region:" + region)
		lines = append(lines, "  "+shapedNode(id, "Region: "+region, shapeRect))
	}

	groups := p.tree.groupByLevel1Compartment(nodes)
	aliases := compartmentAliases(groupKeys(groups))

	lines = append(lines, subgraphLine(f.id("tenancy:compartments"), "Compartments"), "direction TB")

	// VCN residents come from the whole view, not the owning
	// compartment group: subnets regularly host resources that live in
	// another compartment.
	all := nodePointers(nodes)

	var vcnEdges []vcnGatewayPair

	for _, group := range groups {
		compLabel := p.compartmentGroupLabel(group, aliases)
		compID := f.id("tenancy:compartment:" + group.key)
		lines = append(lines, subgraphLine(compID, compLabel))

		members := nodesOfGroup(group)
		if depth == 1 {
			total := 0
			for _, n := range members {
				if !countExcludedTypes[graph.BareType(n.NodeType)] {
					total++
				}
			}
			countID := f.id("tenancy:count:" + group.key)
			lines = append(lines, "  "+shapedNode(countID, fmt.Sprintf("Resources (n=%d)", total), shapeRect))
			lines = append(lines, "end")
			continue
		}

		vcns := vcnsInGroup(members)
		inVCN := make(map[string]bool)
		for _, vcn := range vcns {
			vcnID := f.id("tenancy:vcn:" + vcn.NodeID)
			lines = append(lines, subgraphLine(f.id("tenancy:vcnbox:"+vcn.NodeID), vcnLabel(vcn)))
			lines = append(lines, "  "+shapedNode(vcnID, nodeLabel(vcn), shapeRect))
			lines = append(lines, fmt.Sprintf("  class %s network", vcnID))
			inVCN[vcn.NodeID] = true

			attached := p.groupedByVCN(all, vcn.NodeID, inVCN)
			if depth >= 3 {
				lines = append(lines, p.renderNetworkEdgeCounts(f, vcn.NodeID, attached)...)
			}
			lines = append(lines, p.renderSubnetBoxes(f, vcn.NodeID, attached, depth)...)
			lines = append(lines, "end")

			vcnEdges = append(vcnEdges, vcnGatewayPair{vcnID: vcnID, gateways: gatewayKinds(attached)})
			for _, n := range attached {
				inVCN[n.NodeID] = true
			}
		}

		if depth >= 3 {
			lines = append(lines, p.renderOutOfVCN(f, group.key, members, inVCN)...)
			lines = append(lines, p.renderOverlaySummary(f, group.key, members)...)
		}
		lines = append(lines, "end")
	}
	lines = append(lines, "end") // Compartments
	lines = append(lines, "end") // tenancy

	if depth >= 2 {
		lines = append(lines, p.renderTenancyExternals(f, vcnEdges)...)
	}
	return lines
}

type vcnGatewayPair struct {
	vcnID    string
	gateways map[string]bool
}

// renderTenancyExternals draws the external actors and one labelled
// edge per VCN gateway kind.
func (p *projection) renderTenancyExternals(f *idFactory, vcns []vcnGatewayPair) []string {
	hasIGW, hasSGW, hasDRG := false, false, false
	for _, v := range vcns {
		hasIGW = hasIGW || v.gateways["InternetGateway"] || v.gateways["NatGateway"]
		hasSGW = hasSGW || v.gateways["ServiceGateway"]
		hasDRG = hasDRG || v.gateways["Drg"] || v.gateways["DrgAttachment"]
	}
	if !hasIGW && !hasSGW && !hasDRG {
		return nil
	}

	var lines []string
	lines = append(lines, subgraphLine(f.id("tenancy:external"), "External"))
	var internetID, servicesID, customerID string
	if hasIGW {
		internetID = f.id("external:internet")
		lines = append(lines, externalNode(internetID, "Internet")...)
	}
	if hasSGW {
		servicesID = f.id("external:oci-services")
		lines = append(lines, externalNode(servicesID, "OCI Services")...)
	}
	if hasDRG {
		customerID = f.id("external:customer-network")
		lines = append(lines, externalNode(customerID, "Customer Network")...)
	}
	lines = append(lines, "end")

	for _, v := range vcns {
		if internetID != "" && (v.gateways["InternetGateway"] || v.gateways["NatGateway"]) {
			lines = append(lines, edgeLine(v.vcnID, internetID, "IGW", false))
		}
		if servicesID != "" && v.gateways["ServiceGateway"] {
			lines = append(lines, edgeLine(v.vcnID, servicesID, "SGW", false))
		}
		if customerID != "" && (v.gateways["Drg"] || v.gateways["DrgAttachment"]) {
			lines = append(lines, edgeLine(v.vcnID, customerID, "DRG", false))
		}
	}
	return lines
}

// renderNetworkEdgeCounts summarizes the gateway population of a VCN.
func (p *projection) renderNetworkEdgeCounts(f *idFactory, vcnID string, attached []*graph.Node) []string {
	counts := map[string]int{}
	for _, n := range attached {
		bare := graph.BareType(n.NodeType)
		switch bare {
		case "InternetGateway", "ServiceGateway", "Drg":
			counts[bare]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	var lines []string
	lines = append(lines, subgraphLine(f.id("tenancy:edge:"+vcnID), "Network Edge"))
	for _, bare := range []string{"InternetGateway", "ServiceGateway", "Drg"} {
		if counts[bare] == 0 {
			continue
		}
		id := f.id("tenancy:edge:" + vcnID + ":" + bare)
		label := fmt.Sprintf("%s (n=%d)", graph.FriendlyType(bare), counts[bare])
		lines = append(lines, "  "+shapedNode(id, label, shapeRect))
	}
	lines = append(lines, "end")
	return lines
}

// renderSubnetBoxes draws one box per subnet of the VCN; at depth 3 the
// boxes hold aggregate buckets of the subnet's resources.
func (p *projection) renderSubnetBoxes(f *idFactory, vcnID string, attached []*graph.Node, depth int) []string {
	var subnets []*graph.Node
	for _, n := range attached {
		if graph.BareType(n.NodeType) == "Subnet" {
			subnets = append(subnets, n)
		}
	}
	sort.Slice(subnets, func(i, j int) bool {
		if subnets[i].Name != subnets[j].Name {
			return subnets[i].Name < subnets[j].Name
		}
		return subnets[i].NodeID < subnets[j].NodeID
	})

	var lines []string
	for _, subnet := range subnets {
		lines = append(lines, subgraphLine(f.id("tenancy:subnet:"+subnet.NodeID), subnetLabel(subnet)))
		if depth >= 3 {
			var members []*graph.Node
			for _, n := range attached {
				if p.att.subnetOf[n.NodeID] == subnet.NodeID {
					members = append(members, n)
				}
			}
			for _, e := range bucketCounts(members) {
				id := f.id("tenancy:bucket:" + subnet.NodeID + ":" + e.label)
				lines = append(lines, "  "+shapedNode(id, fmt.Sprintf("%s (n=%d)", e.label, e.count), shapeRect))
			}
		}
		lines = append(lines, "end")
	}
	return lines
}

// renderOutOfVCN buckets the group members that are attached to no VCN.
func (p *projection) renderOutOfVCN(f *idFactory, groupKey string, members []*graph.Node, inVCN map[string]bool) []string {
	var loose []*graph.Node
	for _, n := range members {
		bare := graph.BareType(n.NodeType)
		if bare == "Compartment" || bare == "Vcn" || bare == "Subnet" {
			continue
		}
		if inVCN[n.NodeID] {
			continue
		}
		if _, attached := p.att.vcnOf[n.NodeID]; attached {
			continue
		}
		loose = append(loose, n)
	}
	entries := bucketCounts(loose)
	if len(entries) == 0 {
		return nil
	}
	var lines []string
	lines = append(lines, subgraphLine(f.id("tenancy:outofvcn:"+groupKey), "Out-of-VCN"))
	for _, e := range entries {
		id := f.id("tenancy:outofvcn:" + groupKey + ":" + e.label)
		lines = append(lines, "  "+shapedNode(id, fmt.Sprintf("%s (n=%d)", e.label, e.count), shapeRect))
	}
	lines = append(lines, "end")
	return lines
}

// renderOverlaySummary shows how much IAM and security machinery a
// compartment carries without drawing each piece.
func (p *projection) renderOverlaySummary(f *idFactory, groupKey string, members []*graph.Node) []string {
	iam, security := 0, 0
	for _, n := range members {
		switch laneOf(n) {
		case "iam":
			iam++
		case "security":
			security++
		}
	}
	if iam == 0 && security == 0 {
		return nil
	}
	var lines []string
	lines = append(lines, subgraphLine(f.id("tenancy:overlays:"+groupKey), "Functional Overlays"))
	if iam > 0 {
		id := f.id("tenancy:overlays:" + groupKey + ":iam")
		lines = append(lines, "  "+shapedNode(id, fmt.Sprintf("IAM (n=%d)", iam), shapeRect))
	}
	if security > 0 {
		id := f.id("tenancy:overlays:" + groupKey + ":security")
		lines = append(lines, "  "+shapedNode(id, fmt.Sprintf("Security (n=%d)", security), shapeRect))
	}
	lines = append(lines, "end")
	return lines
}

// compartmentGroupLabel renders the label of a level-1 compartment box.
func (p *projection) compartmentGroupLabel(group splitGroup, aliases map[string]string) string {
	if n, ok := p.byID[group.key]; ok {
		return compartmentLabel(n, aliases)
	}
	return safeLabel(group.label, "Compartment")
}

// groupedByVCN selects the members attached to one VCN.
func (p *projection) groupedByVCN(members []*graph.Node, vcnID string, exclude map[string]bool) []*graph.Node {
	var out []*graph.Node
	for _, n := range members {
		if n.NodeID == vcnID || exclude[n.NodeID] {
			continue
		}
		if p.att.vcnOf[n.NodeID] == vcnID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

func vcnsInGroup(members []*graph.Node) []*graph.Node {
	var vcns []*graph.Node
	for _, n := range members {
		if graph.BareType(n.NodeType) == "Vcn" {
			vcns = append(vcns, n)
		}
	}
	sort.Slice(vcns, func(i, j int) bool {
		if vcns[i].Name != vcns[j].Name {
			return vcns[i].Name < vcns[j].Name
		}
		return vcns[i].NodeID < vcns[j].NodeID
	})
	return vcns
}

func gatewayKinds(attached []*graph.Node) map[string]bool {
	kinds := make(map[string]bool)
	for _, n := range attached {
		if graph.IsGateway(n.NodeType) {
			kinds[graph.BareType(n.NodeType)] = true
		}
	}
	return kinds
}

func nodesOfGroup(group splitGroup) []*graph.Node {
	out := make([]*graph.Node, 0, len(group.nodes))
	for i := range group.nodes {
		out = append(out, &group.nodes[i])
	}
	return out
}

func regionsOf(nodes []graph.Node) []string {
	seen := make(map[string]bool)
	var regions []string
	for i := range nodes {
		r := nodes[i].Region
		if r == "" {
			continue
		}
		if !seen[r] {
			seen[r] = true
			regions = append(regions, r)
		}
	}
	sort.Strings(regions)
	return regions
}

func groupKeys(groups []splitGroup) []string {
	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		keys = append(keys, g.key)
	}
	return keys
}

// writeTenancy renders the tenancy overview under the ladder.
func (p *projection) writeTenancy() error {
	return p.renderBounded(
		"diagram.tenancy.mmd",
		"tenancy",
		p.nodes,
		p.depth, p.depth,
		defaultSplitModes(),
		p.renderTenancyView,
		p.tenancySplitStub,
		nil,
	)
}
