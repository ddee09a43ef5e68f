package diagram

import (
	"fmt"
	"sort"
	"strings"

	"tenancy-graphx/internal/graph"
)

const networkBanner = "%% ------------------ Network Topology ------------------"

// Gateway kinds that imply connectivity to an on-premises network.
var customerFacingTypes = map[string]bool{
	"Drg":             true,
	"DrgAttachment":   true,
	"VirtualCircuit":  true,
	"IPSecConnection": true,
	"Cpe":             true,
}

func nodePointers(nodes []graph.Node) []*graph.Node {
	out := make([]*graph.Node, 0, len(nodes))
	for i := range nodes {
		out = append(out, &nodes[i])
	}
	return out
}

func sortNodesForDetail(nodes []*graph.Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].NodeCategory != nodes[j].NodeCategory {
			return nodes[i].NodeCategory < nodes[j].NodeCategory
		}
		if nodes[i].NodeType != nodes[j].NodeType {
			return nodes[i].NodeType < nodes[j].NodeType
		}
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].NodeID < nodes[j].NodeID
	})
}

func displayVCNName(vcn *graph.Node) string {
	if vcn.Name != "" && !isOCID(vcn.Name) {
		return vcn.Name
	}
	return "vcn-" + shortOCID(vcn.NodeID)
}

func subnetVisibility(n *graph.Node) string {
	if n.Metadata == nil {
		return "subnet"
	}
	if v, ok := n.Metadata["prohibit_public_ip_on_vnic"]; ok {
		return publicOrPrivate(v)
	}
	if v, ok := n.Metadata["prohibitPublicIpOnVnic"]; ok {
		return publicOrPrivate(v)
	}
	return "subnet"
}

// attachedToVCN lists every node attached to the VCN, the VCN itself
// excluded.
func (p *projection) attachedToVCN(vcnID string) []*graph.Node {
	var out []*graph.Node
	for i := range p.nodes {
		n := &p.nodes[i]
		if n.NodeID == vcnID {
			continue
		}
		if p.att.vcnOf[n.NodeID] == vcnID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// writeNetworks renders one full-detail topology per VCN. A VCN whose
// diagram exceeds the text budget is skipped rather than split; the
// tenancy and consolidated views still cover it in aggregate.
func (p *projection) writeNetworks() error {
	vcns := vcnsInGroup(nodePointers(p.nodes))
	usedSlugs := make(map[string]bool)
	for _, vcn := range vcns {
		slug := slugify(displayVCNName(vcn), 48)
		for n := 2; usedSlugs[slug]; n++ {
			slug = fmt.Sprintf("%s_%d", slugify(displayVCNName(vcn), 48), n)
		}
		usedSlugs[slug] = true
		name := fmt.Sprintf("diagram.network.%s.mmd", slug)

		lines := p.renderNetworkView(vcn)
		if size := renderSize(lines); size > MaxMermaidTextChars {
			p.summary.addSkipped(name, "network", size, MaxMermaidTextChars, "exceeds_mermaid_limit")
			continue
		}
		if err := p.write(name, lines); err != nil {
			return err
		}
	}
	return nil
}

func (p *projection) renderNetworkView(vcn *graph.Node) []string {
	f := newIDFactory()
	rendered := make(map[string]string)

	scopeName := displayVCNName(vcn)
	lines := diagramHeader("LR", "vcn:"+compactLabel(scopeName, 64), "full-detail")
	lines = append(lines, networkBanner)

	attached := p.attachedToVCN(vcn.NodeID)
	var gateways, controls, subnets, orphans []*graph.Node
	subnetMembers := make(map[string][]*graph.Node)
	for _, n := range attached {
		switch {
		case graph.BareType(n.NodeType) == "Subnet":
			subnets = append(subnets, n)
		case graph.IsGateway(n.NodeType):
			gateways = append(gateways, n)
		case isVCNLevel(n):
			controls = append(controls, n)
		default:
			if sub := p.att.subnetOf[n.NodeID]; sub != "" {
				subnetMembers[sub] = append(subnetMembers[sub], n)
			} else {
				orphans = append(orphans, n)
			}
		}
	}
	sort.Slice(gateways, func(i, j int) bool {
		if gateways[i].NodeType != gateways[j].NodeType {
			return gateways[i].NodeType < gateways[j].NodeType
		}
		if gateways[i].Name != gateways[j].Name {
			return gateways[i].Name < gateways[j].Name
		}
		return gateways[i].NodeID < gateways[j].NodeID
	})
	sort.Slice(subnets, func(i, j int) bool {
		if subnets[i].Name != subnets[j].Name {
			return subnets[i].Name < subnets[j].Name
		}
		return subnets[i].NodeID < subnets[j].NodeID
	})

	hasServices := false
	hasCustomer := false
	for _, g := range gateways {
		bare := graph.BareType(g.NodeType)
		if bare == "ServiceGateway" {
			hasServices = true
		}
		if customerFacingTypes[bare] {
			hasCustomer = true
		}
	}

	internetID := f.id("external:internet")
	lines = append(lines, externalNode(internetID, "Internet")...)
	servicesID := ""
	if hasServices {
		servicesID = f.id("external:oci-services")
		lines = append(lines, externalNode(servicesID, "OCI Services")...)
	}
	customerID := ""
	if hasCustomer {
		customerID = f.id("external:customer-network")
		lines = append(lines, externalNode(customerID, "Customer Network")...)
	}

	aliases := compartmentAliases(p.tree.compartmentIDs(p.nodes))
	owner := owningCompartment(vcn)

	lines = append(lines, subgraphLine(f.id("net:tenancy"), tenancyLabel(p.nodes)))

	compLabel := "Compartment: Unknown"
	if compNode, ok := p.byID[owner]; ok {
		compLabel = compartmentLabel(compNode, aliases)
	}
	lines = append(lines, subgraphLine(f.id("net:comp:"+owner), compLabel))
	if compNode, ok := p.byID[owner]; ok {
		compID := f.id("net:" + owner)
		lines = append(lines, renderNode(compID, compNode)...)
		rendered[owner] = compID
	}

	lines = append(lines, subgraphLine(f.id("net:invcn:"+vcn.NodeID), "In-VCN"))
	lines = append(lines, subgraphLine(f.id("net:vcnbox:"+vcn.NodeID), vcnLabel(vcn)))
	vcnID := f.id("net:" + vcn.NodeID)
	lines = append(lines, renderNode(vcnID, vcn)...)
	rendered[vcn.NodeID] = vcnID

	if len(gateways) > 0 {
		lines = append(lines, subgraphLine(f.id("net:gateways:"+vcn.NodeID), "Gateways"))
		for _, g := range gateways {
			id := f.id("net:" + g.NodeID)
			lines = append(lines, renderNode(id, g)...)
			rendered[g.NodeID] = id
		}
		lines = append(lines, "end")
	}

	if len(controls) > 0 {
		sortNodesForDetail(controls)
		lines = append(lines, subgraphLine(f.id("net:vcnlevel:"+vcn.NodeID), "VCN-level Resources"))
		for _, n := range controls {
			id := f.id("net:" + n.NodeID)
			lines = append(lines, renderNode(id, n)...)
			rendered[n.NodeID] = id
		}
		lines = append(lines, "end")
	}

	for _, subnet := range subnets {
		lines = append(lines, subgraphLine(f.id("net:subnetbox:"+subnet.NodeID), subnetLabel(subnet)))
		subID := f.id("net:" + subnet.NodeID)
		lines = append(lines, renderNode(subID, subnet)...)
		rendered[subnet.NodeID] = subID
		members := subnetMembers[subnet.NodeID]
		sortNodesForDetail(members)
		for _, n := range members {
			id := f.id("net:" + n.NodeID)
			lines = append(lines, renderNode(id, n)...)
			rendered[n.NodeID] = id
		}
		lines = append(lines, "end")
	}

	if len(orphans) > 0 {
		sortNodesForDetail(orphans)
		lines = append(lines, subgraphLine(f.id("net:subnet-unknown:"+vcn.NodeID), "Subnet: Unknown"))
		for _, n := range orphans {
			id := f.id("net:" + n.NodeID)
			lines = append(lines, renderNode(id, n)...)
			rendered[n.NodeID] = id
		}
		lines = append(lines, "end")
	}

	lines = append(lines, "end") // VCN box
	lines = append(lines, "end") // In-VCN

	loose := p.compartmentLoose(owner)
	if len(loose) > 0 {
		lines = append(lines, subgraphLine(f.id("net:outofvcn:"+vcn.NodeID), "Out-of-VCN"))
		for _, n := range loose {
			id := f.id("net:" + n.NodeID)
			lines = append(lines, renderNode(id, n)...)
			rendered[n.NodeID] = id
		}
		lines = append(lines, "end")
	}

	overlayPrefix := "overlay:network:" + vcn.NodeID + ":comp:"
	overlayBody, overlayEdges := p.functionalOverlays(f, rendered, []string{"iam", "security"}, func(n *graph.Node) string {
		return overlayPrefix + owningCompartment(n) + ":" + n.NodeID
	}, "")

	lines = append(lines, overlayBody...)
	lines = append(lines, "end") // compartment
	lines = append(lines, "end") // tenancy

	lines = append(lines, legendLines(f)...)
	lines = append(lines, overlayEdges...)
	lines = append(lines, p.relationshipEdges(rendered)...)
	lines = append(lines, gatewayExternalEdges(rendered, gateways, internetID, servicesID, customerID)...)
	lines = append(lines, subnetRouteEdges(rendered, subnets, gateways)...)
	return lines
}

// compartmentLoose lists the compartment's resources attached to no VCN.
func (p *projection) compartmentLoose(compartmentID string) []*graph.Node {
	var loose []*graph.Node
	for i := range p.nodes {
		n := &p.nodes[i]
		bare := graph.BareType(n.NodeType)
		if bare == "Compartment" || bare == "Vcn" || bare == "Subnet" {
			continue
		}
		if n.CompartmentID != compartmentID {
			continue
		}
		if _, attached := p.att.vcnOf[n.NodeID]; attached {
			continue
		}
		loose = append(loose, n)
	}
	sortNodesForDetail(loose)
	return loose
}

// functionalOverlays duplicates the rendered nodes of the requested
// lanes into lane subgraphs, each overlay dotted back to its canonical
// rendering. Returns the subgraph body and the edges separately so the
// edges can land after all subgraphs closed.
func (p *projection) functionalOverlays(f *idFactory, rendered map[string]string, lanes []string, overlayKey func(*graph.Node) string, edgeLabel string) ([]string, []string) {
	byLane := make(map[string][]*graph.Node)
	for _, ocid := range sortedRenderedKeys(rendered) {
		n, ok := p.byID[ocid]
		if !ok {
			continue
		}
		lane := laneOf(n)
		for _, want := range lanes {
			if lane == want {
				byLane[lane] = append(byLane[lane], n)
			}
		}
	}

	var body, edges []string
	for _, lane := range lanes {
		members := byLane[lane]
		if len(members) == 0 {
			continue
		}
		sortNodesForDetail(members)
		if len(body) == 0 {
			body = append(body, subgraphLine(f.id("overlaybox:"+lanesKey(lanes)), "Functional Overlays"))
		}
		body = append(body, subgraphLine(f.id("overlaylane:"+lane), laneLabels[lane]))
		for _, n := range members {
			id := f.id(overlayKey(n))
			body = append(body, "  "+shapedNode(id, nodeLabel(n), shapeRect))
			body = append(body, fmt.Sprintf("  class %s overlay", id))
			edges = append(edges, edgeLine(id, rendered[n.NodeID], edgeLabel, true))
		}
		body = append(body, "end")
	}
	if len(body) > 0 {
		body = append(body, "end")
	}
	return body, edges
}

func lanesKey(lanes []string) string {
	return strings.Join(lanes, ":")
}

func sortedRenderedKeys(rendered map[string]string) []string {
	keys := make([]string, 0, len(rendered))
	for k := range rendered {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// gatewayExternalEdges draws the inferred traffic edges between the
// VCN's gateways and the external actors.
func gatewayExternalEdges(rendered map[string]string, gateways []*graph.Node, internetID, servicesID, customerID string) []string {
	var lines []string
	for _, g := range gateways {
		id, ok := rendered[g.NodeID]
		if !ok {
			continue
		}
		switch bare := graph.BareType(g.NodeType); {
		case bare == "InternetGateway" && internetID != "":
			lines = append(lines, edgeLine(internetID, id, "ingress/egress inferred", true))
		case bare == "NatGateway" && internetID != "":
			lines = append(lines, edgeLine(id, internetID, "egress inferred", true))
		case bare == "ServiceGateway" && servicesID != "":
			lines = append(lines, edgeLine(id, servicesID, "OCI services inferred", true))
		case customerFacingTypes[bare] && customerID != "":
			lines = append(lines, edgeLine(id, customerID, "customer network inferred", true))
		}
	}
	return lines
}

// subnetRouteEdges infers subnet-level routing from the public/private
// flag: public subnets route via the internet gateway, private subnets
// egress via NAT and reach services via the service gateway.
func subnetRouteEdges(rendered map[string]string, subnets, gateways []*graph.Node) []string {
	var igw, nat, sgw string
	for _, g := range gateways {
		id, ok := rendered[g.NodeID]
		if !ok {
			continue
		}
		switch graph.BareType(g.NodeType) {
		case "InternetGateway":
			if igw == "" {
				igw = id
			}
		case "NatGateway":
			if nat == "" {
				nat = id
			}
		case "ServiceGateway":
			if sgw == "" {
				sgw = id
			}
		}
	}

	var lines []string
	for _, subnet := range subnets {
		subID, ok := rendered[subnet.NodeID]
		if !ok {
			continue
		}
		switch subnetVisibility(subnet) {
		case "public":
			if igw != "" {
				lines = append(lines, edgeLine(igw, subID, "routes inferred", true))
			}
		case "private":
			if nat != "" {
				lines = append(lines, edgeLine(subID, nat, "egress inferred", true))
			}
			if sgw != "" {
				lines = append(lines, edgeLine(subID, sgw, "OCI services inferred", true))
			}
		}
	}
	return lines
}
