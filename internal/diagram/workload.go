package diagram

import (
	"fmt"
	"sort"
	"strings"

	"tenancy-graphx/internal/graph"
	"tenancy-graphx/internal/grouping"
)

const workloadBanner = "%% ------------------ Workload / Application View ------------------"

// writeWorkloads renders one application view per detected workload.
func (p *projection) writeWorkloads() error {
	workloads := p.workloadGroups()
	sort.Slice(workloads, func(i, j int) bool {
		return strings.ToLower(workloads[i].Name) < strings.ToLower(workloads[j].Name)
	})

	usedSlugs := make(map[string]bool)
	for _, wl := range workloads {
		slug := slugify(wl.Name, 48)
		for n := 2; usedSlugs[slug]; n++ {
			slug = fmt.Sprintf("%s_%d", slugify(wl.Name, 48), n)
		}
		usedSlugs[slug] = true
		base := fmt.Sprintf("diagram.workload.%s.mmd", slug)
		if err := p.writeWorkload(base, wl); err != nil {
			return err
		}
	}
	return nil
}

func (p *projection) writeWorkload(base string, wl grouping.Workload) error {
	members := make([]*graph.Node, 0, len(wl.MemberIDs))
	for _, id := range wl.MemberIDs {
		if n, ok := p.byID[id]; ok {
			members = append(members, n)
		}
	}
	sortNodesForDetail(members)

	lines := p.renderWorkloadView(wl.Name, members)
	size := renderSize(lines)
	if size <= MaxMermaidTextChars {
		return p.write(base, lines)
	}
	return p.chunkWorkload(base, wl.Name, members, size)
}

// chunkWorkload splits an oversized workload into node chunks sized
// from the overshoot ratio, halving a chunk until it fits. The scope
// closure is recomputed per chunk so every part stays navigable.
func (p *projection) chunkWorkload(base, name string, members []*graph.Node, size int) error {
	chunkSize := len(members) * MaxMermaidTextChars / size
	if chunkSize < 1 {
		chunkSize = 1
	}

	// Each part later gains a "%% Part: i/total" comment; reserve room
	// for it so the written file stays under the limit.
	const partCommentReserve = 24

	var rendered [][]string
	i := 0
	for i < len(members) {
		n := chunkSize
		for {
			if n > len(members)-i {
				n = len(members) - i
			}
			chunk := members[i : i+n]
			lines := p.renderWorkloadView(name, chunk)
			sz := renderSize(lines)
			if sz <= MaxMermaidTextChars-partCommentReserve {
				rendered = append(rendered, lines)
				i += n
				break
			}
			if n == 1 {
				detail := fmt.Sprintf("%s (node %s)", base, shortOCID(chunk[0].NodeID))
				p.summary.addSkipped(detail, "workload", sz, MaxMermaidTextChars, "single_node_exceeds_limit")
				i++
				break
			}
			n /= 2
		}
	}

	if len(rendered) == 0 {
		p.summary.addSkipped(base, "workload", size, MaxMermaidTextChars, "exceeds_mermaid_limit")
		return nil
	}

	total := len(rendered)
	width := len(fmt.Sprint(total))
	if width < 2 {
		width = 2
	}
	stem := trimMermaidExt(base)
	var parts []string
	for idx, lines := range rendered {
		partName := fmt.Sprintf("%s.part%0*d.mmd", stem, width, idx+1)
		parts = append(parts, partName)
		withPart := insertLines(lines, 4, fmt.Sprintf("%%%% Part: %d/%d", idx+1, total))
		if err := p.write(partName, withPart); err != nil {
			return err
		}
	}
	if err := p.write(base, p.workloadStub(name, parts, total)); err != nil {
		return err
	}
	p.summary.addSplit(base, parts, size, MaxMermaidTextChars, "split_mermaid_limit")
	return nil
}

func (p *projection) workloadStub(name string, parts []string, total int) []string {
	f := newIDFactory()
	lines := diagramHeader("LR", "workload:"+compactLabel(name, 64), "overview")
	lines = insertLines(lines, 4, "%% Part: stub")
	lines = append(lines, fmt.Sprintf("%%%% NOTE: Workload diagram split into %d parts due to Mermaid size limits.", total))
	lines = append(lines, "%% Split outputs:")
	for _, part := range parts {
		lines = append(lines, "%% - "+part)
	}
	id := f.id("workload:stub:" + name)
	lines = append(lines, "  "+shapedNode(id, fmt.Sprintf("Workload %s split; see notes", name), shapeRect))
	return lines
}

// workloadClosure widens the member set with the context needed to draw
// them in place: compartment chains, attached VCNs with all their
// subnets, gateways, and VCN-level resources.
func (p *projection) workloadClosure(members []*graph.Node) map[string]*graph.Node {
	scope := make(map[string]*graph.Node)
	add := func(id string) {
		if n, ok := p.byID[id]; ok {
			scope[id] = n
		}
	}
	addChain := func(compartmentID string) {
		for _, ancestor := range p.tree.chainOf(compartmentID) {
			add(ancestor)
		}
	}

	vcnIDs := make(map[string]bool)
	for _, n := range members {
		scope[n.NodeID] = n
		addChain(owningCompartment(n))
		if graph.BareType(n.NodeType) == "Vcn" {
			vcnIDs[n.NodeID] = true
		}
		if v := p.att.vcnOf[n.NodeID]; v != "" {
			vcnIDs[v] = true
		}
		if s := p.att.subnetOf[n.NodeID]; s != "" {
			add(s)
			if v := p.att.vcnOf[s]; v != "" {
				vcnIDs[v] = true
			}
		}
	}

	for id := range vcnIDs {
		add(id)
		if vcn, ok := p.byID[id]; ok {
			addChain(owningCompartment(vcn))
		}
	}
	for i := range p.nodes {
		n := &p.nodes[i]
		v := p.att.vcnOf[n.NodeID]
		if v == "" || !vcnIDs[v] {
			continue
		}
		if graph.BareType(n.NodeType) == "Subnet" || isVCNLevel(n) {
			scope[n.NodeID] = n
			addChain(owningCompartment(n))
		}
	}
	return scope
}

func (p *projection) renderWorkloadView(name string, members []*graph.Node) []string {
	f := newIDFactory()
	rendered := make(map[string]string)
	scope := p.workloadClosure(members)
	scopeList := scopeValues(scope)

	lines := diagramHeader("LR", "workload:"+compactLabel(name, 64), "full-detail")
	lines = append(lines, workloadBanner)

	hasInternetGW := false
	hasCustomerGW := false
	var scopedGateways []*graph.Node
	for _, n := range scopeList {
		if !graph.IsGateway(n.NodeType) {
			continue
		}
		scopedGateways = append(scopedGateways, n)
		switch bare := graph.BareType(n.NodeType); {
		case bare == "InternetGateway" || bare == "NatGateway":
			hasInternetGW = true
		case customerFacingTypes[bare]:
			hasCustomerGW = true
		}
	}
	sortNodesForDetail(scopedGateways)

	usersID := f.id("external:users")
	lines = append(lines, externalNode(usersID, "Users")...)
	servicesID := f.id("external:oci-services")
	lines = append(lines, externalNode(servicesID, "OCI Services")...)
	internetID := ""
	if hasInternetGW {
		internetID = f.id("external:internet")
		lines = append(lines, externalNode(internetID, "Internet")...)
	}
	customerID := ""
	if hasCustomerGW {
		customerID = f.id("external:customer-network")
		lines = append(lines, externalNode(customerID, "Customer Network")...)
	}

	aliases := compartmentAliases(p.tree.compartmentIDs(p.nodes))
	lines = append(lines, subgraphLine(f.id("wl:tenancy"), tenancyLabel(p.nodes)))

	var overlayEdges []string
	for _, comp := range scopedCompartments(scope) {
		compRendered := make(map[string]string)
		renderScoped := func(n *graph.Node) []string {
			id := f.id("wl:" + n.NodeID)
			rendered[n.NodeID] = id
			compRendered[n.NodeID] = id
			return renderNode(id, n)
		}

		compLabel := "Compartment: Unknown"
		if comp.node != nil {
			compLabel = compartmentLabel(comp.node, aliases)
		}
		lines = append(lines, subgraphLine(f.id("wl:comp:"+comp.id), compLabel))
		if comp.node != nil {
			compID := f.id("wl:" + comp.id)
			lines = append(lines, renderNode(compID, comp.node)...)
			rendered[comp.id] = compID
		}

		vcns := vcnsInGroup(comp.members)
		if len(vcns) > 0 {
			lines = append(lines, subgraphLine(f.id("wl:invcn:"+comp.id), "In-VCN"))
			for _, vcn := range vcns {
				lines = append(lines, subgraphLine(f.id("wl:vcnbox:"+vcn.NodeID), vcnLabel(vcn)))
				lines = append(lines, renderScoped(vcn)...)
				lines = append(lines, p.renderWorkloadVCN(f, scopeList, vcn.NodeID, renderScoped)...)
				lines = append(lines, "end")
			}
			lines = append(lines, "end")
		}

		loose := looseOfCompartment(comp.members, p.att)
		if len(loose) > 0 {
			lines = append(lines, subgraphLine(f.id("wl:outofvcn:"+comp.id), "Out-of-VCN Services"))
			lanes := laneMembers(loose)
			for _, lane := range laneOrder {
				laneNodes := lanes[lane]
				if len(laneNodes) == 0 {
					continue
				}
				lines = append(lines, subgraphLine(f.id("wl:outlane:"+comp.id+":"+lane), laneLabels[lane]))
				for _, n := range laneNodes {
					lines = append(lines, renderScoped(n)...)
				}
				lines = append(lines, "end")
			}
			lines = append(lines, "end")
		}

		body, edges := p.functionalOverlays(f, compRendered, laneOrder, func(n *graph.Node) string {
			return "overlay:" + name + ":" + comp.id + ":" + n.NodeID
		}, "")
		lines = append(lines, body...)
		overlayEdges = append(overlayEdges, edges...)
		lines = append(lines, "end")
	}
	lines = append(lines, "end") // tenancy

	lines = append(lines, overlayEdges...)
	lines = append(lines, workloadFlowEdges(rendered, members, usersID, servicesID, p.hasNonAdminEdgeBetween(rendered))...)
	lines = append(lines, p.relationshipEdges(rendered)...)
	lines = append(lines, gatewayExternalEdges(rendered, scopedGateways, internetID, servicesID, customerID)...)
	lines = append(lines, legendLines(f)...)
	return lines
}

// renderWorkloadVCN lays out one VCN's scoped content: gateways, VCN
// controls, subnets with their residents, and a Subnet: Unknown box.
// Content comes from the whole scope so residents owned by another
// compartment still land inside their VCN.
func (p *projection) renderWorkloadVCN(f *idFactory, scopeList []*graph.Node, vcnID string, renderScoped func(*graph.Node) []string) []string {
	var gateways, controls, subnets, orphans []*graph.Node
	bySubnet := make(map[string][]*graph.Node)
	for _, n := range scopeList {
		if n.NodeID == vcnID || p.att.vcnOf[n.NodeID] != vcnID {
			continue
		}
		switch {
		case graph.BareType(n.NodeType) == "Subnet":
			subnets = append(subnets, n)
		case graph.IsGateway(n.NodeType):
			gateways = append(gateways, n)
		case isVCNLevel(n):
			controls = append(controls, n)
		default:
			if sub := p.att.subnetOf[n.NodeID]; sub != "" {
				bySubnet[sub] = append(bySubnet[sub], n)
			} else {
				orphans = append(orphans, n)
			}
		}
	}
	sortNodesForDetail(gateways)
	sort.Slice(subnets, func(i, j int) bool {
		if subnets[i].Name != subnets[j].Name {
			return subnets[i].Name < subnets[j].Name
		}
		return subnets[i].NodeID < subnets[j].NodeID
	})

	var lines []string
	for _, g := range gateways {
		lines = append(lines, renderScoped(g)...)
	}
	if len(controls) > 0 {
		sortNodesForDetail(controls)
		lines = append(lines, subgraphLine(f.id("wl:vcnlevel:"+vcnID), "VCN-level Resources"))
		for _, n := range controls {
			lines = append(lines, renderScoped(n)...)
		}
		lines = append(lines, "end")
	}
	for _, subnet := range subnets {
		lines = append(lines, subgraphLine(f.id("wl:subnetbox:"+subnet.NodeID), subnetLabel(subnet)))
		lines = append(lines, renderScoped(subnet)...)
		residents := bySubnet[subnet.NodeID]
		sortNodesForDetail(residents)
		for _, n := range residents {
			lines = append(lines, renderScoped(n)...)
		}
		lines = append(lines, "end")
	}
	if len(orphans) > 0 {
		sortNodesForDetail(orphans)
		lines = append(lines, subgraphLine(f.id("wl:subnet-unknown:"+vcnID), "Subnet: Unknown"))
		for _, n := range orphans {
			lines = append(lines, renderScoped(n)...)
		}
		lines = append(lines, "end")
	}
	return lines
}

type scopedCompartment struct {
	id      string
	node    *graph.Node
	members []*graph.Node
}

// scopedCompartments buckets the closure by owning compartment, sorted
// by display label.
func scopedCompartments(scope map[string]*graph.Node) []scopedCompartment {
	byComp := make(map[string]*scopedCompartment)
	for _, n := range scope {
		if graph.BareType(n.NodeType) == "Compartment" {
			c := ensureCompartment(byComp, n.NodeID)
			c.node = n
			continue
		}
		c := ensureCompartment(byComp, n.CompartmentID)
		c.members = append(c.members, n)
	}

	out := make([]scopedCompartment, 0, len(byComp))
	for _, c := range byComp {
		sort.Slice(c.members, func(i, j int) bool { return c.members[i].NodeID < c.members[j].NodeID })
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := compLabelKey(out[i]), compLabelKey(out[j])
		if li != lj {
			return li < lj
		}
		return out[i].id < out[j].id
	})
	return out
}

func ensureCompartment(byComp map[string]*scopedCompartment, id string) *scopedCompartment {
	if c, ok := byComp[id]; ok {
		return c
	}
	c := &scopedCompartment{id: id}
	byComp[id] = c
	return c
}

func compLabelKey(c scopedCompartment) string {
	if c.node != nil && c.node.Name != "" && !isOCID(c.node.Name) {
		return strings.ToLower(c.node.Name)
	}
	return "zz:" + c.id
}

func scopeValues(scope map[string]*graph.Node) []*graph.Node {
	out := make([]*graph.Node, 0, len(scope))
	for _, id := range sortedScopeKeys(scope) {
		out = append(out, scope[id])
	}
	return out
}

func sortedScopeKeys(scope map[string]*graph.Node) []string {
	keys := make([]string, 0, len(scope))
	for k := range scope {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func looseOfCompartment(members []*graph.Node, att attachments) []*graph.Node {
	var loose []*graph.Node
	for _, n := range members {
		bare := graph.BareType(n.NodeType)
		if bare == "Vcn" || bare == "Subnet" {
			continue
		}
		if _, attached := att.vcnOf[n.NodeID]; attached {
			continue
		}
		loose = append(loose, n)
	}
	sortNodesForDetail(loose)
	return loose
}

// workloadFlowEdges draws the inferred request path through the
// workload: users hit the load balancers, which forward to compute,
// which reads and writes the buckets backed by the object storage
// service. With nothing to anchor the path, a single entry edge keeps
// the diagram connected.
func workloadFlowEdges(rendered map[string]string, members []*graph.Node, usersID, servicesID string, hasRealEdges bool) []string {
	var lbs, computes, buckets []string
	for _, n := range members {
		id, ok := rendered[n.NodeID]
		if !ok {
			continue
		}
		bare := graph.BareType(n.NodeType)
		switch {
		case bare == "LoadBalancer" || bare == "NetworkLoadBalancer":
			lbs = append(lbs, id)
		case n.NodeCategory == graph.CategoryCompute:
			computes = append(computes, id)
		case bare == "Bucket":
			buckets = append(buckets, id)
		}
	}

	var lines []string
	for _, lb := range lbs {
		lines = append(lines, edgeLine(usersID, lb, "requests inferred", true))
	}
	for _, lb := range lbs {
		for _, c := range computes {
			lines = append(lines, edgeLine(lb, c, "forwards inferred", true))
		}
	}
	for _, c := range computes {
		for _, b := range buckets {
			lines = append(lines, edgeLine(c, b, "reads/writes inferred", true))
		}
	}
	for _, b := range buckets {
		lines = append(lines, edgeLine(b, servicesID, "Object Storage inferred", true))
	}

	if len(lines) == 0 && !hasRealEdges {
		for _, n := range members {
			if id, ok := rendered[n.NodeID]; ok {
				lines = append(lines, edgeLine(usersID, id, "entry inferred", true))
				break
			}
		}
	}
	return lines
}
