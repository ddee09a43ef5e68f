package diagram

import (
	"sort"

	"tenancy-graphx/internal/graph"
)

var vcnControlTypes = map[string]bool{
	"RouteTable":           true,
	"SecurityList":         true,
	"NetworkSecurityGroup": true,
	"DhcpOptions":          true,
}

// isVCNLevel reports whether a node renders inside the VCN boundary but
// outside any subnet: gateways and VCN-wide control resources.
func isVCNLevel(n *graph.Node) bool {
	return graph.IsGateway(n.NodeType) || vcnControlTypes[graph.BareType(n.NodeType)]
}

// attachments resolves every node to the VCN and subnet it lives in.
// Containment edges take precedence; metadata and primary-VNIC chains
// fill the gaps. References to unknown nodes are dropped.
type attachments struct {
	vcnOf    map[string]string
	subnetOf map[string]string
}

func buildAttachments(nodes []graph.Node, edges []graph.Edge, byID map[string]*graph.Node) attachments {
	att := attachments{
		vcnOf:    make(map[string]string),
		subnetOf: make(map[string]string),
	}

	sorted := make([]graph.Edge, len(edges))
	copy(sorted, edges)
	sortEdgesForRender(sorted)
	for _, e := range sorted {
		switch e.RelationType {
		case graph.RelationInVcn:
			if _, ok := att.vcnOf[e.SourceOCID]; !ok {
				att.vcnOf[e.SourceOCID] = e.TargetOCID
			}
		case graph.RelationInSubnet:
			if _, ok := att.subnetOf[e.SourceOCID]; !ok {
				att.subnetOf[e.SourceOCID] = e.TargetOCID
			}
		}
	}

	vnicByInstance := make(map[string][]*graph.Node)
	for i := range nodes {
		n := &nodes[i]
		if graph.BareType(n.NodeType) != "Vnic" {
			continue
		}
		if instance := metaString(n, "instance_id"); instance != "" {
			vnicByInstance[instance] = append(vnicByInstance[instance], n)
		}
	}
	for _, vnics := range vnicByInstance {
		sort.Slice(vnics, func(i, j int) bool { return vnics[i].NodeID < vnics[j].NodeID })
	}

	for i := range nodes {
		n := &nodes[i]
		if _, ok := att.vcnOf[n.NodeID]; !ok {
			if vcn := metaString(n, "vcn_id"); vcn != "" {
				att.vcnOf[n.NodeID] = vcn
			}
		}
		if _, ok := att.subnetOf[n.NodeID]; !ok {
			subnet := metaString(n, "subnet_id")
			if subnet == "" {
				if ids := metaStringList(n, "subnet_ids"); len(ids) > 0 {
					subnet = ids[0]
				}
			}
			if subnet != "" {
				att.subnetOf[n.NodeID] = subnet
			}
		}
		if _, ok := att.subnetOf[n.NodeID]; !ok && graph.BareType(n.NodeType) == "Instance" {
			if subnet := instanceSubnet(n, byID, vnicByInstance); subnet != "" {
				att.subnetOf[n.NodeID] = subnet
			}
		}
	}

	for id, vcn := range att.vcnOf {
		if _, ok := byID[vcn]; !ok {
			delete(att.vcnOf, id)
		}
	}
	for id, subnet := range att.subnetOf {
		if _, ok := byID[subnet]; !ok {
			delete(att.subnetOf, id)
		}
	}

	// A subnet placement implies the subnet's VCN.
	for id, subnet := range att.subnetOf {
		if _, ok := att.vcnOf[id]; ok {
			continue
		}
		if vcn, ok := att.vcnOf[subnet]; ok {
			att.vcnOf[id] = vcn
		}
	}
	return att
}

// instanceSubnet follows an instance's primary VNIC to its subnet.
func instanceSubnet(n *graph.Node, byID map[string]*graph.Node, vnicByInstance map[string][]*graph.Node) string {
	if vnicID := metaString(n, "primary_vnic_id"); vnicID != "" {
		if vnic, ok := byID[vnicID]; ok {
			if subnet := metaString(vnic, "subnet_id"); subnet != "" {
				return subnet
			}
		}
	}
	for _, vnic := range vnicByInstance[n.NodeID] {
		if subnet := metaString(vnic, "subnet_id"); subnet != "" {
			return subnet
		}
	}
	return ""
}

// regionLinks extracts undirected region pairs from remote peering
// connections, either from peer-region metadata or from the region of
// the peer connection itself.
func regionLinks(nodes []graph.Node, byID map[string]*graph.Node) [][2]string {
	seen := make(map[[2]string]bool)
	var pairs [][2]string
	for i := range nodes {
		n := &nodes[i]
		if graph.BareType(n.NodeType) != "RemotePeeringConnection" || n.Region == "" {
			continue
		}
		peer := metaString(n, "peer_region_name")
		if peer == "" {
			peer = metaString(n, "peer_region")
		}
		if peer == "" {
			if peerID := metaString(n, "peer_id"); peerID != "" {
				if peerNode, ok := byID[peerID]; ok {
					peer = peerNode.Region
				}
			}
		}
		if peer == "" || peer == n.Region {
			continue
		}
		pair := [2]string{n.Region, peer}
		if pair[0] > pair[1] {
			pair[0], pair[1] = pair[1], pair[0]
		}
		if !seen[pair] {
			seen[pair] = true
			pairs = append(pairs, pair)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs
}

// sortEdgesForRender orders edges the way every view consumes them.
func sortEdgesForRender(edges []graph.Edge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.RelationType != b.RelationType {
			return a.RelationType < b.RelationType
		}
		if a.SourceOCID != b.SourceOCID {
			return a.SourceOCID < b.SourceOCID
		}
		return a.TargetOCID < b.TargetOCID
	})
}
