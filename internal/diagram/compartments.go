package diagram

import (
	"sort"

	"tenancy-graphx/internal/graph"
)

const maxCompartmentDepth = 100

// compartmentTree resolves parent/root/level-1 questions about the
// compartment hierarchy with cycle guards.
type compartmentTree struct {
	parentOf map[string]string
	byID     map[string]*graph.Node
}

func buildCompartmentTree(nodes []graph.Node, byID map[string]*graph.Node) *compartmentTree {
	tree := &compartmentTree{
		parentOf: make(map[string]string),
		byID:     byID,
	}
	for i := range nodes {
		n := &nodes[i]
		if graph.BareType(n.NodeType) != "Compartment" {
			continue
		}
		parent := n.CompartmentID
		if parent == "" {
			parent = metaString(n, "compartment_id")
		}
		if parent != "" && parent != n.NodeID {
			tree.parentOf[n.NodeID] = parent
		}
	}
	return tree
}

// rootOf walks to the topmost ancestor of a compartment.
func (t *compartmentTree) rootOf(compartmentID string) string {
	cur := compartmentID
	for depth := 0; depth < maxCompartmentDepth; depth++ {
		parent, ok := t.parentOf[cur]
		if !ok || parent == cur {
			return cur
		}
		cur = parent
	}
	return cur
}

// level1Of returns the ancestor directly below the root, or the root
// itself for resources that live at the top.
func (t *compartmentTree) level1Of(compartmentID string) string {
	cur := compartmentID
	for depth := 0; depth < maxCompartmentDepth; depth++ {
		parent, ok := t.parentOf[cur]
		if !ok || parent == cur {
			return cur
		}
		if _, grandparent := t.parentOf[parent]; !grandparent {
			return cur
		}
		cur = parent
	}
	return cur
}

// chainOf lists a compartment and all its ancestors, nearest first.
func (t *compartmentTree) chainOf(compartmentID string) []string {
	var chain []string
	seen := make(map[string]bool)
	cur := compartmentID
	for cur != "" && !seen[cur] && len(chain) < maxCompartmentDepth {
		seen[cur] = true
		chain = append(chain, cur)
		cur = t.parentOf[cur]
	}
	return chain
}

// compartmentIDs lists the compartment nodes present, sorted.
func (t *compartmentTree) compartmentIDs(nodes []graph.Node) []string {
	var ids []string
	for i := range nodes {
		if graph.BareType(nodes[i].NodeType) == "Compartment" {
			ids = append(ids, nodes[i].NodeID)
		}
	}
	sort.Strings(ids)
	return ids
}

// splitGroup is one partition produced by a split mode.
type splitGroup struct {
	key   string
	label string
	nodes []graph.Node
}

// groupByRegion partitions nodes by region with a Global bucket for
// region-less ones.
func groupByRegion(nodes []graph.Node) []splitGroup {
	return buildGroups(nodes, func(n *graph.Node) (string, string) {
		if n.Region == "" {
			return "Global", "Global"
		}
		return n.Region, n.Region
	})
}

// groupByRootCompartment partitions nodes by the root of their owning
// compartment.
func (t *compartmentTree) groupByRootCompartment(nodes []graph.Node) []splitGroup {
	return buildGroups(nodes, func(n *graph.Node) (string, string) {
		owner := owningCompartment(n)
		if owner == "" {
			return "UNSCOPED", "Unscoped"
		}
		root := t.rootOf(owner)
		return root, t.compartmentName(root)
	})
}

// groupByLevel1Compartment partitions nodes by their level-1
// compartment.
func (t *compartmentTree) groupByLevel1Compartment(nodes []graph.Node) []splitGroup {
	return buildGroups(nodes, func(n *graph.Node) (string, string) {
		owner := owningCompartment(n)
		if owner == "" {
			return "UNSCOPED", "Unscoped"
		}
		level1 := t.level1Of(owner)
		return level1, t.compartmentName(level1)
	})
}

// groupByVCN partitions nodes by attached VCN with a NO_VCN bucket.
func groupByVCN(nodes []graph.Node, att attachments, byID map[string]*graph.Node) []splitGroup {
	return buildGroups(nodes, func(n *graph.Node) (string, string) {
		vcnID := n.NodeID
		if graph.BareType(n.NodeType) != "Vcn" {
			vcnID = att.vcnOf[n.NodeID]
		}
		if vcnID == "" {
			return "NO_VCN", "No VCN"
		}
		if vcn, ok := byID[vcnID]; ok && vcn.Name != "" && !isOCID(vcn.Name) {
			return vcnID, vcn.Name
		}
		return vcnID, "VCN " + shortOCID(vcnID)
	})
}

func owningCompartment(n *graph.Node) string {
	if graph.BareType(n.NodeType) == "Compartment" {
		return n.NodeID
	}
	return n.CompartmentID
}

func (t *compartmentTree) compartmentName(id string) string {
	if n, ok := t.byID[id]; ok && n.Name != "" && !isOCID(n.Name) {
		return n.Name
	}
	return "Compartment " + shortOCID(id)
}

func buildGroups(nodes []graph.Node, keyFn func(*graph.Node) (string, string)) []splitGroup {
	index := make(map[string]*splitGroup)
	for i := range nodes {
		n := &nodes[i]
		key, label := keyFn(n)
		g, ok := index[key]
		if !ok {
			g = &splitGroup{key: key, label: label}
			index[key] = g
		}
		g.nodes = append(g.nodes, *n)
	}
	groups := make([]splitGroup, 0, len(index))
	for _, g := range index {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].label != groups[j].label {
			return groups[i].label < groups[j].label
		}
		return groups[i].key < groups[j].key
	})
	return groups
}

// closeOverCompartments widens a group with the compartment ancestor
// chains of its members so nested boxes always have their parents.
func closeOverCompartments(group []graph.Node, tree *compartmentTree, byID map[string]*graph.Node) []graph.Node {
	present := make(map[string]bool, len(group))
	for i := range group {
		present[group[i].NodeID] = true
	}
	closed := make([]graph.Node, len(group))
	copy(closed, group)
	var missing []string
	for i := range group {
		owner := owningCompartment(&group[i])
		for _, ancestor := range tree.chainOf(owner) {
			if present[ancestor] {
				continue
			}
			if _, ok := byID[ancestor]; !ok {
				continue
			}
			present[ancestor] = true
			missing = append(missing, ancestor)
		}
	}
	sort.Strings(missing)
	for _, id := range missing {
		closed = append(closed, *byID[id])
	}
	return closed
}
