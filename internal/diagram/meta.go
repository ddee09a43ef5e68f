package diagram

import (
	"fmt"
	"sort"
	"strings"

	"tenancy-graphx/internal/graph"
)

var storageShapeTypes = map[string]bool{
	"Bucket":      true,
	"Volume":      true,
	"BlockVolume": true,
	"BootVolume":  true,
	"FileSystem":  true,
}

// nodeClass picks the style class for a graph node.
func nodeClass(n *graph.Node) string {
	bare := graph.BareType(n.NodeType)
	switch {
	case n.NodeCategory == graph.CategoryCompute:
		return "compute"
	case storageShapeTypes[bare]:
		return "storage"
	case bare == "Policy":
		return "policy"
	case n.NodeCategory == graph.CategoryNetwork:
		return "network"
	default:
		return "boundary"
	}
}

func shapeForClass(class string) nodeShape {
	switch class {
	case "external", "compute":
		return shapeRound
	case "storage":
		return shapeDB
	case "policy":
		return shapeHex
	default:
		return shapeRect
	}
}

var nonprodWords = map[string]bool{
	"dev":      true,
	"test":     true,
	"qa":       true,
	"stage":    true,
	"staging":  true,
	"sandbox":  true,
	"nonprod":  true,
	"non-prod": true,
}

// envClass inspects env/stage tags for a production / non-production
// marker. Empty when the tags say nothing.
func envClass(n *graph.Node) string {
	var values []string
	if freeform, ok := n.Tags["freeformTags"].(map[string]any); ok {
		for _, key := range []string{"env", "environment", "stage", "lifecycle"} {
			if v, ok := freeform[key].(string); ok {
				values = append(values, v)
			}
		}
	}
	if defined, ok := n.Tags["definedTags"].(map[string]any); ok {
		for _, ns := range sortedAnyKeys(defined) {
			inner, ok := defined[ns].(map[string]any)
			if !ok {
				continue
			}
			for _, key := range []string{"env", "environment", "stage", "lifecycle"} {
				if v, ok := inner[key].(string); ok {
					values = append(values, v)
				}
			}
		}
	}
	for _, v := range values {
		lower := strings.ToLower(strings.TrimSpace(v))
		if nonprodWords[lower] {
			return "nonprod"
		}
		if strings.Contains(lower, "prod") && !strings.Contains(lower, "non") {
			return "prod"
		}
	}
	return ""
}

// nodeLabel builds the two-line display label. Compartment placeholders
// whose name is still an OCID are shortened instead of leaked.
func nodeLabel(n *graph.Node) string {
	name := n.Name
	if graph.BareType(n.NodeType) == "Compartment" && isOCID(name) {
		name = "Compartment " + shortOCID(name)
	}
	if name == "" || isOCID(name) {
		name = graph.FriendlyType(n.NodeType)
	}
	label := fmt.Sprintf("%s<br>%s", name, graph.FriendlyType(n.NodeType))
	if n.EnrichStatus == "ERROR" {
		label = "🔴 " + label
	}
	return label
}

// renderNode emits the node line plus its class assignments.
func renderNode(id string, n *graph.Node) []string {
	class := nodeClass(n)
	lines := []string{
		"  " + shapedNode(id, nodeLabel(n), shapeForClass(class)),
		fmt.Sprintf("  class %s %s", id, class),
	}
	if env := envClass(n); env != "" {
		lines = append(lines, fmt.Sprintf("  class %s %s", id, env))
	}
	if n.EnrichStatus == "ERROR" {
		lines = append(lines, fmt.Sprintf("  class %s alert", id))
	}
	return lines
}

// externalNode renders one of the synthetic boundary actors (Internet,
// Users, OCI Services, Customer Network).
func externalNode(id, label string) []string {
	return []string{
		"  " + shapedNode(id, label, shapeRound),
		fmt.Sprintf("  class %s external", id),
	}
}

// safeLabel guards display values against empty strings and raw OCIDs.
func safeLabel(value, prefix string) string {
	if value == "" || isOCID(value) {
		value = "Unknown"
	}
	if prefix == "" {
		return value
	}
	return prefix + ": " + value
}

func metaString(n *graph.Node, key string) string {
	if n.Metadata == nil {
		return ""
	}
	if v, ok := n.Metadata[key].(string); ok {
		return v
	}
	if v, ok := n.Metadata[snakeToCamelKey(key)].(string); ok {
		return v
	}
	return ""
}

func metaStringList(n *graph.Node, key string) []string {
	if n.Metadata == nil {
		return nil
	}
	raw, ok := n.Metadata[key]
	if !ok {
		raw, ok = n.Metadata[snakeToCamelKey(key)]
	}
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func snakeToCamelKey(key string) string {
	parts := strings.Split(key, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// vcnLabel renders "VCN: name (cidr)".
func vcnLabel(n *graph.Node) string {
	label := safeLabel(n.Name, "VCN")
	if cidr := metaString(n, "cidr_block"); cidr != "" {
		label += fmt.Sprintf(" (%s)", cidr)
	}
	return label
}

// subnetLabel renders "Subnet: name (private|public|subnet[, cidr])".
func subnetLabel(n *graph.Node) string {
	qualifier := subnetVisibility(n)
	if cidr := metaString(n, "cidr_block"); cidr != "" {
		qualifier += ", " + cidr
	}
	return fmt.Sprintf("%s (%s)", safeLabel(n.Name, "Subnet"), qualifier)
}

func publicOrPrivate(v any) string {
	if prohibit, ok := v.(bool); ok {
		if prohibit {
			return "private"
		}
		return "public"
	}
	return "subnet"
}

// compartmentAliases assigns stable Compartment-NN aliases over the
// sorted set of compartment IDs so labels never expose the IDs.
func compartmentAliases(ids []string) map[string]string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	aliases := make(map[string]string, len(sorted))
	for i, id := range sorted {
		aliases[id] = fmt.Sprintf("Compartment-%02d", i+1)
	}
	return aliases
}

// compartmentLabel renders "Compartment: name (alias)", falling back to
// the alias alone for placeholder compartments.
func compartmentLabel(n *graph.Node, aliases map[string]string) string {
	alias := aliases[n.NodeID]
	name := n.Name
	if name == "" || isOCID(name) {
		if alias == "" {
			return safeLabel(name, "Compartment")
		}
		return "Compartment: " + alias
	}
	if alias == "" {
		return "Compartment: " + name
	}
	return fmt.Sprintf("Compartment: %s (%s)", name, alias)
}

// tenancyLabel derives the tenancy display name from the root
// compartment record, the one without a parent.
func tenancyLabel(nodes []graph.Node) string {
	var roots []string
	for i := range nodes {
		n := &nodes[i]
		if graph.BareType(n.NodeType) == "Compartment" && n.CompartmentID == "" {
			roots = append(roots, n.Name)
		}
	}
	sort.Strings(roots)
	for _, name := range roots {
		if name == "" {
			continue
		}
		if isOCID(name) {
			return "Tenancy " + shortOCID(name)
		}
		return "Tenancy: " + name
	}
	return "Tenancy"
}

// Service lane order and display labels.
var laneOrder = []string{"iam", "security", "network", "app", "data", "observability", "other"}

var laneLabels = map[string]string{
	"iam":           "IAM",
	"security":      "Security",
	"network":       "Network",
	"app":           "App / Compute",
	"data":          "Data / Storage",
	"observability": "Observability",
	"other":         "Other",
}

var laneIAMPattern = []string{"policy", "dynamicgroup", "group", "user", "identity", "domain"}
var laneNetworkPattern = []string{"drg", "peering", "ipsec", "vpn", "virtualcircuit", "fastconnect", "gateway", "cpe"}
var laneSecurityPattern = []string{"securityzone", "cloudguard", "vault", "secret", "nsg", "securitylist"}
var laneDataPattern = []string{"bucket", "database", "dbsystem", "stream", "queue", "topic"}
var laneObservabilityPattern = []string{"alarm", "event", "notification", "log", "metric", "loganalytics"}

// laneOf places a node in its service lane. Compartments have no lane.
func laneOf(n *graph.Node) string {
	bare := graph.BareType(n.NodeType)
	if bare == "Compartment" {
		return ""
	}
	switch n.NodeCategory {
	case graph.CategoryNetwork:
		return "network"
	case graph.CategorySecurity:
		return "security"
	case graph.CategoryCompute:
		return "app"
	}
	if storageShapeTypes[bare] {
		return "data"
	}
	lowerBare := strings.ToLower(bare)
	lowerName := strings.ToLower(n.Name)
	for _, kw := range laneIAMPattern {
		if strings.Contains(lowerBare, kw) {
			return "iam"
		}
	}
	for _, kw := range laneNetworkPattern {
		if strings.Contains(lowerBare, kw) {
			return "network"
		}
	}
	for _, kw := range laneSecurityPattern {
		if strings.Contains(lowerBare, kw) {
			return "security"
		}
	}
	for _, kw := range laneDataPattern {
		if strings.Contains(lowerBare, kw) {
			return "data"
		}
	}
	if strings.Contains(lowerName, "media") || strings.Contains(lowerName, "cdn") || strings.Contains(lowerName, "stream") {
		return "data"
	}
	for _, kw := range laneObservabilityPattern {
		if strings.Contains(lowerBare, kw) {
			return "observability"
		}
	}
	return "other"
}

// laneMembers groups nodes into lanes, each lane sorted by (type, name).
func laneMembers(nodes []*graph.Node) map[string][]*graph.Node {
	lanes := make(map[string][]*graph.Node)
	for _, n := range nodes {
		lane := laneOf(n)
		if lane == "" {
			continue
		}
		lanes[lane] = append(lanes[lane], n)
	}
	for _, members := range lanes {
		sort.Slice(members, func(i, j int) bool {
			if members[i].NodeType != members[j].NodeType {
				return members[i].NodeType < members[j].NodeType
			}
			if members[i].Name != members[j].Name {
				return members[i].Name < members[j].Name
			}
			return members[i].NodeID < members[j].NodeID
		})
	}
	return lanes
}

// legendLines renders the style legend shared by the detail views.
func legendLines(f *idFactory) []string {
	lines := []string{subgraphLine(f.fixed("legend"), "Legend")}
	entries := []struct{ class, label string }{
		{"external", "External actor"},
		{"compute", "Compute / service"},
		{"network", "Network"},
		{"storage", "Storage / data"},
		{"policy", "Policy / IAM"},
		{"overlay", "Overlay reference"},
	}
	for _, e := range entries {
		id := f.fixed("legend_" + e.class)
		lines = append(lines, "  "+shapedNode(id, e.label, shapeForClass(e.class)))
		lines = append(lines, fmt.Sprintf("  class %s %s", id, e.class))
	}
	lines = append(lines, "end")
	return lines
}

func sortedAnyKeys(m map[string]any) []string {
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
