package grouping

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"tenancy-graphx/internal/graph"
)

// Service lanes used by the architecture projection.
const (
	LaneIAM           = "iam"
	LaneSecurity      = "security"
	LaneNetwork       = "network"
	LaneApp           = "app"
	LaneData          = "data"
	LaneObservability = "observability"
	LaneOther         = "other"
)

// ConceptNode is one architectural concept: a cluster of same-purpose
// resources within a compartment, positioned by lane and placement.
type ConceptNode struct {
	ConceptID     string
	Label         string
	Lane          string
	CompartmentID string
	VCNNames      []string
	SourceTypes   []string
	Placement     string
	SecurityScope string
	Count         int
}

// Node placements relative to the VCN boundary.
const (
	PlacementEdge     = "edge"
	PlacementInVCN    = "in_vcn"
	PlacementOutOfVCN = "out_of_vcn"
	PlacementUnknown  = "unknown"
)

var identityTypes = map[string]bool{
	"Policy":           true,
	"Group":            true,
	"User":             true,
	"DynamicGroup":     true,
	"IdentityProvider": true,
}

var identityKeywords = []string{"policy", "dynamicgroup", "group", "user", "identity", "domain"}

// IsIdentityShape reports whether a node type belongs to the IAM plane,
// either as a known identity shape or by naming convention.
func IsIdentityShape(nodeType string) bool {
	bare := graph.BareType(nodeType)
	if identityTypes[bare] {
		return true
	}
	lower := strings.ToLower(bare)
	for _, kw := range identityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Transient or derivative shapes that would only add noise to an
// architecture view.
var conceptNoisePattern = regexp.MustCompile(`(?i)(job|run|execution|workrequest|backup|snapshot|bootvolume)`)

var observabilityPattern = regexp.MustCompile(`(?i)(log|alarm|metric|event|notification|monitor|apm|serviceconnector|topic)`)
var databasePattern = regexp.MustCompile(`(?i)(database|dbsystem|autonomous|mysql|exadata|nosql)`)
var storagePattern = regexp.MustCompile(`(?i)(bucket|volume|filesystem|storage|mounttarget)`)

var redactedLabelPattern = regexp.MustCompile(`\(n=[^)]*\)|\d{4}-\d{2}-\d{2}[T ]?[0-9:.+Zz-]*|\d{8,14}`)

// BuildConcepts clusters the in-scope nodes, plus the gateways of any
// VCN that appears in scope, into concept nodes. The result is
// deterministic for a fixed graph regardless of slice order.
func BuildConcepts(nodes []graph.Node, edges []graph.Edge, scopeIDs map[string]bool) []ConceptNode {
	byID := make(map[string]*graph.Node, len(nodes))
	vcnNames := make(map[string]string)
	for i := range nodes {
		n := &nodes[i]
		byID[n.NodeID] = n
		if graph.BareType(n.NodeType) == "Vcn" {
			vcnNames[n.NodeID] = n.Name
		}
	}

	nodeVCN := make(map[string]string)
	for _, e := range edges {
		if e.RelationType != graph.RelationInVcn {
			continue
		}
		if _, ok := nodeVCN[e.SourceOCID]; !ok {
			nodeVCN[e.SourceOCID] = e.TargetOCID
		}
	}

	scopeVCNs := make(map[string]bool)
	for id := range scopeIDs {
		n, ok := byID[id]
		if !ok {
			continue
		}
		if graph.BareType(n.NodeType) == "Vcn" {
			scopeVCNs[id] = true
		}
		if vcn, ok := nodeVCN[id]; ok {
			scopeVCNs[vcn] = true
		}
	}

	selected := make(map[string]bool, len(scopeIDs))
	for id := range scopeIDs {
		selected[id] = true
	}
	for _, n := range nodes {
		if graph.IsGateway(n.NodeType) && scopeVCNs[nodeVCN[n.NodeID]] {
			selected[n.NodeID] = true
		}
	}

	type bucketKey struct {
		compartment   string
		lane          string
		label         string
		placement     string
		securityScope string
	}
	buckets := make(map[bucketKey]*ConceptNode)

	ids := make([]string, 0, len(selected))
	for id := range selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		n, ok := byID[id]
		if !ok {
			continue
		}
		bare := graph.BareType(n.NodeType)
		switch bare {
		case "Compartment", "Vcn", "Subnet":
			continue
		}
		if conceptNoisePattern.MatchString(bare) {
			continue
		}

		lane, label := classifyConcept(n)
		vcnID := resolveVCN(n, nodeVCN)
		placement := placementOf(n, lane, vcnID)
		scope := securityScopeOf(n, lane, vcnID)

		key := bucketKey{n.CompartmentID, lane, label, placement, scope}
		c, ok := buckets[key]
		if !ok {
			c = &ConceptNode{
				Label:         label,
				Lane:          lane,
				CompartmentID: n.CompartmentID,
				Placement:     placement,
				SecurityScope: scope,
			}
			c.ConceptID = conceptID(n.CompartmentID, lane, placement, scope, label)
			buckets[key] = c
		}
		c.Count++
		c.SourceTypes = appendUnique(c.SourceTypes, bare)
		if name := vcnNames[vcnID]; name != "" {
			c.VCNNames = appendUnique(c.VCNNames, name)
		}
	}

	out := make([]ConceptNode, 0, len(buckets))
	for _, c := range buckets {
		sort.Strings(c.SourceTypes)
		sort.Strings(c.VCNNames)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lane != out[j].Lane {
			return out[i].Lane < out[j].Lane
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].ConceptID < out[j].ConceptID
	})
	return out
}

func classifyConcept(n *graph.Node) (lane, label string) {
	bare := graph.BareType(n.NodeType)
	lowerBare := strings.ToLower(bare)
	lowerName := strings.ToLower(n.Name)

	switch {
	case graph.IsGateway(n.NodeType):
		return LaneNetwork, graph.FriendlyType(n.NodeType)
	case strings.Contains(lowerBare, "loadbalancer"):
		return LaneNetwork, "Load Balancer"
	case strings.Contains(lowerBare, "apigateway") || bare == "Deployment" && strings.Contains(lowerName, "api"):
		return LaneNetwork, "API Gateway"
	case bare == "Cluster" || strings.Contains(lowerBare, "oke") || strings.Contains(lowerBare, "containerengine"):
		return LaneApp, "OKE Cluster"
	case bare == "NodePool" || strings.Contains(lowerName, "worker"):
		return LaneApp, "Worker Nodes"
	case identityTypes[bare]:
		if bare == "Policy" {
			return LaneIAM, "IAM Policies"
		}
		return LaneIAM, "IAM Identities"
	case observabilityPattern.MatchString(bare):
		return LaneObservability, "Observability Suite"
	case databasePattern.MatchString(bare):
		return LaneData, "Database"
	case bare == "Bucket":
		return LaneData, "Object Storage"
	case bare == "BlockVolume" || bare == "Volume" || bare == "VolumeGroup":
		return LaneData, "Block Storage"
	case strings.Contains(lowerBare, "function"):
		return LaneApp, "Functions"
	case bare == "Instance":
		return LaneApp, "Compute Instances"
	}

	switch n.NodeCategory {
	case graph.CategoryCompute:
		return LaneApp, "App Services"
	case graph.CategorySecurity:
		return LaneSecurity, "Security Controls"
	case graph.CategoryNetwork:
		return LaneNetwork, "Network Services"
	}
	if storagePattern.MatchString(bare) {
		return LaneData, "Data Services"
	}
	return LaneOther, graph.FriendlyType(n.NodeType)
}

func resolveVCN(n *graph.Node, nodeVCN map[string]string) string {
	if vcn, ok := nodeVCN[n.NodeID]; ok {
		return vcn
	}
	if vcn, ok := n.Metadata["vcn_id"].(string); ok {
		return vcn
	}
	if vcn, ok := n.Metadata["vcnId"].(string); ok {
		return vcn
	}
	return ""
}

func placementOf(n *graph.Node, lane, vcnID string) string {
	switch {
	case graph.IsGateway(n.NodeType):
		return PlacementEdge
	case vcnID != "":
		return PlacementInVCN
	case lane == LaneObservability || lane == LaneIAM || n.NodeCategory == graph.CategorySecurity:
		return PlacementOutOfVCN
	case storagePattern.MatchString(graph.BareType(n.NodeType)):
		return PlacementOutOfVCN
	default:
		return PlacementUnknown
	}
}

func securityScopeOf(n *graph.Node, lane, vcnID string) string {
	bare := graph.BareType(n.NodeType)
	if lane != LaneSecurity && lane != LaneIAM && n.NodeCategory != graph.CategorySecurity {
		return ""
	}
	switch {
	case bare == "NetworkSecurityGroup" || bare == "SecurityList":
		return "vcn"
	case strings.Contains(bare, "SecurityZone"):
		return "compartment"
	case identityTypes[bare]:
		return "tenancy"
	case vcnID != "":
		return "vcn"
	default:
		return "compartment"
	}
}

var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]+`)

func conceptID(compartment, lane, placement, scope, label string) string {
	raw := strings.ToLower(fmt.Sprintf("%s:%s:%s:%s:%s", compartment, lane, placement, scope, label))
	id := nonAlnumPattern.ReplaceAllString(raw, "-")
	id = strings.Trim(id, "-")
	if len(id) > 96 {
		id = id[:96]
	}
	return id
}

// SanitizeConceptLabel strips identifying noise from a display label.
// Anything that still carries an OCID is replaced wholesale.
func SanitizeConceptLabel(label string) string {
	if strings.Contains(label, "ocid1") {
		return "Redacted"
	}
	cleaned := redactedLabelPattern.ReplaceAllString(label, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return "Unknown"
	}
	return cleaned
}

func appendUnique(list []string, v string) []string {
	for _, item := range list {
		if item == v {
			return list
		}
	}
	return append(list, v)
}
