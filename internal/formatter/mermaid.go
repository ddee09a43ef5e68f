package formatter

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"tenancy-graphx/internal/graph"
	"tenancy-graphx/internal/grouping"
)

// ToMermaid converts the whole graph to a flat Mermaid flowchart. This
// is a debug artifact: no grouping, no filtering beyond what the edge
// slice already carries, and no size bounding. Containment edges stay
// in; the ones drawn from IAM shapes read better as a scope marker
// than as a containment claim.
func ToMermaid(g *graph.Graph) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes {
		sb.WriteString(fmt.Sprintf("%s[\"%s (%s)\"]\n", mermaidRef(node.NodeID), mermaidQuote(node.Name), mermaidQuote(node.NodeType)))
	}

	for _, edge := range g.Edges {
		label := edge.RelationType
		if edge.RelationType == graph.RelationInCompartment && grouping.IsIdentityShape(edge.SourceType) {
			label = "IAM scope"
		}
		sb.WriteString(fmt.Sprintf("  %s -->|%s| %s\n", mermaidRef(edge.SourceOCID), label, mermaidRef(edge.TargetOCID)))
	}

	return sb.String()
}

// mermaidRef derives a stable node identifier from an OCID.
func mermaidRef(ocid string) string {
	sum := sha1.Sum([]byte(ocid))
	return "n" + hex.EncodeToString(sum[:6])
}

func mermaidQuote(s string) string {
	return strings.ReplaceAll(s, `"`, "'")
}
