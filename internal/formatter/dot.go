package formatter

import (
	"fmt"

	"github.com/awalterschulze/gographviz"

	"tenancy-graphx/internal/graph"
)

// ToDOT converts the graph to Graphviz DOT, one node per resource and
// one labelled edge per relationship. The escaping wrapper quotes OCIDs
// and display names as needed.
func ToDOT(g *graph.Graph) (string, error) {
	dot := gographviz.NewEscape()
	if err := dot.SetName("tenancy"); err != nil {
		return "", err
	}
	if err := dot.SetDir(true); err != nil {
		return "", err
	}
	if err := dot.AddAttr("tenancy", "rankdir", "LR"); err != nil {
		return "", err
	}

	for _, node := range g.Nodes {
		attrs := map[string]string{
			"label": fmt.Sprintf("%s (%s)", node.Name, node.NodeType),
		}
		if err := dot.AddNode("tenancy", node.NodeID, attrs); err != nil {
			return "", fmt.Errorf("dot node %s: %w", node.NodeID, err)
		}
	}

	for _, edge := range g.Edges {
		attrs := map[string]string{"label": edge.RelationType}
		if err := dot.AddEdge(edge.SourceOCID, edge.TargetOCID, true, attrs); err != nil {
			return "", fmt.Errorf("dot edge %s -> %s: %w", edge.SourceOCID, edge.TargetOCID, err)
		}
	}

	return dot.String(), nil
}
