package formatter

import (
	"encoding/json"
	"fmt"
	"strings"

	"tenancy-graphx/internal/graph"
)

// ToNodeJSONL renders the nodes as JSON Lines, one object per node in
// the order given. Keys are sorted at every nesting level so repeated
// exports of the same graph are byte-identical.
func ToNodeJSONL(g *graph.Graph) (string, error) {
	var sb strings.Builder
	for i := range g.Nodes {
		line, err := canonicalJSON(&g.Nodes[i])
		if err != nil {
			return "", fmt.Errorf("node %s: %w", g.Nodes[i].NodeID, err)
		}
		sb.Write(line)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// ToEdgeJSONL renders the edges as JSON Lines, one object per edge in
// the order given.
func ToEdgeJSONL(g *graph.Graph) (string, error) {
	var sb strings.Builder
	for i := range g.Edges {
		line, err := canonicalJSON(&g.Edges[i])
		if err != nil {
			return "", fmt.Errorf("edge %s->%s: %w", g.Edges[i].SourceOCID, g.Edges[i].TargetOCID, err)
		}
		sb.Write(line)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// canonicalJSON round-trips the value through a map so encoding/json
// emits its keys sorted, nested objects included.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
