package formatter

import (
	"fmt"
	"sort"
	"strings"

	"tenancy-graphx/internal/graph"
)

// ToCypher converts the graph to idempotent Cypher MERGE statements
// wrapped in a cypher-shell transaction. Nodes are labelled by their
// category and matched on nodeId.
func ToCypher(g *graph.Graph) string {
	var sb strings.Builder
	sb.WriteString(":begin\n")

	for _, node := range g.Nodes {
		sb.WriteString(fmt.Sprintf("MERGE (n:%s {nodeId: '%s'})\n", cypherLabel(node.NodeCategory), escapeCypher(node.NodeID)))
		sb.WriteString(fmt.Sprintf("SET n.name = '%s', n.type = '%s', n.region = '%s';\n",
			escapeCypher(node.Name), escapeCypher(node.NodeType), escapeCypher(node.Region)))
	}

	sb.WriteString("\n")

	for _, edge := range g.Edges {
		sb.WriteString(fmt.Sprintf(
			"MATCH (from {nodeId: '%s'}), (to {nodeId: '%s'})\nMERGE (from)-[:%s]->(to);\n",
			escapeCypher(edge.SourceOCID),
			escapeCypher(edge.TargetOCID),
			edge.RelationType,
		))
	}

	sb.WriteString(":commit\n")
	return sb.String()
}

// Statement is one parameterized query of a graph upsert.
type Statement struct {
	Query  string
	Params map[string]any
}

// ToCypherStatements converts the graph into parameterized statements
// for driver execution inside a single transaction. The first statement
// upserts the nodes; each following statement merges the edges of one
// relation type, in sorted order, since Cypher cannot parameterize
// relationship types.
func ToCypherStatements(g *graph.Graph) []Statement {
	nodesData := make([]map[string]any, len(g.Nodes))
	for i, node := range g.Nodes {
		nodesData[i] = map[string]any{
			"nodeId":   node.NodeID,
			"name":     node.Name,
			"type":     node.NodeType,
			"category": node.NodeCategory,
			"region":   node.Region,
		}
	}

	statements := []Statement{{
		Query: "UNWIND $nodes AS node_data\n" +
			"MERGE (n:Resource {nodeId: node_data.nodeId})\n" +
			"SET n.name = node_data.name, n.type = node_data.type, n.category = node_data.category, n.region = node_data.region",
		Params: map[string]any{"nodes": nodesData},
	}}

	byRelation := make(map[string][]map[string]any)
	for _, edge := range g.Edges {
		byRelation[edge.RelationType] = append(byRelation[edge.RelationType], map[string]any{
			"from": edge.SourceOCID,
			"to":   edge.TargetOCID,
		})
	}
	relations := make([]string, 0, len(byRelation))
	for relation := range byRelation {
		relations = append(relations, relation)
	}
	sort.Strings(relations)

	for _, relation := range relations {
		statements = append(statements, Statement{
			Query: "UNWIND $edges AS edge_data\n" +
				"MATCH (from:Resource {nodeId: edge_data.from})\n" +
				"MATCH (to:Resource {nodeId: edge_data.to})\n" +
				fmt.Sprintf("MERGE (from)-[:%s]->(to)", relation),
			Params: map[string]any{"edges": byRelation[relation]},
		})
	}

	return statements
}

func cypherLabel(category string) string {
	switch category {
	case graph.CategoryCompute:
		return "Compute"
	case graph.CategoryNetwork:
		return "Network"
	case graph.CategorySecurity:
		return "Security"
	case graph.CategoryCompartment:
		return "Compartment"
	default:
		return "Other"
	}
}

func escapeCypher(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
