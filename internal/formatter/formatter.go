package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tenancy-graphx/internal/graph"
)

// Accepted values for the format setting.
const (
	FormatJSONL      = "jsonl"
	FormatCypher     = "cypher"
	FormatDOT        = "dot"
	FormatMermaidRaw = "mermaid-raw"
)

// Artifact file names, fixed so downstream tooling can find them.
const (
	NodesFile      = "graph_nodes.jsonl"
	EdgesFile      = "graph_edges.jsonl"
	CypherFile     = "graph.cypher"
	DOTFile        = "graph.dot"
	RawMermaidFile = "diagram_raw.mmd"
)

// Formats lists the accepted format names in display order.
func Formats() []string {
	return []string{FormatJSONL, FormatCypher, FormatDOT, FormatMermaidRaw}
}

// Write renders the graph in the requested format and writes the
// resulting artifact files into outDir. An empty format means jsonl.
func Write(outDir, format string, g *graph.Graph) error {
	switch format {
	case FormatJSONL, "":
		return WriteJSONL(outDir, g)
	case FormatCypher:
		return writeFile(outDir, CypherFile, ToCypher(g))
	case FormatDOT:
		dot, err := ToDOT(g)
		if err != nil {
			return err
		}
		return writeFile(outDir, DOTFile, dot)
	case FormatMermaidRaw:
		return writeFile(outDir, RawMermaidFile, ToMermaid(g))
	default:
		return fmt.Errorf("unknown format %q (accepted: %s)", format, strings.Join(Formats(), ", "))
	}
}

// WriteJSONL writes the node and edge streams, one JSON object per line.
func WriteJSONL(outDir string, g *graph.Graph) error {
	nodes, err := ToNodeJSONL(g)
	if err != nil {
		return fmt.Errorf("encoding nodes: %w", err)
	}
	edges, err := ToEdgeJSONL(g)
	if err != nil {
		return fmt.Errorf("encoding edges: %w", err)
	}
	if err := writeFile(outDir, NodesFile, nodes); err != nil {
		return err
	}
	return writeFile(outDir, EdgesFile, edges)
}

func writeFile(outDir, name, content string) error {
	if err := os.WriteFile(filepath.Join(outDir, name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
