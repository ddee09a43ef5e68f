package diagram

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"tenancy-graphx/internal/graph"
)

// projection holds one run's graph view plus everything derived from it
// that the individual renderers share.
type projection struct {
	nodes   []graph.Node
	byID    map[string]*graph.Node
	edges   []graph.Edge
	att     attachments
	tree    *compartmentTree
	outDir  string
	depth   int
	summary *Summary
	log     *zap.SugaredLogger
	written []string
}

func newProjection(outDir string, nodes []graph.Node, edges []graph.Edge, depth int, log *zap.SugaredLogger) *projection {
	if depth < 1 {
		depth = 1
	}
	if depth > 3 {
		depth = 3
	}
	p := &projection{
		nodes:   nodes,
		byID:    make(map[string]*graph.Node, len(nodes)),
		outDir:  outDir,
		depth:   depth,
		summary: &Summary{},
		log:     log,
	}
	for i := range nodes {
		p.byID[nodes[i].NodeID] = &nodes[i]
	}
	p.edges = make([]graph.Edge, 0, len(edges))
	for _, e := range edges {
		_, srcKnown := p.byID[e.SourceOCID]
		_, dstKnown := p.byID[e.TargetOCID]
		if srcKnown && dstKnown {
			p.edges = append(p.edges, e)
		}
	}
	sortEdgesForRender(p.edges)
	p.att = buildAttachments(nodes, p.edges, p.byID)
	p.tree = buildCompartmentTree(nodes, p.byID)
	return p
}

// write persists one artifact and remembers it for the violations scan.
func (p *projection) write(name string, lines []string) error {
	path := filepath.Join(p.outDir, name)
	if err := os.WriteFile(path, []byte(renderText(lines)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	p.written = append(p.written, name)
	return nil
}

// diagramHeader assembles the common prologue: init line, direction,
// scope and view comments, style block.
func diagramHeader(direction, scope, view string) []string {
	lines := make([]string, 0, 16)
	lines = append(lines, elkInitLine, "flowchart "+direction)
	lines = append(lines, "%% Scope: "+scope, "%% View: "+view)
	lines = append(lines, styleBlock()...)
	return lines
}

func insertLines(lines []string, idx int, insert ...string) []string {
	if idx > len(lines) {
		idx = len(lines)
	}
	out := make([]string, 0, len(lines)+len(insert))
	out = append(out, lines[:idx]...)
	out = append(out, insert...)
	out = append(out, lines[idx:]...)
	return out
}

// relationshipEdges renders the graph edges between nodes that made it
// into the current diagram. Containment is already expressed by the
// subgraph nesting, so those edges stay out of the picture entirely.
func (p *projection) relationshipEdges(rendered map[string]string) []string {
	var lines []string
	seen := make(map[[2]string]bool)
	for _, e := range p.edges {
		if e.RelationType == graph.RelationInCompartment {
			continue
		}
		srcID, okSrc := rendered[e.SourceOCID]
		dstID, okDst := rendered[e.TargetOCID]
		if !okSrc || !okDst || srcID == dstID {
			continue
		}
		pair := [2]string{srcID, dstID}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		lines = append(lines, edgeLine(srcID, dstID, e.RelationType, false))
	}
	return lines
}

// hasNonAdminEdgeBetween reports whether any non-containment edge links
// two rendered nodes, used by workload views to decide on the entry
// fallback.
func (p *projection) hasNonAdminEdgeBetween(rendered map[string]string) bool {
	for _, e := range p.edges {
		if e.RelationType == graph.RelationInCompartment {
			continue
		}
		_, okSrc := rendered[e.SourceOCID]
		_, okDst := rendered[e.TargetOCID]
		if okSrc && okDst {
			return true
		}
	}
	return false
}
