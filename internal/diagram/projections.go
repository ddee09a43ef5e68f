package diagram

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"tenancy-graphx/internal/graph"
)

// DefaultDepth is the detail level rendered when the caller does not
// pick one.
const DefaultDepth = 3

// WriteProjections renders the whole diagram family into outDir:
// the tenancy overview, one topology per VCN, one view per detected
// workload, and the two consolidated views. Every artifact is then
// checked against the diagram guidelines. The returned summary lists
// skipped and split diagrams and any guideline violations.
func WriteProjections(outDir string, nodes []graph.Node, edges []graph.Edge, depth int, log *zap.SugaredLogger) (*Summary, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating diagram output dir: %w", err)
	}

	p := newProjection(outDir, nodes, edges, depth, log)
	if err := p.writeTenancy(); err != nil {
		return nil, err
	}
	if err := p.writeNetworks(); err != nil {
		return nil, err
	}
	if err := p.writeWorkloads(); err != nil {
		return nil, err
	}
	if err := p.writeConsolidatedArchitecture(); err != nil {
		return nil, err
	}
	if err := p.writeConsolidatedFlowchart(); err != nil {
		return nil, err
	}

	p.scanViolations()

	if n := len(p.summary.Skipped); n > 0 {
		log.Warnf("Skipped %d diagram(s) due to Mermaid size limits (see report for details).", n)
	}
	if n := len(p.summary.Split); n > 0 {
		log.Infof("Split %d diagram(s) due to Mermaid size limits.", n)
	}
	return p.summary, nil
}
