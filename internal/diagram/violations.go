package diagram

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// scanViolations re-reads every written artifact and checks it against
// the diagram guidelines. Findings land in the summary instead of
// failing the run; a diagram with a violation is still useful.
func (p *projection) scanViolations() {
	for _, name := range p.written {
		data, err := os.ReadFile(filepath.Join(p.outDir, name))
		if err != nil {
			p.summary.addViolation(name, "diagram_read_failed", err.Error())
			continue
		}
		text := string(data)

		if n := strings.Count(text, "ocid1."); n > 0 {
			p.summary.addViolation(name, "no_ocids_in_labels", fmt.Sprintf("Detected %d ocid1.* occurrences in diagram text.", n))
		}

		switch {
		case strings.HasSuffix(name, ".index.mmd"):
			// Split indexes are navigation aids without scope machinery.
		case strings.HasPrefix(name, "diagram.consolidated.flowchart"):
			p.checkConsolidatedFlowchart(name, text)
		case strings.HasPrefix(name, "diagram.tenancy"):
			p.checkTenancy(name, text)
		case strings.HasPrefix(name, "diagram.network."):
			p.checkNetwork(name, text)
		case strings.HasPrefix(name, "diagram.workload."):
			p.checkWorkload(name, text)
		}
	}
}

func (p *projection) checkTenancy(name, text string) {
	if !strings.Contains(text, "%% Scope: tenancy") {
		p.summary.addViolation(name, "scope_comment", "missing '%% Scope: tenancy' comment")
	}
	if !strings.Contains(text, "%% View: overview") {
		p.summary.addViolation(name, "view_comment", "missing '%% View: overview' comment")
	}
	if !strings.Contains(text, "flowchart LR") {
		p.summary.addViolation(name, "tenancy_direction", "tenancy view must render as flowchart LR")
	}
}

func (p *projection) checkNetwork(name, text string) {
	if !strings.Contains(text, "%% Scope: vcn:") {
		p.summary.addViolation(name, "scope_comment", "missing '%% Scope: vcn:<name>' comment")
	}
	if !strings.Contains(text, "%% View: full-detail") {
		p.summary.addViolation(name, "view_comment", "missing '%% View: full-detail' comment")
	}
}

func (p *projection) checkWorkload(name, text string) {
	if !strings.Contains(text, "%% Scope: workload:") {
		p.summary.addViolation(name, "scope_comment", "missing '%% Scope: workload:<name>' comment")
	}
	if !strings.Contains(text, "%% View: full-detail") && !strings.Contains(text, "%% View: overview") {
		p.summary.addViolation(name, "view_comment", "missing view comment (full-detail or overview)")
	}
	if strings.Contains(name, ".part") && !strings.Contains(text, "Part:") {
		p.summary.addViolation(name, "part_comment", "part file is missing its 'Part:' comment")
	}
}

func (p *projection) checkConsolidatedFlowchart(name, text string) {
	if !strings.Contains(text, "%% Scope: tenancy") {
		p.summary.addViolation(name, "scope_comment", "missing '%% Scope: tenancy' comment")
	}
	if !strings.Contains(text, "%% View: overview") {
		p.summary.addViolation(name, "view_comment", "missing '%% View: overview' comment")
	}
	if !strings.Contains(text, "flowchart TD") {
		p.summary.addViolation(name, "consolidated_flowchart_direction", "consolidated flowchart must render as flowchart TD")
	}

	hasGlobal := strings.Contains(text, "%% Global Connectivity Map")
	hasSummary := strings.Contains(text, "%% Consolidated Summary Flowchart")
	if hasGlobal {
		for _, label := range []string{"Compartment:", "VCN:", "Subnet:"} {
			if strings.Contains(text, label) {
				p.summary.addViolation(name, "global_depth1_scope", fmt.Sprintf("global map must not contain %q labels", label))
			}
		}
	}
	if (hasGlobal || hasSummary) && !strings.Contains(text, "Region: ") {
		p.summary.addViolation(name, "summary_missing_region", "no region nodes in consolidated summary")
	}
	if hasSummary && !strings.Contains(text, "Compartment:") {
		p.summary.addViolation(name, "summary_missing_compartment", "no compartment boxes in consolidated summary")
	}
}
