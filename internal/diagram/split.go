package diagram

import (
	"fmt"

	"tenancy-graphx/internal/graph"
)

type splitMode struct {
	key     string
	label   string
	purpose string
}

var splitModeTable = map[string]splitMode{
	"region": {
		key:     "region",
		label:   "region",
		purpose: "Each part shows a single region's resources.",
	},
	"root_compartment": {
		key:     "root_compartment",
		label:   "root compartment",
		purpose: "Each part shows one root compartment subtree.",
	},
	"level1_compartment": {
		key:     "level1_compartment",
		label:   "level-1 compartment",
		purpose: "Each part shows one level-1 compartment.",
	},
	"vcn": {
		key:     "vcn",
		label:   "VCN",
		purpose: "Each part shows one VCN and its attached resources.",
	},
}

func defaultSplitModes() []string {
	return []string{"region", "root_compartment", "level1_compartment", "vcn"}
}

func (p *projection) groupsFor(mode string, nodes []graph.Node) []splitGroup {
	switch mode {
	case "region":
		return groupByRegion(nodes)
	case "root_compartment":
		return p.tree.groupByRootCompartment(nodes)
	case "level1_compartment":
		return p.tree.groupByLevel1Compartment(nodes)
	case "vcn":
		return groupByVCN(nodes, p.att, p.byID)
	default:
		return nil
	}
}

// nextSplitGroups walks the remaining mode candidates and returns the
// first partitioning that actually divides the nodes, together with the
// modes left for deeper recursion.
func (p *projection) nextSplitGroups(nodes []graph.Node, modes []string) (splitMode, []splitGroup, []string) {
	for i, key := range modes {
		groups := p.groupsFor(key, nodes)
		if len(groups) > 1 {
			return splitModeTable[key], groups, modes[i+1:]
		}
	}
	return splitMode{}, nil, nil
}

// renderBounded renders a view under the text budget. Over budget it
// splits by the first workable partition key, then falls back to
// reducing depth, and finally writes the oversized diagram with a
// warning when depth 1 still does not fit.
func (p *projection) renderBounded(
	baseName string,
	display string,
	nodes []graph.Node,
	requestedDepth, depth int,
	modes []string,
	render func([]graph.Node, int) []string,
	stub func([]splitGroup) []string,
	extraHeader []string,
) error {
	lines := render(nodes, depth)
	if len(extraHeader) > 0 {
		lines = insertLines(lines, 1, extraHeader...)
	}
	if depth < requestedDepth {
		note := fmt.Sprintf("%%%% NOTE: %s depth reduced from %d to %d to stay within Mermaid text size limits.", display, requestedDepth, depth)
		lines = insertLines(lines, 1, note)
	}

	size := renderSize(lines)
	if size <= MaxMermaidTextChars {
		return p.write(baseName, lines)
	}

	mode, groups, remaining := p.nextSplitGroups(nodes, modes)
	if mode.key != "" {
		return p.splitAndRender(baseName, display, groups, mode, remaining, requestedDepth, depth, size, render, stub)
	}
	if depth > 1 {
		return p.renderBounded(baseName, display, nodes, requestedDepth, depth-1, modes, render, stub, extraHeader)
	}

	warning := fmt.Sprintf("%%%% WARNING: diagram text size %d exceeds Mermaid limit %d and may not render.", size, MaxMermaidTextChars)
	lines = insertLines(lines, 1, warning)
	p.log.Warnf("diagram %s exceeds Mermaid text budget (%d > %d), writing anyway", baseName, size, MaxMermaidTextChars)
	return p.write(baseName, lines)
}

func (p *projection) splitAndRender(
	baseName string,
	display string,
	groups []splitGroup,
	mode splitMode,
	remaining []string,
	requestedDepth, depth, size int,
	render func([]graph.Node, int) []string,
	stub func([]splitGroup) []string,
) error {
	stem := trimMermaidExt(baseName)
	usedSlugs := make(map[string]bool)
	var parts []string
	for _, group := range groups {
		slug := slugify(group.label, 32)
		for n := 2; usedSlugs[slug]; n++ {
			slug = fmt.Sprintf("%s_%d", slugify(group.label, 32), n)
		}
		usedSlugs[slug] = true
		partName := fmt.Sprintf("%s.%s.%s.mmd", stem, mode.key, slug)
		parts = append(parts, partName)

		closed := closeOverCompartments(group.nodes, p.tree, p.byID)
		header := []string{
			fmt.Sprintf("%%%% Split scope: %s=%s", mode.label, group.label),
			fmt.Sprintf("%%%% Split rationale: Split by %s to keep %s view readable.", mode.label, display),
			"%% Split purpose: " + mode.purpose,
		}
		if err := p.renderBounded(partName, display, closed, requestedDepth, depth, remaining, render, stub, header); err != nil {
			return err
		}
	}

	if err := p.writeSplitIndex(stem, display, mode, parts); err != nil {
		return err
	}
	if err := p.write(baseName, stub(groups)); err != nil {
		return err
	}
	p.summary.addSplit(baseName, parts, size, MaxMermaidTextChars, "split_"+mode.key)
	return nil
}

// writeSplitIndex writes the companion index listing every part file.
func (p *projection) writeSplitIndex(stem, display string, mode splitMode, parts []string) error {
	lines := []string{
		elkInitLine,
		"flowchart LR",
		fmt.Sprintf("%%%% %s split index", display),
		fmt.Sprintf("%%%% Split by %s: %s", mode.label, mode.purpose),
		"%% Split outputs:",
	}
	for _, part := range parts {
		lines = append(lines, "%% - "+part)
	}
	lines = append(lines, fmt.Sprintf(`split_index["Split index: %d diagram(s)."]`, len(parts)))
	return p.write(stem+".index.mmd", lines)
}

// tenancySplitStub is the replacement artifact for a split tenancy
// view: the top split groups as count nodes.
func (p *projection) tenancySplitStub(groups []splitGroup) []string {
	f := newIDFactory()
	lines := diagramHeader("LR", "tenancy", "overview")
	lines = append(lines, subgraphLine(f.fixed("tenancy_split_overview"), "Tenancy Split Overview"))
	for _, e := range capEntries(groupSummaries(groups), topNTenancySplitGroups, "groups") {
		id := f.id("split:group:" + e.label)
		lines = append(lines, "  "+shapedNode(id, fmt.Sprintf("%s (n=%d)", compactLabel(e.label, 40), e.count), shapeRect))
	}
	lines = append(lines, "end")
	return lines
}

// consolidatedSplitStub replaces a split consolidated view with the
// compact overview plus a pointer at the split outputs.
func (p *projection) consolidatedSplitStub(direction, view string) func([]splitGroup) []string {
	return func(groups []splitGroup) []string {
		f := newIDFactory()
		lines := diagramHeader(direction, "tenancy", view)
		lines = append(lines, p.compactOverview(f, "Consolidated Overview", topNConsolidatedOverview, true)...)
		noticeID := f.id("split:notice")
		lines = append(lines, "  "+shapedNode(noticeID, "Consolidated diagram split; see split outputs.", shapeRect))
		return lines
	}
}

func trimMermaidExt(name string) string {
	const ext = ".mmd"
	if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
		return name[:len(name)-len(ext)]
	}
	return name
}
