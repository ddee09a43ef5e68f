package diagram

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// MaxMermaidTextChars is the rendering budget for one diagram. Mermaid
// renderers degrade badly past this point, so anything larger is split
// or skipped rather than written as-is.
const MaxMermaidTextChars = 50000

const elkInitLine = `%%{init: {"flowchart": {"defaultRenderer": "elk", "nodeSpacing": 80, "rankSpacing": 80, "wrappingWidth": 260}} }%%`

// styleBlock returns the shared class definitions appended to every
// diagram after the header comments.
func styleBlock() []string {
	return []string{
		"%% Styles (subtle, role-based)",
		"classDef external fill:#f8f9fa,stroke:#adb5bd,stroke-width:1px;",
		"classDef compute fill:#eef6ff,stroke:#4dabf7,stroke-width:1px;",
		"classDef network fill:#f3f0ff,stroke:#9775fa,stroke-width:1px;",
		"classDef storage fill:#fff9db,stroke:#f59f00,stroke-width:1px;",
		"classDef policy fill:#fff0f6,stroke:#f06595,stroke-width:1px;",
		"classDef boundary fill:#f1f3f5,stroke:#868e96,stroke-width:1px,stroke-dasharray: 4 2;",
		"classDef overlay fill:#e9fac8,stroke:#82c91e,stroke-width:1px,stroke-dasharray: 2 2;",
		"classDef legend fill:#ffffff,stroke:#ced4da,stroke-width:1px;",
		"classDef prod stroke:#ff6600,stroke-width:2px;",
		"classDef nonprod stroke:#2b8a3e,stroke-width:1px,stroke-dasharray: 3 3;",
		"classDef alert stroke:#ff0000,stroke-width:2px,fill:#fff0f0;",
	}
}

// renderSize is the budget metric: every line costs its length plus the
// newline that terminates it.
func renderSize(lines []string) int {
	size := 0
	for _, line := range lines {
		size += len(line) + 1
	}
	return size
}

func renderText(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}

// idFactory hands out diagram-unique node identifiers. Identifiers are
// hashes of stable keys, never the keys themselves, so resource
// identifiers cannot leak into diagram text.
type idFactory struct {
	used map[string]bool
}

func newIDFactory() *idFactory {
	return &idFactory{used: make(map[string]bool)}
}

// id returns the synthetic identifier for a stable key, suffixed with a
// counter when the same base was already handed out in this diagram.
func (f *idFactory) id(stableKey string) string {
	sum := sha1.Sum([]byte(stableKey))
	base := "n" + hex.EncodeToString(sum[:])[:12]
	if !f.used[base] {
		f.used[base] = true
		return base
	}
	for i := 2; ; i++ {
		cand := fmt.Sprintf("%s_%d", base, i)
		if !f.used[cand] {
			f.used[cand] = true
			return cand
		}
	}
}

// fixed reserves a literal identifier for a structural stub node.
func (f *idFactory) fixed(id string) string {
	f.used[id] = true
	return id
}

var slugRunPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify folds a name into a filename-safe token.
func slugify(s string, max int) string {
	slug := strings.ToLower(s)
	slug = slugRunPattern.ReplaceAllString(slug, "_")
	slug = strings.Trim(slug, "_")
	if len(slug) > max {
		slug = strings.Trim(slug[:max], "_")
	}
	if slug == "" {
		return "unknown"
	}
	return slug
}

func isOCID(s string) bool {
	return strings.HasPrefix(s, "ocid1")
}

// shortOCID keeps the last characters of an OCID for display.
func shortOCID(s string) string {
	if isOCID(s) && len(s) > 18 {
		return s[len(s)-8:]
	}
	return s
}

// Shapes a rendered node can take.
type nodeShape int

const (
	shapeRect nodeShape = iota
	shapeRound
	shapeDB
	shapeHex
)

func escapeBrackets(s string) string {
	s = strings.ReplaceAll(s, "[", "&#91;")
	return strings.ReplaceAll(s, "]", "&#93;")
}

// shapedNode renders one node line with the escaping its shape needs.
// Square brackets are entity-escaped in every shape; the delimiters of
// the chosen shape are escaped as well.
func shapedNode(id, label string, shape nodeShape) string {
	label = strings.ReplaceAll(label, `"`, "'")
	label = escapeBrackets(label)
	switch shape {
	case shapeRound:
		label = strings.ReplaceAll(label, "(", "&#40;")
		label = strings.ReplaceAll(label, ")", "&#41;")
		return fmt.Sprintf(`%s(("%s"))`, id, label)
	case shapeDB:
		label = strings.ReplaceAll(label, "(", "&#40;")
		label = strings.ReplaceAll(label, ")", "&#41;")
		return fmt.Sprintf(`%s[("%s")]`, id, label)
	case shapeHex:
		label = strings.ReplaceAll(label, "{", "&#123;")
		label = strings.ReplaceAll(label, "}", "&#125;")
		return fmt.Sprintf(`%s{{"%s"}}`, id, label)
	default:
		return fmt.Sprintf(`%s["%s"]`, id, label)
	}
}

func subgraphLine(id, label string) string {
	label = strings.ReplaceAll(label, `"`, "'")
	label = escapeBrackets(label)
	return fmt.Sprintf(`subgraph %s["%s"]`, id, label)
}

var edgeLabelStrip = strings.NewReplacer(
	"<", "", ">", "", "{", "", "}", "", "[", "", "]", "", "(", "", ")", "",
)

// sanitizeEdgeLabel normalizes an edge label down to plain words.
func sanitizeEdgeLabel(s string) string {
	s = strings.ReplaceAll(s, `"`, "'")
	s = strings.NewReplacer("|", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
	s = edgeLabelStrip.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// edgeLine renders one edge. Dotted edges mark inferred relationships
// and keep their labels.
func edgeLine(src, dst, label string, dotted bool) string {
	arrow := "-->"
	if dotted {
		arrow = "-.->"
	}
	label = sanitizeEdgeLabel(label)
	if label == "" {
		return fmt.Sprintf("  %s %s %s", src, arrow, dst)
	}
	return fmt.Sprintf("  %s %s|%s| %s", src, arrow, label, dst)
}

// compactLabel truncates a label for dense overview renderings.
func compactLabel(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
