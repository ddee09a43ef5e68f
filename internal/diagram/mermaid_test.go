package diagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "core_vcn", slugify("Core VCN", 48))
	assert.Equal(t, "eu_frankfurt_1", slugify("eu-frankfurt-1", 48))
	assert.Equal(t, "unknown", slugify("***", 48))
	assert.Equal(t, "unknown", slugify("", 48))

	long := slugify(strings.Repeat("ab-", 40), 32)
	assert.LessOrEqual(t, len(long), 32)
	assert.False(t, strings.HasSuffix(long, "_"))
}

func TestShortOCID(t *testing.T) {
	assert.Equal(t, "zyxw9876", shortOCID("ocid1.instance.oc1.eu-frankfurt-1.abcd1234zyxw9876"))
	assert.Equal(t, "not-an-ocid", shortOCID("not-an-ocid"))
	assert.Equal(t, "ocid1.short", shortOCID("ocid1.short"))
}

func TestShapedNodeEscaping(t *testing.T) {
	assert.Equal(t, `a["x &#91;y&#93;"]`, shapedNode("a", `x [y]`, shapeRect))
	assert.Equal(t, `a(("f &#40;x&#41;"))`, shapedNode("a", "f (x)", shapeRound))
	assert.Equal(t, `a[("db &#40;1&#41;")]`, shapedNode("a", "db (1)", shapeDB))
	assert.Equal(t, `a{{"p &#123;q&#125;"}}`, shapedNode("a", "p {q}", shapeHex))
	assert.Equal(t, `a["say 'hi'"]`, shapedNode("a", `say "hi"`, shapeRect))
}

func TestEdgeLine(t *testing.T) {
	assert.Equal(t, "  a -->|uses| b", edgeLine("a", "b", "uses", false))
	assert.Equal(t, "  a -.->|inferred| b", edgeLine("a", "b", "inferred", true))
	assert.Equal(t, "  a --> b", edgeLine("a", "b", "", false))
	// Labels that would break the pipe syntax collapse to plain words.
	assert.Equal(t, "  a -->|x y| b", edgeLine("a", "b", "x|{y}", false))
}

func TestSanitizeEdgeLabel(t *testing.T) {
	assert.Equal(t, "routes inferred", sanitizeEdgeLabel("routes\ninferred"))
	assert.Equal(t, "a b c", sanitizeEdgeLabel("  a  [b]  <c>  "))
	assert.Equal(t, "'q'", sanitizeEdgeLabel(`"q"`))
}

func TestCompactLabel(t *testing.T) {
	assert.Equal(t, "short", compactLabel("short", 10))
	assert.Equal(t, "exactly-ten", compactLabel("exactly-ten", 11))
	assert.Equal(t, "abc...", compactLabel("abcdefgh", 6))
}

func TestRenderSizeMatchesText(t *testing.T) {
	lines := []string{"flowchart LR", `a["x"]`, "  a --> b"}
	assert.Equal(t, len(renderText(lines)), renderSize(lines))
}

func TestIDFactoryStableAndUnique(t *testing.T) {
	f := newIDFactory()
	first := f.id("node:ocid1.instance.oc1..x")
	second := f.id("node:ocid1.instance.oc1..x")
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(second, first))

	g := newIDFactory()
	assert.Equal(t, first, g.id("node:ocid1.instance.oc1..x"))

	fixed := g.fixed("legend")
	assert.Equal(t, "legend", fixed)
}

func TestStyleBlockClasses(t *testing.T) {
	block := styleBlock()
	assert.Len(t, block, 12)
	joined := strings.Join(block, "\n")
	for _, class := range []string{"external", "compute", "network", "storage", "policy", "boundary", "overlay", "legend", "prod", "nonprod", "alert"} {
		assert.Contains(t, joined, "classDef "+class+" ")
	}
}
