package diagram

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tenancy-graphx/internal/graph"
)

const (
	fixtureCompNetworking = "ocid1.compartment.oc1..networking000001"
	fixtureCompApps       = "ocid1.compartment.oc1..apps000000000001"
	fixtureCompAppsProd   = "ocid1.compartment.oc1..appsprod00000001"
	fixtureVCN            = "ocid1.vcn.oc1.eu-frankfurt-1.core000001"
	fixtureSubnetPublic   = "ocid1.subnet.oc1.eu-frankfurt-1.pub0001"
	fixtureSubnetPrivate  = "ocid1.subnet.oc1.eu-frankfurt-1.priv001"
	fixtureLB             = "ocid1.loadbalancer.oc1.eu-frankfurt-1.lb01"
	fixtureBucket         = "ocid1.bucket.oc1.eu-frankfurt-1.assets01"
)

func appTag(app string) map[string]any {
	return map[string]any{"freeformTags": map[string]any{"app": app}}
}

// tenancyFixture is a small but fully wired tenancy: three compartments,
// one VCN with a public and a private subnet, gateways, a tagged billing
// application, and a cross-region peering.
func tenancyFixture() []graph.Node {
	return []graph.Node{
		{NodeID: fixtureCompNetworking, NodeType: "Compartment", NodeCategory: graph.CategoryCompartment, Name: "networking"},
		{NodeID: fixtureCompApps, NodeType: "Compartment", NodeCategory: graph.CategoryCompartment, Name: "apps"},
		{NodeID: fixtureCompAppsProd, NodeType: "Compartment", NodeCategory: graph.CategoryCompartment, Name: "apps-prod", CompartmentID: fixtureCompApps},

		{NodeID: fixtureVCN, NodeType: "network.Vcn", NodeCategory: graph.CategoryNetwork, Name: "core-vcn", Region: "eu-frankfurt-1", CompartmentID: fixtureCompNetworking,
			Metadata: map[string]any{"cidr_block": "10.0.0.0/16"}},
		{NodeID: fixtureSubnetPublic, NodeType: "network.Subnet", NodeCategory: graph.CategoryNetwork, Name: "public-subnet", Region: "eu-frankfurt-1", CompartmentID: fixtureCompNetworking,
			Metadata: map[string]any{"vcn_id": fixtureVCN, "prohibit_public_ip_on_vnic": false}},
		{NodeID: fixtureSubnetPrivate, NodeType: "network.Subnet", NodeCategory: graph.CategoryNetwork, Name: "private-subnet", Region: "eu-frankfurt-1", CompartmentID: fixtureCompNetworking,
			Metadata: map[string]any{"vcn_id": fixtureVCN, "prohibit_public_ip_on_vnic": true}},
		{NodeID: "ocid1.internetgateway.oc1.eu-frankfurt-1.igw1", NodeType: "network.InternetGateway", NodeCategory: graph.CategoryNetwork, Name: "ingress-igw", Region: "eu-frankfurt-1", CompartmentID: fixtureCompNetworking,
			Metadata: map[string]any{"vcn_id": fixtureVCN}},
		{NodeID: "ocid1.natgateway.oc1.eu-frankfurt-1.nat001", NodeType: "network.NatGateway", NodeCategory: graph.CategoryNetwork, Name: "egress-nat", Region: "eu-frankfurt-1", CompartmentID: fixtureCompNetworking,
			Metadata: map[string]any{"vcn_id": fixtureVCN}},
		{NodeID: "ocid1.servicegateway.oc1.eu-frankfurt-1.sg1", NodeType: "network.ServiceGateway", NodeCategory: graph.CategoryNetwork, Name: "services-sgw", Region: "eu-frankfurt-1", CompartmentID: fixtureCompNetworking,
			Metadata: map[string]any{"vcn_id": fixtureVCN}},
		{NodeID: "ocid1.routetable.oc1.eu-frankfurt-1.rt001", NodeType: "network.RouteTable", NodeCategory: graph.CategoryNetwork, Name: "routes-rt", Region: "eu-frankfurt-1", CompartmentID: fixtureCompNetworking,
			Metadata: map[string]any{"vcn_id": fixtureVCN}},
		{NodeID: "ocid1.securitylist.oc1.eu-frankfurt-1.sl01", NodeType: "network.SecurityList", NodeCategory: graph.CategoryNetwork, Name: "filters-sl", Region: "eu-frankfurt-1", CompartmentID: fixtureCompNetworking,
			Metadata: map[string]any{"vcn_id": fixtureVCN}},
		{NodeID: "ocid1.remotepeeringconnection.oc1.fra.rpc1", NodeType: "network.RemotePeeringConnection", NodeCategory: graph.CategoryNetwork, Name: "fra-ash-peering", Region: "eu-frankfurt-1", CompartmentID: fixtureCompNetworking,
			Metadata: map[string]any{"peer_region_name": "us-ashburn-1"}},

		{NodeID: "ocid1.instance.oc1.eu-frankfurt-1.web0001", NodeType: "compute.Instance", NodeCategory: graph.CategoryCompute, Name: "billing-web-1", Region: "eu-frankfurt-1", CompartmentID: fixtureCompAppsProd,
			Metadata: map[string]any{"subnet_id": fixtureSubnetPublic}, Tags: appTag("billing")},
		{NodeID: "ocid1.instance.oc1.eu-frankfurt-1.web0002", NodeType: "compute.Instance", NodeCategory: graph.CategoryCompute, Name: "billing-web-2", Region: "eu-frankfurt-1", CompartmentID: fixtureCompAppsProd,
			Metadata: map[string]any{"subnet_id": fixtureSubnetPublic}, Tags: appTag("billing")},
		{NodeID: "ocid1.instance.oc1.eu-frankfurt-1.work001", NodeType: "compute.Instance", NodeCategory: graph.CategoryCompute, Name: "billing-worker-1", Region: "eu-frankfurt-1", CompartmentID: fixtureCompAppsProd,
			Metadata: map[string]any{"subnet_id": fixtureSubnetPrivate}, Tags: appTag("billing")},
		{NodeID: fixtureLB, NodeType: "LoadBalancer", NodeCategory: graph.CategoryOther, Name: "billing-lb", Region: "eu-frankfurt-1", CompartmentID: fixtureCompAppsProd,
			Metadata: map[string]any{"subnet_ids": []any{fixtureSubnetPublic}}, Tags: appTag("billing")},
		{NodeID: fixtureBucket, NodeType: "Bucket", NodeCategory: graph.CategoryOther, Name: "billing-assets", Region: "eu-frankfurt-1", CompartmentID: fixtureCompAppsProd,
			Tags: appTag("billing")},
		{NodeID: "ocid1.instance.oc1.us-ashburn-1.replica1", NodeType: "compute.Instance", NodeCategory: graph.CategoryCompute, Name: "dr-replica-1", Region: "us-ashburn-1", CompartmentID: fixtureCompAppsProd},

		{NodeID: "ocid1.policy.oc1..teamadmins00000001", NodeType: "Policy", NodeCategory: graph.CategoryOther, Name: "team-admins", CompartmentID: fixtureCompApps},
		{NodeID: "ocid1.loggroup.oc1.eu-frankfurt-1.lg01", NodeType: "LogGroup", NodeCategory: graph.CategoryOther, Name: "audit-logs", Region: "eu-frankfurt-1", CompartmentID: fixtureCompAppsProd},
	}
}

func tenancyFixtureEdges() []graph.Edge {
	return []graph.Edge{
		{SourceOCID: "ocid1.instance.oc1.eu-frankfurt-1.web0001", TargetOCID: fixtureCompAppsProd, RelationType: graph.RelationInCompartment},
		{SourceOCID: "ocid1.instance.oc1.eu-frankfurt-1.web0001", TargetOCID: fixtureVCN, RelationType: graph.RelationInVcn},
		{SourceOCID: "ocid1.instance.oc1.eu-frankfurt-1.web0001", TargetOCID: fixtureSubnetPublic, RelationType: graph.RelationInSubnet},
		{SourceOCID: "ocid1.instance.oc1.eu-frankfurt-1.web0002", TargetOCID: fixtureVCN, RelationType: graph.RelationInVcn},
		{SourceOCID: "ocid1.instance.oc1.eu-frankfurt-1.web0002", TargetOCID: fixtureSubnetPublic, RelationType: graph.RelationInSubnet},
		{SourceOCID: "ocid1.instance.oc1.eu-frankfurt-1.work001", TargetOCID: fixtureSubnetPrivate, RelationType: graph.RelationInSubnet},
		{SourceOCID: fixtureSubnetPublic, TargetOCID: "ocid1.routetable.oc1.eu-frankfurt-1.rt001", RelationType: graph.RelationUsesRouteTable},
		{SourceOCID: fixtureLB, TargetOCID: fixtureSubnetPublic, RelationType: graph.RelationInSubnet},
	}
}

func runProjections(t *testing.T, nodes []graph.Node, edges []graph.Edge, depth int) (string, *Summary) {
	t.Helper()
	dir := t.TempDir()
	sum, err := WriteProjections(dir, nodes, edges, depth, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NotNil(t, sum)
	return dir, sum
}

func readDiagram(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func diagramFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".mmd") {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestWriteProjectionsArtifacts(t *testing.T) {
	dir, sum := runProjections(t, tenancyFixture(), tenancyFixtureEdges(), 3)

	for _, name := range []string{
		"diagram.tenancy.mmd",
		"diagram.network.core_vcn.mmd",
		"diagram.workload.billing.mmd",
		"diagram.consolidated.flowchart.mmd",
		"diagram.consolidated.architecture.mmd",
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	assert.Empty(t, sum.Skipped)
	assert.Empty(t, sum.Split)
	assert.Empty(t, sum.Violations)
}

func TestDiagramHeaderLayout(t *testing.T) {
	dir, _ := runProjections(t, tenancyFixture(), tenancyFixtureEdges(), 3)

	lines := strings.Split(readDiagram(t, dir, "diagram.tenancy.mmd"), "\n")
	require.Greater(t, len(lines), 16)
	assert.Equal(t, elkInitLine, lines[0])
	assert.Equal(t, "flowchart LR", lines[1])
	assert.Equal(t, "%% Scope: tenancy", lines[2])
	assert.Equal(t, "%% View: overview", lines[3])
	assert.Equal(t, "%% Styles (subtle, role-based)", lines[4])

	network := strings.Split(readDiagram(t, dir, "diagram.network.core_vcn.mmd"), "\n")
	assert.Equal(t, "%% Scope: vcn:core-vcn", network[2])
	assert.Equal(t, "%% View: full-detail", network[3])

	workload := strings.Split(readDiagram(t, dir, "diagram.workload.billing.mmd"), "\n")
	assert.Equal(t, "%% Scope: workload:billing", workload[2])
	assert.Equal(t, "%% View: full-detail", workload[3])

	flow := strings.Split(readDiagram(t, dir, "diagram.consolidated.flowchart.mmd"), "\n")
	assert.Equal(t, "flowchart TD", flow[1])
	assert.Equal(t, "%% Scope: tenancy", flow[2])
}

func TestDiagramsStayWithinBudget(t *testing.T) {
	dir, _ := runProjections(t, tenancyFixture(), tenancyFixtureEdges(), 3)
	for _, name := range diagramFiles(t, dir) {
		content := readDiagram(t, dir, name)
		assert.LessOrEqual(t, len(content), MaxMermaidTextChars, "diagram %s over budget", name)
	}
}

func TestNoResourceIdentifiersInDiagrams(t *testing.T) {
	dir, _ := runProjections(t, tenancyFixture(), tenancyFixtureEdges(), 3)
	files := diagramFiles(t, dir)
	require.NotEmpty(t, files)
	for _, name := range files {
		assert.NotContains(t, readDiagram(t, dir, name), "ocid1.", "diagram %s leaks identifiers", name)
	}
}

func TestTenancyViewContent(t *testing.T) {
	dir, _ := runProjections(t, tenancyFixture(), tenancyFixtureEdges(), 3)
	content := readDiagram(t, dir, "diagram.tenancy.mmd")

	assert.Contains(t, content, "%% Region overlay (labels only)")
	assert.Contains(t, content, "Region: eu-frankfurt-1")
	assert.Contains(t, content, "VCN: core-vcn (10.0.0.0/16)")
	assert.Contains(t, content, "Subnet: public-subnet (public)")
	assert.Contains(t, content, "Subnet: private-subnet (private)")
	assert.Contains(t, content, "Compartment: networking")
	assert.Contains(t, content, "Instances (n=")
	assert.Contains(t, content, `"Internet"`)
	assert.Contains(t, content, `"OCI Services"`)
	assert.Contains(t, content, "|IGW|")
	assert.Contains(t, content, "|SGW|")
}

func TestNetworkViewContent(t *testing.T) {
	dir, _ := runProjections(t, tenancyFixture(), tenancyFixtureEdges(), 3)
	content := readDiagram(t, dir, "diagram.network.core_vcn.mmd")

	assert.Contains(t, content, "Network Topology")
	assert.Contains(t, content, "Gateways")
	assert.Contains(t, content, "Subnet: public-subnet (public)")
	assert.Contains(t, content, "billing-web-1")
	assert.Contains(t, content, "Legend")
	// Public subnets get an inferred ingress route from the internet
	// gateway, private ones an inferred egress route to the NAT.
	assert.Contains(t, content, "routes inferred")
	assert.Contains(t, content, "egress inferred")
}

func TestWorkloadViewContent(t *testing.T) {
	dir, _ := runProjections(t, tenancyFixture(), tenancyFixtureEdges(), 3)
	content := readDiagram(t, dir, "diagram.workload.billing.mmd")

	assert.Contains(t, content, `"Users"`)
	assert.Contains(t, content, `"OCI Services"`)
	assert.Contains(t, content, "Compartment: apps-prod")
	assert.Contains(t, content, "billing-lb")
	assert.Contains(t, content, "requests inferred")
	assert.Contains(t, content, "reads/writes inferred")
}

func TestConsolidatedSummaryContent(t *testing.T) {
	dir, _ := runProjections(t, tenancyFixture(), tenancyFixtureEdges(), 3)
	content := readDiagram(t, dir, "diagram.consolidated.flowchart.mmd")

	assert.Contains(t, content, "%% Consolidated Summary Flowchart")
	assert.Contains(t, content, "Region: eu-frankfurt-1")
	assert.Contains(t, content, "Region: us-ashburn-1")
	assert.Contains(t, content, "Compartment: networking")
	assert.Contains(t, content, "VCN-level Resources")
	assert.Contains(t, content, "|RPC|")
	assert.NotContains(t, content, "%% Global Connectivity Map")
}

func TestConsolidatedGlobalMapAtDepthOne(t *testing.T) {
	dir, _ := runProjections(t, tenancyFixture(), tenancyFixtureEdges(), 1)
	content := readDiagram(t, dir, "diagram.consolidated.flowchart.mmd")

	assert.Contains(t, content, "%% Global Connectivity Map")
	assert.Contains(t, content, "Region: eu-frankfurt-1")
	assert.Contains(t, content, "Region: us-ashburn-1")
	assert.Contains(t, content, "|RPC|")
	assert.NotContains(t, content, "Compartment:")
}

func TestTenancyDepthOneRendersCountsOnly(t *testing.T) {
	dir, _ := runProjections(t, tenancyFixture(), tenancyFixtureEdges(), 1)
	content := readDiagram(t, dir, "diagram.tenancy.mmd")

	assert.Contains(t, content, "Resources (n=")
	assert.NotContains(t, content, "VCN: core-vcn")
	assert.NotContains(t, content, "Subnet:")
}

func TestArchitectureViewContent(t *testing.T) {
	dir, _ := runProjections(t, tenancyFixture(), tenancyFixtureEdges(), 3)
	content := readDiagram(t, dir, "diagram.consolidated.architecture.mmd")

	assert.Contains(t, content, "%% Architecture Overview")
	assert.Contains(t, content, "flowchart LR")
	assert.Contains(t, content, "Top Compartments")
	assert.Contains(t, content, "Top VCNs")
	assert.Contains(t, content, "Service Lanes")
	assert.Contains(t, content, "Legend")
}

func TestViolationScanFlagsBadArtifacts(t *testing.T) {
	p := newProjection(t.TempDir(), tenancyFixture(), tenancyFixtureEdges(), 3, zap.NewNop().Sugar())

	// A tenancy artifact with the wrong direction, no scope machinery,
	// and a leaked identifier trips one violation per broken rule.
	require.NoError(t, p.write("diagram.tenancy.mmd", []string{
		"flowchart TD",
		`  n1["exposed ocid1.instance.oc1..leak"]`,
	}))
	p.scanViolations()

	rules := make(map[string]bool)
	for _, v := range p.summary.Violations {
		require.Equal(t, "diagram.tenancy.mmd", v.Diagram)
		rules[v.Rule] = true
	}
	assert.True(t, rules["no_ocids_in_labels"])
	assert.True(t, rules["scope_comment"])
	assert.True(t, rules["view_comment"])
	assert.True(t, rules["tenancy_direction"])
}

func TestProjectionsDeterministic(t *testing.T) {
	nodes := tenancyFixture()
	edges := tenancyFixtureEdges()
	dirA, _ := runProjections(t, nodes, edges, 3)

	reversedNodes := make([]graph.Node, len(nodes))
	for i := range nodes {
		reversedNodes[len(nodes)-1-i] = nodes[i]
	}
	reversedEdges := make([]graph.Edge, len(edges))
	for i := range edges {
		reversedEdges[len(edges)-1-i] = edges[i]
	}
	dirB, _ := runProjections(t, reversedNodes, reversedEdges, 3)

	filesA := diagramFiles(t, dirA)
	filesB := diagramFiles(t, dirB)
	require.Equal(t, filesA, filesB)
	for _, name := range filesA {
		assert.Equal(t, readDiagram(t, dirA, name), readDiagram(t, dirB, name), "diagram %s differs across runs", name)
	}
}
