package grouping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenancy-graphx/internal/graph"
)

func conceptNodes() []graph.Node {
	return []graph.Node{
		{NodeID: "ocid1.compartment.oc1..apps", NodeType: "Compartment", NodeCategory: "compartment", Name: "apps"},
		{NodeID: "ocid1.vcn.oc1..core", NodeType: "network.Vcn", NodeCategory: "network", Name: "core-vcn", CompartmentID: "ocid1.compartment.oc1..apps"},
		{NodeID: "ocid1.instance.oc1..w1", NodeType: "compute.Instance", NodeCategory: "compute", Name: "web-1", CompartmentID: "ocid1.compartment.oc1..apps"},
		{NodeID: "ocid1.instance.oc1..w2", NodeType: "compute.Instance", NodeCategory: "compute", Name: "web-2", CompartmentID: "ocid1.compartment.oc1..apps"},
		{NodeID: "ocid1.internetgateway.oc1..igw", NodeType: "network.InternetGateway", NodeCategory: "network", Name: "igw", CompartmentID: "ocid1.compartment.oc1..apps"},
		{NodeID: "ocid1.bucket.oc1..assets", NodeType: "Bucket", NodeCategory: "other", Name: "assets", CompartmentID: "ocid1.compartment.oc1..apps"},
		{NodeID: "ocid1.policy.oc1..admins", NodeType: "Policy", NodeCategory: "other", Name: "admins", CompartmentID: "ocid1.compartment.oc1..apps"},
		{NodeID: "ocid1.instancepool.oc1..jobrun", NodeType: "compute.InstancePool", NodeCategory: "compute", Name: "pool"},
	}
}

func conceptEdges() []graph.Edge {
	return []graph.Edge{
		{SourceOCID: "ocid1.instance.oc1..w1", RelationType: graph.RelationInVcn, TargetOCID: "ocid1.vcn.oc1..core"},
		{SourceOCID: "ocid1.instance.oc1..w2", RelationType: graph.RelationInVcn, TargetOCID: "ocid1.vcn.oc1..core"},
		{SourceOCID: "ocid1.internetgateway.oc1..igw", RelationType: graph.RelationInVcn, TargetOCID: "ocid1.vcn.oc1..core"},
	}
}

func findConcept(t *testing.T, concepts []ConceptNode, label string) ConceptNode {
	t.Helper()
	for _, c := range concepts {
		if c.Label == label {
			return c
		}
	}
	t.Fatalf("no concept labelled %q in %+v", label, concepts)
	return ConceptNode{}
}

func TestBuildConceptsClustersInstances(t *testing.T) {
	scope := map[string]bool{
		"ocid1.instance.oc1..w1": true,
		"ocid1.instance.oc1..w2": true,
	}
	concepts := BuildConcepts(conceptNodes(), conceptEdges(), scope)

	instances := findConcept(t, concepts, "Compute Instances")
	assert.Equal(t, 2, instances.Count)
	assert.Equal(t, LaneApp, instances.Lane)
	assert.Equal(t, PlacementInVCN, instances.Placement)
	assert.Equal(t, []string{"core-vcn"}, instances.VCNNames)
	assert.Equal(t, []string{"Instance"}, instances.SourceTypes)
}

func TestBuildConceptsPullsGatewaysOfScopedVCNs(t *testing.T) {
	// The gateway is not in scope itself but its VCN is reached by a
	// scoped instance.
	scope := map[string]bool{"ocid1.instance.oc1..w1": true}
	concepts := BuildConcepts(conceptNodes(), conceptEdges(), scope)

	gw := findConcept(t, concepts, "Internet Gateway")
	assert.Equal(t, LaneNetwork, gw.Lane)
	assert.Equal(t, PlacementEdge, gw.Placement)
}

func TestBuildConceptsSkipsStructuralShapes(t *testing.T) {
	scope := map[string]bool{
		"ocid1.compartment.oc1..apps": true,
		"ocid1.vcn.oc1..core":         true,
	}
	concepts := BuildConcepts(conceptNodes(), conceptEdges(), scope)
	for _, c := range concepts {
		assert.NotContains(t, c.SourceTypes, "Compartment")
		assert.NotContains(t, c.SourceTypes, "Vcn")
	}
}

func TestBuildConceptsLanesAndScopes(t *testing.T) {
	scope := map[string]bool{
		"ocid1.bucket.oc1..assets": true,
		"ocid1.policy.oc1..admins": true,
	}
	concepts := BuildConcepts(conceptNodes(), conceptEdges(), scope)

	storage := findConcept(t, concepts, "Object Storage")
	assert.Equal(t, LaneData, storage.Lane)
	assert.Empty(t, storage.SecurityScope)

	iam := findConcept(t, concepts, "IAM Policies")
	assert.Equal(t, LaneIAM, iam.Lane)
	assert.Equal(t, "tenancy", iam.SecurityScope)
	assert.Equal(t, PlacementOutOfVCN, iam.Placement)
}

func TestBuildConceptsDeterministic(t *testing.T) {
	scope := map[string]bool{
		"ocid1.instance.oc1..w1":   true,
		"ocid1.instance.oc1..w2":   true,
		"ocid1.bucket.oc1..assets": true,
		"ocid1.policy.oc1..admins": true,
	}
	nodes := conceptNodes()
	first := BuildConcepts(nodes, conceptEdges(), scope)

	reversed := make([]graph.Node, len(nodes))
	for i := range nodes {
		reversed[len(nodes)-1-i] = nodes[i]
	}
	second := BuildConcepts(reversed, conceptEdges(), scope)
	require.Equal(t, first, second)
}

func TestConceptIDShape(t *testing.T) {
	id := conceptID("ocid1.compartment.oc1..apps", LaneApp, PlacementInVCN, "", "Compute Instances")
	assert.Equal(t, strings.ToLower(id), id)
	assert.NotContains(t, id, ":")
	assert.NotContains(t, id, " ")
	assert.LessOrEqual(t, len(id), 96)

	long := conceptID(strings.Repeat("x", 120), LaneApp, PlacementInVCN, "vcn", "Label")
	assert.Len(t, long, 96)
}

func TestSanitizeConceptLabel(t *testing.T) {
	assert.Equal(t, "Redacted", SanitizeConceptLabel("vm ocid1.instance.oc1..x"))
	assert.Equal(t, "backup", SanitizeConceptLabel("backup 2024-05-01T12:00:00Z"))
	assert.Equal(t, "db", SanitizeConceptLabel("db 1234567890"))
	assert.Equal(t, "Instances", SanitizeConceptLabel("Instances (n=42)"))
	assert.Equal(t, "Unknown", SanitizeConceptLabel("  (n=3) "))
}

func TestIsIdentityShape(t *testing.T) {
	assert.True(t, IsIdentityShape("Policy"))
	assert.True(t, IsIdentityShape("DynamicGroup"))
	assert.True(t, IsIdentityShape("identity.IdentityProvider"))
	assert.True(t, IsIdentityShape("Domain"))
	assert.False(t, IsIdentityShape("compute.Instance"))
	assert.False(t, IsIdentityShape("network.Vcn"))
	assert.False(t, IsIdentityShape(""))
}
