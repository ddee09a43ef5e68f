package builder

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"tenancy-graphx/internal/graph"
	"tenancy-graphx/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), filepath.Join(t.TempDir(), "graph.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func buildRecords() []graph.Record {
	return []graph.Record{
		{
			OCID:          "ocid1.compartment.oc1..networking",
			ResourceType:  "Compartment",
			DisplayName:   "networking",
			CompartmentID: "ocid1.tenancy.oc1..root",
			EnrichStatus:  "OK",
		},
		{
			OCID:          "ocid1.vcn.oc1..core",
			ResourceType:  "Vcn",
			DisplayName:   "core-vcn",
			CompartmentID: "ocid1.compartment.oc1..networking",
			Region:        "eu-frankfurt-1",
			EnrichStatus:  "OK",
			Details:       map[string]any{"metadata": map[string]any{"cidr_block": "10.0.0.0/16"}},
		},
		{
			OCID:          "ocid1.subnet.oc1..public",
			ResourceType:  "Subnet",
			DisplayName:   "public-subnet",
			CompartmentID: "ocid1.compartment.oc1..networking",
			Region:        "eu-frankfurt-1",
			EnrichStatus:  "OK",
			Details: map[string]any{"metadata": map[string]any{
				"vcn_id":     "ocid1.vcn.oc1..core",
				"cidr_block": "10.0.1.0/24",
			}},
		},
		{
			OCID:          "ocid1.instance.oc1..web1",
			ResourceType:  "Instance",
			DisplayName:   "billing-web-1",
			CompartmentID: "ocid1.compartment.oc1..apps",
			Region:        "eu-frankfurt-1",
			EnrichStatus:  "OK",
			Details: map[string]any{"metadata": map[string]any{
				"subnet_id": "ocid1.subnet.oc1..public",
			}},
			Relationships: []graph.Relationship{
				{SourceOCID: "ocid1.instance.oc1..web1", RelationType: "USES_NSG", TargetOCID: "ocid1.vcn.oc1..core"},
				{SourceOCID: "ocid1.instance.oc1..web1", RelationType: "USES_NSG", TargetOCID: "ocid1.nsg.oc1..ghost"},
			},
		},
		{
			ResourceType: "Vnic",
			DisplayName:  "stray-vnic-without-ocid",
		},
	}
}

func runBuild(t *testing.T, records []graph.Record) *store.Store {
	t.Helper()
	s := newTestStore(t)
	Build(context.Background(), s, records, zap.NewNop().Sugar())
	return s
}

func findEdge(edges []graph.Edge, source, relation, target string) (graph.Edge, bool) {
	for _, e := range edges {
		if e.SourceOCID == source && e.RelationType == relation && e.TargetOCID == target {
			return e, true
		}
	}
	return graph.Edge{}, false
}

func TestBuildInsertsAuthoritativeNodes(t *testing.T) {
	ctx := context.Background()
	s := runBuild(t, buildRecords())

	nodes, err := s.AllNodes(ctx)
	if err != nil {
		t.Fatalf("AllNodes failed: %v", err)
	}

	// 4 records with an OCID plus 2 synthesized compartments.
	if len(nodes) != 6 {
		t.Fatalf("Expected 6 nodes, got %d", len(nodes))
	}

	byID := make(map[string]graph.Node)
	for _, n := range nodes {
		byID[n.NodeID] = n
	}

	vcn, ok := byID["ocid1.vcn.oc1..core"]
	if !ok {
		t.Fatal("VCN node missing")
	}
	if vcn.NodeType != "network.Vcn" {
		t.Errorf("VCN nodeType = %q, want network.Vcn", vcn.NodeType)
	}
	if vcn.Name != "core-vcn" {
		t.Errorf("VCN name = %q, want core-vcn", vcn.Name)
	}
	if vcn.Metadata["cidr_block"] != "10.0.0.0/16" {
		t.Errorf("VCN metadata cidr_block = %v", vcn.Metadata["cidr_block"])
	}
}

func TestBuildSynthesizesPlaceholderCompartments(t *testing.T) {
	ctx := context.Background()
	s := runBuild(t, buildRecords())

	nodes, err := s.AllNodes(ctx)
	if err != nil {
		t.Fatalf("AllNodes failed: %v", err)
	}
	byID := make(map[string]graph.Node)
	for _, n := range nodes {
		byID[n.NodeID] = n
	}

	// Referenced but never discovered: placeholder with the OCID as name.
	apps, ok := byID["ocid1.compartment.oc1..apps"]
	if !ok {
		t.Fatal("apps compartment placeholder missing")
	}
	if apps.NodeType != "Compartment" {
		t.Errorf("placeholder nodeType = %q, want Compartment", apps.NodeType)
	}
	if apps.Name != "ocid1.compartment.oc1..apps" {
		t.Errorf("placeholder name = %q, want its OCID", apps.Name)
	}
	if apps.EnrichStatus != "UNKNOWN" {
		t.Errorf("placeholder enrichStatus = %q, want UNKNOWN", apps.EnrichStatus)
	}

	// Discovered as a record: the authoritative row must survive.
	networking, ok := byID["ocid1.compartment.oc1..networking"]
	if !ok {
		t.Fatal("networking compartment missing")
	}
	if networking.Name != "networking" {
		t.Errorf("networking name = %q, want networking", networking.Name)
	}
	if networking.EnrichStatus != "OK" {
		t.Errorf("networking enrichStatus = %q, want OK", networking.EnrichStatus)
	}
}

func TestBuildEmitsContainmentEdges(t *testing.T) {
	ctx := context.Background()
	s := runBuild(t, buildRecords())

	edges, err := s.AllEdges(ctx, true)
	if err != nil {
		t.Fatalf("AllEdges failed: %v", err)
	}

	edge, ok := findEdge(edges, "ocid1.instance.oc1..web1", graph.RelationInCompartment, "ocid1.compartment.oc1..apps")
	if !ok {
		t.Fatal("instance containment edge missing")
	}
	if edge.SourceType != "compute.Instance" {
		t.Errorf("containment sourceType = %q, want compute.Instance", edge.SourceType)
	}
	if edge.TargetType != "Compartment" {
		t.Errorf("containment targetType = %q, want Compartment", edge.TargetType)
	}
	if edge.Region != "eu-frankfurt-1" {
		t.Errorf("containment region = %q, want eu-frankfurt-1", edge.Region)
	}
}

func TestBuildInsertsDerivedEdges(t *testing.T) {
	ctx := context.Background()
	s := runBuild(t, buildRecords())

	edges, err := s.AllEdges(ctx, true)
	if err != nil {
		t.Fatalf("AllEdges failed: %v", err)
	}

	edge, ok := findEdge(edges, "ocid1.instance.oc1..web1", graph.RelationInSubnet, "ocid1.subnet.oc1..public")
	if !ok {
		t.Fatal("derived IN_SUBNET edge missing")
	}
	if edge.SourceType != "compute.Instance" {
		t.Errorf("derived sourceType = %q, want compute.Instance", edge.SourceType)
	}
	if edge.TargetType != "network.Subnet" {
		t.Errorf("derived targetType = %q, want network.Subnet", edge.TargetType)
	}
	if edge.Region != "eu-frankfurt-1" {
		t.Errorf("derived region = %q, want eu-frankfurt-1", edge.Region)
	}

	if _, ok := findEdge(edges, "ocid1.subnet.oc1..public", graph.RelationInVcn, "ocid1.vcn.oc1..core"); !ok {
		t.Error("derived IN_VCN edge missing")
	}
}

func TestBuildRecordRelationships(t *testing.T) {
	ctx := context.Background()
	s := runBuild(t, buildRecords())

	edges, err := s.AllEdges(ctx, true)
	if err != nil {
		t.Fatalf("AllEdges failed: %v", err)
	}

	edge, ok := findEdge(edges, "ocid1.instance.oc1..web1", "USES_NSG", "ocid1.vcn.oc1..core")
	if !ok {
		t.Fatal("record-level relationship missing")
	}
	if edge.SourceType != "compute.Instance" || edge.TargetType != "network.Vcn" {
		t.Errorf("relationship types = %q -> %q", edge.SourceType, edge.TargetType)
	}

	// The target was never discovered, so the tuple is dropped.
	if _, ok := findEdge(edges, "ocid1.instance.oc1..web1", "USES_NSG", "ocid1.nsg.oc1..ghost"); ok {
		t.Error("relationship with unknown endpoint should be dropped")
	}
}

func TestBuildTwiceLeavesCountsUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	records := buildRecords()
	log := zap.NewNop().Sugar()

	Build(ctx, s, records, log)
	nodesFirst, err := s.NodeCount(ctx)
	if err != nil {
		t.Fatalf("NodeCount failed: %v", err)
	}
	edgesFirst, err := s.EdgeCount(ctx)
	if err != nil {
		t.Fatalf("EdgeCount failed: %v", err)
	}

	Build(ctx, s, records, log)
	nodesSecond, err := s.NodeCount(ctx)
	if err != nil {
		t.Fatalf("NodeCount failed: %v", err)
	}
	edgesSecond, err := s.EdgeCount(ctx)
	if err != nil {
		t.Fatalf("EdgeCount failed: %v", err)
	}

	if nodesFirst != nodesSecond {
		t.Errorf("node count changed on rebuild: %d -> %d", nodesFirst, nodesSecond)
	}
	if edgesFirst != edgesSecond {
		t.Errorf("edge count changed on rebuild: %d -> %d", edgesFirst, edgesSecond)
	}
}
