package graph

import "testing"

func TestTypeOf(t *testing.T) {
	cases := []struct {
		resourceType string
		wantType     string
		wantCategory string
	}{
		{"Instance", "compute.Instance", "compute"},
		{"BootVolume", "compute.BootVolume", "compute"},
		{"Vcn", "network.Vcn", "network"},
		{"RouteTable", "network.RouteTable", "network"},
		{"Vault", "security.Vault", "security"},
		{"Compartment", "Compartment", "compartment"},
		{"Bucket", "Bucket", "other"},
		{"LoadBalancer", "LoadBalancer", "other"},
	}

	for _, tc := range cases {
		if got := TypeOf(tc.resourceType); got != tc.wantType {
			t.Errorf("TypeOf(%q) = %q, want %q", tc.resourceType, got, tc.wantType)
		}
		if got := CategoryOf(tc.resourceType); got != tc.wantCategory {
			t.Errorf("CategoryOf(%q) = %q, want %q", tc.resourceType, got, tc.wantCategory)
		}
	}
}

func TestBareType(t *testing.T) {
	if got := BareType("compute.Instance"); got != "Instance" {
		t.Errorf("BareType(compute.Instance) = %q, want Instance", got)
	}
	if got := BareType("Bucket"); got != "Bucket" {
		t.Errorf("BareType(Bucket) = %q, want Bucket", got)
	}
}

func TestNodeFromRecord(t *testing.T) {
	rec := &Record{
		OCID:          "ocid1.instance.oc1..aaaa",
		ResourceType:  "Instance",
		DisplayName:   "web-1",
		CompartmentID: "ocid1.compartment.oc1..bbbb",
		Region:        "eu-frankfurt-1",
		EnrichStatus:  "OK",
		Details: map[string]any{
			"metadata": map[string]any{"shape": "VM.Standard3.Flex"},
		},
		FreeformTags: map[string]any{"app": "media"},
	}

	node := NodeFromRecord(rec)
	if node.NodeID != rec.OCID {
		t.Errorf("NodeID = %q, want %q", node.NodeID, rec.OCID)
	}
	if node.NodeType != "compute.Instance" {
		t.Errorf("NodeType = %q, want compute.Instance", node.NodeType)
	}
	if node.NodeCategory != CategoryCompute {
		t.Errorf("NodeCategory = %q, want compute", node.NodeCategory)
	}
	if node.Name != "web-1" {
		t.Errorf("Name = %q, want web-1", node.Name)
	}
	if node.Metadata["shape"] != "VM.Standard3.Flex" {
		t.Errorf("Metadata[shape] = %v, want VM.Standard3.Flex", node.Metadata["shape"])
	}
	if tags, ok := node.Tags["freeformTags"].(map[string]any); !ok || tags["app"] != "media" {
		t.Errorf("Tags[freeformTags] = %v, want app=media", node.Tags["freeformTags"])
	}
}

func TestNodeFromRecordNameFallbacks(t *testing.T) {
	rec := &Record{OCID: "ocid1.vcn.oc1..cccc", ResourceType: "Vcn"}
	if got := NodeFromRecord(rec).Name; got != "Vcn" {
		t.Errorf("Name = %q, want resource type fallback Vcn", got)
	}

	rec = &Record{OCID: "ocid1.vcn.oc1..cccc", ResourceType: "Vcn", Name: "backup-name"}
	if got := NodeFromRecord(rec).Name; got != "backup-name" {
		t.Errorf("Name = %q, want backup-name", got)
	}
}

func TestPlaceholderCompartment(t *testing.T) {
	node := PlaceholderCompartment("ocid1.compartment.oc1..dddd")
	if node.NodeType != "Compartment" || node.NodeCategory != CategoryCompartment {
		t.Errorf("unexpected placeholder typing: %q/%q", node.NodeType, node.NodeCategory)
	}
	if node.Name != node.NodeID {
		t.Errorf("placeholder name = %q, want the OCID", node.Name)
	}
	if node.EnrichStatus != "UNKNOWN" {
		t.Errorf("placeholder enrich status = %q, want UNKNOWN", node.EnrichStatus)
	}
}
