package relate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenancy-graphx/internal/graph"
)

func rec(ocid, resourceType, displayName string, meta map[string]any) graph.Record {
	r := graph.Record{
		OCID:         ocid,
		ResourceType: resourceType,
		DisplayName:  displayName,
		Region:       "eu-frankfurt-1",
	}
	if meta != nil {
		r.Details = map[string]any{"metadata": meta}
	}
	return r
}

func edgeSet(edges []graph.Edge) map[[3]string]bool {
	out := make(map[[3]string]bool, len(edges))
	for _, e := range edges {
		out[[3]string{e.SourceOCID, e.RelationType, e.TargetOCID}] = true
	}
	return out
}

func TestDeriveContainment(t *testing.T) {
	records := []graph.Record{
		rec("ocid1.vcn.oc1..aaaa", "Vcn", "core", nil),
		rec("ocid1.subnet.oc1..bbbb", "Subnet", "app", map[string]any{"vcn_id": "ocid1.vcn.oc1..aaaa"}),
		rec("ocid1.instance.oc1..cccc", "Instance", "web-1", map[string]any{
			"vcn_id":    "ocid1.vcn.oc1..aaaa",
			"subnet_id": "ocid1.subnet.oc1..bbbb",
		}),
	}
	edges := Derive(records)
	got := edgeSet(edges)

	assert.True(t, got[[3]string{"ocid1.subnet.oc1..bbbb", graph.RelationInVcn, "ocid1.vcn.oc1..aaaa"}])
	assert.True(t, got[[3]string{"ocid1.instance.oc1..cccc", graph.RelationInVcn, "ocid1.vcn.oc1..aaaa"}])
	assert.True(t, got[[3]string{"ocid1.instance.oc1..cccc", graph.RelationInSubnet, "ocid1.subnet.oc1..bbbb"}])
	assert.Len(t, edges, 3)
}

func TestDeriveDropsUnknownEndpoints(t *testing.T) {
	records := []graph.Record{
		rec("ocid1.subnet.oc1..bbbb", "Subnet", "app", map[string]any{
			"vcn_id":         "ocid1.vcn.oc1..missing",
			"route_table_id": "ocid1.routetable.oc1..missing",
		}),
	}
	edges := Derive(records)
	assert.Empty(t, edges)
}

func TestDeriveSubnetRouteAndSecurityLists(t *testing.T) {
	records := []graph.Record{
		rec("ocid1.routetable.oc1..rt", "RouteTable", "rt", nil),
		rec("ocid1.securitylist.oc1..sl1", "SecurityList", "sl1", nil),
		rec("ocid1.securitylist.oc1..sl2", "SecurityList", "sl2", nil),
		rec("ocid1.subnet.oc1..sub", "Subnet", "app", map[string]any{
			"route_table_id":    "ocid1.routetable.oc1..rt",
			"security_list_ids": []any{"ocid1.securitylist.oc1..sl1", "ocid1.securitylist.oc1..sl2"},
		}),
	}
	got := edgeSet(Derive(records))

	assert.True(t, got[[3]string{"ocid1.subnet.oc1..sub", graph.RelationUsesRouteTable, "ocid1.routetable.oc1..rt"}])
	assert.True(t, got[[3]string{"ocid1.subnet.oc1..sub", graph.RelationUsesSecurityList, "ocid1.securitylist.oc1..sl1"}])
	assert.True(t, got[[3]string{"ocid1.subnet.oc1..sub", graph.RelationUsesSecurityList, "ocid1.securitylist.oc1..sl2"}])
}

func TestDeriveNSGFromCamelCaseKeys(t *testing.T) {
	records := []graph.Record{
		rec("ocid1.networksecuritygroup.oc1..nsg", "NetworkSecurityGroup", "nsg", nil),
		rec("ocid1.vnic.oc1..vnic", "Vnic", "vnic", map[string]any{
			"networkSecurityGroupIds": []any{"ocid1.networksecuritygroup.oc1..nsg"},
		}),
	}
	got := edgeSet(Derive(records))
	assert.True(t, got[[3]string{"ocid1.vnic.oc1..vnic", graph.RelationUsesNsg, "ocid1.networksecuritygroup.oc1..nsg"}])
}

func TestDeriveRouteTablePrivateIPTarget(t *testing.T) {
	records := []graph.Record{
		rec("ocid1.routetable.oc1..rt", "RouteTable", "fw-route", map[string]any{
			"route_rules": []any{
				map[string]any{"destination": "0.0.0.0/0", "network_entity_id": "ocid1.privateip.oc1..fw"},
				map[string]any{"destination": "10.0.0.0/16", "network_entity_id": "ocid1.internetgateway.oc1..igw"},
			},
		}),
		rec("ocid1.privateip.oc1..fw", "PrivateIp", "fw-ip", map[string]any{"ip_address": "10.0.1.5"}),
		rec("ocid1.internetgateway.oc1..igw", "InternetGateway", "igw", nil),
	}
	got := edgeSet(Derive(records))

	// Only rules whose target is a discovered PrivateIp become edges.
	assert.True(t, got[[3]string{"ocid1.routetable.oc1..rt", graph.RelationRoutesPrivate, "ocid1.privateip.oc1..fw"}])
	assert.False(t, got[[3]string{"ocid1.routetable.oc1..rt", graph.RelationRoutesPrivate, "ocid1.internetgateway.oc1..igw"}])
}

func TestDeriveDrgAttachment(t *testing.T) {
	records := []graph.Record{
		rec("ocid1.drg.oc1..drg", "Drg", "drg", nil),
		rec("ocid1.vcn.oc1..vcn", "Vcn", "core", nil),
		rec("ocid1.drgattachment.oc1..att", "DrgAttachment", "att", map[string]any{
			"drg_id": "ocid1.drg.oc1..drg",
			"vcn_id": "ocid1.vcn.oc1..vcn",
		}),
	}
	edges := Derive(records)
	got := edgeSet(edges)

	// The attachment record also yields its own IN_VCN edge.
	assert.True(t, got[[3]string{"ocid1.vcn.oc1..vcn", graph.RelationAttachedToDrg, "ocid1.drg.oc1..drg"}])
	assert.True(t, got[[3]string{"ocid1.drgattachment.oc1..att", graph.RelationInVcn, "ocid1.vcn.oc1..vcn"}])
}

func TestDeriveVolumeAttachment(t *testing.T) {
	records := []graph.Record{
		rec("ocid1.instance.oc1..inst", "Instance", "web", nil),
		rec("ocid1.volume.oc1..vol", "BlockVolume", "data", nil),
		rec("ocid1.volumeattachment.oc1..att", "VolumeAttachment", "att", map[string]any{
			"instance_id": "ocid1.instance.oc1..inst",
			"volume_id":   "ocid1.volume.oc1..vol",
		}),
	}
	got := edgeSet(Derive(records))
	assert.True(t, got[[3]string{"ocid1.instance.oc1..inst", graph.RelationAttachedVolume, "ocid1.volume.oc1..vol"}])
}

func TestDeriveFirewallProtectsSubnetVnics(t *testing.T) {
	records := []graph.Record{
		rec("ocid1.subnet.oc1..sub", "Subnet", "dmz", nil),
		rec("ocid1.vnic.oc1..v2", "Vnic", "v2", map[string]any{"subnet_id": "ocid1.subnet.oc1..sub"}),
		rec("ocid1.vnic.oc1..v1", "Vnic", "v1", map[string]any{"subnet_id": "ocid1.subnet.oc1..sub"}),
		rec("ocid1.networkfirewall.oc1..fw", "NetworkFirewall", "fw", map[string]any{
			"subnet_id": "ocid1.subnet.oc1..sub",
		}),
	}
	edges := Derive(records)
	got := edgeSet(edges)

	assert.True(t, got[[3]string{"ocid1.networkfirewall.oc1..fw", graph.RelationProtectsVnic, "ocid1.vnic.oc1..v1"}])
	assert.True(t, got[[3]string{"ocid1.networkfirewall.oc1..fw", graph.RelationProtectsVnic, "ocid1.vnic.oc1..v2"}])
}

func TestDerivePolicyStatements(t *testing.T) {
	records := []graph.Record{
		{
			OCID:         "ocid1.compartment.oc1..owner",
			ResourceType: "Compartment",
			DisplayName:  "security",
		},
		{
			OCID:         "ocid1.compartment.oc1..apps",
			ResourceType: "Compartment",
			DisplayName:  "prod-apps",
		},
		{
			OCID:          "ocid1.policy.oc1..pol",
			ResourceType:  "Policy",
			DisplayName:   "app-admins",
			CompartmentID: "ocid1.compartment.oc1..owner",
			Details: map[string]any{"metadata": map[string]any{
				"statements": []any{
					"Allow group AppAdmins to manage instances in compartment prod-apps",
					"Allow group Auditors to read all-resources in compartment id ocid1.compartment.oc1..owner",
				},
			}},
		},
	}
	edges := Derive(records)
	got := edgeSet(edges)

	assert.True(t, got[[3]string{"ocid1.policy.oc1..pol", graph.RelationIamScope, "ocid1.compartment.oc1..owner"}])
	assert.True(t, got[[3]string{"ocid1.policy.oc1..pol", graph.RelationIamScope, "ocid1.compartment.oc1..apps"}])
}

func TestDeriveDNSResolution(t *testing.T) {
	records := []graph.Record{
		rec("ocid1.privateip.oc1..priv", "PrivateIp", "ip", map[string]any{"ip_address": "10.0.1.5"}),
		rec("ocid1.publicip.oc1..pub", "PublicIp", "ip", map[string]any{"ip_address": "129.146.1.9"}),
		rec("ocid1.dnsrecord.oc1..a", "DnsRecord", "app.example.com", map[string]any{
			"rdata": "10.0.1.5",
		}),
		rec("ocid1.dnsrecord.oc1..b", "DnsRecord", "www.example.com", map[string]any{
			"items": []any{map[string]any{"rdata": "129.146.1.9"}},
		}),
	}
	edges := Derive(records)
	got := edgeSet(edges)

	assert.True(t, got[[3]string{"ocid1.dnsrecord.oc1..a", graph.RelationResolvesPrivate, "ocid1.privateip.oc1..priv"}])
	assert.True(t, got[[3]string{"ocid1.dnsrecord.oc1..b", graph.RelationResolvesPublic, "ocid1.publicip.oc1..pub"}])
}

func TestDeriveSortedAndDeduped(t *testing.T) {
	records := []graph.Record{
		rec("ocid1.vcn.oc1..vcn", "Vcn", "core", nil),
		rec("ocid1.subnet.oc1..b", "Subnet", "b", map[string]any{"vcn_id": "ocid1.vcn.oc1..vcn"}),
		rec("ocid1.subnet.oc1..a", "Subnet", "a", map[string]any{
			"vcn_id": "ocid1.vcn.oc1..vcn",
			// camelCase twin of the same key must not yield a duplicate edge
			"vcnId": "ocid1.vcn.oc1..vcn",
		}),
	}
	edges := Derive(records)
	require.Len(t, edges, 2)
	assert.Equal(t, "ocid1.subnet.oc1..a", edges[0].SourceOCID)
	assert.Equal(t, "ocid1.subnet.oc1..b", edges[1].SourceOCID)
	assert.Equal(t, graph.TypeOf("Subnet"), edges[0].SourceType)
	assert.Equal(t, graph.TypeOf("Vcn"), edges[0].TargetType)
}

func TestGetFieldKeyShapes(t *testing.T) {
	meta := map[string]any{
		"subnet_id":  "snake",
		"routeTable": "camel",
	}
	assert.Equal(t, "snake", getString(meta, "subnet_id"))
	assert.Equal(t, "snake", getString(meta, "subnetId"))
	assert.Equal(t, "camel", getString(meta, "route_table"))
	assert.Equal(t, "", getString(meta, "vcn_id"))
}
