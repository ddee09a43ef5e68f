package graph

import "strings"

// Display names for types whose camel-case split would read badly.
var friendlyNames = map[string]string{
	"Vcn":                     "VCN",
	"Drg":                     "DRG",
	"DrgAttachment":           "DRG Attachment",
	"Cpe":                     "Customer Premises Equipment",
	"DhcpOptions":             "DHCP Options",
	"NatGateway":              "NAT Gateway",
	"Vnic":                    "VNIC",
	"VirtualCircuit":          "FastConnect",
	"IPSecConnection":         "VPN Connection",
	"Nsg":                     "NSG",
	"Api":                     "API",
	"ApiGateway":              "API Gateway",
	"AutonomousDatabase":      "Autonomous DB",
	"ExadataVmCluster":        "Exadata VM Cluster",
	"CloudExadataVmCluster":   "Exadata VM Cluster",
	"LogAnalyticsEntity":      "Log Analytics Entity",
	"LogAnalyticsLogGroup":    "Log Analytics Log Group",
	"OkeCluster":              "OKE Cluster",
	"Cluster":                 "OKE Cluster",
	"NodePool":                "OKE Node Pool",
	"RemotePeeringConnection": "Remote Peering Connection",
	"LocalPeeringGateway":     "Local Peering Gateway",
}

// FriendlyType turns a node type into a human-readable label. The
// category prefix is dropped and camel-case words are spaced out unless
// the type has a curated display name.
func FriendlyType(nodeType string) string {
	bare := BareType(nodeType)
	if bare == "" {
		return "Unknown"
	}
	if name, ok := friendlyNames[bare]; ok {
		return name
	}
	return splitCamel(bare)
}

func splitCamel(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if (prev >= 'a' && prev <= 'z') || (prev >= 'A' && prev <= 'Z' && nextLower) || (prev >= '0' && prev <= '9') {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
