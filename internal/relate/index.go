package relate

import (
	"net/netip"
	"sort"

	"tenancy-graphx/internal/graph"
)

// normalizeIP maps an address to its canonical text form so that index
// keys and scanned metadata values compare equal regardless of how the
// source spelled them. Unparseable input yields the empty string.
func normalizeIP(s string) string {
	if s == "" {
		return ""
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return addr.String()
}

// relationshipIndex holds the lookup tables the derivation rules need.
// It is built in one pass over the records and discarded after Derive
// returns.
type relationshipIndex struct {
	known             map[string]bool
	typeByOCID        map[string]string
	compartmentByName map[string]string
	vnicsBySubnet     map[string][]string
	byPrivateIP       map[string]string
	byPublicIP        map[string]string
	vcnsByDrg         map[string][]string
}

func buildIndex(records []graph.Record) *relationshipIndex {
	idx := &relationshipIndex{
		known:             make(map[string]bool, len(records)),
		typeByOCID:        make(map[string]string, len(records)),
		compartmentByName: make(map[string]string),
		vnicsBySubnet:     make(map[string][]string),
		byPrivateIP:       make(map[string]string),
		byPublicIP:        make(map[string]string),
		vcnsByDrg:         make(map[string][]string),
	}
	for _, rec := range records {
		if rec.OCID == "" {
			continue
		}
		idx.known[rec.OCID] = true
		idx.typeByOCID[rec.OCID] = graph.TypeOf(rec.ResourceType)

		meta := rec.Metadata()
		switch rec.ResourceType {
		case "Compartment":
			name := rec.DisplayName
			if name == "" {
				name = rec.Name
			}
			if name != "" {
				idx.compartmentByName[name] = rec.OCID
			}
		case "Vnic":
			if subnet := getString(meta, "subnet_id"); subnet != "" {
				idx.vnicsBySubnet[subnet] = append(idx.vnicsBySubnet[subnet], rec.OCID)
			}
			if ip := normalizeIP(getString(meta, "private_ip")); ip != "" {
				idx.byPrivateIP[ip] = rec.OCID
			}
			if ip := normalizeIP(getString(meta, "public_ip")); ip != "" {
				idx.byPublicIP[ip] = rec.OCID
			}
		case "PrivateIp":
			if ip := normalizeIP(getString(meta, "ip_address")); ip != "" {
				idx.byPrivateIP[ip] = rec.OCID
			}
		case "PublicIp":
			if ip := normalizeIP(getString(meta, "ip_address")); ip != "" {
				idx.byPublicIP[ip] = rec.OCID
			}
		case "DrgAttachment":
			drg := getString(meta, "drg_id")
			vcn := getString(meta, "vcn_id")
			if drg != "" && vcn != "" {
				idx.vcnsByDrg[drg] = append(idx.vcnsByDrg[drg], vcn)
			}
		}
	}
	for _, vnics := range idx.vnicsBySubnet {
		sort.Strings(vnics)
	}
	for _, vcns := range idx.vcnsByDrg {
		sort.Strings(vcns)
	}
	return idx
}

func (idx *relationshipIndex) typeOf(ocid string) string {
	return idx.typeByOCID[ocid]
}
