package relate

import (
	"net/netip"
	"regexp"
	"sort"
	"strings"

	"tenancy-graphx/internal/graph"
)

// Resource types whose records carry IAM semantics. They are scoped to
// their owning compartment, and Policy statements are mined for
// compartment references.
var iamTypes = map[string]bool{
	"Policy":       true,
	"DynamicGroup": true,
	"Group":        true,
	"User":         true,
}

// Resource types whose metadata may embed IP addresses that resolve to
// discovered VNICs or IP objects.
var dnsTypes = map[string]bool{
	"DnsRecord":      true,
	"Rrset":          true,
	"SteeringPolicy": true,
	"Zone":           true,
}

var compartmentIDPattern = regexp.MustCompile(`(?i)compartment\s+id\s+(ocid1\.[a-z0-9._-]+)`)
var compartmentNamePattern = regexp.MustCompile(`(?i)compartment\s+([A-Za-z0-9._:-]+)`)

var ipv4Pattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
var ipv6Pattern = regexp.MustCompile(`\b[0-9a-fA-F:]*:[0-9a-fA-F:]+\b`)

type collector struct {
	idx   *relationshipIndex
	seen  map[[3]string]bool
	edges []graph.Edge
}

func (c *collector) emit(source, relation, target string) {
	if source == "" || target == "" || source == target {
		return
	}
	if !c.idx.known[source] || !c.idx.known[target] {
		return
	}
	key := [3]string{source, relation, target}
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.edges = append(c.edges, graph.Edge{
		SourceOCID:   source,
		TargetOCID:   target,
		RelationType: relation,
		SourceType:   c.idx.typeOf(source),
		TargetType:   c.idx.typeOf(target),
	})
}

// Derive walks the records once and extracts relationship edges from
// their metadata. Only edges whose endpoints are both discovered
// resources are kept. The result is sorted by (source, relation,
// target) and free of duplicates.
func Derive(records []graph.Record) []graph.Edge {
	idx := buildIndex(records)
	c := &collector{idx: idx, seen: make(map[[3]string]bool)}

	for _, rec := range records {
		if rec.OCID == "" {
			continue
		}
		meta := rec.Metadata()

		if vcn := getString(meta, "vcn_id"); vcn != "" {
			c.emit(rec.OCID, graph.RelationInVcn, vcn)
		}
		if subnet := getString(meta, "subnet_id"); subnet != "" {
			c.emit(rec.OCID, graph.RelationInSubnet, subnet)
		}
		for _, nsg := range getStringList(meta, "nsg_ids") {
			c.emit(rec.OCID, graph.RelationUsesNsg, nsg)
		}
		for _, nsg := range getStringList(meta, "network_security_group_ids") {
			c.emit(rec.OCID, graph.RelationUsesNsg, nsg)
		}

		switch {
		case rec.ResourceType == "Subnet":
			if rt := getString(meta, "route_table_id"); rt != "" {
				c.emit(rec.OCID, graph.RelationUsesRouteTable, rt)
			}
			for _, sl := range getStringList(meta, "security_list_ids") {
				c.emit(rec.OCID, graph.RelationUsesSecurityList, sl)
			}
		case rec.ResourceType == "RouteTable":
			for _, rule := range getMapList(meta, "route_rules") {
				target := getString(rule, "network_entity_id")
				if target != "" && idx.typeOf(target) == "PrivateIp" {
					c.emit(rec.OCID, graph.RelationRoutesPrivate, target)
				}
			}
		case rec.ResourceType == "DrgAttachment":
			if drg := getString(meta, "drg_id"); drg != "" {
				for _, vcn := range idx.vcnsByDrg[drg] {
					c.emit(vcn, graph.RelationAttachedToDrg, drg)
				}
			}
		case rec.ResourceType == "VolumeAttachment":
			instance := getString(meta, "instance_id")
			volume := getString(meta, "volume_id")
			if instance != "" && volume != "" {
				c.emit(instance, graph.RelationAttachedVolume, volume)
			}
		case rec.ResourceType == "NetworkFirewall":
			if subnet := getString(meta, "subnet_id"); subnet != "" {
				for _, vnic := range idx.vnicsBySubnet[subnet] {
					c.emit(rec.OCID, graph.RelationProtectsVnic, vnic)
				}
			}
		case iamTypes[rec.ResourceType]:
			deriveIAM(c, rec, meta)
		case dnsTypes[rec.ResourceType]:
			deriveDNS(c, rec, meta)
		}
	}

	sort.Slice(c.edges, func(i, j int) bool {
		a, b := c.edges[i], c.edges[j]
		if a.SourceOCID != b.SourceOCID {
			return a.SourceOCID < b.SourceOCID
		}
		if a.RelationType != b.RelationType {
			return a.RelationType < b.RelationType
		}
		return a.TargetOCID < b.TargetOCID
	})
	return c.edges
}

func deriveIAM(c *collector, rec graph.Record, meta map[string]any) {
	if rec.CompartmentID != "" {
		c.emit(rec.OCID, graph.RelationIamScope, rec.CompartmentID)
	}
	if rec.ResourceType != "Policy" {
		return
	}
	var statements []string
	statements = append(statements, getStringList(meta, "statements")...)
	if s := getString(meta, "statements"); s != "" {
		statements = append(statements, s)
	}
	for _, stmt := range statements {
		for _, m := range compartmentIDPattern.FindAllStringSubmatch(stmt, -1) {
			c.emit(rec.OCID, graph.RelationIamScope, strings.TrimRight(m[1], "._-"))
		}
		for _, m := range compartmentNamePattern.FindAllStringSubmatch(stmt, -1) {
			name := m[1]
			if strings.EqualFold(name, "id") {
				continue
			}
			if target, ok := c.idx.compartmentByName[name]; ok {
				c.emit(rec.OCID, graph.RelationIamScope, target)
			}
		}
	}
}

func deriveDNS(c *collector, rec graph.Record, meta map[string]any) {
	walkStrings(meta, func(s string) {
		for _, ip := range scanIPs(s) {
			if target, ok := c.idx.byPrivateIP[ip]; ok {
				c.emit(rec.OCID, graph.RelationResolvesPrivate, target)
			}
			if target, ok := c.idx.byPublicIP[ip]; ok {
				c.emit(rec.OCID, graph.RelationResolvesPublic, target)
			}
		}
	})
}

// walkStrings visits every string in a nested metadata value. Map keys
// are visited in sorted order so edge extraction stays deterministic.
func walkStrings(v any, fn func(string)) {
	switch vv := v.(type) {
	case string:
		fn(vv)
	case []any:
		for _, item := range vv {
			walkStrings(item, fn)
		}
	case map[string]any:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkStrings(vv[k], fn)
		}
	}
}

func scanIPs(s string) []string {
	var out []string
	for _, cand := range ipv4Pattern.FindAllString(s, -1) {
		if addr, err := netip.ParseAddr(cand); err == nil && addr.Is4() {
			out = append(out, addr.String())
		}
	}
	if strings.Contains(s, ":") {
		for _, cand := range ipv6Pattern.FindAllString(s, -1) {
			if !strings.Contains(cand, ":") {
				continue
			}
			if addr, err := netip.ParseAddr(cand); err == nil && addr.Is6() {
				out = append(out, addr.String())
			}
		}
	}
	return out
}
