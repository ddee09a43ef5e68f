package graph

// Relation types emitted by the builder and the derivation engine.
const (
	RelationInCompartment    = "IN_COMPARTMENT"
	RelationInVcn            = "IN_VCN"
	RelationInSubnet         = "IN_SUBNET"
	RelationUsesRouteTable   = "USES_ROUTE_TABLE"
	RelationUsesSecurityList = "USES_SECURITY_LIST"
	RelationUsesNsg          = "USES_NSG"
	RelationAttachedToDrg    = "ATTACHED_TO_DRG"
	RelationAttachedVolume   = "ATTACHED_VOLUME"
	RelationProtectsVnic     = "PROTECTS_VNIC"
	RelationIamScope         = "IAM_SCOPE"
	RelationRoutesPrivate    = "ROUTES_TO_PRIVATE_IP"
	RelationResolvesPrivate  = "RESOLVES_TO_PRIVATE_IP"
	RelationResolvesPublic   = "RESOLVES_TO_PUBLIC_IP"
)

// Node categories derived from the resource type.
const (
	CategoryCompute     = "compute"
	CategoryNetwork     = "network"
	CategorySecurity    = "security"
	CategoryCompartment = "compartment"
	CategoryOther       = "other"
)

var computeTypes = map[string]bool{
	"Instance":              true,
	"Image":                 true,
	"BootVolume":            true,
	"BlockVolume":           true,
	"InstanceConfiguration": true,
	"InstancePool":          true,
}

var networkTypes = map[string]bool{
	"Vcn":                  true,
	"Subnet":               true,
	"Vnic":                 true,
	"NetworkSecurityGroup": true,
	"SecurityList":         true,
	"RouteTable":           true,
	"InternetGateway":      true,
	"NatGateway":           true,
	"ServiceGateway":       true,
	"DhcpOptions":          true,
}

var securityTypes = map[string]bool{
	"Bastion":          true,
	"Vault":            true,
	"Secret":           true,
	"CloudGuardTarget": true,
}

// Types that connect a VCN to the outside world.
var gatewayTypes = map[string]bool{
	"InternetGateway":         true,
	"NatGateway":              true,
	"ServiceGateway":          true,
	"Drg":                     true,
	"DrgAttachment":           true,
	"VirtualCircuit":          true,
	"IPSecConnection":         true,
	"Cpe":                     true,
	"LocalPeeringGateway":     true,
	"RemotePeeringConnection": true,
	"CrossConnect":            true,
	"CrossConnectGroup":       true,
}

// IsGateway reports whether a node type names a network edge resource.
func IsGateway(nodeType string) bool {
	return gatewayTypes[BareType(nodeType)]
}

// Node is one resource in the tenancy graph, keyed by its OCID.
type Node struct {
	NodeID        string         `json:"nodeId"`
	NodeType      string         `json:"nodeType"`
	NodeCategory  string         `json:"nodeCategory"`
	Name          string         `json:"name"`
	Region        string         `json:"region"`
	CompartmentID string         `json:"compartmentId"`
	Metadata      map[string]any `json:"metadata"`
	Tags          map[string]any `json:"tags"`
	EnrichStatus  string         `json:"enrichStatus"`
	EnrichError   string         `json:"enrichError"`
}

// Edge is a typed relationship between two nodes. Endpoint types and region
// are denormalized at creation time so consumers never need a join.
type Edge struct {
	SourceOCID   string `json:"sourceOcid"`
	TargetOCID   string `json:"targetOcid"`
	RelationType string `json:"relationType"`
	SourceType   string `json:"sourceType"`
	TargetType   string `json:"targetType"`
	Region       string `json:"region"`
}

// Graph bundles the nodes and edges of one build for export.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Relationship is a pre-resolved edge tuple carried on an input record.
type Relationship struct {
	SourceOCID   string `json:"source_ocid"`
	RelationType string `json:"relation_type"`
	TargetOCID   string `json:"target_ocid"`
}

// Record is one normalized discovery/enrichment record as read from the
// input JSONL stream. The enrichment payload lives under Details["metadata"].
type Record struct {
	OCID           string         `json:"ocid"`
	ResourceType   string         `json:"resourceType"`
	DisplayName    string         `json:"displayName"`
	Name           string         `json:"name"`
	CompartmentID  string         `json:"compartmentId"`
	Region         string         `json:"region"`
	LifecycleState string         `json:"lifecycleState"`
	TimeCreated    string         `json:"timeCreated"`
	DefinedTags    map[string]any `json:"definedTags"`
	FreeformTags   map[string]any `json:"freeformTags"`
	CollectedAt    string         `json:"collectedAt"`
	EnrichStatus   string         `json:"enrichStatus"`
	EnrichError    string         `json:"enrichError"`
	Details        map[string]any `json:"details"`
	Relationships  []Relationship `json:"relationships"`
}

// Metadata returns the enrichment payload of the record, or an empty map.
func (r *Record) Metadata() map[string]any {
	if r.Details == nil {
		return map[string]any{}
	}
	if meta, ok := r.Details["metadata"].(map[string]any); ok && meta != nil {
		return meta
	}
	return map[string]any{}
}

// CategoryOf maps a bare resource type to its node category.
func CategoryOf(resourceType string) string {
	switch {
	case computeTypes[resourceType]:
		return CategoryCompute
	case networkTypes[resourceType]:
		return CategoryNetwork
	case securityTypes[resourceType]:
		return CategorySecurity
	case resourceType == "Compartment":
		return CategoryCompartment
	default:
		return CategoryOther
	}
}

// TypeOf returns the category-prefixed node type for a bare resource type.
// Types outside the tracked categories keep the raw resource type.
func TypeOf(resourceType string) string {
	switch category := CategoryOf(resourceType); category {
	case CategoryCompute, CategoryNetwork, CategorySecurity:
		return category + "." + resourceType
	default:
		return resourceType
	}
}

// BareType strips the category prefix from a node type.
func BareType(nodeType string) string {
	for i := len(nodeType) - 1; i >= 0; i-- {
		if nodeType[i] == '.' {
			return nodeType[i+1:]
		}
	}
	return nodeType
}

// NodeFromRecord converts an input record into its graph node.
func NodeFromRecord(rec *Record) Node {
	resourceType := rec.ResourceType
	if resourceType == "" {
		resourceType = "Unknown"
	}
	return Node{
		NodeID:        rec.OCID,
		NodeType:      TypeOf(resourceType),
		NodeCategory:  CategoryOf(resourceType),
		Name:          recordLabel(rec),
		Region:        rec.Region,
		CompartmentID: rec.CompartmentID,
		Metadata:      rec.Metadata(),
		Tags: map[string]any{
			"definedTags":  rec.DefinedTags,
			"freeformTags": rec.FreeformTags,
		},
		EnrichStatus: rec.EnrichStatus,
		EnrichError:  rec.EnrichError,
	}
}

// PlaceholderCompartment builds a stand-in node for a compartment that was
// referenced but never discovered. Its name is the OCID so projections can
// shorten it for display.
func PlaceholderCompartment(ocid string) Node {
	return Node{
		NodeID:       ocid,
		NodeType:     "Compartment",
		NodeCategory: CategoryCompartment,
		Name:         ocid,
		Metadata:     map[string]any{},
		Tags:         map[string]any{},
		EnrichStatus: "UNKNOWN",
	}
}

func recordLabel(rec *Record) string {
	if rec.DisplayName != "" {
		return rec.DisplayName
	}
	if rec.Name != "" {
		return rec.Name
	}
	if rec.ResourceType != "" {
		return rec.ResourceType
	}
	return rec.OCID
}
