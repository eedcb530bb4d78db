package kg

import "context"

// NodeType classifies nodes in the knowledge graph
type NodeType string

const (
	NodeTypeProperty    NodeType = "property"    // 부동산 물건
	NodeTypeRegistry    NodeType = "registry"    // 등기부등본
	NodeTypeOwner       NodeType = "owner"       // 소유자
	NodeTypeRight       NodeType = "right"       // 권리 (저당권, 전세권 등)
	NodeTypeRestriction NodeType = "restriction" // 제한사항
	NodeTypeCourt       NodeType = "court"       // 법원
	NodeTypeAuction     NodeType = "auction"     // 경매 정보
	NodeTypeLocation    NodeType = "location"    // 위치 정보
	NodeTypeDocument    NodeType = "document"    // 문서
	NodeTypeConcept     NodeType = "concept"     // 개념/용어
)

// NodeTypes lists all valid node types
var NodeTypes = []NodeType{
	NodeTypeProperty,
	NodeTypeRegistry,
	NodeTypeOwner,
	NodeTypeRight,
	NodeTypeRestriction,
	NodeTypeCourt,
	NodeTypeAuction,
	NodeTypeLocation,
	NodeTypeDocument,
	NodeTypeConcept,
}

// ParseNodeType returns the node type for a tag, falling back to concept
// for unrecognized values.
func ParseNodeType(s string) NodeType {
	for _, t := range NodeTypes {
		if string(t) == s {
			return t
		}
	}
	return NodeTypeConcept
}

// EdgeType classifies edges in the knowledge graph
type EdgeType string

const (
	EdgeTypeHasRegistry    EdgeType = "has_registry"    // 부동산 -> 등기부등본
	EdgeTypeOwnedBy        EdgeType = "owned_by"        // 부동산 -> 소유자
	EdgeTypeHasRight       EdgeType = "has_right"       // 등기부등본 -> 권리
	EdgeTypeHasRestriction EdgeType = "has_restriction" // 등기부등본 -> 제한사항
	EdgeTypeLocatedIn      EdgeType = "located_in"      // 부동산 -> 위치
	EdgeTypeAuctionedAt    EdgeType = "auctioned_at"    // 부동산 -> 법원
	EdgeTypeRelatedTo      EdgeType = "related_to"      // 일반적인 관계
	EdgeTypeDefinedAs      EdgeType = "defined_as"      // 용어 정의
	EdgeTypeRefersTo       EdgeType = "refers_to"       // 참조 관계
)

// Properties is a property map restricted to scalar values
// (string, int, float64, bool) to keep serialization unambiguous.
type Properties map[string]any

// Node is a typed entity in the knowledge graph
type Node struct {
	ID         string     `json:"id"`
	Type       NodeType   `json:"type"`
	Name       string     `json:"name"`
	Properties Properties `json:"properties,omitempty"`
	Content    string     `json:"content,omitempty"`
}

// Edge is a typed relation between two nodes
type Edge struct {
	ID         string     `json:"id"`
	Type       EdgeType   `json:"type"`
	SourceID   string     `json:"source_id"`
	TargetID   string     `json:"target_id"`
	Properties Properties `json:"properties,omitempty"`
}

// GraphEntity is an extraction result not yet persisted. It becomes a
// Node only when explicitly added to a graph.
type GraphEntity struct {
	Name       string     `json:"name"`
	Type       NodeType   `json:"type"`
	Properties Properties `json:"properties,omitempty"`
}

// KnowledgeGraph is the capability interface for graph backends.
//
// Referential-integrity policy is a backend choice: a
// consistency-enforcing backend fails with a NotFound error when
// AddEdge references a missing node; a best-effort backend accepts
// dangling endpoints and resolves them lazily. Either way GetSubgraph
// never returns an edge whose endpoint is absent from its own node
// result.
type KnowledgeGraph interface {
	AddNode(ctx context.Context, node *Node) (string, error)
	AddEdge(ctx context.Context, edge *Edge) (string, error)
	GetNode(ctx context.Context, nodeID string) (*Node, error)
	// GetNeighbors expands breadth-first up to depth hops, never
	// revisiting a node and never returning the start node itself.
	// A non-empty edgeTypes filter excludes edges of other types
	// before following them.
	GetNeighbors(ctx context.Context, nodeID string, depth int, edgeTypes []EdgeType) ([]*Node, error)
	// SearchNodes matches query case-insensitively against node name
	// and content, optionally restricted to nodeTypes, capped at limit.
	// Iteration order is deterministic for a fixed store state.
	SearchNodes(ctx context.Context, query string, nodeTypes []NodeType, limit int) ([]*Node, error)
	// GetSubgraph returns the union of the seed nodes and their
	// depth-bounded neighbor closures, plus every edge whose both
	// endpoints lie in that closure.
	GetSubgraph(ctx context.Context, nodeIDs []string, depth int) ([]*Node, []*Edge, error)
}
