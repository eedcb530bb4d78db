package graphrag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aucsafe/backend/internal/kg"
	"aucsafe/backend/internal/llm"
	"aucsafe/backend/pkg/logger"
)

const extractionSystemPrompt = `당신은 부동산 경매 도메인의 엔티티 추출 전문가입니다.
주어진 질문에서 중요한 엔티티(개체)를 추출하세요.

엔티티 유형:
- property: 부동산 물건 (아파트, 빌라, 토지 등)
- registry: 등기부등본 관련
- owner: 소유자
- right: 권리 (저당권, 전세권, 근저당권 등)
- restriction: 제한사항 (압류, 가압류, 가처분 등)
- court: 법원
- auction: 경매 정보
- location: 위치 정보 (지역, 주소)
- concept: 법률/경매 개념 및 용어

JSON 형식으로 응답하세요:
[
    {"name": "엔티티명", "type": "엔티티유형", "properties": {}}
]`

// keywordEntry maps a domain surface term to its node type. Order is
// fixed so fallback extraction is deterministic.
type keywordEntry struct {
	keyword  string
	nodeType kg.NodeType
}

var domainKeywords = []keywordEntry{
	// Rights
	{"저당권", kg.NodeTypeRight},
	{"근저당권", kg.NodeTypeRight},
	{"전세권", kg.NodeTypeRight},
	{"지상권", kg.NodeTypeRight},
	{"임차권", kg.NodeTypeRight},

	// Restrictions
	{"압류", kg.NodeTypeRestriction},
	{"가압류", kg.NodeTypeRestriction},
	{"가처분", kg.NodeTypeRestriction},
	{"경매개시", kg.NodeTypeRestriction},

	// Property types
	{"아파트", kg.NodeTypeProperty},
	{"빌라", kg.NodeTypeProperty},
	{"오피스텔", kg.NodeTypeProperty},
	{"토지", kg.NodeTypeProperty},
	{"상가", kg.NodeTypeProperty},
	{"주택", kg.NodeTypeProperty},

	// Registry
	{"등기부등본", kg.NodeTypeRegistry},
	{"등기부", kg.NodeTypeRegistry},
	{"갑구", kg.NodeTypeRegistry},
	{"을구", kg.NodeTypeRegistry},
	{"표제부", kg.NodeTypeRegistry},

	// Auction
	{"경매", kg.NodeTypeAuction},
	{"입찰", kg.NodeTypeAuction},
	{"낙찰", kg.NodeTypeAuction},
	{"유찰", kg.NodeTypeAuction},
	{"매각", kg.NodeTypeAuction},

	// Concepts
	{"말소기준권리", kg.NodeTypeConcept},
	{"배당", kg.NodeTypeConcept},
	{"대항력", kg.NodeTypeConcept},
	{"우선변제권", kg.NodeTypeConcept},
	{"인수", kg.NodeTypeConcept},
	{"소멸", kg.NodeTypeConcept},
}

// Result is the outcome of a graph retrieval
type Result struct {
	Nodes    []*kg.Node
	Edges    []*kg.Edge
	Query    string
	Context  string
	Entities []*kg.GraphEntity
}

// RetrieveOptions overrides the retriever defaults for one call
type RetrieveOptions struct {
	MaxDepth  int
	MaxNodes  int
	NodeTypes []kg.NodeType
}

// Retriever composes entity extraction and graph traversal into
// query-to-context. The LLM client is optional; without it, extraction
// uses the keyword dictionary only.
type Retriever struct {
	graph    kg.KnowledgeGraph
	llm      llm.Client
	maxDepth int
	maxNodes int
	logger   *zap.Logger
}

// NewRetriever creates a graph retriever with the given defaults
func NewRetriever(graph kg.KnowledgeGraph, client llm.Client, maxDepth, maxNodes int) *Retriever {
	return &Retriever{
		graph:    graph,
		llm:      client,
		maxDepth: maxDepth,
		maxNodes: maxNodes,
		logger:   logger.Get(),
	}
}

// ExtractEntities extracts domain entities from a query. It asks the
// LLM for a structured extraction when one is configured; any failure
// falls back to the keyword dictionary.
func (r *Retriever) ExtractEntities(ctx context.Context, query string) []*kg.GraphEntity {
	if r.llm == nil {
		return keywordEntities(query)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: extractionSystemPrompt},
		{Role: llm.RoleUser, Content: "다음 질문에서 엔티티를 추출하세요:\n\n" + query},
	}

	response, err := r.llm.Generate(ctx, messages, 0.1, 1024)
	if err != nil {
		r.logger.Warn("Entity extraction LLM call failed, using keyword fallback", zap.Error(err))
		return keywordEntities(query)
	}

	entities, err := parseEntities(response.Content)
	if err != nil {
		r.logger.Warn("Entity extraction parse failed, using keyword fallback", zap.Error(err))
		return keywordEntities(query)
	}

	return entities
}

func parseEntities(content string) ([]*kg.GraphEntity, error) {
	// Models often wrap JSON in a markdown fence
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw []struct {
		Name       string         `json:"name"`
		Type       string         `json:"type"`
		Properties map[string]any `json:"properties"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	entities := make([]*kg.GraphEntity, 0, len(raw))
	for _, e := range raw {
		properties := kg.Properties(e.Properties)
		if properties == nil {
			properties = kg.Properties{}
		}
		entities = append(entities, &kg.GraphEntity{
			Name:       e.Name,
			Type:       kg.ParseNodeType(e.Type),
			Properties: properties,
		})
	}
	return entities, nil
}

// keywordEntities is the deterministic fallback extraction
func keywordEntities(query string) []*kg.GraphEntity {
	var entities []*kg.GraphEntity
	for _, entry := range domainKeywords {
		if strings.Contains(query, entry.keyword) {
			entities = append(entities, &kg.GraphEntity{
				Name:       entry.keyword,
				Type:       entry.nodeType,
				Properties: kg.Properties{},
			})
		}
	}
	return entities
}

// Retrieve extracts entities, searches the graph for matching nodes,
// expands their subgraph and renders the result as text context
func (r *Retriever) Retrieve(ctx context.Context, query string, opts *RetrieveOptions) (*Result, error) {
	depth := r.maxDepth
	limit := r.maxNodes
	var typeFilter []kg.NodeType
	if opts != nil {
		if opts.MaxDepth > 0 {
			depth = opts.MaxDepth
		}
		if opts.MaxNodes > 0 {
			limit = opts.MaxNodes
		}
		typeFilter = opts.NodeTypes
	}

	entities := r.ExtractEntities(ctx, query)

	foundNodes := make(map[string]*kg.Node)
	var nodeOrder []string
	addNode := func(n *kg.Node) {
		if _, ok := foundNodes[n.ID]; ok {
			return
		}
		foundNodes[n.ID] = n
		nodeOrder = append(nodeOrder, n.ID)
	}

	// Search by entity names with a per-entity result budget
	entityCount := len(entities)
	if entityCount > 0 {
		budget := limit / entityCount
		if budget < 1 {
			budget = 1
		}
		for _, entity := range entities {
			searchTypes := []kg.NodeType{entity.Type}
			if len(typeFilter) > 0 {
				searchTypes = typeFilter
			}
			nodes, err := r.graph.SearchNodes(ctx, entity.Name, searchTypes, budget)
			if err != nil {
				return nil, fmt.Errorf("failed to search nodes for entity %q: %w", entity.Name, err)
			}
			for _, node := range nodes {
				addNode(node)
			}
		}
	}

	// General search fallback when entity search yielded nothing
	if len(foundNodes) == 0 {
		nodes, err := r.graph.SearchNodes(ctx, query, typeFilter, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to search nodes: %w", err)
		}
		for _, node := range nodes {
			addNode(node)
		}
	}

	edges := make(map[string]*kg.Edge)
	var edgeOrder []string

	if len(foundNodes) > 0 {
		seedIDs := nodeOrder
		if len(seedIDs) > limit {
			seedIDs = seedIDs[:limit]
		}

		subNodes, subEdges, err := r.graph.GetSubgraph(ctx, seedIDs, depth)
		if err != nil {
			return nil, fmt.Errorf("failed to get subgraph: %w", err)
		}
		for _, node := range subNodes {
			addNode(node)
		}
		for _, edge := range subEdges {
			if _, ok := edges[edge.ID]; !ok {
				edges[edge.ID] = edge
				edgeOrder = append(edgeOrder, edge.ID)
			}
		}
	}

	// Truncate the final node set to the limit
	if len(nodeOrder) > limit {
		nodeOrder = nodeOrder[:limit]
	}
	nodes := make([]*kg.Node, 0, len(nodeOrder))
	for _, id := range nodeOrder {
		nodes = append(nodes, foundNodes[id])
	}

	edgeList := make([]*kg.Edge, 0, len(edgeOrder))
	for _, id := range edgeOrder {
		edgeList = append(edgeList, edges[id])
	}

	r.logger.Debug("Graph retrieval complete",
		zap.String("query", query),
		zap.Int("entities", len(entities)),
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edgeList)),
	)

	return &Result{
		Nodes:    nodes,
		Edges:    edgeList,
		Query:    query,
		Context:  buildContext(nodes, edgeList),
		Entities: entities,
	}, nil
}

// AddEntity persists an extraction result as a graph node
func (r *Retriever) AddEntity(ctx context.Context, entity *kg.GraphEntity, content string) (string, error) {
	node := &kg.Node{
		ID:         uuid.NewString(),
		Type:       entity.Type,
		Name:       entity.Name,
		Properties: entity.Properties,
		Content:    content,
	}
	return r.graph.AddNode(ctx, node)
}

// AddRelation connects two persisted entities
func (r *Retriever) AddRelation(ctx context.Context, sourceID, targetID string, relationType kg.EdgeType, properties kg.Properties) (string, error) {
	if properties == nil {
		properties = kg.Properties{}
	}
	edge := &kg.Edge{
		ID:         uuid.NewString(),
		Type:       relationType,
		SourceID:   sourceID,
		TargetID:   targetID,
		Properties: properties,
	}
	return r.graph.AddEdge(ctx, edge)
}
