package kg

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"go.uber.org/zap"

	apperrors "aucsafe/backend/pkg/errors"
	"aucsafe/backend/pkg/logger"
)

// Neo4jGraph is a Neo4j-backed knowledge graph. It enforces
// referential integrity: AddEdge fails with a NotFound error when an
// endpoint node does not exist.
type Neo4jGraph struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewNeo4jGraph creates a knowledge graph backed by the given driver
func NewNeo4jGraph(driver neo4j.DriverWithContext) *Neo4jGraph {
	return &Neo4jGraph{
		driver: driver,
		logger: logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (g *Neo4jGraph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// AddNode upserts a node by id
func (g *Neo4jGraph) AddNode(ctx context.Context, node *Node) (string, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (n:Entity {id: $id})
		SET n.type = $type,
			n.name = $name,
			n.content = $content,
			n += $properties
		RETURN n.id AS id
	`
	result, err := session.Run(ctx, query, map[string]any{
		"id":         node.ID,
		"type":       string(node.Type),
		"name":       node.Name,
		"content":    node.Content,
		"properties": map[string]any(node.Properties),
	})
	if err != nil {
		return "", fmt.Errorf("failed to add node: %w", err)
	}

	if result.Next(ctx) {
		if id, ok := result.Record().Get("id"); ok {
			return id.(string), nil
		}
	}
	return node.ID, result.Err()
}

// AddEdge creates a relation between two existing nodes
func (g *Neo4jGraph) AddEdge(ctx context.Context, edge *Edge) (string, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (a:Entity {id: $source_id})
		MATCH (b:Entity {id: $target_id})
		MERGE (a)-[r:RELATES {id: $id}]->(b)
		SET r.type = $type,
			r += $properties
		RETURN r.id AS id
	`
	result, err := session.Run(ctx, query, map[string]any{
		"id":         edge.ID,
		"type":       string(edge.Type),
		"source_id":  edge.SourceID,
		"target_id":  edge.TargetID,
		"properties": map[string]any(edge.Properties),
	})
	if err != nil {
		return "", fmt.Errorf("failed to add edge: %w", err)
	}

	if result.Next(ctx) {
		if id, ok := result.Record().Get("id"); ok {
			return id.(string), nil
		}
	}
	if err := result.Err(); err != nil {
		return "", err
	}

	// MATCH produced no row, so at least one endpoint is missing
	if exists, err := g.nodeExists(ctx, edge.SourceID); err != nil {
		return "", err
	} else if !exists {
		return "", apperrors.NewNodeNotFound(edge.SourceID)
	}
	return "", apperrors.NewNodeNotFound(edge.TargetID)
}

func (g *Neo4jGraph) nodeExists(ctx context.Context, nodeID string) (bool, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `MATCH (n:Entity {id: $id}) RETURN n.id`, map[string]any{"id": nodeID})
	if err != nil {
		return false, err
	}
	return result.Next(ctx), result.Err()
}

// GetNode returns a node by id, or nil when absent
func (g *Neo4jGraph) GetNode(ctx context.Context, nodeID string) (*Node, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `MATCH (n:Entity {id: $id}) RETURN n`, map[string]any{"id": nodeID})
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	if !result.Next(ctx) {
		return nil, result.Err()
	}

	raw, _ := result.Record().Get("n")
	dbNode, ok := raw.(dbtype.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected record type %T for node", raw)
	}
	return nodeFromProps(dbNode.Props), nil
}

// GetNeighbors expands up to depth hops from the start node
func (g *Neo4jGraph) GetNeighbors(ctx context.Context, nodeID string, depth int, edgeTypes []EdgeType) ([]*Node, error) {
	if depth <= 0 {
		return nil, nil
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	// Path bounds cannot be parametrized in Cypher
	query := fmt.Sprintf(`
		MATCH (start:Entity {id: $id})-[rs:RELATES*1..%d]-(neighbor:Entity)
		WHERE neighbor.id <> $id
		  AND ($types = [] OR ALL(r IN rs WHERE r.type IN $types))
		RETURN DISTINCT neighbor
	`, depth)

	types := make([]any, 0, len(edgeTypes))
	for _, t := range edgeTypes {
		types = append(types, string(t))
	}

	result, err := session.Run(ctx, query, map[string]any{"id": nodeID, "types": types})
	if err != nil {
		return nil, fmt.Errorf("failed to get neighbors: %w", err)
	}

	var nodes []*Node
	for result.Next(ctx) {
		raw, _ := result.Record().Get("neighbor")
		if dbNode, ok := raw.(dbtype.Node); ok {
			nodes = append(nodes, nodeFromProps(dbNode.Props))
		}
	}
	return nodes, result.Err()
}

// SearchNodes matches query case-insensitively against name and content
func (g *Neo4jGraph) SearchNodes(ctx context.Context, query string, nodeTypes []NodeType, limit int) ([]*Node, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	cypher := `
		MATCH (n:Entity)
		WHERE (toLower(n.name) CONTAINS toLower($query)
		   OR toLower(n.content) CONTAINS toLower($query))
		  AND ($types = [] OR n.type IN $types)
		RETURN n
		ORDER BY n.id
		LIMIT $limit
	`

	types := make([]any, 0, len(nodeTypes))
	for _, t := range nodeTypes {
		types = append(types, string(t))
	}

	result, err := session.Run(ctx, cypher, map[string]any{
		"query": query,
		"types": types,
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search nodes: %w", err)
	}

	var nodes []*Node
	for result.Next(ctx) {
		raw, _ := result.Record().Get("n")
		if dbNode, ok := raw.(dbtype.Node); ok {
			nodes = append(nodes, nodeFromProps(dbNode.Props))
		}
	}
	return nodes, result.Err()
}

// GetSubgraph returns the seed closure plus every edge whose endpoints
// both lie inside it
func (g *Neo4jGraph) GetSubgraph(ctx context.Context, nodeIDs []string, depth int) ([]*Node, []*Edge, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	var closure []*Node
	seen := make(map[string]struct{})

	collect := func(raw any) {
		dbNode, ok := raw.(dbtype.Node)
		if !ok {
			return
		}
		node := nodeFromProps(dbNode.Props)
		if _, dup := seen[node.ID]; dup {
			return
		}
		seen[node.ID] = struct{}{}
		closure = append(closure, node)
	}

	nodeQuery := `MATCH (n:Entity) WHERE n.id IN $ids RETURN n`
	if depth > 0 {
		nodeQuery = fmt.Sprintf(`
			MATCH (n:Entity) WHERE n.id IN $ids
			OPTIONAL MATCH (n)-[:RELATES*1..%d]-(m:Entity)
			RETURN n, collect(DISTINCT m) AS neighbors
		`, depth)
	}

	result, err := session.Run(ctx, nodeQuery, map[string]any{"ids": nodeIDs})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get subgraph nodes: %w", err)
	}
	for result.Next(ctx) {
		record := result.Record()
		if raw, ok := record.Get("n"); ok {
			collect(raw)
		}
		if raw, ok := record.Get("neighbors"); ok {
			if neighbors, ok := raw.([]any); ok {
				for _, n := range neighbors {
					collect(n)
				}
			}
		}
	}
	if err := result.Err(); err != nil {
		return nil, nil, err
	}

	if len(closure) == 0 {
		return nil, nil, nil
	}

	closureIDs := make([]any, 0, len(closure))
	for _, n := range closure {
		closureIDs = append(closureIDs, n.ID)
	}

	edgeResult, err := session.Run(ctx, `
		MATCH (a:Entity)-[r:RELATES]->(b:Entity)
		WHERE a.id IN $ids AND b.id IN $ids
		RETURN r, a.id AS source_id, b.id AS target_id
	`, map[string]any{"ids": closureIDs})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get subgraph edges: %w", err)
	}

	var edges []*Edge
	for edgeResult.Next(ctx) {
		record := edgeResult.Record()
		raw, _ := record.Get("r")
		rel, ok := raw.(dbtype.Relationship)
		if !ok {
			continue
		}
		sourceID, _ := record.Get("source_id")
		targetID, _ := record.Get("target_id")
		edges = append(edges, edgeFromProps(rel.Props, sourceID.(string), targetID.(string)))
	}
	return closure, edges, edgeResult.Err()
}

func nodeFromProps(props map[string]any) *Node {
	node := &Node{
		ID:         stringProp(props, "id"),
		Type:       ParseNodeType(stringProp(props, "type")),
		Name:       stringProp(props, "name"),
		Content:    stringProp(props, "content"),
		Properties: Properties{},
	}
	for k, v := range props {
		switch k {
		case "id", "type", "name", "content":
		default:
			node.Properties[k] = v
		}
	}
	return node
}

func edgeFromProps(props map[string]any, sourceID, targetID string) *Edge {
	edge := &Edge{
		ID:         stringProp(props, "id"),
		Type:       EdgeType(stringProp(props, "type")),
		SourceID:   sourceID,
		TargetID:   targetID,
		Properties: Properties{},
	}
	for k, v := range props {
		switch k {
		case "id", "type":
		default:
			edge.Properties[k] = v
		}
	}
	return edge
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}
