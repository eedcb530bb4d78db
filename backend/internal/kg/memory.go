package kg

import (
	"context"
	"strings"
	"sync"
)

// MemoryGraph is an in-memory knowledge graph for testing and small
// datasets. Mutation is serialized against concurrent reads so a
// half-inserted edge is never observable through the adjacency index.
type MemoryGraph struct {
	mu        sync.RWMutex
	nodes     map[string]*Node
	edges     map[string]*Edge
	adjacency map[string]map[string]struct{} // node id -> edge ids
	nodeOrder []string                       // insertion order, for deterministic search
	edgeOrder []string
}

// NewMemoryGraph creates an empty in-memory knowledge graph
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		nodes:     make(map[string]*Node),
		edges:     make(map[string]*Edge),
		adjacency: make(map[string]map[string]struct{}),
	}
}

// AddNode adds or replaces a node
func (g *MemoryGraph) AddNode(ctx context.Context, node *Node) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[node.ID]; !exists {
		g.nodeOrder = append(g.nodeOrder, node.ID)
	}
	g.nodes[node.ID] = node
	if _, ok := g.adjacency[node.ID]; !ok {
		g.adjacency[node.ID] = make(map[string]struct{})
	}
	return node.ID, nil
}

// AddEdge adds an edge. Endpoints need not exist yet; a dangling
// endpoint resolves lazily once its node is added.
func (g *MemoryGraph) AddEdge(ctx context.Context, edge *Edge) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.edges[edge.ID]; !exists {
		g.edgeOrder = append(g.edgeOrder, edge.ID)
	}
	g.edges[edge.ID] = edge

	if _, ok := g.adjacency[edge.SourceID]; !ok {
		g.adjacency[edge.SourceID] = make(map[string]struct{})
	}
	if _, ok := g.adjacency[edge.TargetID]; !ok {
		g.adjacency[edge.TargetID] = make(map[string]struct{})
	}
	g.adjacency[edge.SourceID][edge.ID] = struct{}{}
	g.adjacency[edge.TargetID][edge.ID] = struct{}{}

	return edge.ID, nil
}

// GetNode returns a node by id, or nil when absent
func (g *MemoryGraph) GetNode(ctx context.Context, nodeID string) (*Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[nodeID], nil
}

// GetNeighbors expands breadth-first level by level up to depth hops
func (g *MemoryGraph) GetNeighbors(ctx context.Context, nodeID string, depth int, edgeTypes []EdgeType) ([]*Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.neighborsLocked(nodeID, depth, edgeTypes), nil
}

// neighborsLocked is the BFS expansion, for use under g.mu.
// The start node is never part of the result.
func (g *MemoryGraph) neighborsLocked(nodeID string, depth int, edgeTypes []EdgeType) []*Node {
	allowed := make(map[EdgeType]struct{}, len(edgeTypes))
	for _, t := range edgeTypes {
		allowed[t] = struct{}{}
	}

	visited := map[string]struct{}{nodeID: {}}
	currentLevel := []string{nodeID}
	var result []*Node

	for i := 0; i < depth; i++ {
		var nextLevel []string

		for _, nid := range currentLevel {
			for edgeID := range g.adjacency[nid] {
				edge := g.edges[edgeID]
				if edge == nil {
					continue
				}
				if len(allowed) > 0 {
					if _, ok := allowed[edge.Type]; !ok {
						continue
					}
				}

				neighborID := edge.TargetID
				if edge.SourceID != nid {
					neighborID = edge.SourceID
				}

				if _, seen := visited[neighborID]; seen {
					continue
				}
				visited[neighborID] = struct{}{}
				nextLevel = append(nextLevel, neighborID)

				if node := g.nodes[neighborID]; node != nil {
					result = append(result, node)
				}
			}
		}

		currentLevel = nextLevel
	}

	return result
}

// SearchNodes matches query case-insensitively against name and content,
// in insertion order, capped at limit
func (g *MemoryGraph) SearchNodes(ctx context.Context, query string, nodeTypes []NodeType, limit int) ([]*Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	typeFilter := make(map[NodeType]struct{}, len(nodeTypes))
	for _, t := range nodeTypes {
		typeFilter[t] = struct{}{}
	}

	queryLower := strings.ToLower(query)
	var results []*Node

	for _, id := range g.nodeOrder {
		node := g.nodes[id]
		if len(typeFilter) > 0 {
			if _, ok := typeFilter[node.Type]; !ok {
				continue
			}
		}

		if strings.Contains(strings.ToLower(node.Name), queryLower) ||
			strings.Contains(strings.ToLower(node.Content), queryLower) {
			results = append(results, node)
			if len(results) >= limit {
				break
			}
		}
	}

	return results, nil
}

// GetSubgraph returns the depth-bounded closure of the seed set plus
// every edge fully contained in that closure
func (g *MemoryGraph) GetSubgraph(ctx context.Context, nodeIDs []string, depth int) ([]*Node, []*Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	inResult := make(map[string]struct{})
	var nodes []*Node

	addNode := func(n *Node) {
		if _, ok := inResult[n.ID]; ok {
			return
		}
		inResult[n.ID] = struct{}{}
		nodes = append(nodes, n)
	}

	for _, nodeID := range nodeIDs {
		if node := g.nodes[nodeID]; node != nil {
			addNode(node)
		}
		for _, neighbor := range g.neighborsLocked(nodeID, depth, nil) {
			addNode(neighbor)
		}
	}

	var edges []*Edge
	for _, edgeID := range g.edgeOrder {
		edge := g.edges[edgeID]
		if _, ok := inResult[edge.SourceID]; !ok {
			continue
		}
		if _, ok := inResult[edge.TargetID]; !ok {
			continue
		}
		edges = append(edges, edge)
	}

	return nodes, edges, nil
}
