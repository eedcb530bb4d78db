package kg

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "aucsafe/backend/pkg/errors"
)

// Tests require a running Neo4j instance
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD environment variables

func createTestDriver() (neo4j.DriverWithContext, error) {
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		uri = "bolt://localhost:7687"
	}
	user := os.Getenv("NEO4J_USER")
	if user == "" {
		user = "neo4j"
	}
	password := os.Getenv("NEO4J_PASSWORD")
	if password == "" {
		password = "password"
	}
	return neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
}

func cleanupTestNodes(ctx context.Context, driver neo4j.DriverWithContext, prefix string) {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	_, _ = session.Run(ctx, "MATCH (n:Entity) WHERE n.id STARTS WITH $prefix DETACH DELETE n", map[string]any{"prefix": prefix})
}

func TestNeo4jGraph_AddAndGetNode(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	prefix := "kgtest-" + time.Now().Format("20060102150405")
	defer cleanupTestNodes(ctx, driver, prefix)

	g := NewNeo4jGraph(driver)

	node := &Node{
		ID:      prefix + "-n1",
		Type:    NodeTypeRight,
		Name:    "근저당권",
		Content: "채권최고액 범위 내에서 담보하는 저당권",
		Properties: Properties{
			"priority": int64(1),
		},
	}

	id, err := g.AddNode(ctx, node)
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	if id != node.ID {
		t.Errorf("Expected id %s, got %s", node.ID, id)
	}

	got, err := g.GetNode(ctx, node.ID)
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected node, got nil")
	}
	if got.Name != node.Name || got.Type != NodeTypeRight {
		t.Errorf("Node mismatch: got %+v", got)
	}
}

func TestNeo4jGraph_AddEdge_MissingEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	prefix := "kgtest-" + time.Now().Format("20060102150405")
	defer cleanupTestNodes(ctx, driver, prefix)

	g := NewNeo4jGraph(driver)

	if _, err := g.AddNode(ctx, &Node{ID: prefix + "-a", Type: NodeTypeProperty, Name: "아파트"}); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	_, err = g.AddEdge(ctx, &Edge{
		ID:       prefix + "-e",
		Type:     EdgeTypeHasRegistry,
		SourceID: prefix + "-a",
		TargetID: prefix + "-missing",
	})
	var notFound *apperrors.ErrNodeNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("Expected node-not-found error, got %v", err)
	}
}

func TestNeo4jGraph_Subgraph(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	prefix := "kgtest-" + time.Now().Format("20060102150405")
	defer cleanupTestNodes(ctx, driver, prefix)

	g := NewNeo4jGraph(driver)

	for _, n := range []*Node{
		{ID: prefix + "-p", Type: NodeTypeProperty, Name: "빌라"},
		{ID: prefix + "-r", Type: NodeTypeRegistry, Name: "등기부등본"},
	} {
		if _, err := g.AddNode(ctx, n); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
	}
	if _, err := g.AddEdge(ctx, &Edge{
		ID:       prefix + "-e",
		Type:     EdgeTypeHasRegistry,
		SourceID: prefix + "-p",
		TargetID: prefix + "-r",
	}); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}

	nodes, edges, err := g.GetSubgraph(ctx, []string{prefix + "-p"}, 1)
	if err != nil {
		t.Fatalf("GetSubgraph failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Errorf("Expected 2 nodes, got %d", len(nodes))
	}
	if len(edges) != 1 {
		t.Errorf("Expected 1 edge, got %d", len(edges))
	}

	inResult := make(map[string]struct{})
	for _, n := range nodes {
		inResult[n.ID] = struct{}{}
	}
	for _, e := range edges {
		if _, ok := inResult[e.SourceID]; !ok {
			t.Errorf("Edge source %s outside node set", e.SourceID)
		}
		if _, ok := inResult[e.TargetID]; !ok {
			t.Errorf("Edge target %s outside node set", e.TargetID)
		}
	}
}
