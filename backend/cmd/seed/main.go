package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"aucsafe/backend/internal/kg"
	"aucsafe/backend/pkg/config"
	"aucsafe/backend/pkg/logger"
)

type seedNode struct {
	id      string
	typ     kg.NodeType
	name    string
	content string
}

type seedEdge struct {
	id       string
	typ      kg.EdgeType
	sourceID string
	targetID string
}

var seedNodes = []seedNode{
	{"concept-malso", kg.NodeTypeConcept, "말소기준권리", "경매로 소멸하는 권리와 인수되는 권리를 가르는 기준이 되는 권리입니다. 최선순위 근저당권, 저당권, 압류, 가압류, 담보가등기 중 가장 빠른 것이 기준이 됩니다."},
	{"concept-daehang", kg.NodeTypeConcept, "대항력", "임차인이 제3자에게 임차권을 주장할 수 있는 힘입니다. 주택 인도와 전입신고를 마친 다음 날부터 발생합니다."},
	{"concept-usun", kg.NodeTypeConcept, "우선변제권", "보증금을 후순위 권리자보다 먼저 배당받을 수 있는 권리입니다. 대항요건과 확정일자를 갖추면 발생합니다."},
	{"concept-baedang", kg.NodeTypeConcept, "배당", "매각대금을 권리 순위에 따라 채권자에게 나누어 주는 절차입니다."},
	{"right-geunjeodang", kg.NodeTypeRight, "근저당권", "계속적 거래에서 발생하는 불특정 채권을 채권최고액 한도로 담보하는 저당권입니다. 말소기준권리가 될 수 있습니다."},
	{"right-jeonse", kg.NodeTypeRight, "전세권", "전세금을 지급하고 타인의 부동산을 사용, 수익하는 물권입니다. 말소기준권리보다 선순위이면 매수인이 인수할 수 있습니다."},
	{"restriction-apryu", kg.NodeTypeRestriction, "압류", "채권 집행을 위해 채무자의 재산 처분을 금지하는 처분입니다. 말소기준권리가 될 수 있습니다."},
	{"restriction-gaapryu", kg.NodeTypeRestriction, "가압류", "금전채권의 집행을 보전하기 위해 미리 재산을 묶어 두는 처분입니다."},
	{"registry-deunggibu", kg.NodeTypeRegistry, "등기부등본", "부동산의 권리관계를 공시하는 장부입니다. 표제부, 갑구, 을구로 구성됩니다."},
	{"registry-gapgu", kg.NodeTypeRegistry, "갑구", "소유권에 관한 사항이 기재됩니다. 압류, 가압류, 가처분, 경매개시결정도 갑구에 기재됩니다."},
	{"registry-eulgu", kg.NodeTypeRegistry, "을구", "소유권 이외의 권리가 기재됩니다. 근저당권, 전세권, 지상권 등이 해당합니다."},
	{"auction-nakchal", kg.NodeTypeAuction, "낙찰", "경매에서 최고가 매수신고인으로 결정되는 것입니다. 낙찰 후 매각허가결정과 잔금 납부를 거쳐 소유권을 취득합니다."},
	{"auction-yuchal", kg.NodeTypeAuction, "유찰", "입찰자가 없어 매각이 되지 않는 것입니다. 유찰되면 최저매각가격이 낮아진 상태로 다시 진행됩니다."},
}

var seedEdges = []seedEdge{
	{"edge-geunjeodang-malso", kg.EdgeTypeRelatedTo, "right-geunjeodang", "concept-malso"},
	{"edge-apryu-malso", kg.EdgeTypeRelatedTo, "restriction-apryu", "concept-malso"},
	{"edge-jeonse-malso", kg.EdgeTypeRelatedTo, "right-jeonse", "concept-malso"},
	{"edge-daehang-usun", kg.EdgeTypeRelatedTo, "concept-daehang", "concept-usun"},
	{"edge-usun-baedang", kg.EdgeTypeRelatedTo, "concept-usun", "concept-baedang"},
	{"edge-geunjeodang-eulgu", kg.EdgeTypeRefersTo, "right-geunjeodang", "registry-eulgu"},
	{"edge-jeonse-eulgu", kg.EdgeTypeRefersTo, "right-jeonse", "registry-eulgu"},
	{"edge-apryu-gapgu", kg.EdgeTypeRefersTo, "restriction-apryu", "registry-gapgu"},
	{"edge-gaapryu-gapgu", kg.EdgeTypeRefersTo, "restriction-gaapryu", "registry-gapgu"},
	{"edge-gapgu-deunggibu", kg.EdgeTypeRelatedTo, "registry-gapgu", "registry-deunggibu"},
	{"edge-eulgu-deunggibu", kg.EdgeTypeRelatedTo, "registry-eulgu", "registry-deunggibu"},
}

func main() {
	reset := flag.Bool("reset", false, "Delete existing entities before seeding")
	flag.Parse()

	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting knowledge graph seeding...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if cfg.GraphStoreType != "neo4j" {
		log.Error("Seeding requires a persistent graph store", zap.String("graph_store", cfg.GraphStoreType))
		os.Exit(1)
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	if *reset {
		log.Info("Resetting existing entities...")
		session := driver.NewSession(ctx, neo4j.SessionConfig{})
		_, err := session.Run(ctx, "MATCH (n:Entity) DETACH DELETE n", nil)
		if closeErr := session.Close(ctx); closeErr != nil {
			log.Warn("Failed to close session", zap.Error(closeErr))
		}
		if err != nil {
			log.Fatal("Failed to reset entities", zap.Error(err))
		}
	}

	graph := kg.NewNeo4jGraph(driver)

	for _, n := range seedNodes {
		node := &kg.Node{ID: n.id, Type: n.typ, Name: n.name, Content: n.content}
		if _, err := graph.AddNode(ctx, node); err != nil {
			log.Fatal("Failed to add node", zap.String("id", n.id), zap.Error(err))
		}
	}
	log.Info("Seeded nodes", zap.Int("count", len(seedNodes)))

	for _, e := range seedEdges {
		edge := &kg.Edge{ID: e.id, Type: e.typ, SourceID: e.sourceID, TargetID: e.targetID}
		if _, err := graph.AddEdge(ctx, edge); err != nil {
			log.Fatal("Failed to add edge", zap.String("id", e.id), zap.Error(err))
		}
	}
	log.Info("Seeded edges", zap.Int("count", len(seedEdges)))

	log.Info("Knowledge graph seeding complete")
}
