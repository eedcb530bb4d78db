package graphrag

import (
	"fmt"
	"strings"

	"aucsafe/backend/internal/kg"
)

const (
	maxContentLength = 500
	maxContextEdges  = 10
)

var nodeTypeLabels = map[kg.NodeType]string{
	kg.NodeTypeProperty:    "부동산 물건",
	kg.NodeTypeRegistry:    "등기부등본",
	kg.NodeTypeOwner:       "소유자",
	kg.NodeTypeRight:       "권리사항",
	kg.NodeTypeRestriction: "제한사항",
	kg.NodeTypeCourt:       "법원",
	kg.NodeTypeAuction:     "경매정보",
	kg.NodeTypeLocation:    "위치",
	kg.NodeTypeDocument:    "문서",
	kg.NodeTypeConcept:     "관련 개념",
}

var edgeTypeLabels = map[kg.EdgeType]string{
	kg.EdgeTypeHasRegistry:    "등기부등본 보유",
	kg.EdgeTypeOwnedBy:        "소유",
	kg.EdgeTypeHasRight:       "권리 설정",
	kg.EdgeTypeHasRestriction: "제한 설정",
	kg.EdgeTypeLocatedIn:      "위치",
	kg.EdgeTypeAuctionedAt:    "경매 진행",
	kg.EdgeTypeRelatedTo:      "관련",
	kg.EdgeTypeDefinedAs:      "정의",
	kg.EdgeTypeRefersTo:       "참조",
}

// buildContext renders nodes grouped by category, then a relations
// section for edges whose endpoints are both in the node set
func buildContext(nodes []*kg.Node, edges []*kg.Edge) string {
	if len(nodes) == 0 {
		return ""
	}

	// Group nodes by type, preserving first-seen type order
	var typeOrder []kg.NodeType
	nodesByType := make(map[kg.NodeType][]*kg.Node)
	for _, node := range nodes {
		if _, ok := nodesByType[node.Type]; !ok {
			typeOrder = append(typeOrder, node.Type)
		}
		nodesByType[node.Type] = append(nodesByType[node.Type], node)
	}

	var parts []string
	for _, nodeType := range typeOrder {
		label, ok := nodeTypeLabels[nodeType]
		if !ok {
			label = string(nodeType)
		}
		parts = append(parts, "### "+label)

		for _, node := range nodesByType[nodeType] {
			info := "- **" + node.Name + "**"
			if node.Content != "" {
				content := node.Content
				if len([]rune(content)) > maxContentLength {
					content = string([]rune(content)[:maxContentLength]) + "..."
				}
				info += ": " + content
			}
			parts = append(parts, info)
		}

		parts = append(parts, "")
	}

	if len(edges) > 0 {
		nodeMap := make(map[string]*kg.Node, len(nodes))
		for _, node := range nodes {
			nodeMap[node.ID] = node
		}

		var relations []string
		for _, edge := range edges {
			if len(relations) >= maxContextEdges {
				break
			}
			source, okS := nodeMap[edge.SourceID]
			target, okT := nodeMap[edge.TargetID]
			if !okS || !okT {
				continue
			}
			label, ok := edgeTypeLabels[edge.Type]
			if !ok {
				label = string(edge.Type)
			}
			relations = append(relations, fmt.Sprintf("- %s --[%s]--> %s", source.Name, label, target.Name))
		}

		if len(relations) > 0 {
			parts = append(parts, "### 관계")
			parts = append(parts, relations...)
		}
	}

	return strings.Join(parts, "\n")
}
