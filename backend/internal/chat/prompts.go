package chat

import "strings"

const systemPromptTemplate = `당신은 부동산 경매 전문 AI 어시스턴트 'AucSafe'입니다.

역할:
- 부동산 경매에 관한 전문적이고 정확한 정보를 제공합니다.
- 등기부등본 분석, 권리분석, 입찰 전략에 대해 조언합니다.
- 복잡한 법률 용어를 이해하기 쉽게 설명합니다.

원칙:
1. 항상 정확하고 신뢰할 수 있는 정보만 제공합니다.
2. 불확실한 내용은 명확히 표시하고, 전문가 상담을 권장합니다.
3. 사용자의 질문에 친절하고 상세하게 답변합니다.
4. 제공된 컨텍스트 정보를 우선적으로 활용하여 답변합니다.

{context_section}

위 컨텍스트 정보를 참고하여 사용자의 질문에 답변해주세요.
컨텍스트에 없는 내용은 일반적인 지식으로 보완하되, 출처가 불분명함을 명시하세요.`

// buildSystemPrompt embeds the combined retrieval context into the
// assistant persona. An empty context leaves the section blank.
func buildSystemPrompt(combinedContext string) string {
	contextSection := ""
	if combinedContext != "" {
		contextSection = "## 참고 정보\n\n" + combinedContext
	}
	return strings.Replace(systemPromptTemplate, "{context_section}", contextSection, 1)
}

var registryPrompts = map[string]string{
	"full":    "다음 등기부등본을 전체적으로 분석해주세요.",
	"rights":  "다음 등기부등본의 권리관계를 분석해주세요.",
	"risks":   "다음 등기부등본에서 주의해야 할 위험 요소를 분석해주세요.",
	"summary": "다음 등기부등본을 요약해주세요.",
}
