package chat

import "strings"

// suggestionEntry pairs a trigger keyword with follow-up questions.
// Order is fixed so suggestion output is deterministic.
type suggestionEntry struct {
	keyword     string
	suggestions []string
}

var keywordSuggestions = []suggestionEntry{
	{"등기부등본", []string{"등기부등본 분석 방법이 궁금해요", "갑구와 을구의 차이점은?"}},
	{"근저당권", []string{"근저당권 말소 조건은?", "채권최고액이란?"}},
	{"경매", []string{"경매 절차를 알려주세요", "입찰 방법이 궁금해요"}},
	{"권리분석", []string{"말소기준권리란?", "인수되는 권리가 있나요?"}},
	{"낙찰", []string{"낙찰 후 절차는?", "잔금 납부 기한은?"}},
	{"입찰", []string{"적정 입찰가 산정 방법은?", "입찰 시 주의사항은?"}},
}

var defaultSuggestions = []string{
	"더 자세히 설명해주세요",
	"관련 사례가 있나요?",
	"주의해야 할 점은?",
}

// buildSuggestions picks follow-up questions matching keywords in the
// query or the answer. Always returns between one and three items.
func buildSuggestions(query, answer string) []string {
	var suggestions []string
	for _, entry := range keywordSuggestions {
		if strings.Contains(query, entry.keyword) || strings.Contains(answer, entry.keyword) {
			suggestions = append(suggestions, entry.suggestions...)
			if len(suggestions) >= 3 {
				break
			}
		}
	}

	if len(suggestions) == 0 {
		return defaultSuggestions
	}
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}
