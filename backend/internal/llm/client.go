package llm

import "context"

// Message roles accepted by the LLM gateway
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token consumption for a generation call
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response represents a complete LLM response
type Response struct {
	Content string
	Usage   *Usage
	Model   string
}

// Stream is a lazy, forward-only sequence of text fragments.
// Callers must Close the stream when done, including on early exit,
// to release the underlying connection.
type Stream interface {
	// Recv returns the next text fragment. It returns io.EOF when the
	// stream is exhausted.
	Recv() (string, error)
	Close() error
}

// Client is the capability interface for LLM providers
type Client interface {
	Generate(ctx context.Context, messages []Message, temperature float32, maxTokens int) (*Response, error)
	GenerateStream(ctx context.Context, messages []Message, temperature float32, maxTokens int) (Stream, error)
}
