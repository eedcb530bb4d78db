package llm

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"aucsafe/backend/pkg/logger"
)

// OpenAIClient talks to any OpenAI-compatible chat completion API.
// Pointing BaseURL at a LiteLLM or compatible proxy routes other
// providers through the same client.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIClient creates a new OpenAI-compatible LLM client
func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL + "/v1"
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger.Get(),
	}
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	formatted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		formatted = append(formatted, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return formatted
}

// Generate sends a chat completion request and returns the full response
func (c *OpenAIClient) Generate(ctx context.Context, messages []Message, temperature float32, maxTokens int) (*Response, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	// Retry logic with exponential backoff
	var resp openai.ChatCompletionResponse
	var err error
	maxRetries := 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			c.logger.Warn("Retrying LLM request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err = c.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}

		c.logger.Error("LLM request failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.String("model", c.model),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to generate response after %d attempts: %w", maxRetries, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in LLM response")
	}

	c.logger.Debug("LLM response generated",
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return &Response{
		Content: resp.Choices[0].Message.Content,
		Usage: &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Model: resp.Model,
	}, nil
}

// GenerateStream sends a chat completion request and returns a fragment stream
func (c *OpenAIClient) GenerateStream(ctx context.Context, messages []Message, temperature float32, maxTokens int) (Stream, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      true,
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to open completion stream: %w", err)
	}

	return &openaiStream{inner: stream}, nil
}

type openaiStream struct {
	inner *openai.ChatCompletionStream
}

// Recv returns the next non-empty text fragment, skipping keep-alive
// chunks with an empty delta.
func (s *openaiStream) Recv() (string, error) {
	for {
		resp, err := s.inner.Recv()
		if err != nil {
			if err == io.EOF {
				return "", io.EOF
			}
			return "", err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
}

func (s *openaiStream) Close() error {
	s.inner.Close()
	return nil
}
