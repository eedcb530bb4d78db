package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aucsafe/backend/internal/graphrag"
	"aucsafe/backend/internal/llm"
	"aucsafe/backend/internal/rag"
	"aucsafe/backend/pkg/logger"
)

// Mode selects which retrieval paths feed the chat context
type Mode string

const (
	ModeRAG    Mode = "rag"
	ModeGraph  Mode = "graph"
	ModeHybrid Mode = "hybrid"
)

// ParseMode maps a caller-supplied string to a Mode, falling back
// to the given default for anything unrecognized
func ParseMode(s string, fallback Mode) Mode {
	switch Mode(s) {
	case ModeRAG, ModeGraph, ModeHybrid:
		return Mode(s)
	default:
		return fallback
	}
}

// Source describes where a piece of context came from
type Source struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Origin   string `json:"source,omitempty"`
	Name     string `json:"name,omitempty"`
	NodeType string `json:"node_type,omitempty"`
}

// Context is the retrieval context assembled for one chat turn
type Context struct {
	RAGContext   string   `json:"rag_context,omitempty"`
	GraphContext string   `json:"graph_context,omitempty"`
	Combined     string   `json:"combined_context"`
	Sources      []Source `json:"sources"`
}

// Card is an optional rich content block attached to a response
type Card map[string]any

// Response is the full result of a chat turn
type Response struct {
	Content     string   `json:"content"`
	Context     *Context `json:"context,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Cards       []Card   `json:"cards,omitempty"`
}

// ChatOptions tunes a single chat turn
type ChatOptions struct {
	Mode        Mode
	Temperature float32
	MaxTokens   int
}

const (
	defaultTemperature float32 = 0.7
	defaultMaxTokens           = 2048
)

// Service orchestrates retrieval and generation for the assistant
type Service struct {
	llm         llm.Client
	rag         *rag.Retriever
	graph       *graphrag.Retriever
	defaultMode Mode
	logger      *zap.Logger
}

// NewService creates the chat service. The RAG and graph retrievers
// are optional; a nil retriever simply disables that path.
func NewService(client llm.Client, ragRetriever *rag.Retriever, graphRetriever *graphrag.Retriever, defaultMode Mode) *Service {
	if defaultMode != ModeRAG && defaultMode != ModeGraph && defaultMode != ModeHybrid {
		defaultMode = ModeHybrid
	}
	return &Service{
		llm:         client,
		rag:         ragRetriever,
		graph:       graphRetriever,
		defaultMode: defaultMode,
		logger:      logger.Get(),
	}
}

// DefaultMode returns the configured retrieval mode
func (s *Service) DefaultMode() Mode {
	return s.defaultMode
}

// RetrieveContext runs the retrieval paths selected by mode and
// assembles the combined context. A failing path is logged and
// degraded to empty; retrieval never aborts a turn.
func (s *Service) RetrieveContext(ctx context.Context, query string, mode Mode) *Context {
	mode = ParseMode(string(mode), s.defaultMode)

	wantRAG := s.rag != nil && (mode == ModeRAG || mode == ModeHybrid)
	wantGraph := s.graph != nil && (mode == ModeGraph || mode == ModeHybrid)

	var ragResult *rag.Result
	var graphResult *graphrag.Result

	group, groupCtx := errgroup.WithContext(ctx)
	if wantRAG {
		group.Go(func() error {
			result, err := s.rag.Retrieve(groupCtx, query, nil)
			if err != nil {
				s.logger.Warn("RAG retrieval failed", zap.Error(err))
				return nil
			}
			ragResult = result
			return nil
		})
	}
	if wantGraph {
		group.Go(func() error {
			result, err := s.graph.Retrieve(groupCtx, query, nil)
			if err != nil {
				s.logger.Warn("Graph retrieval failed", zap.Error(err))
				return nil
			}
			graphResult = result
			return nil
		})
	}
	_ = group.Wait()

	chatCtx := &Context{Sources: []Source{}}

	if ragResult != nil {
		chatCtx.RAGContext = ragResult.Context
		for _, doc := range ragResult.Documents {
			title, _ := doc.Metadata["title"].(string)
			origin, _ := doc.Metadata["source"].(string)
			chatCtx.Sources = append(chatCtx.Sources, Source{
				Type:   "document",
				ID:     doc.ID,
				Title:  title,
				Origin: origin,
			})
		}
	}

	if graphResult != nil {
		chatCtx.GraphContext = graphResult.Context
		for _, node := range graphResult.Nodes {
			chatCtx.Sources = append(chatCtx.Sources, Source{
				Type:     "graph_node",
				ID:       node.ID,
				Name:     node.Name,
				NodeType: string(node.Type),
			})
		}
	}

	chatCtx.Combined = combineContexts(chatCtx.RAGContext, chatCtx.GraphContext)
	return chatCtx
}

func combineContexts(ragContext, graphContext string) string {
	var parts []string
	if ragContext != "" {
		parts = append(parts, "## 관련 문서\n"+ragContext)
	}
	if graphContext != "" {
		parts = append(parts, "## 지식 그래프 정보\n"+graphContext)
	}
	combined := ""
	for i, part := range parts {
		if i > 0 {
			combined += "\n\n"
		}
		combined += part
	}
	return combined
}

func (s *Service) buildMessages(chatCtx *Context, history []llm.Message, message string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: buildSystemPrompt(chatCtx.Combined),
	})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})
	return messages
}

// Chat processes one user message and returns the full response.
// Retrieval failures degrade silently; generation failures propagate.
func (s *Service) Chat(ctx context.Context, message string, history []llm.Message, opts *ChatOptions) (*Response, error) {
	mode := s.defaultMode
	temperature := defaultTemperature
	maxTokens := defaultMaxTokens
	if opts != nil {
		mode = ParseMode(string(opts.Mode), s.defaultMode)
		if opts.Temperature > 0 {
			temperature = opts.Temperature
		}
		if opts.MaxTokens > 0 {
			maxTokens = opts.MaxTokens
		}
	}

	chatCtx := s.RetrieveContext(ctx, message, mode)
	messages := s.buildMessages(chatCtx, history, message)

	response, err := s.llm.Generate(ctx, messages, temperature, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to generate chat response: %w", err)
	}

	s.logger.Debug("Chat turn complete",
		zap.String("mode", string(mode)),
		zap.Int("sources", len(chatCtx.Sources)),
		zap.Int("response_length", len(response.Content)),
	)

	return &Response{
		Content:     response.Content,
		Context:     chatCtx,
		Suggestions: buildSuggestions(message, response.Content),
	}, nil
}

// ChatStream processes one user message and returns a token stream.
// The caller must Close the stream.
func (s *Service) ChatStream(ctx context.Context, message string, history []llm.Message, opts *ChatOptions) (llm.Stream, error) {
	mode := s.defaultMode
	temperature := defaultTemperature
	maxTokens := defaultMaxTokens
	if opts != nil {
		mode = ParseMode(string(opts.Mode), s.defaultMode)
		if opts.Temperature > 0 {
			temperature = opts.Temperature
		}
		if opts.MaxTokens > 0 {
			maxTokens = opts.MaxTokens
		}
	}

	chatCtx := s.RetrieveContext(ctx, message, mode)
	messages := s.buildMessages(chatCtx, history, message)

	stream, err := s.llm.GenerateStream(ctx, messages, temperature, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat stream: %w", err)
	}
	return stream, nil
}

// AnalyzeRegistry runs a registry document through the assistant
// with an analysis prompt selected by kind
func (s *Service) AnalyzeRegistry(ctx context.Context, registryText, kind string) (*Response, error) {
	prompt, ok := registryPrompts[kind]
	if !ok {
		prompt = registryPrompts["full"]
	}
	message := prompt + "\n\n```\n" + registryText + "\n```"
	return s.Chat(ctx, message, nil, nil)
}
