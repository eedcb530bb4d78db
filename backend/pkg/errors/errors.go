package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeConfig represents configuration errors (unknown provider, store or graph kind)
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeRetrieval represents failures in the RAG or graph retrieval path
	ErrorTypeRetrieval ErrorType = "retrieval"
	// ErrorTypeExtraction represents entity extraction failures
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeGeneration represents LLM generation failures
	ErrorTypeGeneration ErrorType = "generation"
	// ErrorTypeGraph represents knowledge graph store errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeStore represents vector store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Config errors

// ErrUnknownProvider is returned when an LLM provider tag is not recognized
type ErrUnknownProvider struct {
	*BaseError
	Provider string
}

func NewUnknownProvider(provider string) *ErrUnknownProvider {
	return &ErrUnknownProvider{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("unknown LLM provider: %s", provider), nil),
		Provider:  provider,
	}
}

// ErrUnknownStore is returned when a vector store tag is not recognized
type ErrUnknownStore struct {
	*BaseError
	Kind string
}

func NewUnknownStore(kind string) *ErrUnknownStore {
	return &ErrUnknownStore{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("unknown vector store type: %s", kind), nil),
		Kind:      kind,
	}
}

// ErrUnknownGraph is returned when a graph backend tag is not recognized
type ErrUnknownGraph struct {
	*BaseError
	Kind string
}

func NewUnknownGraph(kind string) *ErrUnknownGraph {
	return &ErrUnknownGraph{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("unknown graph store type: %s", kind), nil),
		Kind:      kind,
	}
}

// Graph errors

// ErrNodeNotFound is returned when a graph node cannot be found
type ErrNodeNotFound struct {
	*BaseError
	NodeID string
}

func NewNodeNotFound(nodeID string) *ErrNodeNotFound {
	return &ErrNodeNotFound{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("node not found: %s", nodeID), nil),
		NodeID:    nodeID,
	}
}

// Store errors

// ErrDocumentNotFound is returned when a document cannot be found in the vector store
type ErrDocumentNotFound struct {
	*BaseError
	DocumentID string
}

func NewDocumentNotFound(documentID string) *ErrDocumentNotFound {
	return &ErrDocumentNotFound{
		BaseError:  NewBaseError(ErrorTypeStore, fmt.Sprintf("document not found: %s", documentID), nil),
		DocumentID: documentID,
	}
}

// ErrDimensionMismatch is returned when a document embedding does not match the store dimension
type ErrDimensionMismatch struct {
	*BaseError
	Want int
	Got  int
}

func NewDimensionMismatch(want, got int) *ErrDimensionMismatch {
	return &ErrDimensionMismatch{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("embedding dimension mismatch: want %d, got %d", want, got), nil),
		Want:      want,
		Got:       got,
	}
}

// Generation errors

// NewGenerationError wraps an LLM gateway failure
func NewGenerationError(message string, err error) *BaseError {
	return NewBaseError(ErrorTypeGeneration, message, err)
}

// NewRetrievalError wraps a retrieval path failure
func NewRetrievalError(message string, err error) *BaseError {
	return NewBaseError(ErrorTypeRetrieval, message, err)
}
