package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCode represents a specific error type for pipeline operations.
type ErrorCode string

const (
	// ErrCodeEmbeddingUnavailable indicates the embedding service failed.
	ErrCodeEmbeddingUnavailable ErrorCode = "EMBEDDING_UNAVAILABLE"
	// ErrCodeGenerationUnavailable indicates the generation service failed.
	ErrCodeGenerationUnavailable ErrorCode = "GENERATION_UNAVAILABLE"
	// ErrCodeSearchUnavailable indicates the similarity-search service failed.
	ErrCodeSearchUnavailable ErrorCode = "SEARCH_UNAVAILABLE"
	// ErrCodeKnowledgeLoadFailed indicates the knowledge base could not be loaded.
	ErrCodeKnowledgeLoadFailed ErrorCode = "KNOWLEDGE_LOAD_FAILED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeUnexpected is the catch-all for anything not classified above.
	ErrCodeUnexpected ErrorCode = "UNEXPECTED"
)

// ServiceError represents a structured error at a collaborator boundary.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *ServiceError) GetCode() ErrorCode {
	return e.Code
}

// IsTimeout reports whether the error classifies as a timeout. A
// deadline-exceeded cause keeps its originating service code but still
// classifies as a timeout here.
func (e *ServiceError) IsTimeout() bool {
	if e.Code == ErrCodeTimeout {
		return true
	}
	return isTimeoutCause(e.Cause)
}

// Convenience constructors for common error types.

// EmbeddingUnavailable creates an embedding-service error.
func EmbeddingUnavailable(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeEmbeddingUnavailable, Message: msg, Cause: cause}
}

// GenerationUnavailable creates a generation-service error.
func GenerationUnavailable(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeGenerationUnavailable, Message: msg, Cause: cause}
}

// SearchUnavailable creates a search-service error.
func SearchUnavailable(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeSearchUnavailable, Message: msg, Cause: cause}
}

// KnowledgeLoadFailed creates a knowledge-base load error.
func KnowledgeLoadFailed(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeKnowledgeLoadFailed, Message: msg, Cause: cause}
}

// InvalidArgument creates an invalid-argument error.
func InvalidArgument(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeInvalidArgument, Message: msg}
}

// Timeout creates a timeout error.
func Timeout(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeTimeout, Message: msg, Cause: cause}
}

// Unexpected wraps an unclassified error.
func Unexpected(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeUnexpected, Message: msg, Cause: cause}
}

// CodeOf extracts the error code from an error chain.
// Returns ErrCodeUnexpected for errors outside the taxonomy.
func CodeOf(err error) ErrorCode {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	if isTimeoutCause(err) {
		return ErrCodeTimeout
	}
	return ErrCodeUnexpected
}

// IsTimeout reports whether err classifies as a timeout anywhere in its chain.
func IsTimeout(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.IsTimeout() {
		return true
	}
	return isTimeoutCause(err)
}

func isTimeoutCause(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
