package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is lets wrapped copies of a sentinel match it by code and message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Wrap returns a copy of the error carrying an underlying cause.
func (e *DomainError) Wrap(err error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeEmptyQuery           = "EMPTY_QUERY"
	ErrCodeEmbeddingUnavailable = "EMBEDDING_UNAVAILABLE"
	ErrCodeSynthesisUnavailable = "SYNTHESIS_UNAVAILABLE"
	ErrCodeQuotaExceeded        = "QUOTA_EXCEEDED"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// Engine errors
var (
	// ErrEmptyQuery is returned before any backend call when the query text
	// is empty or whitespace-only.
	ErrEmptyQuery = NewDomainError(ErrCodeEmptyQuery, "query must not be empty")

	// ErrEmbeddingUnavailable means the embedding backend failed. Fatal to
	// the request: without the query embedding no valid ranking exists.
	ErrEmbeddingUnavailable = NewDomainError(ErrCodeEmbeddingUnavailable, "embedding backend unavailable")

	// ErrSynthesisUnavailable means the generation backend failed after the
	// retry budget was spent.
	ErrSynthesisUnavailable = NewDomainError(ErrCodeSynthesisUnavailable, "synthesis backend unavailable")

	// ErrQuotaExceeded means the generation backend rejected the request for
	// cost or rate reasons; callers should ask the user to retry later.
	ErrQuotaExceeded = NewDomainError(ErrCodeQuotaExceeded, "generation quota exceeded")
)

// Validation errors
var (
	ErrInvalidSubject = NewDomainError(ErrCodeValidation, "invalid subject")
	ErrInvalidK       = NewDomainError(ErrCodeValidation, "k must be at least 1")
)

// Not found errors
var (
	ErrQuestionNotFound = NewDomainError(ErrCodeNotFound, "exam question not found")
	ErrCaseNotFound     = NewDomainError(ErrCodeNotFound, "case study not found")
)
