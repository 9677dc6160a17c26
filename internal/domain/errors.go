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

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"

	// Pipeline error codes. Retrieval and generation failures are hard
	// errors surfaced to the caller; blocked generations carry their own
	// code so callers can tell a safety refusal from an outage.
	ErrCodeRetrieval         = "RETRIEVAL_ERROR"
	ErrCodeGeneration        = "GENERATION_ERROR"
	ErrCodeGenerationBlocked = "GENERATION_BLOCKED"
)

// Validation errors
var (
	ErrInvalidDocumentStatus  = NewDomainError(ErrCodeValidation, "invalid document status")
	ErrInvalidIngestJobStatus = NewDomainError(ErrCodeValidation, "invalid ingest job status")
	ErrMissingRequiredField   = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrUserNotFound     = NewDomainError(ErrCodeNotFound, "user not found")
	ErrAPIKeyNotFound   = NewDomainError(ErrCodeNotFound, "api key not found")
)

// Already exists errors
var (
	ErrDocumentAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "document already exists")
	ErrUserAlreadyExists     = NewDomainError(ErrCodeAlreadyExists, "user already exists")
	ErrAPIKeyAlreadyExists   = NewDomainError(ErrCodeAlreadyExists, "api key already exists")
)

// Authorization errors
var (
	ErrAPIKeyRevoked = NewDomainError(ErrCodeUnauthorized, "api key has been revoked")
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid api key")
)

// Pipeline errors
var (
	ErrLLMUnavailable   = NewDomainError(ErrCodeInvalidOperation, "language model is not configured")
	ErrDocumentNotReady = NewDomainError(ErrCodeInvalidOperation, "document has not finished ingestion")
)

// NewRetrievalError wraps a chunk index failure for the specific path.
func NewRetrievalError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeRetrieval, "chunk retrieval failed", err)
}

// NewGenerationError wraps a provider failure during answer generation.
func NewGenerationError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeGeneration, "answer generation failed", err)
}

// NewGenerationBlockedError reports a provider-side content block.
func NewGenerationBlockedError(categories []string) *DomainError {
	msg := "answer generation blocked by provider policy"
	if len(categories) > 0 {
		msg = fmt.Sprintf("%s (%v)", msg, categories)
	}
	return NewDomainError(ErrCodeGenerationBlocked, msg)
}

// Storage errors
var (
	ErrSHA256Mismatch       = NewDomainError(ErrCodeValidation, "SHA256 hash does not match uploaded file")
	ErrStorageOperationFail = NewDomainError(ErrCodeInternalError, "storage operation failed")
)
