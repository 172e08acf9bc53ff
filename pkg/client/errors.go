package client

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/docset"
	"github.com/kailas-cloud/docset/internal/domain"
)

// Sentinel errors matched by APIError. Use errors.Is() to check.
var (
	ErrModelNotFound    = domain.ErrModelNotFound
	ErrDocumentNotFound = domain.ErrDocumentNotFound
	ErrAlreadyExists    = domain.ErrAlreadyExists
	ErrInvalidSchema    = domain.ErrInvalidSchema
	ErrUnknownOperation = docset.ErrUnknownOperation
	ErrInvalidQuery     = docset.ErrInvalidQuery
	ErrInvalidArgument  = docset.ErrInvalidArgument
	ErrFrozen           = docset.ErrFrozen
	ErrNotImplemented   = domain.ErrNotImplemented
	// ErrUnauthorized signals a missing or rejected API key.
	ErrUnauthorized = errors.New("unauthorized")
)

var codeSentinels = map[string]error{
	"model_not_found":    ErrModelNotFound,
	"document_not_found": ErrDocumentNotFound,
	"already_exists":     ErrAlreadyExists,
	"validation_failed":  ErrInvalidSchema,
	"unknown_operation":  ErrUnknownOperation,
	"invalid_query":      ErrInvalidQuery,
	"invalid_argument":   ErrInvalidArgument,
	"criteria_frozen":    ErrFrozen,
	"not_implemented":    ErrNotImplemented,
	"unauthorized":       ErrUnauthorized,
}

// APIError is a non-2xx reply of the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	// Model and Operation are set for unknown_operation replies.
	Model     string `json:"model,omitempty"`
	Operation string `json:"operation,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("docset: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the error code to a package sentinel.
func (e *APIError) Unwrap() error {
	return codeSentinels[e.Code]
}
