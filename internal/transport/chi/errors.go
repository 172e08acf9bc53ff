package chi

import (
	"errors"
	"net/http"

	"github.com/kailas-cloud/docset"
	"github.com/kailas-cloud/docset/internal/domain"
)

// ErrorCode is the machine-readable error kind of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeModelNotFound    ErrorCode = "model_not_found"
	CodeDocumentNotFound ErrorCode = "document_not_found"
	CodeAlreadyExists    ErrorCode = "already_exists"
	CodeInvalidQuery     ErrorCode = "invalid_query"
	CodeInvalidArgument  ErrorCode = "invalid_argument"
	CodeUnknownOperation ErrorCode = "unknown_operation"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeFrozen           ErrorCode = "criteria_frozen"
	CodeNotImplemented   ErrorCode = "not_implemented"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// clientSentinels are the errors whose text is safe to show to clients.
var clientSentinels = []error{
	domain.ErrModelNotFound,
	domain.ErrDocumentNotFound,
	domain.ErrAlreadyExists,
	domain.ErrInvalidSchema,
	docset.ErrInvalidQuery,
	docset.ErrInvalidArgument,
	docset.ErrFrozen,
	docset.ErrNoCollection,
	docset.ErrNoPersister,
}

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		unknownOperationHandler,
		sentinelHandler(domain.ErrModelNotFound, http.StatusNotFound, CodeModelNotFound),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists),
		sentinelHandler(domain.ErrInvalidSchema, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(docset.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery),
		sentinelHandler(docset.ErrInvalidArgument, http.StatusBadRequest, CodeInvalidArgument),
		sentinelHandler(docset.ErrFrozen, http.StatusConflict, CodeFrozen),
		sentinelHandler(docset.ErrNoCollection, http.StatusNotImplemented, CodeNotImplemented),
		sentinelHandler(docset.ErrNoPersister, http.StatusNotImplemented, CodeNotImplemented),
	}
}

// safeDomainMessage returns a client-safe message without exposing internals.
// Query errors carry the offending operator or field, so their full text is kept.
func safeDomainMessage(err error) string {
	if errors.Is(err, docset.ErrInvalidQuery) || errors.Is(err, docset.ErrInvalidArgument) {
		return err.Error()
	}
	for _, s := range clientSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// unknownOperationHandler reports the model and operation nobody answered.
func unknownOperationHandler(w http.ResponseWriter, err error, _ string) bool {
	var uoe *docset.UnknownOperationError
	if !errors.As(err, &uoe) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"code":      CodeUnknownOperation,
		"message":   uoe.Error(),
		"model":     uoe.Model,
		"operation": uoe.Operation,
	})
	return true
}
