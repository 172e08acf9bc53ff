package docset

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/docset/internal/execution"
)

// Sentinel errors returned by criteria and models.
var (
	// ErrInvalidFind is returned by RaiseInvalid for queries a caller has
	// decided cannot be executed.
	ErrInvalidFind = errors.New("docset: invalid find")
	// ErrUnknownOperation is wrapped by UnknownOperationError.
	ErrUnknownOperation = errors.New("docset: unknown operation")
	// ErrFrozen is recorded when a frozen criteria is asked to change.
	ErrFrozen = errors.New("docset: criteria is frozen")
	// ErrNoCollection is returned when a root-level criteria has no backing collection.
	ErrNoCollection = errors.New("docset: model has no backing collection")
	// ErrNoPersister is returned by Create on models without a persister.
	ErrNoPersister = errors.New("docset: model has no persister")
	// ErrInvalidArgument signals a malformed argument to a dispatched operation.
	ErrInvalidArgument = errors.New("docset: invalid argument")
	// ErrInvalidQuery is returned when selector/options cannot be turned
	// into an execution plan.
	ErrInvalidQuery = execution.ErrInvalidQuery
)

// UnknownOperationError names the model and the operation nobody answered.
type UnknownOperationError struct {
	Model     string
	Operation string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("%s: %q is not defined for %s criteria", ErrUnknownOperation.Error(), e.Operation, e.Model)
}

func (e *UnknownOperationError) Unwrap() error { return ErrUnknownOperation }
