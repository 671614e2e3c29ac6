package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrIndexUnavailable      = errors.New("text index unavailable")
	ErrEntityUnresolved      = errors.New("entity could not be resolved")
	ErrGenerationUnavailable = errors.New("generation service unreachable")
	ErrGeneration            = errors.New("generation failed")
	ErrDispatchExhausted     = errors.New("no handler produced a response")
	ErrTemporary             = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// GraphQueryError carries the query text that failed so operators can tell a
// broken store apart from a query that simply matched nothing.
type GraphQueryError struct {
	Query string
	Err   error
}

func (e *GraphQueryError) Error() string {
	query := e.Query
	if len(query) > 200 {
		query = query[:200] + "..."
	}
	return fmt.Sprintf("graph query failed: %v (query: %s)", e.Err, query)
}

func (e *GraphQueryError) Unwrap() error {
	return e.Err
}
