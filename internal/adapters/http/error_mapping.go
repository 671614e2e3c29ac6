package httpadapter

import (
	"errors"
	"net/http"

	"github.com/moraplatform/qa-engine/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	var graphErr *domain.GraphQueryError
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrEntityUnresolved):
		return http.StatusUnprocessableEntity
	case errors.As(err, &graphErr):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrGenerationUnavailable),
		domain.IsKind(err, domain.ErrIndexUnavailable),
		domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
