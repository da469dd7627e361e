package apperr

import (
	"errors"
	"net/http"
)

// HTTPStatus maps a pipeline error to the status code returned to API callers.
func HTTPStatus(err error) int {
	var input *InputError
	var schema *SchemaExtractionError
	var rows *RowExtractionError
	var store *ExternalStoreError
	var transport *TransportError

	switch {
	case errors.As(err, &input):
		return http.StatusBadRequest
	case errors.As(err, &schema), errors.As(err, &rows):
		return http.StatusUnprocessableEntity
	case errors.As(err, &store):
		if store.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.As(err, &transport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
