package httpadapter

import (
	"net/http"

	"github.com/kirillkom/decision-noise/internal/core/domain"
)

// Pipeline stage kinds win over the kinds of the errors they wrap.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidFile):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrUploadFailed),
		domain.IsKind(err, domain.ErrReadbackFailed),
		domain.IsKind(err, domain.ErrRemoteProcessingFailed):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrMalformedContent):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrBlobExists):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the stable machine-readable name of an error kind.
func errorCode(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidFile):
		return "invalid_file"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporarily_unavailable"
	case domain.IsKind(err, domain.ErrUploadFailed):
		return "upload_failed"
	case domain.IsKind(err, domain.ErrReadbackFailed):
		return "readback_failed"
	case domain.IsKind(err, domain.ErrRemoteProcessingFailed):
		return "remote_processing_failed"
	case domain.IsKind(err, domain.ErrMalformedContent):
		return "malformed_content"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrUnauthorized):
		return "unauthorized"
	case domain.IsKind(err, domain.ErrNotFound):
		return "not_found"
	case domain.IsKind(err, domain.ErrBlobExists):
		return "blob_exists"
	case domain.IsKind(err, domain.ErrService):
		return "service_error"
	default:
		return "internal_error"
	}
}
