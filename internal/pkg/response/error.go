package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error sends a JSON error response with the status code derived from the
// error's kind. Unknown errors default to 500 Internal Server Error.
func Error(c *gin.Context, err error) {
	c.JSON(StatusFor(err), ErrorResponse{Error: messageFor(err)})
}

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindInvalidInput, apperror.KindInvalidTransition, apperror.KindNotCancellable:
		return http.StatusBadRequest
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindRoomUnavailable, apperror.KindConflict, apperror.KindConstraintViolation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	if apperror.KindOf(err) == apperror.KindUnknown || apperror.KindOf(err) == apperror.KindStoreFailure {
		// Do not leak internals for store or unclassified failures.
		return "internal server error"
	}
	return err.Error()
}
