package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/apperror"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Invalid input", apperror.New(apperror.KindInvalidInput, "bad"), http.StatusBadRequest},
		{"Invalid transition", apperror.New(apperror.KindInvalidTransition, "bad"), http.StatusBadRequest},
		{"Not cancellable", apperror.New(apperror.KindNotCancellable, "bad"), http.StatusBadRequest},
		{"Forbidden", apperror.New(apperror.KindForbidden, "no"), http.StatusForbidden},
		{"Not found", apperror.New(apperror.KindNotFound, "gone"), http.StatusNotFound},
		{"Room unavailable", apperror.New(apperror.KindRoomUnavailable, "taken"), http.StatusConflict},
		{"Conflict", apperror.New(apperror.KindConflict, "clash"), http.StatusConflict},
		{"Constraint violation", apperror.New(apperror.KindConstraintViolation, "dup"), http.StatusConflict},
		{"Store failure", apperror.New(apperror.KindStoreFailure, "down"), http.StatusInternalServerError},
		{"Plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestErrorHidesInternals(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Error(c, apperror.New(apperror.KindStoreFailure, "pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestErrorExposesBusinessMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Error(c, apperror.New(apperror.KindNotFound, "booking not found"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"booking not found"}`, w.Body.String())
}
