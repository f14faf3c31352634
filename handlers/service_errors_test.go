package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/upb/estimate-api/services"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{"not found error", services.ErrJobNotFound, http.StatusNotFound, "Not Found"},
		{"validation error", services.ErrInvalidIdentifier.WithDetail("param", "job_id"), http.StatusBadRequest, "Bad Request"},
		{"unauthorized error", services.Unauthorized("token expired", nil), http.StatusUnauthorized, "Unauthorized"},
		{"forbidden error", services.Forbidden("admin group membership required"), http.StatusForbidden, "Forbidden"},
		{"internal error", services.WrapInternal("failed to load job", errors.New("pq: relation missing")), http.StatusInternalServerError, "Server Error"},
		{"unknown error", errors.New("something unexpected"), http.StatusInternalServerError, "Server Error"},
		{"query past request deadline", services.WrapInternal("failed to list recent estimates", context.DeadlineExceeded), http.StatusGatewayTimeout, "Gateway Timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedBody, w.Body.String())
			assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
		})
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleServiceError(w, nil, logger)
		assert.Empty(t, w.Body.String())
	})
}
