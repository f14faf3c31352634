package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/estimate-api/services"
	"github.com/upb/estimate-api/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to plain-text HTTP responses.
// Client errors carry only the status name; everything else is logged in
// full and answered with the generic server error body.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("request deadline exceeded", zap.Error(err))
		utils.WriteStatus(w, http.StatusGatewayTimeout)

	case services.IsNotFoundError(err):
		logger.Info("resource not found", zap.Error(err))
		utils.WriteStatus(w, http.StatusNotFound)

	case services.IsValidationError(err):
		logger.Info("rejected invalid request",
			zap.Error(err),
			zap.Any("details", services.GetErrorDetails(err)))
		utils.WriteStatus(w, http.StatusBadRequest)

	case services.IsUnauthorizedError(err):
		utils.WriteStatus(w, http.StatusUnauthorized)

	case services.IsForbiddenError(err):
		utils.WriteStatus(w, http.StatusForbidden)

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		utils.WriteServerError(w)

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		utils.WriteServerError(w)
	}
}
