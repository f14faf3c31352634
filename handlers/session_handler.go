package handlers

import (
	"net/http"

	"github.com/upb/estimate-api/middleware"
	"github.com/upb/estimate-api/utils"
	"go.uber.org/zap"
)

// SessionResponse is the body of GET /api/init-session
type SessionResponse struct {
	IsAdmin    bool   `json:"isAdmin"`
	FullName   string `json:"fullName"`
	EmployeeID string `json:"employeeId"`
}

// SessionHandler serves the unauthenticated greeting and session bootstrap
type SessionHandler struct {
	logger *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(logger *zap.Logger) *SessionHandler {
	return &SessionHandler{logger: logger}
}

// HandleHello handles GET /api/hello
func (h *SessionHandler) HandleHello(w http.ResponseWriter, r *http.Request) {
	utils.WriteText(w, http.StatusOK, "Hello!")
}

// HandleInitSession handles GET /api/init-session
// Runs behind the auth gate and reports the caller's identity
func (h *SessionHandler) HandleInitSession(w http.ResponseWriter, r *http.Request) {
	h.logger.Info(r.Method + " " + r.URL.Path)

	var response SessionResponse
	if ident := middleware.GetIdentityFromContext(r.Context()); ident != nil {
		response = SessionResponse{
			IsAdmin:    ident.IsAdmin,
			FullName:   ident.Name,
			EmployeeID: ident.EmployeeID,
		}
	}

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write session response", zap.Error(err))
	}
}
