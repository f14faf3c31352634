package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/estimate-api/models"
	"github.com/upb/estimate-api/utils"
	"go.uber.org/zap"
)

// EstimateService is the report catalog the estimate routes expose
type EstimateService interface {
	RecentEstimates(ctx context.Context) ([]models.Record, error)
	RecentlyReceived(ctx context.Context) ([]models.Record, error)
	ActiveContracts(ctx context.Context) ([]models.Record, error)
	Search(ctx context.Context, query, searchType string) ([]models.Record, error)
	Customer(ctx context.Context, customerID string) (models.Record, error)
	Job(ctx context.Context, jobID string) (models.Record, error)
}

// EstimateHandler handles the /api/estimate routes
type EstimateHandler struct {
	service EstimateService
	logger  *zap.Logger
}

// NewEstimateHandler creates a new EstimateHandler
func NewEstimateHandler(service EstimateService, logger *zap.Logger) *EstimateHandler {
	return &EstimateHandler{
		service: service,
		logger:  logger,
	}
}

// HandleRecentEstimates handles GET /api/estimate/recent-estimates
func (h *EstimateHandler) HandleRecentEstimates(w http.ResponseWriter, r *http.Request) {
	h.logRoute(r)
	records, err := h.service.RecentEstimates(r.Context())
	h.respond(w, records, err)
}

// HandleRecentlyReceived handles GET /api/estimate/recently-received
func (h *EstimateHandler) HandleRecentlyReceived(w http.ResponseWriter, r *http.Request) {
	h.logRoute(r)
	records, err := h.service.RecentlyReceived(r.Context())
	h.respond(w, records, err)
}

// HandleActiveContracts handles GET /api/estimate/active-contracts
func (h *EstimateHandler) HandleActiveContracts(w http.ResponseWriter, r *http.Request) {
	h.logRoute(r)
	records, err := h.service.ActiveContracts(r.Context())
	h.respond(w, records, err)
}

// HandleSearch handles GET /api/estimate/search?query=&searchType=
func (h *EstimateHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	h.logRoute(r)
	q := r.URL.Query()
	records, err := h.service.Search(r.Context(), q.Get("query"), q.Get("searchType"))
	h.respond(w, records, err)
}

// HandleCustomer handles GET /api/estimate/customer/{id}
func (h *EstimateHandler) HandleCustomer(w http.ResponseWriter, r *http.Request) {
	h.logRoute(r)
	record, err := h.service.Customer(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, record, err)
}

// HandleJob handles GET /api/estimate/job/{id}
func (h *EstimateHandler) HandleJob(w http.ResponseWriter, r *http.Request) {
	h.logRoute(r)
	record, err := h.service.Job(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, record, err)
}

func (h *EstimateHandler) logRoute(r *http.Request) {
	h.logger.Info(r.Method + " " + r.URL.RequestURI())
}

func (h *EstimateHandler) respond(w http.ResponseWriter, data interface{}, err error) {
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.WriteOK(w, data); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
