package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"surveyhub/internal/results"
	"surveyhub/internal/service"
	"surveyhub/internal/transport/rest/middleware"
)

// ResultsHandler handles the results endpoints
type ResultsHandler struct {
	resultsSvc *service.ResultsService
	log        *zap.Logger
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(resultsSvc *service.ResultsService, log *zap.Logger) *ResultsHandler {
	return &ResultsHandler{resultsSvc: resultsSvc, log: log}
}

// Responses handles GET /v1/surveys/{id}/responses
func (h *ResultsHandler) Responses(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	id := mux.Vars(r)["id"]

	resp, err := h.resultsSvc.Responses(r.Context(), accountID, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Summary handles GET /v1/surveys/{id}/results
func (h *ResultsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	id := mux.Vars(r)["id"]

	filter, err := results.ParseFilter(r.URL.Query(), h.resultsSvc.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.resultsSvc.Summary(r.Context(), accountID, id, filter)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
