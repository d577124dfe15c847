package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"surveyhub/internal/model"
	"surveyhub/internal/service"
	"surveyhub/internal/transport/rest/middleware"
)

// TakeHandler handles respondent session endpoints
type TakeHandler struct {
	takeSvc *service.TakeService
	log     *zap.Logger
}

// NewTakeHandler creates a new take handler
func NewTakeHandler(takeSvc *service.TakeService, log *zap.Logger) *TakeHandler {
	return &TakeHandler{takeSvc: takeSvc, log: log}
}

// AnswerRequest is the request body for setting one answer. A null value
// clears the answer.
type AnswerRequest struct {
	Value model.AnswerValue `json:"value"`
}

// PersonalInfoRequest is the request body for the personal-info step
type PersonalInfoRequest struct {
	Fields  map[string]string `json:"fields" validate:"dive,keys,min=1,max=64,endkeys,max=500"`
	Consent *bool             `json:"consent"`
}

// Open handles POST /v1/take/{surveyId}/sessions
func (h *TakeHandler) Open(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	resp, err := h.takeSvc.Open(r.Context(), surveyID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /v1/take/sessions
func (h *TakeHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetSessionClaims(r.Context())

	view, err := h.takeSvc.Get(r.Context(), claims)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Start handles POST /v1/take/sessions/start
func (h *TakeHandler) Start(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetSessionClaims(r.Context())

	view, err := h.takeSvc.Start(r.Context(), claims)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// SetAnswer handles PUT /v1/take/sessions/answers/{questionId}
func (h *TakeHandler) SetAnswer(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetSessionClaims(r.Context())
	questionID := mux.Vars(r)["questionId"]

	var req AnswerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.takeSvc.SetAnswer(r.Context(), claims, questionID, req.Value)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// SetPersonalInfo handles PUT /v1/take/sessions/personal-info
func (h *TakeHandler) SetPersonalInfo(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetSessionClaims(r.Context())

	var req PersonalInfoRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.takeSvc.SetPersonalInfo(r.Context(), claims, req.Fields, req.Consent)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Next handles POST /v1/take/sessions/next. Validation failures are not
// errors: the outcome carries the missing items and the step is unchanged.
func (h *TakeHandler) Next(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetSessionClaims(r.Context())

	result, err := h.takeSvc.Next(r.Context(), claims)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
