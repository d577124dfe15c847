package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"surveyhub/internal/model"
	"surveyhub/internal/normalizer"
	"surveyhub/internal/service"
	"surveyhub/internal/transport/rest/middleware"
)

// SurveyHandler handles survey builder endpoints
type SurveyHandler struct {
	surveySvc *service.SurveyService
	log       *zap.Logger
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveySvc *service.SurveyService, log *zap.Logger) *SurveyHandler {
	return &SurveyHandler{
		surveySvc: surveySvc,
		log:       log,
	}
}

// SurveyRequest is the request body for creating or replacing a survey.
// Questions may use any authored shape; the service normalizes them.
type SurveyRequest struct {
	Title        string                   `json:"title" validate:"max=200"`
	Description  string                   `json:"description" validate:"max=2000"`
	Questions    []normalizer.RawQuestion `json:"questions" validate:"max=200"`
	PersonalInfo model.PersonalInfoConfig `json:"personalInfo"`
	StartAt      *time.Time               `json:"startAt"`
	EndAt        *time.Time               `json:"endAt"`
}

// StatusRequest is the request body for a lifecycle change
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft inactive active scheduled paused completed"`
}

func toSurvey(req *SurveyRequest) *model.Survey {
	s := &model.Survey{
		Title:        req.Title,
		Description:  req.Description,
		PersonalInfo: req.PersonalInfo,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		Questions:    make([]model.Question, 0, len(req.Questions)),
	}
	for _, raw := range req.Questions {
		s.Questions = append(s.Questions, normalizer.Convert(raw))
	}
	return s
}

// Create handles POST /v1/surveys
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())

	var req SurveyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	survey, err := h.surveySvc.Create(r.Context(), accountID, toSurvey(&req))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, survey)
}

// List handles GET /v1/surveys
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())

	surveys, err := h.surveySvc.ListByOwner(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"surveys": surveys})
}

// Get handles GET /v1/surveys/{id}
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	id := mux.Vars(r)["id"]

	survey, err := h.surveySvc.GetOwned(r.Context(), accountID, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// Update handles PUT /v1/surveys/{id}
func (h *SurveyHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	id := mux.Vars(r)["id"]

	var req SurveyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	survey, err := h.surveySvc.Update(r.Context(), accountID, id, toSurvey(&req))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// SetStatus handles PUT /v1/surveys/{id}/status
func (h *SurveyHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	id := mux.Vars(r)["id"]

	var req StatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	survey, err := h.surveySvc.SetStatus(r.Context(), accountID, id, model.SurveyStatus(req.Status))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// Delete handles DELETE /v1/surveys/{id}
func (h *SurveyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.surveySvc.Delete(r.Context(), accountID, id); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
