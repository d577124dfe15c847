package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"surveyhub/internal/model"
	"surveyhub/internal/results"
	"surveyhub/internal/service"
	"surveyhub/internal/takeflow"
)

var validate = validator.New()

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// decode reads a JSON body and runs the struct's validate tags
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// writeServiceError maps domain errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	var publishErr *model.PublishError
	switch {
	case errors.As(err, &publishErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":    "survey cannot be published",
			"problems": publishErr.Problems,
		})
	case errors.Is(err, model.ErrSurveyNotFound), errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrSurveyNotAccepting),
		errors.Is(err, takeflow.ErrWrongStep),
		errors.Is(err, takeflow.ErrTerminal),
		errors.Is(err, service.ErrSubmissionInFlight),
		errors.Is(err, service.ErrQuestionRemoved):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrInvalidStatus),
		errors.Is(err, model.ErrUnknownQuestion),
		errors.Is(err, takeflow.ErrUnknownQuestion),
		errors.Is(err, results.ErrInvalidFilter):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrMissingOwner):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
