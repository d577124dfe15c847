package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"surveyhub/internal/model"
	"surveyhub/internal/repository"
)

// ResponseService stores completed submissions. It is the submitter behind
// every take session.
type ResponseService struct {
	surveys      *SurveyService
	responseRepo repository.ResponseRepo
	broadcaster  Broadcaster
	log          *zap.Logger
	now          func() time.Time
}

// NewResponseService creates a new response service
func NewResponseService(surveys *SurveyService, responseRepo repository.ResponseRepo, log *zap.Logger) *ResponseService {
	return &ResponseService{
		surveys:      surveys,
		responseRepo: responseRepo,
		log:          log,
		now:          time.Now,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *ResponseService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Submit writes one response. Every answer must reference a question of the
// survey and is stored in its question's canonical shape. There is no
// idempotency key: a retried call after an unseen success stores a second
// response.
func (s *ResponseService) Submit(ctx context.Context, surveyID string, sub model.Submission) (string, error) {
	survey, err := s.surveys.Published(ctx, surveyID)
	if err != nil {
		return "", err
	}

	answers := make([]model.Answer, 0, len(sub.Answers))
	for _, a := range sub.Answers {
		q, ok := survey.QuestionByID(a.QuestionID)
		if !ok {
			return "", fmt.Errorf("%w: %s", model.ErrUnknownQuestion, a.QuestionID)
		}
		answers = append(answers, model.Answer{QuestionID: q.ID, Value: a.Value.Coerce(q.Type)})
	}

	submittedAt := sub.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = s.now()
	}
	response := &model.Response{
		SurveyID:    survey.ID,
		StartedAt:   sub.StartedAt,
		SubmittedAt: submittedAt,
		Answers:     answers,
	}
	if survey.PersonalInfo.Enabled && sub.PersonalInfo != nil {
		pi := *sub.PersonalInfo
		response.PersonalInfo = &pi
	}

	id, err := s.responseRepo.Create(ctx, response)
	if err != nil {
		return "", fmt.Errorf("service: store response: %w", err)
	}
	s.log.Info("response stored", zap.String("surveyId", surveyID), zap.String("responseId", id))

	if s.broadcaster != nil {
		total, err := s.responseRepo.CountBySurvey(ctx, surveyID)
		if err != nil {
			s.log.Warn("failed to count responses", zap.String("surveyId", surveyID), zap.Error(err))
		}
		s.broadcaster.BroadcastToSurvey(surveyID, EventResponseSubmitted, ResponseSubmittedPayload{
			SurveyID:       surveyID,
			ResponseID:     id,
			TotalResponses: total,
		})
	}
	return id, nil
}
