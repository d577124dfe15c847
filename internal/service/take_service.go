package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"surveyhub/internal/cache"
	"surveyhub/internal/model"
	"surveyhub/internal/takeflow"
)

// NextResult is returned by a guarded transition
type NextResult struct {
	takeflow.Outcome
	Session *model.SessionView `json:"session"`
}

// TakeService runs respondent sessions over HTTP. Each request restores the
// session from Redis, applies one operation under the session lock and
// stores the new snapshot.
type TakeService struct {
	surveys      *SurveyService
	sessionCache cache.SessionCache
	submitter    takeflow.Submitter
	tokens       *TokenService
	log          *zap.Logger
	now          func() time.Time
}

// NewTakeService creates a new take service
func NewTakeService(
	surveys *SurveyService,
	sessionCache cache.SessionCache,
	submitter takeflow.Submitter,
	tokens *TokenService,
	log *zap.Logger,
) *TakeService {
	return &TakeService{
		surveys:      surveys,
		sessionCache: sessionCache,
		submitter:    submitter,
		tokens:       tokens,
		log:          log,
		now:          time.Now,
	}
}

// Open starts a new session at the cover step and issues its token
func (s *TakeService) Open(ctx context.Context, surveyID string) (*model.SessionStartResponse, error) {
	survey, err := s.surveys.Published(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	sessionID := "t_" + uuid.New().String()
	sess := takeflow.New(sessionID, survey, s.submitter, s.now)
	snapshot := sess.Snapshot()
	if err := s.sessionCache.Set(ctx, &snapshot); err != nil {
		return nil, fmt.Errorf("service: save session: %w", err)
	}

	token, err := s.tokens.Issue(survey.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("service: issue token: %w", err)
	}
	return &model.SessionStartResponse{Token: token, Session: view(survey, snapshot)}, nil
}

// Get returns the current view of a session
func (s *TakeService) Get(ctx context.Context, claims *model.SessionClaims) (*model.SessionView, error) {
	state, err := s.load(ctx, claims)
	if err != nil {
		return nil, err
	}
	survey, err := s.surveys.Cached(ctx, state.SurveyID)
	if err != nil {
		return nil, err
	}
	return view(survey, *state), nil
}

// Start moves the session from the cover to the questions
func (s *TakeService) Start(ctx context.Context, claims *model.SessionClaims) (*model.SessionView, error) {
	var out *model.SessionView
	err := s.mutate(ctx, claims, func(survey *model.Survey, sess *takeflow.Session) error {
		if err := sess.Start(); err != nil {
			return err
		}
		out = view(survey, sess.Snapshot())
		return nil
	})
	return out, err
}

// SetAnswer records one answer
func (s *TakeService) SetAnswer(ctx context.Context, claims *model.SessionClaims, questionID string, value model.AnswerValue) (*model.SessionView, error) {
	var out *model.SessionView
	err := s.mutate(ctx, claims, func(survey *model.Survey, sess *takeflow.Session) error {
		if err := sess.SetAnswer(questionID, value); err != nil {
			return err
		}
		out = view(survey, sess.Snapshot())
		return nil
	})
	return out, err
}

// SetPersonalInfo records personal-info fields and consent
func (s *TakeService) SetPersonalInfo(ctx context.Context, claims *model.SessionClaims, fields map[string]string, consent *bool) (*model.SessionView, error) {
	var out *model.SessionView
	err := s.mutate(ctx, claims, func(survey *model.Survey, sess *takeflow.Session) error {
		if err := sess.SetPersonalInfo(fields, consent); err != nil {
			return err
		}
		out = view(survey, sess.Snapshot())
		return nil
	})
	return out, err
}

// Next runs the guarded forward transition. The snapshot is stored even
// when the submission fails so the attempt count survives a retry.
func (s *TakeService) Next(ctx context.Context, claims *model.SessionClaims) (*NextResult, error) {
	var out *NextResult
	err := s.mutate(ctx, claims, func(survey *model.Survey, sess *takeflow.Session) error {
		outcome, err := sess.Next(ctx)
		out = &NextResult{Outcome: outcome, Session: view(survey, sess.Snapshot())}
		if err != nil {
			return err
		}
		if outcome.Step == model.StepEnding && outcome.Advanced {
			s.log.Info("take session completed",
				zap.String("surveyId", survey.ID),
				zap.String("sessionId", claims.SessionID),
				zap.String("responseId", outcome.ResponseID))
		}
		return nil
	})
	return out, err
}

func (s *TakeService) load(ctx context.Context, claims *model.SessionClaims) (*model.TakeSession, error) {
	state, err := s.sessionCache.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("service: load session: %w", err)
	}
	if state == nil || state.SurveyID != claims.SurveyID {
		return nil, ErrSessionNotFound
	}
	return state, nil
}

func (s *TakeService) mutate(ctx context.Context, claims *model.SessionClaims, fn func(*model.Survey, *takeflow.Session) error) error {
	unlock, err := s.sessionCache.Lock(ctx, claims.SessionID)
	if errors.Is(err, cache.ErrLocked) {
		return ErrSubmissionInFlight
	}
	if err != nil {
		return fmt.Errorf("service: lock session: %w", err)
	}
	defer unlock()

	state, err := s.load(ctx, claims)
	if err != nil {
		return err
	}
	survey, err := s.surveys.Cached(ctx, state.SurveyID)
	if err != nil {
		return err
	}

	sess := takeflow.Restore(survey, *state, s.submitter, s.now)
	fnErr := fn(survey, sess)

	snapshot := sess.Snapshot()
	if err := s.sessionCache.Set(ctx, &snapshot); err != nil {
		if fnErr != nil {
			s.log.Error("failed to save session", zap.String("sessionId", claims.SessionID), zap.Error(err))
			return fnErr
		}
		return fmt.Errorf("service: save session: %w", err)
	}
	return fnErr
}

func view(survey *model.Survey, state model.TakeSession) *model.SessionView {
	return &model.SessionView{
		SessionID:  state.ID,
		Step:       state.Step,
		Survey:     survey,
		Answers:    state.Answers,
		ResponseID: state.ResponseID,
	}
}
