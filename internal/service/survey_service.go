package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"surveyhub/internal/cache"
	"surveyhub/internal/model"
	"surveyhub/internal/normalizer"
	"surveyhub/internal/repository"
)

// SurveyService handles the survey builder operations
type SurveyService struct {
	surveyRepo   repository.SurveyRepo
	responseRepo repository.ResponseRepo
	surveyCache  cache.SurveyCache
	normalizer   *normalizer.Normalizer
	broadcaster  Broadcaster
	log          *zap.Logger
	now          func() time.Time
}

// NewSurveyService creates a new survey service
func NewSurveyService(
	surveyRepo repository.SurveyRepo,
	responseRepo repository.ResponseRepo,
	surveyCache cache.SurveyCache,
	norm *normalizer.Normalizer,
	log *zap.Logger,
) *SurveyService {
	return &SurveyService{
		surveyRepo:   surveyRepo,
		responseRepo: responseRepo,
		surveyCache:  surveyCache,
		normalizer:   norm,
		log:          log,
		now:          time.Now,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *SurveyService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Create normalizes and stores a new draft survey
func (s *SurveyService) Create(ctx context.Context, ownerID string, survey *model.Survey) (*model.Survey, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	survey.OwnerID = ownerID
	survey.Status = model.SurveyDraft
	s.normalizer.NormalizeSurvey(survey)

	if _, err := s.surveyRepo.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("service: create survey: %w", err)
	}
	s.log.Info("survey created", zap.String("surveyId", survey.ID), zap.String("ownerId", ownerID))
	return survey, nil
}

// Get returns a survey by id regardless of owner
func (s *SurveyService) Get(ctx context.Context, id string) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: get survey: %w", err)
	}
	if survey == nil {
		return nil, model.ErrSurveyNotFound
	}
	return survey, nil
}

// GetOwned returns a survey only if ownerID owns it. Other owners get
// ErrSurveyNotFound so ids of foreign surveys are not disclosed.
func (s *SurveyService) GetOwned(ctx context.Context, ownerID, id string) (*model.Survey, error) {
	survey, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey.OwnerID != ownerID {
		return nil, model.ErrSurveyNotFound
	}
	return survey, nil
}

func (s *SurveyService) ListByOwner(ctx context.Context, ownerID string) ([]*model.Survey, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	surveys, err := s.surveyRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service: list surveys: %w", err)
	}
	return surveys, nil
}

// Update replaces the editable content of a survey. Status, owner and
// creation time are kept. A published survey must stay publishable.
// Questions sent without an id take the id of the stored question at the
// same position, so stored answers stay attached. Once a survey is
// published or has responses its questions cannot be removed.
func (s *SurveyService) Update(ctx context.Context, ownerID, id string, in *model.Survey) (*model.Survey, error) {
	existing, err := s.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	in.ID = existing.ID
	in.OwnerID = existing.OwnerID
	in.Status = existing.Status
	in.CreatedAt = existing.CreatedAt
	carryQuestionIDs(existing.Questions, in.Questions)
	s.normalizer.NormalizeSurvey(in)

	if existing.Status.IsPublished() {
		if err := in.ValidateForPublish(existing.Status); err != nil {
			return nil, err
		}
	}

	if missing := droppedQuestionIDs(existing.Questions, in.Questions); len(missing) > 0 {
		locked := existing.Status.IsPublished()
		if !locked {
			n, err := s.responseRepo.CountBySurvey(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("service: count responses: %w", err)
			}
			locked = n > 0
		}
		if locked {
			return nil, fmt.Errorf("service: update survey %s: %w %v", id, ErrQuestionRemoved, missing)
		}
	}

	if err := s.surveyRepo.Update(ctx, in); err != nil {
		return nil, fmt.Errorf("service: update survey: %w", err)
	}
	s.invalidate(ctx, id)
	return in, nil
}

func carryQuestionIDs(existing, incoming []model.Question) {
	used := make(map[string]bool, len(incoming))
	for _, q := range incoming {
		if id := model.IDString(q.ID); id != "" {
			used[id] = true
		}
	}
	for i := range incoming {
		if i >= len(existing) || model.IDString(incoming[i].ID) != "" || used[existing[i].ID] {
			continue
		}
		incoming[i].ID = existing[i].ID
		used[existing[i].ID] = true
		carryOptionIDs(existing[i].Options, incoming[i].Options)
	}
}

func carryOptionIDs(existing, incoming []model.Option) {
	used := make(map[string]bool, len(incoming))
	for _, o := range incoming {
		if id := model.IDString(o.ID); id != "" {
			used[id] = true
		}
	}
	for i := range incoming {
		if i >= len(existing) || model.IDString(incoming[i].ID) != "" || used[existing[i].ID] {
			continue
		}
		incoming[i].ID = existing[i].ID
		used[existing[i].ID] = true
	}
}

func droppedQuestionIDs(existing, updated []model.Question) []string {
	kept := make(map[string]bool, len(updated))
	for _, q := range updated {
		kept[q.ID] = true
	}
	var missing []string
	for _, q := range existing {
		if !kept[q.ID] {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// SetStatus moves a survey through its lifecycle. Publishing runs the
// publish-time checks first.
func (s *SurveyService) SetStatus(ctx context.Context, ownerID, id string, status model.SurveyStatus) (*model.Survey, error) {
	if !status.Valid() {
		return nil, model.ErrInvalidStatus
	}
	survey, err := s.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if status.IsPublished() {
		if err := survey.ValidateForPublish(status); err != nil {
			s.log.Debug("publish rejected", zap.String("surveyId", id), zap.Error(err))
			return nil, err
		}
	}

	survey.Status = status
	if err := s.surveyRepo.Update(ctx, survey); err != nil {
		return nil, fmt.Errorf("service: set status: %w", err)
	}
	s.invalidate(ctx, id)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSurvey(id, EventSurveyStatus, SurveyStatusPayload{SurveyID: id, Status: string(status)})
	}
	return survey, nil
}

// Delete removes a survey together with all of its responses
func (s *SurveyService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.GetOwned(ctx, ownerID, id); err != nil {
		return err
	}

	n, err := s.responseRepo.DeleteBySurvey(ctx, id)
	if err != nil {
		return fmt.Errorf("service: delete responses: %w", err)
	}
	if err := s.surveyRepo.Delete(ctx, id); err != nil && !errors.Is(err, model.ErrSurveyNotFound) {
		return fmt.Errorf("service: delete survey: %w", err)
	}
	s.invalidate(ctx, id)

	if s.broadcaster != nil {
		s.broadcaster.DisconnectSurvey(id)
	}
	s.log.Info("survey deleted", zap.String("surveyId", id), zap.Int64("responses", n))
	return nil
}

// Cached returns a survey through the survey cache
func (s *SurveyService) Cached(ctx context.Context, id string) (*model.Survey, error) {
	survey, err := s.surveyCache.Get(ctx, id)
	if err != nil {
		s.log.Warn("survey cache read failed", zap.String("surveyId", id), zap.Error(err))
		survey = nil
	}
	if survey != nil {
		return survey, nil
	}

	survey, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.surveyCache.Set(ctx, survey); err != nil {
		s.log.Warn("survey cache write failed", zap.String("surveyId", id), zap.Error(err))
	}
	return survey, nil
}

// Published returns the survey as respondents see it. It fails with
// ErrSurveyNotAccepting unless the survey is open right now.
func (s *SurveyService) Published(ctx context.Context, id string) (*model.Survey, error) {
	survey, err := s.Cached(ctx, id)
	if err != nil {
		return nil, err
	}
	if !survey.AcceptingResponses(s.now()) {
		return nil, model.ErrSurveyNotAccepting
	}
	return survey, nil
}

func (s *SurveyService) invalidate(ctx context.Context, id string) {
	if err := s.surveyCache.Delete(ctx, id); err != nil {
		s.log.Warn("survey cache invalidation failed", zap.String("surveyId", id), zap.Error(err))
	}
}
