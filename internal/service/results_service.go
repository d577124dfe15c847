package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"surveyhub/internal/model"
	"surveyhub/internal/repository"
	"surveyhub/internal/results"
)

// ResultsService serves the results views. Every call recomputes from the
// stored responses; nothing is cached.
type ResultsService struct {
	surveys      *SurveyService
	responseRepo repository.ResponseRepo
	loc          *time.Location
	log          *zap.Logger
}

// NewResultsService creates a new results service. Dates and time-of-day
// buckets are evaluated in loc.
func NewResultsService(surveys *SurveyService, responseRepo repository.ResponseRepo, loc *time.Location, log *zap.Logger) *ResultsService {
	if loc == nil {
		loc = time.UTC
	}
	return &ResultsService{
		surveys:      surveys,
		responseRepo: responseRepo,
		loc:          loc,
		log:          log,
	}
}

func (s *ResultsService) Location() *time.Location {
	return s.loc
}

// load fetches the survey and its responses concurrently
func (s *ResultsService) load(ctx context.Context, ownerID, surveyID string) (*model.Survey, []*model.Response, error) {
	var (
		survey    *model.Survey
		responses []*model.Response
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		survey, err = s.surveys.GetOwned(gctx, ownerID, surveyID)
		return err
	})
	g.Go(func() error {
		var err error
		responses, err = s.responseRepo.ListBySurvey(gctx, surveyID)
		if err != nil {
			return fmt.Errorf("service: list responses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return survey, responses, nil
}

// Responses returns the raw results listing of a survey
func (s *ResultsService) Responses(ctx context.Context, ownerID, surveyID string) (*model.ResultsQuery, error) {
	_, responses, err := s.load(ctx, ownerID, surveyID)
	if err != nil {
		return nil, err
	}
	return model.NewResultsQuery(responses), nil
}

// Summary filters the responses and aggregates every question
func (s *ResultsService) Summary(ctx context.Context, ownerID, surveyID string, filter results.Filter) (*model.ResultsSummary, error) {
	survey, responses, err := s.load(ctx, ownerID, surveyID)
	if err != nil {
		return nil, err
	}

	filtered := results.Apply(responses, filter, s.loc)
	s.log.Debug("results computed",
		zap.String("surveyId", surveyID),
		zap.Int("total", len(responses)),
		zap.Int("filtered", len(filtered)))
	return results.Summarize(survey, responses, filtered, s.loc), nil
}
