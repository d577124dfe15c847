package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"surveyhub/internal/cache"
	"surveyhub/internal/model"
	"surveyhub/internal/normalizer"
)

type fakeSurveyRepo struct {
	mu      sync.Mutex
	seq     int
	surveys map[string]model.Survey
}

func newFakeSurveyRepo() *fakeSurveyRepo {
	return &fakeSurveyRepo{surveys: make(map[string]model.Survey)}
}

func (r *fakeSurveyRepo) Create(_ context.Context, s *model.Survey) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	s.ID = fmt.Sprintf("survey%d", r.seq)
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	r.surveys[s.ID] = *s
	return s.ID, nil
}

func (r *fakeSurveyRepo) GetByID(_ context.Context, id string) (*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *fakeSurveyRepo) ListByOwner(_ context.Context, ownerID string) ([]*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Survey{}
	for _, s := range r.surveys {
		if s.OwnerID == ownerID {
			s := s
			out = append(out, &s)
		}
	}
	return out, nil
}

func (r *fakeSurveyRepo) Update(_ context.Context, s *model.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surveys[s.ID]; !ok {
		return model.ErrSurveyNotFound
	}
	s.UpdatedAt = time.Now()
	r.surveys[s.ID] = *s
	return nil
}

func (r *fakeSurveyRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surveys[id]; !ok {
		return model.ErrSurveyNotFound
	}
	delete(r.surveys, id)
	return nil
}

func (r *fakeSurveyRepo) EnsureIndexes(context.Context) error { return nil }

type fakeResponseRepo struct {
	mu        sync.Mutex
	seq       int
	responses []*model.Response
	createErr error
}

func (r *fakeResponseRepo) Create(_ context.Context, resp *model.Response) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return "", r.createErr
	}
	r.seq++
	resp.ID = fmt.Sprintf("resp%d", r.seq)
	r.responses = append(r.responses, resp)
	return resp.ID, nil
}

func (r *fakeResponseRepo) ListBySurvey(_ context.Context, surveyID string) ([]*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Response{}
	for _, resp := range r.responses {
		if resp.SurveyID == surveyID {
			out = append(out, resp)
		}
	}
	return out, nil
}

func (r *fakeResponseRepo) CountBySurvey(ctx context.Context, surveyID string) (int64, error) {
	list, _ := r.ListBySurvey(ctx, surveyID)
	return int64(len(list)), nil
}

func (r *fakeResponseRepo) DeleteBySurvey(_ context.Context, surveyID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.responses[:0]
	var n int64
	for _, resp := range r.responses {
		if resp.SurveyID == surveyID {
			n++
			continue
		}
		kept = append(kept, resp)
	}
	r.responses = kept
	return n, nil
}

func (r *fakeResponseRepo) EnsureIndexes(context.Context) error { return nil }

type event struct {
	surveyID string
	msgType  string
	payload  interface{}
}

type fakeBroadcaster struct {
	mu           sync.Mutex
	events       []event
	disconnected []string
}

func (b *fakeBroadcaster) BroadcastToSurvey(surveyID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event{surveyID, msgType, payload})
}

func (b *fakeBroadcaster) DisconnectSurvey(surveyID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnected = append(b.disconnected, surveyID)
}

// env wires every service against in-memory fakes and miniredis
type env struct {
	mr          *miniredis.Miniredis
	surveyRepo  *fakeSurveyRepo
	respRepo    *fakeResponseRepo
	sessions    cache.SessionCache
	broadcaster *fakeBroadcaster
	tokens      *TokenService
	surveys     *SurveyService
	responses   *ResponseService
	take        *TakeService
	results     *ResultsService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := zap.NewNop()
	e := &env{
		mr:          mr,
		surveyRepo:  newFakeSurveyRepo(),
		respRepo:    &fakeResponseRepo{},
		sessions:    cache.NewSessionCache(client, time.Hour),
		broadcaster: &fakeBroadcaster{},
		tokens:      NewTokenService("test-secret", time.Hour),
	}
	e.surveys = NewSurveyService(e.surveyRepo, e.respRepo, cache.NewSurveyCache(client, time.Minute), normalizer.New(&normalizer.CounterGenerator{}), log)
	e.surveys.SetBroadcaster(e.broadcaster)
	e.responses = NewResponseService(e.surveys, e.respRepo, log)
	e.responses.SetBroadcaster(e.broadcaster)
	e.take = NewTakeService(e.surveys, e.sessions, e.responses, e.tokens, log)
	e.results = NewResultsService(e.surveys, e.respRepo, time.UTC, log)
	return e
}

func draftSurvey() *model.Survey {
	return &model.Survey{
		Title: "Team pulse",
		Questions: []model.Question{
			{ID: "name", Type: "short_text", Title: "Your team", Required: true},
			{ID: "tools", Type: "checkboxes", Title: "Tools", Required: true,
				Options: []model.Option{{Text: "vim"}, {Text: "emacs"}, {Text: "vscode"}}},
			{ID: "mood", Type: "likert", Title: "Mood"},
		},
	}
}

// activeSurvey creates and publishes a survey owned by "acct1"
func (e *env) activeSurvey(t *testing.T, s *model.Survey) *model.Survey {
	t.Helper()
	ctx := context.Background()
	created, err := e.surveys.Create(ctx, "acct1", s)
	if err != nil {
		t.Fatal(err)
	}
	active, err := e.surveys.SetStatus(ctx, "acct1", created.ID, model.SurveyActive)
	if err != nil {
		t.Fatal(err)
	}
	return active
}
