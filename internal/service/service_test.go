package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyhub/internal/model"
	"surveyhub/internal/results"
	"surveyhub/internal/takeflow"
)

func TestSurveyService_CreateNormalizesAsDraft(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	s := draftSurvey()
	s.Status = model.SurveyActive
	created, err := e.surveys.Create(ctx, "acct1", s)
	require.NoError(t, err)

	assert.Equal(t, model.SurveyDraft, created.Status)
	assert.Equal(t, "acct1", created.OwnerID)
	assert.Equal(t, model.QuestionTypeText, created.Questions[0].Type)
	assert.Equal(t, model.QuestionTypeCheckbox, created.Questions[1].Type)
	assert.Equal(t, model.QuestionTypeScale, created.Questions[2].Type)
	assert.Len(t, created.Questions[2].Options, 5)
	for _, o := range created.Questions[1].Options {
		assert.NotEmpty(t, o.ID)
	}

	_, err = e.surveys.Create(ctx, "", draftSurvey())
	assert.ErrorIs(t, err, ErrMissingOwner)
}

func TestSurveyService_PublishValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.surveys.Create(ctx, "acct1", &model.Survey{Title: "Empty"})
	require.NoError(t, err)

	_, err = e.surveys.SetStatus(ctx, "acct1", created.ID, model.SurveyActive)
	var pubErr *model.PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Contains(t, pubErr.Problems, "survey has no questions")

	_, err = e.surveys.SetStatus(ctx, "acct1", created.ID, model.SurveyScheduled)
	require.ErrorAs(t, err, &pubErr)
	assert.Contains(t, pubErr.Problems, "scheduled survey needs startAt")

	_, err = e.surveys.SetStatus(ctx, "acct1", created.ID, "archived")
	assert.ErrorIs(t, err, model.ErrInvalidStatus)

	_, err = e.surveys.Update(ctx, "acct1", created.ID, draftSurvey())
	require.NoError(t, err)
	active, err := e.surveys.SetStatus(ctx, "acct1", created.ID, model.SurveyActive)
	require.NoError(t, err)
	assert.Equal(t, model.SurveyActive, active.Status)

	require.Len(t, e.broadcaster.events, 1)
	assert.Equal(t, EventSurveyStatus, e.broadcaster.events[0].msgType)

	_, err = e.surveys.Update(ctx, "acct1", created.ID, &model.Survey{Title: "Emptied"})
	require.ErrorAs(t, err, &pubErr)
}

func TestSurveyService_Ownership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	created, err := e.surveys.Create(ctx, "acct1", draftSurvey())
	require.NoError(t, err)

	_, err = e.surveys.GetOwned(ctx, "acct2", created.ID)
	assert.ErrorIs(t, err, model.ErrSurveyNotFound)
	assert.ErrorIs(t, e.surveys.Delete(ctx, "acct2", created.ID), model.ErrSurveyNotFound)

	mine, err := e.surveys.ListByOwner(ctx, "acct1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := e.surveys.ListByOwner(ctx, "acct2")
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestSurveyService_PublishedRespectsSchedule(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	created, err := e.surveys.Create(ctx, "acct1", draftSurvey())
	require.NoError(t, err)

	_, err = e.surveys.Published(ctx, created.ID)
	assert.ErrorIs(t, err, model.ErrSurveyNotAccepting)

	start := time.Now().Add(time.Hour)
	in := draftSurvey()
	in.StartAt = &start
	_, err = e.surveys.Update(ctx, "acct1", created.ID, in)
	require.NoError(t, err)
	_, err = e.surveys.SetStatus(ctx, "acct1", created.ID, model.SurveyScheduled)
	require.NoError(t, err)

	_, err = e.surveys.Published(ctx, created.ID)
	assert.ErrorIs(t, err, model.ErrSurveyNotAccepting)

	e.surveys.now = func() time.Time { return start.Add(time.Minute) }
	got, err := e.surveys.Published(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = e.surveys.Published(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrSurveyNotFound)
}

func TestSurveyService_UpdateKeepsQuestionIDs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	survey := e.activeSurvey(t, draftSurvey())

	_, err := e.responses.Submit(ctx, survey.ID, model.Submission{
		Answers: []model.Answer{{QuestionID: "tools", Value: model.ChoicesValue("vim")}},
	})
	require.NoError(t, err)

	// an editor resending the survey without ids
	edited := draftSurvey()
	for i := range edited.Questions {
		edited.Questions[i].ID = ""
	}
	edited.Questions[1].Title = "Editors"
	edited.Questions = append(edited.Questions, model.Question{Type: "paragraph", Title: "Anything else?"})

	updated, err := e.surveys.Update(ctx, "acct1", survey.ID, edited)
	require.NoError(t, err)
	require.Len(t, updated.Questions, 4)
	assert.Equal(t, "name", updated.Questions[0].ID)
	assert.Equal(t, "tools", updated.Questions[1].ID)
	assert.Equal(t, "mood", updated.Questions[2].ID)
	assert.NotEmpty(t, updated.Questions[3].ID)
	assert.Equal(t, "Editors", updated.Questions[1].Title)
	for i, o := range updated.Questions[1].Options {
		assert.Equal(t, survey.Questions[1].Options[i].ID, o.ID)
	}

	sum, err := e.results.Summary(ctx, "acct1", survey.ID, results.Filter{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"vim": 1}, sum.Questions[1].Tally)
}

func TestSurveyService_UpdateCannotDropAnsweredQuestions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	draft, err := e.surveys.Create(ctx, "acct1", draftSurvey())
	require.NoError(t, err)
	trimmed := draftSurvey()
	trimmed.Questions = trimmed.Questions[:2]
	_, err = e.surveys.Update(ctx, "acct1", draft.ID, trimmed)
	require.NoError(t, err)

	survey := e.activeSurvey(t, draftSurvey())
	trimmed = draftSurvey()
	trimmed.Questions = trimmed.Questions[:2]
	_, err = e.surveys.Update(ctx, "acct1", survey.ID, trimmed)
	assert.ErrorIs(t, err, ErrQuestionRemoved)

	_, err = e.responses.Submit(ctx, survey.ID, model.Submission{
		Answers: []model.Answer{{QuestionID: "mood", Value: model.TextValue("3")}},
	})
	require.NoError(t, err)
	_, err = e.surveys.SetStatus(ctx, "acct1", survey.ID, model.SurveyPaused)
	require.NoError(t, err)

	trimmed = draftSurvey()
	trimmed.Questions = trimmed.Questions[:2]
	_, err = e.surveys.Update(ctx, "acct1", survey.ID, trimmed)
	assert.ErrorIs(t, err, ErrQuestionRemoved)

	stored, err := e.surveys.GetOwned(ctx, "acct1", survey.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Questions, 3)
}

func TestSurveyService_DeleteCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	survey := e.activeSurvey(t, draftSurvey())
	other := e.activeSurvey(t, draftSurvey())

	for _, id := range []string{survey.ID, survey.ID, other.ID} {
		_, err := e.responses.Submit(ctx, id, model.Submission{
			Answers: []model.Answer{{QuestionID: "name", Value: model.TextValue("x")}},
		})
		require.NoError(t, err)
	}
	assert.True(t, e.mr.Exists("survey:"+survey.ID))

	require.NoError(t, e.surveys.Delete(ctx, "acct1", survey.ID))

	assert.False(t, e.mr.Exists("survey:"+survey.ID))
	left, _ := e.respRepo.ListBySurvey(ctx, survey.ID)
	assert.Empty(t, left)
	kept, _ := e.respRepo.ListBySurvey(ctx, other.ID)
	assert.Len(t, kept, 1)
	assert.Equal(t, []string{survey.ID}, e.broadcaster.disconnected)

	_, err := e.surveys.Get(ctx, survey.ID)
	assert.ErrorIs(t, err, model.ErrSurveyNotFound)
}

func TestResponseService_Submit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	survey := e.activeSurvey(t, draftSurvey())

	id, err := e.responses.Submit(ctx, survey.ID, model.Submission{
		Answers: []model.Answer{
			{QuestionID: "tools", Value: model.TextValue("vim")},
			{QuestionID: "mood", Value: model.TextValue("4")},
		},
		PersonalInfo: &model.PersonalInfo{Consent: true},
	})
	require.NoError(t, err)

	stored := e.respRepo.responses[0]
	assert.Equal(t, id, stored.ID)
	assert.Equal(t, model.ChoicesValue("vim"), stored.Answers[0].Value)
	assert.Equal(t, model.NumberValue(4), stored.Answers[1].Value)
	assert.Nil(t, stored.PersonalInfo)
	assert.False(t, stored.SubmittedAt.IsZero())

	last := e.broadcaster.events[len(e.broadcaster.events)-1]
	assert.Equal(t, EventResponseSubmitted, last.msgType)
	assert.Equal(t, ResponseSubmittedPayload{SurveyID: survey.ID, ResponseID: id, TotalResponses: 1}, last.payload)

	_, err = e.responses.Submit(ctx, survey.ID, model.Submission{
		Answers: []model.Answer{{QuestionID: "ghost", Value: model.TextValue("x")}},
	})
	assert.ErrorIs(t, err, model.ErrUnknownQuestion)
	assert.Len(t, e.respRepo.responses, 1)
}

func TestTakeService_FullFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	survey := e.activeSurvey(t, draftSurvey())

	opened, err := e.take.Open(ctx, survey.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepCover, opened.Session.Step)

	claims, err := e.tokens.Parse(opened.Token)
	require.NoError(t, err)
	assert.Equal(t, survey.ID, claims.SurveyID)

	_, err = e.take.SetAnswer(ctx, claims, "name", model.TextValue("early"))
	assert.ErrorIs(t, err, takeflow.ErrWrongStep)

	v, err := e.take.Start(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, model.StepQuestions, v.Step)

	_, err = e.take.SetAnswer(ctx, claims, "tools", model.ChoicesValue("vim", "emacs"))
	require.NoError(t, err)

	res, err := e.take.Next(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, model.StepQuestions, res.Step)
	assert.Equal(t, "name", res.Focus)
	assert.Empty(t, e.respRepo.responses)

	_, err = e.take.SetAnswer(ctx, claims, "name", model.TextValue("platform"))
	require.NoError(t, err)
	res, err = e.take.Next(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, model.StepEnding, res.Step)
	assert.NotEmpty(t, res.ResponseID)
	assert.Equal(t, res.ResponseID, res.Session.ResponseID)

	_, err = e.take.Next(ctx, claims)
	assert.ErrorIs(t, err, takeflow.ErrTerminal)
	require.Len(t, e.respRepo.responses, 1)
	assert.Equal(t, model.ChoicesValue("vim", "emacs"), e.respRepo.responses[0].Answers[1].Value)

	got, err := e.take.Get(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, model.StepEnding, got.Step)
}

func TestTakeService_PersonalInfo(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := draftSurvey()
	s.PersonalInfo = model.PersonalInfoConfig{Enabled: true, Fields: []string{"phone"}, ConsentRequired: true}
	survey := e.activeSurvey(t, s)

	opened, err := e.take.Open(ctx, survey.ID)
	require.NoError(t, err)
	claims, err := e.tokens.Parse(opened.Token)
	require.NoError(t, err)

	_, err = e.take.Start(ctx, claims)
	require.NoError(t, err)
	_, err = e.take.SetAnswer(ctx, claims, "name", model.TextValue("platform"))
	require.NoError(t, err)
	_, err = e.take.SetAnswer(ctx, claims, "tools", model.ChoicesValue("vim"))
	require.NoError(t, err)

	res, err := e.take.Next(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, model.StepPersonalInfo, res.Step)

	res, err = e.take.Next(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, model.StepPersonalInfo, res.Step)
	assert.Len(t, res.MissingFields, 3)

	yes := true
	_, err = e.take.SetPersonalInfo(ctx, claims, map[string]string{"name": "Kim", "phone": "010-0000-0000"}, &yes)
	require.NoError(t, err)
	res, err = e.take.Next(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, model.StepEnding, res.Step)

	require.Len(t, e.respRepo.responses, 1)
	assert.Equal(t, "010-0000-0000", e.respRepo.responses[0].PersonalInfo.Get("phone"))
}

func TestTakeService_SubmitFailureKeepsStep(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	survey := e.activeSurvey(t, draftSurvey())
	opened, err := e.take.Open(ctx, survey.ID)
	require.NoError(t, err)
	claims, err := e.tokens.Parse(opened.Token)
	require.NoError(t, err)

	_, err = e.take.Start(ctx, claims)
	require.NoError(t, err)
	_, err = e.take.SetAnswer(ctx, claims, "name", model.TextValue("a"))
	require.NoError(t, err)
	_, err = e.take.SetAnswer(ctx, claims, "tools", model.ChoicesValue("vim"))
	require.NoError(t, err)

	boom := errors.New("write concern timeout")
	e.respRepo.createErr = boom
	_, err = e.take.Next(ctx, claims)
	require.ErrorIs(t, err, boom)

	state, err := e.sessions.Get(ctx, claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StepQuestions, state.Step)
	assert.Equal(t, 1, state.Submissions)

	e.respRepo.createErr = nil
	res, err := e.take.Next(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, model.StepEnding, res.Step)
	assert.Len(t, e.respRepo.responses, 1)
}

func TestTakeService_ConcurrentAdvanceRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	survey := e.activeSurvey(t, draftSurvey())
	opened, err := e.take.Open(ctx, survey.ID)
	require.NoError(t, err)
	claims, err := e.tokens.Parse(opened.Token)
	require.NoError(t, err)

	unlock, err := e.sessions.Lock(ctx, claims.SessionID)
	require.NoError(t, err)
	_, err = e.take.Next(ctx, claims)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	unlock()

	_, err = e.take.Next(ctx, claims)
	assert.NoError(t, err)
}

func TestTakeService_ClosedSurvey(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	created, err := e.surveys.Create(ctx, "acct1", draftSurvey())
	require.NoError(t, err)

	_, err = e.take.Open(ctx, created.ID)
	assert.ErrorIs(t, err, model.ErrSurveyNotAccepting)

	_, err = e.take.Next(ctx, &model.SessionClaims{SurveyID: created.ID, SessionID: "t_gone"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestResultsService(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	survey := e.activeSurvey(t, draftSurvey())

	day := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	subs := []model.Submission{
		{Answers: []model.Answer{{QuestionID: "tools", Value: model.ChoicesValue("vim", "emacs")}}, StartedAt: day.Add(-time.Minute), SubmittedAt: day},
		{Answers: []model.Answer{{QuestionID: "tools", Value: model.ChoicesValue("vim", "emacs")}}, StartedAt: day.Add(-3 * time.Minute), SubmittedAt: day.Add(time.Hour)},
		{Answers: []model.Answer{{QuestionID: "tools", Value: model.ChoicesValue("emacs")}}, StartedAt: day.Add(-2 * time.Hour), SubmittedAt: day.Add(12 * time.Hour)},
	}
	for _, sub := range subs {
		_, err := e.responses.Submit(ctx, survey.ID, sub)
		require.NoError(t, err)
	}

	listing, err := e.results.Responses(ctx, "acct1", survey.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, listing.TotalResponses)

	sum, err := e.results.Summary(ctx, "acct1", survey.ID, results.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.FilteredResponses)
	assert.Equal(t, 120.0, sum.AvgCompletionSec)
	tools := sum.Questions[1]
	assert.Equal(t, map[string]int{"vim": 2, "emacs": 3}, tools.Tally)

	sum, err = e.results.Summary(ctx, "acct1", survey.ID, results.Filter{TimeBucket: results.BucketMorning})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalResponses)
	assert.Equal(t, 2, sum.FilteredResponses)

	_, err = e.results.Summary(ctx, "acct2", survey.ID, results.Filter{})
	assert.ErrorIs(t, err, model.ErrSurveyNotFound)
}

func TestTokenService(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	token, err := tokens.Issue("s1", "t1")
	require.NoError(t, err)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.SurveyID)
	assert.Equal(t, "t1", claims.SessionID)

	_, err = NewTokenService("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tokens.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
