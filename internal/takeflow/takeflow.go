// Package takeflow drives one respondent through a survey:
// cover, questions, optional personal info, ending. Each guarded transition
// runs the validation engine and the move into the ending step performs the
// one and only submission of the session.
package takeflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"surveyhub/internal/model"
	"surveyhub/internal/validation"
)

var (
	ErrTerminal        = errors.New("takeflow: session already ended")
	ErrWrongStep       = errors.New("takeflow: operation not allowed in current step")
	ErrUnknownQuestion = errors.New("takeflow: question not in survey")
)

// Submitter stores a finished submission and returns the new response id.
type Submitter interface {
	Submit(ctx context.Context, surveyID string, sub model.Submission) (string, error)
}

// Outcome reports what a call to Next did
type Outcome struct {
	Step             model.Step                   `json:"step"`
	Advanced         bool                         `json:"advanced"`
	MissingQuestions []validation.MissingQuestion `json:"missingQuestions,omitempty"`
	MissingFields    []validation.MissingField    `json:"missingFields,omitempty"`
	Focus            string                       `json:"focus,omitempty"`
	ResponseID       string                       `json:"responseId,omitempty"`
}

// Session is one respondent's pass through a survey. It is not safe for
// concurrent use; callers serialize access per session.
type Session struct {
	survey    *model.Survey
	state     model.TakeSession
	submitter Submitter
	now       func() time.Time
}

// New opens a session at the cover step.
func New(id string, survey *model.Survey, submitter Submitter, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Session{
		survey:    survey,
		submitter: submitter,
		now:       now,
		state: model.TakeSession{
			ID:        id,
			SurveyID:  survey.ID,
			Step:      model.StepCover,
			Answers:   make(map[string]model.AnswerValue),
			UpdatedAt: t,
		},
	}
}

// Restore resumes a session from a stored snapshot.
func Restore(survey *model.Survey, state model.TakeSession, submitter Submitter, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	if state.Answers == nil {
		state.Answers = make(map[string]model.AnswerValue)
	}
	if state.Step == "" {
		state.Step = model.StepCover
	}
	return &Session{survey: survey, state: state, submitter: submitter, now: now}
}

func (s *Session) Step() model.Step {
	return s.state.Step
}

// Snapshot returns a copy of the session state for storage.
func (s *Session) Snapshot() model.TakeSession {
	out := s.state
	out.Answers = make(map[string]model.AnswerValue, len(s.state.Answers))
	for k, v := range s.state.Answers {
		out.Answers[k] = v
	}
	if s.state.PersonalInfo.Fields != nil {
		out.PersonalInfo.Fields = make(map[string]string, len(s.state.PersonalInfo.Fields))
		for k, v := range s.state.PersonalInfo.Fields {
			out.PersonalInfo.Fields[k] = v
		}
	}
	return out
}

// Start moves from the cover to the questions. The completion clock starts here.
func (s *Session) Start() error {
	switch s.state.Step {
	case model.StepEnding:
		return ErrTerminal
	case model.StepCover:
	default:
		return ErrWrongStep
	}
	t := s.now()
	s.state.Step = model.StepQuestions
	s.state.StartedAt = t
	s.state.UpdatedAt = t
	return nil
}

// SetAnswer records the answer to one question, reshaped to the question's
// type. A zero value clears the answer.
func (s *Session) SetAnswer(questionID string, v model.AnswerValue) error {
	if err := s.expect(model.StepQuestions); err != nil {
		return err
	}
	q, ok := s.survey.QuestionByID(questionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if v.Kind == "" {
		delete(s.state.Answers, q.ID)
	} else {
		s.state.Answers[q.ID] = v.Coerce(q.Type)
	}
	s.state.UpdatedAt = s.now()
	return nil
}

// SetPersonalInfo merges field values and, when given, the consent flag.
// Keys the survey does not request are ignored.
func (s *Session) SetPersonalInfo(fields map[string]string, consent *bool) error {
	if err := s.expect(model.StepPersonalInfo); err != nil {
		return err
	}
	allowed := s.requestedKeys()
	for k, v := range fields {
		k = strings.TrimSpace(k)
		if !allowed[k] {
			k = strings.ToLower(k)
			if !allowed[k] {
				continue
			}
		}
		s.state.PersonalInfo.Set(k, v)
	}
	if consent != nil {
		s.state.PersonalInfo.Consent = *consent
	}
	s.state.UpdatedAt = s.now()
	return nil
}

func (s *Session) requestedKeys() map[string]bool {
	cfg := s.survey.PersonalInfo
	keys := make(map[string]bool, len(cfg.Fields)+len(cfg.CustomFields)+1)
	for _, f := range cfg.RequestedFields() {
		keys[f.Key] = true
	}
	for _, f := range cfg.CustomFields {
		if id := strings.TrimSpace(f.ID); id != "" {
			keys[id] = true
		}
	}
	return keys
}

// Next attempts the forward transition out of the current step. Validation
// failures are not errors: the session stays put and the outcome lists every
// violation. A failed submission returns the error and leaves the session
// where it was so the same transition can be retried.
func (s *Session) Next(ctx context.Context) (Outcome, error) {
	switch s.state.Step {
	case model.StepCover:
		if err := s.Start(); err != nil {
			return Outcome{Step: s.state.Step}, err
		}
		return Outcome{Step: s.state.Step, Advanced: true}, nil

	case model.StepQuestions:
		missing := validation.ValidateAnswers(s.survey.Questions, s.state.Answers)
		if len(missing) > 0 {
			return Outcome{
				Step:             model.StepQuestions,
				MissingQuestions: missing,
				Focus:            validation.FirstMissing(missing),
			}, nil
		}
		if s.survey.PersonalInfo.Enabled {
			s.state.Step = model.StepPersonalInfo
			s.state.UpdatedAt = s.now()
			return Outcome{Step: s.state.Step, Advanced: true}, nil
		}
		return s.submit(ctx)

	case model.StepPersonalInfo:
		missing := validation.ValidatePersonalInfo(s.survey.PersonalInfo, s.state.PersonalInfo)
		if len(missing) > 0 {
			return Outcome{
				Step:          model.StepPersonalInfo,
				MissingFields: missing,
				Focus:         missing[0].FieldKey,
			}, nil
		}
		return s.submit(ctx)
	}
	return Outcome{Step: s.state.Step}, ErrTerminal
}

func (s *Session) submit(ctx context.Context) (Outcome, error) {
	sub := s.Submission()
	sub.SubmittedAt = s.now()

	s.state.Submissions++
	responseID, err := s.submitter.Submit(ctx, s.survey.ID, sub)
	if err != nil {
		return Outcome{Step: s.state.Step}, fmt.Errorf("takeflow: submit: %w", err)
	}

	submitted := sub.SubmittedAt
	s.state.Step = model.StepEnding
	s.state.SubmittedAt = &submitted
	s.state.ResponseID = responseID
	s.state.UpdatedAt = submitted
	return Outcome{Step: model.StepEnding, Advanced: true, ResponseID: responseID}, nil
}

// Submission builds the payload from the current answers: one entry per
// answered question in question order, plus personal info when enabled.
func (s *Session) Submission() model.Submission {
	sub := model.Submission{
		Answers:   make([]model.Answer, 0, len(s.state.Answers)),
		StartedAt: s.state.StartedAt,
	}
	for _, q := range s.survey.Questions {
		v, ok := s.state.Answers[q.ID]
		if !ok {
			continue
		}
		sub.Answers = append(sub.Answers, model.Answer{QuestionID: q.ID, Value: v.Coerce(q.Type)})
	}
	if s.survey.PersonalInfo.Enabled {
		pi := s.Snapshot().PersonalInfo
		sub.PersonalInfo = &pi
	}
	return sub
}

func (s *Session) expect(step model.Step) error {
	if s.state.Step == model.StepEnding {
		return ErrTerminal
	}
	if s.state.Step != step {
		return ErrWrongStep
	}
	return nil
}
