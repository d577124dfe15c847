package model

import (
	"errors"
	"time"
)

var ErrUnknownQuestion = errors.New("answer references an unknown question")

// Response is one completed respondent session. It is written once and never updated.
type Response struct {
	ID           string        `json:"id" bson:"_id,omitempty"`
	SurveyID     string        `json:"surveyId" bson:"surveyId"`
	StartedAt    time.Time     `json:"startedAt" bson:"startedAt"`
	SubmittedAt  time.Time     `json:"submittedAt" bson:"submittedAt"`
	Answers      []Answer      `json:"answers" bson:"answers"`
	PersonalInfo *PersonalInfo `json:"personalInfo,omitempty" bson:"personalInfo,omitempty"`
}

// FindAnswer returns the answer recorded for questionID. A miss is a normal
// outcome, distinct from a found answer whose value is empty.
func (r *Response) FindAnswer(questionID string) (*Answer, bool) {
	id := IDString(questionID)
	for i := range r.Answers {
		if IDString(r.Answers[i].QuestionID) == id {
			return &r.Answers[i], true
		}
	}
	return nil, false
}

// AnswerFor resolves the answer to q and reshapes it to q's canonical type.
func (r *Response) AnswerFor(q *Question) (AnswerValue, bool) {
	a, ok := r.FindAnswer(q.ID)
	if !ok {
		return AnswerValue{}, false
	}
	return a.Value.Coerce(q.Type), true
}

// CompletionTime is the time between starting and submitting.
func (r *Response) CompletionTime() time.Duration {
	if r.StartedAt.IsZero() || r.SubmittedAt.IsZero() {
		return 0
	}
	return r.SubmittedAt.Sub(r.StartedAt)
}

// Submission is the payload produced at the end of a take session
type Submission struct {
	Answers      []Answer      `json:"answers"`
	PersonalInfo *PersonalInfo `json:"personalInfo,omitempty"`
	StartedAt    time.Time     `json:"startedAt"`
	SubmittedAt  time.Time     `json:"submittedAt"`
}

// ResultAnswer is an answer as exposed by the results query
type ResultAnswer struct {
	QuestionID string      `json:"questionId"`
	Answer     AnswerValue `json:"answer"`
}

// ResultRow is one response as exposed by the results query
type ResultRow struct {
	ID          string         `json:"id"`
	SubmittedAt time.Time      `json:"submittedAt"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	Answers     []ResultAnswer `json:"answers"`
}

// ResultsQuery is the raw results listing for one survey
type ResultsQuery struct {
	TotalResponses int         `json:"totalResponses"`
	Results        []ResultRow `json:"results"`
}

// NewResultsQuery converts stored responses into the results listing.
func NewResultsQuery(responses []*Response) *ResultsQuery {
	rows := make([]ResultRow, 0, len(responses))
	for _, r := range responses {
		row := ResultRow{
			ID:          r.ID,
			SubmittedAt: r.SubmittedAt,
			Answers:     make([]ResultAnswer, 0, len(r.Answers)),
		}
		if !r.StartedAt.IsZero() {
			started := r.StartedAt
			row.StartedAt = &started
		}
		for _, a := range r.Answers {
			row.Answers = append(row.Answers, ResultAnswer{QuestionID: a.QuestionID, Answer: a.Value})
		}
		rows = append(rows, row)
	}
	return &ResultsQuery{TotalResponses: len(responses), Results: rows}
}
