package model

import "time"

// Step is a position in the survey-taking flow
type Step string

const (
	StepCover        Step = "cover"
	StepQuestions    Step = "questions"
	StepPersonalInfo Step = "personal_info"
	StepEnding       Step = "ending"
)

// TakeSession is the ephemeral state of one respondent working through a
// survey. It lives in Redis with a TTL and is discarded once the response
// is stored or the TTL runs out.
type TakeSession struct {
	ID           string                 `json:"id"`
	SurveyID     string                 `json:"surveyId"`
	Step         Step                   `json:"step"`
	Answers      map[string]AnswerValue `json:"answers"`
	PersonalInfo PersonalInfo           `json:"personalInfo"`
	StartedAt    time.Time              `json:"startedAt"`
	SubmittedAt  *time.Time             `json:"submittedAt,omitempty"`
	ResponseID   string                 `json:"responseId,omitempty"`
	Submissions  int                    `json:"submissions"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}
