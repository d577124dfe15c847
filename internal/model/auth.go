package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims for a respondent's survey-scoped take session
type SessionClaims struct {
	SurveyID  string `json:"surveyId"`
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// SessionStartResponse is returned when a respondent opens a survey
type SessionStartResponse struct {
	Token   string       `json:"token"`
	Session *SessionView `json:"session"`
}

// SessionView is what the respondent's client renders for the current step
type SessionView struct {
	SessionID  string                 `json:"sessionId"`
	Step       Step                   `json:"step"`
	Survey     *Survey                `json:"survey,omitempty"`
	Answers    map[string]AnswerValue `json:"answers"`
	ResponseID string                 `json:"responseId,omitempty"`
}
