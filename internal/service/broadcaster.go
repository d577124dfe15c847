package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSurvey(surveyID string, msgType string, payload interface{})
	DisconnectSurvey(surveyID string)
}

// Event types pushed to operators watching a survey's results
const (
	EventResponseSubmitted = "response_submitted"
	EventSurveyStatus      = "survey_status"
)

// ResponseSubmittedPayload is sent after each stored response
type ResponseSubmittedPayload struct {
	SurveyID       string `json:"surveyId"`
	ResponseID     string `json:"responseId"`
	TotalResponses int64  `json:"totalResponses"`
}

// SurveyStatusPayload is sent when the operator changes a survey's status
type SurveyStatusPayload struct {
	SurveyID string `json:"surveyId"`
	Status   string `json:"status"`
}
