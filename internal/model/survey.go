package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrSurveyNotFound     = errors.New("survey not found")
	ErrSurveyNotAccepting = errors.New("survey is not accepting responses")
	ErrInvalidStatus      = errors.New("invalid survey status")
)

// SurveyStatus is the survey lifecycle state
type SurveyStatus string

const (
	SurveyDraft     SurveyStatus = "draft"
	SurveyInactive  SurveyStatus = "inactive"
	SurveyActive    SurveyStatus = "active"
	SurveyScheduled SurveyStatus = "scheduled"
	SurveyPaused    SurveyStatus = "paused"
	SurveyCompleted SurveyStatus = "completed"
)

// Valid reports whether s is a known lifecycle status.
func (s SurveyStatus) Valid() bool {
	switch s {
	case SurveyDraft, SurveyInactive, SurveyActive, SurveyScheduled, SurveyPaused, SurveyCompleted:
		return true
	}
	return false
}

// IsPublished reports whether respondents may see the survey under this status.
func (s SurveyStatus) IsPublished() bool {
	return s == SurveyActive || s == SurveyScheduled
}

// Survey is a persistent questionnaire owned by one operator account
type Survey struct {
	ID           string             `json:"id" bson:"_id,omitempty" yaml:"id,omitempty"`
	OwnerID      string             `json:"ownerId" bson:"ownerId" yaml:"ownerId"`
	Title        string             `json:"title" bson:"title" yaml:"title"`
	Description  string             `json:"description" bson:"description" yaml:"description"`
	Questions    []Question         `json:"questions" bson:"questions" yaml:"questions"`
	PersonalInfo PersonalInfoConfig `json:"personalInfo" bson:"personalInfo" yaml:"personalInfo"`
	Status       SurveyStatus       `json:"status" bson:"status" yaml:"status"`
	StartAt      *time.Time         `json:"startAt,omitempty" bson:"startAt,omitempty" yaml:"startAt,omitempty"`
	EndAt        *time.Time         `json:"endAt,omitempty" bson:"endAt,omitempty" yaml:"endAt,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt" yaml:"-"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt" yaml:"-"`
}

// QuestionByID finds a question by its id after string coercion.
func (s *Survey) QuestionByID(id string) (*Question, bool) {
	id = IDString(id)
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

// EffectiveStatus resolves the schedule window against now: a scheduled
// survey whose start has passed is active, and any open survey whose end
// has passed is completed.
func (s *Survey) EffectiveStatus(now time.Time) SurveyStatus {
	status := s.Status
	if status == SurveyScheduled && s.StartAt != nil && !now.Before(*s.StartAt) {
		status = SurveyActive
	}
	if s.EndAt != nil && now.After(*s.EndAt) {
		switch status {
		case SurveyActive, SurveyScheduled, SurveyPaused:
			status = SurveyCompleted
		}
	}
	return status
}

// AcceptingResponses reports whether a respondent may start or submit now.
func (s *Survey) AcceptingResponses(now time.Time) bool {
	return s.EffectiveStatus(now) == SurveyActive
}

// PublishError lists every reason a survey cannot be published
type PublishError struct {
	Problems []string
}

func (e *PublishError) Error() string {
	return "survey cannot be published: " + strings.Join(e.Problems, "; ")
}

// ValidateForPublish checks the publish-time invariants. It returns nil or
// a *PublishError carrying every problem found.
func (s *Survey) ValidateForPublish(target SurveyStatus) error {
	var problems []string
	if strings.TrimSpace(s.Title) == "" {
		problems = append(problems, "title is empty")
	}
	if len(s.Questions) == 0 {
		problems = append(problems, "survey has no questions")
	}
	if target == SurveyScheduled && s.StartAt == nil {
		problems = append(problems, "scheduled survey needs startAt")
	}
	if s.StartAt != nil && s.EndAt != nil && !s.StartAt.Before(*s.EndAt) {
		problems = append(problems, "startAt must be before endAt")
	}

	seen := make(map[string]bool, len(s.Questions))
	for i, q := range s.Questions {
		name := fmt.Sprintf("question %d", i+1)
		if q.ID == "" {
			problems = append(problems, name+" has no id")
		} else if seen[q.ID] {
			problems = append(problems, fmt.Sprintf("%s has duplicate id %q", name, q.ID))
		}
		seen[q.ID] = true

		if !q.Type.IsCanonical() {
			problems = append(problems, fmt.Sprintf("%s has unknown type %q", name, q.Type))
		}
		if strings.TrimSpace(q.Title) == "" {
			problems = append(problems, name+" has no text")
		}
		if q.Type.IsChoice() {
			if len(q.Options) == 0 {
				problems = append(problems, name+" has no options")
			}
			for j, o := range q.Options {
				if strings.TrimSpace(o.Text) == "" {
					problems = append(problems, fmt.Sprintf("%s option %d is empty", name, j+1))
				}
			}
		}
		if q.Type == QuestionTypeScale && (q.Scale == nil || q.Scale.Min >= q.Scale.Max) {
			problems = append(problems, name+" scale needs min < max")
		}
		if q.Type == QuestionTypeStarRating && q.StarCount < 1 {
			problems = append(problems, name+" needs at least one star")
		}
	}

	if len(problems) > 0 {
		return &PublishError{Problems: problems}
	}
	return nil
}
