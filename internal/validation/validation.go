package validation

import (
	"surveyhub/internal/model"
)

// MissingQuestion is a required question with no usable answer
type MissingQuestion struct {
	QuestionID string `json:"questionId"`
	Label      string `json:"label"`
}

// MissingField is a required personal-info entry with no usable value
type MissingField struct {
	FieldKey string `json:"fieldKey"`
	Label    string `json:"label"`
}

// ValidateAnswers returns every required question whose answer is absent,
// blank after trimming, or an empty selection, in question order.
func ValidateAnswers(questions []model.Question, answers map[string]model.AnswerValue) []MissingQuestion {
	byID := make(map[string]model.AnswerValue, len(answers))
	for k, v := range answers {
		byID[model.IDString(k)] = v
	}

	missing := []MissingQuestion{}
	for i := range questions {
		q := &questions[i]
		if !q.Required {
			continue
		}
		v, ok := byID[model.IDString(q.ID)]
		if ok && !v.IsEmpty() {
			continue
		}
		missing = append(missing, MissingQuestion{QuestionID: q.ID, Label: q.Label()})
	}
	return missing
}

// ValidatePersonalInfo returns every unmet personal-info requirement:
// required standard fields in catalog order, then required custom fields in
// config order, then consent. A disabled config has no requirements.
func ValidatePersonalInfo(cfg model.PersonalInfoConfig, info model.PersonalInfo) []MissingField {
	missing := []MissingField{}
	if !cfg.Enabled {
		return missing
	}

	for _, f := range cfg.RequestedFields() {
		if f.Required && info.Get(f.Key) == "" {
			missing = append(missing, MissingField{FieldKey: f.Key, Label: f.Label})
		}
	}
	for _, f := range cfg.CustomFields {
		if f.Required && info.Get(f.ID) == "" {
			label := f.Label
			if label == "" {
				label = f.ID
			}
			missing = append(missing, MissingField{FieldKey: f.ID, Label: label})
		}
	}
	if cfg.ConsentRequired && !info.Consent {
		missing = append(missing, MissingField{FieldKey: model.ConsentKey, Label: model.ConsentLabel})
	}
	return missing
}

// FirstMissing returns the id of the first offending question, or "" when none.
func FirstMissing(missing []MissingQuestion) string {
	if len(missing) == 0 {
		return ""
	}
	return missing[0].QuestionID
}
