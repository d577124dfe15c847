package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"surveyhub/internal/model"
)

func questions() []model.Question {
	return []model.Question{
		{ID: "q1", Type: model.QuestionTypeText, Title: "Name your team", Required: true},
		{ID: "q2", Type: model.QuestionTypeRadio, Title: "Favourite", Required: false},
		{ID: "q3", Type: model.QuestionTypeCheckbox, Title: "Tools", Required: true},
		{ID: "q4", Type: model.QuestionTypeTextarea, Title: "", Required: false},
		{ID: "q5", Type: model.QuestionTypeScale, Title: "Overall", Required: true},
	}
}

func TestValidateAnswers_ReturnsAllMissingInOrder(t *testing.T) {
	answers := map[string]model.AnswerValue{
		"q3": model.ChoicesValue("vim"),
	}

	missing := ValidateAnswers(questions(), answers)

	assert.Equal(t, []MissingQuestion{
		{QuestionID: "q1", Label: "Name your team"},
		{QuestionID: "q5", Label: "Overall"},
	}, missing)
	assert.Equal(t, "q1", FirstMissing(missing))
}

func TestValidateAnswers_EmptyValues(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]model.AnswerValue
		want    []string
	}{
		{
			name: "all filled",
			answers: map[string]model.AnswerValue{
				"q1": model.TextValue("x"), "q3": model.ChoicesValue("a"), "q5": model.NumberValue(0),
			},
			want: nil,
		},
		{
			name: "whitespace text and empty selection",
			answers: map[string]model.AnswerValue{
				"q1": model.TextValue("   "), "q3": model.ChoicesValue(), "q5": model.NumberValue(3),
			},
			want: []string{"q1", "q3"},
		},
		{
			name:    "nothing answered",
			answers: nil,
			want:    []string{"q1", "q3", "q5"},
		},
		{
			name: "zero value counts as absent",
			answers: map[string]model.AnswerValue{
				"q1": {}, "q3": model.ChoicesValue("a"), "q5": model.TextValue("4"),
			},
			want: []string{"q1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, m := range ValidateAnswers(questions(), tt.answers) {
				got = append(got, m.QuestionID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateAnswers_OptionalNeverMissing(t *testing.T) {
	qs := []model.Question{{ID: "a"}, {ID: "b"}}
	assert.Empty(t, ValidateAnswers(qs, nil))
}

func TestValidateAnswers_UntitledUsesID(t *testing.T) {
	qs := []model.Question{{ID: "7", Required: true}}
	assert.Equal(t, []MissingQuestion{{QuestionID: "7", Label: "7"}}, ValidateAnswers(qs, nil))
}

func TestValidatePersonalInfo(t *testing.T) {
	cfg := model.PersonalInfoConfig{
		Enabled:         true,
		Fields:          []string{model.FieldEmail, model.FieldGender},
		CustomFields:    []model.CustomField{{ID: "team", Label: "Team", Required: true}, {ID: "note", Label: "Note"}},
		ConsentRequired: true,
	}

	t.Run("disabled has no requirements", func(t *testing.T) {
		off := cfg
		off.Enabled = false
		assert.Empty(t, ValidatePersonalInfo(off, model.PersonalInfo{}))
	})

	t.Run("everything missing", func(t *testing.T) {
		got := ValidatePersonalInfo(cfg, model.PersonalInfo{})
		assert.Equal(t, []MissingField{
			{FieldKey: model.FieldName, Label: "이름"},
			{FieldKey: model.FieldEmail, Label: "이메일"},
			{FieldKey: "team", Label: "Team"},
			{FieldKey: model.ConsentKey, Label: model.ConsentLabel},
		}, got)
	})

	t.Run("complete", func(t *testing.T) {
		info := model.PersonalInfo{Consent: true}
		info.Set(model.FieldName, "Kim")
		info.Set(model.FieldEmail, "kim@example.com")
		info.Set("team", "blue")
		assert.Empty(t, ValidatePersonalInfo(cfg, info))
	})

	t.Run("blank value is missing", func(t *testing.T) {
		info := model.PersonalInfo{Consent: true}
		info.Set(model.FieldName, "  ")
		info.Set(model.FieldEmail, "kim@example.com")
		info.Set("team", "blue")
		assert.Equal(t, []MissingField{{FieldKey: model.FieldName, Label: "이름"}}, ValidatePersonalInfo(cfg, info))
	})
}
