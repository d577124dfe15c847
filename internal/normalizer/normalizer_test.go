package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"surveyhub/internal/model"
)

func TestCanonicalType(t *testing.T) {
	tests := []struct {
		token string
		want  model.QuestionType
	}{
		{"text", model.QuestionTypeText},
		{"  Short Text ", model.QuestionTypeText},
		{"long-text", model.QuestionTypeTextarea},
		{"ESSAY", model.QuestionTypeTextarea},
		{"multiple_choice", model.QuestionTypeRadio},
		{"yes_no", model.QuestionTypeRadio},
		{"Yes-No", model.QuestionTypeRadio},
		{"checkboxes", model.QuestionTypeCheckbox},
		{"select", model.QuestionTypeDropdown},
		{"rating", model.QuestionTypeStarRating},
		{"STAR_RATING", model.QuestionTypeStarRating},
		{"linear scale", model.QuestionTypeScale},
		{"image-choice", model.QuestionTypeRadioImage},
		{"CHECKBOX_IMAGE", model.QuestionTypeCheckboxImage},
		{"matrix", model.QuestionTypeText},
		{"", model.QuestionTypeText},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalType(tt.token))
		})
	}
}

func TestNormalize_YesNoDefaults(t *testing.T) {
	n := New(&CounterGenerator{})

	q := n.Normalize(model.Question{ID: "q1", Type: "yes_no", Title: "Agree?", Options: []model.Option{}})

	assert.Equal(t, model.QuestionTypeRadio, q.Type)
	assert.Equal(t, []string{"예", "아니오"}, q.OptionTexts())
	assert.Equal(t, "opt_1", q.Options[0].ID)
	assert.Equal(t, "opt_2", q.Options[1].ID)
}

func TestNormalize_Defaults(t *testing.T) {
	n := New(&CounterGenerator{})

	dropdown := n.Normalize(model.Question{ID: "d", Type: "dropdown"})
	assert.Equal(t, []string{"옵션 1", "옵션 2", "옵션 3"}, dropdown.OptionTexts())

	scale := n.Normalize(model.Question{ID: "s", Type: "likert"})
	require.NotNil(t, scale.Scale)
	assert.Equal(t, 1, scale.Scale.Min)
	assert.Equal(t, 5, scale.Scale.Max)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, scale.OptionTexts())

	inverted := n.Normalize(model.Question{ID: "s2", Type: "scale", Scale: &model.ScaleConfig{Min: 7, Max: 3, MinLabel: "low"}})
	assert.Equal(t, 1, inverted.Scale.Min)
	assert.Equal(t, 5, inverted.Scale.Max)
	assert.Equal(t, "low", inverted.Scale.MinLabel)

	stars := n.Normalize(model.Question{ID: "r", Type: "stars"})
	assert.Equal(t, 5, stars.StarCount)
	assert.Len(t, stars.Options, 5)

	text := n.Normalize(model.Question{ID: "t", Type: "paragraph", Options: []model.Option{{Text: "stray"}}})
	assert.Equal(t, model.QuestionTypeTextarea, text.Type)
	assert.NotNil(t, text.Options)
	assert.Empty(t, text.Options)

	radio := n.Normalize(model.Question{ID: "c", Type: "radio"})
	assert.NotNil(t, radio.Options)
	assert.Empty(t, radio.Options)
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New(&CounterGenerator{})
	tokens := []string{
		"text", "short_answer", "textarea", "essay", "radio", "single_choice", "checkbox", "multi",
		"dropdown", "select", "yes_no", "boolean", "star_rating", "rating", "scale", "nps",
		"radio_image", "image_multi", "unknown-kind",
	}

	for _, token := range tokens {
		t.Run(token, func(t *testing.T) {
			once := n.Normalize(model.Question{
				Type:    model.QuestionType(token),
				Title:   "  What?  ",
				Options: []model.Option{{Text: " A "}, {ID: "keep", Text: "B"}},
			})
			twice := n.Normalize(once)
			assert.Equal(t, once, twice)
			assert.True(t, once.Type.IsCanonical())
		})
	}
}

func TestNormalize_KeepsExistingIDs(t *testing.T) {
	n := New(&CounterGenerator{})
	q := n.Normalize(model.Question{ID: " 42 ", Type: "radio", Options: []model.Option{{ID: "a", Text: "A"}, {Text: "B"}}})

	assert.Equal(t, "42", q.ID)
	assert.Equal(t, "a", q.Options[0].ID)
	assert.Equal(t, "opt_1", q.Options[1].ID)
}

func TestRawQuestion_JSONShapes(t *testing.T) {
	data := `[
		{"id": 7, "questionType": "Multiple Choice", "text": "Pick one", "isRequired": true,
		 "choices": ["red", {"label": "green", "id": "g"}, {"content": "blue", "imageUrl": "b.png"}, 3]},
		{"id": "s1", "type": "slider", "title": "How much", "scaleMin": "0", "scaleMax": 10, "leftLabel": "none", "rightLabel": "lots"},
		{"type": "rating", "question": "Stars", "maxStars": 3}
	]`
	var raws []RawQuestion
	require.NoError(t, json.Unmarshal([]byte(data), &raws))
	require.Len(t, raws, 3)

	assert.Equal(t, "7", raws[0].ID)
	assert.True(t, raws[0].Required)
	require.Len(t, raws[0].Options, 4)
	assert.Equal(t, "green", raws[0].Options[1].Text)
	assert.Equal(t, "g", raws[0].Options[1].ID)
	assert.Equal(t, "b.png", raws[0].Options[2].Image)
	assert.Equal(t, "3", raws[0].Options[3].Text)

	n := New(&CounterGenerator{})
	q := n.FromRaw(raws[1])
	assert.Equal(t, model.QuestionTypeScale, q.Type)
	assert.Equal(t, &model.ScaleConfig{Min: 0, Max: 10, MinLabel: "none", MaxLabel: "lots"}, q.Scale)
	assert.Len(t, q.Options, 11)

	stars := n.FromRaw(raws[2])
	assert.Equal(t, 3, stars.StarCount)
	assert.Equal(t, []string{"1", "2", "3"}, stars.OptionTexts())
	assert.NotEmpty(t, stars.ID)
}

func TestConvert_LeavesIDsBlank(t *testing.T) {
	var raw RawQuestion
	require.NoError(t, json.Unmarshal([]byte(`{"type": "checkboxes", "title": "Tools", "options": ["vim", {"id": "e", "text": "emacs"}]}`), &raw))

	q := Convert(raw)
	assert.Empty(t, q.ID)
	assert.Empty(t, q.Options[0].ID)
	assert.Equal(t, "e", q.Options[1].ID)
	assert.Equal(t, "vim", q.Options[0].Text)
}

func TestRawQuestion_YAML(t *testing.T) {
	doc := `
- id: 1
  type: Yes-No
  title: Coming back?
  required: "true"
- id: 2
  type: select
  title: Region
  options:
    - text: Seoul
      emoji: "🏙"
    - Busan
`
	var raws []RawQuestion
	require.NoError(t, yaml.Unmarshal([]byte(doc), &raws))
	require.Len(t, raws, 2)

	n := New(&CounterGenerator{})
	yes := n.FromRaw(raws[0])
	assert.Equal(t, "1", yes.ID)
	assert.True(t, yes.Required)
	assert.Equal(t, []string{"예", "아니오"}, yes.OptionTexts())

	region := n.FromRaw(raws[1])
	assert.Equal(t, model.QuestionTypeDropdown, region.Type)
	assert.Equal(t, []string{"Seoul", "Busan"}, region.OptionTexts())
	assert.Equal(t, "🏙", region.Options[0].Emoji)
}

func TestNormalizeSurvey_PersonalInfo(t *testing.T) {
	n := New(&CounterGenerator{})
	s := &model.Survey{
		Title: " Feedback ",
		PersonalInfo: model.PersonalInfoConfig{
			Enabled:      true,
			Fields:       []string{"Email", "email", "shoe_size", " phone"},
			CustomFields: []model.CustomField{{Label: "Team"}},
		},
		Questions: []model.Question{{Type: "yesno", Title: "Ok?"}},
	}

	n.NormalizeSurvey(s)

	assert.Equal(t, "Feedback", s.Title)
	assert.Equal(t, []string{"email", "phone"}, s.PersonalInfo.Fields)
	assert.NotEmpty(t, s.PersonalInfo.CustomFields[0].ID)
	assert.Equal(t, "text", s.PersonalInfo.CustomFields[0].Type)
	assert.Equal(t, model.QuestionTypeRadio, s.Questions[0].Type)
}
