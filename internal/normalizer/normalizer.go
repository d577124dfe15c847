package normalizer

import (
	"strconv"
	"strings"

	"surveyhub/internal/model"
)

const (
	questionIDPrefix = "q_"
	optionIDPrefix   = "opt_"

	defaultScaleMin  = 1
	defaultScaleMax  = 5
	defaultStarCount = 5
)

var (
	yesNoOptions    = []string{"예", "아니오"}
	dropdownOptions = []string{"옵션 1", "옵션 2", "옵션 3"}
)

// typeSpellings maps every historical type token (lowercase, '-' and ' '
// folded to '_') onto the canonical type.
var typeSpellings = map[string]model.QuestionType{
	"text":         model.QuestionTypeText,
	"short_text":   model.QuestionTypeText,
	"shorttext":    model.QuestionTypeText,
	"short_answer": model.QuestionTypeText,
	"input":        model.QuestionTypeText,
	"string":       model.QuestionTypeText,

	"textarea":  model.QuestionTypeTextarea,
	"long_text": model.QuestionTypeTextarea,
	"paragraph": model.QuestionTypeTextarea,
	"essay":     model.QuestionTypeTextarea,

	"radio":           model.QuestionTypeRadio,
	"single":          model.QuestionTypeRadio,
	"single_choice":   model.QuestionTypeRadio,
	"choice":          model.QuestionTypeRadio,
	"multiple_choice": model.QuestionTypeRadio,

	"checkbox":        model.QuestionTypeCheckbox,
	"checkboxes":      model.QuestionTypeCheckbox,
	"multi":           model.QuestionTypeCheckbox,
	"multi_select":    model.QuestionTypeCheckbox,
	"multiple_select": model.QuestionTypeCheckbox,

	"dropdown": model.QuestionTypeDropdown,
	"select":   model.QuestionTypeDropdown,
	"combobox": model.QuestionTypeDropdown,

	"yes_no":  model.QuestionTypeRadio,
	"yesno":   model.QuestionTypeRadio,
	"boolean": model.QuestionTypeRadio,
	"bool":    model.QuestionTypeRadio,

	"star_rating": model.QuestionTypeStarRating,
	"star":        model.QuestionTypeStarRating,
	"stars":       model.QuestionTypeStarRating,
	"rating":      model.QuestionTypeStarRating,

	"scale":        model.QuestionTypeScale,
	"linear_scale": model.QuestionTypeScale,
	"likert":       model.QuestionTypeScale,
	"slider":       model.QuestionTypeScale,
	"nps":          model.QuestionTypeScale,

	"radio_image":  model.QuestionTypeRadioImage,
	"image_radio":  model.QuestionTypeRadioImage,
	"image_choice": model.QuestionTypeRadioImage,
	"image_single": model.QuestionTypeRadioImage,

	"checkbox_image": model.QuestionTypeCheckboxImage,
	"image_checkbox": model.QuestionTypeCheckboxImage,
	"image_multi":    model.QuestionTypeCheckboxImage,
	"image_multiple": model.QuestionTypeCheckboxImage,
}

var yesNoSpellings = map[string]bool{"yes_no": true, "yesno": true, "boolean": true, "bool": true}

func foldToken(token string) string {
	t := strings.ToLower(strings.TrimSpace(token))
	return strings.NewReplacer("-", "_", " ", "_").Replace(t)
}

// CanonicalType maps a free-form type token onto the canonical set.
// Unknown tokens become TEXT.
func CanonicalType(token string) model.QuestionType {
	if t, ok := typeSpellings[foldToken(token)]; ok {
		return t
	}
	return model.QuestionTypeText
}

// Normalizer turns questions of any historical shape into canonical questions
type Normalizer struct {
	ids IDGenerator
}

func New(ids IDGenerator) *Normalizer {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &Normalizer{ids: ids}
}

// FromRaw converts a decoded legacy question into a canonical one.
func (n *Normalizer) FromRaw(raw RawQuestion) model.Question {
	return n.Normalize(Convert(raw))
}

// Convert maps a decoded legacy question onto the question model without
// normalizing it. Missing ids stay blank.
func Convert(raw RawQuestion) model.Question {
	q := model.Question{
		ID:          raw.ID,
		Type:        model.QuestionType(raw.Type),
		Title:       raw.Title,
		Description: raw.Description,
		Required:    raw.Required,
		StarCount:   raw.StarCount,
	}
	for _, o := range raw.Options {
		q.Options = append(q.Options, model.Option{ID: o.ID, Text: o.Text, Image: o.Image, Emoji: o.Emoji})
	}
	if raw.Min != nil || raw.Max != nil || raw.MinLabel != "" || raw.MaxLabel != "" {
		q.Scale = &model.ScaleConfig{MinLabel: raw.MinLabel, MaxLabel: raw.MaxLabel}
		if raw.Min != nil {
			q.Scale.Min = *raw.Min
		}
		if raw.Max != nil {
			q.Scale.Max = *raw.Max
		}
	}
	return q
}

// Normalize returns the canonical form of q. Applying it to its own output
// changes nothing: ids already present are kept and defaults only fill gaps.
func (n *Normalizer) Normalize(q model.Question) model.Question {
	token := string(q.Type)
	out := model.Question{
		ID:          model.IDString(q.ID),
		Type:        CanonicalType(token),
		Title:       strings.TrimSpace(q.Title),
		Description: q.Description,
		Required:    q.Required,
	}
	if out.ID == "" {
		out.ID = n.ids.NewID(questionIDPrefix)
	}

	if out.Type.IsFreeText() {
		out.Options = []model.Option{}
		return out
	}

	out.Options = make([]model.Option, 0, len(q.Options))
	for _, o := range q.Options {
		o.ID = model.IDString(o.ID)
		o.Text = strings.TrimSpace(o.Text)
		out.Options = append(out.Options, o)
	}

	switch out.Type {
	case model.QuestionTypeScale:
		out.Scale = normalizeScale(q.Scale)
		if len(out.Options) == 0 {
			for p := out.Scale.Min; p <= out.Scale.Max; p++ {
				out.Options = append(out.Options, model.Option{Text: strconv.Itoa(p)})
			}
		}
	case model.QuestionTypeStarRating:
		out.StarCount = q.StarCount
		if out.StarCount < 1 {
			out.StarCount = len(out.Options)
		}
		if out.StarCount < 1 {
			out.StarCount = defaultStarCount
		}
		if len(out.Options) == 0 {
			for s := 1; s <= out.StarCount; s++ {
				out.Options = append(out.Options, model.Option{Text: strconv.Itoa(s)})
			}
		}
	case model.QuestionTypeDropdown:
		if len(out.Options) == 0 {
			out.Options = textOptions(dropdownOptions)
		}
	case model.QuestionTypeRadio:
		if len(out.Options) == 0 && yesNoSpellings[foldToken(token)] {
			out.Options = textOptions(yesNoOptions)
		}
	}

	for i := range out.Options {
		if out.Options[i].ID == "" {
			out.Options[i].ID = n.ids.NewID(optionIDPrefix)
		}
	}
	return out
}

// NormalizeSurvey normalizes every question of s in place and tidies the
// personal-info config.
func (n *Normalizer) NormalizeSurvey(s *model.Survey) {
	questions := make([]model.Question, 0, len(s.Questions))
	for _, q := range s.Questions {
		questions = append(questions, n.Normalize(q))
	}
	s.Questions = questions
	s.Title = strings.TrimSpace(s.Title)

	pi := &s.PersonalInfo
	seen := make(map[string]bool, len(pi.Fields))
	fields := make([]string, 0, len(pi.Fields))
	for _, f := range pi.Fields {
		key := strings.ToLower(strings.TrimSpace(f))
		if _, ok := model.CatalogField(key); !ok || seen[key] {
			continue
		}
		seen[key] = true
		fields = append(fields, key)
	}
	pi.Fields = fields
	if pi.CustomFields == nil {
		pi.CustomFields = []model.CustomField{}
	}
	for i := range pi.CustomFields {
		if strings.TrimSpace(pi.CustomFields[i].ID) == "" {
			pi.CustomFields[i].ID = n.ids.NewID("field_")
		}
		if pi.CustomFields[i].Type == "" {
			pi.CustomFields[i].Type = "text"
		}
	}
}

func normalizeScale(in *model.ScaleConfig) *model.ScaleConfig {
	out := &model.ScaleConfig{Min: defaultScaleMin, Max: defaultScaleMax}
	if in == nil {
		return out
	}
	out.MinLabel, out.MaxLabel = in.MinLabel, in.MaxLabel
	if in.Min < in.Max {
		out.Min, out.Max = in.Min, in.Max
	}
	return out
}

func textOptions(texts []string) []model.Option {
	opts := make([]model.Option, len(texts))
	for i, t := range texts {
		opts[i] = model.Option{Text: t}
	}
	return opts
}
