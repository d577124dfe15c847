package model

// QuestionType is the canonical question type. Every historical spelling is
// collapsed onto one of these by the normalizer.
type QuestionType string

const (
	QuestionTypeText          QuestionType = "TEXT"
	QuestionTypeTextarea      QuestionType = "TEXTAREA"
	QuestionTypeRadio         QuestionType = "RADIO"
	QuestionTypeCheckbox      QuestionType = "CHECKBOX"
	QuestionTypeDropdown      QuestionType = "DROPDOWN"
	QuestionTypeYesNo         QuestionType = "YES_NO"
	QuestionTypeStarRating    QuestionType = "STAR_RATING"
	QuestionTypeScale         QuestionType = "SCALE"
	QuestionTypeRadioImage    QuestionType = "RADIO_IMAGE"
	QuestionTypeCheckboxImage QuestionType = "CHECKBOX_IMAGE"
)

// QuestionTypes lists the canonical set in a stable order.
var QuestionTypes = []QuestionType{
	QuestionTypeText,
	QuestionTypeTextarea,
	QuestionTypeRadio,
	QuestionTypeCheckbox,
	QuestionTypeDropdown,
	QuestionTypeYesNo,
	QuestionTypeStarRating,
	QuestionTypeScale,
	QuestionTypeRadioImage,
	QuestionTypeCheckboxImage,
}

// IsCanonical reports whether t is one of the canonical types.
func (t QuestionType) IsCanonical() bool {
	for _, c := range QuestionTypes {
		if c == t {
			return true
		}
	}
	return false
}

// IsMultiSelect reports whether answers to this type are stored as a sequence.
func (t QuestionType) IsMultiSelect() bool {
	return t == QuestionTypeCheckbox || t == QuestionTypeCheckboxImage
}

// IsFreeText reports whether the type takes typed text and has no options.
func (t QuestionType) IsFreeText() bool {
	return t == QuestionTypeText || t == QuestionTypeTextarea
}

// IsChoice reports whether respondents pick from the question's options.
func (t QuestionType) IsChoice() bool {
	switch t {
	case QuestionTypeRadio, QuestionTypeCheckbox, QuestionTypeDropdown, QuestionTypeYesNo,
		QuestionTypeRadioImage, QuestionTypeCheckboxImage:
		return true
	}
	return false
}

// IsOrdinal reports whether answers are points on an ordered numeric scale.
func (t QuestionType) IsOrdinal() bool {
	return t == QuestionTypeScale || t == QuestionTypeStarRating
}

// Option is one selectable choice of a question
type Option struct {
	ID    string `json:"id" bson:"id" yaml:"id"`
	Text  string `json:"text" bson:"text" yaml:"text"`
	Image string `json:"image,omitempty" bson:"image,omitempty" yaml:"image,omitempty"` // RADIO_IMAGE / CHECKBOX_IMAGE
	Emoji string `json:"emoji,omitempty" bson:"emoji,omitempty" yaml:"emoji,omitempty"` // DROPDOWN only
}

// ScaleConfig bounds a SCALE question. Min < Max always holds after normalization.
type ScaleConfig struct {
	Min      int    `json:"min" bson:"min" yaml:"min"`
	Max      int    `json:"max" bson:"max" yaml:"max"`
	MinLabel string `json:"minLabel,omitempty" bson:"minLabel,omitempty" yaml:"minLabel,omitempty"`
	MaxLabel string `json:"maxLabel,omitempty" bson:"maxLabel,omitempty" yaml:"maxLabel,omitempty"`
}

// Question is the canonical in-memory question. Options is never nil.
type Question struct {
	ID          string       `json:"id" bson:"id" yaml:"id"`
	Type        QuestionType `json:"type" bson:"type" yaml:"type"`
	Title       string       `json:"title" bson:"title" yaml:"title"`
	Description string       `json:"description,omitempty" bson:"description,omitempty" yaml:"description,omitempty"`
	Required    bool         `json:"required" bson:"required" yaml:"required"`
	Options     []Option     `json:"options" bson:"options" yaml:"options"`

	Scale     *ScaleConfig `json:"scale,omitempty" bson:"scale,omitempty" yaml:"scale,omitempty"`             // SCALE only
	StarCount int          `json:"starCount,omitempty" bson:"starCount,omitempty" yaml:"starCount,omitempty"` // STAR_RATING only
}

// Label is the text shown when the question is reported as missing.
func (q *Question) Label() string {
	if q.Title != "" {
		return q.Title
	}
	return q.ID
}

// OptionTexts returns the option texts in declared order.
func (q *Question) OptionTexts() []string {
	texts := make([]string, len(q.Options))
	for i, o := range q.Options {
		texts[i] = o.Text
	}
	return texts
}
