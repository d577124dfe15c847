package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// ValueKind tags which member of AnswerValue is set
type ValueKind string

const (
	ValueText    ValueKind = "text"
	ValueNumber  ValueKind = "number"
	ValueChoices ValueKind = "choices"
)

// AnswerValue is a submitted value: a scalar (text or number) or a set of
// selected option texts. The zero value is "no value".
type AnswerValue struct {
	Kind    ValueKind
	Text    string
	Number  float64
	Choices []string
}

func TextValue(s string) AnswerValue {
	return AnswerValue{Kind: ValueText, Text: s}
}

func NumberValue(n float64) AnswerValue {
	return AnswerValue{Kind: ValueNumber, Number: n}
}

func ChoicesValue(c ...string) AnswerValue {
	if c == nil {
		c = []string{}
	}
	return AnswerValue{Kind: ValueChoices, Choices: c}
}

// IsEmpty is the "missing" check used by required-question validation:
// blank text after trimming, an empty selection, or no value at all.
func (v AnswerValue) IsEmpty() bool {
	switch v.Kind {
	case ValueText:
		return strings.TrimSpace(v.Text) == ""
	case ValueChoices:
		return len(v.Choices) == 0
	case ValueNumber:
		return false
	}
	return true
}

// String renders the value as text. Selections are joined with ", ".
func (v AnswerValue) String() string {
	switch v.Kind {
	case ValueText:
		return v.Text
	case ValueNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case ValueChoices:
		return strings.Join(v.Choices, ", ")
	}
	return ""
}

// Values returns the tally buckets the value falls into.
func (v AnswerValue) Values() []string {
	switch v.Kind {
	case ValueChoices:
		out := make([]string, len(v.Choices))
		copy(out, v.Choices)
		return out
	case ValueText:
		if v.Text == "" {
			return nil
		}
		return []string{v.Text}
	case ValueNumber:
		return []string{v.String()}
	}
	return nil
}

// Float returns the numeric reading of the value, parsing text when needed.
func (v AnswerValue) Float() (float64, bool) {
	switch v.Kind {
	case ValueNumber:
		return v.Number, true
	case ValueText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		return f, err == nil
	case ValueChoices:
		if len(v.Choices) == 1 {
			f, err := strconv.ParseFloat(strings.TrimSpace(v.Choices[0]), 64)
			return f, err == nil
		}
	}
	return 0, false
}

// Coerce reshapes the value to the storage shape of question type t:
// multi-select types always hold a sequence of distinct values in first-seen
// order, every other type a scalar.
func (v AnswerValue) Coerce(t QuestionType) AnswerValue {
	if t.IsMultiSelect() {
		switch v.Kind {
		case ValueChoices:
			return ChoicesValue(uniqueChoices(v.Choices)...)
		case ValueText:
			if strings.TrimSpace(v.Text) == "" {
				return ChoicesValue()
			}
			return ChoicesValue(v.Text)
		case ValueNumber:
			return ChoicesValue(v.String())
		}
		return ChoicesValue()
	}

	switch v.Kind {
	case ValueChoices:
		v = TextValue(strings.Join(v.Choices, ", "))
	case "":
		return v
	}
	if t.IsOrdinal() && v.Kind == ValueText {
		if f, ok := v.Float(); ok {
			return NumberValue(f)
		}
	}
	return v
}

func uniqueChoices(choices []string) []string {
	seen := make(map[string]struct{}, len(choices))
	out := make([]string, 0, len(choices))
	for _, c := range choices {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (v AnswerValue) raw() interface{} {
	switch v.Kind {
	case ValueText:
		return v.Text
	case ValueNumber:
		return v.Number
	case ValueChoices:
		if v.Choices == nil {
			return []string{}
		}
		return v.Choices
	}
	return nil
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.raw())
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = AnswerValue{}
		return nil
	}

	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch x := raw.(type) {
	case string:
		*v = TextValue(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return fmt.Errorf("answer value: %w", err)
		}
		*v = NumberValue(f)
	case bool:
		*v = TextValue(strconv.FormatBool(x))
	case []interface{}:
		choices := make([]string, 0, len(x))
		for _, item := range x {
			if s := IDString(item); s != "" {
				choices = append(choices, s)
			}
		}
		*v = ChoicesValue(choices...)
	default:
		return fmt.Errorf("answer value: unsupported JSON shape %s", string(data))
	}
	return nil
}

func (v AnswerValue) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if v.Kind == "" {
		return bsontype.Null, nil, nil
	}
	return bson.MarshalValue(v.raw())
}

func (v *AnswerValue) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*v = AnswerValue{}
	case bsontype.String:
		*v = TextValue(rv.StringValue())
	case bsontype.Double:
		*v = NumberValue(rv.Double())
	case bsontype.Int32:
		*v = NumberValue(float64(rv.Int32()))
	case bsontype.Int64:
		*v = NumberValue(float64(rv.Int64()))
	case bsontype.Boolean:
		*v = TextValue(strconv.FormatBool(rv.Boolean()))
	case bsontype.Array:
		values, err := rv.Array().Values()
		if err != nil {
			return err
		}
		choices := make([]string, 0, len(values))
		for _, item := range values {
			if s := rawValueString(item); s != "" {
				choices = append(choices, s)
			}
		}
		*v = ChoicesValue(choices...)
	default:
		return fmt.Errorf("answer value: unsupported BSON type %s", t)
	}
	return nil
}

// Answer is one submitted value for one question
type Answer struct {
	QuestionID string      `json:"questionId" bson:"questionId"`
	Value      AnswerValue `json:"value" bson:"value"`
}

// Historical answer records used several spellings for both keys.
var (
	answerIDKeys    = []string{"questionId", "questionID", "question_id", "qid", "id"}
	answerValueKeys = []string{"value", "answer", "response"}
)

func (a *Answer) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*a = Answer{}
	for _, k := range answerIDKeys {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		var id interface{}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&id); err != nil {
			return fmt.Errorf("answer questionId: %w", err)
		}
		a.QuestionID = IDString(id)
		break
	}
	for _, k := range answerValueKeys {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		if err := a.Value.UnmarshalJSON(raw); err != nil {
			return err
		}
		break
	}
	return nil
}

func (a *Answer) UnmarshalBSON(data []byte) error {
	doc := bson.Raw(data)
	*a = Answer{}
	for _, k := range answerIDKeys {
		rv, err := doc.LookupErr(k)
		if err != nil {
			continue
		}
		a.QuestionID = rawValueString(rv)
		break
	}
	for _, k := range answerValueKeys {
		rv, err := doc.LookupErr(k)
		if err != nil {
			continue
		}
		if err := a.Value.UnmarshalBSONValue(rv.Type, rv.Value); err != nil {
			return err
		}
		break
	}
	return nil
}

func rawValueString(rv bson.RawValue) string {
	switch rv.Type {
	case bsontype.String:
		return strings.TrimSpace(rv.StringValue())
	case bsontype.Int32:
		return strconv.FormatInt(int64(rv.Int32()), 10)
	case bsontype.Int64:
		return strconv.FormatInt(rv.Int64(), 10)
	case bsontype.Double:
		return IDString(rv.Double())
	case bsontype.ObjectID:
		return rv.ObjectID().Hex()
	case bsontype.Boolean:
		return strconv.FormatBool(rv.Boolean())
	}
	return ""
}
