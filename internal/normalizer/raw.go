package normalizer

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"surveyhub/internal/model"
)

// RawOption is an option in any of its historical shapes
type RawOption struct {
	ID    string
	Text  string
	Image string
	Emoji string
}

// RawQuestion is a question as authored by any version of the builder:
// free-form type token, options as strings or objects, config under
// several key spellings.
type RawQuestion struct {
	ID          string
	Type        string
	Title       string
	Description string
	Required    bool
	Options     []RawOption
	Min         *int
	Max         *int
	MinLabel    string
	MaxLabel    string
	StarCount   int
}

func (r *RawQuestion) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*r = RawQuestionFromMap(m)
	return nil
}

func (r *RawQuestion) UnmarshalYAML(node *yaml.Node) error {
	var m map[string]interface{}
	if err := node.Decode(&m); err != nil {
		return err
	}
	*r = RawQuestionFromMap(m)
	return nil
}

// RawQuestionFromMap reads a question from a loosely typed document.
func RawQuestionFromMap(m map[string]interface{}) RawQuestion {
	r := RawQuestion{
		ID:          model.IDString(first(m, "id", "_id", "questionId", "key")),
		Type:        stringOf(first(m, "type", "questionType", "kind")),
		Title:       strings.TrimSpace(stringOf(first(m, "title", "text", "question", "label", "prompt"))),
		Description: stringOf(first(m, "description", "help", "subtitle")),
		Required:    boolOf(first(m, "required", "isRequired", "mandatory")),
		MinLabel:    stringOf(first(m, "minLabel", "leftLabel", "min_label", "left_label")),
		MaxLabel:    stringOf(first(m, "maxLabel", "rightLabel", "max_label", "right_label")),
	}

	if scale, ok := first(m, "scale", "ratingConfig").(map[string]interface{}); ok {
		for k, v := range scale {
			if _, exists := m[k]; !exists {
				m[k] = v
			}
		}
		if r.MinLabel == "" {
			r.MinLabel = stringOf(first(scale, "minLabel", "leftLabel"))
		}
		if r.MaxLabel == "" {
			r.MaxLabel = stringOf(first(scale, "maxLabel", "rightLabel"))
		}
	}
	if v, ok := intOf(first(m, "min", "scaleMin", "scale_min")); ok {
		r.Min = &v
	}
	if v, ok := intOf(first(m, "max", "scaleMax", "scale_max")); ok {
		r.Max = &v
	}
	if v, ok := intOf(first(m, "starCount", "stars", "maxStars", "star_count")); ok {
		r.StarCount = v
	}

	if list, ok := first(m, "options", "choices", "items").([]interface{}); ok {
		for _, item := range list {
			if opt, ok := rawOption(item); ok {
				r.Options = append(r.Options, opt)
			}
		}
	}
	return r
}

func rawOption(item interface{}) (RawOption, bool) {
	switch x := item.(type) {
	case nil:
		return RawOption{}, false
	case map[string]interface{}:
		return RawOption{
			ID:    model.IDString(first(x, "id", "_id", "key")),
			Text:  stringOf(first(x, "text", "label", "content", "value", "optionText")),
			Image: stringOf(first(x, "image", "imageUrl", "image_url", "img", "mediaUrl")),
			Emoji: stringOf(first(x, "emoji")),
		}, true
	}
	return RawOption{Text: stringOf(item)}, true
}

func first(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringOf(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	}
	return model.IDString(v)
}

func intOf(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i), true
		}
		if f, err := x.Float64(); err == nil {
			return int(f), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func boolOf(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(x))
		return b
	}
	if i, ok := intOf(v); ok {
		return i != 0
	}
	return false
}
