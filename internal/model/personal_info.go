package model

import (
	"encoding/json"
	"strings"
)

// Standard personal-info field keys
const (
	FieldName      = "name"
	FieldGender    = "gender"
	FieldBirthdate = "birthdate"
	FieldPhone     = "phone"
	FieldEmail     = "email"
	FieldAddress   = "address"

	// ConsentKey is the key of the consent entry in payloads and violation lists.
	ConsentKey   = "consent"
	ConsentLabel = "개인정보 수집 동의"
)

// FieldDef is a catalog entry for a standard personal-info field
type FieldDef struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// PersonalInfoCatalog is the ordered set of standard fields an operator may request.
var PersonalInfoCatalog = []FieldDef{
	{Key: FieldName, Label: "이름", Type: "text", Required: true},
	{Key: FieldGender, Label: "성별", Type: "select"},
	{Key: FieldBirthdate, Label: "생년월일", Type: "date"},
	{Key: FieldPhone, Label: "연락처", Type: "tel", Required: true},
	{Key: FieldEmail, Label: "이메일", Type: "email", Required: true},
	{Key: FieldAddress, Label: "주소", Type: "text"},
}

// CatalogField looks up a standard field definition.
func CatalogField(key string) (FieldDef, bool) {
	for _, f := range PersonalInfoCatalog {
		if f.Key == key {
			return f, true
		}
	}
	return FieldDef{}, false
}

// CustomField is an operator-defined personal-info field
type CustomField struct {
	ID       string `json:"id" bson:"id" yaml:"id"`
	Label    string `json:"label" bson:"label" yaml:"label"`
	Type     string `json:"type" bson:"type" yaml:"type"`
	Required bool   `json:"required" bson:"required" yaml:"required"`
}

// PersonalInfoConfig controls the optional personal-info step
type PersonalInfoConfig struct {
	Enabled         bool          `json:"enabled" bson:"enabled" yaml:"enabled"`
	Fields          []string      `json:"fields" bson:"fields" yaml:"fields"`
	CustomFields    []CustomField `json:"customFields" bson:"customFields" yaml:"customFields"`
	ConsentText     string        `json:"consentText,omitempty" bson:"consentText,omitempty" yaml:"consentText,omitempty"`
	ConsentRequired bool          `json:"consentRequired" bson:"consentRequired" yaml:"consentRequired"`
}

// RequestedFields returns the requested standard fields in catalog order.
// Name is always included.
func (c PersonalInfoConfig) RequestedFields() []FieldDef {
	requested := map[string]bool{FieldName: true}
	for _, k := range c.Fields {
		requested[strings.ToLower(strings.TrimSpace(k))] = true
	}
	out := make([]FieldDef, 0, len(requested))
	for _, f := range PersonalInfoCatalog {
		if requested[f.Key] {
			out = append(out, f)
		}
	}
	return out
}

// PersonalInfo is a respondent's personal-info answers. On the wire it is a
// flat object of field keys plus an optional "consent" flag.
type PersonalInfo struct {
	Fields  map[string]string `bson:"fields"`
	Consent bool              `bson:"consent"`
}

// Get returns the trimmed value of a field.
func (p *PersonalInfo) Get(key string) string {
	if p == nil || p.Fields == nil {
		return ""
	}
	return strings.TrimSpace(p.Fields[key])
}

// Set stores a field value, ignoring the consent key.
func (p *PersonalInfo) Set(key, value string) {
	if key == ConsentKey {
		return
	}
	if p.Fields == nil {
		p.Fields = make(map[string]string)
	}
	p.Fields[key] = value
}

func (p PersonalInfo) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(p.Fields)+1)
	for k, v := range p.Fields {
		out[k] = v
	}
	out[ConsentKey] = p.Consent
	return json.Marshal(out)
}

func (p *PersonalInfo) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = PersonalInfo{Fields: make(map[string]string, len(raw))}
	for k, v := range raw {
		if k == ConsentKey {
			p.Consent = truthy(v)
			continue
		}
		if v == nil {
			continue
		}
		p.Fields[k] = IDString(v)
	}
	return nil
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		return s != "" && s != "false" && s != "0"
	case float64:
		return x != 0
	}
	return v != nil
}
