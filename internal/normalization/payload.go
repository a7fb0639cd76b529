package normalization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// StatementPayload is the subset of an xAPI statement the system reads.
// Everything else stays in the raw bytes kept alongside it.
type StatementPayload struct {
	ID        string  `json:"id" validate:"required,anyuuid"`
	Actor     Actor   `json:"actor"`
	Verb      Verb    `json:"verb"`
	Object    Object  `json:"object"`
	Timestamp *string `json:"timestamp,omitempty"`
}

type Actor struct {
	Mbox       string  `json:"mbox" validate:"required,mbox"`
	Name       *string `json:"name,omitempty"`
	ObjectType *string `json:"objectType,omitempty"`
}

type Verb struct {
	ID      string      `json:"id" validate:"required"`
	Display LanguageMap `json:"display,omitempty"`
}

type Object struct {
	ID         string      `json:"id" validate:"required"`
	ObjectType *string     `json:"objectType,omitempty"`
	Definition *Definition `json:"definition,omitempty"`
}

type Definition struct {
	Name        LanguageMap `json:"name,omitempty"`
	Description LanguageMap `json:"description,omitempty"`
	Type        *string     `json:"type,omitempty"`
}

// LanguageEntry is one language tag and its text.
type LanguageEntry struct {
	Lang  string
	Value string
}

// LanguageMap is an xAPI language map that remembers the order keys
// appeared in the document.
type LanguageMap []LanguageEntry

// Get returns the value for lang, matching the tag exactly.
func (m LanguageMap) Get(lang string) (string, bool) {
	for _, e := range m {
		if e.Lang == lang {
			return e.Value, true
		}
	}
	return "", false
}

func (m *LanguageMap) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return &json.UnmarshalTypeError{Value: jsonKind(tok), Type: reflect.TypeOf(LanguageMap{})}
	}
	out := LanguageMap{}
	seen := map[string]int{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var val interface{}
		if err := dec.Decode(&val); err != nil {
			return err
		}
		s, ok := val.(string)
		if !ok {
			return &json.UnmarshalTypeError{Value: jsonKind(val), Type: reflect.TypeOf(LanguageMap{})}
		}
		// Duplicate keys keep their first position and the last value,
		// like a JSON object decoded into a map.
		if i, dup := seen[key]; dup {
			out[i].Value = s
			continue
		}
		seen[key] = len(out)
		out = append(out, LanguageEntry{Lang: key, Value: s})
	}
	*m = out
	return nil
}

func (m LanguageMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Lang)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func jsonKind(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	case json.Delim:
		if t == '[' {
			return "array"
		}
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
