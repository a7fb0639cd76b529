package normalization

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/yungbote/xapi-mis-backend/internal/platform/apierr"
	"github.com/yungbote/xapi-mis-backend/internal/platform/validate"
)

// ErrInvalidBody is returned when the request body is not a JSON object.
var ErrInvalidBody = errors.New("statement body must be a JSON object")

var statementMessages = validate.Messages{
	"id.required":         "Statement ID is required.",
	"id.anyuuid":          "Statement ID must be a valid UUID.",
	"actor.mbox.required": "Actor email (mbox) is required.",
	"actor.mbox.mbox":     "Actor mbox must be a valid email address in mailto: format.",
	"verb.id.required":    "Verb ID is required.",
	"object.id.required":  "Object ID is required.",
}

var languageMapType = reflect.TypeOf(LanguageMap{})

// DecodeStatement parses and validates a raw statement body. Field problems
// come back as FieldErrors; a body that is not a JSON object at all yields
// ErrInvalidBody.
func DecodeStatement(raw []byte) (*StatementPayload, apierr.FieldErrors, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, nil, ErrInvalidBody
	}

	fields := apierr.FieldErrors{}
	var p StatementPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) || typeErr.Field == "" {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		fields.Add(typeErr.Field, typeMessage(typeErr))
	}

	p.ID = strings.TrimSpace(p.ID)
	p.Actor.Mbox = strings.TrimSpace(p.Actor.Mbox)
	p.Verb.ID = strings.TrimSpace(p.Verb.ID)
	p.Object.ID = strings.TrimSpace(p.Object.ID)

	ruleErrs, err := validate.Struct(&p, statementMessages)
	if err != nil {
		return nil, nil, err
	}
	for _, f := range ruleErrs.Fields() {
		// A type error already explains this field.
		if fields.Has(f) {
			continue
		}
		for _, msg := range ruleErrs[f] {
			fields.Add(f, msg)
		}
	}

	if p.Timestamp != nil && !fields.Has("timestamp") {
		if _, ok := ParseTimestamp(*p.Timestamp); !ok {
			fields.Add("timestamp", "The timestamp field must be a valid date.")
		}
	}

	if len(fields) > 0 {
		return nil, fields, nil
	}
	return &p, nil, nil
}

func typeMessage(e *json.UnmarshalTypeError) string {
	kind := "valid"
	if e.Type != nil {
		switch {
		case e.Type == languageMapType, e.Type.Kind() == reflect.Struct, e.Type.Kind() == reflect.Map:
			kind = "an object"
		case e.Type.Kind() == reflect.String:
			kind = "a string"
		}
	}
	return fmt.Sprintf("The %s field must be %s.", e.Field, kind)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02",
}

// ParseTimestamp accepts ISO 8601 date-times with or without an offset
// (no offset means UTC) and bare dates.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
