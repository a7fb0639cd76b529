package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yungbote/xapi-mis-backend/internal/platform/apierr"
)

var mboxPattern = regexp.MustCompile(`^mailto:.+@.+\..+$`)

// Messages overrides the default message for "<field>.<tag>" keys, e.g.
// "actor.mbox.required".
type Messages map[string]string

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator. Field names are reported by their
// json tag so error paths match the request body ("actor.mbox").
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("anyuuid", func(fl validator.FieldLevel) bool {
			return IsUUID(fl.Field().String())
		})
		_ = v.RegisterValidation("mbox", func(fl validator.FieldLevel) bool {
			return mboxPattern.MatchString(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// IsUUID accepts the canonical 8-4-4-4-12 hex form in either case.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Struct validates v and converts failures into per-field messages. A nil
// result means v is valid.
func Struct(v interface{}, msgs Messages) (apierr.FieldErrors, error) {
	err := Validator().Struct(v)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	out := apierr.FieldErrors{}
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		out.Add(field, message(field, fe, msgs))
	}
	return out, nil
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(field string, fe validator.FieldError, msgs Messages) string {
	if m, ok := msgs[field+"."+fe.Tag()]; ok {
		return m
	}
	label := strings.ReplaceAll(field, "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", label, fe.Param())
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", label)
	case "anyuuid", "uuid":
		return fmt.Sprintf("The %s field must be a valid UUID.", label)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", label)
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}
