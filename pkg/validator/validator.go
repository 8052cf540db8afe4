package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Violation is one failed rule. Field is the json path below the validated
// struct, e.g. "products[0].quantity".
type Violation struct {
	Field string
	Tag   string
	Param string
}

func (v Violation) String() string {
	if v.Param != "" {
		return fmt.Sprintf("field '%s' failed on tag '%s=%s'", v.Field, v.Tag, v.Param)
	}
	return fmt.Sprintf("field '%s' failed on tag '%s'", v.Field, v.Tag)
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	// uuid_required rejects the zero UUID, which "required" lets through.
	v.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		id, ok := fl.Field().Interface().(uuid.UUID)
		return ok && id != uuid.Nil
	})
	return v
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// Struct validates data and returns every violation, or nil when it is valid.
func Struct(data interface{}) []Violation {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Violation{{Tag: "invalid", Param: err.Error()}}
	}
	out := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		out = append(out, Violation{Field: field, Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}
