package shared

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the process-wide validator, reporting fields by their form tag.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
	})
	return validate
}

// ValidateStruct runs struct tags on v and collects messages into ve.
func ValidateStruct(ve *ValidationError, v any, labels map[string]string) {
	err := Validator().Struct(v)
	if err == nil {
		return
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		ve.Add("general", err.Error())
		return
	}
	for _, fe := range errs {
		label := labels[fe.Field()]
		if label == "" {
			label = fe.Field()
		}
		ve.Add(FieldKey(fe.Namespace()), Message(label, fe))
	}
}

// FieldKey turns a validator namespace such as "CreateRequest.items[0].quantity"
// into the form key "items.0.quantity".
func FieldKey(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

// Message renders a validator failure as operator-facing text.
func Message(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "gte":
		return label + " must be at least " + fe.Param()
	case "gt":
		return label + " must be greater than " + fe.Param()
	case "min":
		if fe.Kind() == reflect.Slice {
			return label + " must contain at least " + fe.Param() + " entry"
		}
		return label + " must be at least " + fe.Param() + " characters"
	case "lte":
		return label + " must be at most " + fe.Param()
	case "max":
		return label + " must be at most " + fe.Param() + " characters"
	case "oneof":
		return label + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return label + " is invalid"
}
