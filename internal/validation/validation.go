package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"storefront-service/internal/apperror"
)

// Validator checks `validate` struct tags and reports the first failure as
// an *apperror.ValidationError named after the field's json key. It
// satisfies echo.Validator.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return &Validator{validate: v}
}

var std = New()

// Struct validates s with the shared validator.
func Struct(s interface{}) error { return std.Validate(s) }

// Var validates a single value against tag, reporting failures under field.
func Var(field string, value interface{}, tag string) error { return std.Var(field, value, tag) }

func (v *Validator) Validate(i interface{}) error {
	return translate("", v.validate.Struct(i))
}

func (v *Validator) Var(field string, value interface{}, tag string) error {
	return translate(field, v.validate.Var(value, tag))
}

func translate(field string, err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	if name := fe.Field(); name != "" {
		field = name
	}
	return &apperror.ValidationError{Field: field, Message: message(fe)}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.Slice {
			if fe.Param() == "1" {
				return "must not be empty"
			}
			return fmt.Sprintf("must have at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be %s characters long", fe.Param())
	case "number":
		return "must contain digits only"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}
