package forms

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"coffeeshop/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

// check runs the struct tags and reports every failing field in one
// ValidationError.
func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return err
	}

	ve := &models.ValidationError{}
	missing := false
	for _, fe := range failures {
		ve.Fields = append(ve.Fields, fe.Field())
		switch fe.Tag() {
		case "required":
			missing = true
		case "eqfield":
			ve.Reason = "passwords do not match"
		case "email":
			ve.Reason = "invalid email address"
		default:
			ve.Reason = "invalid value"
		}
	}
	if missing {
		ve.Reason = ""
	}
	return ve
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
