package dto

import (
	"errors"
	"reflect"
	"strings"

	"lending-service/internal/pkg/apperrors"

	"github.com/go-playground/validator/v10"
)

const MissingParameterMessage = "Missing parameter"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the struct tags of a request and reports the first
// failing field as a validation error.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Tag() {
		case "required":
			return apperrors.NewValidationError(fe.Field(), MissingParameterMessage)
		case "gt":
			return apperrors.NewValidationError(fe.Field(), fe.Field()+" must be greater than "+fe.Param())
		default:
			return apperrors.NewValidationError(fe.Field(), "invalid value for "+fe.Field())
		}
	}
	return apperrors.NewValidationError("", err.Error())
}
