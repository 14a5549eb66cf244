package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"diabeater-console/pkg/apperror"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates a request DTO and converts failures into a ValidationError
// with a readable message.
func Struct(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return apperror.Validation("%s", FormatValidationError(err))
	}
	return nil
}

func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"FirstName":   "First name",
		"LastName":    "Last name",
		"Email":       "Email",
		"Verdict":     "Verdict",
		"Reason":      "Reason",
		"Rating":      "Rating",
		"Message":     "Message",
		"Name":        "Name",
		"Description": "Description",
		"Token":       "Device token",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
