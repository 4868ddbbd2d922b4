package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the validator instance
type Validator struct {
	validate *validator.Validate
}

var validate *Validator

// InitValidator initializes the global validator
func InitValidator() {
	validate = &Validator{validate: validator.New()}
}

// GetValidator returns the global validator instance
func GetValidator() *Validator {
	if validate == nil {
		InitValidator()
	}
	return validate
}

// ValidateStruct validates a struct using tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationError formats validation errors into a field->message map,
// keeping internal struct names out of client responses
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["request"] = ErrMsgInvalidRequest
		return errs
	}

	for _, fe := range validationErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			errs[field] = "is required"
		case "min":
			errs[field] = "is below the minimum of " + fe.Param()
		case "max":
			errs[field] = "exceeds the maximum of " + fe.Param()
		case "oneof":
			errs[field] = "must be one of: " + fe.Param()
		default:
			errs[field] = "is invalid"
		}
	}
	return errs
}
