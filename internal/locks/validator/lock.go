package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"staylock/pkg/logger"
	"staylock/pkg/model"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type LockValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewLockValidator(log *logger.Logger) *LockValidator {
	return &LockValidator{
		validate: validator.New(),
		logger:   log,
	}
}

// ValidateRequest checks a lock or unlock request: required fields, date
// format, and stay ordering.
func (v *LockValidator) ValidateRequest(req *model.LockRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return validateStayRange(req.CheckIn, req.CheckOut)
}

// ValidateKey checks the resource key fields used by the status endpoint.
func (v *LockValidator) ValidateKey(key model.LockKey) error {
	if err := v.validate.Struct(key); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return validateStayRange(key.CheckIn, key.CheckOut)
}

func validateStayRange(checkIn, checkOut string) error {
	in, errIn := time.Parse(dateLayout, checkIn)
	out, errOut := time.Parse(dateLayout, checkOut)
	if errIn != nil || errOut != nil {
		// Struct tags already reject malformed dates; this only guards
		// direct service callers.
		return ValidationErrors{
			ValidationError{
				Field:   "CheckIn",
				Message: "check-in and check-out must be YYYY-MM-DD dates",
			},
		}
	}

	if !out.After(in) {
		return ValidationErrors{
			ValidationError{
				Field:   "CheckOut",
				Message: "check-out must be after check-in",
			},
		}
	}

	return nil
}

func (v *LockValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be a YYYY-MM-DD date", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
