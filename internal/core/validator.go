package core

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// Validator wraps go-playground/validator and registers the domain-specific
// rules used by request payloads (posting times, calendar dates, timezones).
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// ValidationError describes a single failed constraint on a request field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult collects the outcome of validating a struct. Warnings are
// advisory and do not fail the request.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
}

// IsValid reports whether the result contains no errors. Warnings alone do
// not invalidate a result.
func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// NewValidator creates a new Validator and registers custom validation tags:
//
//   - slot_time:   a 24-hour wall-clock time in "HH:mm" form
//   - date_ymd:    a calendar date in "YYYY-MM-DD" form
//   - is_timezone: a loadable IANA timezone name
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New()

	// Report json field names rather than Go struct field names so error
	// details line up with the payload the client actually sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for nil funcs or empty tag names.
	_ = v.RegisterValidation("slot_time", validateSlotTime)
	_ = v.RegisterValidation("date_ymd", validateDateYMD)
	_ = v.RegisterValidation("is_timezone", validateTimezone)

	return &Validator{
		validate: v,
		logger:   logger,
	}
}

// ValidateStruct validates the struct and returns a *types.AppError carrying
// the full list of field failures in Details["validation_errors"]. The error
// code is taken from the first failed constraint. Returns nil when the struct
// is valid.
func (v *Validator) ValidateStruct(s interface{}) error {
	result := v.ValidateStructWithWarnings(s)
	if result.IsValid() {
		return nil
	}

	return types.NewAppErrorWithDetails(
		types.ErrorCode(result.Errors[0].Code),
		"request validation failed",
		nil,
		map[string]any{"validation_errors": result.Errors},
	)
}

// ValidateStructWithWarnings validates the struct and returns the structured
// result instead of an error, for callers that want to surface all failures
// at once.
func (v *Validator) ValidateStructWithWarnings(s interface{}) ValidationResult {
	err := v.validate.Struct(s)
	if err == nil {
		return ValidationResult{}
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// InvalidValidationError: the caller passed a non-struct.
		v.logger.Error("validator received a non-struct value", "error", err)
		return ValidationResult{
			Errors: []ValidationError{{
				Field:   "",
				Code:    string(types.ErrCodeValidationInvalidPayload),
				Message: "request payload could not be validated",
			}},
		}
	}

	result := ValidationResult{
		Errors: make([]ValidationError, 0, len(verrs)),
	}
	for _, fe := range verrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Code:    string(codeForTag(fe.Tag())),
			Message: messageForError(fe),
		})
	}
	return result
}

// codeForTag maps a validation tag to the domain error code reported to
// clients.
func codeForTag(tag string) types.ErrorCode {
	switch tag {
	case "required":
		return types.ErrCodeValidationMissingField
	case "slot_time":
		return types.ErrCodeValidationInvalidTime
	case "date_ymd":
		return types.ErrCodeValidationInvalidDate
	default:
		return types.ErrCodeValidationInvalidPayload
	}
}

// messageForError produces a human-readable message for a field failure.
func messageForError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "slot_time":
		return fmt.Sprintf("%s must be a 24-hour time in HH:mm form", fe.Field())
	case "date_ymd":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD form", fe.Field())
	case "is_timezone":
		return fmt.Sprintf("%s must be a valid IANA timezone name", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min", "max":
		return fmt.Sprintf("%s is out of range (%s=%s)", fe.Field(), fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// validateSlotTime accepts 24-hour "HH:mm" wall-clock times, the format used
// by schedule slot posting times.
func validateSlotTime(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}

// validateDateYMD accepts calendar dates in the recommendation target-date
// format.
func validateDateYMD(fl validator.FieldLevel) bool {
	_, err := time.Parse(types.DateFormat, fl.Field().String())
	return err == nil
}

// validateTimezone accepts loadable IANA timezone names. The empty string is
// rejected even though time.LoadLocation would accept it as UTC.
func validateTimezone(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}
