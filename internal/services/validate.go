package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agendametrics/apiserver/internal/apperrors"
	"github.com/agendametrics/apiserver/internal/auth"
	"github.com/agendametrics/apiserver/types"
	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 6

// MaxUsernameLength is the longest accepted username, in characters.
const MaxUsernameLength = 64

var suggestedTimePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return suggestedTimePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

func validateRoutine(routine types.Routine) error {
	if err := validate.Struct(routine); err != nil {
		return validationError(err)
	}
	if routine.Frequency.Type == types.FrequencySpecificDays && len(routine.Frequency.Days) == 0 {
		return apperrors.Validation("frequency.days is required for specific-days frequency")
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperrors.Validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return apperrors.Validation(fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
	}
	return nil
}

type usernameField struct {
	Username string `json:"username" validate:"required,max=64"`
}

type emailField struct {
	Email string `json:"email" validate:"required,email"`
}

func validateUsername(username string) error {
	if err := validate.Struct(usernameField{Username: username}); err != nil {
		return validationError(err)
	}
	return nil
}

func validateEmail(email string) error {
	if err := validate.Struct(emailField{Email: email}); err != nil {
		return validationError(err)
	}
	return nil
}

func validateAccount(username, email string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	return validateEmail(email)
}

// federatedUsername fits a provider display name into the username rules.
func federatedUsername(displayName string) string {
	name := strings.TrimSpace(displayName)
	if utf8.RuneCountInString(name) <= MaxUsernameLength {
		return name
	}
	return strings.TrimSpace(string([]rune(name)[:MaxUsernameLength]))
}

// validationError reports the first failing field.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Wrap(apperrors.Validation("invalid input"), err)
	}
	fe := fieldErrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	var message string
	switch fe.Tag() {
	case "required":
		message = field + " is required"
	case "oneof":
		message = fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		message = fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		message = fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		message = field + " must be a valid email address"
	case "unique":
		message = field + " must not contain duplicates"
	case "hhmm":
		message = field + " must be a 24-hour HH:MM time"
	default:
		message = field + " is invalid"
	}
	return apperrors.Wrap(apperrors.Validation(message), err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
