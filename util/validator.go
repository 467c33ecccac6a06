package util

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/bwise1/moment_stack/internal/model"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var rgxUsername = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterValidation("notblank", validateNotBlank)
	validate.RegisterValidation("latitude", validateLatitude)
	validate.RegisterValidation("longitude", validateLongitude)
	validate.RegisterValidation("mood", validateMood)
	validate.RegisterValidation("absurl", validateAbsoluteURL)
	validate.RegisterValidation("username", validateUsername)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return NotBlank(fl.Field().String())
}

func validateLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90 && lat <= 90
}

func validateLongitude(fl validator.FieldLevel) bool {
	lon := fl.Field().Float()
	return lon >= -180 && lon <= 180
}

func validateMood(fl validator.FieldLevel) bool {
	return model.Mood(fl.Field().String()).Valid()
}

func validateAbsoluteURL(fl validator.FieldLevel) bool {
	return IsURL(fl.Field().String())
}

func validateUsername(fl validator.FieldLevel) bool {
	return rgxUsername.MatchString(fl.Field().String())
}

// ValidateInput validates s and reports the first failing field as a *model.ValidationError.
func ValidateInput(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return model.NewValidationError(fe.Field(), "%s", fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "latitude":
		return "latitude must be between -90 and 90"
	case "longitude":
		return "longitude must be between -180 and 180"
	case "mood":
		return "mood must be one of: " + joinMoods()
	case "absurl":
		return field + " must be a valid URL"
	case "email":
		return field + " must be a valid email address"
	case "username":
		return "username must be 3-30 characters of letters, numbers or underscores"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	default:
		return field + " is invalid"
	}
}

func joinMoods() string {
	names := make([]string, len(model.Moods))
	for i, m := range model.Moods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
