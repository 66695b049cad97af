package security

import (
	"fmt"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/domain/user"
	apperrors "github.com/healthylife/server/pkg/errors"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	filenamePattern   = regexp.MustCompile(`^[a-zA-Z0-9._ -]+$`)
)

// ValidationService validates request payloads with struct tags
type ValidationService struct {
	logger    *zap.Logger
	validator *validator.Validate
}

// NewValidationService creates a new validation service
func NewValidationService(logger *zap.Logger) *ValidationService {
	validate := validator.New()

	// report json names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("diet", validateDiet)
	_ = validate.RegisterValidation("activity", validateActivity)
	_ = validate.RegisterValidation("safe_filename", validateSafeFilename)

	return &ValidationService{
		logger:    logger.Named("validation"),
		validator: validate,
	}
}

// Validate checks s against its validate tags. Failures are returned as a
// VALIDATION_FAILED AppError listing every field.
func (v *ValidationService) Validate(s interface{}) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !asValidationErrors(err, &fieldErrs) {
		return apperrors.NewBadRequestError(err.Error())
	}

	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apperrors.ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	v.logger.Debug("Validation failed", zap.Int("fields", len(out)))
	return apperrors.NewValidationErrors(out)
}

// SanitizeText strips markup, collapses whitespace and caps the length in runes
func (v *ValidationService) SanitizeText(input string, maxLength int) string {
	result := tagPattern.ReplaceAllString(input, "")
	result = strings.TrimSpace(whitespacePattern.ReplaceAllString(result, " "))
	if maxLength > 0 {
		if runes := []rune(result); len(runes) > maxLength {
			result = string(runes[:maxLength])
		}
	}
	return result
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	fe, ok := err.(validator.ValidationErrors)
	if ok {
		*target = fe
	}
	return ok
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Invalid email format"
	case "gt", "gte", "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lt", "lte", "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "diet":
		return "dietPreference must be veg or non-veg"
	case "activity":
		return "activity must be one of Sedentary, Lightly Active, Moderately Active, Very Active"
	case "safe_filename":
		return fmt.Sprintf("%s contains invalid characters", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func validateDiet(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || shared.DietPreference(s).Valid()
}

func validateActivity(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || user.ActivityLevel(s).Valid()
}

func validateSafeFilename(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return true
	}
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		return false
	}
	return filenamePattern.MatchString(name)
}
