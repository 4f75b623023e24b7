package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/kbukum/ollamacmd/errors"
)

var (
	validate *validator.Validate
	once     sync.Once

	// modelNamePattern accepts names like "llama3", "qwen2:7b" or
	// "library/mistral:latest".
	modelNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]*(:[A-Za-z0-9._-]+)?$`)
	sessionPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
		_ = validate.RegisterValidation("model_name", func(fl validator.FieldLevel) bool {
			return IsModelName(fl.Field().String())
		})
		_ = validate.RegisterValidation("session_id", func(fl validator.FieldLevel) bool {
			return IsSessionID(fl.Field().String())
		})
	})
	return validate
}

// fieldName reports fields by their json, then mapstructure, tag so errors
// name the key a user actually wrote.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "mapstructure"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return toSnakeCase(fld.Name)
}

// IsModelName reports whether s looks like an ollama model reference.
func IsModelName(s string) bool { return len(s) <= 200 && modelNamePattern.MatchString(s) }

// IsSessionID reports whether s is a valid bridge session identifier.
func IsSessionID(s string) bool { return sessionPattern.MatchString(s) }

// Validate validates a struct using its `validate` tags and returns a
// VALIDATION AppError listing every failing field.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Validation("validation failed").WithCause(err)
	}

	v := New()
	for _, e := range validationErrors {
		v.AddError(fieldPath(e), formatValidationError(e))
	}
	return v.Validate()
}

// fieldPath drops the root struct name: "AppConfig.ollama.timeout" -> "ollama.timeout".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gte":
		return "must be " + e.Param() + " or more"
	case "lte":
		return "must be " + e.Param() + " or less"
	case "oneof":
		return "must be one of: " + e.Param()
	case "hostname_port":
		return "must be host:port"
	case "model_name":
		return "must be a model name such as llama3 or qwen2:7b"
	case "session_id":
		return "must be 1-64 letters, digits, '-' or '_'"
	default:
		return "is invalid"
	}
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		if r >= 'A' && r <= 'Z' {
			result.WriteRune(r + 32)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
