package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// RegisterValidators installs the feedback_category and feedback_status
// binding tags on gin's validator and makes error messages use JSON field
// names. It is safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("feedback_category", func(fl validator.FieldLevel) bool {
		return domain.Category(strings.ToLower(fl.Field().String())).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("feedback_status", func(fl validator.FieldLevel) bool {
		return domain.Status(strings.ToLower(fl.Field().String())).Valid()
	})
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

// bindMessage turns a binding error into a short client-facing message.
func bindMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid JSON body"
	}
	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min", "gte", "lte":
		return fmt.Sprintf("%s is out of range", fe.Field())
	case "feedback_category":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), joinEnum(domain.Categories))
	case "feedback_status":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), joinEnum(domain.Statuses))
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

func joinEnum[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
