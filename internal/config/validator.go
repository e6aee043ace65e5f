package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// field paths follow the yaml keys, e.g. "ai.provider"
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate rejects settings that cannot be wired.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: validation error: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatValidationError(e))
	}
	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}

func formatValidationError(e validator.FieldError) string {
	path := e.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	switch e.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", path, e.Param(), e.Value())
	case "required_if":
		return fmt.Sprintf("%s is required when %s", path, strings.Replace(e.Param(), " ", " is ", 1))
	case "url":
		return fmt.Sprintf("%s must be a valid URL (got: %v)", path, e.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s out of range (got: %v)", path, e.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", path, e.Tag())
	}
}
