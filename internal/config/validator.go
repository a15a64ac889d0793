package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers shopfront-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	// base_url: validates an absolute http(s) URL without trailing slash noise.
	if err := v.RegisterValidation("base_url", validateBaseURL); err != nil {
		return fmt.Errorf("failed to register base_url validator: %w", err)
	}
	return nil
}

// validateBaseURL validates the API base URL field.
// Valid values are absolute http:// or https:// URLs with a host and no
// query or fragment.
func validateBaseURL(fl validator.FieldLevel) bool {
	raw := fl.Field().String()

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" || u.RawQuery != "" || u.Fragment != "" {
		return false
	}
	return true
}

// Validate validates the Config using struct tags and custom rules.
// Returns an error with actionable messages on failure.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		var errs validator.ValidationErrors
		if ok := asValidationErrors(err, &errs); ok {
			msgs := make([]string, 0, len(errs))
			for _, fe := range errs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}

	if c.API.Timeout < 0 {
		return fmt.Errorf("invalid configuration: api.timeout must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("invalid configuration: cache.ttl must not be negative")
	}
	return nil
}

// asValidationErrors unwraps err into validator.ValidationErrors.
func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	if errs, ok := err.(validator.ValidationErrors); ok {
		*target = errs
		return true
	}
	return false
}

// describeFieldError renders one field error as an actionable message.
func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "base_url":
		return fmt.Sprintf("%s must be an absolute http(s) URL", fe.Namespace())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Namespace(), fe.Param())
	case "min", "max":
		return fmt.Sprintf("%s is out of range (%s=%s)", fe.Namespace(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag())
}
