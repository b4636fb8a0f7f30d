// Package inputval provides request input validation using waffle/pantry/validate.
//
// Define an input struct with validate tags, decode the request body into it,
// and call Validate to get user-friendly error messages.
//
// Example:
//
//	type LeadInput struct {
//	    Name  string `json:"name" validate:"required,max=200" label:"Name"`
//	    Email string `json:"email" validate:"required,email" label:"Email"`
//	}
//
//	if res := inputval.Validate(in); res.HasErrors() {
//	    jsonutil.ValidationError(w, res.Errors)
//	    return
//	}
package inputval

import (
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/dalemusser/waffle/pantry/validate"
)

// Result holds validation results with user-friendly messages.
type Result struct {
	Errors []FieldError
}

// FieldError represents a validation error for a single field.
type FieldError struct {
	Field   string `json:"field"`
	Label   string `json:"-"`
	Message string `json:"message"`
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or empty string if no errors.
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// All returns all error messages joined with "; ".
func (r *Result) All() string {
	if len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

var (
	customValidator *validate.Validator
	validatorOnce   sync.Once
)

func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		customValidator = validate.New(validate.WithStopOnFirstError())

		customValidator.RegisterRuleFunc("slug", func(value any) bool {
			s, ok := value.(string)
			return ok && (s == "" || IsValidSlug(s))
		}, "slug")

		customValidator.RegisterRuleFunc("phone", func(value any) bool {
			s, ok := value.(string)
			return ok && (s == "" || IsValidPhone(s))
		}, "phone")

		customValidator.RegisterRuleFunc("httpurl", func(value any) bool {
			s, ok := value.(string)
			return ok && (s == "" || IsValidHTTPURL(s))
		}, "httpurl")
	})
	return customValidator
}

// Validate validates a struct and returns a Result with user-friendly errors.
//
// Rules from pantry/validate: required, email, oneof, min, max, timezone.
// Rules registered here (empty values pass; combine with required):
//   - slug: lowercase letters, digits and single hyphens
//   - phone: digits with optional +, spaces, dots, dashes and parentheses
//   - httpurl: http:// or https:// URL
func Validate(s any) *Result {
	result := &Result{}

	err := getValidator().Struct(s)
	if err == nil {
		return result
	}

	labels := getFieldLabels(s)
	if errs, ok := err.(validate.Errors); ok {
		for _, e := range errs {
			label := labels[e.Field]
			if label == "" {
				label = e.Field
			}
			result.Errors = append(result.Errors, FieldError{
				Field:   e.Field,
				Label:   label,
				Message: formatMessage(label, e.Rule, e.Param),
			})
		}
	}
	return result
}

// getFieldLabels maps json field names (or Go names) to "label" tags.
func getFieldLabels(s any) map[string]string {
	labels := make(map[string]string)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fieldName := field.Name
		if jsonTag := field.Tag.Get("json"); jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" && parts[0] != "-" {
				fieldName = parts[0]
			}
		}
		if label := field.Tag.Get("label"); label != "" {
			labels[fieldName] = label
		}
	}
	return labels
}

func formatMessage(label, rule, param string) string {
	switch rule {
	case "required":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min":
		return label + " must be at least " + param + " characters."
	case "max":
		return label + " must be at most " + param + " characters."
	case "slug":
		return label + " may only contain lowercase letters, digits and hyphens."
	case "phone":
		return label + " must be a valid phone number."
	case "httpurl":
		return label + " must be a valid URL starting with http:// or https://."
	default:
		return label + " is invalid."
	}
}

// IsValidEmail reports whether email is a bare RFC 5322 address.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// ParseAddress accepts "Name <email>"; only the bare address is allowed.
	return addr.Address == email
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsValidSlug reports whether s is a URL slug such as "red-hat-rhcsa".
func IsValidSlug(s string) bool {
	return len(s) <= 100 && slugPattern.MatchString(s)
}

var phonePattern = regexp.MustCompile(`^\+?[0-9 ().-]{6,25}$`)

// IsValidPhone reports whether s looks like a phone number with at least
// six digits.
func IsValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	if !phonePattern.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 6
}

// IsValidHTTPURL checks if the given string is a valid http:// or https:// URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
