// Package validation holds the storefront's input rules: the validator/v10
// instance with our custom tags, and the human-readable messages the
// contact and newsletter forms return.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// MaxFieldLength caps every sanitized text field.
const MaxFieldLength = 1000

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	uaePhonePattern = regexp.MustCompile(`^(\+971|971|05)[0-9]{8,9}$`)
	phoneSeparators = strings.NewReplacer(" ", "", "-", "")
	angleBrackets   = strings.NewReplacer("<", "", ">", "")
)

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// NormalizePhone removes spaces and dashes.
func NormalizePhone(s string) string {
	return phoneSeparators.Replace(strings.TrimSpace(s))
}

// IsUAEPhone accepts +971, 971 and 05 prefixed numbers, with or without
// spaces and dashes.
func IsUAEPhone(s string) bool {
	return uaePhonePattern.MatchString(NormalizePhone(s))
}

// Sanitize trims s, drops angle brackets and caps it at MaxFieldLength runes.
func Sanitize(s string) string {
	s = angleBrackets.Replace(strings.TrimSpace(s))
	if utf8.RuneCountInString(s) > MaxFieldLength {
		s = string([]rune(s)[:MaxFieldLength])
	}
	return s
}

func validateUAEPhone(fl validator.FieldLevel) bool {
	return IsUAEPhone(fl.Field().String())
}

func validateSimpleEmail(fl validator.FieldLevel) bool {
	return IsEmail(fl.Field().String())
}

// trimmedmin=N counts runes after trimming surrounding spaces.
func validateTrimmedMin(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
}

// Register adds the custom tags (uaephone, simpleemail, trimmedmin) to v and
// makes field errors report json names.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	for tag, fn := range map[string]validator.Func{
		"uaephone":    validateUAEPhone,
		"simpleemail": validateSimpleEmail,
		"trimmedmin":  validateTrimmedMin,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// RegisterGin installs the custom tags on gin's binding validator so
// `binding:"uaephone"` works in request structs.
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not validator/v10")
	}
	return Register(v)
}

var std = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}()

// Struct validates s with the package validator.
func Struct(s any) error {
	return std.Struct(s)
}

// Messages turns a validation error into one readable line per failed
// field. fieldMessages overrides the generic text per json field name.
func Messages(err error, fieldMessages map[string]string) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err == nil {
			return nil
		}
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	seen := map[string]bool{}
	for _, fe := range verrs {
		if seen[fe.Field()] {
			continue
		}
		seen[fe.Field()] = true
		if msg, ok := fieldMessages[fe.Field()]; ok {
			out = append(out, msg)
			continue
		}
		out = append(out, generic(fe))
	}
	return out
}

func generic(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "trimmedmin":
		return fe.Field() + " must be at least " + fe.Param() + " characters long"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters long"
	case "email", "simpleemail":
		return fe.Field() + " must be a valid email address"
	case "uaephone":
		return fe.Field() + " must be a valid UAE phone number"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
