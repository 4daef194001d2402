// Package validation wraps go-playground/validator and turns its errors into a field to message map.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	modulePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	validate = newValidator() //nolint:gochecknoglobals
)

// Errors maps a field name, as sent by the client, to a message.
type Errors map[string]string

// Error implements error.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// First returns the message of the alphabetically first field.
func (e Errors) First() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}

	if len(fields) == 0 {
		return ""
	}

	sort.Strings(fields)

	return e[fields[0]]
}

// Add sets msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// OrNil returns nil for an empty map so callers can return it as error.
func (e Errors) OrNil() error {
	if len(e) == 0 {
		return nil
	}

	return e
}

// AsErrors unwraps err into Errors.
func AsErrors(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}

	return nil, false
}

// Field returns a single field error.
func Field(field, msg string) Errors {
	return Errors{field: msg}
}

// Taken is the message for unique violations.
func Taken(field string) string {
	return fmt.Sprintf("The %s has already been taken.", humanize(field))
}

// Invalid is the message for references to records that do not exist.
func Invalid(field string) string {
	return fmt.Sprintf("The selected %s is invalid.", humanize(field))
}

// Struct validates s and returns Errors, or nil if s is valid.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err //nolint:wrapcheck
	}

	out := Errors{}
	for _, fe := range fieldErrors {
		field := fieldName(fe)
		out.Add(field, message(field, fe))
	}

	return out
}

// Slug reports whether s is a lower case, hyphen separated slug.
func Slug(s string) bool {
	return slugPattern.MatchString(s)
}

// Module reports whether s is a valid permission module name.
func Module(s string) bool {
	return modulePattern.MatchString(s)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0] //nolint:mnd
		if name == "-" || name == "" {
			return f.Name
		}

		return name
	})

	mustRegister(v, "slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "module", func(fl validator.FieldLevel) bool {
		return modulePattern.MatchString(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// fieldName turns actions[0] into actions.0.
func fieldName(fe validator.FieldError) string {
	r := strings.NewReplacer("[", ".", "]", "")
	return r.Replace(fe.Field())
}

func message(field string, fe validator.FieldError) string {
	name := humanize(field)

	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("The %s field is required.", name)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
		}

		return fmt.Sprintf("The %s field must not be greater than %s.", name, fe.Param())
	case "min", "gte":
		switch fe.Kind() { //nolint:exhaustive
		case reflect.Slice:
			return fmt.Sprintf("The %s field must have at least %s items.", name, fe.Param())
		case reflect.String:
			return fmt.Sprintf("The %s field must be at least %s characters.", name, fe.Param())
		}

		return fmt.Sprintf("The %s field must be at least %s.", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", name)
	case "number":
		return fmt.Sprintf("The %s field must only contain digits.", name)
	case "slug", "module":
		return fmt.Sprintf("The %s field format is invalid.", name)
	default:
		return fmt.Sprintf("The %s field is invalid.", name)
	}
}

func humanize(field string) string {
	return strings.NewReplacer("_", " ", ".", " ").Replace(field)
}
