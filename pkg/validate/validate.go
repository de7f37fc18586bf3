// Package validate runs `validate:"..."` struct tags through
// go-playground/validator and flattens the result into a
// field → message map keyed by JSON field names.
//
//	type placeOrder struct {
//	    Contact *uint       `json:"contact" validate:"required"`
//	    Items   []orderLine `json:"items"   validate:"required,dive"`
//	}
//
// Nested fields are reported with dotted paths: "items[0].quantity".
package validate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	once sync.Once
	v    *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonName)
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("boolstr", func(fl validator.FieldLevel) bool {
			_, err := ParseBool(fl.Field().String())
			return err == nil
		})
	})
	return v
}

// RegisterType validates values of the given types as whatever fn returns
// for them, so a decimal wrapper can take numeric tags like gte=0.
func RegisterType(fn func(reflect.Value) any, types ...any) {
	engine().RegisterCustomTypeFunc(func(v reflect.Value) interface{} { return fn(v) }, types...)
}

// Struct validates s. An empty map means s is valid.
func Struct(s interface{}) map[string]string {
	errs := make(map[string]string)

	err := engine().Struct(s)
	if err == nil {
		return errs
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["_"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		name := fieldPath(fe)
		if _, seen := errs[name]; !seen {
			errs[name] = message(fe)
		}
	}
	return errs
}

// Var validates a single value against tag, reporting it as field.
func Var(field string, value interface{}, tag string) map[string]string {
	errs := make(map[string]string)
	if err := engine().Var(value, tag); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			errs[field] = messageFor(field, verrs[0])
		} else {
			errs[field] = err.Error()
		}
	}
	return errs
}

// HasErrors returns true when the errs map is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

// ParseBool accepts the usual truthy and falsy spellings:
// y, yes, t, true, on, 1 and n, no, f, false, off, 0 (case-insensitive).
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "t", "true", "on", "1":
		return true, nil
	case "n", "no", "f", "false", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid truth value %q", s)
}

// ─── Messages ─────────────────────────────────────────────────────────────────

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	// Drop the root struct name.
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	return messageFor(fe.Field(), fe)
}

func messageFor(field string, fe validator.FieldError) string {
	p := fe.Param()
	switch fe.Tag() {
	case "required", "required_without", "required_with", "notblank":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", field)
	case "url", "http_url":
		return fmt.Sprintf("The %s must be a valid URL.", field)
	case "boolstr", "boolean":
		return fmt.Sprintf("The %s field must be true or false.", field)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid (allowed: %s).", field, strings.ReplaceAll(p, " ", ", "))
	case "min":
		if isNumeric(fe.Kind()) {
			return fmt.Sprintf("The %s must be at least %s.", field, p)
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("The %s must have at least %s items.", field, p)
		}
		return fmt.Sprintf("The %s must be at least %s characters.", field, p)
	case "max":
		if isNumeric(fe.Kind()) {
			return fmt.Sprintf("The %s must not be greater than %s.", field, p)
		}
		return fmt.Sprintf("The %s must not be greater than %s characters.", field, p)
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", field, p)
	case "gte":
		return fmt.Sprintf("The %s must be greater than or equal to %s.", field, p)
	case "numeric", "number":
		return fmt.Sprintf("The %s field must be a number.", field)
	case "e164":
		return fmt.Sprintf("The %s must be a valid phone number.", field)
	}
	return fmt.Sprintf("The %s field is invalid (%s).", field, fe.Tag())
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Index formats a slice element path the way Struct reports it.
func Index(field string, i int) string {
	return field + "[" + strconv.Itoa(i) + "]"
}
