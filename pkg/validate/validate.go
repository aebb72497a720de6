// Package validate provides struct-tag validation.
//
// Supported rules (comma-separated in the `validate` tag):
//
//	required        field must not be zero/empty
//	nullable        if empty, skip all remaining rules for this field
//	email           valid email address
//	numeric         any number
//	min=N           string: min char length | number: min value
//	max=N           string: max char length | number: max value
//	gt=N            number > N
//	gte=N           number >= N
//	in=a,b,c        value must be one of the listed items
//
// Example:
//
//	type Input struct {
//	    Email  string  `json:"email"  validate:"required,email"`
//	    Amount float64 `json:"amount" validate:"required,gt=0"`
//	    Role   string  `json:"role"   validate:"nullable,in=admin,customer"`
//	}
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns a map of fieldName → error message; empty map means no errors.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		value := rv.Field(i)

		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := jsonFieldName(field)
		rules := splitRules(tag)

		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}

		for _, rule := range rules {
			if rule == "nullable" {
				continue
			}
			if msg := applyRule(rule, name, value); msg != "" {
				errs[name] = msg
				break // first failing rule per field
			}
		}
	}

	return errs
}

// HasErrors returns true when the errs map is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func applyRule(rule, field string, v reflect.Value) string {
	raw := fmt.Sprintf("%v", v.Interface())
	key, param, _ := strings.Cut(rule, "=")

	switch key {
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}

	case "email":
		if !emailRe.MatchString(raw) {
			return fmt.Sprintf("The %s field must be a valid email address.", field)
		}

	case "numeric":
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return fmt.Sprintf("The %s field must be a number.", field)
		}

	case "min":
		if n, ok := numeric(v); ok {
			if limit, _ := strconv.ParseFloat(param, 64); n < limit {
				return fmt.Sprintf("The %s field must be at least %s.", field, param)
			}
		} else if limit, _ := strconv.Atoi(param); len(raw) < limit {
			return fmt.Sprintf("The %s field must be at least %s characters.", field, param)
		}

	case "max":
		if n, ok := numeric(v); ok {
			if limit, _ := strconv.ParseFloat(param, 64); n > limit {
				return fmt.Sprintf("The %s field must not exceed %s.", field, param)
			}
		} else if limit, _ := strconv.Atoi(param); len(raw) > limit {
			return fmt.Sprintf("The %s field must not exceed %s characters.", field, param)
		}

	case "gt":
		if n, ok := numeric(v); ok {
			if limit, _ := strconv.ParseFloat(param, 64); n <= limit {
				return fmt.Sprintf("The %s field must be greater than %s.", field, param)
			}
		}

	case "gte":
		if n, ok := numeric(v); ok {
			if limit, _ := strconv.ParseFloat(param, 64); n < limit {
				return fmt.Sprintf("The %s field must be at least %s.", field, param)
			}
		}

	case "in":
		for _, item := range strings.Split(param, ",") {
			if raw == item {
				return ""
			}
		}
		return fmt.Sprintf("The %s field must be one of: %s.", field, param)
	}

	return ""
}

func numeric(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.Len() == 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}

// splitRules splits on commas except inside an in=/not_in= parameter list,
// where commas separate the allowed values.
func splitRules(tag string) []string {
	parts := strings.Split(tag, ",")
	rules := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(rules) > 0 && !strings.Contains(p, "=") {
			if prev := rules[len(rules)-1]; strings.HasPrefix(prev, "in=") {
				rules[len(rules)-1] = prev + "," + p
				continue
			}
		}
		rules = append(rules, strings.TrimSpace(p))
	}
	return rules
}

func hasRule(rules []string, name string) bool {
	for _, r := range rules {
		if r == name {
			return true
		}
	}
	return false
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}
