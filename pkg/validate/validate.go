// Package validate checks request structs against `validate` struct tags.
//
// Rules are comma separated. Rules taking several values separate them with
// a pipe:
//
//	required         field must not be zero/empty
//	nullable         skip the remaining rules when the field is empty
//	email            valid email address
//	url              http(s) URL
//	phone            7-15 digits, optional leading +, spaces and dashes allowed
//	slug             lowercase letters, digits and single hyphens
//	min=N / max=N    string length or numeric bound
//	gt=N / gte=N     numeric lower bound
//	lte=N            numeric upper bound
//	between=A|B      numeric or length range, inclusive
//	in=a|b|c         value must be one of the listed items
//	regex=pattern    value must match
//
// Nested structs, pointers to structs and slices of structs are validated
// recursively; errors are keyed by their JSON path, e.g.
// "shippingAddress.city" or "items[1].quantity". Slices of scalars apply
// their `each` tag to every element.
//
//	type AddressInput struct {
//	    City string `json:"city" validate:"required,max=100"`
//	}
//	type OrderInput struct {
//	    Address AddressInput `json:"shippingAddress"`
//	    Method  string       `json:"paymentMethod" validate:"required,in=stripe|paypal|cash_on_delivery"`
//	    Sizes   []string     `json:"sizes" each:"in=S|M|L"`
//	}
package validate

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Struct validates v and returns field path → message. An empty map means v
// is valid.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return errs
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		walkStruct(rv, "", errs)
	}
	return errs
}

// HasErrors returns true when errs is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func walkStruct(rv reflect.Value, prefix string, errs map[string]string) {
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		value := rv.Field(i)
		name := prefix + jsonFieldName(field)

		if tag := field.Tag.Get("validate"); tag != "" {
			if msg := checkValue(tag, name, value); msg != "" {
				errs[name] = msg
				continue
			}
		}

		if tag := field.Tag.Get("each"); tag != "" && value.Kind() == reflect.Slice {
			for j := 0; j < value.Len(); j++ {
				elemName := fmt.Sprintf("%s[%d]", name, j)
				if msg := checkValue(tag, elemName, value.Index(j)); msg != "" {
					errs[elemName] = msg
				}
			}
		}

		descend(value, name, errs)
	}
}

func descend(value reflect.Value, name string, errs map[string]string) {
	switch value.Kind() {
	case reflect.Ptr:
		if !value.IsNil() && value.Elem().Kind() == reflect.Struct {
			walkStruct(value.Elem(), name+".", errs)
		}
	case reflect.Struct:
		if value.Type().PkgPath() == "time" {
			return
		}
		walkStruct(value, name+".", errs)
	case reflect.Slice:
		for j := 0; j < value.Len(); j++ {
			elem := value.Index(j)
			if elem.Kind() == reflect.Ptr && !elem.IsNil() {
				elem = elem.Elem()
			}
			if elem.Kind() == reflect.Struct {
				walkStruct(elem, fmt.Sprintf("%s[%d].", name, j), errs)
			}
		}
	}
}

func checkValue(tag, name string, value reflect.Value) string {
	rules := strings.Split(tag, ",")
	if hasRule(rules, "nullable") && isEmpty(value) {
		return ""
	}
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			if hasRule(rules, "required") {
				return fmt.Sprintf("The %s field is required.", name)
			}
			return ""
		}
		value = value.Elem()
	}

	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		if rule == "" || rule == "nullable" {
			continue
		}
		if msg := applyRule(rule, name, value); msg != "" {
			return msg
		}
	}
	return ""
}

func applyRule(rule, field string, v reflect.Value) string {
	key, param, _ := strings.Cut(rule, "=")

	// Beyond "required", empty optional values pass; an unset optional field
	// should not fail min=, in= and similar rules.
	if key != "required" && isEmpty(v) && !isNumericKind(v) {
		return ""
	}
	raw := fmt.Sprintf("%v", v.Interface())

	switch key {
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}

	case "email":
		if !emailRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
	case "url":
		u, err := url.ParseRequestURI(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Sprintf("The %s must be a valid URL.", field)
		}
	case "phone":
		if !phoneRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a valid phone number.", field)
		}
	case "slug":
		if !slugRE.MatchString(raw) {
			return fmt.Sprintf("The %s may only contain lowercase letters, numbers and hyphens.", field)
		}

	case "min":
		n := parseFloat(param)
		if isNumericKind(v) {
			if toFloat(v) < n {
				return fmt.Sprintf("The %s must be at least %s.", field, param)
			}
		} else if float64(length(v, raw)) < n {
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		}
	case "max":
		n := parseFloat(param)
		if isNumericKind(v) {
			if toFloat(v) > n {
				return fmt.Sprintf("The %s must not be greater than %s.", field, param)
			}
		} else if float64(length(v, raw)) > n {
			return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
		}
	case "gt":
		if toFloat(v) <= parseFloat(param) {
			return fmt.Sprintf("The %s must be greater than %s.", field, param)
		}
	case "gte":
		if toFloat(v) < parseFloat(param) {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		}
	case "lte":
		if toFloat(v) > parseFloat(param) {
			return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
		}
	case "between":
		lo, hi, ok := strings.Cut(param, "|")
		if !ok {
			return fmt.Sprintf("The %s has an invalid between rule.", field)
		}
		l, h := parseFloat(lo), parseFloat(hi)
		n := float64(length(v, raw))
		if isNumericKind(v) {
			n = toFloat(v)
		}
		if n < l || n > h {
			return fmt.Sprintf("The %s must be between %s and %s.", field, lo, hi)
		}

	case "in":
		for _, a := range strings.Split(param, "|") {
			if raw == strings.TrimSpace(a) {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)

	case "regex":
		re, err := regexp.Compile(param)
		if err != nil {
			return fmt.Sprintf("The %s has an invalid validation pattern.", field)
		}
		if !re.MatchString(raw) {
			return fmt.Sprintf("The %s format is invalid.", field)
		}
	}

	return ""
}

var (
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRE = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,18}[0-9]$`)
	slugRE  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func isNumericKind(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func length(v reflect.Value, raw string) int {
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len()
	}
	return len([]rune(raw))
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return parseFloat(fmt.Sprintf("%v", v.Interface()))
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name[:1]) + f.Name[1:]
	}
	return name
}

func hasRule(rules []string, target string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == target {
			return true
		}
	}
	return false
}
