package contract

import (
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"time"

	jerrors "github.com/porthorian/jamfpro/pkg/errors"
)

const DateLayout = "2006-01-02"

type Param struct {
	Name  string
	Value any
}

// Params keeps call-site order so errors list names predictably.
type Params []Param

// Source tells which side of a param/body pair a call uses.
type Source int

const (
	SourceParams Source = iota + 1
	SourceBody
)

// IsEmpty treats nil, "", zero numbers, nil pointers, and empty slices or maps
// as unset.
func IsEmpty(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v.IsZero()
	case reflect.Bool:
		return !v.Bool()
	}
	return false
}

func (p Params) set() []string {
	var names []string
	for _, param := range p {
		if !IsEmpty(param.Value) {
			names = append(names, param.Name)
		}
	}
	return names
}

// ChooseParamsOrBody requires exactly one of: any set param, or a non-empty body.
func ChooseParamsOrBody(params Params, body any) (Source, error) {
	hasParams := len(params.set()) > 0
	hasBody := !IsEmpty(body)

	switch {
	case hasParams && hasBody:
		return 0, jerrors.New(jerrors.CodeParametersAndData, "parameters and data cannot be provided together")
	case hasParams:
		return SourceParams, nil
	case hasBody:
		return SourceBody, nil
	}
	return 0, jerrors.New(jerrors.CodeNoParametersOrData, "either parameters or data must be provided")
}

// RequireParams fails naming every unset param.
func RequireParams(params Params) error {
	var missing []string
	for _, param := range params {
		if IsEmpty(param.Value) {
			missing = append(missing, param.Name)
		}
	}
	if len(missing) > 0 {
		return jerrors.Newf(jerrors.CodeMissingParameters, "missing required parameter(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// CheckConflicts allows at most one set param.
func CheckConflicts(params Params) error {
	set := params.set()
	if len(set) > 1 {
		return jerrors.Newf(jerrors.CodeConflictingParameters, "parameters %s cannot be used together", strings.Join(set, ", "))
	}
	return nil
}

// ValidateEnum checks value, or each item of a string slice, against allowed.
// An empty value passes.
func ValidateEnum(name string, value any, allowed []string) error {
	var items []string
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		items = []string{v}
	case []string:
		items = v
	case fmt.Stringer:
		items = []string{v.String()}
	default:
		items = []string{fmt.Sprint(v)}
	}

	for _, item := range items {
		if !slices.Contains(allowed, item) {
			return jerrors.Newf(jerrors.CodeInvalidParameterOptions, "%s must be one of [%s], got %q", name, strings.Join(allowed, ", "), item)
		}
	}
	return nil
}

// ValidateDate requires YYYY-MM-DD.
func ValidateDate(name, value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return jerrors.Newf(jerrors.CodeInvalidParameterOptions, "%s must be a date formatted YYYY-MM-DD, got %q", name, value)
	}
	return nil
}

// DropEmpty builds a query from the set params. Slices become repeated keys.
func DropEmpty(params Params) url.Values {
	query := url.Values{}
	for _, param := range params {
		if IsEmpty(param.Value) {
			continue
		}

		switch v := param.Value.(type) {
		case []string:
			for _, item := range v {
				query.Add(param.Name, item)
			}
		case []int:
			for _, item := range v {
				query.Add(param.Name, fmt.Sprint(item))
			}
		case *int:
			query.Set(param.Name, fmt.Sprint(*v))
		case *bool:
			query.Set(param.Name, fmt.Sprint(*v))
		default:
			query.Set(param.Name, fmt.Sprint(v))
		}
	}
	return query
}
