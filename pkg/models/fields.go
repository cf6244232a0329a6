package models

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// ErrUnknownField is returned when an edit names a field the step does not have.
var ErrUnknownField = errors.New("unknown form field")

// FieldEdit is a single form field change as produced by an input control.
type FieldEdit struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// Field describes one form input of a step payload.
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	ReadOnly bool   `json:"read_only,omitempty"`
}

// Fields lists the inputs of p in declaration order with their current values.
func Fields(p StepPayload) []Field {
	v := reflect.ValueOf(p)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return nil
	}

	v = v.Elem()
	t := v.Type()
	fields := make([]Field, 0, t.NumField())

	for i := range t.NumField() {
		name := jsonName(t.Field(i))
		if name == "" {
			continue
		}

		fields = append(fields, Field{
			Name:     name,
			Label:    labelFor(name),
			Value:    formatValue(v.Field(i)),
			ReadOnly: t.Field(i).Tag.Get("form") == "readonly",
		})
	}

	return fields
}

// cascade order of address edits: country, then state, then city, then the rest.
var addressEditRank = map[string]int{"country": 0, "state": 1, "city": 2}

// ApplyEdits returns a copy of p with the edits applied in order. Address
// edits are reordered so that a country change resets state and city before a
// state or city sent in the same batch is applied.
func ApplyEdits(p StepPayload, edits []FieldEdit) (StepPayload, error) {
	out := ClonePayload(p)

	switch v := out.(type) {
	case *Address:
		ordered := slices.Clone(edits)
		slices.SortStableFunc(ordered, func(a, b FieldEdit) int {
			return rank(a.Field) - rank(b.Field)
		})

		for _, edit := range ordered {
			var err error

			switch edit.Field {
			case "country":
				v.SetCountry(edit.Value)
			case "state":
				v.SetState(edit.Value)
			case "city":
				v.SetCity(edit.Value)
			default:
				err = setField(v, edit.Field, edit.Value)
			}

			if err != nil {
				return nil, err
			}
		}
	case *BaseInfo:
		phoneTouched := false

		for _, edit := range edits {
			if edit.Field == "phoneCountryCode" || edit.Field == "phoneInput" {
				phoneTouched = true
			}

			if err := setField(v, edit.Field, edit.Value); err != nil {
				return nil, err
			}
		}

		if phoneTouched {
			v.SetPhone(v.PhoneCountryCode, v.PhoneInput)
		}
	case *BankAccountForm:
		for _, edit := range edits {
			var err error
			if edit.Field == "countryCode" {
				v.SetCountryCode(edit.Value)
			} else {
				err = setField(v, edit.Field, edit.Value)
			}

			if err != nil {
				return nil, err
			}
		}
	default:
		for _, edit := range edits {
			if err := setField(out, edit.Field, edit.Value); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

func rank(field string) int {
	if r, ok := addressEditRank[field]; ok {
		return r
	}

	return len(addressEditRank)
}

func setField(target StepPayload, name, raw string) error {
	v := reflect.ValueOf(target).Elem()
	t := v.Type()

	for i := range t.NumField() {
		if jsonName(t.Field(i)) != name {
			continue
		}

		if t.Field(i).Tag.Get("form") == "readonly" {
			return fmt.Errorf("field %s is read only", name)
		}

		if err := assign(v.Field(i), raw); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}

		return nil
	}

	return fmt.Errorf("%w %q for step %s", ErrUnknownField, name, target.Step())
}

func assign(fv reflect.Value, raw string) error {
	raw = strings.TrimSpace(raw)

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Float64:
		if raw == "" {
			fv.SetFloat(0)

			return nil
		}

		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("expected a number: %w", err)
		}

		fv.SetFloat(f)
	case reflect.Int:
		if raw == "" {
			fv.SetInt(0)

			return nil
		}

		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("expected an integer: %w", err)
		}

		fv.SetInt(int64(n))
	case reflect.Bool:
		if raw == "" {
			fv.SetBool(false)

			return nil
		}

		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("expected true or false: %w", err)
		}

		fv.SetBool(b)
	case reflect.Pointer:
		if raw == "" {
			fv.Set(reflect.Zero(fv.Type()))

			return nil
		}

		ptr := reflect.New(fv.Type().Elem())
		if err := assign(ptr.Elem(), raw); err != nil {
			return err
		}

		fv.Set(ptr)
	case reflect.Slice:
		items := []string{}

		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}

		fv.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}

	return nil
}

func formatValue(fv reflect.Value) string {
	switch fv.Kind() {
	case reflect.String:
		return fv.String()
	case reflect.Float64:
		return strconv.FormatFloat(fv.Float(), 'f', -1, 64)
	case reflect.Int:
		return strconv.FormatInt(fv.Int(), 10)
	case reflect.Bool:
		return strconv.FormatBool(fv.Bool())
	case reflect.Pointer:
		if fv.IsNil() {
			return ""
		}

		return formatValue(fv.Elem())
	case reflect.Slice:
		items := make([]string, 0, fv.Len())
		for i := range fv.Len() {
			items = append(items, fv.Index(i).String())
		}

		return strings.Join(items, ",")
	default:
		return ""
	}
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}

	return name
}

// labelFor turns "postalCode" into "Postal Code".
func labelFor(name string) string {
	var b strings.Builder

	for i, r := range name {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))

			continue
		}

		if unicode.IsUpper(r) {
			b.WriteRune(' ')
		}

		b.WriteRune(r)
	}

	return b.String()
}
