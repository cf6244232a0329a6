package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/dukex/roster/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// BodyField is the key used for failures that concern the document as a whole.
const BodyField = "_body"

var (
	schemasOnce sync.Once
	schemas     map[models.StepKey]map[string]any
)

// Schema returns the structural JSON schema accepted for raw payloads of step.
// It only constrains property names and types; content rules live in Registry.
func Schema(step models.StepKey) (map[string]any, error) {
	schemasOnce.Do(func() {
		schemas = make(map[models.StepKey]map[string]any, len(models.StepOrder))

		for _, key := range models.StepOrder {
			payload, err := models.NewPayload(key)
			if err != nil {
				continue
			}

			schemas[key] = objectSchema(reflect.TypeOf(payload).Elem())
		}
	})

	schema, ok := schemas[step]
	if !ok {
		return nil, fmt.Errorf("unknown wizard step %q", step)
	}

	return schema, nil
}

// ValidateRaw checks a raw JSON document against the schema of step before it
// is decoded into the step payload.
func ValidateRaw(step models.StepKey, raw []byte) Result {
	var result Result

	schema, err := Schema(step)
	if err != nil {
		result.Add("step", err.Error())

		return result
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewBytesLoader(raw)

	res, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		result.Add(BodyField, "must be a JSON object: "+err.Error())

		return result
	}

	for _, e := range res.Errors() {
		field := e.Field()
		if e.Type() == "additional_property_not_allowed" {
			if property, ok := e.Details()["property"].(string); ok {
				field = property
			}
		}

		if field == gojsonschema.STRING_CONTEXT_ROOT || field == "" {
			field = BodyField
		}

		result.Add(field, e.Description())
	}

	return result
}

func objectSchema(t reflect.Type) map[string]any {
	properties := make(map[string]any, t.NumField())

	for i := range t.NumField() {
		f := t.Field(i)

		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		properties[name] = map[string]any{"type": jsonType(f.Type)}

		if f.Type.Kind() == reflect.Slice {
			properties[name].(map[string]any)["items"] = map[string]any{"type": jsonType(f.Type.Elem())}
		}
	}

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}

func jsonType(t reflect.Type) any {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int64:
		return "integer"
	case reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice:
		return []any{"array", "null"}
	case reflect.Pointer:
		return []any{jsonType(t.Elem()), "null"}
	default:
		return "object"
	}
}
