package transform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaBaseURL = "https://oparl-sync.invalid/schema/"

// schemaSet holds one compiled structural schema per kind
type schemaSet map[Kind]*jsonschema.Schema

// compileSchemas builds and compiles the structural schema of every kind.
// The schemas only check shapes: id present, known fields of the right JSON
// type. Nullable fields are accepted and treated as absent.
func compileSchemas() (schemaSet, error) {
	c := jsonschema.NewCompiler()

	for _, k := range Kinds {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaDocument(k)))
		if err != nil {
			return nil, fmt.Errorf("failed to decode schema for %s: %w", k, err)
		}
		if err := c.AddResource(schemaURL(k), doc); err != nil {
			return nil, fmt.Errorf("failed to add schema for %s: %w", k, err)
		}
	}

	set := make(schemaSet, len(Kinds))
	for _, k := range Kinds {
		sch, err := c.Compile(schemaURL(k))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for %s: %w", k, err)
		}
		set[k] = sch
	}
	return set, nil
}

func schemaURL(k Kind) string {
	return schemaBaseURL + strings.ToLower(string(k)) + ".json"
}

func schemaDocument(k Kind) []byte {
	props := map[string]any{
		"id":       map[string]any{"type": "string", "pattern": `\S`},
		"type":     map[string]any{"type": "string"},
		"created":  nullable("string"),
		"modified": nullable("string"),
		"deleted":  nullable("boolean"),
	}
	for name, spec := range commonFields {
		props[name] = fieldSchema(spec)
	}
	for name, spec := range fieldTables[k] {
		props[name] = fieldSchema(spec)
	}

	doc := map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"$id":        schemaURL(k),
		"title":      string(k),
		"type":       "object",
		"required":   []string{"id"},
		"properties": props,
	}
	data, _ := json.Marshal(doc)
	return data
}

func nullable(types ...string) map[string]any {
	all := append(append([]string{}, types...), "null")
	sort.Strings(all)
	return map[string]any{"type": all}
}

func fieldSchema(spec fieldSpec) map[string]any {
	switch spec.class {
	case classString, classTime, classDate:
		return nullable("string")
	case classBool:
		return nullable("boolean")
	case classInt:
		return nullable("integer")
	case classObject:
		return nullable("object", "array")
	case classStringList:
		s := nullable("array")
		s["items"] = map[string]any{"type": "string"}
		return s
	case classRef, classEmbedded:
		return nullable("object", "string")
	case classRefList, classEmbeddedList:
		s := nullable("array")
		s["items"] = map[string]any{"type": []string{"object", "string"}}
		return s
	default:
		return map[string]any{}
	}
}

// validationReason condenses a validation error into a single line
func validationReason(err error) string {
	msg := err.Error()
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		for len(ve.Causes) == 1 {
			ve = ve.Causes[0]
		}
		msg = ve.Error()
	}
	return strings.Join(strings.Fields(msg), " ")
}
