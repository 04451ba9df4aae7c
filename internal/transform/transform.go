package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/gjson"

	"github.com/stacklok/oparl-sync/internal/sources"
	"github.com/stacklok/oparl-sync/internal/syncerr"
)

// maxDepth bounds the nesting of embedded objects
const maxDepth = 4

// Transformer converts raw records into normalized entities
type Transformer interface {
	Transform(raw sources.RawRecord, kind Kind) (*Entity, error)
}

// DefaultTransformer validates records against the structural schema of
// their kind and normalizes the known fields
type DefaultTransformer struct {
	schemas schemaSet
}

var _ Transformer = (*DefaultTransformer)(nil)

// New compiles the schemas and returns a transformer
func New() (*DefaultTransformer, error) {
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &DefaultTransformer{schemas: schemas}, nil
}

// Transform normalizes raw as an entity of the given kind. Errors are
// *syncerr.TransformError.
func (t *DefaultTransformer) Transform(raw sources.RawRecord, kind Kind) (*Entity, error) {
	return t.transform(gjson.ParseBytes(raw), kind, 0)
}

func (t *DefaultTransformer) transform(rec gjson.Result, kind Kind, depth int) (*Entity, error) {
	id := strings.TrimSpace(rec.Get("id").String())
	fail := func(code syncerr.Code, format string, args ...any) error {
		return &syncerr.TransformError{
			ExternalID: id,
			Kind:       string(kind),
			Code:       code,
			Reason:     fmt.Sprintf(format, args...),
		}
	}

	if !kind.Valid() {
		return nil, fail(syncerr.CodeSchemaFailed, "unknown kind %q", kind)
	}
	if !rec.IsObject() {
		return nil, fail(syncerr.CodeMalformedResponse, "record is not a JSON object")
	}
	if id == "" {
		return nil, fail(syncerr.CodeSchemaFailed, "record has no id")
	}
	if depth > maxDepth {
		return nil, fail(syncerr.CodeSchemaFailed, "embedded objects nested deeper than %d", maxDepth)
	}

	if typeURL := rec.Get("type").String(); typeURL != "" {
		actual, ok := KindFromType(typeURL)
		if !ok {
			return nil, fail(syncerr.CodeSchemaFailed, "unknown type %s", typeURL)
		}
		if actual != kind {
			return nil, fail(syncerr.CodeSchemaFailed, "type %s does not match expected kind %s", typeURL, kind)
		}
	}

	e := &Entity{
		ExternalID: id,
		Kind:       kind,
		Deleted:    rec.Get("deleted").Bool(),
		Payload:    make(map[string]any),
	}
	if m := rec.Get("modified"); m.Exists() && m.Type == gjson.String {
		if at, ok := parseTimestamp(m.Str); ok {
			e.Modified = at
		}
	}

	// deleted records carry no content worth validating
	if e.Deleted {
		return e, nil
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(rec.Raw)))
	if err != nil {
		return nil, fail(syncerr.CodeMalformedResponse, "invalid JSON: %v", err)
	}
	if err := t.schemas[kind].Validate(inst); err != nil {
		return nil, fail(syncerr.CodeSchemaFailed, "%s", validationReason(err))
	}

	var fieldErr error
	rec.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if metaFields[name] {
			return true
		}
		spec, known := lookupField(kind, name)
		if !known {
			if e.Extra == nil {
				e.Extra = make(map[string]json.RawMessage)
			}
			e.Extra[name] = json.RawMessage(value.Raw)
			return true
		}
		if err := t.normalizeField(e, name, spec, value, depth); err != nil {
			fieldErr = fail(syncerr.CodeSchemaFailed, "field %s: %v", name, err)
			return false
		}
		return true
	})
	if fieldErr != nil {
		return nil, fieldErr
	}

	sort.Slice(e.References, func(i, j int) bool {
		if e.References[i].Field != e.References[j].Field {
			return e.References[i].Field < e.References[j].Field
		}
		return e.References[i].Target < e.References[j].Target
	})

	e.Name = displayName(kind, e.Payload)

	fp, err := Fingerprint(e.Payload)
	if err != nil {
		return nil, fail(syncerr.CodeSchemaFailed, "%v", err)
	}
	e.Fingerprint = fp
	return e, nil
}

func (t *DefaultTransformer) normalizeField(e *Entity, name string, spec fieldSpec, v gjson.Result, depth int) error {
	if v.Type == gjson.Null {
		return nil
	}

	switch spec.class {
	case classString:
		if s := strings.TrimSpace(v.String()); s != "" {
			e.Payload[name] = s
		}
	case classTime:
		at, ok := parseTimestamp(v.String())
		if !ok {
			return fmt.Errorf("invalid timestamp %q", v.String())
		}
		e.Payload[name] = at.UTC().Format(time.RFC3339)
	case classDate:
		at, ok := parseTimestamp(v.String())
		if !ok {
			return fmt.Errorf("invalid date %q", v.String())
		}
		e.Payload[name] = at.Format(time.DateOnly)
	case classBool:
		e.Payload[name] = v.Bool()
	case classInt:
		if v.Num != math.Trunc(v.Num) {
			return fmt.Errorf("not an integer: %s", v.Raw)
		}
		e.Payload[name] = v.Int()
	case classStringList:
		var items []string
		for _, item := range v.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				items = append(items, s)
			}
		}
		if len(items) > 0 {
			e.Payload[name] = items
		}
	case classObject:
		var decoded any
		if err := json.Unmarshal([]byte(v.Raw), &decoded); err != nil {
			return err
		}
		e.Payload[name] = decoded
	case classRef:
		if target := refTarget(v); target != "" {
			e.Payload[name] = target
			e.References = append(e.References, Reference{Field: name, Target: target})
		}
	case classRefList:
		targets := make([]string, 0, len(v.Array()))
		for _, item := range v.Array() {
			if target := refTarget(item); target != "" {
				targets = append(targets, target)
				e.References = append(e.References, Reference{Field: name, Target: target})
			}
		}
		if len(targets) > 0 {
			e.Payload[name] = targets
		}
	case classEmbedded:
		target, err := t.embed(e, name, spec.child, v, depth)
		if err != nil {
			return err
		}
		if target != "" {
			e.Payload[name] = target
		}
	case classEmbeddedList:
		targets := make([]string, 0, len(v.Array()))
		for _, item := range v.Array() {
			target, err := t.embed(e, name, spec.child, item, depth)
			if err != nil {
				return err
			}
			if target != "" {
				targets = append(targets, target)
			}
		}
		if len(targets) > 0 {
			e.Payload[name] = targets
		}
	}
	return nil
}

// embed turns an embedded object into a child entity and returns its id. A
// plain URL is kept as a reference only.
func (t *DefaultTransformer) embed(parent *Entity, field string, kind Kind, v gjson.Result, depth int) (string, error) {
	if !v.IsObject() {
		target := strings.TrimSpace(v.String())
		if target != "" {
			parent.References = append(parent.References, Reference{Field: field, Target: target})
		}
		return target, nil
	}

	child, err := t.transform(v, kind, depth+1)
	if err != nil {
		return "", err
	}
	parent.Children = append(parent.Children, child)
	parent.References = append(parent.References, Reference{Field: field, Target: child.ExternalID})
	return child.ExternalID, nil
}

func refTarget(v gjson.Result) string {
	if v.IsObject() {
		return strings.TrimSpace(v.Get("id").String())
	}
	return strings.TrimSpace(v.String())
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if at, err := time.Parse(layout, value); err == nil {
			return at, true
		}
	}
	return time.Time{}, false
}

func displayName(kind Kind, payload map[string]any) string {
	get := func(field string) string {
		s, _ := payload[field].(string)
		return s
	}

	if n := get("name"); n != "" {
		return n
	}
	switch kind {
	case KindPerson:
		return strings.TrimSpace(get("givenName") + " " + get("familyName"))
	case KindFile:
		return get("fileName")
	case KindPaper:
		return get("reference")
	case KindConsultation, KindMembership:
		return get("role")
	case KindLocation:
		if d := get("description"); d != "" {
			return d
		}
		return strings.TrimSpace(get("streetAddress") + " " + get("locality"))
	case KindAgendaItem:
		return get("number")
	}
	return ""
}
