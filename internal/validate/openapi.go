package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
)

// Operation is one POST endpoint whose request body is a schema definition.
type Operation struct {
	Path       string
	Summary    string
	Definition string
}

// maxSchemaDepth stops inlining of nested records.
const maxSchemaDepth = 8

// OpenAPI renders an OpenAPI 3.1 document for ops. Every definition an
// operation names becomes a component schema.
func (v *Validator) OpenAPI(title, version string, ops []Operation) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	info := newOrderedMap()
	info.Set("title", title)
	info.Set("version", version)

	schemas := newOrderedMap()
	paths := newOrderedMap()
	for _, op := range ops {
		def := v.schema.LookupPath(cue.ParsePath(op.Definition))
		if !def.Exists() {
			return nil, fmt.Errorf("unknown schema definition %q", op.Definition)
		}
		name := strings.TrimPrefix(op.Definition, "#")
		schemas.Set(name, valueSchema(def, 0))

		ref := map[string]any{"$ref": "#/components/schemas/" + name}
		post := newOrderedMap()
		post.Set("summary", op.Summary)
		post.Set("operationId", operationID(op.Path))
		post.Set("requestBody", map[string]any{
			"required": true,
			"content":  map[string]any{"application/json": map[string]any{"schema": ref}},
		})
		post.Set("responses", map[string]any{
			"200": map[string]any{"description": "Analysis result"},
			"400": map[string]any{"description": "Request failed validation"},
			"500": map[string]any{"description": "Analysis failed"},
		})
		paths.Set(op.Path, map[string]any{"post": post})
	}

	doc := newOrderedMap()
	doc.Set("openapi", "3.1.0")
	doc.Set("info", info)
	doc.Set("paths", paths)
	doc.Set("components", map[string]any{"schemas": schemas})

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding openapi document: %w", err)
	}
	return out, nil
}

// valueSchema maps a CUE value onto a JSON schema object.
func valueSchema(val cue.Value, depth int) *orderedMap {
	s := newOrderedMap()
	kind := val.IncompleteKind()
	nullable := kind&cue.NullKind != 0 && kind != cue.NullKind
	val = nonNull(val)
	kind &^= cue.NullKind

	var typ string
	switch {
	case kind&cue.StringKind != 0 && kind&^(cue.StringKind|cue.BytesKind) == 0:
		typ = "string"
		if enum := enumValues(val); len(enum) > 0 {
			s.Set("enum", enum)
		}
		if p := pattern(val); p != "" {
			s.Set("pattern", p)
		}
		if nonEmpty(val) {
			s.Set("minLength", 1)
		}
	case kind == cue.IntKind:
		typ = "integer"
	case kind&cue.NumberKind != 0 && kind&^cue.NumberKind == 0:
		typ = "number"
	case kind == cue.BoolKind:
		typ = "boolean"
	case kind == cue.ListKind:
		typ = "array"
		if elem := val.LookupPath(cue.MakePath(cue.AnyIndex)); elem.Exists() && depth < maxSchemaDepth {
			s.Set("items", valueSchema(elem, depth+1))
		}
	case kind == cue.StructKind:
		typ = "object"
		if depth < maxSchemaDepth {
			structSchema(s, val, depth)
		}
	}

	switch {
	case typ == "":
	case nullable:
		s.Set("type", []string{typ, "null"})
	default:
		s.Set("type", typ)
	}
	return s
}

func structSchema(s *orderedMap, val cue.Value, depth int) {
	props := newOrderedMap()
	var required []string
	it, err := val.Fields(cue.Optional(true))
	if err == nil {
		for it.Next() {
			sel := it.Selector()
			name := strings.TrimRight(sel.String(), "?!")
			props.Set(name, valueSchema(it.Value(), depth+1))
			if sel.ConstraintType() != cue.OptionalConstraint {
				required = append(required, name)
			}
		}
	}
	if len(props.keys) > 0 {
		s.Set("properties", props)
	}
	if len(required) > 0 {
		s.Set("required", required)
	}
	if ap := val.LookupPath(cue.MakePath(cue.AnyString)); ap.Exists() && len(props.keys) == 0 {
		s.Set("additionalProperties", valueSchema(ap, depth+1))
	}
}

// nonNull strips a null branch from a two-way disjunction.
func nonNull(val cue.Value) cue.Value {
	op, args := val.Expr()
	if op != cue.OrOp {
		return val
	}
	var keep []cue.Value
	for _, a := range args {
		if a.IncompleteKind() != cue.NullKind {
			keep = append(keep, a)
		}
	}
	if len(keep) == 1 && len(keep) < len(args) {
		return keep[0]
	}
	return val
}

// enumValues returns the members of a disjunction of string literals.
func enumValues(val cue.Value) []string {
	op, args := val.Expr()
	if op != cue.OrOp {
		return nil
	}
	var values []string
	for _, a := range args {
		str, err := a.String()
		if err != nil {
			return nil
		}
		values = append(values, str)
	}
	return values
}

// pattern returns the regular expression of a =~ constraint.
func pattern(val cue.Value) string {
	op, args := val.Expr()
	switch {
	case op == cue.AndOp:
		for _, a := range args {
			if p := pattern(a); p != "" {
				return p
			}
		}
	case op == cue.RegexMatchOp && len(args) >= 2:
		if p, err := args[1].String(); err == nil {
			return p
		}
	}
	return ""
}

// nonEmpty reports a != "" constraint.
func nonEmpty(val cue.Value) bool {
	op, args := val.Expr()
	switch {
	case op == cue.AndOp:
		for _, a := range args {
			if nonEmpty(a) {
				return true
			}
		}
	case op == cue.NotEqualOp && len(args) >= 2:
		if str, err := args[1].String(); err == nil && str == "" {
			return true
		}
	}
	return false
}

// operationID turns "/v1/lease-risk/analyze" into "analyzeLeaseRisk".
func operationID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return strings.ReplaceAll(path, "/", "")
	}
	var b strings.Builder
	b.WriteString(parts[len(parts)-1])
	for _, word := range strings.Split(parts[len(parts)-2], "-") {
		if word == "" {
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]) + word[1:])
	}
	return b.String()
}

// orderedMap marshals its keys in insertion order.
type orderedMap struct {
	keys   []string
	values map[string]any
}

func newOrderedMap() *orderedMap {
	return &orderedMap{values: make(map[string]any)}
}

func (om *orderedMap) Set(key string, value any) {
	if _, ok := om.values[key]; !ok {
		om.keys = append(om.keys, key)
	}
	om.values[key] = value
}

func (om *orderedMap) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, key := range om.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(om.values[key])
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
