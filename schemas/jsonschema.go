package schemas

import "github.com/tidwall/gjson"

// JSONSchemaType is the type tag of a JSON schema node. Tags are exact
// lowercase matches; anything else fails decoding.
type JSONSchemaType string

const (
	JSONSchemaTypeObject  JSONSchemaType = "object"
	JSONSchemaTypeNumber  JSONSchemaType = "number"
	JSONSchemaTypeString  JSONSchemaType = "string"
	JSONSchemaTypeArray   JSONSchemaType = "array"
	JSONSchemaTypeNull    JSONSchemaType = "null"
	JSONSchemaTypeBoolean JSONSchemaType = "boolean"
)

// maxSchemaDepth bounds recursive schema decoding. Well-formed schemas are
// tree-shaped, but a hostile document could claim arbitrary nesting and blow
// the stack without a ceiling.
const maxSchemaDepth = 64

func validJSONSchemaType(t JSONSchemaType) bool {
	switch t {
	case JSONSchemaTypeObject, JSONSchemaTypeNumber, JSONSchemaTypeString,
		JSONSchemaTypeArray, JSONSchemaTypeNull, JSONSchemaTypeBoolean:
		return true
	}
	return false
}

// JSONSchema describes one node of a JSON-Schema-like tree used for
// function/tool parameters. Properties and Items recurse into the same type.
// Items is only meaningful for array nodes, Properties/Required only for
// object nodes; the model preserves whatever the caller supplies and leaves
// that cross-field rule to them.
type JSONSchema struct {
	Type        JSONSchemaType         `json:"type"`
	Description *string                `json:"description,omitempty"`
	EnumValues  []string               `json:"enum_values,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *JSONSchema            `json:"items,omitempty"`
}

// MarshalJSON implements custom JSON marshalling for JSONSchema.
// Properties entries are emitted in ascending key order regardless of
// insertion order, so structurally identical schemas always encode to
// identical bytes. Unset optionals are omitted, never emitted as null.
// A node whose type tag is unset or not one of the six known tags fails
// before any bytes are produced.
func (s JSONSchema) MarshalJSON() ([]byte, error) {
	if !validJSONSchemaType(s.Type) {
		return nil, errTypeMismatch("type",
			`"object", "number", "string", "array", "null" or "boolean"`, string(s.Type))
	}
	type alias JSONSchema
	return canonicalJSON.Marshal(alias(s))
}

// UnmarshalJSON implements custom JSON unmarshalling for JSONSchema.
// The "type" key is required; all other keys are optional and absence leaves
// the corresponding field unset rather than defaulted to an empty collection.
func (s *JSONSchema) UnmarshalJSON(data []byte) error {
	decoded, err := decodeSchema("", gjson.ParseBytes(data), 0)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}

func decodeSchema(path string, v gjson.Result, depth int) (*JSONSchema, error) {
	if depth > maxSchemaDepth {
		return nil, errDepthExceeded(path, maxSchemaDepth)
	}
	if !v.IsObject() {
		return nil, errUnexpectedShape(path, "object", jsonKind(v))
	}

	tag := v.Get("type")
	if !tag.Exists() {
		return nil, errMissingField(joinPath(path, "type"))
	}
	if tag.Type != gjson.String {
		return nil, errTypeMismatch(joinPath(path, "type"), "string", jsonKind(tag))
	}
	if !validJSONSchemaType(JSONSchemaType(tag.Str)) {
		return nil, errUnknownVariant(joinPath(path, "type"),
			`"object", "number", "string", "array", "null" or "boolean"`, tag.Str)
	}
	out := &JSONSchema{Type: JSONSchemaType(tag.Str)}

	if desc := v.Get("description"); desc.Exists() {
		if desc.Type != gjson.String {
			return nil, errTypeMismatch(joinPath(path, "description"), "string", jsonKind(desc))
		}
		out.Description = Ptr(desc.Str)
	}

	if enum := v.Get("enum_values"); enum.Exists() {
		values, err := decodeStringArray(joinPath(path, "enum_values"), enum)
		if err != nil {
			return nil, err
		}
		out.EnumValues = values
	}

	if props := v.Get("properties"); props.Exists() {
		propsPath := joinPath(path, "properties")
		if !props.IsObject() {
			return nil, errTypeMismatch(propsPath, "object", jsonKind(props))
		}
		nested := make(map[string]*JSONSchema)
		var nestedErr error
		props.ForEach(func(key, value gjson.Result) bool {
			child, err := decodeSchema(joinPath(propsPath, key.Str), value, depth+1)
			if err != nil {
				nestedErr = err
				return false
			}
			nested[key.Str] = child
			return true
		})
		if nestedErr != nil {
			return nil, nestedErr
		}
		out.Properties = nested
	}

	if req := v.Get("required"); req.Exists() {
		names, err := decodeStringArray(joinPath(path, "required"), req)
		if err != nil {
			return nil, err
		}
		out.Required = names
	}

	if items := v.Get("items"); items.Exists() {
		child, err := decodeSchema(joinPath(path, "items"), items, depth+1)
		if err != nil {
			return nil, err
		}
		out.Items = child
	}

	return out, nil
}

func decodeStringArray(path string, v gjson.Result) ([]string, error) {
	if !v.IsArray() {
		return nil, errTypeMismatch(path, "array of strings", jsonKind(v))
	}
	elems := v.Array()
	values := make([]string, 0, len(elems))
	for i, el := range elems {
		if el.Type != gjson.String {
			return nil, errTypeMismatch(indexPath(path, i), "string", jsonKind(el))
		}
		values = append(values, el.Str)
	}
	return values, nil
}

// FunctionParameters is the typed top-level form of a function's parameter
// schema, for callers that do not need the fully recursive JSONSchema root.
type FunctionParameters struct {
	Type       JSONSchemaType         `json:"type"`
	Properties map[string]*JSONSchema `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`
}

// MarshalJSON keeps FunctionParameters output canonical the same way
// JSONSchema output is.
func (p FunctionParameters) MarshalJSON() ([]byte, error) {
	if !validJSONSchemaType(p.Type) {
		return nil, errTypeMismatch("type",
			`"object", "number", "string", "array", "null" or "boolean"`, string(p.Type))
	}
	type alias FunctionParameters
	return canonicalJSON.Marshal(alias(p))
}
