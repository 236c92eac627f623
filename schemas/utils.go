package schemas

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

// Ptr creates a pointer to any value.
// This is a helper function for creating pointers to values.
func Ptr[T any](v T) *T {
	return &v
}

// Marshal routes all schema serialization through sonic.
func Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// Unmarshal routes all schema deserialization through sonic.
func Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

// canonicalJSON sorts map keys on encode so that structurally identical
// values always produce identical bytes. Callers use the encoded form as a
// cache key, so schema output must be reproducible regardless of map
// insertion order.
var canonicalJSON = sonic.Config{SortMapKeys: true}.Froze()

// jsonKind names the JSON kind of a parsed value for error reporting.
func jsonKind(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "object"
	case v.IsArray():
		return "array"
	}
	switch v.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Null:
		return "null"
	}
	return "unknown"
}

// escapeJSONPath makes a literal object key safe to use as a single
// gjson/sjson path segment. Without escaping, a dot in an extension key
// would nest into a sub-object and wildcards would match unrelated fields.
func escapeJSONPath(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '\\', '.', '*', '?', '|', '#', '@':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// joinPath appends a key to a field path for error reporting.
func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

// indexPath appends an array index to a field path for error reporting.
func indexPath(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}
