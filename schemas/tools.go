package schemas

import "github.com/tidwall/gjson"

// ToolType is the kind of a tool declaration. The API currently defines only
// function tools.
type ToolType string

const (
	ToolTypeFunction ToolType = "function"
)

// Function describes an invocable function the model may choose to call.
// Parameters is an opaque JSON value: callers that want compile-time
// structure supply a JSONSchema here, but any valid JSON object is accepted.
type Function struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Parameters  any     `json:"parameters"`
}

// Tool pairs a tool kind with its function declaration.
type Tool struct {
	Type     ToolType `json:"type"`
	Function Function `json:"function"`
}

// ToolCall represents a tool call emitted by the model in a message.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the function name and stringified JSON arguments
// of a tool call. Arguments may not always be valid JSON.
type ToolCallFunction struct {
	Name      *string `json:"name,omitempty"`
	Arguments *string `json:"arguments,omitempty"`
}

// ToolChoiceMode is one of the bare-string tool_choice values.
type ToolChoiceMode string

const (
	ToolChoiceModeNone ToolChoiceMode = "none"
	ToolChoiceModeAuto ToolChoiceMode = "auto"
	ToolChoiceModeAny  ToolChoiceMode = "any"
)

// ToolChoice instructs the backend whether and how to force tool invocation.
// Either Mode or Tool is set, never both: the three modes serialize as the
// bare strings "none", "auto" and "any", while a selected Tool serializes as
// an object. At the request level the field is a pointer and is omitted
// entirely when absent, never emitted as null.
type ToolChoice struct {
	Mode ToolChoiceMode
	Tool *Tool
}

// MarshalJSON implements custom JSON marshalling for ToolChoice.
// A selected tool flattens one level on the wire: the object carries the
// tool's type and function directly, with no nested "tool" key. This matches
// the shape the external API expects.
func (tc ToolChoice) MarshalJSON() ([]byte, error) {
	if tc.Tool != nil {
		if tc.Mode != "" {
			return nil, errTypeMismatch("tool_choice", "exactly one of Mode or Tool set", "both set")
		}
		return Marshal(struct {
			Type     ToolType `json:"type"`
			Function Function `json:"function"`
		}{Type: tc.Tool.Type, Function: tc.Tool.Function})
	}
	switch tc.Mode {
	case ToolChoiceModeNone, ToolChoiceModeAuto, ToolChoiceModeAny:
		return Marshal(string(tc.Mode))
	case "":
		return nil, errTypeMismatch("tool_choice", "exactly one of Mode or Tool set", "neither set")
	default:
		return nil, errTypeMismatch("tool_choice", `"none", "auto" or "any"`, string(tc.Mode))
	}
}

// UnmarshalJSON implements custom JSON unmarshalling for ToolChoice.
// Bare strings are matched exactly against the three modes; an object must
// carry both "type" and "function" keys and reconstructs a selected tool.
func (tc *ToolChoice) UnmarshalJSON(data []byte) error {
	v := gjson.ParseBytes(data)
	switch {
	case v.Type == gjson.String:
		switch mode := ToolChoiceMode(v.Str); mode {
		case ToolChoiceModeNone, ToolChoiceModeAuto, ToolChoiceModeAny:
			tc.Mode = mode
			tc.Tool = nil
			return nil
		default:
			return errUnknownVariant("tool_choice", `"none", "auto" or "any"`, v.Str)
		}
	case v.IsObject():
		tag := v.Get("type")
		if !tag.Exists() {
			return errMissingField("tool_choice.type")
		}
		if tag.Type != gjson.String {
			return errTypeMismatch("tool_choice.type", "string", jsonKind(tag))
		}
		fn := v.Get("function")
		if !fn.Exists() {
			return errMissingField("tool_choice.function")
		}
		if !fn.IsObject() {
			return errTypeMismatch("tool_choice.function", "object", jsonKind(fn))
		}
		var tool Tool
		if err := Unmarshal(data, &tool); err != nil {
			return err
		}
		tc.Mode = ""
		tc.Tool = &tool
		return nil
	default:
		return errUnexpectedShape("tool_choice", "string or object", jsonKind(v))
	}
}
