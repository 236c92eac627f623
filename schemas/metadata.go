package schemas

import "github.com/google/uuid"

// LoraRequest selects a LoRA adapter for the backend to load. It is a pure
// pass-through record: this layer serializes it and hands it to the backend,
// which owns adapter resolution and loading.
type LoraRequest struct {
	LoraID        string `json:"lora_id"`
	LoraIntID     int    `json:"lora_int_id"`
	LoraLocalPath string `json:"lora_local_path"`
}

// EmpowerMetadata is the backend-specific extension block of a request.
// Every field is opaque to this layer; nothing here is validated or
// interpreted, only carried.
type EmpowerMetadata struct {
	ID          string       `json:"id"`
	LoraRequest *LoraRequest `json:"lora_request,omitempty"`

	UseBeamSearch *bool `json:"use_beam_search,omitempty"`
	BestOf        *int  `json:"best_of,omitempty"`

	ToolsOnly    *bool `json:"tools_only,omitempty"`
	ToolsEnabled *bool `json:"tools_enabled,omitempty"`

	ConversationJSONSchema  *string `json:"conversation_json_schema,omitempty"`
	ToolsJSONSchema         *string `json:"tools_json_schema,omitempty"`
	NumCachedPrefixMessages *int    `json:"num_cached_prefix_messages,omitempty"`

	// Debug flags
	Logprobs         *int `json:"logprobs,omitempty"`
	IgnoreEOS        bool `json:"ignore_eos"`
	SkipChatTemplate bool `json:"skip_chat_template"`
}

// NewEmpowerMetadata builds a metadata block with a fresh request ID.
func NewEmpowerMetadata() *EmpowerMetadata {
	return &EmpowerMetadata{ID: uuid.NewString()}
}
