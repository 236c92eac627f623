package schemas

import (
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ChatMessageRole is the role of a chat message sender.
type ChatMessageRole string

const (
	ChatMessageRoleUser      ChatMessageRole = "user"
	ChatMessageRoleSystem    ChatMessageRole = "system"
	ChatMessageRoleAssistant ChatMessageRole = "assistant"
	ChatMessageRoleFunction  ChatMessageRole = "function"
	ChatMessageRoleTool      ChatMessageRole = "tool"
)

func validChatMessageRole(role string) bool {
	switch ChatMessageRole(role) {
	case ChatMessageRoleUser, ChatMessageRoleSystem, ChatMessageRoleAssistant,
		ChatMessageRoleFunction, ChatMessageRoleTool:
		return true
	}
	return false
}

// ChatCompletionMessage is one message of a conversation. Content is emitted
// as null when nil; tool fields are omitted when unset.
type ChatCompletionMessage struct {
	Role       ChatMessageRole `json:"role"`
	Content    *ChatContent    `json:"content"`
	ToolCalls  *[]ToolCall     `json:"tool_calls,omitempty"`
	ToolCallID *string         `json:"tool_call_id,omitempty"`
}

// UnmarshalJSON implements custom JSON unmarshalling for ChatCompletionMessage.
// The role is required and must be one of the known roles.
func (m *ChatCompletionMessage) UnmarshalJSON(data []byte) error {
	v := gjson.ParseBytes(data)
	if !v.IsObject() {
		return errUnexpectedShape("message", "object", jsonKind(v))
	}
	role := v.Get("role")
	if !role.Exists() {
		return errMissingField("message.role")
	}
	if role.Type != gjson.String {
		return errTypeMismatch("message.role", "string", jsonKind(role))
	}
	if !validChatMessageRole(role.Str) {
		return errUnknownVariant("message.role",
			`"user", "system", "assistant", "function" or "tool"`, role.Str)
	}
	type alias ChatCompletionMessage
	var a alias
	if err := Unmarshal(data, &a); err != nil {
		return err
	}
	*m = ChatCompletionMessage(a)
	return nil
}

// ChatCompletionRequest is the full request envelope for a chat completion.
// Model and Messages are always emitted, even when Messages is empty; every
// other field is omitted entirely when unset, never emitted as null.
// Semantic rules (a selected tool_choice requiring non-empty tools, a
// non-empty conversation, and so on) are a caller concern, not this layer's.
type ChatCompletionRequest struct {
	Model                       string                  `json:"model"`
	Messages                    []ChatCompletionMessage `json:"messages"`
	Temperature                 *float64                `json:"temperature,omitempty"`
	TopP                        *float64                `json:"top_p,omitempty"`
	N                           *int                    `json:"n,omitempty"`
	ResponseFormat              any                     `json:"response_format,omitempty"`
	Stream                      *bool                   `json:"stream,omitempty"`
	Stop                        *[]string               `json:"stop,omitempty"`
	MaxTokens                   *int                    `json:"max_tokens,omitempty"`
	PresencePenalty             *float64                `json:"presence_penalty,omitempty"`
	FrequencyPenalty            *float64                `json:"frequency_penalty,omitempty"`
	LogitBias                   *map[string]int         `json:"logit_bias,omitempty"`
	User                        *string                 `json:"user,omitempty"`
	Seed                        *int                    `json:"seed,omitempty"`
	Tools                       *[]Tool                 `json:"tools,omitempty"`
	ToolChoice                  *ToolChoice             `json:"tool_choice,omitempty"`
	PrettifyTools               *bool                   `json:"prettify_tools,omitempty"`
	StructureOutputDecodingMode *string                 `json:"structure_output_decoding_mode,omitempty"`
	UseRawOutput                *bool                   `json:"use_raw_output,omitempty"`
	IncludeThinking             *bool                   `json:"include_thinking,omitempty"`
	EmpowerMetadata             *EmpowerMetadata        `json:"empower_metadata,omitempty"`

	// ExtraParams are backend-specific parameters merged into the encoded
	// body. Typed fields win on key conflicts.
	ExtraParams map[string]any `json:"-"`
}

// NewChatCompletionRequest builds a request with the two required fields set.
func NewChatCompletionRequest(model string, messages []ChatCompletionMessage) *ChatCompletionRequest {
	if messages == nil {
		messages = []ChatCompletionMessage{}
	}
	return &ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
}

// MarshalJSON implements custom JSON marshalling for ChatCompletionRequest.
// A nil Messages slice still encodes as an empty array. Map-typed fields
// (logit_bias) are emitted with sorted keys and ExtraParams are injected in
// sorted key order, so encoding the same request always yields the same bytes.
func (r ChatCompletionRequest) MarshalJSON() ([]byte, error) {
	type alias ChatCompletionRequest
	a := alias(r)
	if a.Messages == nil {
		a.Messages = []ChatCompletionMessage{}
	}
	out, err := canonicalJSON.Marshal(a)
	if err != nil || len(r.ExtraParams) == 0 {
		return out, err
	}

	keys := make([]string, 0, len(r.ExtraParams))
	for key := range r.ExtraParams {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		path := escapeJSONPath(key)
		// Typed fields already present in the body are never overwritten.
		if gjson.GetBytes(out, path).Exists() {
			continue
		}
		out, err = sjson.SetBytes(out, path, r.ExtraParams[key])
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WithTemperature sets the sampling temperature.
func (r *ChatCompletionRequest) WithTemperature(v float64) *ChatCompletionRequest {
	r.Temperature = &v
	return r
}

// WithTopP sets the nucleus sampling probability mass.
func (r *ChatCompletionRequest) WithTopP(v float64) *ChatCompletionRequest {
	r.TopP = &v
	return r
}

// WithN sets the number of choices to generate.
func (r *ChatCompletionRequest) WithN(v int) *ChatCompletionRequest {
	r.N = &v
	return r
}

// WithResponseFormat sets the response format value.
func (r *ChatCompletionRequest) WithResponseFormat(v any) *ChatCompletionRequest {
	r.ResponseFormat = v
	return r
}

// WithStream sets the streaming flag.
func (r *ChatCompletionRequest) WithStream(v bool) *ChatCompletionRequest {
	r.Stream = &v
	return r
}

// WithStop sets the stop sequences.
func (r *ChatCompletionRequest) WithStop(v []string) *ChatCompletionRequest {
	r.Stop = &v
	return r
}

// WithMaxTokens sets the completion token limit.
func (r *ChatCompletionRequest) WithMaxTokens(v int) *ChatCompletionRequest {
	r.MaxTokens = &v
	return r
}

// WithPresencePenalty sets the presence penalty.
func (r *ChatCompletionRequest) WithPresencePenalty(v float64) *ChatCompletionRequest {
	r.PresencePenalty = &v
	return r
}

// WithFrequencyPenalty sets the frequency penalty.
func (r *ChatCompletionRequest) WithFrequencyPenalty(v float64) *ChatCompletionRequest {
	r.FrequencyPenalty = &v
	return r
}

// WithLogitBias sets the logit bias mapping.
func (r *ChatCompletionRequest) WithLogitBias(v map[string]int) *ChatCompletionRequest {
	r.LogitBias = &v
	return r
}

// WithUser sets the end-user tag.
func (r *ChatCompletionRequest) WithUser(v string) *ChatCompletionRequest {
	r.User = &v
	return r
}

// WithSeed sets the sampling seed.
func (r *ChatCompletionRequest) WithSeed(v int) *ChatCompletionRequest {
	r.Seed = &v
	return r
}

// WithTools sets the tool declarations.
func (r *ChatCompletionRequest) WithTools(v []Tool) *ChatCompletionRequest {
	r.Tools = &v
	return r
}

// WithToolChoice sets the tool_choice control value.
func (r *ChatCompletionRequest) WithToolChoice(v ToolChoice) *ChatCompletionRequest {
	r.ToolChoice = &v
	return r
}

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// FinishReason is the terminal-state tag explaining why generation stopped.
// The literal "null" tag is a distinct fifth value on the wire and is never
// conflated with JSON null or field absence.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonNull          FinishReason = "null"
)

func validFinishReason(reason string) bool {
	switch FinishReason(reason) {
	case FinishReasonStop, FinishReasonLength, FinishReasonContentFilter,
		FinishReasonToolCalls, FinishReasonNull:
		return true
	}
	return false
}

// FinishDetails carries the finish reason plus the stop sequence that ended
// generation.
type FinishDetails struct {
	Type FinishReason `json:"type"`
	Stop string       `json:"stop"`
}

// ChatCompletionMessageForResponse is the message shape returned inside a
// choice. Unlike request messages its content is always a plain string.
type ChatCompletionMessageForResponse struct {
	Role         ChatMessageRole   `json:"role"`
	Content      *string           `json:"content,omitempty"`
	Name         *string           `json:"name,omitempty"`
	FunctionCall *ToolCallFunction `json:"function_call,omitempty"`
	ToolCalls    *[]ToolCall       `json:"tool_calls,omitempty"`
}

// ChatCompletionChoice is one generated completion.
type ChatCompletionChoice struct {
	Index         int                              `json:"index"`
	Message       ChatCompletionMessageForResponse `json:"message"`
	FinishReason  *FinishReason                    `json:"finish_reason"`
	FinishDetails *FinishDetails                   `json:"finish_details"`
}

// ChatCompletionResponse is the full response envelope. Decode is
// whole-document; streaming chunks are out of scope.
type ChatCompletionResponse struct {
	ID                string                 `json:"id"`
	Model             string                 `json:"model"`
	Choices           []ChatCompletionChoice `json:"choices"`
	Usage             Usage                  `json:"usage"`
	SystemFingerprint *string                `json:"system_fingerprint"`
}

// UnmarshalJSON implements custom JSON unmarshalling for
// ChatCompletionResponse. id, model, choices and usage are required; absence
// fails with the offending field path.
func (r *ChatCompletionResponse) UnmarshalJSON(data []byte) error {
	v := gjson.ParseBytes(data)
	if !v.IsObject() {
		return errUnexpectedShape("response", "object", jsonKind(v))
	}

	id := v.Get("id")
	if !id.Exists() {
		return errMissingField("id")
	}
	if id.Type != gjson.String {
		return errTypeMismatch("id", "string", jsonKind(id))
	}
	model := v.Get("model")
	if !model.Exists() {
		return errMissingField("model")
	}
	if model.Type != gjson.String {
		return errTypeMismatch("model", "string", jsonKind(model))
	}
	rawChoices := v.Get("choices")
	if !rawChoices.Exists() {
		return errMissingField("choices")
	}
	if !rawChoices.IsArray() {
		return errTypeMismatch("choices", "array", jsonKind(rawChoices))
	}
	rawUsage := v.Get("usage")
	if !rawUsage.Exists() {
		return errMissingField("usage")
	}
	if !rawUsage.IsObject() {
		return errTypeMismatch("usage", "object", jsonKind(rawUsage))
	}

	elems := rawChoices.Array()
	choices := make([]ChatCompletionChoice, 0, len(elems))
	for i, el := range elems {
		choice, err := decodeChoice(indexPath("choices", i), el)
		if err != nil {
			return err
		}
		choices = append(choices, choice)
	}

	var usage Usage
	if err := Unmarshal([]byte(rawUsage.Raw), &usage); err != nil {
		return err
	}

	var fingerprint *string
	if sf := v.Get("system_fingerprint"); sf.Exists() && sf.Type != gjson.Null {
		if sf.Type != gjson.String {
			return errTypeMismatch("system_fingerprint", "string", jsonKind(sf))
		}
		fingerprint = Ptr(sf.Str)
	}

	*r = ChatCompletionResponse{
		ID:                id.Str,
		Model:             model.Str,
		Choices:           choices,
		Usage:             usage,
		SystemFingerprint: fingerprint,
	}
	return nil
}

func decodeChoice(path string, v gjson.Result) (ChatCompletionChoice, error) {
	if !v.IsObject() {
		return ChatCompletionChoice{}, errUnexpectedShape(path, "object", jsonKind(v))
	}
	index := v.Get("index")
	if !index.Exists() {
		return ChatCompletionChoice{}, errMissingField(joinPath(path, "index"))
	}
	if index.Type != gjson.Number {
		return ChatCompletionChoice{}, errTypeMismatch(joinPath(path, "index"), "number", jsonKind(index))
	}
	rawMessage := v.Get("message")
	if !rawMessage.Exists() {
		return ChatCompletionChoice{}, errMissingField(joinPath(path, "message"))
	}
	message, err := decodeResponseMessage(joinPath(path, "message"), rawMessage)
	if err != nil {
		return ChatCompletionChoice{}, err
	}

	choice := ChatCompletionChoice{
		Index:   int(index.Int()),
		Message: message,
	}

	if fr := v.Get("finish_reason"); fr.Exists() && fr.Type != gjson.Null {
		if fr.Type != gjson.String {
			return ChatCompletionChoice{}, errTypeMismatch(joinPath(path, "finish_reason"), "string", jsonKind(fr))
		}
		if !validFinishReason(fr.Str) {
			return ChatCompletionChoice{}, errUnknownVariant(joinPath(path, "finish_reason"),
				`"stop", "length", "content_filter", "tool_calls" or "null"`, fr.Str)
		}
		choice.FinishReason = Ptr(FinishReason(fr.Str))
	}

	if fd := v.Get("finish_details"); fd.Exists() && fd.Type != gjson.Null {
		if !fd.IsObject() {
			return ChatCompletionChoice{}, errTypeMismatch(joinPath(path, "finish_details"), "object", jsonKind(fd))
		}
		tag := fd.Get("type")
		if !tag.Exists() {
			return ChatCompletionChoice{}, errMissingField(joinPath(path, "finish_details.type"))
		}
		if tag.Type != gjson.String {
			return ChatCompletionChoice{}, errTypeMismatch(joinPath(path, "finish_details.type"), "string", jsonKind(tag))
		}
		if !validFinishReason(tag.Str) {
			return ChatCompletionChoice{}, errUnknownVariant(joinPath(path, "finish_details.type"),
				`"stop", "length", "content_filter", "tool_calls" or "null"`, tag.Str)
		}
		details := FinishDetails{Type: FinishReason(tag.Str)}
		if stop := fd.Get("stop"); stop.Exists() {
			if stop.Type != gjson.String {
				return ChatCompletionChoice{}, errTypeMismatch(joinPath(path, "finish_details.stop"), "string", jsonKind(stop))
			}
			details.Stop = stop.Str
		}
		choice.FinishDetails = &details
	}

	return choice, nil
}

func decodeResponseMessage(path string, v gjson.Result) (ChatCompletionMessageForResponse, error) {
	if !v.IsObject() {
		return ChatCompletionMessageForResponse{}, errUnexpectedShape(path, "object", jsonKind(v))
	}
	role := v.Get("role")
	if !role.Exists() {
		return ChatCompletionMessageForResponse{}, errMissingField(joinPath(path, "role"))
	}
	if role.Type != gjson.String {
		return ChatCompletionMessageForResponse{}, errTypeMismatch(joinPath(path, "role"), "string", jsonKind(role))
	}
	if !validChatMessageRole(role.Str) {
		return ChatCompletionMessageForResponse{}, errUnknownVariant(joinPath(path, "role"),
			`"user", "system", "assistant", "function" or "tool"`, role.Str)
	}

	message := ChatCompletionMessageForResponse{Role: ChatMessageRole(role.Str)}

	if content := v.Get("content"); content.Exists() && content.Type != gjson.Null {
		if content.Type != gjson.String {
			return ChatCompletionMessageForResponse{}, errTypeMismatch(joinPath(path, "content"), "string", jsonKind(content))
		}
		message.Content = Ptr(content.Str)
	}
	if name := v.Get("name"); name.Exists() && name.Type != gjson.Null {
		if name.Type != gjson.String {
			return ChatCompletionMessageForResponse{}, errTypeMismatch(joinPath(path, "name"), "string", jsonKind(name))
		}
		message.Name = Ptr(name.Str)
	}
	if fc := v.Get("function_call"); fc.Exists() && fc.Type != gjson.Null {
		if !fc.IsObject() {
			return ChatCompletionMessageForResponse{}, errTypeMismatch(joinPath(path, "function_call"), "object", jsonKind(fc))
		}
		var call ToolCallFunction
		if err := Unmarshal([]byte(fc.Raw), &call); err != nil {
			return ChatCompletionMessageForResponse{}, err
		}
		message.FunctionCall = &call
	}
	if tc := v.Get("tool_calls"); tc.Exists() && tc.Type != gjson.Null {
		if !tc.IsArray() {
			return ChatCompletionMessageForResponse{}, errTypeMismatch(joinPath(path, "tool_calls"), "array", jsonKind(tc))
		}
		var calls []ToolCall
		if err := Unmarshal([]byte(tc.Raw), &calls); err != nil {
			return ChatCompletionMessageForResponse{}, err
		}
		message.ToolCalls = &calls
	}

	return message, nil
}
