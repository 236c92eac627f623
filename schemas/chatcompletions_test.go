package schemas

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestChatCompletionRequest_MarshalJSON_Minimal(t *testing.T) {
	req := NewChatCompletionRequest("empower-functions-small", nil)
	out, err := Marshal(req)
	require.NoError(t, err)

	// Unset optionals never appear, not even as null; messages is always
	// emitted, an empty conversation included.
	assert.Equal(t, `{"model":"empower-functions-small","messages":[]}`, string(out))
}

func TestChatCompletionRequest_MarshalJSON_EmptyMessagesRoundTrip(t *testing.T) {
	out, err := Marshal(NewChatCompletionRequest("m", []ChatCompletionMessage{}))
	require.NoError(t, err)

	var decoded ChatCompletionRequest
	require.NoError(t, Unmarshal(out, &decoded))
	require.NotNil(t, decoded.Messages)
	assert.Len(t, decoded.Messages, 0)
}

func TestChatCompletionRequest_Builders(t *testing.T) {
	req := NewChatCompletionRequest("m", []ChatCompletionMessage{}).
		WithTemperature(0.7).
		WithTopP(0.9).
		WithN(2).
		WithStream(false).
		WithStop([]string{"\n\n"}).
		WithMaxTokens(256).
		WithPresencePenalty(0.1).
		WithFrequencyPenalty(0.2).
		WithLogitBias(map[string]int{"50256": -100}).
		WithUser("tester").
		WithSeed(42).
		WithTools([]Tool{{Type: ToolTypeFunction, Function: Function{Name: "f"}}}).
		WithToolChoice(ToolChoice{Mode: ToolChoiceModeAuto})

	out, err := Marshal(req)
	require.NoError(t, err)

	v := gjson.ParseBytes(out)
	assert.Equal(t, 0.7, v.Get("temperature").Num)
	assert.Equal(t, 0.9, v.Get("top_p").Num)
	assert.Equal(t, int64(2), v.Get("n").Int())
	assert.False(t, v.Get("stream").Bool())
	assert.Equal(t, "\n\n", v.Get("stop.0").Str)
	assert.Equal(t, int64(256), v.Get("max_tokens").Int())
	assert.Equal(t, int64(-100), v.Get("logit_bias.50256").Int())
	assert.Equal(t, "tester", v.Get("user").Str)
	assert.Equal(t, int64(42), v.Get("seed").Int())
	assert.Equal(t, "f", v.Get("tools.0.function.name").Str)
	assert.Equal(t, "auto", v.Get("tool_choice").Str)
	// Fields no setter touched stay absent.
	assert.False(t, v.Get("response_format").Exists())
	assert.False(t, v.Get("empower_metadata").Exists())
}

func TestChatCompletionRequest_MarshalJSON_ExtraParams(t *testing.T) {
	req := NewChatCompletionRequest("m", []ChatCompletionMessage{})
	req.ExtraParams = map[string]any{
		"guided_json": `{"type":"object"}`,
		"model":       "should-not-win",
		"min_p":       0.05,
	}

	out, err := Marshal(req)
	require.NoError(t, err)

	v := gjson.ParseBytes(out)
	assert.Equal(t, "m", v.Get("model").Str, "typed fields win on conflicts")
	assert.Equal(t, `{"type":"object"}`, v.Get("guided_json").Str)
	assert.Equal(t, 0.05, v.Get("min_p").Num)
}

func TestChatCompletionRequest_MarshalJSON_ExtraParamsLiteralKeys(t *testing.T) {
	// Extension keys containing path metacharacters must land verbatim as
	// top-level keys, never nest into sub-objects or act as wildcards.
	req := NewChatCompletionRequest("m", []ChatCompletionMessage{})
	req.ExtraParams = map[string]any{
		"empower.debug": true,
		"mo*el":         "x",
	}

	out, err := Marshal(req)
	require.NoError(t, err)

	keys := map[string]gjson.Result{}
	gjson.ParseBytes(out).ForEach(func(key, value gjson.Result) bool {
		keys[key.Str] = value
		return true
	})
	require.Contains(t, keys, "empower.debug")
	assert.True(t, keys["empower.debug"].Bool())
	require.Contains(t, keys, "mo*el")
	assert.Equal(t, "x", keys["mo*el"].Str)
	assert.NotContains(t, keys, "empower")
	assert.Equal(t, "m", keys["model"].Str, "wildcard key must not clobber model")
}

func TestChatCompletionRequest_MarshalJSON_Deterministic(t *testing.T) {
	req := NewChatCompletionRequest("m", []ChatCompletionMessage{}).
		WithLogitBias(map[string]int{"50256": -100, "198": 5, "628": 5, "11": -1})

	first, err := Marshal(req)
	require.NoError(t, err)
	for i := 0; i < 32; i++ {
		out, err := Marshal(req)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(out))
	}
}

func TestChatCompletionMessage_UnmarshalJSON(t *testing.T) {
	var msg ChatCompletionMessage
	require.NoError(t, Unmarshal([]byte(`{"role":"user","content":"hello"}`), &msg))
	assert.Equal(t, ChatMessageRoleUser, msg.Role)
	require.NotNil(t, msg.Content)
	require.NotNil(t, msg.Content.ContentStr)
	assert.Equal(t, "hello", *msg.Content.ContentStr)

	msg = ChatCompletionMessage{}
	require.NoError(t, Unmarshal([]byte(`{"role":"user","content":[{"type":"text","text":"hi"}]}`), &msg))
	require.NotNil(t, msg.Content)
	require.NotNil(t, msg.Content.ContentBlocks)
	require.Len(t, *msg.Content.ContentBlocks, 1)
	assert.Equal(t, ContentBlockTypeText, (*msg.Content.ContentBlocks)[0].Type)

	msg = ChatCompletionMessage{}
	require.NoError(t, Unmarshal([]byte(`{"role":"assistant","content":null}`), &msg))
	assert.Nil(t, msg.Content)

	err := Unmarshal([]byte(`{"role":"user","content":5}`), &ChatCompletionMessage{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "string or array")

	var wireErr *WireError
	err = Unmarshal([]byte(`{"content":"hi"}`), &ChatCompletionMessage{})
	require.ErrorAs(t, err, &wireErr)
	assert.Equal(t, ErrKindMissingField, wireErr.Kind)

	err = Unmarshal([]byte(`{"role":"narrator","content":"hi"}`), &ChatCompletionMessage{})
	require.ErrorAs(t, err, &wireErr)
	assert.Equal(t, ErrKindUnknownVariant, wireErr.Kind)
}

const sampleResponse = `{
	"id": "chatcmpl-123",
	"model": "empower-functions-small",
	"choices": [
		{
			"index": 0,
			"message": {
				"role": "assistant",
				"content": "hello there",
				"tool_calls": [
					{"id": "call_1", "type": "function", "function": {"name": "f", "arguments": "{}"}}
				]
			},
			"finish_reason": "tool_calls",
			"finish_details": {"type": "stop", "stop": "<|endoftext|>"}
		}
	],
	"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19},
	"system_fingerprint": "fp_44709d6fcb"
}`

func TestChatCompletionResponse_UnmarshalJSON(t *testing.T) {
	var resp ChatCompletionResponse
	require.NoError(t, Unmarshal([]byte(sampleResponse), &resp))

	assert.Equal(t, "chatcmpl-123", resp.ID)
	assert.Equal(t, "empower-functions-small", resp.Model)
	require.Len(t, resp.Choices, 1)

	choice := resp.Choices[0]
	assert.Equal(t, 0, choice.Index)
	assert.Equal(t, ChatMessageRoleAssistant, choice.Message.Role)
	require.NotNil(t, choice.Message.Content)
	assert.Equal(t, "hello there", *choice.Message.Content)
	require.NotNil(t, choice.Message.ToolCalls)
	assert.Equal(t, "call_1", (*choice.Message.ToolCalls)[0].ID)
	require.NotNil(t, choice.FinishReason)
	assert.Equal(t, FinishReasonToolCalls, *choice.FinishReason)
	require.NotNil(t, choice.FinishDetails)
	assert.Equal(t, FinishReasonStop, choice.FinishDetails.Type)
	assert.Equal(t, "<|endoftext|>", choice.FinishDetails.Stop)

	assert.Equal(t, Usage{PromptTokens: 12, CompletionTokens: 7, TotalTokens: 19}, resp.Usage)
	require.NotNil(t, resp.SystemFingerprint)
	assert.Equal(t, "fp_44709d6fcb", *resp.SystemFingerprint)
}

func TestChatCompletionResponse_UnmarshalJSON_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind WireErrorKind
		wantPath string
	}{
		{
			name:     "missing id",
			input:    `{"model":"m","choices":[],"usage":{"prompt_tokens":0,"completion_tokens":0,"total_tokens":0}}`,
			wantKind: ErrKindMissingField,
			wantPath: "id",
		},
		{
			name:     "missing usage",
			input:    `{"id":"x","model":"m","choices":[]}`,
			wantKind: ErrKindMissingField,
			wantPath: "usage",
		},
		{
			name:     "choices wrong kind",
			input:    `{"id":"x","model":"m","choices":{},"usage":{"prompt_tokens":0,"completion_tokens":0,"total_tokens":0}}`,
			wantKind: ErrKindTypeMismatch,
			wantPath: "choices",
		},
		{
			name:     "choice missing index",
			input:    `{"id":"x","model":"m","choices":[{"message":{"role":"assistant"}}],"usage":{"prompt_tokens":0,"completion_tokens":0,"total_tokens":0}}`,
			wantKind: ErrKindMissingField,
			wantPath: "choices[0].index",
		},
		{
			name:     "choice missing message",
			input:    `{"id":"x","model":"m","choices":[{"index":0}],"usage":{"prompt_tokens":0,"completion_tokens":0,"total_tokens":0}}`,
			wantKind: ErrKindMissingField,
			wantPath: "choices[0].message",
		},
		{
			name:     "unknown finish reason",
			input:    `{"id":"x","model":"m","choices":[{"index":0,"message":{"role":"assistant"},"finish_reason":"exhausted"}],"usage":{"prompt_tokens":0,"completion_tokens":0,"total_tokens":0}}`,
			wantKind: ErrKindUnknownVariant,
			wantPath: "choices[0].finish_reason",
		},
		{
			name:     "top level not an object",
			input:    `[1,2,3]`,
			wantKind: ErrKindUnexpectedShape,
			wantPath: "response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ChatCompletionResponse
			err := Unmarshal([]byte(tt.input), &resp)
			var wireErr *WireError
			require.ErrorAs(t, err, &wireErr)
			assert.Equal(t, tt.wantKind, wireErr.Kind)
			assert.Equal(t, tt.wantPath, wireErr.Path)
		})
	}
}

func TestFinishReason_NullTagIsNotAbsence(t *testing.T) {
	// The literal "null" tag decodes as a real finish reason; JSON null
	// decodes as absence. The two never collapse into each other.
	base := `{"id":"x","model":"m","choices":[{"index":0,"message":{"role":"assistant"},"finish_reason":%s}],"usage":{"prompt_tokens":0,"completion_tokens":0,"total_tokens":0}}`

	var resp ChatCompletionResponse
	require.NoError(t, Unmarshal([]byte(strings.Replace(base, "%s", `"null"`, 1)), &resp))
	require.NotNil(t, resp.Choices[0].FinishReason)
	assert.Equal(t, FinishReasonNull, *resp.Choices[0].FinishReason)

	resp = ChatCompletionResponse{}
	require.NoError(t, Unmarshal([]byte(strings.Replace(base, "%s", `null`, 1)), &resp))
	assert.Nil(t, resp.Choices[0].FinishReason)
}

func TestChatCompletionRequest_RoundTrip(t *testing.T) {
	req := NewChatCompletionRequest("empower-functions-small", []ChatCompletionMessage{
		{Role: ChatMessageRoleSystem, Content: &ChatContent{ContentStr: Ptr("be brief")}},
		{Role: ChatMessageRoleUser, Content: &ChatContent{ContentBlocks: &[]ContentBlock{
			{Type: ContentBlockTypeText, Text: Ptr("what is in this image?")},
			{Type: ContentBlockTypeImageURL, ImageURL: &ImageURL{URL: "https://example.com/a.png"}},
		}}},
	}).
		WithTemperature(0.2).
		WithTools([]Tool{{Type: ToolTypeFunction, Function: Function{Name: "f"}}}).
		WithToolChoice(ToolChoice{Mode: ToolChoiceModeAny})

	encoded, err := Marshal(req)
	require.NoError(t, err)

	var decoded ChatCompletionRequest
	require.NoError(t, Unmarshal(encoded, &decoded))
	reencoded, err := Marshal(&decoded)
	require.NoError(t, err)
	assert.Equal(t, string(encoded), string(reencoded))
}

func TestEmpowerMetadata(t *testing.T) {
	meta := NewEmpowerMetadata()
	_, err := uuid.Parse(meta.ID)
	require.NoError(t, err, "metadata ID must be a valid UUID")

	meta.LoraRequest = &LoraRequest{LoraID: "sql-adapter", LoraIntID: 3, LoraLocalPath: "/models/lora/sql"}
	out, err := Marshal(meta)
	require.NoError(t, err)

	v := gjson.ParseBytes(out)
	assert.Equal(t, "sql-adapter", v.Get("lora_request.lora_id").Str)
	assert.Equal(t, int64(3), v.Get("lora_request.lora_int_id").Int())
	assert.Equal(t, "/models/lora/sql", v.Get("lora_request.lora_local_path").Str)
	// Plain flags are always carried.
	assert.True(t, v.Get("ignore_eos").Exists())
	assert.True(t, v.Get("skip_chat_template").Exists())
}
