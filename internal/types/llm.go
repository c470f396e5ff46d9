package types

// ToolSpec declares a function tool the model may call instead of answering in text.
type ToolSpec struct {
	Name        string
	Description string
	// Parameters is a JSON schema object.
	Parameters map[string]any
}

// LLMRequest is the provider-neutral request payload.
type LLMRequest struct {
	System      string
	Prompt      string
	Tool        *ToolSpec
	Temperature *float32
	TopP        *float32
	TopK        *float32
	MaxTokens   int32
	// JSONOutput asks providers that support it for an application/json response.
	JSONOutput bool
}

// RawResponse is what a provider returned. ToolArguments is set when the
// model answered through a tool call, Text otherwise.
type RawResponse struct {
	Model         string
	ToolArguments string
	Text          string
}

// IsToolCall reports whether the response carries a tool-call payload.
func (r RawResponse) IsToolCall() bool {
	return r.ToolArguments != ""
}

// Float32 returns a pointer to v.
func Float32(v float32) *float32 { return &v }

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }
