package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/types"
)

const providerName = "openai"

// Provider calls the chat completions API. A request tool is offered as a
// function and the model is required to call it.
type Provider struct {
	client *openai.Client
}

var _ interfaces.LLMProvider = (*Provider)(nil)

// New builds a provider. baseURL overrides the API endpoint when non-empty.
func New(apiKey, baseURL string) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Provider{client: openai.NewClientWithConfig(cfg)}, nil
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Invoke(ctx context.Context, model string, req types.LLMRequest) (types.RawResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, chatRequest(model, req))
	if err != nil {
		if isRateLimit(err) {
			return types.RawResponse{}, &types.RateLimitError{Provider: providerName, Err: err}
		}
		return types.RawResponse{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return types.RawResponse{}, &types.MalformedOutput{Err: errors.New("no choices in openai response")}
	}

	msg := resp.Choices[0].Message
	out := types.RawResponse{Model: model, Text: msg.Content}
	if len(msg.ToolCalls) > 0 {
		out.ToolArguments = msg.ToolCalls[0].Function.Arguments
	}
	return out, nil
}

func chatRequest(model string, req types.LLMRequest) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	cr := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: int(req.MaxTokens),
	}
	if req.Temperature != nil {
		cr.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		cr.TopP = *req.TopP
	}

	switch {
	case req.Tool != nil:
		cr.Tools = []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        req.Tool.Name,
				Description: req.Tool.Description,
				Parameters:  req.Tool.Parameters,
			},
		}}
		cr.ToolChoice = openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: req.Tool.Name},
		}
	case req.JSONOutput:
		cr.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	return cr
}

func isRateLimit(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
