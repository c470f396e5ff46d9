package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/types"
)

const (
	providerName     = "claude"
	defaultMaxTokens = 8192
)

// Provider calls the Anthropic Messages API. When the request carries a tool,
// the model is forced to answer through it.
type Provider struct {
	client anthropic.Client
}

var _ interfaces.LLMProvider = (*Provider)(nil)

func New(apiKey string, opts ...option.RequestOption) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("claude: api key is required")
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Provider{client: anthropic.NewClient(opts...)}, nil
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Invoke(ctx context.Context, model string, req types.LLMRequest) (types.RawResponse, error) {
	resp, err := p.client.Messages.New(ctx, messageParams(model, req))
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
			return types.RawResponse{}, &types.RateLimitError{
				Provider:   providerName,
				RetryAfter: retryAfter(apiErr),
				Err:        err,
			}
		}
		return types.RawResponse{}, fmt.Errorf("claude messages: %w", err)
	}

	out := types.RawResponse{Model: model}
	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "tool_use":
			if out.ToolArguments == "" {
				out.ToolArguments = string(block.Input)
			}
		case "text":
			text.WriteString(block.Text)
		}
	}
	out.Text = text.String()
	if out.Text == "" && out.ToolArguments == "" {
		return types.RawResponse{}, &types.MalformedOutput{Err: errors.New("empty response from claude")}
	}
	return out, nil
}

func messageParams(model string, req types.LLMRequest) anthropic.MessageNewParams {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*req.Temperature))
	}
	if req.TopP != nil {
		params.TopP = anthropic.Float(float64(*req.TopP))
	}
	if req.TopK != nil {
		params.TopK = anthropic.Int(int64(*req.TopK))
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Tool != nil {
		params.Tools = []anthropic.ToolUnionParam{{OfTool: toolParam(req.Tool)}}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.Tool.Name},
		}
	}
	return params
}

func toolParam(spec *types.ToolSpec) *anthropic.ToolParam {
	schema := anthropic.ToolInputSchemaParam{Properties: spec.Parameters["properties"]}
	if req, ok := spec.Parameters["required"].([]string); ok {
		schema.Required = req
	}
	return &anthropic.ToolParam{
		Name:        spec.Name,
		Description: anthropic.String(spec.Description),
		InputSchema: schema,
	}
}

// retryAfter reads the retry-after header (seconds) when the response is available.
func retryAfter(apiErr *anthropic.Error) time.Duration {
	if apiErr.Response == nil {
		return 0
	}
	v := apiErr.Response.Header.Get("retry-after")
	if v == "" {
		return 0
	}
	if d, err := time.ParseDuration(v + "s"); err == nil {
		return d
	}
	return 0
}
