package llmobs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/trace"
	"pelican-stonks/internal/types"
)

// observableProvider wraps an LLMProvider with logging and tracing
type observableProvider struct {
	provider interfaces.LLMProvider
}

// Compile-time interface check
var _ interfaces.LLMProvider = (*observableProvider)(nil)

// Wrap wraps a provider with observability middleware
func Wrap(provider interfaces.LLMProvider) interfaces.LLMProvider {
	return &observableProvider{provider: provider}
}

func (op *observableProvider) Name() string {
	return op.provider.Name()
}

// Invoke calls the underlying provider inside an "llm.Invoke" span
func (op *observableProvider) Invoke(ctx context.Context, model string, req types.LLMRequest) (types.RawResponse, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Invoke", oteltrace.WithAttributes(
		attribute.String("llm.provider", op.provider.Name()),
		attribute.String("llm.model", model),
		attribute.Int("llm.prompt_chars", len(req.Prompt)),
		attribute.Bool("llm.tool", req.Tool != nil),
	))
	defer span.End()

	// Skip one frame so the source points at the caller, not this wrapper
	logger.DebugSkip(ctx, 1, "Invoking model",
		"provider", op.provider.Name(),
		"model", model,
		"prompt_chars", len(req.Prompt),
	)

	start := time.Now()
	raw, err := op.provider.Invoke(ctx, model, req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Model invocation failed", err,
			"provider", op.provider.Name(),
			"model", model,
			"duration_ms", elapsed,
		)
		return raw, err
	}

	logger.InfoSkip(ctx, 1, "Model responded",
		"provider", op.provider.Name(),
		"model", model,
		"tool_call", raw.IsToolCall(),
		"response_chars", len(raw.Text)+len(raw.ToolArguments),
		"duration_ms", elapsed,
	)
	return raw, nil
}
