package interfaces

import (
	"context"

	"pelican-stonks/internal/types"
)

// LLMProvider sends one request to one model. Rate limiting must surface as
// *types.RateLimitError so the orchestrator can tell it apart from other faults.
type LLMProvider interface {
	Name() string
	Invoke(ctx context.Context, model string, req types.LLMRequest) (types.RawResponse, error)
}
