package claude

import (
	"testing"

	"pelican-stonks/internal/prompt"
	"pelican-stonks/internal/types"
)

func TestMessageParamsForcesTool(t *testing.T) {
	req := types.LLMRequest{
		System:      "analyst",
		Prompt:      "analyze",
		Tool:        prompt.ReturnRecommendationsTool,
		Temperature: types.Float32(0.2),
	}
	params := messageParams("claude-3-5-sonnet-latest", req)

	if params.MaxTokens != defaultMaxTokens {
		t.Errorf("Expected default max tokens %d, got %d", defaultMaxTokens, params.MaxTokens)
	}
	if len(params.Tools) != 1 || params.Tools[0].OfTool == nil {
		t.Fatalf("Expected one tool, got %+v", params.Tools)
	}
	tool := params.Tools[0].OfTool
	if tool.Name != "return_recommendations" {
		t.Errorf("Expected return_recommendations, got %s", tool.Name)
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "recommendations" {
		t.Errorf("Unexpected required keys %v", tool.InputSchema.Required)
	}
	if params.ToolChoice.OfTool == nil || params.ToolChoice.OfTool.Name != "return_recommendations" {
		t.Errorf("Expected forced tool choice, got %+v", params.ToolChoice)
	}
	if len(params.System) != 1 || params.System[0].Text != "analyst" {
		t.Errorf("Unexpected system blocks %+v", params.System)
	}
}
