package adapters

import (
	"context"

	"github.com/slavuta-ads/adsbot/internal/adapters/llm"
)

// LLM is a chat model the screener can ask for a verdict on submitted text.
type LLM interface {
	ChatCompletion(ctx context.Context, messages []llm.ChatCompletionMessage) (llm.ChatCompletionResponse, error)
}
