package ai

import (
	"context"
)

// LLMProvider defines the contract for interacting with AI models.
type LLMProvider interface {
	// ParseQuoteIntent extracts a structured freight request from free text.
	// currentContext carries per-request hints such as "current_date".
	ParseQuoteIntent(ctx context.Context, userMessage string, currentContext map[string]string) (*QuoteIntent, error)
}
