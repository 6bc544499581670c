package intake

import (
	"errors"
	"fmt"
	"strings"

	"cotizador/internal/ai"
	"cotizador/internal/modules/quote"
)

// ErrInsufficientTokens is returned when a user has no requests remaining for the current month.
var ErrInsufficientTokens = errors.New("insufficient tokens")

// ErrIncompleteIntent is returned when the message lacks data needed to price it.
var ErrIncompleteIntent = errors.New("incomplete quote request")

var ErrEmptyMessage = errors.New("empty message")

// DefaultMonthlyTokens is the number of intake requests granted per month.
const DefaultMonthlyTokens = 100

// IncompleteIntentError carries the model's follow-up question back to the caller.
type IncompleteIntentError struct {
	Missing []string
	Reply   string
}

func (e *IncompleteIntentError) Error() string {
	return fmt.Sprintf("%v: missing %s", ErrIncompleteIntent, strings.Join(e.Missing, ", "))
}

func (e *IncompleteIntentError) Unwrap() error {
	return ErrIncompleteIntent
}

// Result is a priced intake request.
type Result struct {
	Intent *ai.QuoteIntent `json:"intent"`
	Quote  *quote.Record   `json:"quote"`
	Reply  string          `json:"reply"`
}
