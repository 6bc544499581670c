package intake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cotizador/internal/ai"
	"cotizador/internal/modules/pricing"
	"cotizador/internal/modules/quote"
)

// Quota deducts intake requests per user.
type Quota interface {
	UseToken(ctx context.Context, uid string) error
	EnsureUser(ctx context.Context, uid string) error
}

// Quoter prices and records a quote request.
type Quoter interface {
	Create(ctx context.Context, req quote.Request) (*quote.Record, error)
}

// Service turns free-text requests into priced quotes.
type Service struct {
	quota  Quota
	llm    ai.LLMProvider
	quotes Quoter
	now    func() time.Time
}

// NewService creates a Service. A nil quota disables the monthly limit.
func NewService(quota Quota, llm ai.LLMProvider, quotes Quoter) *Service {
	return &Service{quota: quota, llm: llm, quotes: quotes, now: time.Now}
}

// UseToken deducts one request from the user's monthly allowance.
// If the user row does not exist yet it is initialised and the token is immediately consumed.
func (s *Service) UseToken(ctx context.Context, uid string) error {
	if s.quota == nil {
		return nil
	}
	err := s.quota.UseToken(ctx, uid)
	if err != ErrInsufficientTokens {
		return err
	}

	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.quota.EnsureUser(ctx, uid); initErr != nil {
		return initErr
	}
	return s.quota.UseToken(ctx, uid)
}

// Quote charges one token, asks the model to extract the request and prices
// it. Requests missing data return an *IncompleteIntentError with the
// model's follow-up question.
func (s *Service) Quote(ctx context.Context, uid, client, message string) (*Result, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if err := s.UseToken(ctx, uid); err != nil {
		return nil, err
	}

	intent, err := s.llm.ParseQuoteIntent(ctx, message, map[string]string{
		"current_date": s.now().Format("2006-01-02 (Monday)"),
	})
	if err != nil {
		return nil, fmt.Errorf("parsing request: %w", err)
	}
	if missing := intent.MissingFields(); len(missing) > 0 {
		return nil, &IncompleteIntentError{Missing: missing, Reply: intent.Reply}
	}

	rec, err := s.quotes.Create(ctx, quote.Request{
		Client:       client,
		Service:      pricing.ServiceType(intent.Service),
		Origin:       intent.Origin,
		Destination:  intent.Destination,
		WeightTons:   intent.WeightTons,
		LengthCm:     intent.LengthCm,
		WidthCm:      intent.WidthCm,
		HeightCm:     intent.HeightCm,
		ManeuverCost: intent.ManeuverCost,
		ServiceDate:  intent.ServiceDate,
		Observations: message,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Intent: intent, Quote: rec, Reply: intent.Reply}, nil
}
