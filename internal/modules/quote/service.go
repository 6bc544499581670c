// README: Quote assembly: resolve places, price the route, persist the record.
package quote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cotizador/internal/modules/location"
	"cotizador/internal/modules/pricing"
	"cotizador/internal/types"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Resolver turns place names into municipalities.
type Resolver interface {
	Resolve(ctx context.Context, place string) (location.Municipality, error)
}

// Repository persists quote records.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	Get(ctx context.Context, id types.ID) (*Record, error)
	List(ctx context.Context, client string, limit int) ([]Record, error)
}

type Service struct {
	engine   *pricing.Engine
	resolver Resolver
	store    Repository
	now      func() time.Time
}

// NewService wires the engine to a resolver and an optional store. Without a
// store, records are returned but not kept.
func NewService(engine *pricing.Engine, resolver Resolver, store Repository) *Service {
	return &Service{engine: engine, resolver: resolver, store: store, now: time.Now}
}

func (s *Service) Engine() *pricing.Engine {
	return s.engine
}

// Create prices req and stores the resulting record.
func (s *Service) Create(ctx context.Context, req Request) (*Record, error) {
	service, err := pricing.ParseServiceType(string(req.Service))
	if err != nil {
		return nil, err
	}
	if req.ServiceDate != "" {
		if _, err := time.Parse(ServiceDateLayout, req.ServiceDate); err != nil {
			return nil, fmt.Errorf("%w: service date %q is not YYYY-MM-DD", pricing.ErrInvalidInput, req.ServiceDate)
		}
	}

	origin, err := s.place(ctx, req.Origin, req.OriginPoint)
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	dest, err := s.place(ctx, req.Destination, req.DestinationPoint)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	territory := s.engine.Territory()
	if err := territory.Validate(origin.Point); err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	if err := territory.Validate(dest.Point); err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	if identical(req, origin, dest) {
		return nil, pricing.ErrIdenticalEndpoints
	}

	pr := req.priceRequest()
	pr.Service = service
	q, err := s.engine.Route(origin.Point, dest.Point, pr)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:           types.ID(uuid.NewString()),
		CreatedAt:    s.now().UTC(),
		Client:       strings.TrimSpace(req.Client),
		Origin:       origin,
		Destination:  dest,
		ServiceDate:  req.ServiceDate,
		Observations: strings.TrimSpace(req.Observations),
		Quote:        q,
	}
	if s.store != nil {
		if err := s.store.Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("saving quote: %w", err)
		}
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Record, error) {
	if s.store == nil {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// List returns the most recent records, optionally filtered by client.
func (s *Service) List(ctx context.Context, client string, limit int) ([]Record, error) {
	if s.store == nil {
		return nil, nil
	}
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	return s.store.List(ctx, strings.TrimSpace(client), limit)
}

// place uses the explicit point when given, otherwise resolves the name.
func (s *Service) place(ctx context.Context, name string, p *types.Point) (location.Municipality, error) {
	if p != nil {
		city, state := location.SplitLabel(name)
		m := location.Municipality{City: location.CleanText(city), State: location.CleanText(state), Point: *p}
		if m.City == "" {
			m.City = fmt.Sprintf("%.5f, %.5f", p.Lat, p.Lng)
		}
		return m, nil
	}
	if s.resolver == nil {
		return location.Municipality{}, fmt.Errorf("%w: %q", location.ErrUnknownMunicipality, name)
	}
	return s.resolver.Resolve(ctx, name)
}

// identical compares explicit points exactly when both are given, and
// resolved places by label otherwise.
func identical(req Request, origin, dest location.Municipality) bool {
	if req.OriginPoint != nil && req.DestinationPoint != nil {
		return *req.OriginPoint == *req.DestinationPoint
	}
	return location.NormalizeKey(origin.Label()) == location.NormalizeKey(dest.Label())
}
