// README: Resolver maps place names to coordinates (catalog, then cache, then geocoder).
package location

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cotizador/internal/modules/geo"
	"cotizador/internal/types"
)

// Geocoder resolves free-form addresses to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

// Cache stores geocoder results.
type Cache interface {
	GetMunicipality(ctx context.Context, place string) (Municipality, bool, error)
	SetMunicipality(ctx context.Context, place string, m Municipality) error
}

type Service struct {
	catalog   *Catalog
	cache     Cache
	geocoder  Geocoder
	territory geo.Territory
}

// NewService builds a resolver. cache and geocoder may be nil.
func NewService(catalog *Catalog, cache Cache, geocoder Geocoder, territory geo.Territory) *Service {
	if catalog == nil {
		catalog = NewCatalog(nil)
	}
	return &Service{catalog: catalog, cache: cache, geocoder: geocoder, territory: territory}
}

func (s *Service) Catalog() *Catalog {
	return s.catalog
}

func (s *Service) Territory() geo.Territory {
	return s.territory
}

// Resolve returns the municipality for a "City (State)" label or free-form
// place name. Cache failures are logged and do not fail the lookup.
func (s *Service) Resolve(ctx context.Context, place string) (Municipality, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return Municipality{}, fmt.Errorf("%w: empty place name", ErrUnknownMunicipality)
	}
	if m, ok := s.catalog.LookupLabel(place); ok {
		return m, nil
	}

	if s.cache != nil {
		m, ok, err := s.cache.GetMunicipality(ctx, place)
		if err != nil {
			log.Printf("geocode cache read for %q failed: %v", place, err)
		} else if ok {
			return m, nil
		}
	}

	if s.geocoder == nil {
		return Municipality{}, fmt.Errorf("%w: %q", ErrUnknownMunicipality, place)
	}
	p, err := s.geocoder.Geocode(ctx, place)
	if err != nil {
		return Municipality{}, fmt.Errorf("%w: %q: %v", ErrUnknownMunicipality, place, err)
	}
	if err := s.territory.Validate(p); err != nil {
		return Municipality{}, fmt.Errorf("geocoded %q: %w", place, err)
	}

	city, state := SplitLabel(place)
	m := Municipality{City: CleanText(city), State: CleanText(state), Point: p}
	if s.cache != nil {
		if err := s.cache.SetMunicipality(ctx, place, m); err != nil {
			log.Printf("geocode cache write for %q failed: %v", place, err)
		}
	}
	return m, nil
}
