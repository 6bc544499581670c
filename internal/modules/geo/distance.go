// Package geo computes great-circle distances between points of the serviced territory.
package geo

import (
	"errors"
	"fmt"
	"math"

	"cotizador/internal/types"
)

// Mean Earth radius for the spherical model.
const earthRadiusKm = 6371.0

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Territory is the bounding box a coordinate must fall in to be quoted.
type Territory struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// Mexico is the serviced territory.
var Mexico = Territory{MinLat: 14, MaxLat: 33, MinLng: -119, MaxLng: -85}

func (t Territory) Contains(p types.Point) bool {
	return p.Lat >= t.MinLat && p.Lat <= t.MaxLat &&
		p.Lng >= t.MinLng && p.Lng <= t.MaxLng
}

// Validate rejects points outside the territory. NaN never passes.
func (t Territory) Validate(p types.Point) error {
	if !t.Contains(p) {
		return fmt.Errorf("%w: (%.6f, %.6f) outside lat [%g, %g] lng [%g, %g]",
			ErrInvalidCoordinate, p.Lat, p.Lng, t.MinLat, t.MaxLat, t.MinLng, t.MaxLng)
	}
	return nil
}

// Distance is a route length in kilometres. Km is unrounded.
type Distance struct {
	Km float64
}

// Rounded returns the distance rounded to 2 decimals for display.
func (d Distance) Rounded() float64 {
	return types.Round2(d.Km)
}

// Calculator measures distances inside a territory.
type Calculator struct {
	territory Territory
}

func NewCalculator(t Territory) *Calculator {
	return &Calculator{territory: t}
}

func (c *Calculator) Territory() Territory {
	return c.territory
}

// Distance validates both points and returns the haversine distance between them.
func (c *Calculator) Distance(a, b types.Point) (Distance, error) {
	if err := c.territory.Validate(a); err != nil {
		return Distance{}, fmt.Errorf("origin: %w", err)
	}
	if err := c.territory.Validate(b); err != nil {
		return Distance{}, fmt.Errorf("destination: %w", err)
	}
	return Distance{Km: HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng)}, nil
}

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
