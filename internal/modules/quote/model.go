// README: Quote requests, persisted quote records and the session history.
package quote

import (
	"errors"
	"time"

	"cotizador/internal/modules/location"
	"cotizador/internal/modules/pricing"
	"cotizador/internal/types"
)

var ErrNotFound = errors.New("quote not found")

// ServiceDateLayout is the accepted format for Request.ServiceDate.
const ServiceDateLayout = "2006-01-02"

// Request is a quote as entered by a user: place names (or explicit points)
// plus the cargo description for the selected service.
type Request struct {
	Client           string               `json:"client"`
	Service          pricing.ServiceType  `json:"service"`
	Origin           string               `json:"origin"`
	Destination      string               `json:"destination"`
	OriginPoint      *types.Point         `json:"origin_point,omitempty"`
	DestinationPoint *types.Point         `json:"destination_point,omitempty"`
	WeightTons       float64              `json:"weight_tons"`
	LengthCm         float64              `json:"length_cm"`
	WidthCm          float64              `json:"width_cm"`
	HeightCm         float64              `json:"height_cm"`
	ManeuverCost     float64              `json:"maneuver_cost"`
	MovingPolicy     pricing.MovingPolicy `json:"moving_policy,omitempty"`
	Observations     string               `json:"observations,omitempty"`
	ServiceDate      string               `json:"service_date,omitempty"`
}

func (r Request) priceRequest() pricing.PriceRequest {
	return pricing.PriceRequest{
		Service:      r.Service,
		WeightTons:   r.WeightTons,
		LengthCm:     r.LengthCm,
		WidthCm:      r.WidthCm,
		HeightCm:     r.HeightCm,
		ManeuverCost: r.ManeuverCost,
		MovingPolicy: r.MovingPolicy,
	}
}

type Record struct {
	ID           types.ID              `json:"id"`
	CreatedAt    time.Time             `json:"created_at"`
	Client       string                `json:"client"`
	Origin       location.Municipality `json:"origin"`
	Destination  location.Municipality `json:"destination"`
	ServiceDate  string                `json:"service_date,omitempty"`
	Observations string                `json:"observations,omitempty"`
	Quote        pricing.Quote         `json:"quote"`
}

// History is an in-memory log of the quotes produced during one session.
// It is owned by the caller and not safe for concurrent use.
type History struct {
	records []Record
}

func (h *History) Append(r Record) {
	h.records = append(h.records, r)
}

// Records returns a copy of the log, oldest first.
func (h *History) Records() []Record {
	return append([]Record(nil), h.records...)
}

func (h *History) Len() int {
	return len(h.records)
}

// Total sums CostTotal over the log.
func (h *History) Total() float64 {
	sum := 0.0
	for _, r := range h.records {
		sum += r.Quote.CostTotal
	}
	return types.Round2(sum)
}
