// README: Pricing engine turns a route distance plus service inputs into a quote.
package pricing

import (
	"fmt"
	"math"

	"cotizador/internal/modules/geo"
	"cotizador/internal/types"
)

const cm3PerM3 = 1_000_000

type Option func(*Engine)

// WithMovingPolicy sets the policy used when a request does not name one.
func WithMovingPolicy(p MovingPolicy) Option {
	return func(e *Engine) { e.moving = p }
}

// WithTerritory restricts Route to points inside t.
func WithTerritory(t geo.Territory) Option {
	return func(e *Engine) { e.calc = geo.NewCalculator(t) }
}

// Engine is immutable after construction and safe for concurrent use.
type Engine struct {
	tables RateTables
	moving MovingPolicy
	calc   *geo.Calculator
}

func NewEngine(tables RateTables, opts ...Option) (*Engine, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		tables: tables.clone(),
		moving: MovingWeightClass,
		calc:   geo.NewCalculator(geo.Mexico),
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, err := ParseMovingPolicy(string(e.moving)); err != nil {
		return nil, err
	}
	return e, nil
}

// Tables returns a copy of the engine's rate tables.
func (e *Engine) Tables() RateTables {
	return e.tables.clone()
}

func (e *Engine) MovingPolicy() MovingPolicy {
	return e.moving
}

func (e *Engine) Territory() geo.Territory {
	return e.calc.Territory()
}

// Route measures the distance between two points and prices it.
// req.DistanceKm is ignored.
func (e *Engine) Route(from, to types.Point, req PriceRequest) (Quote, error) {
	d, err := e.calc.Distance(from, to)
	if err != nil {
		return Quote{}, err
	}
	if from == to {
		return Quote{}, ErrIdenticalEndpoints
	}
	req.DistanceKm = d.Km
	return e.Price(req)
}

// Price computes the quote for a known distance. Band selection and per-km
// charges use the unrounded distance; only the reported values are rounded.
// Inputs whose result overflows float64 are rejected.
func (e *Engine) Price(req PriceRequest) (Quote, error) {
	q, err := e.price(req)
	if err != nil {
		return Quote{}, err
	}
	if !isFinite(q.CostTotal) || !isFinite(q.VolumeM3) {
		return Quote{}, fmt.Errorf("%w: cost overflows for %s request", ErrInvalidInput, req.Service)
	}
	return q, nil
}

func (e *Engine) price(req PriceRequest) (Quote, error) {
	d := req.DistanceKm
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return Quote{}, fmt.Errorf("%w: distance %v km", ErrInvalidInput, d)
	}

	switch req.Service {
	case ServiceFTL:
		return e.priceByWeight(req)
	case ServiceLTL:
		return e.priceByVolume(req)
	case ServiceMoving:
		if !(req.ManeuverCost >= 0) || math.IsInf(req.ManeuverCost, 1) {
			return Quote{}, fmt.Errorf("%w: maneuver cost %v", ErrInvalidInput, req.ManeuverCost)
		}
		policy := req.MovingPolicy
		if policy == "" {
			policy = e.moving
		}
		switch policy {
		case MovingWeightClass:
			q, err := e.priceByWeight(req)
			if err != nil {
				return Quote{}, err
			}
			return addManeuvers(q, req.ManeuverCost), nil
		case MovingFlatRate:
			return e.priceFlatMoving(req), nil
		}
		return Quote{}, fmt.Errorf("%w: unknown moving policy %q", ErrInvalidInput, policy)
	}
	return Quote{}, fmt.Errorf("%w: unknown service type %q", ErrInvalidInput, req.Service)
}

func (e *Engine) priceByWeight(req PriceRequest) (Quote, error) {
	w := req.WeightTons
	if !(w > 0) || w > e.tables.MaxWeightTons {
		return Quote{}, fmt.Errorf("%w: weight %v t outside (0, %v]", ErrInvalidInput, w, e.tables.MaxWeightTons)
	}
	band, ok := e.tables.WeightBandFor(w)
	if !ok {
		return Quote{}, fmt.Errorf("%w: no weight class for %v t", ErrInvalidTables, w)
	}

	d := req.DistanceKm
	unit := band.Class.String()
	charges := map[string]float64{ChargeBaseFee: band.BaseFee}
	var cost float64
	var breakdown string
	if d <= e.tables.FlagDropKm {
		cost = band.BaseFee
		breakdown = fmt.Sprintf("Banderazo para %s (%.2f km, <=%g km)", unit, d, e.tables.FlagDropKm)
	} else {
		excess := d - e.tables.FlagDropKm
		charges[ChargeDistance] = types.Round2(excess * band.PerKm)
		cost = band.BaseFee + excess*band.PerKm
		breakdown = fmt.Sprintf("%s (banderazo hasta %g km) + %.2f km x %s/km",
			formatMoney(band.BaseFee), e.tables.FlagDropKm, excess, formatMoney(band.PerKm))
	}

	return Quote{
		Service:    req.Service,
		DistanceKm: types.Round2(d),
		Unit:       unit,
		WeightTons: w,
		CostTotal:  types.Round2(cost),
		Currency:   types.Currency,
		Breakdown:  breakdown,
		Charges:    charges,
	}, nil
}

func (e *Engine) priceByVolume(req PriceRequest) (Quote, error) {
	for _, dim := range []float64{req.LengthCm, req.WidthCm, req.HeightCm} {
		if !(dim > 0) || math.IsInf(dim, 1) {
			return Quote{}, fmt.Errorf("%w: dimensions must be positive, got %vx%vx%v cm",
				ErrInvalidInput, req.LengthCm, req.WidthCm, req.HeightCm)
		}
	}
	volume := req.LengthCm * req.WidthCm * req.HeightCm / cm3PerM3
	band, ok := e.tables.DistanceBandFor(req.DistanceKm)
	if !ok {
		return Quote{}, fmt.Errorf("%w: no distance band for %v km", ErrInvalidTables, req.DistanceKm)
	}
	cost := types.Round2(volume * band.RatePerM3)

	return Quote{
		Service:    ServiceLTL,
		DistanceKm: types.Round2(req.DistanceKm),
		Unit:       band.Label,
		VolumeM3:   volume,
		CostTotal:  cost,
		Currency:   types.Currency,
		Breakdown:  fmt.Sprintf("%.4f m3 x %s/m3", volume, formatMoney(band.RatePerM3)),
		Charges:    map[string]float64{ChargeVolume: cost},
	}, nil
}

func (e *Engine) priceFlatMoving(req PriceRequest) Quote {
	d := req.DistanceKm
	rate := e.tables.FlatMoving
	q := Quote{
		Service:    ServiceMoving,
		DistanceKm: types.Round2(d),
		Unit:       "Moving",
		CostTotal:  types.Round2(rate.Base + d*rate.PerKm),
		Currency:   types.Currency,
		Breakdown: fmt.Sprintf("%s tarifa fija + %.2f km x %s/km",
			formatMoney(rate.Base), d, formatMoney(rate.PerKm)),
		Charges: map[string]float64{
			ChargeBaseFee:  rate.Base,
			ChargeDistance: types.Round2(d * rate.PerKm),
		},
	}
	return addManeuvers(q, req.ManeuverCost)
}

func addManeuvers(q Quote, amount float64) Quote {
	q.ManeuverCost = amount
	q.CostTotal = types.Round2(q.CostTotal + amount)
	q.Charges[ChargeManeuvers] = amount
	q.Breakdown += fmt.Sprintf(" + %s por maniobras", formatMoney(amount))
	return q
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
