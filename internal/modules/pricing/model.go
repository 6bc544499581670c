// README: Service types, unit classes and the quote produced by the pricing engine.
package pricing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrIdenticalEndpoints = errors.New("origin and destination are identical")
	ErrInvalidTables      = errors.New("invalid rate tables")
)

type ServiceType string

const (
	ServiceFTL    ServiceType = "FTL"
	ServiceLTL    ServiceType = "LTL"
	ServiceMoving ServiceType = "MOVING"
)

// ParseServiceType accepts the canonical codes plus the Spanish "mudanza".
func ParseServiceType(s string) (ServiceType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FTL", "FULL_TRUCKLOAD":
		return ServiceFTL, nil
	case "LTL", "CONSOLIDATED":
		return ServiceLTL, nil
	case "MOVING", "MUDANZA":
		return ServiceMoving, nil
	}
	return "", fmt.Errorf("%w: unknown service type %q", ErrInvalidInput, s)
}

// UnitClass is the truck class selected by cargo weight.
type UnitClass int

const (
	UnitNone UnitClass = iota
	Unit1Ton
	Unit3Ton
	Unit5Ton
	Unit10Ton
)

func (u UnitClass) String() string {
	switch u {
	case Unit1Ton:
		return "1 Ton"
	case Unit3Ton:
		return "3 Ton"
	case Unit5Ton:
		return "5 Ton"
	case Unit10Ton:
		return "10 Ton"
	}
	return "none"
}

func (u UnitClass) MarshalText() ([]byte, error) {
	if u == UnitNone {
		return nil, fmt.Errorf("%w: unit class not set", ErrInvalidTables)
	}
	return []byte(u.String()), nil
}

func (u *UnitClass) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.ReplaceAll(string(b), " ", "")) {
	case "1ton":
		*u = Unit1Ton
	case "3ton":
		*u = Unit3Ton
	case "5ton":
		*u = Unit5Ton
	case "10ton":
		*u = Unit10Ton
	default:
		return fmt.Errorf("%w: unknown unit class %q", ErrInvalidTables, string(b))
	}
	return nil
}

// MovingPolicy selects how moving service is priced.
type MovingPolicy string

const (
	// MovingWeightClass prices moving like FTL plus the maneuver surcharge.
	MovingWeightClass MovingPolicy = "weight_class"
	// MovingFlatRate prices moving as a flat fee plus a per-km rate over the whole route.
	MovingFlatRate MovingPolicy = "flat_rate"
)

func ParseMovingPolicy(s string) (MovingPolicy, error) {
	switch MovingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case MovingWeightClass:
		return MovingWeightClass, nil
	case MovingFlatRate:
		return MovingFlatRate, nil
	}
	return "", fmt.Errorf("%w: unknown moving policy %q", ErrInvalidInput, s)
}

// PriceRequest carries the service-specific inputs. Fields not used by the
// selected service are ignored.
type PriceRequest struct {
	Service      ServiceType
	DistanceKm   float64
	WeightTons   float64
	LengthCm     float64
	WidthCm      float64
	HeightCm     float64
	ManeuverCost float64
	// MovingPolicy overrides the engine default for moving service.
	MovingPolicy MovingPolicy
}

// Quote is the engine output. Money and distance are rounded to 2 decimals.
type Quote struct {
	Service      ServiceType        `json:"service"`
	DistanceKm   float64            `json:"distance_km"`
	Unit         string             `json:"unit"`
	WeightTons   float64            `json:"weight_tons,omitempty"`
	VolumeM3     float64            `json:"volume_m3,omitempty"`
	ManeuverCost float64            `json:"maneuver_cost,omitempty"`
	CostTotal    float64            `json:"cost_total"`
	Currency     string             `json:"currency"`
	Breakdown    string             `json:"breakdown"`
	Charges      map[string]float64 `json:"charges"`
}

// Charge keys used in Quote.Charges.
const (
	ChargeBaseFee   = "base_fee"
	ChargeDistance  = "distance"
	ChargeVolume    = "volume"
	ChargeManeuvers = "maneuvers"
)
