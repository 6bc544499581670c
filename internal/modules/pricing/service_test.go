package pricing

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"cotizador/internal/modules/geo"
	"cotizador/internal/types"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultTables(), opts...)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestEngine_Price(t *testing.T) {
	tests := []struct {
		name          string
		req           PriceRequest
		wantUnit      string
		wantCost      float64
		wantBreakdown string
	}{
		{
			name:          "Flag-drop boundary (50.00 km, 1 Ton)",
			req:           PriceRequest{Service: ServiceFTL, DistanceKm: 50, WeightTons: 1},
			wantUnit:      "1 Ton",
			wantCost:      2500,
			wantBreakdown: "Banderazo para 1 Ton (50.00 km, <=50 km)",
		},
		{
			name:          "FTL 1 t over 150 km",
			req:           PriceRequest{Service: ServiceFTL, DistanceKm: 150, WeightTons: 1},
			wantUnit:      "1 Ton",
			wantCost:      3800, // 2500 + 100*13
			wantBreakdown: "$2,500.00 (banderazo hasta 50 km) + 100.00 km x $13.00/km",
		},
		{
			name:     "FTL heavy load over 1000 km",
			req:      PriceRequest{Service: ServiceFTL, DistanceKm: 1000, WeightTons: 8},
			wantUnit: "10 Ton",
			wantCost: 25850, // 4000 + 950*23
		},
		{
			name:     "FTL ignores maneuver cost",
			req:      PriceRequest{Service: ServiceFTL, DistanceKm: 10, WeightTons: 4, ManeuverCost: 900},
			wantUnit: "5 Ton",
			wantCost: 3500,
		},
		{
			name:          "LTL 1 m3 over 500 km",
			req:           PriceRequest{Service: ServiceLTL, DistanceKm: 500, LengthCm: 100, WidthCm: 100, HeightCm: 100},
			wantUnit:      "401-900 km",
			wantCost:      3500,
			wantBreakdown: "1.0000 m3 x $3,500.00/m3",
		},
		{
			name:     "LTL 1.44 m3 over 1500 km",
			req:      PriceRequest{Service: ServiceLTL, DistanceKm: 1500, LengthCm: 120, WidthCm: 80, HeightCm: 150},
			wantUnit: "1301-1700 km",
			wantCost: 11232, // 1.44*7800
		},
		{
			name:     "LTL small parcel rounds to centavos",
			req:      PriceRequest{Service: ServiceLTL, DistanceKm: 10, LengthCm: 33, WidthCm: 21, HeightCm: 17},
			wantUnit: "0-400 km",
			wantCost: 23.56, // 0.011781 m3 * 2000 = 23.562
		},
		{
			name:          "Moving 2 t over 30 km with maneuvers",
			req:           PriceRequest{Service: ServiceMoving, DistanceKm: 30, WeightTons: 2, ManeuverCost: 500},
			wantUnit:      "3 Ton",
			wantCost:      3500, // 3000 + 500
			wantBreakdown: "Banderazo para 3 Ton (30.00 km, <=50 km) + $500.00 por maniobras",
		},
		{
			name:     "Moving without maneuvers defaults to zero surcharge",
			req:      PriceRequest{Service: ServiceMoving, DistanceKm: 250, WeightTons: 5},
			wantUnit: "5 Ton",
			wantCost: 7300, // 3500 + 200*19
		},
		{
			name:          "Moving flat-rate policy",
			req:           PriceRequest{Service: ServiceMoving, DistanceKm: 30, ManeuverCost: 100, MovingPolicy: MovingFlatRate},
			wantUnit:      "Moving",
			wantCost:      3870, // 3500 + 30*9 + 100
			wantBreakdown: "$3,500.00 tarifa fija + 30.00 km x $9.00/km + $100.00 por maniobras",
		},
	}

	e := newTestEngine(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Price(tt.req)
			if err != nil {
				t.Fatalf("Price() error = %v", err)
			}
			if got.Unit != tt.wantUnit {
				t.Errorf("Price() unit = %q, want %q", got.Unit, tt.wantUnit)
			}
			if got.CostTotal != tt.wantCost {
				t.Errorf("Price() cost = %v, want %v", got.CostTotal, tt.wantCost)
			}
			if tt.wantBreakdown != "" && got.Breakdown != tt.wantBreakdown {
				t.Errorf("Price() breakdown = %q, want %q", got.Breakdown, tt.wantBreakdown)
			}
			if got.Currency != "MXN" {
				t.Errorf("Price() currency = %q", got.Currency)
			}
		})
	}
}

func TestEngine_LTLBandBoundaries(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		km   float64
		want float64
	}{
		{0, 2000},
		{400.00, 2000},
		{400.01, 3500},
		// Banding uses the raw distance: 400.004 reports as 400.00 but is past the edge.
		{400.004, 3500},
		{900, 3500},
		{900.5, 5900},
		{1300, 5900},
		{1700, 7800},
		{1999, 8999},
		{1999.5, 10500},
		{2000, 10500},
		{5000, 10500},
	}
	for _, tt := range tests {
		got, err := e.Price(PriceRequest{Service: ServiceLTL, DistanceKm: tt.km, LengthCm: 100, WidthCm: 100, HeightCm: 100})
		if err != nil {
			t.Fatalf("Price(%v km) error = %v", tt.km, err)
		}
		if got.CostTotal != tt.want {
			t.Errorf("Price(%v km) = %v, want %v", tt.km, got.CostTotal, tt.want)
		}
	}
}

func TestEngine_WeightClassBoundaries(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		tons float64
		want string
	}{
		{0.01, "1 Ton"},
		{1, "1 Ton"},
		{1.0001, "3 Ton"},
		{3, "3 Ton"},
		{5, "5 Ton"},
		{5.01, "10 Ton"},
		{10, "10 Ton"},
	}
	for _, tt := range tests {
		got, err := e.Price(PriceRequest{Service: ServiceFTL, DistanceKm: 10, WeightTons: tt.tons})
		if err != nil {
			t.Fatalf("Price(%v t) error = %v", tt.tons, err)
		}
		if got.Unit != tt.want {
			t.Errorf("Price(%v t) unit = %q, want %q", tt.tons, got.Unit, tt.want)
		}
	}
}

func TestEngine_InvalidInput(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name string
		req  PriceRequest
	}{
		{name: "zero weight", req: PriceRequest{Service: ServiceFTL, DistanceKm: 10}},
		{name: "negative weight", req: PriceRequest{Service: ServiceFTL, DistanceKm: 10, WeightTons: -1}},
		{name: "weight above 10 t", req: PriceRequest{Service: ServiceFTL, DistanceKm: 10, WeightTons: 10.5}},
		{name: "NaN weight", req: PriceRequest{Service: ServiceMoving, DistanceKm: 10, WeightTons: math.NaN()}},
		{name: "zero dimension", req: PriceRequest{Service: ServiceLTL, DistanceKm: 10, LengthCm: 100, WidthCm: 0, HeightCm: 100}},
		{name: "negative dimension", req: PriceRequest{Service: ServiceLTL, DistanceKm: 10, LengthCm: -5, WidthCm: 10, HeightCm: 10}},
		{name: "negative maneuver cost", req: PriceRequest{Service: ServiceMoving, DistanceKm: 10, WeightTons: 1, ManeuverCost: -1}},
		{name: "negative distance", req: PriceRequest{Service: ServiceFTL, DistanceKm: -1, WeightTons: 1}},
		{name: "infinite distance", req: PriceRequest{Service: ServiceFTL, DistanceKm: math.Inf(1), WeightTons: 1}},
		{name: "unknown service", req: PriceRequest{Service: "AIR", DistanceKm: 10, WeightTons: 1}},
		{name: "unknown moving policy", req: PriceRequest{Service: ServiceMoving, DistanceKm: 10, WeightTons: 1, MovingPolicy: "hourly"}},
		{name: "volume overflows", req: PriceRequest{Service: ServiceLTL, DistanceKm: 10, LengthCm: 1e120, WidthCm: 1e120, HeightCm: 1e120}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Price(tt.req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestEngine_LargeManeuverCostStaysEncodable(t *testing.T) {
	e := newTestEngine(t)
	got, err := e.Price(PriceRequest{Service: ServiceMoving, DistanceKm: 30, WeightTons: 2, ManeuverCost: 1e307})
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if math.IsInf(got.CostTotal, 0) || got.CostTotal != 1e307 {
		t.Errorf("CostTotal = %v, want 1e307", got.CostTotal)
	}
	if _, err := json.Marshal(got); err != nil {
		t.Errorf("json.Marshal() error = %v", err)
	}
}

func TestEngine_DefaultMovingPolicy(t *testing.T) {
	e := newTestEngine(t, WithMovingPolicy(MovingFlatRate))
	got, err := e.Price(PriceRequest{Service: ServiceMoving, DistanceKm: 100})
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if got.CostTotal != 4400 { // 3500 + 100*9
		t.Errorf("Price() = %v, want 4400", got.CostTotal)
	}

	// An explicit request policy wins over the engine default.
	got, err = e.Price(PriceRequest{Service: ServiceMoving, DistanceKm: 100, WeightTons: 1, MovingPolicy: MovingWeightClass})
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if got.CostTotal != 3150 { // 2500 + 50*13
		t.Errorf("Price() = %v, want 3150", got.CostTotal)
	}

	if _, err := NewEngine(DefaultTables(), WithMovingPolicy("hourly")); err == nil {
		t.Error("expected error for unknown default moving policy")
	}
}

func TestEngine_Route(t *testing.T) {
	e := newTestEngine(t)
	cdmx := types.Point{Lat: 19.4326, Lng: -99.1332}
	puebla := types.Point{Lat: 19.0414, Lng: -98.2063}

	q, err := e.Route(cdmx, puebla, PriceRequest{Service: ServiceFTL, WeightTons: 2})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	wantKm := types.Round2(geo.HaversineKm(cdmx.Lat, cdmx.Lng, puebla.Lat, puebla.Lng))
	if q.DistanceKm != wantKm {
		t.Errorf("Route() distance = %v, want %v", q.DistanceKm, wantKm)
	}
	if q.Unit != "3 Ton" || q.CostTotal <= 3000 {
		t.Errorf("Route() = %+v", q)
	}

	if _, err := e.Route(cdmx, cdmx, PriceRequest{Service: ServiceFTL, WeightTons: 2}); !errors.Is(err, ErrIdenticalEndpoints) {
		t.Errorf("expected ErrIdenticalEndpoints, got %v", err)
	}

	_, err = e.Route(types.Point{Lat: 40, Lng: -100}, puebla, PriceRequest{Service: ServiceFTL, WeightTons: 2})
	if !errors.Is(err, geo.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestNewEngine_CopiesTables(t *testing.T) {
	tables := DefaultTables()
	e, err := NewEngine(tables)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	tables.Distance[0].RatePerM3 = 1
	got := e.Tables()
	if got.Distance[0].RatePerM3 != 2000 {
		t.Errorf("engine tables changed after caller mutation: %v", got.Distance[0].RatePerM3)
	}
}

func TestParseServiceType(t *testing.T) {
	tests := map[string]ServiceType{"ftl": ServiceFTL, " LTL ": ServiceLTL, "Mudanza": ServiceMoving, "moving": ServiceMoving}
	for in, want := range tests {
		got, err := ParseServiceType(in)
		if err != nil || got != want {
			t.Errorf("ParseServiceType(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseServiceType("rail"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
