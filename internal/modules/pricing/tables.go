// README: Rate tables (distance-banded per m3 and weight classes) with YAML overrides.
package pricing

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"
)

// DistanceBand covers (previous UpperKm, UpperKm]. The last band is unbounded.
type DistanceBand struct {
	UpperKm   float64
	Label     string
	RatePerM3 float64
}

// WeightBand covers (previous MaxTons, MaxTons]. The last band is unbounded.
type WeightBand struct {
	MaxTons float64
	Class   UnitClass
	BaseFee float64
	PerKm   float64
}

// FlatMovingRate is the alternative moving tariff: Base + km * PerKm.
type FlatMovingRate struct {
	Base  float64 `json:"base"`
	PerKm float64 `json:"per_km"`
}

// RateTables is the immutable tariff configuration handed to the Engine.
type RateTables struct {
	Distance      []DistanceBand `json:"distance_bands"`
	Weight        []WeightBand   `json:"weight_classes"`
	FlagDropKm    float64        `json:"flag_drop_km"`
	MaxWeightTons float64        `json:"max_weight_tons"`
	FlatMoving    FlatMovingRate `json:"moving_flat"`
}

func DefaultTables() RateTables {
	inf := math.Inf(1)
	return RateTables{
		Distance: []DistanceBand{
			{UpperKm: 400, Label: "0-400 km", RatePerM3: 2000},
			{UpperKm: 900, Label: "401-900 km", RatePerM3: 3500},
			{UpperKm: 1300, Label: "901-1300 km", RatePerM3: 5900},
			{UpperKm: 1700, Label: "1301-1700 km", RatePerM3: 7800},
			{UpperKm: 1999, Label: "1701-1999 km", RatePerM3: 8999},
			{UpperKm: inf, Label: "2000+ km", RatePerM3: 10500},
		},
		Weight: []WeightBand{
			{MaxTons: 1, Class: Unit1Ton, BaseFee: 2500, PerKm: 13},
			{MaxTons: 3, Class: Unit3Ton, BaseFee: 3000, PerKm: 15},
			{MaxTons: 5, Class: Unit5Ton, BaseFee: 3500, PerKm: 19},
			{MaxTons: inf, Class: Unit10Ton, BaseFee: 4000, PerKm: 23},
		},
		FlagDropKm:    50,
		MaxWeightTons: 10,
		FlatMoving:    FlatMovingRate{Base: 3500, PerKm: 9},
	}
}

// Validate checks that both tables are ordered, contiguous and exhaustive.
func (t RateTables) Validate() error {
	if len(t.Distance) == 0 {
		return fmt.Errorf("%w: distance table is empty", ErrInvalidTables)
	}
	prev := 0.0
	for i, b := range t.Distance {
		if !(b.UpperKm > prev) {
			return fmt.Errorf("%w: distance band %d upper bound %v is not above %v", ErrInvalidTables, i, b.UpperKm, prev)
		}
		if !(b.RatePerM3 > 0) {
			return fmt.Errorf("%w: distance band %d has non-positive rate", ErrInvalidTables, i)
		}
		prev = b.UpperKm
	}
	if !math.IsInf(prev, 1) {
		return fmt.Errorf("%w: last distance band must be unbounded", ErrInvalidTables)
	}

	if len(t.Weight) == 0 {
		return fmt.Errorf("%w: weight table is empty", ErrInvalidTables)
	}
	prev = 0
	seen := make(map[UnitClass]bool, len(t.Weight))
	for i, b := range t.Weight {
		if !(b.MaxTons > prev) {
			return fmt.Errorf("%w: weight band %d bound %v is not above %v", ErrInvalidTables, i, b.MaxTons, prev)
		}
		if b.Class == UnitNone || seen[b.Class] {
			return fmt.Errorf("%w: weight band %d has missing or duplicate unit class", ErrInvalidTables, i)
		}
		if !(b.BaseFee > 0) || b.PerKm < 0 {
			return fmt.Errorf("%w: weight band %d has invalid fees", ErrInvalidTables, i)
		}
		seen[b.Class] = true
		prev = b.MaxTons
	}
	if !math.IsInf(prev, 1) {
		return fmt.Errorf("%w: last weight band must be unbounded", ErrInvalidTables)
	}

	if t.FlagDropKm < 0 || !(t.MaxWeightTons > 0) {
		return fmt.Errorf("%w: flag-drop distance and max weight must be positive", ErrInvalidTables)
	}
	if t.FlatMoving.Base < 0 || t.FlatMoving.PerKm < 0 {
		return fmt.Errorf("%w: flat moving rate must not be negative", ErrInvalidTables)
	}
	return nil
}

// DistanceBandFor returns the first band whose upper bound is >= km.
func (t RateTables) DistanceBandFor(km float64) (DistanceBand, bool) {
	for _, b := range t.Distance {
		if km <= b.UpperKm {
			return b, true
		}
	}
	return DistanceBand{}, false
}

// WeightBandFor returns the first band whose bound is >= tons.
func (t RateTables) WeightBandFor(tons float64) (WeightBand, bool) {
	for _, b := range t.Weight {
		if tons <= b.MaxTons {
			return b, true
		}
	}
	return WeightBand{}, false
}

func (t RateTables) clone() RateTables {
	c := t
	c.Distance = append([]DistanceBand(nil), t.Distance...)
	c.Weight = append([]WeightBand(nil), t.Weight...)
	return c
}

// ---------------------------------------------------------------------------
// YAML / JSON encoding. A null bound means unbounded.
// ---------------------------------------------------------------------------

type tablesFile struct {
	FlagDropKm    *float64 `yaml:"flag_drop_km"`
	MaxWeightTons *float64 `yaml:"max_weight_tons"`
	FlatMoving    *struct {
		Base  float64 `yaml:"base"`
		PerKm float64 `yaml:"per_km"`
	} `yaml:"moving_flat"`
	DistanceBands []struct {
		UpperKm   *float64 `yaml:"upper_km"`
		Label     string   `yaml:"label"`
		RatePerM3 float64  `yaml:"rate_per_m3"`
	} `yaml:"distance_bands"`
	WeightClasses []struct {
		MaxTons *float64  `yaml:"max_tons"`
		Unit    UnitClass `yaml:"unit"`
		BaseFee float64   `yaml:"base_fee"`
		PerKm   float64   `yaml:"per_km"`
	} `yaml:"weight_classes"`
}

// LoadTables reads a YAML override on top of DefaultTables. Sections absent
// from the document keep their defaults.
func LoadTables(r io.Reader) (RateTables, error) {
	var f tablesFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return RateTables{}, fmt.Errorf("decoding rate tables: %w", err)
	}

	t := DefaultTables()
	if f.FlagDropKm != nil {
		t.FlagDropKm = *f.FlagDropKm
	}
	if f.MaxWeightTons != nil {
		t.MaxWeightTons = *f.MaxWeightTons
	}
	if f.FlatMoving != nil {
		t.FlatMoving = FlatMovingRate{Base: f.FlatMoving.Base, PerKm: f.FlatMoving.PerKm}
	}
	if len(f.DistanceBands) > 0 {
		t.Distance = make([]DistanceBand, len(f.DistanceBands))
		for i, b := range f.DistanceBands {
			t.Distance[i] = DistanceBand{UpperKm: boundOrInf(b.UpperKm), Label: b.Label, RatePerM3: b.RatePerM3}
		}
	}
	if len(f.WeightClasses) > 0 {
		t.Weight = make([]WeightBand, len(f.WeightClasses))
		for i, b := range f.WeightClasses {
			t.Weight[i] = WeightBand{MaxTons: boundOrInf(b.MaxTons), Class: b.Unit, BaseFee: b.BaseFee, PerKm: b.PerKm}
		}
	}

	if err := t.Validate(); err != nil {
		return RateTables{}, err
	}
	return t, nil
}

func boundOrInf(v *float64) float64 {
	if v == nil {
		return math.Inf(1)
	}
	return *v
}

func infOrNil(v float64) *float64 {
	if math.IsInf(v, 1) {
		return nil
	}
	return &v
}

func (b DistanceBand) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		UpperKm   *float64 `json:"upper_km"`
		Label     string   `json:"label"`
		RatePerM3 float64  `json:"rate_per_m3"`
	}{infOrNil(b.UpperKm), b.Label, b.RatePerM3})
}

func (b WeightBand) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MaxTons *float64  `json:"max_tons"`
		Unit    UnitClass `json:"unit"`
		BaseFee float64   `json:"base_fee"`
		PerKm   float64   `json:"per_km"`
	}{infOrNil(b.MaxTons), b.Class, b.BaseFee, b.PerKm})
}
