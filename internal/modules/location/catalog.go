// README: In-memory municipality catalog loaded from the municipalities CSV.
package location

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"cotizador/internal/modules/geo"
	"cotizador/internal/types"
)

// Column names accepted in the CSV header (case-insensitive).
var columnAliases = map[string]string{
	"estado":    "state",
	"state":     "state",
	"ciudad":    "city",
	"municipio": "city",
	"city":      "city",
	"latitud":   "lat",
	"latitude":  "lat",
	"lat":       "lat",
	"longitud":  "lng",
	"longitude": "lng",
	"lng":       "lng",
	"lon":       "lng",
}

// Catalog is read-only after LoadCatalog and safe for concurrent use.
type Catalog struct {
	items  []Municipality
	byKey  map[string]int
	byCity map[string][]int
	// Skipped counts rows dropped for bad or out-of-territory coordinates.
	Skipped int
}

// LoadCatalog parses a municipalities CSV. Input that is not valid UTF-8 is
// decoded as Latin-1. Rows with missing, unparsable or out-of-territory
// coordinates are skipped.
func LoadCatalog(r io.Reader, territory geo.Territory) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))
	if !utf8.Valid(raw) {
		raw, err = charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding latin-1 catalog: %w", err)
		}
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading catalog header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		if name, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			cols[name] = i
		}
	}
	for _, want := range []string{"state", "city", "lat", "lng"} {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("catalog header is missing a %s column", want)
		}
	}

	c := &Catalog{byKey: map[string]int{}, byCity: map[string][]int{}}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading catalog row: %w", err)
		}
		m, ok := parseRow(rec, cols)
		if !ok || !territory.Contains(m.Point) {
			c.Skipped++
			continue
		}
		c.add(m)
	}
	return c, nil
}

// NewCatalog builds a catalog from already-resolved municipalities.
func NewCatalog(items []Municipality) *Catalog {
	c := &Catalog{byKey: map[string]int{}, byCity: map[string][]int{}}
	for _, m := range items {
		c.add(m)
	}
	return c
}

func parseRow(rec []string, cols map[string]int) (Municipality, bool) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	lat, err := strconv.ParseFloat(field("lat"), 64)
	if err != nil {
		return Municipality{}, false
	}
	lng, err := strconv.ParseFloat(field("lng"), 64)
	if err != nil {
		return Municipality{}, false
	}
	city := CleanText(field("city"))
	if city == "" {
		return Municipality{}, false
	}
	return Municipality{
		City:  city,
		State: CleanText(field("state")),
		Point: types.Point{Lat: lat, Lng: lng},
	}, true
}

// add keeps the first occurrence of a duplicated city/state pair.
func (c *Catalog) add(m Municipality) {
	key := catalogKey(m.City, m.State)
	if _, dup := c.byKey[key]; dup {
		return
	}
	c.items = append(c.items, m)
	idx := len(c.items) - 1
	c.byKey[key] = idx
	city := NormalizeKey(m.City)
	c.byCity[city] = append(c.byCity[city], idx)
}

func catalogKey(city, state string) string {
	return NormalizeKey(city) + "|" + NormalizeKey(state)
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// Lookup matches city and state ignoring case and accents. An empty state
// returns the first municipality with that city name.
func (c *Catalog) Lookup(city, state string) (Municipality, bool) {
	if strings.TrimSpace(state) == "" {
		idx := c.byCity[NormalizeKey(city)]
		if len(idx) == 0 {
			return Municipality{}, false
		}
		return c.items[idx[0]], true
	}
	i, ok := c.byKey[catalogKey(city, state)]
	if !ok {
		return Municipality{}, false
	}
	return c.items[i], true
}

// LookupLabel resolves a "City (State)" label.
func (c *Catalog) LookupLabel(label string) (Municipality, bool) {
	return c.Lookup(SplitLabel(label))
}

// Search returns up to limit municipalities whose label contains query,
// prefix matches first, in catalog order.
func (c *Catalog) Search(query string, limit int) []Municipality {
	q := NormalizeKey(query)
	if limit <= 0 {
		return nil
	}
	var prefix, contains []Municipality
scan:
	for _, m := range c.items {
		label := NormalizeKey(m.Label())
		switch {
		case strings.HasPrefix(label, q):
			prefix = append(prefix, m)
		case strings.Contains(label, q):
			contains = append(contains, m)
		}
		if len(prefix) >= limit {
			break scan
		}
	}
	out := append(prefix, contains...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Nearby is a municipality with its distance from a queried point.
type Nearby struct {
	Municipality
	DistanceKm float64 `json:"distance_km"`
}

// Nearest returns up to limit municipalities closest to p, closest first.
func (c *Catalog) Nearest(p types.Point, limit int) []Nearby {
	if limit <= 0 {
		return nil
	}
	var best []Nearby
	for _, m := range c.items {
		d := geo.HaversineKm(p.Lat, p.Lng, m.Point.Lat, m.Point.Lng)
		if len(best) == limit && d >= best[limit-1].DistanceKm {
			continue
		}
		if len(best) < limit {
			best = append(best, Nearby{Municipality: m, DistanceKm: d})
		} else {
			best[limit-1] = Nearby{Municipality: m, DistanceKm: d}
		}
		sortByDistance(best, func(n Nearby) float64 { return n.DistanceKm })
	}
	for i := range best {
		best[i].DistanceKm = types.Round2(best[i].DistanceKm)
	}
	return best
}

// sortByDistance performs an insertion sort (fine for small N) on any slice
// where each element exposes a distance via the accessor function.
func sortByDistance[T any](items []T, dist func(T) float64) {
	for i := 1; i < len(items); i++ {
		key := items[i]
		j := i - 1
		for j >= 0 && dist(items[j]) > dist(key) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
}
