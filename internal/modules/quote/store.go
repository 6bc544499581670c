// README: Quote store backed by PostgreSQL.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cotizador/internal/modules/pricing"
	"cotizador/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const selectColumns = `
	id, created_at, client, service,
	origin_city, origin_state, origin_lat, origin_lng,
	destination_city, destination_state, destination_lat, destination_lng,
	distance_km, unit, weight_tons, volume_m3, maneuver_cost,
	cost_total, currency, breakdown, charges,
	observations, COALESCE(to_char(service_date, 'YYYY-MM-DD'), '')`

func (s *Store) Create(ctx context.Context, r *Record) error {
	charges, err := json.Marshal(r.Quote.Charges)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO quotes (
			id, created_at, client, service,
			origin_city, origin_state, origin_lat, origin_lng,
			destination_city, destination_state, destination_lat, destination_lng,
			distance_km, unit, weight_tons, volume_m3, maneuver_cost,
			cost_total, currency, breakdown, charges,
			observations, service_date
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20, $21::jsonb,
			$22, NULLIF($23, '')::date
		)`,
		string(r.ID), r.CreatedAt, r.Client, string(r.Quote.Service),
		r.Origin.City, r.Origin.State, r.Origin.Point.Lat, r.Origin.Point.Lng,
		r.Destination.City, r.Destination.State, r.Destination.Point.Lat, r.Destination.Point.Lng,
		r.Quote.DistanceKm, r.Quote.Unit, r.Quote.WeightTons, r.Quote.VolumeM3, r.Quote.ManeuverCost,
		r.Quote.CostTotal, r.Quote.Currency, r.Quote.Breakdown, string(charges),
		r.Observations, r.ServiceDate,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Record, error) {
	row := s.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM quotes WHERE id = $1`, string(id))
	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// List returns up to limit records, newest first. An empty client matches all.
func (s *Store) List(ctx context.Context, client string, limit int) ([]Record, error) {
	rows, err := s.db.Query(ctx, `SELECT `+selectColumns+`
		FROM quotes
		WHERE $1 = '' OR lower(client) = lower($1)
		ORDER BY created_at DESC
		LIMIT $2`, client, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	var id, service string
	var charges []byte
	err := row.Scan(
		&id, &r.CreatedAt, &r.Client, &service,
		&r.Origin.City, &r.Origin.State, &r.Origin.Point.Lat, &r.Origin.Point.Lng,
		&r.Destination.City, &r.Destination.State, &r.Destination.Point.Lat, &r.Destination.Point.Lng,
		&r.Quote.DistanceKm, &r.Quote.Unit, &r.Quote.WeightTons, &r.Quote.VolumeM3, &r.Quote.ManeuverCost,
		&r.Quote.CostTotal, &r.Quote.Currency, &r.Quote.Breakdown, &charges,
		&r.Observations, &r.ServiceDate,
	)
	if err != nil {
		return nil, err
	}
	r.ID = types.ID(id)
	r.Quote.Service = pricing.ServiceType(service)
	if len(charges) > 0 {
		if err := json.Unmarshal(charges, &r.Quote.Charges); err != nil {
			return nil, fmt.Errorf("decoding charges for quote %s: %w", id, err)
		}
	}
	return &r, nil
}
