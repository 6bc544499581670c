// README: Geocode cache backed by Redis.
package location

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const geocodeKeyPrefix = "geocode:"

type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(redis *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: redis, ttl: ttl}
}

// GetMunicipality returns a cached geocode result and whether it was found.
func (s *Store) GetMunicipality(ctx context.Context, place string) (Municipality, bool, error) {
	val, err := s.redis.Get(ctx, geocodeKey(place)).Result()
	if err == redis.Nil {
		return Municipality{}, false, nil
	}
	if err != nil {
		return Municipality{}, false, err
	}
	var m Municipality
	if err := json.Unmarshal([]byte(val), &m); err != nil {
		return Municipality{}, false, err
	}
	return m, true, nil
}

func (s *Store) SetMunicipality(ctx context.Context, place string, m Municipality) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, geocodeKey(place), b, s.ttl).Err()
}

func geocodeKey(place string) string {
	return geocodeKeyPrefix + NormalizeKey(place)
}
