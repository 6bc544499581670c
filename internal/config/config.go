// README: Config loader with env defaults for HTTP, storage, catalog, pricing and integrations.
package config

import (
	"os"
	"strconv"
	"time"

	"cotizador/internal/modules/pricing"
)

type PricingConfig struct {
	// RatesFile is an optional YAML override of the default rate tables.
	RatesFile    string
	MovingPolicy pricing.MovingPolicy
}

type Config struct {
	HTTP struct {
		Addr string
	}
	// Empty DSN or address disables the quote store or the geocode cache.
	DB struct {
		DSN           string
		MigrationsDir string
	}
	Redis struct {
		Addr string
	}
	Catalog struct {
		CSV string
	}
	Pricing PricingConfig
	Geocode struct {
		MapsAPIKey string
		CacheTTL   time.Duration
	}
	AI struct {
		GeminiKey     string
		MonthlyTokens int
	}
	Firebase struct {
		ProjectID       string
		CredentialsFile string
		CheckRevoked    bool
	}
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("QUOTE_HTTP_ADDR", ":8080")
	cfg.DB.DSN = os.Getenv("QUOTE_DB_DSN")
	cfg.DB.MigrationsDir = os.Getenv("QUOTE_MIGRATIONS_DIR")
	cfg.Redis.Addr = os.Getenv("QUOTE_REDIS_ADDR")
	cfg.Catalog.CSV = envOrDefault("QUOTE_CATALOG_CSV", "municipios_mexico.csv")
	cfg.Pricing.RatesFile = os.Getenv("QUOTE_RATES_FILE")
	cfg.Geocode.MapsAPIKey = os.Getenv("QUOTE_MAPS_API_KEY")
	cfg.Geocode.CacheTTL = envOrDefaultDuration("QUOTE_GEOCODE_CACHE_TTL", 24*time.Hour)
	cfg.AI.GeminiKey = os.Getenv("GEMINI_API_KEY")
	cfg.AI.MonthlyTokens = envOrDefaultInt("QUOTE_INTAKE_MONTHLY_TOKENS", 100)
	cfg.Firebase.ProjectID = os.Getenv("QUOTE_FIREBASE_PROJECT_ID")
	cfg.Firebase.CredentialsFile = os.Getenv("QUOTE_FIREBASE_CREDENTIALS")
	cfg.Firebase.CheckRevoked = envOrDefaultBool("QUOTE_FIREBASE_CHECK_REVOKED", false)

	policy, err := pricing.ParseMovingPolicy(envOrDefault("QUOTE_MOVING_POLICY", string(pricing.MovingWeightClass)))
	if err != nil {
		return Config{}, err
	}
	cfg.Pricing.MovingPolicy = policy
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
