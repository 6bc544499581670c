// README: Entry point; loads config, wires catalog, pricing, storage and integrations, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"cotizador/internal/ai"
	"cotizador/internal/config"
	httptransport "cotizador/internal/http"
	"cotizador/internal/infra"
	"cotizador/internal/maps"
	"cotizador/internal/modules/geo"
	"cotizador/internal/modules/intake"
	"cotizador/internal/modules/location"
	"cotizador/internal/modules/pricing"
	"cotizador/internal/modules/quote"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dbPool *pgxpool.Pool
	if cfg.DB.DSN != "" {
		dbPool, err = infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			log.Fatal(err)
		}
		defer dbPool.Close()
		if cfg.DB.MigrationsDir != "" {
			if err := infra.ApplyMigrations(ctx, dbPool, cfg.DB.MigrationsDir); err != nil {
				log.Fatalf("migrations: %v", err)
			}
		}
	} else {
		log.Printf("QUOTE_DB_DSN not set; quotes are not persisted")
	}

	var cache location.Cache
	if cfg.Redis.Addr != "" {
		redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Fatal(err)
		}
		defer redisClient.Close()
		cache = location.NewStore(redisClient, cfg.Geocode.CacheTTL)
	}

	var geocoder location.Geocoder
	if cfg.Geocode.MapsAPIKey != "" {
		gs, err := maps.NewGeocodeService(cfg.Geocode.MapsAPIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		geocoder = gs
	}

	catalog := loadCatalog(cfg.Catalog.CSV)

	tables := pricing.DefaultTables()
	if cfg.Pricing.RatesFile != "" {
		f, err := os.Open(cfg.Pricing.RatesFile)
		if err != nil {
			log.Fatal(err)
		}
		tables, err = pricing.LoadTables(f)
		f.Close()
		if err != nil {
			log.Fatal(err)
		}
	}
	engine, err := pricing.NewEngine(tables, pricing.WithMovingPolicy(cfg.Pricing.MovingPolicy))
	if err != nil {
		log.Fatal(err)
	}

	locationSvc := location.NewService(catalog, cache, geocoder, geo.Mexico)

	var quoteStore quote.Repository
	if dbPool != nil {
		quoteStore = quote.NewStore(dbPool)
	}
	quoteSvc := quote.NewService(engine, locationSvc, quoteStore)

	var intakeSvc *intake.Service
	if cfg.AI.GeminiKey != "" {
		provider, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Fatalf("gemini init: %v", err)
		}
		defer provider.Close()
		var quota intake.Quota
		if dbPool != nil {
			quota = intake.NewStore(dbPool, cfg.AI.MonthlyTokens)
		}
		intakeSvc = intake.NewService(quota, provider, quoteSvc)
	}

	var verifier infra.TokenVerifier
	if cfg.Firebase.ProjectID != "" {
		verifier, err = infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, cfg.Firebase.CheckRevoked)
		if err != nil {
			log.Fatalf("firebase init: %v", err)
		}
	} else {
		log.Printf("QUOTE_FIREBASE_PROJECT_ID not set; /api is unauthenticated")
	}

	server := httptransport.NewServer(cfg.HTTP.Addr, httptransport.ServerDeps{
		Quotes:   quoteSvc,
		Location: locationSvc,
		Intake:   intakeSvc,
		Verifier: verifier,
	})
	if err := server.Run(ctx); err != nil {
		log.Fatal(err)
	}
}

// loadCatalog starts with an empty catalog when the CSV is missing.
func loadCatalog(path string) *location.Catalog {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("catalog %s not found; only geocoded places resolve", path)
		return location.NewCatalog(nil)
	}
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	catalog, err := location.LoadCatalog(f, geo.Mexico)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("catalog %s: %d municipalities, %d rows skipped", path, catalog.Len(), catalog.Skipped)
	return catalog
}
