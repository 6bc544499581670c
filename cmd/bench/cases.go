// README: Check cases for the quote API, its Postgres schema and the Redis cache.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"cotizador/internal/infra"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Status  string
	Latency time.Duration
	Note    string
}

type Case struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
			defer db.Close()
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
		defer r.redis.Close()
	}

	cases := r.cases()
	results := make([]Result, 0, len(cases))
	for _, tc := range cases {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}
	return results
}

var sampleQuote = map[string]any{
	"client":      "bench",
	"service":     "FTL",
	"origin":      "Ciudad de Mexico (Ciudad de Mexico)",
	"destination": "Puebla (Puebla)",
	"weight_tons": 2.5,
}

func (r *Runner) cases() []Case {
	base := r.cfg.BaseURL
	return []Case{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: apply (optional)",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration || r.db == nil {
					return Result{Status: statusSkip, Note: "apply-migration=false or no db"}
				}
				if err := infra.ApplyMigrations(ctx, r.db, r.cfg.MigrationsDir); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: tables exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "db not configured"}
				}
				for _, t := range []string{"quotes", "intake_usage"} {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)", t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: statusFail, Note: "missing table: " + t}
					}
				}
				return Result{Status: statusPass}
			},
		},

		httpCase("API: health", http.MethodGet, base+"/health", nil, http.StatusOK),
		httpCase("API: rate tables", http.MethodGet, base+"/api/rates", nil, http.StatusOK),
		httpCase("API: municipality search", http.MethodGet, base+"/api/municipalities?q=mon&limit=5", nil, http.StatusOK),
		httpCase("Quote: FTL (valid)", http.MethodPost, base+"/api/quotes", sampleQuote, http.StatusCreated),
		httpCase("Quote: LTL (valid)", http.MethodPost, base+"/api/quotes", map[string]any{
			"service":     "LTL",
			"origin":      "Monterrey (Nuevo Leon)",
			"destination": "Guadalajara (Jalisco)",
			"length_cm":   120,
			"width_cm":    100,
			"height_cm":   150,
		}, http.StatusCreated),
		httpCase("Quote: identical endpoints -> 400", http.MethodPost, base+"/api/quotes", map[string]any{
			"service":     "FTL",
			"origin":      "Puebla (Puebla)",
			"destination": "Puebla (Puebla)",
			"weight_tons": 1,
		}, http.StatusBadRequest),
		httpCase("Quote: overweight -> 400", http.MethodPost, base+"/api/quotes", map[string]any{
			"service":     "FTL",
			"origin":      "Ciudad de Mexico (Ciudad de Mexico)",
			"destination": "Puebla (Puebla)",
			"weight_tons": 12,
		}, http.StatusBadRequest),
		httpCase("Quote: unknown municipality -> 404", http.MethodPost, base+"/api/quotes", map[string]any{
			"service":     "FTL",
			"origin":      "Atlantida (Mar)",
			"destination": "Puebla (Puebla)",
			"weight_tons": 1,
		}, http.StatusNotFound),
		httpCase("Quote: list", http.MethodGet, base+"/api/quotes?limit=5", nil, http.StatusOK),

		{
			Name: "Concurrency: parallel quotes get distinct ids",
			Run: func(ctx context.Context, r *Runner) Result {
				return r.concurrentCreate(ctx, base+"/api/quotes")
			},
		},
		{
			Name: "Perf: quote throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				return r.perfLoad(ctx, base+"/api/quotes", sampleQuote)
			},
		},
	}
}

func (r *Runner) newRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.Token)
	}
	return req, nil
}

func httpCase(name, method, url string, body any, want int) Case {
	return Case{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			req, err := r.newRequest(ctx, method, url, body)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			latency := time.Since(start)

			status := statusFail
			if resp.StatusCode == want {
				status = statusPass
			}
			return Result{Status: status, Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		},
	}
}

func (r *Runner) concurrentCreate(ctx context.Context, url string) Result {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ids  = map[string]bool{}
		errs int
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var rec struct {
				ID string `json:"id"`
			}
			req, err := r.newRequest(ctx, http.MethodPost, url, sampleQuote)
			if err == nil {
				var resp *http.Response
				resp, err = r.httpc.Do(req)
				if err == nil {
					err = json.NewDecoder(resp.Body).Decode(&rec)
					resp.Body.Close()
				}
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil || rec.ID == "" {
				errs++
				return
			}
			ids[rec.ID] = true
		}()
	}
	wg.Wait()

	if errs > 0 || len(ids) != r.cfg.Concurrency {
		return Result{Status: statusFail, Note: fmt.Sprintf("distinct=%d errors=%d", len(ids), errs)}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("distinct=%d", len(ids))}
}

func (r *Runner) perfLoad(ctx context.Context, url string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, err := r.newRequest(ctx, http.MethodPost, url, payload)
				if err == nil {
					var resp *http.Response
					if resp, err = r.httpc.Do(req); err == nil {
						io.Copy(io.Discard, resp.Body)
						resp.Body.Close()
					}
				}
				mu.Lock()
				if err != nil {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}
