// README: End-to-end handler tests through the gin router with in-memory collaborators.
package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"cotizador/internal/ai"
	httpapi "cotizador/internal/http"
	"cotizador/internal/infra"
	"cotizador/internal/modules/geo"
	"cotizador/internal/modules/intake"
	"cotizador/internal/modules/location"
	"cotizador/internal/modules/pricing"
	"cotizador/internal/modules/quote"
	"cotizador/internal/types"
)

type memoryRepo struct {
	mu      sync.Mutex
	records map[types.ID]quote.Record
}

func (m *memoryRepo) Create(_ context.Context, r *quote.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = *r
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id types.ID) (*quote.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, quote.ErrNotFound
	}
	return &r, nil
}

func (m *memoryRepo) List(_ context.Context, client string, limit int) ([]quote.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []quote.Record
	for _, r := range m.records {
		if client == "" || strings.EqualFold(client, r.Client) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubLLM struct {
	intent *ai.QuoteIntent
}

func (s *stubLLM) ParseQuoteIntent(context.Context, string, map[string]string) (*ai.QuoteIntent, error) {
	return s.intent, nil
}

type stubVerifier struct {
	token *infra.FirebaseToken
}

func (s *stubVerifier) VerifyIDToken(context.Context, string) (*infra.FirebaseToken, error) {
	if s.token == nil {
		return nil, errors.New("invalid token")
	}
	return s.token, nil
}

func newDeps(t *testing.T, llm ai.LLMProvider) httpapi.ServerDeps {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine, err := pricing.NewEngine(pricing.DefaultTables())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	catalog := location.NewCatalog([]location.Municipality{
		{City: "Ciudad de Mexico", State: "Ciudad de Mexico", Point: types.Point{Lat: 19.4326, Lng: -99.1332}},
		{City: "Puebla", State: "Puebla", Point: types.Point{Lat: 19.0414, Lng: -98.2063}},
		{City: "Monterrey", State: "Nuevo Leon", Point: types.Point{Lat: 25.6866, Lng: -100.3161}},
	})
	loc := location.NewService(catalog, nil, nil, geo.Mexico)
	quotes := quote.NewService(engine, loc, &memoryRepo{records: map[types.ID]quote.Record{}})
	deps := httpapi.ServerDeps{Quotes: quotes, Location: loc}
	if llm != nil {
		deps.Intake = intake.NewService(nil, llm, quotes)
	}
	return deps
}

func doRequest(h http.Handler, method, path string, body any, authHeader string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createQuote(t *testing.T, h http.Handler, body map[string]any) quote.Record {
	t.Helper()
	w := doRequest(h, http.MethodPost, "/api/quotes", body, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var rec quote.Record
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec
}

func TestHealth(t *testing.T) {
	r := httpapi.NewRouter(newDeps(t, nil))
	w := doRequest(r, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("unexpected health response %d %q", w.Code, w.Body.String())
	}
}

func TestQuotes_CreateAndFetch(t *testing.T) {
	r := httpapi.NewRouter(newDeps(t, nil))

	rec := createQuote(t, r, map[string]any{
		"client":      "Acme",
		"service":     "FTL",
		"origin":      "Ciudad de Mexico (Ciudad de Mexico)",
		"destination": "Puebla (Puebla)",
		"weight_tons": 0.5,
	})
	if rec.Quote.Unit != "1 Ton" || rec.Quote.Currency != "MXN" || rec.Quote.CostTotal <= 2500 {
		t.Errorf("unexpected quote %+v", rec.Quote)
	}

	w := doRequest(r, http.MethodGet, "/api/quotes/"+string(rec.ID), nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"client":"Acme"`) {
		t.Errorf("get: %d %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/api/quotes?client=acme", nil, "")
	var list struct {
		Quotes []quote.Record `json:"quotes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list.Quotes) != 1 {
		t.Errorf("list: %d %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/api/quotes/"+string(rec.ID)+"/pdf", nil, "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("pdf: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Error("pdf body is not a PDF")
	}

	w = doRequest(r, http.MethodGet, "/api/quotes/"+string(rec.ID)+"/xlsx", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Content-Disposition"), ".xlsx") {
		t.Errorf("xlsx: %d %v", w.Code, w.Header())
	}

	w = doRequest(r, http.MethodGet, "/api/quotes/export", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Content-Disposition"), "cotizaciones_") {
		t.Errorf("export: %d %v", w.Code, w.Header())
	}
}

func TestQuotes_Errors(t *testing.T) {
	r := httpapi.NewRouter(newDeps(t, nil))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"bad json", http.MethodPost, "/api/quotes", "not an object", http.StatusBadRequest},
		{"identical endpoints", http.MethodPost, "/api/quotes", map[string]any{"service": "LTL", "origin": "Puebla", "destination": "Puebla (Puebla)", "length_cm": 10, "width_cm": 10, "height_cm": 10}, http.StatusBadRequest},
		{"unknown municipality", http.MethodPost, "/api/quotes", map[string]any{"service": "FTL", "origin": "Atlantis", "destination": "Puebla", "weight_tons": 1}, http.StatusNotFound},
		{"overweight", http.MethodPost, "/api/quotes", map[string]any{"service": "FTL", "origin": "Monterrey", "destination": "Puebla", "weight_tons": 11}, http.StatusBadRequest},
		{"outside territory", http.MethodPost, "/api/quotes", map[string]any{"service": "FTL", "origin": "Puebla", "destination_point": map[string]float64{"lat": 40.7, "lng": -74}, "weight_tons": 1}, http.StatusBadRequest},
		{"invalid id", http.MethodGet, "/api/quotes/not-a-uuid", nil, http.StatusBadRequest},
		{"missing quote", http.MethodGet, "/api/quotes/7f1c9a4e-3b7d-4d3a-9c1e-2a6f0b8d5e11", nil, http.StatusNotFound},
		{"bad limit", http.MethodGet, "/api/quotes?limit=-1", nil, http.StatusBadRequest},
		{"intake disabled", http.MethodPost, "/api/intake", map[string]any{"uid": "u", "message": "hola"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, tt.method, tt.path, tt.body, "")
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestQuotes_OverflowingInputs(t *testing.T) {
	r := httpapi.NewRouter(newDeps(t, nil))

	w := doRequest(r, http.MethodPost, "/api/quotes", map[string]any{
		"service": "LTL", "origin": "Puebla", "destination": "Monterrey",
		"length_cm": 1e120, "width_cm": 1e120, "height_cm": 1e120,
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("overflowing volume: expected 400, got %d %q", w.Code, w.Body.String())
	}
	w = doRequest(r, http.MethodGet, "/api/quotes", nil, "")
	if strings.Contains(w.Body.String(), `"id"`) {
		t.Errorf("rejected quote must not be stored: %s", w.Body.String())
	}

	rec := createQuote(t, r, map[string]any{
		"service": "MOVING", "origin": "Puebla", "destination": "Ciudad de Mexico",
		"weight_tons": 2, "maneuver_cost": 1e307,
	})
	if rec.Quote.CostTotal != 1e307 {
		t.Errorf("cost = %v, want 1e307", rec.Quote.CostTotal)
	}
}

func TestRates(t *testing.T) {
	r := httpapi.NewRouter(newDeps(t, nil))
	w := doRequest(r, http.MethodGet, "/api/rates", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`"label":"2000+ km"`, `"upper_km":null`, `"moving_policy":"weight_class"`, `"unit":"10 Ton"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in %s", want, body)
		}
	}
}

func TestMunicipalities(t *testing.T) {
	r := httpapi.NewRouter(newDeps(t, nil))

	w := doRequest(r, http.MethodGet, "/api/municipalities?q=pue", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"city":"Puebla"`) {
		t.Errorf("search: %d %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/api/municipalities/nearest?lat=19.3&lng=-98.9&limit=1", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Ciudad de Mexico") {
		t.Errorf("nearest: %d %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/api/municipalities/nearest?lat=abc", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("nearest without coordinates: expected 400, got %d", w.Code)
	}

	for _, q := range []string{"lat=NaN&lng=-99", "lat=19.4&lng=Inf", "lat=40.7&lng=-74"} {
		w = doRequest(r, http.MethodGet, "/api/municipalities/nearest?"+q, nil, "")
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "invalid coordinate") {
			t.Errorf("nearest %s: expected 400, got %d %q", q, w.Code, w.Body.String())
		}
	}

	w = doRequest(r, http.MethodGet, "/api/municipalities/resolve?place=Monterrey", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Nuevo Leon") {
		t.Errorf("resolve: %d %s", w.Code, w.Body.String())
	}
}

func TestIntake(t *testing.T) {
	llm := &stubLLM{intent: &ai.QuoteIntent{
		Service:     "MOVING",
		Origin:      "Puebla (Puebla)",
		Destination: "Monterrey (Nuevo Leon)",
		WeightTons:  2,
		Reply:       "Listo.",
	}}
	r := httpapi.NewRouter(newDeps(t, llm))

	w := doRequest(r, http.MethodPost, "/api/intake", map[string]any{"uid": "u1", "message": "mudanza de Puebla a Monterrey, 2 toneladas"}, "")
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"reply":"Listo."`) {
		t.Errorf("intake: %d %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodPost, "/api/intake", map[string]any{"message": "hola"}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing uid: expected 400, got %d", w.Code)
	}

	llm.intent = &ai.QuoteIntent{Service: "LTL", Origin: "Puebla", Destination: "Monterrey", Reply: "¿Qué medidas tiene?"}
	w = doRequest(r, http.MethodPost, "/api/intake", map[string]any{"uid": "u1", "message": "paquete a Monterrey"}, "")
	if w.Code != http.StatusUnprocessableEntity || !strings.Contains(w.Body.String(), "dimensions") {
		t.Errorf("incomplete: %d %s", w.Code, w.Body.String())
	}
}

func TestAuthEnabled(t *testing.T) {
	deps := newDeps(t, nil)
	verifier := &stubVerifier{token: &infra.FirebaseToken{UID: "u1", Claims: map[string]interface{}{}}}
	deps.Verifier = verifier
	r := httpapi.NewRouter(deps)

	if w := doRequest(r, http.MethodGet, "/health", nil, ""); w.Code != http.StatusOK {
		t.Errorf("health must stay public, got %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/rates", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/rates", nil, "Bearer t"); w.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/quotes/export", nil, "Bearer t"); w.Code != http.StatusForbidden {
		t.Errorf("export without staff role: expected 403, got %d", w.Code)
	}

	verifier.token.Claims["role"] = "staff"
	if w := doRequest(r, http.MethodGet, "/api/quotes/export", nil, "Bearer t"); w.Code != http.StatusOK {
		t.Errorf("export with staff role: expected 200, got %d", w.Code)
	}
}
