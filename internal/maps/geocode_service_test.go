package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"googlemaps.github.io/maps"
)

func newTestGeocoder(t *testing.T, body string) (*GeocodeService, *url.Values) {
	t.Helper()
	var seen url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	svc, err := NewGeocodeService("test-key", maps.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewGeocodeService: %v", err)
	}
	return svc, &seen
}

func TestGeocodeService_Geocode(t *testing.T) {
	svc, seen := newTestGeocoder(t, `{"status":"OK","results":[{"formatted_address":"Cancún, Q.R., México","geometry":{"location":{"lat":21.1619,"lng":-86.8515}}}]}`)

	p, err := svc.Geocode(context.Background(), "Cancun (Quintana Roo)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lat != 21.1619 || p.Lng != -86.8515 {
		t.Errorf("unexpected point %+v", p)
	}
	if got := seen.Get("components"); got != "country:MX" {
		t.Errorf("components = %q, want country:MX", got)
	}
}

func TestGeocodeService_ZeroResults(t *testing.T) {
	svc, _ := newTestGeocoder(t, `{"status":"ZERO_RESULTS","results":[]}`)

	if _, err := svc.Geocode(context.Background(), "Atlantis"); err == nil {
		t.Fatal("expected error")
	}
}
