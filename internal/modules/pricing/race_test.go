// README: Concurrency tests for the shared engine (run with -race).
package pricing

import (
	"sync"
	"testing"
)

func TestEngine_ConcurrentPrice(t *testing.T) {
	e := newTestEngine(t)
	want, err := e.Price(PriceRequest{Service: ServiceFTL, DistanceKm: 150, WeightTons: 1})
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	costs := make(chan float64, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := e.Price(PriceRequest{Service: ServiceFTL, DistanceKm: 150, WeightTons: 1})
			if err != nil {
				errs <- err
				return
			}
			costs <- q.CostTotal
		}()
	}
	wg.Wait()
	close(errs)
	close(costs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	for c := range costs {
		if c != want.CostTotal {
			t.Fatalf("concurrent cost = %v, want %v", c, want.CostTotal)
		}
	}
}
