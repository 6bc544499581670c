// README: Concurrency tests for quota deduction (run with -race).
package intake

import (
	"context"
	"sync"
	"testing"
)

func TestConcurrentUseTokenNeverOverdraws(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	const callers = testMonthly * 3
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.UseToken(ctx, "user_race")
		}()
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrInsufficientTokens {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != testMonthly {
		t.Fatalf("expected %d successful deductions, got %d", testMonthly, success)
	}

	remaining, err := NewStore(db, testMonthly).Remaining(ctx, "user_race")
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 tokens remaining, got %d", remaining)
	}
}
