package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/deepedumate/loan-aggregator-sub000/internal/domain"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestFetch_NormalizesCurrencyCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("base"); got != "USD" {
			t.Errorf("base: %q", got)
		}
		w.Write([]byte(`{"base": "usd", "rates": {"inr": 83.0, "EUR": 0.92}}`))
	}))
	defer srv.Close()

	c, err := New(testLogger(t), Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table, err := c.Fetch(context.Background(), "usd")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if table.Base != "USD" {
		t.Fatalf("base: %q", table.Base)
	}
	if table.Rates["INR"] != 83.0 || table.Rates["EUR"] != 0.92 {
		t.Fatalf("rates: %+v", table.Rates)
	}
}

func TestFetch_RejectsEmptyTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base": "USD", "rates": {}}`))
	}))
	defer srv.Close()

	c, err := New(testLogger(t), Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Fetch(context.Background(), "USD"); err == nil {
		t.Fatalf("expected an error for an empty table")
	}
}

func TestFetch_RequiresBaseCurrency(t *testing.T) {
	c, err := New(testLogger(t), Config{BaseURL: "http://localhost:0"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Fetch(context.Background(), "  "); err == nil {
		t.Fatalf("expected an error for a blank base")
	}
}

type countingClient struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{}
}

func (c *countingClient) Fetch(ctx context.Context, base string) (*domain.RateTable, error) {
	c.mu.Lock()
	c.calls++
	gate := c.gate
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return &domain.RateTable{Base: base, Rates: map[string]float64{"INR": 83}}, nil
}

func TestCached_CollapsesConcurrentFetches(t *testing.T) {
	inner := &countingClient{gate: make(chan struct{})}
	cached := NewCached(inner, nil, time.Minute, testLogger(t))

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan *domain.RateTable, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, err := cached.Fetch(context.Background(), "USD")
			if err != nil {
				t.Errorf("Fetch: %v", err)
				return
			}
			results <- table
		}()
	}

	// Let the workers pile up on the in-flight call, then release it.
	time.Sleep(50 * time.Millisecond)
	close(inner.gate)
	wg.Wait()
	close(results)

	for table := range results {
		if table.Base != "USD" {
			t.Fatalf("base: %q", table.Base)
		}
	}
	inner.mu.Lock()
	defer inner.mu.Unlock()
	if inner.calls != 1 {
		t.Fatalf("concurrent fetches must collapse to one upstream call, got %d", inner.calls)
	}
}

func TestCached_NilRedisDelegates(t *testing.T) {
	inner := &countingClient{}
	cached := NewCached(inner, nil, time.Minute, testLogger(t))
	table, err := cached.Fetch(context.Background(), "usd")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if table.Base != "USD" {
		t.Fatalf("base should be normalized before the inner call, got %q", table.Base)
	}
}
