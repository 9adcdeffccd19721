package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
)

type fakeSuggestClient struct {
	mu      sync.Mutex
	calls   int
	queries []string
	err     error
}

func (f *fakeSuggestClient) Suggest(ctx context.Context, query string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return []string{query + " University"}, nil
}

func newAutocompleteFixture(t *testing.T) (*autocompleteService, *fakeSuggestClient) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	client := &fakeSuggestClient{}
	svc := NewAutocompleteService(log, client).(*autocompleteService)
	svc.delay = 20 * time.Millisecond
	return svc, client
}

func waitForDelivery(t *testing.T, ch <-chan []string) []string {
	t.Helper()
	select {
	case got := <-ch:
		return got
	case <-time.After(2 * time.Second):
		t.Fatalf("no delivery before timeout")
		return nil
	}
}

func TestType_DebouncesRapidKeystrokes(t *testing.T) {
	svc, client := newAutocompleteFixture(t)
	id := uuid.New()
	delivered := make(chan []string, 8)
	deliver := func(s []string) { delivered <- s }

	svc.Type(id, "st", deliver)
	svc.Type(id, "sta", deliver)
	svc.Type(id, "stan", deliver)

	got := waitForDelivery(t, delivered)
	if len(got) != 1 || got[0] != "stan University" {
		t.Fatalf("delivered %v", got)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.calls != 1 {
		t.Fatalf("calls: want=1 got=%d", client.calls)
	}
	if client.queries[0] != "stan" {
		t.Fatalf("only the last keystroke should reach the source, got %q", client.queries[0])
	}
}

func TestType_ShortQueryClearsImmediately(t *testing.T) {
	svc, client := newAutocompleteFixture(t)
	id := uuid.New()
	delivered := make(chan []string, 1)

	svc.Type(id, "s", func(s []string) { delivered <- s })
	if got := waitForDelivery(t, delivered); got != nil {
		t.Fatalf("short query should clear suggestions, got %v", got)
	}

	time.Sleep(3 * svc.delay)
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.calls != 0 {
		t.Fatalf("short query must not hit the source")
	}
}

func TestType_TrimsWhitespaceBeforeMeasuring(t *testing.T) {
	svc, client := newAutocompleteFixture(t)
	id := uuid.New()
	delivered := make(chan []string, 1)

	svc.Type(id, "  a  ", func(s []string) { delivered <- s })
	if got := waitForDelivery(t, delivered); got != nil {
		t.Fatalf("whitespace padding must not count toward the minimum, got %v", got)
	}
	time.Sleep(3 * svc.delay)
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.calls != 0 {
		t.Fatalf("padded single rune must not hit the source")
	}
}

func TestCancel_SuppressesPendingLookup(t *testing.T) {
	svc, client := newAutocompleteFixture(t)
	id := uuid.New()
	delivered := make(chan []string, 1)

	svc.Type(id, "stanford", func(s []string) { delivered <- s })
	svc.Cancel(id)

	select {
	case got := <-delivered:
		t.Fatalf("cancelled lookup still delivered %v", got)
	case <-time.After(4 * svc.delay):
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.calls != 0 {
		t.Fatalf("cancelled timer must not fire, calls=%d", client.calls)
	}
}

func TestForget_ReleasesBookkeepingAndSuppressesPendingLookup(t *testing.T) {
	svc, client := newAutocompleteFixture(t)
	id := uuid.New()
	delivered := make(chan []string, 1)

	svc.Type(id, "stanford", func(s []string) { delivered <- s })
	svc.Forget(id)

	select {
	case got := <-delivered:
		t.Fatalf("forgotten conversation still delivered %v", got)
	case <-time.After(4 * svc.delay):
	}

	client.mu.Lock()
	calls := client.calls
	client.mu.Unlock()
	if calls != 0 {
		t.Fatalf("forgotten timer must not fire, calls=%d", calls)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.latest) != 0 || len(svc.timers) != 0 {
		t.Fatalf("bookkeeping retained: latest=%d timers=%d", len(svc.latest), len(svc.timers))
	}
}

func TestType_SourceErrorDegradesToNoSuggestions(t *testing.T) {
	svc, client := newAutocompleteFixture(t)
	client.err = errors.New("suggestion source down")
	id := uuid.New()
	delivered := make(chan []string, 1)

	svc.Type(id, "stanford", func(s []string) { delivered <- s })
	if got := waitForDelivery(t, delivered); got != nil {
		t.Fatalf("source error should deliver an empty list, got %v", got)
	}
}

func TestType_IsolatesConversations(t *testing.T) {
	svc, client := newAutocompleteFixture(t)
	first, second := uuid.New(), uuid.New()
	delivered := make(chan []string, 2)
	deliver := func(s []string) { delivered <- s }

	svc.Type(first, "harvard", deliver)
	svc.Type(second, "oxford", deliver)

	waitForDelivery(t, delivered)
	waitForDelivery(t, delivered)

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.calls != 2 {
		t.Fatalf("each conversation debounces independently, calls=%d", client.calls)
	}
}
