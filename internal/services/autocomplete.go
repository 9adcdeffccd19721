package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	placesclient "github.com/deepedumate/loan-aggregator-sub000/internal/clients/places"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
)

const (
	debounceDelay      = 300 * time.Millisecond
	minTypeaheadRunes  = 2
	typeaheadCallLimit = 5 * time.Second
)

// AutocompleteService rate-limits university-name lookups as the user types.
// Each keystroke supersedes the previous one: at most one lookup fires per
// burst, and responses for superseded keystrokes are discarded by comparing a
// monotonically increasing per-conversation token.
type AutocompleteService interface {
	// Type registers a keystroke. deliver is invoked with the suggestion
	// list only if the query is still the latest one when the response
	// arrives; a short query clears suggestions immediately.
	Type(conversationID uuid.UUID, query string, deliver func(suggestions []string))
	// Cancel discards any pending lookup and invalidates in-flight
	// responses for the conversation. Used on edit-rollback, reset, and
	// when a university answer is submitted.
	Cancel(conversationID uuid.UUID)
	// Forget releases all bookkeeping for a conversation that no longer
	// exists. Called by the idle eviction sweep.
	Forget(conversationID uuid.UUID)
}

type autocompleteService struct {
	log    *logger.Logger
	client placesclient.Client
	delay  time.Duration

	mu     sync.Mutex
	latest map[uuid.UUID]uint64
	timers map[uuid.UUID]*time.Timer
}

func NewAutocompleteService(log *logger.Logger, client placesclient.Client) AutocompleteService {
	return &autocompleteService{
		log:    log.With("service", "AutocompleteService"),
		client: client,
		delay:  debounceDelay,
		latest: make(map[uuid.UUID]uint64),
		timers: make(map[uuid.UUID]*time.Timer),
	}
}

func (s *autocompleteService) Type(conversationID uuid.UUID, query string, deliver func([]string)) {
	trimmed := strings.TrimSpace(query)

	s.mu.Lock()
	token := s.latest[conversationID] + 1
	s.latest[conversationID] = token
	if t, ok := s.timers[conversationID]; ok {
		t.Stop()
		delete(s.timers, conversationID)
	}
	if len([]rune(trimmed)) < minTypeaheadRunes {
		s.mu.Unlock()
		deliver(nil)
		return
	}
	timer := time.AfterFunc(s.delay, func() {
		s.lookup(conversationID, token, trimmed, deliver)
	})
	s.timers[conversationID] = timer
	s.mu.Unlock()
}

func (s *autocompleteService) Cancel(conversationID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[conversationID]++
	if t, ok := s.timers[conversationID]; ok {
		t.Stop()
		delete(s.timers, conversationID)
	}
}

func (s *autocompleteService) Forget(conversationID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.latest, conversationID)
	if t, ok := s.timers[conversationID]; ok {
		t.Stop()
		delete(s.timers, conversationID)
	}
}

func (s *autocompleteService) lookup(conversationID uuid.UUID, token uint64, query string, deliver func([]string)) {
	ctx, cancel := context.WithTimeout(context.Background(), typeaheadCallLimit)
	defer cancel()

	suggestions, err := s.client.Suggest(ctx, query)
	if err != nil {
		// Recoverable: an unreachable suggestion source degrades to free
		// typing, never an error the user sees.
		s.log.Debug("suggestion lookup failed", "query", query, "error", err)
		suggestions = nil
	}

	s.mu.Lock()
	stale := s.latest[conversationID] != token
	if !stale {
		delete(s.timers, conversationID)
	}
	s.mu.Unlock()
	if stale {
		return
	}
	deliver(suggestions)
}
