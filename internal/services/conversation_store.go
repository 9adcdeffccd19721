package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deepedumate/loan-aggregator-sub000/internal/domain"
)

// conversationState is the full mutable state of one active conversation.
// Conversations live in memory only; an explicit reset or the idle sweep is
// the only way one disappears.
type conversationState struct {
	mu sync.Mutex

	id          uuid.UUID
	currentStep domain.Step
	transcript  []domain.Entry
	answers     domain.Answers

	programOptions []domain.ProgramOption
	suggestions    []string

	displayCurrency string
	displayMode     CurrencyMode
	rates           *domain.RateTable

	otp               *OTPChallenge
	verificationToken string

	// searchToken invalidates in-flight lookup results. Any mutation that
	// makes pending results stale (edit, reset) bumps it; a response is only
	// committed when the token it was issued under is still current.
	searchToken    uint64
	searchInFlight bool
	otpInFlight    bool

	createdAt time.Time
	updatedAt time.Time
}

type conversationStore struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]*conversationState
}

func newConversationStore() *conversationStore {
	return &conversationStore{conversations: make(map[uuid.UUID]*conversationState)}
}

func (s *conversationStore) put(st *conversationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[st.id] = st
}

func (s *conversationStore) get(id uuid.UUID) (*conversationState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.conversations[id]
	return st, ok
}

func (s *conversationStore) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, id)
}

// evictIdle drops conversations untouched for longer than maxIdle and
// returns the ids that were removed so per-conversation bookkeeping held
// elsewhere can be released too.
func (s *conversationStore) evictIdle(maxIdle time.Duration, now time.Time) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []uuid.UUID
	for id, st := range s.conversations {
		st.mu.Lock()
		idle := now.Sub(st.updatedAt)
		st.mu.Unlock()
		if idle > maxIdle {
			delete(s.conversations, id)
			removed = append(removed, id)
		}
	}
	return removed
}
