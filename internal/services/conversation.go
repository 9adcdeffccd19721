package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	programsclient "github.com/deepedumate/loan-aggregator-sub000/internal/clients/programs"
	ratesclient "github.com/deepedumate/loan-aggregator-sub000/internal/clients/rates"
	"github.com/deepedumate/loan-aggregator-sub000/internal/domain"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
	"github.com/deepedumate/loan-aggregator-sub000/internal/sse"
)

// EventPublisher is the slice of the SSE hub the controller needs.
type EventPublisher interface {
	Publish(channel string, event sse.Event, data any)
}

// ConversationService is the conversation controller: it owns the step
// machine, the transcript, and the accumulated answers, and it is the only
// component that commits adapter results. Adapters report outcomes; the
// controller decides what they mean for the flow.
type ConversationService interface {
	Start(ctx context.Context) (*ConversationView, error)
	Get(ctx context.Context, id uuid.UUID) (*ConversationView, error)
	Answer(ctx context.Context, id uuid.UUID, req AnswerRequest) (*ConversationView, error)
	EditEntry(ctx context.Context, id, entryID uuid.UUID) (*ConversationView, error)
	Reset(ctx context.Context, id uuid.UUID) (*ConversationView, error)

	Typeahead(ctx context.Context, id uuid.UUID, query string) error
	Suggestions(ctx context.Context, id uuid.UUID) ([]string, error)

	ResendOTP(ctx context.Context, id uuid.UUID) (*ConversationView, error)
	VerifyOTP(ctx context.Context, id uuid.UUID, code string) (*ConversationView, error)

	SetDisplayCurrency(ctx context.Context, id uuid.UUID, currency string, mode CurrencyMode) (*CostView, error)
	CostBreakdown(ctx context.Context, id uuid.UUID) (*CostView, error)
	EligibleLoans(ctx context.Context, id uuid.UUID) ([]domain.LoanOffer, error)

	StartJanitor(ctx context.Context, sweepEvery, maxIdle time.Duration)
}

// AnswerRequest is one user answer for the current step. Text is the display
// form for the transcript; the step-specific fields carry the canonical
// value.
type AnswerRequest struct {
	Step  domain.Step `json:"step"`
	Text  string      `json:"text"`
	Value string      `json:"value"`

	Month int `json:"month,omitempty"`
	Year  int `json:"year,omitempty"`

	ProgramIndex  *int   `json:"program_index,omitempty"`
	CustomProgram string `json:"custom_program,omitempty"`

	CountryCode string `json:"country_code,omitempty"`
}

type conversationService struct {
	log          *logger.Logger
	programs     programsclient.Client
	rates        ratesclient.Client
	otp          OTPService
	autocomplete AutocompleteService
	loans        LoanMatchService
	publisher    EventPublisher

	store *conversationStore
	now   func() time.Time
}

func NewConversationService(
	log *logger.Logger,
	programs programsclient.Client,
	rates ratesclient.Client,
	otp OTPService,
	autocomplete AutocompleteService,
	loans LoanMatchService,
	publisher EventPublisher,
) ConversationService {
	return &conversationService{
		log:          log.With("service", "ConversationService"),
		programs:     programs,
		rates:        rates,
		otp:          otp,
		autocomplete: autocomplete,
		loans:        loans,
		publisher:    publisher,
		store:        newConversationStore(),
		now:          time.Now,
	}
}

func (s *conversationService) Start(ctx context.Context) (*ConversationView, error) {
	now := s.now()
	st := &conversationState{
		id:          uuid.New(),
		currentStep: domain.StepWelcome,
		createdAt:   now,
		updatedAt:   now,
	}
	st.transcript = append(st.transcript, domain.NewEntry(welcomeText, false, ""))
	s.store.put(st)
	s.log.Info("conversation started", "conversation_id", st.id)

	st.mu.Lock()
	defer st.mu.Unlock()
	return s.snapshotLocked(st), nil
}

func (s *conversationService) Get(ctx context.Context, id uuid.UUID) (*ConversationView, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return s.snapshotLocked(st), nil
}

func (s *conversationService) Reset(ctx context.Context, id uuid.UUID) (*ConversationView, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}
	s.autocomplete.Cancel(id)

	st.mu.Lock()
	defer st.mu.Unlock()

	st.searchToken++
	st.currentStep = domain.StepWelcome
	st.transcript = []domain.Entry{domain.NewEntry(welcomeText, false, "")}
	st.answers = domain.Answers{}
	st.programOptions = nil
	st.suggestions = nil
	st.displayCurrency = ""
	st.displayMode = ""
	st.rates = nil
	st.otp = nil
	st.verificationToken = ""
	st.updatedAt = s.now()

	s.publishLocked(st, sse.EventTranscriptTruncated, map[string]any{"reset": true})
	s.log.Info("conversation reset", "conversation_id", id)
	return s.snapshotLocked(st), nil
}

// EditEntry rolls the conversation back to the step that produced the given
// entry. Everything derived from later steps is discarded so a changed
// answer can never leave stale downstream state behind, and any lookup still
// in flight is invalidated before the rollback mutates anything.
func (s *conversationService) EditEntry(ctx context.Context, id, entryID uuid.UUID) (*ConversationView, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}
	s.autocomplete.Cancel(id)

	st.mu.Lock()
	defer st.mu.Unlock()

	idx := -1
	for i, entry := range st.transcript {
		if entry.ID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrEntryNotFound
	}
	entry := st.transcript[idx]
	if !entry.UserAuthored || !entry.OriginatingStep.Valid() {
		return nil, ErrEditNotAllowed
	}
	if idx == len(st.transcript)-1 {
		// Editing the in-progress step is just re-entering input.
		return nil, ErrEditNotAllowed
	}

	step := entry.OriginatingStep
	st.searchToken++
	st.transcript = st.transcript[:idx+1]
	st.answers.ClearFrom(step)
	st.currentStep = step

	if !step.AtOrAfter(domain.StepPrograms) {
		// Program options derive from the university answer.
		st.programOptions = nil
		st.suggestions = nil
	}
	if !step.AtOrAfter(domain.StepLoanAmount) {
		// The rate table and display choice belong to the selected program.
		st.rates = nil
		st.displayCurrency = ""
		st.displayMode = ""
	}
	if !step.AtOrAfter(domain.StepVerified) {
		// The phone may change, so the countdown dies with the challenge.
		st.otp = nil
		st.verificationToken = ""
	}
	st.updatedAt = s.now()

	s.publishLocked(st, sse.EventTranscriptTruncated, map[string]any{
		"entry_id": entryID,
		"step":     step,
	})
	s.publishLocked(st, sse.EventStepChanged, map[string]any{"step": step})
	s.log.Debug("conversation rolled back", "conversation_id", id, "step", step)
	return s.snapshotLocked(st), nil
}

func (s *conversationService) Typeahead(ctx context.Context, id uuid.UUID, query string) error {
	st, err := s.state(id)
	if err != nil {
		return err
	}
	st.mu.Lock()
	if st.currentStep != domain.StepUniversity {
		st.mu.Unlock()
		return ErrStepMismatch
	}
	st.mu.Unlock()

	s.autocomplete.Type(id, query, func(suggestions []string) {
		st.mu.Lock()
		defer st.mu.Unlock()
		if st.currentStep != domain.StepUniversity {
			return
		}
		st.suggestions = suggestions
		s.publishLocked(st, sse.EventSuggestionsUpdated, map[string]any{"suggestions": suggestions})
	})
	return nil
}

func (s *conversationService) Suggestions(ctx context.Context, id uuid.UUID) ([]string, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]string, len(st.suggestions))
	copy(out, st.suggestions)
	return out, nil
}

func (s *conversationService) EligibleLoans(ctx context.Context, id uuid.UUID) ([]domain.LoanOffer, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.currentStep.AtOrAfter(domain.StepVerified) {
		return nil, ErrNotVerified
	}
	return s.loans.Match(st.answers.LoanType, st.answers.LoanAmount), nil
}

func (s *conversationService) SetDisplayCurrency(ctx context.Context, id uuid.UUID, currency string, mode CurrencyMode) (*CostView, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}
	if !mode.Valid() {
		return nil, invalid("display mode must be original, converted or both")
	}

	st.mu.Lock()
	if st.answers.Program == nil {
		st.mu.Unlock()
		return nil, ErrNoProgramSelected
	}
	base := st.answers.Program.Currency
	token := st.searchToken
	needRates := st.rates == nil || st.rates.Base != base
	st.mu.Unlock()

	if needRates {
		s.fetchRates(id, token, base)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.answers.Program == nil {
		return nil, ErrNoProgramSelected
	}
	st.displayCurrency = normalizeCurrency(currency)
	st.displayMode = mode
	st.updatedAt = s.now()
	return s.costViewLocked(st), nil
}

func (s *conversationService) CostBreakdown(ctx context.Context, id uuid.UUID) (*CostView, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.answers.Program == nil {
		return nil, ErrNoProgramSelected
	}
	return s.costViewLocked(st), nil
}

func (s *conversationService) StartJanitor(ctx context.Context, sweepEvery, maxIdle time.Duration) {
	if sweepEvery <= 0 || maxIdle <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				evicted := s.store.evictIdle(maxIdle, s.now())
				for _, id := range evicted {
					s.autocomplete.Forget(id)
				}
				if len(evicted) > 0 {
					s.log.Info("evicted idle conversations", "count", len(evicted))
				}
			}
		}
	}()
}

func (s *conversationService) state(id uuid.UUID) (*conversationState, error) {
	st, ok := s.store.get(id)
	if !ok {
		return nil, ErrConversationNotFound
	}
	return st, nil
}

// Transcript mutation order is fixed: append the entry, then commit Answers
// fields, then transition the step. The append helpers only do the first part.

func (s *conversationService) appendUserLocked(st *conversationState, text string, step domain.Step) domain.Entry {
	entry := domain.NewEntry(text, true, step)
	st.transcript = append(st.transcript, entry)
	s.publishLocked(st, sse.EventMessageAppended, entry)
	return entry
}

func (s *conversationService) appendSystemLocked(st *conversationState, text string) domain.Entry {
	entry := domain.NewEntry(text, false, "")
	st.transcript = append(st.transcript, entry)
	s.publishLocked(st, sse.EventMessageAppended, entry)
	return entry
}

func (s *conversationService) advanceLocked(st *conversationState, to domain.Step) {
	st.currentStep = to
	st.updatedAt = s.now()
	if prompt := promptFor(to); prompt != "" {
		s.appendSystemLocked(st, prompt)
	}
	s.publishLocked(st, sse.EventStepChanged, map[string]any{"step": to})
}

func (s *conversationService) publishLocked(st *conversationState, event sse.Event, data any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(sse.ConversationChannel(st.id), event, data)
}
