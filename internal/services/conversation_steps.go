package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deepedumate/loan-aggregator-sub000/internal/domain"
	"github.com/deepedumate/loan-aggregator-sub000/internal/sse"
)

const lookupCallLimit = 20 * time.Second

// Answer processes one user answer for the conversation's current step.
// Validation failures reject the input without touching any state; adapter
// failures append a recoverable system message and keep the step where it
// was.
func (s *conversationService) Answer(ctx context.Context, id uuid.UUID, req AnswerRequest) (*ConversationView, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	if req.Step != st.currentStep {
		st.mu.Unlock()
		return nil, ErrStepMismatch
	}

	switch st.currentStep {
	case domain.StepWelcome:
		s.answerWelcomeLocked(st, req)
	case domain.StepStudyLevel:
		err = s.answerStudyLevelLocked(st, req)
	case domain.StepAdmitStatus:
		err = s.answerAdmitStatusLocked(st, req)
	case domain.StepIntendedDate:
		err = s.answerIntendedDateLocked(st, req)
	case domain.StepUniversity:
		// Releases the lock around the program search.
		return s.answerUniversity(ctx, st, req)
	case domain.StepPrograms:
		return s.answerPrograms(ctx, st, req)
	case domain.StepLoanAmount:
		err = s.answerLoanAmountLocked(st, req)
	case domain.StepLoanType:
		err = s.answerLoanTypeLocked(st, req)
	case domain.StepOTP:
		return s.answerPhone(ctx, st, req)
	case domain.StepVerified:
		s.answerVerifiedLocked(st, req)
	default:
		err = ErrFlowComplete
	}

	if err != nil {
		st.mu.Unlock()
		return nil, err
	}
	view := s.snapshotLocked(st)
	st.mu.Unlock()
	return view, nil
}

func (s *conversationService) answerWelcomeLocked(st *conversationState, req AnswerRequest) {
	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = "Get Started"
	}
	s.appendUserLocked(st, text, domain.StepWelcome)
	s.advanceLocked(st, domain.StepStudyLevel)
}

func (s *conversationService) answerStudyLevelLocked(st *conversationState, req AnswerRequest) error {
	value := answerValue(req)
	if value == "" {
		return invalid("Pick a study level to continue")
	}
	s.appendUserLocked(st, value, domain.StepStudyLevel)
	st.answers.StudyLevel = value
	s.advanceLocked(st, domain.StepAdmitStatus)
	return nil
}

func (s *conversationService) answerAdmitStatusLocked(st *conversationState, req AnswerRequest) error {
	value := answerValue(req)
	if value == "" {
		return invalid("Pick an admission status to continue")
	}
	s.appendUserLocked(st, value, domain.StepAdmitStatus)
	st.answers.AdmitStatus = value
	s.advanceLocked(st, domain.StepIntendedDate)
	return nil
}

func (s *conversationService) answerIntendedDateLocked(st *conversationState, req AnswerRequest) error {
	if req.Month < 1 || req.Month > 12 {
		return invalid("Pick a month between January and December")
	}
	currentYear := s.now().Year()
	if req.Year < currentYear || req.Year > currentYear+5 {
		return invalid(fmt.Sprintf("Pick a year between %d and %d", currentYear, currentYear+5))
	}
	month := time.Month(req.Month)
	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = fmt.Sprintf("%s %d", month, req.Year)
	}
	s.appendUserLocked(st, text, domain.StepIntendedDate)
	st.answers.IntendedMonth = month
	st.answers.IntendedYear = req.Year
	s.advanceLocked(st, domain.StepUniversity)
	return nil
}

// answerUniversity records the university answer and runs the program
// search. The conversation lock is released for the network call; the result
// is committed only if no edit or reset invalidated it in the meantime.
// Callers hold st.mu; it is unlocked on return.
func (s *conversationService) answerUniversity(ctx context.Context, st *conversationState, req AnswerRequest) (*ConversationView, error) {
	value := answerValue(req)
	if value == "" {
		st.mu.Unlock()
		return nil, invalid("Enter a university name to continue")
	}
	if st.searchInFlight {
		st.mu.Unlock()
		return nil, ErrOperationInFlight
	}

	// Submitting the answer ends the typeahead burst: a debounce timer still
	// pending from the last keystroke must not repopulate suggestions while
	// the program search runs.
	s.autocomplete.Cancel(st.id)

	s.appendUserLocked(st, value, domain.StepUniversity)
	st.answers.University = value
	st.suggestions = nil
	st.updatedAt = s.now()
	st.searchInFlight = true
	token := st.searchToken
	studyLevel := st.answers.StudyLevel
	st.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, lookupCallLimit)
	options, searchErr := s.programs.Search(callCtx, value, studyLevel)
	cancel()

	st.mu.Lock()
	defer st.mu.Unlock()
	st.searchInFlight = false
	if st.searchToken != token {
		// Superseded by an edit or reset; drop the result silently.
		s.log.Debug("discarding stale program search result", "conversation_id", st.id, "university", value)
		return s.snapshotLocked(st), nil
	}
	if searchErr != nil || len(options) == 0 {
		if searchErr != nil {
			s.log.Warn("program search failed", "conversation_id", st.id, "university", value, "error", searchErr)
		}
		s.appendSystemLocked(st, msgNoPrograms)
		st.updatedAt = s.now()
		return s.snapshotLocked(st), nil
	}

	st.programOptions = options
	s.appendSystemLocked(st, programListMessage(value, options))
	s.advanceLocked(st, domain.StepPrograms)
	return s.snapshotLocked(st), nil
}

// answerPrograms commits a selection from the discovered list, or resolves a
// free-text program via the custom lookup. Callers hold st.mu; it is
// unlocked on return.
func (s *conversationService) answerPrograms(ctx context.Context, st *conversationState, req AnswerRequest) (*ConversationView, error) {
	if req.ProgramIndex != nil {
		idx := *req.ProgramIndex
		if idx < 0 || idx >= len(st.programOptions) {
			st.mu.Unlock()
			return nil, invalid("Pick one of the listed programs")
		}
		opt := st.programOptions[idx]
		s.commitProgramLocked(st, opt)
		view := s.snapshotLocked(st)
		st.mu.Unlock()
		return view, nil
	}

	name := strings.TrimSpace(req.CustomProgram)
	if name == "" {
		st.mu.Unlock()
		return nil, invalid("Pick a listed program or enter your program's name")
	}
	if st.searchInFlight {
		st.mu.Unlock()
		return nil, ErrOperationInFlight
	}
	st.searchInFlight = true
	token := st.searchToken
	university := st.answers.University
	st.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, lookupCallLimit)
	opt, lookupErr := s.programs.Lookup(callCtx, university, name)
	cancel()

	st.mu.Lock()
	defer st.mu.Unlock()
	st.searchInFlight = false
	if st.searchToken != token {
		s.log.Debug("discarding stale program lookup result", "conversation_id", st.id, "program", name)
		return s.snapshotLocked(st), nil
	}
	if lookupErr != nil {
		s.log.Warn("custom program lookup failed", "conversation_id", st.id, "program", name, "error", lookupErr)
		s.appendSystemLocked(st, msgProgramLookupFailed)
		st.updatedAt = s.now()
		return s.snapshotLocked(st), nil
	}

	s.commitProgramLocked(st, *opt)
	return s.snapshotLocked(st), nil
}

func (s *conversationService) commitProgramLocked(st *conversationState, opt domain.ProgramOption) {
	s.appendUserLocked(st, opt.Name, domain.StepPrograms)
	sel := opt.Select()
	st.answers.Program = sel
	st.answers.Currency = sel.Currency
	st.displayCurrency = sel.Currency
	st.displayMode = ModeOriginal
	st.rates = nil
	s.appendSystemLocked(st, programSelectedMessage(sel))
	s.advanceLocked(st, domain.StepLoanAmount)

	// Rates are display-only; fetch in the background and degrade to
	// origin-currency rendering if it fails.
	go s.fetchRates(st.id, st.searchToken, sel.Currency)
}

func (s *conversationService) answerLoanAmountLocked(st *conversationState, req AnswerRequest) error {
	raw := answerValue(req)
	amount, v := ValidateLoanAmount(raw)
	if !v.Valid {
		return invalid(v.Error)
	}
	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = raw
	}
	s.appendUserLocked(st, text, domain.StepLoanAmount)
	st.answers.LoanAmount = amount
	s.advanceLocked(st, domain.StepLoanType)
	return nil
}

func (s *conversationService) answerLoanTypeLocked(st *conversationState, req AnswerRequest) error {
	value := answerValue(req)
	if !strings.EqualFold(value, domain.LoanTypeSecured) && !strings.EqualFold(value, domain.LoanTypeUnsecured) {
		return invalid("Pick either a secured or an unsecured loan")
	}
	s.appendUserLocked(st, value, domain.StepLoanType)
	st.answers.LoanType = value
	s.advanceLocked(st, domain.StepOTP)
	return nil
}

// answerPhone validates the phone number and issues the OTP challenge. The
// step stays at otp until a successful verification; a send failure keeps
// the number and re-prompts. Callers hold st.mu; it is unlocked on return.
func (s *conversationService) answerPhone(ctx context.Context, st *conversationState, req AnswerRequest) (*ConversationView, error) {
	if v := ValidatePhone(req.CountryCode, req.Value); !v.Valid {
		st.mu.Unlock()
		return nil, invalid(v.Error)
	}
	if st.otpInFlight {
		st.mu.Unlock()
		return nil, ErrOperationInFlight
	}

	digits := stripPhoneFormatting(req.Value)
	phone := req.CountryCode + digits
	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = req.CountryCode + " " + digits
	}
	s.appendUserLocked(st, text, domain.StepOTP)
	st.answers.PhoneCountry = req.CountryCode
	st.answers.PhoneNumber = digits
	st.updatedAt = s.now()
	st.otpInFlight = true
	token := st.searchToken
	st.mu.Unlock()

	sendErr := s.otp.Send(ctx, phone)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.otpInFlight = false
	if st.searchToken != token || st.currentStep != domain.StepOTP {
		return s.snapshotLocked(st), nil
	}
	if sendErr != nil {
		s.appendSystemLocked(st, msgOTPSendFailed)
		st.updatedAt = s.now()
		return s.snapshotLocked(st), nil
	}

	now := s.now()
	st.otp = &OTPChallenge{
		Phone:             phone,
		SentAt:            now,
		ResendAvailableAt: now.Add(s.otp.Cooldown()),
	}
	s.appendSystemLocked(st, msgOTPSent)
	st.updatedAt = now
	s.publishLocked(st, sse.EventOTPCooldown, map[string]any{"resend_in_seconds": st.otp.ResendInSeconds(now)})
	return s.snapshotLocked(st), nil
}

func (s *conversationService) ResendOTP(ctx context.Context, id uuid.UUID) (*ConversationView, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	if st.currentStep != domain.StepOTP || st.otp == nil {
		st.mu.Unlock()
		return nil, ErrStepMismatch
	}
	if st.otpInFlight {
		st.mu.Unlock()
		return nil, ErrOperationInFlight
	}
	if !st.otp.CanResend(s.now()) {
		st.mu.Unlock()
		return nil, ErrCooldownActive
	}
	phone := st.otp.Phone
	st.otpInFlight = true
	token := st.searchToken
	st.mu.Unlock()

	sendErr := s.otp.Send(ctx, phone)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.otpInFlight = false
	if st.searchToken != token || st.currentStep != domain.StepOTP || st.otp == nil {
		return s.snapshotLocked(st), nil
	}
	if sendErr != nil {
		s.appendSystemLocked(st, msgOTPSendFailed)
		st.updatedAt = s.now()
		return s.snapshotLocked(st), nil
	}

	// Only a successful resend restarts the countdown.
	now := s.now()
	st.otp.SentAt = now
	st.otp.ResendAvailableAt = now.Add(s.otp.Cooldown())
	s.appendSystemLocked(st, msgOTPResent)
	st.updatedAt = now
	s.publishLocked(st, sse.EventOTPCooldown, map[string]any{"resend_in_seconds": st.otp.ResendInSeconds(now)})
	return s.snapshotLocked(st), nil
}

// VerifyOTP gates the otp→verified transition. A wrong code re-prompts
// without resetting the phone number.
func (s *conversationService) VerifyOTP(ctx context.Context, id uuid.UUID, code string) (*ConversationView, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	if st.currentStep != domain.StepOTP || st.otp == nil {
		st.mu.Unlock()
		return nil, ErrStepMismatch
	}
	if v := ValidateOTP(code); !v.Valid {
		st.mu.Unlock()
		return nil, invalid(v.Error)
	}
	if st.otpInFlight {
		st.mu.Unlock()
		return nil, ErrOperationInFlight
	}
	code = strings.TrimSpace(code)
	s.appendUserLocked(st, maskOTP(code), domain.StepOTP)
	st.answers.OTPCode = code
	phone := st.otp.Phone
	st.otpInFlight = true
	token := st.searchToken
	st.mu.Unlock()

	result, verifyErr := s.otp.Verify(ctx, phone, code)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.otpInFlight = false
	if st.searchToken != token || st.currentStep != domain.StepOTP || st.otp == nil || st.otp.Phone != phone {
		return s.snapshotLocked(st), nil
	}
	if verifyErr != nil {
		s.appendSystemLocked(st, msgOTPVerifyFailed)
		st.updatedAt = s.now()
		return s.snapshotLocked(st), nil
	}
	if !result.Valid {
		msg := strings.TrimSpace(result.Message)
		if msg == "" {
			msg = msgOTPWrongCode
		}
		s.appendSystemLocked(st, msg)
		st.updatedAt = s.now()
		return s.snapshotLocked(st), nil
	}

	st.otp.Verified = true
	signed, mintErr := s.otp.MintVerificationToken(phone)
	if mintErr != nil {
		s.log.Warn("verification token mint failed", "conversation_id", st.id, "error", mintErr)
	}
	st.verificationToken = signed
	s.appendSystemLocked(st, msgVerified)
	st.currentStep = domain.StepVerified
	st.updatedAt = s.now()
	s.publishLocked(st, sse.EventStepChanged, map[string]any{"step": domain.StepVerified})
	s.log.Info("phone verified", "conversation_id", st.id, "phone", phone)
	return s.snapshotLocked(st), nil
}

func (s *conversationService) answerVerifiedLocked(st *conversationState, req AnswerRequest) {
	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = "Show my loans"
	}
	s.appendUserLocked(st, text, domain.StepVerified)
	offers := s.loans.Match(st.answers.LoanType, st.answers.LoanAmount)
	s.appendSystemLocked(st, fmt.Sprintf("Based on your answers, %d lenders can fund your plans. Here they are.", len(offers)))
	s.advanceLocked(st, domain.StepLoans)
}

// fetchRates loads the rate table for a base currency and commits it only if
// the conversation still wants it.
func (s *conversationService) fetchRates(id uuid.UUID, token uint64, base string) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupCallLimit)
	defer cancel()

	table, err := s.rates.Fetch(ctx, base)
	if err != nil {
		// Degrade to origin-only display.
		s.log.Debug("rate fetch failed", "base", base, "error", err)
		return
	}

	st, stateErr := s.state(id)
	if stateErr != nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.searchToken != token {
		return
	}
	if st.answers.Program == nil || st.answers.Program.Currency != table.Base {
		return
	}
	st.rates = table
}

func answerValue(req AnswerRequest) string {
	if v := strings.TrimSpace(req.Value); v != "" {
		return v
	}
	return strings.TrimSpace(req.Text)
}

func stripPhoneFormatting(input string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
}

func maskOTP(code string) string {
	if len(code) <= 2 {
		return "••••••"
	}
	return strings.Repeat("•", len(code)-2) + code[len(code)-2:]
}
