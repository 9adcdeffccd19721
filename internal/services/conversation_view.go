package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/deepedumate/loan-aggregator-sub000/internal/domain"
)

// ConversationView is the read-only snapshot handed to the HTTP layer. It
// copies everything mutable so callers never observe a half-applied
// transition.
type ConversationView struct {
	ID                uuid.UUID              `json:"id"`
	CurrentStep       domain.Step            `json:"current_step"`
	Transcript        []domain.Entry         `json:"transcript"`
	Answers           domain.Answers         `json:"answers"`
	ProgramOptions    []domain.ProgramOption `json:"program_options,omitempty"`
	Suggestions       []string               `json:"suggestions,omitempty"`
	OTP               *OTPStatusView         `json:"otp,omitempty"`
	VerificationToken string                 `json:"verification_token,omitempty"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

type OTPStatusView struct {
	ResendInSeconds int  `json:"resend_in_seconds"`
	CanResend       bool `json:"can_resend"`
	Verified        bool `json:"verified"`
}

// CostView is the presentation of the selected program's costs in the active
// display currency and mode.
type CostView struct {
	ProgramName     string       `json:"program_name"`
	DurationYears   int          `json:"duration_years"`
	OriginCurrency  string       `json:"origin_currency"`
	DisplayCurrency string       `json:"display_currency"`
	Mode            CurrencyMode `json:"mode"`
	Total           string       `json:"total"`
	Tuition         string       `json:"tuition"`
	Living          string       `json:"living"`
	TuitionPerYear  string       `json:"tuition_per_year,omitempty"`
	LivingPerYear   string       `json:"living_per_year,omitempty"`
}

func (s *conversationService) snapshotLocked(st *conversationState) *ConversationView {
	view := &ConversationView{
		ID:          st.id,
		CurrentStep: st.currentStep,
		Transcript:  make([]domain.Entry, len(st.transcript)),
		Answers:     st.answers,
		UpdatedAt:   st.updatedAt,
	}
	copy(view.Transcript, st.transcript)
	if view.Answers.Program != nil {
		p := *st.answers.Program
		view.Answers.Program = &p
	}
	if len(st.programOptions) > 0 {
		view.ProgramOptions = make([]domain.ProgramOption, len(st.programOptions))
		copy(view.ProgramOptions, st.programOptions)
	}
	if len(st.suggestions) > 0 {
		view.Suggestions = make([]string, len(st.suggestions))
		copy(view.Suggestions, st.suggestions)
	}
	if st.otp != nil {
		now := s.now()
		view.OTP = &OTPStatusView{
			ResendInSeconds: st.otp.ResendInSeconds(now),
			CanResend:       st.otp.CanResend(now),
			Verified:        st.otp.Verified,
		}
	}
	if st.currentStep.AtOrAfter(domain.StepVerified) {
		view.VerificationToken = st.verificationToken
	}
	return view
}

func (s *conversationService) costViewLocked(st *conversationState) *CostView {
	sel := st.answers.Program
	mode := st.displayMode
	if !mode.Valid() {
		mode = ModeOriginal
	}
	view := &CostView{
		ProgramName:     sel.Name,
		DurationYears:   sel.DurationYears,
		OriginCurrency:  sel.Currency,
		DisplayCurrency: st.displayCurrency,
		Mode:            mode,
		Total:           FormatCost(sel.TotalCost, sel.Currency, st.displayCurrency, st.rates, mode),
		Tuition:         FormatCost(sel.TuitionCost, sel.Currency, st.displayCurrency, st.rates, mode),
		Living:          FormatCost(sel.LivingCost, sel.Currency, st.displayCurrency, st.rates, mode),
	}
	if sel.DurationYears > 1 {
		view.TuitionPerYear = FormatCost(sel.TuitionPerYear, sel.Currency, st.displayCurrency, st.rates, mode)
		view.LivingPerYear = FormatCost(sel.LivingPerYear, sel.Currency, st.displayCurrency, st.rates, mode)
	}
	return view
}
