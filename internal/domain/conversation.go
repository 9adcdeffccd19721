package domain

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one transcript item. Entries are immutable once created; the
// transcript is append-only until an edit truncates it.
type Entry struct {
	ID              uuid.UUID `json:"id"`
	Text            string    `json:"text"`
	UserAuthored    bool      `json:"user_authored"`
	OriginatingStep Step      `json:"originating_step,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Answers accumulates every fact collected by the flow. A field may only be
// populated once its owning step has been reached; clearing is always done
// from a step downward via ClearFrom.
type Answers struct {
	StudyLevel    string           `json:"study_level,omitempty"`
	AdmitStatus   string           `json:"admit_status,omitempty"`
	IntendedMonth time.Month       `json:"intended_month,omitempty"`
	IntendedYear  int              `json:"intended_year,omitempty"`
	University    string           `json:"university,omitempty"`
	Program       *SelectedProgram `json:"program,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	LoanAmount    float64          `json:"loan_amount,omitempty"`
	LoanType      string           `json:"loan_type,omitempty"`
	PhoneCountry  string           `json:"phone_country,omitempty"`
	PhoneNumber   string           `json:"phone_number,omitempty"`
	OTPCode       string           `json:"-"`
}

// ClearFrom unsets every field owned by step or by any later step.
func (a *Answers) ClearFrom(step Step) {
	idx := step.Index()
	if idx < 0 {
		return
	}
	if idx <= StepStudyLevel.Index() {
		a.StudyLevel = ""
	}
	if idx <= StepAdmitStatus.Index() {
		a.AdmitStatus = ""
	}
	if idx <= StepIntendedDate.Index() {
		a.IntendedMonth = 0
		a.IntendedYear = 0
	}
	if idx <= StepUniversity.Index() {
		a.University = ""
	}
	if idx <= StepPrograms.Index() {
		a.Program = nil
		a.Currency = ""
	}
	if idx <= StepLoanAmount.Index() {
		a.LoanAmount = 0
	}
	if idx <= StepLoanType.Index() {
		a.LoanType = ""
	}
	if idx <= StepOTP.Index() {
		a.PhoneCountry = ""
		a.PhoneNumber = ""
		a.OTPCode = ""
	}
}

// OwnedFieldsSet reports whether any field owned by step currently holds a
// value. Used to check the ownership invariant in tests and rollback.
func (a *Answers) OwnedFieldsSet(step Step) bool {
	switch step {
	case StepStudyLevel:
		return a.StudyLevel != ""
	case StepAdmitStatus:
		return a.AdmitStatus != ""
	case StepIntendedDate:
		return a.IntendedMonth != 0 || a.IntendedYear != 0
	case StepUniversity:
		return a.University != ""
	case StepPrograms:
		return a.Program != nil || a.Currency != ""
	case StepLoanAmount:
		return a.LoanAmount != 0
	case StepLoanType:
		return a.LoanType != ""
	case StepOTP:
		return a.PhoneCountry != "" || a.PhoneNumber != "" || a.OTPCode != ""
	default:
		return false
	}
}

// SelectedProgram is the program the student settled on, copied out of a
// ProgramOption so later edits to lookup results cannot leak forward.
type SelectedProgram struct {
	Name           string  `json:"name"`
	DurationYears  int     `json:"duration_years"`
	TotalCost      float64 `json:"total_cost"`
	TuitionCost    float64 `json:"tuition_cost"`
	LivingCost     float64 `json:"living_cost"`
	TuitionPerYear float64 `json:"tuition_per_year,omitempty"`
	LivingPerYear  float64 `json:"living_per_year,omitempty"`
	Currency       string  `json:"currency"`
}

// ProgramOption is one result of a university/program lookup. Immutable once
// fetched.
type ProgramOption struct {
	Name          string  `json:"name"`
	DurationYears int     `json:"duration_years"`
	TotalCost     float64 `json:"total_cost"`
	TuitionCost   float64 `json:"tuition_cost"`
	LivingCost    float64 `json:"living_cost"`
	Currency      string  `json:"currency"`
}

// Select copies the option's values into the shape stored on Answers,
// deriving per-year components for multi-year programs.
func (p ProgramOption) Select() *SelectedProgram {
	sel := &SelectedProgram{
		Name:          p.Name,
		DurationYears: p.DurationYears,
		TotalCost:     p.TotalCost,
		TuitionCost:   p.TuitionCost,
		LivingCost:    p.LivingCost,
		Currency:      p.Currency,
	}
	if p.DurationYears > 1 {
		sel.TuitionPerYear = p.TuitionCost / float64(p.DurationYears)
		sel.LivingPerYear = p.LivingCost / float64(p.DurationYears)
	}
	return sel
}

// NewEntry builds a transcript entry. System messages pass an empty step.
func NewEntry(text string, userAuthored bool, step Step) Entry {
	return Entry{
		ID:              uuid.New(),
		Text:            text,
		UserAuthored:    userAuthored,
		OriginatingStep: step,
		CreatedAt:       time.Now().UTC(),
	}
}

// RateTable maps currency codes to multipliers against a base currency.
type RateTable struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Validation is the structured result every input validator returns.
// Validators never panic and never return errors as Go errors; failure text
// is user-facing.
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}
