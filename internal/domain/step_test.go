package domain

import "testing"

func TestStepOrderIsStable(t *testing.T) {
	want := []Step{
		StepWelcome, StepStudyLevel, StepAdmitStatus, StepIntendedDate,
		StepUniversity, StepPrograms, StepLoanAmount, StepLoanType,
		StepOTP, StepVerified, StepLoans,
	}
	got := Steps()
	if len(got) != len(want) {
		t.Fatalf("len: want=%d got=%d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: want=%s got=%s", i, want[i], got[i])
		}
	}
}

func TestStepNext(t *testing.T) {
	next, ok := StepWelcome.Next()
	if !ok || next != StepStudyLevel {
		t.Fatalf("welcome.Next: got %s ok=%v", next, ok)
	}
	if _, ok := StepLoans.Next(); ok {
		t.Fatalf("loans is terminal")
	}
	if _, ok := Step("bogus").Next(); ok {
		t.Fatalf("unknown steps have no successor")
	}
}

func TestStepComparisons(t *testing.T) {
	if !StepWelcome.Before(StepLoans) {
		t.Fatalf("welcome should precede loans")
	}
	if !StepVerified.AtOrAfter(StepVerified) {
		t.Fatalf("AtOrAfter must be inclusive")
	}
	if StepOTP.AtOrAfter(StepVerified) {
		t.Fatalf("otp precedes verified")
	}
	if Step("bogus").Valid() {
		t.Fatalf("unknown step must be invalid")
	}
}

func TestAnswersClearFrom(t *testing.T) {
	full := func() Answers {
		return Answers{
			StudyLevel:    "Masters",
			AdmitStatus:   "Admitted",
			IntendedMonth: 9,
			IntendedYear:  2026,
			University:    "Stanford University",
			Program:       &SelectedProgram{Name: "MBA", Currency: "USD"},
			Currency:      "USD",
			LoanAmount:    75000,
			LoanType:      LoanTypeUnsecured,
			PhoneCountry:  "+91",
			PhoneNumber:   "9876543210",
			OTPCode:       "123456",
		}
	}

	a := full()
	a.ClearFrom(StepLoanAmount)
	if a.LoanAmount != 0 || a.LoanType != "" || a.PhoneNumber != "" {
		t.Fatalf("fields at or after loan_amount must clear: %+v", a)
	}
	if a.Program == nil || a.University == "" || a.StudyLevel == "" {
		t.Fatalf("fields before loan_amount must survive: %+v", a)
	}

	a = full()
	a.ClearFrom(StepStudyLevel)
	for _, step := range Steps() {
		if a.OwnedFieldsSet(step) {
			t.Fatalf("clearing from study_level left %s populated: %+v", step, a)
		}
	}

	a = full()
	a.ClearFrom(Step("bogus"))
	if a.StudyLevel == "" || a.Program == nil || a.PhoneNumber == "" {
		t.Fatalf("unknown step must not clear anything: %+v", a)
	}
}

func TestProgramOptionSelect(t *testing.T) {
	opt := ProgramOption{Name: "MBA", DurationYears: 2, TotalCost: 180000, TuitionCost: 150000, LivingCost: 30000, Currency: "USD"}
	sel := opt.Select()
	if sel.TuitionPerYear != 75000 || sel.LivingPerYear != 15000 {
		t.Fatalf("per-year costs: %+v", sel)
	}

	oneYear := ProgramOption{Name: "LLM", DurationYears: 1, TotalCost: 90000, TuitionCost: 80000, LivingCost: 10000, Currency: "GBP"}
	sel = oneYear.Select()
	if sel.TuitionPerYear != 0 || sel.LivingPerYear != 0 {
		t.Fatalf("single-year programs carry no per-year split: %+v", sel)
	}
}
