package domain

// Step is one named stage of the loan-discovery conversation. The order is
// fixed; a conversation is always at exactly one step.
type Step string

const (
	StepWelcome      Step = "welcome"
	StepStudyLevel   Step = "study_level"
	StepAdmitStatus  Step = "admit_status"
	StepIntendedDate Step = "intended_date"
	StepUniversity   Step = "university"
	StepPrograms     Step = "programs"
	StepLoanAmount   Step = "loan_amount"
	StepLoanType     Step = "loan_type"
	StepOTP          Step = "otp"
	StepVerified     Step = "verified"
	StepLoans        Step = "loans"
)

var stepOrder = []Step{
	StepWelcome,
	StepStudyLevel,
	StepAdmitStatus,
	StepIntendedDate,
	StepUniversity,
	StepPrograms,
	StepLoanAmount,
	StepLoanType,
	StepOTP,
	StepVerified,
	StepLoans,
}

func Steps() []Step {
	out := make([]Step, len(stepOrder))
	copy(out, stepOrder)
	return out
}

// Index returns the position of s in the fixed order, or -1 for unknown steps.
func (s Step) Index() int {
	for i, st := range stepOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Step) Valid() bool { return s.Index() >= 0 }

// Next returns the step following s in the fixed order. The second return is
// false at the end of the flow or for unknown steps. Gated transitions
// (university→programs, otp→verified) are enforced by the controller, not
// here.
func (s Step) Next() (Step, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(stepOrder) {
		return "", false
	}
	return stepOrder[i+1], true
}

func (s Step) Before(other Step) bool {
	return s.Index() < other.Index()
}

func (s Step) AtOrAfter(other Step) bool {
	return s.Index() >= other.Index()
}
