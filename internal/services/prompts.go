package services

import (
	"fmt"
	"strings"

	"github.com/deepedumate/loan-aggregator-sub000/internal/domain"
)

// System-authored prompt text, appended as the follow-up message that reveals
// the next step's input affordance.

const welcomeText = "Hi! I can help you find education loans that fit your study plans. Ready to get started?"

func promptFor(step domain.Step) string {
	switch step {
	case domain.StepStudyLevel:
		return "Great! What level of study are you planning for?"
	case domain.StepAdmitStatus:
		return "Have you already been admitted, or are you still applying?"
	case domain.StepIntendedDate:
		return "When do you plan to start? Pick a month and year."
	case domain.StepUniversity:
		return "Which university are you considering? Start typing and pick a suggestion."
	case domain.StepLoanAmount:
		return "How much would you like to borrow?"
	case domain.StepLoanType:
		return "Would you prefer a secured or an unsecured loan?"
	case domain.StepOTP:
		return "Almost there! What's the best mobile number to reach you on? We'll text you a verification code."
	default:
		return ""
	}
}

func programListMessage(university string, options []domain.ProgramOption) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's what we found at %s. Pick your program, or tell us its name if it isn't listed:\n", university)
	for i, opt := range options {
		fmt.Fprintf(&b, "%d. %s (%s, %s total)\n", i+1, opt.Name, durationText(opt.DurationYears), FormatCost(opt.TotalCost, opt.Currency, "", nil, ModeOriginal))
	}
	return strings.TrimRight(b.String(), "\n")
}

func programSelectedMessage(sel *domain.SelectedProgram) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s runs for %s and costs %s in total", sel.Name, durationText(sel.DurationYears), FormatCost(sel.TotalCost, sel.Currency, "", nil, ModeOriginal))
	fmt.Fprintf(&b, " (%s tuition, %s living costs).", FormatCost(sel.TuitionCost, sel.Currency, "", nil, ModeOriginal), FormatCost(sel.LivingCost, sel.Currency, "", nil, ModeOriginal))
	return b.String()
}

func durationText(years int) string {
	if years == 1 {
		return "1 year"
	}
	return fmt.Sprintf("%d years", years)
}

const (
	msgNoPrograms          = "We couldn't find programs for that university and study level. Try a different university name, or check the spelling."
	msgProgramLookupFailed = "We couldn't look that program up right now. Please try again."
	msgOTPSent             = "We've texted a 6-digit code to your number. Enter it below. You can request a new code in 30 seconds."
	msgOTPResent           = "We've sent a new code. Give it a moment to arrive."
	msgOTPSendFailed       = "We couldn't send the code. Check the number and try again."
	msgOTPWrongCode        = "That code doesn't match. Double-check the text and try again."
	msgOTPVerifyFailed     = "We couldn't verify the code right now. Please try again."
	msgVerified            = "You're verified! We've lined up the loans you're eligible for."
)
