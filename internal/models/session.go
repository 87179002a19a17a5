// Package models defines session state structures for CareLine flows.
package models

import "time"

// FlowType identifies which multi-turn flow a session belongs to. At most one
// session per sender per flow type is active at a time.
type FlowType string

const (
	// FlowTypeAssessment is the caregiver-burden questionnaire flow.
	FlowTypeAssessment FlowType = "assessment"
	// FlowTypeOnboarding is the login/registration flow.
	FlowTypeOnboarding FlowType = "onboarding"
)

// AssessmentStep is the state of an assessment session.
type AssessmentStep string

const (
	AssessmentStepQuestions AssessmentStep = "questions"
	AssessmentStepCompleted AssessmentStep = "completed"
)

// AssessmentSession tracks a sender's progress through the questionnaire.
// Answers keeps insertion order equal to question order.
type AssessmentSession struct {
	SenderID      string             `json:"sender_id"`
	Step          AssessmentStep     `json:"step"`
	QuestionIndex int                `json:"question_index"`
	Answers       []AssessmentAnswer `json:"answers"`
	ExpiresAt     time.Time          `json:"expires_at"`
}

// OnboardingStep is the state of an onboarding session.
type OnboardingStep string

const (
	OnboardingStepChoice           OnboardingStep = "choice"
	OnboardingStepLoginEmail       OnboardingStep = "login_email"
	OnboardingStepLoginPassword    OnboardingStep = "login_password"
	OnboardingStepRegisterName     OnboardingStep = "register_name"
	OnboardingStepRegisterEmail    OnboardingStep = "register_email"
	OnboardingStepRegisterPassword OnboardingStep = "register_password"
)

// OnboardingSession tracks a sender's progress through login or registration.
// Identifier and Name hold partial input captured in earlier steps.
type OnboardingSession struct {
	SenderID   string         `json:"sender_id"`
	Step       OnboardingStep `json:"step"`
	Identifier string         `json:"identifier,omitempty"`
	Name       string         `json:"name,omitempty"`
	ExpiresAt  time.Time      `json:"expires_at"`
}
