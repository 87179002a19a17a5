// Package models defines the core data structures for CareLine.
//
// It includes accounts, care profiles, assessment questions and results, and
// the conversational session types shared across modules.
package models

import (
	"errors"
	"time"
)

// Answer is a normalized reply to a single assessment question.
type Answer string

const (
	// AnswerYes means the caregiver affirms the (positively framed) question.
	AnswerYes Answer = "yes"
	// AnswerSometimes means the caregiver partially affirms the question.
	AnswerSometimes Answer = "sometimes"
	// AnswerNo means the caregiver denies the question, indicating higher burden.
	AnswerNo Answer = "no"
)

// IsValidAnswer checks if the given answer value is supported.
func IsValidAnswer(a Answer) bool {
	switch a {
	case AnswerYes, AnswerSometimes, AnswerNo:
		return true
	default:
		return false
	}
}

// BurdenLevel is the coarse classification derived from an assessment score.
type BurdenLevel string

const (
	BurdenLow    BurdenLevel = "low"
	BurdenMedium BurdenLevel = "medium"
	BurdenHigh   BurdenLevel = "high"
)

// Error variables for better error handling and testability
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrCredentialMismatch = errors.New("credential does not match")
	ErrIdentifierTaken    = errors.New("identifier already registered")
)

// Question is a single caregiver-burden questionnaire item. The weight is
// persisted with each answer for analytics; the headline score does not
// apply it.
type Question struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Weight int    `json:"weight"`
}

// Account is a registered platform user, keyed by a login identifier.
type Account struct {
	ID             string    `json:"id"`
	Identifier     string    `json:"identifier"`
	Name           string    `json:"name"`
	CredentialHash string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// CareProfile links an account to a chat-channel sender identifier.
type CareProfile struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AssessmentAnswer is one persisted per-question answer record.
type AssessmentAnswer struct {
	QuestionID string `json:"question_id"`
	Answer     Answer `json:"answer"`
	Points     int    `json:"points"`
	Weight     int    `json:"weight"`
}

// AssessmentResult is a completed caregiver-burden assessment. ProfileID is
// empty for anonymous senders.
type AssessmentResult struct {
	ID        string             `json:"id"`
	SenderID  string             `json:"sender_id"`
	ProfileID string             `json:"profile_id,omitempty"`
	Score     int                `json:"score"`
	Level     BurdenLevel        `json:"level"`
	Answers   []AssessmentAnswer `json:"answers"`
	CreatedAt time.Time          `json:"created_at"`
}

// CareTask is a care-plan task belonging to a profile.
type CareTask struct {
	ID        string     `json:"id"`
	ProfileID string     `json:"profile_id"`
	Title     string     `json:"title"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	Done      bool       `json:"done"`
}

// WellbeingCheckin is the most recent self-reported wellbeing entry for a
// profile, shown in the dashboard summary.
type WellbeingCheckin struct {
	ProfileID string    `json:"profile_id"`
	Mood      string    `json:"mood"`
	CreatedAt time.Time `json:"created_at"`
}
