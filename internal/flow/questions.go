package flow

import "github.com/CareBridge/CareLine/internal/models"

// Per-answer points for the headline burden score. Questions are framed
// positively, so "no" indicates higher burden. The per-question weight is
// persisted with each answer for analytics but is not applied to this sum.
const (
	PointsYes       = 0
	PointsSometimes = 1
	PointsNo        = 2
)

// Burden level thresholds, fixed relative to the maximum score 2N:
// LOW when score < N, HIGH when score >= ceil(4N/3), MEDIUM in between.
// For the 12-question set: LOW < 12, MEDIUM 12-15, HIGH >= 16.

// Questions is the caregiver-burden questionnaire, administered in order.
var Questions = []models.Question{
	{ID: "time_for_self", Text: "Do you have enough time for yourself?", Weight: 2},
	{ID: "sleep", Text: "Do you get enough sleep at night?", Weight: 3},
	{ID: "combine_work", Text: "Can you combine caregiving with your work or daily activities?", Weight: 2},
	{ID: "physical_health", Text: "Do you feel physically healthy?", Weight: 3},
	{ID: "backup_support", Text: "Is there someone who can take over your care duties when needed?", Weight: 3},
	{ID: "enjoyable_activities", Text: "Do you still do activities you enjoy?", Weight: 1},
	{ID: "appreciation", Text: "Do you feel appreciated for the care you provide?", Weight: 1},
	{ID: "relaxation", Text: "Can you relax when you are at home?", Weight: 2},
	{ID: "own_schedule", Text: "Do you feel in control of your own schedule?", Weight: 2},
	{ID: "social_contact", Text: "Do you manage to keep in touch with friends and family?", Weight: 1},
	{ID: "emotional_balance", Text: "Do you feel emotionally balanced?", Weight: 3},
	{ID: "confidence_future", Text: "Do you feel confident about how your care situation will develop?", Weight: 2},
}

// PointsFor returns the score contribution of a single answer.
func PointsFor(a models.Answer) int {
	switch a {
	case models.AnswerNo:
		return PointsNo
	case models.AnswerSometimes:
		return PointsSometimes
	default:
		return PointsYes
	}
}

// Score sums the per-answer points. Weights are deliberately not applied.
func Score(answers []models.AssessmentAnswer) int {
	total := 0
	for _, a := range answers {
		total += a.Points
	}
	return total
}

// LevelFor classifies a score for a questionnaire of n questions.
func LevelFor(score, n int) models.BurdenLevel {
	if score < n {
		return models.BurdenLow
	}
	// score >= (2/3) * 2n, kept in integer arithmetic
	if 3*score >= 4*n {
		return models.BurdenHigh
	}
	return models.BurdenMedium
}
