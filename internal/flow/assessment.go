package flow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CareBridge/CareLine/internal/models"
)

// stopKeyword cancels an assessment in progress. It is matched as a bare
// word, never positionally, so it cannot collide with the numeric answer
// aliases.
const stopKeyword = "stop"

// resolveAssessment routes the message to the assessment flow when the
// sender has an active session in the questions step. While that is the
// case no other command is recognized.
func (e *Engine) resolveAssessment(ctx context.Context, from, body string) (string, bool) {
	sess := e.sessions.Assessment(from)
	if sess == nil || sess.Step != models.AssessmentStepQuestions {
		return "", false
	}
	return e.handleAssessmentAnswer(ctx, sess, body), true
}

// startAssessment creates a fresh session at the first question.
func (e *Engine) startAssessment(ctx context.Context, from string) string {
	e.sessions.StartAssessment(from)
	slog.Info("Engine assessment started", "sender", from)
	return e.composer.AssessmentIntro(Questions[0])
}

// handleAssessmentAnswer advances the questionnaire by at most one step.
// Unrecognized input re-prompts without advancing; the stop keyword cancels
// without persisting anything.
func (e *Engine) handleAssessmentAnswer(ctx context.Context, sess *models.AssessmentSession, body string) string {
	if strings.EqualFold(strings.TrimSpace(body), stopKeyword) {
		e.sessions.Clear(sess.SenderID, models.FlowTypeAssessment)
		slog.Info("Engine assessment cancelled", "sender", sess.SenderID, "answered", len(sess.Answers))
		return e.composer.AssessmentCancelled()
	}

	token := Match(body, AnswerTokens)
	if token == TokenUnmatched {
		slog.Debug("Engine assessment answer unmatched", "sender", sess.SenderID, "questionIndex", sess.QuestionIndex)
		return e.composer.QuestionReprompt(sess.QuestionIndex, Questions[sess.QuestionIndex])
	}

	answer := answerForToken(token)
	q := Questions[sess.QuestionIndex]
	sess.Answers = append(sess.Answers, models.AssessmentAnswer{
		QuestionID: q.ID,
		Answer:     answer,
		Points:     PointsFor(answer),
		Weight:     q.Weight,
	})
	sess.QuestionIndex++

	if sess.QuestionIndex < len(Questions) {
		e.sessions.SaveAssessment(sess)
		return e.composer.QuestionPrompt(sess.QuestionIndex, Questions[sess.QuestionIndex])
	}
	return e.completeAssessment(ctx, sess)
}

// completeAssessment computes the score, persists the result best-effort,
// and clears the session in the same turn so a replay starts from scratch.
func (e *Engine) completeAssessment(ctx context.Context, sess *models.AssessmentSession) string {
	sess.Step = models.AssessmentStepCompleted
	score := Score(sess.Answers)
	level := LevelFor(score, len(Questions))

	result := models.AssessmentResult{
		ID:        uuid.NewString(),
		SenderID:  sess.SenderID,
		Score:     score,
		Level:     level,
		Answers:   sess.Answers,
		CreatedAt: time.Now(),
	}
	if prof, err := e.store.ProfileBySender(sess.SenderID); err != nil {
		slog.Error("Engine assessment profile lookup failed", "error", err, "sender", sess.SenderID)
	} else if prof != nil {
		result.ProfileID = prof.ID
	}

	// Saving is best-effort: the sender still gets the summary if it fails.
	if err := e.store.SaveAssessmentResult(result); err != nil {
		slog.Error("Engine assessment result save failed", "error", err, "sender", sess.SenderID, "score", score)
	} else {
		slog.Info("Engine assessment completed", "sender", sess.SenderID, "score", score, "level", level)
	}

	e.sessions.Clear(sess.SenderID, models.FlowTypeAssessment)
	return e.composer.AssessmentSummary(score, 2*len(Questions), level)
}

func answerForToken(t Token) models.Answer {
	switch t {
	case TokenNo:
		return models.AnswerNo
	case TokenSometimes:
		return models.AnswerSometimes
	default:
		return models.AnswerYes
	}
}
