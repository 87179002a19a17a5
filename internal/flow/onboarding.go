package flow

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/CareBridge/CareLine/internal/models"
)

// MinPasswordLength is the minimum accepted secret length at registration.
const MinPasswordLength = 8

// emailShapeRegex checks basic email shape only; deliverability is not
// validated here.
var emailShapeRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// resolveOnboarding routes the message to the onboarding flow when the
// sender has an active onboarding session. The assessment resolver runs
// first, so an active assessment always wins.
func (e *Engine) resolveOnboarding(ctx context.Context, from, body string) (string, bool) {
	sess := e.sessions.Onboarding(from)
	if sess == nil {
		return "", false
	}
	return e.handleOnboardingTurn(ctx, sess, body), true
}

// startOnboarding creates a fresh session at the choice step.
func (e *Engine) startOnboarding(ctx context.Context, from string) string {
	e.sessions.StartOnboarding(from)
	slog.Info("Engine onboarding started", "sender", from)
	return e.composer.OnboardingChoice()
}

// handleOnboardingTurn advances the login/registration dialogue by at most
// one step. Auth failures are terminal: the session is cleared and the
// sender must restart the flow.
func (e *Engine) handleOnboardingTurn(ctx context.Context, sess *models.OnboardingSession, body string) string {
	switch sess.Step {
	case models.OnboardingStepChoice:
		return e.handleOnboardingChoice(sess, body)
	case models.OnboardingStepLoginEmail:
		return e.handleLoginEmail(sess, body)
	case models.OnboardingStepLoginPassword:
		return e.handleLoginPassword(ctx, sess, body)
	case models.OnboardingStepRegisterName:
		return e.handleRegisterName(sess, body)
	case models.OnboardingStepRegisterEmail:
		return e.handleRegisterEmail(sess, body)
	case models.OnboardingStepRegisterPassword:
		return e.handleRegisterPassword(ctx, sess, body)
	default:
		slog.Error("Engine onboarding session in unknown step", "sender", sess.SenderID, "step", sess.Step)
		e.sessions.Clear(sess.SenderID, models.FlowTypeOnboarding)
		return e.composer.Apology()
	}
}

func (e *Engine) handleOnboardingChoice(sess *models.OnboardingSession, body string) string {
	switch Match(body, []Token{TokenLogin, TokenRegister}) {
	case TokenLogin:
		sess.Step = models.OnboardingStepLoginEmail
		e.sessions.SaveOnboarding(sess)
		return e.composer.AskLoginEmail()
	case TokenRegister:
		sess.Step = models.OnboardingStepRegisterName
		e.sessions.SaveOnboarding(sess)
		return e.composer.AskRegisterName()
	default:
		return e.composer.OnboardingChoiceReprompt()
	}
}

// handleLoginEmail accepts any non-empty string; the identifier is only
// validated by the account lookup in the next step.
func (e *Engine) handleLoginEmail(sess *models.OnboardingSession, body string) string {
	identifier := strings.TrimSpace(body)
	if identifier == "" {
		return e.composer.AskLoginEmail()
	}
	sess.Identifier = identifier
	sess.Step = models.OnboardingStepLoginPassword
	e.sessions.SaveOnboarding(sess)
	return e.composer.AskLoginPassword()
}

func (e *Engine) handleLoginPassword(ctx context.Context, sess *models.OnboardingSession, body string) string {
	acct, err := e.store.VerifyCredential(sess.Identifier, strings.TrimSpace(body))
	if err != nil {
		e.sessions.Clear(sess.SenderID, models.FlowTypeOnboarding)
		if errors.Is(err, models.ErrAccountNotFound) || errors.Is(err, models.ErrCredentialMismatch) {
			slog.Info("Engine login rejected", "sender", sess.SenderID)
			return e.composer.LoginFailed()
		}
		slog.Error("Engine login credential check failed", "error", err, "sender", sess.SenderID)
		return e.composer.Apology()
	}

	if _, err := e.store.CreateProfile(acct.ID, sess.SenderID); err != nil {
		slog.Error("Engine login profile link failed", "error", err, "sender", sess.SenderID, "accountID", acct.ID)
		e.sessions.Clear(sess.SenderID, models.FlowTypeOnboarding)
		return e.composer.Apology()
	}

	e.sessions.Clear(sess.SenderID, models.FlowTypeOnboarding)
	slog.Info("Engine login succeeded", "sender", sess.SenderID, "accountID", acct.ID)
	return e.composer.LoginSuccess(acct.Name)
}

func (e *Engine) handleRegisterName(sess *models.OnboardingSession, body string) string {
	name := strings.TrimSpace(body)
	if name == "" {
		return e.composer.AskRegisterName()
	}
	sess.Name = name
	sess.Step = models.OnboardingStepRegisterEmail
	e.sessions.SaveOnboarding(sess)
	return e.composer.AskRegisterEmail(name)
}

// handleRegisterEmail validates basic email shape (same-step re-prompt on
// failure). A well-formed but already-registered address is terminal.
func (e *Engine) handleRegisterEmail(sess *models.OnboardingSession, body string) string {
	email := strings.ToLower(strings.TrimSpace(body))
	if !emailShapeRegex.MatchString(email) {
		return e.composer.RegisterEmailInvalid()
	}

	existing, err := e.store.AccountByIdentifier(email)
	if err != nil {
		slog.Error("Engine registration identifier lookup failed", "error", err, "sender", sess.SenderID)
		e.sessions.Clear(sess.SenderID, models.FlowTypeOnboarding)
		return e.composer.RegisterFailed()
	}
	if existing != nil {
		slog.Info("Engine registration rejected, identifier taken", "sender", sess.SenderID)
		e.sessions.Clear(sess.SenderID, models.FlowTypeOnboarding)
		return e.composer.IdentifierTaken()
	}

	sess.Identifier = email
	sess.Step = models.OnboardingStepRegisterPassword
	e.sessions.SaveOnboarding(sess)
	return e.composer.AskRegisterPassword()
}

// handleRegisterPassword rejects short secrets at the same step, then
// creates the account and the linked profile. If the profile link fails
// after the account was created there is no compensating rollback; the turn
// reports a generic failure and clears the session.
func (e *Engine) handleRegisterPassword(ctx context.Context, sess *models.OnboardingSession, body string) string {
	secret := strings.TrimSpace(body)
	if len(secret) < MinPasswordLength {
		return e.composer.PasswordTooShort()
	}

	acct, err := e.store.CreateAccount(sess.Identifier, sess.Name, secret)
	if err != nil {
		e.sessions.Clear(sess.SenderID, models.FlowTypeOnboarding)
		if errors.Is(err, models.ErrIdentifierTaken) {
			slog.Info("Engine registration rejected at creation, identifier taken", "sender", sess.SenderID)
			return e.composer.IdentifierTaken()
		}
		slog.Error("Engine registration account creation failed", "error", err, "sender", sess.SenderID)
		return e.composer.RegisterFailed()
	}

	if _, err := e.store.CreateProfile(acct.ID, sess.SenderID); err != nil {
		slog.Error("Engine registration profile link failed", "error", err, "sender", sess.SenderID, "accountID", acct.ID)
		e.sessions.Clear(sess.SenderID, models.FlowTypeOnboarding)
		return e.composer.RegisterFailed()
	}

	e.sessions.Clear(sess.SenderID, models.FlowTypeOnboarding)
	slog.Info("Engine registration succeeded", "sender", sess.SenderID, "accountID", acct.ID)
	return e.composer.RegisterSuccess(acct.Name)
}
