package flow

import (
	"context"
	"log/slog"

	"github.com/CareBridge/CareLine/internal/models"
)

// menuHandler executes one menu command for a sender. prof is nil for the
// anonymous dispatcher.
type menuHandler func(ctx context.Context, from string, prof *models.CareProfile) string

// authenticatedMenuOptions orders the commands of the authenticated menu.
// The order fixes the positional numeric aliases (1 = self-test).
var authenticatedMenuOptions = []Token{
	TokenAssessment, TokenTasks, TokenResources, TokenSummary, TokenContact, TokenMenu,
}

// anonymousMenuOptions orders the commands of the anonymous menu.
var anonymousMenuOptions = []Token{
	TokenAssessment, TokenResources, TokenContact, TokenOnboard, TokenMenu,
}

func (e *Engine) buildMenuTables() {
	e.authedHandlers = map[Token]menuHandler{
		TokenAssessment: func(ctx context.Context, from string, _ *models.CareProfile) string {
			return e.startAssessment(ctx, from)
		},
		TokenTasks:     e.menuTasks,
		TokenResources: func(ctx context.Context, from string, _ *models.CareProfile) string { return e.composer.ResourcesNearby() },
		TokenSummary:   e.menuSummary,
		TokenContact:   e.menuContact,
		TokenMenu: func(ctx context.Context, from string, prof *models.CareProfile) string {
			return e.composer.AuthenticatedMenu(e.accountName(prof))
		},
	}
	e.anonHandlers = map[Token]menuHandler{
		TokenAssessment: func(ctx context.Context, from string, _ *models.CareProfile) string {
			return e.startAssessment(ctx, from)
		},
		TokenResources: func(ctx context.Context, from string, _ *models.CareProfile) string { return e.composer.ResourcesGeneral() },
		TokenContact:   e.menuContact,
		TokenOnboard: func(ctx context.Context, from string, _ *models.CareProfile) string {
			return e.startOnboarding(ctx, from)
		},
		TokenMenu: func(ctx context.Context, from string, _ *models.CareProfile) string { return e.composer.AnonymousMenu() },
	}
}

// resolveAuthenticatedMenu dispatches commands for senders linked to a
// profile. Unrecognized input falls back to re-displaying the menu.
func (e *Engine) resolveAuthenticatedMenu(ctx context.Context, from, body string) (string, bool) {
	prof, err := e.store.ProfileBySender(from)
	if err != nil {
		slog.Error("Engine profile lookup failed", "error", err, "sender", from)
		return e.composer.Apology(), true
	}
	if prof == nil {
		return "", false
	}

	token := Match(body, authenticatedMenuOptions)
	if handler, ok := e.authedHandlers[token]; ok {
		return handler(ctx, from, prof), true
	}
	return e.composer.AuthenticatedMenuReprompt(e.accountName(prof)), true
}

// resolveAnonymousMenu dispatches commands for unlinked senders. It always
// handles the message, so no sender is ever left without a reply.
func (e *Engine) resolveAnonymousMenu(ctx context.Context, from, body string) (string, bool) {
	token := Match(body, anonymousMenuOptions)
	if handler, ok := e.anonHandlers[token]; ok {
		return handler(ctx, from, nil), true
	}
	return e.composer.AnonymousMenuReprompt(), true
}

func (e *Engine) menuTasks(ctx context.Context, from string, prof *models.CareProfile) string {
	tasks, err := e.store.TasksDueToday(prof.ID)
	if err != nil {
		slog.Error("Engine tasks lookup failed", "error", err, "sender", from)
		return e.composer.Apology()
	}
	return e.composer.TasksDueToday(tasks)
}

func (e *Engine) menuSummary(ctx context.Context, from string, prof *models.CareProfile) string {
	openTasks, err := e.store.CountOpenTasks(prof.ID)
	if err != nil {
		slog.Error("Engine open task count failed", "error", err, "sender", from)
		return e.composer.Apology()
	}
	checkin, err := e.store.LatestWellbeingCheckin(prof.ID)
	if err != nil {
		slog.Error("Engine wellbeing checkin lookup failed", "error", err, "sender", from)
		checkin = nil
	}
	return e.composer.DashboardSummary(e.accountName(prof), openTasks, checkin)
}

// menuContact fires a best-effort care-team notification; the sender gets a
// confirmation either way.
func (e *Engine) menuContact(ctx context.Context, from string, _ *models.CareProfile) string {
	if e.notifier != nil && e.careTeamNumber != "" {
		body := "CareLine: sender " + from + " has requested contact with the care team."
		if err := e.notifier.SendMessage(ctx, e.careTeamNumber, body); err != nil {
			slog.Error("Engine care team notification failed", "error", err, "sender", from)
		} else {
			slog.Info("Engine care team notified", "sender", from)
		}
	}
	return e.composer.ContactRequested()
}

func (e *Engine) accountName(prof *models.CareProfile) string {
	if prof == nil {
		return ""
	}
	acct, err := e.store.AccountByID(prof.AccountID)
	if err != nil || acct == nil {
		if err != nil {
			slog.Error("Engine account lookup failed", "error", err, "accountID", prof.AccountID)
		}
		return ""
	}
	return acct.Name
}
