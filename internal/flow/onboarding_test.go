package flow

import (
	"context"
	"strings"
	"testing"
)

func startRegistration(t *testing.T, engine *Engine, sender string) {
	t.Helper()
	ctx := context.Background()
	engine.Handle(ctx, sender, "login") // anonymous menu: starts onboarding
	reply := engine.Handle(ctx, sender, "2")
	if !strings.Contains(strings.ToLower(reply), "name") {
		t.Fatalf("expected name prompt after choosing register, got %q", reply)
	}
}

func TestRegistrationHappyPathWithCorrections(t *testing.T) {
	engine, st, sessions := newTestEngine()
	ctx := context.Background()
	sender := "+31600000100"
	startRegistration(t, engine, sender)

	engine.Handle(ctx, sender, "Anna")

	// Malformed email re-prompts at the same step.
	reply := engine.Handle(ctx, sender, "not-an-email")
	if !strings.Contains(strings.ToLower(reply), "email") {
		t.Errorf("expected email re-prompt, got %q", reply)
	}
	if sess := sessions.Onboarding(sender); sess == nil || sess.Step != "register_email" {
		t.Fatal("invalid email must not advance the step")
	}

	engine.Handle(ctx, sender, "anna@example.org")

	// Short password re-prompts at the same step.
	reply = engine.Handle(ctx, sender, "abc")
	if !strings.Contains(strings.ToLower(reply), "short") {
		t.Errorf("expected short-password re-prompt, got %q", reply)
	}
	if sess := sessions.Onboarding(sender); sess == nil || sess.Step != "register_password" {
		t.Fatal("short password must not advance the step")
	}

	reply = engine.Handle(ctx, sender, "hunter2abc")
	if !strings.Contains(reply, "Anna") {
		t.Errorf("expected personalised success message, got %q", reply)
	}
	if sessions.Onboarding(sender) != nil {
		t.Error("session should be cleared on success")
	}

	acct, err := st.AccountByIdentifier("anna@example.org")
	if err != nil || acct == nil {
		t.Fatalf("account not created: %v", err)
	}
	prof, err := st.ProfileBySender(sender)
	if err != nil || prof == nil {
		t.Fatalf("profile not linked: %v", err)
	}
	if prof.AccountID != acct.ID {
		t.Error("profile not linked to the created account")
	}
}

func TestRegistrationDuplicateEmailIsTerminal(t *testing.T) {
	engine, st, sessions := newTestEngine()
	ctx := context.Background()
	if _, err := st.CreateAccount("taken@example.org", "Bob", "password123"); err != nil {
		t.Fatal(err)
	}

	sender := "+31600000101"
	startRegistration(t, engine, sender)
	engine.Handle(ctx, sender, "Eve")
	reply := engine.Handle(ctx, sender, "taken@example.org")

	if !strings.Contains(strings.ToLower(reply), "already in use") {
		t.Errorf("expected already-in-use outcome, got %q", reply)
	}
	if sessions.Onboarding(sender) != nil {
		t.Error("duplicate email must clear the session")
	}
	// No account mutation happened.
	acct, _ := st.AccountByIdentifier("taken@example.org")
	if acct == nil || acct.Name != "Bob" {
		t.Error("existing account must be untouched")
	}
}

func TestLoginSuccessLinksProfile(t *testing.T) {
	engine, st, sessions := newTestEngine()
	ctx := context.Background()
	acct, err := st.CreateAccount("carol@example.org", "Carol", "correcthorse")
	if err != nil {
		t.Fatal(err)
	}

	sender := "+31600000102"
	engine.Handle(ctx, sender, "4") // anonymous menu option 4: onboarding
	engine.Handle(ctx, sender, "1") // choice: login
	engine.Handle(ctx, sender, "carol@example.org")
	reply := engine.Handle(ctx, sender, "correcthorse")

	if !strings.Contains(reply, "Carol") {
		t.Errorf("expected personalised welcome, got %q", reply)
	}
	if sessions.Onboarding(sender) != nil {
		t.Error("session should be cleared on success")
	}
	prof, _ := st.ProfileBySender(sender)
	if prof == nil || prof.AccountID != acct.ID {
		t.Error("sender should be linked to the account's profile")
	}
}

func TestLoginFailureIsTerminal(t *testing.T) {
	engine, st, sessions := newTestEngine()
	ctx := context.Background()
	if _, err := st.CreateAccount("dave@example.org", "Dave", "correcthorse"); err != nil {
		t.Fatal(err)
	}

	sender := "+31600000103"
	engine.Handle(ctx, sender, "login")
	engine.Handle(ctx, sender, "1")
	engine.Handle(ctx, sender, "dave@example.org")
	reply := engine.Handle(ctx, sender, "wrongpassword")

	if !strings.Contains(strings.ToLower(reply), "didn't match") {
		t.Errorf("expected login failure message, got %q", reply)
	}
	if sessions.Onboarding(sender) != nil {
		t.Error("failed login must clear the session, no in-session retry")
	}
	if prof, _ := st.ProfileBySender(sender); prof != nil {
		t.Error("failed login must not link a profile")
	}
}

func TestLoginUnknownAccountIsTerminal(t *testing.T) {
	engine, _, sessions := newTestEngine()
	ctx := context.Background()
	sender := "+31600000104"
	engine.Handle(ctx, sender, "login")
	engine.Handle(ctx, sender, "1")
	engine.Handle(ctx, sender, "nobody@example.org")
	reply := engine.Handle(ctx, sender, "whatever123")

	if !strings.Contains(strings.ToLower(reply), "didn't match") {
		t.Errorf("unknown account should read like a credential mismatch, got %q", reply)
	}
	if sessions.Onboarding(sender) != nil {
		t.Error("session must be cleared")
	}
}

func TestOnboardingChoiceRepromptsOnUnmatched(t *testing.T) {
	engine, _, sessions := newTestEngine()
	ctx := context.Background()
	sender := "+31600000105"
	engine.Handle(ctx, sender, "login")

	reply := engine.Handle(ctx, sender, "banana")
	if sess := sessions.Onboarding(sender); sess == nil || sess.Step != "choice" {
		t.Fatal("unmatched choice must not advance")
	}
	if !strings.Contains(reply, "1. Log in") {
		t.Errorf("expected both options in re-prompt, got %q", reply)
	}
}
