package flow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/CareBridge/CareLine/internal/models"
)

func TestAssessmentTakesPrecedenceOverOnboarding(t *testing.T) {
	engine, _, sessions := newTestEngine()
	ctx := context.Background()
	sender := "+31600000200"
	engine.Handle(ctx, sender, "assessment")

	// Mid-assessment, onboarding-trigger text is only an answer attempt.
	reply := engine.Handle(ctx, sender, "login")
	if sessions.Onboarding(sender) != nil {
		t.Error("onboarding must not start while an assessment is active")
	}
	if !engine.HasActiveSession(sender, models.FlowTypeAssessment) {
		t.Error("assessment session should still be active")
	}
	sess := sessions.Assessment(sender)
	if sess == nil || sess.QuestionIndex != 0 {
		t.Error("assessment state must be unchanged by the unmatched attempt")
	}
	if !strings.Contains(reply, Questions[0].Text) {
		t.Errorf("expected assessment re-prompt, got %q", reply)
	}
}

func TestAnonymousMenuFallsBackToMenu(t *testing.T) {
	engine, _, _ := newTestEngine()
	reply := engine.Handle(context.Background(), "+31600000201", "blah blah")
	if !strings.Contains(reply, "1. Self-test") {
		t.Errorf("expected anonymous menu fallback, got %q", reply)
	}
}

func TestAuthenticatedMenuForLinkedSender(t *testing.T) {
	engine, st, _ := newTestEngine()
	ctx := context.Background()
	sender := "+31600000202"
	acct, err := st.CreateAccount("frank@example.org", "Frank", "password123")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.CreateProfile(acct.ID, sender); err != nil {
		t.Fatal(err)
	}

	reply := engine.Handle(ctx, sender, "menu")
	if !strings.Contains(reply, "Frank") {
		t.Errorf("expected personalised menu, got %q", reply)
	}
	if !strings.Contains(reply, "2. Tasks") {
		t.Errorf("expected authenticated commands, got %q", reply)
	}
}

func TestTasksDueTodayCommand(t *testing.T) {
	engine, st, _ := newTestEngine()
	ctx := context.Background()
	sender := "+31600000203"
	acct, _ := st.CreateAccount("gina@example.org", "Gina", "password123")
	prof, _ := st.CreateProfile(acct.ID, sender)

	now := time.Now()
	st.AddTask(models.CareTask{ID: "t1", ProfileID: prof.ID, Title: "Pick up medication", DueAt: &now})
	tomorrow := now.Add(24 * time.Hour)
	st.AddTask(models.CareTask{ID: "t2", ProfileID: prof.ID, Title: "Doctor visit", DueAt: &tomorrow})

	reply := engine.Handle(ctx, sender, "tasks")
	if !strings.Contains(reply, "Pick up medication") {
		t.Errorf("expected today's task in reply, got %q", reply)
	}
	if strings.Contains(reply, "Doctor visit") {
		t.Errorf("tomorrow's task must not be listed, got %q", reply)
	}
}

func TestDashboardSummaryCommand(t *testing.T) {
	engine, st, _ := newTestEngine()
	ctx := context.Background()
	sender := "+31600000204"
	acct, _ := st.CreateAccount("hana@example.org", "Hana", "password123")
	prof, _ := st.CreateProfile(acct.ID, sender)
	st.AddTask(models.CareTask{ID: "t1", ProfileID: prof.ID, Title: "Call pharmacy"})
	st.AddCheckin(models.WellbeingCheckin{ProfileID: prof.ID, Mood: "tired", CreatedAt: time.Now()})

	reply := engine.Handle(ctx, sender, "summary")
	if !strings.Contains(reply, "Hana") || !strings.Contains(reply, "tired") {
		t.Errorf("expected summary with name and checkin, got %q", reply)
	}
	if !strings.Contains(reply, "Open care tasks: 1") {
		t.Errorf("expected open task count, got %q", reply)
	}
}

func TestContactCommandNotifiesCareTeam(t *testing.T) {
	notifier := &mockNotifier{}
	engine, _, _ := newTestEngine(WithNotifier(notifier, "+31600009999"))
	reply := engine.Handle(context.Background(), "+31600000205", "contact")

	if !strings.Contains(strings.ToLower(reply), "care team") {
		t.Errorf("expected contact confirmation, got %q", reply)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	if notifier.sent[0].To != "+31600009999" {
		t.Errorf("notification sent to %q", notifier.sent[0].To)
	}
	if !strings.Contains(notifier.sent[0].Body, "+31600000205") {
		t.Error("notification should identify the requesting sender")
	}
}

func TestContactNotificationFailureIsSilent(t *testing.T) {
	notifier := &mockNotifier{err: context.DeadlineExceeded}
	engine, _, _ := newTestEngine(WithNotifier(notifier, "+31600009999"))
	reply := engine.Handle(context.Background(), "+31600000206", "contact")
	if !strings.Contains(strings.ToLower(reply), "care team") {
		t.Errorf("sender must still get the confirmation, got %q", reply)
	}
}

func TestEmptySenderGetsApology(t *testing.T) {
	engine, _, _ := newTestEngine()
	reply := engine.Handle(context.Background(), "   ", "hello")
	if reply == "" {
		t.Error("empty sender must still produce a reply")
	}
}

func TestEveryTurnProducesAReply(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()
	inputs := []string{"", "menu", "assessment", "gibberish", "stop", "login", "2", "", "x@y.z", "1"}
	for i, input := range inputs {
		if reply := engine.Handle(ctx, "+31600000207", input); reply == "" {
			t.Fatalf("turn %d (%q) produced no reply", i, input)
		}
	}
}
