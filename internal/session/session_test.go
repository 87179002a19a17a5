package session

import (
	"testing"
	"time"

	"github.com/CareBridge/CareLine/internal/models"
)

func TestGetMissingReturnsNil(t *testing.T) {
	s := NewStore()
	if s.Assessment("+31600000001") != nil {
		t.Error("expected nil for unknown sender")
	}
	if s.Onboarding("+31600000001") != nil {
		t.Error("expected nil for unknown sender")
	}
}

func TestStartAssessmentInitialState(t *testing.T) {
	s := NewStore()
	sess := s.StartAssessment("+31600000002")
	if sess.QuestionIndex != 0 || len(sess.Answers) != 0 {
		t.Errorf("fresh session has index=%d answers=%d", sess.QuestionIndex, len(sess.Answers))
	}
	if sess.Step != models.AssessmentStepQuestions {
		t.Errorf("Step = %q", sess.Step)
	}
	if got := s.Assessment("+31600000002"); got != sess {
		t.Error("lookup should return the stored session")
	}
}

func TestStartOverwritesStaleSession(t *testing.T) {
	s := NewStore()
	sender := "+31600000003"
	old := s.StartAssessment(sender)
	old.QuestionIndex = 7
	s.SaveAssessment(old)

	fresh := s.StartAssessment(sender)
	if fresh.QuestionIndex != 0 {
		t.Errorf("restart kept old progress: index=%d", fresh.QuestionIndex)
	}
	if got := s.Assessment(sender); got.QuestionIndex != 0 {
		t.Errorf("stored session still has index=%d", got.QuestionIndex)
	}
}

func TestFlowTypesAreIndependent(t *testing.T) {
	s := NewStore()
	sender := "+31600000004"
	s.StartAssessment(sender)
	s.StartOnboarding(sender)

	s.Clear(sender, models.FlowTypeOnboarding)
	if s.Onboarding(sender) != nil {
		t.Error("onboarding session should be gone")
	}
	if s.Assessment(sender) == nil {
		t.Error("assessment session must survive clearing the other flow")
	}
}

func TestLazyExpiry(t *testing.T) {
	s := NewStore(WithTTL(20 * time.Millisecond))
	sender := "+31600000005"
	s.StartAssessment(sender)
	if s.Assessment(sender) == nil {
		t.Fatal("session should be live before the TTL elapses")
	}

	time.Sleep(40 * time.Millisecond)
	if s.Assessment(sender) != nil {
		t.Error("session should have expired")
	}
}

func TestSaveRefreshesTTL(t *testing.T) {
	s := NewStore(WithTTL(60 * time.Millisecond))
	sender := "+31600000006"
	sess := s.StartAssessment(sender)

	time.Sleep(40 * time.Millisecond)
	sess.QuestionIndex = 1
	s.SaveAssessment(sess)

	time.Sleep(40 * time.Millisecond)
	if got := s.Assessment(sender); got == nil || got.QuestionIndex != 1 {
		t.Error("save should have refreshed the TTL")
	}
}

func TestSaveAfterClearIsDropped(t *testing.T) {
	s := NewStore()
	sender := "+31600000007"
	sess := s.StartAssessment(sender)
	s.Clear(sender, models.FlowTypeAssessment)

	sess.QuestionIndex = 3
	s.SaveAssessment(sess)
	if s.Assessment(sender) != nil {
		t.Error("save must not resurrect a cleared session")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	s := NewStore()
	sender := "+31600000008"
	s.StartOnboarding(sender)
	s.Clear(sender, models.FlowTypeOnboarding)
	s.Clear(sender, models.FlowTypeOnboarding)
	if s.Onboarding(sender) != nil {
		t.Error("session should stay cleared")
	}
}
