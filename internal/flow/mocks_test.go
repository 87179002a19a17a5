package flow

import (
	"context"
	"errors"

	"github.com/CareBridge/CareLine/internal/models"
	"github.com/CareBridge/CareLine/internal/store"
)

// failingStore wraps a Store and fails every assessment-result save.
type failingStore struct {
	store.Store
}

func (f *failingStore) SaveAssessmentResult(models.AssessmentResult) error {
	return errors.New("save failed")
}

// mockNotifier records care-team notifications.
type mockNotifier struct {
	sent []struct{ To, Body string }
	err  error
}

func (m *mockNotifier) SendMessage(ctx context.Context, to, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, struct{ To, Body string }{to, body})
	return nil
}
