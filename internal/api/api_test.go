package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/CareBridge/CareLine/internal/flow"
	"github.com/CareBridge/CareLine/internal/session"
	"github.com/CareBridge/CareLine/internal/store"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	sessions := session.NewStore()
	composer := flow.NewComposer("https://careline.test", "+31 88 000 0000")
	engine := flow.NewEngine(sessions, st, composer)
	return NewServer(engine, opts...), st
}

func postWebhook(t *testing.T, s *Server, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestWebhookRepliesWithTwiML(t *testing.T) {
	s, _ := newTestServer(t)
	rec := postWebhook(t, s, url.Values{
		"From": {"whatsapp:+31600000400"},
		"Body": {"menu"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/xml" {
		t.Errorf("Content-Type = %q, want text/xml", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Response>") || !strings.Contains(body, "<Message>") {
		t.Errorf("expected a TwiML message, got %q", body)
	}
	if !strings.Contains(body, "Self-test") {
		t.Errorf("expected the menu in the reply, got %q", body)
	}
}

func TestWebhookMissingSenderAcknowledgesEmpty(t *testing.T) {
	s, _ := newTestServer(t)
	rec := postWebhook(t, s, url.Values{"Body": {"menu"}})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Response") {
		t.Errorf("expected a TwiML acknowledgement, got %q", body)
	}
	if strings.Contains(body, "<Message>") {
		t.Errorf("missing sender must not get a message, got %q", body)
	}
}

func TestWebhookRejectsNonPost(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/webhook/twilio", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	s, _ := newTestServer(t, WithTwilioAuthToken("testtoken"), WithPublicURL("https://careline.test/webhook/twilio"))
	form := url.Values{
		"From": {"whatsapp:+31600000401"},
		"Body": {"menu"},
	}
	req := httptest.NewRequest(http.MethodPost, "/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", "bogus")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestWebhookSkipsValidationWithoutToken(t *testing.T) {
	s, _ := newTestServer(t)
	rec := postWebhook(t, s, url.Values{
		"From": {"whatsapp:+31600000402"},
		"Body": {"menu"},
	})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when no auth token is configured", rec.Code)
	}
}

func TestWebhookConversationRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)
	from := "whatsapp:+31600000403"

	postWebhook(t, s, url.Values{"From": {from}, "Body": {"assessment"}})
	rec := postWebhook(t, s, url.Values{"From": {from}, "Body": {"no"}})

	if !strings.Contains(rec.Body.String(), "Question 2/") {
		t.Errorf("expected the second question, got %q", rec.Body.String())
	}
}

func TestWebhookSenderKeyIsChannelAgnostic(t *testing.T) {
	s, st := newTestServer(t)
	from := "whatsapp:+31612345678"

	// Register end to end over the Twilio channel.
	for _, body := range []string{"login", "2", "Ida", "ida@example.org", "correcthorse"} {
		postWebhook(t, s, url.Values{"From": {from}, "Body": {body}})
	}

	// The profile must be keyed by the bare E.164 number, so the direct
	// WhatsApp channel recognizes the same caregiver.
	prof, err := st.ProfileBySender("+31612345678")
	if err != nil || prof == nil {
		t.Fatalf("profile not found under E.164 sender key: (%v, %v)", prof, err)
	}
	if stale, _ := st.ProfileBySender(from); stale != nil {
		t.Errorf("profile must not be keyed by the prefixed sender %q", from)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body %q", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/health", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /health status = %d, want 405", rec.Code)
	}
}

func TestComposeTwiMLEscapesContent(t *testing.T) {
	doc := composeTwiML("tasks & <notes>")
	if !strings.Contains(doc, "&amp;") || strings.Contains(doc, "<notes>") {
		t.Errorf("reply not escaped: %q", doc)
	}

	empty := composeTwiML("")
	if strings.Contains(empty, "<Message>") {
		t.Errorf("empty reply must not produce a message verb: %q", empty)
	}
}
