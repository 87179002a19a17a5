package api

import (
	"log/slog"
	"net/http"
	"strings"

	twilioclient "github.com/twilio/twilio-go/client"
)

// twilioWebhookHandler handles inbound Twilio messages. The reply is
// returned synchronously as TwiML. The provider must always receive a
// well-formed 200 response, even on internal failure, so it never
// retry-storms a broken conversation.
func (s *Server) twilioWebhookHandler(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Twilio webhook handler panicked", "panic", rec)
			writeTwiML(w, s.engine.Composer().Apology())
		}
	}()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		slog.Error("Failed to parse Twilio webhook form", "error", err)
		writeTwiML(w, "")
		return
	}

	if !s.validSignature(r) {
		slog.Warn("Twilio webhook signature rejected", "remote", r.RemoteAddr)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	// Twilio prefixes the sender with the channel ("whatsapp:+316...").
	// Strip it so both transports share one E.164 sender key.
	from := strings.TrimPrefix(r.FormValue("From"), "whatsapp:")
	body := r.FormValue("Body")
	if from == "" {
		slog.Warn("Twilio webhook missing sender")
		writeTwiML(w, "")
		return
	}

	slog.Info("Inbound message received", "from", from, "body_length", len(body))
	reply := s.engine.Handle(r.Context(), from, body)
	writeTwiML(w, reply)
}

// validSignature checks X-Twilio-Signature when an auth token is
// configured. Without a token validation is skipped (local development and
// tests).
func (s *Server) validSignature(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}

	url := s.publicURL
	if url == "" {
		scheme := "https"
		if r.TLS == nil {
			scheme = "http"
		}
		url = scheme + "://" + r.Host + r.URL.RequestURI()
	}

	params := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		params[key] = r.PostForm.Get(key)
	}

	validator := twilioclient.NewRequestValidator(s.authToken)
	return validator.Validate(url, params, r.Header.Get("X-Twilio-Signature"))
}

// writeTwiML writes a TwiML messaging response. An empty reply produces an
// empty <Response/>, which acknowledges the message without sending one.
func writeTwiML(w http.ResponseWriter, reply string) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)

	doc := composeTwiML(reply)
	if _, err := w.Write([]byte(doc)); err != nil {
		slog.Error("Failed to write TwiML response", "error", err)
	}
}

// healthHandler reports liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}
