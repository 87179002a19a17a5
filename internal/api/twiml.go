package api

import (
	"bytes"
	"encoding/xml"
	"log/slog"

	"github.com/twilio/twilio-go/twiml"
)

// composeTwiML renders the synchronous webhook reply. An empty reply yields
// an empty <Response/> acknowledgement. If the TwiML builder fails for any
// reason, a minimal hand-built document is returned so the provider always
// gets well-formed markup.
func composeTwiML(reply string) string {
	var verbs []twiml.Element
	if reply != "" {
		verbs = append(verbs, &twiml.MessagingMessage{Body: reply})
	}

	doc, err := twiml.Messages(verbs)
	if err != nil {
		slog.Error("TwiML composition failed, falling back to minimal document", "error", err)
		return fallbackTwiML(reply)
	}
	return doc
}

// fallbackTwiML builds the response document directly, escaping the body.
func fallbackTwiML(reply string) string {
	if reply == "" {
		return xml.Header + "<Response/>"
	}
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(reply)); err != nil {
		buf.Reset()
		buf.WriteString("Sorry, something went wrong on our side.")
	}
	return xml.Header + "<Response><Message>" + buf.String() + "</Message></Response>"
}
