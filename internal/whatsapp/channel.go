package whatsapp

import (
	"context"
	"log/slog"
	"strings"

	"go.mau.fi/whatsmeow/types/events"
)

// Responder produces exactly one reply for an inbound message. Implemented
// by the flow engine; declared here so the channel does not depend on the
// engine's concrete type.
type Responder interface {
	Handle(ctx context.Context, from, body string) string
}

// Channel connects the WhatsApp client to the conversation engine: inbound
// text messages are routed through the Responder and the reply is sent back
// over the same connection.
type Channel struct {
	client  *Client
	sender  Sender
	engine  Responder
	handler uint32
}

// NewChannel creates a channel around a connected client.
func NewChannel(client *Client, engine Responder) *Channel {
	return &Channel{client: client, sender: client, engine: engine}
}

// Start registers the event handler. It returns immediately; events are
// delivered on whatsmeow's goroutines until Stop is called.
func (ch *Channel) Start(ctx context.Context) {
	ch.handler = ch.client.GetClient().AddEventHandler(func(evt interface{}) {
		switch v := evt.(type) {
		case *events.Message:
			ch.handleIncomingMessage(ctx, v)
		default:
			// Ignore receipts, presence, and other event types.
		}
	})
	slog.Info("WhatsApp channel started")
}

// Stop unregisters the event handler and disconnects.
func (ch *Channel) Stop() {
	ch.client.GetClient().RemoveEventHandler(ch.handler)
	ch.client.Disconnect()
	slog.Info("WhatsApp channel stopped")
}

// handleIncomingMessage extracts the text of an inbound message, runs it
// through the engine, and sends the reply back. Non-text messages and group
// chats are ignored.
func (ch *Channel) handleIncomingMessage(ctx context.Context, evt *events.Message) {
	if evt.Message == nil || evt.Info.IsFromMe || evt.Info.IsGroup {
		return
	}

	var messageText string
	if evt.Message.Conversation != nil {
		messageText = *evt.Message.Conversation
	} else if evt.Message.ExtendedTextMessage != nil && evt.Message.ExtendedTextMessage.Text != nil {
		messageText = *evt.Message.ExtendedTextMessage.Text
	} else {
		slog.Debug("WhatsApp channel ignoring non-text message", "from", evt.Info.Sender.String())
		return
	}

	// Convert JID to E.164 format so both channels share one sender key.
	fromNumber := evt.Info.Sender.User
	if !strings.HasPrefix(fromNumber, "+") {
		fromNumber = "+" + fromNumber
	}

	slog.Debug("WhatsApp channel processing message", "from", fromNumber, "body_length", len(messageText))
	reply := ch.engine.Handle(ctx, fromNumber, messageText)
	if reply == "" {
		return
	}
	if err := ch.sender.SendMessage(ctx, fromNumber, reply); err != nil {
		slog.Error("WhatsApp channel failed to send reply", "error", err, "to", fromNumber)
	}
}
