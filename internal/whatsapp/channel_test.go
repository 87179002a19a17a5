package whatsapp

import (
	"context"
	"testing"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

type fakeResponder struct {
	lastFrom string
	lastBody string
	reply    string
}

func (f *fakeResponder) Handle(ctx context.Context, from, body string) string {
	f.lastFrom = from
	f.lastBody = body
	return f.reply
}

func textEvent(number, text string) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Sender: types.NewJID(number, JIDSuffix),
			},
		},
		Message: &waE2E.Message{Conversation: &text},
	}
}

func TestHandleIncomingMessageRoutesReply(t *testing.T) {
	mock := NewMockClient()
	resp := &fakeResponder{reply: "Hello back"}
	ch := &Channel{sender: mock, engine: resp}

	ch.handleIncomingMessage(context.Background(), textEvent("31600000500", "menu"))

	if resp.lastFrom != "+31600000500" {
		t.Errorf("engine saw sender %q, want E.164 format", resp.lastFrom)
	}
	if resp.lastBody != "menu" {
		t.Errorf("engine saw body %q", resp.lastBody)
	}
	if len(mock.SentMessages) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(mock.SentMessages))
	}
	if mock.SentMessages[0].To != "+31600000500" || mock.SentMessages[0].Body != "Hello back" {
		t.Errorf("unexpected reply %+v", mock.SentMessages[0])
	}
}

func TestHandleIncomingMessageExtendedText(t *testing.T) {
	mock := NewMockClient()
	resp := &fakeResponder{reply: "ok"}
	ch := &Channel{sender: mock, engine: resp}

	text := "assessment"
	evt := textEvent("31600000501", "ignored")
	evt.Message = &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: &text},
	}
	ch.handleIncomingMessage(context.Background(), evt)

	if resp.lastBody != "assessment" {
		t.Errorf("engine saw body %q, want extended text", resp.lastBody)
	}
}

func TestHandleIncomingMessageIgnoresOwnAndGroup(t *testing.T) {
	mock := NewMockClient()
	resp := &fakeResponder{reply: "nope"}
	ch := &Channel{sender: mock, engine: resp}
	ctx := context.Background()

	own := textEvent("31600000502", "menu")
	own.Info.IsFromMe = true
	ch.handleIncomingMessage(ctx, own)

	group := textEvent("31600000502", "menu")
	group.Info.IsGroup = true
	ch.handleIncomingMessage(ctx, group)

	nonText := textEvent("31600000502", "menu")
	nonText.Message = &waE2E.Message{}
	ch.handleIncomingMessage(ctx, nonText)

	if len(mock.SentMessages) != 0 {
		t.Errorf("expected no replies, got %d", len(mock.SentMessages))
	}
}

func TestHandleIncomingMessageSkipsEmptyReply(t *testing.T) {
	mock := NewMockClient()
	resp := &fakeResponder{reply: ""}
	ch := &Channel{sender: mock, engine: resp}

	ch.handleIncomingMessage(context.Background(), textEvent("31600000503", "menu"))
	if len(mock.SentMessages) != 0 {
		t.Errorf("empty reply must not be sent, got %d", len(mock.SentMessages))
	}
}
