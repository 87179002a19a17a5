package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/CareBridge/CareLine/internal/models"
	"github.com/CareBridge/CareLine/internal/session"
	"github.com/CareBridge/CareLine/internal/store"
)

// Notifier sends out-of-band messages, used only for the care-team alert
// when a sender requests human contact.
type Notifier interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// resolver tries to handle one inbound message. Returning handled=false
// passes the message to the next resolver in order.
type resolver func(ctx context.Context, from, body string) (reply string, handled bool)

// Engine reconstructs per-sender conversational context and produces exactly
// one reply per inbound message. Resolution order is fixed: active
// assessment, then active onboarding, then the authenticated menu, then the
// anonymous menu.
type Engine struct {
	sessions *session.Store
	store    store.Store
	composer *Composer

	notifier       Notifier
	careTeamNumber string

	resolvers      []resolver
	authedHandlers map[Token]menuHandler
	anonHandlers   map[Token]menuHandler
}

// Opts holds configuration options for the engine.
type Opts struct {
	Notifier       Notifier
	CareTeamNumber string
}

// Option defines a configuration option for the engine.
type Option func(*Opts)

// WithNotifier wires the care-team notifier and its destination number.
func WithNotifier(n Notifier, careTeamNumber string) Option {
	return func(o *Opts) {
		o.Notifier = n
		o.CareTeamNumber = careTeamNumber
	}
}

// NewEngine creates the conversation engine.
func NewEngine(sessions *session.Store, st store.Store, composer *Composer, opts ...Option) *Engine {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	e := &Engine{
		sessions:       sessions,
		store:          st,
		composer:       composer,
		notifier:       cfg.Notifier,
		careTeamNumber: cfg.CareTeamNumber,
	}
	e.buildMenuTables()
	e.resolvers = []resolver{
		e.resolveAssessment,
		e.resolveOnboarding,
		e.resolveAuthenticatedMenu,
		e.resolveAnonymousMenu,
	}
	slog.Debug("Engine created", "notifier_set", cfg.Notifier != nil)
	return e
}

// Composer exposes the reply composer, so transports can produce the same
// generic apology the engine uses.
func (e *Engine) Composer() *Composer {
	return e.composer
}

// Handle processes one inbound message and always returns a reply.
func (e *Engine) Handle(ctx context.Context, from, body string) string {
	from = strings.TrimSpace(from)
	if from == "" {
		slog.Warn("Engine received message without sender", "body_length", len(body))
		return e.composer.Apology()
	}

	slog.Debug("Engine routing message", "sender", from, "body_length", len(body))
	for _, resolve := range e.resolvers {
		if reply, handled := resolve(ctx, from, body); handled {
			if reply == "" {
				slog.Error("Engine resolver produced empty reply", "sender", from)
				return e.composer.Apology()
			}
			return reply
		}
	}

	// The anonymous menu resolver handles everything, so this is never
	// reached; kept so no code path can return without a reply.
	slog.Error("Engine no resolver handled message", "sender", from)
	return e.composer.AnonymousMenu()
}

// HasActiveSession reports whether the sender currently has a session of the
// given flow type.
func (e *Engine) HasActiveSession(from string, flowType models.FlowType) bool {
	switch flowType {
	case models.FlowTypeAssessment:
		return e.sessions.Assessment(from) != nil
	case models.FlowTypeOnboarding:
		return e.sessions.Onboarding(from) != nil
	default:
		return false
	}
}
