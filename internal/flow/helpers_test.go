package flow

import (
	"github.com/CareBridge/CareLine/internal/session"
	"github.com/CareBridge/CareLine/internal/store"
)

// newTestEngine builds an engine on the in-memory store for tests.
func newTestEngine(opts ...Option) (*Engine, *store.InMemoryStore, *session.Store) {
	st := store.NewInMemoryStore()
	sessions := session.NewStore()
	composer := NewComposer("https://careline.test", "+31 88 000 0000")
	engine := NewEngine(sessions, st, composer, opts...)
	return engine, st, sessions
}
