// Package api provides the HTTP transport for CareLine.
//
// It exposes the Twilio inbound-message webhook and a health endpoint, and
// wires the storage, session, and engine modules together.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/CareBridge/CareLine/internal/flow"
	"github.com/CareBridge/CareLine/internal/session"
	"github.com/CareBridge/CareLine/internal/store"
	"github.com/CareBridge/CareLine/internal/whatsapp"
)

// Default server configuration constants
const (
	// DefaultAddr is the default listen address for the API server.
	DefaultAddr = ":8080"
	// DefaultReadTimeout bounds how long reading a request may take.
	DefaultReadTimeout = 10 * time.Second
	// DefaultWriteTimeout bounds how long writing a response may take.
	DefaultWriteTimeout = 10 * time.Second
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr            string
	TwilioAuthToken string
	PublicURL       string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithTwilioAuthToken enables webhook signature validation with the given
// auth token. Without it, signatures are not checked.
func WithTwilioAuthToken(token string) Option {
	return func(o *Opts) { o.TwilioAuthToken = token }
}

// WithPublicURL sets the externally visible URL of the webhook, used when
// validating Twilio signatures behind a proxy.
func WithPublicURL(u string) Option {
	return func(o *Opts) { o.PublicURL = u }
}

// Server hosts the CareLine webhook endpoints.
type Server struct {
	engine    *flow.Engine
	addr      string
	authToken string
	publicURL string
}

// NewServer creates an API server around an engine.
func NewServer(engine *flow.Engine, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{
		engine:    engine,
		addr:      cfg.Addr,
		authToken: cfg.TwilioAuthToken,
		publicURL: cfg.PublicURL,
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/twilio", s.twilioWebhookHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// ListenAndServe starts the HTTP server and blocks until the context is
// cancelled or the server fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("CareLine API listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("API server shutdown failed", "error", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	}
}

// RunOpts bundles the options for Run.
type RunOpts struct {
	StoreOpts       []store.Option
	SessionOpts     []session.Option
	EngineOpts      []flow.Option
	APIOpts         []Option
	WhatsAppOpts    []whatsapp.Option
	WhatsAppEnabled bool
	BaseURL         string
	Support         string
}

// Run builds the storage backend, session store, and engine, then serves the
// webhook (and the optional direct WhatsApp channel) until the context is
// cancelled.
func Run(ctx context.Context, opts RunOpts) error {
	var cfg store.Opts
	for _, opt := range opts.StoreOpts {
		opt(&cfg)
	}

	var st store.Store
	var err error
	if store.DetectDSNType(cfg.DSN) == "postgres" {
		st, err = store.NewPostgresStore(opts.StoreOpts...)
	} else {
		st, err = store.NewSQLiteStore(opts.StoreOpts...)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	sessions := session.NewStore(opts.SessionOpts...)
	composer := flow.NewComposer(opts.BaseURL, opts.Support)
	engine := flow.NewEngine(sessions, st, composer, opts.EngineOpts...)

	if opts.WhatsAppEnabled {
		waClient, err := whatsapp.NewClient(opts.WhatsAppOpts...)
		if err != nil {
			return fmt.Errorf("failed to initialize WhatsApp channel: %w", err)
		}
		channel := whatsapp.NewChannel(waClient, engine)
		channel.Start(ctx)
		defer channel.Stop()
	}

	server := NewServer(engine, opts.APIOpts...)
	return server.ListenAndServe(ctx)
}
