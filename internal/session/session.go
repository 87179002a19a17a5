// Package session provides the per-sender, per-flow-type session store for
// CareLine conversations.
//
// Sessions are transient: they live in a TTL cache and expire lazily on the
// next lookup. There is no background sweep; the transport already guarantees
// single-threaded-per-sender semantics, but operations are safe under
// duplicate delivery (clearing twice is a no-op, saving into a cleared
// session does not resurrect it).
package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/CareBridge/CareLine/internal/models"
)

// DefaultTTL is how long an idle session survives before lazy expiry.
const DefaultTTL = 30 * time.Minute

// Store holds active conversational sessions keyed by sender and flow type.
type Store struct {
	cache *cache.Cache
	ttl   time.Duration
}

// Opts holds configuration options for the session store.
type Opts struct {
	TTL time.Duration
}

// Option defines a configuration option for the session store.
type Option func(*Opts)

// WithTTL overrides the default session time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(o *Opts) { o.TTL = ttl }
}

// NewStore creates a session store. The cleanup interval is zero so expired
// entries are only dropped when looked up, never by a janitor goroutine.
func NewStore(opts ...Option) *Store {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	slog.Debug("SessionStore created", "ttl", ttl)
	return &Store{cache: cache.New(ttl, 0), ttl: ttl}
}

func key(senderID string, flowType models.FlowType) string {
	return fmt.Sprintf("%s|%s", senderID, flowType)
}

// Assessment returns the active assessment session for the sender, or nil if
// absent or expired.
func (s *Store) Assessment(senderID string) *models.AssessmentSession {
	v, found := s.cache.Get(key(senderID, models.FlowTypeAssessment))
	if !found {
		return nil
	}
	sess, ok := v.(*models.AssessmentSession)
	if !ok {
		slog.Error("SessionStore found unexpected assessment entry type", "sender", senderID)
		s.Clear(senderID, models.FlowTypeAssessment)
		return nil
	}
	return sess
}

// Onboarding returns the active onboarding session for the sender, or nil if
// absent or expired.
func (s *Store) Onboarding(senderID string) *models.OnboardingSession {
	v, found := s.cache.Get(key(senderID, models.FlowTypeOnboarding))
	if !found {
		return nil
	}
	sess, ok := v.(*models.OnboardingSession)
	if !ok {
		slog.Error("SessionStore found unexpected onboarding entry type", "sender", senderID)
		s.Clear(senderID, models.FlowTypeOnboarding)
		return nil
	}
	return sess
}

// StartAssessment creates a fresh assessment session at the first question,
// overwriting any stale entry for the sender.
func (s *Store) StartAssessment(senderID string) *models.AssessmentSession {
	sess := &models.AssessmentSession{
		SenderID:      senderID,
		Step:          models.AssessmentStepQuestions,
		QuestionIndex: 0,
		Answers:       nil,
		ExpiresAt:     time.Now().Add(s.ttl),
	}
	s.cache.Set(key(senderID, models.FlowTypeAssessment), sess, s.ttl)
	slog.Info("SessionStore assessment session started", "sender", senderID)
	return sess
}

// StartOnboarding creates a fresh onboarding session at the choice step,
// overwriting any stale entry for the sender.
func (s *Store) StartOnboarding(senderID string) *models.OnboardingSession {
	sess := &models.OnboardingSession{
		SenderID:  senderID,
		Step:      models.OnboardingStepChoice,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	s.cache.Set(key(senderID, models.FlowTypeOnboarding), sess, s.ttl)
	slog.Info("SessionStore onboarding session started", "sender", senderID)
	return sess
}

// SaveAssessment persists an updated assessment session and refreshes its
// TTL. Saving is dropped if the session was cleared in the meantime, so a
// duplicate delivery cannot resurrect a finished flow.
func (s *Store) SaveAssessment(sess *models.AssessmentSession) {
	k := key(sess.SenderID, models.FlowTypeAssessment)
	if _, found := s.cache.Get(k); !found {
		slog.Debug("SessionStore dropping save for cleared assessment session", "sender", sess.SenderID)
		return
	}
	sess.ExpiresAt = time.Now().Add(s.ttl)
	s.cache.Set(k, sess, s.ttl)
}

// SaveOnboarding persists an updated onboarding session and refreshes its
// TTL, unless the session was already cleared.
func (s *Store) SaveOnboarding(sess *models.OnboardingSession) {
	k := key(sess.SenderID, models.FlowTypeOnboarding)
	if _, found := s.cache.Get(k); !found {
		slog.Debug("SessionStore dropping save for cleared onboarding session", "sender", sess.SenderID)
		return
	}
	sess.ExpiresAt = time.Now().Add(s.ttl)
	s.cache.Set(k, sess, s.ttl)
}

// Clear removes the sender's session for the given flow type. Clearing an
// absent session is a no-op.
func (s *Store) Clear(senderID string, flowType models.FlowType) {
	s.cache.Delete(key(senderID, flowType))
	slog.Debug("SessionStore session cleared", "sender", senderID, "flowType", flowType)
}
