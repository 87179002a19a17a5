// Package store provides storage backends for CareLine.
//
// It defines the persistence gateway consumed by the conversation engine and
// includes an in-memory store for tests alongside SQLite and PostgreSQL
// implementations.
package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/CareBridge/CareLine/internal/models"
)

// Store is the persistence gateway for accounts, profiles, assessment
// results, and dashboard data. Lookup methods return (nil, nil) when the
// entity does not exist; sentinel errors from the models package mark
// terminal auth outcomes.
type Store interface {
	AccountByIdentifier(identifier string) (*models.Account, error)
	AccountByID(id string) (*models.Account, error)
	ProfileBySender(senderID string) (*models.CareProfile, error)
	// VerifyCredential compares the secret against the stored one-way hash.
	// Returns models.ErrAccountNotFound or models.ErrCredentialMismatch on
	// failure.
	VerifyCredential(identifier, secret string) (*models.Account, error)
	// CreateAccount hashes the secret and stores a new account. Returns
	// models.ErrIdentifierTaken if the identifier is already registered.
	CreateAccount(identifier, name, secret string) (*models.Account, error)
	CreateProfile(accountID, senderID string) (*models.CareProfile, error)
	// SaveAssessmentResult persists the result together with its
	// per-question answer records (weights included) in one transaction.
	SaveAssessmentResult(result models.AssessmentResult) error
	CountOpenTasks(profileID string) (int, error)
	TasksDueToday(profileID string) ([]models.CareTask, error)
	LatestWellbeingCheckin(profileID string) (*models.WellbeingCheckin, error)
	Close() error
}

// Opts holds configuration options for storage backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for storage backends.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" otherwise (plain file paths).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite"
}

// hashCredential derives a one-way bcrypt hash from a plain secret.
func hashCredential(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// compareCredential checks a plain secret against a stored bcrypt hash.
func compareCredential(hash, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
}

// InMemoryStore is a map-backed Store for tests and local development.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account // keyed by account ID
	profiles []models.CareProfile      // in creation order
	results  []models.AssessmentResult
	tasks    []models.CareTask
	checkins []models.WellbeingCheckin
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		accounts: make(map[string]models.Account),
	}
}

func (s *InMemoryStore) AccountByIdentifier(identifier string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(identifier)
	for _, a := range s.accounts {
		if strings.ToLower(a.Identifier) == needle {
			acct := a
			return &acct, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) AccountByID(id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.accounts[id]; ok {
		acct := a
		return &acct, nil
	}
	return nil, nil
}

func (s *InMemoryStore) ProfileBySender(senderID string) (*models.CareProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// Newest profile wins, matching the SQL backends.
	for i := len(s.profiles) - 1; i >= 0; i-- {
		if s.profiles[i].SenderID == senderID {
			prof := s.profiles[i]
			return &prof, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) VerifyCredential(identifier, secret string) (*models.Account, error) {
	acct, err := s.AccountByIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, models.ErrAccountNotFound
	}
	if err := compareCredential(acct.CredentialHash, secret); err != nil {
		return nil, models.ErrCredentialMismatch
	}
	return acct, nil
}

func (s *InMemoryStore) CreateAccount(identifier, name, secret string) (*models.Account, error) {
	existing, err := s.AccountByIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrIdentifierTaken
	}
	hash, err := hashCredential(secret)
	if err != nil {
		return nil, err
	}
	acct := models.Account{
		ID:             uuid.NewString(),
		Identifier:     identifier,
		Name:           name,
		CredentialHash: hash,
		CreatedAt:      time.Now(),
	}
	s.mu.Lock()
	s.accounts[acct.ID] = acct
	s.mu.Unlock()
	return &acct, nil
}

func (s *InMemoryStore) CreateProfile(accountID, senderID string) (*models.CareProfile, error) {
	prof := models.CareProfile{
		ID:        uuid.NewString(),
		AccountID: accountID,
		SenderID:  senderID,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.profiles = append(s.profiles, prof)
	s.mu.Unlock()
	return &prof, nil
}

func (s *InMemoryStore) SaveAssessmentResult(result models.AssessmentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

// Results returns all saved assessment results (test helper).
func (s *InMemoryStore) Results() []models.AssessmentResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AssessmentResult, len(s.results))
	copy(out, s.results)
	return out
}

// AddTask inserts a care task (test/dev helper).
func (s *InMemoryStore) AddTask(task models.CareTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
}

// AddCheckin inserts a wellbeing checkin (test/dev helper).
func (s *InMemoryStore) AddCheckin(c models.WellbeingCheckin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkins = append(s.checkins, c)
}

func (s *InMemoryStore) CountOpenTasks(profileID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, t := range s.tasks {
		if t.ProfileID == profileID && !t.Done {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) TasksDueToday(profileID string) ([]models.CareTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	var due []models.CareTask
	for _, t := range s.tasks {
		if t.ProfileID != profileID || t.Done || t.DueAt == nil {
			continue
		}
		y1, m1, d1 := t.DueAt.Date()
		y2, m2, d2 := now.Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].DueAt.Before(*due[j].DueAt) })
	return due, nil
}

func (s *InMemoryStore) LatestWellbeingCheckin(profileID string) (*models.WellbeingCheckin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.WellbeingCheckin
	for i := range s.checkins {
		c := s.checkins[i]
		if c.ProfileID != profileID {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = &c
		}
	}
	return latest, nil
}

func (s *InMemoryStore) Close() error { return nil }
