// Package store provides storage backends for CareLine.
//
// This file implements the PostgreSQL-backed persistence gateway.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/CareBridge/CareLine/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) AccountByIdentifier(identifier string) (*models.Account, error) {
	row := s.db.QueryRow(`SELECT id, identifier, name, credential_hash, created_at FROM accounts WHERE LOWER(identifier) = LOWER($1)`, identifier)
	return scanAccountRow(row)
}

func (s *PostgresStore) AccountByID(id string) (*models.Account, error) {
	row := s.db.QueryRow(`SELECT id, identifier, name, credential_hash, created_at FROM accounts WHERE id = $1`, id)
	return scanAccountRow(row)
}

func (s *PostgresStore) ProfileBySender(senderID string) (*models.CareProfile, error) {
	row := s.db.QueryRow(`SELECT id, account_id, sender_id, created_at FROM care_profiles WHERE sender_id = $1 ORDER BY created_at DESC LIMIT 1`, senderID)
	return scanProfileRow(row)
}

func (s *PostgresStore) VerifyCredential(identifier, secret string) (*models.Account, error) {
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

func (s *PostgresStore) CreateAccount(identifier, name, secret string) (*models.Account, error) {
	existing, err := s.AccountByIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrIdentifierTaken
	}
	hash, err := hashCredential(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash credential: %w", err)
	}
	acct := models.Account{
		ID:             uuid.NewString(),
		Identifier:     identifier,
		Name:           name,
		CredentialHash: hash,
		CreatedAt:      time.Now(),
	}
	_, err = s.db.Exec(`INSERT INTO accounts (id, identifier, name, credential_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		acct.ID, acct.Identifier, acct.Name, acct.CredentialHash, acct.CreatedAt)
	if err != nil {
		// A concurrent registration can slip past the lookup; the unique
		// index on LOWER(identifier) catches it.
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, models.ErrIdentifierTaken
		}
		slog.Error("PostgresStore CreateAccount failed", "error", err, "identifier", identifier)
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}
	slog.Info("PostgresStore account created", "id", acct.ID)
	return &acct, nil
}

func (s *PostgresStore) CreateProfile(accountID, senderID string) (*models.CareProfile, error) {
	prof := models.CareProfile{
		ID:        uuid.NewString(),
		AccountID: accountID,
		SenderID:  senderID,
		CreatedAt: time.Now(),
	}
	_, err := s.db.Exec(`INSERT INTO care_profiles (id, account_id, sender_id, created_at) VALUES ($1, $2, $3, $4)`,
		prof.ID, prof.AccountID, prof.SenderID, prof.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateProfile failed", "error", err, "accountID", accountID)
		return nil, fmt.Errorf("failed to insert care profile: %w", err)
	}
	slog.Info("PostgresStore care profile created", "id", prof.ID, "accountID", accountID)
	return &prof, nil
}

func (s *PostgresStore) SaveAssessmentResult(result models.AssessmentResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO assessment_results (id, sender_id, profile_id, score, level, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		result.ID, result.SenderID, nilIfEmpty(result.ProfileID), result.Score, string(result.Level), result.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveAssessmentResult insert failed", "error", err, "id", result.ID)
		return fmt.Errorf("failed to insert assessment result: %w", err)
	}
	for i, a := range result.Answers {
		_, err = tx.Exec(`INSERT INTO assessment_answers (result_id, position, question_id, answer, points, weight) VALUES ($1, $2, $3, $4, $5, $6)`,
			result.ID, i, a.QuestionID, string(a.Answer), a.Points, a.Weight)
		if err != nil {
			slog.Error("PostgresStore SaveAssessmentResult answer insert failed", "error", err, "id", result.ID, "position", i)
			return fmt.Errorf("failed to insert assessment answer: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit assessment result: %w", err)
	}
	slog.Debug("PostgresStore SaveAssessmentResult succeeded", "id", result.ID, "answers", len(result.Answers))
	return nil
}

func (s *PostgresStore) CountOpenTasks(profileID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM care_tasks WHERE profile_id = $1 AND done = FALSE`, profileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open tasks: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) TasksDueToday(profileID string) ([]models.CareTask, error) {
	rows, err := s.db.Query(`SELECT id, profile_id, title, due_at, done FROM care_tasks
		WHERE profile_id = $1 AND done = FALSE AND due_at IS NOT NULL AND due_at::date = CURRENT_DATE
		ORDER BY due_at`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks due today: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *PostgresStore) LatestWellbeingCheckin(profileID string) (*models.WellbeingCheckin, error) {
	row := s.db.QueryRow(`SELECT profile_id, mood, created_at FROM wellbeing_checkins WHERE profile_id = $1 ORDER BY created_at DESC LIMIT 1`, profileID)
	var c models.WellbeingCheckin
	err := row.Scan(&c.ProfileID, &c.Mood, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wellbeing checkin: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
