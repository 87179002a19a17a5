// Package store provides storage backends for CareLine.
//
// This file implements the SQLite-backed persistence gateway.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/CareBridge/CareLine/internal/models"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) AccountByIdentifier(identifier string) (*models.Account, error) {
	row := s.db.QueryRow(`SELECT id, identifier, name, credential_hash, created_at FROM accounts WHERE identifier = ? COLLATE NOCASE`, identifier)
	return scanAccountRow(row)
}

func (s *SQLiteStore) AccountByID(id string) (*models.Account, error) {
	row := s.db.QueryRow(`SELECT id, identifier, name, credential_hash, created_at FROM accounts WHERE id = ?`, id)
	return scanAccountRow(row)
}

func (s *SQLiteStore) ProfileBySender(senderID string) (*models.CareProfile, error) {
	row := s.db.QueryRow(`SELECT id, account_id, sender_id, created_at FROM care_profiles WHERE sender_id = ? ORDER BY created_at DESC LIMIT 1`, senderID)
	return scanProfileRow(row)
}

func (s *SQLiteStore) VerifyCredential(identifier, secret string) (*models.Account, error) {
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

func (s *SQLiteStore) CreateAccount(identifier, name, secret string) (*models.Account, error) {
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
	_, err = s.db.Exec(`INSERT INTO accounts (id, identifier, name, credential_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		acct.ID, acct.Identifier, acct.Name, acct.CredentialHash, acct.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateAccount failed", "error", err, "identifier", identifier)
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}
	slog.Info("SQLiteStore account created", "id", acct.ID)
	return &acct, nil
}

func (s *SQLiteStore) CreateProfile(accountID, senderID string) (*models.CareProfile, error) {
	prof := models.CareProfile{
		ID:        uuid.NewString(),
		AccountID: accountID,
		SenderID:  senderID,
		CreatedAt: time.Now(),
	}
	_, err := s.db.Exec(`INSERT INTO care_profiles (id, account_id, sender_id, created_at) VALUES (?, ?, ?, ?)`,
		prof.ID, prof.AccountID, prof.SenderID, prof.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateProfile failed", "error", err, "accountID", accountID)
		return nil, fmt.Errorf("failed to insert care profile: %w", err)
	}
	slog.Info("SQLiteStore care profile created", "id", prof.ID, "accountID", accountID)
	return &prof, nil
}

func (s *SQLiteStore) SaveAssessmentResult(result models.AssessmentResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO assessment_results (id, sender_id, profile_id, score, level, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		result.ID, result.SenderID, nilIfEmpty(result.ProfileID), result.Score, string(result.Level), result.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveAssessmentResult insert failed", "error", err, "id", result.ID)
		return fmt.Errorf("failed to insert assessment result: %w", err)
	}
	for i, a := range result.Answers {
		_, err = tx.Exec(`INSERT INTO assessment_answers (result_id, position, question_id, answer, points, weight) VALUES (?, ?, ?, ?, ?, ?)`,
			result.ID, i, a.QuestionID, string(a.Answer), a.Points, a.Weight)
		if err != nil {
			slog.Error("SQLiteStore SaveAssessmentResult answer insert failed", "error", err, "id", result.ID, "position", i)
			return fmt.Errorf("failed to insert assessment answer: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit assessment result: %w", err)
	}
	slog.Debug("SQLiteStore SaveAssessmentResult succeeded", "id", result.ID, "answers", len(result.Answers))
	return nil
}

func (s *SQLiteStore) CountOpenTasks(profileID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM care_tasks WHERE profile_id = ? AND done = 0`, profileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open tasks: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) TasksDueToday(profileID string) ([]models.CareTask, error) {
	rows, err := s.db.Query(`SELECT id, profile_id, title, due_at, done FROM care_tasks
		WHERE profile_id = ? AND done = 0 AND due_at IS NOT NULL AND date(due_at) = date('now', 'localtime')
		ORDER BY due_at`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks due today: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *SQLiteStore) LatestWellbeingCheckin(profileID string) (*models.WellbeingCheckin, error) {
	row := s.db.QueryRow(`SELECT profile_id, mood, created_at FROM wellbeing_checkins WHERE profile_id = ? ORDER BY created_at DESC LIMIT 1`, profileID)
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
