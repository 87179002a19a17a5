package store

import (
	"database/sql"
	"fmt"

	"github.com/CareBridge/CareLine/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanAccountRow scans an Account from a single sql.Row. Returns (nil, nil)
// when no row matched.
func scanAccountRow(row *sql.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Identifier, &a.Name, &a.CredentialHash, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan account failed: %w", err)
	}
	return &a, nil
}

// scanProfileRow scans a CareProfile from a single sql.Row. Returns (nil, nil)
// when no row matched.
func scanProfileRow(row *sql.Row) (*models.CareProfile, error) {
	var p models.CareProfile
	err := row.Scan(&p.ID, &p.AccountID, &p.SenderID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan care profile failed: %w", err)
	}
	return &p, nil
}

// scanTasks scans CareTask rows.
func scanTasks(rows *sql.Rows) ([]models.CareTask, error) {
	var tasks []models.CareTask
	for rows.Next() {
		var t models.CareTask
		var dueAt sql.NullTime
		if err := rows.Scan(&t.ID, &t.ProfileID, &t.Title, &dueAt, &t.Done); err != nil {
			return nil, fmt.Errorf("scan care task failed: %w", err)
		}
		if dueAt.Valid {
			t.DueAt = &dueAt.Time
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate care task rows failed: %w", err)
	}
	return tasks, nil
}
