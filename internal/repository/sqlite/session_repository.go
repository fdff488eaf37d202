package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/prasetyo/checkin-bot/internal/domain"
)

// SessionRepository implements domain.SessionRepository using SQLite, so
// in-progress check-ins survive a process restart.
type SessionRepository struct {
	db *Database
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *Database) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get retrieves the owner's session, or nil if none exists
func (r *SessionRepository) Get(ownerID int64) (*domain.Session, error) {
	query := `
		SELECT owner_id, owner_name, step, store_name, store_region, created_at, updated_at
		FROM sessions
		WHERE owner_id = ?
	`

	session := &domain.Session{}
	var step int

	err := r.db.GetDB().QueryRow(query, ownerID).Scan(
		&session.OwnerID,
		&session.OwnerName,
		&step,
		&session.StoreName,
		&session.StoreRegion,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.Step = domain.Step(step)

	return session, nil
}

// Save creates or overwrites the owner's session
func (r *SessionRepository) Save(session *domain.Session) error {
	query := `
		INSERT INTO sessions (owner_id, owner_name, step, store_name, store_region, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			owner_name = excluded.owner_name,
			step = excluded.step,
			store_name = excluded.store_name,
			store_region = excluded.store_region,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.GetDB().Exec(query,
		session.OwnerID,
		session.OwnerName,
		int(session.Step),
		session.StoreName,
		session.StoreRegion,
		session.CreatedAt,
		session.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Delete removes the owner's session
func (r *SessionRepository) Delete(ownerID int64) error {
	query := `DELETE FROM sessions WHERE owner_id = ?`

	_, err := r.db.GetDB().Exec(query, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// DeleteIdleBefore removes sessions not updated since cutoff and returns
// the owner IDs of the removed sessions
func (r *SessionRepository) DeleteIdleBefore(cutoff time.Time) ([]int64, error) {
	rows, err := r.db.GetDB().Query(`SELECT owner_id FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list idle sessions: %w", err)
	}
	defer rows.Close()

	var removed []int64
	for rows.Next() {
		var ownerID int64
		if err := rows.Scan(&ownerID); err != nil {
			return nil, fmt.Errorf("failed to scan idle session: %w", err)
		}
		removed = append(removed, ownerID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list idle sessions: %w", err)
	}

	if len(removed) == 0 {
		return nil, nil
	}

	if _, err := r.db.GetDB().Exec(`DELETE FROM sessions WHERE updated_at < ?`, cutoff); err != nil {
		return nil, fmt.Errorf("failed to delete idle sessions: %w", err)
	}

	return removed, nil
}
