package memory

import (
	"sync"
	"time"

	"github.com/prasetyo/checkin-bot/internal/domain"
)

// SessionRepository implements domain.SessionRepository with a mutex-guarded
// map. Sessions do not survive a restart; a mid-flight check-in is abandoned.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]domain.Session
}

// NewSessionRepository creates an empty in-memory SessionRepository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[int64]domain.Session),
	}
}

// Get returns the owner's session, or nil if none exists
func (r *SessionRepository) Get(ownerID int64) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[ownerID]
	if !ok {
		return nil, nil
	}
	// Copy so callers can't mutate the stored session in place.
	return &session, nil
}

// Save creates or overwrites the owner's session
func (r *SessionRepository) Save(session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.OwnerID] = *session
	return nil
}

// Delete removes the owner's session
func (r *SessionRepository) Delete(ownerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, ownerID)
	return nil
}

// DeleteIdleBefore removes sessions not updated since cutoff and returns
// the owner IDs of the removed sessions
func (r *SessionRepository) DeleteIdleBefore(cutoff time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []int64
	for ownerID, session := range r.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(r.sessions, ownerID)
			removed = append(removed, ownerID)
		}
	}

	return removed, nil
}
