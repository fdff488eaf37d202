package domain

import "time"

// Step is one stage of the check-in conversation. The sequence is linear:
// store name, then store region, then a shared location. There is no stored
// terminal step — reaching the end of the sequence finalizes and deletes the
// session within the same update.
type Step int

const (
	StepStoreName Step = iota
	StepStoreRegion
	StepLocation
)

// String returns the field name a step collects, used in logs.
func (s Step) String() string {
	switch s {
	case StepStoreName:
		return "store_name"
	case StepStoreRegion:
		return "store_region"
	case StepLocation:
		return "location"
	}
	return "unknown"
}

// Session is one user's in-progress check-in. At most one session exists per
// owner. Answers for steps the session has passed are filled in; everything
// at or after the current step is zero.
type Session struct {
	OwnerID     int64
	OwnerName   string
	Step        Step
	StoreName   string
	StoreRegion string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionRepository defines the interface for session storage, keyed by the
// owner's Telegram user ID.
type SessionRepository interface {
	// Get returns the owner's session, or nil if none exists.
	Get(ownerID int64) (*Session, error)
	// Save creates or overwrites the owner's session.
	Save(session *Session) error
	// Delete removes the owner's session. Deleting a missing session is not
	// an error.
	Delete(ownerID int64) error
	// DeleteIdleBefore removes every session not updated since cutoff and
	// returns the owner IDs of the removed sessions.
	DeleteIdleBefore(cutoff time.Time) ([]int64, error)
}
