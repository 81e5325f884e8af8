package vote

import "time"

// Status is the lifecycle state of a voting session.
type Status string

const (
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusConsumed Status = "consumed"
)

// Session is a stored voting session. The plain token is never part of it.
type Session struct {
	ID           string
	DivisionCode string
	IssuedAt     time.Time
	ExpiresAt    time.Time

	// Status is the persisted state: active or consumed. Expired is derived, see StatusAt.
	Status     Status
	ConsumedAt *time.Time
}

// StatusAt reports the effective status at now.
// Consumption wins over expiry: a used token stays "already voted" forever.
func (s Session) StatusAt(now time.Time) Status {
	if s.Status == StatusConsumed {
		return StatusConsumed
	}
	if now.After(s.ExpiresAt) {
		return StatusExpired
	}
	return StatusActive
}

// Remaining returns the time left in the session window, never negative.
func (s Session) Remaining(now time.Time) time.Duration {
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// SessionRecord is a normalized session insert payload.
type SessionRecord struct {
	ID           string
	TokenHash    string
	DivisionCode string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// Issued is the result of IssueSession: the plain token is handed out exactly once.
type Issued struct {
	Token     string
	ExpiresAt time.Time
	Session   Session
}

// checkConsumable classifies why a session cannot take a ballot submitted at
// rec.SubmittedAt. It returns nil when the session is consumable.
// Stores use it to explain a conditional consume that matched no row.
func checkConsumable(s Session, rec BallotRecord) error {
	if s.Status == StatusConsumed {
		return ErrDuplicateVote
	}
	if s.DivisionCode != rec.DivisionCode {
		return ErrInvalidToken
	}
	if rec.SubmittedAt.After(s.ExpiresAt) {
		return ErrExpiredSession
	}
	return nil
}
