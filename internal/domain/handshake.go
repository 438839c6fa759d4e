package domain

import "time"

// HandshakeStatus is the lifecycle state of a connection request.
type HandshakeStatus string

// Handshake request states. PENDING transitions exactly once to either
// ACCEPTED or REJECTED; there are no transitions out of a terminal state.
const (
	HandshakePending  HandshakeStatus = "PENDING"
	HandshakeAccepted HandshakeStatus = "ACCEPTED"
	HandshakeRejected HandshakeStatus = "REJECTED"
)

// HandshakeRequest is the short-lived record behind the propose/accept/reject
// protocol that precedes room creation. Requests are held in memory only and
// expire after a configurable TTL; durability is deliberately not provided.
type HandshakeRequest struct {
	ID         string          `json:"id"`
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Status     HandshakeStatus `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

// Expired reports whether the request's TTL has elapsed at time now.
// A zero ExpiresAt means no expiry.
func (r HandshakeRequest) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}
