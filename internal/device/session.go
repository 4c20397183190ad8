package device

import (
	"errors"
	"time"
)

// Status of a device-login session. Transitions are monotonic:
// pending -> approved or pending -> denied, nothing leaves a terminal
// state. "expired" is derived from ExpiresAt at read time, never stored.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

var (
	ErrNotFound      = errors.New("device session not found")
	ErrConflict      = errors.New("device session already resolved")
	ErrExpired       = errors.New("device session expired")
	ErrDenied        = errors.New("device session denied")
	ErrUserCodeTaken = errors.New("user code already active")
)

// Session is one in-flight or completed device-login attempt. Stores own
// all session records; callers only ever see copies.
type Session struct {
	DeviceCode string    `json:"deviceCode"`
	UserCode   string    `json:"userCode"`
	Status     Status    `json:"status"`
	Email      string    `json:"email,omitempty"`
	Token      string    `json:"token,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// ExpiredAt reports whether the session's TTL has elapsed at the given
// instant. Expiry overrides the stored status on every read.
func (s *Session) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s *Session) terminal() bool {
	return s.Status != StatusPending
}
