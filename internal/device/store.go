package device

import "context"

// Store persists device-login sessions. Implementations must make the
// pending->terminal transition atomic: a concurrent reader sees either the
// prior pending record or the fully committed terminal one (email and
// token together), never a half-written session.
//
// Lookups return (nil, nil) when no session matches, following the
// repository convention used across the codebase.
type Store interface {
	// Create stores a new pending session. Returns ErrUserCodeTaken when
	// the user code collides with a still-active session; callers
	// regenerate and retry.
	Create(ctx context.Context, s *Session) error

	// GetByDeviceCode returns a copy of the session regardless of state.
	GetByDeviceCode(ctx context.Context, deviceCode string) (*Session, error)

	// GetActiveByUserCode only matches sessions that are still pending
	// and unexpired.
	GetActiveByUserCode(ctx context.Context, userCode string) (*Session, error)

	// Approve transitions pending->approved, committing email and token
	// in one atomic step. Returns ErrConflict when the session is
	// missing, expired or already terminal. Re-approving with identical
	// email and token is a no-op success.
	Approve(ctx context.Context, deviceCode, email, tok string) error

	// Deny transitions pending->denied under the same rules as Approve.
	Deny(ctx context.Context, deviceCode string) error
}
