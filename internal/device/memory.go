package device

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. A restart drops all
// pending logins, which is accepted: issued tokens stay valid on their
// own and clients simply start a new login.
//
// All mutations happen under one mutex and readers get copies, so a poll
// racing an approval observes either the old pending record or the fully
// committed terminal one.
type MemoryStore struct {
	mu       sync.Mutex
	byDevice map[string]*Session
	byUser   map[string]string // active user_code -> device_code
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byDevice: make(map[string]*Session),
		byUser:   make(map[string]string),
	}
}

func (m *MemoryStore) Create(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if dc, ok := m.byUser[s.UserCode]; ok {
		if cur, ok := m.byDevice[dc]; ok && cur.Status == StatusPending && !cur.ExpiredAt(now) {
			return ErrUserCodeTaken
		}
		// stale index entry, safe to overwrite
		delete(m.byUser, s.UserCode)
	}
	cp := *s
	m.byDevice[cp.DeviceCode] = &cp
	m.byUser[cp.UserCode] = cp.DeviceCode
	return nil
}

func (m *MemoryStore) GetByDeviceCode(ctx context.Context, deviceCode string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byDevice[deviceCode]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) GetActiveByUserCode(ctx context.Context, userCode string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dc, ok := m.byUser[userCode]
	if !ok {
		return nil, nil
	}
	s, ok := m.byDevice[dc]
	if !ok || s.Status != StatusPending || s.ExpiredAt(time.Now().UTC()) {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Approve(ctx context.Context, deviceCode, email, tok string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byDevice[deviceCode]
	if !ok {
		return ErrConflict
	}
	if s.Status == StatusApproved && s.Email == email && s.Token == tok {
		return nil
	}
	if s.terminal() || s.ExpiredAt(time.Now().UTC()) {
		return ErrConflict
	}
	s.Status = StatusApproved
	s.Email = email
	s.Token = tok
	delete(m.byUser, s.UserCode)
	return nil
}

func (m *MemoryStore) Deny(ctx context.Context, deviceCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byDevice[deviceCode]
	if !ok {
		return ErrConflict
	}
	if s.terminal() || s.ExpiredAt(time.Now().UTC()) {
		return ErrConflict
	}
	s.Status = StatusDenied
	delete(m.byUser, s.UserCode)
	return nil
}

// Sweep evicts sessions whose TTL elapsed more than the grace period ago.
// Housekeeping only: expiry is always re-derived on read, so correctness
// never depends on the sweep running.
func (m *MemoryStore) Sweep(grace time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().UTC().Add(-grace)
	n := 0
	for dc, s := range m.byDevice {
		if s.ExpiresAt.Before(cutoff) {
			delete(m.byDevice, dc)
			if cur, ok := m.byUser[s.UserCode]; ok && cur == dc {
				delete(m.byUser, s.UserCode)
			}
			n++
		}
	}
	return n
}
