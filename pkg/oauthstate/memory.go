package oauthstate

import (
	"time"

	"github.com/mcpgw/reddit-gateway/pkg/logger"
)

// Memory is the default, in-process Store implementation: three
// capacity-bounded tables plus a janitor goroutine that sweeps expired rows
// every SweepInterval.
type Memory struct {
	pending *table[PendingAuthorization]
	codes   *table[AuthorizationCode]
	refresh *table[RefreshTokenRecord]
	now     func() time.Time
	stopCh  chan struct{}
}

// NewMemory constructs a Memory store and starts its janitor.
func NewMemory() *Memory {
	return NewMemoryWithCapacity(DefaultCapacity)
}

// NewMemoryWithCapacity constructs a Memory store with a custom per-table
// capacity, primarily for tests that exercise eviction under pressure.
func NewMemoryWithCapacity(capacity int) *Memory {
	m := &Memory{
		pending: newTable[PendingAuthorization](capacity),
		codes:   newTable[AuthorizationCode](capacity),
		refresh: newTable[RefreshTokenRecord](capacity),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

func (m *Memory) sweepLoop() {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := m.now()
			p := m.pending.sweep(now)
			c := m.codes.sweep(now)
			r := m.refresh.sweep(now)
			if p+c+r > 0 {
				logger.Debugw("oauthstate: swept expired rows", "pending", p, "codes", c, "refresh", r)
			}
		case <-m.stopCh:
			return
		}
	}
}

// PutPendingAuthorization implements Store.
func (m *Memory) PutPendingAuthorization(row PendingAuthorization) (string, error) {
	key, err := newKey()
	if err != nil {
		return "", err
	}
	now := m.now()
	if row.ExpiresAt.IsZero() {
		row.ExpiresAt = now.Add(PendingAuthorizationTTL)
	}
	if err := m.pending.put(key, row, row.ExpiresAt, now); err != nil {
		return "", err
	}
	return key, nil
}

// TakePendingAuthorization implements Store.
func (m *Memory) TakePendingAuthorization(key string) (PendingAuthorization, error) {
	return m.pending.take(key, m.now())
}

// PutAuthorizationCode implements Store.
func (m *Memory) PutAuthorizationCode(row AuthorizationCode) (string, error) {
	key, err := newKey()
	if err != nil {
		return "", err
	}
	now := m.now()
	if row.ExpiresAt.IsZero() {
		row.ExpiresAt = now.Add(AuthorizationCodeTTL)
	}
	if err := m.codes.put(key, row, row.ExpiresAt, now); err != nil {
		return "", err
	}
	return key, nil
}

// TakeAuthorizationCode implements Store.
func (m *Memory) TakeAuthorizationCode(key string) (AuthorizationCode, error) {
	return m.codes.take(key, m.now())
}

// PutRefreshToken implements Store.
func (m *Memory) PutRefreshToken(row RefreshTokenRecord) (string, error) {
	key, err := newKey()
	if err != nil {
		return "", err
	}
	now := m.now()
	if row.ExpiresAt.IsZero() {
		row.ExpiresAt = now.Add(RefreshTokenTTL)
	}
	if err := m.refresh.put(key, row, row.ExpiresAt, now); err != nil {
		return "", err
	}
	return key, nil
}

// GetRefreshToken implements Store.
func (m *Memory) GetRefreshToken(key string) (RefreshTokenRecord, error) {
	return m.refresh.get(key, m.now())
}

// UpdateRefreshToken implements Store.
func (m *Memory) UpdateRefreshToken(key string, row RefreshTokenRecord) error {
	return m.refresh.update(key, row, m.now())
}

// InvalidateRefreshToken implements Store.
func (m *Memory) InvalidateRefreshToken(key string) error {
	m.refresh.delete(key)
	return nil
}

// Close stops the janitor.
func (m *Memory) Close() error {
	select {
	case <-m.stopCh:
		// already closed
	default:
		close(m.stopCh)
	}
	return nil
}

// sweepOnce runs a single sweep synchronously; used by tests that want
// deterministic control over when expiry is enforced instead of waiting on
// SweepInterval.
func (m *Memory) sweepOnce() (pending, codes, refresh int) {
	now := m.now()
	return m.pending.sweep(now), m.codes.sweep(now), m.refresh.sweep(now)
}

var _ Store = (*Memory)(nil)
