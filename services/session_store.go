package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"symptomwise-backend/models"
)

// SessionStore maps a channel identity to its conversation state.
//
// Save performs an optimistic check-and-set: it fails with
// ErrSessionConflict when the stored version is not expectedVersion, and on
// success bumps session.Version. A missing or expired record has version 0.
type SessionStore interface {
	Get(ctx context.Context, identity string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session, expectedVersion int64) error
	Delete(ctx context.Context, identity string) error
	Count(ctx context.Context) (int64, error)
}

const (
	userIdentityPrefix     = "user:"
	guestIdentityPrefix    = "guest:"
	whatsappIdentityPrefix = "whatsapp:"
)

// WebIdentity keys authenticated users by user id and everyone else by the
// browser session id.
func WebIdentity(userID, sessionID string) string {
	if userID != "" {
		return userIdentityPrefix + userID
	}
	return guestIdentityPrefix + sessionID
}

func WhatsAppIdentity(phone string) string {
	return whatsappIdentityPrefix + phone
}

// MemorySessionStore keeps sessions in process memory. Expired sessions are
// treated as absent on access and overwritten by the next save.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemorySessionStore) Get(_ context.Context, identity string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[identity]
	if !ok || s.Expired(m.ttl, m.now()) {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *MemorySessionStore) Save(_ context.Context, session *models.Session, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	if s, ok := m.sessions[session.Identity]; ok && !s.Expired(m.ttl, m.now()) {
		current = s.Version
	}
	if current != expectedVersion {
		return ErrSessionConflict
	}

	stored := session.Clone()
	stored.Version = expectedVersion + 1
	m.sessions[session.Identity] = stored
	session.Version = stored.Version
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, identity string) error {
	m.mu.Lock()
	delete(m.sessions, identity)
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	var n int64
	for _, s := range m.sessions {
		if !s.Expired(m.ttl, now) {
			n++
		}
	}
	return n, nil
}

// RoutingSessionStore sends authenticated users to a persistent store and
// guests and WhatsApp numbers to the guest store.
type RoutingSessionStore struct {
	guest      SessionStore
	persistent SessionStore
}

// NewRoutingSessionStore returns guest unchanged when persistent is nil.
func NewRoutingSessionStore(guest, persistent SessionStore) SessionStore {
	if persistent == nil {
		return guest
	}
	return &RoutingSessionStore{guest: guest, persistent: persistent}
}

func (r *RoutingSessionStore) route(identity string) SessionStore {
	if strings.HasPrefix(identity, userIdentityPrefix) {
		return r.persistent
	}
	return r.guest
}

func (r *RoutingSessionStore) Get(ctx context.Context, identity string) (*models.Session, error) {
	return r.route(identity).Get(ctx, identity)
}

func (r *RoutingSessionStore) Save(ctx context.Context, session *models.Session, expectedVersion int64) error {
	return r.route(session.Identity).Save(ctx, session, expectedVersion)
}

func (r *RoutingSessionStore) Delete(ctx context.Context, identity string) error {
	return r.route(identity).Delete(ctx, identity)
}

func (r *RoutingSessionStore) Count(ctx context.Context) (int64, error) {
	guests, err := r.guest.Count(ctx)
	if err != nil {
		return 0, err
	}
	users, err := r.persistent.Count(ctx)
	if err != nil {
		return 0, err
	}
	return guests + users, nil
}

// KeyedMutex serialises work per key. Entries are dropped once no goroutine
// holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *KeyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
