package session

import (
	"context"
	"sync"
	"time"

	"github.com/shrinex/bastion/codec"
	"github.com/shrinex/bastion/internal/logger"
)

// DefaultCleanupInterval is how often MapSessionRepository evicts expired sessions
const DefaultCleanupInterval = time.Minute

type (
	// Repository caches sessions keyed by their token.
	// Read returns nil, nil for unknown and expired sessions.
	// SaveIfPresent writes only over a stored session and reports whether it did,
	// so a session removed in the meantime stays removed.
	Repository interface {
		Create(context.Context, string) (*MapSession, error)
		Save(context.Context, *MapSession) error
		SaveIfPresent(context.Context, *MapSession) (bool, error)
		Read(context.Context, string) (*MapSession, error)
		Remove(context.Context, string) error
		Close() error
	}

	// MapSessionRepository keeps sessions in process memory
	MapSessionRepository struct {
		mu          sync.RWMutex
		stopGuard   sync.Once
		codec       codec.Codec
		stopChan    chan struct{}
		timeout     time.Duration
		idleTimeout time.Duration
		lookup      map[string]*MapSession
	}
)

var _ Repository = (*MapSessionRepository)(nil)

// NewMapSessionRepository starts a background cleanup running every interval,
// a non-positive interval selects DefaultCleanupInterval. Close stops it.
func NewMapSessionRepository(c codec.Codec, timeout time.Duration,
	idleTimeout time.Duration, interval time.Duration) *MapSessionRepository {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	r := &MapSessionRepository{
		codec:       c,
		timeout:     timeout,
		idleTimeout: idleTimeout,
		stopChan:    make(chan struct{}),
		lookup:      make(map[string]*MapSession),
	}

	go r.startCleanup(interval)

	return r
}

func (r *MapSessionRepository) Create(ctx context.Context, token string) (*MapSession, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	result := NewSession(token, r.codec)
	result.SetTimeout(r.timeout)
	result.SetIdleTimeout(r.idleTimeout)

	r.mu.Lock()
	r.lookup[token] = NewSessionCopy(result)
	r.mu.Unlock()

	return result, nil
}

func (r *MapSessionRepository) Read(ctx context.Context, token string) (*MapSession, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	src, ok := r.lookup[token]
	r.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	expired, err := src.Expired(ctx)
	if err != nil {
		return nil, err
	}

	if expired {
		_ = r.Remove(ctx, token)
		return nil, nil
	}

	return NewSessionCopy(src), nil
}

// Save replaces the stored copy, stopped or expired sessions are evicted instead
func (r *MapSessionRepository) Save(ctx context.Context, session *MapSession) error {
	expired, err := session.Expired(ctx)
	if err != nil {
		return err
	}

	if expired {
		return r.Remove(ctx, session.Token())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lookup[session.Token()] = NewSessionCopy(session)

	return nil
}

func (r *MapSessionRepository) SaveIfPresent(ctx context.Context, session *MapSession) (bool, error) {
	expired, err := session.Expired(ctx)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lookup[session.Token()]; !ok {
		return false, nil
	}

	if expired {
		delete(r.lookup, session.Token())
		return false, nil
	}

	r.lookup[session.Token()] = NewSessionCopy(session)

	return true, nil
}

func (r *MapSessionRepository) Remove(ctx context.Context, token string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.lookup, token)

	return nil
}

// Len returns the number of sessions held, expired ones included until evicted
func (r *MapSessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.lookup)
}

// Close stops the background cleanup, it is safe to call more than once
func (r *MapSessionRepository) Close() error {
	r.stopGuard.Do(func() {
		close(r.stopChan)
	})

	return nil
}

func (r *MapSessionRepository) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.deleteExpired()
		case <-r.stopChan:
			return
		}
	}
}

func (r *MapSessionRepository) deleteExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := context.TODO()
	evicted := 0
	for token, ss := range r.lookup {
		if expired, _ := ss.Expired(ctx); expired {
			delete(r.lookup, token)
			_ = ss.Stop(ctx)
			evicted++
		}
	}

	if evicted > 0 {
		logger.Debug("evicted expired sessions", "count", evicted)
	}
}
