package session

import (
	"container/list"
	"context"
	"sync"
)

type (
	// Registry tracks which sessions each principal holds, per platform
	Registry interface {
		Register(context.Context, string, *MapSession) error
		Deregister(context.Context, string, string) error
		ActiveSessions(context.Context, string) ([]*MapSession, error)
	}

	signature struct {
		platform  string
		principal string
	}

	// MapSessionRegistry keeps the relations in memory and reads
	// the sessions themselves from a Repository
	MapSessionRegistry struct {
		mu   sync.RWMutex
		repo Repository
		// lookup maps token to signature
		lookup map[string]signature
		// signs maps signature to tokens in registration order
		signs map[signature]*list.List
	}
)

var _ Registry = (*MapSessionRegistry)(nil)

func NewRegistry(repo Repository) *MapSessionRegistry {
	return &MapSessionRegistry{
		repo:   repo,
		lookup: make(map[string]signature),
		signs:  make(map[signature]*list.List),
	}
}

func (r *MapSessionRegistry) Register(ctx context.Context, principal string, session *MapSession) error {
	platform, found, err := session.AttributeAsString(ctx, PlatformKey)
	if err != nil {
		return err
	}

	if !found || len(platform) == 0 {
		platform = DefaultPlatform
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lookup[session.Token()]; ok {
		return nil
	}

	sign := signature{
		platform:  platform,
		principal: principal,
	}
	if _, ok := r.signs[sign]; !ok {
		r.signs[sign] = list.New()
	}
	r.signs[sign].PushBack(session.Token())
	r.lookup[session.Token()] = sign

	return nil
}

// Deregister is a no-op for unknown tokens
func (r *MapSessionRegistry) Deregister(ctx context.Context, _ string, token string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.forget(token)

	return nil
}

// ActiveSessions returns the live sessions of principal on every platform,
// forgetting tokens the repository no longer knows
func (r *MapSessionRegistry) ActiveSessions(ctx context.Context, principal string) ([]*MapSession, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	tokens := make([]string, 0)
	for sign, ls := range r.signs {
		if sign.principal != principal {
			continue
		}
		for e := ls.Front(); e != nil; e = e.Next() {
			tokens = append(tokens, e.Value.(string))
		}
	}
	r.mu.RUnlock()

	sessions := make([]*MapSession, 0, len(tokens))
	stale := make([]string, 0)
	for _, token := range tokens {
		session, err := r.repo.Read(ctx, token)
		if err != nil {
			return nil, err
		}

		if session == nil {
			stale = append(stale, token)
			continue
		}
		sessions = append(sessions, session)
	}

	if len(stale) > 0 {
		r.mu.Lock()
		for _, token := range stale {
			r.forget(token)
		}
		r.mu.Unlock()
	}

	return sessions, nil
}

// forget must be called with mu held
func (r *MapSessionRegistry) forget(token string) {
	sign, ok := r.lookup[token]
	if !ok {
		return
	}

	delete(r.lookup, token)
	ls := r.signs[sign]
	for e := ls.Front(); e != nil; e = e.Next() {
		if e.Value.(string) == token {
			ls.Remove(e)
			break
		}
	}

	if ls.Len() == 0 {
		delete(r.signs, sign)
	}
}
