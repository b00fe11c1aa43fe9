package session

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shrinex/bastion/codec"
)

type (
	Session interface {
		Token() string
		StartTime(context.Context) (time.Time, error)
		Timeout(context.Context) (time.Duration, error)
		IdleTimeout(context.Context) (time.Duration, error)
		LastAccessTime(context.Context) (time.Time, error)
		Attribute(context.Context, string, any) (bool, error)
		AttributeAsInt(context.Context, string) (int64, bool, error)
		AttributeAsBool(context.Context, string) (bool, bool, error)
		AttributeAsString(context.Context, string) (string, bool, error)
		SetAttribute(context.Context, string, any) error
		RemoveAttribute(context.Context, string) error
		AttributeKeys(context.Context) ([]string, error)
		Expired(context.Context) (bool, error)
		Touch(context.Context) error
		Stop(context.Context) error
	}

	// MapSession keeps its attributes encoded by a codec.Codec,
	// which lets repositories persist it as is
	MapSession struct {
		token          string
		mu             sync.RWMutex
		stopped        atomic.Bool
		codec          codec.Codec
		startTime      time.Time
		lastAccessTime time.Time
		timeout        time.Duration
		idleTimeout    time.Duration
		attrs          map[string]string
	}

	// record is the persisted form of a MapSession
	record struct {
		Token          string            `json:"token" yaml:"token"`
		StartTime      int64             `json:"start_time" yaml:"start_time"`
		LastAccessTime int64             `json:"last_access_time" yaml:"last_access_time"`
		Timeout        time.Duration     `json:"timeout" yaml:"timeout"`
		IdleTimeout    time.Duration     `json:"idle_timeout" yaml:"idle_timeout"`
		Attrs          map[string]string `json:"attrs" yaml:"attrs"`
	}
)

var _ Session = (*MapSession)(nil)

func NewSession(token string, c codec.Codec) *MapSession {
	now := nowFunc()
	return &MapSession{
		token:          token,
		codec:          c,
		startTime:      now,
		lastAccessTime: now,
		attrs:          make(map[string]string),
	}
}

// NewSessionCopy detaches a session from the instance held by a repository
func NewSessionCopy(src *MapSession) *MapSession {
	src.mu.RLock()
	defer src.mu.RUnlock()

	return src.toRecord().toSession(src.codec)
}

func (s *MapSession) Token() string {
	return s.token
}

func (s *MapSession) StartTime(ctx context.Context) (time.Time, error) {
	if err := s.checkState(ctx); err != nil {
		return time.Time{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.startTime, nil
}

func (s *MapSession) Timeout(ctx context.Context) (time.Duration, error) {
	if err := s.checkState(ctx); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.timeout, nil
}

func (s *MapSession) IdleTimeout(ctx context.Context) (time.Duration, error) {
	if err := s.checkState(ctx); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.idleTimeout, nil
}

func (s *MapSession) LastAccessTime(ctx context.Context) (time.Time, error) {
	if err := s.checkState(ctx); err != nil {
		return time.Time{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastAccessTime, nil
}

// Expired reports whether the session outlived its timeout or idle timeout.
// A zero duration disables the corresponding check. Stopped and kicked out
// sessions are always expired.
func (s *MapSession) Expired(ctx context.Context) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	if s.stopped.Load() {
		return true, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.attrs[KickedOutKey]; ok {
		return true, nil
	}

	return s.expiredAt(nowFunc()), nil
}

func (s *MapSession) Attribute(ctx context.Context, key string, ptr any) (bool, error) {
	if err := s.checkState(ctx); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.attrs[key]
	if !ok {
		return false, nil
	}

	if err := s.codec.Decode(data, ptr); err != nil {
		return false, err
	}

	return true, nil
}

func (s *MapSession) AttributeAsInt(ctx context.Context, key string) (int64, bool, error) {
	var value int64
	found, err := s.Attribute(ctx, key, &value)
	return value, found, err
}

func (s *MapSession) AttributeAsBool(ctx context.Context, key string) (bool, bool, error) {
	var value bool
	found, err := s.Attribute(ctx, key, &value)
	return value, found, err
}

func (s *MapSession) AttributeAsString(ctx context.Context, key string) (string, bool, error) {
	var value string
	found, err := s.Attribute(ctx, key, &value)
	return value, found, err
}

// AttributeKeys returns the keys in lexical order
func (s *MapSession) AttributeKeys(ctx context.Context) ([]string, error) {
	if err := s.checkState(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.attrs))
	for key := range s.attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys, nil
}

// SetAttribute stores value, a nil value removes the key
func (s *MapSession) SetAttribute(ctx context.Context, key string, value any) error {
	if err := s.checkState(ctx); err != nil {
		return err
	}

	if value == nil {
		return s.RemoveAttribute(ctx, key)
	}

	data, err := s.codec.Encode(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attrs[key] = data
	return nil
}

func (s *MapSession) RemoveAttribute(ctx context.Context, key string) error {
	if err := s.checkState(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.attrs, key)
	return nil
}

func (s *MapSession) Touch(ctx context.Context) error {
	if err := s.checkState(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastAccessTime = nowFunc()
	return nil
}

// Stop is idempotent
func (s *MapSession) Stop(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.stopped.Store(true)
	return nil
}

// KickOut marks the session as replaced, every later access fails with ErrKickedOut
func (s *MapSession) KickOut(ctx context.Context) error {
	if err := s.checkState(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attrs[KickedOutKey] = "true"
	return nil
}

//=====================================
//		      Setters
//=====================================

func (s *MapSession) SetTimeout(timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timeout = timeout
}

func (s *MapSession) SetIdleTimeout(idleTimeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.idleTimeout = idleTimeout
}

//=====================================
//		      Private
//=====================================

func (s *MapSession) checkState(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if s.stopped.Load() {
		return ErrStopped
	}

	s.mu.RLock()
	_, kicked := s.attrs[KickedOutKey]
	s.mu.RUnlock()

	if kicked {
		return ErrKickedOut
	}

	return nil
}

// expiredAt must be called with mu held
func (s *MapSession) expiredAt(now time.Time) bool {
	if s.timeout > 0 && s.startTime.Add(s.timeout).Before(now) {
		return true
	}

	return s.idleTimeout > 0 && s.lastAccessTime.Add(s.idleTimeout).Before(now)
}

// deadline is the instant the session expires if never touched again,
// zero when it never does. Must be called with mu held.
func (s *MapSession) deadline() time.Time {
	var at time.Time
	if s.timeout > 0 {
		at = s.startTime.Add(s.timeout)
	}
	if s.idleTimeout > 0 {
		idle := s.lastAccessTime.Add(s.idleTimeout)
		if at.IsZero() || idle.Before(at) {
			at = idle
		}
	}
	return at
}

// toRecord must be called with mu held
func (s *MapSession) toRecord() record {
	attrs := make(map[string]string, len(s.attrs))
	for k, v := range s.attrs {
		attrs[k] = v
	}

	return record{
		Token:          s.token,
		StartTime:      s.startTime.UnixNano(),
		LastAccessTime: s.lastAccessTime.UnixNano(),
		Timeout:        s.timeout,
		IdleTimeout:    s.idleTimeout,
		Attrs:          attrs,
	}
}

func (r record) toSession(c codec.Codec) *MapSession {
	attrs := r.Attrs
	if attrs == nil {
		attrs = make(map[string]string)
	}

	return &MapSession{
		token:          r.Token,
		codec:          c,
		startTime:      time.Unix(0, r.StartTime),
		lastAccessTime: time.Unix(0, r.LastAccessTime),
		timeout:        r.Timeout,
		idleTimeout:    r.IdleTimeout,
		attrs:          attrs,
	}
}
