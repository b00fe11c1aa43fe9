package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/shrinex/bastion/codec"
	"github.com/shrinex/bastion/internal/logger"
)

const badgerKeyPrefix = "session:"

// BadgerSessionRepository caches sessions in badger, on disk or purely in memory.
// Entries carry a TTL matching the session deadline so badger drops them by itself.
type BadgerSessionRepository struct {
	db          *badgerdb.DB
	owned       bool
	codec       codec.Codec
	timeout     time.Duration
	idleTimeout time.Duration
}

var _ Repository = (*BadgerSessionRepository)(nil)

// OpenBadgerSessionRepository opens a badger database in dir, an empty dir
// keeps everything in memory. The database is closed by Close.
func OpenBadgerSessionRepository(dir string, c codec.Codec, timeout time.Duration,
	idleTimeout time.Duration) (*BadgerSessionRepository, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	r := NewBadgerSessionRepository(db, c, timeout, idleTimeout)
	r.owned = true
	return r, nil
}

// NewBadgerSessionRepository uses an already opened database, Close leaves it open
func NewBadgerSessionRepository(db *badgerdb.DB, c codec.Codec, timeout time.Duration,
	idleTimeout time.Duration) *BadgerSessionRepository {
	return &BadgerSessionRepository{
		db:          db,
		codec:       c,
		timeout:     timeout,
		idleTimeout: idleTimeout,
	}
}

func (r *BadgerSessionRepository) Create(ctx context.Context, token string) (*MapSession, error) {
	result := NewSession(token, r.codec)
	result.SetTimeout(r.timeout)
	result.SetIdleTimeout(r.idleTimeout)

	if err := r.Save(ctx, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Save writes the session with a TTL up to its deadline,
// stopped or expired sessions are removed instead of written
func (r *BadgerSessionRepository) Save(ctx context.Context, session *MapSession) error {
	expired, err := session.Expired(ctx)
	if err != nil {
		return err
	}

	if expired {
		return r.Remove(ctx, session.Token())
	}

	entry, err := r.entry(session)
	if err != nil {
		return err
	}

	return r.db.Update(func(txn *badgerdb.Txn) error {
		return txn.SetEntry(entry)
	})
}

// SaveIfPresent checks for the stored session and writes over it in one
// transaction, a conflicting Remove makes the write fail instead of land
func (r *BadgerSessionRepository) SaveIfPresent(ctx context.Context, session *MapSession) (bool, error) {
	expired, err := session.Expired(ctx)
	if err != nil {
		return false, err
	}

	if expired {
		return false, r.Remove(ctx, session.Token())
	}

	entry, err := r.entry(session)
	if err != nil {
		return false, err
	}

	saved := false
	err = r.db.Update(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(entry.Key)
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		saved = true
		return txn.SetEntry(entry)
	})
	if errors.Is(err, badgerdb.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return saved, nil
}

func (r *BadgerSessionRepository) entry(session *MapSession) (*badgerdb.Entry, error) {
	session.mu.RLock()
	rec := session.toRecord()
	deadline := session.deadline()
	session.mu.RUnlock()

	data, err := r.codec.Encode(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	entry := badgerdb.NewEntry(badgerKey(rec.Token), []byte(data))
	if !deadline.IsZero() {
		// badger expiry has second granularity
		ttl := deadline.Sub(nowFunc()).Truncate(time.Second) + time.Second
		entry = entry.WithTTL(ttl)
	}

	return entry, nil
}

func (r *BadgerSessionRepository) Read(ctx context.Context, token string) (*MapSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec *record
	err := r.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(badgerKey(token))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			rec = &record{}
			return r.codec.Decode(string(val), rec)
		})
	})
	if err != nil {
		return nil, err
	}

	if rec == nil {
		return nil, nil
	}

	session := rec.toSession(r.codec)
	expired, err := session.Expired(ctx)
	if err != nil {
		return nil, err
	}

	if expired {
		_ = r.Remove(ctx, token)
		return nil, nil
	}

	return session, nil
}

func (r *BadgerSessionRepository) Remove(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(txn *badgerdb.Txn) error {
		err := txn.Delete(badgerKey(token))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Close closes the database when the repository opened it
func (r *BadgerSessionRepository) Close() error {
	if !r.owned {
		return nil
	}

	if err := r.db.Close(); err != nil {
		logger.Warn("failed to close session store", logger.KeyError, err)
		return err
	}

	return nil
}

func badgerKey(token string) []byte {
	return []byte(badgerKeyPrefix + token)
}
