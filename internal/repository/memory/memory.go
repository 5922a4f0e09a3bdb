// Package memory provides in-process repository implementations used for
// single-instance development deployments and for tests.
package memory

import (
	"context"
	"fittrack/internal/models"
	"sync"

	"github.com/google/uuid"
)

// DB is the shared backing state of the in-memory repositories
type DB struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	users    map[uuid.UUID]*models.User
	emailIdx map[string]uuid.UUID
	tokens   map[uuid.UUID]*models.ResetToken
	audit    []models.AuditLog
}

// NewDB creates an empty in-memory database
func NewDB() *DB {
	return &DB{
		users:    make(map[uuid.UUID]*models.User),
		emailIdx: make(map[string]uuid.UUID),
		tokens:   make(map[uuid.UUID]*models.ResetToken),
	}
}

type txKey struct{}

type snapshot struct {
	users    map[uuid.UUID]models.User
	emailIdx map[string]uuid.UUID
	tokens   map[uuid.UUID]models.ResetToken
}

func (db *DB) snapshot() snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()

	s := snapshot{
		users:    make(map[uuid.UUID]models.User, len(db.users)),
		emailIdx: make(map[string]uuid.UUID, len(db.emailIdx)),
		tokens:   make(map[uuid.UUID]models.ResetToken, len(db.tokens)),
	}
	for id, u := range db.users {
		s.users[id] = *u
	}
	for email, id := range db.emailIdx {
		s.emailIdx[email] = id
	}
	for id, t := range db.tokens {
		s.tokens[id] = *t
	}
	return s
}

func (db *DB) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.users = make(map[uuid.UUID]*models.User, len(s.users))
	for id, u := range s.users {
		db.users[id] = &u
	}
	db.emailIdx = s.emailIdx
	db.tokens = make(map[uuid.UUID]*models.ResetToken, len(s.tokens))
	for id, t := range s.tokens {
		db.tokens[id] = &t
	}
}

type base struct {
	db *DB
}

// serialize orders a user or reset token write after any running
// transaction. Calls made inside the transaction already hold the lock.
func (b base) serialize(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	b.db.txMu.Lock()
	return b.db.txMu.Unlock
}

// Transaction runs fn and restores users and reset tokens to their prior
// state when fn fails. Transactions and user or reset token writes are
// serialized, so a rollback never discards another caller's write. Audit
// entries are not rolled back.
func (b base) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	b.db.txMu.Lock()
	defer b.db.txMu.Unlock()

	before := b.db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		b.db.restore(before)
		return err
	}
	return nil
}
