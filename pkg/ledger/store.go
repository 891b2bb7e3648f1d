package ledger

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
)

// Store is the account-addressed global state: an in-memory cache over a
// Pebble database. Components never reach for a hidden global; they take the
// Store (or a Txn cut from it) as an explicit dependency.
type Store struct {
	mu    sync.RWMutex
	db    *pebble.DB
	cache map[common.Hash]*Account
}

// NewStore opens a Pebble database at the given path.
func NewStore(dbPath string) (*Store, error) {
	opts := &pebble.Options{
		Cache:                 pebble.NewCache(64 << 20),
		MemTableSize:          32 << 20,
		L0CompactionThreshold: 2,
		MaxOpenFiles:          1000,
	}

	db, err := pebble.Open(dbPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %s: %w", dbPath, err)
	}

	return &Store{
		db:    db,
		cache: make(map[common.Hash]*Account),
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get loads an account by ID. Returns nil if the account does not exist.
func (s *Store) Get(id common.Hash) (*Account, error) {
	s.mu.RLock()
	if acc, ok := s.cache[id]; ok {
		s.mu.RUnlock()
		return acc.Clone(), nil
	}
	s.mu.RUnlock()

	data, closer, err := s.db.Get(accountKey(id))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id.Hex(), err)
	}
	defer closer.Close()

	var acc Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account %s: %w", id.Hex(), err)
	}

	s.mu.Lock()
	s.cache[id] = acc.Clone()
	s.mu.Unlock()

	return &acc, nil
}

// Put writes an account directly, outside any transition. Used by genesis
// bootstrap and tests; transitions go through Begin/Commit instead.
func (s *Store) Put(acc *Account) error {
	data, err := json.Marshal(acc)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	if err := s.db.Set(accountKey(acc.ID), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	s.mu.Lock()
	s.cache[acc.ID] = acc.Clone()
	s.mu.Unlock()
	return nil
}

// Begin starts a staged transaction over the store. Reads come from staged
// copies first, then committed state; writes stay staged until Commit, which
// lands them in a single atomic Pebble batch. Dropping a Txn without
// committing discards every staged mutation.
func (s *Store) Begin() *Txn {
	return &Txn{
		store:  s,
		staged: make(map[common.Hash]*Account),
	}
}

// Txn is the whole-transition atomicity boundary: one transition's reads and
// writes against a fixed account set, committed all-or-nothing.
type Txn struct {
	store  *Store
	staged map[common.Hash]*Account
}

// Get returns the staged copy of an account, loading and staging it on first
// access. Returns nil if the account does not exist.
func (t *Txn) Get(id common.Hash) (*Account, error) {
	if acc, ok := t.staged[id]; ok {
		return acc, nil
	}

	acc, err := t.store.Get(id)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, nil
	}

	t.staged[id] = acc
	return acc, nil
}

// Create stages a brand-new account inside the transaction.
func (t *Txn) Create(acc *Account) {
	t.staged[acc.ID] = acc
}

// Commit writes all staged accounts to Pebble atomically and refreshes the
// cache.
func (t *Txn) Commit() error {
	batch := t.store.db.NewBatch()
	defer batch.Close()

	for id, acc := range t.staged {
		data, err := json.Marshal(acc)
		if err != nil {
			return fmt.Errorf("failed to marshal account %s: %w", id.Hex(), err)
		}
		if err := batch.Set(accountKey(id), data, nil); err != nil {
			return fmt.Errorf("failed to stage account %s: %w", id.Hex(), err)
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to commit transition batch: %w", err)
	}

	t.store.mu.Lock()
	for id, acc := range t.staged {
		t.store.cache[id] = acc.Clone()
	}
	t.store.mu.Unlock()

	return nil
}
