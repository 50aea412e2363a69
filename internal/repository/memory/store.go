// Package memory keeps every repository in process memory. It backs local runs
// and the service tests.
//
// All data lives in one Store guarded by a RWMutex. Readers share the lock.
// A write outside a transaction works on a copy of the state and swaps it in
// only when it succeeds; RunInTx holds the lock for the whole callback, takes
// a snapshot before the first write and restores it when the callback fails.
package memory

import (
	"context"
	"sync"
	"time"

	"adminapi/internal/model"
	"adminapi/internal/repository"
)

type state struct {
	permissions map[uint]model.Permission
	roles       map[uint]model.Role
	users       map[uint]model.User
	stores      map[uint]model.CompetitorStore
	tours       map[uint]model.Tour
	audit       []model.AuditLog

	lastPermissionID uint
	lastRoleID       uint
	lastUserID       uint
	lastStoreID      uint
	lastTourID       uint
	lastAuditID      uint
}

func newState() *state {
	return &state{
		permissions: make(map[uint]model.Permission),
		roles:       make(map[uint]model.Role),
		users:       make(map[uint]model.User),
		stores:      make(map[uint]model.CompetitorStore),
		tours:       make(map[uint]model.Tour),
	}
}

func (s *state) clone() *state {
	c := *s

	c.permissions = make(map[uint]model.Permission, len(s.permissions))
	for id, p := range s.permissions {
		c.permissions[id] = p
	}
	c.roles = make(map[uint]model.Role, len(s.roles))
	for id, r := range s.roles {
		r.PermissionIDs = append([]uint{}, r.PermissionIDs...)
		c.roles[id] = r
	}
	c.users = make(map[uint]model.User, len(s.users))
	for id, u := range s.users {
		u.RoleIDs = append([]uint{}, u.RoleIDs...)
		u.ExtraPermissionIDs = append([]uint{}, u.ExtraPermissionIDs...)
		c.users[id] = u
	}
	c.stores = make(map[uint]model.CompetitorStore, len(s.stores))
	for id, st := range s.stores {
		c.stores[id] = st
	}
	c.tours = make(map[uint]model.Tour, len(s.tours))
	for id, t := range s.tours {
		c.tours[id] = t
	}
	// audit entries are never modified; capping the shared slice makes the
	// next append copy instead of writing into the original array
	c.audit = s.audit[:len(s.audit):len(s.audit)]

	return &c
}

// Store owns the in-memory state shared by the repositories built on it.
type Store struct {
	mu   sync.RWMutex
	data *state
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{data: newState(), now: time.Now}
}

type txKey struct{}

// tx is the transaction state carried in the context. snapshot stays nil
// until the first write, so read-only transactions copy nothing.
type tx struct {
	store    *Store
	snapshot *state
}

func (s *Store) txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	if t == nil || t.store != s {
		return nil
	}
	return t
}

func (s *Store) inTx(ctx context.Context) bool {
	return s.txFrom(ctx) != nil
}

func (s *Store) read(ctx context.Context, fn func(d *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.data)
}

func (s *Store) write(ctx context.Context, fn func(d *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t := s.txFrom(ctx); t != nil {
		if t.snapshot == nil {
			t.snapshot = s.data.clone()
		}
		return fn(s.data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.data.clone()
	if err := fn(working); err != nil {
		return err
	}
	s.data = working
	return nil
}

type transactionManager struct {
	store *Store
}

func NewTransactionManager(store *Store) repository.TransactionManager {
	return &transactionManager{store: store}
}

func (m *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	s := m.store
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{store: s}
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		if t.snapshot != nil {
			s.data = t.snapshot
		}
		return err
	}
	return nil
}

// NewRepositories builds every repository on top of one Store.
func NewRepositories(store *Store) repository.Repositories {
	return repository.Repositories{
		Tx:          NewTransactionManager(store),
		Permissions: NewPermissionRepository(store),
		Roles:       NewRoleRepository(store),
		Users:       NewUserRepository(store),
		Stores:      NewStoreRepository(store),
		Tours:       NewTourRepository(store),
		Audit:       NewAuditRepository(store),
	}
}

func cloneIDs(ids []uint) []uint {
	return append([]uint{}, ids...)
}
