package account

import (
	"context"
	"sync"

	"github.com/vitalsync/authkit/internal/common"
)

// MemoryRepository is an in-memory account directory keyed by normalized
// email. It is safe for concurrent use: a single mutex guards the maps, so
// duplicate registrations racing for the same email resolve to one winner.
//
// Intended for development and tests; production deployments use
// PostgresRepository.
type MemoryRepository struct {
	mu      sync.Mutex
	byEmail map[string]*memoryEntry
	byID    map[string]*memoryEntry
}

type memoryEntry struct {
	account Account
	hash    []byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byEmail: make(map[string]*memoryEntry),
		byID:    make(map[string]*memoryEntry),
	}
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*Account, []byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byEmail[email]
	if !ok {
		return nil, nil, common.ErrorNotFound
	}
	hash := make([]byte, len(e.hash))
	copy(hash, e.hash)
	return e.account.Clone(), hash, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return e.account.Clone(), nil
}

func (r *MemoryRepository) Create(ctx context.Context, acc *Account, passwordHash []byte) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[acc.Email]; ok {
		return nil, common.ErrAccountExists
	}

	e := &memoryEntry{account: *acc.Clone()}
	e.hash = make([]byte, len(passwordHash))
	copy(e.hash, passwordHash)

	r.byEmail[e.account.Email] = e
	r.byID[e.account.ID] = e
	return e.account.Clone(), nil
}

func (r *MemoryRepository) Update(ctx context.Context, acc *Account) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[acc.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}

	hash := e.hash
	updated := &memoryEntry{account: *acc.Clone(), hash: hash}
	// email is immutable in this directory, keep the original key
	updated.account.Email = e.account.Email

	r.byID[acc.ID] = updated
	r.byEmail[updated.account.Email] = updated
	return updated.account.Clone(), nil
}

func (r *MemoryRepository) UpdatePasswordHash(ctx context.Context, id string, newHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	e.hash = make([]byte, len(newHash))
	copy(e.hash, newHash)
	return nil
}
