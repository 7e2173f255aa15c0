package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/storage"
)

type lockEntry struct {
	token   string
	expires time.Time
}

// MemoryStorage keeps the submission journal and account locks in process.
// It backs single-process runs and tests.
type MemoryStorage struct {
	submissions map[string]*domain.Submission
	locks       map[string]lockEntry
	now         func() time.Time
	mu          sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		submissions: make(map[string]*domain.Submission),
		locks:       make(map[string]lockEntry),
		now:         time.Now,
	}
}

// -----------------------------------------------------------------------------
// Submission Repository
// -----------------------------------------------------------------------------

type SubmissionRepo struct {
	store *MemoryStorage
}

var _ storage.SubmissionRepository = (*SubmissionRepo)(nil)

func NewSubmissionRepo(store *MemoryStorage) *SubmissionRepo {
	return &SubmissionRepo{store: store}
}

func (r *SubmissionRepo) Create(ctx context.Context, s *domain.Submission) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *s
	now := r.store.now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	r.store.submissions[s.ID] = &cp
	return nil
}

func (r *SubmissionRepo) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.SubmissionStatus,
	blockNumber uint64,
	errMsg string,
) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.submissions[id]
	if !ok {
		return storage.ErrSubmissionNotFound
	}
	s.Status = status
	s.BlockNumber = blockNumber
	s.Error = errMsg
	s.UpdatedAt = r.store.now()
	return nil
}

func (r *SubmissionRepo) Get(ctx context.Context, id string) (*domain.Submission, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	s, ok := r.store.submissions[id]
	if !ok {
		return nil, storage.ErrSubmissionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *SubmissionRepo) ListByAccount(ctx context.Context, account string, limit int) ([]*domain.Submission, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*domain.Submission
	for _, s := range r.store.submissions {
		if s.Account == account {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Nonce > out[j].Nonce
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SubmissionRepo) ListPending(ctx context.Context, chainID uint64) ([]*domain.Submission, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*domain.Submission
	for _, s := range r.store.submissions {
		if s.ChainID == chainID && s.Status == domain.SubmissionPending {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// -----------------------------------------------------------------------------
// Locker
// -----------------------------------------------------------------------------

type Locker struct {
	store *MemoryStorage
}

var _ storage.Locker = (*Locker)(nil)

func NewLocker(store *MemoryStorage) *Locker {
	return &Locker{store: store}
}

func (l *Locker) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	now := l.store.now()
	if e, ok := l.store.locks[key]; ok && now.Before(e.expires) {
		return false, nil
	}
	l.store.locks[key] = lockEntry{token: token, expires: now.Add(ttl)}
	return true, nil
}

func (l *Locker) ReleaseLock(ctx context.Context, key, token string) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if e, ok := l.store.locks[key]; ok && e.token == token {
		delete(l.store.locks, key)
	}
	return nil
}
