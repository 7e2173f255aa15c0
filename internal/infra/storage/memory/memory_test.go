package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/storage"
)

func TestSubmissionRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	repo := NewSubmissionRepo(store)

	sub := &domain.Submission{
		ID:      "a",
		ChainID: 270,
		Account: "0xac",
		Nonce:   1,
		Kind:    domain.SubmissionSwap,
		TxHash:  "0x01",
		Status:  domain.SubmissionPending,
	}
	if err := repo.Create(ctx, sub); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pending, _ := repo.ListPending(ctx, 270)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(pending))
	}

	if err := repo.UpdateStatus(ctx, "a", domain.SubmissionConfirmed, 42, ""); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	got, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != domain.SubmissionConfirmed || got.BlockNumber != 42 {
		t.Errorf("unexpected submission %+v", got)
	}

	pending, _ = repo.ListPending(ctx, 270)
	if len(pending) != 0 {
		t.Errorf("expected no pending, got %d", len(pending))
	}

	if err := repo.UpdateStatus(ctx, "missing", domain.SubmissionReverted, 0, ""); !errors.Is(err, storage.ErrSubmissionNotFound) {
		t.Errorf("expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestSubmissionRepo_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewSubmissionRepo(NewMemoryStorage())
	_ = repo.Create(ctx, &domain.Submission{ID: "a", Status: domain.SubmissionPending})

	got, _ := repo.Get(ctx, "a")
	got.Status = domain.SubmissionReverted

	again, _ := repo.Get(ctx, "a")
	if again.Status != domain.SubmissionPending {
		t.Errorf("stored submission was mutated through a returned copy")
	}
}

func TestSubmissionRepo_ListByAccount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewSubmissionRepo(store)

	for i, id := range []string{"a", "b", "c"} {
		store.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		_ = repo.Create(ctx, &domain.Submission{ID: id, Account: "0xac", Nonce: uint64(i)})
	}
	_ = repo.Create(ctx, &domain.Submission{ID: "other", Account: "0xbb"})

	got, _ := repo.ListByAccount(ctx, "0xac", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	if got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("expected newest first, got %s, %s", got[0].ID, got[1].ID)
	}
}

func TestLocker(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	l := NewLocker(store)

	ok, _ := l.AcquireLock(ctx, "k", "t1", time.Minute)
	if !ok {
		t.Fatal("first acquire should succeed")
	}
	ok, _ = l.AcquireLock(ctx, "k", "t2", time.Minute)
	if ok {
		t.Fatal("second acquire should fail while held")
	}

	// a foreign token cannot release
	_ = l.ReleaseLock(ctx, "k", "t2")
	ok, _ = l.AcquireLock(ctx, "k", "t2", time.Minute)
	if ok {
		t.Fatal("lock released by a foreign token")
	}

	// expiry frees the lock
	now = now.Add(2 * time.Minute)
	ok, _ = l.AcquireLock(ctx, "k", "t2", time.Minute)
	if !ok {
		t.Fatal("expired lock should be acquirable")
	}

	_ = l.ReleaseLock(ctx, "k", "t2")
	ok, _ = l.AcquireLock(ctx, "k", "t3", time.Minute)
	if !ok {
		t.Fatal("released lock should be acquirable")
	}
}
