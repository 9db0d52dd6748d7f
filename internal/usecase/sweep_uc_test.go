//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"lovepage-backend/internal/domain/model"
	"lovepage-backend/internal/domain/ports/repository"
	"lovepage-backend/internal/usecase"
)

func seedEntitlement(t *testing.T, repo *MockEntitlementRepo, id, pageID string, expiresAt time.Time) {
	t.Helper()
	err := repo.Upsert(context.Background(), nil, &model.Entitlement{
		ID:         id,
		GiftPageID: pageID,
		Status:     model.EntitlementStatusActive,
		PaidAt:     expiresAt.AddDate(-1, 0, 0),
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		t.Fatalf("seed entitlement: %v", err)
	}
}

func TestSweepUseCase_Sweep(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("should report zero without touching anything", func(t *testing.T) {
		// --- Arrange ---
		ents := NewMockEntitlementRepo()
		pages := NewMockGiftPageRepo()
		tm := NewMockTxManager()
		txRan := false
		tm.WithTxFunc = func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
			txRan = true
			return fn(ctx, repository.NoTX)
		}
		uc := usecase.NewSweepUseCase(ents, pages, tm, testLogger)

		// --- Act ---
		res, err := uc.Sweep(ctx)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if res.Processed != 0 || len(res.DeactivatedPages) != 0 {
			t.Errorf("expected an empty sweep, got %+v", res)
		}
		if txRan {
			t.Error("an empty sweep must not open a transaction")
		}
	})

	t.Run("should expire past entitlements and deactivate their pages", func(t *testing.T) {
		ents := NewMockEntitlementRepo()
		pages := NewMockGiftPageRepo()
		tm := NewMockTxManager()
		uc := usecase.NewSweepUseCase(ents, pages, tm, testLogger)

		seedPage(t, pages, "page-old-1")
		seedPage(t, pages, "page-old-2")
		seedPage(t, pages, "page-fresh")
		_ = pages.SetActive(ctx, nil, "page-old-1", true)
		_ = pages.SetActive(ctx, nil, "page-old-2", true)
		_ = pages.SetActive(ctx, nil, "page-fresh", true)

		seedEntitlement(t, ents, "ent-1", "page-old-1", time.Now().Add(-48*time.Hour))
		seedEntitlement(t, ents, "ent-2", "page-old-2", time.Now().Add(-time.Minute))
		seedEntitlement(t, ents, "ent-3", "page-fresh", time.Now().Add(24*time.Hour))

		res, err := uc.Sweep(ctx)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if res.Processed != 2 {
			t.Errorf("expected 2 processed, got %d", res.Processed)
		}
		if len(res.DeactivatedPages) != 2 {
			t.Errorf("expected 2 deactivated pages, got %v", res.DeactivatedPages)
		}

		for _, id := range []string{"page-old-1", "page-old-2"} {
			p, _ := pages.FindByID(ctx, nil, id)
			if p.IsActive {
				t.Errorf("page %s must be deactivated", id)
			}
		}
		fresh, _ := pages.FindByID(ctx, nil, "page-fresh")
		if !fresh.IsActive {
			t.Error("a current page must stay active")
		}

		e1, _ := ents.FindByGiftPageID(ctx, nil, "page-old-1")
		if e1.Status != model.EntitlementStatusExpired {
			t.Errorf("expected ent-1 expired, got %s", e1.Status)
		}
		e3, _ := ents.FindByGiftPageID(ctx, nil, "page-fresh")
		if e3.Status != model.EntitlementStatusActive {
			t.Errorf("a current entitlement must stay active, got %s", e3.Status)
		}
	})

	t.Run("should be a no-op on the second run", func(t *testing.T) {
		ents := NewMockEntitlementRepo()
		pages := NewMockGiftPageRepo()
		uc := usecase.NewSweepUseCase(ents, pages, NewMockTxManager(), testLogger)

		seedPage(t, pages, "page-1")
		seedEntitlement(t, ents, "ent-1", "page-1", time.Now().Add(-time.Hour))

		if res, err := uc.Sweep(ctx); err != nil || res.Processed != 1 {
			t.Fatalf("first sweep: res=%+v err=%v", res, err)
		}
		res, err := uc.Sweep(ctx)
		if err != nil {
			t.Fatalf("second sweep: %v", err)
		}
		if res.Processed != 0 {
			t.Errorf("an already-expired entitlement must not be processed again, got %d", res.Processed)
		}
	})

	t.Run("should fail the whole run when the transaction fails", func(t *testing.T) {
		ents := NewMockEntitlementRepo()
		pages := NewMockGiftPageRepo()
		tm := NewMockTxManager()
		uc := usecase.NewSweepUseCase(ents, pages, tm, testLogger)

		seedPage(t, pages, "page-1")
		_ = pages.SetActive(ctx, nil, "page-1", true)
		seedEntitlement(t, ents, "ent-1", "page-1", time.Now().Add(-time.Hour))
		ents.ExpireAllFunc = func(ctx context.Context, tx repository.Tx, ids []string) error {
			return errors.New("deadlock detected")
		}

		if _, err := uc.Sweep(ctx); err == nil {
			t.Fatal("expected an error")
		}
		p, _ := pages.FindByID(ctx, nil, "page-1")
		if !p.IsActive {
			t.Error("the page must stay active when the sweep transaction fails")
		}
	})
}
