//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"subscription-storefront/internal/domain"
	"subscription-storefront/internal/domain/model"
	"subscription-storefront/internal/domain/ports/repository"
	"subscription-storefront/internal/usecase"
)

type downloadFixture struct {
	plans    *MockPlanRepo
	subs     *MockSubRepo
	products *MockProductRepo
	logs     *MockDownloadLogRepo
	uc       usecase.DownloadUseCase

	free, basic, pro *model.SubscriptionPlan
}

func newDownloadFixture(t *testing.T) *downloadFixture {
	t.Helper()
	f := &downloadFixture{
		plans:    NewMockPlanRepo(),
		subs:     NewMockSubRepo(),
		products: NewMockProductRepo(),
		logs:     NewMockDownloadLogRepo(),
	}
	f.free, f.basic, f.pro = seedTierPlans(t, f.plans)
	f.uc = usecase.NewDownloadUseCase(f.products, f.plans, f.subs, f.logs, NewMockTxManager(), newTestLogger())
	return f
}

func (f *downloadFixture) addProduct(t *testing.T, id string, plan *model.SubscriptionPlan, withFile bool) *model.Product {
	t.Helper()
	p, err := model.NewProduct(id, "Product "+id, plan.ID)
	if err != nil {
		t.Fatalf("new product: %v", err)
	}
	if withFile {
		p.FilePath = "stored-" + id + ".zip"
		p.FileName = id + ".zip"
	}
	if err := f.products.Save(context.Background(), repository.NoTX, p); err != nil {
		t.Fatalf("save product: %v", err)
	}
	return p
}

func (f *downloadFixture) subscribe(t *testing.T, userID string, plan *model.SubscriptionPlan, startOffset, endOffset int) {
	t.Helper()
	today := model.DateOf(time.Now())
	err := f.subs.Upsert(context.Background(), repository.NoTX, &model.UserSubscription{
		ID:        "sub-" + userID,
		UserID:    userID,
		PlanID:    plan.ID,
		StartDate: today.AddDate(0, 0, startOffset),
		EndDate:   today.AddDate(0, 0, endOffset),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
}

func TestDownloadUseCase_Authorize(t *testing.T) {
	ctx := context.Background()

	t.Run("permits an entitled download and records it", func(t *testing.T) {
		f := newDownloadFixture(t)
		product := f.addProduct(t, "p1", f.basic, true)
		f.subscribe(t, "user-1", f.basic, -10, 10)

		got, err := f.uc.Authorize(ctx, "user-1", product.ID)
		if err != nil {
			t.Fatalf("authorize: %v", err)
		}
		if got.FilePath != product.FilePath {
			t.Errorf("returned product file %q, want %q", got.FilePath, product.FilePath)
		}

		n, _ := f.logs.CountByUserAndDay(ctx, repository.NoTX, "user-1", model.DateOf(time.Now()))
		if n != 1 {
			t.Errorf("download log count = %d, want 1", n)
		}
	})

	t.Run("higher tier reaches lower tier content", func(t *testing.T) {
		f := newDownloadFixture(t)
		product := f.addProduct(t, "p-free", f.free, true)
		f.subscribe(t, "user-1", f.pro, -1, 30)

		if _, err := f.uc.Authorize(ctx, "user-1", product.ID); err != nil {
			t.Fatalf("pro subscriber denied free content: %v", err)
		}
	})

	t.Run("denies user without a subscription", func(t *testing.T) {
		f := newDownloadFixture(t)
		product := f.addProduct(t, "p1", f.free, true)

		_, err := f.uc.Authorize(ctx, "user-1", product.ID)
		if !errors.Is(err, domain.ErrNoSubscription) {
			t.Errorf("expected ErrNoSubscription, got %v", err)
		}
	})

	t.Run("denies lapsed subscription", func(t *testing.T) {
		f := newDownloadFixture(t)
		product := f.addProduct(t, "p1", f.free, true)
		f.subscribe(t, "user-1", f.free, -40, -1)

		_, err := f.uc.Authorize(ctx, "user-1", product.ID)
		if !errors.Is(err, domain.ErrExpiredSubscription) {
			t.Errorf("expected ErrExpiredSubscription, got %v", err)
		}
	})

	t.Run("denies subscription that has not started yet", func(t *testing.T) {
		f := newDownloadFixture(t)
		product := f.addProduct(t, "p1", f.free, true)
		f.subscribe(t, "user-1", f.free, 1, 30)

		_, err := f.uc.Authorize(ctx, "user-1", product.ID)
		if !errors.Is(err, domain.ErrExpiredSubscription) {
			t.Errorf("expected ErrExpiredSubscription, got %v", err)
		}
	})

	t.Run("denies tier above the subscription", func(t *testing.T) {
		f := newDownloadFixture(t)
		product := f.addProduct(t, "p-pro", f.pro, true)
		f.subscribe(t, "user-1", f.basic, -1, 30)

		_, err := f.uc.Authorize(ctx, "user-1", product.ID)
		if !errors.Is(err, domain.ErrTierNotIncluded) {
			t.Errorf("expected ErrTierNotIncluded, got %v", err)
		}
	})

	t.Run("enforces the daily quota", func(t *testing.T) {
		f := newDownloadFixture(t)
		product := f.addProduct(t, "p1", f.free, true)
		f.subscribe(t, "user-1", f.free, -1, 30) // free plan: 1 per day

		if _, err := f.uc.Authorize(ctx, "user-1", product.ID); err != nil {
			t.Fatalf("first download: %v", err)
		}
		_, err := f.uc.Authorize(ctx, "user-1", product.ID)
		if !errors.Is(err, domain.ErrDailyLimitReached) {
			t.Errorf("expected ErrDailyLimitReached, got %v", err)
		}

		// yesterday's downloads must not count
		n, _ := f.logs.CountByUserAndDay(ctx, repository.NoTX, "user-1", model.DateOf(time.Now()))
		if n != 1 {
			t.Errorf("quota consumed %d slots, want 1", n)
		}
	})

	t.Run("denies product without an attached file and burns no quota", func(t *testing.T) {
		f := newDownloadFixture(t)
		product := f.addProduct(t, "p1", f.free, false)
		f.subscribe(t, "user-1", f.free, -1, 30)

		_, err := f.uc.Authorize(ctx, "user-1", product.ID)
		if !errors.Is(err, domain.ErrFileNotAttached) {
			t.Errorf("expected ErrFileNotAttached, got %v", err)
		}
		n, _ := f.logs.CountByUserAndDay(ctx, repository.NoTX, "user-1", model.DateOf(time.Now()))
		if n != 0 {
			t.Errorf("denied download consumed quota: %d", n)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newDownloadFixture(t)
		f.subscribe(t, "user-1", f.pro, -1, 30)

		if _, err := f.uc.Authorize(ctx, "user-1", "ghost"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestDownloadUseCase_History(t *testing.T) {
	ctx := context.Background()
	f := newDownloadFixture(t)
	product := f.addProduct(t, "p1", f.pro, true)
	f.subscribe(t, "user-1", f.pro, -1, 30)

	for i := 0; i < 3; i++ {
		if _, err := f.uc.Authorize(ctx, "user-1", product.ID); err != nil {
			t.Fatalf("download %d: %v", i, err)
		}
	}

	logs, err := f.uc.History(ctx, "user-1", 0, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(logs) != 3 {
		t.Errorf("history length = %d, want 3", len(logs))
	}

	page, err := f.uc.History(ctx, "user-1", 2, 10)
	if err != nil {
		t.Fatalf("history offset: %v", err)
	}
	if len(page) != 1 {
		t.Errorf("offset page length = %d, want 1", len(page))
	}
}

func TestDownloadUseCase_CountTodayByUser(t *testing.T) {
	ctx := context.Background()
	f := newDownloadFixture(t)
	product := f.addProduct(t, "p1", f.pro, true)
	f.subscribe(t, "user-1", f.pro, -1, 30)
	f.subscribe(t, "user-2", f.pro, -1, 30)

	for i := 0; i < 2; i++ {
		if _, err := f.uc.Authorize(ctx, "user-1", product.ID); err != nil {
			t.Fatalf("download %d: %v", i, err)
		}
	}
	if _, err := f.uc.Authorize(ctx, "user-2", product.ID); err != nil {
		t.Fatalf("other user download: %v", err)
	}

	n, err := f.uc.CountTodayByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("downloads today = %d, want 2", n)
	}
}
