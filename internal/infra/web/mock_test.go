//go:build !integration

package web_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"subscription-storefront/internal/config"
	"subscription-storefront/internal/domain"
	"subscription-storefront/internal/domain/model"
	"subscription-storefront/internal/domain/ports/adapter"
	redisinfra "subscription-storefront/internal/infra/redis"
	"subscription-storefront/internal/infra/web"
	"subscription-storefront/internal/usecase"
)

// errNotStubbed surfaces handler paths a test forgot to stub; writeError maps
// it to a 500 so the failure is loud.
var errNotStubbed = errors.New("not stubbed")

// =============================
// Use case stubs
// =============================

type stubUserUC struct {
	RegisterFunc             func(ctx context.Context, username, email, password string) (*model.User, error)
	ActivateFunc             func(ctx context.Context, code string) (*model.User, error)
	LoginFunc                func(ctx context.Context, username, password string) (*model.User, error)
	RequestPasswordResetFunc func(ctx context.Context, email string) error
	ConfirmPasswordResetFunc func(ctx context.Context, code, newPassword string) error
	GetByIDFunc              func(ctx context.Context, id string) (*model.User, error)
	CountFunc                func(ctx context.Context) (int, error)
}

var _ usecase.UserUseCase = (*stubUserUC)(nil)

func (s *stubUserUC) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if s.RegisterFunc == nil {
		return nil, errNotStubbed
	}
	return s.RegisterFunc(ctx, username, email, password)
}

func (s *stubUserUC) Activate(ctx context.Context, code string) (*model.User, error) {
	if s.ActivateFunc == nil {
		return nil, errNotStubbed
	}
	return s.ActivateFunc(ctx, code)
}

func (s *stubUserUC) Login(ctx context.Context, username, password string) (*model.User, error) {
	if s.LoginFunc == nil {
		return nil, errNotStubbed
	}
	return s.LoginFunc(ctx, username, password)
}

func (s *stubUserUC) RequestPasswordReset(ctx context.Context, email string) error {
	if s.RequestPasswordResetFunc == nil {
		return errNotStubbed
	}
	return s.RequestPasswordResetFunc(ctx, email)
}

func (s *stubUserUC) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	if s.ConfirmPasswordResetFunc == nil {
		return errNotStubbed
	}
	return s.ConfirmPasswordResetFunc(ctx, code, newPassword)
}

func (s *stubUserUC) GetByID(ctx context.Context, id string) (*model.User, error) {
	if s.GetByIDFunc == nil {
		return nil, errNotStubbed
	}
	return s.GetByIDFunc(ctx, id)
}

func (s *stubUserUC) Count(ctx context.Context) (int, error) {
	if s.CountFunc == nil {
		return 0, errNotStubbed
	}
	return s.CountFunc(ctx)
}

type stubSubUC struct {
	GetForUserFunc    func(ctx context.Context, userID string) (*model.UserSubscription, *model.SubscriptionPlan, error)
	SwitchPlanFunc    func(ctx context.Context, userID, planID string) (*model.UserSubscription, error)
	ActivatePlanFunc  func(ctx context.Context, userID, planID, stripeSubscriptionID string, durationDays int) (*model.UserSubscription, error)
	RevertExpiredFunc func(ctx context.Context, withinDays int) (int, error)
	CountByPlanFunc   func(ctx context.Context) (map[string]int, error)
}

var _ usecase.SubscriptionUseCase = (*stubSubUC)(nil)

func (s *stubSubUC) GetForUser(ctx context.Context, userID string) (*model.UserSubscription, *model.SubscriptionPlan, error) {
	if s.GetForUserFunc == nil {
		return nil, nil, errNotStubbed
	}
	return s.GetForUserFunc(ctx, userID)
}

func (s *stubSubUC) SwitchPlan(ctx context.Context, userID, planID string) (*model.UserSubscription, error) {
	if s.SwitchPlanFunc == nil {
		return nil, errNotStubbed
	}
	return s.SwitchPlanFunc(ctx, userID, planID)
}

func (s *stubSubUC) ActivatePlan(ctx context.Context, userID, planID, stripeSubscriptionID string, durationDays int) (*model.UserSubscription, error) {
	if s.ActivatePlanFunc == nil {
		return nil, errNotStubbed
	}
	return s.ActivatePlanFunc(ctx, userID, planID, stripeSubscriptionID, durationDays)
}

func (s *stubSubUC) RevertExpired(ctx context.Context, withinDays int) (int, error) {
	if s.RevertExpiredFunc == nil {
		return 0, errNotStubbed
	}
	return s.RevertExpiredFunc(ctx, withinDays)
}

func (s *stubSubUC) CountByPlan(ctx context.Context) (map[string]int, error) {
	if s.CountByPlanFunc == nil {
		return nil, errNotStubbed
	}
	return s.CountByPlanFunc(ctx)
}

type stubPlanUC struct {
	ListFunc   func(ctx context.Context) ([]*model.SubscriptionPlan, error)
	GetFunc    func(ctx context.Context, id string) (*model.SubscriptionPlan, error)
	CreateFunc func(ctx context.Context, name string, tier model.PlanTier, priceCents int64, dailyLimit int, stripePriceID string) (*model.SubscriptionPlan, error)
	UpdateFunc func(ctx context.Context, plan *model.SubscriptionPlan) error
	DeleteFunc func(ctx context.Context, id string) error
}

var _ usecase.PlanUseCase = (*stubPlanUC)(nil)

func (s *stubPlanUC) List(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	if s.ListFunc == nil {
		return nil, errNotStubbed
	}
	return s.ListFunc(ctx)
}

func (s *stubPlanUC) Get(ctx context.Context, id string) (*model.SubscriptionPlan, error) {
	if s.GetFunc == nil {
		return nil, errNotStubbed
	}
	return s.GetFunc(ctx, id)
}

func (s *stubPlanUC) Create(ctx context.Context, name string, tier model.PlanTier, priceCents int64, dailyLimit int, stripePriceID string) (*model.SubscriptionPlan, error) {
	if s.CreateFunc == nil {
		return nil, errNotStubbed
	}
	return s.CreateFunc(ctx, name, tier, priceCents, dailyLimit, stripePriceID)
}

func (s *stubPlanUC) Update(ctx context.Context, plan *model.SubscriptionPlan) error {
	if s.UpdateFunc == nil {
		return errNotStubbed
	}
	return s.UpdateFunc(ctx, plan)
}

func (s *stubPlanUC) Delete(ctx context.Context, id string) error {
	if s.DeleteFunc == nil {
		return errNotStubbed
	}
	return s.DeleteFunc(ctx, id)
}

type stubProductUC struct {
	ListFunc   func(ctx context.Context) ([]*model.Product, error)
	GetFunc    func(ctx context.Context, id string) (*model.Product, error)
	CreateFunc func(ctx context.Context, name, planID string, file, image *usecase.Upload) (*model.Product, error)
	UpdateFunc func(ctx context.Context, id, name, planID string, file, image *usecase.Upload) (*model.Product, error)
	DeleteFunc func(ctx context.Context, id string) error
}

var _ usecase.ProductUseCase = (*stubProductUC)(nil)

func (s *stubProductUC) List(ctx context.Context) ([]*model.Product, error) {
	if s.ListFunc == nil {
		return nil, errNotStubbed
	}
	return s.ListFunc(ctx)
}

func (s *stubProductUC) Get(ctx context.Context, id string) (*model.Product, error) {
	if s.GetFunc == nil {
		return nil, errNotStubbed
	}
	return s.GetFunc(ctx, id)
}

func (s *stubProductUC) Create(ctx context.Context, name, planID string, file, image *usecase.Upload) (*model.Product, error) {
	if s.CreateFunc == nil {
		return nil, errNotStubbed
	}
	return s.CreateFunc(ctx, name, planID, file, image)
}

func (s *stubProductUC) Update(ctx context.Context, id, name, planID string, file, image *usecase.Upload) (*model.Product, error) {
	if s.UpdateFunc == nil {
		return nil, errNotStubbed
	}
	return s.UpdateFunc(ctx, id, name, planID, file, image)
}

func (s *stubProductUC) Delete(ctx context.Context, id string) error {
	if s.DeleteFunc == nil {
		return errNotStubbed
	}
	return s.DeleteFunc(ctx, id)
}

type stubPaymentUC struct {
	StartCheckoutFunc           func(ctx context.Context, userID, planID string) (*adapter.CheckoutSession, error)
	FinalizeSuccessFunc         func(ctx context.Context, userID, sessionID string) (*model.SubscriptionPlan, error)
	HandleCheckoutCompletedFunc func(ctx context.Context, eventID, sessionID string) error
}

var _ usecase.PaymentUseCase = (*stubPaymentUC)(nil)

func (s *stubPaymentUC) StartCheckout(ctx context.Context, userID, planID string) (*adapter.CheckoutSession, error) {
	if s.StartCheckoutFunc == nil {
		return nil, errNotStubbed
	}
	return s.StartCheckoutFunc(ctx, userID, planID)
}

func (s *stubPaymentUC) FinalizeSuccess(ctx context.Context, userID, sessionID string) (*model.SubscriptionPlan, error) {
	if s.FinalizeSuccessFunc == nil {
		return nil, errNotStubbed
	}
	return s.FinalizeSuccessFunc(ctx, userID, sessionID)
}

func (s *stubPaymentUC) HandleCheckoutCompleted(ctx context.Context, eventID, sessionID string) error {
	if s.HandleCheckoutCompletedFunc == nil {
		return errNotStubbed
	}
	return s.HandleCheckoutCompletedFunc(ctx, eventID, sessionID)
}

type stubDownloadUC struct {
	AuthorizeFunc        func(ctx context.Context, userID, productID string) (*model.Product, error)
	HistoryFunc          func(ctx context.Context, userID string, offset, limit int) ([]*model.DownloadLog, error)
	CountTodayFunc       func(ctx context.Context) (int, error)
	CountTodayByUserFunc func(ctx context.Context, userID string) (int, error)
}

var _ usecase.DownloadUseCase = (*stubDownloadUC)(nil)

func (s *stubDownloadUC) Authorize(ctx context.Context, userID, productID string) (*model.Product, error) {
	if s.AuthorizeFunc == nil {
		return nil, errNotStubbed
	}
	return s.AuthorizeFunc(ctx, userID, productID)
}

func (s *stubDownloadUC) History(ctx context.Context, userID string, offset, limit int) ([]*model.DownloadLog, error) {
	if s.HistoryFunc == nil {
		return nil, errNotStubbed
	}
	return s.HistoryFunc(ctx, userID, offset, limit)
}

func (s *stubDownloadUC) CountToday(ctx context.Context) (int, error) {
	if s.CountTodayFunc == nil {
		return 0, errNotStubbed
	}
	return s.CountTodayFunc(ctx)
}

func (s *stubDownloadUC) CountTodayByUser(ctx context.Context, userID string) (int, error) {
	if s.CountTodayByUserFunc == nil {
		return 0, errNotStubbed
	}
	return s.CountTodayByUserFunc(ctx, userID)
}

type stubStatsUC struct {
	SnapshotFunc func(ctx context.Context) (*usecase.Stats, error)
}

var _ usecase.StatsUseCase = (*stubStatsUC)(nil)

func (s *stubStatsUC) Snapshot(ctx context.Context) (*usecase.Stats, error) {
	if s.SnapshotFunc == nil {
		return nil, errNotStubbed
	}
	return s.SnapshotFunc(ctx)
}

// =============================
// Redis and file store fakes
// =============================

// memRedis backs the rate limiter with in-process counters.
type memRedis struct {
	mu     sync.Mutex
	counts map[string]int64
	values map[string]string
}

var _ redisinfra.RedisClient = (*memRedis)(nil)

func newMemRedis() *memRedis {
	return &memRedis{counts: make(map[string]int64), values: make(map[string]string)}
}

func (m *memRedis) Ping(ctx context.Context) error { return nil }

func (m *memRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = toString(value)
	return nil
}

func (m *memRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = toString(value)
	return true, nil
}

func (m *memRedis) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (m *memRedis) GetDel(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	delete(m.values, key)
	return v, nil
}

func (m *memRedis) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memRedis) Expire(ctx context.Context, key string, expiration time.Duration) error { return nil }

func (m *memRedis) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
		delete(m.counts, k)
	}
	return nil
}

func (m *memRedis) Close() error { return nil }

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

type fakeFiles struct {
	mu    sync.Mutex
	files map[string]string
}

var _ adapter.FileStore = (*fakeFiles)(nil)

func newFakeFiles() *fakeFiles {
	return &fakeFiles{files: make(map[string]string)}
}

func (f *fakeFiles) Put(ctx context.Context, originalName string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := "stored-" + originalName
	f.files[key] = string(b)
	return key, nil
}

func (f *fakeFiles) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.files[key]
	if !ok {
		return nil, 0, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(content)), int64(len(content)), nil
}

func (f *fakeFiles) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, key)
	return nil
}

// =============================
// Server fixture
// =============================

const testAdminKey = "admin-test-key"

type serverFixture struct {
	users     *stubUserUC
	subs      *stubSubUC
	plans     *stubPlanUC
	products  *stubProductUC
	payments  *stubPaymentUC
	downloads *stubDownloadUC
	stats     *stubStatsUC
	files     *fakeFiles
	sessions  *web.SessionManager
	server    *web.Server
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	f := &serverFixture{
		users:     &stubUserUC{},
		subs:      &stubSubUC{},
		plans:     &stubPlanUC{},
		products:  &stubProductUC{},
		payments:  &stubPaymentUC{},
		downloads: &stubDownloadUC{},
		stats:     &stubStatsUC{},
		files:     newFakeFiles(),
	}

	cfg := &config.Config{}
	cfg.Stripe.WebhookSecret = "whsec_test"
	cfg.Admin.APIKey = testAdminKey
	cfg.Auth.LoginLimit = 3
	cfg.Auth.LoginWindow = time.Minute

	f.sessions = web.NewSessionManager("test-hmac-secret", false, "", time.Hour)
	limiter := redisinfra.NewRateLimiter(newMemRedis())
	logger := zerolog.Nop()

	f.server = web.NewServer(cfg,
		f.users, f.subs, f.plans, f.products, f.payments, f.downloads, f.stats,
		f.sessions, limiter, f.files, &logger)
	return f
}

func activeUser(t *testing.T, username string) *model.User {
	t.Helper()
	user, err := model.NewUser("", username, username+"@example.com", "pw-123456")
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	user.IsActive = true
	return user
}

// bearerFor mints a session token for the user, usable as an
// Authorization header value.
func (f *serverFixture) bearerFor(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := f.sessions.Mint(httptest.NewRecorder(), user)
	if err != nil {
		t.Fatalf("mint session: %v", err)
	}
	return "Bearer " + token
}
