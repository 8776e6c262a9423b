//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"subscription-storefront/internal/domain"
	"subscription-storefront/internal/domain/model"
	"subscription-storefront/internal/domain/ports/adapter"
	"subscription-storefront/internal/domain/ports/repository"
)

// =============================
// Repositories
// =============================

type MockUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User

	SaveFunc           func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByUsernameFunc func(ctx context.Context, tx repository.Tx, username string) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{store: make(map[string]*model.User)}
}

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if existing.ID != u.ID && (existing.Username == u.Username || existing.Email == u.Email) {
			return domain.ErrAlreadyExists
		}
	}
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	if m.FindByUsernameFunc != nil {
		return m.FindByUsernameFunc(ctx, tx, username)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

type MockPlanRepo struct {
	mu    sync.RWMutex
	store map[string]*model.SubscriptionPlan
}

var _ repository.SubscriptionPlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{store: make(map[string]*model.SubscriptionPlan)}
}

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPlanRepo) FindByStripePriceID(ctx context.Context, tx repository.Tx, priceID string) (*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.StripePriceID == priceID && priceID != "" {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.SubscriptionPlan, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type MockSubRepo struct {
	mu    sync.RWMutex
	store map[string]*model.UserSubscription // keyed by user id

	UpsertFunc func(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error
}

var _ repository.SubscriptionRepository = (*MockSubRepo)(nil)

func NewMockSubRepo() *MockSubRepo {
	return &MockSubRepo{store: make(map[string]*model.UserSubscription)}
}

func (m *MockSubRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.UserID] = &cp
	return nil
}

func (m *MockSubRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubRepo) CountByPlan(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int)
	for _, s := range m.store {
		out[s.PlanID]++
	}
	return out, nil
}

func (m *MockSubRepo) ListEndedSince(ctx context.Context, tx repository.Tx, withinDays int) ([]*model.UserSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	today := model.DateOf(time.Now())
	cutoff := today.AddDate(0, 0, -withinDays)
	var out []*model.UserSubscription
	for _, s := range m.store {
		if s.EndDate.Before(today) && !s.EndDate.Before(cutoff) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

type MockProductRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Product
}

var _ repository.ProductRepository = (*MockProductRepo)(nil)

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{store: make(map[string]*model.Product)}
}

func (m *MockProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockProductRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MockProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockProductRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Product, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type MockDownloadLogRepo struct {
	mu   sync.RWMutex
	logs []*model.DownloadLog

	AppendFunc func(ctx context.Context, tx repository.Tx, l *model.DownloadLog) error
}

var _ repository.DownloadLogRepository = (*MockDownloadLogRepo)(nil)

func NewMockDownloadLogRepo() *MockDownloadLogRepo {
	return &MockDownloadLogRepo{}
}

func (m *MockDownloadLogRepo) Append(ctx context.Context, tx repository.Tx, l *model.DownloadLog) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, l)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.logs = append(m.logs, &cp)
	return nil
}

func (m *MockDownloadLogRepo) CountByUserAndDay(ctx context.Context, tx repository.Tx, userID string, day time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, l := range m.logs {
		if l.UserID == userID && l.Day.Equal(day) {
			n++
		}
	}
	return n, nil
}

func (m *MockDownloadLogRepo) CountByDay(ctx context.Context, tx repository.Tx, day time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, l := range m.logs {
		if l.Day.Equal(day) {
			n++
		}
	}
	return n, nil
}

func (m *MockDownloadLogRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.DownloadLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.DownloadLog
	for _, l := range m.logs {
		if l.UserID == userID {
			cp := *l
			out = append(out, &cp)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =============================
// Token store / event log
// =============================

type MockTokenStore struct {
	mu    sync.Mutex
	store map[string]string

	PutFunc func(ctx context.Context, kind repository.TokenKind, code, userID string, ttl time.Duration) error
}

var _ repository.TokenStore = (*MockTokenStore)(nil)

func NewMockTokenStore() *MockTokenStore {
	return &MockTokenStore{store: make(map[string]string)}
}

func (m *MockTokenStore) key(kind repository.TokenKind, code string) string {
	return string(kind) + ":" + code
}

func (m *MockTokenStore) Put(ctx context.Context, kind repository.TokenKind, code, userID string, ttl time.Duration) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, kind, code, userID, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[m.key(kind, code)] = userID
	return nil
}

func (m *MockTokenStore) Redeem(ctx context.Context, kind repository.TokenKind, code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.store[m.key(kind, code)]
	if !ok {
		return "", domain.ErrTokenNotFound
	}
	delete(m.store, m.key(kind, code))
	return userID, nil
}

// LastCode returns the single stored code of the given kind, for tests that
// need the code the use case generated.
func (m *MockTokenStore) LastCode(kind repository.TokenKind) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := string(kind) + ":"
	for k := range m.store {
		if strings.HasPrefix(k, prefix) {
			return strings.TrimPrefix(k, prefix)
		}
	}
	return ""
}

type MockEventLog struct {
	mu   sync.Mutex
	seen map[string]bool
}

var _ repository.EventLog = (*MockEventLog)(nil)

func NewMockEventLog() *MockEventLog {
	return &MockEventLog{seen: make(map[string]bool)}
}

func (m *MockEventLog) MarkHandled(ctx context.Context, eventID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[eventID] {
		return domain.ErrEventAlreadyHandled
	}
	m.seen[eventID] = true
	return nil
}

func (m *MockEventLog) Unmark(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, eventID)
	return nil
}

// =============================
// Adapters
// =============================

type MockMailer struct {
	mu   sync.Mutex
	Sent []adapter.Mail

	SendFunc func(ctx context.Context, mail adapter.Mail) error
}

var _ adapter.Mailer = (*MockMailer)(nil)

func (m *MockMailer) Send(ctx context.Context, mail adapter.Mail) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, mail)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, mail)
	return nil
}

type MockGateway struct {
	mu       sync.Mutex
	Created  []adapter.CheckoutSession
	Sessions map[string]*adapter.CheckoutSession

	CreateSessionFunc func(ctx context.Context, customerEmail, priceID, successURL, cancelURL string) (*adapter.CheckoutSession, error)
}

var _ adapter.CheckoutGateway = (*MockGateway)(nil)

func NewMockGateway() *MockGateway {
	return &MockGateway{Sessions: make(map[string]*adapter.CheckoutSession)}
}

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) CreateSession(ctx context.Context, customerEmail, priceID, successURL, cancelURL string) (*adapter.CheckoutSession, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, customerEmail, priceID, successURL, cancelURL)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := &adapter.CheckoutSession{
		ID:            "cs_test_" + priceID,
		URL:           "https://checkout.example.com/" + priceID,
		CustomerEmail: customerEmail,
		PriceID:       priceID,
	}
	m.Created = append(m.Created, *sess)
	m.Sessions[sess.ID] = sess
	return sess, nil
}

func (m *MockGateway) ResolveSession(ctx context.Context, sessionID string) (*adapter.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.Sessions[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

type MockFileStore struct {
	mu    sync.Mutex
	files map[string]string // key -> content
}

var _ adapter.FileStore = (*MockFileStore)(nil)

func NewMockFileStore() *MockFileStore {
	return &MockFileStore{files: make(map[string]string)}
}

func (m *MockFileStore) Put(ctx context.Context, originalName string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := "stored-" + originalName
	m.files[key] = string(b)
	return key, nil
}

func (m *MockFileStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[key]
	if !ok {
		return nil, 0, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(content)), int64(len(content)), nil
}

func (m *MockFileStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key)
	return nil
}

// =============================
// Transaction manager
// =============================

// MockTxManager runs the closure with a nil transaction; the mock repos
// ignore the tx argument anyway.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
