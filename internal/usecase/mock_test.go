//go:build !integration

package usecase_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"lovepage-backend/internal/domain"
	"lovepage-backend/internal/domain/model"
	"lovepage-backend/internal/domain/ports/adapter"
	"lovepage-backend/internal/domain/ports/repository"
)

// =============================
// Repositories
// =============================

// ---- In-memory GiftPageRepository ----

type MockGiftPageRepo struct {
	mu    sync.RWMutex
	store map[string]*model.GiftPage

	SaveFunc      func(ctx context.Context, tx repository.Tx, page *model.GiftPage) error
	SetActiveFunc func(ctx context.Context, tx repository.Tx, id string, active bool) error
}

func NewMockGiftPageRepo() *MockGiftPageRepo {
	return &MockGiftPageRepo{store: make(map[string]*model.GiftPage)}
}

var _ repository.GiftPageRepository = (*MockGiftPageRepo)(nil)

func (m *MockGiftPageRepo) Save(ctx context.Context, tx repository.Tx, page *model.GiftPage) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, page)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *page
	m.store[page.ID] = &cp
	return nil
}

func (m *MockGiftPageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GiftPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockGiftPageRepo) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, tx, id, active)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.IsActive = active
	return nil
}

func (m *MockGiftPageRepo) DeactivateAll(ctx context.Context, tx repository.Tx, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if p, ok := m.store[id]; ok {
			p.IsActive = false
		}
	}
	return nil
}

// ---- In-memory EntitlementRepository ----

// MockEntitlementRepo keys its store by GiftPageID, mirroring the
// unique conflict target the Postgres upsert relies on.
type MockEntitlementRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Entitlement // by GiftPageID

	UpsertFunc    func(ctx context.Context, tx repository.Tx, e *model.Entitlement) error
	ExpireAllFunc func(ctx context.Context, tx repository.Tx, ids []string) error
}

func NewMockEntitlementRepo() *MockEntitlementRepo {
	return &MockEntitlementRepo{store: make(map[string]*model.Entitlement)}
}

var _ repository.EntitlementRepository = (*MockEntitlementRepo)(nil)

func (m *MockEntitlementRepo) Upsert(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	if prev, ok := m.store[e.GiftPageID]; ok {
		cp.ID = prev.ID // the row survives; only its fields change
		cp.CreatedAt = prev.CreatedAt
	}
	m.store[e.GiftPageID] = &cp
	return nil
}

func (m *MockEntitlementRepo) FindByGiftPageID(ctx context.Context, tx repository.Tx, giftPageID string) (*model.Entitlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.store[giftPageID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MockEntitlementRepo) FindExpired(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Entitlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Entitlement
	for _, e := range m.store {
		if e.Status == model.EntitlementStatusActive && e.ExpiresAt.Before(now) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockEntitlementRepo) ExpireAll(ctx context.Context, tx repository.Tx, ids []string) error {
	if m.ExpireAllFunc != nil {
		return m.ExpireAllFunc(ctx, tx, ids)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		for _, e := range m.store {
			if e.ID == id && e.Status == model.EntitlementStatusActive {
				e.Status = model.EntitlementStatusExpired
			}
		}
	}
	return nil
}

// Count reports how many entitlement rows exist.
func (m *MockEntitlementRepo) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

// ---- In-memory ActivationCodeRepository ----

type MockActivationCodeRepo struct {
	mu     sync.Mutex
	codes  map[string]*model.ActivationCode       // by ID
	usages map[string]*model.ActivationCodeUsage  // by GiftPageID (unique)

	InsertUsageFunc   func(ctx context.Context, tx repository.Tx, usage *model.ActivationCodeUsage) error
	DecrementUsesFunc func(ctx context.Context, tx repository.Tx, codeID string) error
}

func NewMockActivationCodeRepo() *MockActivationCodeRepo {
	return &MockActivationCodeRepo{
		codes:  make(map[string]*model.ActivationCode),
		usages: make(map[string]*model.ActivationCodeUsage),
	}
}

var _ repository.ActivationCodeRepository = (*MockActivationCodeRepo)(nil)

func (m *MockActivationCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *code
	m.codes[code.ID] = &cp
	return nil
}

func (m *MockActivationCodeRepo) FindActiveByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
		if c.IsActive && strings.EqualFold(c.Code, code) {
			cp := *c
			if c.UsesRemaining != nil {
				n := *c.UsesRemaining
				cp.UsesRemaining = &n
			}
			return &cp, nil
		}
	}
	return nil, domain.ErrCodeNotFound
}

func (m *MockActivationCodeRepo) DecrementUses(ctx context.Context, tx repository.Tx, codeID string) error {
	if m.DecrementUsesFunc != nil {
		return m.DecrementUsesFunc(ctx, tx, codeID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[codeID]
	if !ok || c.UsesRemaining == nil || *c.UsesRemaining <= 0 {
		return domain.ErrCodeExhausted
	}
	*c.UsesRemaining--
	return nil
}

func (m *MockActivationCodeRepo) InsertUsage(ctx context.Context, tx repository.Tx, usage *model.ActivationCodeUsage) error {
	if m.InsertUsageFunc != nil {
		return m.InsertUsageFunc(ctx, tx, usage)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.usages[usage.GiftPageID]; exists {
		return domain.ErrCodeAlreadyUsed
	}
	cp := *usage
	m.usages[usage.GiftPageID] = &cp
	return nil
}

func (m *MockActivationCodeRepo) FindUsageByGiftPageID(ctx context.Context, tx repository.Tx, giftPageID string) (*model.ActivationCodeUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.usages[giftPageID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// UsesLeft reports the remaining uses of a code (-1 for unlimited).
func (m *MockActivationCodeRepo) UsesLeft(codeID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[codeID]
	if !ok || c.UsesRemaining == nil {
		return -1
	}
	return *c.UsesRemaining
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentProcessor ----

type MockPaymentProcessor struct {
	mu sync.Mutex

	CreateCheckoutSessionFunc   func(ctx context.Context, params adapter.CheckoutSessionParams) (*adapter.CheckoutSession, error)
	GetCheckoutSessionFunc      func(ctx context.Context, sessionID string) (*adapter.CheckoutSession, error)
	CreatePaymentIntentFunc     func(ctx context.Context, params adapter.PaymentIntentParams) (*adapter.PaymentIntent, error)
	FindCustomerByEmailFunc     func(ctx context.Context, email string) (string, error)
	FindActivePromotionCodeFunc func(ctx context.Context, code string) (*adapter.PromotionCode, error)

	// tracing of invocations
	CheckoutParams []adapter.CheckoutSessionParams
	IntentParams   []adapter.PaymentIntentParams
}

var _ adapter.PaymentProcessor = (*MockPaymentProcessor)(nil)

func (m *MockPaymentProcessor) Name() string { return "mock" }

func (m *MockPaymentProcessor) CreateCheckoutSession(ctx context.Context, params adapter.CheckoutSessionParams) (*adapter.CheckoutSession, error) {
	m.mu.Lock()
	m.CheckoutParams = append(m.CheckoutParams, params)
	m.mu.Unlock()
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}
	return &adapter.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1", Metadata: params.Metadata}, nil
}

func (m *MockPaymentProcessor) GetCheckoutSession(ctx context.Context, sessionID string) (*adapter.CheckoutSession, error) {
	if m.GetCheckoutSessionFunc != nil {
		return m.GetCheckoutSessionFunc(ctx, sessionID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentProcessor) CreatePaymentIntent(ctx context.Context, params adapter.PaymentIntentParams) (*adapter.PaymentIntent, error) {
	m.mu.Lock()
	m.IntentParams = append(m.IntentParams, params)
	m.mu.Unlock()
	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, params)
	}
	return &adapter.PaymentIntent{ID: "pi_test_1", ClientSecret: "pi_test_1_secret", Amount: params.Amount}, nil
}

func (m *MockPaymentProcessor) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	if m.FindCustomerByEmailFunc != nil {
		return m.FindCustomerByEmailFunc(ctx, email)
	}
	return "", nil
}

func (m *MockPaymentProcessor) FindActivePromotionCode(ctx context.Context, code string) (*adapter.PromotionCode, error) {
	if m.FindActivePromotionCodeFunc != nil {
		return m.FindActivePromotionCodeFunc(ctx, code)
	}
	return nil, nil
}

// ---- Mock WebhookVerifier ----

type MockWebhookVerifier struct {
	ConstructEventFunc func(payload []byte, sigHeader string) (*adapter.WebhookEvent, error)
}

var _ adapter.WebhookVerifier = (*MockWebhookVerifier)(nil)

func (m *MockWebhookVerifier) ConstructEvent(payload []byte, sigHeader string) (*adapter.WebhookEvent, error) {
	if m.ConstructEventFunc != nil {
		return m.ConstructEventFunc(payload, sigHeader)
	}
	return nil, domain.ErrInvalidSignature
}

// =============================
// Transaction manager
// =============================

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the function immediately with NoTX by default. Tests that
// need to observe or fail the transaction assign WithTxFunc.
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

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }
