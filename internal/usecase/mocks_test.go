package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/provider"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"github.com/wekeepgrowing/wallet-ledger/pkg/messaging"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetWallet(ctx context.Context, userID uuid.UUID) (*model.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wallet), args.Error(1)
}

func (m *MockAccountRepository) FindWalletByMobile(ctx context.Context, mobile string) (*model.Wallet, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wallet), args.Error(1)
}

func (m *MockAccountRepository) FindWalletByUPI(ctx context.Context, upiID string) (*model.Wallet, error) {
	args := m.Called(ctx, upiID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wallet), args.Error(1)
}

func (m *MockAccountRepository) GetWallets(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*model.Wallet, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*model.Wallet), args.Error(1)
}

func (m *MockAccountRepository) GetMerchant(ctx context.Context, merchantID uuid.UUID) (*model.MerchantAccount, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MerchantAccount), args.Error(1)
}

func (m *MockAccountRepository) GetMerchantByUserID(ctx context.Context, userID uuid.UUID) (*model.MerchantAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MerchantAccount), args.Error(1)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Transfer(ctx context.Context, params domainRepo.TransferParams) (*model.Transaction, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) CapturePayment(ctx context.Context, params domainRepo.CaptureParams) (*model.Payment, *model.Transaction, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Payment), args.Get(1).(*model.Transaction), args.Error(2)
}

func (m *MockLedgerRepository) FindByIdempotencyKey(ctx context.Context, senderID uuid.UUID, key string) (*model.Transaction, error) {
	args := m.Called(ctx, senderID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.Transaction, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]*model.Transaction), args.Get(1).(int64), args.Error(2)
}

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetPaymentByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

// MockSettlementRepository is a mock implementation of SettlementRepository
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) Snapshot(ctx context.Context) ([]domainRepo.PendingBalance, time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domainRepo.PendingBalance), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockSettlementRepository) Settle(ctx context.Context, params domainRepo.SettleParams) (*model.Settlement, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*model.Settlement, int64, error) {
	args := m.Called(ctx, merchantID, limit, offset)
	return args.Get(0).([]*model.Settlement), args.Get(1).(int64), args.Error(2)
}

// MockDispatcher records dispatched events
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, merchantID uuid.UUID, eventType string, payload interface{}) (string, error) {
	args := m.Called(ctx, merchantID, eventType, payload)
	return args.String(0), args.Error(1)
}

// MockPublisher is a mock implementation of messaging.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event messaging.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return nil
}

// MockNotifier is a mock implementation of provider.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n provider.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotifier) Name() string {
	return "mock"
}

// MockLocker is a mock implementation of Locker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	args := m.Called(ctx, key, ttl)
	release := func(context.Context) error { return nil }
	return release, args.Bool(0), args.Error(1)
}

// fakeWebhookRepository is an in-memory WebhookRepository
type fakeWebhookRepository struct {
	mu         sync.Mutex
	endpoints  []*model.WebhookEndpoint
	events     map[string]*model.WebhookEvent
	deliveries map[string]*model.WebhookDelivery

	// completeFailures makes the next CompleteEvent calls fail
	completeFailures int
	// rejectBodies makes every write carrying a response body fail
	rejectBodies bool
}

// checkText rejects what a Postgres text column rejects
func checkText(s *string) error {
	if s != nil && (!utf8.ValidString(*s) || strings.ContainsRune(*s, 0)) {
		return errors.New("invalid byte sequence for encoding \"UTF8\"")
	}
	return nil
}

func newFakeWebhookRepository() *fakeWebhookRepository {
	return &fakeWebhookRepository{
		events:     map[string]*model.WebhookEvent{},
		deliveries: map[string]*model.WebhookDelivery{},
	}
}

func (f *fakeWebhookRepository) CreateEndpoint(ctx context.Context, endpoint *model.WebhookEndpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if endpoint.ID == uuid.Nil {
		endpoint.ID = uuid.New()
	}
	endpoint.CreatedAt = time.Now().UTC()
	f.endpoints = append(f.endpoints, endpoint)
	return nil
}

func (f *fakeWebhookRepository) ListEndpoints(ctx context.Context, merchantID uuid.UUID) ([]*model.WebhookEndpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.WebhookEndpoint
	for _, e := range f.endpoints {
		if e.MerchantID == merchantID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeWebhookRepository) ListActiveEndpoints(ctx context.Context, merchantID uuid.UUID, eventType string) ([]*model.WebhookEndpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.WebhookEndpoint
	for _, e := range f.endpoints {
		if e.MerchantID == merchantID && e.IsActive && e.Subscribes(eventType) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeWebhookRepository) DeleteEndpoint(ctx context.Context, merchantID, endpointID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.endpoints {
		if e.ID == endpointID && e.MerchantID == merchantID {
			f.endpoints = append(f.endpoints[:i], f.endpoints[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWebhookRepository) CreateEvent(ctx context.Context, event *model.WebhookEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	f.events[event.EventID] = event
	return nil
}

func (f *fakeWebhookRepository) GetEvent(ctx context.Context, eventID string) (*model.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[eventID]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (f *fakeWebhookRepository) ListEvents(ctx context.Context, merchantID uuid.UUID, limit int) ([]*model.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.WebhookEvent
	for _, e := range f.events {
		if e.MerchantID == merchantID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeWebhookRepository) ClaimEvent(ctx context.Context, eventID string, staleBefore time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[eventID]
	if !ok {
		return false, nil
	}
	if e.Status == model.WebhookStatusPending ||
		(e.Status == model.WebhookStatusProcessing && e.UpdatedAt.Before(staleBefore)) {
		e.Status = model.WebhookStatusProcessing
		e.UpdatedAt = time.Now().UTC()
		return true, nil
	}
	return false, nil
}

func (f *fakeWebhookRepository) RefreshClaim(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.events[eventID]; ok && e.Status == model.WebhookStatusProcessing {
		e.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (f *fakeWebhookRepository) CompleteEvent(ctx context.Context, eventID string, outcome domainRepo.EventOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeFailures > 0 {
		f.completeFailures--
		return errors.New("connection reset")
	}
	if f.rejectBodies && outcome.ResponseBody != nil {
		return errors.New("value too long")
	}
	if err := checkText(outcome.ResponseBody); err != nil {
		return err
	}
	e := f.events[eventID]
	e.Status = outcome.Status
	e.ResponseCode = outcome.ResponseCode
	e.ResponseBody = outcome.ResponseBody
	e.Attempts = outcome.Attempts
	e.LastError = outcome.LastError
	e.DeliveredAt = outcome.DeliveredAt
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeWebhookRepository) SaveDelivery(ctx context.Context, delivery *model.WebhookDelivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := checkText(delivery.ResponseBody); err != nil {
		return err
	}
	f.deliveries[delivery.EventID+"/"+delivery.EndpointID.String()] = delivery
	return nil
}

func (f *fakeWebhookRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, e := range f.events {
		if (e.Status == model.WebhookStatusPending && e.CreatedAt.Before(cutoff)) ||
			(e.Status == model.WebhookStatusProcessing && e.UpdatedAt.Before(cutoff)) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeWebhookRepository) event(id string) model.WebhookEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.events[id]
}

func (f *fakeWebhookRepository) delivery(eventID string, endpointID uuid.UUID) *model.WebhookDelivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.deliveries[eventID+"/"+endpointID.String()]
	if !ok {
		return nil
	}
	copied := *d
	return &copied
}
