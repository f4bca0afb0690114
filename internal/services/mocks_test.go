package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tickethub/internal/cache"
	"tickethub/internal/services/gateway"
	"tickethub/internal/store"
	"tickethub/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindEvent(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	if e, ok := args.Get(0).(*models.Event); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) FindTier(ctx context.Context, id string) (*models.PricingTier, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*models.PricingTier); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) FindUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) UserExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) TicketCountForBuyer(ctx context.Context, tierID, buyerID string) (int, error) {
	args := m.Called(ctx, tierID, buyerID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	args := m.Called(ctx, reference)
	if t, ok := args.Get(0).(*models.Transaction); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) CreatePendingTransaction(ctx context.Context, t *models.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockStore) AttachGatewayReference(ctx context.Context, id, gatewayRef string) error {
	args := m.Called(ctx, id, gatewayRef)
	return args.Error(0)
}

func (m *MockStore) MarkTransactionFailed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) SettleTransaction(ctx context.Context, p store.SettleParams) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) InitializeCheckout(ctx context.Context, f *gateway.CheckoutRequest) (*gateway.Checkout, error) {
	args := m.Called(ctx, f)
	if c, ok := args.Get(0).(*gateway.Checkout); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) PutSession(ctx context.Context, s *cache.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockCache) MarkSettled(ctx context.Context, reference, finalStatus string) error {
	args := m.Called(ctx, reference, finalStatus)
	return args.Error(0)
}

func (m *MockCache) AlreadySettled(ctx context.Context, reference string) bool {
	args := m.Called(ctx, reference)
	return args.Bool(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SettlementSucceeded(ctx context.Context, t *models.Transaction) {
	m.Called(ctx, t)
}
