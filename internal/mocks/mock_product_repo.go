package mocks

import (
	"context"

	"github.com/osanchezal/inventory-checkout-system/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockProductRepo struct {
	mock.Mock
	domain.ProductRepository
}

func (m *MockProductRepo) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepo) GetAllByOwner(ctx context.Context, ownerID int) ([]domain.Product, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepo) GetById(ctx context.Context, ownerID, productID int) (*domain.Product, error) {
	args := m.Called(ctx, ownerID, productID)
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepo) GetByIds(
	ctx context.Context,
	ownerID int,
	productIDs []int) (map[int]domain.Product, error) {

	args := m.Called(ctx, ownerID, productIDs)
	return args.Get(0).(map[int]domain.Product), args.Error(1)
}

func (m *MockProductRepo) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepo) Delete(ctx context.Context, ownerID, productID int) error {
	args := m.Called(ctx, ownerID, productID)
	return args.Error(0)
}

func (m *MockProductRepo) ConditionalDecrement(ctx context.Context, ownerID, productID, amount int) error {
	args := m.Called(ctx, ownerID, productID, amount)
	return args.Error(0)
}

func (m *MockProductRepo) UpdatePrice(
	ctx context.Context,
	ownerID, productID int,
	newPrice decimal.Decimal) error {

	args := m.Called(ctx, ownerID, productID, newPrice)
	return args.Error(0)
}

func (m *MockProductRepo) GetPriceHistory(
	ctx context.Context,
	ownerID, productID int) ([]domain.PriceHistoryEntry, error) {

	args := m.Called(ctx, ownerID, productID)
	return args.Get(0).([]domain.PriceHistoryEntry), args.Error(1)
}
