package treasury

import (
	"context"
	"math/big"

	"github.com/stretchr/testify/mock"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// MockTreasury mocks the interfaces.Treasury interface.
type MockTreasury struct {
	mock.Mock
}

// Deposit mocks the Deposit method.
func (m *MockTreasury) Deposit(ctx context.Context, from interfaces.Identity, amount *big.Int) error {
	args := m.Called(ctx, from, amount)
	return args.Error(0)
}

// Refund mocks the Refund method.
func (m *MockTreasury) Refund(ctx context.Context, to interfaces.Identity, amount *big.Int) error {
	args := m.Called(ctx, to, amount)
	return args.Error(0)
}

// Payout mocks the Payout method.
func (m *MockTreasury) Payout(ctx context.Context, to interfaces.Identity, amount *big.Int) error {
	args := m.Called(ctx, to, amount)
	return args.Error(0)
}

// Balance mocks the Balance method.
func (m *MockTreasury) Balance(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	return args.Get(0).(*big.Int), args.Error(1)
}
