package treasury

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// EscrowTreasury is an in-process escrow pool. Outbound transfers are
// tracked per account so operators can reconcile payouts against the event
// journal.
type EscrowTreasury struct {
	mu       sync.Mutex
	pool     *big.Int
	outbound map[interfaces.Identity]*big.Int
	log      *slog.Logger
}

// NewEscrowTreasury creates an empty escrow pool.
func NewEscrowTreasury(log *slog.Logger) *EscrowTreasury {
	return &EscrowTreasury{
		pool:     new(big.Int),
		outbound: make(map[interfaces.Identity]*big.Int),
		log:      log,
	}
}

// Deposit credits the pool with a payment from an account.
func (t *EscrowTreasury) Deposit(ctx context.Context, from interfaces.Identity, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid deposit amount")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.pool.Add(t.pool, amount)

	t.log.Debug("Escrow deposit",
		slog.String("from", from.String()),
		slog.String("amount", amount.String()),
		slog.String("pool", t.pool.String()))
	return nil
}

// Refund returns an overpayment to an account.
func (t *EscrowTreasury) Refund(ctx context.Context, to interfaces.Identity, amount *big.Int) error {
	return t.transferOut(to, amount, "refund")
}

// Payout transfers a settled credit from the pool to an account.
func (t *EscrowTreasury) Payout(ctx context.Context, to interfaces.Identity, amount *big.Int) error {
	return t.transferOut(to, amount, "payout")
}

// Balance returns the current pool balance.
func (t *EscrowTreasury) Balance(ctx context.Context) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.pool), nil
}

// TransferredTo returns the total amount ever sent to an account.
func (t *EscrowTreasury) TransferredTo(account interfaces.Identity) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total, ok := t.outbound[account]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(total)
}

func (t *EscrowTreasury) transferOut(to interfaces.Identity, amount *big.Int, kind string) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid %s amount", kind)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pool.Cmp(amount) < 0 {
		return fmt.Errorf("escrow pool has %s, cannot %s %s", t.pool, kind, amount)
	}
	t.pool.Sub(t.pool, amount)

	total, ok := t.outbound[to]
	if !ok {
		total = new(big.Int)
		t.outbound[to] = total
	}
	total.Add(total, amount)

	t.log.Debug("Escrow transfer out",
		slog.String("kind", kind),
		slog.String("to", to.String()),
		slog.String("amount", amount.String()),
		slog.String("pool", t.pool.String()))
	return nil
}
