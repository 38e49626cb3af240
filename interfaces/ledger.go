package interfaces

import (
	"context"
	"math/big"
)

// StoreLocation is a URI describing where ledger state is persisted,
// e.g. file:///var/lib/flightsurety or s3://bucket/prefix?region=us-east-1.
type StoreLocation string

// LedgerStore persists ledger state durably. Implementations must make
// SaveSnapshot atomic with respect to concurrent LoadSnapshot calls (write
// then rename, versioned object, or equivalent).
type LedgerStore interface {
	// SaveSnapshot replaces the stored snapshot with data.
	SaveSnapshot(ctx context.Context, data []byte) error

	// LoadSnapshot returns the most recent snapshot, or ErrNoSnapshot if
	// none has been written.
	LoadSnapshot(ctx context.Context) ([]byte, error)

	// AppendEvent appends one event record to the audit journal.
	AppendEvent(ctx context.Context, data []byte) error

	// Available reports whether the store is reachable.
	Available(ctx context.Context) bool

	// Name returns a unique identifier for this store.
	Name() string

	// LocationURI returns the URI that identifies this store.
	LocationURI() string
}

// Treasury moves funds between external accounts and the escrow pool. The
// ledger invokes deposits, refunds and payouts only after the corresponding
// bookkeeping state has been committed, so implementations never observe
// uncommitted ledger state.
//
// Amounts are in base units (1e18 base units = one whole unit) and are never
// negative.
type Treasury interface {
	// Deposit credits the escrow pool with a payment from an account.
	Deposit(ctx context.Context, from Identity, amount *big.Int) error

	// Refund returns an overpayment from the pool to an account. The full
	// payment is deposited first, so the pool retains exactly the amount
	// the ledger accounted for.
	Refund(ctx context.Context, to Identity, amount *big.Int) error

	// Payout transfers a settled credit from the pool to an account.
	Payout(ctx context.Context, to Identity, amount *big.Int) error

	// Balance returns the current escrow pool balance.
	Balance(ctx context.Context) (*big.Int, error)
}
