package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opensurety/flightsurety-backend/interfaces"
	"github.com/opensurety/flightsurety-backend/storage"
	"github.com/opensurety/flightsurety-backend/treasury"
)

var (
	admin     = ident(0x01)
	airline1  = ident(0x11)
	airline2  = ident(0x12)
	airline3  = ident(0x13)
	airline4  = ident(0x14)
	airline5  = ident(0x15)
	appCaller = ident(0x20)
	passenger = ident(0x30)
)

func ident(b byte) interfaces.Identity {
	var id interfaces.Identity
	id[19] = b
	return id
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Ether))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLedger(t *testing.T) (*Ledger, *treasury.EscrowTreasury) {
	t.Helper()
	logger := testLogger()

	store, err := storage.NewFileStore(t.TempDir(), logger)
	require.NoError(t, err)

	escrow := treasury.NewEscrowTreasury(logger)
	l, err := New(Config{Admin: admin, FirstAirline: airline1}, store, escrow, logger)
	require.NoError(t, err)
	return l, escrow
}

// newSettledLedger funds the first airline and authorizes the app caller, the
// baseline most scenarios start from.
func newSettledLedger(t *testing.T) (*Ledger, *treasury.EscrowTreasury) {
	t.Helper()
	ctx := context.Background()

	l, escrow := newTestLedger(t)
	_, err := l.Fund(ctx, airline1, ether(10))
	require.NoError(t, err)
	require.NoError(t, l.AuthorizeCaller(ctx, admin, appCaller))
	return l, escrow
}

func TestGenesisState(t *testing.T) {
	l, _ := newTestLedger(t)

	assert.True(t, l.IsOperational())
	assert.True(t, l.IsRegisteredAirline(airline1))
	assert.False(t, l.IsFundedAirline(airline1))
	assert.Equal(t, uint64(1), l.RegisteredAirlineCount())
	assert.Equal(t, admin, l.Admin())
	assert.False(t, l.IsAuthorizedCaller(appCaller))
}

func TestSetOperatingStatus(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	err := l.SetOperatingStatus(ctx, airline1, false)
	assert.ErrorIs(t, err, interfaces.ErrNotAuthorized)
	assert.True(t, l.IsOperational())

	require.NoError(t, l.SetOperatingStatus(ctx, admin, false))
	assert.False(t, l.IsOperational())

	// The gate switch itself must keep working while the gate is closed,
	// otherwise a paused system could never resume.
	require.NoError(t, l.SetOperatingStatus(ctx, admin, true))
	assert.True(t, l.IsOperational())
}

func TestGateClosedRejectsMutations(t *testing.T) {
	ctx := context.Background()
	l, _ := newSettledLedger(t)
	require.NoError(t, l.SetOperatingStatus(ctx, admin, false))

	flight := interfaces.Flight{Airline: airline1, Number: "AA123", Departure: 1700000000}

	assert.ErrorIs(t, l.AuthorizeCaller(ctx, admin, ident(0x99)), interfaces.ErrGateClosed)
	assert.ErrorIs(t, l.DeauthorizeCaller(ctx, admin, appCaller), interfaces.ErrGateClosed)

	_, _, err := l.RegisterAirline(ctx, appCaller, airline1, airline2)
	assert.ErrorIs(t, err, interfaces.ErrGateClosed)

	_, err = l.Fund(ctx, airline1, ether(10))
	assert.ErrorIs(t, err, interfaces.ErrGateClosed)

	assert.ErrorIs(t, l.Buy(ctx, passenger, flight, big.NewInt(100)), interfaces.ErrGateClosed)

	_, err = l.CreditInsurees(ctx, appCaller, flight, 3, 2)
	assert.ErrorIs(t, err, interfaces.ErrGateClosed)

	_, err = l.Pay(ctx, passenger)
	assert.ErrorIs(t, err, interfaces.ErrGateClosed)

	// Reads stay available while paused.
	assert.True(t, l.IsRegisteredAirline(airline1))
	assert.Equal(t, uint64(1), l.RegisteredAirlineCount())
}

func TestCallerWhitelist(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	err := l.AuthorizeCaller(ctx, airline1, appCaller)
	assert.ErrorIs(t, err, interfaces.ErrNotAuthorized)

	require.NoError(t, l.AuthorizeCaller(ctx, admin, appCaller))
	assert.True(t, l.IsAuthorizedCaller(appCaller))

	// Idempotent re-grant and revoke.
	require.NoError(t, l.AuthorizeCaller(ctx, admin, appCaller))
	require.NoError(t, l.DeauthorizeCaller(ctx, admin, appCaller))
	assert.False(t, l.IsAuthorizedCaller(appCaller))
	require.NoError(t, l.DeauthorizeCaller(ctx, admin, appCaller))

	err = l.DeauthorizeCaller(ctx, airline1, appCaller)
	assert.ErrorIs(t, err, interfaces.ErrNotAuthorized)
}

func TestRegisterAirline_DirectRegime(t *testing.T) {
	ctx := context.Background()
	l, _ := newSettledLedger(t)

	for i, candidate := range []interfaces.Identity{airline2, airline3, airline4} {
		registered, votes, err := l.RegisterAirline(ctx, appCaller, airline1, candidate)
		require.NoError(t, err)
		assert.True(t, registered)
		assert.Equal(t, uint64(1), votes)
		assert.Equal(t, uint64(i+2), l.RegisteredAirlineCount())
		assert.True(t, l.IsRegisteredAirline(candidate))
		assert.False(t, l.IsFundedAirline(candidate), "admitted airlines start unfunded")
	}
}

func TestRegisterAirline_Gating(t *testing.T) {
	ctx := context.Background()
	l, _ := newSettledLedger(t)

	_, _, err := l.RegisterAirline(ctx, ident(0x99), airline1, airline2)
	assert.ErrorIs(t, err, interfaces.ErrNotAuthorized)

	_, _, err = l.RegisterAirline(ctx, appCaller, ident(0x99), airline2)
	assert.ErrorIs(t, err, interfaces.ErrNotRegistered)

	// Registered but unfunded origin cannot sponsor.
	_, _, err = l.RegisterAirline(ctx, appCaller, airline1, airline2)
	require.NoError(t, err)
	_, _, err = l.RegisterAirline(ctx, appCaller, airline2, airline3)
	assert.ErrorIs(t, err, interfaces.ErrNotFunded)

	_, _, err = l.RegisterAirline(ctx, appCaller, airline1, airline2)
	assert.ErrorIs(t, err, interfaces.ErrAlreadyRegistered)
	_, _, err = l.RegisterAirline(ctx, appCaller, airline1, airline1)
	assert.ErrorIs(t, err, interfaces.ErrAlreadyRegistered)
}

func TestRegisterAirline_VotingRegime(t *testing.T) {
	ctx := context.Background()
	l, _ := newSettledLedger(t)

	for _, candidate := range []interfaces.Identity{airline2, airline3, airline4} {
		_, _, err := l.RegisterAirline(ctx, appCaller, airline1, candidate)
		require.NoError(t, err)
	}
	_, err := l.Fund(ctx, airline2, ether(10))
	require.NoError(t, err)

	// Four airlines registered: the fifth needs 2*votes >= 4.
	registered, votes, err := l.RegisterAirline(ctx, appCaller, airline1, airline5)
	require.NoError(t, err)
	assert.False(t, registered)
	assert.Equal(t, uint64(1), votes)
	assert.False(t, l.IsRegisteredAirline(airline5))
	assert.Equal(t, uint64(4), l.RegisteredAirlineCount())

	_, _, err = l.RegisterAirline(ctx, appCaller, airline1, airline5)
	assert.ErrorIs(t, err, interfaces.ErrDuplicateVote)

	registered, votes, err = l.RegisterAirline(ctx, appCaller, airline2, airline5)
	require.NoError(t, err)
	assert.True(t, registered)
	assert.Equal(t, uint64(2), votes)
	assert.True(t, l.IsRegisteredAirline(airline5))
	assert.Equal(t, uint64(5), l.RegisteredAirlineCount())
}

func TestFund(t *testing.T) {
	ctx := context.Background()
	l, escrow := newTestLedger(t)

	_, err := l.Fund(ctx, ident(0x99), ether(10))
	assert.ErrorIs(t, err, interfaces.ErrNotRegistered)

	_, err = l.Fund(ctx, airline1, nil)
	assert.ErrorIs(t, err, interfaces.ErrInsufficientPayment)
	_, err = l.Fund(ctx, airline1, big.NewInt(0))
	assert.ErrorIs(t, err, interfaces.ErrInsufficientPayment)
	_, err = l.Fund(ctx, airline1, ether(9))
	assert.ErrorIs(t, err, interfaces.ErrInsufficientPayment)
	assert.False(t, l.IsFundedAirline(airline1))

	refund, err := l.Fund(ctx, airline1, ether(12))
	require.NoError(t, err)
	assert.Equal(t, ether(2), refund)
	assert.True(t, l.IsFundedAirline(airline1))

	// The pool keeps exactly the ante after the overpayment refund.
	balance, err := escrow.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, ether(10), balance)
	assert.Equal(t, ether(2), escrow.TransferredTo(airline1))

	_, err = l.Fund(ctx, airline1, ether(10))
	assert.ErrorIs(t, err, interfaces.ErrAlreadyFunded)
}

func TestBuy(t *testing.T) {
	ctx := context.Background()
	l, escrow := newSettledLedger(t)
	flight := interfaces.Flight{Airline: airline1, Number: "AA123", Departure: 1700000000}

	err := l.Buy(ctx, passenger, flight, nil)
	assert.ErrorIs(t, err, interfaces.ErrInsufficientPayment)
	err = l.Buy(ctx, passenger, flight, big.NewInt(-5))
	assert.ErrorIs(t, err, interfaces.ErrInsufficientPayment)

	// A purchase above the cap fails whole, nothing is taken.
	err = l.Buy(ctx, passenger, flight, ether(2))
	assert.ErrorIs(t, err, interfaces.ErrLimitExceeded)
	assert.Equal(t, 0, l.InsuranceAmount(passenger, flight).Sign())

	half := new(big.Int).Div(ether(1), big.NewInt(2))
	require.NoError(t, l.Buy(ctx, passenger, flight, half))
	assert.Equal(t, half, l.InsuranceAmount(passenger, flight))

	// Accumulating to exactly the cap is allowed, one unit more is not.
	require.NoError(t, l.Buy(ctx, passenger, flight, half))
	assert.Equal(t, ether(1), l.InsuranceAmount(passenger, flight))
	err = l.Buy(ctx, passenger, flight, big.NewInt(1))
	assert.ErrorIs(t, err, interfaces.ErrLimitExceeded)

	balance, err := escrow.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, ether(11), balance, "ante plus both premium installments")

	// A different departure is a different flight with its own headroom.
	later := interfaces.Flight{Airline: airline1, Number: "AA123", Departure: 1700000001}
	require.NoError(t, l.Buy(ctx, passenger, later, half))
	assert.Equal(t, half, l.InsuranceAmount(passenger, later))
}

func TestCreditInsurees(t *testing.T) {
	ctx := context.Background()
	l, _ := newSettledLedger(t)
	flight := interfaces.Flight{Airline: airline1, Number: "AA123", Departure: 1700000000}
	other := ident(0x31)

	_, err := l.CreditInsurees(ctx, passenger, flight, 3, 2)
	assert.ErrorIs(t, err, interfaces.ErrNotAuthorized)

	_, err = l.CreditInsurees(ctx, appCaller, flight, 3, 0)
	assert.Error(t, err)

	// Settling a flight nobody insured is a no-op.
	insurees, err := l.CreditInsurees(ctx, appCaller, flight, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, insurees)

	require.NoError(t, l.Buy(ctx, passenger, flight, big.NewInt(1000)))
	require.NoError(t, l.Buy(ctx, other, flight, big.NewInt(701)))

	insurees, err = l.CreditInsurees(ctx, appCaller, flight, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, insurees)
	assert.Equal(t, big.NewInt(1500), l.CreditBalance(passenger))
	assert.Equal(t, big.NewInt(1051), l.CreditBalance(other), "payout rounds down")

	// Same ratio again is idempotent.
	_, err = l.CreditInsurees(ctx, appCaller, flight, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), l.CreditBalance(passenger))

	// A different ratio overwrites, it does not accumulate.
	_, err = l.CreditInsurees(ctx, appCaller, flight, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2000), l.CreditBalance(passenger))
	assert.Equal(t, big.NewInt(1402), l.CreditBalance(other))
}

func TestPay(t *testing.T) {
	ctx := context.Background()
	l, escrow := newSettledLedger(t)
	flight := interfaces.Flight{Airline: airline1, Number: "AA123", Departure: 1700000000}

	_, err := l.Pay(ctx, passenger)
	assert.ErrorIs(t, err, interfaces.ErrNoCredit)

	require.NoError(t, l.Buy(ctx, passenger, flight, big.NewInt(1000)))
	_, err = l.CreditInsurees(ctx, appCaller, flight, 3, 2)
	require.NoError(t, err)

	paid, err := l.Pay(ctx, passenger)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), paid)
	assert.Equal(t, 0, l.CreditBalance(passenger).Sign())
	assert.Equal(t, big.NewInt(1500), escrow.TransferredTo(passenger))

	// The balance was zeroed before the transfer; a repeat finds nothing.
	_, err = l.Pay(ctx, passenger)
	assert.ErrorIs(t, err, interfaces.ErrNoCredit)
}

func TestPay_UnderfundedEscrow(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()

	store, err := storage.NewFileStore(t.TempDir(), logger)
	require.NoError(t, err)

	mockTreasury := new(treasury.MockTreasury)
	mockTreasury.On("Deposit", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockTreasury.On("Balance", mock.Anything).Return(big.NewInt(10), nil)

	l, err := New(Config{Admin: admin, FirstAirline: airline1}, store, mockTreasury, logger)
	require.NoError(t, err)
	require.NoError(t, l.AuthorizeCaller(ctx, admin, appCaller))

	flight := interfaces.Flight{Airline: airline1, Number: "AA123", Departure: 1700000000}
	require.NoError(t, l.Buy(ctx, passenger, flight, big.NewInt(1000)))
	_, err = l.CreditInsurees(ctx, appCaller, flight, 3, 2)
	require.NoError(t, err)

	// Escrow reports less than the credit: the payout must fail with the
	// balance untouched and no Payout call issued.
	_, err = l.Pay(ctx, passenger)
	require.Error(t, err)
	assert.Equal(t, big.NewInt(1500), l.CreditBalance(passenger))
	mockTreasury.AssertNotCalled(t, "Payout", mock.Anything, mock.Anything, mock.Anything)
}

// failingStore wraps a working store and fails snapshot writes on demand.
type failingStore struct {
	interfaces.LedgerStore
	failSave bool
}

func (s *failingStore) SaveSnapshot(ctx context.Context, data []byte) error {
	if s.failSave {
		return errors.New("store offline")
	}
	return s.LedgerStore.SaveSnapshot(ctx, data)
}

func TestCommitFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()

	inner, err := storage.NewFileStore(t.TempDir(), logger)
	require.NoError(t, err)
	store := &failingStore{LedgerStore: inner}

	escrow := treasury.NewEscrowTreasury(logger)
	l, err := New(Config{Admin: admin, FirstAirline: airline1}, store, escrow, logger)
	require.NoError(t, err)

	store.failSave = true
	_, err = l.Fund(ctx, airline1, ether(10))
	require.Error(t, err)
	assert.False(t, l.IsFundedAirline(airline1))

	// No treasury movement happens for an uncommitted mutation.
	balance, err := escrow.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())

	store.failSave = false
	_, err = l.Fund(ctx, airline1, ether(10))
	require.NoError(t, err)
	assert.True(t, l.IsFundedAirline(airline1))
}

func TestRestartRecovery(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()
	dir := t.TempDir()
	flight := interfaces.Flight{Airline: airline1, Number: "AA123", Departure: 1700000000}

	store, err := storage.NewFileStore(dir, logger)
	require.NoError(t, err)
	escrow := treasury.NewEscrowTreasury(logger)
	cfg := Config{Admin: admin, FirstAirline: airline1}

	l, err := New(cfg, store, escrow, logger)
	require.NoError(t, err)
	_, err = l.Fund(ctx, airline1, ether(10))
	require.NoError(t, err)
	require.NoError(t, l.AuthorizeCaller(ctx, admin, appCaller))
	_, _, err = l.RegisterAirline(ctx, appCaller, airline1, airline2)
	require.NoError(t, err)
	require.NoError(t, l.Buy(ctx, passenger, flight, big.NewInt(1000)))
	_, err = l.CreditInsurees(ctx, appCaller, flight, 3, 2)
	require.NoError(t, err)

	// A fresh ledger over the same store resumes with identical state.
	restoreStore, err := storage.NewFileStore(dir, logger)
	require.NoError(t, err)
	restored, err := New(cfg, restoreStore, treasury.NewEscrowTreasury(logger), logger)
	require.NoError(t, err)

	assert.True(t, restored.IsOperational())
	assert.True(t, restored.IsFundedAirline(airline1))
	assert.True(t, restored.IsRegisteredAirline(airline2))
	assert.True(t, restored.IsAuthorizedCaller(appCaller))
	assert.Equal(t, uint64(2), restored.RegisteredAirlineCount())
	assert.Equal(t, big.NewInt(1000), restored.InsuranceAmount(passenger, flight))
	assert.Equal(t, big.NewInt(1500), restored.CreditBalance(passenger))
}

// TestMultipartyLifecycle walks the full scheme end to end: direct admissions,
// a voted admission, a purchase, a settlement and a withdrawal.
func TestMultipartyLifecycle(t *testing.T) {
	ctx := context.Background()
	l, escrow := newSettledLedger(t)

	for _, candidate := range []interfaces.Identity{airline2, airline3, airline4} {
		registered, _, err := l.RegisterAirline(ctx, appCaller, airline1, candidate)
		require.NoError(t, err)
		require.True(t, registered)
	}

	_, err := l.Fund(ctx, airline3, ether(10))
	require.NoError(t, err)

	registered, _, err := l.RegisterAirline(ctx, appCaller, airline1, airline5)
	require.NoError(t, err)
	require.False(t, registered, "fifth airline needs a second vote")
	registered, _, err = l.RegisterAirline(ctx, appCaller, airline3, airline5)
	require.NoError(t, err)
	require.True(t, registered)

	flight := interfaces.Flight{Airline: airline5, Number: "NT510", Departure: 1700000000}
	premium := new(big.Int).Div(ether(1), big.NewInt(10))
	require.NoError(t, l.Buy(ctx, passenger, flight, premium))

	insurees, err := l.CreditInsurees(ctx, appCaller, flight, 3, 2)
	require.NoError(t, err)
	require.Equal(t, 1, insurees)

	expected := new(big.Int).Mul(premium, big.NewInt(3))
	expected.Div(expected, big.NewInt(2))
	paid, err := l.Pay(ctx, passenger)
	require.NoError(t, err)
	assert.Equal(t, expected, paid)
	assert.Equal(t, expected, escrow.TransferredTo(passenger))
	assert.Equal(t, 0, l.CreditBalance(passenger).Sign())
}
