package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// CreditInsurees credits every passenger on the flight's insured roster with
// floor(policy * multiplier / divider). The caller must be a whitelisted
// orchestrator; the flight-status determination itself happens outside the
// ledger.
//
// Balances are overwritten, not accumulated: repeating the call with the same
// ratio is idempotent, and a call with a different ratio replaces the prior
// credit. A passenger insured on two settled flights keeps only the most
// recent settlement's balance until they withdraw.
//
// Returns the number of passengers credited, zero when the flight has no
// insured roster.
func (l *Ledger) CreditInsurees(ctx context.Context, caller interfaces.Identity, flight interfaces.Flight, multiplier, divider uint64) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.Operational {
		return 0, interfaces.ErrGateClosed
	}
	if !l.state.AuthorizedCallers[caller] {
		return 0, interfaces.ErrNotAuthorized
	}
	if divider == 0 {
		return 0, fmt.Errorf("invalid payout ratio %d/%d", multiplier, divider)
	}

	key := flight.Key()
	pool, ok := l.state.Flights[key]
	if !ok || len(pool.Roster) == 0 {
		return 0, nil
	}

	mult := new(big.Int).SetUint64(multiplier)
	div := new(big.Int).SetUint64(divider)

	next := l.state.clone()
	nextPool := next.Flights[key]
	for _, passenger := range nextPool.Roster {
		policy := (*big.Int)(nextPool.Policies[passenger])
		credit := new(big.Int).Mul(policy, mult)
		credit.Div(credit, div)
		next.Credits[passenger] = toAmount(credit)
	}

	if err := l.commit(ctx, next, Event{
		Type:       EventInsureesCredited,
		Caller:     caller,
		FlightKey:  &key,
		Multiplier: multiplier,
		Divider:    divider,
		Insurees:   len(nextPool.Roster),
	}); err != nil {
		return 0, err
	}

	l.log.Info("Insurees credited",
		slog.String("flightKey", key.String()),
		slog.Int("insurees", len(nextPool.Roster)),
		slog.Uint64("multiplier", multiplier),
		slog.Uint64("divider", divider))
	return len(nextPool.Roster), nil
}

// Pay releases the caller's full credited balance and returns the amount
// paid. The balance is zeroed and committed before any funds move, so a
// re-entering caller sees a zero balance and fails with ErrNoCredit.
func (l *Ledger) Pay(ctx context.Context, caller interfaces.Identity) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.Operational {
		return nil, interfaces.ErrGateClosed
	}

	credit := l.state.creditAmount(caller)
	if credit.Sign() <= 0 {
		return nil, interfaces.ErrNoCredit
	}

	escrow, err := l.treasury.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check escrow balance: %w", err)
	}
	if escrow.Cmp(credit) < 0 {
		return nil, fmt.Errorf("escrow pool underfunded: have %s, owe %s", escrow, credit)
	}

	next := l.state.clone()
	next.Credits[caller] = toAmount(new(big.Int))

	if err := l.commit(ctx, next, Event{
		Type:    EventPayoutExecuted,
		Caller:  caller,
		Subject: &caller,
		Amount:  toAmount(credit),
	}); err != nil {
		return nil, err
	}

	if err := l.treasury.Payout(ctx, caller, credit); err != nil {
		l.log.Error("Payout transfer failed after commit",
			slog.String("passenger", caller.String()),
			slog.String("amount", credit.String()),
			"err", err)
		return nil, err
	}

	l.log.Info("Credit paid out",
		slog.String("passenger", caller.String()),
		slog.String("amount", credit.String()))
	return credit, nil
}
