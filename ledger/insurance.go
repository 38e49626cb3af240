package ledger

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// Buy records an insurance purchase for the passenger on the given flight.
// The payment must be positive and the accumulated policy may not exceed the
// per-policy cap; a purchase above the remaining headroom fails whole, no
// partial amount is taken. The passenger joins the flight's insured roster on
// their first nonzero purchase and never again.
func (l *Ledger) Buy(ctx context.Context, passenger interfaces.Identity, flight interfaces.Flight, payment *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.Operational {
		return interfaces.ErrGateClosed
	}
	if payment == nil || payment.Sign() <= 0 {
		return interfaces.ErrInsufficientPayment
	}

	key := flight.Key()
	current := l.state.policyAmount(key, passenger)
	updated := new(big.Int).Add(current, payment)
	if updated.Cmp(l.cfg.InsuranceCap) > 0 {
		return interfaces.ErrLimitExceeded
	}

	next := l.state.clone()
	pool, ok := next.Flights[key]
	if !ok {
		pool = &flightPool{
			Policies: make(map[interfaces.Identity]*hexutil.Big),
			Flight:   flight,
		}
		next.Flights[key] = pool
	}
	if current.Sign() == 0 {
		pool.Roster = append(pool.Roster, passenger)
	}
	pool.Policies[passenger] = toAmount(updated)

	if err := l.commit(ctx, next, Event{
		Type:      EventInsurancePurchased,
		Caller:    passenger,
		Subject:   &passenger,
		FlightKey: &key,
		Amount:    toAmount(payment),
	}); err != nil {
		return err
	}

	if err := l.treasury.Deposit(ctx, passenger, payment); err != nil {
		l.log.Error("Premium deposit failed after commit",
			slog.String("passenger", passenger.String()), "err", err)
		return err
	}

	l.log.Info("Insurance purchased",
		slog.String("passenger", passenger.String()),
		slog.String("flightKey", key.String()),
		slog.String("amount", payment.String()))
	return nil
}
