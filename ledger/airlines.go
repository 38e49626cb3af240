package ledger

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// RegisterAirline admits a candidate airline, or records one admission vote
// for it. The immediate caller must be a whitelisted orchestrator; origin is
// the ultimate initiating identity the orchestrator is trusted to supply, and
// must be a registered, funded airline.
//
// While fewer airlines than the voting threshold are registered the candidate
// is admitted directly and the reported vote count is 1. At or above the
// threshold the origin's vote is recorded (a duplicate vote from the same
// origin fails with ErrDuplicateVote) and the candidate is admitted once
// 2*votes >= the current registered count; the approval set is cleared on
// admission. Admitted airlines start unfunded.
//
// Returns whether the candidate is now registered and the vote count as of
// this call.
func (l *Ledger) RegisterAirline(ctx context.Context, caller, origin, candidate interfaces.Identity) (bool, uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.Operational {
		return false, 0, interfaces.ErrGateClosed
	}
	if !l.state.AuthorizedCallers[caller] {
		return false, 0, interfaces.ErrNotAuthorized
	}

	originProfile, ok := l.state.Airlines[origin]
	if !ok || !originProfile.Registered {
		return false, 0, interfaces.ErrNotRegistered
	}
	if !originProfile.Funded {
		return false, 0, interfaces.ErrNotFunded
	}
	if profile, ok := l.state.Airlines[candidate]; ok && profile.Registered {
		return false, 0, interfaces.ErrAlreadyRegistered
	}

	next := l.state.clone()

	if next.RegisteredCount < l.cfg.VotingThreshold {
		next.Airlines[candidate] = &airlineProfile{Registered: true}
		next.RegisteredCount++
		if err := l.commit(ctx, next, Event{
			Type:    EventAirlineRegistered,
			Caller:  caller,
			Subject: &candidate,
			Votes:   1,
		}); err != nil {
			return false, 0, err
		}
		l.log.Info("Airline registered directly",
			slog.String("candidate", candidate.String()),
			slog.Uint64("registeredAirlines", next.RegisteredCount))
		return true, 1, nil
	}

	for _, voter := range next.Approvals[candidate] {
		if voter.Equal(origin) {
			return false, 0, interfaces.ErrDuplicateVote
		}
	}
	next.Approvals[candidate] = append(next.Approvals[candidate], origin)
	votes := uint64(len(next.Approvals[candidate]))

	// Strict half-or-more of the current count, not count+1: the candidate
	// does not vote for itself.
	if 2*votes >= next.RegisteredCount {
		delete(next.Approvals, candidate)
		next.Airlines[candidate] = &airlineProfile{Registered: true}
		next.RegisteredCount++
		if err := l.commit(ctx, next, Event{
			Type:    EventAirlineRegistered,
			Caller:  caller,
			Subject: &candidate,
			Votes:   votes,
		}); err != nil {
			return false, 0, err
		}
		l.log.Info("Airline admitted by vote",
			slog.String("candidate", candidate.String()),
			slog.Uint64("votes", votes),
			slog.Uint64("registeredAirlines", next.RegisteredCount))
		return true, votes, nil
	}

	if err := l.commit(ctx, next, Event{
		Type:    EventAirlineVoteRecorded,
		Caller:  caller,
		Subject: &candidate,
		Votes:   votes,
	}); err != nil {
		return false, 0, err
	}
	l.log.Info("Airline registration vote recorded",
		slog.String("candidate", candidate.String()),
		slog.String("origin", origin.String()),
		slog.Uint64("votes", votes))
	return false, votes, nil
}

// Fund marks the calling airline as funded. The payment must cover the
// registration ante; any excess is refunded to the caller once the funding
// has been committed, and the refunded amount is returned. Funding is the
// only way an airline becomes eligible to originate registrations or votes.
func (l *Ledger) Fund(ctx context.Context, caller interfaces.Identity, payment *big.Int) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.Operational {
		return nil, interfaces.ErrGateClosed
	}
	if payment == nil || payment.Sign() <= 0 {
		return nil, interfaces.ErrInsufficientPayment
	}

	profile, ok := l.state.Airlines[caller]
	if !ok || !profile.Registered {
		return nil, interfaces.ErrNotRegistered
	}
	if profile.Funded {
		return nil, interfaces.ErrAlreadyFunded
	}
	if payment.Cmp(l.cfg.RegistrationAnte) < 0 {
		return nil, interfaces.ErrInsufficientPayment
	}

	excess := new(big.Int).Sub(payment, l.cfg.RegistrationAnte)

	next := l.state.clone()
	next.Airlines[caller].Funded = true

	ev := Event{
		Type:    EventAirlineFunded,
		Caller:  caller,
		Subject: &caller,
		Amount:  toAmount(l.cfg.RegistrationAnte),
	}
	if excess.Sign() > 0 {
		ev.Refund = toAmount(excess)
	}
	if err := l.commit(ctx, next, ev); err != nil {
		return nil, err
	}

	if err := l.treasury.Deposit(ctx, caller, payment); err != nil {
		l.log.Error("Ante deposit failed after commit",
			slog.String("airline", caller.String()), "err", err)
		return nil, err
	}
	if excess.Sign() > 0 {
		if err := l.treasury.Refund(ctx, caller, excess); err != nil {
			l.log.Error("Excess refund failed after commit",
				slog.String("airline", caller.String()), "err", err)
			return nil, err
		}
	}

	l.log.Info("Airline funded",
		slog.String("airline", caller.String()),
		slog.String("refund", excess.String()))
	return excess, nil
}
