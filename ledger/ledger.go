package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// Ledger owns the full insurance-scheme state and serializes every mutating
// entry point behind one mutex. See the package documentation for the
// transactional discipline.
type Ledger struct {
	mu       sync.Mutex
	cfg      Config
	state    *ledgerState
	store    interfaces.LedgerStore
	treasury interfaces.Treasury
	log      *slog.Logger
}

// New creates a ledger backed by the given store and treasury. If the store
// holds a snapshot the ledger resumes from it; otherwise the genesis state is
// written (gate open, first airline registered and unfunded).
func New(cfg Config, store interfaces.LedgerStore, treasury interfaces.Treasury, log *slog.Logger) (*Ledger, error) {
	full, err := cfg.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("invalid ledger config: %w", err)
	}

	l := &Ledger{
		cfg:      full,
		store:    store,
		treasury: treasury,
		log:      log,
	}

	ctx := context.Background()
	data, err := store.LoadSnapshot(ctx)
	switch {
	case err == nil:
		state, err := unmarshalState(data)
		if err != nil {
			return nil, err
		}
		l.state = state
		log.Info("Ledger state restored",
			slog.Uint64("seq", state.Seq),
			slog.Uint64("registeredAirlines", state.RegisteredCount))
	case errors.Is(err, interfaces.ErrNoSnapshot):
		l.state = genesisState(full)
		snapshot, err := l.state.marshal()
		if err != nil {
			return nil, err
		}
		if err := store.SaveSnapshot(ctx, snapshot); err != nil {
			return nil, fmt.Errorf("failed to persist genesis state: %w", err)
		}
		log.Info("Ledger genesis state created",
			slog.String("firstAirline", full.FirstAirline.String()))
	default:
		return nil, fmt.Errorf("failed to load ledger snapshot: %w", err)
	}

	return l, nil
}

// Admin returns the administrative identity the ledger was created with.
func (l *Ledger) Admin() interfaces.Identity {
	return l.cfg.Admin
}

// commit persists next and swaps it in as current state. The snapshot write
// is the commit point; the journal append is best-effort audit output and a
// failure there is logged, not surfaced.
func (l *Ledger) commit(ctx context.Context, next *ledgerState, ev Event) error {
	next.Seq++
	ev.Seq = next.Seq
	ev.Time = time.Now().UTC()

	snapshot, err := next.marshal()
	if err != nil {
		return fmt.Errorf("failed to encode ledger state: %w", err)
	}
	if err := l.store.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to persist ledger state: %w", err)
	}
	l.state = next

	record, err := json.Marshal(ev)
	if err == nil {
		err = l.store.AppendEvent(ctx, record)
	}
	if err != nil {
		l.log.Warn("Failed to append ledger event",
			slog.String("type", string(ev.Type)),
			slog.Uint64("seq", ev.Seq),
			"err", err)
	}
	return nil
}

// ─── Operational gate ───

// IsOperational reports whether mutating entry points are enabled.
func (l *Ledger) IsOperational() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Operational
}

// SetOperatingStatus flips the process-wide operational gate. Only the
// administrative identity may call it, and it is deliberately not gated by
// its own flag so a paused system can be unpaused.
func (l *Ledger) SetOperatingStatus(ctx context.Context, caller interfaces.Identity, mode bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !caller.Equal(l.cfg.Admin) {
		return interfaces.ErrNotAuthorized
	}
	if l.state.Operational == mode {
		return nil
	}

	next := l.state.clone()
	next.Operational = mode
	return l.commit(ctx, next, Event{
		Type:   EventOperationalStatusChanged,
		Caller: caller,
		Mode:   &mode,
	})
}

// ─── Authorization registry ───

// AuthorizeCaller adds an orchestrator identity to the privileged-caller
// whitelist. Admin only, gate open.
func (l *Ledger) AuthorizeCaller(ctx context.Context, caller, identity interfaces.Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.Operational {
		return interfaces.ErrGateClosed
	}
	if !caller.Equal(l.cfg.Admin) {
		return interfaces.ErrNotAuthorized
	}
	if l.state.AuthorizedCallers[identity] {
		return nil
	}

	next := l.state.clone()
	next.AuthorizedCallers[identity] = true
	return l.commit(ctx, next, Event{
		Type:    EventCallerAuthorized,
		Caller:  caller,
		Subject: &identity,
	})
}

// DeauthorizeCaller removes an orchestrator identity from the whitelist.
// Admin only, gate open.
func (l *Ledger) DeauthorizeCaller(ctx context.Context, caller, identity interfaces.Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.Operational {
		return interfaces.ErrGateClosed
	}
	if !caller.Equal(l.cfg.Admin) {
		return interfaces.ErrNotAuthorized
	}
	if !l.state.AuthorizedCallers[identity] {
		return nil
	}

	next := l.state.clone()
	delete(next.AuthorizedCallers, identity)
	return l.commit(ctx, next, Event{
		Type:    EventCallerDeauthorized,
		Caller:  caller,
		Subject: &identity,
	})
}

// IsAuthorizedCaller reports whitelist membership.
func (l *Ledger) IsAuthorizedCaller(identity interfaces.Identity) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.AuthorizedCallers[identity]
}

// ─── Read-only lookups ───

// IsRegisteredAirline reports whether the identity is a registered airline.
func (l *Ledger) IsRegisteredAirline(identity interfaces.Identity) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	profile, ok := l.state.Airlines[identity]
	return ok && profile.Registered
}

// IsFundedAirline reports whether the identity is a registered airline that
// has paid the ante.
func (l *Ledger) IsFundedAirline(identity interfaces.Identity) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	profile, ok := l.state.Airlines[identity]
	return ok && profile.Funded
}

// RegisteredAirlineCount returns the number of registered airlines.
func (l *Ledger) RegisteredAirlineCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.RegisteredCount
}

// InsuranceAmount returns the passenger's accumulated policy amount on the
// flight. Pure lookup, zero when no policy exists.
func (l *Ledger) InsuranceAmount(passenger interfaces.Identity, flight interfaces.Flight) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.policyAmount(flight.Key(), passenger)
}

// CreditBalance returns the passenger's withdrawable credit.
func (l *Ledger) CreditBalance(passenger interfaces.Identity) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.creditAmount(passenger)
}
