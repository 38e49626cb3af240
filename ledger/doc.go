// Package ledger implements the on-ledger state machine for the multi-party
// flight-delay insurance scheme: airline admission consensus, funding gating,
// insurance bookkeeping and credit/payout settlement.
//
// All state is owned by a single Ledger value and mutated only through its
// entry points. Mutating operations serialize on one mutex and follow a
// strict transactional discipline: validate against current state, apply the
// mutation to a deep copy, persist the copy through the LedgerStore, and only
// then swap it in. A call that fails — validation or persistence — leaves the
// ledger unchanged.
//
// Treasury movements (ante deposits, excess refunds, payouts) happen strictly
// after the state swap, so a caller re-entering during a transfer observes
// committed post-transfer bookkeeping. Pay in particular zeroes the credit
// balance before any funds move.
//
// # Components
//
// OperationalGate: SetOperatingStatus / IsOperational. The gate setter is
// restricted to the administrative identity and is never gated by its own
// flag, so the system can always be unpaused.
//
// AuthorizationRegistry: AuthorizeCaller / DeauthorizeCaller maintain the
// whitelist of orchestrator identities permitted to invoke privileged entry
// points (airline registration, crediting).
//
// AirlineRegistry: RegisterAirline and Fund implement the two-regime
// admission protocol. Below the voting threshold candidates register
// directly; at or above it each funded airline origin casts one vote and the
// candidate is admitted once 2*votes >= the current registered count.
//
// InsurancePool: Buy accumulates bounded per-flight policies and maintains
// the per-flight insured roster.
//
// SettlementEngine: CreditInsurees computes payout credits for every insured
// passenger of a flight; Pay releases a passenger's credit on demand.
package ledger
