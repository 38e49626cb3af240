package interfaces

import "errors"

// Rejection errors returned by ledger entry points. A call that fails with
// any of these leaves ledger state unchanged; callers are expected to
// resubmit rather than rely on internal retries.
var (
	// ErrGateClosed is returned by every mutating entry point except
	// SetOperatingStatus while the operational gate is down.
	ErrGateClosed = errors.New("operations are suspended")

	// ErrNotAuthorized is returned when the caller is neither the
	// administrative identity nor a whitelisted orchestrator, depending on
	// which the entry point requires.
	ErrNotAuthorized = errors.New("caller is not authorized")

	// ErrNotRegistered is returned when an identity expected to be a
	// registered airline is not.
	ErrNotRegistered = errors.New("airline is not registered")

	// ErrNotFunded is returned when a registered airline has not yet paid
	// the registration ante.
	ErrNotFunded = errors.New("airline has not funded")

	// ErrAlreadyRegistered is returned when registering a candidate that is
	// already a registered airline.
	ErrAlreadyRegistered = errors.New("airline is already registered")

	// ErrAlreadyFunded is returned when a funded airline funds again.
	ErrAlreadyFunded = errors.New("airline has already funded")

	// ErrDuplicateVote is returned when an origin airline votes twice for
	// the same candidate.
	ErrDuplicateVote = errors.New("duplicate registration vote")

	// ErrInsufficientPayment is returned for a funding payment below the
	// ante or a zero-value insurance purchase.
	ErrInsufficientPayment = errors.New("insufficient payment")

	// ErrLimitExceeded is returned when an insurance purchase would push a
	// policy above the per-policy cap. The whole purchase is rejected.
	ErrLimitExceeded = errors.New("insurance limit exceeded")

	// ErrNoCredit is returned by Pay when the caller has no withdrawable
	// credit.
	ErrNoCredit = errors.New("no credit to withdraw")
)

// ErrNoSnapshot is returned by LedgerStore.LoadSnapshot when no snapshot has
// been written yet.
var ErrNoSnapshot = errors.New("no ledger snapshot found")
